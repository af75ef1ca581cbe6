package model

// 分析结果均为派生数据：每次调用按输入序列和“今天”重新计算，从不落库。

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskOptimal  RiskLevel = "optimal"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskUnknown  RiskLevel = "unknown"
)

type RecoverySource string

const (
	SourceSleep     RecoverySource = "sleep"
	SourceReadiness RecoverySource = "readiness"
	SourceCombined  RecoverySource = "combined"
)

type RecoveryLevel string

const (
	RecoveryExcellent RecoveryLevel = "excellent"
	RecoveryGood      RecoveryLevel = "good"
	RecoveryFair      RecoveryLevel = "fair"
	RecoveryUnknown   RecoveryLevel = "unknown"
)

// ACWRResult 急慢性负荷比
type ACWRResult struct {
	Ratio          float64   `json:"ratio"`
	AcuteAvg       float64   `json:"acuteAvg"`   // 近7日窗口均值（英里/天）
	ChronicAvg     float64   `json:"chronicAvg"` // 近28日窗口均值（英里/天）
	RiskLevel      RiskLevel `json:"riskLevel"`
	Recommendation string    `json:"recommendation"`
}

// RecoveryResult 当日恢复分
type RecoveryResult struct {
	Score  int            `json:"score"` // 0-100
	Source RecoverySource `json:"source"`
}

// DailyRecommendation 按日期给出的训练建议（含无数据占位）
type DailyRecommendation struct {
	Date      string          `json:"date"` // YYYY-MM-DD
	HasData   bool            `json:"hasData"`
	Recovery  *RecoveryResult `json:"recovery,omitempty"`
	Level     RecoveryLevel   `json:"level"`
	Text      string          `json:"text"`
	Intensity string          `json:"intensity"`
	Color     string          `json:"color"`
}

// FullAnalysis 仪表盘汇总
type FullAnalysis struct {
	ACWR *ACWRResult `json:"acwr"`
	// TodayRecovery 仅当“今天”存在记录时给出
	TodayRecovery       *RecoveryResult      `json:"todayRecovery,omitempty"`
	TodayRecommendation *DailyRecommendation `json:"todayRecommendation,omitempty"`
	// AvgRecovery 按记录位置取最后 7 条中可计算恢复分的均值（四舍五入）
	AvgRecovery      *int          `json:"avgRecovery,omitempty"`
	AvgRecoveryLevel RecoveryLevel `json:"avgRecoveryLevel"`
}

// WeeklyMileage 周跑量汇总（仪表盘趋势条）
type WeeklyMileage struct {
	WeekStart string  `json:"weekStart"` // 周一，YYYY-MM-DD
	Miles     float64 `json:"miles"`
	Runs      int     `json:"runs"`
}
