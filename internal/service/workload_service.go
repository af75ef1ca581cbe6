package service

import (
	"math"
	"time"

	"runsight_backend/internal/model"
	"runsight_backend/internal/util"
)

// ACWR 风险阈值
const (
	ACWRLowMax     = 0.8 // ratio < 0.8 → low
	ACWROptimalMax = 1.3 // 0.8 ≤ ratio ≤ 1.3 → optimal
	ACWRHighMin    = 1.5 // ratio ≥ 1.5 → high；(1.3, 1.5) → moderate

	AcuteWindowDays   = 7
	ChronicWindowDays = 28
	MinRecordsForACWR = 7
)

// 恢复分权重与等级阈值
const (
	ReadinessWeight = 0.6
	SleepWeight     = 0.4

	RecoveryExcellentMin = 85
	RecoveryGoodMin      = 70
	RecoveryFairMin      = 50
)

// 最佳跑步日判定阈值
const (
	SleepOptimalMin     = 85
	ReadinessOptimalMin = 80
	SleepLowCutoff      = 70
	ReadinessLowCutoff  = 65
)

// AvgRecoveryWindow FullAnalysis 中按位置取最后 N 条记录求平均恢复分
const AvgRecoveryWindow = 7

// levelSpec 恢复等级 → 建议文案/强度/颜色，按 MinScore 降序排列
type levelSpec struct {
	Level     model.RecoveryLevel
	MinScore  int
	Text      string
	Intensity string
	Color     string
}

var recoveryLevelTable = []levelSpec{
	{model.RecoveryExcellent, RecoveryExcellentMin, "Fully recovered. Great day for a hard workout or long run.", "high", "#4CAF50"},
	{model.RecoveryGood, RecoveryGoodMin, "Well recovered. A quality session is fine today.", "moderate", "#8BC34A"},
	{model.RecoveryFair, RecoveryFairMin, "Partially recovered. Keep today easy.", "low", "#FF9800"},
}

// poor 档与无法计算恢复分时统一落到 unknown
var unknownLevel = levelSpec{
	Level:     model.RecoveryUnknown,
	Text:      "Recovery is low or unknown. Consider a rest day.",
	Intensity: "rest",
	Color:     "#9E9E9E",
}

const noDataText = "No data available for this day."

var acwrRecommendations = map[model.RiskLevel]string{
	model.RiskLow:      "Training load is low. You have room to build volume safely.",
	model.RiskOptimal:  "Training load is in the optimal range. Keep it up.",
	model.RiskModerate: "Load is ramping quickly. Add volume or intensity with caution.",
	model.RiskHigh:     "Injury risk is elevated. Back off and plan a recovery week.",
}

// WorkloadService 训练负荷与恢复分析。纯计算：除注入的时钟外不依赖任何外部状态，
// 相同输入永远得到相同输出。
type WorkloadService struct {
	Now func() time.Time
}

func NewWorkloadService() *WorkloadService {
	return &WorkloadService{Now: time.Now}
}

// Today 按注入时钟取当天零点
func (s *WorkloadService) Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	now := s.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CalculateACWR 计算急慢性负荷比。
// 两个窗口都以 today 结尾（含端点）：[today-7, today] 与 [today-28, today]。
// 均值除以固定窗口长度 7/28 而不是实际记录数——缺行按零跑量计入，
// 这与恢复分对缺数据的处理刻意不同。
// 数据不足（记录总数 < 7、慢性窗口无记录、慢性均值为 0）返回 nil 而不是报错。
func (s *WorkloadService) CalculateACWR(records []model.DailyRecord, today time.Time) *model.ACWRResult {
	if len(records) < MinRecordsForACWR {
		return nil
	}

	day := dayOf(today)
	acuteStart := day.AddDate(0, 0, -AcuteWindowDays)
	chronicStart := day.AddDate(0, 0, -ChronicWindowDays)

	var acuteSum, chronicSum float64
	chronicCount := 0
	for i := range records {
		d := records[i].Day()
		if d.Before(chronicStart) || d.After(day) {
			continue
		}
		chronicSum += records[i].Distance
		chronicCount++
		if !d.Before(acuteStart) {
			acuteSum += records[i].Distance
		}
	}

	if chronicCount == 0 {
		return nil
	}

	chronicAvg := chronicSum / ChronicWindowDays
	if chronicAvg == 0 {
		// 比值无定义
		return nil
	}
	acuteAvg := acuteSum / AcuteWindowDays
	ratio := acuteAvg / chronicAvg

	level := riskLevelForRatio(ratio)
	return &model.ACWRResult{
		Ratio:          ratio,
		AcuteAvg:       acuteAvg,
		ChronicAvg:     chronicAvg,
		RiskLevel:      level,
		Recommendation: acwrRecommendations[level],
	}
}

func riskLevelForRatio(ratio float64) model.RiskLevel {
	switch {
	case ratio < ACWRLowMax:
		return model.RiskLow
	case ratio <= ACWROptimalMax:
		return model.RiskOptimal
	case ratio < ACWRHighMin:
		return model.RiskModerate
	default:
		return model.RiskHigh
	}
}

// CalculateRecoveryScore 计算当日恢复分。
// 两者都缺 → nil；只有一项 → 直接透传并标注来源；
// 两者都有 → readiness*0.6 + sleep*0.4，四舍五入。
func (s *WorkloadService) CalculateRecoveryScore(sleepScore, readinessScore *int) *model.RecoveryResult {
	switch {
	case sleepScore == nil && readinessScore == nil:
		return nil
	case sleepScore != nil && readinessScore != nil:
		blended := float64(*readinessScore)*ReadinessWeight + float64(*sleepScore)*SleepWeight
		return &model.RecoveryResult{
			Score:  int(math.Round(blended)),
			Source: model.SourceCombined,
		}
	case sleepScore != nil:
		return &model.RecoveryResult{Score: *sleepScore, Source: model.SourceSleep}
	default:
		return &model.RecoveryResult{Score: *readinessScore, Source: model.SourceReadiness}
	}
}

// IsOptimalRunDay 三态判定：true/false/nil（nil 表示中间态）。
// 分支顺序即语义：先判最佳（sleep≥85 且 readiness≥80），再判偏低
// （sleep<70 或 readiness<65）。两个条件并不互斥，混合高低分时谁先命中
// 谁生效——这是沿用已上线行为，不要按阈值表“修正”。
func (s *WorkloadService) IsOptimalRunDay(sleepScore, readinessScore *int) *bool {
	if sleepScore != nil && readinessScore != nil &&
		*sleepScore >= SleepOptimalMin && *readinessScore >= ReadinessOptimalMin {
		return boolPtr(true)
	}
	if (sleepScore != nil && *sleepScore < SleepLowCutoff) ||
		(readinessScore != nil && *readinessScore < ReadinessLowCutoff) {
		return boolPtr(false)
	}
	return nil
}

// DailyRecommendation 按日期给出训练建议。没有当日记录时返回固定的无数据占位。
func (s *WorkloadService) DailyRecommendation(records []model.DailyRecord, date time.Time) model.DailyRecommendation {
	day := dayOf(date)
	rec := findByDay(records, day)
	if rec == nil {
		return model.DailyRecommendation{
			Date:      day.Format(util.DateFormat),
			HasData:   false,
			Level:     unknownLevel.Level,
			Text:      noDataText,
			Intensity: unknownLevel.Intensity,
			Color:     unknownLevel.Color,
		}
	}

	recovery := s.CalculateRecoveryScore(rec.SleepScore, rec.ReadinessScore)
	spec := unknownLevel
	if recovery != nil {
		spec = levelForScore(recovery.Score)
	}
	return model.DailyRecommendation{
		Date:      day.Format(util.DateFormat),
		HasData:   true,
		Recovery:  recovery,
		Level:     spec.Level,
		Text:      spec.Text,
		Intensity: spec.Intensity,
		Color:     spec.Color,
	}
}

// levelForScore 顺序扫描等级表，低于 fair 下限的分数落到 unknown
func levelForScore(score int) levelSpec {
	for _, spec := range recoveryLevelTable {
		if score >= spec.MinScore {
			return spec
		}
	}
	return unknownLevel
}

// CalendarRecommendations 生成 [start, end]（含端点）每个自然日的建议，升序。
// 结果长度恒等于区间天数，没有记录的日子是无数据占位。
func (s *WorkloadService) CalendarRecommendations(records []model.DailyRecord, start, end time.Time) []model.DailyRecommendation {
	first := dayOf(start)
	last := dayOf(end)

	out := []model.DailyRecommendation{}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, s.DailyRecommendation(records, d))
	}
	return out
}

// FullAnalysis 仪表盘汇总：ACWR、今日恢复与建议（仅当今日有记录）、
// 以及按记录位置取最后 7 条中可计算恢复分的平均值。空输入返回 nil。
func (s *WorkloadService) FullAnalysis(records []model.DailyRecord, today time.Time) *model.FullAnalysis {
	if len(records) == 0 {
		return nil
	}

	day := dayOf(today)
	analysis := &model.FullAnalysis{
		ACWR:             s.CalculateACWR(records, day),
		AvgRecoveryLevel: model.RecoveryUnknown,
	}

	if rec := findByDay(records, day); rec != nil {
		analysis.TodayRecovery = s.CalculateRecoveryScore(rec.SleepScore, rec.ReadinessScore)
		todayRec := s.DailyRecommendation(records, day)
		analysis.TodayRecommendation = &todayRec
	}

	// 注意：这里按切片位置取最后 7 条，而不是最近 7 个自然日
	tail := records
	if len(tail) > AvgRecoveryWindow {
		tail = tail[len(tail)-AvgRecoveryWindow:]
	}
	sum, count := 0, 0
	for i := range tail {
		if r := s.CalculateRecoveryScore(tail[i].SleepScore, tail[i].ReadinessScore); r != nil {
			sum += r.Score
			count++
		}
	}
	if count > 0 {
		avg := int(math.Round(float64(sum) / float64(count)))
		analysis.AvgRecovery = &avg
		analysis.AvgRecoveryLevel = levelForScore(avg).Level
	}

	return analysis
}

func findByDay(records []model.DailyRecord, day time.Time) *model.DailyRecord {
	for i := range records {
		if records[i].Day().Equal(day) {
			return &records[i]
		}
	}
	return nil
}

func boolPtr(v bool) *bool {
	return &v
}
