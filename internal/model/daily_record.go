package model

import (
	"time"
)

// DailyRecord 每个自然日一条：当日跑量 + Oura 睡眠/恢复分数。
// Distance 缺行等同于零跑量；Sleep/Readiness 为空指针表示缺数据而不是 0。
// swagger:model DailyRecord
type DailyRecord struct {
	BaseModel
	UserID         uint      `gorm:"index:idx_user_date,unique;not null" json:"userId"`
	Date           time.Time `gorm:"index:idx_user_date,unique;type:date;not null" json:"date"`
	Distance       float64   `gorm:"default:0" json:"distance"` // 英里
	SleepScore     *int      `json:"sleepScore"`                // 0-100
	ReadinessScore *int      `json:"readinessScore"`            // 0-100
	DistanceSynced *time.Time `json:"distanceSyncedAt"`
	ScoresSynced   *time.Time `json:"scoresSyncedAt"`
}

func (DailyRecord) TableName() string {
	return "daily_records"
}

// Day 归一化到当日零点，比较日期时统一用它
func (r *DailyRecord) Day() time.Time {
	return time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC)
}
