package model

import (
	"time"
)

// SleepSummary 同步自 Oura 的原始每日摘要
// swagger:model SleepSummary
type SleepSummary struct {
	BaseModel
	UserID         uint      `gorm:"index:idx_user_day,unique;not null" json:"userId"`
	Day            time.Time `gorm:"index:idx_user_day,unique;type:date;not null" json:"day"`
	SleepScore     *int      `json:"sleepScore"`
	ReadinessScore *int      `json:"readinessScore"`
}

func (SleepSummary) TableName() string {
	return "sleep_summaries"
}
