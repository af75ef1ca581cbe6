package model

import (
	"time"
)

// Activity 同步自 Strava 的原始跑步活动，是 DailyRecord.Distance 的审计来源
// swagger:model Activity
type Activity struct {
	BaseModel
	UserID         uint      `gorm:"index;not null" json:"userId"`
	StravaID       int64     `gorm:"uniqueIndex;not null" json:"stravaId"`
	Name           string    `gorm:"size:255" json:"name"`
	SportType      string    `gorm:"size:32;index" json:"sportType"`
	StartDateLocal time.Time `gorm:"index;not null" json:"startDateLocal"`
	DistanceMeters float64   `json:"distanceMeters"`
	MovingTimeSec  int       `json:"movingTimeSec"`
}

func (Activity) TableName() string {
	return "activities"
}
