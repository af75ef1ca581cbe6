package repository

import (
	"errors"
	"time"

	"runsight_backend/internal/model"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

// Upsert 按 strava_id 去重，重复同步同一活动不会产生新行
func (r *ActivityRepository) Upsert(activity *model.Activity) error {
	var existing model.Activity
	err := r.DB.Where("strava_id = ?", activity.StravaID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.DB.Create(activity).Error
	}
	if err != nil {
		return err
	}
	activity.ID = existing.ID
	activity.CreatedAt = existing.CreatedAt
	return r.DB.Save(activity).Error
}

func (r *ActivityRepository) FindByUserAndRange(userID uint, start, end time.Time) ([]model.Activity, error) {
	var activities []model.Activity
	err := r.DB.
		Where("user_id = ? AND start_date_local >= ? AND start_date_local < ?", userID, start, end).
		Order("start_date_local ASC").
		Find(&activities).Error
	return activities, err
}

func (r *ActivityRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Activity{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
