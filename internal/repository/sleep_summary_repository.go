package repository

import (
	"errors"
	"time"

	"runsight_backend/internal/model"

	"gorm.io/gorm"
)

type SleepSummaryRepository struct {
	DB *gorm.DB
}

func NewSleepSummaryRepository(db *gorm.DB) *SleepSummaryRepository {
	return &SleepSummaryRepository{DB: db}
}

// Upsert 按 (user_id, day) 写入，已存在时合并非空分数
func (r *SleepSummaryRepository) Upsert(summary *model.SleepSummary) error {
	var existing model.SleepSummary
	err := r.DB.Where("user_id = ? AND day = ?", summary.UserID, summary.Day.Format("2006-01-02")).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.DB.Create(summary).Error
	}
	if err != nil {
		return err
	}
	if summary.SleepScore != nil {
		existing.SleepScore = summary.SleepScore
	}
	if summary.ReadinessScore != nil {
		existing.ReadinessScore = summary.ReadinessScore
	}
	return r.DB.Save(&existing).Error
}

func (r *SleepSummaryRepository) FindByUserAndRange(userID uint, start, end time.Time) ([]model.SleepSummary, error) {
	var summaries []model.SleepSummary
	err := r.DB.
		Where("user_id = ? AND day BETWEEN ? AND ?", userID, start.Format("2006-01-02"), end.Format("2006-01-02")).
		Order("day ASC").
		Find(&summaries).Error
	return summaries, err
}
