package repository

import (
	"errors"
	"time"

	"runsight_backend/internal/model"

	"gorm.io/gorm"
)

type DailyRecordRepository struct {
	DB *gorm.DB
}

func NewDailyRecordRepository(db *gorm.DB) *DailyRecordRepository {
	return &DailyRecordRepository{DB: db}
}

func (r *DailyRecordRepository) FindByUserAndDate(userID uint, date time.Time) (*model.DailyRecord, error) {
	var record model.DailyRecord
	err := r.DB.Where("user_id = ? AND date = ?", userID, date.Format("2006-01-02")).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindRange 查询 [start, end] 区间内的记录，按日期升序
func (r *DailyRecordRepository) FindRange(userID uint, start, end time.Time) ([]model.DailyRecord, error) {
	var records []model.DailyRecord
	err := r.DB.
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, start.Format("2006-01-02"), end.Format("2006-01-02")).
		Order("date ASC").
		Find(&records).Error
	return records, err
}

// FindAllByUser 查询用户全部记录，按日期升序
func (r *DailyRecordRepository) FindAllByUser(userID uint) ([]model.DailyRecord, error) {
	var records []model.DailyRecord
	err := r.DB.
		Where("user_id = ?", userID).
		Order("date ASC").
		Find(&records).Error
	return records, err
}

// Upsert 按 (user_id, date) 写入或覆盖一条记录
func (r *DailyRecordRepository) Upsert(record *model.DailyRecord) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.DailyRecord
		err := tx.Where("user_id = ? AND date = ?", record.UserID, record.Date.Format("2006-01-02")).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(record).Error
		}
		if err != nil {
			return err
		}
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		return tx.Save(record).Error
	})
}

// UpsertDistance 同步跑量：只更新距离相关字段，不碰睡眠/准备度
func (r *DailyRecordRepository) UpsertDistance(userID uint, date time.Time, miles float64, syncedAt time.Time) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.DailyRecord
		err := tx.Where("user_id = ? AND date = ?", userID, date.Format("2006-01-02")).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&model.DailyRecord{
				UserID:         userID,
				Date:           date,
				Distance:       miles,
				DistanceSynced: &syncedAt,
			}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&existing).Updates(map[string]interface{}{
			"distance":        miles,
			"distance_synced": syncedAt,
		}).Error
	})
}

// UpsertScores 同步恢复数据：只更新睡眠/准备度字段，不碰跑量
func (r *DailyRecordRepository) UpsertScores(userID uint, date time.Time, sleep, readiness *int, syncedAt time.Time) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.DailyRecord
		err := tx.Where("user_id = ? AND date = ?", userID, date.Format("2006-01-02")).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&model.DailyRecord{
				UserID:         userID,
				Date:           date,
				SleepScore:     sleep,
				ReadinessScore: readiness,
				ScoresSynced:   &syncedAt,
			}).Error
		}
		if err != nil {
			return err
		}
		updates := map[string]interface{}{
			"scores_synced": syncedAt,
		}
		if sleep != nil {
			updates["sleep_score"] = *sleep
		}
		if readiness != nil {
			updates["readiness_score"] = *readiness
		}
		return tx.Model(&existing).Updates(updates).Error
	})
}

func (r *DailyRecordRepository) Delete(userID uint, date time.Time) error {
	result := r.DB.Where("user_id = ? AND date = ?", userID, date.Format("2006-01-02")).
		Delete(&model.DailyRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
