package repository

import (
	"errors"
	"time"

	"runsight_backend/internal/model"

	"gorm.io/gorm"
)

type SyncStateRepository struct {
	DB *gorm.DB
}

func NewSyncStateRepository(db *gorm.DB) *SyncStateRepository {
	return &SyncStateRepository{DB: db}
}

// FindOrCreate 取同步状态，不存在时初始化为 never
func (r *SyncStateRepository) FindOrCreate(userID uint, provider model.SyncProvider) (*model.SyncState, error) {
	var state model.SyncState
	err := r.DB.Where("user_id = ? AND provider = ?", userID, provider).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = model.SyncState{
			UserID:   userID,
			Provider: provider,
			Status:   model.SyncStatusNever,
		}
		if err := r.DB.Create(&state).Error; err != nil {
			return nil, err
		}
		return &state, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *SyncStateRepository) FindAllByUser(userID uint) ([]model.SyncState, error) {
	var states []model.SyncState
	err := r.DB.Where("user_id = ?", userID).Order("provider ASC").Find(&states).Error
	return states, err
}

// MarkRunning 仅当当前不是 running 时置为 running，返回是否抢到
func (r *SyncStateRepository) MarkRunning(userID uint, provider model.SyncProvider) (bool, error) {
	result := r.DB.Model(&model.SyncState{}).
		Where("user_id = ? AND provider = ? AND status <> ?", userID, provider, model.SyncStatusRunning).
		Update("status", model.SyncStatusRunning)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *SyncStateRepository) MarkSucceeded(userID uint, provider model.SyncProvider, cursor string, at time.Time) error {
	return r.DB.Model(&model.SyncState{}).
		Where("user_id = ? AND provider = ?", userID, provider).
		Updates(map[string]interface{}{
			"status":         model.SyncStatusOK,
			"cursor":         cursor,
			"last_synced_at": at,
			"last_error":     "",
		}).Error
}

func (r *SyncStateRepository) MarkFailed(userID uint, provider model.SyncProvider, syncErr error) error {
	msg := ""
	if syncErr != nil {
		msg = syncErr.Error()
	}
	return r.DB.Model(&model.SyncState{}).
		Where("user_id = ? AND provider = ?", userID, provider).
		Updates(map[string]interface{}{
			"status":     model.SyncStatusFailed,
			"last_error": msg,
		}).Error
}
