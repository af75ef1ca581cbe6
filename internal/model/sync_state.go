package model

import (
	"time"
)

type SyncProvider string

const (
	ProviderStrava SyncProvider = "strava"
	ProviderOura   SyncProvider = "oura"
)

type SyncStatus string

const (
	SyncStatusOK      SyncStatus = "ok"
	SyncStatusRunning SyncStatus = "running"
	SyncStatusFailed  SyncStatus = "failed"
	SyncStatusNever   SyncStatus = "never"
)

// SyncState 每个用户每个数据源一条，记录同步游标与最近结果
// swagger:model SyncState
type SyncState struct {
	BaseModel
	UserID       uint         `gorm:"index:idx_user_provider,unique;not null" json:"userId"`
	Provider     SyncProvider `gorm:"index:idx_user_provider,unique;size:16;not null" json:"provider"`
	Status       SyncStatus   `gorm:"size:16;default:'never'" json:"status"`
	LastSyncedAt *time.Time   `json:"lastSyncedAt"`
	// Cursor Strava 为最近活动的 start_date unix 秒；Oura 为最近已同步日期（YYYY-MM-DD）
	Cursor    string `gorm:"size:64" json:"cursor"`
	LastError string `gorm:"size:512" json:"lastError,omitempty"`
}

func (SyncState) TableName() string {
	return "sync_states"
}
