package util

import "errors"

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrPermissionDenied = errors.New("permission denied")
	ErrRecordNotFound   = errors.New("record not found")
	ErrInvalidDate      = errors.New("invalid date, expect YYYY-MM-DD")
	ErrInvalidDateRange = errors.New("start date must not be after end date")
	ErrRangeTooLarge    = errors.New("date range too large (max 92 days)")
	ErrSyncRunning      = errors.New("sync already running for this provider")
	ErrProviderNotSet   = errors.New("provider credentials not configured")
	ErrUnknownProvider  = errors.New("unknown provider")
)
