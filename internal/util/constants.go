package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 头像上传相关常量
const (
	MimeImage       = "image/"
	MimeOctetStream = "application/octet-stream"
)

var (
	AllowedAvatarExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)

// 日历查询的最大跨度（天）
const MaxCalendarRangeDays = 92
