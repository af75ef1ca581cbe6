package model

import (
	"time"
)

type UserRole string

const (
	Athlete UserRole = "athlete"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100;unique;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"type:enum('athlete','admin');default:'athlete'" json:"role"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	Timezone  string    `gorm:"size:64;default:'UTC'" json:"timezone"` // IANA 时区，用于解析“今天”
	Disabled  bool      `gorm:"default:false" json:"disabled"`
	LastLogin time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
	LastSeen  time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

// Location 解析用户时区，无效时回退到 UTC
func (u *User) Location() *time.Location {
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}
