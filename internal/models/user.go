package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleHost        UserRole = "host"
	RoleParticipant UserRole = "participant"
	RoleAdmin       UserRole = "admin"
)

// User is the public identity of a host or participant. The session service
// is not the owner of user data; records here mirror the directory.
type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"-"`

	AvatarURL *string `json:"avatar_url" gorm:"size:500"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
