package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleWorker UserRole = "worker"
	RoleAdmin  UserRole = "admin"
)

// Valid reports whether the value is a known user role.
func (r UserRole) Valid() bool {
	return r == RoleWorker || r == RoleAdmin
}

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Role         UserRole       `gorm:"type:varchar(20);not null;default:'worker'" json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Assignments []TaskAssignment `gorm:"foreignKey:UserID" json:"-"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
