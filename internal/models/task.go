package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPreparing  TaskStatus = "PREPARING"
	TaskStatusReady      TaskStatus = "READY"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCanceled   TaskStatus = "CANCELED"
)

// Valid reports whether the value is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPreparing, TaskStatusReady, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCanceled:
		return true
	}
	return false
}

type Task struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	Title       string     `gorm:"type:varchar(255)" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;default:'PREPARING'" json:"status"`
	CustomerID  *uint64    `gorm:"index" json:"customer_id"`
	LocationID  *uint64    `gorm:"index" json:"location_id"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	// SearchText is the derived, normalized concatenation of every
	// text-bearing field of the task and its customer/location. It is
	// recomputed inside the same transaction as any write that changes
	// one of its inputs, and it is the sole target of free-text search.
	SearchText string `gorm:"type:text;not null;default:''" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Customer    *Customer        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Location    *Location        `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
}
