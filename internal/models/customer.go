package models

import (
	"time"

	"gorm.io/gorm"
)

type Customer struct {
	ID    uint64 `gorm:"primarykey" json:"id"`
	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Phone string `gorm:"type:varchar(30)" json:"phone"`

	// SearchText is the normalized concatenation of name and phone.
	SearchText string `gorm:"type:text" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Tasks []Task `gorm:"foreignKey:CustomerID" json:"-"`
}
