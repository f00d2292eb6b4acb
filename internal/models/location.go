package models

import (
	"time"

	"gorm.io/gorm"
)

type Location struct {
	ID      uint64   `gorm:"primarykey" json:"id"`
	Name    string   `gorm:"type:varchar(255)" json:"name"`
	Address string   `gorm:"type:varchar(500);not null" json:"address"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`

	// SearchText is the normalized concatenation of address and name.
	SearchText string `gorm:"type:text" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Tasks []Task `gorm:"foreignKey:LocationID" json:"-"`
}
