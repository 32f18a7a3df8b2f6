package models

import (
	"time"

	"gorm.io/gorm"
)

// Service represents one tunable service in the catalog (e.g. Stage 1, EGR off)
type Service struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Category  string         `gorm:"not null;index" json:"category"` // free-text grouping key
	Price     float64        `gorm:"not null" json:"price"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Service model
func (Service) TableName() string {
	return "services"
}
