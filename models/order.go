package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Order statuses. Orders are created as pending (free order flow) or paid
// (payment webhook) and are moved by admin action until completed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusPaid       = "paid"
)

// Order represents a customer tuning order in the system
type Order struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	OrderNumber     string         `gorm:"uniqueIndex;not null" json:"order_number"`
	CustomerName    string         `gorm:"not null" json:"customer_name"`
	CustomerEmail   string         `gorm:"not null;index" json:"customer_email"`
	CarBrand        string         `gorm:"not null" json:"car_brand"`
	CarModel        string         `gorm:"not null" json:"car_model"`
	FuelType        string         `gorm:"not null" json:"fuel_type"`
	Year            string         `gorm:"not null" json:"year"`
	Displacement    string         `json:"displacement"`
	Power           string         `json:"power"`
	ECUType         string         `gorm:"not null" json:"ecu_type"`
	VIN             *string        `json:"vin,omitempty"`
	ServiceType     datatypes.JSON `gorm:"type:jsonb" json:"service_type"` // array of catalog service ids
	TotalPrice      float64        `gorm:"not null" json:"total_price"`
	Status          string         `gorm:"not null;default:'pending'" json:"status"`
	FileURL         *string        `json:"file_url,omitempty"`        // customer-uploaded ECU file
	ResultFileURL   *string        `json:"result_file_url,omitempty"` // admin-uploaded modified file
	LegalConsent    bool           `gorm:"not null" json:"legal_consent"`
	CustomerNote    *string        `json:"customer_note,omitempty"`
	ChecksumCRC     *string        `json:"checksum_crc,omitempty"`
	InternalNote    *string        `json:"internal_note,omitempty"`
	ImportantNote   *string        `json:"important_note,omitempty"`
	InvoiceNumber   *string        `json:"invoice_number,omitempty"`
	InvoiceURL      *string        `json:"invoice_url,omitempty"`
	StripeSessionID *string        `gorm:"index" json:"stripe_session_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// IsValidStatus reports whether s is a known order status
func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusPaid:
		return true
	}
	return false
}

// TrackingStep maps a status to its position on the customer-facing
// 3-stage progress bar. Unrecognized statuses degrade to step 0 and the
// raw string is shown as-is.
func TrackingStep(status string) int {
	switch status {
	case StatusPending, StatusPaid:
		return 1
	case StatusProcessing:
		return 2
	case StatusCompleted:
		return 3
	}
	return 0
}
