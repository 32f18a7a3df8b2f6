package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ServiceItem is a denormalized snapshot of one catalog service on a work log.
// The service name and price are copied at logging time so later catalog edits
// don't rewrite history.
type ServiceItem struct {
	ServiceID   uint    `json:"service_id"`
	ServiceName string  `json:"service_name"`
	Price       float64 `json:"price"`
}

// ServiceItems is the JSON column type for a work log's line items.
//
// Historical rows contain loosely-typed payloads (objects, strings, null), so
// any shape that isn't a JSON array normalizes to the empty list here, at the
// database boundary. Callers never re-guard.
type ServiceItems []ServiceItem

// Scan implements sql.Scanner, normalizing malformed payloads to an empty list
func (s *ServiceItems) Scan(value interface{}) error {
	if value == nil {
		*s = ServiceItems{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type for ServiceItems: %T", value)
	}

	var items []ServiceItem
	if err := json.Unmarshal(raw, &items); err != nil {
		// Not an array of items; treat as an empty list rather than failing the row
		*s = ServiceItems{}
		return nil
	}
	if items == nil {
		items = []ServiceItem{}
	}
	*s = items
	return nil
}

// Value implements driver.Valuer
func (s ServiceItems) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]ServiceItem(s))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// UnmarshalJSON applies the same normalization to request payloads
func (s *ServiceItems) UnmarshalJSON(data []byte) error {
	var items []ServiceItem
	if err := json.Unmarshal(data, &items); err != nil {
		*s = ServiceItems{}
		return nil
	}
	if items == nil {
		items = []ServiceItem{}
	}
	*s = items
	return nil
}

// WorkLog represents one billable client visit. Work logs are created once and
// never updated, only deleted.
type WorkLog struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ClientID     uint           `gorm:"not null;index" json:"client_id"`
	Client       Client         `gorm:"foreignKey:ClientID" json:"-"`
	CarInfo      string         `gorm:"not null" json:"car_info"`
	ServiceItems ServiceItems   `gorm:"type:jsonb" json:"service_items"`
	TotalPrice   float64        `gorm:"not null" json:"total_price"`
	MonthKey     string         `gorm:"not null;index" json:"month_key"` // "YYYY-MM", assigned at creation, immutable
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the WorkLog model
func (WorkLog) TableName() string {
	return "work_logs"
}

// Revenue returns the log's revenue contribution: the sum of its line item
// prices, falling back to the stored total for legacy rows without items.
func (w *WorkLog) Revenue() float64 {
	if len(w.ServiceItems) == 0 {
		return w.TotalPrice
	}
	var sum float64
	for _, item := range w.ServiceItems {
		sum += item.Price
	}
	return sum
}

// MonthKeyFor formats a time as a work log month key
func MonthKeyFor(t time.Time) string {
	return t.Format("2006-01")
}
