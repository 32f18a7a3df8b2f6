package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemStatusKey is the settings row controlling the online/offline display toggle
const SystemStatusKey = "system_status"

// System status modes. "auto" means online during working hours, offline otherwise.
const (
	ModeAuto    = "auto"
	ModeOnline  = "online"
	ModeOffline = "offline"
)

// SystemSetting is a single key/value configuration row
type SystemSetting struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Key       string         `gorm:"uniqueIndex;not null" json:"key"`
	Value     datatypes.JSON `gorm:"type:jsonb" json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName specifies the table name for the SystemSetting model
func (SystemSetting) TableName() string {
	return "system_settings"
}

// SystemStatusValue is the JSON shape of the system_status setting
type SystemStatusValue struct {
	Mode string `json:"mode"` // auto, online or offline
}

// EffectiveMode resolves a configured mode to online/offline at a given time.
// Auto mode is online 08:00-20:00 local, offline otherwise.
func EffectiveMode(mode string, now time.Time) string {
	switch mode {
	case ModeOnline, ModeOffline:
		return mode
	}
	if h := now.Hour(); h >= 8 && h < 20 {
		return ModeOnline
	}
	return ModeOffline
}
