package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rp-tuning/rp-tuning-api/config"
	"github.com/rp-tuning/rp-tuning-api/models"
	"gorm.io/gorm"
)

// GetSystemStatus handles GET /api/v1/system-status - the public
// online/offline indicator. Auto mode resolves by local working hours.
func GetSystemStatus(c *gin.Context) {
	mode := loadConfiguredMode()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"mode":      mode,
			"effective": models.EffectiveMode(mode, timeNow()),
		},
	})
}

// GetSystemStatusSetting handles GET /api/v1/admin/settings/system-status
func GetSystemStatusSetting(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"mode": loadConfiguredMode(),
		},
	})
}

// UpdateSystemStatusRequest represents the request body for the status toggle
type UpdateSystemStatusRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// UpdateSystemStatusSetting handles PUT /api/v1/admin/settings/system-status
func UpdateSystemStatusSetting(c *gin.Context) {
	var req UpdateSystemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "A mode value is required",
				"details": err.Error(),
			},
		})
		return
	}

	switch req.Mode {
	case models.ModeAuto, models.ModeOnline, models.ModeOffline:
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_MODE",
				"message": "Mode must be one of auto, online or offline",
			},
		})
		return
	}

	value, err := json.Marshal(models.SystemStatusValue{Mode: req.Mode})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to encode the setting value",
			},
		})
		return
	}

	db := config.GetDB()
	var setting models.SystemSetting
	err = db.Where("key = ?", models.SystemStatusKey).First(&setting).Error
	switch {
	case err == nil:
		err = db.Model(&setting).Update("value", value).Error
	case err == gorm.ErrRecordNotFound:
		setting = models.SystemSetting{Key: models.SystemStatusKey, Value: value}
		err = db.Create(&setting).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to save the system status setting",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"mode": req.Mode,
		},
	})
}

// loadConfiguredMode reads the configured mode, defaulting to auto when the
// setting row is missing or unreadable
func loadConfiguredMode() string {
	db := config.GetDB()
	var setting models.SystemSetting
	if err := db.Where("key = ?", models.SystemStatusKey).First(&setting).Error; err != nil {
		return models.ModeAuto
	}

	var value models.SystemStatusValue
	if err := json.Unmarshal(setting.Value, &value); err != nil || value.Mode == "" {
		return models.ModeAuto
	}
	return value.Mode
}
