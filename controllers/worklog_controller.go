package controllers

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/rp-tuning/rp-tuning-api/config"
	"github.com/rp-tuning/rp-tuning-api/models"
)

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// CreateWorkLogRequest represents the request body for logging a client visit
type CreateWorkLogRequest struct {
	CarInfo    string `json:"car_info" binding:"required"`
	ServiceIDs []uint `json:"service_ids" binding:"required,min=1"`
	MonthKey   string `json:"month_key"` // optional, defaults to the current month
}

// CreateWorkLog handles POST /api/v1/admin/clients/:id/worklogs - records one
// billable visit. Line items snapshot the catalog name and price at logging
// time; month_key is assigned here and never changes.
func CreateWorkLog(c *gin.Context) {
	var req CreateWorkLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Car info and at least one service are required",
				"details": err.Error(),
			},
		})
		return
	}

	monthKey := req.MonthKey
	if monthKey == "" {
		monthKey = models.MonthKeyFor(timeNow())
	}
	if !monthKeyPattern.MatchString(monthKey) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_MONTH_KEY",
				"message": "month_key must have the form YYYY-MM",
			},
		})
		return
	}

	db := config.GetDB()
	var client models.Client
	if err := db.First(&client, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CLIENT_NOT_FOUND",
				"message": "Client not found",
			},
		})
		return
	}

	var selected []models.Service
	if err := db.Where("id IN ?", req.ServiceIDs).Find(&selected).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load the service catalog",
			},
		})
		return
	}
	if len(selected) != len(req.ServiceIDs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SERVICE",
				"message": "One or more selected services do not exist",
			},
		})
		return
	}

	items := make(models.ServiceItems, 0, len(selected))
	var total float64
	for _, svc := range selected {
		items = append(items, models.ServiceItem{
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			Price:       svc.Price,
		})
		total += svc.Price
	}

	workLog := models.WorkLog{
		ClientID:     client.ID,
		CarInfo:      req.CarInfo,
		ServiceItems: items,
		TotalPrice:   total,
		MonthKey:     monthKey,
	}

	if err := db.Create(&workLog).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create work log",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    workLog,
	})
}

// ListWorkLogs handles GET /api/v1/admin/clients/:id/worklogs - lists a
// client's visits, optionally scoped to one month
func ListWorkLogs(c *gin.Context) {
	db := config.GetDB()
	var client models.Client
	if err := db.First(&client, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CLIENT_NOT_FOUND",
				"message": "Client not found",
			},
		})
		return
	}

	query := db.Where("client_id = ?", client.ID)
	if month := c.Query("month"); month != "" {
		if !monthKeyPattern.MatchString(month) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_MONTH_KEY",
					"message": "month must have the form YYYY-MM",
				},
			})
			return
		}
		query = query.Where("month_key = ?", month)
	}

	var logs []models.WorkLog
	if err := query.Order("created_at DESC").Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load work logs",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
	})
}

// DeleteWorkLog handles DELETE /api/v1/admin/worklogs/:id. Work logs are
// never edited, only removed.
func DeleteWorkLog(c *gin.Context) {
	db := config.GetDB()
	var workLog models.WorkLog
	if err := db.First(&workLog, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "WORKLOG_NOT_FOUND",
				"message": "Work log not found",
			},
		})
		return
	}

	if err := db.Delete(&workLog).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete work log",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"deleted": workLog.ID,
		},
	})
}
