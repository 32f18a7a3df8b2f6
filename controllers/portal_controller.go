package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rp-tuning/rp-tuning-api/config"
	"github.com/rp-tuning/rp-tuning-api/models"
	"github.com/rp-tuning/rp-tuning-api/services"
)

// timeNow is swapped in tests to pin "today" for the analytics computations
var timeNow = time.Now

// GetPortal handles GET /api/v1/portal/:slug - the client dashboard: the
// client record, the month's work logs and the monthly summary in one call
func GetPortal(c *gin.Context) {
	client, ok := findPortalClient(c)
	if !ok {
		return
	}

	monthKey, ok := portalMonthKey(c)
	if !ok {
		return
	}

	logs, summary, ok := loadMonthData(c, client.ID, monthKey)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"client":    client,
			"work_logs": logs,
			"summary":   summary,
		},
	})
}

// GetPortalSummary handles GET /api/v1/portal/:slug/summary - just the
// monthly analytics numbers
func GetPortalSummary(c *gin.Context) {
	client, ok := findPortalClient(c)
	if !ok {
		return
	}

	monthKey, ok := portalMonthKey(c)
	if !ok {
		return
	}

	_, summary, ok := loadMonthData(c, client.ID, monthKey)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summary,
	})
}

// findPortalClient resolves the :slug path param to a client, writing the
// error response itself when the lookup fails
func findPortalClient(c *gin.Context) (*models.Client, bool) {
	db := config.GetDB()
	var client models.Client
	if err := db.Where("slug = ?", c.Param("slug")).First(&client).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CLIENT_NOT_FOUND",
				"message": "No portal exists for this address",
			},
		})
		return nil, false
	}
	return &client, true
}

// portalMonthKey reads the optional ?month= param, defaulting to the current
// calendar month
func portalMonthKey(c *gin.Context) (string, bool) {
	month := c.Query("month")
	if month == "" {
		return models.MonthKeyFor(timeNow()), true
	}
	if !monthKeyPattern.MatchString(month) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_MONTH_KEY",
				"message": "month must have the form YYYY-MM",
			},
		})
		return "", false
	}
	return month, true
}

// loadMonthData fetches one month of work logs plus the catalog and computes
// the summary. Month membership is decided by month_key alone; a backdated
// created_at never moves a record between months.
func loadMonthData(c *gin.Context, clientID uint, monthKey string) ([]models.WorkLog, *services.MonthlySummary, bool) {
	db := config.GetDB()

	var logs []models.WorkLog
	if err := db.Where("client_id = ? AND month_key = ?", clientID, monthKey).
		Order("created_at DESC").Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load work logs",
			},
		})
		return nil, nil, false
	}

	var catalog []models.Service
	if err := db.Find(&catalog).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load the service catalog",
			},
		})
		return nil, nil, false
	}

	summary := services.ComputeMonthlySummary(logs, catalog, monthKey, timeNow())
	return logs, &summary, true
}
