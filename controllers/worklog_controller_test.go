package controllers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rp-tuning/rp-tuning-api/config"
	"github.com/rp-tuning/rp-tuning-api/models"
)

func worklogTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/admin/clients/:id/worklogs", CreateWorkLog)
	router.GET("/admin/clients/:id/worklogs", ListWorkLogs)
	router.DELETE("/admin/worklogs/:id", DeleteWorkLog)
	return router
}

func seedPortalClient(t *testing.T, db *gorm.DB) *models.Client {
	t.Helper()

	client := models.Client{Name: "Garage One", Slug: "garage-one"}
	require.NoError(t, db.Create(&client).Error)
	return &client
}

func TestCreateWorkLog(t *testing.T) {
	db := setupPortalTestDB(t)
	config.SetDB(db)
	router := worklogTestRouter()

	seedPortalClient(t, db)
	stage1 := models.Service{Name: "Stage 1", Category: "Performance", Price: 250}
	dpf := models.Service{Name: "DPF off", Category: "Emissions", Price: 120}
	require.NoError(t, db.Create(&stage1).Error)
	require.NoError(t, db.Create(&dpf).Error)

	originalNow := timeNow
	timeNow = func() time.Time { return time.Date(2025, 5, 17, 12, 0, 0, 0, time.UTC) }
	defer func() { timeNow = originalNow }()

	t.Run("snapshots catalog items and computes the total", func(t *testing.T) {
		w := performJSON(router, "POST", "/admin/clients/1/worklogs", map[string]interface{}{
			"car_info":    "BMW 320d",
			"service_ids": []uint{stage1.ID, dpf.ID},
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, 370.0, data["total_price"])
		assert.Equal(t, "2025-05", data["month_key"], "month defaults to the current month")

		items := data["service_items"].([]interface{})
		require.Len(t, items, 2)
		first := items[0].(map[string]interface{})
		assert.Equal(t, "Stage 1", first["service_name"])
		assert.Equal(t, 250.0, first["price"])
	})

	t.Run("later catalog edits do not rewrite the snapshot", func(t *testing.T) {
		require.NoError(t, db.Model(&stage1).Update("price", 999).Error)

		var log models.WorkLog
		require.NoError(t, db.First(&log, 1).Error)
		assert.Equal(t, 250.0, log.ServiceItems[0].Price)
		assert.Equal(t, 370.0, log.TotalPrice)
	})

	t.Run("explicit month key is honored", func(t *testing.T) {
		w := performJSON(router, "POST", "/admin/clients/1/worklogs", map[string]interface{}{
			"car_info":    "Audi A4",
			"service_ids": []uint{dpf.ID},
			"month_key":   "2025-03",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "2025-03")
	})

	t.Run("malformed month key is rejected", func(t *testing.T) {
		w := performJSON(router, "POST", "/admin/clients/1/worklogs", map[string]interface{}{
			"car_info":    "Audi A4",
			"service_ids": []uint{dpf.ID},
			"month_key":   "2025-13",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_MONTH_KEY")
	})

	t.Run("unknown service is rejected", func(t *testing.T) {
		w := performJSON(router, "POST", "/admin/clients/1/worklogs", map[string]interface{}{
			"car_info":    "Audi A4",
			"service_ids": []uint{999},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_SERVICE")
	})

	t.Run("unknown client returns 404", func(t *testing.T) {
		w := performJSON(router, "POST", "/admin/clients/999/worklogs", map[string]interface{}{
			"car_info":    "Audi A4",
			"service_ids": []uint{dpf.ID},
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListWorkLogs(t *testing.T) {
	db := setupPortalTestDB(t)
	config.SetDB(db)
	router := worklogTestRouter()

	client := seedPortalClient(t, db)
	for _, month := range []string{"2025-04", "2025-05", "2025-05"} {
		require.NoError(t, db.Create(&models.WorkLog{
			ClientID: client.ID, CarInfo: "BMW 320d", TotalPrice: 100, MonthKey: month,
		}).Error)
	}

	t.Run("lists all months by default", func(t *testing.T) {
		w := performJSON(router, "GET", "/admin/clients/1/worklogs", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data []models.WorkLog `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 3)
	})

	t.Run("month filter narrows the list", func(t *testing.T) {
		w := performJSON(router, "GET", "/admin/clients/1/worklogs?month=2025-05", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data []models.WorkLog `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 2)
	})

	t.Run("malformed month filter is rejected", func(t *testing.T) {
		w := performJSON(router, "GET", "/admin/clients/1/worklogs?month=May", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteWorkLog(t *testing.T) {
	db := setupPortalTestDB(t)
	config.SetDB(db)
	router := worklogTestRouter()

	client := seedPortalClient(t, db)
	require.NoError(t, db.Create(&models.WorkLog{
		ClientID: client.ID, CarInfo: "BMW 320d", TotalPrice: 100, MonthKey: "2025-05",
	}).Error)

	t.Run("deletes a log", func(t *testing.T) {
		w := performJSON(router, "DELETE", "/admin/worklogs/1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var count int64
		db.Model(&models.WorkLog{}).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("unknown log returns 404", func(t *testing.T) {
		w := performJSON(router, "DELETE", "/admin/worklogs/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
