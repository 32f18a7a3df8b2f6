package controllers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rp-tuning/rp-tuning-api/config"
	"github.com/rp-tuning/rp-tuning-api/models"
)

func settingsTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/system-status", GetSystemStatus)
	router.GET("/admin/settings/system-status", GetSystemStatusSetting)
	router.PUT("/admin/settings/system-status", UpdateSystemStatusSetting)
	return router
}

func TestSystemStatus(t *testing.T) {
	db := setupPortalTestDB(t)
	config.SetDB(db)
	router := settingsTestRouter()

	setNow := func(hour int) func() {
		originalNow := timeNow
		timeNow = func() time.Time { return time.Date(2025, 5, 17, hour, 0, 0, 0, time.UTC) }
		return func() { timeNow = originalNow }
	}

	t.Run("defaults to auto when no setting exists", func(t *testing.T) {
		restore := setNow(12)
		defer restore()

		w := performJSON(router, "GET", "/system-status", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "auto", data["mode"])
		assert.Equal(t, "online", data["effective"])
	})

	t.Run("auto resolves to offline outside working hours", func(t *testing.T) {
		restore := setNow(22)
		defer restore()

		w := performJSON(router, "GET", "/system-status", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"effective":"offline"`)
	})

	t.Run("explicit mode overrides the clock", func(t *testing.T) {
		restore := setNow(22)
		defer restore()

		w := performJSON(router, "PUT", "/admin/settings/system-status", map[string]interface{}{"mode": "online"})
		require.Equal(t, http.StatusOK, w.Code)

		w = performJSON(router, "GET", "/system-status", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"effective":"online"`)
	})

	t.Run("update persists via upsert", func(t *testing.T) {
		w := performJSON(router, "PUT", "/admin/settings/system-status", map[string]interface{}{"mode": "offline"})
		require.Equal(t, http.StatusOK, w.Code)
		w = performJSON(router, "PUT", "/admin/settings/system-status", map[string]interface{}{"mode": "auto"})
		require.Equal(t, http.StatusOK, w.Code)

		var count int64
		db.Model(&models.SystemSetting{}).Count(&count)
		assert.Equal(t, int64(1), count, "repeated updates must reuse the single row")

		w = performJSON(router, "GET", "/admin/settings/system-status", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"mode":"auto"`)
	})

	t.Run("invalid mode is rejected", func(t *testing.T) {
		w := performJSON(router, "PUT", "/admin/settings/system-status", map[string]interface{}{"mode": "maybe"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_MODE")
	})

	t.Run("corrupt setting value falls back to auto", func(t *testing.T) {
		require.NoError(t, db.Model(&models.SystemSetting{}).
			Where("key = ?", models.SystemStatusKey).
			Update("value", []byte(`"garbage"`)).Error)

		restore := setNow(12)
		defer restore()

		w := performJSON(router, "GET", "/system-status", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"mode":"auto"`)
	})
}
