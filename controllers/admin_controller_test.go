package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rp-tuning/rp-tuning-api/config"
	"github.com/rp-tuning/rp-tuning-api/models"
	"github.com/rp-tuning/rp-tuning-api/services"
)

func adminTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin/orders", ListOrders)
	router.PATCH("/admin/orders/:id/status", UpdateOrderStatus)
	router.PATCH("/admin/orders/:id", UpdateOrderFields)
	router.GET("/admin/orders/:id/file", DownloadOrderFile)
	router.POST("/admin/orders/:id/result", UploadResultFile)
	return router
}

func seedOrder(t *testing.T, db *gorm.DB, mutate func(*models.Order)) *models.Order {
	t.Helper()

	order := models.Order{
		OrderNumber:   "RP-ADMIN1",
		CustomerName:  "Max Mustermann",
		CustomerEmail: "max@example.com",
		CarBrand:      "BMW",
		CarModel:      "320d",
		FuelType:      "diesel",
		Year:          "2018",
		ECUType:       "EDC17",
		TotalPrice:    250,
		Status:        models.StatusPending,
		LegalConsent:  true,
	}
	if mutate != nil {
		mutate(&order)
	}
	require.NoError(t, db.Create(&order).Error)
	return &order
}

func performMultipart(router *gin.Engine, target, filename string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, _ := writer.CreateFormFile("file", filename)
	part.Write(content)
	writer.Close()

	req, _ := http.NewRequest("POST", target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListOrders(t *testing.T) {
	db := setupOrderTestDB(t)
	config.SetDB(db)
	router := adminTestRouter()

	seedOrder(t, db, func(o *models.Order) {
		o.OrderNumber = "RP-AAA111"
		o.CustomerName = "Anna Schmidt"
		o.Status = models.StatusPending
	})
	seedOrder(t, db, func(o *models.Order) {
		o.OrderNumber = "RP-BBB222"
		o.CustomerName = "Bernd Maier"
		o.CarBrand = "Audi"
		o.Status = models.StatusCompleted
	})

	tests := []struct {
		name      string
		target    string
		wantCount int
	}{
		{"no filter returns all", "/admin/orders", 2},
		{"status filter", "/admin/orders?status=completed", 1},
		{"search by customer name is case-insensitive", "/admin/orders?search=anna", 1},
		{"search by order number fragment", "/admin/orders?search=bbb", 1},
		{"search by car brand", "/admin/orders?search=audi", 1},
		{"search with no matches", "/admin/orders?search=zzz", 0},
		{"status and search combine", "/admin/orders?status=pending&search=anna", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(router, "GET", tt.target, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var response struct {
				Success bool           `json:"success"`
				Data    []models.Order `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.True(t, response.Success)
			assert.Len(t, response.Data, tt.wantCount)
		})
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	db := setupOrderTestDB(t)
	config.SetDB(db)
	router := adminTestRouter()

	mockMailer := services.NewMockMailer()
	mockMailer.SetAsMockForTesting()

	order := seedOrder(t, db, nil)

	t.Run("invalid status is rejected", func(t *testing.T) {
		w := performJSON(router, "PATCH", "/admin/orders/1/status", map[string]interface{}{"status": "done"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_STATUS")
	})

	t.Run("unknown order returns 404", func(t *testing.T) {
		w := performJSON(router, "PATCH", "/admin/orders/999/status", map[string]interface{}{"status": "processing"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("pending to processing sends no email", func(t *testing.T) {
		mockMailer.Clear()

		w := performJSON(router, "PATCH", "/admin/orders/1/status", map[string]interface{}{"status": "processing"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, mockMailer.SentCount())

		var reloaded models.Order
		require.NoError(t, db.First(&reloaded, order.ID).Error)
		assert.Equal(t, models.StatusProcessing, reloaded.Status)
	})

	t.Run("transition to completed sends exactly one email", func(t *testing.T) {
		mockMailer.Clear()

		w := performJSON(router, "PATCH", "/admin/orders/1/status", map[string]interface{}{"status": "completed"})
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, true, data["email_sent"])
		assert.Equal(t, 1, mockMailer.SentCount())
		assert.Equal(t, []string{"max@example.com"}, mockMailer.SentMessages()[0].To)
	})

	t.Run("reselecting completed is a no-op without email", func(t *testing.T) {
		mockMailer.Clear()

		w := performJSON(router, "PATCH", "/admin/orders/1/status", map[string]interface{}{"status": "completed"})
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, false, data["email_sent"])
		assert.Zero(t, mockMailer.SentCount())
	})

	t.Run("email failure does not roll back the status", func(t *testing.T) {
		mockMailer.Clear()
		mockMailer.SendErr = errors.New("provider is down")
		defer func() { mockMailer.SendErr = nil }()

		// Move away from completed first so the next change is a real transition
		w := performJSON(router, "PATCH", "/admin/orders/1/status", map[string]interface{}{"status": "processing"})
		require.Equal(t, http.StatusOK, w.Code)

		w = performJSON(router, "PATCH", "/admin/orders/1/status", map[string]interface{}{"status": "completed"})
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, true, response["success"])
		data := response["data"].(map[string]interface{})
		assert.Equal(t, false, data["email_sent"])
		assert.Contains(t, data["email_error"], "provider is down")

		var reloaded models.Order
		require.NoError(t, db.First(&reloaded, order.ID).Error)
		assert.Equal(t, models.StatusCompleted, reloaded.Status, "status change must survive email failure")
	})
}

func TestUpdateOrderFields(t *testing.T) {
	db := setupOrderTestDB(t)
	config.SetDB(db)
	router := adminTestRouter()

	note := "call the customer"
	seedOrder(t, db, func(o *models.Order) {
		o.InternalNote = &note
	})

	t.Run("updates only provided fields", func(t *testing.T) {
		w := performJSON(router, "PATCH", "/admin/orders/1", map[string]interface{}{
			"checksum_crc": "0xABCD1234",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var reloaded models.Order
		require.NoError(t, db.First(&reloaded, 1).Error)
		require.NotNil(t, reloaded.ChecksumCRC)
		assert.Equal(t, "0xABCD1234", *reloaded.ChecksumCRC)
		require.NotNil(t, reloaded.InternalNote, "absent fields must stay untouched")
		assert.Equal(t, "call the customer", *reloaded.InternalNote)
	})

	t.Run("explicit empty string clears a field", func(t *testing.T) {
		w := performJSON(router, "PATCH", "/admin/orders/1", map[string]interface{}{
			"internal_note": "",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var reloaded models.Order
		require.NoError(t, db.First(&reloaded, 1).Error)
		require.NotNil(t, reloaded.InternalNote)
		assert.Empty(t, *reloaded.InternalNote)
	})

	t.Run("unknown order returns 404", func(t *testing.T) {
		w := performJSON(router, "PATCH", "/admin/orders/999", map[string]interface{}{"internal_note": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDownloadOrderFile(t *testing.T) {
	db := setupOrderTestDB(t)
	config.SetDB(db)
	router := adminTestRouter()

	mockS3 := services.NewMockS3Service()
	services.InitFileService(mockS3, &config.Config{TunesBucket: "tunes", ModifiedBucket: "modified-files"})

	require.NoError(t, mockS3.UploadBytes([]byte("ecu-binary"), "tunes", "uploads/ab12cd34_stage1.bin", "application/octet-stream"))
	fileURL := mockS3.PublicURL("tunes", "uploads/ab12cd34_stage1.bin")

	seedOrder(t, db, func(o *models.Order) {
		o.FileURL = &fileURL
	})
	seedOrder(t, db, func(o *models.Order) {
		o.OrderNumber = "RP-NOFILE"
	})

	t.Run("streams the file and advances pending to processing", func(t *testing.T) {
		w := performJSON(router, "GET", "/admin/orders/1/file", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ecu-binary", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "ab12cd34_stage1.bin")

		var reloaded models.Order
		require.NoError(t, db.First(&reloaded, 1).Error)
		assert.Equal(t, models.StatusProcessing, reloaded.Status)
	})

	t.Run("second download leaves processing untouched", func(t *testing.T) {
		w := performJSON(router, "GET", "/admin/orders/1/file", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var reloaded models.Order
		require.NoError(t, db.First(&reloaded, 1).Error)
		assert.Equal(t, models.StatusProcessing, reloaded.Status)
	})

	t.Run("order without file returns NO_FILE", func(t *testing.T) {
		w := performJSON(router, "GET", "/admin/orders/2/file", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "NO_FILE")
	})

	t.Run("storage failure does not advance the status", func(t *testing.T) {
		missing := mockS3.PublicURL("tunes", "uploads/gone.bin")
		seedOrder(t, db, func(o *models.Order) {
			o.OrderNumber = "RP-GONE"
			o.FileURL = &missing
		})

		w := performJSON(router, "GET", "/admin/orders/3/file", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var reloaded models.Order
		require.NoError(t, db.First(&reloaded, 3).Error)
		assert.Equal(t, models.StatusPending, reloaded.Status)
	})
}

func TestUploadResultFile(t *testing.T) {
	db := setupOrderTestDB(t)
	config.SetDB(db)
	router := adminTestRouter()

	mockS3 := services.NewMockS3Service()
	services.InitFileService(mockS3, &config.Config{TunesBucket: "tunes", ModifiedBucket: "modified-files"})
	mockMailer := services.NewMockMailer()
	mockMailer.SetAsMockForTesting()

	seedOrder(t, db, func(o *models.Order) {
		o.Status = models.StatusProcessing
	})

	t.Run("uploads result, completes order and emails customer", func(t *testing.T) {
		mockMailer.Clear()

		w := performMultipart(router, "/admin/orders/1/result", "stage1_mod.bin", []byte("tuned"))
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, true, data["email_sent"])

		var reloaded models.Order
		require.NoError(t, db.First(&reloaded, 1).Error)
		assert.Equal(t, models.StatusCompleted, reloaded.Status)
		require.NotNil(t, reloaded.ResultFileURL)
		assert.Contains(t, *reloaded.ResultFileURL, "results/")
		assert.Equal(t, 1, mockMailer.SentCount())
	})

	t.Run("rejected extension returns the validation code", func(t *testing.T) {
		w := performMultipart(router, "/admin/orders/1/result", "notes.txt", []byte("x"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_FILE_FORMAT")
	})

	t.Run("email failure still reports success", func(t *testing.T) {
		mockMailer.Clear()
		mockMailer.SendErr = errors.New("provider is down")
		defer func() { mockMailer.SendErr = nil }()

		w := performMultipart(router, "/admin/orders/1/result", "stage1_v2.bin", []byte("tuned-v2"))
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, true, response["success"])
		data := response["data"].(map[string]interface{})
		assert.Equal(t, false, data["email_sent"])
		assert.NotEmpty(t, data["email_error"])
	})

	t.Run("unknown order returns 404", func(t *testing.T) {
		w := performMultipart(router, "/admin/orders/999/result", "x.bin", []byte("x"))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
