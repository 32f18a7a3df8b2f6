package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rp-tuning/rp-tuning-api/config"
	"github.com/rp-tuning/rp-tuning-api/models"
)

func setupOrderTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(&models.Order{}, &models.Service{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func seedServices(t *testing.T, db *gorm.DB) []models.Service {
	t.Helper()

	catalog := []models.Service{
		{Name: "Stage 1 tune", Category: "Performance", Price: 250},
		{Name: "DPF off", Category: "Emissions", Price: 120},
	}
	for i := range catalog {
		require.NoError(t, db.Create(&catalog[i]).Error)
	}
	return catalog
}

func validOrderBody(serviceIDs []uint) map[string]interface{} {
	return map[string]interface{}{
		"customer_name":  "Max Mustermann",
		"customer_email": "max@example.com",
		"car_brand":      "BMW",
		"car_model":      "320d",
		"fuel_type":      "diesel",
		"year":           "2018",
		"displacement":   "2.0",
		"power":          "190hp",
		"ecu_type":       "Bosch EDC17",
		"service_type":   serviceIDs,
		"file_url":       "https://tunes.s3.eu-central-1.amazonaws.com/uploads/ab12cd34_stage1.bin",
		"legal_consent":  true,
	}
}

func performJSON(router *gin.Engine, method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func orderTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/orders", CreateOrder)
	router.GET("/api/v1/orders/:id", GetOrder)
	router.POST("/api/v1/orders/track", TrackOrder)
	router.GET("/api/v1/checkout/session/:sessionID", GetOrderBySession)
	return router
}

func TestCreateOrder(t *testing.T) {
	db := setupOrderTestDB(t)
	config.SetDB(db)
	catalog := seedServices(t, db)
	router := orderTestRouter()

	tests := []struct {
		name           string
		mutate         func(body map[string]interface{})
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "successfully creates order",
			mutate:         func(body map[string]interface{}) {},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing consent is rejected",
			mutate: func(body map[string]interface{}) {
				body["legal_consent"] = false
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "CONSENT_REQUIRED",
		},
		{
			name: "invalid email is rejected",
			mutate: func(body map[string]interface{}) {
				body["customer_email"] = "not-an-email"
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "empty service selection is rejected",
			mutate: func(body map[string]interface{}) {
				body["service_type"] = []uint{}
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "unknown service id is rejected",
			mutate: func(body map[string]interface{}) {
				body["service_type"] = []uint{catalog[0].ID, 9999}
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_SERVICE",
		},
		{
			name: "missing file url is rejected",
			mutate: func(body map[string]interface{}) {
				delete(body, "file_url")
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validOrderBody([]uint{catalog[0].ID, catalog[1].ID})
			tt.mutate(body)

			w := performJSON(router, "POST", "/api/v1/orders", body)
			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

			if tt.expectedCode != "" {
				assert.False(t, response["success"].(bool))
				errObj := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedCode, errObj["code"])
				return
			}

			assert.True(t, response["success"].(bool))
			data := response["data"].(map[string]interface{})
			assert.Equal(t, "pending", data["status"])
			assert.Equal(t, 370.0, data["total_price"], "total must be computed from catalog prices")
			assert.Regexp(t, `^RP-[0-9A-Z]+$`, data["order_number"])
		})
	}
}

func TestCreateOrder_TotalIgnoresClientPrice(t *testing.T) {
	db := setupOrderTestDB(t)
	config.SetDB(db)
	catalog := seedServices(t, db)
	router := orderTestRouter()

	body := validOrderBody([]uint{catalog[0].ID})
	body["total_price"] = 1.0 // client-supplied totals are ignored

	w := performJSON(router, "POST", "/api/v1/orders", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, 250.0, data["total_price"])
}

func TestGetOrder(t *testing.T) {
	db := setupOrderTestDB(t)
	config.SetDB(db)
	router := orderTestRouter()

	order := models.Order{
		OrderNumber:   "RP-GETTEST",
		CustomerName:  "Max",
		CustomerEmail: "max@example.com",
		CarBrand:      "BMW",
		CarModel:      "320d",
		FuelType:      "diesel",
		Year:          "2018",
		ECUType:       "EDC17",
		TotalPrice:    100,
		Status:        models.StatusPending,
		LegalConsent:  true,
	}
	require.NoError(t, db.Create(&order).Error)

	t.Run("returns existing order", func(t *testing.T) {
		w := performJSON(router, "GET", "/api/v1/orders/1", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		w := performJSON(router, "GET", "/api/v1/orders/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-numeric id returns 400", func(t *testing.T) {
		w := performJSON(router, "GET", "/api/v1/orders/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTrackOrder(t *testing.T) {
	db := setupOrderTestDB(t)
	config.SetDB(db)
	router := orderTestRouter()

	order := models.Order{
		OrderNumber:   "RP-TRACK1",
		CustomerName:  "Max",
		CustomerEmail: "Max.Mustermann@Example.com",
		CarBrand:      "BMW",
		CarModel:      "320d",
		FuelType:      "diesel",
		Year:          "2018",
		ECUType:       "EDC17",
		TotalPrice:    100,
		Status:        models.StatusProcessing,
		LegalConsent:  true,
	}
	require.NoError(t, db.Create(&order).Error)

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		expectedStep   float64
	}{
		{
			name: "finds order by number and email",
			body: map[string]interface{}{
				"identifier": "RP-TRACK1",
				"email":      "max.mustermann@example.com",
			},
			expectedStatus: http.StatusOK,
			expectedStep:   2,
		},
		{
			name: "email comparison is case-insensitive both ways",
			body: map[string]interface{}{
				"identifier": "RP-TRACK1",
				"email":      "MAX.MUSTERMANN@EXAMPLE.COM",
			},
			expectedStatus: http.StatusOK,
			expectedStep:   2,
		},
		{
			name: "finds order by numeric id",
			body: map[string]interface{}{
				"identifier": "1",
				"email":      "max.mustermann@example.com",
			},
			expectedStatus: http.StatusOK,
			expectedStep:   2,
		},
		{
			name: "wrong email yields not found",
			body: map[string]interface{}{
				"identifier": "RP-TRACK1",
				"email":      "someone.else@example.com",
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "unknown order number yields not found",
			body: map[string]interface{}{
				"identifier": "RP-NOPE",
				"email":      "max.mustermann@example.com",
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "missing email is a validation error",
			body: map[string]interface{}{
				"identifier": "RP-TRACK1",
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(router, "POST", "/api/v1/orders/track", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus != http.StatusOK {
				return
			}

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			data := response["data"].(map[string]interface{})
			assert.Equal(t, tt.expectedStep, data["step"])
		})
	}
}

func TestGetOrderBySession(t *testing.T) {
	db := setupOrderTestDB(t)
	config.SetDB(db)
	router := orderTestRouter()

	t.Run("not found before the webhook lands", func(t *testing.T) {
		w := performJSON(router, "GET", "/api/v1/checkout/session/cs_test_123", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("found after the order exists", func(t *testing.T) {
		sessionID := "cs_test_123"
		order := models.Order{
			OrderNumber:     "RP-SESSION1",
			CustomerName:    "Max",
			CustomerEmail:   "max@example.com",
			TotalPrice:      370,
			Status:          models.StatusPaid,
			LegalConsent:    true,
			StripeSessionID: &sessionID,
		}
		require.NoError(t, db.Create(&order).Error)

		w := performJSON(router, "GET", "/api/v1/checkout/session/cs_test_123", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "RP-SESSION1", data["order_number"])
		assert.Equal(t, "paid", data["status"])
	})
}
