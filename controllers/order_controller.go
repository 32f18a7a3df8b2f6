package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rp-tuning/rp-tuning-api/config"
	"github.com/rp-tuning/rp-tuning-api/models"
	"github.com/rp-tuning/rp-tuning-api/utils"
)

// CreateOrderRequest represents the request body for submitting an order.
// This is the final payload of the public order wizard: vehicle specs from
// step 1, services and file from step 2, contact and consent from step 3.
type CreateOrderRequest struct {
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"required,email"`
	CarBrand      string `json:"car_brand" binding:"required"`
	CarModel      string `json:"car_model" binding:"required"`
	FuelType      string `json:"fuel_type" binding:"required"`
	Year          string `json:"year" binding:"required"`
	Displacement  string `json:"displacement" binding:"required"`
	Power         string `json:"power" binding:"required"`
	ECUType       string `json:"ecu_type" binding:"required"`
	VIN           string `json:"vin"`
	ServiceIDs    []uint `json:"service_type" binding:"required,min=1"`
	FileURL       string `json:"file_url" binding:"required"`
	LegalConsent  bool   `json:"legal_consent"`
	CustomerNote  string `json:"customer_note"`
}

// CreateOrder handles POST /api/v1/orders - submits a new tuning order
func CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	// Consent is an explicit checkbox; a submission without it never reaches the database
	if !req.LegalConsent {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CONSENT_REQUIRED",
				"message": "Legal consent must be accepted before submitting an order",
			},
		})
		return
	}

	// Resolve the selected services against the catalog; the total is always
	// computed server-side from catalog prices
	db := config.GetDB()
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

	var total float64
	for _, svc := range selected {
		total += svc.Price
	}

	serviceType, err := json.Marshal(req.ServiceIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to encode selected services",
			},
		})
		return
	}

	order := models.Order{
		OrderNumber:   utils.GenerateOrderNumber(),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CarBrand:      req.CarBrand,
		CarModel:      req.CarModel,
		FuelType:      req.FuelType,
		Year:          req.Year,
		Displacement:  req.Displacement,
		Power:         req.Power,
		ECUType:       req.ECUType,
		ServiceType:   serviceType,
		TotalPrice:    total,
		Status:        models.StatusPending,
		FileURL:       &req.FileURL,
		LegalConsent:  true,
	}
	if req.VIN != "" {
		order.VIN = &req.VIN
	}
	if req.CustomerNote != "" {
		order.CustomerNote = &req.CustomerNote
	}

	if err := db.Create(&order).Error; err != nil {
		log.Printf("Failed to create order: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create order",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrder handles GET /api/v1/orders/:id - serves the order confirmation view
func GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Order id must be numeric",
			},
		})
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// TrackOrderRequest represents the request body for the order tracking lookup
type TrackOrderRequest struct {
	Identifier string `json:"identifier" binding:"required"` // order id or order number
	Email      string `json:"email" binding:"required,email"`
}

// TrackOrder handles POST /api/v1/orders/track - the status tracking lookup.
// Knowing the order number alone is not enough: the email must match too.
func TrackOrder(c *gin.Context) {
	var req TrackOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Both an order identifier and the order email are required",
				"details": err.Error(),
			},
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	identifier := strings.TrimSpace(req.Identifier)

	db := config.GetDB()
	query := db.Where("LOWER(customer_email) = ?", email)
	if id, parseErr := strconv.ParseUint(identifier, 10, 64); parseErr == nil {
		query = query.Where("order_number = ? OR id = ?", identifier, id)
	} else {
		query = query.Where("order_number = ?", identifier)
	}

	var order models.Order
	if err := query.First(&order).Error; err != nil {
		// Zero rows is a user-facing "not found", never an error. A mismatched
		// email lands here as well, indistinguishable from a wrong number.
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "No order was found for this identifier and email",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order": order,
			"step":  models.TrackingStep(order.Status),
		},
	})
}

// GetOrderBySession handles GET /api/v1/checkout/session/:sessionID - the
// success page polls this until the payment webhook has created the order row
func GetOrderBySession(c *gin.Context) {
	sessionID := c.Param("sessionID")

	db := config.GetDB()
	var order models.Order
	if err := db.Where("stripe_session_id = ?", sessionID).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order has not been created yet",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
