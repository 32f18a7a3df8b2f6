package controllers

import (
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rp-tuning/rp-tuning-api/config"
	"github.com/rp-tuning/rp-tuning-api/middleware"
	"github.com/rp-tuning/rp-tuning-api/models"
	"github.com/rp-tuning/rp-tuning-api/services"
	"github.com/rp-tuning/rp-tuning-api/utils"
)

// ListOrders handles GET /api/v1/admin/orders - the admin order table.
// Supports case-insensitive substring search over order number, customer
// name/email and car brand/model, plus an exact status filter.
func ListOrders(c *gin.Context) {
	db := config.GetDB()
	query := db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(order_number) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(customer_email) LIKE ? OR LOWER(car_brand) LIKE ? OR LOWER(car_model) LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// UpdateOrderStatusRequest represents the request body for a status change
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus handles PATCH /api/v1/admin/orders/:id/status.
//
// The transition into completed from any other status triggers exactly one
// completion-email attempt. The email is a downstream side effect: its
// failure is reported distinctly but never rolls back the committed status.
func UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "A status value is required",
				"details": err.Error(),
			},
		})
		return
	}

	if !models.IsValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_STATUS",
				"message": "Unknown order status: " + req.Status,
			},
		})
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	previousStatus := order.Status
	if previousStatus == req.Status {
		// No-op reselect: no write, no email
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"order":      order,
				"email_sent": false,
			},
		})
		return
	}

	if err := db.Model(&order).Update("status", req.Status).Error; err != nil {
		log.Printf("Failed to persist status change for order %d: %v", order.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update order status",
			},
		})
		return
	}
	order.Status = req.Status

	emailSent := false
	var emailError string
	if req.Status == models.StatusCompleted {
		if err := sendCompletionEmail(&order); err != nil {
			log.Printf("Completion email for order %s failed: %v", order.OrderNumber, err)
			emailError = err.Error()
		} else {
			emailSent = true
		}
	}

	response := gin.H{
		"order":      order,
		"email_sent": emailSent,
	}
	if emailError != "" {
		response["email_error"] = emailError
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
	})
}

// UpdateOrderFieldsRequest represents the inline-editable admin fields.
// Only fields present in the payload are persisted.
type UpdateOrderFieldsRequest struct {
	ChecksumCRC   *string `json:"checksum_crc"`
	InternalNote  *string `json:"internal_note"`
	ImportantNote *string `json:"important_note"`
	CustomerNote  *string `json:"customer_note"`
}

// UpdateOrderFields handles PATCH /api/v1/admin/orders/:id - inline field edits
func UpdateOrderFields(c *gin.Context) {
	var req UpdateOrderFieldsRequest
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

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	updates := map[string]interface{}{}
	if req.ChecksumCRC != nil {
		updates["checksum_crc"] = *req.ChecksumCRC
	}
	if req.InternalNote != nil {
		updates["internal_note"] = *req.InternalNote
	}
	if req.ImportantNote != nil {
		updates["important_note"] = *req.ImportantNote
	}
	if req.CustomerNote != nil {
		updates["customer_note"] = *req.CustomerNote
	}

	if len(updates) > 0 {
		if err := db.Model(&order).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to update order fields",
				},
			})
			return
		}
	}

	if err := db.First(&order, order.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to reload order",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// DownloadOrderFile handles GET /api/v1/admin/orders/:id/file - streams the
// customer's ECU file. A successful fetch advances a pending order to
// processing as a side effect.
func DownloadOrderFile(c *gin.Context) {
	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	if order.FileURL == nil || *order.FileURL == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_FILE",
				"message": "This order has no uploaded file",
			},
		})
		return
	}

	fileService := services.GetFileService()
	content, err := fileService.Download(*order.FileURL)
	if err != nil {
		log.Printf("Failed to download file for order %s: %v", order.OrderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOWNLOAD_FAILED",
				"message": "Failed to fetch the order file from storage",
			},
		})
		return
	}

	// The fetch succeeded; a still-pending order is now being worked on
	if order.Status == models.StatusPending {
		if err := db.Model(&order).Update("status", models.StatusProcessing).Error; err != nil {
			// The download still succeeds; the status bump is best effort
			log.Printf("Failed to advance order %s to processing: %v", order.OrderNumber, err)
		}
	}

	filename := path.Base(*order.FileURL)
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "application/octet-stream", content)
}

// UploadResultFile handles POST /api/v1/admin/orders/:id/result - uploads the
// completed tune, marks the order completed and sends the file-ready email.
// Email failure is tolerated without rolling back the status change.
func UploadResultFile(c *gin.Context) {
	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "A file must be provided in the 'file' form field",
			},
		})
		return
	}

	fileService := services.GetFileService()
	resultURL, err := fileService.UploadResult(fileHeader)
	if err != nil {
		if uploadErr, ok := err.(*utils.FileUploadError); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}

		log.Printf("Result upload failed for order %s: %v", order.OrderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": "Failed to store the result file",
			},
		})
		return
	}

	updates := map[string]interface{}{
		"result_file_url": resultURL,
		"status":          models.StatusCompleted,
	}
	if err := db.Model(&order).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update the order with the result file",
			},
		})
		return
	}
	order.ResultFileURL = &resultURL
	order.Status = models.StatusCompleted

	emailSent := false
	var emailError string
	if err := sendOrderReadyEmail(&order); err != nil {
		log.Printf("File-ready email for order %s failed: %v", order.OrderNumber, err)
		emailError = err.Error()
	} else {
		emailSent = true
	}

	response := gin.H{
		"order":      order,
		"email_sent": emailSent,
	}
	if emailError != "" {
		response["email_error"] = emailError
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
	})
}

// AdminMe handles GET /api/v1/admin/me - returns the signed-in admin identity
// as reported by Auth0's userinfo endpoint
func AdminMe(c *gin.Context) {
	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_TOKEN",
				"message": "Access token not found",
			},
		})
		return
	}

	cfg := config.GetConfig()
	auth0Service := services.NewAuth0Service(cfg)
	userInfo, err := auth0Service.GetUserInfo(accessToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH0_ERROR",
				"message": "Failed to fetch user information from Auth0",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    userInfo,
	})
}

// sendCompletionEmail sends the completed-order email for a single order
func sendCompletionEmail(order *models.Order) error {
	html, err := services.RenderCompletion(services.CompletionData{
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		CarBrand:     order.CarBrand,
		CarModel:     order.CarModel,
		Year:         order.Year,
	})
	if err != nil {
		return err
	}

	return services.GetMailer().Send(services.EmailMessage{
		To:      []string{order.CustomerEmail},
		Subject: "Your order " + order.OrderNumber + " is complete",
		HTML:    html,
	})
}

// sendOrderReadyEmail sends the file-ready email for a single order
func sendOrderReadyEmail(order *models.Order) error {
	data := services.OrderReadyData{
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		CarBrand:     order.CarBrand,
		CarModel:     order.CarModel,
	}
	if order.ResultFileURL != nil {
		data.ResultFileURL = *order.ResultFileURL
	}
	if order.ImportantNote != nil {
		data.ImportantNote = *order.ImportantNote
	}

	html, err := services.RenderOrderReady(data)
	if err != nil {
		return err
	}

	return services.GetMailer().Send(services.EmailMessage{
		To:      []string{order.CustomerEmail},
		Subject: "Your tuned file for order " + order.OrderNumber + " is ready",
		HTML:    html,
	})
}
