package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rp-tuning/rp-tuning-api/config"
	"github.com/rp-tuning/rp-tuning-api/models"
	"github.com/rp-tuning/rp-tuning-api/services"
	"github.com/rp-tuning/rp-tuning-api/utils"
)

// Function handlers mirror the deployed serverless functions: after a
// parseable JSON body they always answer HTTP 200 with a success boolean,
// so a webhook caller never sees a 5xx and never retry-storms us.

// functionOK writes a successful function response
func functionOK(c *gin.Context, extra gin.H) {
	body := gin.H{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// functionFail writes a failed-but-200 function response
func functionFail(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": false,
		"error":   message,
	})
}

// functionMailFail writes a failed-but-200 response carrying the categorized
// provider error
func functionMailFail(c *gin.Context, err error) {
	if mailerErr, ok := err.(*services.MailerError); ok {
		c.JSON(http.StatusOK, gin.H{
			"success":  false,
			"error":    mailerErr.Message,
			"category": mailerErr.Category,
		})
		return
	}
	functionFail(c, err.Error())
}

// SendOrderConfirmationRequest is the body of the order-confirmation function
type SendOrderConfirmationRequest struct {
	OrderID       uint    `json:"orderId"`
	OrderNumber   string  `json:"orderNumber"`
	CustomerEmail string  `json:"customerEmail"`
	CustomerName  string  `json:"customerName"`
	TotalAmount   float64 `json:"totalAmount"`
	CreatedAt     string  `json:"createdAt"`
}

// SendOrderConfirmation handles POST /functions/v1/send-order-confirmation
func SendOrderConfirmation(c *gin.Context) {
	var req SendOrderConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON body"})
		return
	}
	if req.CustomerEmail == "" || req.OrderNumber == "" {
		functionFail(c, "customerEmail and orderNumber are required")
		return
	}

	cfg := config.GetConfig()
	html, err := services.RenderOrderConfirmation(services.OrderConfirmationData{
		OrderNumber:  req.OrderNumber,
		CustomerName: req.CustomerName,
		TotalAmount:  req.TotalAmount,
		CreatedAt:    req.CreatedAt,
		TrackURL:     cfg.SiteBaseURL + "/track",
	})
	if err != nil {
		functionFail(c, err.Error())
		return
	}

	err = services.GetMailer().Send(services.EmailMessage{
		To:      []string{req.CustomerEmail},
		Subject: "Order confirmation " + req.OrderNumber,
		HTML:    html,
	})
	if err != nil {
		log.Printf("order-confirmation email for %s failed: %v", req.OrderNumber, err)
		functionMailFail(c, err)
		return
	}

	functionOK(c, nil)
}

// SendOrderReadyRequest is the body of the order-ready function
type SendOrderReadyRequest struct {
	OrderID       uint   `json:"orderId"`
	OrderNumber   string `json:"orderNumber"`
	CustomerEmail string `json:"customerEmail"`
	CustomerName  string `json:"customerName"`
	CarBrand      string `json:"carBrand"`
	CarModel      string `json:"carModel"`
	ResultFileURL string `json:"resultFileUrl"`
	ImportantNote string `json:"important_note"`
}

// SendOrderReady handles POST /functions/v1/send-order-ready
func SendOrderReady(c *gin.Context) {
	var req SendOrderReadyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON body"})
		return
	}
	if req.CustomerEmail == "" || req.OrderNumber == "" {
		functionFail(c, "customerEmail and orderNumber are required")
		return
	}

	html, err := services.RenderOrderReady(services.OrderReadyData{
		OrderNumber:   req.OrderNumber,
		CustomerName:  req.CustomerName,
		CarBrand:      req.CarBrand,
		CarModel:      req.CarModel,
		ResultFileURL: req.ResultFileURL,
		ImportantNote: req.ImportantNote,
	})
	if err != nil {
		functionFail(c, err.Error())
		return
	}

	err = services.GetMailer().Send(services.EmailMessage{
		To:      []string{req.CustomerEmail},
		Subject: "Your tuned file for order " + req.OrderNumber + " is ready",
		HTML:    html,
	})
	if err != nil {
		log.Printf("order-ready email for %s failed: %v", req.OrderNumber, err)
		functionMailFail(c, err)
		return
	}

	functionOK(c, nil)
}

// SendStatusEmailRequest is the body of the status-email function
type SendStatusEmailRequest struct {
	OrderID       uint   `json:"orderId"`
	OrderNumber   string `json:"orderNumber"`
	CustomerEmail string `json:"customerEmail"`
	CustomerName  string `json:"customerName"`
	CarBrand      string `json:"carBrand"`
	CarModel      string `json:"carModel"`
	Year          string `json:"year"`
	Status        string `json:"status"`
}

// SendStatusEmail handles POST /functions/v1/send-status-email
func SendStatusEmail(c *gin.Context) {
	var req SendStatusEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON body"})
		return
	}
	if req.CustomerEmail == "" || req.OrderNumber == "" || req.Status == "" {
		functionFail(c, "customerEmail, orderNumber and status are required")
		return
	}

	cfg := config.GetConfig()
	html, err := services.RenderStatusUpdate(services.StatusUpdateData{
		OrderNumber:  req.OrderNumber,
		CustomerName: req.CustomerName,
		CarBrand:     req.CarBrand,
		CarModel:     req.CarModel,
		Year:         req.Year,
		StatusLabel:  req.Status,
		TrackURL:     cfg.SiteBaseURL + "/track",
	})
	if err != nil {
		functionFail(c, err.Error())
		return
	}

	err = services.GetMailer().Send(services.EmailMessage{
		To:      []string{req.CustomerEmail},
		Subject: "Order " + req.OrderNumber + " status update",
		HTML:    html,
	})
	if err != nil {
		log.Printf("status email for %s failed: %v", req.OrderNumber, err)
		functionMailFail(c, err)
		return
	}

	functionOK(c, nil)
}

// SendCompletionEmailRequest is the body of the completion-email function
type SendCompletionEmailRequest struct {
	OrderID       uint   `json:"orderId"`
	OrderNumber   string `json:"orderNumber"`
	CustomerEmail string `json:"customerEmail"`
	CustomerName  string `json:"customerName"`
	CarBrand      string `json:"carBrand"`
	CarModel      string `json:"carModel"`
	Year          string `json:"year"`
}

// SendCompletionEmail handles POST /functions/v1/send-completion-email
func SendCompletionEmail(c *gin.Context) {
	var req SendCompletionEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON body"})
		return
	}
	if req.CustomerEmail == "" || req.OrderNumber == "" {
		functionFail(c, "customerEmail and orderNumber are required")
		return
	}

	html, err := services.RenderCompletion(services.CompletionData{
		OrderNumber:  req.OrderNumber,
		CustomerName: req.CustomerName,
		CarBrand:     req.CarBrand,
		CarModel:     req.CarModel,
		Year:         req.Year,
	})
	if err != nil {
		functionFail(c, err.Error())
		return
	}

	err = services.GetMailer().Send(services.EmailMessage{
		To:      []string{req.CustomerEmail},
		Subject: "Your order " + req.OrderNumber + " is complete",
		HTML:    html,
	})
	if err != nil {
		log.Printf("completion email for %s failed: %v", req.OrderNumber, err)
		functionMailFail(c, err)
		return
	}

	functionOK(c, nil)
}

// GenerateInvoiceRequest is the body of the generate-invoice function
type GenerateInvoiceRequest struct {
	OrderID       uint                   `json:"orderId"`
	OrderNumber   string                 `json:"orderNumber"`
	CustomerName  string                 `json:"customerName"`
	CustomerEmail string                 `json:"customerEmail"`
	Items         []services.InvoiceItem `json:"items"`
	TotalAmount   float64                `json:"totalAmount"`
	CarBrand      string                 `json:"carBrand"`
	CarModel      string                 `json:"carModel"`
}

// GenerateInvoice handles POST /functions/v1/generate-invoice: renders the
// PDF, uploads it, records invoice number and URL on the order and emails
// the customer with the PDF attached.
func GenerateInvoice(c *gin.Context) {
	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON body"})
		return
	}
	if req.CustomerEmail == "" || req.OrderNumber == "" || req.OrderID == 0 {
		functionFail(c, "orderId, orderNumber and customerEmail are required")
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, req.OrderID).Error; err != nil {
		functionFail(c, "Order not found")
		return
	}

	invoiceNumber := utils.GenerateInvoiceNumber(timeNow().Year(), int64(order.ID))
	pdfContent, err := services.RenderInvoicePDF(services.InvoiceData{
		InvoiceNumber: invoiceNumber,
		OrderNumber:   req.OrderNumber,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CarBrand:      req.CarBrand,
		CarModel:      req.CarModel,
		Items:         req.Items,
		TotalAmount:   req.TotalAmount,
		IssuedAt:      timeNow(),
	})
	if err != nil {
		log.Printf("invoice render for order %s failed: %v", req.OrderNumber, err)
		functionFail(c, "Failed to render the invoice PDF")
		return
	}

	invoiceURL, err := services.GetFileService().UploadInvoicePDF(pdfContent, invoiceNumber+".pdf")
	if err != nil {
		log.Printf("invoice upload for order %s failed: %v", req.OrderNumber, err)
		functionFail(c, "Failed to store the invoice PDF")
		return
	}

	updates := map[string]interface{}{
		"invoice_number": invoiceNumber,
		"invoice_url":    invoiceURL,
	}
	if err := db.Model(&order).Updates(updates).Error; err != nil {
		log.Printf("invoice bookkeeping for order %s failed: %v", req.OrderNumber, err)
		functionFail(c, "Failed to record the invoice on the order")
		return
	}

	html, err := services.RenderInvoiceEmail(services.InvoiceEmailData{
		InvoiceNumber: invoiceNumber,
		OrderNumber:   req.OrderNumber,
		CustomerName:  req.CustomerName,
		TotalAmount:   req.TotalAmount,
	})
	if err != nil {
		functionFail(c, err.Error())
		return
	}

	err = services.GetMailer().Send(services.EmailMessage{
		To:      []string{req.CustomerEmail},
		Subject: "Invoice " + invoiceNumber + " for order " + req.OrderNumber,
		HTML:    html,
		Attachments: []services.EmailAttachment{
			{Filename: invoiceNumber + ".pdf", Content: pdfContent},
		},
	})
	if err != nil {
		log.Printf("invoice email for %s failed: %v", req.OrderNumber, err)
		functionMailFail(c, err)
		return
	}

	functionOK(c, gin.H{
		"invoice_number": invoiceNumber,
		"invoice_url":    invoiceURL,
	})
}
