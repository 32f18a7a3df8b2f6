package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rp-tuning/rp-tuning-api/config"
	"github.com/rp-tuning/rp-tuning-api/models"
	"github.com/rp-tuning/rp-tuning-api/services"
	"github.com/rp-tuning/rp-tuning-api/utils"
)

// CreateCheckoutRequest is the body of the create-checkout function
type CreateCheckoutRequest struct {
	ServiceNames      []string `json:"serviceNames"`
	TotalAmount       float64  `json:"totalAmount"`
	SuccessURL        string   `json:"successUrl"`
	CancelURL         string   `json:"cancelUrl"`
	ClientReferenceID string   `json:"clientReferenceId"`
	CustomerEmail     string   `json:"customerEmail"`
	CustomerNote      string   `json:"customerNote"`
}

// CreateCheckout handles POST /functions/v1/create-checkout. It creates a
// hosted payment session and returns its redirect URL.
func CreateCheckout(c *gin.Context) {
	var req CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON body"})
		return
	}
	if req.TotalAmount <= 0 {
		functionFail(c, "totalAmount must be greater than zero")
		return
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		functionFail(c, "successUrl and cancelUrl are required")
		return
	}

	session, err := services.GetPaymentGateway().CreateCheckoutSession(services.CheckoutParams{
		ServiceNames:      req.ServiceNames,
		TotalAmount:       req.TotalAmount,
		SuccessURL:        req.SuccessURL,
		CancelURL:         req.CancelURL,
		ClientReferenceID: req.ClientReferenceID,
		CustomerEmail:     req.CustomerEmail,
		CustomerNote:      req.CustomerNote,
	})
	if err != nil {
		log.Printf("checkout session creation failed: %v", err)
		functionFail(c, "Failed to create the checkout session")
		return
	}

	functionOK(c, gin.H{"url": session.URL, "session_id": session.ID})
}

// StripeWebhook handles POST /functions/v1/stripe-webhook. Signature
// verification failures are the only 4xx; once an event is verified we
// answer 200 regardless of how the side effects go, so the provider does
// not keep redelivering.
func StripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Failed to read request body"})
		return
	}

	event, err := services.GetPaymentGateway().ParseWebhookEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Printf("webhook verification failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Webhook signature verification failed"})
		return
	}

	if event.Completed == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "received": true})
		return
	}

	order, err := recordPaidCheckout(event.Completed)
	if err != nil {
		log.Printf("failed to record paid checkout %s: %v", event.Completed.SessionID, err)
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Failed to record the paid order"})
		return
	}

	// Invoice and admin notification are best effort, the payment itself
	// is already recorded.
	notifyPaidCheckout(order, event.Completed)

	c.JSON(http.StatusOK, gin.H{"success": true, "order_number": order.OrderNumber})
}

// recordPaidCheckout creates the paid order for a completed checkout session.
// Redelivered events map onto the existing row via the session ID.
func recordPaidCheckout(completed *services.CheckoutCompleted) (*models.Order, error) {
	db := config.GetDB()

	var existing models.Order
	err := db.Where("stripe_session_id = ?", completed.SessionID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	serviceType, err := json.Marshal(completed.ServiceNames)
	if err != nil {
		return nil, err
	}

	name := completed.CustomerName
	if name == "" {
		name = completed.CustomerEmail
	}

	order := models.Order{
		OrderNumber:   utils.GenerateOrderNumber(),
		CustomerName:  name,
		CustomerEmail: completed.CustomerEmail,
		ServiceType:   datatypes.JSON(serviceType),
		TotalPrice:    completed.AmountTotal,
		Status:        models.StatusPaid,
		LegalConsent:  true,
	}
	order.StripeSessionID = &completed.SessionID
	if completed.CustomerNote != "" {
		note := completed.CustomerNote
		order.CustomerNote = &note
	}

	if err := db.Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// notifyPaidCheckout generates the invoice and tells the shop about the new
// paid order. Failures are logged and swallowed.
func notifyPaidCheckout(order *models.Order, completed *services.CheckoutCompleted) {
	cfg := config.GetConfig()

	if err := issueInvoice(order, completed); err != nil {
		log.Printf("invoice generation for order %s failed: %v", order.OrderNumber, err)
	}

	html, err := services.RenderAdminNotification(services.AdminNotificationData{
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		ServiceNames:  strings.Join(completed.ServiceNames, ", "),
		TotalAmount:   order.TotalPrice,
	})
	if err != nil {
		log.Printf("admin notification render for order %s failed: %v", order.OrderNumber, err)
		return
	}

	err = services.GetMailer().Send(services.EmailMessage{
		To:      []string{cfg.AdminEmail},
		Subject: "New paid order " + order.OrderNumber,
		HTML:    html,
	})
	if err != nil {
		log.Printf("admin notification for order %s failed: %v", order.OrderNumber, err)
	}
}

// issueInvoice renders, stores and emails the invoice for a paid order
func issueInvoice(order *models.Order, completed *services.CheckoutCompleted) error {
	if order.InvoiceNumber != nil {
		return nil
	}

	items := make([]services.InvoiceItem, 0, len(completed.ServiceNames))
	for _, name := range completed.ServiceNames {
		items = append(items, services.InvoiceItem{Name: name})
	}
	if len(items) == 1 {
		items[0].Price = order.TotalPrice
	}

	invoiceNumber := utils.GenerateInvoiceNumber(timeNow().Year(), int64(order.ID))
	pdfContent, err := services.RenderInvoicePDF(services.InvoiceData{
		InvoiceNumber: invoiceNumber,
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Items:         items,
		TotalAmount:   order.TotalPrice,
		IssuedAt:      timeNow(),
	})
	if err != nil {
		return err
	}

	invoiceURL, err := services.GetFileService().UploadInvoicePDF(pdfContent, invoiceNumber+".pdf")
	if err != nil {
		return err
	}

	err = config.GetDB().Model(order).Updates(map[string]interface{}{
		"invoice_number": invoiceNumber,
		"invoice_url":    invoiceURL,
	}).Error
	if err != nil {
		return err
	}
	order.InvoiceNumber = &invoiceNumber
	order.InvoiceURL = &invoiceURL

	html, err := services.RenderInvoiceEmail(services.InvoiceEmailData{
		InvoiceNumber: invoiceNumber,
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		TotalAmount:   order.TotalPrice,
	})
	if err != nil {
		return err
	}

	return services.GetMailer().Send(services.EmailMessage{
		To:      []string{order.CustomerEmail},
		Subject: "Invoice " + invoiceNumber + " for order " + order.OrderNumber,
		HTML:    html,
		Attachments: []services.EmailAttachment{
			{Filename: invoiceNumber + ".pdf", Content: pdfContent},
		},
	})
}
