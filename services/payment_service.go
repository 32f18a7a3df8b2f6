package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	appConfig "github.com/rp-tuning/rp-tuning-api/config"
)

// CheckoutParams describes a hosted checkout session to create
type CheckoutParams struct {
	ServiceNames      []string
	TotalAmount       float64
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	CustomerEmail     string
	CustomerNote      string
}

// CheckoutSession is the created hosted payment session
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutCompleted carries the fields we need from a completed payment session
type CheckoutCompleted struct {
	SessionID         string
	ClientReferenceID string
	CustomerEmail     string
	CustomerName      string
	AmountTotal       float64 // major currency units
	ServiceNames      []string
	CustomerNote      string
}

// WebhookEvent is a verified payment-provider webhook event. Completed is nil
// for event types we don't act on.
type WebhookEvent struct {
	Type      string
	Completed *CheckoutCompleted
}

// PaymentInterface defines the interface for the payment provider
type PaymentInterface interface {
	CreateCheckoutSession(params CheckoutParams) (*CheckoutSession, error)
	ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error)
}

// StripeGateway implements PaymentInterface using Stripe hosted checkout
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

var paymentInstance PaymentInterface

// InitPaymentGateway initializes the Stripe gateway
func InitPaymentGateway(cfg *appConfig.Config) PaymentInterface {
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)

	paymentInstance = &StripeGateway{
		api:           api,
		webhookSecret: cfg.StripeWebhookKey,
	}
	return paymentInstance
}

// GetPaymentGateway returns the initialized payment gateway instance
func GetPaymentGateway() PaymentInterface {
	return paymentInstance
}

// SetPaymentGateway sets the payment gateway instance (primarily for testing)
func SetPaymentGateway(gateway PaymentInterface) {
	paymentInstance = gateway
}

// CreateCheckoutSession creates a hosted checkout session with one aggregated
// line item. Amounts are converted to cents for the provider.
func (g *StripeGateway) CreateCheckoutSession(params CheckoutParams) (*CheckoutSession, error) {
	description := strings.Join(params.ServiceNames, ", ")
	if description == "" {
		description = "ECU tuning services"
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyEUR)),
					UnitAmount: stripe.Int64(int64(math.Round(params.TotalAmount * 100))),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}

	if params.ClientReferenceID != "" {
		sessionParams.ClientReferenceID = stripe.String(params.ClientReferenceID)
	}
	if params.CustomerEmail != "" {
		sessionParams.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	sessionParams.AddMetadata("service_names", description)
	if params.CustomerNote != "" {
		sessionParams.AddMetadata("customer_note", params.CustomerNote)
	}

	sess, err := g.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseWebhookEvent verifies the webhook signature and extracts the session
// fields for checkout.session.completed events
func (g *StripeGateway) ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	result := &WebhookEvent{Type: string(event.Type)}
	if event.Type != "checkout.session.completed" {
		return result, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session from event: %w", err)
	}

	completed := &CheckoutCompleted{
		SessionID:         sess.ID,
		ClientReferenceID: sess.ClientReferenceID,
		AmountTotal:       float64(sess.AmountTotal) / 100,
		CustomerNote:      sess.Metadata["customer_note"],
	}
	if names := sess.Metadata["service_names"]; names != "" {
		completed.ServiceNames = strings.Split(names, ", ")
	}
	if sess.CustomerDetails != nil {
		completed.CustomerEmail = sess.CustomerDetails.Email
		completed.CustomerName = sess.CustomerDetails.Name
	}
	if completed.CustomerEmail == "" {
		completed.CustomerEmail = sess.CustomerEmail
	}

	result.Completed = completed
	return result, nil
}
