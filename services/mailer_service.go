package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	appConfig "github.com/rp-tuning/rp-tuning-api/config"
)

// Mailer error categories, used to report provider failures to callers.
// Function responses embed these instead of propagating provider status codes.
const (
	MailerErrorAuth       = "auth_failure"
	MailerErrorDomain     = "domain_not_verified"
	MailerErrorProvider   = "provider_error"
	MailerErrorValidation = "validation_error"
)

// MailerError represents a categorized failure from the email provider
type MailerError struct {
	Category   string
	StatusCode int
	Message    string
}

func (e *MailerError) Error() string {
	return e.Message
}

// EmailAttachment is a file attached to an outgoing email
type EmailAttachment struct {
	Filename string
	Content  []byte
}

// EmailMessage is one outgoing transactional email
type EmailMessage struct {
	To          []string
	Subject     string
	HTML        string
	Attachments []EmailAttachment
}

// MailerInterface defines the interface for sending transactional email
type MailerInterface interface {
	Send(msg EmailMessage) error
}

// ResendMailer sends email through the Resend HTTP API
type ResendMailer struct {
	apiKey     string
	from       string
	endpoint   string
	httpClient *http.Client
}

var mailerInstance MailerInterface

// InitMailer initializes the mailer with the provider API key
func InitMailer(cfg *appConfig.Config) MailerInterface {
	mailerInstance = &ResendMailer{
		apiKey:   cfg.ResendAPIKey,
		from:     cfg.EmailFrom,
		endpoint: "https://api.resend.com/emails",
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	return mailerInstance
}

// GetMailer returns the initialized mailer instance
func GetMailer() MailerInterface {
	return mailerInstance
}

// SetMailer sets the mailer instance (primarily for testing)
func SetMailer(mailer MailerInterface) {
	mailerInstance = mailer
}

// resendAttachment is the provider wire format for attachments
type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"` // base64
}

// resendRequest is the provider wire format for a send call
type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

// Send posts the message to the provider and maps provider HTTP errors into
// categorized MailerErrors: 401 is an API key problem, a 403 mentioning the
// sending domain means the domain is not verified, everything else is generic.
func (m *ResendMailer) Send(msg EmailMessage) error {
	if m.apiKey == "" {
		return &MailerError{
			Category: MailerErrorAuth,
			Message:  "Email service is not configured: missing API key",
		}
	}

	payload := resendRequest{
		From:    m.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}
	for _, att := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, resendAttachment{
			Filename: att.Filename,
			Content:  base64.StdEncoding.EncodeToString(att.Content),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode email payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return &MailerError{
			Category: MailerErrorProvider,
			Message:  fmt.Sprintf("Email provider unreachable: %v", err),
		}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("warning: failed to close provider response body: %v", closeErr)
		}
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(resp.Body)
	return categorizeProviderError(resp.StatusCode, string(respBody))
}

// categorizeProviderError maps a provider HTTP error into a MailerError
func categorizeProviderError(statusCode int, body string) *MailerError {
	lowerBody := strings.ToLower(body)

	switch {
	case statusCode == http.StatusUnauthorized:
		return &MailerError{
			Category:   MailerErrorAuth,
			StatusCode: statusCode,
			Message:    "Email provider rejected the API key",
		}
	case statusCode == http.StatusForbidden && strings.Contains(lowerBody, "domain"):
		return &MailerError{
			Category:   MailerErrorDomain,
			StatusCode: statusCode,
			Message:    "Sending domain is not verified with the email provider",
		}
	case statusCode == http.StatusUnprocessableEntity:
		return &MailerError{
			Category:   MailerErrorValidation,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("Email provider rejected the message: %s", body),
		}
	}
	return &MailerError{
		Category:   MailerErrorProvider,
		StatusCode: statusCode,
		Message:    fmt.Sprintf("Email provider returned status %d", statusCode),
	}
}
