package services

import (
	"bytes"
	"fmt"
	"html/template"
)

// Transactional email templates. Bodies are inline template constants so the
// functions stay self-contained; all share the same header/footer frame.

const emailFrameHTML = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f4f4f5;font-family:Arial,Helvetica,sans-serif;">
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:24px 12px;">
      <table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;overflow:hidden;">
        <tr><td style="background:#dc2626;padding:20px 32px;">
          <span style="color:#ffffff;font-size:20px;font-weight:bold;">RP Tuning</span>
        </td></tr>
        <tr><td style="padding:32px;color:#1f2937;font-size:15px;line-height:1.6;">
          {{block "content" .}}{{end}}
        </td></tr>
        <tr><td style="padding:16px 32px;background:#f9fafb;color:#6b7280;font-size:12px;">
          RP Tuning &middot; Professional ECU remapping &middot; This is an automated message, please do not reply.
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

const orderConfirmationContent = `{{define "content"}}
<h2 style="margin-top:0;">Thank you for your order, {{.CustomerName}}!</h2>
<p>We received your order <strong>{{.OrderNumber}}</strong> on {{.CreatedAt}}.</p>
<p>Total amount: <strong>{{printf "%.2f" .TotalAmount}} &euro;</strong></p>
<p>Our technicians will start working on your file shortly. You can follow the progress at any time:</p>
<p><a href="{{.TrackURL}}" style="display:inline-block;background:#dc2626;color:#ffffff;padding:10px 24px;border-radius:6px;text-decoration:none;">Track your order</a></p>
{{end}}`

const orderReadyContent = `{{define "content"}}
<h2 style="margin-top:0;">Your file is ready, {{.CustomerName}}!</h2>
<p>The modified file for your <strong>{{.CarBrand}} {{.CarModel}}</strong> (order {{.OrderNumber}}) is ready for download.</p>
{{if .ResultFileURL}}<p><a href="{{.ResultFileURL}}" style="display:inline-block;background:#dc2626;color:#ffffff;padding:10px 24px;border-radius:6px;text-decoration:none;">Download your file</a></p>{{end}}
{{if .ImportantNote}}<p style="background:#fef3c7;border-left:4px solid #f59e0b;padding:12px 16px;"><strong>Important:</strong> {{.ImportantNote}}</p>{{end}}
<p>Flash the file with the same tool you used for reading. If anything is unclear, just reply to the address on our contact page.</p>
{{end}}`

const statusUpdateContent = `{{define "content"}}
<h2 style="margin-top:0;">Order update</h2>
<p>Hi {{.CustomerName}},</p>
<p>The status of order <strong>{{.OrderNumber}}</strong> ({{.CarBrand}} {{.CarModel}}, {{.Year}}) changed to <strong>{{.StatusLabel}}</strong>.</p>
<p><a href="{{.TrackURL}}" style="display:inline-block;background:#dc2626;color:#ffffff;padding:10px 24px;border-radius:6px;text-decoration:none;">View order status</a></p>
{{end}}`

const completionContent = `{{define "content"}}
<h2 style="margin-top:0;">Your order is complete!</h2>
<p>Hi {{.CustomerName}},</p>
<p>Order <strong>{{.OrderNumber}}</strong> for your <strong>{{.CarBrand}} {{.CarModel}}</strong> ({{.Year}}) has been completed.</p>
<p>Thank you for choosing RP Tuning. We'd love to see you back for your next project.</p>
{{end}}`

const invoiceEmailContent = `{{define "content"}}
<h2 style="margin-top:0;">Invoice {{.InvoiceNumber}}</h2>
<p>Hi {{.CustomerName}},</p>
<p>Please find attached the invoice for order <strong>{{.OrderNumber}}</strong>.</p>
<p>Amount: <strong>{{printf "%.2f" .TotalAmount}} &euro;</strong></p>
{{end}}`

const adminNotificationContent = `{{define "content"}}
<h2 style="margin-top:0;">New paid order</h2>
<p>A checkout payment just completed:</p>
<ul>
  <li>Order: <strong>{{.OrderNumber}}</strong></li>
  <li>Customer: {{.CustomerName}} ({{.CustomerEmail}})</li>
  <li>Services: {{.ServiceNames}}</li>
  <li>Amount: {{printf "%.2f" .TotalAmount}} &euro;</li>
</ul>
{{end}}`

// OrderConfirmationData feeds the order confirmation template
type OrderConfirmationData struct {
	OrderNumber  string
	CustomerName string
	TotalAmount  float64
	CreatedAt    string
	TrackURL     string
}

// OrderReadyData feeds the file-ready template
type OrderReadyData struct {
	OrderNumber   string
	CustomerName  string
	CarBrand      string
	CarModel      string
	ResultFileURL string
	ImportantNote string
}

// StatusUpdateData feeds the status change template
type StatusUpdateData struct {
	OrderNumber  string
	CustomerName string
	CarBrand     string
	CarModel     string
	Year         string
	StatusLabel  string
	TrackURL     string
}

// CompletionData feeds the completion template
type CompletionData struct {
	OrderNumber  string
	CustomerName string
	CarBrand     string
	CarModel     string
	Year         string
}

// InvoiceEmailData feeds the invoice email template
type InvoiceEmailData struct {
	InvoiceNumber string
	OrderNumber   string
	CustomerName  string
	TotalAmount   float64
}

// AdminNotificationData feeds the internal new-order notification template
type AdminNotificationData struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	ServiceNames  string
	TotalAmount   float64
}

var (
	orderConfirmationTmpl = mustEmailTemplate("order-confirmation", orderConfirmationContent)
	orderReadyTmpl        = mustEmailTemplate("order-ready", orderReadyContent)
	statusUpdateTmpl      = mustEmailTemplate("status-update", statusUpdateContent)
	completionTmpl        = mustEmailTemplate("completion", completionContent)
	invoiceEmailTmpl      = mustEmailTemplate("invoice-email", invoiceEmailContent)
	adminNotificationTmpl = mustEmailTemplate("admin-notification", adminNotificationContent)
)

func mustEmailTemplate(name, content string) *template.Template {
	return template.Must(template.Must(template.New(name).Parse(emailFrameHTML)).Parse(content))
}

func renderEmail(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email template %q: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// RenderOrderConfirmation renders the order confirmation email body
func RenderOrderConfirmation(data OrderConfirmationData) (string, error) {
	return renderEmail(orderConfirmationTmpl, data)
}

// RenderOrderReady renders the file-ready email body
func RenderOrderReady(data OrderReadyData) (string, error) {
	return renderEmail(orderReadyTmpl, data)
}

// RenderStatusUpdate renders the status change email body
func RenderStatusUpdate(data StatusUpdateData) (string, error) {
	return renderEmail(statusUpdateTmpl, data)
}

// RenderCompletion renders the completion email body
func RenderCompletion(data CompletionData) (string, error) {
	return renderEmail(completionTmpl, data)
}

// RenderInvoiceEmail renders the invoice email body
func RenderInvoiceEmail(data InvoiceEmailData) (string, error) {
	return renderEmail(invoiceEmailTmpl, data)
}

// RenderAdminNotification renders the internal new-order notification body
func RenderAdminNotification(data AdminNotificationData) (string, error) {
	return renderEmail(adminNotificationTmpl, data)
}
