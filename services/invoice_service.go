package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// InvoiceItem is one itemized row on an invoice
type InvoiceItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// InvoiceData carries everything needed to render one invoice PDF
type InvoiceData struct {
	InvoiceNumber string
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	CarBrand      string
	CarModel      string
	Items         []InvoiceItem
	TotalAmount   float64
	IssuedAt      time.Time
}

// RenderInvoicePDF draws the invoice as an A4 PDF and returns its bytes.
// Layout is fixed-coordinate: red header band, seller/customer blocks, an
// itemized table and a highlighted total row.
func RenderInvoicePDF(data InvoiceData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Header band
	pdf.SetFillColor(220, 38, 38)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(15, 8)
	pdf.CellFormat(90, 12, "RP Tuning", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetXY(120, 10)
	pdf.CellFormat(75, 8, "INVOICE "+data.InvoiceNumber, "", 0, "R", false, 0, "")

	// Meta block
	pdf.SetTextColor(31, 41, 55)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(15, 38)
	pdf.CellFormat(90, 6, "Invoice date: "+data.IssuedAt.Format("02.01.2006"), "", 2, "L", false, 0, "")
	pdf.CellFormat(90, 6, "Order number: "+data.OrderNumber, "", 2, "L", false, 0, "")
	if data.CarBrand != "" || data.CarModel != "" {
		pdf.CellFormat(90, 6, fmt.Sprintf("Vehicle: %s %s", data.CarBrand, data.CarModel), "", 2, "L", false, 0, "")
	}

	// Customer block
	pdf.SetXY(120, 38)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(75, 6, "Billed to", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(75, 6, data.CustomerName, "", 2, "L", false, 0, "")
	pdf.CellFormat(75, 6, data.CustomerEmail, "", 2, "L", false, 0, "")

	// Item table header
	y := 72.0
	pdf.SetXY(15, y)
	pdf.SetFillColor(243, 244, 246)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(140, 9, "Service", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 9, "Price (EUR)", "1", 1, "R", true, 0, "")

	// Item rows
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range data.Items {
		pdf.SetX(15)
		pdf.CellFormat(140, 8, item.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", item.Price), "1", 1, "R", false, 0, "")
	}

	// Total row
	pdf.SetX(15)
	pdf.SetFillColor(220, 38, 38)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(140, 10, "Total", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 10, fmt.Sprintf("%.2f", data.TotalAmount), "1", 1, "R", true, 0, "")

	// Footer
	pdf.SetTextColor(107, 114, 128)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetY(270)
	pdf.SetX(15)
	pdf.CellFormat(180, 5, "RP Tuning - Professional ECU remapping. Thank you for your business.", "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice PDF: %w", err)
	}
	return buf.Bytes(), nil
}
