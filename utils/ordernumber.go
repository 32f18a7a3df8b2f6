package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OrderNumberPrefix is the human-readable prefix on all order numbers
const OrderNumberPrefix = "RP-"

// GenerateOrderNumber builds a new order number of the form RP-<base36 unix
// millisecond timestamp, uppercased>. Millisecond resolution keeps numbers
// unique under realistic order volume; the database's unique index is the
// final guard.
func GenerateOrderNumber() string {
	return GenerateOrderNumberAt(time.Now())
}

// GenerateOrderNumberAt builds an order number for a specific time
func GenerateOrderNumberAt(t time.Time) string {
	ts := strconv.FormatInt(t.UnixMilli(), 36)
	return OrderNumberPrefix + strings.ToUpper(ts)
}

// GenerateInvoiceNumber builds an invoice number of the form INV-YYYY-NNNNNN
// where NNNNNN is a zero-padded sequence value.
func GenerateInvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("INV-%d-%06d", year, seq)
}
