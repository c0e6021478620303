package services

import (
	"fmt"
	"hostmaster/internal/models"
	"sort"
	"strconv"
	"strings"
	"time"
)

// InvoiceTotals holds the derived amounts for one record. Values are kept
// at full precision; rounding happens only when formatting for display.
type InvoiceTotals struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// ComputeTotals derives subtotal/tax/total from a record and the settings
// singleton.
func ComputeTotals(record *models.HostingRecord, settings *models.AppSettings) InvoiceTotals {
	return InvoiceTotals{
		Subtotal:  record.Amount,
		TaxAmount: record.Amount * settings.TaxRate / 100,
		Total:     record.Amount * (1 + settings.TaxRate/100),
	}
}

// FormatAmount renders a monetary value with the configured currency
// symbol and two decimal places.
func FormatAmount(currency string, value float64) string {
	return fmt.Sprintf("%s%.2f", currency, value)
}

// formatTaxRate renders the tax rate the way the UI shows it: no trailing
// zeros, so 10.0 prints as "10".
func formatTaxRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

// invoiceLabel returns the invoice number or the draft placeholder.
func invoiceLabel(record *models.HostingRecord) string {
	if record.InvoiceNumber == "" {
		return "DRAFT"
	}
	return record.InvoiceNumber
}

// RenderInvoiceText renders the plain-text invoice export. The output is
// byte-for-byte reproducible for identical record/settings input.
func RenderInvoiceText(record *models.HostingRecord, settings *models.AppSettings) string {
	totals := ComputeTotals(record, settings)
	cur := settings.Currency

	var b strings.Builder
	fmt.Fprintf(&b, "INVOICE: %s\n", invoiceLabel(record))
	b.WriteString("--------------------------------------------------\n")
	b.WriteString("FROM:\n")
	fmt.Fprintf(&b, "%s\n", settings.CompanyName)
	fmt.Fprintf(&b, "%s\n", settings.CompanyAddress)
	fmt.Fprintf(&b, "Email: %s\n", settings.CompanyEmail)
	fmt.Fprintf(&b, "Phone: %s\n", settings.CompanyPhone)
	b.WriteString("\n")
	b.WriteString("BILL TO:\n")
	fmt.Fprintf(&b, "%s\n", record.ClientName)
	fmt.Fprintf(&b, "%s\n", record.Email)
	fmt.Fprintf(&b, "%s\n", record.Phone)
	fmt.Fprintf(&b, "Website: %s\n", record.Website)
	b.WriteString("\n")
	b.WriteString("DETAILS:\n")
	fmt.Fprintf(&b, "Invoice Date: %s\n", record.InvoiceDate)
	fmt.Fprintf(&b, "Renewal Due:  %s\n", record.ValidationDate)
	fmt.Fprintf(&b, "Payment:      %s\n", record.PaymentStatus)
	b.WriteString("\n")
	b.WriteString("LINE ITEMS:\n")
	fmt.Fprintf(&b, "Hosting Renewal - %s\n", record.Website)
	fmt.Fprintf(&b, "Storage: %dGB | Period: %s to %s\n", record.StorageGB, record.SetupDate, record.ValidationDate)
	fmt.Fprintf(&b, "Amount: %s\n", FormatAmount(cur, totals.Subtotal))
	b.WriteString("\n")
	b.WriteString("TOTALS:\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", FormatAmount(cur, totals.Subtotal))
	fmt.Fprintf(&b, "Tax (%s%%): %s\n", formatTaxRate(settings.TaxRate), FormatAmount(cur, totals.TaxAmount))
	fmt.Fprintf(&b, "TOTAL DUE: %s\n", FormatAmount(cur, totals.Total))
	b.WriteString("\n")
	b.WriteString("--------------------------------------------------\n")
	fmt.Fprintf(&b, "Thank you for choosing %s.\n", settings.CompanyName)
	fmt.Fprintf(&b, "Contact support: %s", settings.CompanyEmail)
	return b.String()
}

// InvoiceAssignment is one invoice number produced by a policy run.
type InvoiceAssignment struct {
	RecordID      string
	InvoiceNumber string
	InvoiceDate   string
}

// InvoicePolicy selects records due for invoicing and assigns numbers.
// The policy never mutates records; callers apply the assignments.
type InvoicePolicy interface {
	Generate(now time.Time, records []models.HostingRecord, settings *models.AppSettings) []InvoiceAssignment
}

// DueSoonPolicy invoices records whose renewal date falls within the next
// WindowDays. Records that already carry an invoice number or whose
// invoice was sent are skipped, so repeated runs are idempotent.
type DueSoonPolicy struct {
	WindowDays int
}

// Generate implements InvoicePolicy.
func (p DueSoonPolicy) Generate(now time.Time, records []models.HostingRecord, settings *models.AppSettings) []InvoiceAssignment {
	window := p.WindowDays
	if window <= 0 {
		window = 30
	}

	today := now.Format("2006-01-02")
	cutoff := now.AddDate(0, 0, window)

	var due []models.HostingRecord
	for _, r := range records {
		if r.InvoiceNumber != "" || r.InvoiceStatus == models.InvoiceStatusSent {
			continue
		}
		renewal, err := time.Parse("2006-01-02", r.ValidationDate)
		if err != nil {
			continue
		}
		if renewal.Before(now.AddDate(0, 0, -1)) || renewal.After(cutoff) {
			continue
		}
		due = append(due, r)
	}

	// Assign numbers in renewal order so the sequence is stable
	sort.Slice(due, func(i, j int) bool {
		if due[i].ValidationDate != due[j].ValidationDate {
			return due[i].ValidationDate < due[j].ValidationDate
		}
		return due[i].ID < due[j].ID
	})

	seq := NextInvoiceSequence(settings.InvoicePrefix, records)
	assignments := make([]InvoiceAssignment, 0, len(due))
	for _, r := range due {
		assignments = append(assignments, InvoiceAssignment{
			RecordID:      r.ID,
			InvoiceNumber: FormatInvoiceNumber(settings.InvoicePrefix, seq),
			InvoiceDate:   today,
		})
		seq++
	}

	return assignments
}

// FormatInvoiceNumber builds an invoice number from the configured prefix
// and a sequence value, e.g. "INV-0042".
func FormatInvoiceNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}

// NextInvoiceSequence scans existing invoice numbers with the given
// prefix and returns one past the highest numeric suffix found.
func NextInvoiceSequence(prefix string, records []models.HostingRecord) int {
	max := 0
	for _, r := range records {
		if r.InvoiceNumber == "" || !strings.HasPrefix(r.InvoiceNumber, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(r.InvoiceNumber, prefix))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1
}
