// Package reports renders printable documents for the dashboard.
package reports

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
)

type BreakdownRow struct {
	Label string
	Count int
	Total float64
}

type SaleRow struct {
	CustomSalesID string
	Date          time.Time
	Category      string
	PaymentMethod string
	Status        string
	TotalAmount   float64
}

type SalesReport struct {
	Title         string
	Currency      string
	From          *time.Time
	To            *time.Time
	GeneratedAt   time.Time
	SaleCount     int
	Revenue       float64
	RefundedTotal float64
	ByCategory    []BreakdownRow
	ByPayment     []BreakdownRow
	Sales         []SaleRow
}

var filenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func SanitizeFilename(value string) string {
	clean := filenameUnsafe.ReplaceAllString(value, "_")
	return strings.Trim(clean, "_")
}

// Filename names the report after its date range.
func (r SalesReport) Filename() string {
	return fmt.Sprintf("sales_%s_%s.pdf", SanitizeFilename(formatDate(r.From, "start")), SanitizeFilename(formatDate(r.To, "now")))
}

func formatDate(t *time.Time, fallback string) string {
	if t == nil {
		return fallback
	}
	return t.UTC().Format("2006-01-02")
}

func FormatCurrency(amount float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", amount)
	}
	return fmt.Sprintf("%s %.2f", currency, amount)
}

func RenderSalesPDF(report SalesReport) (*bytes.Buffer, error) {
	title := report.Title
	if title == "" {
		title = "Sales Report"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetTitle(title, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Period: %s to %s", formatDate(report.From, "start"), formatDate(report.To, "now")), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated: %s", report.GeneratedAt.UTC().Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Totals", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Sales: %d", report.SaleCount), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Refunded: %s", FormatCurrency(report.RefundedTotal, report.Currency)), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Revenue: %s", FormatCurrency(report.Revenue, report.Currency)), "", 1, "L", false, 0, "")

	writeBreakdown(pdf, "By category", report.ByCategory, report.Currency)
	writeBreakdown(pdf, "By payment method", report.ByPayment, report.Currency)

	if len(report.Sales) > 0 {
		pdf.Ln(3)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Sales", "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 8)
		widths := []float64{30, 32, 34, 34, 24, 32}
		headers := []string{"ID", "Date", "Category", "Payment", "Status", "Total"}
		for i, h := range headers {
			pdf.CellFormat(widths[i], 5, h, "B", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
		for _, sale := range report.Sales {
			pdf.CellFormat(widths[0], 5, sale.CustomSalesID, "", 0, "L", false, 0, "")
			pdf.CellFormat(widths[1], 5, sale.Date.UTC().Format("2006-01-02 15:04"), "", 0, "L", false, 0, "")
			pdf.CellFormat(widths[2], 5, sale.Category, "", 0, "L", false, 0, "")
			pdf.CellFormat(widths[3], 5, sale.PaymentMethod, "", 0, "L", false, 0, "")
			pdf.CellFormat(widths[4], 5, sale.Status, "", 0, "L", false, 0, "")
			pdf.CellFormat(widths[5], 5, FormatCurrency(sale.TotalAmount, report.Currency), "", 1, "R", false, 0, "")
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func writeBreakdown(pdf *gofpdf.Fpdf, heading string, rows []BreakdownRow, currency string) {
	if len(rows) == 0 {
		return
	}
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, heading, "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		pdf.CellFormat(90, 5, row.Label, "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 5, fmt.Sprintf("%d", row.Count), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 5, FormatCurrency(row.Total, currency), "", 1, "R", false, 0, "")
	}
}
