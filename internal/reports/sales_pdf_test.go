package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSalesPDF(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	report := SalesReport{
		From:        &from,
		GeneratedAt: from.Add(48 * time.Hour),
		SaleCount:   2,
		Revenue:     15000,
		ByCategory:  []BreakdownRow{{Label: "orders", Count: 1, Total: 15000}},
		ByPayment:   []BreakdownRow{{Label: "cash", Count: 1, Total: 15000}},
		Sales: []SaleRow{
			{CustomSalesID: "SALES-01", Date: from, Category: "orders", PaymentMethod: "cash", Status: "completed", TotalAmount: 15000},
			{CustomSalesID: "SALES-02", Date: from, Category: "food", PaymentMethod: "card", Status: "refunded", TotalAmount: 200},
		},
	}

	buf, err := RenderSalesPDF(report)
	require.NoError(t, err)
	require.NotNil(t, buf)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestRenderSalesPDFEmpty(t *testing.T) {
	buf, err := RenderSalesPDF(SalesReport{GeneratedAt: time.Now()})
	require.NoError(t, err)
	assert.Greater(t, buf.Len(), 0)
}

func TestFilename(t *testing.T) {
	from := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "sales_2026-03-01_2026-03-31.pdf", SalesReport{From: &from, To: &to}.Filename())
	assert.Equal(t, "sales_start_now.pdf", SalesReport{}.Filename())
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename("a b/c"))
	assert.Equal(t, "2026-01-01", SanitizeFilename("2026-01-01"))
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "12.50", FormatCurrency(12.5, ""))
	assert.Equal(t, "USD 3.00", FormatCurrency(3, "USD"))
}
