package services

import (
	"testing"
	"time"

	"opsboard-services/internal/domain"
	"opsboard-services/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSale(t *testing.T) {
	svc, mem, ctx := newTestService(t)

	saleID, err := svc.RecordSale(ctx, SaleInput{
		Items:       []SaleLineInput{{Name: "Soda", Price: 500, Quantity: 2, Subtotal: 1000, Category: "drinks"}},
		Category:    "drinks",
		TotalAmount: 1000,
	})
	require.NoError(t, err)

	sale, err := svc.GetSale(ctx, saleID)
	require.NoError(t, err)
	assert.Equal(t, "SALES-01", sale.CustomSalesID)
	assert.Equal(t, domain.PaymentCash, sale.PaymentMethod)
	assert.Equal(t, domain.SaleCompleted, sale.Status)
	assert.Nil(t, sale.OrderID)

	activity, err := mem.ListActivity(ctx, store.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, domain.ActionCreateSale, activity[0].Action)

	_, err = svc.RecordSale(ctx, SaleInput{PaymentMethod: "cheque"})
	requireCode(t, err, domain.ErrValidation)
}

func TestUpdateSaleStatusAppendsNotes(t *testing.T) {
	svc, mem, ctx := newTestService(t)
	first := "first"
	saleID, err := svc.RecordSale(ctx, SaleInput{TotalAmount: 100, Notes: &first})
	require.NoError(t, err)

	note := "customer returned item"
	sale, err := svc.UpdateSaleStatus(ctx, saleID, "refunded", &note)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleRefunded, sale.Status)
	assert.Equal(t, "first | customer returned item", *sale.Notes)

	again, err := svc.UpdateSaleStatus(ctx, saleID, "refunded", &note)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleRefunded, again.Status)
	assert.Equal(t, "first | customer returned item | customer returned item", *again.Notes)

	// Only the real transition publishes an event.
	events, err := mem.PendingEvents(ctx, 10)
	require.NoError(t, err)
	var statusEvents int
	for _, e := range events {
		if e.Type == domain.EventSaleStatusUpdated {
			statusEvents++
		}
	}
	assert.Equal(t, 1, statusEvents)

	activity, err := mem.ListActivity(ctx, store.ActivityFilter{})
	require.NoError(t, err)
	assert.Len(t, activity, 3)
}

func TestUpdateSaleStatusFirstNoteHasNoSeparator(t *testing.T) {
	svc, _, ctx := newTestService(t)
	saleID, err := svc.RecordSale(ctx, SaleInput{TotalAmount: 100})
	require.NoError(t, err)

	note := "checked"
	sale, err := svc.UpdateSaleStatus(ctx, saleID, "pending", &note)
	require.NoError(t, err)
	assert.Equal(t, "checked", *sale.Notes)

	_, err = svc.UpdateSaleStatus(ctx, "missing", "pending", nil)
	requireCode(t, err, domain.ErrNotFound)

	_, err = svc.UpdateSaleStatus(ctx, saleID, "lost", nil)
	requireCode(t, err, domain.ErrValidation)
}

func TestSalesSummary(t *testing.T) {
	svc, _, ctx := newTestService(t)

	_, err := svc.RecordSale(ctx, SaleInput{Category: "food", TotalAmount: 100, PaymentMethod: "card"})
	require.NoError(t, err)
	_, err = svc.RecordSale(ctx, SaleInput{Category: "food", TotalAmount: 50})
	require.NoError(t, err)
	_, err = svc.RecordSale(ctx, SaleInput{Category: "drinks", TotalAmount: 30, Status: "refunded"})
	require.NoError(t, err)
	_, err = svc.RecordSale(ctx, SaleInput{Category: "drinks", TotalAmount: 20, Status: "pending"})
	require.NoError(t, err)

	summary, err := svc.SalesSummary(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.SaleCount)
	assert.Equal(t, 150.0, summary.Revenue)
	assert.Equal(t, 30.0, summary.RefundedTotal)
	assert.Equal(t, 2, summary.ByStatus[domain.SaleCompleted])
	require.Len(t, summary.ByCategory, 1)
	assert.Equal(t, CategoryTotal{Category: domain.CategoryFood, Count: 2, Total: 150}, summary.ByCategory[0])
	require.Len(t, summary.ByPaymentMethod, 2)
	assert.Equal(t, domain.PaymentCard, summary.ByPaymentMethod[0].PaymentMethod)

	from := testNow.Add(time.Hour)
	to := testNow
	_, err = svc.SalesSummary(ctx, &from, &to)
	requireCode(t, err, domain.ErrValidation)

	empty, err := svc.SalesSummary(ctx, &from, nil)
	require.NoError(t, err)
	assert.Zero(t, empty.SaleCount)
}

func TestAppendNotes(t *testing.T) {
	existing := "a"
	blank := ""
	cases := []struct {
		name     string
		existing *string
		note     string
		want     *string
	}{
		{name: "nil existing", existing: nil, note: "b", want: strPtr("b")},
		{name: "empty existing", existing: &blank, note: "b", want: strPtr("b")},
		{name: "joined", existing: &existing, note: " b ", want: strPtr("a | b")},
		{name: "blank note", existing: &existing, note: "  ", want: &existing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, appendNotes(tc.existing, tc.note))
		})
	}
}
