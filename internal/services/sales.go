package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"opsboard-services/internal/auth"
	"opsboard-services/internal/domain"
	"opsboard-services/internal/ids"
	"opsboard-services/internal/store"
)

type SaleLineInput struct {
	MenuItemID *string `json:"menuItemId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int32   `json:"quantity"`
	Subtotal   float64 `json:"subtotal"`
	Category   string  `json:"category"`
}

type SaleInput struct {
	OrderID       *string         `json:"orderId"`
	Items         []SaleLineInput `json:"items"`
	Category      string          `json:"category"`
	TotalAmount   float64         `json:"totalAmount"`
	PaymentMethod string          `json:"paymentMethod"`
	CustomerName  *string         `json:"customerName"`
	CustomerPhone *string         `json:"customerPhone"`
	CustomerEmail *string         `json:"customerEmail"`
	Notes         *string         `json:"notes"`
	Status        string          `json:"status"`
}

const notesSeparator = " | "

func parseSaleLines(items []SaleLineInput) ([]domain.SaleLine, error) {
	lines := make([]domain.SaleLine, 0, len(items))
	for _, item := range items {
		category, err := domain.OptionalCategory(item.Category, domain.CategoryGeneral)
		if err != nil {
			return nil, err
		}
		lines = append(lines, domain.SaleLine{
			MenuItemID: trimmedPtr(item.MenuItemID),
			Name:       item.Name,
			Price:      item.Price,
			Quantity:   item.Quantity,
			Subtotal:   item.Subtotal,
			Category:   category,
		})
	}
	return lines, nil
}

// RecordSale books a point-of-sale transaction that has no order behind it.
func (s *Service) RecordSale(ctx context.Context, input SaleInput) (string, error) {
	category, err := domain.OptionalCategory(input.Category, domain.CategoryGeneral)
	if err != nil {
		return "", err
	}
	method := domain.PaymentCash
	if strings.TrimSpace(input.PaymentMethod) != "" {
		if method, err = domain.ParsePaymentMethod(input.PaymentMethod); err != nil {
			return "", err
		}
	}
	status := domain.SaleCompleted
	if strings.TrimSpace(input.Status) != "" {
		if status, err = domain.ParseSaleStatus(input.Status); err != nil {
			return "", err
		}
	}
	lines, err := parseSaleLines(input.Items)
	if err != nil {
		return "", err
	}

	var saleID string
	collections := []string{domain.CollectionSales, domain.CollectionActivity}
	err = s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		customSalesID, err := s.nextDisplayID(ctx, tx, ids.SeqSales)
		if err != nil {
			return err
		}
		sale := domain.Sale{
			ID:            ids.New(),
			OrderID:       trimmedPtr(input.OrderID),
			CustomSalesID: customSalesID,
			Items:         lines,
			Category:      category,
			TotalAmount:   input.TotalAmount,
			PaymentMethod: method,
			CustomerName:  trimmedPtr(input.CustomerName),
			CustomerPhone: trimmedPtr(input.CustomerPhone),
			CustomerEmail: trimmedPtr(input.CustomerEmail),
			Notes:         trimmedPtr(input.Notes),
			SaleDate:      s.now(),
			CreatedBy:     identity.Subject,
			Status:        status,
		}
		if err := tx.InsertSale(ctx, sale); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		resType, resID := resourceRef(domain.ResourceSale, sale.ID)
		if err := s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionCreateSale,
			Details:      fmt.Sprintf("Recorded sale %s (total %.2f, %s)", sale.CustomSalesID, sale.TotalAmount, sale.PaymentMethod),
			Category:     strPtr(string(sale.Category)),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata: map[string]any{
				"saleId":        sale.ID,
				"customSalesId": sale.CustomSalesID,
				"items":         sale.Items,
				"totalAmount":   sale.TotalAmount,
				"paymentMethod": sale.PaymentMethod,
			},
		}); err != nil {
			return err
		}

		if err := s.enqueue(ctx, tx, domain.EventSaleCreated, map[string]any{
			"saleId":        sale.ID,
			"customSalesId": sale.CustomSalesID,
			"category":      sale.Category,
			"totalAmount":   sale.TotalAmount,
		}); err != nil {
			return err
		}
		saleID = sale.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return saleID, nil
}

func appendNotes(existing *string, note string) *string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	if existing == nil || *existing == "" {
		return &note
	}
	joined := *existing + notesSeparator + note
	return &joined
}

// UpdateSaleStatus sets the status and appends notes to any existing ones.
// Repeating a call with the same notes appends them again.
func (s *Service) UpdateSaleStatus(ctx context.Context, id string, rawStatus string, notes *string) (domain.Sale, error) {
	status, err := domain.ParseSaleStatus(rawStatus)
	if err != nil {
		return domain.Sale{}, err
	}

	var updated domain.Sale
	collections := []string{domain.CollectionSales, domain.CollectionActivity}
	err = s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		sale, err := tx.GetSale(ctx, id)
		if err != nil {
			return err
		}
		previous := sale.Status
		sale.Status = status
		if notes != nil {
			sale.Notes = appendNotes(sale.Notes, *notes)
		}
		if err := tx.UpdateSale(ctx, sale); err != nil {
			return err
		}

		resType, resID := resourceRef(domain.ResourceSale, sale.ID)
		if err := s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionUpdateSaleStatus,
			Details:      fmt.Sprintf("Changed sale %s status from %s to %s", sale.CustomSalesID, previous, status),
			Category:     strPtr(string(sale.Category)),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata: map[string]any{
				"previousStatus": previous,
				"status":         status,
				"notes":          derefString(notes),
			},
		}); err != nil {
			return err
		}

		if previous != status {
			if err := s.enqueue(ctx, tx, domain.EventSaleStatusUpdated, map[string]any{
				"saleId":         sale.ID,
				"customSalesId":  sale.CustomSalesID,
				"previousStatus": previous,
				"status":         status,
			}); err != nil {
				return err
			}
		}
		updated = sale
		return nil
	})
	if err != nil {
		return domain.Sale{}, err
	}
	return updated, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	return s.Store.GetSale(ctx, id)
}

func (s *Service) ListSales(ctx context.Context, filter store.SaleFilter) ([]domain.Sale, error) {
	return s.Store.ListSales(ctx, filter)
}

type CategoryTotal struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
	Total    float64         `json:"total"`
}

type PaymentTotal struct {
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Count         int                  `json:"count"`
	Total         float64              `json:"total"`
}

type SalesSummary struct {
	From            *time.Time                `json:"from"`
	To              *time.Time                `json:"to"`
	SaleCount       int                       `json:"saleCount"`
	Revenue         float64                   `json:"revenue"`
	RefundedTotal   float64                   `json:"refundedTotal"`
	ByStatus        map[domain.SaleStatus]int `json:"byStatus"`
	ByCategory      []CategoryTotal           `json:"byCategory"`
	ByPaymentMethod []PaymentTotal            `json:"byPaymentMethod"`
}

// SalesSummary aggregates the ledger over [from, to]. Revenue and the
// breakdowns count completed sales only.
func (s *Service) SalesSummary(ctx context.Context, from, to *time.Time) (SalesSummary, error) {
	if err := s.validateReportRange(from, to); err != nil {
		return SalesSummary{}, err
	}
	sales, err := s.Store.ListSales(ctx, store.SaleFilter{From: from, To: to, Limit: store.NoLimit})
	if err != nil {
		return SalesSummary{}, err
	}
	return summarize(sales, from, to), nil
}

func summarize(sales []domain.Sale, from, to *time.Time) SalesSummary {
	summary := SalesSummary{
		From:     from,
		To:       to,
		ByStatus: make(map[domain.SaleStatus]int),
	}
	categories := make(map[domain.Category]*CategoryTotal)
	methods := make(map[domain.PaymentMethod]*PaymentTotal)

	for _, sale := range sales {
		summary.SaleCount++
		summary.ByStatus[sale.Status]++
		switch sale.Status {
		case domain.SaleRefunded:
			summary.RefundedTotal += sale.TotalAmount
			continue
		case domain.SaleCompleted:
		default:
			continue
		}

		summary.Revenue += sale.TotalAmount
		ct, ok := categories[sale.Category]
		if !ok {
			ct = &CategoryTotal{Category: sale.Category}
			categories[sale.Category] = ct
		}
		ct.Count++
		ct.Total += sale.TotalAmount

		pt, ok := methods[sale.PaymentMethod]
		if !ok {
			pt = &PaymentTotal{PaymentMethod: sale.PaymentMethod}
			methods[sale.PaymentMethod] = pt
		}
		pt.Count++
		pt.Total += sale.TotalAmount
	}

	summary.ByCategory = make([]CategoryTotal, 0, len(categories))
	for _, ct := range categories {
		summary.ByCategory = append(summary.ByCategory, *ct)
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		if summary.ByCategory[i].Total == summary.ByCategory[j].Total {
			return summary.ByCategory[i].Category < summary.ByCategory[j].Category
		}
		return summary.ByCategory[i].Total > summary.ByCategory[j].Total
	})

	summary.ByPaymentMethod = make([]PaymentTotal, 0, len(methods))
	for _, pt := range methods {
		summary.ByPaymentMethod = append(summary.ByPaymentMethod, *pt)
	}
	sort.Slice(summary.ByPaymentMethod, func(i, j int) bool {
		if summary.ByPaymentMethod[i].Total == summary.ByPaymentMethod[j].Total {
			return summary.ByPaymentMethod[i].PaymentMethod < summary.ByPaymentMethod[j].PaymentMethod
		}
		return summary.ByPaymentMethod[i].Total > summary.ByPaymentMethod[j].Total
	})
	return summary
}
