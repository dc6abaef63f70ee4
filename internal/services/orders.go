package services

import (
	"context"
	"fmt"
	"strings"

	"opsboard-services/internal/auth"
	"opsboard-services/internal/domain"
	"opsboard-services/internal/ids"
	"opsboard-services/internal/store"
)

type OrderLineInput struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int32   `json:"quantity"`
	Subtotal   float64 `json:"subtotal"`
	Category   string  `json:"category"`
}

type OrderInput struct {
	CustomerName  *string          `json:"customerName"`
	CustomerPhone *string          `json:"customerPhone"`
	CustomerEmail *string          `json:"customerEmail"`
	Category      string           `json:"category"`
	Items         []OrderLineInput `json:"items"`
	TotalAmount   float64          `json:"totalAmount"`
	Status        string           `json:"status"`
	Notes         *string          `json:"notes"`
}

type OrderPatch struct {
	CustomerName  *string           `json:"customerName"`
	CustomerPhone *string           `json:"customerPhone"`
	CustomerEmail *string           `json:"customerEmail"`
	Category      *string           `json:"category"`
	Items         *[]OrderLineInput `json:"items"`
	TotalAmount   *float64          `json:"totalAmount"`
	Status        *string           `json:"status"`
	Notes         *string           `json:"notes"`
}

func parseOrderLines(items []OrderLineInput) ([]domain.OrderLine, error) {
	lines := make([]domain.OrderLine, 0, len(items))
	for _, item := range items {
		line := domain.OrderLine{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Price:      item.Price,
			Quantity:   item.Quantity,
			Subtotal:   item.Subtotal,
		}
		if strings.TrimSpace(item.Category) != "" {
			category, err := domain.ParseCategory(item.Category)
			if err != nil {
				return nil, err
			}
			line.Category = &category
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func parseOptionalCategory(raw string) (*domain.Category, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	category, err := domain.ParseCategory(raw)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// saleLinesFromOrder flattens order lines into ledger lines. Lines without a
// category are booked as general.
func saleLinesFromOrder(lines []domain.OrderLine) []domain.SaleLine {
	out := make([]domain.SaleLine, 0, len(lines))
	for _, line := range lines {
		category := domain.CategoryGeneral
		if line.Category != nil {
			category = *line.Category
		}
		var menuItemID *string
		if line.MenuItemID != "" {
			id := line.MenuItemID
			menuItemID = &id
		}
		out = append(out, domain.SaleLine{
			MenuItemID: menuItemID,
			Name:       line.Name,
			Price:      line.Price,
			Quantity:   line.Quantity,
			Subtotal:   line.Subtotal,
			Category:   category,
		})
	}
	return out
}

// RecordOrder stores the order, its derived sale and the activity entry in
// one transaction and returns the order's storage id. Line subtotals are
// not checked against the total.
func (s *Service) RecordOrder(ctx context.Context, input OrderInput) (string, error) {
	status := domain.OrderPending
	if strings.TrimSpace(input.Status) != "" {
		parsed, err := domain.ParseOrderStatus(input.Status)
		if err != nil {
			return "", err
		}
		status = parsed
	}
	category, err := parseOptionalCategory(input.Category)
	if err != nil {
		return "", err
	}
	lines, err := parseOrderLines(input.Items)
	if err != nil {
		return "", err
	}

	var orderID string
	collections := []string{domain.CollectionOrders, domain.CollectionSales, domain.CollectionActivity}
	err = s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		customID, err := s.nextDisplayID(ctx, tx, ids.SeqOrders)
		if err != nil {
			return err
		}
		order := domain.Order{
			ID:            ids.New(),
			CustomID:      customID,
			CustomerName:  trimmedPtr(input.CustomerName),
			CustomerPhone: trimmedPtr(input.CustomerPhone),
			CustomerEmail: trimmedPtr(input.CustomerEmail),
			Category:      category,
			Items:         lines,
			TotalAmount:   input.TotalAmount,
			Status:        status,
			Notes:         trimmedPtr(input.Notes),
			OrderDate:     s.now(),
			CreatedBy:     identity.Subject,
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		sale, err := s.saleFromOrder(ctx, tx, order)
		if err != nil {
			return err
		}
		if err := tx.InsertSale(ctx, sale); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		resType, resID := resourceRef(domain.ResourceOrder, order.ID)
		details := fmt.Sprintf("Created order %s (%d items, total %.2f)", order.CustomID, len(order.Items), order.TotalAmount)
		if order.CustomerName != nil {
			details = fmt.Sprintf("Created order %s for %s (%d items, total %.2f)", order.CustomID, *order.CustomerName, len(order.Items), order.TotalAmount)
		}
		if err := s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionCreateOrder,
			Details:      details,
			Category:     strPtr(string(sale.Category)),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata: map[string]any{
				"orderId":       order.ID,
				"customId":      order.CustomID,
				"saleId":        sale.ID,
				"customSalesId": sale.CustomSalesID,
				"items":         order.Items,
				"itemCount":     len(order.Items),
				"totalAmount":   order.TotalAmount,
				"status":        order.Status,
			},
		}); err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}

		if err := s.enqueue(ctx, tx, domain.EventOrderCreated, map[string]any{
			"orderId":     order.ID,
			"customId":    order.CustomID,
			"saleId":      sale.ID,
			"totalAmount": order.TotalAmount,
			"status":      order.Status,
			"createdBy":   order.CreatedBy,
		}); err != nil {
			return err
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return orderID, nil
}

func (s *Service) saleFromOrder(ctx context.Context, tx store.Tx, order domain.Order) (domain.Sale, error) {
	customSalesID, err := s.nextDisplayID(ctx, tx, ids.SeqSales)
	if err != nil {
		return domain.Sale{}, err
	}
	category := domain.CategoryOrders
	if order.Category != nil {
		category = *order.Category
	}
	orderID := order.ID
	return domain.Sale{
		ID:            ids.New(),
		OrderID:       &orderID,
		CustomSalesID: customSalesID,
		Items:         saleLinesFromOrder(order.Items),
		Category:      category,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: domain.PaymentCash,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		CustomerEmail: order.CustomerEmail,
		Notes:         order.Notes,
		SaleDate:      order.OrderDate,
		CreatedBy:     order.CreatedBy,
		Status:        domain.SaleCompleted,
	}, nil
}

// UpdateOrder applies patch and records the before and after snapshots.
// The derived sale is left untouched.
func (s *Service) UpdateOrder(ctx context.Context, id string, patch OrderPatch) (domain.Order, error) {
	var updated domain.Order
	collections := []string{domain.CollectionOrders, domain.CollectionActivity}
	err := s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		before, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		after := before

		if patch.CustomerName != nil {
			after.CustomerName = trimmedPtr(patch.CustomerName)
		}
		if patch.CustomerPhone != nil {
			after.CustomerPhone = trimmedPtr(patch.CustomerPhone)
		}
		if patch.CustomerEmail != nil {
			after.CustomerEmail = trimmedPtr(patch.CustomerEmail)
		}
		if patch.Category != nil {
			category, err := parseOptionalCategory(*patch.Category)
			if err != nil {
				return err
			}
			after.Category = category
		}
		if patch.Items != nil {
			lines, err := parseOrderLines(*patch.Items)
			if err != nil {
				return err
			}
			after.Items = lines
		}
		if patch.TotalAmount != nil {
			after.TotalAmount = *patch.TotalAmount
		}
		if patch.Status != nil {
			status, err := domain.ParseOrderStatus(*patch.Status)
			if err != nil {
				return err
			}
			after.Status = status
		}
		if patch.Notes != nil {
			after.Notes = trimmedPtr(patch.Notes)
		}

		if err := tx.UpdateOrder(ctx, after); err != nil {
			return err
		}

		resType, resID := resourceRef(domain.ResourceOrder, after.ID)
		if err := s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionUpdateOrder,
			Details:      fmt.Sprintf("Updated order %s", after.CustomID),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata: map[string]any{
				"before": before,
				"after":  after,
			},
		}); err != nil {
			return err
		}

		if before.Status != after.Status {
			if err := s.enqueue(ctx, tx, domain.EventOrderStatusUpdated, map[string]any{
				"orderId":        after.ID,
				"customId":       after.CustomID,
				"previousStatus": before.Status,
				"status":         after.Status,
			}); err != nil {
				return err
			}
		}

		updated = after
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

// RemoveOrder deletes the order and logs its snapshot. Sales derived from
// the order stay in the ledger.
func (s *Service) RemoveOrder(ctx context.Context, id string) error {
	collections := []string{domain.CollectionOrders, domain.CollectionActivity}
	return s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		order, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteOrder(ctx, id); err != nil {
			return err
		}

		resType, resID := resourceRef(domain.ResourceOrder, order.ID)
		if err := s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionDeleteOrder,
			Details:      fmt.Sprintf("Deleted order %s", order.CustomID),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata:     map[string]any{"order": order},
		}); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, domain.EventOrderDeleted, map[string]any{
			"orderId":  order.ID,
			"customId": order.CustomID,
		})
	})
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return s.Store.GetOrder(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, filter store.OrderFilter) ([]domain.Order, error) {
	return s.Store.ListOrders(ctx, filter)
}
