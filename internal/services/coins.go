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

type CoinInput struct {
	Type          string  `json:"type"`
	Amount        int32   `json:"amount"`
	Table         *string `json:"table"`
	Notes         *string `json:"notes"`
	TotalAmount   float64 `json:"totalAmount"`
	PaymentMethod string  `json:"paymentMethod"`
}

// RecordCoinTransaction stores the coin movement with its ledger entry.
// Both add and use book a positive sale; the type only changes the activity
// wording.
func (s *Service) RecordCoinTransaction(ctx context.Context, input CoinInput) (domain.CoinTransaction, error) {
	coinType, err := domain.ParseCoinType(input.Type)
	if err != nil {
		return domain.CoinTransaction{}, err
	}
	if input.Amount <= 0 {
		return domain.CoinTransaction{}, domain.ValidationError("Amount must be positive", map[string]any{"field": "amount"})
	}
	if input.TotalAmount < 0 {
		return domain.CoinTransaction{}, domain.ValidationError("Total amount must not be negative", map[string]any{"field": "totalAmount"})
	}
	method := domain.PaymentCash
	if strings.TrimSpace(input.PaymentMethod) != "" {
		if method, err = domain.ParsePaymentMethod(input.PaymentMethod); err != nil {
			return domain.CoinTransaction{}, err
		}
	}

	var txn domain.CoinTransaction
	collections := []string{domain.CollectionCoinTransactions, domain.CollectionSales, domain.CollectionActivity}
	err = s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		customID, err := s.nextDisplayID(ctx, tx, ids.SeqCoins)
		if err != nil {
			return err
		}
		customSalesID, err := s.nextDisplayID(ctx, tx, ids.SeqSales)
		if err != nil {
			return err
		}
		now := s.now()

		unitPrice := input.TotalAmount / float64(input.Amount)
		sale := domain.Sale{
			ID:            ids.New(),
			CustomSalesID: customSalesID,
			Items: []domain.SaleLine{{
				Name:     fmt.Sprintf("Snooker coins (%s)", coinType),
				Price:    unitPrice,
				Quantity: input.Amount,
				Subtotal: input.TotalAmount,
				Category: domain.CategorySnookerCoins,
			}},
			Category:      domain.CategorySnookerCoins,
			TotalAmount:   input.TotalAmount,
			PaymentMethod: method,
			Notes:         trimmedPtr(input.Notes),
			SaleDate:      now,
			CreatedBy:     identity.Subject,
			Status:        domain.SaleCompleted,
		}

		txn = domain.CoinTransaction{
			ID:          ids.New(),
			CustomID:    customID,
			Type:        coinType,
			Amount:      input.Amount,
			Table:       trimmedPtr(input.Table),
			Notes:       trimmedPtr(input.Notes),
			Date:        now,
			TotalAmount: input.TotalAmount,
			SaleID:      sale.ID,
			CreatedBy:   identity.Subject,
		}
		coinRef := txn.ID
		sale.OrderID = &coinRef

		if err := tx.InsertCoinTransaction(ctx, txn); err != nil {
			return fmt.Errorf("insert coin transaction: %w", err)
		}
		if err := tx.InsertSale(ctx, sale); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		action := domain.ActionAddSnookerCoins
		details := fmt.Sprintf("Added %d snooker coins (%s)", txn.Amount, txn.CustomID)
		if coinType == domain.CoinUse {
			action = domain.ActionUseSnookerCoins
			details = fmt.Sprintf("Used %d snooker coins (%s)", txn.Amount, txn.CustomID)
			if txn.Table != nil {
				details = fmt.Sprintf("Used %d snooker coins at table %s (%s)", txn.Amount, *txn.Table, txn.CustomID)
			}
		}

		resType, resID := resourceRef(domain.ResourceCoinTransaction, txn.ID)
		return s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       action,
			Details:      details,
			Category:     strPtr(string(domain.CategorySnookerCoins)),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata: map[string]any{
				"transactionId": txn.ID,
				"customId":      txn.CustomID,
				"saleId":        sale.ID,
				"customSalesId": sale.CustomSalesID,
				"type":          txn.Type,
				"amount":        txn.Amount,
				"totalAmount":   txn.TotalAmount,
			},
		})
	})
	if err != nil {
		return domain.CoinTransaction{}, err
	}
	return txn, nil
}

func (s *Service) ListCoinTransactions(ctx context.Context, filter store.CoinFilter) ([]domain.CoinTransaction, error) {
	return s.Store.ListCoinTransactions(ctx, filter)
}
