package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"opsboard-services/internal/auth"
	"opsboard-services/internal/domain"
	"opsboard-services/internal/ids"
	"opsboard-services/internal/store"
)

type ExpenseInput struct {
	Title       string     `json:"title"`
	Amount      float64    `json:"amount"`
	Category    string     `json:"category"`
	Vendor      *string    `json:"vendor"`
	Notes       *string    `json:"notes"`
	ExpenseDate *time.Time `json:"expenseDate"`
}

type ExpensePatch struct {
	Title       *string    `json:"title"`
	Amount      *float64   `json:"amount"`
	Category    *string    `json:"category"`
	Vendor      *string    `json:"vendor"`
	Notes       *string    `json:"notes"`
	ExpenseDate *time.Time `json:"expenseDate"`
}

func validateExpense(title string, amount float64) error {
	if strings.TrimSpace(title) == "" {
		return domain.ValidationError("Title is required", map[string]any{"field": "title"})
	}
	if amount <= 0 {
		return domain.ValidationError("Amount must be positive", map[string]any{"field": "amount"})
	}
	return nil
}

func (s *Service) CreateExpense(ctx context.Context, input ExpenseInput) (domain.Expense, error) {
	if err := validateExpense(input.Title, input.Amount); err != nil {
		return domain.Expense{}, err
	}
	category, err := domain.ParseExpenseCategory(input.Category)
	if err != nil {
		return domain.Expense{}, err
	}

	var expense domain.Expense
	collections := []string{domain.CollectionExpenses, domain.CollectionActivity}
	err = s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		customID, err := s.nextDisplayID(ctx, tx, ids.SeqExpense)
		if err != nil {
			return err
		}
		date := s.now()
		if input.ExpenseDate != nil {
			date = input.ExpenseDate.UTC()
		}
		expense = domain.Expense{
			ID:          ids.New(),
			CustomID:    customID,
			Title:       strings.TrimSpace(input.Title),
			Amount:      input.Amount,
			Category:    category,
			Vendor:      trimmedPtr(input.Vendor),
			Notes:       trimmedPtr(input.Notes),
			ExpenseDate: date,
			CreatedBy:   identity.Subject,
		}
		if err := tx.InsertExpense(ctx, expense); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}

		resType, resID := resourceRef(domain.ResourceExpense, expense.ID)
		return s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionCreateExpense,
			Details:      fmt.Sprintf("Recorded expense %s: %s (%.2f)", expense.CustomID, expense.Title, expense.Amount),
			Category:     strPtr(string(expense.Category)),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata:     map[string]any{"expense": expense},
		})
	})
	if err != nil {
		return domain.Expense{}, err
	}
	return expense, nil
}

func (s *Service) UpdateExpense(ctx context.Context, id string, patch ExpensePatch) (domain.Expense, error) {
	var updated domain.Expense
	collections := []string{domain.CollectionExpenses, domain.CollectionActivity}
	err := s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		before, err := tx.GetExpense(ctx, id)
		if err != nil {
			return err
		}
		after := before
		if patch.Title != nil {
			after.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Amount != nil {
			after.Amount = *patch.Amount
		}
		if patch.Category != nil {
			category, err := domain.ParseExpenseCategory(*patch.Category)
			if err != nil {
				return err
			}
			after.Category = category
		}
		if patch.Vendor != nil {
			after.Vendor = trimmedPtr(patch.Vendor)
		}
		if patch.Notes != nil {
			after.Notes = trimmedPtr(patch.Notes)
		}
		if patch.ExpenseDate != nil {
			after.ExpenseDate = patch.ExpenseDate.UTC()
		}
		if err := validateExpense(after.Title, after.Amount); err != nil {
			return err
		}
		if err := tx.UpdateExpense(ctx, after); err != nil {
			return err
		}

		resType, resID := resourceRef(domain.ResourceExpense, after.ID)
		if err := s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionUpdateExpense,
			Details:      fmt.Sprintf("Updated expense %s", after.CustomID),
			Category:     strPtr(string(after.Category)),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata:     map[string]any{"before": before, "after": after},
		}); err != nil {
			return err
		}
		updated = after
		return nil
	})
	if err != nil {
		return domain.Expense{}, err
	}
	return updated, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	collections := []string{domain.CollectionExpenses, domain.CollectionActivity}
	return s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		expense, err := tx.GetExpense(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteExpense(ctx, id); err != nil {
			return err
		}
		resType, resID := resourceRef(domain.ResourceExpense, expense.ID)
		return s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionDeleteExpense,
			Details:      fmt.Sprintf("Deleted expense %s", expense.CustomID),
			Category:     strPtr(string(expense.Category)),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata:     map[string]any{"expense": expense},
		})
	})
}

func (s *Service) ListExpenses(ctx context.Context, filter store.ExpenseFilter) ([]domain.Expense, error) {
	return s.Store.ListExpenses(ctx, filter)
}
