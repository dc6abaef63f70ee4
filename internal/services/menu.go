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

type MenuItemInput struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Category      string  `json:"category"`
	StockQuantity int32   `json:"stockQuantity"`
	IsAvailable   *bool   `json:"isAvailable"`
}

type MenuItemPatch struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	IsAvailable *bool    `json:"isAvailable"`
}

type StockAdjustment struct {
	Change int32   `json:"change"`
	Reason string  `json:"reason"`
	Notes  *string `json:"notes"`
}

func validateMenuItem(name string, price float64) error {
	if strings.TrimSpace(name) == "" {
		return domain.ValidationError("Name is required", map[string]any{"field": "name"})
	}
	if price < 0 {
		return domain.ValidationError("Price must not be negative", map[string]any{"field": "price"})
	}
	return nil
}

func (s *Service) CreateMenuItem(ctx context.Context, input MenuItemInput) (domain.MenuItem, error) {
	if err := validateMenuItem(input.Name, input.Price); err != nil {
		return domain.MenuItem{}, err
	}
	if input.StockQuantity < 0 {
		return domain.MenuItem{}, domain.ValidationError("Stock quantity must not be negative", map[string]any{"field": "stockQuantity"})
	}
	category, err := domain.OptionalCategory(input.Category, domain.CategoryGeneral)
	if err != nil {
		return domain.MenuItem{}, err
	}

	var item domain.MenuItem
	collections := []string{domain.CollectionMenuItems, domain.CollectionActivity}
	err = s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		now := s.now()
		available := true
		if input.IsAvailable != nil {
			available = *input.IsAvailable
		}
		item = domain.MenuItem{
			ID:            ids.New(),
			Name:          strings.TrimSpace(input.Name),
			Price:         input.Price,
			Category:      category,
			StockQuantity: input.StockQuantity,
			IsAvailable:   available,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.InsertMenuItem(ctx, item); err != nil {
			return fmt.Errorf("insert menu item: %w", err)
		}
		resType, resID := resourceRef(domain.ResourceMenuItem, item.ID)
		return s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionCreateMenuItem,
			Details:      fmt.Sprintf("Added menu item %s", item.Name),
			Category:     strPtr(string(item.Category)),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata:     map[string]any{"menuItem": item},
		})
	})
	if err != nil {
		return domain.MenuItem{}, err
	}
	return item, nil
}

// UpdateMenuItem never changes stock; use AdjustStock for that.
func (s *Service) UpdateMenuItem(ctx context.Context, id string, patch MenuItemPatch) (domain.MenuItem, error) {
	var updated domain.MenuItem
	collections := []string{domain.CollectionMenuItems, domain.CollectionActivity}
	err := s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		before, err := tx.GetMenuItem(ctx, id)
		if err != nil {
			return err
		}
		after := before
		if patch.Name != nil {
			after.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Price != nil {
			after.Price = *patch.Price
		}
		if patch.Category != nil {
			category, err := domain.ParseCategory(*patch.Category)
			if err != nil {
				return err
			}
			after.Category = category
		}
		if patch.IsAvailable != nil {
			after.IsAvailable = *patch.IsAvailable
		}
		if err := validateMenuItem(after.Name, after.Price); err != nil {
			return err
		}
		after.UpdatedAt = s.now()
		if err := tx.UpdateMenuItem(ctx, after); err != nil {
			return err
		}

		resType, resID := resourceRef(domain.ResourceMenuItem, after.ID)
		if err := s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionUpdateMenuItem,
			Details:      fmt.Sprintf("Updated menu item %s", after.Name),
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
		return domain.MenuItem{}, err
	}
	return updated, nil
}

func (s *Service) DeleteMenuItem(ctx context.Context, id string) error {
	collections := []string{domain.CollectionMenuItems, domain.CollectionActivity}
	return s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		item, err := tx.GetMenuItem(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteMenuItem(ctx, id); err != nil {
			return err
		}
		resType, resID := resourceRef(domain.ResourceMenuItem, item.ID)
		return s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionDeleteMenuItem,
			Details:      fmt.Sprintf("Removed menu item %s", item.Name),
			Category:     strPtr(string(item.Category)),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata:     map[string]any{"menuItem": item},
		})
	})
}

// AdjustStock applies change to the item's stock and appends an inventory
// history entry. Stock can never go below zero.
func (s *Service) AdjustStock(ctx context.Context, menuItemID string, adj StockAdjustment) (domain.InventoryEntry, error) {
	if adj.Change == 0 {
		return domain.InventoryEntry{}, domain.ValidationError("Change must not be zero", map[string]any{"field": "change"})
	}
	reason, err := domain.ParseInventoryReason(adj.Reason)
	if err != nil {
		return domain.InventoryEntry{}, err
	}

	var entry domain.InventoryEntry
	collections := []string{domain.CollectionMenuItems, domain.CollectionInventory, domain.CollectionActivity}
	err = s.mutate(ctx, collections, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		item, err := tx.GetMenuItemForUpdate(ctx, menuItemID)
		if err != nil {
			return err
		}
		next := item.StockQuantity + adj.Change
		if next < 0 {
			return domain.ValidationError("Insufficient stock", map[string]any{
				"menuItemId": item.ID,
				"stock":      item.StockQuantity,
				"change":     adj.Change,
			})
		}
		now := s.now()
		item.StockQuantity = next
		item.UpdatedAt = now
		if err := tx.UpdateMenuItem(ctx, item); err != nil {
			return err
		}

		entry = domain.InventoryEntry{
			ID:            ids.New(),
			MenuItemID:    item.ID,
			Change:        adj.Change,
			Reason:        reason,
			QuantityAfter: next,
			Notes:         trimmedPtr(adj.Notes),
			CreatedAt:     now,
			CreatedBy:     identity.Subject,
		}
		if err := tx.InsertInventoryEntry(ctx, entry); err != nil {
			return fmt.Errorf("insert inventory entry: %w", err)
		}

		resType, resID := resourceRef(domain.ResourceInventory, item.ID)
		return s.writeActivity(ctx, tx, identity.Subject, ActivityEntry{
			Action:       domain.ActionAdjustInventory,
			Details:      fmt.Sprintf("Adjusted %s stock by %+d (%s), now %d", item.Name, adj.Change, reason, next),
			Category:     strPtr(string(item.Category)),
			ResourceType: resType,
			ResourceID:   resID,
			Metadata: map[string]any{
				"entryId":       entry.ID,
				"change":        adj.Change,
				"reason":        reason,
				"quantityAfter": next,
			},
		})
	})
	if err != nil {
		return domain.InventoryEntry{}, err
	}
	return entry, nil
}

func (s *Service) GetMenuItem(ctx context.Context, id string) (domain.MenuItem, error) {
	return s.Store.GetMenuItem(ctx, id)
}

func (s *Service) ListMenuItems(ctx context.Context, filter store.MenuItemFilter) ([]domain.MenuItem, error) {
	return s.Store.ListMenuItems(ctx, filter)
}

func (s *Service) ListInventoryHistory(ctx context.Context, filter store.InventoryFilter) ([]domain.InventoryEntry, error) {
	return s.Store.ListInventory(ctx, filter)
}
