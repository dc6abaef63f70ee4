package services

import (
	"context"

	"opsboard-services/internal/auth"
	"opsboard-services/internal/domain"
	"opsboard-services/internal/ids"
	"opsboard-services/internal/store"
)

const (
	DefaultRecentActivity = 50
	MaxActivityLimit      = 500
)

type ActivityEntry struct {
	Action       domain.Action
	Details      string
	Category     *string
	ResourceType *domain.ResourceType
	ResourceID   *string
	Metadata     map[string]any
}

func (s *Service) writeActivity(ctx context.Context, tx store.Tx, userID string, entry ActivityEntry) error {
	return tx.InsertActivity(ctx, s.activityRecord(userID, entry))
}

func (s *Service) activityRecord(userID string, entry ActivityEntry) domain.ActivityRecord {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return domain.ActivityRecord{
		ID:           ids.New(),
		UserID:       userID,
		Action:       entry.Action,
		Details:      entry.Details,
		Category:     entry.Category,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Metadata:     metadata,
		Timestamp:    s.now().UnixMilli(),
	}
}

// Log appends a standalone activity record for the caller.
func (s *Service) Log(ctx context.Context, entry ActivityEntry) (domain.ActivityRecord, error) {
	if entry.Action == "" {
		return domain.ActivityRecord{}, domain.ValidationError("Action is required", map[string]any{"field": "action"})
	}
	var record domain.ActivityRecord
	err := s.mutate(ctx, []string{domain.CollectionActivity}, func(ctx context.Context, tx store.Tx, identity auth.Identity) error {
		record = s.activityRecord(identity.Subject, entry)
		return tx.InsertActivity(ctx, record)
	})
	if err != nil {
		return domain.ActivityRecord{}, err
	}
	return record, nil
}

func activityLimit(limit int, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > MaxActivityLimit {
		return MaxActivityLimit
	}
	return limit
}

func (s *Service) AllActivity(ctx context.Context, limit int) ([]domain.ActivityRecord, error) {
	return s.Store.ListActivity(ctx, store.ActivityFilter{Limit: activityLimit(limit, store.DefaultListLimit)})
}

func (s *Service) ActivityByUser(ctx context.Context, userID string, limit int) ([]domain.ActivityRecord, error) {
	if userID == "" {
		return nil, domain.ValidationError("User id is required", map[string]any{"field": "userId"})
	}
	return s.Store.ListActivity(ctx, store.ActivityFilter{UserID: userID, Limit: activityLimit(limit, store.DefaultListLimit)})
}

func (s *Service) RecentActivity(ctx context.Context, limit int) ([]domain.ActivityRecord, error) {
	return s.Store.ListActivity(ctx, store.ActivityFilter{Limit: activityLimit(limit, DefaultRecentActivity)})
}

func (s *Service) ListActivity(ctx context.Context, filter store.ActivityFilter) ([]domain.ActivityRecord, error) {
	filter.Limit = activityLimit(filter.Limit, store.DefaultListLimit)
	return s.Store.ListActivity(ctx, filter)
}

func resourceRef(kind domain.ResourceType, id string) (*domain.ResourceType, *string) {
	return &kind, &id
}
