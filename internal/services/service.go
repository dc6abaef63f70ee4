// Package services implements the dashboard's write pipelines and read views.
// Every mutation runs inside one store transaction that also records the
// activity entry, the outbox event and the change notification.
package services

import (
	"context"
	"strings"
	"time"

	"opsboard-services/internal/auth"
	"opsboard-services/internal/domain"
	"opsboard-services/internal/ids"
	"opsboard-services/internal/metrics"
	"opsboard-services/internal/store"

	"go.uber.org/zap"
)

type Service struct {
	Store   store.Store
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Archive ReportArchive
	Mailer  Mailer
	Now     func() time.Time

	// Currency labels amounts in rendered reports.
	Currency           string
	ReportMaxRangeDays int64
}

func New(st store.Store, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Store: st, Logger: logger, Metrics: m, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func requireIdentity(ctx context.Context) (auth.Identity, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return auth.Identity{}, domain.Unauthenticated("")
	}
	return identity, nil
}

// mutate runs fn for an authenticated caller inside a single transaction and
// marks collections changed on commit.
func (s *Service) mutate(ctx context.Context, collections []string, fn func(ctx context.Context, tx store.Tx, identity auth.Identity) error) error {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return err
	}

	err = s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := fn(ctx, tx, identity); err != nil {
			return err
		}
		return tx.Touch(ctx, collections...)
	})
	if err != nil {
		return err
	}
	s.Metrics.RecordWrites(collections...)
	return nil
}

func (s *Service) nextDisplayID(ctx context.Context, tx store.Tx, sequence string) (string, error) {
	n, err := tx.NextSequence(ctx, sequence)
	if err != nil {
		return "", err
	}
	return ids.Display(sequence, n), nil
}

func (s *Service) enqueue(ctx context.Context, tx store.Tx, eventType string, payload map[string]any) error {
	return tx.EnqueueEvent(ctx, domain.OutboxEvent{
		ID:        ids.New(),
		Type:      eventType,
		Payload:   payload,
		CreatedAt: s.now(),
	})
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func strPtr(v string) *string {
	return &v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
