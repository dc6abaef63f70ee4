package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"opsboard-services/internal/auth"
	"opsboard-services/internal/domain"
	"opsboard-services/internal/store"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Memory, context.Context) {
	t.Helper()
	mem := store.NewMemory()
	svc := New(mem, nil, nil)
	svc.Now = func() time.Time { return testNow }
	ctx := auth.WithIdentity(context.Background(), auth.Identity{Subject: "u1", Role: auth.RoleManager})
	return svc, mem, ctx
}

var errInjected = errors.New("injected failure")

// failingStore fails the first activity insert of every transaction.
type failingStore struct {
	*store.Memory
}

type failingTx struct {
	store.Tx
}

func (failingTx) InsertActivity(context.Context, domain.ActivityRecord) error {
	return errInjected
}

func (f failingStore) WithinTx(ctx context.Context, fn store.TxFunc) error {
	return f.Memory.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return fn(ctx, failingTx{Tx: tx})
	})
}

func requireCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, domain.IsCode(err, code), "expected %s, got %v", code, err)
}
