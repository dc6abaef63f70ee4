package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"opsboard-services/internal/domain"
	"opsboard-services/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockCheckingStore rejects plain menu item reads inside transactions so a
// stock change has to go through the locking read.
type lockCheckingStore struct {
	*store.Memory
	locked int
}

type lockCheckingTx struct {
	store.Tx
	parent *lockCheckingStore
}

func (tx lockCheckingTx) GetMenuItem(context.Context, string) (domain.MenuItem, error) {
	return domain.MenuItem{}, errors.New("menu item read without row lock")
}

func (tx lockCheckingTx) GetMenuItemForUpdate(ctx context.Context, id string) (domain.MenuItem, error) {
	tx.parent.locked++
	return tx.Tx.GetMenuItemForUpdate(ctx, id)
}

func (s *lockCheckingStore) WithinTx(ctx context.Context, fn store.TxFunc) error {
	return s.Memory.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return fn(ctx, lockCheckingTx{Tx: tx, parent: s})
	})
}

func TestAdjustStockReadsLockedRow(t *testing.T) {
	svc, mem, ctx := newTestService(t)
	item, err := svc.CreateMenuItem(ctx, MenuItemInput{Name: "Tea", Price: 3000, StockQuantity: 4})
	require.NoError(t, err)

	st := &lockCheckingStore{Memory: mem}
	svc.Store = st

	entry, err := svc.AdjustStock(ctx, item.ID, StockAdjustment{Change: -1, Reason: "sale"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), entry.QuantityAfter)
	assert.Equal(t, 1, st.locked)
}

func TestAdjustStockConcurrentNeverOversells(t *testing.T) {
	svc, _, ctx := newTestService(t)
	item, err := svc.CreateMenuItem(ctx, MenuItemInput{Name: "Rice", Price: 7500, StockQuantity: 5})
	require.NoError(t, err)

	const n = 2
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AdjustStock(ctx, item.ID, StockAdjustment{Change: -3, Reason: "sale"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		requireCode(t, err, domain.ErrValidation)
		rejected++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)

	stored, err := svc.GetMenuItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), stored.StockQuantity)

	history, err := svc.ListInventoryHistory(ctx, store.InventoryFilter{MenuItemID: item.ID})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int32(2), history[0].QuantityAfter)
}
