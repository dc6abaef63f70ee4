// Package store persists dashboard records. Every multi-record write goes
// through Store.WithinTx so derived records commit or roll back together.
package store

import (
	"context"
	"math"
	"time"

	"opsboard-services/internal/domain"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
	// NoLimit asks for every matching record; used by report aggregation.
	NoLimit = -1
)

type OrderFilter struct {
	From      *time.Time
	To        *time.Time
	Status    *domain.OrderStatus
	Category  *domain.Category
	CreatedBy string
	Limit     int
}

type SaleFilter struct {
	From      *time.Time
	To        *time.Time
	Category  *domain.Category
	Status    *domain.SaleStatus
	CreatedBy string
	OrderID   string
	Limit     int
}

type ActivityFilter struct {
	UserID       string
	ResourceType *domain.ResourceType
	ResourceID   string
	Limit        int
}

type CoinFilter struct {
	From  *time.Time
	To    *time.Time
	Type  *domain.CoinType
	Limit int
}

type ExpenseFilter struct {
	From     *time.Time
	To       *time.Time
	Category *domain.ExpenseCategory
	Limit    int
}

type MenuItemFilter struct {
	Category  *domain.Category
	Available *bool
}

type InventoryFilter struct {
	MenuItemID string
	Limit      int
}

type BookingFilter struct {
	PropertyID string
	Limit      int
}

type Reader interface {
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	GetSale(ctx context.Context, id string) (domain.Sale, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]domain.Sale, error)
	ListActivity(ctx context.Context, filter ActivityFilter) ([]domain.ActivityRecord, error)
	ListCoinTransactions(ctx context.Context, filter CoinFilter) ([]domain.CoinTransaction, error)
	GetExpense(ctx context.Context, id string) (domain.Expense, error)
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]domain.Expense, error)
	GetMenuItem(ctx context.Context, id string) (domain.MenuItem, error)
	ListMenuItems(ctx context.Context, filter MenuItemFilter) ([]domain.MenuItem, error)
	ListInventory(ctx context.Context, filter InventoryFilter) ([]domain.InventoryEntry, error)
	GetProperty(ctx context.Context, id string) (domain.Property, error)
	ListProperties(ctx context.Context) ([]domain.Property, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
}

type Writer interface {
	// NextSequence atomically increments and returns the named counter.
	NextSequence(ctx context.Context, name string) (int64, error)
	// GetMenuItemForUpdate reads the item and holds its row until the
	// transaction ends.
	GetMenuItemForUpdate(ctx context.Context, id string) (domain.MenuItem, error)

	InsertOrder(ctx context.Context, order domain.Order) error
	UpdateOrder(ctx context.Context, order domain.Order) error
	DeleteOrder(ctx context.Context, id string) error
	InsertSale(ctx context.Context, sale domain.Sale) error
	UpdateSale(ctx context.Context, sale domain.Sale) error
	InsertActivity(ctx context.Context, record domain.ActivityRecord) error
	InsertCoinTransaction(ctx context.Context, txn domain.CoinTransaction) error
	InsertExpense(ctx context.Context, expense domain.Expense) error
	UpdateExpense(ctx context.Context, expense domain.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	InsertMenuItem(ctx context.Context, item domain.MenuItem) error
	UpdateMenuItem(ctx context.Context, item domain.MenuItem) error
	DeleteMenuItem(ctx context.Context, id string) error
	InsertInventoryEntry(ctx context.Context, entry domain.InventoryEntry) error
	InsertProperty(ctx context.Context, property domain.Property) error
	InsertBooking(ctx context.Context, booking domain.Booking) error

	EnqueueEvent(ctx context.Context, event domain.OutboxEvent) error
	// Touch marks collections as changed; subscribers are notified on commit.
	Touch(ctx context.Context, collections ...string) error
}

type Tx interface {
	Reader
	Writer
}

type TxFunc func(ctx context.Context, tx Tx) error

// ChangeFeed delivers committed collection changes.
type ChangeFeed interface {
	Listen(ctx context.Context, fn func(collection string)) error
}

type Store interface {
	Reader
	ChangeFeed
	WithinTx(ctx context.Context, fn TxFunc) error
	PendingEvents(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkEventPublished(ctx context.Context, id string) error
	MarkEventFailed(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close()
}

func clampLimit(limit int) int {
	if limit == NoLimit {
		return math.MaxInt32
	}
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}
