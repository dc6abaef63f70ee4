package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"opsboard-services/internal/domain"
)

type memState struct {
	sequences map[string]int64
	orders    []domain.Order
	sales     []domain.Sale
	activity  []domain.ActivityRecord
	coins     []domain.CoinTransaction
	expenses  []domain.Expense
	menuItems []domain.MenuItem
	inventory []domain.InventoryEntry
	props     []domain.Property
	bookings  []domain.Booking
	events    []domain.OutboxEvent
}

func (s *memState) clone() *memState {
	out := &memState{sequences: make(map[string]int64, len(s.sequences))}
	for k, v := range s.sequences {
		out.sequences[k] = v
	}
	out.orders = append([]domain.Order(nil), s.orders...)
	out.sales = append([]domain.Sale(nil), s.sales...)
	out.activity = append([]domain.ActivityRecord(nil), s.activity...)
	out.coins = append([]domain.CoinTransaction(nil), s.coins...)
	out.expenses = append([]domain.Expense(nil), s.expenses...)
	out.menuItems = append([]domain.MenuItem(nil), s.menuItems...)
	out.inventory = append([]domain.InventoryEntry(nil), s.inventory...)
	out.props = append([]domain.Property(nil), s.props...)
	out.bookings = append([]domain.Booking(nil), s.bookings...)
	out.events = append([]domain.OutboxEvent(nil), s.events...)
	return out
}

// Memory keeps all records in process. Transactions are serialized and
// applied copy-on-write, so a failed TxFunc leaves no trace.
type Memory struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	state *memState

	feedMu    sync.Mutex
	listeners map[int]func(string)
	nextID    int
}

func NewMemory() *Memory {
	return &Memory{
		state:     &memState{sequences: make(map[string]int64)},
		listeners: make(map[int]func(string)),
	}
}

func (m *Memory) WithinTx(ctx context.Context, fn TxFunc) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	staged := m.state.clone()
	m.mu.RUnlock()

	tx := &memTx{memReader: memReader{state: staged}, touched: make(map[string]struct{})}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = staged
	m.mu.Unlock()

	for collection := range tx.touched {
		m.publish(collection)
	}
	return nil
}

func (m *Memory) reader() memReader {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return memReader{state: m.state}
}

func (m *Memory) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return m.reader().GetOrder(ctx, id)
}

func (m *Memory) ListOrders(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	return m.reader().ListOrders(ctx, filter)
}

func (m *Memory) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	return m.reader().GetSale(ctx, id)
}

func (m *Memory) ListSales(ctx context.Context, filter SaleFilter) ([]domain.Sale, error) {
	return m.reader().ListSales(ctx, filter)
}

func (m *Memory) ListActivity(ctx context.Context, filter ActivityFilter) ([]domain.ActivityRecord, error) {
	return m.reader().ListActivity(ctx, filter)
}

func (m *Memory) ListCoinTransactions(ctx context.Context, filter CoinFilter) ([]domain.CoinTransaction, error) {
	return m.reader().ListCoinTransactions(ctx, filter)
}

func (m *Memory) GetExpense(ctx context.Context, id string) (domain.Expense, error) {
	return m.reader().GetExpense(ctx, id)
}

func (m *Memory) ListExpenses(ctx context.Context, filter ExpenseFilter) ([]domain.Expense, error) {
	return m.reader().ListExpenses(ctx, filter)
}

func (m *Memory) GetMenuItem(ctx context.Context, id string) (domain.MenuItem, error) {
	return m.reader().GetMenuItem(ctx, id)
}

func (m *Memory) ListMenuItems(ctx context.Context, filter MenuItemFilter) ([]domain.MenuItem, error) {
	return m.reader().ListMenuItems(ctx, filter)
}

func (m *Memory) ListInventory(ctx context.Context, filter InventoryFilter) ([]domain.InventoryEntry, error) {
	return m.reader().ListInventory(ctx, filter)
}

func (m *Memory) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	return m.reader().GetProperty(ctx, id)
}

func (m *Memory) ListProperties(ctx context.Context) ([]domain.Property, error) {
	return m.reader().ListProperties(ctx)
}

func (m *Memory) ListBookings(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	return m.reader().ListBookings(ctx, filter)
}

func (m *Memory) PendingEvents(_ context.Context, limit int) ([]domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit = clampLimit(limit)
	out := make([]domain.OutboxEvent, 0)
	for _, evt := range m.state.events {
		if evt.PublishedAt != nil {
			continue
		}
		out = append(out, evt)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) MarkEventPublished(_ context.Context, id string) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.state.events {
		if m.state.events[i].ID == id {
			now := time.Now().UTC()
			m.state.events[i].PublishedAt = &now
			return nil
		}
	}
	return domain.NotFound("event", id)
}

func (m *Memory) MarkEventFailed(_ context.Context, id string) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.state.events {
		if m.state.events[i].ID == id {
			m.state.events[i].Attempts++
			return nil
		}
	}
	return domain.NotFound("event", id)
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}

func (m *Memory) Listen(ctx context.Context, fn func(collection string)) error {
	m.feedMu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.feedMu.Unlock()

	<-ctx.Done()

	m.feedMu.Lock()
	delete(m.listeners, id)
	m.feedMu.Unlock()
	return ctx.Err()
}

func (m *Memory) publish(collection string) {
	m.feedMu.Lock()
	fns := make([]func(string), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.feedMu.Unlock()
	for _, fn := range fns {
		fn(collection)
	}
}

type memReader struct {
	state *memState
}

func (r memReader) GetOrder(_ context.Context, id string) (domain.Order, error) {
	for _, o := range r.state.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, domain.NotFound("order", id)
}

func (r memReader) ListOrders(_ context.Context, f OrderFilter) ([]domain.Order, error) {
	out := make([]domain.Order, 0)
	for i := len(r.state.orders) - 1; i >= 0; i-- {
		o := r.state.orders[i]
		if !inRange(o.OrderDate, f.From, f.To) {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.Category != nil && (o.Category == nil || *o.Category != *f.Category) {
			continue
		}
		if f.CreatedBy != "" && o.CreatedBy != f.CreatedBy {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return truncate(out, f.Limit), nil
}

func (r memReader) GetSale(_ context.Context, id string) (domain.Sale, error) {
	for _, s := range r.state.sales {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Sale{}, domain.NotFound("sale", id)
}

func (r memReader) ListSales(_ context.Context, f SaleFilter) ([]domain.Sale, error) {
	out := make([]domain.Sale, 0)
	for i := len(r.state.sales) - 1; i >= 0; i-- {
		s := r.state.sales[i]
		if !inRange(s.SaleDate, f.From, f.To) {
			continue
		}
		if f.Category != nil && s.Category != *f.Category {
			continue
		}
		if f.Status != nil && s.Status != *f.Status {
			continue
		}
		if f.CreatedBy != "" && s.CreatedBy != f.CreatedBy {
			continue
		}
		if f.OrderID != "" && (s.OrderID == nil || *s.OrderID != f.OrderID) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SaleDate.After(out[j].SaleDate) })
	return truncate(out, f.Limit), nil
}

func (r memReader) ListActivity(_ context.Context, f ActivityFilter) ([]domain.ActivityRecord, error) {
	out := make([]domain.ActivityRecord, 0)
	for i := len(r.state.activity) - 1; i >= 0; i-- {
		a := r.state.activity[i]
		if f.UserID != "" && a.UserID != f.UserID {
			continue
		}
		if f.ResourceType != nil && (a.ResourceType == nil || *a.ResourceType != *f.ResourceType) {
			continue
		}
		if f.ResourceID != "" && (a.ResourceID == nil || *a.ResourceID != f.ResourceID) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return truncate(out, f.Limit), nil
}

func (r memReader) ListCoinTransactions(_ context.Context, f CoinFilter) ([]domain.CoinTransaction, error) {
	out := make([]domain.CoinTransaction, 0)
	for i := len(r.state.coins) - 1; i >= 0; i-- {
		c := r.state.coins[i]
		if !inRange(c.Date, f.From, f.To) {
			continue
		}
		if f.Type != nil && c.Type != *f.Type {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return truncate(out, f.Limit), nil
}

func (r memReader) GetExpense(_ context.Context, id string) (domain.Expense, error) {
	for _, e := range r.state.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.Expense{}, domain.NotFound("expense", id)
}

func (r memReader) ListExpenses(_ context.Context, f ExpenseFilter) ([]domain.Expense, error) {
	out := make([]domain.Expense, 0)
	for i := len(r.state.expenses) - 1; i >= 0; i-- {
		e := r.state.expenses[i]
		if !inRange(e.ExpenseDate, f.From, f.To) {
			continue
		}
		if f.Category != nil && e.Category != *f.Category {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpenseDate.After(out[j].ExpenseDate) })
	return truncate(out, f.Limit), nil
}

func (r memReader) GetMenuItem(_ context.Context, id string) (domain.MenuItem, error) {
	for _, m := range r.state.menuItems {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.MenuItem{}, domain.NotFound("menu item", id)
}

func (r memReader) ListMenuItems(_ context.Context, f MenuItemFilter) ([]domain.MenuItem, error) {
	out := make([]domain.MenuItem, 0)
	for _, m := range r.state.menuItems {
		if f.Category != nil && m.Category != *f.Category {
			continue
		}
		if f.Available != nil && m.IsAvailable != *f.Available {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memReader) ListInventory(_ context.Context, f InventoryFilter) ([]domain.InventoryEntry, error) {
	out := make([]domain.InventoryEntry, 0)
	for i := len(r.state.inventory) - 1; i >= 0; i-- {
		e := r.state.inventory[i]
		if f.MenuItemID != "" && e.MenuItemID != f.MenuItemID {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, f.Limit), nil
}

func (r memReader) GetProperty(_ context.Context, id string) (domain.Property, error) {
	for _, p := range r.state.props {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Property{}, domain.NotFound("property", id)
}

func (r memReader) ListProperties(_ context.Context) ([]domain.Property, error) {
	out := append([]domain.Property(nil), r.state.props...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memReader) ListBookings(_ context.Context, f BookingFilter) ([]domain.Booking, error) {
	out := make([]domain.Booking, 0)
	for i := len(r.state.bookings) - 1; i >= 0; i-- {
		b := r.state.bookings[i]
		if f.PropertyID != "" && b.PropertyID != f.PropertyID {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CheckIn.After(out[j].CheckIn) })
	return truncate(out, f.Limit), nil
}

func truncate[T any](items []T, limit int) []T {
	limit = clampLimit(limit)
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

type memTx struct {
	memReader
	touched map[string]struct{}
}

func (t *memTx) NextSequence(_ context.Context, name string) (int64, error) {
	t.state.sequences[name]++
	return t.state.sequences[name], nil
}

// GetMenuItemForUpdate needs no lock: memory transactions run one at a time.
func (t *memTx) GetMenuItemForUpdate(ctx context.Context, id string) (domain.MenuItem, error) {
	return t.GetMenuItem(ctx, id)
}

func (t *memTx) InsertOrder(_ context.Context, order domain.Order) error {
	t.state.orders = append(t.state.orders, order)
	return nil
}

func (t *memTx) UpdateOrder(_ context.Context, order domain.Order) error {
	for i := range t.state.orders {
		if t.state.orders[i].ID == order.ID {
			t.state.orders[i] = order
			return nil
		}
	}
	return domain.NotFound("order", order.ID)
}

func (t *memTx) DeleteOrder(_ context.Context, id string) error {
	for i := range t.state.orders {
		if t.state.orders[i].ID == id {
			t.state.orders = append(t.state.orders[:i:i], t.state.orders[i+1:]...)
			return nil
		}
	}
	return domain.NotFound("order", id)
}

func (t *memTx) InsertSale(_ context.Context, sale domain.Sale) error {
	t.state.sales = append(t.state.sales, sale)
	return nil
}

func (t *memTx) UpdateSale(_ context.Context, sale domain.Sale) error {
	for i := range t.state.sales {
		if t.state.sales[i].ID == sale.ID {
			t.state.sales[i] = sale
			return nil
		}
	}
	return domain.NotFound("sale", sale.ID)
}

func (t *memTx) InsertActivity(_ context.Context, record domain.ActivityRecord) error {
	t.state.activity = append(t.state.activity, record)
	return nil
}

func (t *memTx) InsertCoinTransaction(_ context.Context, txn domain.CoinTransaction) error {
	t.state.coins = append(t.state.coins, txn)
	return nil
}

func (t *memTx) InsertExpense(_ context.Context, expense domain.Expense) error {
	t.state.expenses = append(t.state.expenses, expense)
	return nil
}

func (t *memTx) UpdateExpense(_ context.Context, expense domain.Expense) error {
	for i := range t.state.expenses {
		if t.state.expenses[i].ID == expense.ID {
			t.state.expenses[i] = expense
			return nil
		}
	}
	return domain.NotFound("expense", expense.ID)
}

func (t *memTx) DeleteExpense(_ context.Context, id string) error {
	for i := range t.state.expenses {
		if t.state.expenses[i].ID == id {
			t.state.expenses = append(t.state.expenses[:i:i], t.state.expenses[i+1:]...)
			return nil
		}
	}
	return domain.NotFound("expense", id)
}

func (t *memTx) InsertMenuItem(_ context.Context, item domain.MenuItem) error {
	t.state.menuItems = append(t.state.menuItems, item)
	return nil
}

func (t *memTx) UpdateMenuItem(_ context.Context, item domain.MenuItem) error {
	for i := range t.state.menuItems {
		if t.state.menuItems[i].ID == item.ID {
			t.state.menuItems[i] = item
			return nil
		}
	}
	return domain.NotFound("menu item", item.ID)
}

func (t *memTx) DeleteMenuItem(_ context.Context, id string) error {
	for i := range t.state.menuItems {
		if t.state.menuItems[i].ID == id {
			t.state.menuItems = append(t.state.menuItems[:i:i], t.state.menuItems[i+1:]...)
			return nil
		}
	}
	return domain.NotFound("menu item", id)
}

func (t *memTx) InsertInventoryEntry(_ context.Context, entry domain.InventoryEntry) error {
	t.state.inventory = append(t.state.inventory, entry)
	return nil
}

func (t *memTx) InsertProperty(_ context.Context, property domain.Property) error {
	t.state.props = append(t.state.props, property)
	return nil
}

func (t *memTx) InsertBooking(_ context.Context, booking domain.Booking) error {
	t.state.bookings = append(t.state.bookings, booking)
	return nil
}

func (t *memTx) EnqueueEvent(_ context.Context, event domain.OutboxEvent) error {
	t.state.events = append(t.state.events, event)
	return nil
}

func (t *memTx) Touch(_ context.Context, collections ...string) error {
	for _, c := range collections {
		t.touched[c] = struct{}{}
	}
	return nil
}
