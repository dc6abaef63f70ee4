package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"opsboard-services/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ChangesChannel is the Postgres NOTIFY channel carrying collection names.
const ChangesChannel = "opsboard_changes"

type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	pgReader
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{pool: pool, logger: logger, pgReader: pgReader{q: pool}}
}

func (p *Postgres) WithinTx(ctx context.Context, fn TxFunc) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.UpstreamFailure("Failed to start transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{pgReader: pgReader{q: tx}}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.UpstreamFailure("Failed to commit transaction", err)
	}
	return nil
}

func (p *Postgres) PendingEvents(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	rows, err := p.pool.Query(ctx, `
		select id, type, payload, created_at, published_at, attempts
		from outbox_events
		where published_at is null
		order by created_at asc
		limit $1
	`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.OutboxEvent, 0)
	for rows.Next() {
		var (
			evt         domain.OutboxEvent
			payload     []byte
			publishedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&evt.ID, &evt.Type, &payload, &evt.CreatedAt, &publishedAt, &evt.Attempts); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			_ = json.Unmarshal(payload, &evt.Payload)
		}
		if publishedAt.Valid {
			evt.PublishedAt = &publishedAt.Time
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

func (p *Postgres) MarkEventPublished(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `update outbox_events set published_at = now() where id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("event", id)
	}
	return nil
}

func (p *Postgres) MarkEventFailed(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `update outbox_events set attempts = attempts + 1 where id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("event", id)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}

// Listen blocks until ctx is done, reconnecting with backoff when the
// LISTEN connection drops.
func (p *Postgres) Listen(ctx context.Context, fn func(collection string)) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := p.pool.Acquire(ctx)
		if err != nil {
			p.logger.Warn("changes LISTEN acquire failed", zap.Error(err))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}

		if _, err := conn.Exec(ctx, `listen `+ChangesChannel); err != nil {
			conn.Release()
			p.logger.Warn("changes LISTEN failed", zap.Error(err))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}

		backoff = time.Second
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				break
			}
			collection := strings.TrimSpace(n.Payload)
			if collection == "" {
				continue
			}
			fn(collection)
		}

		conn.Release()
		if !sleepCtx(ctx, backoff) {
			return ctx.Err()
		}
		backoff = minDuration(backoff*2, 30*time.Second)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// where accumulates positional filter clauses.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " where " + strings.Join(w.conds, " and ")
}

func (w *where) limit(limit int) string {
	w.args = append(w.args, clampLimit(limit))
	return fmt.Sprintf(" limit $%d", len(w.args))
}

func (w *where) timeRange(column string, from, to *time.Time) {
	if from != nil {
		w.add(column+" >= $%d", *from)
	}
	if to != nil {
		w.add(column+" <= $%d", *to)
	}
}

func notFoundOr(err error, resource, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(resource, id)
	}
	return err
}

// numericFloat reads a NUMERIC money column. NULL and NaN read as zero.
func numericFloat(v pgtype.Numeric) float64 {
	if !v.Valid || v.NaN {
		return 0
	}
	f, err := v.Float64Value()
	if err != nil || !f.Valid {
		return 0
	}
	return f.Float64
}

func textPtr(v pgtype.Text) *string {
	if v.Valid {
		return &v.String
	}
	return nil
}

type pgReader struct {
	q querier
}

const orderColumns = `id, custom_id, customer_name, customer_phone, customer_email, category, items, total_amount, status, notes, order_date, created_by`

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o                  domain.Order
		name, phone, email pgtype.Text
		category, notes    pgtype.Text
		items              []byte
		total              pgtype.Numeric
		status             string
	)
	if err := row.Scan(&o.ID, &o.CustomID, &name, &phone, &email, &category, &items, &total, &status, &notes, &o.OrderDate, &o.CreatedBy); err != nil {
		return domain.Order{}, err
	}
	o.CustomerName = textPtr(name)
	o.CustomerPhone = textPtr(phone)
	o.CustomerEmail = textPtr(email)
	o.Notes = textPtr(notes)
	if category.Valid {
		c := domain.Category(category.String)
		o.Category = &c
	}
	o.TotalAmount = numericFloat(total)
	o.Status = domain.OrderStatus(status)
	o.Items = []domain.OrderLine{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return domain.Order{}, err
		}
	}
	return o, nil
}

func (r pgReader) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `select `+orderColumns+` from orders where id = $1`, id))
	if err != nil {
		return domain.Order{}, notFoundOr(err, "order", id)
	}
	return o, nil
}

func (r pgReader) ListOrders(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	w := &where{}
	w.timeRange("order_date", f.From, f.To)
	if f.Status != nil {
		w.add("status = $%d", string(*f.Status))
	}
	if f.Category != nil {
		w.add("category = $%d", string(*f.Category))
	}
	if f.CreatedBy != "" {
		w.add("created_by = $%d", f.CreatedBy)
	}
	query := `select ` + orderColumns + ` from orders` + w.sql() + ` order by order_date desc, seq desc` + w.limit(f.Limit)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

const saleColumns = `id, order_id, custom_sales_id, items, category, total_amount, payment_method, customer_name, customer_phone, customer_email, notes, sale_date, created_by, status`

func scanSale(row rowScanner) (domain.Sale, error) {
	var (
		s                  domain.Sale
		orderID            pgtype.Text
		name, phone, email pgtype.Text
		notes              pgtype.Text
		items              []byte
		total              pgtype.Numeric
		category, method   string
		status             string
	)
	if err := row.Scan(&s.ID, &orderID, &s.CustomSalesID, &items, &category, &total, &method, &name, &phone, &email, &notes, &s.SaleDate, &s.CreatedBy, &status); err != nil {
		return domain.Sale{}, err
	}
	s.OrderID = textPtr(orderID)
	s.CustomerName = textPtr(name)
	s.CustomerPhone = textPtr(phone)
	s.CustomerEmail = textPtr(email)
	s.Notes = textPtr(notes)
	s.Category = domain.Category(category)
	s.PaymentMethod = domain.PaymentMethod(method)
	s.Status = domain.SaleStatus(status)
	s.TotalAmount = numericFloat(total)
	s.Items = []domain.SaleLine{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &s.Items); err != nil {
			return domain.Sale{}, err
		}
	}
	return s, nil
}

func (r pgReader) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, `select `+saleColumns+` from sales where id = $1`, id))
	if err != nil {
		return domain.Sale{}, notFoundOr(err, "sale", id)
	}
	return s, nil
}

func (r pgReader) ListSales(ctx context.Context, f SaleFilter) ([]domain.Sale, error) {
	w := &where{}
	w.timeRange("sale_date", f.From, f.To)
	if f.Category != nil {
		w.add("category = $%d", string(*f.Category))
	}
	if f.Status != nil {
		w.add("status = $%d", string(*f.Status))
	}
	if f.CreatedBy != "" {
		w.add("created_by = $%d", f.CreatedBy)
	}
	if f.OrderID != "" {
		w.add("order_id = $%d", f.OrderID)
	}
	query := `select ` + saleColumns + ` from sales` + w.sql() + ` order by sale_date desc, seq desc` + w.limit(f.Limit)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Sale, 0)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r pgReader) ListActivity(ctx context.Context, f ActivityFilter) ([]domain.ActivityRecord, error) {
	w := &where{}
	if f.UserID != "" {
		w.add("user_id = $%d", f.UserID)
	}
	if f.ResourceType != nil {
		w.add("resource_type = $%d", string(*f.ResourceType))
	}
	if f.ResourceID != "" {
		w.add("resource_id = $%d", f.ResourceID)
	}
	query := `
		select id, user_id, action, details, category, resource_type, resource_id, metadata, ts
		from user_activity` + w.sql() + ` order by ts desc, seq desc` + w.limit(f.Limit)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ActivityRecord, 0)
	for rows.Next() {
		var (
			a                        domain.ActivityRecord
			action                   string
			category, resType, resID pgtype.Text
			metadata                 []byte
		)
		if err := rows.Scan(&a.ID, &a.UserID, &action, &a.Details, &category, &resType, &resID, &metadata, &a.Timestamp); err != nil {
			return nil, err
		}
		a.Action = domain.Action(action)
		a.Category = textPtr(category)
		a.ResourceID = textPtr(resID)
		if resType.Valid {
			rt := domain.ResourceType(resType.String)
			a.ResourceType = &rt
		}
		a.Metadata = map[string]any{}
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &a.Metadata)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r pgReader) ListCoinTransactions(ctx context.Context, f CoinFilter) ([]domain.CoinTransaction, error) {
	w := &where{}
	w.timeRange("date", f.From, f.To)
	if f.Type != nil {
		w.add("type = $%d", string(*f.Type))
	}
	query := `
		select id, custom_id, type, amount, table_name, notes, date, total_amount, sale_id, created_by
		from snooker_coin_transactions` + w.sql() + ` order by date desc, seq desc` + w.limit(f.Limit)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CoinTransaction, 0)
	for rows.Next() {
		var (
			c            domain.CoinTransaction
			coinType     string
			table, notes pgtype.Text
			total        pgtype.Numeric
		)
		if err := rows.Scan(&c.ID, &c.CustomID, &coinType, &c.Amount, &table, &notes, &c.Date, &total, &c.SaleID, &c.CreatedBy); err != nil {
			return nil, err
		}
		c.Type = domain.CoinType(coinType)
		c.Table = textPtr(table)
		c.Notes = textPtr(notes)
		c.TotalAmount = numericFloat(total)
		out = append(out, c)
	}
	return out, rows.Err()
}

const expenseColumns = `id, custom_id, title, amount, category, vendor, notes, expense_date, created_by`

func scanExpense(row rowScanner) (domain.Expense, error) {
	var (
		e             domain.Expense
		amount        pgtype.Numeric
		category      string
		vendor, notes pgtype.Text
	)
	if err := row.Scan(&e.ID, &e.CustomID, &e.Title, &amount, &category, &vendor, &notes, &e.ExpenseDate, &e.CreatedBy); err != nil {
		return domain.Expense{}, err
	}
	e.Amount = numericFloat(amount)
	e.Category = domain.ExpenseCategory(category)
	e.Vendor = textPtr(vendor)
	e.Notes = textPtr(notes)
	return e, nil
}

func (r pgReader) GetExpense(ctx context.Context, id string) (domain.Expense, error) {
	e, err := scanExpense(r.q.QueryRow(ctx, `select `+expenseColumns+` from expenses where id = $1`, id))
	if err != nil {
		return domain.Expense{}, notFoundOr(err, "expense", id)
	}
	return e, nil
}

func (r pgReader) ListExpenses(ctx context.Context, f ExpenseFilter) ([]domain.Expense, error) {
	w := &where{}
	w.timeRange("expense_date", f.From, f.To)
	if f.Category != nil {
		w.add("category = $%d", string(*f.Category))
	}
	query := `select ` + expenseColumns + ` from expenses` + w.sql() + ` order by expense_date desc, seq desc` + w.limit(f.Limit)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const menuItemColumns = `id, name, price, category, stock_quantity, is_available, created_at, updated_at`

func scanMenuItem(row rowScanner) (domain.MenuItem, error) {
	var (
		m        domain.MenuItem
		price    pgtype.Numeric
		category string
	)
	if err := row.Scan(&m.ID, &m.Name, &price, &category, &m.StockQuantity, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return domain.MenuItem{}, err
	}
	m.Price = numericFloat(price)
	m.Category = domain.Category(category)
	return m, nil
}

func (r pgReader) GetMenuItem(ctx context.Context, id string) (domain.MenuItem, error) {
	m, err := scanMenuItem(r.q.QueryRow(ctx, `select `+menuItemColumns+` from menu_items where id = $1`, id))
	if err != nil {
		return domain.MenuItem{}, notFoundOr(err, "menu item", id)
	}
	return m, nil
}

func (r pgReader) ListMenuItems(ctx context.Context, f MenuItemFilter) ([]domain.MenuItem, error) {
	w := &where{}
	if f.Category != nil {
		w.add("category = $%d", string(*f.Category))
	}
	if f.Available != nil {
		w.add("is_available = $%d", *f.Available)
	}
	rows, err := r.q.Query(ctx, `select `+menuItemColumns+` from menu_items`+w.sql()+` order by name asc`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MenuItem, 0)
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r pgReader) ListInventory(ctx context.Context, f InventoryFilter) ([]domain.InventoryEntry, error) {
	w := &where{}
	if f.MenuItemID != "" {
		w.add("menu_item_id = $%d", f.MenuItemID)
	}
	query := `
		select id, menu_item_id, change, reason, quantity_after, notes, created_at, created_by
		from inventory_history` + w.sql() + ` order by created_at desc, seq desc` + w.limit(f.Limit)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.InventoryEntry, 0)
	for rows.Next() {
		var (
			e      domain.InventoryEntry
			reason string
			notes  pgtype.Text
		)
		if err := rows.Scan(&e.ID, &e.MenuItemID, &e.Change, &reason, &e.QuantityAfter, &notes, &e.CreatedAt, &e.CreatedBy); err != nil {
			return nil, err
		}
		e.Reason = domain.InventoryReason(reason)
		e.Notes = textPtr(notes)
		out = append(out, e)
	}
	return out, rows.Err()
}

const propertyColumns = `id, name, address, nightly_rate, is_active, created_at`

func scanProperty(row rowScanner) (domain.Property, error) {
	var (
		p       domain.Property
		address pgtype.Text
		rate    pgtype.Numeric
	)
	if err := row.Scan(&p.ID, &p.Name, &address, &rate, &p.IsActive, &p.CreatedAt); err != nil {
		return domain.Property{}, err
	}
	p.Address = textPtr(address)
	p.NightlyRate = numericFloat(rate)
	return p, nil
}

func (r pgReader) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	p, err := scanProperty(r.q.QueryRow(ctx, `select `+propertyColumns+` from properties where id = $1`, id))
	if err != nil {
		return domain.Property{}, notFoundOr(err, "property", id)
	}
	return p, nil
}

func (r pgReader) ListProperties(ctx context.Context) ([]domain.Property, error) {
	rows, err := r.q.Query(ctx, `select `+propertyColumns+` from properties order by name asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r pgReader) ListBookings(ctx context.Context, f BookingFilter) ([]domain.Booking, error) {
	w := &where{}
	if f.PropertyID != "" {
		w.add("property_id = $%d", f.PropertyID)
	}
	query := `
		select id, property_id, guest_name, guest_email, check_in, check_out, nights, total_amount, status, sale_id, created_at, created_by
		from bookings` + w.sql() + ` order by check_in desc, seq desc` + w.limit(f.Limit)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Booking, 0)
	for rows.Next() {
		var (
			b      domain.Booking
			email  pgtype.Text
			total  pgtype.Numeric
			status string
		)
		if err := rows.Scan(&b.ID, &b.PropertyID, &b.GuestName, &email, &b.CheckIn, &b.CheckOut, &b.Nights, &total, &status, &b.SaleID, &b.CreatedAt, &b.CreatedBy); err != nil {
			return nil, err
		}
		b.GuestEmail = textPtr(email)
		b.TotalAmount = numericFloat(total)
		b.Status = domain.BookingStatus(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

type pgTx struct {
	pgReader
}

func (t *pgTx) NextSequence(ctx context.Context, name string) (int64, error) {
	var value int64
	err := t.q.QueryRow(ctx, `
		insert into sequences (name, value) values ($1, 1)
		on conflict (name) do update set value = sequences.value + 1
		returning value
	`, name).Scan(&value)
	return value, err
}

func categoryArg(c *domain.Category) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func (t *pgTx) GetMenuItemForUpdate(ctx context.Context, id string) (domain.MenuItem, error) {
	m, err := scanMenuItem(t.q.QueryRow(ctx, `select `+menuItemColumns+` from menu_items where id = $1 for update`, id))
	if err != nil {
		return domain.MenuItem{}, notFoundOr(err, "menu item", id)
	}
	return m, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	_, err = t.q.Exec(ctx, `
		insert into orders (
			id, custom_id, customer_name, customer_phone, customer_email, category,
			items, total_amount, status, notes, order_date, created_by
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, o.ID, o.CustomID, o.CustomerName, o.CustomerPhone, o.CustomerEmail, categoryArg(o.Category),
		items, o.TotalAmount, string(o.Status), o.Notes, o.OrderDate, o.CreatedBy)
	return err
}

func (t *pgTx) UpdateOrder(ctx context.Context, o domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	tag, err := t.q.Exec(ctx, `
		update orders set
			customer_name = $2, customer_phone = $3, customer_email = $4, category = $5,
			items = $6, total_amount = $7, status = $8, notes = $9, order_date = $10
		where id = $1
	`, o.ID, o.CustomerName, o.CustomerPhone, o.CustomerEmail, categoryArg(o.Category),
		items, o.TotalAmount, string(o.Status), o.Notes, o.OrderDate)
	return affected(tag, err, "order", o.ID)
}

func (t *pgTx) DeleteOrder(ctx context.Context, id string) error {
	tag, err := t.q.Exec(ctx, `delete from orders where id = $1`, id)
	return affected(tag, err, "order", id)
}

func (t *pgTx) InsertSale(ctx context.Context, s domain.Sale) error {
	items, err := json.Marshal(s.Items)
	if err != nil {
		return err
	}
	_, err = t.q.Exec(ctx, `
		insert into sales (
			id, order_id, custom_sales_id, items, category, total_amount, payment_method,
			customer_name, customer_phone, customer_email, notes, sale_date, created_by, status
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, s.ID, s.OrderID, s.CustomSalesID, items, string(s.Category), s.TotalAmount, string(s.PaymentMethod),
		s.CustomerName, s.CustomerPhone, s.CustomerEmail, s.Notes, s.SaleDate, s.CreatedBy, string(s.Status))
	return err
}

func (t *pgTx) UpdateSale(ctx context.Context, s domain.Sale) error {
	tag, err := t.q.Exec(ctx, `update sales set status = $2, notes = $3 where id = $1`, s.ID, string(s.Status), s.Notes)
	return affected(tag, err, "sale", s.ID)
}

func (t *pgTx) InsertActivity(ctx context.Context, a domain.ActivityRecord) error {
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return err
	}
	var resType *string
	if a.ResourceType != nil {
		rt := string(*a.ResourceType)
		resType = &rt
	}
	_, err = t.q.Exec(ctx, `
		insert into user_activity (id, user_id, action, details, category, resource_type, resource_id, metadata, ts)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, a.ID, a.UserID, string(a.Action), a.Details, a.Category, resType, a.ResourceID, metadata, a.Timestamp)
	return err
}

func (t *pgTx) InsertCoinTransaction(ctx context.Context, c domain.CoinTransaction) error {
	_, err := t.q.Exec(ctx, `
		insert into snooker_coin_transactions (id, custom_id, type, amount, table_name, notes, date, total_amount, sale_id, created_by)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, c.ID, c.CustomID, string(c.Type), c.Amount, c.Table, c.Notes, c.Date, c.TotalAmount, c.SaleID, c.CreatedBy)
	return err
}

func (t *pgTx) InsertExpense(ctx context.Context, e domain.Expense) error {
	_, err := t.q.Exec(ctx, `
		insert into expenses (id, custom_id, title, amount, category, vendor, notes, expense_date, created_by)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, e.ID, e.CustomID, e.Title, e.Amount, string(e.Category), e.Vendor, e.Notes, e.ExpenseDate, e.CreatedBy)
	return err
}

func (t *pgTx) UpdateExpense(ctx context.Context, e domain.Expense) error {
	tag, err := t.q.Exec(ctx, `
		update expenses set title = $2, amount = $3, category = $4, vendor = $5, notes = $6, expense_date = $7
		where id = $1
	`, e.ID, e.Title, e.Amount, string(e.Category), e.Vendor, e.Notes, e.ExpenseDate)
	return affected(tag, err, "expense", e.ID)
}

func (t *pgTx) DeleteExpense(ctx context.Context, id string) error {
	tag, err := t.q.Exec(ctx, `delete from expenses where id = $1`, id)
	return affected(tag, err, "expense", id)
}

func (t *pgTx) InsertMenuItem(ctx context.Context, m domain.MenuItem) error {
	_, err := t.q.Exec(ctx, `
		insert into menu_items (id, name, price, category, stock_quantity, is_available, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, m.ID, m.Name, m.Price, string(m.Category), m.StockQuantity, m.IsAvailable, m.CreatedAt, m.UpdatedAt)
	return err
}

func (t *pgTx) UpdateMenuItem(ctx context.Context, m domain.MenuItem) error {
	tag, err := t.q.Exec(ctx, `
		update menu_items set name = $2, price = $3, category = $4, stock_quantity = $5, is_available = $6, updated_at = $7
		where id = $1
	`, m.ID, m.Name, m.Price, string(m.Category), m.StockQuantity, m.IsAvailable, m.UpdatedAt)
	return affected(tag, err, "menu item", m.ID)
}

func (t *pgTx) DeleteMenuItem(ctx context.Context, id string) error {
	tag, err := t.q.Exec(ctx, `delete from menu_items where id = $1`, id)
	return affected(tag, err, "menu item", id)
}

func (t *pgTx) InsertInventoryEntry(ctx context.Context, e domain.InventoryEntry) error {
	_, err := t.q.Exec(ctx, `
		insert into inventory_history (id, menu_item_id, change, reason, quantity_after, notes, created_at, created_by)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, e.ID, e.MenuItemID, e.Change, string(e.Reason), e.QuantityAfter, e.Notes, e.CreatedAt, e.CreatedBy)
	return err
}

func (t *pgTx) InsertProperty(ctx context.Context, p domain.Property) error {
	_, err := t.q.Exec(ctx, `
		insert into properties (id, name, address, nightly_rate, is_active, created_at)
		values ($1,$2,$3,$4,$5,$6)
	`, p.ID, p.Name, p.Address, p.NightlyRate, p.IsActive, p.CreatedAt)
	return err
}

func (t *pgTx) InsertBooking(ctx context.Context, b domain.Booking) error {
	_, err := t.q.Exec(ctx, `
		insert into bookings (
			id, property_id, guest_name, guest_email, check_in, check_out, nights,
			total_amount, status, sale_id, created_at, created_by
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, b.ID, b.PropertyID, b.GuestName, b.GuestEmail, b.CheckIn, b.CheckOut, b.Nights,
		b.TotalAmount, string(b.Status), b.SaleID, b.CreatedAt, b.CreatedBy)
	return err
}

func (t *pgTx) EnqueueEvent(ctx context.Context, e domain.OutboxEvent) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return err
	}
	_, err = t.q.Exec(ctx, `
		insert into outbox_events (id, type, payload, created_at, attempts)
		values ($1,$2,$3,$4,0)
	`, e.ID, e.Type, payload, e.CreatedAt)
	return err
}

// Touch queues a NOTIFY; Postgres delivers it only if the transaction commits.
func (t *pgTx) Touch(ctx context.Context, collections ...string) error {
	for _, c := range collections {
		if _, err := t.q.Exec(ctx, `select pg_notify($1, $2)`, ChangesChannel, c); err != nil {
			return err
		}
	}
	return nil
}

func affected(tag pgconn.CommandTag, err error, resource, id string) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(resource, id)
	}
	return nil
}
