package domain

import "time"

type OrderLine struct {
	MenuItemID string    `json:"menuItemId"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Quantity   int32     `json:"quantity"`
	Subtotal   float64   `json:"subtotal"`
	Category   *Category `json:"category,omitempty"`
}

type Order struct {
	ID            string      `json:"id"`
	CustomID      string      `json:"customId"`
	CustomerName  *string     `json:"customerName"`
	CustomerPhone *string     `json:"customerPhone"`
	CustomerEmail *string     `json:"customerEmail"`
	Category      *Category   `json:"category"`
	Items         []OrderLine `json:"items"`
	TotalAmount   float64     `json:"totalAmount"`
	Status        OrderStatus `json:"status"`
	Notes         *string     `json:"notes"`
	OrderDate     time.Time   `json:"orderDate"`
	CreatedBy     string      `json:"createdBy"`
}

type SaleLine struct {
	MenuItemID *string  `json:"menuItemId,omitempty"`
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	Quantity   int32    `json:"quantity"`
	Subtotal   float64  `json:"subtotal"`
	Category   Category `json:"category"`
}

// Sale is a ledger entry. OrderID is a free-text reference and is not kept
// in sync with the source record.
type Sale struct {
	ID            string        `json:"id"`
	OrderID       *string       `json:"orderId"`
	CustomSalesID string        `json:"customSalesId"`
	Items         []SaleLine    `json:"items"`
	Category      Category      `json:"category"`
	TotalAmount   float64       `json:"totalAmount"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	CustomerName  *string       `json:"customerName"`
	CustomerPhone *string       `json:"customerPhone"`
	CustomerEmail *string       `json:"customerEmail"`
	Notes         *string       `json:"notes"`
	SaleDate      time.Time     `json:"saleDate"`
	CreatedBy     string        `json:"createdBy"`
	Status        SaleStatus    `json:"status"`
}

type ActivityRecord struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	Action       Action         `json:"action"`
	Details      string         `json:"details"`
	Category     *string        `json:"category,omitempty"`
	ResourceType *ResourceType  `json:"resourceType,omitempty"`
	ResourceID   *string        `json:"resourceId,omitempty"`
	Metadata     map[string]any `json:"metadata"`
	Timestamp    int64          `json:"timestamp"`
}

type CoinTransaction struct {
	ID          string    `json:"id"`
	CustomID    string    `json:"customId"`
	Type        CoinType  `json:"type"`
	Amount      int32     `json:"amount"`
	Table       *string   `json:"table"`
	Notes       *string   `json:"notes"`
	Date        time.Time `json:"date"`
	TotalAmount float64   `json:"totalAmount"`
	SaleID      string    `json:"saleId"`
	CreatedBy   string    `json:"createdBy"`
}

type Expense struct {
	ID          string          `json:"id"`
	CustomID    string          `json:"customId"`
	Title       string          `json:"title"`
	Amount      float64         `json:"amount"`
	Category    ExpenseCategory `json:"category"`
	Vendor      *string         `json:"vendor"`
	Notes       *string         `json:"notes"`
	ExpenseDate time.Time       `json:"expenseDate"`
	CreatedBy   string          `json:"createdBy"`
}

type MenuItem struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Category      Category  `json:"category"`
	StockQuantity int32     `json:"stockQuantity"`
	IsAvailable   bool      `json:"isAvailable"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type InventoryEntry struct {
	ID            string          `json:"id"`
	MenuItemID    string          `json:"menuItemId"`
	Change        int32           `json:"change"`
	Reason        InventoryReason `json:"reason"`
	QuantityAfter int32           `json:"quantityAfter"`
	Notes         *string         `json:"notes"`
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"`
}

type Property struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     *string   `json:"address"`
	NightlyRate float64   `json:"nightlyRate"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Booking struct {
	ID          string        `json:"id"`
	PropertyID  string        `json:"propertyId"`
	GuestName   string        `json:"guestName"`
	GuestEmail  *string       `json:"guestEmail"`
	CheckIn     time.Time     `json:"checkIn"`
	CheckOut    time.Time     `json:"checkOut"`
	Nights      int32         `json:"nights"`
	TotalAmount float64       `json:"totalAmount"`
	Status      BookingStatus `json:"status"`
	SaleID      string        `json:"saleId"`
	CreatedAt   time.Time     `json:"createdAt"`
	CreatedBy   string        `json:"createdBy"`
}

// OutboxEvent is written in the same transaction as the change it describes
// and published afterwards.
type OutboxEvent struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Payload     map[string]any `json:"payload"`
	CreatedAt   time.Time      `json:"createdAt"`
	PublishedAt *time.Time     `json:"publishedAt"`
	Attempts    int32          `json:"attempts"`
}
