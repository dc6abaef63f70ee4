package domain

import "strings"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SalePending   SaleStatus = "pending"
	SaleRefunded  SaleStatus = "refunded"
	SaleCancelled SaleStatus = "cancelled"
)

// Category classifies orders, sales and their lines.
type Category string

const (
	CategoryGeneral      Category = "general"
	CategoryFood         Category = "food"
	CategoryDrinks       Category = "drinks"
	CategoryOrders       Category = "orders"
	CategorySnookerCoins Category = "snooker_coins"
	CategoryRentals      Category = "rentals"
	CategoryServices     Category = "services"
	CategoryOther        Category = "other"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentMobileMoney  PaymentMethod = "mobile_money"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

type CoinType string

const (
	CoinAdd CoinType = "add"
	CoinUse CoinType = "use"
)

type ExpenseCategory string

const (
	ExpenseSupplies    ExpenseCategory = "supplies"
	ExpenseUtilities   ExpenseCategory = "utilities"
	ExpenseSalaries    ExpenseCategory = "salaries"
	ExpenseRent        ExpenseCategory = "rent"
	ExpenseMaintenance ExpenseCategory = "maintenance"
	ExpenseOther       ExpenseCategory = "other"
)

type InventoryReason string

const (
	InventoryRestock    InventoryReason = "restock"
	InventorySale       InventoryReason = "sale"
	InventoryWaste      InventoryReason = "waste"
	InventoryCorrection InventoryReason = "correction"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type EmailTemplate string

const (
	TemplateBookingConfirmation EmailTemplate = "booking-confirmation"
	TemplateReportNotification  EmailTemplate = "report-notification"
)

var (
	orderStatuses     = []OrderStatus{OrderPending, OrderCompleted, OrderCancelled}
	saleStatuses      = []SaleStatus{SaleCompleted, SalePending, SaleRefunded, SaleCancelled}
	categories        = []Category{CategoryGeneral, CategoryFood, CategoryDrinks, CategoryOrders, CategorySnookerCoins, CategoryRentals, CategoryServices, CategoryOther}
	paymentMethods    = []PaymentMethod{PaymentCash, PaymentCard, PaymentMobileMoney, PaymentBankTransfer}
	coinTypes         = []CoinType{CoinAdd, CoinUse}
	expenseCategories = []ExpenseCategory{ExpenseSupplies, ExpenseUtilities, ExpenseSalaries, ExpenseRent, ExpenseMaintenance, ExpenseOther}
	inventoryReasons  = []InventoryReason{InventoryRestock, InventorySale, InventoryWaste, InventoryCorrection}
	emailTemplates    = []EmailTemplate{TemplateBookingConfirmation, TemplateReportNotification}
	bookingStatuses   = []BookingStatus{BookingConfirmed, BookingCancelled}
	resourceTypes     = []ResourceType{ResourceOrder, ResourceSale, ResourceCoinTransaction, ResourceExpense, ResourceMenuItem, ResourceInventory, ResourceProperty, ResourceBooking, ResourceReport}
)

func parseEnum[T ~string](field string, raw string, allowed []T) (T, error) {
	value := T(strings.ToLower(strings.TrimSpace(raw)))
	for _, candidate := range allowed {
		if candidate == value {
			return value, nil
		}
	}
	options := make([]string, 0, len(allowed))
	for _, candidate := range allowed {
		options = append(options, string(candidate))
	}
	var zero T
	return zero, ValidationError("Invalid "+field, map[string]any{
		"field":   field,
		"value":   raw,
		"allowed": options,
	})
}

func ParseOrderStatus(raw string) (OrderStatus, error) {
	return parseEnum("status", raw, orderStatuses)
}

func ParseSaleStatus(raw string) (SaleStatus, error) {
	return parseEnum("status", raw, saleStatuses)
}

func ParseCategory(raw string) (Category, error) {
	return parseEnum("category", raw, categories)
}

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	return parseEnum("paymentMethod", raw, paymentMethods)
}

func ParseCoinType(raw string) (CoinType, error) {
	return parseEnum("type", raw, coinTypes)
}

func ParseExpenseCategory(raw string) (ExpenseCategory, error) {
	return parseEnum("category", raw, expenseCategories)
}

func ParseInventoryReason(raw string) (InventoryReason, error) {
	return parseEnum("reason", raw, inventoryReasons)
}

func ParseEmailTemplate(raw string) (EmailTemplate, error) {
	return parseEnum("template", raw, emailTemplates)
}

func ParseBookingStatus(raw string) (BookingStatus, error) {
	return parseEnum("status", raw, bookingStatuses)
}

func ParseResourceType(raw string) (ResourceType, error) {
	return parseEnum("resourceType", raw, resourceTypes)
}

// OptionalCategory parses raw when it is non-empty and falls back otherwise.
func OptionalCategory(raw string, fallback Category) (Category, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return ParseCategory(raw)
}
