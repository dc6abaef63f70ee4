package domain

// Action names a mutating operation recorded in the activity log.
type Action string

const (
	ActionCreateOrder      Action = "create_order"
	ActionUpdateOrder      Action = "update_order"
	ActionDeleteOrder      Action = "delete_order"
	ActionCreateSale       Action = "create_sale"
	ActionUpdateSaleStatus Action = "update_sale_status"
	ActionAddSnookerCoins  Action = "add_snooker_coins"
	ActionUseSnookerCoins  Action = "use_snooker_coins"
	ActionCreateExpense    Action = "create_expense"
	ActionUpdateExpense    Action = "update_expense"
	ActionDeleteExpense    Action = "delete_expense"
	ActionCreateMenuItem   Action = "create_menu_item"
	ActionUpdateMenuItem   Action = "update_menu_item"
	ActionDeleteMenuItem   Action = "delete_menu_item"
	ActionAdjustInventory  Action = "adjust_inventory"
	ActionCreateProperty   Action = "create_property"
	ActionCreateBooking    Action = "create_booking"
	ActionShareSalesReport Action = "share_report"
)

var actions = []Action{
	ActionCreateOrder, ActionUpdateOrder, ActionDeleteOrder,
	ActionCreateSale, ActionUpdateSaleStatus,
	ActionAddSnookerCoins, ActionUseSnookerCoins,
	ActionCreateExpense, ActionUpdateExpense, ActionDeleteExpense,
	ActionCreateMenuItem, ActionUpdateMenuItem, ActionDeleteMenuItem, ActionAdjustInventory,
	ActionCreateProperty, ActionCreateBooking, ActionShareSalesReport,
}

func ParseAction(raw string) (Action, error) {
	return parseEnum("action", raw, actions)
}

type ResourceType string

const (
	ResourceOrder           ResourceType = "order"
	ResourceSale            ResourceType = "sale"
	ResourceCoinTransaction ResourceType = "snooker_coin_transaction"
	ResourceExpense         ResourceType = "expense"
	ResourceMenuItem        ResourceType = "menu_item"
	ResourceInventory       ResourceType = "inventory"
	ResourceProperty        ResourceType = "property"
	ResourceBooking         ResourceType = "booking"
	ResourceReport          ResourceType = "report"
)

// Collection names as exposed to realtime subscribers.
const (
	CollectionOrders           = "orders"
	CollectionSales            = "sales"
	CollectionMenuItems        = "menuItems"
	CollectionProperties       = "properties"
	CollectionBookings         = "bookings"
	CollectionExpenses         = "expenses"
	CollectionCoinTransactions = "snookerCoinTransactions"
	CollectionActivity         = "userActivity"
	CollectionInventory        = "inventoryHistory"
)

var Collections = []string{
	CollectionOrders,
	CollectionSales,
	CollectionMenuItems,
	CollectionProperties,
	CollectionBookings,
	CollectionExpenses,
	CollectionCoinTransactions,
	CollectionActivity,
	CollectionInventory,
}

func IsCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}
