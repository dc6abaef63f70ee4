package domain

// Outbox event types double as AMQP routing keys.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status.updated"
	EventOrderDeleted       = "order.deleted"
	EventSaleCreated        = "sale.created"
	EventSaleStatusUpdated  = "sale.status.updated"
	EventBookingCreated     = "booking.created"
	EventReportShared       = "report.shared"
)
