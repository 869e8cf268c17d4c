package usecase

// Domain events published on the shop.order.events exchange via the
// transactional outbox. Channel names double as routing keys.

const (
	ChannelOrderCreated     = "order.created"
	ChannelOrderCancelled   = "order.cancelled"
	ChannelPaymentCompleted = "payment.completed"
)

type OrderCreatedMsg struct {
	OrderID     string `json:"orderId"`
	UserID      int64  `json:"userId"`
	TotalAmount int64  `json:"totalAmount"`
	ShippingFee int64  `json:"shippingFee"`
}

type OrderCancelledMsg struct {
	OrderID string `json:"orderId"`
	UserID  int64  `json:"userId"`
}

type PaymentCompletedMsg struct {
	OrderID         string `json:"orderId"`
	PaymentID       string `json:"paymentId"`
	TransactionCode string `json:"transactionCode"`
	Amount          int64  `json:"amount"`
}

// ShipmentStatusMsg is consumed from the fulfillment Kafka topic.
type ShipmentStatusMsg struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"` // SHIPPED | DELIVERED
}
