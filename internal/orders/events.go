package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderPaid      = "OrderPaid"
	EventOrderDelivered = "OrderDelivered"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "storefront-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload per event ----

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderCreatedPayload struct {
	OrderID    string    `json:"order_id"`
	ExternalID string    `json:"external_id"`
	UserID     string    `json:"user_id"`
	Items      []ItemQty `json:"items"`
	Total      string    `json:"total"` // decimal string, e.g. "89.97"
}

type OrderPaidPayload struct {
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	PaymentRef string `json:"payment_ref"`
	Total      string `json:"total"`
}

type OrderDeliveredPayload struct {
	OrderID     string `json:"order_id"`
	UserID      string `json:"user_id"`
	DeliveredBy string `json:"delivered_by"` // admin user id
}
