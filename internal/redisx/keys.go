package redisx

import "time"

const (
	// Cart document per session: cart:{user_id} -> JSON array of line items
	KeyCart = "cart:%s"

	// Auth session written by the identity service: session:{token} -> identity JSON
	KeySession = "session:%s"

	// Idempotency create order: idem:order:create:{external_id} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Cache of order status flags: order_status:{order_id} ->
	// {"user_id":...,"is_paid":...,"is_delivered":...}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCart        = 7 * 24 * time.Hour
	TTLSession     = 24 * time.Hour
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
