package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Service reacts to order lifecycle events: refreshes the order-status
// cache and emits customer notifications (logged; mail delivery is another
// service's problem).
type Service struct {
	Redis       *redis.Client
	ServiceName string
}

type statusFlags struct {
	UserID      string `json:"user_id"`
	IsPaid      bool   `json:"is_paid"`
	IsDelivered bool   `json:"is_delivered"`
}

// rank orders the lifecycle flags along the one-way ladder.
func rank(f statusFlags) int {
	switch {
	case f.IsDelivered:
		return 2
	case f.IsPaid:
		return 1
	default:
		return 0
	}
}

// HandleOrderEvent is installed as the consumer handler for all three order
// topics.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// dedup via Redis on event_id; the same event may be redelivered
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.cacheStatus(ctx, p.OrderID, statusFlags{UserID: p.UserID})
		log.Printf("[%s] order %s placed by user %s, total %s", s.ServiceName, p.OrderID, p.UserID, p.Total)

	case orders.EventOrderPaid:
		p, err := kafkax.UnwrapPayload[orders.OrderPaidPayload](env.Payload)
		if err != nil {
			return err
		}
		s.cacheStatus(ctx, p.OrderID, statusFlags{UserID: p.UserID, IsPaid: true})
		log.Printf("[%s] order %s paid (ref %s), sending receipt to user %s", s.ServiceName, p.OrderID, p.PaymentRef, p.UserID)

	case orders.EventOrderDelivered:
		p, err := kafkax.UnwrapPayload[orders.OrderDeliveredPayload](env.Payload)
		if err != nil {
			return err
		}
		s.cacheStatus(ctx, p.OrderID, statusFlags{UserID: p.UserID, IsPaid: true, IsDelivered: true})
		log.Printf("[%s] order %s delivered (by %s), notifying user %s", s.ServiceName, p.OrderID, p.DeliveredBy, p.UserID)

	default:
		// not ours, ignore
	}
	return nil
}

// cacheStatus refreshes the order-status cache but never moves it backwards:
// the three topics are consumed independently, so a lagging created event can
// arrive after the paid one.
func (s *Service) cacheStatus(ctx context.Context, orderID string, f statusFlags) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if raw, err := s.Redis.Get(ctx, key).Bytes(); err == nil {
		var cur statusFlags
		if json.Unmarshal(raw, &cur) == nil && rank(cur) >= rank(f) {
			return
		}
	}
	_ = s.Redis.Set(ctx, key, kafkax.MustMarshal(f), redisx.TTLStatusCache).Err()
}
