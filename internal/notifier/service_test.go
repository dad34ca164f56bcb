package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &Service{Redis: rdb, ServiceName: "notifier"}, rdb
}

func lifecycleMessage(t *testing.T, eventType string, payload any) kafkago.Message {
	t.Helper()
	env := orders.Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "storefront-api",
		Payload:      kafkax.MustMarshal(payload),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func cachedFlags(t *testing.T, rdb *redis.Client, orderID string) statusFlags {
	t.Helper()
	raw, err := rdb.Get(context.Background(), fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Bytes()
	require.NoError(t, err)
	var f statusFlags
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

func TestHandleOrderEventAdvancesStatusCache(t *testing.T) {
	svc, rdb := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleOrderEvent(ctx, lifecycleMessage(t, orders.EventOrderCreated,
		orders.OrderCreatedPayload{OrderID: "o-1", UserID: "u-1", Total: "89.97"})))
	f := cachedFlags(t, rdb, "o-1")
	assert.Equal(t, "u-1", f.UserID)
	assert.False(t, f.IsPaid)

	require.NoError(t, svc.HandleOrderEvent(ctx, lifecycleMessage(t, orders.EventOrderPaid,
		orders.OrderPaidPayload{OrderID: "o-1", UserID: "u-1", PaymentRef: "pp-1", Total: "89.97"})))
	f = cachedFlags(t, rdb, "o-1")
	assert.True(t, f.IsPaid)
	assert.False(t, f.IsDelivered)

	require.NoError(t, svc.HandleOrderEvent(ctx, lifecycleMessage(t, orders.EventOrderDelivered,
		orders.OrderDeliveredPayload{OrderID: "o-1", UserID: "u-1", DeliveredBy: "u-admin"})))
	f = cachedFlags(t, rdb, "o-1")
	assert.True(t, f.IsPaid)
	assert.True(t, f.IsDelivered)
}

// Topics are consumed independently; a lagging created event must not reset
// the cache of an order that is already paid.
func TestHandleOrderEventLaggingCreatedDoesNotDowngrade(t *testing.T) {
	svc, rdb := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleOrderEvent(ctx, lifecycleMessage(t, orders.EventOrderPaid,
		orders.OrderPaidPayload{OrderID: "o-2", UserID: "u-1", PaymentRef: "pp-2", Total: "19.99"})))
	require.True(t, cachedFlags(t, rdb, "o-2").IsPaid)

	require.NoError(t, svc.HandleOrderEvent(ctx, lifecycleMessage(t, orders.EventOrderCreated,
		orders.OrderCreatedPayload{OrderID: "o-2", UserID: "u-1", Total: "19.99"})))

	assert.True(t, cachedFlags(t, rdb, "o-2").IsPaid)
}

func TestHandleOrderEventDedup(t *testing.T) {
	svc, rdb := newService(t)
	ctx := context.Background()

	m := lifecycleMessage(t, orders.EventOrderPaid,
		orders.OrderPaidPayload{OrderID: "o-3", UserID: "u-1", PaymentRef: "pp-3", Total: "49.99"})

	// mark the event id as already processed; the redelivery is a no-op
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(m.Value, &env))
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	require.NoError(t, rdb.Set(ctx, dkey, "1", redisx.TTLDedup).Err())

	require.NoError(t, svc.HandleOrderEvent(ctx, m))
	err := rdb.Get(ctx, fmt.Sprintf(redisx.KeyOrderStatus, "o-3")).Err()
	assert.ErrorIs(t, err, redis.Nil)
}
