package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/authx"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type OrdersHandler struct {
	Repo      *orders.Repo
	Carts     *cart.Store
	Assembler *checkout.Assembler
	Auth      authx.Verifier
	Redis     *redis.Client
	Service   string

	// one producer per lifecycle topic
	Created   *kafkax.Producer
	Paid      *kafkax.Producer
	Delivered *kafkax.Producer
}

type createOrderReq struct {
	ExternalID      string               `json:"external_id"`
	ShippingAddress orders.Address       `json:"shipping_address"`
	PaymentMethod   orders.PaymentMethod `json:"payment_method"`
}

type payOrderReq struct {
	PaymentResult orders.PaymentResult `json:"payment_result"`
}

type orderStatusView struct {
	IsPaid      bool          `json:"is_paid"`
	IsDelivered bool          `json:"is_delivered"`
	Steps       []orders.Step `json:"steps"`
}

// cachedStatus is the Redis snapshot of an order's lifecycle flags. The
// owner's user_id rides along so a cache hit can still enforce ownership.
type cachedStatus struct {
	UserID      string `json:"user_id"`
	IsPaid      bool   `json:"is_paid"`
	IsDelivered bool   `json:"is_delivered"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.Auth))
		r.Post("/orders", h.create)
		r.Get("/orders", h.listMine)
		r.Get("/orders/{id}", h.get)
		r.Get("/orders/{id}/status", h.getStatus)
		r.Put("/orders/{id}/pay", h.pay)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/orders/admin/all", h.listAll)
			r.Put("/orders/{id}/deliver", h.deliver)
		})
	})
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()
	me := IdentityFrom(ctx)

	c, err := h.Carts.Load(ctx, me.UserID)
	if err != nil {
		failErr(w, err)
		return
	}

	draft, err := h.Assembler.BuildDraft(c, me.UserID, req.ExternalID, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		failErr(w, err)
		return
	}

	o, existed, err := h.Repo.Create(ctx, draft)
	if err != nil {
		failErr(w, err)
		return
	}

	if !existed {
		// cart is consumed by a successful placement
		if err := h.Carts.Delete(ctx, me.UserID); err != nil {
			failErr(w, err)
			return
		}

		idemKey := fmt.Sprintf(redisx.KeyIdemOrderCreate, draft.ExternalID)
		_ = h.Redis.Set(ctx, idemKey, o.ID, redisx.TTLIdempotency).Err()
		h.cacheStatus(ctx, o)

		h.publish(h.Created, r, orders.EventOrderCreated, o.ID, orders.OrderCreatedPayload{
			OrderID:    o.ID,
			ExternalID: o.ExternalID,
			UserID:     o.UserID,
			Items:      toItemQtys(o.Items),
			Total:      o.TotalPrice.StringFixed(2),
		})
	}

	respondMsg(w, http.StatusCreated, "order", o, "order placed")
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r, 3*time.Second)
	defer cancel()

	os, err := h.Repo.ListByUser(ctx, IdentityFrom(ctx).UserID)
	if err != nil {
		failErr(w, err)
		return
	}
	if os == nil {
		os = []orders.Order{}
	}
	respond(w, http.StatusOK, "orders", os)
}

func (h *OrdersHandler) listAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r, 3*time.Second)
	defer cancel()

	os, err := h.Repo.ListAll(ctx)
	if err != nil {
		failErr(w, err)
		return
	}
	if os == nil {
		os = []orders.Order{}
	}
	respond(w, http.StatusOK, "orders", os)
}

// get returns the full order; only the owner (or an admin) may read it.
func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r, 3*time.Second)
	defer cancel()

	o, err := h.loadOwned(ctx, chi.URLParam(r, "id"), IdentityFrom(ctx))
	if err != nil {
		failErr(w, err)
		return
	}
	respond(w, http.StatusOK, "order", o)
}

// getStatus serves the progress indicator. Flags may come from the Redis
// cache; the steps themselves are always derived on the spot.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r, 3*time.Second)
	defer cancel()
	orderID := chi.URLParam(r, "id")
	me := IdentityFrom(ctx)

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if raw, err := h.Redis.Get(ctx, key).Bytes(); err == nil {
		var cs cachedStatus
		// entries without an owner predate ownership caching; take the DB path
		if json.Unmarshal(raw, &cs) == nil && cs.UserID != "" {
			if cs.UserID != me.UserID && !me.Admin {
				// hide existence from non-owners, same as loadOwned
				failErr(w, orders.ErrNotFound)
				return
			}
			respond(w, http.StatusOK, "status", orderStatusView{
				IsPaid:      cs.IsPaid,
				IsDelivered: cs.IsDelivered,
				Steps:       orders.StatusSteps(orders.Order{IsPaid: cs.IsPaid, IsDelivered: cs.IsDelivered}),
			})
			return
		}
	}

	o, err := h.loadOwned(ctx, orderID, me)
	if err != nil {
		failErr(w, err)
		return
	}
	h.cacheStatus(ctx, o)
	respond(w, http.StatusOK, "status", orderStatusView{
		IsPaid:      o.IsPaid,
		IsDelivered: o.IsDelivered,
		Steps:       orders.StatusSteps(o),
	})
}

func (h *OrdersHandler) pay(w http.ResponseWriter, r *http.Request) {
	var req payOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()
	orderID := chi.URLParam(r, "id")

	// ownership first, then the compare-and-set transition
	if _, err := h.loadOwned(ctx, orderID, IdentityFrom(ctx)); err != nil {
		failErr(w, err)
		return
	}

	o, err := h.Repo.MarkPaid(ctx, orderID, req.PaymentResult)
	if err != nil {
		failErr(w, err)
		return
	}

	h.cacheStatus(ctx, o)
	h.publish(h.Paid, r, orders.EventOrderPaid, o.ID, orders.OrderPaidPayload{
		OrderID:    o.ID,
		UserID:     o.UserID,
		PaymentRef: req.PaymentResult.ID,
		Total:      o.TotalPrice.StringFixed(2),
	})
	respondMsg(w, http.StatusOK, "order", o, "order paid")
}

func (h *OrdersHandler) deliver(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()
	me := IdentityFrom(ctx)

	o, err := h.Repo.MarkDelivered(ctx, chi.URLParam(r, "id"), me)
	if err != nil {
		failErr(w, err)
		return
	}

	h.cacheStatus(ctx, o)
	h.publish(h.Delivered, r, orders.EventOrderDelivered, o.ID, orders.OrderDeliveredPayload{
		OrderID:     o.ID,
		UserID:      o.UserID,
		DeliveredBy: me.UserID,
	})
	respondMsg(w, http.StatusOK, "order", o, "order delivered")
}

func (h *OrdersHandler) loadOwned(ctx context.Context, orderID string, me authx.Identity) (orders.Order, error) {
	o, err := h.Repo.Get(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	if o.UserID != me.UserID && !me.Admin {
		// hide existence from non-owners
		return orders.Order{}, orders.ErrNotFound
	}
	return o, nil
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	b := kafkax.MustMarshal(cachedStatus{UserID: o.UserID, IsPaid: o.IsPaid, IsDelivered: o.IsDelivered})
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) publish(p *kafkax.Producer, r *http.Request, eventType, orderID string, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func toItemQtys(items []orders.OrderItem) []orders.ItemQty {
	out := make([]orders.ItemQty, 0, len(items))
	for _, it := range items {
		out = append(out, orders.ItemQty{ProductID: it.ProductID, Qty: it.Quantity})
	}
	return out
}
