package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/authx"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	Carts   *cart.Store
	Catalog *catalog.Repo
	Auth    authx.Verifier
}

type addToCartReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateCartReq struct {
	Quantity int `json:"quantity"`
}

// cartView is the cart resource in responses: line items plus totals,
// recomputed from the items on every render.
type cartView struct {
	Items     []cart.LineItem `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  string          `json:"subtotal"`
}

func viewOf(c *cart.Cart) cartView {
	items := c.Items()
	if items == nil {
		items = []cart.LineItem{}
	}
	t := c.Totals()
	return cartView{Items: items, ItemCount: t.ItemCount, Subtotal: t.Subtotal.StringFixed(2)}
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.Auth))
		r.Get("/cart", h.get)
		r.Post("/cart", h.add)
		r.Delete("/cart", h.clear)
		r.Put("/cart/{productID}", h.update)
		r.Delete("/cart/{productID}", h.remove)
	})
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r, 3*time.Second)
	defer cancel()

	c, err := h.Carts.Load(ctx, IdentityFrom(ctx).UserID)
	if err != nil {
		failErr(w, err)
		return
	}
	respond(w, http.StatusOK, "cart", viewOf(c))
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addToCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == "" {
		fail(w, http.StatusBadRequest, "product_id required")
		return
	}

	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()
	userID := IdentityFrom(ctx).UserID

	// stock and price come from the catalog, never from the client
	p, err := h.Catalog.Get(ctx, req.ProductID)
	if err != nil {
		failErr(w, err)
		return
	}

	c, err := h.Carts.Load(ctx, userID)
	if err != nil {
		failErr(w, err)
		return
	}

	clamped, err := c.AddItem(p, req.Quantity)
	if err != nil {
		failErr(w, err)
		return
	}
	if err := h.Carts.Save(ctx, userID, c); err != nil {
		failErr(w, err)
		return
	}

	if clamped {
		respondMsg(w, http.StatusOK, "cart", viewOf(c), "quantity reduced to available stock")
		return
	}
	respond(w, http.StatusOK, "cart", viewOf(c))
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()
	userID := IdentityFrom(ctx).UserID

	c, err := h.Carts.Load(ctx, userID)
	if err != nil {
		failErr(w, err)
		return
	}
	if err := c.UpdateQuantity(chi.URLParam(r, "productID"), req.Quantity); err != nil {
		failErr(w, err)
		return
	}
	if err := h.Carts.Save(ctx, userID, c); err != nil {
		failErr(w, err)
		return
	}
	respond(w, http.StatusOK, "cart", viewOf(c))
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()
	userID := IdentityFrom(ctx).UserID

	c, err := h.Carts.Load(ctx, userID)
	if err != nil {
		failErr(w, err)
		return
	}
	c.RemoveItem(chi.URLParam(r, "productID"))
	if err := h.Carts.Save(ctx, userID, c); err != nil {
		failErr(w, err)
		return
	}
	respond(w, http.StatusOK, "cart", viewOf(c))
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()

	if err := h.Carts.Delete(ctx, IdentityFrom(ctx).UserID); err != nil {
		failErr(w, err)
		return
	}
	respond(w, http.StatusOK, "cart", cartView{Items: []cart.LineItem{}, Subtotal: "0.00"})
}
