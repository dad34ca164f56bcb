package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/authx"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type ProductsHandler struct {
	Catalog *catalog.Repo
	Auth    authx.Verifier
}

// ProductReq carries create/update bodies. Price is decimal so both JSON
// numbers and quoted strings parse; junk is rejected at this boundary.
type ProductReq struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
	CategoryID  string          `json:"category_id"`
}

type ReviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
	r.Get("/categories", h.listCategories)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.Auth))
		r.Post("/products/{id}/reviews", h.addReview)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Post("/products", h.create)
			r.Put("/products/{id}", h.update)
			r.Delete("/products/{id}", h.delete)
		})
	})
}

func reqCtx(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r, 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.List(ctx, r.URL.Query().Get("keyword"), r.URL.Query().Get("category"))
	if err != nil {
		failErr(w, err)
		return
	}
	if ps == nil {
		ps = []catalog.Product{}
	}
	respond(w, http.StatusOK, "products", ps)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r, 3*time.Second)
	defer cancel()

	p, err := h.Catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		failErr(w, err)
		return
	}
	respond(w, http.StatusOK, "product", p)
}

func (h *ProductsHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r, 3*time.Second)
	defer cancel()

	cs, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		failErr(w, err)
		return
	}
	respond(w, http.StatusOK, "categories", cs)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req ProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" || req.Price.IsNegative() {
		fail(w, http.StatusBadRequest, "name required, price must not be negative")
		return
	}

	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()

	p, err := h.Catalog.Create(ctx, catalog.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		failErr(w, err)
		return
	}
	respond(w, http.StatusCreated, "product", p)
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req ProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()

	p := catalog.Product{
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	}
	if err := h.Catalog.Update(ctx, p); err != nil {
		failErr(w, err)
		return
	}
	respond(w, http.StatusOK, "product", p)
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()

	if err := h.Catalog.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		failErr(w, err)
		return
	}
	respondMsg(w, http.StatusOK, "product_id", chi.URLParam(r, "id"), "product removed")
}

func (h *ProductsHandler) addReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := reqCtx(r, 5*time.Second)
	defer cancel()

	id := IdentityFrom(ctx)
	err := h.Catalog.AddReview(ctx, catalog.Review{
		ProductID: chi.URLParam(r, "id"),
		UserID:    id.UserID,
		UserName:  id.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		failErr(w, err)
		return
	}
	respondMsg(w, http.StatusCreated, "product_id", chi.URLParam(r, "id"), "review added")
}
