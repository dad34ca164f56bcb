package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-storefront/internal/authx"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/orders"
)

// Every response uses the same envelope: {"success": bool, "<resource>": …,
// "message": "…"}. Clients read success, not just the transport code.

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respond(w http.ResponseWriter, code int, key string, v any) {
	writeJSON(w, code, map[string]any{"success": true, key: v})
}

func respondMsg(w http.ResponseWriter, code int, key string, v any, msg string) {
	writeJSON(w, code, map[string]any{"success": true, key: v, "message": msg})
}

func fail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"success": false, "message": msg})
}

// failErr maps domain errors to status codes; anything unknown is a 500
// with a generic message so internals never leak.
func failErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, orders.ErrNotFound),
		errors.Is(err, cart.ErrNotInCart):
		fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, catalog.ErrBadRating),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrMissingShipping),
		errors.Is(err, checkout.ErrBadPaymentMethod):
		fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrAlreadyPaid),
		errors.Is(err, orders.ErrNotPaid),
		errors.Is(err, orders.ErrAlreadyDelivered),
		errors.Is(err, orders.ErrInsufficientStock),
		errors.Is(err, catalog.ErrDuplicateReview):
		fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, orders.ErrForbidden):
		fail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, authx.ErrInvalidToken):
		fail(w, http.StatusUnauthorized, err.Error())
	default:
		fail(w, http.StatusInternalServerError, "internal error")
	}
}
