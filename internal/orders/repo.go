package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-storefront/internal/authx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type Repo struct{ DB *pgxpool.Pool }

const orderCols = `id, external_id, user_id,
	ship_street, ship_city, ship_postal_code, ship_country,
	payment_method, items_price, shipping_price, tax_price, total_price,
	is_paid, paid_at, payment_id, payment_status, payment_update_time,
	is_delivered, delivered_at, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var payID, payStatus, payUpdate *string
	err := row.Scan(&o.ID, &o.ExternalID, &o.UserID,
		&o.ShippingAddress.Street, &o.ShippingAddress.City,
		&o.ShippingAddress.PostalCode, &o.ShippingAddress.Country,
		&o.PaymentMethod, &o.ItemsPrice, &o.ShippingPrice, &o.TaxPrice, &o.TotalPrice,
		&o.IsPaid, &o.PaidAt, &payID, &payStatus, &payUpdate,
		&o.IsDelivered, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if payID != nil {
		o.Payment = &PaymentResult{ID: *payID}
		if payStatus != nil {
			o.Payment.Status = *payStatus
		}
		if payUpdate != nil {
			o.Payment.UpdateTime = *payUpdate
		}
	}
	return o, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *Repo) byExternalID(ctx context.Context, externalID string) (Order, error) {
	var id string
	if err := r.DB.QueryRow(ctx, `SELECT id FROM orders WHERE external_id=$1`, externalID).Scan(&id); err != nil {
		return Order{}, err
	}
	return r.Get(ctx, id)
}

// Create persists a checkout draft. Idempotent via external_id: a retry of
// the same draft returns the already-created order with existed=true, and a
// concurrent duplicate submission is caught on the unique constraint.
// Stock is reserved inside the same tx: each product row is locked
// (FOR UPDATE), checked against the requested quantity, then decremented.
// Any shortage rolls the whole order back.
func (r *Repo) Create(ctx context.Context, d Draft) (Order, bool, error) {
	o, err := r.byExternalID(ctx, d.ExternalID)
	if err == nil {
		return o, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Order{}, false, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range d.Items {
		var stock int
		err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).Scan(&stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, false, fmt.Errorf("product %s: %w", it.ProductID, ErrNotFound)
		}
		if err != nil {
			return Order{}, false, err
		}
		if stock < it.Quantity {
			return Order{}, false, fmt.Errorf("product %s (have %d, want %d): %w",
				it.ProductID, stock, it.Quantity, ErrInsufficientStock)
		}
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2 WHERE id=$1`, it.ProductID, it.Quantity); err != nil {
			return Order{}, false, err
		}
	}

	orderID := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, external_id, user_id,
			ship_street, ship_city, ship_postal_code, ship_country,
			payment_method, items_price, shipping_price, tax_price, total_price)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		orderID, d.ExternalID, d.UserID,
		d.ShippingAddress.Street, d.ShippingAddress.City,
		d.ShippingAddress.PostalCode, d.ShippingAddress.Country,
		string(d.PaymentMethod), d.ItemsPrice, d.ShippingPrice, d.TaxPrice, d.TotalPrice)
	if isUniqueViolation(err) {
		// lost the race against a concurrent submission of the same draft;
		// the tx rolls back and the winner's order is the result
		o, err := r.byExternalID(ctx, d.ExternalID)
		return o, true, err
	}
	if err != nil {
		return Order{}, false, err
	}

	for _, it := range d.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, name, unit_price, qty, image_url)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			orderID, it.ProductID, it.Name, it.UnitPrice, it.Quantity, it.ImageURL)
		if err != nil {
			return Order{}, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, false, err
	}
	o, err = r.Get(ctx, orderID)
	return o, false, err
}

func (r *Repo) Get(ctx context.Context, orderID string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.DB.Query(ctx, `SELECT product_id, name, unit_price, qty, image_url
	                              FROM order_items WHERE order_id=$1 ORDER BY product_id`, orderID)
	if err != nil {
		return Order{}, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.UnitPrice, &it.Quantity, &it.ImageURL); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

func (r *Repo) listWhere(ctx context.Context, where string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderCols+` FROM orders `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListByUser returns order summaries (no line items) newest first.
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.listWhere(ctx, `WHERE user_id=$1`, userID)
}

func (r *Repo) ListAll(ctx context.Context) ([]Order, error) {
	return r.listWhere(ctx, ``)
}

// MarkPaid is a compare-and-set keyed by order id: of two concurrent pay
// attempts exactly one flips is_paid, the other gets ErrAlreadyPaid.
func (r *Repo) MarkPaid(ctx context.Context, orderID string, res PaymentResult) (Order, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET is_paid=true, paid_at=now(),
			payment_id=$2, payment_status=$3, payment_update_time=$4, updated_at=now()
		WHERE id=$1 AND is_paid=false`,
		orderID, res.ID, res.Status, res.UpdateTime)
	if err != nil {
		return Order{}, fmt.Errorf("mark paid: %w", err)
	}
	if ct.RowsAffected() == 0 {
		var isPaid bool
		err := r.DB.QueryRow(ctx, `SELECT is_paid FROM orders WHERE id=$1`, orderID).Scan(&isPaid)
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		if err != nil {
			return Order{}, err
		}
		return Order{}, ErrAlreadyPaid
	}
	return r.Get(ctx, orderID)
}

// MarkDelivered requires an administrator and a paid, undelivered order.
// Same compare-and-set discipline as MarkPaid.
func (r *Repo) MarkDelivered(ctx context.Context, orderID string, actor authx.Identity) (Order, error) {
	if !actor.Admin {
		return Order{}, ErrForbidden
	}

	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET is_delivered=true, delivered_at=now(), updated_at=now()
		WHERE id=$1 AND is_paid=true AND is_delivered=false`, orderID)
	if err != nil {
		return Order{}, fmt.Errorf("mark delivered: %w", err)
	}
	if ct.RowsAffected() == 0 {
		var isPaid, isDelivered bool
		err := r.DB.QueryRow(ctx, `SELECT is_paid, is_delivered FROM orders WHERE id=$1`, orderID).Scan(&isPaid, &isDelivered)
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		if err != nil {
			return Order{}, err
		}
		if isDelivered {
			return Order{}, ErrAlreadyDelivered
		}
		return Order{}, ErrNotPaid
	}
	return r.Get(ctx, orderID)
}
