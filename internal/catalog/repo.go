package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("product not found")
	ErrDuplicateReview = errors.New("product already reviewed by this user")
	ErrBadRating       = errors.New("rating must be between 1 and 5")
)

type Repo struct{ DB *pgxpool.Pool }

const productCols = `id, name, description, price, stock, image_url, category_id, rating, num_reviews, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL,
		&p.CategoryID, &p.Rating, &p.NumReviews, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List filters by case-insensitive name substring and/or category id.
// Empty filters mean "all". No ranking beyond name ordering.
func (r *Repo) List(ctx context.Context, keyword, categoryID string) ([]Product, error) {
	q := `SELECT ` + productCols + ` FROM products WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
	                                                 AND ($2 = '' OR category_id = $2)
	       ORDER BY name`
	rows, err := r.DB.Query(ctx, q, keyword, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns the product with its reviews embedded.
func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}

	rows, err := r.DB.Query(ctx, `SELECT id, product_id, user_id, user_name, rating, comment, created_at
	                              FROM reviews WHERE product_id=$1 ORDER BY created_at DESC`, id)
	if err != nil {
		return Product{}, fmt.Errorf("get reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return Product{}, err
		}
		p.Reviews = append(p.Reviews, rv)
	}
	return p, rows.Err()
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, description, image_url FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, p Product) (Product, error) {
	p.ID = uuid.NewString()
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products(id, name, description, price, stock, image_url, category_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.ImageURL, p.CategoryID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (r *Repo) Update(ctx context.Context, p Product) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET name=$2, description=$3, price=$4, stock=$5, image_url=$6,
		                    category_id=$7, updated_at=now()
		WHERE id=$1`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.ImageURL, p.CategoryID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReview inserts one review per (product, user) and recomputes the
// product's rating/num_reviews from the review rows inside the same tx.
// Rating is always derived, never incrementally adjusted.
func (r *Repo) AddReview(ctx context.Context, rv Review) error {
	if rv.Rating < 1 || rv.Rating > 5 {
		return ErrBadRating
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, rv.ProductID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reviews(id, product_id, user_id, user_name, rating, comment)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		uuid.NewString(), rv.ProductID, rv.UserID, rv.UserName, rv.Rating, rv.Comment)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateReview
	}
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE products SET
			rating      = (SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE product_id=$1),
			num_reviews = (SELECT COUNT(*) FROM reviews WHERE product_id=$1),
			updated_at  = now()
		WHERE id=$1`, rv.ProductID)
	if err != nil {
		return fmt.Errorf("recompute rating: %w", err)
	}

	return tx.Commit(ctx)
}
