package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"wastemarket/mobile/internal/models"
)

const productColumns = `id, name, title, description, price::text, status, location, category,
	image_uri, seller_id, seller_name, seller_email, created_at, updated_at`

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) Create(ctx context.Context, p models.Product) error {
	const query = `
		INSERT INTO products (
			id, name, title, description, price, status, location, category,
			image_uri, seller_id, seller_name, seller_email, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Title, p.Description, p.Price.String(), p.Status, p.Location, p.Category,
		p.ImageURI, p.SellerID, p.SellerName, p.SellerEmail, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *ProductRepository) Update(ctx context.Context, p models.Product) error {
	const query = `
		UPDATE products
		SET name = $2, title = $3, description = $4, price = $5::numeric, status = $6,
		    location = $7, category = $8, image_uri = $9, updated_at = $10
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Title, p.Description, p.Price.String(), p.Status,
		p.Location, p.Category, p.ImageURI, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) List(ctx context.Context, q ProductQuery) ([]models.Product, int, error) {
	where, args := productFilter(q)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC OFFSET $%d", len(args)+1)
	args = append(args, q.Offset)
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, q.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func productFilter(q ProductQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.Category != "" {
		add("category = $%d", q.Category)
	}
	if q.Status != "" {
		add("status = $%d", q.Status)
	}
	if q.SellerID != "" {
		add("seller_id = $%d", q.SellerID)
	}
	if q.Location != "" {
		add("location ILIKE '%%' || $%d || '%%'", q.Location)
	}
	if q.Search != "" {
		args = append(args, q.Search)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')", n, n))
	}
	if q.MinPrice != nil {
		add("price >= $%d::numeric", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		add("price <= $%d::numeric", q.MaxPrice.String())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var (
		p     models.Product
		price string
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Title, &p.Description, &price, &p.Status, &p.Location, &p.Category,
		&p.ImageURI, &p.SellerID, &p.SellerName, &p.SellerEmail, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return models.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return models.Product{}, fmt.Errorf("parse price: %w", err)
	}
	p.Price = d
	return p, nil
}
