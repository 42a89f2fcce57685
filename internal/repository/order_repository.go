package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"wastemarket/mobile/internal/models"
)

const orderColumns = `id, order_number, product_id, product_name, product_image,
	seller_id, seller_name, seller_email, buyer_id, buyer_name, buyer_email,
	quantity, total_amount::text, status, payment_method, buyer_message, notes,
	created_at, updated_at`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Create(ctx context.Context, o models.Order) error {
	const query = `
		INSERT INTO orders (
			id, order_number, product_id, product_name, product_image,
			seller_id, seller_name, seller_email, buyer_id, buyer_name, buyer_email,
			quantity, total_amount, status, payment_method, buyer_message, notes,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::numeric, $14, $15, $16, $17, $18, $19
		)
	`
	_, err := r.pool.Exec(ctx, query,
		o.ID, o.OrderNumber, o.ProductID, o.ProductName, o.ProductImage,
		o.SellerID, o.SellerName, o.SellerEmail, o.BuyerID, o.BuyerName, o.BuyerEmail,
		o.Quantity, o.TotalAmount.String(), o.Status, o.PaymentMethod, o.BuyerMessage, o.Notes,
		o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Order{}, ErrOrderNotFound
	}
	return o, err
}

func (r *OrderRepository) Update(ctx context.Context, o models.Order) error {
	const query = `
		UPDATE orders SET status = $2, notes = $3, updated_at = $4 WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, o.ID, o.Status, o.Notes, o.UpdatedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context, q OrderQuery) ([]models.Order, int, error) {
	where := ` WHERE ($1 = '' OR buyer_id = $1 OR seller_id = $1) AND ($2 = '' OR status = $2)`
	args := []any{q.UserID, string(q.Status)}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC, id DESC OFFSET $3`
	args = append(args, q.Offset)
	if q.Limit > 0 {
		query += ` LIMIT $4`
		args = append(args, q.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var (
		o     models.Order
		total string
	)
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.ProductID, &o.ProductName, &o.ProductImage,
		&o.SellerID, &o.SellerName, &o.SellerEmail, &o.BuyerID, &o.BuyerName, &o.BuyerEmail,
		&o.Quantity, &total, &o.Status, &o.PaymentMethod, &o.BuyerMessage, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return models.Order{}, err
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return models.Order{}, fmt.Errorf("parse total: %w", err)
	}
	o.TotalAmount = d
	return o, nil
}
