package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new OrderRepository backed by Postgres.
func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = "id, customer_uid, customer_name, customer_contact, items, total, status, created_at, updated_at"

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var (
		o     domain.Order
		items []byte
	)
	if err := row.Scan(&o.ID, &o.Customer.UserID, &o.Customer.Name, &o.Customer.Contact,
		&items, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	return &o, nil
}

// Create writes the order and its items in one statement; created_at comes from the server clock.
func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	id := uuid.NewString()
	err = conn(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO orders (id, customer_uid, customer_name, customer_contact, items, total, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		id, o.Customer.UserID, o.Customer.Name, o.Customer.Contact, items, o.Total, o.Status,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	o.ID = id
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1"+forUpdate(ctx), id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1", id, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return expectOneRow(res)
}

func (r *orderRepository) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders ORDER BY created_at DESC, id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, nil
}
