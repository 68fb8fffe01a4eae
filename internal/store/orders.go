package store

import (
	"context"

	"github.com/google/uuid"
)

const orderColumns = `id, user_id, status, currency, subtotal, discount, shipping, total,
	order_voucher_code, address, notes, created_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.Currency, &o.Subtotal, &o.Discount,
		&o.Shipping, &o.Total, &o.OrderVoucherCode, &o.Address, &o.Notes, &o.CreatedAt)
	return o, err
}

// CreateOrder inserts a placed order with its frozen pricing breakdown.
func (s *Store) CreateOrder(ctx context.Context, o Order) (Order, error) {
	return scanOrder(s.db.QueryRow(ctx,
		`INSERT INTO orders (user_id, status, currency, subtotal, discount, shipping, total, order_voucher_code, address, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING `+orderColumns,
		o.UserID, o.Status, o.Currency, o.Subtotal, o.Discount, o.Shipping, o.Total,
		o.OrderVoucherCode, o.Address, o.Notes))
}

// CreateOrderItem inserts one frozen order line.
func (s *Store) CreateOrderItem(ctx context.Context, it OrderItem) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO order_items (order_id, product_id, name, options, unit_price, additional_price, qty, discount, subtotal)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		it.OrderID, it.ProductID, it.Name, it.Options, it.UnitPrice, it.AdditionalPrice, it.Qty, it.Discount, it.Subtotal)
	return err
}

// GetOrderByID loads one order.
func (s *Store) GetOrderByID(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

// ListOrdersByUser returns the user's order history, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
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

// CountOrdersByUser returns how many orders the user has placed.
func (s *Store) CountOrdersByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

// ListOrderItems returns the frozen lines of an order.
func (s *Store) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, order_id, product_id, name, options, unit_price, additional_price, qty, discount, subtotal
		 FROM order_items WHERE order_id = $1 ORDER BY name`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Options,
			&it.UnitPrice, &it.AdditionalPrice, &it.Qty, &it.Discount, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
