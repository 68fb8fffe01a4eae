package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const cartColumns = `id, user_id, anon_id, order_voucher_code, expires_at, created_at, updated_at`

func scanCart(row interface{ Scan(...any) error }) (Cart, error) {
	var c Cart
	err := row.Scan(&c.ID, &c.UserID, &c.AnonID, &c.OrderVoucherCode, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetCartByID loads one cart.
func (s *Store) GetCartByID(ctx context.Context, id uuid.UUID) (Cart, error) {
	return scanCart(s.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id))
}

// GetActiveCartByUser returns the newest unexpired cart for the user.
func (s *Store) GetActiveCartByUser(ctx context.Context, userID uuid.UUID) (Cart, error) {
	return scanCart(s.db.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM carts WHERE user_id = $1 AND expires_at > now() ORDER BY created_at DESC LIMIT 1`, userID))
}

// GetActiveCartByAnon returns the newest unexpired cart for the guest session.
func (s *Store) GetActiveCartByAnon(ctx context.Context, anonID string) (Cart, error) {
	return scanCart(s.db.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM carts WHERE anon_id = $1 AND expires_at > now() ORDER BY created_at DESC LIMIT 1`, anonID))
}

// CreateCart inserts a cart for a user or guest.
func (s *Store) CreateCart(ctx context.Context, userID *uuid.UUID, anonID *string, expiresAt time.Time) (Cart, error) {
	return scanCart(s.db.QueryRow(ctx,
		`INSERT INTO carts (user_id, anon_id, expires_at) VALUES ($1, $2, $3) RETURNING `+cartColumns,
		userID, anonID, expiresAt))
}

// TouchCart extends the cart lifetime.
func (s *Store) TouchCart(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	_, err := s.db.Exec(ctx, `UPDATE carts SET expires_at = $2, updated_at = now() WHERE id = $1`, id, expiresAt)
	return err
}

// TransferCartToUser reassigns a guest cart after sign-in.
func (s *Store) TransferCartToUser(ctx context.Context, id, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`UPDATE carts SET user_id = $2, anon_id = NULL, updated_at = now() WHERE id = $1`, id, userID)
	return err
}

// SetCartOrderVoucher attaches or clears the order-level voucher code.
func (s *Store) SetCartOrderVoucher(ctx context.Context, id uuid.UUID, code *string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE carts SET order_voucher_code = $2, updated_at = now() WHERE id = $1`, id, code)
	return err
}

const cartItemColumns = `id, cart_id, product_id, name, options, options_key, unit_price, additional_price, qty, voucher_code, created_at`

func scanCartItem(row interface{ Scan(...any) error }) (CartItem, error) {
	var it CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Name, &it.Options, &it.OptionsKey,
		&it.UnitPrice, &it.AdditionalPrice, &it.Qty, &it.VoucherCode, &it.CreatedAt)
	return it, err
}

// ListCartItems returns all lines of a cart.
func (s *Store) ListCartItems(ctx context.Context, cartID uuid.UUID) ([]CartItem, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id = $1 ORDER BY created_at`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CartItem
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetCartItem loads one line by id.
func (s *Store) GetCartItem(ctx context.Context, id uuid.UUID) (CartItem, error) {
	return scanCartItem(s.db.QueryRow(ctx, `SELECT `+cartItemColumns+` FROM cart_items WHERE id = $1`, id))
}

// FindCartItemByKey locates a line by product plus option identity.
func (s *Store) FindCartItemByKey(ctx context.Context, cartID uuid.UUID, optionsKey string) (CartItem, error) {
	return scanCartItem(s.db.QueryRow(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id = $1 AND options_key = $2`, cartID, optionsKey))
}

// CreateCartItem inserts a new line.
func (s *Store) CreateCartItem(ctx context.Context, it CartItem) (CartItem, error) {
	return scanCartItem(s.db.QueryRow(ctx,
		`INSERT INTO cart_items (cart_id, product_id, name, options, options_key, unit_price, additional_price, qty)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+cartItemColumns,
		it.CartID, it.ProductID, it.Name, it.Options, it.OptionsKey, it.UnitPrice, it.AdditionalPrice, it.Qty))
}

// UpdateCartItemQty changes the quantity for a line.
func (s *Store) UpdateCartItemQty(ctx context.Context, id uuid.UUID, qty int32) error {
	_, err := s.db.Exec(ctx, `UPDATE cart_items SET qty = $2 WHERE id = $1`, id, qty)
	return err
}

// SetCartItemVoucher attaches or clears the item-level voucher code.
func (s *Store) SetCartItemVoucher(ctx context.Context, id uuid.UUID, code *string) error {
	_, err := s.db.Exec(ctx, `UPDATE cart_items SET voucher_code = $2 WHERE id = $1`, id, code)
	return err
}

// DeleteCartItem removes a line from the cart.
func (s *Store) DeleteCartItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	return err
}
