package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const voucherColumns = `id, code, scope, product_id, percent_bps, hard_value, min_qty, max_qty, min_spend,
	starts_at, ends_at, active, usage_limit, used_count, per_user_limit, created_at`

func scanVoucher(row interface{ Scan(...any) error }) (Voucher, error) {
	var v Voucher
	err := row.Scan(&v.ID, &v.Code, &v.Scope, &v.ProductID, &v.PercentBps, &v.HardValue,
		&v.MinQty, &v.MaxQty, &v.MinSpend, &v.StartsAt, &v.EndsAt, &v.Active,
		&v.UsageLimit, &v.UsedCount, &v.PerUserLimit, &v.CreatedAt)
	return v, err
}

// GetVoucherByCode loads one voucher.
func (s *Store) GetVoucherByCode(ctx context.Context, code string) (Voucher, error) {
	return scanVoucher(s.db.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE code = $1`, code))
}

// GetVoucherByCodeForUpdate locks the voucher row for settlement.
func (s *Store) GetVoucherByCodeForUpdate(ctx context.Context, code string) (Voucher, error) {
	return scanVoucher(s.db.QueryRow(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE code = $1 FOR UPDATE`, code))
}

// ListActiveVouchers returns vouchers currently inside their validity window.
func (s *Store) ListActiveVouchers(ctx context.Context, now time.Time) ([]Voucher, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+voucherColumns+` FROM vouchers
		 WHERE active
		   AND (starts_at IS NULL OR starts_at <= $1)
		   AND (ends_at IS NULL OR ends_at >= $1)
		 ORDER BY created_at DESC`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListProductVouchers returns active item-scope vouchers for one product.
func (s *Store) ListProductVouchers(ctx context.Context, productID uuid.UUID, now time.Time) ([]Voucher, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+voucherColumns+` FROM vouchers
		 WHERE active AND scope = 'item' AND product_id = $1
		   AND (starts_at IS NULL OR starts_at <= $2)
		   AND (ends_at IS NULL OR ends_at >= $2)
		 ORDER BY created_at DESC`, productID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CountVoucherUsageByUser reports how many times the user redeemed the voucher.
func (s *Store) CountVoucherUsageByUser(ctx context.Context, voucherID, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM voucher_usages WHERE voucher_id = $1 AND user_id = $2`, voucherID, userID).Scan(&n)
	return n, err
}

// GetVoucherUsageByOrder returns the usage row recorded for an order, if any.
func (s *Store) GetVoucherUsageByOrder(ctx context.Context, voucherID, orderID uuid.UUID) (VoucherUsage, error) {
	var u VoucherUsage
	err := s.db.QueryRow(ctx,
		`SELECT id, voucher_id, order_id, user_id, amount, created_at
		 FROM voucher_usages WHERE voucher_id = $1 AND order_id = $2`, voucherID, orderID).
		Scan(&u.ID, &u.VoucherID, &u.OrderID, &u.UserID, &u.Amount, &u.CreatedAt)
	return u, err
}

// InsertVoucherUsage records a redemption.
func (s *Store) InsertVoucherUsage(ctx context.Context, voucherID, orderID, userID uuid.UUID, amount int64) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO voucher_usages (voucher_id, order_id, user_id, amount) VALUES ($1, $2, $3, $4)`,
		voucherID, orderID, userID, amount)
	return err
}

// IncreaseVoucherUsedCount bumps the global usage counter.
func (s *Store) IncreaseVoucherUsedCount(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `UPDATE vouchers SET used_count = used_count + 1 WHERE id = $1`, id)
	return err
}
