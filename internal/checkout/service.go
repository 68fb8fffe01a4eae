package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/sugarnest/bakery-api/internal/events"
	"github.com/sugarnest/bakery-api/internal/lock"
	"github.com/sugarnest/bakery-api/internal/notify"
	"github.com/sugarnest/bakery-api/internal/obs"
	"github.com/sugarnest/bakery-api/internal/pricing"
	"github.com/sugarnest/bakery-api/internal/store"
	"github.com/sugarnest/bakery-api/internal/voucher"
)

// StatusConfirmed is the initial status for a placed order. Payment is
// collected on delivery, so there is no pending-payment state.
const StatusConfirmed = "CONFIRMED"

var (
	// ErrEmptyCart is returned when checkout is attempted on a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCartNotOwned is returned when the cart belongs to a different user.
	ErrCartNotOwned = errors.New("cart does not belong to user")
	// ErrInProgress is returned when another checkout already holds the cart lock.
	ErrInProgress = errors.New("checkout already in progress")
)

// Addr is the delivery address captured at checkout.
type Addr struct {
	ReceiverName string `json:"receiverName" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	District     string `json:"district" validate:"required"`
	City         string `json:"city" validate:"required"`
	AddressLine  string `json:"addressLine" validate:"required"`
	Note         string `json:"note"`
}

// Input is the checkout request body.
type Input struct {
	CartID      string  `json:"cartId" validate:"required,uuid"`
	Address     Addr    `json:"address" validate:"required"`
	ShippingFee int64   `json:"shippingFee" validate:"gte=0"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Notes       *string `json:"notes"`
}

// Output summarizes the created order.
type Output struct {
	OrderID  string `json:"orderId"`
	Status   string `json:"status"`
	Subtotal int64  `json:"subtotal"`
	Discount int64  `json:"discount"`
	Shipping int64  `json:"shipping"`
	Total    int64  `json:"total"`
}

// Service turns a cart into an order inside one transaction.
type Service struct {
	Pool     *pgxpool.Pool
	Store    *store.Store
	Locker   lock.Locker
	Events   *events.Bus
	Notify   *notify.Enqueuer
	Validate *validator.Validate
	Logger   zerolog.Logger
	Currency string
	LockTTL  time.Duration
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) lockTTL() time.Duration {
	if s == nil || s.LockTTL <= 0 {
		return 15 * time.Second
	}
	return s.LockTTL
}

// Create places an order from the cart's current state. Prices and discounts
// are always recomputed server-side; figures sent by the client are ignored.
func (s *Service) Create(ctx context.Context, userID string, in Input) (Output, error) {
	if s == nil || s.Store == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if userID == "" {
		return Output{}, errors.New("user is required for checkout")
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return Output{}, fmt.Errorf("validate input: %w", err)
		}
	}
	uID, err := uuid.Parse(userID)
	if err != nil {
		return Output{}, fmt.Errorf("invalid user id: %w", err)
	}
	cID, err := uuid.Parse(in.CartID)
	if err != nil {
		return Output{}, fmt.Errorf("invalid cart id: %w", err)
	}

	var out Output
	run := func(ctx context.Context) error {
		var runErr error
		out, runErr = s.create(ctx, uID, cID, in)
		return runErr
	}
	if s.Locker.Client != nil {
		err = s.Locker.TryLock(ctx, "checkout:"+cID.String(), s.lockTTL(), run)
		if errors.Is(err, lock.ErrNotAcquired) {
			return Output{}, ErrInProgress
		}
	} else {
		err = run(ctx)
	}
	if obs.OrdersCreatedTotal != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		obs.OrdersCreatedTotal.WithLabelValues(result).Inc()
	}
	return out, err
}

func (s *Service) create(ctx context.Context, userID, cartID uuid.UUID, in Input) (Output, error) {
	if s.Pool == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	txStore := s.Store.WithTx(tx)
	vouchers := &voucher.Service{Q: txStore, Now: s.Now}

	cartRow, err := txStore.GetCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Output{}, fmt.Errorf("cart %s: %w", cartID, pgx.ErrNoRows)
		}
		return Output{}, err
	}
	if cartRow.UserID != nil && *cartRow.UserID != userID {
		return Output{}, ErrCartNotOwned
	}
	items, err := txStore.ListCartItems(ctx, cartID)
	if err != nil {
		return Output{}, err
	}
	if len(items) == 0 {
		return Output{}, ErrEmptyCart
	}

	lines := make([]pricing.LineItem, 0, len(items))
	itemVouchers := make(map[string]*pricing.Voucher)
	codeByKey := make(map[string]string)
	for _, it := range items {
		line := pricing.LineItem{
			ProductID:       it.ProductID.String(),
			Options:         it.Options,
			UnitPrice:       it.UnitPrice,
			AdditionalPrice: it.AdditionalPrice,
			Qty:             int(it.Qty),
		}
		lines = append(lines, line)
		if it.VoucherCode == nil || *it.VoucherCode == "" {
			continue
		}
		rule, err := vouchers.ResolveForPricing(ctx, *it.VoucherCode)
		if err != nil {
			return Output{}, err
		}
		if rule != nil {
			itemVouchers[line.Key()] = rule
			codeByKey[line.Key()] = *it.VoucherCode
		}
	}

	var orderRule *pricing.Voucher
	if cartRow.OrderVoucherCode != nil && *cartRow.OrderVoucherCode != "" {
		orderRule, err = vouchers.ResolveForPricing(ctx, *cartRow.OrderVoucherCode)
		if err != nil {
			return Output{}, err
		}
	}

	summary, err := pricing.ComputeTotals(lines, itemVouchers, orderRule, in.ShippingFee, s.now())
	if err != nil {
		return Output{}, err
	}

	addressJSON, err := json.Marshal(in.Address)
	if err != nil {
		return Output{}, fmt.Errorf("encode address: %w", err)
	}
	order, err := txStore.CreateOrder(ctx, store.Order{
		UserID:           userID,
		Status:           StatusConfirmed,
		Currency:         s.Currency,
		Subtotal:         summary.Subtotal,
		Discount:         summary.OrderDiscount,
		Shipping:         summary.Shipping,
		Total:            summary.Total,
		OrderVoucherCode: cartRow.OrderVoucherCode,
		Address:          addressJSON,
		Notes:            in.Notes,
	})
	if err != nil {
		return Output{}, err
	}

	discountByKey := make(map[string]pricing.LineSummary, len(summary.Lines))
	for _, l := range summary.Lines {
		discountByKey[l.Key] = l
	}
	for i, it := range items {
		line := discountByKey[lines[i].Key()]
		if err := txStore.CreateOrderItem(ctx, store.OrderItem{
			OrderID:         order.ID,
			ProductID:       it.ProductID,
			Name:            it.Name,
			Options:         it.Options,
			UnitPrice:       it.UnitPrice,
			AdditionalPrice: it.AdditionalPrice,
			Qty:             it.Qty,
			Discount:        line.Discount,
			Subtotal:        line.Final,
		}); err != nil {
			return Output{}, err
		}
	}

	// Settle usage for every code that actually granted a discount.
	settled := make(map[string]bool)
	var redeemed []string
	for _, l := range summary.Lines {
		code := codeByKey[l.Key]
		if code == "" || l.Discount <= 0 || settled[code] {
			continue
		}
		if err := vouchers.Settle(ctx, code, order.ID, userID, l.Discount); err != nil {
			return Output{}, fmt.Errorf("settle voucher %s: %w", code, err)
		}
		settled[code] = true
		redeemed = append(redeemed, code)
	}
	if summary.OrderDiscount > 0 && cartRow.OrderVoucherCode != nil {
		if err := vouchers.Settle(ctx, *cartRow.OrderVoucherCode, order.ID, userID, summary.OrderDiscount); err != nil {
			return Output{}, fmt.Errorf("settle voucher %s: %w", *cartRow.OrderVoucherCode, err)
		}
		redeemed = append(redeemed, *cartRow.OrderVoucherCode)
	}

	// Retire the cart so it is not reused after checkout.
	if err := txStore.SetCartOrderVoucher(ctx, cartID, nil); err != nil {
		return Output{}, err
	}
	if err := txStore.TouchCart(ctx, cartID, s.now()); err != nil {
		return Output{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Output{}, err
	}

	if s.Events != nil {
		payload := map[string]any{
			"orderId": order.ID.String(),
			"userId":  userID.String(),
			"total":   summary.Total,
		}
		if in.Email != "" {
			payload["email"] = in.Email
		}
		if _, err := s.Events.Emit(ctx, events.TopicOrderCreated, order.ID, payload); err != nil {
			s.Logger.Warn().Err(err).Str("orderId", order.ID.String()).Msg("emit order.created")
		}
		for _, code := range redeemed {
			if _, err := s.Events.Emit(ctx, events.TopicVoucherRedeemed, order.ID, map[string]any{
				"orderId": order.ID.String(),
				"userId":  userID.String(),
				"code":    code,
			}); err != nil {
				s.Logger.Warn().Err(err).Str("code", code).Msg("emit voucher.redeemed")
			}
		}
	}
	if s.Notify != nil && in.Email != "" {
		_ = s.Notify.OrderConfirmation(ctx, notify.OrderConfirmationPayload{
			OrderID: order.ID.String(),
			UserID:  userID.String(),
			Email:   in.Email,
			Total:   summary.Total,
		})
	}

	return Output{
		OrderID:  order.ID.String(),
		Status:   order.Status,
		Subtotal: summary.Subtotal,
		Discount: summary.OrderDiscount,
		Shipping: summary.Shipping,
		Total:    summary.Total,
	}, nil
}
