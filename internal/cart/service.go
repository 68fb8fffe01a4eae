package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sugarnest/bakery-api/internal/events"
	"github.com/sugarnest/bakery-api/internal/obs"
	"github.com/sugarnest/bakery-api/internal/pricing"
	"github.com/sugarnest/bakery-api/internal/store"
	"github.com/sugarnest/bakery-api/internal/voucher"
)

// ErrNotFound indicates the requested cart or item could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrVoucherNotApplicable is returned when an explicitly selected voucher
// fails an eligibility predicate. Explicit selection is rejected loudly
// instead of silently pricing without the discount.
var ErrVoucherNotApplicable = errors.New("voucher not applicable")

// Querier captures the database methods required by the cart service.
type Querier interface {
	GetCartByID(ctx context.Context, id uuid.UUID) (store.Cart, error)
	GetActiveCartByUser(ctx context.Context, userID uuid.UUID) (store.Cart, error)
	GetActiveCartByAnon(ctx context.Context, anonID string) (store.Cart, error)
	CreateCart(ctx context.Context, userID *uuid.UUID, anonID *string, expiresAt time.Time) (store.Cart, error)
	TouchCart(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	TransferCartToUser(ctx context.Context, id, userID uuid.UUID) error
	SetCartOrderVoucher(ctx context.Context, id uuid.UUID, code *string) error
	ListCartItems(ctx context.Context, cartID uuid.UUID) ([]store.CartItem, error)
	GetCartItem(ctx context.Context, id uuid.UUID) (store.CartItem, error)
	FindCartItemByKey(ctx context.Context, cartID uuid.UUID, optionsKey string) (store.CartItem, error)
	CreateCartItem(ctx context.Context, it store.CartItem) (store.CartItem, error)
	UpdateCartItemQty(ctx context.Context, id uuid.UUID, qty int32) error
	SetCartItemVoucher(ctx context.Context, id uuid.UUID, code *string) error
	DeleteCartItem(ctx context.Context, cartID, itemID uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (store.Product, error)
	GetOptionValues(ctx context.Context, productID uuid.UUID, values []string) ([]store.OptionValue, error)
}

// VoucherResolver maps a voucher code to its stored row and engine rule.
type VoucherResolver interface {
	Resolve(ctx context.Context, code string) (store.Voucher, pricing.Voucher, error)
}

// Service encapsulates cart domain operations.
type Service struct {
	Q        Querier
	Vouchers VoucherResolver
	Events   *events.Bus
	TTL      time.Duration
	Now      func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EnsureCart loads or creates a cart for the provided identifiers.
func (s *Service) EnsureCart(ctx context.Context, userID *string, anonID *string) (store.Cart, error) {
	if s == nil || s.Q == nil {
		return store.Cart{}, errors.New("cart service not configured")
	}
	expires := s.now().Add(s.ttl())

	if userID != nil && *userID != "" {
		uid, err := uuid.Parse(*userID)
		if err != nil {
			return store.Cart{}, fmt.Errorf("parse user id: %w", err)
		}
		cart, err := s.Q.GetActiveCartByUser(ctx, uid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return s.Q.CreateCart(ctx, &uid, nil, expires)
			}
			return store.Cart{}, err
		}
		_ = s.Q.TouchCart(ctx, cart.ID, expires)
		return cart, nil
	}

	if anonID != nil && *anonID != "" {
		cart, err := s.Q.GetActiveCartByAnon(ctx, *anonID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return s.Q.CreateCart(ctx, nil, anonID, expires)
			}
			return store.Cart{}, err
		}
		_ = s.Q.TouchCart(ctx, cart.ID, expires)
		return cart, nil
	}

	return store.Cart{}, ErrInvalidInput
}

// AddItem inserts or increments a cart line. The line identity is the product
// plus the sorted set of chosen option values, so the same cake in a
// different size stays a separate line.
func (s *Service) AddItem(ctx context.Context, cartID uuid.UUID, productID string, options []string, qty int) (store.CartItem, error) {
	if s == nil || s.Q == nil {
		return store.CartItem{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return store.CartItem{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	pID, err := uuid.Parse(productID)
	if err != nil {
		return store.CartItem{}, fmt.Errorf("parse product id: %w", err)
	}
	product, err := s.Q.GetProduct(ctx, pID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.CartItem{}, fmt.Errorf("product not found: %w", ErrInvalidInput)
		}
		return store.CartItem{}, err
	}
	if !product.Active {
		return store.CartItem{}, fmt.Errorf("product not available: %w", ErrInvalidInput)
	}
	if product.Stock <= 0 {
		return store.CartItem{}, fmt.Errorf("product out of stock: %w", ErrInvalidInput)
	}

	var additional int64
	if len(options) > 0 {
		resolved, err := s.Q.GetOptionValues(ctx, pID, options)
		if err != nil {
			return store.CartItem{}, err
		}
		if len(resolved) != len(options) {
			return store.CartItem{}, fmt.Errorf("unknown product option: %w", ErrInvalidInput)
		}
		for _, v := range resolved {
			additional += v.Surcharge
		}
	}

	key := pricing.LineItem{ProductID: productID, Options: options}.Key()
	expires := s.now().Add(s.ttl())

	existing, err := s.Q.FindCartItemByKey(ctx, cartID, key)
	if err == nil {
		if err := s.Q.UpdateCartItemQty(ctx, existing.ID, existing.Qty+int32(qty)); err != nil {
			return store.CartItem{}, err
		}
		existing.Qty += int32(qty)
		_ = s.Q.TouchCart(ctx, cartID, expires)
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return store.CartItem{}, err
	}

	item, err := s.Q.CreateCartItem(ctx, store.CartItem{
		CartID:          cartID,
		ProductID:       pID,
		Name:            product.Name,
		Options:         options,
		OptionsKey:      key,
		UnitPrice:       product.Price,
		AdditionalPrice: additional,
		Qty:             int32(qty),
	})
	if err != nil {
		return store.CartItem{}, err
	}
	_ = s.Q.TouchCart(ctx, cartID, expires)
	return item, nil
}

// UpdateQty updates the quantity for a cart line.
func (s *Service) UpdateQty(ctx context.Context, itemID uuid.UUID, qty int) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	if qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	item, err := s.Q.GetCartItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := s.Q.UpdateCartItemQty(ctx, item.ID, int32(qty)); err != nil {
		return err
	}
	_ = s.Q.TouchCart(ctx, item.CartID, s.now().Add(s.ttl()))
	return nil
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	if err := s.Q.DeleteCartItem(ctx, cartID, itemID); err != nil {
		return err
	}
	_ = s.Q.TouchCart(ctx, cartID, s.now().Add(s.ttl()))
	return nil
}

// SelectItemVoucher attaches an item voucher to a cart line after checking it
// is actually eligible for that line right now.
func (s *Service) SelectItemVoucher(ctx context.Context, cartID, itemID uuid.UUID, code string) error {
	if s == nil || s.Q == nil || s.Vouchers == nil {
		return errors.New("cart service not configured")
	}
	item, err := s.Q.GetCartItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if item.CartID != cartID {
		return ErrNotFound
	}
	_, rule, err := s.Vouchers.Resolve(ctx, code)
	if err != nil {
		return fmt.Errorf("resolve voucher: %w", err)
	}
	line := toLineItem(item)
	if _, reason := pricing.ItemDiscount(line, &rule, s.now()); reason != pricing.ReasonNone {
		return fmt.Errorf("%s: %w", reason.Message(), ErrVoucherNotApplicable)
	}
	if err := s.Q.SetCartItemVoucher(ctx, item.ID, &rule.Code); err != nil {
		return err
	}
	_ = s.Q.TouchCart(ctx, cartID, s.now().Add(s.ttl()))
	return nil
}

// RemoveItemVoucher clears the voucher selected on a cart line.
func (s *Service) RemoveItemVoucher(ctx context.Context, cartID, itemID uuid.UUID) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	item, err := s.Q.GetCartItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if item.CartID != cartID {
		return ErrNotFound
	}
	return s.Q.SetCartItemVoucher(ctx, item.ID, nil)
}

// ApplyOrderVoucher validates and attaches an order voucher, returning the
// discount it grants against the current subtotal.
func (s *Service) ApplyOrderVoucher(ctx context.Context, cartID uuid.UUID, code string) (int64, error) {
	if s == nil || s.Q == nil || s.Vouchers == nil {
		return 0, errors.New("cart service not configured")
	}
	if _, err := s.Q.GetCartByID(ctx, cartID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	_, rule, err := s.Vouchers.Resolve(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("resolve voucher: %w", err)
	}
	summary, err := s.price(ctx, cartID, nil, 0)
	if err != nil {
		return 0, err
	}
	discount, reason := pricing.OrderDiscount(summary.Subtotal, &rule, s.now())
	if reason != pricing.ReasonNone {
		return 0, fmt.Errorf("%s: %w", reason.Message(), ErrVoucherNotApplicable)
	}
	if err := s.Q.SetCartOrderVoucher(ctx, cartID, &rule.Code); err != nil {
		return 0, err
	}
	_ = s.Q.TouchCart(ctx, cartID, s.now().Add(s.ttl()))
	return discount, nil
}

// RemoveOrderVoucher clears an applied order voucher.
func (s *Service) RemoveOrderVoucher(ctx context.Context, cartID uuid.UUID) error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	if err := s.Q.SetCartOrderVoucher(ctx, cartID, nil); err != nil {
		return err
	}
	_ = s.Q.TouchCart(ctx, cartID, s.now().Add(s.ttl()))
	return nil
}

// Merge moves guest cart items into the user's active cart returning the
// resulting cart identifier.
func (s *Service) Merge(ctx context.Context, guestCartID uuid.UUID, userID string) (uuid.UUID, error) {
	if s == nil || s.Q == nil {
		return uuid.Nil, errors.New("cart service not configured")
	}
	uID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse user id: %w", err)
	}
	guestCart, err := s.Q.GetCartByID(ctx, guestCartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}
	userIDCopy := userID
	userCart, err := s.EnsureCart(ctx, &userIDCopy, nil)
	if err != nil {
		return uuid.Nil, err
	}
	guestItems, err := s.Q.ListCartItems(ctx, guestCartID)
	if err != nil {
		return uuid.Nil, err
	}
	for _, item := range guestItems {
		existing, err := s.Q.FindCartItemByKey(ctx, userCart.ID, item.OptionsKey)
		if err == nil {
			if existing.Qty < item.Qty {
				if err := s.Q.UpdateCartItemQty(ctx, existing.ID, item.Qty); err != nil {
					return uuid.Nil, err
				}
			}
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, err
		}
		item.CartID = userCart.ID
		if _, err := s.Q.CreateCartItem(ctx, item); err != nil {
			return uuid.Nil, err
		}
	}
	_ = s.Q.TouchCart(ctx, userCart.ID, s.now().Add(s.ttl()))
	// Retire the guest cart immediately; its voucher does not carry over.
	_ = s.Q.SetCartOrderVoucher(ctx, guestCart.ID, nil)
	_ = s.Q.TouchCart(ctx, guestCart.ID, s.now())
	_ = s.Q.TransferCartToUser(ctx, guestCart.ID, uID)
	if s.Events != nil {
		// Best effort: the merge already happened.
		_, _ = s.Events.Emit(ctx, events.TopicCartMerged, userCart.ID, map[string]any{
			"guestCartId": guestCart.ID.String(),
			"cartId":      userCart.ID.String(),
			"userId":      uID.String(),
		})
	}
	return userCart.ID, nil
}

// Price computes the current totals for the cart through the pricing engine.
func (s *Service) Price(ctx context.Context, cartID uuid.UUID, shippingFee int64) (pricing.Summary, error) {
	if s == nil || s.Q == nil {
		return pricing.Summary{}, errors.New("cart service not configured")
	}
	cart, err := s.Q.GetCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.Summary{}, ErrNotFound
		}
		return pricing.Summary{}, err
	}
	return s.price(ctx, cartID, cart.OrderVoucherCode, shippingFee)
}

func (s *Service) price(ctx context.Context, cartID uuid.UUID, orderCode *string, shippingFee int64) (pricing.Summary, error) {
	items, err := s.Q.ListCartItems(ctx, cartID)
	if err != nil {
		return pricing.Summary{}, err
	}

	lines := make([]pricing.LineItem, 0, len(items))
	itemVouchers := make(map[string]*pricing.Voucher)
	for _, it := range items {
		line := toLineItem(it)
		lines = append(lines, line)
		if it.VoucherCode == nil || *it.VoucherCode == "" || s.Vouchers == nil {
			continue
		}
		_, rule, err := s.Vouchers.Resolve(ctx, *it.VoucherCode)
		if err != nil {
			// Codes that no longer exist degrade to no discount; anything
			// else is a real failure and pricing must not pretend otherwise.
			if errors.Is(err, voucher.ErrNotFound) {
				continue
			}
			return pricing.Summary{}, fmt.Errorf("resolve voucher %s: %w", *it.VoucherCode, err)
		}
		itemVouchers[line.Key()] = &rule
	}

	var orderVoucher *pricing.Voucher
	if orderCode != nil && *orderCode != "" && s.Vouchers != nil {
		_, rule, err := s.Vouchers.Resolve(ctx, *orderCode)
		switch {
		case err == nil:
			orderVoucher = &rule
		case !errors.Is(err, voucher.ErrNotFound):
			return pricing.Summary{}, fmt.Errorf("resolve voucher %s: %w", *orderCode, err)
		}
	}

	start := time.Now()
	summary, err := pricing.ComputeTotals(lines, itemVouchers, orderVoucher, shippingFee, s.now())
	if obs.CartPricingDuration != nil {
		obs.CartPricingDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	return summary, err
}

func toLineItem(it store.CartItem) pricing.LineItem {
	return pricing.LineItem{
		ProductID:       it.ProductID.String(),
		Options:         it.Options,
		UnitPrice:       it.UnitPrice,
		AdditionalPrice: it.AdditionalPrice,
		Qty:             int(it.Qty),
	}
}
