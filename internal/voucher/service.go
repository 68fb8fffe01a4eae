// Package voucher maps stored discount rules onto the pricing engine and
// enforces the redemption limits the engine deliberately knows nothing about.
package voucher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sugarnest/bakery-api/internal/pricing"
	"github.com/sugarnest/bakery-api/internal/store"
)

var (
	// ErrNotFound is returned when no voucher exists for the code.
	ErrNotFound = errors.New("voucher not found")
	// ErrUsageLimitReached indicates the voucher exhausted its global quota.
	ErrUsageLimitReached = errors.New("voucher usage limit reached")
	// ErrPerUserLimitReached indicates the caller exceeded their allowance.
	ErrPerUserLimitReached = errors.New("voucher per-user usage limit reached")
)

// Redemption-limit reasons supplement the engine's eligibility reasons in
// preview responses.
const (
	ReasonUsageLimit   = pricing.Reason("usage_limit_reached")
	ReasonPerUserLimit = pricing.Reason("per_user_limit_reached")
)

// Querier captures the database methods required by the voucher service.
type Querier interface {
	GetVoucherByCode(ctx context.Context, code string) (store.Voucher, error)
	GetVoucherByCodeForUpdate(ctx context.Context, code string) (store.Voucher, error)
	ListActiveVouchers(ctx context.Context, now time.Time) ([]store.Voucher, error)
	ListProductVouchers(ctx context.Context, productID uuid.UUID, now time.Time) ([]store.Voucher, error)
	CountVoucherUsageByUser(ctx context.Context, voucherID, userID uuid.UUID) (int64, error)
	GetVoucherUsageByOrder(ctx context.Context, voucherID, orderID uuid.UUID) (store.VoucherUsage, error)
	InsertVoucherUsage(ctx context.Context, voucherID, orderID, userID uuid.UUID, amount int64) error
	IncreaseVoucherUsedCount(ctx context.Context, id uuid.UUID) error
}

// Service encapsulates voucher rule evaluation and settlement behaviour.
type Service struct {
	Q                   Querier
	Now                 func() time.Time
	DefaultPerUserLimit int
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RuleFromModel converts a stored voucher into the engine representation.
func RuleFromModel(v store.Voucher) pricing.Voucher {
	rule := pricing.Voucher{
		ID:       v.ID.String(),
		Code:     v.Code,
		Scope:    pricing.Scope(v.Scope),
		MinQty:   int(v.MinQty),
		MaxQty:   int(v.MaxQty),
		MinSpend: v.MinSpend,
		StartsAt: v.StartsAt,
		EndsAt:   v.EndsAt,
		Active:   v.Active,
	}
	if v.ProductID != nil {
		rule.ProductID = v.ProductID.String()
	}
	if v.PercentBps != nil {
		bps := *v.PercentBps
		rule.PercentBps = &bps
	}
	if v.HardValue != nil {
		hard := *v.HardValue
		rule.HardValue = &hard
	}
	return rule
}

// Resolve loads a voucher by code and returns both the stored row and the
// engine rule derived from it.
func (s *Service) Resolve(ctx context.Context, code string) (store.Voucher, pricing.Voucher, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return store.Voucher{}, pricing.Voucher{}, ErrNotFound
	}
	model, err := s.Q.GetVoucherByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Voucher{}, pricing.Voucher{}, ErrNotFound
		}
		return store.Voucher{}, pricing.Voucher{}, err
	}
	return model, RuleFromModel(model), nil
}

// ResolveForPricing returns the engine rule for a code, or nil when the code
// is unknown so pricing degrades to "no discount".
func (s *Service) ResolveForPricing(ctx context.Context, code string) (*pricing.Voucher, error) {
	_, rule, err := s.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// ListActive returns vouchers currently inside their validity window.
func (s *Service) ListActive(ctx context.Context) ([]store.Voucher, error) {
	return s.Q.ListActiveVouchers(ctx, s.now())
}

// ListForProduct returns active item vouchers advertised on a product page.
func (s *Service) ListForProduct(ctx context.Context, productID uuid.UUID) ([]store.Voucher, error) {
	return s.Q.ListProductVouchers(ctx, productID, s.now())
}

// PreviewResult describes a dry-run evaluation against a cart subtotal.
type PreviewResult struct {
	Code     string         `json:"code"`
	Discount int64          `json:"discount"`
	Reason   pricing.Reason `json:"reason,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// Preview evaluates an order-scope voucher against the subtotal without
// mutating state. Ineligibility is reported through the reason, not an error.
func (s *Service) Preview(ctx context.Context, code string, userID *uuid.UUID, subtotal int64) (PreviewResult, error) {
	model, rule, err := s.Resolve(ctx, code)
	if err != nil {
		return PreviewResult{}, err
	}
	if reason, err := s.checkLimits(ctx, model, userID); err != nil {
		return PreviewResult{}, err
	} else if reason != pricing.ReasonNone {
		return PreviewResult{Code: model.Code, Reason: reason, Message: limitMessage(reason)}, nil
	}

	discount, reason := pricing.OrderDiscount(subtotal, &rule, s.now())
	return PreviewResult{
		Code:     model.Code,
		Discount: discount,
		Reason:   reason,
		Message:  reason.Message(),
	}, nil
}

func (s *Service) checkLimits(ctx context.Context, v store.Voucher, userID *uuid.UUID) (pricing.Reason, error) {
	if v.UsageLimit != nil && *v.UsageLimit >= 0 && v.UsedCount >= *v.UsageLimit {
		return ReasonUsageLimit, nil
	}
	limit := int32(s.DefaultPerUserLimit)
	if v.PerUserLimit != nil {
		limit = *v.PerUserLimit
	}
	if limit > 0 && userID != nil {
		used, err := s.Q.CountVoucherUsageByUser(ctx, v.ID, *userID)
		if err != nil {
			return pricing.ReasonNone, err
		}
		if int32(used) >= limit {
			return ReasonPerUserLimit, nil
		}
	}
	return pricing.ReasonNone, nil
}

func limitMessage(r pricing.Reason) string {
	switch r {
	case ReasonUsageLimit:
		return "voucher has been fully redeemed"
	case ReasonPerUserLimit:
		return "voucher already used the maximum number of times"
	default:
		return ""
	}
}

// Settle records a redemption for the order. Settling the same order twice is
// a no-op so payment retries cannot double-count usage.
func (s *Service) Settle(ctx context.Context, code string, orderID, userID uuid.UUID, amount int64) error {
	if s == nil || s.Q == nil {
		return errors.New("voucher service not configured")
	}
	voucher, err := s.Q.GetVoucherByCodeForUpdate(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if _, err := s.Q.GetVoucherUsageByOrder(ctx, voucher.ID, orderID); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if reason, err := s.checkLimits(ctx, voucher, &userID); err != nil {
		return err
	} else if reason == ReasonUsageLimit {
		return ErrUsageLimitReached
	} else if reason == ReasonPerUserLimit {
		return ErrPerUserLimitReached
	}
	if err := s.Q.InsertVoucherUsage(ctx, voucher.ID, orderID, userID, amount); err != nil {
		return err
	}
	if err := s.Q.IncreaseVoucherUsedCount(ctx, voucher.ID); err != nil {
		return fmt.Errorf("increase voucher used count: %w", err)
	}
	return nil
}
