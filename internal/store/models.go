package store

import (
	"time"

	"github.com/google/uuid"
)

// Product is one bakery catalog entry. Price is in đồng.
type Product struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	ImageURL    string
	Category    string
	Price       int64
	Stock       int32
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OptionGroup is a configurable product dimension such as size or topping.
type OptionGroup struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Name      string
	Required  bool
	Values    []OptionValue
}

// OptionValue is one selectable value with its price surcharge.
type OptionValue struct {
	ID        uuid.UUID
	GroupID   uuid.UUID
	Value     string
	Surcharge int64
}

// Cart belongs to either a signed-in user or an anonymous session.
type Cart struct {
	ID               uuid.UUID
	UserID           *uuid.UUID
	AnonID           *string
	OrderVoucherCode *string
	ExpiresAt        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CartItem is one line in a cart. Options holds the chosen option values and
// OptionsKey is the sorted, joined identity used for matching; two lines with
// the same product but different options stay distinct.
type CartItem struct {
	ID              uuid.UUID
	CartID          uuid.UUID
	ProductID       uuid.UUID
	Name            string
	Options         []string
	OptionsKey      string
	UnitPrice       int64
	AdditionalPrice int64
	Qty             int32
	VoucherCode     *string
	CreatedAt       time.Time
}

// Voucher is a stored discount rule. Percent values are basis points; fixed
// values are absolute đồng amounts.
type Voucher struct {
	ID           uuid.UUID
	Code         string
	Scope        string
	ProductID    *uuid.UUID
	PercentBps   *int32
	HardValue    *int64
	MinQty       int32
	MaxQty       int32
	MinSpend     int64
	StartsAt     *time.Time
	EndsAt       *time.Time
	Active       bool
	UsageLimit   *int32
	UsedCount    int32
	PerUserLimit *int32
	CreatedAt    time.Time
}

// VoucherUsage records one settled redemption.
type VoucherUsage struct {
	ID        uuid.UUID
	VoucherID uuid.UUID
	OrderID   uuid.UUID
	UserID    uuid.UUID
	Amount    int64
	CreatedAt time.Time
}

// Order is a placed order with its frozen pricing breakdown.
type Order struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Status           string
	Currency         string
	Subtotal         int64
	Discount         int64
	Shipping         int64
	Total            int64
	OrderVoucherCode *string
	Address          []byte
	Notes            *string
	CreatedAt        time.Time
}

// OrderItem is one frozen order line.
type OrderItem struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	ProductID       uuid.UUID
	Name            string
	Options         []string
	UnitPrice       int64
	AdditionalPrice int64
	Qty             int32
	Discount        int64
	Subtotal        int64
}

// Favorite links a user to a product they bookmarked.
type Favorite struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	CreatedAt time.Time
}

// DomainEvent is a persisted event emitted by the service.
type DomainEvent struct {
	ID          uuid.UUID
	Topic       string
	AggregateID uuid.UUID
	Payload     []byte
	OccurredAt  time.Time
}
