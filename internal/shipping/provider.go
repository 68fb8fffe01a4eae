package shipping

import "context"

// QuoteReq describes a delivery fee request.
type QuoteReq struct {
	City     string `json:"city" validate:"required"`
	District string `json:"district" validate:"required"`
	Subtotal int64  `json:"subtotal" validate:"gte=0"`
}

// Quote is a delivery fee offer.
type Quote struct {
	Fee int64  `json:"fee"`
	ETD string `json:"etd"`
}

// Client defines the behaviour required to quote delivery fees.
type Client interface {
	Quote(ctx context.Context, r QuoteReq) (Quote, error)
}

// MockClient returns table-driven fees and is useful for testing and
// development without the delivery partner.
type MockClient struct {
	FreeOver int64
}

// Quote prices inner-city districts cheaper and waives the fee above the
// configured subtotal.
func (m MockClient) Quote(_ context.Context, r QuoteReq) (Quote, error) {
	if m.FreeOver > 0 && r.Subtotal >= m.FreeOver {
		return Quote{Fee: 0, ETD: "1-2"}, nil
	}
	switch r.District {
	case "Quan 1", "Quan 3", "Quan 5":
		return Quote{Fee: 15000, ETD: "1"}, nil
	default:
		return Quote{Fee: 25000, ETD: "1-2"}, nil
	}
}
