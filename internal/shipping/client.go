package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sugarnest/bakery-api/internal/resilience"
)

// DeliveryClient quotes fees against the delivery partner's HTTP API.
type DeliveryClient struct {
	BaseURL string
	APIKey  string
	HTTP    resilience.HTTPClient
}

type quoteResponse struct {
	Data struct {
		Fee int64  `json:"fee"`
		ETD string `json:"etd"`
	} `json:"data"`
	Error string `json:"error"`
}

// Quote requests a delivery fee for the destination.
func (c *DeliveryClient) Quote(ctx context.Context, r QuoteReq) (Quote, error) {
	if c == nil || c.BaseURL == "" {
		return Quote{}, errors.New("shipping: delivery client not configured")
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return Quote{}, err
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/v1/quotes"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Quote{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return Quote{}, fmt.Errorf("shipping: quote request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("shipping: quote request: unexpected status %s", resp.Status)
	}
	var decoded quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Quote{}, fmt.Errorf("shipping: decode quote: %w", err)
	}
	if decoded.Error != "" {
		return Quote{}, fmt.Errorf("shipping: provider error: %s", decoded.Error)
	}
	if decoded.Data.Fee < 0 {
		return Quote{}, errors.New("shipping: provider returned negative fee")
	}
	return Quote{Fee: decoded.Data.Fee, ETD: decoded.Data.ETD}, nil
}
