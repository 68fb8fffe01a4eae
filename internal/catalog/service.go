package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sugarnest/bakery-api/internal/store"
)

// ErrNotFound indicates the requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Querier captures the database methods required by the catalog service.
type Querier interface {
	ListProducts(ctx context.Context, category string, limit, offset int) ([]store.Product, error)
	CountProducts(ctx context.Context, category string) (int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (store.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (store.Product, error)
	ListOptionGroups(ctx context.Context, productID uuid.UUID) ([]store.OptionGroup, error)
}

// VoucherLister surfaces item vouchers advertised on product pages.
type VoucherLister interface {
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]store.Voucher, error)
}

// Service assembles catalog views with read-through caching.
type Service struct {
	Q        Querier
	Vouchers VoucherLister
	Cache    *Cache
}

// ProductView is the list representation of a product.
type ProductView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	InStock     bool   `json:"inStock"`
}

// OptionGroupView is a configurable dimension with its values.
type OptionGroupView struct {
	Name     string            `json:"name"`
	Required bool              `json:"required"`
	Values   []OptionValueView `json:"values"`
}

// OptionValueView is one selectable value with its surcharge.
type OptionValueView struct {
	Value     string `json:"value"`
	Surcharge int64  `json:"surcharge"`
}

// VoucherTeaser advertises an item voucher on a product page.
type VoucherTeaser struct {
	Code       string     `json:"code"`
	PercentBps *int32     `json:"percentBps,omitempty"`
	HardValue  *int64     `json:"hardValue,omitempty"`
	MinQty     int32      `json:"minQty,omitempty"`
	EndsAt     *time.Time `json:"endsAt,omitempty"`
}

// ProductDetail is the full product page payload.
type ProductDetail struct {
	ProductView
	OptionGroups []OptionGroupView `json:"optionGroups"`
	Vouchers     []VoucherTeaser   `json:"vouchers"`
}

// ListResult is a page of products with the total count.
type ListResult struct {
	Products []ProductView `json:"products"`
	Total    int           `json:"total"`
}

func toProductView(p store.Product) ProductView {
	return ProductView{
		ID:          p.ID.String(),
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Price:       p.Price,
		InStock:     p.Stock > 0,
	}
}

// List returns a page of active products, optionally filtered by category.
func (s *Service) List(ctx context.Context, category string, page, perPage int) (ListResult, error) {
	if s == nil || s.Q == nil {
		return ListResult{}, errors.New("catalog service not configured")
	}
	key := fmt.Sprintf("catalog:list:%s:%d:%d", category, page, perPage)
	var cached ListResult
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	total, err := s.Q.CountProducts(ctx, category)
	if err != nil {
		return ListResult{}, err
	}
	products, err := s.Q.ListProducts(ctx, category, perPage, (page-1)*perPage)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Products: make([]ProductView, 0, len(products)), Total: total}
	for _, p := range products {
		result.Products = append(result.Products, toProductView(p))
	}
	_ = s.Cache.SetJSON(ctx, key, result)
	return result, nil
}

// Get loads a product detail by id or slug.
func (s *Service) Get(ctx context.Context, idOrSlug string) (ProductDetail, error) {
	if s == nil || s.Q == nil {
		return ProductDetail{}, errors.New("catalog service not configured")
	}
	key := "catalog:product:" + idOrSlug
	var cached ProductDetail
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	var (
		product store.Product
		err     error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = s.Q.GetProduct(ctx, id)
	} else {
		product, err = s.Q.GetProductBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductDetail{}, ErrNotFound
		}
		return ProductDetail{}, err
	}

	groups, err := s.Q.ListOptionGroups(ctx, product.ID)
	if err != nil {
		return ProductDetail{}, err
	}
	detail := ProductDetail{
		ProductView:  toProductView(product),
		OptionGroups: make([]OptionGroupView, 0, len(groups)),
		Vouchers:     []VoucherTeaser{},
	}
	for _, g := range groups {
		gv := OptionGroupView{Name: g.Name, Required: g.Required, Values: make([]OptionValueView, 0, len(g.Values))}
		for _, v := range g.Values {
			gv.Values = append(gv.Values, OptionValueView{Value: v.Value, Surcharge: v.Surcharge})
		}
		detail.OptionGroups = append(detail.OptionGroups, gv)
	}

	if s.Vouchers != nil {
		vouchers, err := s.Vouchers.ListForProduct(ctx, product.ID)
		if err == nil {
			for _, v := range vouchers {
				detail.Vouchers = append(detail.Vouchers, VoucherTeaser{
					Code:       v.Code,
					PercentBps: v.PercentBps,
					HardValue:  v.HardValue,
					MinQty:     v.MinQty,
					EndsAt:     v.EndsAt,
				})
			}
		}
	}

	_ = s.Cache.SetJSON(ctx, key, detail)
	return detail, nil
}
