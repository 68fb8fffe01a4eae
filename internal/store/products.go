package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const productColumns = `id, name, slug, description, image_url, category, price, stock, active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.ImageURL, &p.Category,
		&p.Price, &p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProducts returns active products, optionally filtered by category.
func (s *Store) ListProducts(ctx context.Context, category string, limit, offset int) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE active`
	args := []any{}
	if category != "" {
		query += ` AND category = $1`
		args = append(args, category)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountProducts returns the number of active products in the category.
func (s *Store) CountProducts(ctx context.Context, category string) (int, error) {
	query := `SELECT count(*) FROM products WHERE active`
	args := []any{}
	if category != "" {
		query += ` AND category = $1`
		args = append(args, category)
	}
	var n int
	err := s.db.QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

// GetProduct loads one product by id.
func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// GetProductBySlug loads one product by slug.
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	row := s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
	return scanProduct(row)
}

// ListOptionGroups returns the option groups for a product with their values.
func (s *Store) ListOptionGroups(ctx context.Context, productID uuid.UUID) ([]OptionGroup, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, product_id, name, required FROM option_groups WHERE product_id = $1 ORDER BY name`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []OptionGroup
	for rows.Next() {
		var g OptionGroup
		if err := rows.Scan(&g.ID, &g.ProductID, &g.Name, &g.Required); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range groups {
		values, err := s.listOptionValues(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Values = values
	}
	return groups, nil
}

func (s *Store) listOptionValues(ctx context.Context, groupID uuid.UUID) ([]OptionValue, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, group_id, value, surcharge FROM option_values WHERE group_id = $1 ORDER BY surcharge, value`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OptionValue
	for rows.Next() {
		var v OptionValue
		if err := rows.Scan(&v.ID, &v.GroupID, &v.Value, &v.Surcharge); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetOptionValues resolves the given option value names for a product. Callers
// use the result to validate selections and sum surcharges.
func (s *Store) GetOptionValues(ctx context.Context, productID uuid.UUID, values []string) ([]OptionValue, error) {
	if len(values) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT v.id, v.group_id, v.value, v.surcharge
		 FROM option_values v
		 JOIN option_groups g ON g.id = v.group_id
		 WHERE g.product_id = $1 AND v.value = ANY($2)`, productID, values)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OptionValue
	for rows.Next() {
		var v OptionValue
		if err := rows.Scan(&v.ID, &v.GroupID, &v.Value, &v.Surcharge); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
