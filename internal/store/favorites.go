package store

import (
	"context"

	"github.com/google/uuid"
)

// AddFavorite bookmarks a product for the user. Adding twice is a no-op.
func (s *Store) AddFavorite(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO favorites (user_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, productID)
	return err
}

// RemoveFavorite deletes the bookmark.
func (s *Store) RemoveFavorite(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`, userID, productID)
	return err
}

// ListFavorites returns the user's bookmarked products.
func (s *Store) ListFavorites(ctx context.Context, userID uuid.UUID) ([]Product, error) {
	rows, err := s.db.Query(ctx,
		`SELECT p.`+productColumnsQualified+`
		 FROM favorites f JOIN products p ON p.id = f.product_id
		 WHERE f.user_id = $1 ORDER BY f.created_at DESC`, userID)
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

// CheckFavorite reports whether the user bookmarked the product.
func (s *Store) CheckFavorite(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)`,
		userID, productID).Scan(&exists)
	return exists, err
}

const productColumnsQualified = `id, p.name, p.slug, p.description, p.image_url, p.category, p.price, p.stock, p.active, p.created_at, p.updated_at`
