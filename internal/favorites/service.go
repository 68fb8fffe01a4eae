package favorites

import (
	"context"

	"github.com/google/uuid"

	"github.com/sugarnest/bakery-api/internal/store"
)

// Querier captures the database methods required by the favorites service.
type Querier interface {
	AddFavorite(ctx context.Context, userID, productID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, productID uuid.UUID) error
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]store.Product, error)
	CheckFavorite(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

// Service manages a user's bookmarked products.
type Service struct {
	Q Querier
}

// Add bookmarks a product. Adding an existing bookmark is a no-op.
func (s *Service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	return s.Q.AddFavorite(ctx, userID, productID)
}

// Remove deletes a bookmark.
func (s *Service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.Q.RemoveFavorite(ctx, userID, productID)
}

// List returns the user's bookmarked products.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]store.Product, error) {
	return s.Q.ListFavorites(ctx, userID)
}

// Check reports whether the product is bookmarked by the user.
func (s *Service) Check(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return s.Q.CheckFavorite(ctx, userID, productID)
}
