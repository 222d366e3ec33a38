// Package store provides an interface for product storage operations.
package store

import (
	"context"

	"github.com/abgdnv/productapi/internal/model"
	"github.com/google/uuid"
)

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// Insert persists a new product and returns it with its key and timestamps assigned.
	Insert(ctx context.Context, product model.Product) (*model.Product, error)

	// FindAll returns all products ordered by key.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]model.Product, error)

	// FindByExternalID retrieves a single product by its external identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByExternalID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Update replaces name, description and price of the product stored under product.Key
	// and refreshes its update time. Returns ErrProductNotFound if the row no longer exists.
	Update(ctx context.Context, product model.Product) (*model.Product, error)

	// DeleteByKey removes a product. Deleting a missing product is not an error.
	DeleteByKey(ctx context.Context, key model.InternalKey) error

	// Search returns the products matching query ordered by key.
	Search(ctx context.Context, query model.SearchQuery) ([]model.Product, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type bypassCacheKey struct{}

// WithoutCache marks ctx so that lookups skip any cache and read the backing store.
// Write paths use it to act on the current row rather than a cached copy.
func WithoutCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassCacheKey{}, true)
}

// BypassesCache reports whether ctx was marked by WithoutCache.
func BypassesCache(ctx context.Context) bool {
	bypass, _ := ctx.Value(bypassCacheKey{}).(bool)
	return bypass
}
