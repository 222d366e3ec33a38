// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	perrors "github.com/abgdnv/productapi/internal/errors"
	"github.com/abgdnv/productapi/internal/model"
	"github.com/abgdnv/productapi/internal/parser"
	"github.com/abgdnv/productapi/internal/store"
	"github.com/abgdnv/productapi/pkg/messaging"
	"github.com/abgdnv/productapi/pkg/messaging/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindProducts returns all products in insertion order.
	// Returns an empty slice if no products exist.
	FindProducts(ctx context.Context) ([]model.ProductDto, error)

	// SaveProduct creates a product from dto under a newly generated id.
	SaveProduct(ctx context.Context, dto model.ProductDto) (*model.ProductDto, error)

	// FindByExternalID retrieves a single product by its id.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByExternalID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// UpdateProduct replaces name, description and price of the product with the given id.
	// Returns ErrProductNotFound if no product exists with the given ID; nothing is created then.
	UpdateProduct(ctx context.Context, id uuid.UUID, dto model.ProductDto) (*model.ProductDto, error)

	// DeleteProduct removes the product with the given id. Deleting a missing product is a no-op.
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	// SearchProducts returns products with minPrice < price < maxPrice whose name or description contains q.
	// Returns an empty slice if nothing matches.
	SearchProducts(ctx context.Context, q string, minPrice, maxPrice decimal.Decimal) ([]model.ProductDto, error)
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository     store.ProductStore
	publisher      messaging.Publisher
	createdCounter metric.Int64Counter
	deletedCounter metric.Int64Counter
}

// NewService creates a new instance of ProductService with the provided repository.
// A nil publisher disables lifecycle events.
func NewService(repo store.ProductStore, publisher messaging.Publisher) *Service {
	meter := otel.Meter("product-api")
	createdCounter, err := meter.Int64Counter("products_created", metric.WithDescription("Total number of created products"))
	if err != nil {
		panic(fmt.Sprintf("failed to create products_created counter: %v", err))
	}
	deletedCounter, err := meter.Int64Counter("products_deleted", metric.WithDescription("Total number of deleted products"))
	if err != nil {
		panic(fmt.Sprintf("failed to create products_deleted counter: %v", err))
	}
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Service{
		repository:     repo,
		publisher:      publisher,
		createdCounter: createdCounter,
		deletedCounter: deletedCounter,
	}
}

// FindProducts retrieves all products ordered by insertion.
func (s *Service) FindProducts(ctx context.Context) ([]model.ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return parser.ToProductDtos(products), nil
}

// SaveProduct persists a new product. The id carried by dto is ignored.
func (s *Service) SaveProduct(ctx context.Context, dto model.ProductDto) (*model.ProductDto, error) {
	inserted, err := s.repository.Insert(ctx, parser.ToProduct(dto))
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.createdCounter.Add(ctx, 1)

	saved := parser.ToProductDto(*inserted)
	s.publish(ctx, events.ProductCreatedEvent{
		Carrier:    traceCarrier(ctx),
		Product:    snapshot(saved),
		OccurredAt: inserted.CreatedAt,
	})
	return &saved, nil
}

// FindByExternalID retrieves a product by its id.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) FindByExternalID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.repository.FindByExternalID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}
	return product, nil
}

// UpdateProduct replaces the product with the given id by the content of dto.
// Key, id and creation time are kept; omitted fields of dto are stored as their zero values.
// Update and delete look the product up around any cache.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, dto model.ProductDto) (*model.ProductDto, error) {
	existing, err := s.FindByExternalID(store.WithoutCache(ctx), id)
	if err != nil {
		return nil, err
	}

	replacement := parser.ToProduct(dto)
	replacement.ExternalID = id
	replacement.Key = existing.Key

	updated, err := s.repository.Update(ctx, replacement)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %s: %w", id, err)
	}

	result := parser.ToProductDto(*updated)
	s.publish(ctx, events.ProductUpdatedEvent{
		Carrier:    traceCarrier(ctx),
		Product:    snapshot(result),
		OccurredAt: updated.UpdatedAt,
	})
	return &result, nil
}

// DeleteProduct removes the product with the given id if it exists.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repository.FindByExternalID(store.WithoutCache(ctx), id)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			return nil
		}
		return fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}
	if err := s.repository.DeleteByKey(ctx, existing.Key); err != nil {
		return fmt.Errorf("failed to delete product with ID %s: %w", id, err)
	}
	s.deletedCounter.Add(ctx, 1)

	s.publish(ctx, events.ProductDeletedEvent{
		Carrier:    traceCarrier(ctx),
		ProductID:  id,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// SearchProducts finds products inside the open price range (minPrice, maxPrice)
// whose name or description contains q. Matching is case-sensitive; an empty q matches everything.
func (s *Service) SearchProducts(ctx context.Context, q string, minPrice, maxPrice decimal.Decimal) ([]model.ProductDto, error) {
	products, err := s.repository.Search(ctx, model.SearchQuery{Query: q, MinPrice: minPrice, MaxPrice: maxPrice})
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return parser.ToProductDtos(products), nil
}

// publish ships event; a broker failure never fails the operation that produced it.
func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish product event", "subject", event.Subject(), "error", err)
	}
}

func traceCarrier(ctx context.Context) map[string]string {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if len(carrier) == 0 {
		return nil
	}
	return carrier
}

func snapshot(dto model.ProductDto) events.ProductSnapshot {
	return events.ProductSnapshot{
		ID:          dto.ID,
		Name:        dto.Name,
		Description: dto.Description,
		Price:       dto.Price,
	}
}
