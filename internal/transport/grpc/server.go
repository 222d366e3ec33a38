// Package grpc exposes the read side of the catalog over gRPC.
package grpc

import (
	"context"
	"errors"
	"log/slog"

	perrors "github.com/abgdnv/productapi/internal/errors"
	"github.com/abgdnv/productapi/internal/model"
	catalogv1 "github.com/abgdnv/productapi/pkg/api/catalog/v1"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ProductService is the subset of the product service the gRPC API reads from.
type ProductService interface {
	FindProducts(ctx context.Context) ([]model.ProductDto, error)
	FindByExternalID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	SearchProducts(ctx context.Context, q string, minPrice, maxPrice decimal.Decimal) ([]model.ProductDto, error)
}

type Server struct {
	catalogv1.UnimplementedCatalogServiceServer
	service ProductService
	logger  *slog.Logger
}

func NewServer(service ProductService, logger *slog.Logger) *Server {
	return &Server{service: service, logger: logger.With("component", "grpc")}
}

func (s *Server) GetProduct(ctx context.Context, req *catalogv1.GetProductRequest) (*catalogv1.GetProductResponse, error) {
	id, err := uuid.Parse(req.Id)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid product ID: %v", err)
	}
	product, err := s.service.FindByExternalID(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "service.FindByExternalID failed", "product_id", id, "error", err)
		return nil, toStatus(err)
	}
	return &catalogv1.GetProductResponse{Product: &catalogv1.Product{
		Id:          product.ExternalID.String(),
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price.StringFixed(2),
	}}, nil
}

func (s *Server) ListProducts(ctx context.Context, _ *catalogv1.ListProductsRequest) (*catalogv1.ListProductsResponse, error) {
	list, err := s.service.FindProducts(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "service.FindProducts failed", "error", err)
		return nil, toStatus(err)
	}
	return &catalogv1.ListProductsResponse{Products: toProducts(list)}, nil
}

// SearchProducts requires both price bounds; the query may be empty.
func (s *Server) SearchProducts(ctx context.Context, req *catalogv1.SearchProductsRequest) (*catalogv1.SearchProductsResponse, error) {
	if !model.IsStorableText(req.Query) {
		return nil, status.Error(codes.InvalidArgument, "invalid query")
	}
	minPrice, err := decimal.NewFromString(req.MinPrice)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid min_price %q", req.MinPrice)
	}
	maxPrice, err := decimal.NewFromString(req.MaxPrice)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid max_price %q", req.MaxPrice)
	}
	list, err := s.service.SearchProducts(ctx, req.Query, minPrice, maxPrice)
	if err != nil {
		s.logger.ErrorContext(ctx, "service.SearchProducts failed", "error", err)
		return nil, toStatus(err)
	}
	return &catalogv1.SearchProductsResponse{Products: toProducts(list)}, nil
}

// toStatus maps a service error to a gRPC status. Causes other than not-found are not exposed.
func toStatus(err error) error {
	if errors.Is(err, perrors.ErrProductNotFound) {
		return status.Error(codes.NotFound, "product not found")
	}
	return status.Error(codes.Internal, "internal server error")
}

func toProducts(list []model.ProductDto) []*catalogv1.Product {
	products := make([]*catalogv1.Product, 0, len(list))
	for _, dto := range list {
		products = append(products, &catalogv1.Product{
			Id:          dto.ID.String(),
			Name:        dto.Name,
			Description: dto.Description,
			Price:       dto.Price.StringFixed(2),
		})
	}
	return products
}
