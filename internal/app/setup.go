// Package app wires the product API: store chain, service, HTTP routes and the gRPC server.
package app

import (
	"log/slog"
	"net/http"
	"time"

	_ "github.com/abgdnv/productapi/docs"
	"github.com/abgdnv/productapi/internal/config"
	"github.com/abgdnv/productapi/internal/service"
	"github.com/abgdnv/productapi/internal/store"
	grpcImpl "github.com/abgdnv/productapi/internal/transport/grpc"
	"github.com/abgdnv/productapi/internal/transport/rest"
	catalogv1 "github.com/abgdnv/productapi/pkg/api/catalog/v1"
	"github.com/abgdnv/productapi/pkg/messaging"
	"github.com/abgdnv/productapi/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"google.golang.org/grpc"
)

type Dependencies struct {
	ProductService service.ProductService
	Pinger         store.Pinger
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// NewStore builds the Postgres store, fronted by the Redis cache when rdb is not nil.
func NewStore(dbPool *pgxpool.Pool, rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) store.ProductStore {
	var repo store.ProductStore = store.NewPgStore(dbPool)
	if rdb != nil {
		repo = store.NewCachedStore(repo, rdb, ttl, logger)
	}
	return repo
}

// SetupDependencies creates the product service over repo. A nil publisher disables events.
func SetupDependencies(repo store.ProductStore, publisher messaging.Publisher, metrics http.Handler, logger *slog.Logger) *Dependencies {
	deps := &Dependencies{
		ProductService: service.NewService(repo, publisher),
		MetricsHandler: metrics,
		Logger:         logger,
	}
	if pinger, ok := repo.(store.Pinger); ok {
		deps.Pinger = pinger
	}
	return deps
}

// SetupHttpHandler builds the router with middleware and every route.
// Used by E2E tests to exercise the API without a listening server.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productHandler := rest.NewHandler(deps.ProductService, deps.Pinger, deps.Logger)
	productHandler.RegisterRoutes(mux)
	mux.Get("/swagger/*", httpSwagger.WrapHandler)
	if deps.MetricsHandler != nil {
		mux.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
}

// SetupHttpServer creates the HTTP server of the product API.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, "product-api", SetupHttpHandler(deps))
}

// SetupGrpcServer creates the gRPC server exposing the catalog read API.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	catalogRegisterFunc := func(s *grpc.Server) {
		catalogv1.RegisterCatalogServiceServer(s, grpcImpl.NewServer(deps.ProductService, deps.Logger))
	}
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, catalogRegisterFunc)
}
