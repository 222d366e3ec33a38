// Package catalog dials the catalog gRPC API with the resilience interceptors applied.
package catalog

import (
	"fmt"

	catalogv1 "github.com/abgdnv/productapi/pkg/api/catalog/v1"
	"github.com/abgdnv/productapi/pkg/client/grpc/interceptors"
	"github.com/abgdnv/productapi/pkg/config"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client is a catalog API client bound to its connection.
type Client struct {
	catalogv1.CatalogServiceClient
	conn *grpc.ClientConn
}

// NewClient creates a client for cfg.Addr. Each attempt is bounded by cfg.Timeout; transient
// failures are retried and guarded by a circuit breaker. Extra dial options are appended last.
func NewClient(cfg config.GrpcClientConfig, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(
			interceptors.NewRetryInterceptor(cfg.Resilience.Retry),
			interceptors.NewCircuitBreaker("catalog-client-cb", cfg.Resilience.CircuitBreaker),
			interceptors.UnaryClientTimeoutInterceptor(cfg.Timeout),
		),
	}
	conn, err := grpc.NewClient(cfg.Addr, append(dialOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client connection: %w", err)
	}
	return &Client{
		CatalogServiceClient: catalogv1.NewCatalogServiceClient(conn),
		conn:                 conn,
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
