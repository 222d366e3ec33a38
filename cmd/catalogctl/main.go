// Package main implements catalogctl, a command line client for the catalog API.
//
// Usage:
//
//	catalogctl list
//	catalogctl get <id>
//	catalogctl search [-q text] -min <price> -max <price>
//	catalogctl watch
//
// watch prints product events from NATS as they happen, one JSON object per line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/productapi/internal/config"
	catalogv1 "github.com/abgdnv/productapi/pkg/api/catalog/v1"
	"github.com/abgdnv/productapi/pkg/bootstrap"
	"github.com/abgdnv/productapi/pkg/client/catalog"
	"github.com/abgdnv/productapi/pkg/config/configloader"
	pnats "github.com/abgdnv/productapi/pkg/nats"
)

const serviceName = "catalogctl"

var (
	errUsage         = errors.New("usage: catalogctl list | get <id> | search [-q text] -min <price> -max <price> | watch")
	errWatchDisabled = errors.New("watch needs nats.enabled=true")
)

// commands are the collaborators of the subcommands. watch is nil when NATS is disabled.
type commands struct {
	catalog catalogv1.CatalogServiceClient
	watch   func(ctx context.Context, handle pnats.MessageHandler) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("catalogctl failed: %v", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context) error {
	cfg, err := configloader.Load[*config.CatalogCtlConfig](serviceName)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := bootstrap.NewLogger(cfg.Log.Level)

	client, err := catalog.NewClient(cfg.Catalog)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close gRPC client connection", "error", err)
		}
	}()
	cmds := commands{catalog: client}

	if cfg.NATS.Enabled {
		natsConn, err := pnats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
		if err != nil {
			return err
		}
		defer natsConn.Close()
		js, err := pnats.NewJetStreamContext(natsConn)
		if err != nil {
			return err
		}
		cmds.watch = func(ctx context.Context, handle pnats.MessageHandler) error {
			return pnats.Subscribe(ctx, js, cfg.Watch, handle, logger)
		}
	}

	return run(ctx, cmds, os.Args[1:], os.Stdout)
}

// run executes the subcommand in args. Query results are printed as indented JSON.
func run(ctx context.Context, cmds commands, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	var result any
	switch args[0] {
	case "list":
		res, err := cmds.catalog.ListProducts(ctx, &catalogv1.ListProductsRequest{})
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		result = res.Products
	case "get":
		if len(args) != 2 {
			return errUsage
		}
		res, err := cmds.catalog.GetProduct(ctx, &catalogv1.GetProductRequest{Id: args[1]})
		if err != nil {
			return fmt.Errorf("get product %s: %w", args[1], err)
		}
		result = res.Product
	case "search":
		fs := flag.NewFlagSet("search", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		query := fs.String("q", "", "substring of the name or description")
		minPrice := fs.String("min", "", "exclusive lower price bound")
		maxPrice := fs.String("max", "", "exclusive upper price bound")
		if err := fs.Parse(args[1:]); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if *minPrice == "" || *maxPrice == "" {
			return errUsage
		}
		res, err := cmds.catalog.SearchProducts(ctx, &catalogv1.SearchProductsRequest{Query: *query, MinPrice: *minPrice, MaxPrice: *maxPrice})
		if err != nil {
			return fmt.Errorf("search products: %w", err)
		}
		result = res.Products
	case "watch":
		if cmds.watch == nil {
			return errWatchDisabled
		}
		return cmds.watch(ctx, printEvent(out))
	default:
		return errUsage
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// printEvent writes {"subject": ..., "event": ...} per message. Payloads that are not JSON are rejected.
func printEvent(out io.Writer) pnats.MessageHandler {
	enc := json.NewEncoder(out)
	return func(_ context.Context, subject string, data []byte) error {
		if !json.Valid(data) {
			return fmt.Errorf("payload on %s is not JSON", subject)
		}
		return enc.Encode(struct {
			Subject string          `json:"subject"`
			Event   json.RawMessage `json:"event"`
		}{subject, data})
	}
}
