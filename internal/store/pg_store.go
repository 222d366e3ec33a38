package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/abgdnv/productapi/internal/errors"
	"github.com/abgdnv/productapi/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = "id, external_id, name, description, price, created_at, updated_at"

const (
	insertProduct = `INSERT INTO products (external_id, name, description, price)
VALUES ($1, $2, $3, $4)
RETURNING ` + productColumns

	findAllProducts = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	findProductByExternalID = `SELECT ` + productColumns + ` FROM products WHERE external_id = $1`

	updateProduct = `UPDATE products
SET name = $2, description = $3, price = $4, updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

	deleteProduct = `DELETE FROM products WHERE id = $1`

	// strpos keeps the match literal and case-sensitive; strpos(x, '') = 1 so an empty query matches all rows.
	searchProducts = `SELECT ` + productColumns + ` FROM products
WHERE price > $1 AND price < $2
  AND (strpos(name, $3) > 0 OR strpos(description, $3) > 0)
ORDER BY id`
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// Insert adds a new product. The database assigns the key and both timestamps.
func (p *PgStore) Insert(ctx context.Context, product model.Product) (*model.Product, error) {
	row := p.db.QueryRow(ctx, insertProduct, product.ExternalID, product.Name, product.Description, product.Price)
	inserted, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	return inserted, nil
}

// FindAll retrieves all products in insertion order.
func (p *PgStore) FindAll(ctx context.Context) ([]model.Product, error) {
	products, err := p.query(ctx, findAllProducts)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

// FindByExternalID retrieves a product by its external identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindByExternalID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := scanProduct(p.db.QueryRow(ctx, findProductByExternalID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// Update overwrites the mutable fields of the row with product.Key.
// Returns ErrProductNotFound if the row was deleted meanwhile.
func (p *PgStore) Update(ctx context.Context, product model.Product) (*model.Product, error) {
	row := p.db.QueryRow(ctx, updateProduct, product.Key, product.Name, product.Description, product.Price)
	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return updated, nil
}

// DeleteByKey removes a product by its key. A missing row is not an error.
func (p *PgStore) DeleteByKey(ctx context.Context, key model.InternalKey) error {
	if _, err := p.db.Exec(ctx, deleteProduct, key); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// Search retrieves products strictly inside the price range whose name or description contains the query.
func (p *PgStore) Search(ctx context.Context, query model.SearchQuery) ([]model.Product, error) {
	products, err := p.query(ctx, searchProducts, query.MinPrice, query.MaxPrice, query.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// Ping checks the database connection.
func (p *PgStore) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *PgStore) query(ctx context.Context, sql string, args ...any) ([]model.Product, error) {
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Product, error) {
		product, err := scanProduct(row)
		if err != nil {
			return model.Product{}, err
		}
		return *product, nil
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var product model.Product
	err := row.Scan(
		&product.Key,
		&product.ExternalID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &product, nil
}
