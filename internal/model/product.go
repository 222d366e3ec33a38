// Package model holds the product entity as persisted and its external representation.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// prices are rendered as JSON numbers, e.g. "price": 10.5
	decimal.MarshalJSONWithoutQuotes = true
}

// InternalKey is the storage-assigned key of a product. It never leaves the service.
type InternalKey int64

// Product is a persisted product record.
// Key and CreatedAt never change after insert, and ExternalID is never reassigned.
type Product struct {
	Key         InternalKey     `json:"-"`
	ExternalID  uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewProduct builds an unsaved product. The store assigns key and timestamps on insert.
func NewProduct(externalID uuid.UUID, name, description string, price decimal.Decimal) Product {
	return Product{
		ExternalID:  externalID,
		Name:        name,
		Description: description,
		Price:       price,
	}
}

// ProductDto is the external representation of a product. The id is ignored on input.
type ProductDto struct {
	ID          uuid.UUID       `json:"id"          swaggertype:"string" format:"uuid"`
	Name        string          `json:"name"        validate:"text,max=255"`
	Description string          `json:"description" validate:"text,max=4000"`
	Price       decimal.Decimal `json:"price"       validate:"price"       swaggertype:"number" example:"10.5"`
}

// SearchQuery matches products with MinPrice < price < MaxPrice whose name or
// description contains Query. An empty Query matches every product.
type SearchQuery struct {
	Query    string
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
}
