// Package events holds the payloads published on product lifecycle changes.
// Products are identified by their external id only.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/productapi/pkg/messaging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSnapshot is the externally visible state of a product at the time of the event.
type ProductSnapshot struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

type ProductCreatedEvent struct {
	Carrier    map[string]string `json:"carrier,omitempty"`
	Product    ProductSnapshot   `json:"product"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func (e ProductCreatedEvent) Subject() string {
	return messaging.ProductsCreatedSubject
}

func (e ProductCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductUpdatedEvent struct {
	Carrier    map[string]string `json:"carrier,omitempty"`
	Product    ProductSnapshot   `json:"product"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func (e ProductUpdatedEvent) Subject() string {
	return messaging.ProductsUpdatedSubject
}

func (e ProductUpdatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductDeletedEvent struct {
	Carrier    map[string]string `json:"carrier,omitempty"`
	ProductID  uuid.UUID         `json:"product_id"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func (e ProductDeletedEvent) Subject() string {
	return messaging.ProductsDeletedSubject
}

func (e ProductDeletedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
