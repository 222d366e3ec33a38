// Package parser translates between the external product representation and the persisted entity.
package parser

import (
	"github.com/abgdnv/productapi/internal/model"
	"github.com/google/uuid"
)

// ToProduct builds a new entity from dto with a freshly generated external id.
// Any id carried by dto is ignored; key and timestamps are left for the store.
func ToProduct(dto model.ProductDto) model.Product {
	return model.NewProduct(uuid.New(), dto.Name, dto.Description, dto.Price)
}

// ToProductDto exposes product by its external id and drops storage fields.
func ToProductDto(product model.Product) model.ProductDto {
	return model.ProductDto{
		ID:          product.ExternalID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
	}
}

// ToProductDtos converts products preserving order. The result is never nil.
func ToProductDtos(products []model.Product) []model.ProductDto {
	dtos := make([]model.ProductDto, len(products))
	for i, p := range products {
		dtos[i] = ToProductDto(p)
	}
	return dtos
}
