package parser

import (
	"testing"
	"time"

	"github.com/abgdnv/productapi/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ToProduct(t *testing.T) {
	supplied := uuid.New()
	dto := model.ProductDto{ID: supplied, Name: "Toy", Description: "a red toy", Price: decimal.RequireFromString("10.50")}

	product := ToProduct(dto)

	assert.NotEqual(t, supplied, product.ExternalID, "caller supplied id must be ignored")
	assert.NotEqual(t, uuid.Nil, product.ExternalID)
	assert.Equal(t, uuid.Version(4), product.ExternalID.Version())
	assert.Equal(t, "Toy", product.Name)
	assert.Equal(t, "a red toy", product.Description)
	assert.True(t, dto.Price.Equal(product.Price))
	assert.Zero(t, product.Key)
	assert.True(t, product.CreatedAt.IsZero())
	assert.True(t, product.UpdatedAt.IsZero())
}

func Test_ToProduct_FreshIDs(t *testing.T) {
	dto := model.ProductDto{Name: "Toy"}
	seen := make(map[uuid.UUID]struct{})
	for range 1000 {
		id := ToProduct(dto).ExternalID
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func Test_ToProductDto(t *testing.T) {
	product := model.Product{
		Key:         7,
		ExternalID:  uuid.New(),
		Name:        "Toy",
		Description: "a red toy",
		Price:       decimal.RequireFromString("0.99"),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	dto := ToProductDto(product)

	assert.Equal(t, model.ProductDto{
		ID:          product.ExternalID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
	}, dto)
}

func Test_RoundTrip_PreservesFields(t *testing.T) {
	dto := model.ProductDto{Name: "Wörld ✓", Description: "", Price: decimal.RequireFromString("123456.78")}

	got := ToProductDto(ToProduct(dto))

	assert.Equal(t, dto.Name, got.Name)
	assert.Equal(t, dto.Description, got.Description)
	assert.True(t, dto.Price.Equal(got.Price))
	assert.NotEqual(t, dto.ID, got.ID)
}

func Test_ToProductDtos(t *testing.T) {
	t.Run("nil input gives empty slice", func(t *testing.T) {
		got := ToProductDtos(nil)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})
	t.Run("order is preserved", func(t *testing.T) {
		products := []model.Product{
			{Key: 1, ExternalID: uuid.New(), Name: "a"},
			{Key: 2, ExternalID: uuid.New(), Name: "b"},
		}
		got := ToProductDtos(products)
		require.Len(t, got, 2)
		assert.Equal(t, products[0].ExternalID, got[0].ID)
		assert.Equal(t, "b", got[1].Name)
	})
}
