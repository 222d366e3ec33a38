package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	perrors "github.com/abgdnv/productapi/internal/errors"
	"github.com/abgdnv/productapi/internal/model"
	"github.com/google/uuid"
)

// InMemory implements ProductStore using in-memory maps. Keys are never reused.
type InMemory struct {
	mu      sync.RWMutex
	byKey   map[model.InternalKey]model.Product
	keys    map[uuid.UUID]model.InternalKey
	nextKey model.InternalKey
	now     func() time.Time
}

// NewInMemoryStore creates a new instance of ProductStore
func NewInMemoryStore() *InMemory {
	return &InMemory{
		byKey:   make(map[model.InternalKey]model.Product),
		keys:    make(map[uuid.UUID]model.InternalKey),
		nextKey: 1,
		now:     time.Now,
	}
}

func (s *InMemory) Insert(_ context.Context, product model.Product) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[product.ExternalID]; exists {
		return nil, fmt.Errorf("failed to insert product: duplicate external id %s", product.ExternalID)
	}
	product.Key = s.nextKey
	s.nextKey++
	product.CreatedAt = s.now()
	product.UpdatedAt = product.CreatedAt
	s.byKey[product.Key] = product
	s.keys[product.ExternalID] = product.Key

	return &product, nil
}

func (s *InMemory) FindAll(_ context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sorted(func(model.Product) bool { return true }), nil
}

func (s *InMemory) FindByExternalID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[id]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	p := s.byKey[key]
	return &p, nil
}

func (s *InMemory) Update(_ context.Context, product model.Product) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byKey[product.Key]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	stored.Name = product.Name
	stored.Description = product.Description
	stored.Price = product.Price
	stored.UpdatedAt = s.now()
	s.byKey[product.Key] = stored

	return &stored, nil
}

func (s *InMemory) DeleteByKey(_ context.Context, key model.InternalKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.byKey[key]; ok {
		delete(s.keys, p.ExternalID)
		delete(s.byKey, key)
	}
	return nil
}

func (s *InMemory) Search(_ context.Context, query model.SearchQuery) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sorted(func(p model.Product) bool {
		return p.Price.GreaterThan(query.MinPrice) &&
			p.Price.LessThan(query.MaxPrice) &&
			(strings.Contains(p.Name, query.Query) || strings.Contains(p.Description, query.Query))
	}), nil
}

// Ping always succeeds.
func (s *InMemory) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored products.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// sorted must be called with the lock held.
func (s *InMemory) sorted(match func(model.Product) bool) []model.Product {
	list := make([]model.Product, 0, len(s.byKey))
	for _, p := range s.byKey {
		if match(p) {
			list = append(list, p)
		}
	}
	slices.SortFunc(list, func(a, b model.Product) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return list
}
