package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	perrors "github.com/abgdnv/productapi/internal/errors"
	"github.com/abgdnv/productapi/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// countingStore counts lookups that reach the underlying store.
type countingStore struct {
	*InMemory
	lookups atomic.Int32
}

func (c *countingStore) FindByExternalID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	c.lookups.Add(1)
	return c.InMemory.FindByExternalID(ctx, id)
}

type CachedStoreSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	rdb       *redis.Client
	backing   *countingStore
	store     *CachedStore
	ctx       context.Context
}

func (s *CachedStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.container, err = tcredis.Run(s.ctx, "redis:7.4-alpine")
	require.NoError(s.T(), err, "Failed to run Redis container")

	uri, err := s.container.ConnectionString(s.ctx)
	require.NoError(s.T(), err)
	opts, err := redis.ParseURL(uri)
	require.NoError(s.T(), err)
	s.rdb = redis.NewClient(opts)
	require.NoError(s.T(), s.rdb.Ping(s.ctx).Err())
}

func (s *CachedStoreSuite) TearDownSuite() {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *CachedStoreSuite) SetupTest() {
	require.NoError(s.T(), s.rdb.FlushDB(s.ctx).Err())
	s.backing = &countingStore{InMemory: NewInMemoryStore()}
	s.store = NewCachedStore(s.backing, s.rdb, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCachedStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) insert(name string) *model.Product {
	p, err := s.store.Insert(s.ctx, model.NewProduct(uuid.New(), name, "desc", decimal.RequireFromString("12.34")))
	require.NoError(s.T(), err)
	return p
}

func (s *CachedStoreSuite) TestReadThrough() {
	created := s.insert("Cached")

	first, err := s.store.FindByExternalID(s.ctx, created.ExternalID)
	require.NoError(s.T(), err)
	second, err := s.store.FindByExternalID(s.ctx, created.ExternalID)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), int32(1), s.backing.lookups.Load(), "second lookup is served from cache")
	assert.Equal(s.T(), created.Key, second.Key)
	assert.Equal(s.T(), first.Name, second.Name)
	assert.True(s.T(), created.Price.Equal(second.Price))
	assert.True(s.T(), created.CreatedAt.Equal(second.CreatedAt))

	ttl, err := s.rdb.TTL(s.ctx, productCachePrefix+created.ExternalID.String()).Result()
	require.NoError(s.T(), err)
	assert.Greater(s.T(), ttl, time.Duration(0))
}

func (s *CachedStoreSuite) TestNotFoundIsNotCached() {
	id := uuid.New()
	_, err := s.store.FindByExternalID(s.ctx, id)
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
	_, err = s.store.FindByExternalID(s.ctx, id)
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)

	assert.Equal(s.T(), int32(2), s.backing.lookups.Load())
}

func (s *CachedStoreSuite) TestUpdateEvicts() {
	created := s.insert("Before")
	_, err := s.store.FindByExternalID(s.ctx, created.ExternalID)
	require.NoError(s.T(), err)

	replacement := *created
	replacement.Name = "After"
	_, err = s.store.Update(s.ctx, replacement)
	require.NoError(s.T(), err)

	fetched, err := s.store.FindByExternalID(s.ctx, created.ExternalID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "After", fetched.Name)
	assert.Equal(s.T(), int32(2), s.backing.lookups.Load())
}

func (s *CachedStoreSuite) TestDeleteEvicts() {
	created := s.insert("Doomed")
	_, err := s.store.FindByExternalID(s.ctx, created.ExternalID)
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.store.DeleteByKey(s.ctx, created.Key))

	_, err = s.store.FindByExternalID(s.ctx, created.ExternalID)
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
	exists, err := s.rdb.Exists(s.ctx, productCachePrefix+created.ExternalID.String(), keyCachePrefix+"1").Result()
	require.NoError(s.T(), err)
	assert.Zero(s.T(), exists)
}

func (s *CachedStoreSuite) TestUncachedLookupDropsDeletedRow() {
	created := s.insert("Resurrected")
	_, err := s.store.FindByExternalID(s.ctx, created.ExternalID)
	require.NoError(s.T(), err)
	// a fill that raced the delete leaves the deleted row cached
	require.NoError(s.T(), s.backing.DeleteByKey(s.ctx, created.Key))
	_, err = s.store.FindByExternalID(s.ctx, created.ExternalID)
	require.NoError(s.T(), err, "served from the stale entry")

	_, err = s.store.FindByExternalID(WithoutCache(s.ctx), created.ExternalID)
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)

	_, err = s.store.FindByExternalID(s.ctx, created.ExternalID)
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
	exists, err := s.rdb.Exists(s.ctx, productCachePrefix+created.ExternalID.String()).Result()
	require.NoError(s.T(), err)
	assert.Zero(s.T(), exists)
}

func (s *CachedStoreSuite) TestUncachedLookupSkipsCache() {
	created := s.insert("Fresh")
	_, err := s.store.FindByExternalID(s.ctx, created.ExternalID)
	require.NoError(s.T(), err)

	_, err = s.store.FindByExternalID(WithoutCache(s.ctx), created.ExternalID)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), int32(2), s.backing.lookups.Load())
}

func (s *CachedStoreSuite) TestPing() {
	require.NoError(s.T(), s.store.Ping(s.ctx))
}
