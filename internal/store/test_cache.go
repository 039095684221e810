package store

import (
	"context"
	"encoding/json"
	"time"

	"lims-assign/internal/domain"
	"lims-assign/internal/repository"

	"go.uber.org/zap"
)

// testCacheTTL is short on purpose: test definitions are read-mostly but
// administrative edits should become visible without a restart.
const testCacheTTL = 5 * time.Minute

// CachedTestsRepository fronts a TestsRepository with the KV store for
// single-test reads on the hot result-validation path. Only test definitions
// are cached here; workload and assignment state are always read from
// Postgres. Redis failures degrade to the underlying repository.
type CachedTestsRepository struct {
	inner  repository.TestsRepository
	kv     KV
	logger *zap.Logger
}

func NewCachedTestsRepository(inner repository.TestsRepository, kv KV, logger *zap.Logger) *CachedTestsRepository {
	return &CachedTestsRepository{inner: inner, kv: kv, logger: logger}
}

var _ repository.TestsRepository = (*CachedTestsRepository)(nil)

func testKey(testID string) string { return "lims:test:" + testID }

func (c *CachedTestsRepository) GetTest(ctx context.Context, testID string) (*domain.Test, error) {
	if raw, err := c.kv.Get(ctx, testKey(testID)); err == nil {
		var t domain.Test
		if err := json.Unmarshal([]byte(raw), &t); err == nil {
			return &t, nil
		}
		// Unreadable entry: drop it and fall through to Postgres.
		_ = c.kv.Del(ctx, testKey(testID))
	} else if err != ErrMiss {
		c.logger.Warn("test cache read failed", zap.String("test_id", testID), zap.Error(err))
	}

	t, err := c.inner.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(t); err == nil {
		if err := c.kv.Set(ctx, testKey(testID), string(raw), testCacheTTL); err != nil {
			c.logger.Warn("test cache write failed", zap.String("test_id", testID), zap.Error(err))
		}
	}
	return t, nil
}

// ListActiveTestsByIDs is a batch planner read; it goes straight to Postgres
// so the owed set always reflects current is_active flags.
func (c *CachedTestsRepository) ListActiveTestsByIDs(ctx context.Context, ids []string) ([]*domain.Test, error) {
	return c.inner.ListActiveTestsByIDs(ctx, ids)
}

// Invalidate drops cached definitions, for administrative test edits.
func (c *CachedTestsRepository) Invalidate(ctx context.Context, testIDs ...string) {
	keys := make([]string, len(testIDs))
	for i, id := range testIDs {
		keys[i] = testKey(id)
	}
	if err := c.kv.Del(ctx, keys...); err != nil {
		c.logger.Warn("test cache invalidation failed", zap.Error(err))
	}
}
