package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avirmani/fleet-manager/internal/domain"
)

// shiftCacheTTL bounds staleness of cached shift definitions. Shifts change
// rarely; a few minutes of staleness is acceptable for route generation.
const shiftCacheTTL = 5 * time.Minute

// CachedShiftRepo wraps a ShiftRepo with a Redis read-through cache. Route
// generation resolves the same shift once per booking batch, so the lookup
// is hot. Cache failures fall through to the database silently.
type CachedShiftRepo struct {
	inner ShiftRepo
	rdb   *redis.Client
}

// NewCachedShiftRepo wraps inner with Redis caching.
func NewCachedShiftRepo(inner ShiftRepo, rdb *redis.Client) *CachedShiftRepo {
	return &CachedShiftRepo{inner: inner, rdb: rdb}
}

func shiftCacheKey(tenantID string, id int64) string {
	return fmt.Sprintf("shift:%s:%d", tenantID, id)
}

func (r *CachedShiftRepo) GetByID(ctx context.Context, tenantID string, id int64) (domain.Shift, error) {
	key := shiftCacheKey(tenantID, id)

	if raw, err := r.rdb.Get(ctx, key).Bytes(); err == nil {
		var s domain.Shift
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, nil
		}
		// Corrupt entry; drop it and reload.
		r.rdb.Del(ctx, key)
	}

	s, err := r.inner.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Shift{}, err
	}

	if raw, err := json.Marshal(s); err == nil {
		r.rdb.Set(ctx, key, raw, shiftCacheTTL)
	}
	return s, nil
}
