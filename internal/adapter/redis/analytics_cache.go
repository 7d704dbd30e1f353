package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/architgupta225/Anonn-app-sub003/internal/domain"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	analyticsKeyPrefix = "analytics:"
	invalidateScanSize = 100
)

// AnalyticsCache shares computed analytics between instances. It implements
// domain.AnalyticsCache: Get and Set degrade to a logged miss, only Invalidate
// reports errors.
type AnalyticsCache struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

var _ domain.AnalyticsCache = (*AnalyticsCache)(nil)

func NewAnalyticsCache(rdb goredis.Cmdable, ttl time.Duration) *AnalyticsCache {
	return &AnalyticsCache{rdb: rdb, ttl: ttl}
}

func (c *AnalyticsCache) Get(ctx context.Context, orgID uuid.UUID, minute time.Time) (*domain.Analytics, bool) {
	data, err := c.rdb.Get(ctx, analyticsKey(orgID, minute)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.WarnContext(ctx, "Redis analytics cache GET failed", "organization_id", orgID, "error", err)
		}
		return nil, false
	}

	var result domain.Analytics
	if err := json.Unmarshal(data, &result); err != nil {
		slog.WarnContext(ctx, "Failed to unmarshal cached analytics", "organization_id", orgID, "error", err)
		return nil, false
	}
	if result.Trend == nil {
		result.Trend = []domain.TrendPoint{}
	}
	return &result, true
}

func (c *AnalyticsCache) Set(ctx context.Context, orgID uuid.UUID, minute time.Time, analytics *domain.Analytics) {
	encoded, err := json.Marshal(analytics)
	if err != nil {
		slog.WarnContext(ctx, "Failed to marshal analytics for Redis cache", "organization_id", orgID, "error", err)
		return
	}

	if err := c.rdb.Set(ctx, analyticsKey(orgID, minute), encoded, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Failed to populate Redis analytics cache", "organization_id", orgID, "error", err)
	}
}

// Invalidate deletes every cached minute of orgID.
func (c *AnalyticsCache) Invalidate(ctx context.Context, orgID uuid.UUID) error {
	pattern := analyticsKeyPrefix + orgID.String() + ":*"

	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, invalidateScanSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan analytics cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to invalidate analytics cache: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func analyticsKey(orgID uuid.UUID, minute time.Time) string {
	return analyticsKeyPrefix + orgID.String() + ":" + strconv.FormatInt(minute.Unix(), 10)
}
