package collector

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	detailCachePrefix     = "weibo:detail:"
	DefaultDetailCacheTTL = 6 * time.Hour
)

// CachedEnricher 用 Redis 缓存详情页结果，同一天多次采集时避免重复请求详情页。
// Redis 不可用时直接回落到 Next，不影响主流程
type CachedEnricher struct {
	Next   Enricher
	Redis  *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

func NewCachedEnricher(next Enricher, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedEnricher {
	if ttl <= 0 {
		ttl = DefaultDetailCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEnricher{Next: next, Redis: rdb, TTL: ttl, Logger: logger}
}

func (c *CachedEnricher) Enrich(ctx context.Context, title string) Enrichment {
	if c.Redis == nil {
		return c.Next.Enrich(ctx, title)
	}

	key := detailCachePrefix + title
	bs, err := c.Redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached Enrichment
		if err := json.Unmarshal(bs, &cached); err == nil {
			enrichTotal.WithLabelValues("cache_hit").Inc()
			return cached
		}
	case !errors.Is(err, redis.Nil):
		c.Logger.Warn("detail cache get failed", zap.String("title", title), zap.Error(err))
	}

	out := c.Next.Enrich(ctx, title)
	// 空结果不缓存，下一轮还有机会拿到
	if out.IsZero() {
		return out
	}
	if bs, err := json.Marshal(out); err == nil {
		if err := c.Redis.Set(ctx, key, bs, c.TTL).Err(); err != nil {
			c.Logger.Warn("detail cache set failed", zap.String("title", title), zap.Error(err))
		}
	}
	return out
}
