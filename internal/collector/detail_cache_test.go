package collector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEnricher 按标题返回预设结果并记录调用次数
type stubEnricher struct {
	mu      sync.Mutex
	results map[string]Enrichment
	calls   map[string]int
}

func newStubEnricher(results map[string]Enrichment) *stubEnricher {
	return &stubEnricher{results: results, calls: map[string]int{}}
}

func (s *stubEnricher) Enrich(_ context.Context, title string) Enrichment {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[title]++
	return s.results[title]
}

func (s *stubEnricher) count(title string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[title]
}

func TestCachedEnricherHitsRedisOnSecondCall(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	next := newStubEnricher(map[string]Enrichment{"A": {Category: "社会", Description: "d"}})
	c := NewCachedEnricher(next, rdb, time.Hour, nil)

	first := c.Enrich(context.Background(), "A")
	second := c.Enrich(context.Background(), "A")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.count("A"))
	assert.True(t, mr.Exists(detailCachePrefix+"A"))
	assert.Equal(t, time.Hour, mr.TTL(detailCachePrefix+"A"))
}

func TestCachedEnricherSkipsEmptyResults(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	next := newStubEnricher(nil)
	c := NewCachedEnricher(next, rdb, 0, nil)

	assert.True(t, c.Enrich(context.Background(), "B").IsZero())
	assert.True(t, c.Enrich(context.Background(), "B").IsZero())
	assert.Equal(t, 2, next.count("B"))
	assert.False(t, mr.Exists(detailCachePrefix+"B"))
}

func TestCachedEnricherFallsBackWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	next := newStubEnricher(map[string]Enrichment{"C": {Category: "娱乐"}})
	got := NewCachedEnricher(next, rdb, time.Minute, nil).Enrich(context.Background(), "C")

	require.Equal(t, "娱乐", got.Category)
	assert.Equal(t, 1, next.count("C"))
}

func TestCachedEnricherWithoutRedis(t *testing.T) {
	next := newStubEnricher(map[string]Enrichment{"D": {Description: "x"}})
	got := NewCachedEnricher(next, nil, 0, nil).Enrich(context.Background(), "D")
	assert.Equal(t, "x", got.Description)
}
