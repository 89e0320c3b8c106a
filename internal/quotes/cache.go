package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cfletch1/portfolio-service/internal/money"
)

// ErrCacheMiss is returned by a KV when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// KV is the small key-value surface the caching client needs. Backed
// by Redis in production, by a map in tests.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisKV adapts a go-redis client to the KV interface.
type RedisKV struct {
	rdb *redis.Client
}

// NewRedisKV wraps a redis client.
func NewRedisKV(rdb *redis.Client) *RedisKV {
	return &RedisKV{rdb: rdb}
}

// Get fetches a key, translating the redis miss sentinel.
func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	return v, err
}

// Set stores a key with a TTL.
func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

// CachingClient shares successful daily quotes across users through a
// per-symbol cache keyed by calendar day, so two portfolios holding
// the same symbol cost one feed call. Only successes are cached;
// cache errors fall through to the feed. Weekly series and snapshot
// quotes are not cached.
type CachingClient struct {
	feed Feed
	kv   KV
	now  func() time.Time
}

// NewCachingClient wraps a feed with a daily quote cache.
func NewCachingClient(feed Feed, kv KV) *CachingClient {
	return &CachingClient{feed: feed, kv: kv, now: time.Now}
}

type cachedQuote struct {
	Price money.Amount `json:"price"`
	AsOf  time.Time    `json:"as_of"`
}

// FetchDaily serves from the cache when a same-day quote exists,
// otherwise asks the feed and caches a success until end of day.
func (c *CachingClient) FetchDaily(ctx context.Context, symbol string) Result {
	now := c.now()
	key := "quote:" + symbol + ":" + now.Format("2006-01-02")

	if v, err := c.kv.Get(ctx, key); err == nil {
		var q cachedQuote
		if err := json.Unmarshal([]byte(v), &q); err == nil {
			return Success(q.Price, q.AsOf)
		}
		log.Printf("discarding undecodable cached quote for %s", symbol)
	} else if err != ErrCacheMiss {
		log.Printf("quote cache read for %s: %v", symbol, err)
	}

	res := c.feed.FetchDaily(ctx, symbol)
	if !res.IsSuccess() {
		return res
	}

	buf, err := json.Marshal(cachedQuote{Price: res.Price, AsOf: res.AsOf})
	if err == nil {
		if err := c.kv.Set(ctx, key, string(buf), untilEndOfDay(now)); err != nil {
			log.Printf("quote cache write for %s: %v", symbol, err)
		}
	}
	return res
}

// FetchWeeklySeries delegates to the feed.
func (c *CachingClient) FetchWeeklySeries(ctx context.Context, symbol string) SeriesResult {
	return c.feed.FetchWeeklySeries(ctx, symbol)
}

// FetchGlobalQuote delegates to the feed.
func (c *CachingClient) FetchGlobalQuote(ctx context.Context, symbol string) GlobalQuoteResult {
	return c.feed.FetchGlobalQuote(ctx, symbol)
}

func untilEndOfDay(now time.Time) time.Duration {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return midnight.Sub(now)
}
