// Package redis caches bar-range reads. Grid searches and walk-forward runs
// re-read the same ranges many times; the cache keeps those reads off the
// sqlite store. Redis being down only costs the speedup: every cache call
// runs through a circuit breaker and falls back to the underlying reader.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"momentum-systemv1/internal/metrics"
	"momentum-systemv1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// BarReader is the read side of the bar store the cache wraps.
type BarReader interface {
	ReadRange(startMS, endMS int64) ([]model.Bar, error)
}

// CacheConfig configures the cached reader.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // 0 = keep cached ranges forever
}

// CachedReader is a BarReader that serves repeated range reads from redis.
type CachedReader struct {
	client  *goredis.Client
	next    BarReader
	ttl     time.Duration
	breaker *Breaker
	instr   *metrics.Metrics // nil-safe
}

// NewCachedReader connects to redis and wraps next. The connection is pinged
// once so a misconfigured address fails at startup, not mid-search.
func NewCachedReader(cfg CacheConfig, next BarReader, instr *metrics.Metrics) (*CachedReader, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	c := &CachedReader{
		client:  client,
		next:    next,
		ttl:     cfg.TTL,
		breaker: NewBreaker(5, 10*time.Second),
		instr:   instr,
	}
	c.breaker.OnStateChange = func(from, to BreakerState) {
		log.Printf("[redis-cache] breaker %s -> %s", from, to)
	}
	log.Printf("[redis-cache] connected to %s", cfg.Addr)
	return c, nil
}

// ReadRange returns bars for [startMS, endMS], cached when possible.
// Cache failures degrade to the underlying reader, never to an error.
func (c *CachedReader) ReadRange(startMS, endMS int64) ([]model.Bar, error) {
	key := fmt.Sprintf("bars:%d:%d", startMS, endMS)

	var cached []model.Bar
	err := c.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		raw, err := c.client.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, &cached)
	})
	if err == nil {
		c.instr.CacheHit()
		return cached, nil
	}
	if err != goredis.Nil && err != ErrCircuitOpen {
		log.Printf("[redis-cache] get %s: %v", key, err)
	}
	c.instr.CacheMiss()

	bars, err := c.next.ReadRange(startMS, endMS)
	if err != nil {
		return nil, err
	}

	storeErr := c.breaker.Execute(func() error {
		raw, err := json.Marshal(bars)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return c.client.Set(ctx, key, raw, c.ttl).Err()
	})
	if storeErr != nil && storeErr != ErrCircuitOpen {
		log.Printf("[redis-cache] set %s: %v", key, storeErr)
	}
	return bars, nil
}

// Close closes the redis connection.
func (c *CachedReader) Close() error {
	return c.client.Close()
}
