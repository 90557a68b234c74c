package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	listingPrefix = "catalog:products:list:"
	generationKey = "catalog:products:generation"
)

// ListingCache stores rendered product listings in redis, cache-aside.
// Listing keys embed the current generation; InvalidateListings bumps it, so
// a listing computed before a mutation and written after it is never read.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	return &ListingCache{
		client: client,
		ttl:    ttl,
	}
}

// ListingKey hashes a normalized listing request into a cache key of the
// given generation.
func ListingKey(generation int64, request string) string {
	sum := md5.Sum([]byte(request))
	return listingPrefix + strconv.FormatInt(generation, 10) + ":" + hex.EncodeToString(sum[:])
}

// Key resolves the key of a normalized listing request under the current
// generation. Resolve it before querying storage and use it for both Get and Set.
func (c *ListingCache) Key(ctx context.Context, request string) (string, error) {
	generation, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("get listing generation: %w", err)
	}
	return ListingKey(generation, request), nil
}

// Get returns the body cached under key. A miss is (nil, false, nil).
func (c *ListingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get listing %s: %w", key, err)
	}
	return val, true, nil
}

func (c *ListingCache) Set(ctx context.Context, key string, body []byte) error {
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		return fmt.Errorf("set listing %s: %w", key, err)
	}
	return nil
}

// InvalidateListings moves to a new generation and drops every cached
// listing. Keys are collected with SCAN and removed with UNLINK so redis is
// never blocked.
func (c *ListingCache) InvalidateListings(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("bump listing generation: %w", err)
	}

	iter := c.client.Scan(ctx, 0, listingPrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan listing keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Unlink(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("unlink %d listing keys: %w", len(keys), err)
	}
	return nil
}

// Noop is used when no redis address is configured.
type Noop struct{}

func (Noop) Key(_ context.Context, request string) (string, error) { return request, nil }

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte) error { return nil }

func (Noop) InvalidateListings(context.Context) error { return nil }
