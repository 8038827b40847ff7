// Package cache provides a Redis-backed read-through cache of indexer
// identities (id plus optional address), grounded on the teacher pack's
// compliance/internal/repository/redis.go key-prefix wrapper. It is purely
// additive: every method degrades to "not cached" on any Redis error, and
// no core component depends on this package for correctness — only the
// in-memory broadcast snapshot is authoritative.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yash02896/graphix/internal/domain"
)

// DefaultTTL is how long a cached identity is kept when New is given a
// non-positive ttl.
const DefaultTTL = 30 * time.Second

// IndexerCache is a read-through cache over (id -> identity) lookups. It
// intentionally caches only domain.IndexerID, not the full IndexerHandle,
// since the capability (domain.IndexerClient) is not serializable.
type IndexerCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// New connects to addr with the given key prefix (e.g. "graphix:").
func New(addr, keyPrefix string, ttl time.Duration) *IndexerCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &IndexerCache{
		client:    redis.NewClient(&redis.Options{Addr: addr}),
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (c *IndexerCache) key(id string) string {
	return c.keyPrefix + "indexer:" + id
}

// Get returns the cached identity for id, or ok=false on a miss or any
// Redis error.
func (c *IndexerCache) Get(ctx context.Context, id string) (domain.IndexerID, bool) {
	raw, err := c.client.Get(ctx, c.key(id)).Result()
	if err != nil {
		return domain.IndexerID{}, false
	}

	var cached cachedIndexerID
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return domain.IndexerID{}, false
	}
	return cached.toDomain(), true
}

// Set caches an identity; failures are swallowed since the cache is
// best-effort.
func (c *IndexerCache) Set(ctx context.Context, id domain.IndexerID) {
	raw, err := json.Marshal(fromDomain(id))
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(id.ID), raw, c.ttl)
}

func (c *IndexerCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (c *IndexerCache) Close() error {
	return c.client.Close()
}

type cachedIndexerID struct {
	ID      string  `json:"id"`
	Address *string `json:"address,omitempty"`
}

func fromDomain(id domain.IndexerID) cachedIndexerID {
	if id.Address == nil {
		return cachedIndexerID{ID: id.ID}
	}
	addr := id.AddressString()
	return cachedIndexerID{ID: id.ID, Address: &addr}
}

func (c cachedIndexerID) toDomain() domain.IndexerID {
	id := domain.IndexerID{ID: c.ID}
	if c.Address != nil {
		if decoded, err := domain.DecodeAddressHex(*c.Address); err == nil {
			id.Address = &decoded
		}
	}
	return id
}
