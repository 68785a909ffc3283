// Package cache keeps rendered public pages in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeplay/internal/logging"
	"codeplay/internal/metrics"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const keyPrefix = "codeplay:"

// PageCache stores rendered HTML per project and route, plus the mapping
// from public identifiers (custom URLs) to project ids. A nil client
// disables caching: every lookup misses and writes are dropped.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PageCache{
		client: client,
		ttl:    ttl,
		log:    logging.L().With(zap.String("component", "page_cache")),
	}
}

// Enabled reports whether a Redis client is configured
func (c *PageCache) Enabled() bool { return c != nil && c.client != nil }

func pageKey(projectID, route string) string {
	if route == "" {
		route = "/"
	}
	return fmt.Sprintf("%spage:%s:%s", keyPrefix, projectID, route)
}

func aliasKey(identifier string) string {
	return keyPrefix + "alias:" + identifier
}

// GetPage returns the cached page for projectID at route
func (c *PageCache) GetPage(ctx context.Context, projectID, route string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	data, err := c.client.Get(ctx, pageKey(projectID, route)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("page cache read failed", zap.Error(err))
		}
		metrics.Get().CacheMissesTotal.Inc()
		return nil, false
	}
	metrics.Get().CacheHitsTotal.Inc()
	return data, true
}

// SetPage stores a rendered page. Failures are logged and ignored.
func (c *PageCache) SetPage(ctx context.Context, projectID, route string, html []byte) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Set(ctx, pageKey(projectID, route), html, c.ttl).Err(); err != nil {
		c.log.Warn("page cache write failed", zap.Error(err))
	}
}

// ResolveAlias maps a public identifier to a project id
func (c *PageCache) ResolveAlias(ctx context.Context, identifier string) (string, bool) {
	if !c.Enabled() {
		return "", false
	}
	id, err := c.client.Get(ctx, aliasKey(identifier)).Result()
	if err != nil {
		return "", false
	}
	return id, true
}

func (c *PageCache) SetAlias(ctx context.Context, identifier, projectID string) {
	if !c.Enabled() || identifier == projectID {
		return
	}
	if err := c.client.Set(ctx, aliasKey(identifier), projectID, c.ttl).Err(); err != nil {
		c.log.Warn("alias cache write failed", zap.Error(err))
	}
}

// Invalidate drops every cached page of projectID, subpages included, and
// the given identifier aliases.
func (c *PageCache) Invalidate(ctx context.Context, projectID string, aliases ...string) error {
	if !c.Enabled() {
		return nil
	}
	keys := make([]string, 0, len(aliases)+4)
	for _, a := range aliases {
		if a != "" {
			keys = append(keys, aliasKey(a))
		}
	}

	iter := c.client.Scan(ctx, 0, fmt.Sprintf("%spage:%s:*", keyPrefix, projectID), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cached pages: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cached pages: %w", err)
	}
	return nil
}
