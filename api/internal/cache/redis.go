// Package cache — опциональный Redis-кэш для проксируемых изображений.
// При выключенном Redis все операции превращаются в no-op.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const proxyTTL = time.Hour

type ImageCache struct {
	rdb *redis.Client
}

// New подключается к Redis. При пустом адресе возвращает выключенный кэш.
func New(ctx context.Context, addr, password string) (*ImageCache, error) {
	if addr == "" {
		return &ImageCache{}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &ImageCache{rdb: rdb}, nil
}

func (c *ImageCache) Enabled() bool { return c != nil && c.rdb != nil }

// Get возвращает содержимое и content-type, либо ok=false.
func (c *ImageCache) Get(ctx context.Context, url string) (data []byte, contentType string, ok bool) {
	if !c.Enabled() {
		return nil, "", false
	}
	data, err := c.rdb.Get(ctx, "proxy:body:"+url).Bytes()
	if err != nil {
		return nil, "", false
	}
	contentType, err = c.rdb.Get(ctx, "proxy:type:"+url).Result()
	if err != nil {
		contentType = "image/jpeg"
	}
	return data, contentType, true
}

func (c *ImageCache) Set(ctx context.Context, url string, data []byte, contentType string) {
	if !c.Enabled() {
		return
	}
	// ошибки кэша не мешают отдаче изображения
	_ = c.rdb.Set(ctx, "proxy:body:"+url, data, proxyTTL).Err()
	_ = c.rdb.Set(ctx, "proxy:type:"+url, contentType, proxyTTL).Err()
}

func (c *ImageCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
