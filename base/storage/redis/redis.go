// Package redis stores keys in a redis server, so that several instances can
// share one cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/safing/rdapboot/base/storage"
)

const (
	defaultLocation = "redis://127.0.0.1:6379/0"
	opTimeout       = 5 * time.Second
)

// Redis storage.
type Redis struct {
	name   string
	prefix string
	client *redis.Client
}

func init() {
	_ = storage.Register("redis", NewRedis)
}

// NewRedis connects to the redis server at the location URL.
// All keys are namespaced with the storage name.
func NewRedis(name, location string) (storage.Interface, error) {
	if location == "" {
		location = defaultLocation
	}

	opts, err := redis.ParseURL(location)
	if err != nil {
		return nil, fmt.Errorf("redis: parse URL: %w", err)
	}
	opts.DialTimeout = opTimeout
	opts.ReadTimeout = opTimeout
	opts.WriteTimeout = opTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	return &Redis{
		name:   name,
		prefix: "rdapboot:" + name + ":",
		client: client,
	}, nil
}

// Get returns the value stored at key.
func (r *Redis) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put stores value at key. SET replaces the value in a single step.
func (r *Redis) Put(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

// Delete removes key.
func (r *Redis) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.client.Del(ctx, r.prefix+key).Err()
}

// Keys returns all keys within the namespace of this storage.
func (r *Redis) Keys() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	return keys, iter.Err()
}

// Shutdown closes the connection pool.
func (r *Redis) Shutdown() error {
	return r.client.Close()
}
