// Package hashmap provides an in-memory storage backend. Data does not
// survive a restart; it is meant for tests and one-shot runs.
package hashmap

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bluele/gcache"

	"github.com/safing/rdapboot/base/storage"
)

const defaultCacheSize = 128

// HashMap storage.
type HashMap struct {
	name  string
	cache gcache.Cache
}

func init() {
	_ = storage.Register("hashmap", NewHashMap)
}

// NewHashMap creates an in-memory storage. If location is a number, it is
// used as the maximum amount of held entries.
func NewHashMap(name, location string) (storage.Interface, error) {
	size := defaultCacheSize
	if location != "" {
		parsed, err := strconv.Atoi(location)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("hashmap: invalid cache size %q", location)
		}
		size = parsed
	}

	return &HashMap{
		name:  name,
		cache: gcache.New(size).ARC().Build(),
	}, nil
}

// Get returns the value stored at key.
func (hm *HashMap) Get(key string) ([]byte, error) {
	v, err := hm.cache.Get(key)
	if err != nil {
		if errors.Is(err, gcache.KeyNotFoundError) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	data, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("hashmap: unexpected value type %T", v)
	}
	duplicate := make([]byte, len(data))
	copy(duplicate, data)
	return duplicate, nil
}

// Put stores a copy of value at key.
func (hm *HashMap) Put(key string, value []byte) error {
	duplicate := make([]byte, len(value))
	copy(duplicate, value)
	return hm.cache.Set(key, duplicate)
}

// Delete removes key.
func (hm *HashMap) Delete(key string) error {
	hm.cache.Remove(key)
	return nil
}

// Keys returns all held keys.
func (hm *HashMap) Keys() ([]string, error) {
	raw := hm.cache.Keys(false)
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if s, ok := k.(string); ok {
			keys = append(keys, s)
		}
	}
	return keys, nil
}

// Shutdown drops all data.
func (hm *HashMap) Shutdown() error {
	hm.cache.Purge()
	return nil
}
