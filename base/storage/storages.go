package storage

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// A Factory creates a new storage of its type.
// The meaning of location depends on the backend: a directory for file based
// backends, a URL for network backends.
type Factory func(name, location string) (Interface, error)

var (
	storages     = make(map[string]Factory)
	storagesLock sync.Mutex
)

// Register registers a new storage type.
func Register(name string, factory Factory) error {
	storagesLock.Lock()
	defer storagesLock.Unlock()

	_, ok := storages[name]
	if ok {
		return errors.New("factory for this type already exists")
	}

	storages[name] = factory
	return nil
}

// StartDatabase starts a new storage with the given name and storageType at location.
func StartDatabase(name, storageType, location string) (Interface, error) {
	storagesLock.Lock()
	factory, ok := storages[storageType]
	storagesLock.Unlock()

	if !ok {
		return nil, fmt.Errorf("storage type %s not registered", storageType)
	}

	return factory(name, location)
}

// IsRegistered returns whether a storage type with the given name exists.
func IsRegistered(storageType string) bool {
	storagesLock.Lock()
	defer storagesLock.Unlock()

	_, ok := storages[storageType]
	return ok
}

// Types returns the names of all registered storage types, sorted.
func Types() []string {
	storagesLock.Lock()
	defer storagesLock.Unlock()

	names := make([]string, 0, len(storages))
	for name := range storages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidKey reports whether key only consists of characters that are safe to
// use as a file name on all common file systems: lower case ASCII letters,
// digits, '-', '_' and '.', not starting with a dot.
func ValidKey(key string) bool {
	if key == "" || len(key) > 128 || key[0] == '.' {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
