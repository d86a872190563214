package storage

// Interface defines the methods a storage backend must implement.
// Implementations must be safe for concurrent use and must never expose a
// partially written value to Get.
type Interface interface {
	// Get returns a copy of the value stored at key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Put stores value at key, replacing any previous value atomically.
	Put(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Shutdown releases all resources held by the backend.
	Shutdown() error
}

// Keyer is implemented by backends that can list their keys.
type Keyer interface {
	Keys() ([]string, error)
}
