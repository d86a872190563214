// Package storagetest provides a conformance test that all storage backends
// must pass.
package storagetest

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/rdapboot/base/storage"
)

// Run exercises the given backend. The backend must be empty.
func Run(t *testing.T, db storage.Interface) {
	t.Helper()

	// Missing keys.
	_, err := db.Get("missing")
	require.True(t, errors.Is(err, storage.ErrNotFound), "expected ErrNotFound, got %v", err)
	require.NoError(t, db.Delete("missing"), "deleting a missing key must succeed")

	// Put and get.
	require.NoError(t, db.Put("dns", []byte("banana")))
	value, err := db.Get("dns")
	require.NoError(t, err)
	assert.Equal(t, []byte("banana"), value)

	// Returned values must be copies.
	value[0] = 'B'
	value, err = db.Get("dns")
	require.NoError(t, err)
	assert.Equal(t, []byte("banana"), value)

	// Overwrite.
	require.NoError(t, db.Put("dns", []byte("apple")))
	value, err = db.Get("dns")
	require.NoError(t, err)
	assert.Equal(t, []byte("apple"), value)

	// Keys are independent.
	require.NoError(t, db.Put("ipv4", []byte("cherry")))
	value, err = db.Get("dns")
	require.NoError(t, err)
	assert.Equal(t, []byte("apple"), value)

	if keyer, ok := db.(storage.Keyer); ok {
		keys, err := keyer.Keys()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"dns", "ipv4"}, keys)
	}

	// Concurrent writers to the same key must leave one complete value.
	var wg sync.WaitGroup
	candidates := make(map[string]bool)
	for i := 0; i < 8; i++ {
		v := fmt.Sprintf("value-%d-%s", i, string(make([]byte, 1024*i)))
		candidates[v] = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, db.Put("asn", []byte(v)))
		}()
	}
	wg.Wait()
	value, err = db.Get("asn")
	require.NoError(t, err)
	assert.True(t, candidates[string(value)], "concurrent puts produced a mixed value")

	// Delete.
	require.NoError(t, db.Delete("dns"))
	_, err = db.Get("dns")
	assert.True(t, errors.Is(err, storage.ErrNotFound), "expected ErrNotFound after delete, got %v", err)
}
