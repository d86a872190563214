package hashmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/rdapboot/base/storage"
	"github.com/safing/rdapboot/base/storage/storagetest"
)

// Compile time interface checks.
var (
	_ storage.Interface = &HashMap{}
	_ storage.Keyer     = &HashMap{}
)

func TestHashMap(t *testing.T) {
	t.Parallel()

	db, err := NewHashMap("test", "")
	require.NoError(t, err)
	storagetest.Run(t, db)
	assert.NoError(t, db.Shutdown())
}

func TestHashMapSize(t *testing.T) {
	t.Parallel()

	_, err := NewHashMap("test", "not-a-number")
	assert.Error(t, err)
	_, err = NewHashMap("test", "0")
	assert.Error(t, err)

	db, err := NewHashMap("test", "16")
	require.NoError(t, err)
	require.NoError(t, db.Put("dns", []byte("x")))
}
