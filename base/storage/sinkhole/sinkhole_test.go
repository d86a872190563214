package sinkhole

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/rdapboot/base/storage"
)

func TestSinkhole(t *testing.T) {
	t.Parallel()

	db, err := storage.StartDatabase("test", "sinkhole", "")
	require.NoError(t, err)

	require.NoError(t, db.Put("dns", []byte("x")))
	_, err = db.Get("dns")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	assert.NoError(t, db.Delete("dns"))
	assert.NoError(t, db.Shutdown())
}
