package bootstrap

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/rdapboot/base/storage"
	"github.com/safing/rdapboot/base/storage/hashmap"
)

// brokenStorage fails every operation.
type brokenStorage struct{}

var errBroken = errors.New("disk on fire")

func (brokenStorage) Get(string) ([]byte, error) { return nil, errBroken }
func (brokenStorage) Put(string, []byte) error   { return errBroken }
func (brokenStorage) Delete(string) error        { return errBroken }
func (brokenStorage) Shutdown() error            { return nil }

func newTestCache(t *testing.T, maxAge time.Duration) (*Cache, storage.Interface) {
	t.Helper()

	db, err := hashmap.NewHashMap("test", "")
	require.NoError(t, err)
	return NewCache(db, maxAge), db
}

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()

	cache, _ := newTestCache(t, time.Hour)
	_, ok := cache.Get(KindDomain)
	assert.False(t, ok)

	fetchedAt := time.Date(2024, 6, 10, 22, 0, 1, 123456789, time.UTC)
	require.NoError(t, cache.Put(KindDomain, &Entry{
		SourceURL:    "https://data.iana.org/rdap/dns.json",
		FetchedAt:    fetchedAt,
		ETag:         `"abc"`,
		LastModified: "Mon, 10 Jun 2024 22:00:01 GMT",
		Body:         []byte(testDNSRegistry),
	}))

	entry, ok := cache.Get(KindDomain)
	require.True(t, ok)
	assert.Equal(t, "https://data.iana.org/rdap/dns.json", entry.SourceURL)
	assert.True(t, fetchedAt.Equal(entry.FetchedAt), "fetchedAt must survive with full precision")
	assert.Equal(t, Validators{ETag: `"abc"`, LastModified: "Mon, 10 Jun 2024 22:00:01 GMT"}, entry.Validators())

	// The cached body yields the same match result as the original.
	fromCache, err := ParseDocument(KindDomain, entry.Body)
	require.NoError(t, err)
	direct := mustParse(t, KindDomain, testDNSRegistry)
	assert.Equal(t,
		baseURLs(MatchDomain(direct, "www.example.com")),
		baseURLs(MatchDomain(fromCache, "www.example.com")),
	)

	// Kinds do not share records.
	_, ok = cache.Get(KindIPv4)
	assert.False(t, ok)

	cache.Delete(KindDomain)
	_, ok = cache.Get(KindDomain)
	assert.False(t, ok)
}

func TestCacheUndecodableRecord(t *testing.T) {
	t.Parallel()

	cache, db := newTestCache(t, time.Hour)
	require.NoError(t, db.Put(KindASN.StorageKey(), []byte("definitely not a record")))

	_, ok := cache.Get(KindASN)
	assert.False(t, ok)
}

func TestCacheStorageFailures(t *testing.T) {
	t.Parallel()

	cache := NewCache(brokenStorage{}, 0)
	assert.Equal(t, DefaultMaxAge, cache.MaxAge())

	_, ok := cache.Get(KindDomain)
	assert.False(t, ok, "read errors are a miss")

	err := cache.Put(KindDomain, &Entry{Body: []byte("{}")})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBroken)

	// Must not panic.
	cache.Delete(KindDomain)
}

func TestCacheIsFresh(t *testing.T) {
	t.Parallel()

	cache, _ := newTestCache(t, 24*time.Hour)
	now := time.Now()

	assert.True(t, cache.IsFresh(&Entry{FetchedAt: now.Add(-23 * time.Hour), Body: []byte("x")}, now))
	assert.False(t, cache.IsFresh(&Entry{FetchedAt: now.Add(-24 * time.Hour), Body: []byte("x")}, now))
	assert.False(t, cache.IsFresh(&Entry{FetchedAt: now}, now), "entries without body are never fresh")
	assert.False(t, cache.IsFresh(nil, now))
	assert.True(t, cache.IsFresh(&Entry{FetchedAt: now.Add(time.Hour), Body: []byte("x")}, now))
	assert.False(t, cache.IsFresh(&Entry{FetchedAt: now.Add(25 * time.Hour), Body: []byte("x")}, now))
}
