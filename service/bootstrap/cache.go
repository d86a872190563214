package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/safing/structures/dsd"

	"github.com/safing/rdapboot/base/log"
	"github.com/safing/rdapboot/base/storage"
)

// DefaultMaxAge is the default time a cached registry is considered fresh.
const DefaultMaxAge = 24 * time.Hour

// Entry is the cached state of one registry.
type Entry struct {
	SourceURL string
	FetchedAt time.Time

	// ETag and LastModified are the revalidation token handed out by the
	// origin. Both are opaque.
	ETag         string
	LastModified string

	// Body holds the raw document. Only bodies that parsed successfully are
	// ever stored.
	Body []byte
}

// Validators returns the revalidation token of the entry.
func (e *Entry) Validators() Validators {
	return Validators{
		ETag:         e.ETag,
		LastModified: e.LastModified,
	}
}

// cacheRecord is the serialized form of an Entry.
type cacheRecord struct {
	SourceURL    string `json:"sourceURL"`
	FetchedAt    int64  `json:"fetchedAt"` // Unix nanoseconds.
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
	Body         []byte `json:"body"`
}

// Cache persists registry documents between runs.
// Caching is best effort: storage failures are logged and reported as misses.
type Cache struct {
	db     storage.Interface
	maxAge time.Duration
}

// NewCache returns a cache on top of the given storage.
// A non-positive maxAge selects DefaultMaxAge.
func NewCache(db storage.Interface, maxAge time.Duration) *Cache {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Cache{
		db:     db,
		maxAge: maxAge,
	}
}

// MaxAge returns the freshness threshold.
func (c *Cache) MaxAge() time.Duration {
	return c.maxAge
}

// Get returns the cached entry of the registry kind.
// Storage errors and undecodable records are reported as a miss.
func (c *Cache) Get(kind Kind) (*Entry, bool) {
	data, err := c.db.Get(kind.StorageKey())
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warningf("bootstrap: failed to read cached %s registry: %s", kind, err)
		}
		return nil, false
	}

	var r cacheRecord
	if _, err := dsd.Load(data, &r); err != nil {
		log.Warningf("bootstrap: discarding undecodable cache record of %s registry: %s", kind, err)
		return nil, false
	}
	if len(r.Body) == 0 {
		return nil, false
	}

	return &Entry{
		SourceURL:    r.SourceURL,
		FetchedAt:    time.Unix(0, r.FetchedAt),
		ETag:         r.ETag,
		LastModified: r.LastModified,
		Body:         r.Body,
	}, true
}

// Put stores the entry of the registry kind. The backend replaces the
// previous record atomically. Errors are logged and returned, but callers are
// free to ignore them.
func (c *Cache) Put(kind Kind, e *Entry) error {
	data, err := dsd.Dump(&cacheRecord{
		SourceURL:    e.SourceURL,
		FetchedAt:    e.FetchedAt.UnixNano(),
		ETag:         e.ETag,
		LastModified: e.LastModified,
		Body:         e.Body,
	}, dsd.CBOR)
	if err == nil {
		err = c.db.Put(kind.StorageKey(), data)
	}
	if err != nil {
		err = fmt.Errorf("failed to cache %s registry: %w", kind, err)
		log.Warningf("bootstrap: %s", err)
		return err
	}
	return nil
}

// Delete removes the cached entry of the registry kind.
func (c *Cache) Delete(kind Kind) {
	if err := c.db.Delete(kind.StorageKey()); err != nil {
		log.Warningf("bootstrap: failed to delete cached %s registry: %s", kind, err)
	}
}

// IsFresh returns whether the entry is younger than the freshness threshold.
func (c *Cache) IsFresh(e *Entry, now time.Time) bool {
	return classify(e, now, c.maxAge) == stateFresh
}
