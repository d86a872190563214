package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/safing/rdapboot/base/log"
)

// Loader obtains registry documents from the cache or the origin.
type Loader struct {
	cache     *Cache
	transport Transport
	urls      map[Kind]string

	now   func() time.Time
	group singleflight.Group
}

// NewLoader returns a new loader. Registry locations missing from urls use
// the default IANA locations.
func NewLoader(cache *Cache, transport Transport, urls map[Kind]string) *Loader {
	l := &Loader{
		cache:     cache,
		transport: transport,
		urls:      make(map[Kind]string, len(AllKinds())),
		now:       time.Now,
	}
	for _, kind := range AllKinds() {
		l.urls[kind] = kind.DefaultURL()
	}
	for kind, u := range urls {
		if u != "" {
			l.urls[kind] = u
		}
	}
	return l
}

// URL returns the location the registry is fetched from.
func (l *Loader) URL(kind Kind) string {
	return l.urls[kind]
}

// Cache returns the cache used by the loader.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Load returns the current document of the registry kind.
// Fresh cached documents are used as is, unless forceRevalidate is set.
// Stale documents are revalidated with the origin. If the origin cannot be
// reached, a stale cached document is served instead of failing.
// Concurrent loads of the same kind are collapsed into one.
func (l *Loader) Load(ctx context.Context, kind Kind, forceRevalidate bool) (*Document, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid registry kind %d", kind)
	}

	key := kind.String()
	if forceRevalidate {
		key += "/force"
	}
	// The shared load must not depend on the cancellation of the caller that
	// happened to start it. Timeouts are enforced by the transport.
	loadCtx := context.WithoutCancel(ctx)
	resCh := l.group.DoChan(key, func() (interface{}, error) {
		return l.load(loadCtx, kind, forceRevalidate)
	})

	select {
	case res := <-resCh:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Document), nil //nolint:forcetypeassert
	case <-ctx.Done():
		countFetch(kind, fetchError)
		return nil, &FetchError{Kind: kind, URL: l.URL(kind), Err: ctx.Err()}
	}
}

func (l *Loader) load(ctx context.Context, kind Kind, forceRevalidate bool) (*Document, error) {
	url := l.URL(kind)
	now := l.now()

	entry, ok := l.cache.Get(kind)
	if ok && entry.SourceURL != url {
		log.Debugf("bootstrap: ignoring cached %s registry from %s, now using %s", kind, entry.SourceURL, url)
		entry, ok = nil, false
	}
	if !ok {
		countCache(kind, cacheMiss)
	}

	action := decide(entry, now, l.cache.MaxAge(), forceRevalidate)
	log.Tracef("bootstrap: loading %s registry: %s", kind, action)

	switch action {
	case actionReturnCached:
		doc, err := ParseDocument(kind, entry.Body)
		if err == nil {
			countCache(kind, cacheHit)
			doc.Source = SourceCache
			doc.FetchedAt = entry.FetchedAt
			return doc, nil
		}
		l.discard(kind, err)
		return l.fetchFresh(ctx, kind, url)

	case actionRevalidate:
		return l.revalidate(ctx, kind, url, entry)

	default:
		return l.fetchFresh(ctx, kind, url)
	}
}

func (l *Loader) revalidate(ctx context.Context, kind Kind, url string, entry *Entry) (*Document, error) {
	// Parse the cached copy first, it is the fallback for all failures below.
	cached, err := ParseDocument(kind, entry.Body)
	if err != nil {
		l.discard(kind, err)
		return l.fetchFresh(ctx, kind, url)
	}
	cached.FetchedAt = entry.FetchedAt

	resp, err := l.transport.Fetch(ctx, url, entry.Validators())
	if err != nil {
		countFetch(kind, fetchError)
		return l.serveStale(kind, cached, &FetchError{Kind: kind, URL: url, Err: err}), nil
	}

	if resp.NotModified {
		countFetch(kind, fetchNotModified)
		updated := *entry
		updated.FetchedAt = l.now()
		updated.ETag = resp.Validators.ETag
		updated.LastModified = resp.Validators.LastModified
		_ = l.cache.Put(kind, &updated)

		log.Debugf("bootstrap: %s registry not modified since %s", kind, entry.FetchedAt.Format(time.RFC3339))
		cached.Source = SourceRevalidated
		cached.FetchedAt = updated.FetchedAt
		return cached, nil
	}
	countFetch(kind, fetchOK)

	doc, err := ParseDocument(kind, resp.Body)
	if err != nil {
		setParseErrorURL(err, url)
		return l.serveStale(kind, cached, err), nil
	}
	return l.store(kind, url, resp, doc), nil
}

func (l *Loader) fetchFresh(ctx context.Context, kind Kind, url string) (*Document, error) {
	resp, err := l.transport.Fetch(ctx, url, Validators{})
	if err == nil && resp.NotModified {
		err = errors.New("origin answered unconditional request with not modified")
	}
	if err != nil {
		countFetch(kind, fetchError)
		return nil, &FetchError{Kind: kind, URL: url, Err: err}
	}
	countFetch(kind, fetchOK)

	doc, err := ParseDocument(kind, resp.Body)
	if err != nil {
		setParseErrorURL(err, url)
		return nil, err
	}
	return l.store(kind, url, resp, doc), nil
}

// store caches a successfully parsed response.
func (l *Loader) store(kind Kind, url string, resp *Response, doc *Document) *Document {
	if doc.Warnings != nil {
		log.Warningf("bootstrap: skipped invalid entries of %s registry: %s", kind, doc.Warnings)
	}

	fetchedAt := l.now()
	_ = l.cache.Put(kind, &Entry{
		SourceURL:    url,
		FetchedAt:    fetchedAt,
		ETag:         resp.Validators.ETag,
		LastModified: resp.Validators.LastModified,
		Body:         resp.Body,
	})

	log.Infof("bootstrap: updated %s", updateSummary(kind, doc))
	doc.Source = SourceOrigin
	doc.FetchedAt = fetchedAt
	return doc
}

func updateSummary(kind Kind, doc *Document) string {
	if doc.Publication.IsZero() {
		return fmt.Sprintf("%s registry (%d services)", kind, len(doc.Services))
	}
	return fmt.Sprintf("%s registry (%d services, published %s)", kind, len(doc.Services), doc.Publication.Format(time.RFC3339))
}

func (l *Loader) serveStale(kind Kind, cached *Document, reason error) *Document {
	countCache(kind, cacheStale)
	log.Warningf("bootstrap: serving cached %s registry from %s: %s", kind, cached.FetchedAt.Format(time.RFC3339), reason)
	cached.Source = SourceStale
	cached.StaleReason = reason
	return cached
}

func (l *Loader) discard(kind Kind, err error) {
	countCache(kind, cacheCorrupt)
	log.Warningf("bootstrap: discarding corrupt cached %s registry: %s", kind, err)
	l.cache.Delete(kind)
}

func setParseErrorURL(err error, url string) {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		parseErr.URL = url
	}
}
