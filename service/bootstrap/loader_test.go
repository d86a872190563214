package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testOrigin serves a registry document with ETag revalidation.
type testOrigin struct {
	srv *httptest.Server

	lock   sync.Mutex
	body   string
	etag   string
	status int

	requests    atomic.Int32
	conditional atomic.Int32
}

func newTestOrigin(t *testing.T, body string) *testOrigin {
	t.Helper()

	o := &testOrigin{body: body, etag: `"1"`}
	o.srv = httptest.NewServer(http.HandlerFunc(o.serve))
	t.Cleanup(o.srv.Close)
	return o
}

func (o *testOrigin) serve(w http.ResponseWriter, r *http.Request) {
	o.requests.Add(1)

	o.lock.Lock()
	defer o.lock.Unlock()

	if o.status != 0 {
		w.WriteHeader(o.status)
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" {
		o.conditional.Add(1)
		if inm == o.etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	w.Header().Set("ETag", o.etag)
	_, _ = w.Write([]byte(o.body))
}

func (o *testOrigin) set(body, etag string, status int) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.body, o.etag, o.status = body, etag, status
}

// testClock is a settable clock for the loader.
type testClock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *testClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

func newTestLoader(t *testing.T, origin *testOrigin) (*Loader, *testClock) {
	t.Helper()

	cache, _ := newTestCache(t, 24*time.Hour)
	clock := &testClock{now: time.Date(2024, 6, 11, 12, 0, 0, 0, time.UTC)}
	l := NewLoader(cache, NewHTTPTransport(time.Second, ""), map[Kind]string{
		KindDomain: origin.srv.URL + "/dns.json",
	})
	l.now = clock.Now
	return l, clock
}

func TestLoaderLifecycle(t *testing.T) {
	t.Parallel()

	origin := newTestOrigin(t, testDNSRegistry)
	l, clock := newTestLoader(t, origin)
	ctx := context.Background()

	// First load fetches from the origin and caches.
	doc, err := l.Load(ctx, KindDomain, false)
	require.NoError(t, err)
	assert.Equal(t, SourceOrigin, doc.Source)
	assert.Len(t, doc.Services, 2)
	assert.EqualValues(t, 1, origin.requests.Load())

	entry, ok := l.Cache().Get(KindDomain)
	require.True(t, ok)
	assert.Equal(t, `"1"`, entry.ETag)
	assert.Equal(t, origin.srv.URL+"/dns.json", entry.SourceURL)
	firstFetch := entry.FetchedAt

	// Fresh cache is used without contacting the origin.
	clock.Advance(time.Hour)
	doc, err = l.Load(ctx, KindDomain, false)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, doc.Source)
	assert.EqualValues(t, 1, origin.requests.Load())

	// Stale cache is revalidated, not modified advances fetchedAt.
	clock.Advance(24 * time.Hour)
	doc, err = l.Load(ctx, KindDomain, false)
	require.NoError(t, err)
	assert.Equal(t, SourceRevalidated, doc.Source)
	assert.EqualValues(t, 2, origin.requests.Load())
	assert.EqualValues(t, 1, origin.conditional.Load())

	entry, ok = l.Cache().Get(KindDomain)
	require.True(t, ok)
	assert.True(t, entry.FetchedAt.After(firstFetch))
	assert.Equal(t, []byte(testDNSRegistry), entry.Body)

	// Forced revalidation of a fresh entry picks up changes.
	origin.set(`{"version": "1.0", "services": [[["org"], ["https://org/"]]]}`, `"2"`, 0)
	doc, err = l.Load(ctx, KindDomain, true)
	require.NoError(t, err)
	assert.Equal(t, SourceOrigin, doc.Source)
	assert.Equal(t, []string{"org"}, doc.Services[0].Keys)

	entry, ok = l.Cache().Get(KindDomain)
	require.True(t, ok)
	assert.Equal(t, `"2"`, entry.ETag)
}

func TestLoaderServesStaleOnFailure(t *testing.T) {
	t.Parallel()

	origin := newTestOrigin(t, testDNSRegistry)
	l, clock := newTestLoader(t, origin)
	ctx := context.Background()

	_, err := l.Load(ctx, KindDomain, false)
	require.NoError(t, err)

	// Origin fails.
	clock.Advance(48 * time.Hour)
	origin.set("", "", http.StatusServiceUnavailable)
	doc, err := l.Load(ctx, KindDomain, false)
	require.NoError(t, err)
	assert.Equal(t, SourceStale, doc.Source)
	var fetchErr *FetchError
	require.True(t, errors.As(doc.StaleReason, &fetchErr))
	var statusErr *StatusError
	require.True(t, errors.As(doc.StaleReason, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)

	// Origin serves garbage: the stale copy is kept and served.
	origin.set(`{"services": "nope"}`, `"broken"`, 0)
	doc, err = l.Load(ctx, KindDomain, false)
	require.NoError(t, err)
	assert.Equal(t, SourceStale, doc.Source)
	var parseErr *ParseError
	require.True(t, errors.As(doc.StaleReason, &parseErr))
	assert.Equal(t, origin.srv.URL+"/dns.json", parseErr.URL)

	entry, ok := l.Cache().Get(KindDomain)
	require.True(t, ok)
	assert.Equal(t, []byte(testDNSRegistry), entry.Body, "invalid bodies are never cached")
}

func TestLoaderErrorsWithoutCache(t *testing.T) {
	t.Parallel()

	origin := newTestOrigin(t, `{"version": "1.0"}`)
	l, _ := newTestLoader(t, origin)
	ctx := context.Background()

	_, err := l.Load(ctx, KindDomain, false)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
	_, ok := l.Cache().Get(KindDomain)
	assert.False(t, ok)

	origin.set("", "", http.StatusNotFound)
	_, err = l.Load(ctx, KindDomain, false)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr), "expected FetchError, got %v", err)
	assert.Equal(t, KindDomain, fetchErr.Kind)
	assert.False(t, IsNoServiceFound(err))

	// Unreachable origin.
	unreachable := NewLoader(l.Cache(), NewHTTPTransport(time.Second, ""), map[Kind]string{
		KindASN: "http://127.0.0.1:1/asn.json",
	})
	_, err = unreachable.Load(ctx, KindASN, false)
	require.True(t, errors.As(err, &fetchErr))

	_, err = l.Load(ctx, Kind(0), false)
	require.Error(t, err)
}

func TestLoaderDiscardsCorruptCache(t *testing.T) {
	t.Parallel()

	origin := newTestOrigin(t, testDNSRegistry)
	l, clock := newTestLoader(t, origin)

	require.NoError(t, l.Cache().Put(KindDomain, &Entry{
		SourceURL: origin.srv.URL + "/dns.json",
		FetchedAt: clock.Now(),
		ETag:      `"1"`,
		Body:      []byte(`{"services": 42}`),
	}))

	doc, err := l.Load(context.Background(), KindDomain, false)
	require.NoError(t, err)
	assert.Equal(t, SourceOrigin, doc.Source)
	assert.Zero(t, origin.conditional.Load(), "corrupt entries must not be revalidated")

	entry, ok := l.Cache().Get(KindDomain)
	require.True(t, ok)
	assert.Equal(t, []byte(testDNSRegistry), entry.Body)
}

func TestLoaderIgnoresCacheOfOtherLocation(t *testing.T) {
	t.Parallel()

	origin := newTestOrigin(t, testDNSRegistry)
	l, clock := newTestLoader(t, origin)

	require.NoError(t, l.Cache().Put(KindDomain, &Entry{
		SourceURL: "https://elsewhere.example/dns.json",
		FetchedAt: clock.Now(),
		Body:      []byte(`{"version": "1.0", "services": [[["org"], ["https://org/"]]]}`),
	}))

	doc, err := l.Load(context.Background(), KindDomain, false)
	require.NoError(t, err)
	assert.Equal(t, SourceOrigin, doc.Source)
	assert.Len(t, doc.Services, 2)
}

func TestLoaderWithBrokenCache(t *testing.T) {
	t.Parallel()

	origin := newTestOrigin(t, testDNSRegistry)
	l := NewLoader(NewCache(brokenStorage{}, time.Hour), NewHTTPTransport(time.Second, ""), map[Kind]string{
		KindDomain: origin.srv.URL + "/dns.json",
	})

	for i := 0; i < 2; i++ {
		doc, err := l.Load(context.Background(), KindDomain, false)
		require.NoError(t, err, "cache failures must not fail loads")
		assert.Equal(t, SourceOrigin, doc.Source)
	}
	assert.EqualValues(t, 2, origin.requests.Load())
}

func TestLoaderConcurrentLoads(t *testing.T) {
	t.Parallel()

	origin := newTestOrigin(t, testDNSRegistry)
	l, _ := newTestLoader(t, origin)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := l.Load(context.Background(), KindDomain, false)
			assert.NoError(t, err)
			if doc != nil {
				assert.Len(t, doc.Services, 2)
			}
		}()
	}
	wg.Wait()

	_, ok := l.Cache().Get(KindDomain)
	assert.True(t, ok)
}

func TestLoaderCallersCancelIndependently(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(testDNSRegistry))
	}))
	t.Cleanup(srv.Close)

	cache, _ := newTestCache(t, 24*time.Hour)
	l := NewLoader(cache, NewHTTPTransport(5*time.Second, ""), map[Kind]string{
		KindDomain: srv.URL + "/dns.json",
	})

	// The first caller gives up early.
	shortErr := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := l.Load(ctx, KindDomain, false)
		shortErr <- err
	}()
	time.Sleep(10 * time.Millisecond)

	// A caller joining the same load is not affected.
	doc, err := l.Load(context.Background(), KindDomain, false)
	require.NoError(t, err)
	assert.Len(t, doc.Services, 2)

	err = <-shortErr
	require.Error(t, err)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, ok := l.Cache().Get(KindDomain)
	assert.True(t, ok, "abandoned load must still be cached")
}

func TestLoaderDefaultURLs(t *testing.T) {
	t.Parallel()

	l := NewLoader(NewCache(brokenStorage{}, 0), NewHTTPTransport(0, ""), nil)
	for _, kind := range AllKinds() {
		assert.Equal(t, kind.DefaultURL(), l.URL(kind))
	}
}

func TestUpdateSummary(t *testing.T) {
	t.Parallel()

	doc := &Document{Services: []*Service{{}, {}}}
	assert.Equal(t, "domain registry (2 services)", updateSummary(KindDomain, doc))

	doc.Publication = time.Date(2024, 6, 10, 22, 0, 1, 0, time.UTC)
	assert.Equal(t, "domain registry (2 services, published 2024-06-10T22:00:01Z)", updateSummary(KindDomain, doc))
}
