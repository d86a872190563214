package bootstrap

import (
	"github.com/safing/rdapboot/base/metrics"
)

// Cache lookup results.
const (
	cacheHit     = "hit"
	cacheMiss    = "miss"
	cacheStale   = "stale"
	cacheCorrupt = "corrupt"
)

// Fetch results.
const (
	fetchOK          = "ok"
	fetchNotModified = "not_modified"
	fetchError       = "error"
)

// Resolve results.
const (
	resolveFound    = "found"
	resolveNotFound = "not_found"
	resolveError    = "error"
)

func countCache(kind Kind, result string) {
	metrics.Counter("cache/total", map[string]string{"kind": kind.String(), "result": result}).Inc()
}

func countFetch(kind Kind, result string) {
	metrics.Counter("fetch/total", map[string]string{"kind": kind.String(), "result": result}).Inc()
}

func countResolve(kind Kind, result string) {
	metrics.Counter("resolve/total", map[string]string{"kind": kind.String(), "result": result}).Inc()
}
