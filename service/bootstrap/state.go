package bootstrap

import "time"

// cacheState is the state of a cached registry at the time of a load.
type cacheState uint8

const (
	stateNoCache cacheState = iota
	stateFresh
	stateStale
)

// loadAction is what a load has to do to obtain a document.
type loadAction uint8

const (
	actionReturnCached loadAction = iota
	actionRevalidate
	actionFetchFresh
)

func (a loadAction) String() string {
	switch a {
	case actionReturnCached:
		return "return cached"
	case actionRevalidate:
		return "revalidate"
	default:
		return "fetch fresh"
	}
}

func classify(entry *Entry, now time.Time, maxAge time.Duration) cacheState {
	switch {
	case entry == nil || len(entry.Body) == 0:
		return stateNoCache
	case entry.FetchedAt.After(now.Add(maxAge)):
		// Timestamps further in the future than a full freshness period
		// cannot be trusted.
		return stateStale
	case now.Sub(entry.FetchedAt) < maxAge:
		return stateFresh
	default:
		return stateStale
	}
}

// decide maps the cache state to the action a load must take.
// It holds no state and only depends on its arguments.
func decide(entry *Entry, now time.Time, maxAge time.Duration, force bool) loadAction {
	switch classify(entry, now, maxAge) {
	case stateFresh:
		if force {
			return actionRevalidate
		}
		return actionReturnCached
	case stateStale:
		return actionRevalidate
	default:
		return actionFetchFresh
	}
}
