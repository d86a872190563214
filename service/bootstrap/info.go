package bootstrap

import "time"

// Registry states reported by Info.
const (
	StateMissing       = "missing"
	StateFresh         = "fresh"
	StateStale         = "stale"
	StateCorrupt       = "corrupt"
	StateOtherLocation = "other location"
)

// RegistryInfo describes the cached copy of a registry.
type RegistryInfo struct {
	Kind  string `json:"kind" yaml:"kind"`
	URL   string `json:"url" yaml:"url"`
	State string `json:"state" yaml:"state"`

	FetchedAt   time.Time     `json:"fetchedAt,omitempty" yaml:"fetchedAt,omitempty"`
	Age         time.Duration `json:"age,omitempty" yaml:"age,omitempty"`
	ETag        string        `json:"etag,omitempty" yaml:"etag,omitempty"`
	Version     string        `json:"version,omitempty" yaml:"version,omitempty"`
	Publication time.Time     `json:"publication,omitempty" yaml:"publication,omitempty"`
	Services    int           `json:"services" yaml:"services"`
}

// Info returns the state of the cached copy of the registry without
// contacting the origin.
func (l *Loader) Info(kind Kind) *RegistryInfo {
	now := l.now()
	info := &RegistryInfo{
		Kind:  kind.String(),
		URL:   l.URL(kind),
		State: StateMissing,
	}

	entry, ok := l.cache.Get(kind)
	if !ok {
		return info
	}
	info.FetchedAt = entry.FetchedAt
	info.Age = now.Sub(entry.FetchedAt)
	info.ETag = entry.ETag

	switch {
	case entry.SourceURL != info.URL:
		info.State = StateOtherLocation
		info.URL = entry.SourceURL
	case l.cache.IsFresh(entry, now):
		info.State = StateFresh
	default:
		info.State = StateStale
	}

	doc, err := ParseDocument(kind, entry.Body)
	if err != nil {
		info.State = StateCorrupt
		return info
	}
	info.Version = doc.Version
	info.Publication = doc.Publication
	info.Services = len(doc.Services)
	return info
}
