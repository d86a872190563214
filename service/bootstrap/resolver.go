package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/safing/rdapboot/base/log"
	"github.com/safing/rdapboot/base/storage"
)

// Resolver finds the RDAP service responsible for an identifier.
type Resolver struct {
	loader *Loader
	db     storage.Interface
}

// Result is the outcome of a successful lookup.
type Result struct {
	Kind       Kind
	Identifier Identifier

	// Service is the most specific matching service entry.
	Service *Service
	// Candidates holds all matching service entries, most specific first.
	Candidates []*Service

	// Source, FetchedAt and StaleReason describe the registry document the
	// result was taken from.
	Source      Source
	FetchedAt   time.Time
	StaleReason error
}

// BaseURL returns the first base location of the winning service.
func (r *Result) BaseURL() string {
	return r.Service.BaseURL()
}

// URLs returns all base locations of the winning service in document order.
func (r *Result) URLs() []string {
	return r.Service.URLs
}

// Try calls fn with the base locations of the winning service in order,
// until one call succeeds. Other matching services are never tried.
// If all calls fail, the errors are returned combined.
func (r *Result) Try(fn func(baseURL string) error) error {
	var errs *multierror.Error
	for _, u := range r.Service.URLs {
		err := fn(u)
		if err == nil {
			return nil
		}
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", u, err))
	}
	if errs == nil {
		return fmt.Errorf("%w: service has no base location", ErrNoServiceFound)
	}
	return errs.ErrorOrNil()
}

// NewResolver returns a resolver using the given loader.
func NewResolver(loader *Loader) *Resolver {
	return &Resolver{loader: loader}
}

// New creates a resolver from the configuration. If the configured cache
// storage cannot be opened, resolving continues without a cache.
func New(cfg Config) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	urls, err := cfg.RegistryURLs()
	if err != nil {
		return nil, err
	}

	db, err := storage.StartDatabase("registries", cfg.Cache.Type, cfg.Cache.Location)
	if err != nil {
		log.Warningf("bootstrap: failed to open %s cache at %s, caching is disabled: %s", cfg.Cache.Type, cfg.Cache.Location, err)
		db, err = storage.StartDatabase("registries", "sinkhole", "")
		if err != nil {
			return nil, fmt.Errorf("failed to start sinkhole storage: %w", err)
		}
	}

	loader := NewLoader(
		NewCache(db, cfg.Cache.MaxAge),
		NewHTTPTransport(cfg.HTTP.Timeout, cfg.HTTP.UserAgent),
		urls,
	)
	return &Resolver{
		loader: loader,
		db:     db,
	}, nil
}

// Loader returns the loader of the resolver.
func (r *Resolver) Loader() *Loader {
	return r.loader
}

// Close shuts down the cache storage opened by New.
func (r *Resolver) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Shutdown()
}

// Lookup loads the registry responsible for the identifier and returns the
// matching services. If the registry has no matching service, the returned
// error wraps ErrNoServiceFound. Other errors are a *FetchError or a
// *ParseError.
func (r *Resolver) Lookup(ctx context.Context, id Identifier) (*Result, error) {
	if isNilIdentifier(id) {
		return nil, fmt.Errorf("%w: nil", ErrInvalidIdentifier)
	}
	kind := id.Kind()

	doc, err := r.loader.Load(ctx, kind, false)
	if err != nil {
		countResolve(kind, resolveError)
		return nil, err
	}

	var candidates []*Service
	switch v := id.(type) {
	case *DomainIdentifier:
		candidates = MatchDomain(doc, v.Name)
	case *IPIdentifier:
		candidates = MatchIP(doc, v.Prefix)
	case *ASNIdentifier:
		candidates = MatchASN(doc, v.Number)
	case *EntityIdentifier:
		candidates = MatchTag(doc, v.Tag)
	default:
		countResolve(kind, resolveError)
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidIdentifier, id)
	}

	if len(candidates) == 0 {
		countResolve(kind, resolveNotFound)
		return nil, fmt.Errorf("%w for %s in %s registry", ErrNoServiceFound, id, kind)
	}
	countResolve(kind, resolveFound)
	log.Tracef("bootstrap: %s resolved to %s", id, candidates[0].BaseURL())

	return &Result{
		Kind:        kind,
		Identifier:  id,
		Service:     candidates[0],
		Candidates:  candidates,
		Source:      doc.Source,
		FetchedAt:   doc.FetchedAt,
		StaleReason: doc.StaleReason,
	}, nil
}

// Resolve returns the base location of the service responsible for the
// identifier.
func (r *Resolver) Resolve(ctx context.Context, id Identifier) (string, error) {
	res, err := r.Lookup(ctx, id)
	if err != nil {
		return "", err
	}
	return res.BaseURL(), nil
}

// ResolveString parses the identifier and resolves it.
func (r *Resolver) ResolveString(ctx context.Context, s string) (string, error) {
	id, err := ParseIdentifier(s)
	if err != nil {
		return "", err
	}
	return r.Resolve(ctx, id)
}

// Refresh revalidates the given registries with their origin in parallel.
// Without kinds, all registries are refreshed. Registries that could only be
// served from the stale cache are reported as errors.
func (r *Resolver) Refresh(ctx context.Context, kinds ...Kind) error {
	if len(kinds) == 0 {
		kinds = AllKinds()
	}

	var (
		errs = make([]error, len(kinds))
		g    errgroup.Group
	)
	for i, kind := range kinds {
		i := i
		kind := kind
		g.Go(func() error {
			doc, err := r.loader.Load(ctx, kind, true)
			switch {
			case err != nil:
				errs[i] = err
			case doc.Source == SourceStale && doc.StaleReason != nil:
				errs[i] = doc.StaleReason
			case doc.Source == SourceStale:
				errs[i] = fmt.Errorf("%s: %w", kind, errStale)
			}
			return nil
		})
	}
	_ = g.Wait()

	var merged *multierror.Error
	for _, err := range errs {
		if err != nil {
			merged = multierror.Append(merged, err)
		}
	}
	if merged == nil {
		return nil
	}
	if len(merged.Errors) == 1 {
		return merged.Errors[0]
	}
	return merged
}

// errStale is used when a stale document carries no reason.
var errStale = errors.New("registry is stale")
