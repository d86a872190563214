package bootstrap

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-version"
	"github.com/tidwall/gjson"
)

// supportedMajorVersion is the only major format version that is understood.
const supportedMajorVersion = 1

// Source describes where a loaded document came from.
type Source uint8

// Document sources.
const (
	// SourceOrigin means the document was freshly downloaded.
	SourceOrigin Source = iota + 1
	// SourceCache means the cached document was still fresh.
	SourceCache
	// SourceRevalidated means the origin confirmed the cached document.
	SourceRevalidated
	// SourceStale means the origin could not be reached or served garbage and
	// an outdated cached document is used instead.
	SourceStale
)

func (s Source) String() string {
	switch s {
	case SourceOrigin:
		return "origin"
	case SourceCache:
		return "cache"
	case SourceRevalidated:
		return "revalidated"
	case SourceStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Document is a parsed bootstrap registry.
type Document struct {
	Kind        Kind
	Version     string
	Publication time.Time
	Description string

	// Services holds the valid service entries in document order.
	Services []*Service

	// Warnings holds the problems found with individual entries that were
	// skipped during parsing. Nil if there were none.
	Warnings error

	// Source and FetchedAt are set by the Loader.
	Source    Source
	FetchedAt time.Time
	// StaleReason holds the error that caused a stale document to be served.
	StaleReason error
}

// Service is one entry of a bootstrap registry.
type Service struct {
	// Keys holds the match keys. Their format depends on the registry kind.
	Keys []string
	// URLs holds the base locations of the service in document order.
	// All end with a slash.
	URLs []string
	// Contacts holds the registrant contacts of entity tag entries.
	Contacts []string
}

// BaseURL returns the first base location of the service.
func (svc *Service) BaseURL() string {
	if len(svc.URLs) == 0 {
		return ""
	}
	return svc.URLs[0]
}

// ParseDocument parses and validates a bootstrap registry document.
// Structural problems of the document as a whole are returned as a
// *ParseError. Malformed service entries are skipped and recorded in
// Document.Warnings.
func ParseDocument(kind Kind, body []byte) (*Document, error) {
	if !gjson.ValidBytes(body) {
		return nil, &ParseError{Kind: kind, Err: errors.New("not valid JSON")}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, &ParseError{Kind: kind, Err: errors.New("top level is not an object")}
	}

	doc := &Document{
		Kind:        kind,
		Description: root.Get("description").String(),
	}
	var warnings *multierror.Error

	// Check the format version.
	if v := root.Get("version"); v.Exists() {
		doc.Version = v.String()
		parsed, err := version.NewVersion(doc.Version)
		switch {
		case err != nil:
			warnings = multierror.Append(warnings, fmt.Errorf("unparsable version %q: %w", doc.Version, err))
		case parsed.Segments()[0] != supportedMajorVersion:
			return nil, &ParseError{Kind: kind, Err: fmt.Errorf("unsupported format version %s", doc.Version)}
		}
	} else {
		warnings = multierror.Append(warnings, errors.New("missing version"))
	}

	// The publication date is informational only.
	if p := root.Get("publication"); p.Exists() {
		publication, err := time.Parse(time.RFC3339, p.String())
		if err != nil {
			warnings = multierror.Append(warnings, fmt.Errorf("unparsable publication date %q", p.String()))
		} else {
			doc.Publication = publication
		}
	}

	services := root.Get("services")
	if !services.Exists() {
		return nil, &ParseError{Kind: kind, Err: errors.New("missing services")}
	}
	if !services.IsArray() {
		return nil, &ParseError{Kind: kind, Err: errors.New("services is not an array")}
	}

	entries := services.Array()
	doc.Services = make([]*Service, 0, len(entries))
	for i, entry := range entries {
		i := i
		warn := func(err error) {
			warnings = multierror.Append(warnings, fmt.Errorf("service #%d: %w", i, err))
		}
		svc, err := parseService(kind, entry, warn)
		if err != nil {
			warn(err)
			continue
		}
		doc.Services = append(doc.Services, svc)
	}
	if len(entries) > 0 && len(doc.Services) == 0 {
		return nil, &ParseError{Kind: kind, Err: fmt.Errorf("none of the %d service entries are valid: %w", len(entries), warnings.ErrorOrNil())}
	}

	doc.Warnings = warnings.ErrorOrNil()
	return doc, nil
}

func parseService(kind Kind, entry gjson.Result, warn func(error)) (*Service, error) {
	if !entry.IsArray() {
		return nil, errors.New("entry is not an array")
	}
	parts := entry.Array()

	svc := &Service{}
	var keysPart, urlsPart gjson.Result
	switch {
	case kind == KindEntityTag && len(parts) == 3:
		contacts, err := stringArray(parts[0])
		if err != nil {
			return nil, fmt.Errorf("contacts: %w", err)
		}
		svc.Contacts = contacts
		keysPart, urlsPart = parts[1], parts[2]
	case len(parts) == 2:
		keysPart, urlsPart = parts[0], parts[1]
	default:
		return nil, fmt.Errorf("entry has %d elements", len(parts))
	}

	keys, err := stringArray(keysPart)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	for _, key := range keys {
		key = normalizeKey(kind, key)
		// Only the domain registry has a use for the empty key (root zone).
		if key == "" && kind != KindDomain {
			warn(errors.New("ignoring empty key"))
			continue
		}
		svc.Keys = append(svc.Keys, key)
	}
	if len(svc.Keys) == 0 {
		return nil, errors.New("no keys")
	}

	urls, err := stringArray(urlsPart)
	if err != nil {
		return nil, fmt.Errorf("urls: %w", err)
	}
	for _, u := range urls {
		base, err := normalizeBaseURL(u)
		if err != nil {
			warn(err)
			continue
		}
		svc.URLs = append(svc.URLs, base)
	}
	if len(svc.URLs) == 0 {
		return nil, errors.New("no valid urls")
	}

	return svc, nil
}

func stringArray(r gjson.Result) ([]string, error) {
	if !r.IsArray() {
		return nil, errors.New("not an array")
	}
	items := r.Array()
	values := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.String {
			return nil, fmt.Errorf("non-string member %s", item.Raw)
		}
		values = append(values, strings.TrimSpace(item.String()))
	}
	return values, nil
}

func normalizeKey(kind Kind, key string) string {
	switch kind {
	case KindDomain:
		// The root zone may be written as "" or ".".
		return strings.TrimSuffix(strings.ToLower(key), ".")
	case KindIPv4, KindIPv6, KindASN:
		return strings.ReplaceAll(key, " ", "")
	default:
		return key
	}
}

func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return "", fmt.Errorf("unsupported base url %q", raw)
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw, nil
}
