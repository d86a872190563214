package bootstrap

import (
	"strings"

	"github.com/safing/rdapboot/base/log"
)

// MatchTag returns the services registered for the given object tag
// (RFC 8521). Tags are compared case-insensitively. A valid registry has at
// most one service per tag. If there are more, they are returned in document
// order and a warning is logged.
func MatchTag(doc *Document, tag string) []*Service {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil
	}

	var candidates []candidate
	for _, svc := range doc.Services {
		for _, key := range svc.Keys {
			if strings.EqualFold(key, tag) {
				candidates = append(candidates, candidate{svc: svc})
				break
			}
		}
	}

	matches := rank(candidates)
	if len(matches) > 1 {
		log.Warningf("bootstrap: tag %q is registered by %d services in %s registry, using the first", tag, len(matches), doc.Kind)
	}
	return matches
}
