package bootstrap

import (
	"strings"

	"github.com/armon/go-radix"
	"github.com/miekg/dns"
)

// MatchDomain returns the services responsible for the given domain name,
// most specific first. A registry key matches if it is a label aligned
// suffix of the name: "com" matches "example.com", but not "notcom". The
// service with the most matching labels wins, document order breaks ties.
//
// The root zone (name "." or "") only matches the dedicated root entry of
// the registry. Reverse DNS names (in-addr.arpa, ip6.arpa) are matched like
// any other name.
func MatchDomain(doc *Document, name string) []*Service {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "." {
		return matchRootZone(doc)
	}

	// Index all suffixes by their reversed labels, so that walking the path of
	// the reversed query visits exactly the label aligned suffixes.
	tree := radix.New()
	for _, svc := range doc.Services {
		for _, key := range svc.Keys {
			if key == "" {
				continue
			}
			indexKey := reversedLabels(dns.SplitDomainName(key))
			var services []*Service
			if existing, ok := tree.Get(indexKey); ok {
				services = existing.([]*Service) //nolint:forcetypeassert
			}
			tree.Insert(indexKey, append(services, svc))
		}
	}

	labels := dns.SplitDomainName(dns.Fqdn(name))
	var candidates []candidate
	tree.WalkPath(reversedLabels(labels), func(suffix string, v interface{}) bool {
		score := int64(strings.Count(suffix, "."))
		for _, svc := range v.([]*Service) { //nolint:forcetypeassert
			candidates = append(candidates, candidate{svc: svc, score: score})
		}
		return false
	})

	// WalkPath visits shorter suffixes first, and the services of one suffix
	// in document order. Restore document order among all candidates before
	// ranking, so that ties are broken correctly.
	sortByDocumentOrder(doc, candidates)
	return rank(candidates)
}

func matchRootZone(doc *Document) []*Service {
	var candidates []candidate
	for _, svc := range doc.Services {
		for _, key := range svc.Keys {
			if key == "" {
				candidates = append(candidates, candidate{svc: svc})
			}
		}
	}
	return rank(candidates)
}

// reversedLabels joins labels from right to left, each terminated by a dot:
// [www example com] becomes "com.example.www.".
func reversedLabels(labels []string) string {
	var b strings.Builder
	for i := len(labels) - 1; i >= 0; i-- {
		b.WriteString(labels[i])
		b.WriteByte('.')
	}
	return b.String()
}
