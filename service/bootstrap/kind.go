package bootstrap

import (
	"fmt"
	"strings"
)

// Kind identifies one of the published bootstrap registries.
type Kind uint8

// Registry kinds.
const (
	KindDomain Kind = iota + 1
	KindIPv4
	KindIPv6
	KindASN
	KindEntityTag
)

// AllKinds returns all registry kinds.
func AllKinds() []Kind {
	return []Kind{KindDomain, KindIPv4, KindIPv6, KindASN, KindEntityTag}
}

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindDomain:
		return "domain"
	case KindIPv4:
		return "ipv4"
	case KindIPv6:
		return "ipv6"
	case KindASN:
		return "asn"
	case KindEntityTag:
		return "entity-tag"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsValid returns whether k is one of the defined kinds.
func (k Kind) IsValid() bool {
	return k >= KindDomain && k <= KindEntityTag
}

// ParseKind parses a kind name. Besides the names returned by String, the
// names of the registry files are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "domain", "dns":
		return KindDomain, nil
	case "ipv4", "ip4":
		return KindIPv4, nil
	case "ipv6", "ip6":
		return KindIPv6, nil
	case "asn", "autnum", "as":
		return KindASN, nil
	case "entity-tag", "entity", "object-tags", "tag":
		return KindEntityTag, nil
	}
	return 0, fmt.Errorf("unknown registry kind %q", s)
}

// DefaultURL returns the well-known IANA location of the registry.
func (k Kind) DefaultURL() string {
	switch k {
	case KindDomain:
		return "https://data.iana.org/rdap/dns.json"
	case KindIPv4:
		return "https://data.iana.org/rdap/ipv4.json"
	case KindIPv6:
		return "https://data.iana.org/rdap/ipv6.json"
	case KindASN:
		return "https://data.iana.org/rdap/asn.json"
	case KindEntityTag:
		return "https://data.iana.org/rdap/object-tags.json"
	default:
		return ""
	}
}

// StorageKey returns the name under which the registry is cached.
// It only contains characters that are safe in file names.
func (k Kind) StorageKey() string {
	switch k {
	case KindDomain:
		return "dns"
	case KindEntityTag:
		return "object-tags"
	default:
		return k.String()
	}
}
