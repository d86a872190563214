package bootstrap

import (
	"fmt"
	"net/netip"
	"regexp"
	"strconv"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

var (
	asnRegex   = regexp.MustCompile(`^(?i:AS)?(\d+)$`)
	tagRegex   = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	labelRegex = regexp.MustCompile(`^[a-z0-9_]([a-z0-9_-]*[a-z0-9_])?$`)
)

// Identifier is something a service can be looked up for.
// It is one of *DomainIdentifier, *IPIdentifier, *ASNIdentifier or
// *EntityIdentifier.
type Identifier interface {
	// Kind returns the registry responsible for the identifier.
	Kind() Kind
	String() string

	isIdentifier()
}

// DomainIdentifier is a domain name.
type DomainIdentifier struct {
	// Name is the lower case ASCII form without trailing dot.
	// The root zone is the empty name.
	Name string
}

// IPIdentifier is an IP address or address range.
type IPIdentifier struct {
	Prefix netip.Prefix
}

// ASNIdentifier is an autonomous system number.
type ASNIdentifier struct {
	Number uint32
}

// EntityIdentifier is a tagged entity handle, eg. "XXXX-FRNIC".
type EntityIdentifier struct {
	Handle string
	// Tag is the part after the last hyphen.
	Tag string
}

// isNilIdentifier reports whether id is nil or a typed nil pointer.
func isNilIdentifier(id Identifier) bool {
	switch v := id.(type) {
	case nil:
		return true
	case *DomainIdentifier:
		return v == nil
	case *IPIdentifier:
		return v == nil
	case *ASNIdentifier:
		return v == nil
	case *EntityIdentifier:
		return v == nil
	}
	return false
}

// NewDomain returns a domain identifier. Internationalized names are
// converted to their ASCII form. "." denotes the root zone.
func NewDomain(name string) (*DomainIdentifier, error) {
	name = strings.TrimSpace(name)
	switch name {
	case "":
		return nil, fmt.Errorf("%w: empty domain name", ErrInvalidIdentifier)
	case ".":
		return &DomainIdentifier{}, nil
	}

	name = strings.TrimSuffix(name, ".")
	if ascii, err := idna.Lookup.ToASCII(name); err == nil {
		name = ascii
	}
	name = strings.ToLower(name)

	if _, ok := dns.IsDomainName(name); !ok || strings.HasPrefix(name, ".") || strings.Contains(name, "..") {
		return nil, fmt.Errorf("%w: invalid domain name %q", ErrInvalidIdentifier, name)
	}
	for _, label := range dns.SplitDomainName(name) {
		if !labelRegex.MatchString(label) {
			return nil, fmt.Errorf("%w: invalid label %q in domain name %q", ErrInvalidIdentifier, label, name)
		}
	}
	return &DomainIdentifier{Name: name}, nil
}

// NewIP returns an identifier for a single address.
func NewIP(addr netip.Addr) (*IPIdentifier, error) {
	if !addr.IsValid() {
		return nil, fmt.Errorf("%w: invalid address", ErrInvalidIdentifier)
	}
	addr = addr.Unmap().WithZone("")
	return &IPIdentifier{Prefix: netip.PrefixFrom(addr, addr.BitLen())}, nil
}

// NewIPPrefix returns an identifier for an address range.
func NewIPPrefix(prefix netip.Prefix) (*IPIdentifier, error) {
	if !prefix.IsValid() {
		return nil, fmt.Errorf("%w: invalid prefix", ErrInvalidIdentifier)
	}
	addr := prefix.Addr()
	bits := prefix.Bits()
	// IPv4-mapped ranges are looked up in the IPv4 registry.
	if addr.Is4In6() && bits >= 96 {
		addr = addr.Unmap()
		bits -= 96
	}
	return &IPIdentifier{Prefix: netip.PrefixFrom(addr, bits).Masked()}, nil
}

// NewASN returns an identifier for an autonomous system number.
func NewASN(number uint32) *ASNIdentifier {
	return &ASNIdentifier{Number: number}
}

// NewEntity returns an identifier for a tagged entity handle.
func NewEntity(handle string) (*EntityIdentifier, error) {
	handle = strings.TrimSpace(handle)
	i := strings.LastIndex(handle, "-")
	if i <= 0 || i == len(handle)-1 {
		return nil, fmt.Errorf("%w: entity handle %q has no tag", ErrInvalidIdentifier, handle)
	}
	tag := handle[i+1:]
	if !tagRegex.MatchString(tag) {
		return nil, fmt.Errorf("%w: invalid tag %q", ErrInvalidIdentifier, tag)
	}
	return &EntityIdentifier{Handle: handle, Tag: tag}, nil
}

// ParseIdentifier detects the type of the identifier:
//   - "AS64496" or "64496": autonomous system number
//   - "192.0.2.0/24", "2001:db8::1": IP range or address
//   - "XXXX-FRNIC": tagged entity handle (hyphen, no dot)
//   - anything else: domain name
func ParseIdentifier(s string) (Identifier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}

	if m := asnRegex.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: AS number %s out of range", ErrInvalidIdentifier, m[1])
		}
		return NewASN(uint32(n)), nil
	}

	if strings.Contains(s, "/") {
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidIdentifier, err)
		}
		return NewIPPrefix(prefix)
	}
	if addr, err := netip.ParseAddr(s); err == nil {
		return NewIP(addr)
	}

	if looksLikeEntityHandle(s) {
		return NewEntity(s)
	}

	return NewDomain(s)
}

// looksLikeEntityHandle reports whether s is a handle with a tag rather
// than a single label domain name. IDNA labels ("xn--") are domains.
func looksLikeEntityHandle(s string) bool {
	if strings.Contains(s, ".") || strings.HasPrefix(strings.ToLower(s), "xn--") {
		return false
	}
	i := strings.LastIndex(s, "-")
	return i > 0 && tagRegex.MatchString(s[i+1:])
}

// ReverseName returns the reverse DNS name of an IP address, eg.
// "1.2.0.192.in-addr.arpa." for 192.0.2.1. Look it up with a DomainIdentifier
// to find the service responsible for the reverse zone.
func ReverseName(ip string) (string, error) {
	name, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidIdentifier, err)
	}
	return name, nil
}

// Kind returns KindDomain.
func (d *DomainIdentifier) Kind() Kind { return KindDomain }

func (d *DomainIdentifier) String() string {
	if d.Name == "" {
		return "."
	}
	return d.Name
}

func (d *DomainIdentifier) isIdentifier() {}

// Kind returns KindIPv4 or KindIPv6.
func (ip *IPIdentifier) Kind() Kind {
	if ip.Prefix.Addr().Is4() {
		return KindIPv4
	}
	return KindIPv6
}

func (ip *IPIdentifier) String() string {
	if ip.Prefix.IsSingleIP() {
		return ip.Prefix.Addr().String()
	}
	return ip.Prefix.String()
}

func (ip *IPIdentifier) isIdentifier() {}

// Kind returns KindASN.
func (a *ASNIdentifier) Kind() Kind { return KindASN }

func (a *ASNIdentifier) String() string {
	return "AS" + strconv.FormatUint(uint64(a.Number), 10)
}

func (a *ASNIdentifier) isIdentifier() {}

// Kind returns KindEntityTag.
func (e *EntityIdentifier) Kind() Kind { return KindEntityTag }

func (e *EntityIdentifier) String() string {
	return e.Handle
}

func (e *EntityIdentifier) isIdentifier() {}
