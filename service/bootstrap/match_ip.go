package bootstrap

import (
	"net/netip"

	"github.com/safing/rdapboot/base/log"
)

// MatchIP returns the services responsible for the given address range,
// most specific first. A single address is given as a full length prefix.
// A registry block matches if it fully contains the queried range. The
// longest matching prefix wins, document order breaks ties.
// Blocks of the other address family never match.
func MatchIP(doc *Document, query netip.Prefix) []*Service {
	if !query.IsValid() {
		return nil
	}
	query = query.Masked()

	var candidates []candidate
	for _, svc := range doc.Services {
		for _, key := range svc.Keys {
			block, err := netip.ParsePrefix(key)
			if err != nil {
				log.Warningf("bootstrap: skipping invalid address block %q in %s registry: %s", key, doc.Kind, err)
				continue
			}
			block = block.Masked()

			if block.Addr().Is4() != query.Addr().Is4() {
				continue
			}
			if block.Bits() <= query.Bits() && block.Contains(query.Addr()) {
				candidates = append(candidates, candidate{svc: svc, score: int64(block.Bits())})
			}
		}
	}
	return rank(candidates)
}
