package bootstrap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/safing/rdapboot/base/log"
)

// MatchASN returns the services responsible for the given autonomous system
// number, most specific first. Registry keys are closed ranges
// ("first-last") or single numbers. The range with the smallest span wins,
// document order breaks ties.
func MatchASN(doc *Document, asn uint32) []*Service {
	var candidates []candidate
	for _, svc := range doc.Services {
		for _, key := range svc.Keys {
			first, last, err := parseASNRange(key)
			if err != nil {
				log.Warningf("bootstrap: skipping invalid AS number range %q in %s registry: %s", key, doc.Kind, err)
				continue
			}
			if asn >= first && asn <= last {
				span := int64(last) - int64(first)
				candidates = append(candidates, candidate{svc: svc, score: -span})
			}
		}
	}
	return rank(candidates)
}

func parseASNRange(key string) (first, last uint32, err error) {
	firstPart, lastPart, isRange := strings.Cut(key, "-")

	f, err := strconv.ParseUint(firstPart, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start: %w", err)
	}
	if !isRange {
		return uint32(f), uint32(f), nil
	}

	l, err := strconv.ParseUint(lastPart, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end: %w", err)
	}
	if l < f {
		return 0, 0, errors.New("end is before start")
	}
	return uint32(f), uint32(l), nil
}
