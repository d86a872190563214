package bootstrap

import "sort"

// candidate is a matching service with its specificity. Higher scores are
// more specific.
type candidate struct {
	svc   *Service
	score int64
}

// rank orders candidates by specificity. Candidates must be supplied in
// document order, which is kept for equal scores. A service that matched with
// several keys is only listed once, with its best score.
func rank(candidates []candidate) []*Service {
	if len(candidates) == 0 {
		return nil
	}

	best := make(map[*Service]int, len(candidates))
	unique := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		if i, ok := best[c.svc]; ok {
			if c.score > unique[i].score {
				unique[i].score = c.score
			}
			continue
		}
		best[c.svc] = len(unique)
		unique = append(unique, c)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].score > unique[j].score
	})

	ranked := make([]*Service, len(unique))
	for i, c := range unique {
		ranked[i] = c.svc
	}
	return ranked
}

// sortByDocumentOrder sorts candidates by the position of their service in
// the document.
func sortByDocumentOrder(doc *Document, candidates []candidate) {
	position := make(map[*Service]int, len(doc.Services))
	for i, svc := range doc.Services {
		position[svc] = i
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return position[candidates[i].svc] < position[candidates[j].svc]
	})
}
