package service

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// MatchPhotos returns the photos that fuzzily contain query, best match
// first. Ties keep list order. An empty query matches everything.
func MatchPhotos(query string, photos []string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]string, len(photos))
		copy(out, photos)
		return out
	}

	matches := fuzzy.RankFindFold(query, photos)

	// Sort by distance (lower is better), then original position
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].OriginalIndex < matches[j].OriginalIndex
	})

	results := make([]string, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.Target)
	}
	return results
}
