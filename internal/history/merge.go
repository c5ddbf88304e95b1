package history

import "sort"

// Merge returns visits ordered by timestamp. The sort is stable, so visits
// with equal timestamps keep their arrival order. The input is not modified.
func Merge(visits []Visit) []Visit {
	out := make([]Visit, len(visits))
	copy(out, visits)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Dedup keeps the first visit to each URL and drops the rest, preserving
// order. Callers pass one bucket at a time.
func Dedup(visits []Visit) []Visit {
	seen := make(map[string]struct{}, len(visits))
	out := make([]Visit, 0, len(visits))
	for _, v := range visits {
		if _, ok := seen[v.URL]; ok {
			continue
		}
		seen[v.URL] = struct{}{}
		out = append(out, v)
	}
	return out
}

// MergeDedup sorts then deduplicates one bucket's visits.
func MergeDedup(visits []Visit) []Visit {
	return Dedup(Merge(visits))
}
