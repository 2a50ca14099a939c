package search

import (
	"slices"
	"strings"

	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
)

// priorityIndex ranks origins; unknown origins sort after every listed one.
type priorityIndex map[food.Origin]int

func newPriorityIndex(order []food.Origin) priorityIndex {
	idx := make(priorityIndex, len(order))
	for i, o := range order {
		if _, seen := idx[o]; !seen {
			idx[o] = i
		}
	}
	return idx
}

func (p priorityIndex) rank(o food.Origin) int {
	if r, ok := p[o]; ok {
		return r
	}
	return len(p)
}

type dedupeKey struct {
	name, brand, unit string
}

func keyOf(f food.Food) dedupeKey {
	brand := ""
	if f.Brand != nil {
		brand = *f.Brand
	}
	return dedupeKey{
		name:  strings.ToLower(strings.TrimSpace(f.Name)),
		brand: strings.ToLower(strings.TrimSpace(brand)),
		unit:  strings.ToLower(strings.TrimSpace(f.ServingUnit)),
	}
}

// merge normalizes per-source raws, orders them by origin priority (stable, so each
// source keeps its own ranking) and drops later duplicates of (name, brand, unit).
// It returns the merged foods and how many duplicates were dropped.
func merge(perSource [][]food.Raw, priority priorityIndex) ([]food.Food, int) {
	total := 0
	for _, raws := range perSource {
		total += len(raws)
	}

	all := make([]food.Food, 0, total)
	for _, raws := range perSource {
		for _, raw := range raws {
			all = append(all, Normalize(raw))
		}
	}

	slices.SortStableFunc(all, func(a, b food.Food) int {
		return priority.rank(a.Origin) - priority.rank(b.Origin)
	})

	seen := make(map[dedupeKey]struct{}, len(all))
	out := all[:0]
	for _, f := range all {
		k := keyOf(f)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, f)
	}
	return out, len(all) - len(out)
}
