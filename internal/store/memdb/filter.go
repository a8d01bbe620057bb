package memdb

import (
	"sort"

	"github.com/kestreldb/kestrel/pkg/store"
)

func matchesFilters(props map[string]any, filters []store.Filter) bool {
	for _, filter := range filters {
		if !matchesFilter(props, filter) {
			return false
		}
	}
	return true
}

func matchesFilter(props map[string]any, filter store.Filter) bool {
	value, present := props[filter.Field]

	switch filter.Op {
	case store.OpIsNull:
		wantAbsent := filter.Values[0].(bool)
		return present != wantAbsent

	case store.OpEq, store.OpIn:
		if !present {
			return false
		}
		for _, candidate := range filter.Values {
			if compareValues(value, candidate) == 0 {
				return true
			}
		}
		return false

	case store.OpNeq:
		if !present {
			return true
		}
		for _, candidate := range filter.Values {
			if compareValues(value, candidate) == 0 {
				return false
			}
		}
		return true

	case store.OpLt, store.OpLte, store.OpGt, store.OpGte:
		if !present {
			return false
		}
		cmp := compareValues(value, filter.Values[0])
		switch filter.Op {
		case store.OpLt:
			return cmp < 0
		case store.OpLte:
			return cmp <= 0
		case store.OpGt:
			return cmp > 0
		default:
			return cmp >= 0
		}

	default:
		return false
	}
}

// compareValues orders two property values. Numeric values compare across
// int64/float64 representations; mismatched non-numeric types compare by
// their rendered forms so the ordering is total.
func compareValues(a, b any) int {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}

	as, bs := renderValue(a), renderValue(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func renderValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	switch n := v.(type) {
	case bool:
		if n {
			return "true"
		}
		return "false"
	default:
		// Non-string, non-bool values only reach here on type-mixed data;
		// a stable empty key keeps the sort total.
		return ""
	}
}

// sortEntries orders entries by the requested property, tie-breaking and
// defaulting to the node identifier so pagination is reproducible.
func sortEntries(entries []*nodeEntry, order store.Ordering) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]

		if order.Field != "" {
			av, aok := a.Props[order.Field]
			bv, bok := b.Props[order.Field]

			// Absent values sort last regardless of direction.
			switch {
			case aok && !bok:
				return true
			case !aok && bok:
				return false
			case aok && bok:
				if cmp := compareValues(av, bv); cmp != 0 {
					if order.Direction == store.Descending {
						return cmp > 0
					}
					return cmp < 0
				}
			}
		}

		if order.Field == "" && order.Direction == store.Descending {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
}
