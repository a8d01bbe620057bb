package store

// CompareOp is a filter comparison operator. Operator/field-kind
// compatibility is enforced at validation time; stores may assume filters
// they receive are well typed.
type CompareOp int8

const (
	OpEq CompareOp = iota
	OpNeq
	OpIn
	OpLt
	OpLte
	OpGt
	OpGte
	OpIsNull
)

func (op CompareOp) String() string {
	switch op {
	case OpEq:
		return "eq"
	case OpNeq:
		return "neq"
	case OpIn:
		return "in"
	case OpLt:
		return "lt"
	case OpLte:
		return "lte"
	case OpGt:
		return "gt"
	case OpGte:
		return "gte"
	case OpIsNull:
		return "isnull"
	default:
		return "unknown"
	}
}

// Ranged reports whether the operator requires an ordinal field kind.
func (op CompareOp) Ranged() bool {
	switch op {
	case OpLt, OpLte, OpGt, OpGte:
		return true
	default:
		return false
	}
}

// Filter is one pushed-down predicate. For OpEq and OpIn, Values is a
// disjunction: a row matches if its property equals any value. For OpNeq the
// row must equal none. For OpIsNull, Values holds a single bool selecting
// present (false) or absent (true). Range operators carry a single value.
type Filter struct {
	Field  string
	Op     CompareOp
	Values []any
}

// SortDirection is the direction of an ordering clause.
type SortDirection int8

const (
	Ascending SortDirection = iota
	Descending
)

// Ordering names the property to order by. An empty Field means the store's
// natural node identifier ordering; stores always tie-break equal property
// values by identifier so that pagination is deterministic.
type Ordering struct {
	Field     string
	Direction SortDirection
}

// ByID orders by node identifier only.
var ByID = Ordering{}

// Window is an offset/limit slice of an ordered result. A nil Limit means no
// limit was attached; the validator guarantees plans never carry a nil Limit
// unless the caller explicitly asked for an uncapped fetch within the
// configured maximum.
type Window struct {
	Offset uint64
	Limit  *uint64
}

// LimitedTo returns a Window with the given limit and no offset.
func LimitedTo(limit uint64) Window {
	return Window{Limit: &limit}
}

// Unbounded reports whether no limit is attached.
func (w Window) Unbounded() bool { return w.Limit == nil }
