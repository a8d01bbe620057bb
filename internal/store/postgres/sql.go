package postgres

import (
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/kestreldb/kestrel/pkg/dictionary"
	"github.com/kestreldb/kestrel/pkg/store"
)

const (
	colNodeID = "node_id"
	colProps  = "_props"
	colSrcID  = "src_id"
	colDstID  = "dst_id"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// propText renders the text projection of one JSONB property. Field names
// always come from the bound dictionary, never from raw request text.
func propText(qualifier, field string) string {
	return fmt.Sprintf("%s%s->>'%s'", qualifier, colProps, field)
}

// orderClauses renders the ordering for one step: the requested property
// first (cast for ordinal comparison when the kind needs it), always
// tie-broken by node identifier for reproducible pagination.
func orderClauses(qualifier string, nodeType *dictionary.NodeType, order store.Ordering) []string {
	dir := "ASC"
	if order.Direction == store.Descending {
		dir = "DESC"
	}

	clauses := make([]string, 0, 2)
	if order.Field != "" {
		expr := propText(qualifier, order.Field)
		if field, ok := nodeType.Field(order.Field); ok {
			expr = castForKind(expr, field.Kind)
		}
		clauses = append(clauses, expr+" "+dir)
	}
	return append(clauses, qualifier+colNodeID+" "+dir)
}

func castForKind(expr string, kind dictionary.FieldKind) string {
	switch kind {
	case dictionary.KindInt, dictionary.KindFloat:
		return "(" + expr + ")::numeric"
	case dictionary.KindDatetime:
		return "(" + expr + ")::timestamptz"
	default:
		return expr
	}
}

// applyFilters attaches the pushed-down predicates for one step. Equality
// families compare the text projection against stringified literals, which
// matches how the JSONB property documents store scalars; range operators
// cast.
func applyFilters(builder sq.SelectBuilder, qualifier string, nodeType *dictionary.NodeType, filters []store.Filter) sq.SelectBuilder {
	for _, filter := range filters {
		expr := propText(qualifier, filter.Field)

		switch filter.Op {
		case store.OpEq, store.OpIn:
			builder = builder.Where(sq.Eq{expr: stringifyAll(filter.Values)})

		case store.OpNeq:
			builder = builder.Where(sq.NotEq{expr: stringifyAll(filter.Values)})

		case store.OpIsNull:
			exists := fmt.Sprintf("jsonb_exists(%s%s, ?)", qualifier, colProps)
			if filter.Values[0].(bool) {
				builder = builder.Where(sq.Expr("NOT "+exists, filter.Field))
			} else {
				builder = builder.Where(sq.Expr(exists, filter.Field))
			}

		case store.OpLt, store.OpLte, store.OpGt, store.OpGte:
			casted := expr
			if field, ok := nodeType.Field(filter.Field); ok {
				casted = castForKind(expr, field.Kind)
			}
			builder = builder.Where(sq.Expr(
				fmt.Sprintf("%s %s ?", casted, rangeOpSQL(filter.Op)),
				stringify(filter.Values[0]),
			))
		}
	}
	return builder
}

func rangeOpSQL(op store.CompareOp) string {
	switch op {
	case store.OpLt:
		return "<"
	case store.OpLte:
		return "<="
	case store.OpGt:
		return ">"
	default:
		return ">="
	}
}

func stringifyAll(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, stringify(v))
	}
	return out
}

func stringify(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case int64:
		return strconv.FormatInt(tv, 10)
	case float64:
		return strconv.FormatFloat(tv, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(tv)
	default:
		return fmt.Sprintf("%v", tv)
	}
}

func applyWindow(builder sq.SelectBuilder, w store.Window) sq.SelectBuilder {
	if w.Offset > 0 {
		builder = builder.Offset(w.Offset)
	}
	if !w.Unbounded() {
		builder = builder.Limit(*w.Limit)
	}
	return builder
}

// rootQuerySQL builds the single fetch for a root step.
func rootQuerySQL(q store.RootQuery) (string, []any, error) {
	builder := psql.Select(colNodeID, colProps).From(q.Type.Table())
	builder = applyFilters(builder, "", q.Type, q.Filters)
	builder = builder.OrderBy(orderClauses("", q.Type, q.Order)...)
	builder = applyWindow(builder, q.Window)
	return builder.ToSql()
}

// countRootsSQL builds the root count, ignoring the window.
func countRootsSQL(q store.RootQuery) (string, []any, error) {
	builder := psql.Select("COUNT(*)").From(q.Type.Table())
	builder = applyFilters(builder, "", q.Type, q.Filters)
	return builder.ToSql()
}

// edgeColumns returns the edge table columns binding parent and child for
// the relationship's direction.
func edgeColumns(rel dictionary.Relationship) (parentCol, childCol string) {
	if rel.Reversed {
		return colDstID, colSrcID
	}
	return colSrcID, colDstID
}

// linkedQuerySQL builds the one batched fetch for a linked step. Ordering
// and the window apply per parent group, which the store expresses with a
// ROW_NUMBER window partitioned by the parent identifier; the outer select
// keeps only each group's requested slice.
func linkedQuerySQL(q store.LinkedQuery) (string, []any, error) {
	parentCol, childCol := edgeColumns(q.Relationship)

	rowNumber := fmt.Sprintf(
		"ROW_NUMBER() OVER (PARTITION BY e.%s ORDER BY %s) AS rn",
		parentCol,
		strings.Join(orderClauses("n.", q.Type, q.Order), ", "),
	)

	inner := psql.
		Select("e."+parentCol+" AS parent_id", "n."+colNodeID, "n."+colProps).
		Column(sq.Expr(rowNumber)).
		From(q.Relationship.EdgeTable + " e").
		Join(fmt.Sprintf("%s n ON n.%s = e.%s", q.Type.Table(), colNodeID, childCol)).
		Where(sq.Eq{"e." + parentCol: q.ParentIDs})
	inner = applyFilters(inner, "n.", q.Type, q.Filters)

	outer := psql.
		Select("parent_id", colNodeID, colProps).
		FromSelect(inner, "ranked").
		OrderBy("parent_id", "rn")

	if q.Window.Offset > 0 {
		outer = outer.Where(sq.Gt{"rn": q.Window.Offset})
	}
	if !q.Window.Unbounded() {
		outer = outer.Where(sq.LtOrEq{"rn": q.Window.Offset + *q.Window.Limit})
	}

	return outer.ToSql()
}

// countLinkedSQL builds the one batched per-parent count for a linked step.
func countLinkedSQL(q store.LinkedQuery) (string, []any, error) {
	parentCol, childCol := edgeColumns(q.Relationship)

	builder := psql.
		Select("e."+parentCol+" AS parent_id", "COUNT(*)").
		From(q.Relationship.EdgeTable+" e").
		Join(fmt.Sprintf("%s n ON n.%s = e.%s", q.Type.Table(), colNodeID, childCol)).
		Where(sq.Eq{"e." + parentCol: q.ParentIDs}).
		GroupBy("e." + parentCol)
	builder = applyFilters(builder, "n.", q.Type, q.Filters)

	return builder.ToSql()
}
