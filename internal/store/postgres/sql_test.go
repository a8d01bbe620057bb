package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestreldb/kestrel/internal/testfixtures"
	"github.com/kestreldb/kestrel/pkg/dictionary"
	"github.com/kestreldb/kestrel/pkg/store"
)

func clinicalTypes(t *testing.T) (caseType, diagType *dictionary.NodeType, diagnoses dictionary.Relationship) {
	binder := testfixtures.ClinicalBinder(t)

	caseType, err := binder.ResolveNodeType("case")
	require.NoError(t, err)
	diagType, err = binder.ResolveNodeType("diagnosis")
	require.NoError(t, err)
	diagnoses, err = binder.ResolveRelationship(caseType, "diagnoses")
	require.NoError(t, err)
	return caseType, diagType, diagnoses
}

func TestRootQuerySQL(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	caseType, _, _ := clinicalTypes(t)
	limit := uint64(10)

	sql, args, err := rootQuerySQL(store.RootQuery{
		Type:   caseType,
		Fields: []string{"case_id"},
		Filters: []store.Filter{
			{Field: "primary_site", Op: store.OpEq, Values: []any{"Lung"}},
			{Field: "age_at_index", Op: store.OpGte, Values: []any{int64(61)}},
		},
		Order:  store.Ordering{Field: "age_at_index"},
		Window: store.Window{Offset: 2, Limit: &limit},
	})
	require.NoError(err)
	require.Equal(
		"SELECT node_id, _props FROM node_case "+
			"WHERE _props->>'primary_site' IN ($1) "+
			"AND (_props->>'age_at_index')::numeric >= $2 "+
			"ORDER BY (_props->>'age_at_index')::numeric ASC, node_id ASC "+
			"LIMIT 10 OFFSET 2",
		sql,
	)
	require.Equal([]any{"Lung", "61"}, args)
}

func TestRootQuerySQLIdentifierOrderingDescending(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	caseType, _, _ := clinicalTypes(t)

	sql, args, err := rootQuerySQL(store.RootQuery{
		Type:  caseType,
		Order: store.Ordering{Direction: store.Descending},
	})
	require.NoError(err)
	require.Equal("SELECT node_id, _props FROM node_case ORDER BY node_id DESC", sql)
	require.Empty(args)
}

func TestRootQuerySQLDatetimeCastAndPresence(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	caseType, _, _ := clinicalTypes(t)

	sql, args, err := rootQuerySQL(store.RootQuery{
		Type: caseType,
		Filters: []store.Filter{
			{Field: "created_datetime", Op: store.OpGt, Values: []any{"2021-01-01T00:00:00Z"}},
			{Field: "created_datetime", Op: store.OpIsNull, Values: []any{false}},
		},
	})
	require.NoError(err)
	require.Equal(
		"SELECT node_id, _props FROM node_case "+
			"WHERE (_props->>'created_datetime')::timestamptz > $1 "+
			"AND jsonb_exists(_props, $2) "+
			"ORDER BY node_id ASC",
		sql,
	)
	require.Equal([]any{"2021-01-01T00:00:00Z", "created_datetime"}, args)
}

func TestRootQuerySQLAbsenceFilter(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	caseType, _, _ := clinicalTypes(t)

	sql, args, err := rootQuerySQL(store.RootQuery{
		Type: caseType,
		Filters: []store.Filter{
			{Field: "created_datetime", Op: store.OpIsNull, Values: []any{true}},
		},
	})
	require.NoError(err)
	require.Contains(sql, "NOT jsonb_exists(_props, $1)")
	require.Equal([]any{"created_datetime"}, args)
}

func TestCountRootsSQL(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	caseType, _, _ := clinicalTypes(t)

	sql, args, err := countRootsSQL(store.RootQuery{
		Type: caseType,
		Filters: []store.Filter{
			{Field: "primary_site", Op: store.OpIn, Values: []any{"Lung", "Breast"}},
		},
	})
	require.NoError(err)
	require.Equal(
		"SELECT COUNT(*) FROM node_case WHERE _props->>'primary_site' IN ($1,$2)",
		sql,
	)
	require.Equal([]any{"Lung", "Breast"}, args)
}

func TestLinkedQuerySQLPartitionsPerParent(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	_, diagType, diagnoses := clinicalTypes(t)
	limit := uint64(2)

	sql, args, err := linkedQuerySQL(store.LinkedQuery{
		Type:         diagType,
		Relationship: diagnoses,
		ParentIDs:    []string{"C1", "C2"},
		Fields:       []string{"tumor_type"},
		Window:       store.Window{Limit: &limit},
	})
	require.NoError(err)
	require.Equal(
		"SELECT parent_id, node_id, _props FROM ("+
			"SELECT e.src_id AS parent_id, n.node_id, n._props, "+
			"ROW_NUMBER() OVER (PARTITION BY e.src_id ORDER BY n.node_id ASC) AS rn "+
			"FROM edge_casediagnosis e "+
			"JOIN node_diagnosis n ON n.node_id = e.dst_id "+
			"WHERE e.src_id IN ($1,$2)"+
			") AS ranked "+
			"WHERE rn <= $3 "+
			"ORDER BY parent_id, rn",
		sql,
	)
	require.Equal([]any{"C1", "C2", uint64(2)}, args)
}

func TestLinkedQuerySQLOffsetWindow(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	_, diagType, diagnoses := clinicalTypes(t)
	limit := uint64(1)

	sql, args, err := linkedQuerySQL(store.LinkedQuery{
		Type:         diagType,
		Relationship: diagnoses,
		ParentIDs:    []string{"C1"},
		Window:       store.Window{Offset: 1, Limit: &limit},
	})
	require.NoError(err)
	require.Contains(sql, "WHERE rn > $2 AND rn <= $3")
	require.Equal([]any{"C1", uint64(1), uint64(2)}, args)
}

func TestLinkedQuerySQLChildOrderingAndFilter(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	_, diagType, diagnoses := clinicalTypes(t)

	sql, args, err := linkedQuerySQL(store.LinkedQuery{
		Type:         diagType,
		Relationship: diagnoses,
		ParentIDs:    []string{"C1"},
		Filters:      []store.Filter{{Field: "tumor_grade", Op: store.OpGte, Values: []any{int64(2)}}},
		Order:        store.Ordering{Field: "tumor_grade", Direction: store.Descending},
	})
	require.NoError(err)
	require.Contains(sql, "PARTITION BY e.src_id ORDER BY (n._props->>'tumor_grade')::numeric DESC, n.node_id DESC")
	require.Contains(sql, "(n._props->>'tumor_grade')::numeric >= $2")
	require.Equal([]any{"C1", "2"}, args)
}

func TestLinkedQuerySQLReversedRelationship(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	caseType, _, diagnoses := clinicalTypes(t)

	reversed := diagnoses
	reversed.Reversed = true

	sql, _, err := linkedQuerySQL(store.LinkedQuery{
		Type:         caseType,
		Relationship: reversed,
		ParentIDs:    []string{"D1"},
	})
	require.NoError(err)
	require.Contains(sql, "PARTITION BY e.dst_id")
	require.Contains(sql, "JOIN node_case n ON n.node_id = e.src_id")
	require.Contains(sql, "WHERE e.dst_id IN ($1)")
}

func TestCountLinkedSQL(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	_, diagType, diagnoses := clinicalTypes(t)

	sql, args, err := countLinkedSQL(store.LinkedQuery{
		Type:         diagType,
		Relationship: diagnoses,
		ParentIDs:    []string{"C1", "C3"},
	})
	require.NoError(err)
	require.Equal(
		"SELECT e.src_id AS parent_id, COUNT(*) "+
			"FROM edge_casediagnosis e "+
			"JOIN node_diagnosis n ON n.node_id = e.dst_id "+
			"WHERE e.src_id IN ($1,$2) "+
			"GROUP BY e.src_id",
		sql,
	)
	require.Equal([]any{"C1", "C3"}, args)
}
