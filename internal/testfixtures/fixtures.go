// Package testfixtures provides the clinical-style dictionary and populated
// in-memory graph shared across the engine's tests.
package testfixtures

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	memstore "github.com/kestreldb/kestrel/internal/store/memdb"
	"github.com/kestreldb/kestrel/pkg/dictionary"
	"github.com/kestreldb/kestrel/pkg/store"
)

// ClinicalDefinitions is a small clinical data model: programs contain
// projects contain cases; cases carry diagnoses (which carry treatments) and
// samples; a case links to at most one demographic record.
var ClinicalDefinitions = dictionary.Definitions{
	{
		Name: "program",
		Fields: []dictionary.Field{
			{Name: "name", Kind: dictionary.KindString},
		},
		Relationships: []dictionary.Relationship{
			{Name: "projects", TargetType: "project", Cardinality: dictionary.Many, EdgeTable: "edge_programproject"},
		},
	},
	{
		Name: "project",
		Fields: []dictionary.Field{
			{Name: "code", Kind: dictionary.KindString},
		},
		Relationships: []dictionary.Relationship{
			{Name: "cases", TargetType: "case", Cardinality: dictionary.Many, EdgeTable: "edge_projectcase"},
		},
	},
	{
		Name: "case",
		Fields: []dictionary.Field{
			{Name: "case_id", Kind: dictionary.KindString},
			{Name: "primary_site", Kind: dictionary.KindString},
			{Name: "age_at_index", Kind: dictionary.KindInt},
			{Name: "created_datetime", Kind: dictionary.KindDatetime},
		},
		Relationships: []dictionary.Relationship{
			{Name: "diagnoses", TargetType: "diagnosis", Cardinality: dictionary.Many, EdgeTable: "edge_casediagnosis"},
			{Name: "samples", TargetType: "sample", Cardinality: dictionary.Many, EdgeTable: "edge_casesample"},
			{Name: "demographic", TargetType: "demographic", Cardinality: dictionary.One, EdgeTable: "edge_casedemographic"},
		},
	},
	{
		Name: "diagnosis",
		Fields: []dictionary.Field{
			{Name: "tumor_type", Kind: dictionary.KindString},
			{Name: "tumor_grade", Kind: dictionary.KindInt},
		},
		Relationships: []dictionary.Relationship{
			{Name: "treatments", TargetType: "treatment", Cardinality: dictionary.Many, EdgeTable: "edge_diagnosistreatment"},
		},
	},
	{
		Name: "treatment",
		Fields: []dictionary.Field{
			{Name: "treatment_type", Kind: dictionary.KindString},
		},
	},
	{
		Name: "sample",
		Fields: []dictionary.Field{
			{Name: "sample_type", Kind: dictionary.KindString},
			{Name: "is_ffpe", Kind: dictionary.KindBool},
		},
	},
	{
		Name: "demographic",
		Fields: []dictionary.Field{
			{Name: "gender", Kind: dictionary.KindString},
			{Name: "year_of_birth", Kind: dictionary.KindInt},
		},
	},
}

// ClinicalBinder builds a binder over ClinicalDefinitions.
func ClinicalBinder(t testing.TB) *dictionary.Binder {
	binder, err := dictionary.NewBinder(ClinicalDefinitions)
	require.NoError(t, err)
	return binder
}

// ClinicalGraph returns a populated in-memory graph:
//
//	case C1 (Lung, 61): diagnoses D1(A,2)->T1(chemo), D2(B,1), D3(C,3); samples S1; demographic DG1
//	case C2 (Breast, 48): no diagnoses; samples S2, S3
//	case C3 (Lung, 75): diagnoses D4(A,1)
func ClinicalGraph(t testing.TB) *memstore.Graph {
	builder, err := memstore.NewBuilder()
	require.NoError(t, err)

	addNode := func(nodeType, id string, props map[string]any) {
		require.NoError(t, builder.AddNode(nodeType, id, props))
	}
	addEdge := func(table, src, dst string) {
		require.NoError(t, builder.AddEdge(table, src, dst))
	}

	addNode("case", "C1", map[string]any{"case_id": "C1", "primary_site": "Lung", "age_at_index": int64(61), "created_datetime": "2021-03-01T10:00:00Z"})
	addNode("case", "C2", map[string]any{"case_id": "C2", "primary_site": "Breast", "age_at_index": int64(48), "created_datetime": "2022-07-12T08:30:00Z"})
	addNode("case", "C3", map[string]any{"case_id": "C3", "primary_site": "Lung", "age_at_index": int64(75)})

	addNode("diagnosis", "D1", map[string]any{"tumor_type": "A", "tumor_grade": int64(2)})
	addNode("diagnosis", "D2", map[string]any{"tumor_type": "B", "tumor_grade": int64(1)})
	addNode("diagnosis", "D3", map[string]any{"tumor_type": "C", "tumor_grade": int64(3)})
	addNode("diagnosis", "D4", map[string]any{"tumor_type": "A", "tumor_grade": int64(1)})

	addNode("treatment", "T1", map[string]any{"treatment_type": "chemo"})

	addNode("sample", "S1", map[string]any{"sample_type": "tissue", "is_ffpe": false})
	addNode("sample", "S2", map[string]any{"sample_type": "blood", "is_ffpe": false})
	addNode("sample", "S3", map[string]any{"sample_type": "tissue", "is_ffpe": true})

	addNode("demographic", "DG1", map[string]any{"gender": "female", "year_of_birth": int64(1960)})

	addEdge("edge_casediagnosis", "C1", "D1")
	addEdge("edge_casediagnosis", "C1", "D2")
	addEdge("edge_casediagnosis", "C1", "D3")
	addEdge("edge_casediagnosis", "C3", "D4")
	addEdge("edge_diagnosistreatment", "D1", "T1")
	addEdge("edge_casesample", "C1", "S1")
	addEdge("edge_casesample", "C2", "S2")
	addEdge("edge_casesample", "C2", "S3")
	addEdge("edge_casedemographic", "C1", "DG1")

	return builder.Graph()
}

// CountingGraph wraps a store.Graph and counts calls per method, for
// asserting the batched-traversal bound and that invalid requests never
// reach the store.
type CountingGraph struct {
	inner store.Graph

	fetchRoots  atomic.Int64
	fetchLinked atomic.Int64
	countRoots  atomic.Int64
	countLinked atomic.Int64
}

var _ store.Graph = (*CountingGraph)(nil)

// NewCountingGraph wraps inner with call counting.
func NewCountingGraph(inner store.Graph) *CountingGraph {
	return &CountingGraph{inner: inner}
}

func (c *CountingGraph) FetchRoots(ctx context.Context, q store.RootQuery) ([]store.Row, error) {
	c.fetchRoots.Add(1)
	return c.inner.FetchRoots(ctx, q)
}

func (c *CountingGraph) FetchLinked(ctx context.Context, q store.LinkedQuery) (store.RowGroup, error) {
	c.fetchLinked.Add(1)
	return c.inner.FetchLinked(ctx, q)
}

func (c *CountingGraph) CountRoots(ctx context.Context, q store.RootQuery) (uint64, error) {
	c.countRoots.Add(1)
	return c.inner.CountRoots(ctx, q)
}

func (c *CountingGraph) CountLinked(ctx context.Context, q store.LinkedQuery) (map[string]uint64, error) {
	c.countLinked.Add(1)
	return c.inner.CountLinked(ctx, q)
}

// TotalCalls is the total number of store calls seen.
func (c *CountingGraph) TotalCalls() int64 {
	return c.fetchRoots.Load() + c.fetchLinked.Load() + c.countRoots.Load() + c.countLinked.Load()
}

// FetchRootCalls returns the number of FetchRoots calls.
func (c *CountingGraph) FetchRootCalls() int64 { return c.fetchRoots.Load() }

// FetchLinkedCalls returns the number of FetchLinked calls.
func (c *CountingGraph) FetchLinkedCalls() int64 { return c.fetchLinked.Load() }

// CountLinkedCalls returns the number of CountLinked calls.
func (c *CountingGraph) CountLinkedCalls() int64 { return c.countLinked.Load() }
