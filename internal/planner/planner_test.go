package planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestreldb/kestrel/internal/testfixtures"
	"github.com/kestreldb/kestrel/pkg/dictionary"
	"github.com/kestreldb/kestrel/pkg/querytree"
	"github.com/kestreldb/kestrel/pkg/store"
)

func parseTree(t *testing.T, doc string) (*querytree.Tree, *dictionary.Binder) {
	binder := testfixtures.ClinicalBinder(t)
	tree, err := querytree.Parse([]byte(doc), "case", binder, querytree.DefaultLimits)
	require.NoError(t, err)
	return tree, binder
}

func TestBuildOrdersParentBeforeChildren(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	tree, binder := parseTree(t, `{
		"fields": ["case_id"],
		"links": [
			{"name": "diagnoses", "fields": ["tumor_type"], "links": [
				{"name": "treatments", "fields": ["treatment_type"]}
			]},
			{"name": "samples", "fields": ["sample_type"]}
		]
	}`)

	plan, err := Build(tree, binder)
	require.NoError(err)
	require.Len(plan.Steps, 4)

	paths := make([]string, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		paths = append(paths, step.Path)
	}
	require.Equal([]string{
		"case",
		"case.diagnoses",
		"case.diagnoses.treatments",
		"case.samples",
	}, paths)

	// Every step's parent appears earlier in the sequence.
	for _, step := range plan.Steps {
		if !step.IsRoot() {
			require.Less(step.ParentIndex, step.Index)
		}
	}

	// Depth grouping is strict level order.
	require.Len(plan.ByDepth, 3)
	require.Len(plan.ByDepth[0], 1)
	require.Len(plan.ByDepth[1], 2)
	require.Len(plan.ByDepth[2], 1)

	// Siblings stay in request order.
	require.Equal("case.diagnoses", plan.ByDepth[1][0].Path)
	require.Equal("case.samples", plan.ByDepth[1][1].Path)
}

func TestBuildPushesClausesOntoOwningStep(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	tree, binder := parseTree(t, `{
		"fields": ["case_id"],
		"filters": [{"field": "primary_site", "value": "Lung"}],
		"links": [
			{"name": "diagnoses", "fields": ["tumor_type"], "order_by": "tumor_grade", "desc": true, "first": 5, "offset": 1}
		]
	}`)

	plan, err := Build(tree, binder)
	require.NoError(err)

	root := plan.Root
	require.Len(root.Filters, 1)
	require.Equal("primary_site", root.Filters[0].Field)

	child := root.Children[0]
	require.Empty(child.Filters)
	require.Equal("tumor_grade", child.Order.Field)
	require.Equal(store.Descending, child.Order.Direction)
	require.Equal(uint64(1), child.Window.Offset)
	require.Equal(uint64(5), *child.Window.Limit)
}

func TestBuildAssignsDefaultIdentifierOrdering(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	tree, binder := parseTree(t, `{"fields": ["case_id"]}`)

	plan, err := Build(tree, binder)
	require.NoError(err)
	require.Equal(store.ByID, plan.Root.Order)
}

func TestBuildFailsOnSchemaDrift(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	tree, _ := parseTree(t, `{
		"fields": ["case_id"],
		"links": [{"name": "diagnoses", "fields": ["tumor_type"]}]
	}`)

	// A reloaded dictionary snapshot that dropped the relationship: the
	// validated tree no longer agrees with it and planning must fail rather
	// than execute a stale join.
	drifted := make(dictionary.Definitions, 0, len(testfixtures.ClinicalDefinitions))
	for _, def := range testfixtures.ClinicalDefinitions {
		if def.Name == "case" {
			def.Relationships = nil
		}
		drifted = append(drifted, def)
	}
	driftedBinder, err := dictionary.NewBinder(drifted)
	require.NoError(err)

	_, err = Build(tree, driftedBinder)
	require.Error(err)

	var planErr PlanError
	require.True(errors.As(err, &planErr))
	require.Equal("case.diagnoses", planErr.Path())
}

func TestBuildCountStep(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	tree, binder := parseTree(t, `{
		"fields": ["case_id"],
		"links": [{"name": "diagnoses", "count": true}]
	}`)

	plan, err := Build(tree, binder)
	require.NoError(err)
	require.Len(plan.Steps, 2)
	require.True(plan.Steps[1].CountOnly)
}
