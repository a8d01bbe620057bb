package dictionary

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDefinitions() Definitions {
	return Definitions{
		{
			Name: "case",
			Fields: []Field{
				{Name: "case_id", Kind: KindString},
				{Name: "age_at_index", Kind: KindInt},
			},
			Relationships: []Relationship{
				{Name: "diagnoses", TargetType: "diagnosis", Cardinality: Many, EdgeTable: "edge_casediagnosis"},
			},
		},
		{
			Name:  "diagnosis",
			Table: "custom_diagnosis_table",
			Fields: []Field{
				{Name: "tumor_type", Kind: KindString},
			},
		},
	}
}

func TestBinderResolvesNodeTypes(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	binder, err := NewBinder(testDefinitions())
	require.NoError(err)

	caseType, err := binder.ResolveNodeType("case")
	require.NoError(err)
	require.Equal("case", caseType.Name())
	require.Equal("node_case", caseType.Table())

	field, ok := caseType.Field("age_at_index")
	require.True(ok)
	require.Equal(KindInt, field.Kind)

	diagnosisType, err := binder.ResolveNodeType("diagnosis")
	require.NoError(err)
	require.Equal("custom_diagnosis_table", diagnosisType.Table())

	require.Equal([]string{"case", "diagnosis"}, binder.NodeTypeNames())
}

func TestBinderUnknownNodeType(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	binder, err := NewBinder(testDefinitions())
	require.NoError(err)

	_, err = binder.ResolveNodeType("sample")
	require.Error(err)

	var notFound NodeTypeNotFoundError
	require.True(errors.As(err, &notFound))
	require.Equal("sample", notFound.NotFoundNodeTypeName())
}

func TestBinderResolvesRelationships(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	binder, err := NewBinder(testDefinitions())
	require.NoError(err)

	caseType, err := binder.ResolveNodeType("case")
	require.NoError(err)

	rel, err := binder.ResolveRelationship(caseType, "diagnoses")
	require.NoError(err)
	require.Equal("diagnosis", rel.TargetType)
	require.Equal("case", rel.SourceType)
	require.Equal(Many, rel.Cardinality)

	_, err = binder.ResolveRelationship(caseType, "samples")
	var notFound RelationshipNotFoundError
	require.True(errors.As(err, &notFound))
}

func TestBinderRejectsDuplicateNodeTypes(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	defs := append(testDefinitions(), Definition{Name: "case"})
	_, err := NewBinder(defs)
	require.Error(err)

	var dup DuplicateNameError
	require.True(errors.As(err, &dup))
}

func TestBinderRejectsDanglingRelationshipTarget(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	defs := Definitions{
		{
			Name: "case",
			Relationships: []Relationship{
				{Name: "diagnoses", TargetType: "missing", EdgeTable: "edge_x"},
			},
		},
	}
	_, err := NewBinder(defs)
	require.ErrorContains(err, "targets undeclared node type")
}

func TestFieldKindOrdinality(t *testing.T) {
	t.Parallel()

	require.True(t, KindString.Ordinal())
	require.True(t, KindInt.Ordinal())
	require.True(t, KindFloat.Ordinal())
	require.True(t, KindDatetime.Ordinal())
	require.False(t, KindBool.Ordinal())
}
