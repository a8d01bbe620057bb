package dictionary

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const clinicalYAML = `
nodes:
  - name: case
    fields:
      - {name: case_id, type: string}
      - {name: age_at_index, type: int}
      - {name: created_datetime, type: datetime}
    links:
      - {name: diagnoses, target: diagnosis, cardinality: many, backref: cases}
      - {name: demographic, target: demographic, cardinality: one, edge_table: edge_casedemo}
  - name: diagnosis
    fields:
      - {name: tumor_type}
  - name: demographic
    fields:
      - {name: gender, type: string}
`

func TestYAMLSourceLoadsDictionary(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	binder, err := NewBinder(NewYAMLSource([]byte(clinicalYAML)))
	require.NoError(err)

	caseType, err := binder.ResolveNodeType("case")
	require.NoError(err)

	field, ok := caseType.Field("created_datetime")
	require.True(ok)
	require.Equal(KindDatetime, field.Kind)

	// Untyped fields default to string.
	diagnosisType, err := binder.ResolveNodeType("diagnosis")
	require.NoError(err)
	tumorType, ok := diagnosisType.Field("tumor_type")
	require.True(ok)
	require.Equal(KindString, tumorType.Kind)

	diagnoses, err := binder.ResolveRelationship(caseType, "diagnoses")
	require.NoError(err)
	require.Equal(Many, diagnoses.Cardinality)
	require.Equal("edge_case_diagnoses", diagnoses.EdgeTable)
	require.False(diagnoses.Reversed)

	demographic, err := binder.ResolveRelationship(caseType, "demographic")
	require.NoError(err)
	require.Equal(One, demographic.Cardinality)
	require.Equal("edge_casedemo", demographic.EdgeTable)
}

func TestYAMLSourceBackrefs(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	binder, err := NewBinder(NewYAMLSource([]byte(clinicalYAML)))
	require.NoError(err)

	diagnosisType, err := binder.ResolveNodeType("diagnosis")
	require.NoError(err)

	cases, err := binder.ResolveRelationship(diagnosisType, "cases")
	require.NoError(err)
	require.Equal("case", cases.TargetType)
	require.Equal(Many, cases.Cardinality)
	require.True(cases.Reversed)
	// The backref reuses the forward link's edge table with columns swapped.
	require.Equal("edge_case_diagnoses", cases.EdgeTable)
}

func TestYAMLSourceRejectsUnknownFieldType(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	_, err := NewBinder(NewYAMLSource([]byte(`
nodes:
  - name: case
    fields:
      - {name: case_id, type: uuid}
`)))
	require.ErrorContains(err, "unknown field type")
}

func TestYAMLSourceRejectsUnknownCardinality(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	_, err := NewBinder(NewYAMLSource([]byte(`
nodes:
  - name: case
    links:
      - {name: diagnoses, target: case, cardinality: several}
`)))
	require.ErrorContains(err, "unknown cardinality")
}
