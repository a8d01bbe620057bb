package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordMarshalOrder(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	count := uint64(2)
	record := &Record{
		ID: "C1",
		Fields: []FieldValue{
			{Name: "primary_site", Value: "Lung"},
			{Name: "case_id", Value: "C1"},
			{Name: "age_at_index", Value: int64(61)},
		},
		Links: []LinkValue{
			{Name: "samples", Records: []*Record{}},
			{Name: "diagnoses", Count: &count},
		},
	}

	out, err := json.Marshal(record)
	require.NoError(err)

	// Identifier first, then fields and links exactly in request order. A
	// sorted-key encoding would scramble the caller's selection.
	require.Equal(
		`{"id":"C1","primary_site":"Lung","case_id":"C1","age_at_index":61,`+
			`"samples":[],"diagnoses_count":2}`,
		string(out),
	)
}

func TestRecordMarshalLinkCardinality(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	record := &Record{
		ID: "C2",
		Links: []LinkValue{
			{Name: "demographic", One: true},
			{Name: "diagnoses", Records: nil},
		},
	}

	out, err := json.Marshal(record)
	require.NoError(err)

	// An unmatched one-link is an explicit null; an unmatched many-link is an
	// empty sequence, never null.
	require.Equal(`{"id":"C2","demographic":null,"diagnoses":[]}`, string(out))
}

func TestRecordMarshalNestedRecord(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	record := &Record{
		ID:     "C1",
		Fields: []FieldValue{{Name: "case_id", Value: "C1"}},
		Links: []LinkValue{
			{Name: "demographic", One: true, Record: &Record{
				ID:     "DG1",
				Fields: []FieldValue{{Name: "gender", Value: "female"}},
			}},
		},
	}

	out, err := json.Marshal(record)
	require.NoError(err)
	require.Equal(
		`{"id":"C1","case_id":"C1","demographic":{"id":"DG1","gender":"female"}}`,
		string(out),
	)
}

func TestRecordMarshalNullFieldValue(t *testing.T) {
	require := require.New(t)
	t.Parallel()

	record := &Record{
		ID:     "C3",
		Fields: []FieldValue{{Name: "created_datetime", Value: nil}},
	}

	out, err := json.Marshal(record)
	require.NoError(err)
	require.Equal(`{"id":"C3","created_datetime":null}`, string(out))
}
