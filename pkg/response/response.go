// Package response holds the tree returned to the caller. Its shape mirrors
// the validated query tree exactly: requested fields in request order, then
// requested links in request order. JSON marshalling preserves that order.
package response

import (
	"bytes"
	"encoding/json"
)

// FieldValue is one scalar field on a record.
type FieldValue struct {
	Name  string
	Value any
}

// LinkValue is one resolved link on a record. Exactly one of Record, Records
// or Count is meaningful: a one-cardinality link yields Record (nil when
// unmatched, marshalled as an explicit null), a many-cardinality link yields
// Records (empty, never null, when unmatched), and a count link yields Count.
type LinkValue struct {
	Name    string
	One     bool
	Record  *Record
	Records []*Record
	Count   *uint64
}

// Record is one node instance in the response tree.
type Record struct {
	ID     string
	Fields []FieldValue
	Links  []LinkValue
}

// MarshalJSON writes the record as an object with "id" first, then fields
// and links in request order. encoding/json map marshalling cannot be used
// here since it would sort keys.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeKey := func(key string) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		keyJSON, _ := json.Marshal(key)
		buf.Write(keyJSON)
		buf.WriteByte(':')
	}

	writeKey("id")
	idJSON, err := json.Marshal(r.ID)
	if err != nil {
		return nil, err
	}
	buf.Write(idJSON)

	for _, field := range r.Fields {
		writeKey(field.Name)
		valueJSON, err := json.Marshal(field.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(valueJSON)
	}

	for _, link := range r.Links {
		switch {
		case link.Count != nil:
			writeKey(link.Name + "_count")
			countJSON, err := json.Marshal(*link.Count)
			if err != nil {
				return nil, err
			}
			buf.Write(countJSON)

		case link.One:
			writeKey(link.Name)
			if link.Record == nil {
				buf.WriteString("null")
				continue
			}
			recordJSON, err := json.Marshal(link.Record)
			if err != nil {
				return nil, err
			}
			buf.Write(recordJSON)

		default:
			writeKey(link.Name)
			records := link.Records
			if records == nil {
				records = []*Record{}
			}
			recordsJSON, err := json.Marshal(records)
			if err != nil {
				return nil, err
			}
			buf.Write(recordsJSON)
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
