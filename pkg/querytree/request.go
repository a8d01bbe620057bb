// Package querytree turns a caller's nested field-selection request into a
// validated query tree bound against a dictionary snapshot. All name and type
// checking happens here, before any store access: nothing downstream ever
// looks up a field or relationship by arbitrary name again.
package querytree

import (
	"bytes"
	"encoding/json"
)

// Request is the wire-independent request document for one traversal level.
// The transport layer hands the engine a Request (or its JSON encoding) plus
// the root node type name.
type Request struct {
	// Fields are the requested scalar fields, in request order.
	Fields []string `json:"fields"`

	// Filters are predicates on this level's node type.
	Filters []FilterArg `json:"filters,omitempty"`

	// OrderBy names the field to order by; empty means the store's natural
	// identifier order. Desc flips the direction.
	OrderBy string `json:"order_by,omitempty"`
	Desc    bool   `json:"desc,omitempty"`

	// Offset and First window the ordered result. Absent First means the
	// engine's default result cap applies; an explicit First of zero asks
	// for an uncapped fetch, clamped to the configured maximum.
	Offset *int64 `json:"offset,omitempty"`
	First  *int64 `json:"first,omitempty"`

	// Links are the requested nested traversals, in request order.
	Links []LinkRequest `json:"links,omitempty"`
}

// LinkRequest requests traversal of one named relationship. When Count is
// set the link yields the per-parent match count instead of nested records,
// and the embedded Request must not select fields or links of its own.
type LinkRequest struct {
	Name  string `json:"name"`
	Count bool   `json:"count,omitempty"`
	Request
}

// FilterArg is one predicate in a request document. Value may be a scalar or
// a list; a list under "eq"/"in" is a disjunction, so one filter can select
// many nodes in bulk.
type FilterArg struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value,omitempty"`
}

// ParseRequest decodes a JSON request document. Unknown document keys are
// rejected so that a misspelled clause never silently becomes a no-op.
func ParseRequest(doc []byte) (*Request, error) {
	var req Request
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, NewMalformedRequestError(err)
	}
	return &req, nil
}
