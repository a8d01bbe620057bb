// Package store defines the access boundary to persisted graph data. The
// engine issues a bounded number of batched calls through the Graph interface
// and assumes nothing about the physical schema beyond nodes having scalar
// properties and identifiers, and edges binding two node identifiers under a
// named relationship.
package store

import (
	"context"

	"github.com/kestreldb/kestrel/pkg/dictionary"
)

// Row is one matched node instance: its store identifier plus the values of
// the requested scalar properties.
type Row struct {
	ID    string
	Props map[string]any
}

// RowGroup maps a parent node identifier to its ordered matched rows.
type RowGroup map[string][]Row

// RootQuery fetches nodes of one type with filters, ordering and a window
// applied by the store.
type RootQuery struct {
	Type    *dictionary.NodeType
	Fields  []string
	Filters []Filter
	Order   Ordering
	Window  Window
}

// LinkedQuery fetches, in a single batched call, all nodes reachable from a
// set of parent identifiers over one relationship. Ordering and the window
// apply per parent group, not across the combined result.
type LinkedQuery struct {
	Type         *dictionary.NodeType
	Relationship dictionary.Relationship
	ParentIDs    []string
	Fields       []string
	Filters      []Filter
	Order        Ordering
	Window       Window
}

// Graph is the sole I/O boundary to persisted graph data.
type Graph interface {
	// FetchRoots returns the ordered rows matching q.
	FetchRoots(ctx context.Context, q RootQuery) ([]Row, error)

	// FetchLinked returns, for every parent identifier with at least one
	// match, that parent's ordered rows. Parents with no matches are simply
	// absent from the result.
	FetchLinked(ctx context.Context, q LinkedQuery) (RowGroup, error)

	// CountRoots returns the number of nodes matching q, ignoring q.Window.
	CountRoots(ctx context.Context, q RootQuery) (uint64, error)

	// CountLinked returns per-parent match counts, ignoring q.Window.
	CountLinked(ctx context.Context, q LinkedQuery) (map[string]uint64, error)
}
