package querytree

import (
	"github.com/kestreldb/kestrel/pkg/dictionary"
	"github.com/kestreldb/kestrel/pkg/store"
)

// Limits bound the shape of an accepted query tree and its result windows.
// They are the admission-control mechanism: a request exceeding MaxDepth or
// MaxNodes is rejected before any store access.
type Limits struct {
	// MaxDepth is the maximum nesting depth of a query tree, the root level
	// counting as one.
	MaxDepth int

	// MaxNodes is the maximum total number of traversal levels across the
	// whole tree.
	MaxNodes int

	// DefaultFirst is the window limit applied when a level declares none.
	DefaultFirst uint64

	// MaxFirst clamps every window limit, including "uncapped" requests
	// (an explicit first of zero).
	MaxFirst uint64
}

// DefaultLimits cap every level at ten rows unless asked otherwise, with
// generous but finite shape bounds.
var DefaultLimits = Limits{
	MaxDepth:     15,
	MaxNodes:     64,
	DefaultFirst: 10,
	MaxFirst:     1024,
}

// Node is one validated traversal level: the bound node type, the requested
// fields in request order, type-checked filters, ordering and window, and the
// ordered child links. Every name it carries has been resolved against the
// dictionary; nothing downstream re-resolves.
type Node struct {
	Type    *dictionary.NodeType
	Fields  []dictionary.Field
	Filters []store.Filter
	Order   store.Ordering
	Window  store.Window
	Links   []*Link

	// Path is the dotted location of this level in the request, e.g.
	// "case.diagnoses", used in diagnostics.
	Path string
}

// Link is one validated nested traversal.
type Link struct {
	Relationship dictionary.Relationship

	// CountOnly requests the per-parent match count instead of records.
	CountOnly bool

	Node *Node
}

// Tree is a validated query tree.
type Tree struct {
	Root      *Node
	NodeCount int
	Depth     int
}
