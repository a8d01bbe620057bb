// Package memdb provides an in-memory graph store over hashicorp/go-memdb,
// used by the memory datastore engine and throughout the tests. All nodes
// live in one table keyed by (type, id); edges live in a second table keyed
// by their backing edge table name.
package memdb

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"

	"github.com/kestreldb/kestrel/pkg/store"
)

const (
	errUnableToInstantiate = "unable to instantiate memory store: %w"
	errUnableToWrite       = "unable to write to memory store: %w"
	errUnableToQuery       = "unable to query memory store: %w"

	tableNode = "node"
	tableEdge = "edge"

	indexID   = "id"
	indexType = "type"
	indexSrc  = "src"
	indexDst  = "dst"
)

type nodeEntry struct {
	Type  string
	ID    string
	Props map[string]any
}

type edgeEntry struct {
	Table string
	SrcID string
	DstID string
}

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tableNode: {
			Name: tableNode,
			Indexes: map[string]*memdb.IndexSchema{
				indexID: {
					Name:   indexID,
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Type"},
							&memdb.StringFieldIndex{Field: "ID"},
						},
					},
				},
				indexType: {
					Name:    indexType,
					Unique:  false,
					Indexer: &memdb.StringFieldIndex{Field: "Type"},
				},
			},
		},
		tableEdge: {
			Name: tableEdge,
			Indexes: map[string]*memdb.IndexSchema{
				indexID: {
					Name:   indexID,
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Table"},
							&memdb.StringFieldIndex{Field: "SrcID"},
							&memdb.StringFieldIndex{Field: "DstID"},
						},
					},
				},
				indexSrc: {
					Name:   indexSrc,
					Unique: false,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Table"},
							&memdb.StringFieldIndex{Field: "SrcID"},
						},
					},
				},
				indexDst: {
					Name:   indexDst,
					Unique: false,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Table"},
							&memdb.StringFieldIndex{Field: "DstID"},
						},
					},
				},
			},
		},
	},
}

// Graph is an in-memory store.Graph. Populate it through a Builder; reads
// are safe for concurrent use.
type Graph struct {
	db *memdb.MemDB
}

var _ store.Graph = (*Graph)(nil)

// Builder populates an in-memory graph before it is handed out for reads.
type Builder struct {
	db *memdb.MemDB
}

// NewBuilder creates an empty in-memory graph builder.
func NewBuilder() (*Builder, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf(errUnableToInstantiate, err)
	}
	return &Builder{db: db}, nil
}

// AddNode inserts one node instance.
func (b *Builder) AddNode(nodeType, id string, props map[string]any) error {
	txn := b.db.Txn(true)
	defer txn.Abort()

	if props == nil {
		props = map[string]any{}
	}
	if err := txn.Insert(tableNode, &nodeEntry{Type: nodeType, ID: id, Props: props}); err != nil {
		return fmt.Errorf(errUnableToWrite, err)
	}

	txn.Commit()
	return nil
}

// AddEdge inserts one edge row into the named edge table.
func (b *Builder) AddEdge(edgeTable, srcID, dstID string) error {
	txn := b.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(tableEdge, &edgeEntry{Table: edgeTable, SrcID: srcID, DstID: dstID}); err != nil {
		return fmt.Errorf(errUnableToWrite, err)
	}

	txn.Commit()
	return nil
}

// Graph returns the populated graph for reading.
func (b *Builder) Graph() *Graph {
	return &Graph{db: b.db}
}

// FetchRoots implements store.Graph.
func (g *Graph) FetchRoots(ctx context.Context, q store.RootQuery) ([]store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf(errUnableToQuery, err)
	}

	txn := g.db.Txn(false)
	defer txn.Abort()

	entries, err := matchingEntries(txn, q.Type.Name(), q.Filters)
	if err != nil {
		return nil, err
	}

	sortEntries(entries, q.Order)
	return projectEntries(applyWindow(entries, q.Window), q.Fields), nil
}

// CountRoots implements store.Graph.
func (g *Graph) CountRoots(ctx context.Context, q store.RootQuery) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf(errUnableToQuery, err)
	}

	txn := g.db.Txn(false)
	defer txn.Abort()

	entries, err := matchingEntries(txn, q.Type.Name(), q.Filters)
	if err != nil {
		return 0, err
	}
	return uint64(len(entries)), nil
}

// FetchLinked implements store.Graph. The whole batch runs inside a single
// read transaction; ordering and the window apply per parent group.
func (g *Graph) FetchLinked(ctx context.Context, q store.LinkedQuery) (store.RowGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf(errUnableToQuery, err)
	}

	txn := g.db.Txn(false)
	defer txn.Abort()

	grouped, err := linkedEntries(txn, q)
	if err != nil {
		return nil, err
	}

	groups := make(store.RowGroup, len(grouped))
	for parentID, entries := range grouped {
		sortEntries(entries, q.Order)
		groups[parentID] = projectEntries(applyWindow(entries, q.Window), q.Fields)
	}
	return groups, nil
}

// CountLinked implements store.Graph.
func (g *Graph) CountLinked(ctx context.Context, q store.LinkedQuery) (map[string]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf(errUnableToQuery, err)
	}

	txn := g.db.Txn(false)
	defer txn.Abort()

	grouped, err := linkedEntries(txn, q)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]uint64, len(grouped))
	for parentID, entries := range grouped {
		counts[parentID] = uint64(len(entries))
	}
	return counts, nil
}

func matchingEntries(txn *memdb.Txn, nodeType string, filters []store.Filter) ([]*nodeEntry, error) {
	it, err := txn.Get(tableNode, indexType, nodeType)
	if err != nil {
		return nil, fmt.Errorf(errUnableToQuery, err)
	}

	var entries []*nodeEntry
	for raw := it.Next(); raw != nil; raw = it.Next() {
		entry := raw.(*nodeEntry)
		if matchesFilters(entry.Props, filters) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func linkedEntries(txn *memdb.Txn, q store.LinkedQuery) (map[string][]*nodeEntry, error) {
	parentIndex, childOf := indexSrc, func(e *edgeEntry) string { return e.DstID }
	if q.Relationship.Reversed {
		parentIndex, childOf = indexDst, func(e *edgeEntry) string { return e.SrcID }
	}

	grouped := make(map[string][]*nodeEntry)
	for _, parentID := range q.ParentIDs {
		it, err := txn.Get(tableEdge, parentIndex, q.Relationship.EdgeTable, parentID)
		if err != nil {
			return nil, fmt.Errorf(errUnableToQuery, err)
		}

		for raw := it.Next(); raw != nil; raw = it.Next() {
			childID := childOf(raw.(*edgeEntry))

			rawNode, err := txn.First(tableNode, indexID, q.Type.Name(), childID)
			if err != nil {
				return nil, fmt.Errorf(errUnableToQuery, err)
			}
			if rawNode == nil {
				continue
			}

			entry := rawNode.(*nodeEntry)
			if matchesFilters(entry.Props, q.Filters) {
				grouped[parentID] = append(grouped[parentID], entry)
			}
		}
	}
	return grouped, nil
}

func projectEntries(entries []*nodeEntry, fields []string) []store.Row {
	rows := make([]store.Row, 0, len(entries))
	for _, entry := range entries {
		props := make(map[string]any, len(fields))
		for _, field := range fields {
			if value, ok := entry.Props[field]; ok {
				props[field] = value
			}
		}
		rows = append(rows, store.Row{ID: entry.ID, Props: props})
	}
	return rows
}

func applyWindow(entries []*nodeEntry, w store.Window) []*nodeEntry {
	if w.Offset >= uint64(len(entries)) {
		return nil
	}
	entries = entries[w.Offset:]
	if !w.Unbounded() && *w.Limit < uint64(len(entries)) {
		entries = entries[:*w.Limit]
	}
	return entries
}
