// Package dictionary models the schema ("dictionary") governing a property
// graph: named node types with typed scalar fields, connected by named,
// directed relationships. A Binder is an immutable snapshot of one dictionary
// and is safe for unlimited concurrent reads; reloading a dictionary produces
// a new Binder, never mutates an existing one.
package dictionary

import "sort"

// FieldKind is the declared value type of a scalar field.
type FieldKind int8

const (
	KindString FieldKind = iota
	KindInt
	KindFloat
	KindBool
	KindDatetime
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDatetime:
		return "datetime"
	default:
		return "unknown"
	}
}

// Ordinal reports whether values of this kind have a total order, which is
// required for range operators and ordering clauses.
func (k FieldKind) Ordinal() bool {
	return k != KindBool
}

// Field is one scalar field declared on a node type.
type Field struct {
	Name string
	Kind FieldKind
}

// Cardinality is the declared cardinality of a relationship.
type Cardinality int8

const (
	One Cardinality = iota
	Many
)

func (c Cardinality) String() string {
	if c == One {
		return "one"
	}
	return "many"
}

// Relationship is a directed, named association between two node types,
// backed by an edge table binding source and target node identifiers.
type Relationship struct {
	Name        string
	SourceType  string
	TargetType  string
	Cardinality Cardinality

	// EdgeTable is the backing join table. Reversed indicates the edge rows
	// are stored target-to-source, i.e. the source node identifier lives in
	// the destination column.
	EdgeTable string
	Reversed  bool
}

// NodeType describes one node type: its storage table, scalar fields and
// outgoing relationships. Instances are immutable once built by a Binder.
type NodeType struct {
	name  string
	table string

	fields     map[string]Field
	fieldOrder []string

	relationships map[string]Relationship
	relOrder      []string
}

func (nt *NodeType) Name() string { return nt.name }

// Table is the backing storage table for nodes of this type.
func (nt *NodeType) Table() string { return nt.table }

// Field returns the named scalar field, if declared.
func (nt *NodeType) Field(name string) (Field, bool) {
	f, ok := nt.fields[name]
	return f, ok
}

// Fields returns the declared scalar fields in declaration order.
func (nt *NodeType) Fields() []Field {
	out := make([]Field, 0, len(nt.fieldOrder))
	for _, name := range nt.fieldOrder {
		out = append(out, nt.fields[name])
	}
	return out
}

// Relationship returns the named outgoing relationship, if declared.
func (nt *NodeType) Relationship(name string) (Relationship, bool) {
	r, ok := nt.relationships[name]
	return r, ok
}

// Relationships returns the declared relationships in declaration order.
func (nt *NodeType) Relationships() []Relationship {
	out := make([]Relationship, 0, len(nt.relOrder))
	for _, name := range nt.relOrder {
		out = append(out, nt.relationships[name])
	}
	return out
}

// Definition is the loadable form of a node type, produced by a Source.
type Definition struct {
	Name          string
	Table         string
	Fields        []Field
	Relationships []Relationship
}

// Source provides the dictionary content used to build a Binder. It is the
// capability boundary to wherever the dictionary actually lives.
type Source interface {
	NodeTypeDefinitions() ([]Definition, error)
}

// Definitions is a literal Source, handy for programmatic construction.
type Definitions []Definition

func (d Definitions) NodeTypeDefinitions() ([]Definition, error) {
	return d, nil
}

func sortedTypeNames(types map[string]*NodeType) []string {
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
