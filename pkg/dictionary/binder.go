package dictionary

import "fmt"

const errUnableToBind = "unable to bind dictionary: %w"

// Binder is an immutable dictionary snapshot exposing typed lookups for node
// types and relationships. It is built once per snapshot and shared by
// reference across requests.
type Binder struct {
	types     map[string]*NodeType
	typeNames []string
}

// NewBinder builds a Binder from the definitions provided by source. Node
// type names and their relationship names must be unique within the snapshot
// and every relationship target must resolve.
func NewBinder(source Source) (*Binder, error) {
	defs, err := source.NodeTypeDefinitions()
	if err != nil {
		return nil, fmt.Errorf(errUnableToBind, err)
	}

	types := make(map[string]*NodeType, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf(errUnableToBind, fmt.Errorf("node type with empty name"))
		}
		if _, ok := types[def.Name]; ok {
			return nil, NewDuplicateNameError("node type", def.Name)
		}

		table := def.Table
		if table == "" {
			table = "node_" + def.Name
		}

		nt := &NodeType{
			name:          def.Name,
			table:         table,
			fields:        make(map[string]Field, len(def.Fields)),
			fieldOrder:    make([]string, 0, len(def.Fields)),
			relationships: make(map[string]Relationship, len(def.Relationships)),
			relOrder:      make([]string, 0, len(def.Relationships)),
		}

		for _, f := range def.Fields {
			if _, ok := nt.fields[f.Name]; ok {
				return nil, NewDuplicateNameError("field", def.Name+"."+f.Name)
			}
			nt.fields[f.Name] = f
			nt.fieldOrder = append(nt.fieldOrder, f.Name)
		}

		for _, r := range def.Relationships {
			if _, ok := nt.relationships[r.Name]; ok {
				return nil, NewDuplicateNameError("relationship", def.Name+"."+r.Name)
			}
			r.SourceType = def.Name
			nt.relationships[r.Name] = r
			nt.relOrder = append(nt.relOrder, r.Name)
		}

		types[def.Name] = nt
	}

	// Relationship targets can only be checked once all types are known.
	for _, nt := range types {
		for _, r := range nt.relationships {
			if _, ok := types[r.TargetType]; !ok {
				return nil, fmt.Errorf(errUnableToBind,
					fmt.Errorf("relationship %s.%s targets undeclared node type %q", nt.name, r.Name, r.TargetType))
			}
		}
	}

	return &Binder{types: types, typeNames: sortedTypeNames(types)}, nil
}

// ResolveNodeType returns the descriptor for the named node type.
func (b *Binder) ResolveNodeType(name string) (*NodeType, error) {
	nt, ok := b.types[name]
	if !ok {
		return nil, NewNodeTypeNotFoundError(name)
	}
	return nt, nil
}

// ResolveRelationship returns the named relationship declared on nodeType.
func (b *Binder) ResolveRelationship(nodeType *NodeType, name string) (Relationship, error) {
	r, ok := nodeType.Relationship(name)
	if !ok {
		return Relationship{}, NewRelationshipNotFoundError(nodeType.Name(), name)
	}
	return r, nil
}

// NodeTypeNames returns all node type names in the snapshot, sorted.
func (b *Binder) NodeTypeNames() []string {
	return b.typeNames
}
