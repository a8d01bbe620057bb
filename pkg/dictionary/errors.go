package dictionary

import (
	"fmt"

	"github.com/rs/zerolog"
)

// NotFoundError is a shared interface for not found errors.
type NotFoundError interface {
	IsNotFoundError() bool
}

// NodeTypeNotFoundError occurs when a node type is not declared in the bound
// dictionary snapshot.
type NodeTypeNotFoundError struct {
	error
	nodeTypeName string
}

var _ NotFoundError = NodeTypeNotFoundError{}

func (err NodeTypeNotFoundError) IsNotFoundError() bool { return true }

// NotFoundNodeTypeName is the name of the node type that was not found.
func (err NodeTypeNotFoundError) NotFoundNodeTypeName() string {
	return err.nodeTypeName
}

// MarshalZerologObject implements zerolog object marshalling.
func (err NodeTypeNotFoundError) MarshalZerologObject(e *zerolog.Event) {
	e.Err(err.error).Str("node_type", err.nodeTypeName)
}

// DetailsMetadata returns the metadata for details for this error.
func (err NodeTypeNotFoundError) DetailsMetadata() map[string]string {
	return map[string]string{
		"node_type_name": err.nodeTypeName,
	}
}

// NewNodeTypeNotFoundError constructs a new node type not found error.
func NewNodeTypeNotFoundError(nodeTypeName string) error {
	return NodeTypeNotFoundError{
		error:        fmt.Errorf("node type `%s` not found in dictionary", nodeTypeName),
		nodeTypeName: nodeTypeName,
	}
}

// RelationshipNotFoundError occurs when a relationship is not declared on the
// containing node type.
type RelationshipNotFoundError struct {
	error
	nodeTypeName     string
	relationshipName string
}

var _ NotFoundError = RelationshipNotFoundError{}

func (err RelationshipNotFoundError) IsNotFoundError() bool { return true }

// MarshalZerologObject implements zerolog object marshalling.
func (err RelationshipNotFoundError) MarshalZerologObject(e *zerolog.Event) {
	e.Err(err.error).Str("node_type", err.nodeTypeName).Str("relationship", err.relationshipName)
}

// DetailsMetadata returns the metadata for details for this error.
func (err RelationshipNotFoundError) DetailsMetadata() map[string]string {
	return map[string]string{
		"node_type_name":    err.nodeTypeName,
		"relationship_name": err.relationshipName,
	}
}

// NewRelationshipNotFoundError constructs a new relationship not found error.
func NewRelationshipNotFoundError(nodeTypeName, relationshipName string) error {
	return RelationshipNotFoundError{
		error:            fmt.Errorf("relationship `%s` not found on node type `%s`", relationshipName, nodeTypeName),
		nodeTypeName:     nodeTypeName,
		relationshipName: relationshipName,
	}
}

// DuplicateNameError occurs when a dictionary source declares the same name
// twice within one scope.
type DuplicateNameError struct {
	error
	kind string
	name string
}

// NewDuplicateNameError constructs a new duplicate name error.
func NewDuplicateNameError(kind, name string) error {
	return DuplicateNameError{
		error: fmt.Errorf("duplicate %s `%s` in dictionary", kind, name),
		kind:  kind,
		name:  name,
	}
}
