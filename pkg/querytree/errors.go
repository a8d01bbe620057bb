package querytree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Issue is one validation failure, located by its dotted query path.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// ValidationError batches every validation failure found in one request.
// Validation accumulates rather than failing fast: callers iterate on
// requests and want the full list in one round trip.
type ValidationError struct {
	error
	issues []Issue
}

// Issues returns the accumulated failures in the order they were found.
func (err ValidationError) Issues() []Issue {
	return err.issues
}

// MarshalZerologObject implements zerolog object marshalling.
func (err ValidationError) MarshalZerologObject(e *zerolog.Event) {
	e.Err(err.error).Int("issue_count", len(err.issues))
}

// DetailsMetadata returns the metadata for details for this error.
func (err ValidationError) DetailsMetadata() map[string]string {
	md := make(map[string]string, len(err.issues))
	for i, issue := range err.issues {
		md["issue_"+strconv.Itoa(i)] = issue.String()
	}
	return md
}

// NewValidationError constructs a validation error from accumulated issues.
func NewValidationError(issues []Issue) error {
	rendered := make([]string, 0, len(issues))
	for _, issue := range issues {
		rendered = append(rendered, issue.String())
	}
	return ValidationError{
		error:  fmt.Errorf("invalid query: %s", strings.Join(rendered, "; ")),
		issues: issues,
	}
}

// TooComplexError occurs when a request exceeds the configured depth or
// total node count caps. It is raised before any store access.
type TooComplexError struct {
	error
	depth     int
	nodeCount int
	limits    Limits
}

// MarshalZerologObject implements zerolog object marshalling.
func (err TooComplexError) MarshalZerologObject(e *zerolog.Event) {
	e.Err(err.error).
		Int("depth", err.depth).
		Int("node_count", err.nodeCount).
		Int("max_depth", err.limits.MaxDepth).
		Int("max_nodes", err.limits.MaxNodes)
}

// DetailsMetadata returns the metadata for details for this error.
func (err TooComplexError) DetailsMetadata() map[string]string {
	return map[string]string{
		"depth":      strconv.Itoa(err.depth),
		"node_count": strconv.Itoa(err.nodeCount),
		"max_depth":  strconv.Itoa(err.limits.MaxDepth),
		"max_nodes":  strconv.Itoa(err.limits.MaxNodes),
	}
}

// NewTooComplexError constructs a new query too complex error.
func NewTooComplexError(depth, nodeCount int, limits Limits) error {
	return TooComplexError{
		error: fmt.Errorf(
			"query too complex: depth %d (max %d), %d traversal levels (max %d)",
			depth, limits.MaxDepth, nodeCount, limits.MaxNodes),
		depth:     depth,
		nodeCount: nodeCount,
		limits:    limits,
	}
}

// MalformedRequestError occurs when the request document cannot be decoded
// at all, before schema validation starts.
type MalformedRequestError struct {
	error
}

// NewMalformedRequestError constructs a new malformed request error.
func NewMalformedRequestError(cause error) error {
	return MalformedRequestError{
		error: fmt.Errorf("malformed request document: %w", cause),
	}
}
