package planner

import (
	"fmt"

	"github.com/rs/zerolog"
)

// PlanError occurs when a validated query tree no longer agrees with the
// dictionary at plan time. It indicates a server fault, not a caller error,
// and is logged for investigation.
type PlanError struct {
	error
	path             string
	relationshipName string
}

// Path is the query path of the step that failed to plan.
func (err PlanError) Path() string { return err.path }

// MarshalZerologObject implements zerolog object marshalling.
func (err PlanError) MarshalZerologObject(e *zerolog.Event) {
	e.Err(err.error).Str("path", err.path).Str("relationship", err.relationshipName)
}

// DetailsMetadata returns the metadata for details for this error.
func (err PlanError) DetailsMetadata() map[string]string {
	return map[string]string{
		"path":              err.path,
		"relationship_name": err.relationshipName,
	}
}

// NewPlanError constructs a new plan error.
func NewPlanError(path, relationshipName string, cause error) error {
	if cause != nil {
		return PlanError{
			error: fmt.Errorf(
				"unable to plan step `%s`: join key for relationship `%s` no longer resolves: %w",
				path, relationshipName, cause),
			path:             path,
			relationshipName: relationshipName,
		}
	}
	return PlanError{
		error: fmt.Errorf(
			"unable to plan step `%s`: relationship `%s` descriptor changed since validation",
			path, relationshipName),
		path:             path,
		relationshipName: relationshipName,
	}
}
