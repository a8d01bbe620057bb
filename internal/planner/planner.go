// Package planner turns a validated query tree into an ordered execution
// plan: one step per traversal level, parent before all its children,
// siblings in request order. Filters, ordering and windows stay attached to
// the step for the level that declared them, so they are always pushed into
// the store call rather than applied in memory after an unbounded fetch.
package planner

import (
	"github.com/kestreldb/kestrel/pkg/dictionary"
	"github.com/kestreldb/kestrel/pkg/querytree"
	"github.com/kestreldb/kestrel/pkg/store"
)

// Step is one store-call-ready traversal level.
type Step struct {
	// Index is the step's position in Plan.Steps; ParentIndex is -1 for the
	// root step.
	Index       int
	ParentIndex int
	Depth       int

	// Path locates the step in the request for diagnostics.
	Path string

	Type    *dictionary.NodeType
	Fields  []string
	Filters []store.Filter
	Order   store.Ordering
	Window  store.Window

	// Relationship joins this step to its parent's identifiers; zero-valued
	// on the root step. CountOnly steps yield per-parent counts instead of
	// rows.
	Relationship dictionary.Relationship
	CountOnly    bool

	// Link is the validated link that produced this step, nil for the root.
	Link *querytree.Link

	Children []*Step
}

// IsRoot reports whether the step has no parent.
func (s *Step) IsRoot() bool { return s.ParentIndex < 0 }

// Plan is the ordered translation of one query tree.
type Plan struct {
	Steps []*Step
	Root  *Step

	// ByDepth groups steps level by level; all steps at depth d depend only
	// on steps at depth d-1.
	ByDepth [][]*Step
}

// Build converts a validated tree into a Plan, re-resolving every
// relationship against the binder. A relationship that no longer resolves
// means the dictionary changed between validation and planning; that is an
// internal inconsistency, surfaced as a PlanError and never retried.
func Build(tree *querytree.Tree, binder *dictionary.Binder) (*Plan, error) {
	plan := &Plan{}
	root, err := plan.addStep(tree.Root, nil, nil, binder)
	if err != nil {
		return nil, err
	}
	plan.Root = root

	for _, step := range plan.Steps {
		for len(plan.ByDepth) <= step.Depth {
			plan.ByDepth = append(plan.ByDepth, nil)
		}
		plan.ByDepth[step.Depth] = append(plan.ByDepth[step.Depth], step)
	}

	return plan, nil
}

func (p *Plan) addStep(node *querytree.Node, link *querytree.Link, parent *Step, binder *dictionary.Binder) (*Step, error) {
	step := &Step{
		Index:       len(p.Steps),
		ParentIndex: -1,
		Path:        node.Path,
		Type:        node.Type,
		Filters:     node.Filters,
		Order:       normalizeOrdering(node.Order),
		Window:      node.Window,
		Link:        link,
	}

	for _, field := range node.Fields {
		step.Fields = append(step.Fields, field.Name)
	}

	if parent != nil {
		step.ParentIndex = parent.Index
		step.Depth = parent.Depth + 1
		step.CountOnly = link.CountOnly

		// The join binding must still hold against the binder's current
		// descriptors, re-resolved by name.
		parentType, err := binder.ResolveNodeType(parent.Type.Name())
		if err != nil {
			return nil, NewPlanError(node.Path, link.Relationship.Name, err)
		}
		rel, err := binder.ResolveRelationship(parentType, link.Relationship.Name)
		if err != nil || rel != link.Relationship {
			return nil, NewPlanError(node.Path, link.Relationship.Name, err)
		}
		step.Relationship = rel
	}

	p.Steps = append(p.Steps, step)

	for _, childLink := range node.Links {
		child, err := p.addStep(childLink.Node, childLink, step, binder)
		if err != nil {
			return nil, err
		}
		step.Children = append(step.Children, child)
	}

	return step, nil
}

// normalizeOrdering substitutes the store's natural identifier ordering when
// a level declares none, so pagination is deterministic and reproducible
// across repeated executions.
func normalizeOrdering(order store.Ordering) store.Ordering {
	if order.Field == "" && order.Direction == store.Ascending {
		return store.ByID
	}
	return order
}
