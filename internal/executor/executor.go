// Package executor runs an execution plan against the graph store. The
// defining property is batched traversal: every step issues exactly one store
// call covering the whole deduplicated parent identifier set of the level
// above, so a request costs at most one call per plan step regardless of row
// counts.
package executor

import (
	"context"
	"sort"

	"github.com/kestreldb/kestrel/internal/planner"
	"github.com/kestreldb/kestrel/internal/telemetry"
	"github.com/kestreldb/kestrel/pkg/store"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrentStepLimit = 16

// Executor executes plans. It is stateless across requests and safe for
// concurrent use.
type Executor struct {
	graph               store.Graph
	concurrentStepLimit int
}

// Option customizes an Executor.
type Option func(*Executor)

// WithConcurrentStepLimit caps the number of batched store calls in flight
// for a single request. Sibling steps at one depth are mutually independent,
// but the cap bounds the memory held by accumulated rows.
func WithConcurrentStepLimit(limit int) Option {
	return func(e *Executor) {
		if limit > 0 {
			e.concurrentStepLimit = limit
		}
	}
}

// NewExecutor creates an executor over the given graph store.
func NewExecutor(graph store.Graph, opts ...Option) *Executor {
	e := &Executor{
		graph:               graph,
		concurrentStepLimit: defaultConcurrentStepLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type stepResult struct {
	rows   []store.Row
	groups store.RowGroup
	counts map[string]uint64
}

// Result holds the per-step row groups produced by one plan execution.
type Result struct {
	steps []stepResult
}

// RootRows returns the root step's ordered rows.
func (r *Result) RootRows() []store.Row {
	return r.steps[0].rows
}

func (r *Result) groupsFor(stepIndex int) store.RowGroup {
	return r.steps[stepIndex].groups
}

func (r *Result) countsFor(stepIndex int) map[string]uint64 {
	return r.steps[stepIndex].counts
}

// Execute runs the plan level by level: the root step first, then for each
// depth every child step as one batched call keyed on the deduplicated
// identifiers of its parent's result. A child step never starts before its
// parent's full result set is known, and any store failure aborts the whole
// request; partial results are never returned as if complete.
func (e *Executor) Execute(ctx context.Context, plan *planner.Plan) (*Result, error) {
	result := &Result{steps: make([]stepResult, len(plan.Steps))}

	root := plan.Root
	rows, err := e.graph.FetchRoots(ctx, store.RootQuery{
		Type:    root.Type,
		Fields:  root.Fields,
		Filters: root.Filters,
		Order:   root.Order,
		Window:  root.Window,
	})
	if err != nil {
		return nil, NewStoreFailedError(root.Path, err)
	}
	telemetry.StoreFetches.WithLabelValues("roots").Inc()
	result.steps[root.Index] = stepResult{rows: rows}

	for depth := 1; depth < len(plan.ByDepth); depth++ {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.concurrentStepLimit)

		for _, step := range plan.ByDepth[depth] {
			parentIDs := e.parentIdentifiers(plan, result, step)
			if len(parentIDs) == 0 {
				// No parents matched; the step trivially produces nothing
				// and the store call is skipped entirely.
				result.steps[step.Index] = stepResult{groups: store.RowGroup{}, counts: map[string]uint64{}}
				continue
			}

			g.Go(func() error {
				return e.executeLinkedStep(gctx, step, parentIDs, result)
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (e *Executor) executeLinkedStep(ctx context.Context, step *planner.Step, parentIDs []string, result *Result) error {
	q := store.LinkedQuery{
		Type:         step.Type,
		Relationship: step.Relationship,
		ParentIDs:    parentIDs,
		Fields:       step.Fields,
		Filters:      step.Filters,
		Order:        step.Order,
		Window:       step.Window,
	}

	if step.CountOnly {
		counts, err := e.graph.CountLinked(ctx, q)
		if err != nil {
			return NewStoreFailedError(step.Path, err)
		}
		telemetry.StoreFetches.WithLabelValues("counts").Inc()
		result.steps[step.Index] = stepResult{counts: counts}
		return nil
	}

	groups, err := e.graph.FetchLinked(ctx, q)
	if err != nil {
		return NewStoreFailedError(step.Path, err)
	}
	telemetry.StoreFetches.WithLabelValues("linked").Inc()
	result.steps[step.Index] = stepResult{groups: groups}
	return nil
}

// parentIdentifiers collects the deduplicated, sorted identifier set of the
// step's parent result. Sorting keeps the batched call deterministic; the
// response ordering itself comes from each step's own pushed-down ordering.
func (e *Executor) parentIdentifiers(plan *planner.Plan, result *Result, step *planner.Step) []string {
	parent := result.steps[step.ParentIndex]

	seen := make(map[string]struct{})
	var ids []string

	appendID := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	if plan.Steps[step.ParentIndex].IsRoot() {
		for _, row := range parent.rows {
			appendID(row.ID)
		}
	} else {
		for _, rows := range parent.groups {
			for _, row := range rows {
				appendID(row.ID)
			}
		}
	}

	sort.Strings(ids)
	return ids
}
