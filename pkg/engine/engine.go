// Package engine binds the parser, planner, executor and assembler behind a
// single request-in/tree-out contract, independent of any wire format. One
// Engine serves unlimited concurrent requests over one immutable dictionary
// snapshot; swapping snapshots means constructing a new Engine.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kestreldb/kestrel/internal/executor"
	log "github.com/kestreldb/kestrel/internal/logging"
	"github.com/kestreldb/kestrel/internal/planner"
	"github.com/kestreldb/kestrel/internal/telemetry"
	"github.com/kestreldb/kestrel/pkg/dictionary"
	"github.com/kestreldb/kestrel/pkg/querytree"
	"github.com/kestreldb/kestrel/pkg/response"
	"github.com/kestreldb/kestrel/pkg/store"
)

// Engine answers schema-governed traversal queries over one graph store.
type Engine struct {
	binder *dictionary.Binder
	graph  store.Graph
	limits querytree.Limits
	exec   *executor.Executor
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLimits replaces the default query shape and window limits.
func WithLimits(limits querytree.Limits) Option {
	return func(e *Engine) { e.limits = limits }
}

// WithConcurrentStepLimit caps in-flight batched store calls per request.
func WithConcurrentStepLimit(limit int) Option {
	return func(e *Engine) {
		e.exec = executor.NewExecutor(e.graph, executor.WithConcurrentStepLimit(limit))
	}
}

// New creates an Engine over the given dictionary snapshot and graph store.
func New(binder *dictionary.Binder, graph store.Graph, opts ...Option) *Engine {
	e := &Engine{
		binder: binder,
		graph:  graph,
		limits: querytree.DefaultLimits,
		exec:   executor.NewExecutor(graph),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute validates, plans and executes the JSON request document against
// rootType and returns the assembled response tree. Invalid requests are
// rejected with the full batch of validation issues before any store access.
func (e *Engine) Execute(ctx context.Context, rootType string, doc []byte) ([]*response.Record, error) {
	req, err := querytree.ParseRequest(doc)
	if err != nil {
		telemetry.ValidationFailures.WithLabelValues("malformed").Inc()
		return nil, err
	}
	return e.ExecuteRequest(ctx, rootType, req)
}

// ExecuteRequest is Execute for an already-decoded request document.
func (e *Engine) ExecuteRequest(ctx context.Context, rootType string, req *querytree.Request) ([]*response.Record, error) {
	requestID := uuid.NewString()
	logger := log.With().Str("request_id", requestID).Str("root_type", rootType).Logger()
	start := time.Now()

	tree, err := querytree.Build(req, rootType, e.binder, e.limits)
	if err != nil {
		telemetry.ValidationFailures.WithLabelValues(failureReason(err)).Inc()
		telemetry.QueryDuration.WithLabelValues("rejected").Observe(time.Since(start).Seconds())
		logger.Debug().Err(err).Msg("query rejected at validation")
		return nil, err
	}

	plan, err := planner.Build(tree, e.binder)
	if err != nil {
		telemetry.QueryDuration.WithLabelValues("plan_error").Observe(time.Since(start).Seconds())
		logger.Error().Err(err).Msg("planning failed against validated query")
		return nil, err
	}

	result, err := e.exec.Execute(ctx, plan)
	if err != nil {
		telemetry.QueryDuration.WithLabelValues("store_error").Observe(time.Since(start).Seconds())
		logger.Warn().Err(err).Msg("store access failed")
		return nil, err
	}

	records := executor.Assemble(plan, result)
	telemetry.QueryDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	logger.Debug().
		Int("steps", len(plan.Steps)).
		Int("root_rows", len(records)).
		Dur("duration", time.Since(start)).
		Msg("query executed")

	return records, nil
}

// Count validates the request document's root level and returns the number
// of matching root nodes, ignoring any window.
func (e *Engine) Count(ctx context.Context, rootType string, doc []byte) (uint64, error) {
	req, err := querytree.ParseRequest(doc)
	if err != nil {
		telemetry.ValidationFailures.WithLabelValues("malformed").Inc()
		return 0, err
	}

	tree, err := querytree.Build(req, rootType, e.binder, e.limits)
	if err != nil {
		telemetry.ValidationFailures.WithLabelValues(failureReason(err)).Inc()
		return 0, err
	}

	count, err := e.graph.CountRoots(ctx, store.RootQuery{
		Type:    tree.Root.Type,
		Filters: tree.Root.Filters,
	})
	if err != nil {
		return 0, executor.NewStoreFailedError(tree.Root.Path, err)
	}
	telemetry.StoreFetches.WithLabelValues("counts").Inc()
	return count, nil
}

func failureReason(err error) string {
	var (
		validation querytree.ValidationError
		tooComplex querytree.TooComplexError
	)
	switch {
	case errors.As(err, &tooComplex):
		return "too_complex"
	case errors.As(err, &validation):
		return "invalid"
	default:
		return "schema"
	}
}
