// Package postgres implements the graph store over a psqlgraph-shaped
// physical schema: one table per node type holding node_id plus a JSONB
// property document, and one table per relationship binding src_id to
// dst_id.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	zerologadapter "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"

	log "github.com/kestreldb/kestrel/internal/logging"
	"github.com/kestreldb/kestrel/pkg/dictionary"
	"github.com/kestreldb/kestrel/pkg/store"
)

const (
	errUnableToInstantiate = "unable to instantiate postgres store: %w"
	errUnableToQuery       = "unable to query postgres store: %w"

	defaultConnectTimeout = 30 * time.Second
)

// Graph is a store.Graph backed by PostgreSQL.
type Graph struct {
	pool *pgxpool.Pool
}

var _ store.Graph = (*Graph)(nil)

// Option customizes the postgres store.
type Option func(*config)

type config struct {
	maxConns       int32
	connectTimeout time.Duration
}

// WithMaxConns caps the connection pool size.
func WithMaxConns(n int32) Option {
	return func(c *config) { c.maxConns = n }
}

// WithConnectTimeout bounds the initial connect/ping retry loop.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *config) { c.connectTimeout = d }
}

// NewGraph connects to the given postgres URI and verifies connectivity,
// retrying with exponential backoff until the connect timeout elapses.
func NewGraph(ctx context.Context, uri string, opts ...Option) (*Graph, error) {
	cfg := config{connectTimeout: defaultConnectTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	poolConfig, err := pgxpool.ParseConfig(uri)
	if err != nil {
		return nil, fmt.Errorf(errUnableToInstantiate, err)
	}
	if cfg.maxConns > 0 {
		poolConfig.MaxConns = cfg.maxConns
	}
	poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   zerologadapter.NewLogger(log.Logger),
		LogLevel: tracelog.LogLevelDebug,
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf(errUnableToInstantiate, err)
	}

	pingBackoff := backoff.WithContext(
		backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(cfg.connectTimeout)),
		ctx,
	)
	if err := backoff.Retry(func() error { return pool.Ping(ctx) }, pingBackoff); err != nil {
		pool.Close()
		return nil, fmt.Errorf(errUnableToInstantiate, err)
	}

	return &Graph{pool: pool}, nil
}

// Close releases the connection pool.
func (g *Graph) Close() {
	g.pool.Close()
}

// FetchRoots implements store.Graph.
func (g *Graph) FetchRoots(ctx context.Context, q store.RootQuery) ([]store.Row, error) {
	sqlStr, args, err := rootQuerySQL(q)
	if err != nil {
		return nil, fmt.Errorf(errUnableToQuery, err)
	}

	rows, err := g.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf(errUnableToQuery, err)
	}
	defer rows.Close()

	var out []store.Row
	for rows.Next() {
		var nodeID string
		var propsJSON []byte
		if err := rows.Scan(&nodeID, &propsJSON); err != nil {
			return nil, fmt.Errorf(errUnableToQuery, err)
		}

		row, err := decodeRow(nodeID, propsJSON, q.Type, q.Fields)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errUnableToQuery, err)
	}
	return out, nil
}

// CountRoots implements store.Graph.
func (g *Graph) CountRoots(ctx context.Context, q store.RootQuery) (uint64, error) {
	sqlStr, args, err := countRootsSQL(q)
	if err != nil {
		return 0, fmt.Errorf(errUnableToQuery, err)
	}

	var count uint64
	if err := g.pool.QueryRow(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf(errUnableToQuery, err)
	}
	return count, nil
}

// FetchLinked implements store.Graph. The per-parent window is evaluated by
// the database itself via a partitioned ROW_NUMBER, so the single batched
// query returns exactly each parent's slice and nothing is truncated
// client-side.
func (g *Graph) FetchLinked(ctx context.Context, q store.LinkedQuery) (store.RowGroup, error) {
	sqlStr, args, err := linkedQuerySQL(q)
	if err != nil {
		return nil, fmt.Errorf(errUnableToQuery, err)
	}

	rows, err := g.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf(errUnableToQuery, err)
	}
	defer rows.Close()

	groups := make(store.RowGroup)
	for rows.Next() {
		var parentID, nodeID string
		var propsJSON []byte
		if err := rows.Scan(&parentID, &nodeID, &propsJSON); err != nil {
			return nil, fmt.Errorf(errUnableToQuery, err)
		}

		row, err := decodeRow(nodeID, propsJSON, q.Type, q.Fields)
		if err != nil {
			return nil, err
		}
		groups[parentID] = append(groups[parentID], row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errUnableToQuery, err)
	}
	return groups, nil
}

// CountLinked implements store.Graph.
func (g *Graph) CountLinked(ctx context.Context, q store.LinkedQuery) (map[string]uint64, error) {
	sqlStr, args, err := countLinkedSQL(q)
	if err != nil {
		return nil, fmt.Errorf(errUnableToQuery, err)
	}

	rows, err := g.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf(errUnableToQuery, err)
	}
	defer rows.Close()

	counts := make(map[string]uint64)
	for rows.Next() {
		var parentID string
		var count uint64
		if err := rows.Scan(&parentID, &count); err != nil {
			return nil, fmt.Errorf(errUnableToQuery, err)
		}
		counts[parentID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errUnableToQuery, err)
	}
	return counts, nil
}

// decodeRow projects the requested fields out of the JSONB document,
// coercing numbers back to the kinds the dictionary declares.
func decodeRow(nodeID string, propsJSON []byte, nodeType *dictionary.NodeType, fields []string) (store.Row, error) {
	var raw map[string]any
	if len(propsJSON) > 0 {
		if err := json.Unmarshal(propsJSON, &raw); err != nil {
			return store.Row{}, fmt.Errorf(errUnableToQuery, err)
		}
	}

	props := make(map[string]any, len(fields))
	for _, name := range fields {
		value, ok := raw[name]
		if !ok {
			continue
		}
		if field, ok := nodeType.Field(name); ok {
			props[name] = coerceFromJSON(value, field.Kind)
		} else {
			props[name] = value
		}
	}

	return store.Row{ID: nodeID, Props: props}, nil
}

func coerceFromJSON(value any, kind dictionary.FieldKind) any {
	if kind != dictionary.KindInt {
		return value
	}
	if f, ok := value.(float64); ok {
		if i := int64(f); float64(i) == f {
			return i
		}
	}
	return value
}
