package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	memstore "github.com/kestreldb/kestrel/internal/store/memdb"
	"github.com/kestreldb/kestrel/internal/store/postgres"
	"github.com/kestreldb/kestrel/pkg/dictionary"
	"github.com/kestreldb/kestrel/pkg/engine"
	"github.com/kestreldb/kestrel/pkg/querytree"
	"github.com/kestreldb/kestrel/pkg/store"
)

// engineConfig carries the flags shared by every command that needs a
// running engine.
type engineConfig struct {
	dictionaryPath string
	datastore      string
	datastoreURI   string

	maxDepth            int
	maxNodes            int
	defaultFirst        uint64
	maxFirst            uint64
	concurrentStepLimit int
}

func (c *engineConfig) registerFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.dictionaryPath, "dictionary", "", "path to the dictionary YAML document (required)")
	flags.StringVar(&c.datastore, "datastore-engine", "memory", `datastore engine ("memory", "postgres")`)
	flags.StringVar(&c.datastoreURI, "datastore-conn-uri", "", "connection string for the postgres datastore engine")

	flags.IntVar(&c.maxDepth, "max-query-depth", querytree.DefaultLimits.MaxDepth, "maximum traversal nesting depth per query")
	flags.IntVar(&c.maxNodes, "max-query-nodes", querytree.DefaultLimits.MaxNodes, "maximum total traversal levels per query")
	flags.Uint64Var(&c.defaultFirst, "default-first", querytree.DefaultLimits.DefaultFirst, "result window applied when a query level declares none")
	flags.Uint64Var(&c.maxFirst, "max-first", querytree.DefaultLimits.MaxFirst, "hard cap on any query level's result window")
	flags.IntVar(&c.concurrentStepLimit, "concurrent-step-limit", 16, "maximum in-flight batched store calls per request")
}

// buildEngine constructs the engine plus a shutdown func for its store.
func (c *engineConfig) buildEngine(ctx context.Context) (*engine.Engine, func(), error) {
	if c.dictionaryPath == "" {
		return nil, nil, fmt.Errorf("--dictionary is required")
	}

	source, err := dictionary.NewYAMLFileSource(c.dictionaryPath)
	if err != nil {
		return nil, nil, err
	}
	binder, err := dictionary.NewBinder(source)
	if err != nil {
		return nil, nil, err
	}

	var (
		graph    store.Graph
		shutdown = func() {}
	)
	switch c.datastore {
	case "memory":
		builder, err := memstore.NewBuilder()
		if err != nil {
			return nil, nil, err
		}
		graph = builder.Graph()

	case "postgres":
		pg, err := postgres.NewGraph(ctx, c.datastoreURI)
		if err != nil {
			return nil, nil, err
		}
		graph = pg
		shutdown = pg.Close

	default:
		return nil, nil, fmt.Errorf("unknown datastore engine %q", c.datastore)
	}

	eng := engine.New(binder, graph,
		engine.WithLimits(querytree.Limits{
			MaxDepth:     c.maxDepth,
			MaxNodes:     c.maxNodes,
			DefaultFirst: c.defaultFirst,
			MaxFirst:     c.maxFirst,
		}),
		engine.WithConcurrentStepLimit(c.concurrentStepLimit),
	)
	return eng, shutdown, nil
}
