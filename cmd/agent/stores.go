package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/storage"
	chstore "github.com/tokimonsterAI/agent/internal/storage/clickhouse"
	"github.com/tokimonsterAI/agent/internal/storage/memory"
	"github.com/tokimonsterAI/agent/internal/storage/migrations"
	pgstore "github.com/tokimonsterAI/agent/internal/storage/postgres"
	s3store "github.com/tokimonsterAI/agent/internal/storage/s3"
)

// storeOptions selects the storage backends.
type storeOptions struct {
	useMemory     bool
	postgresDSN   string
	clickhouseDSN string // optional evaluation audit log
	cacheSize     int

	s3 s3store.Config // transcripts go to S3 when Endpoint is set
}

// allStores holds all storage implementations.
type allStores struct {
	memories    storage.MemoryStore
	cursors     storage.CursorStore
	cache       storage.CacheStore
	counters    storage.DeployCounterStore
	evaluations storage.EvaluationStore // nil when no audit log is configured
}

func createStores(ctx context.Context, opts storeOptions, agentID string, logger *zap.Logger) (*allStores, func(), error) {
	var (
		stores  = &allStores{}
		closers []func()
		cleanup = func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	)

	if opts.useMemory {
		cache, err := memory.NewCacheStore(opts.cacheSize)
		if err != nil {
			return nil, nil, err
		}
		stores.memories = memory.NewMemoryStore()
		stores.cursors = memory.NewCursorStore()
		stores.cache = cache
		stores.counters = memory.NewDeployCounterStore()
		logger.Warn("using in-memory storage; state is lost on restart")
	} else {
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}

		stores.memories = pgstore.NewMemoryStore(pool)
		stores.cursors = pgstore.NewCursorStore(pool)
		stores.cache = pgstore.NewCacheStore(pool, agentID)
		stores.counters = pgstore.NewDeployCounterStore(pool, agentID)
	}

	if opts.clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, opts.clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		stores.evaluations = chstore.NewEvaluationStore(conn)
	} else if opts.useMemory {
		stores.evaluations = memory.NewEvaluationStore()
	}

	if opts.s3.Endpoint != "" {
		if opts.s3.Prefix == "" {
			opts.s3.Prefix = agentID
		}
		transcripts, err := s3store.NewTranscriptStore(opts.s3)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("s3 transcript store: %w", err)
		}
		stores.cache = transcripts
	}

	return stores, cleanup, nil
}
