package llm

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// WorkerPoolConfig configures the provider-call worker pool.
type WorkerPoolConfig struct {
	MaxConcurrent int // Maximum concurrent provider calls (default: 8)
}

// DefaultWorkerPoolConfig returns sensible defaults.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		MaxConcurrent: 8,
	}
}

// WorkerPool bounds concurrent provider calls. Bulk operations such as
// scoring every unscored lead fan out through it instead of issuing
// unbounded goroutines against the provider.
type WorkerPool struct {
	config WorkerPoolConfig
	logger *zap.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(config WorkerPoolConfig, logger *zap.Logger) *WorkerPool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 8
	}
	return &WorkerPool{
		config: config,
		logger: logger.Named("llm.pool"),
	}
}

// WorkItem is a unit of work to be processed.
type WorkItem[T any] struct {
	ID      string                               // For logging and tracking
	Execute func(ctx context.Context) (T, error) // The work to run
}

// WorkResult is the outcome of one work item.
type WorkResult[T any] struct {
	ID     string
	Result T
	Err    error
}

// Process executes all work items with bounded parallelism.
// Returns results in completion order, not submission order, and keeps
// processing remaining items when some fail.
func Process[T any](
	ctx context.Context,
	pool *WorkerPool,
	items []WorkItem[T],
	onProgress func(completed, total int),
) []WorkResult[T] {
	if len(items) == 0 {
		return nil
	}

	out := make(chan WorkResult[T], len(items))
	sem := make(chan struct{}, pool.config.MaxConcurrent)
	var wg sync.WaitGroup

	for _, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Acquire a slot, blocks at max concurrency.
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				var zero T
				out <- WorkResult[T]{ID: item.ID, Result: zero, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			result, err := item.Execute(ctx)
			out <- WorkResult[T]{ID: item.ID, Result: result, Err: err}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]WorkResult[T], 0, len(items))
	failed := 0
	for result := range out {
		if result.Err != nil {
			failed++
		}
		results = append(results, result)
		if onProgress != nil {
			onProgress(len(results), len(items))
		}
	}
	pool.logger.Debug("batch complete",
		zap.Int("items", len(items)),
		zap.Int("failed", failed))
	return results
}
