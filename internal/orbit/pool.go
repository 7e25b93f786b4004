package orbit

import (
	"context"
	"log/slog"
	"sync"
)

// positionJob is a unit of work for the worker pool.
type positionJob struct {
	index       int
	phaseOffset float64
}

// positionResult is the output of a single satellite position computation.
type positionResult struct {
	index    int
	position Vec3
	err      error
}

// Pool manages a fixed number of goroutines for parallel position
// computation. Each position is independent, so a frame for a large
// constellation fans out across workers with no coordination beyond
// collecting results.
type Pool struct {
	workers int
	logger  *slog.Logger
}

// NewPool creates a pool with the given number of workers.
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		logger:  logger,
	}
}

// Snapshot computes all satellite positions of the ring at the given phase
// offset using the worker pool. Positions are returned ordered by index;
// failed indices are logged, left zero, and counted. The success and error
// counts are returned alongside the positions.
func (p *Pool) Snapshot(ctx context.Context, ring Ring, phaseOffset float64) ([]Vec3, int, int) {
	if ring.Count <= 0 {
		return nil, 0, 0
	}

	jobs := make(chan positionJob, p.workers*2)
	results := make(chan positionResult, p.workers*2)

	// Start workers.
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				pos, err := ring.Position(job.index, job.phaseOffset)
				result := positionResult{index: job.index, position: pos, err: err}
				select {
				case results <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed jobs in a goroutine.
	go func() {
		defer close(jobs)
		for i := 0; i < ring.Count; i++ {
			select {
			case jobs <- positionJob{index: i, phaseOffset: phaseOffset}:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close results when all workers are done.
	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in index order.
	positions := make([]Vec3, ring.Count)
	var successCount, errorCount int

	for result := range results {
		if result.err != nil {
			errorCount++
			p.logger.Warn("position computation failed",
				"index", result.index,
				"error", result.err,
			)
			continue
		}
		successCount++
		positions[result.index] = result.position
	}

	return positions, successCount, errorCount
}
