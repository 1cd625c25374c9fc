package scanner

import (
	"context"
	"sync"

	"github.com/pmccscan/pmccscan/internal/domain"
)

// symbolJob is one unit of per-symbol work: fetch chain+quote, analyze,
// attach risk. Generalized from
// trader/internal/modules/evaluation/worker_pool.go's sequence-evaluation
// jobs/results-channel pattern to per-symbol PMCC analysis jobs.
type symbolJob struct {
	index  int
	symbol string
}

type symbolResult struct {
	index      int
	candidates []*domain.PMCCCandidate
	err        error
}

// runWorkerPool fans symbols out across numWorkers goroutines, calling work
// for each one, and returns results in the same order the symbols were
// given — mirroring the teacher's own index-tagged job/result channel shape
// rather than a result slice built from unordered appends guarded by a
// mutex.
func runWorkerPool(ctx context.Context, symbols []string, numWorkers int, work func(context.Context, string) ([]*domain.PMCCCandidate, error)) []symbolResult {
	n := len(symbols)
	if n == 0 {
		return nil
	}
	if numWorkers <= 0 {
		numWorkers = 10
	}
	if n < numWorkers {
		numWorkers = n
	}

	jobs := make(chan symbolJob, n)
	results := make(chan symbolResult, n)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				candidates, err := work(ctx, job.symbol)
				results <- symbolResult{index: job.index, candidates: candidates, err: err}
			}
		}()
	}

	for idx, symbol := range symbols {
		jobs <- symbolJob{index: idx, symbol: symbol}
	}
	close(jobs)

	wg.Wait()
	close(results)

	out := make([]symbolResult, n)
	for r := range results {
		out[r.index] = r
	}
	return out
}
