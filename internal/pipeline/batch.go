package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds RunBatch when no limit is given.
const DefaultWorkers = 4

// BatchResult pairs a request with its outcome or rejection.
type BatchResult struct {
	Request Request
	Outcome *Outcome
	Err     error
}

// RunBatch runs independent requests concurrently, at most workers at a
// time. Results are returned in input order; one request's rejection does
// not affect the others.
func (p *Pipeline) RunBatch(ctx context.Context, reqs []Request, workers int) []BatchResult {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]BatchResult, len(reqs))
	var g errgroup.Group
	g.SetLimit(workers)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			outcome, err := p.Run(ctx, req)
			results[i] = BatchResult{Request: req, Outcome: outcome, Err: err}
			return nil
		})
	}
	g.Wait()
	return results
}
