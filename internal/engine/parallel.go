package engine

import (
	"context"

	"github.com/pipetriage/pipetriage/internal/catalog"
	"github.com/pipetriage/pipetriage/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bound for EvaluateParallel
const DefaultWorkers = 4

// EvaluateParallel maps readings concurrently. Results are written by
// original position, so the output (and the error reported when several
// readings are bad) is the same as Evaluate's.
func EvaluateParallel(ctx context.Context, cat *catalog.Catalog, assignment *models.Assignment, workers int) ([]models.Outcome, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	readings := assignment.Readings()
	outcomes := make([]models.Outcome, len(readings))
	errs := make([]error, len(readings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, r := range readings {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i], errs[i] = evaluateReading(cat, r)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// lowest position wins, matching sequential evaluation
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return outcomes, nil
}
