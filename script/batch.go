package script

import (
	"context"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/datascript"
)

// Job pairs a table with the writer its script goes to.
type Job struct {
	Table  *Table
	Writer io.Writer
}

// GenerateAll writes the script of every job concurrently, at most workers
// at a time (GOMAXPROCS if workers <= 0). Tables share no state, so a failed
// job does not stop the others. A single failure is returned as is, several
// as a datascript.AggregateError in job order.
func (g *Generator) GenerateAll(ctx context.Context, jobs []Job, workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	errs := make([]error, len(jobs))
	var eg errgroup.Group
	eg.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				errs[i] = datascript.NewGenerateError(job.Table.Name(), -1, ctx.Err())
			default:
				errs[i] = g.Generate(ctx, job.Writer, job.Table)
			}
			return nil
		})
	}
	_ = eg.Wait()
	return datascript.NewAggregateError(errs...)
}

// GenerateAll writes the scripts of jobs with a new Generator.
func GenerateAll(ctx context.Context, jobs []Job, opts ...Option) error {
	return New(opts...).GenerateAll(ctx, jobs, 0)
}
