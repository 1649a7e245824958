package linebreak

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/galley/box"
)

// Job is one paragraph with its own parameters.
type Job struct {
	List   []box.Node
	Params Params
}

// BreakAll breaks independent paragraphs with shared parameters
// concurrently. Paragraph i is numbered p.Paragraph+i in diagnostics.
func BreakAll(ctx context.Context, lists [][]box.Node, p Params) ([]*Paragraph, error) {
	jobs := make([]Job, len(lists))
	for i, list := range lists {
		jobs[i] = Job{List: list, Params: p}
		jobs[i].Params.Paragraph = p.Paragraph + i
	}
	return BreakJobs(ctx, jobs)
}

// BreakJobs runs Break for every job on a bounded set of goroutines.
// Results keep the order of jobs; the first error cancels the rest.
func BreakJobs(ctx context.Context, jobs []Job) ([]*Paragraph, error) {
	out := make([]*Paragraph, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			par, err := Break(job.List, job.Params)
			if err != nil {
				return err
			}
			out[i] = par
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
