package img2ascii

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result is one converted frame: its grid and its position in the source
// sequence.
type Result struct {
	Index int
	Grid  *Grid
}

// BatchConverter applies a Sampler to every frame of a Sequence. Frames
// are sampled concurrently; results always come back in sequence order.
type BatchConverter struct {
	sampler *Sampler
	workers int
}

// BatchOption is a functional option for configuring a BatchConverter.
type BatchOption func(*BatchConverter)

// WithWorkers bounds the number of frames sampled at once. Values below
// one mean GOMAXPROCS.
func WithWorkers(n int) BatchOption {
	return func(b *BatchConverter) {
		b.workers = n
	}
}

// NewBatchConverter creates a BatchConverter around sampler.
func NewBatchConverter(sampler *Sampler, opts ...BatchOption) *BatchConverter {
	b := &BatchConverter{sampler: sampler}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers < 1 {
		b.workers = runtime.GOMAXPROCS(0)
	}
	return b
}

// Convert samples every frame. An empty or nil sequence fails with
// EmptyInputError, a missing sampler with UnsupportedConfigError.
func (b *BatchConverter) Convert(seq *Sequence) ([]Result, error) {
	if b.sampler == nil {
		return nil, configErrorf("sampler", "batch conversion needs a sampler")
	}
	if seq == nil || len(seq.Frames) == 0 {
		return nil, &EmptyInputError{Stage: "batch convert"}
	}

	results := make([]Result, len(seq.Frames))
	var g errgroup.Group
	g.SetLimit(b.workers)
	for i, frame := range seq.Frames {
		g.Go(func() error {
			grid, err := b.sampler.Sample(frame.Image)
			if err != nil {
				return err
			}
			results[i] = Result{Index: i, Grid: grid}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Grids returns the grids of results in order.
func Grids(results []Result) []*Grid {
	grids := make([]*Grid, len(results))
	for i, r := range results {
		grids[i] = r.Grid
	}
	return grids
}
