// Package terrain builds height fields chunk by chunk on a bounded worker pool
// and streams progressively filled snapshots to a consumer.
package terrain

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"heightfield/internal/noise"
	"heightfield/internal/profiling"
)

// DefaultWorkers is the worker pool size used when Options.Workers is zero.
const DefaultWorkers = 3

// Options configures a Builder.
type Options struct {
	// Map is the full output extent; Chunk the extent of one unit of work.
	Map, Chunk Shape
	// Seed selects the noise instance. nil picks a random seed.
	Seed *int64
	Fractal
	// Workers bounds parallel chunk computations. Zero means DefaultWorkers.
	Workers int
	// Noise names the backend passed to noise.NewSampler.
	Noise string
	// Sampler overrides Noise when set.
	Sampler noise.Sampler
	// Shuffle orders the chunk plan. nil draws a fresh generator per run.
	// A supplied generator must not be shared across concurrent runs.
	Shuffle *rand.Rand
	// Log receives progress records. nil means slog.Default().
	Log *slog.Logger
	// Profile collects section timings. nil allocates one per builder.
	Profile *profiling.Profile
}

func (o Options) validate() error {
	switch {
	case o.Map.Rows <= 0 || o.Map.Cols <= 0:
		return &ConfigError{Field: "map shape", Reason: fmt.Sprintf("%s has a non-positive dimension", o.Map)}
	case o.Chunk.Rows <= 0 || o.Chunk.Cols <= 0:
		return &ConfigError{Field: "chunk shape", Reason: fmt.Sprintf("%s has a non-positive dimension", o.Chunk)}
	case o.Octaves < 1:
		return &ConfigError{Field: "octaves", Reason: fmt.Sprintf("%d is less than 1", o.Octaves)}
	case o.Workers < 0:
		return &ConfigError{Field: "workers", Reason: fmt.Sprintf("%d is negative", o.Workers)}
	}
	return nil
}

// Builder generates one terrain configuration. Its noise is immutable, so a
// Builder may run several generations, each with its own sink.
type Builder struct {
	opts    Options
	seed    int64
	workers int
	sampler noise.Sampler
	log     *slog.Logger
	prof    *profiling.Profile
}

// NewBuilder validates opts and resolves the seed and noise backend.
func NewBuilder(opts Options) (*Builder, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	b := &Builder{
		opts:    opts,
		workers: opts.Workers,
		sampler: opts.Sampler,
		log:     opts.Log,
		prof:    opts.Profile,
	}
	if opts.Seed != nil {
		b.seed = *opts.Seed
	} else {
		b.seed = rand.Int64()
	}
	if b.workers == 0 {
		b.workers = DefaultWorkers
	}
	if b.sampler == nil {
		s, err := noise.NewSampler(opts.Noise, b.seed)
		if err != nil {
			return nil, &ConfigError{Field: "noise", Reason: err.Error()}
		}
		b.sampler = s
	}
	if b.log == nil {
		b.log = slog.Default()
	}
	if b.prof == nil {
		b.prof = profiling.New()
	}
	return b, nil
}

// Seed returns the resolved noise seed.
func (b *Builder) Seed() int64 { return b.seed }

// Profile returns the builder's timing profile.
func (b *Builder) Profile() *profiling.Profile { return b.prof }

type chunkResult struct {
	chunk Chunk
	m     *Matrix
}

// Generate computes every planned chunk on the worker pool and returns the
// finished matrix. After each chunk is merged a full copy of the matrix is
// published to sink; publishing blocks while sink is full but workers keep
// computing. The first worker failure stops merging and is returned; results
// not yet merged are dropped.
func (b *Builder) Generate(ctx context.Context, sink *Progress) (*Matrix, error) {
	if sink == nil {
		return nil, &ConfigError{Field: "sink", Reason: "nil progress channel"}
	}
	start := time.Now()

	shuffle := b.opts.Shuffle
	if shuffle == nil {
		shuffle = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	chunks := Plan(b.opts.Map, b.opts.Chunk, shuffle)
	b.log.Debug("terrain plan",
		"map", b.opts.Map.String(), "chunk", b.opts.Chunk.String(),
		"chunks", len(chunks), "workers", b.workers, "seed", b.seed)

	terrain := NewMatrix(b.opts.Map.Rows, b.opts.Map.Cols)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// First failure wins. It is recorded before cancel runs.
	var (
		failOnce sync.Once
		firstErr error
	)
	failed := make(chan struct{})
	fail := func(err error) {
		failOnce.Do(func() {
			firstErr = err
			close(failed)
			cancel()
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	// Buffered for every chunk so a finished worker never waits on the merge loop.
	results := make(chan chunkResult, len(chunks))
	waitErr := make(chan error, 1)
	go func() {
		for _, c := range chunks {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					fail(err)
					return err
				}
				m, err := b.computeChunk(gctx, c)
				if err != nil {
					fail(err)
					return err
				}
				results <- chunkResult{chunk: c, m: m}
				return nil
			})
		}
		waitErr <- g.Wait()
	}()

	// abort stops the pool, waits for it, and reports the first failure.
	abort := func(cause error) error {
		fail(cause)
		<-waitErr
		return firstErr
	}

	for merged := 0; merged < len(chunks); {
		select {
		case <-failed:
			return nil, abort(ctx.Err())
		case <-ctx.Done():
			return nil, abort(ctx.Err())
		case r := <-results:
			select {
			case <-failed:
				return nil, abort(ctx.Err())
			default:
			}
			stop := b.prof.Track("terrain.merge")
			terrain.Blit(r.chunk, r.m)
			snap := terrain.Clone()
			stop()
			merged++
			b.log.Debug("terrain chunk merged",
				"row0", r.chunk.Row0, "col0", r.chunk.Col0,
				"merged", merged, "total", len(chunks))

			stop = b.prof.Track("terrain.publish")
			err := sink.Publish(ctx, snap)
			stop()
			if err != nil {
				return nil, abort(err)
			}
		}
	}
	if err := <-waitErr; err != nil {
		return nil, err
	}

	b.log.Info("terrain generated",
		"map", b.opts.Map.String(), "chunks", len(chunks), "seed", b.seed,
		"elapsed", time.Since(start), "profile", b.prof.TopN(3))
	return terrain, nil
}

// computeChunk runs the octave accumulation for one chunk. Panics inside the
// sampler surface as a *WorkerError.
func (b *Builder) computeChunk(ctx context.Context, c Chunk) (m *Matrix, err error) {
	defer b.prof.Track("terrain.chunk")()
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, &WorkerError{Chunk: c, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	m, err = Accumulate(ctx, b.sampler, c, b.opts.Fractal)
	if err != nil && ctx.Err() == nil {
		err = &WorkerError{Chunk: c, Err: err}
	}
	return m, err
}

// Handle tracks a generation started with Start.
type Handle struct {
	done chan struct{}
	m    *Matrix
	err  error
}

// Start runs Generate on a new goroutine.
func (b *Builder) Start(ctx context.Context, sink *Progress) *Handle {
	h := &Handle{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.m, h.err = b.Generate(ctx, sink)
	}()
	return h
}

// Done is closed when the generation returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Finished reports whether the generation returned.
func (h *Handle) Finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the generation returns and yields its result.
func (h *Handle) Wait() (*Matrix, error) {
	<-h.done
	return h.m, h.err
}

// GenerateTerrain builds a matrix of mapShape from chunkShape tiles with the
// default noise backend and worker count, publishing snapshots to sink.
func GenerateTerrain(ctx context.Context, mapShape, chunkShape Shape, sink *Progress, seed *int64, f Fractal) (*Matrix, error) {
	b, err := NewBuilder(Options{Map: mapShape, Chunk: chunkShape, Seed: seed, Fractal: f})
	if err != nil {
		return nil, err
	}
	return b.Generate(ctx, sink)
}
