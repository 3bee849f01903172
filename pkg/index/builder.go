package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bastiangx/communeindex/internal/logger"
	"github.com/bastiangx/communeindex/pkg/locality"
	"github.com/bastiangx/communeindex/pkg/normalize"
	"github.com/charmbracelet/log"
)

// Store is where a build lands: the shard sink plus the manifest.
type Store interface {
	Sink
	Prepare() error
	WriteManifest(queries []string) error
}

// Options tunes a build.
type Options struct {
	Threshold int
	MaxDepth  int
	Alphabet  normalize.Alphabet
	Workers   int
	FailFast  bool
}

// DefaultOptions matches the published index: 800 records per shard, 7 levels.
func DefaultOptions() Options {
	return Options{
		Threshold: 800,
		MaxDepth:  7,
		Alphabet:  normalize.DefaultAlphabet,
		Workers:   1,
		FailFast:  true,
	}
}

// Result summarizes a finished build.
type Result struct {
	Queries    []string
	Shards     int
	Residuals  int
	Localities int
	Keys       int
	Elapsed    time.Duration
}

// Builder drives one partitioning run per top-level alphabet symbol.
type Builder struct {
	opts   Options
	store  Store
	logger *log.Logger
}

// NewBuilder creates a builder writing into store.
func NewBuilder(opts Options, store Store) (*Builder, error) {
	if opts.Threshold < 1 {
		return nil, fmt.Errorf("threshold must be >= 1, got %d", opts.Threshold)
	}
	if opts.MaxDepth < 1 {
		return nil, fmt.Errorf("max depth must be >= 1, got %d", opts.MaxDepth)
	}
	if err := opts.Alphabet.Validate(); err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Builder{opts: opts, store: store, logger: logger.New("index")}, nil
}

type branchResult struct {
	claims []Claim
	err    error
}

// Build partitions localities, writes every shard and the manifest, then
// fails with *OrphanError if any locality key was never referenced.
func (b *Builder) Build(ctx context.Context, localities []locality.Locality) (*Result, error) {
	start := time.Now()
	if err := b.store.Prepare(); err != nil {
		return nil, err
	}

	keys := locality.Keys(localities)
	tracker := NewTracker(keys)
	p := &Partitioner{
		Threshold: b.opts.Threshold,
		MaxDepth:  b.opts.MaxDepth,
		Alphabet:  b.opts.Alphabet,
		FailFast:  b.opts.FailFast,
		Sink:      b.store,
		Tracker:   tracker,
		Logger:    b.logger,
	}

	unreachable := 0
	for _, l := range localities {
		if !b.opts.Alphabet.ContainsAll(l.NormalizedName) {
			unreachable++
		}
	}
	if unreachable > 0 {
		b.logger.Warn("names use symbols outside the alphabet, only postal codes can reach them", "localities", unreachable)
	}

	b.logger.Info("partitioning", "localities", len(localities), "keys", len(keys),
		"threshold", b.opts.Threshold, "depth", b.opts.MaxDepth, "workers", b.opts.Workers)

	branches := b.fanOut(ctx, p, localities)

	symbols := b.opts.Alphabet.Symbols()
	if b.opts.FailFast || ctx.Err() != nil {
		if err := firstFailure(branches, symbols); err != nil {
			return nil, err
		}
	}

	res := &Result{Localities: len(localities), Keys: len(keys)}
	for i, br := range branches {
		if br.err != nil {
			b.logger.Error("branch failed, continuing", "query", symbols[i], "err", br.err)
			continue
		}
		for _, c := range br.claims {
			res.Queries = append(res.Queries, c.Query)
			if c.Residual {
				res.Residuals++
			}
		}
	}
	res.Shards = len(res.Queries)

	if err := b.store.WriteManifest(res.Queries); err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(start)

	if tracker.Len() > 0 {
		return res, &OrphanError{Keys: tracker.Remaining()}
	}
	b.logger.Info("index built", "shards", res.Shards, "residual", res.Residuals, "elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// firstFailure returns the first branch error, preferring a real failure over
// the cancellations it triggered in sibling branches.
func firstFailure(branches []branchResult, symbols []string) error {
	var canceled error
	for i, br := range branches {
		if br.err == nil {
			continue
		}
		wrapped := fmt.Errorf("building branch %q: %w", symbols[i], br.err)
		if errors.Is(br.err, context.Canceled) {
			if canceled == nil {
				canceled = wrapped
			}
			continue
		}
		return wrapped
	}
	return canceled
}

// fanOut runs one top-level branch per symbol. Results come back indexed by
// symbol position so the manifest order never depends on scheduling.
func (b *Builder) fanOut(ctx context.Context, p *Partitioner, localities []locality.Locality) []branchResult {
	symbols := b.opts.Alphabet.Symbols()
	results := make([]branchResult, len(symbols))

	if b.opts.Workers == 1 {
		for i, sym := range symbols {
			claims, err := p.Partition(ctx, sym, localities)
			results[i] = branchResult{claims: claims, err: err}
			if err != nil && b.opts.FailFast {
				break
			}
		}
		return results
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, b.opts.Workers)
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			claims, err := p.Partition(ctx, sym, localities)
			results[i] = branchResult{claims: claims, err: err}
			if err != nil && b.opts.FailFast {
				cancel()
			}
		}(i, sym)
	}
	wg.Wait()
	return results
}
