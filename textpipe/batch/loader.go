package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/sourcegraph/conc/pool"

	"github.com/ZanzyTHEbar/textpipe/textpipe/dataset"
)

// ErrEpochDone signals the loader has served every batch of the current
// epoch; Reset starts the next one.
var ErrEpochDone = errors.New("epoch exhausted")

// LoaderOptions configure a Loader.
type LoaderOptions struct {
	// BatchSize is the number of pairs per batch. Must be positive.
	BatchSize int
	// Shuffle reorders the dataset each epoch with a seeded permutation.
	Shuffle bool
	// Seed keys the shuffle stream; epochs draw successive permutations
	// from it, so a fixed seed reproduces the whole run.
	Seed int64
	// DropLast discards a trailing batch smaller than BatchSize.
	DropLast bool
	// PrefetchWorkers bounds concurrent Get calls while assembling one
	// batch. 0 or 1 fetches serially. Safe because datasets are read-only.
	PrefetchWorkers int
}

// Loader drives padded batches out of any Dataset. It owns iteration policy
// only: samples come from the dataset, shapes from the collator. Each epoch
// visits every index exactly once, without replacement.
//
// A Loader is a sequential cursor and is not safe for concurrent Next calls;
// the concurrency knob applies to the Get fan-out inside one call.
type Loader struct {
	ds     dataset.Dataset
	col    *Collator
	opts   LoaderOptions
	rng    *rand.Rand
	order  []int
	cursor int
	epoch  int
}

// NewLoader validates options and positions the loader at the start of the
// first epoch.
func NewLoader(ds dataset.Dataset, col *Collator, opts LoaderOptions) (*Loader, error) {
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}
	l := &Loader{
		ds:   ds,
		col:  col,
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
	}
	l.reorder()
	return l, nil
}

func (l *Loader) reorder() {
	n := l.ds.Len()
	if l.order == nil {
		l.order = make([]int, n)
	}
	for i := range l.order {
		l.order[i] = i
	}
	if l.opts.Shuffle {
		l.rng.Shuffle(n, func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
	l.cursor = 0
}

// Reset starts the next epoch, reshuffling when configured.
func (l *Loader) Reset() {
	l.epoch++
	l.reorder()
	slog.Debug("loader epoch reset", "epoch", l.epoch, "shuffle", l.opts.Shuffle)
}

// Epoch returns the zero-based index of the current epoch.
func (l *Loader) Epoch() int {
	return l.epoch
}

// Batches returns the number of batches one epoch produces.
func (l *Loader) Batches() int {
	n := l.ds.Len()
	if l.opts.DropLast {
		return n / l.opts.BatchSize
	}
	return (n + l.opts.BatchSize - 1) / l.opts.BatchSize
}

// Next assembles and returns the next batch of the epoch, or ErrEpochDone
// when the epoch is exhausted.
func (l *Loader) Next(ctx context.Context) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.cursor >= len(l.order) {
		return nil, ErrEpochDone
	}
	end := l.cursor + l.opts.BatchSize
	if end > len(l.order) {
		if l.opts.DropLast {
			l.cursor = len(l.order)
			return nil, ErrEpochDone
		}
		end = len(l.order)
	}
	idxs := l.order[l.cursor:end]
	l.cursor = end

	pairs := make([]dataset.Pair, len(idxs))
	if l.opts.PrefetchWorkers > 1 {
		p := pool.New().WithMaxGoroutines(l.opts.PrefetchWorkers).WithContext(ctx)
		for i, di := range idxs {
			i, di := i, di
			p.Go(func(ctx context.Context) error {
				pair, err := l.ds.Get(di)
				if err != nil {
					return err
				}
				pairs[i] = pair
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return nil, fmt.Errorf("failed to fetch batch samples: %w", err)
		}
	} else {
		for i, di := range idxs {
			pair, err := l.ds.Get(di)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch batch samples: %w", err)
			}
			pairs[i] = pair
		}
	}

	return l.col.Collate(pairs)
}
