package dataset

import (
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/ZanzyTHEbar/textpipe/textpipe/corpus"
	"github.com/ZanzyTHEbar/textpipe/textpipe/tokenizer"
)

// Ratios is the fractional train/val/test split of a corpus. Validation and
// test sizes are floor(ratio * N); the training partition takes everything
// left, so partition sizes always sum to the document count exactly.
type Ratios struct {
	Train float64
	Val   float64
	Test  float64
}

func (r Ratios) validate() error {
	if r.Train < 0 || r.Val < 0 || r.Test < 0 {
		return fmt.Errorf("%w: ratios must be non-negative, got (%v, %v, %v)",
			ErrInvalidSplit, r.Train, r.Val, r.Test)
	}
	if sum := r.Train + r.Val + r.Test; sum > 1 {
		return fmt.Errorf("%w: ratios sum to %v, must not exceed 1", ErrInvalidSplit, sum)
	}
	return nil
}

// SplitOptions configure MakeSequenceDatasets.
type SplitOptions struct {
	// Seed keys the document shuffle; the same corpus and seed always
	// produce the same partitions.
	Seed int64
	// FitOnFullCorpus fits the tokenizer over every partition instead of
	// just the training one. Off by default: fitting on train only keeps
	// val/test-only words behind the unknown id instead of leaking them
	// into the vocabulary.
	FitOnFullCorpus bool
	// EncodeWorkers bounds the goroutines encoding documents.
	// 0 uses GOMAXPROCS.
	EncodeWorkers int
	// Tokenizer configures the word-level tokenizer fitted for the split.
	Tokenizer tokenizer.Options
}

// Splits bundles the three disjoint partitions with the single tokenizer
// they share. The tokenizer is fitted exactly once; partitions hold
// encodings from that one vocabulary and are never refit.
type Splits struct {
	Train     *SequenceDataset
	Val       *SequenceDataset
	Test      *SequenceDataset
	Tokenizer tokenizer.Tokenizer
}

// MakeSequenceDatasets shuffles the corpus with the seeded permutation,
// partitions it per ratios, fits one word-level tokenizer on the training
// partition (or the full corpus when configured), encodes every partition
// with it, and wraps the encodings in sequence datasets.
func MakeSequenceDatasets(docs []corpus.Document, ratios Ratios, opts SplitOptions) (*Splits, error) {
	n := len(docs)
	if n == 0 {
		return nil, ErrEmptyCorpus
	}
	if err := ratios.validate(); err != nil {
		return nil, err
	}

	texts := corpus.Texts(docs)
	perm := rand.New(rand.NewSource(opts.Seed)).Perm(n)
	shuffled := make([]string, n)
	for i, p := range perm {
		shuffled[i] = texts[p]
	}

	nVal := int(ratios.Val * float64(n))
	nTest := int(ratios.Test * float64(n))
	nTrain := n - nVal - nTest

	trainTexts := shuffled[:nTrain]
	valTexts := shuffled[nTrain : nTrain+nVal]
	testTexts := shuffled[nTrain+nVal:]

	tok := tokenizer.NewWordLevel(opts.Tokenizer)
	fitTexts := trainTexts
	if opts.FitOnFullCorpus {
		fitTexts = shuffled
	}
	if err := tok.Fit(fitTexts); err != nil {
		return nil, fmt.Errorf("failed to fit tokenizer: %w", err)
	}

	workers := opts.EncodeWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	splits := &Splits{
		Train:     NewSequenceDataset(encodeAll(tok, trainTexts, workers)),
		Val:       NewSequenceDataset(encodeAll(tok, valTexts, workers)),
		Test:      NewSequenceDataset(encodeAll(tok, testTexts, workers)),
		Tokenizer: tok,
	}

	slog.Info("built sequence datasets",
		"documents", n,
		"train", splits.Train.Len(),
		"val", splits.Val.Len(),
		"test", splits.Test.Len(),
		"vocab_size", tok.VocabSize(),
		"seed", opts.Seed)
	return splits, nil
}

// encodeAll encodes texts in order using a bounded worker pool. Encoding is
// read-only over the fitted tokenizer, so concurrent calls are safe.
func encodeAll(tok tokenizer.Tokenizer, texts []string, workers int) [][]int64 {
	encoded := make([][]int64, len(texts))
	p := pool.New().WithMaxGoroutines(workers)
	for i := range texts {
		i := i
		p.Go(func() {
			encoded[i] = tok.Encode(texts[i])
		})
	}
	p.Wait()
	return encoded
}
