package dataset

import (
	"errors"
	"fmt"
	"log/slog"

	roaring "github.com/RoaringBitmap/roaring"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrIndexOutOfRange indicates Get was called outside [0, Len()).
	ErrIndexOutOfRange = errors.New("dataset index out of range")

	// ErrInvalidDocument indicates a tokenized document too short to form a
	// training pair.
	ErrInvalidDocument = errors.New("document too short to form a training pair")

	// ErrEmptyCorpus indicates a split was requested over zero documents.
	ErrEmptyCorpus = errors.New("corpus has no documents")

	// ErrInvalidSplit indicates negative split ratios or ratios summing past 1.
	ErrInvalidSplit = errors.New("invalid split ratios")
)

// Pair is one next-token training example: Target is Input shifted one
// position, so Target[i] == Input[i+1] for every valid i and both sides have
// length L-1 for a source document of L tokens. Slices alias the dataset's
// backing storage and must not be mutated.
type Pair struct {
	Input  []int64
	Target []int64
}

// Dataset is the minimal indexed-access contract a batch driver needs. Get
// must be safe for concurrent callers; implementations are read-only after
// construction.
type Dataset interface {
	Len() int
	Get(i int) (Pair, error)
}

// SequenceDataset holds tokenized documents and serves shifted pairs.
// Documents shorter than two tokens cannot form a pair; they are dropped at
// construction and counted in Dropped. The same policy applies to every
// partition a split produces.
type SequenceDataset struct {
	id       uuid.UUID
	seqs     [][]int64
	dropped  int
	coverage *roaring.Bitmap
}

// NewSequenceDataset builds a read-only dataset over already-encoded
// documents, filtering those that cannot yield a pair.
func NewSequenceDataset(seqs [][]int64) *SequenceDataset {
	ds := &SequenceDataset{
		id:       uuid.New(),
		seqs:     make([][]int64, 0, len(seqs)),
		coverage: roaring.New(),
	}
	for _, seq := range seqs {
		if len(seq) < 2 {
			ds.dropped++
			continue
		}
		ds.seqs = append(ds.seqs, seq)
		for _, id := range seq {
			ds.coverage.Add(uint32(id))
		}
	}
	if ds.dropped > 0 {
		slog.Warn("dropped documents too short to form training pairs",
			"dataset", ds.id,
			"dropped", ds.dropped,
			"kept", len(ds.seqs))
	}
	return ds
}

// NewStrictSequenceDataset is the error-on-short-document variant of
// NewSequenceDataset for callers that treat an unpairable document as caller
// misuse rather than something to silently drop. The split helper uses the
// filtering constructor; this one exists for direct construction.
func NewStrictSequenceDataset(seqs [][]int64) (*SequenceDataset, error) {
	for i, seq := range seqs {
		if len(seq) < 2 {
			return nil, fmt.Errorf("%w: document %d has %d token(s)", ErrInvalidDocument, i, len(seq))
		}
	}
	return NewSequenceDataset(seqs), nil
}

// ID identifies this dataset instance in logs.
func (d *SequenceDataset) ID() uuid.UUID {
	return d.id
}

// Len returns the number of documents held.
func (d *SequenceDataset) Len() int {
	return len(d.seqs)
}

// Dropped returns how many documents were filtered at construction.
func (d *SequenceDataset) Dropped() int {
	return d.dropped
}

// Get returns the (input, target) pair for document i.
func (d *SequenceDataset) Get(i int) (Pair, error) {
	if i < 0 || i >= len(d.seqs) {
		return Pair{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(d.seqs))
	}
	seq := d.seqs[i]
	return Pair{Input: seq[:len(seq)-1], Target: seq[1:]}, nil
}

// Coverage returns the set of token ids appearing anywhere in this partition,
// as a copy the caller may mutate. Useful for vocabulary-leakage checks
// between partitions.
func (d *SequenceDataset) Coverage() *roaring.Bitmap {
	return d.coverage.Clone()
}

// Stats summarizes the pair lengths held by a dataset.
type Stats struct {
	Documents      int
	Dropped        int
	DistinctTokens uint64
	MeanLen        float64
	StdLen         float64
	MinLen         int
	MaxLen         int
}

// Stats computes summary statistics over the pair lengths (document length
// minus one).
func (d *SequenceDataset) Stats() Stats {
	s := Stats{
		Documents:      len(d.seqs),
		Dropped:        d.dropped,
		DistinctTokens: d.coverage.GetCardinality(),
	}
	if len(d.seqs) == 0 {
		return s
	}
	lengths := make([]float64, len(d.seqs))
	s.MinLen = len(d.seqs[0]) - 1
	for i, seq := range d.seqs {
		n := len(seq) - 1
		lengths[i] = float64(n)
		if n < s.MinLen {
			s.MinLen = n
		}
		if n > s.MaxLen {
			s.MaxLen = n
		}
	}
	s.MeanLen, s.StdLen = stat.MeanStdDev(lengths, nil)
	if len(lengths) == 1 {
		s.StdLen = 0
	}
	return s
}
