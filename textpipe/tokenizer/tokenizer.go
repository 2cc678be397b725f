package tokenizer

import (
	"errors"
)

// Reserved vocabulary entries. Every fitted vocabulary assigns these two ids
// first, so padding and unknown-word handling stay stable across runs and
// across vocabularies of different sizes.
const (
	PadToken = "<pad>"
	UnkToken = "<unk>"
)

var (
	// ErrInvalidTokenID indicates Decode was given an id outside [0, VocabSize).
	ErrInvalidTokenID = errors.New("token id outside vocabulary range")

	// ErrEmptyCorpus indicates Fit was called with zero documents.
	ErrEmptyCorpus = errors.New("corpus has no documents")

	// ErrNotFitted indicates the tokenizer was used before a vocabulary existed.
	ErrNotFitted = errors.New("tokenizer has no vocabulary")
)

// Tokenizer converts raw text to token-id sequences and back. Implementations
// are immutable once a vocabulary exists, so concurrent use is safe.
type Tokenizer interface {
	// Encode maps a document to token ids, substituting the unknown id for
	// out-of-vocabulary words. Encode is total: it never fails, and an empty
	// or unrecognized document yields an empty (or all-unknown) sequence.
	// Callers must not mutate the returned slice.
	Encode(text string) []int64

	// Decode is the inverse mapping, joining words with single spaces.
	// Ids outside [0, VocabSize) are a caller bug and fail with
	// ErrInvalidTokenID.
	Decode(ids []int64) (string, error)

	VocabSize() int
	PadID() int64
	UnkID() int64
}
