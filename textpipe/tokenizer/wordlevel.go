package tokenizer

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultEncodeCacheSize bounds the per-tokenizer encode cache when the
// caller does not pick a size.
const DefaultEncodeCacheSize = 4096

// Options control vocabulary fitting and encoding for WordLevel.
type Options struct {
	// MaxVocabSize caps the vocabulary including the reserved entries.
	// 0 means unbounded.
	MaxVocabSize int
	// MinFrequency drops words seen fewer times than this during Fit.
	// 0 keeps every word.
	MinFrequency int
	// Lowercase folds documents to lower case before splitting.
	Lowercase bool
	// EncodeCacheSize sizes the LRU cache of encoded documents.
	// 0 uses DefaultEncodeCacheSize; negative disables caching.
	EncodeCacheSize int
}

// WordLevel is a word tokenizer with a frequency-fitted vocabulary.
// Splitting lowercases (when configured), folds punctuation to word
// boundaries keeping intra-word apostrophes, and splits on whitespace. The
// same rule is applied at fit and encode time. Immutable after Fit.
type WordLevel struct {
	vocab *Vocabulary
	opts  Options
	cache *lru.Cache[uint64, []int64]
}

// NewWordLevel creates an unfitted word-level tokenizer. Fit must be called
// before Encode or Decode.
func NewWordLevel(opts Options) *WordLevel {
	w := &WordLevel{opts: opts}
	size := opts.EncodeCacheSize
	if size == 0 {
		size = DefaultEncodeCacheSize
	}
	if size > 0 {
		// lru.New only fails on a non-positive size, which is excluded here.
		cache, err := lru.New[uint64, []int64](size)
		if err == nil {
			w.cache = cache
		}
	}
	return w
}

// Fit builds the vocabulary from the given documents. Id assignment is
// deterministic: descending frequency, ties broken lexicographically.
func (w *WordLevel) Fit(docs []string) error {
	if len(docs) == 0 {
		return ErrEmptyCorpus
	}
	freq := make(map[string]int)
	for _, d := range docs {
		for _, tok := range w.split(d) {
			freq[tok]++
		}
	}
	w.vocab = buildVocabulary(freq, w.opts.MaxVocabSize, w.opts.MinFrequency)
	if w.cache != nil {
		w.cache.Purge()
	}
	slog.Debug("fitted word-level vocabulary",
		"words", w.vocab.Size(),
		"documents", len(docs))
	return nil
}

// Vocab returns the fitted vocabulary, or nil before Fit.
func (w *WordLevel) Vocab() *Vocabulary {
	return w.vocab
}

func (w *WordLevel) split(text string) []string {
	if w.opts.Lowercase {
		text = strings.ToLower(text)
	}
	text = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\'' {
			return r
		}
		return ' '
	}, text)
	return strings.Fields(text)
}

// Encode maps text to token ids using the fit-time splitting rule, with the
// unknown id substituted for out-of-vocabulary words. Callers must not
// mutate the returned slice; it may be shared through the encode cache.
func (w *WordLevel) Encode(text string) []int64 {
	var key uint64
	if w.cache != nil {
		key = xxhash.Sum64String(text)
		if ids, ok := w.cache.Get(key); ok {
			return ids
		}
	}
	toks := w.split(text)
	ids := make([]int64, len(toks))
	for i, t := range toks {
		ids[i] = w.vocab.ID(t)
	}
	if w.cache != nil {
		w.cache.Add(key, ids)
	}
	return ids
}

// Decode joins the words for ids with single spaces. Any id outside
// [0, VocabSize) fails with ErrInvalidTokenID.
func (w *WordLevel) Decode(ids []int64) (string, error) {
	if w.vocab == nil {
		return "", ErrNotFitted
	}
	words := make([]string, len(ids))
	for i, id := range ids {
		word, ok := w.vocab.Word(id)
		if !ok {
			return "", fmt.Errorf("%w: id %d, vocabulary size %d", ErrInvalidTokenID, id, w.vocab.Size())
		}
		words[i] = word
	}
	return strings.Join(words, " "), nil
}

// VocabSize returns the fitted vocabulary size.
func (w *WordLevel) VocabSize() int {
	return w.vocab.Size()
}

// PadID returns the reserved padding id.
func (w *WordLevel) PadID() int64 {
	return w.vocab.PadID()
}

// UnkID returns the reserved unknown-word id.
func (w *WordLevel) UnkID() int64 {
	return w.vocab.UnkID()
}

var _ Tokenizer = (*WordLevel)(nil)
