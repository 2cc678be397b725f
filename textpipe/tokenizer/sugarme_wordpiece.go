package tokenizer

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
)

// SugarWordPiece adapts a pre-trained BERT-style WordPiece vocabulary
// (sugarme/tokenizer) to the Tokenizer interface, for callers that bring a
// subword vocab instead of fitting a word-level one on the corpus.
//
// The id<->token table is read from the vocab file (one token per line, line
// number = id), which keeps Decode and the special-token ids under our
// control regardless of library internals.
type SugarWordPiece struct {
	t        *tk.Tokenizer
	wordByID []string
	padID    int64
	unkID    int64
}

// NewSugarWordPiece loads vocab.txt and builds a BERT WordPiece tokenizer.
func NewSugarWordPiece(vocabPath string) (*SugarWordPiece, error) {
	wordByID, err := readVocabLines(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wordpiece vocab %s: %w", vocabPath, err)
	}
	if len(wordByID) == 0 {
		return nil, fmt.Errorf("wordpiece vocab %s: %w", vocabPath, ErrEmptyCorpus)
	}

	var wp wordpiece.WordPiece
	if nw, err := wordpiece.NewWordPieceFromFile(vocabPath, "[UNK]"); err == nil {
		wp = nw
	} else {
		builder := wordpiece.NewWordPieceBuilder().Files(vocabPath)
		wp = builder.Build()
	}

	t := tk.NewTokenizer(wp)

	// Basic normalizer and pre-tokenizer similar to BERT
	t.WithNormalizer(normalizer.NewBertNormalizer(true, true, true, true))
	t.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())

	s := &SugarWordPiece{t: t, wordByID: wordByID}

	// Special ids come from the vocab file itself; fall back to the common
	// BERT defaults when the markers are absent.
	s.padID, s.unkID = 0, 100
	for id, tok := range wordByID {
		switch tok {
		case "[PAD]":
			s.padID = int64(id)
		case "[UNK]":
			s.unkID = int64(id)
		}
	}
	return s, nil
}

func readVocabLines(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(string(content), "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Encode maps text to wordpiece ids. The Tokenizer contract keeps Encode
// total, so an encoding failure degrades to an empty sequence and is logged
// rather than propagated.
func (s *SugarWordPiece) Encode(text string) []int64 {
	enc, err := s.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(text)), false)
	if err != nil {
		slog.Error("wordpiece encode failed", "error", err)
		return nil
	}
	uids := enc.GetIds()
	ids := make([]int64, len(uids))
	for i, id := range uids {
		ids[i] = int64(id)
	}
	return ids
}

// Decode rebuilds text from wordpiece ids, merging "##" continuation pieces
// onto the preceding word.
func (s *SugarWordPiece) Decode(ids []int64) (string, error) {
	var b strings.Builder
	for i, id := range ids {
		if id < 0 || id >= int64(len(s.wordByID)) {
			return "", fmt.Errorf("%w: id %d, vocabulary size %d", ErrInvalidTokenID, id, len(s.wordByID))
		}
		tok := s.wordByID[id]
		if cont := strings.TrimPrefix(tok, "##"); cont != tok {
			b.WriteString(cont)
			continue
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
	}
	return b.String(), nil
}

// VocabSize returns the number of entries in the vocab file.
func (s *SugarWordPiece) VocabSize() int {
	return len(s.wordByID)
}

// PadID returns the [PAD] id from the vocab file.
func (s *SugarWordPiece) PadID() int64 {
	return s.padID
}

// UnkID returns the [UNK] id from the vocab file.
func (s *SugarWordPiece) UnkID() int64 {
	return s.unkID
}

var _ Tokenizer = (*SugarWordPiece)(nil)
