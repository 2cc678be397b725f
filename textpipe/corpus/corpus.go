package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	internal "github.com/ZanzyTHEbar/textpipe/textpipe"
)

// Document is one raw record from a corpus source. Label is carried through
// for callers that want it; the sequence pipeline only reads Text.
type Document struct {
	Text  string
	Label string
}

var (
	// ErrMissingColumn indicates the CSV header lacks the configured text column.
	ErrMissingColumn = errors.New("csv header missing required column")

	// ErrNoDocuments indicates the source yielded zero documents.
	ErrNoDocuments = errors.New("corpus source contains no documents")
)

// Texts projects the document texts, preserving order.
func Texts(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Text
	}
	return out
}

// LoadCSV reads (text, label) records from a headered CSV file such as the
// common review/sentiment dataset layout. textColumn must exist in the
// header; labelColumn is optional and yields empty labels when absent.
// Document order is the row order of the file.
func LoadCSV(path, textColumn, labelColumn string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus csv %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header of %s: %w", path, err)
	}

	textIdx, labelIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case textColumn:
			textIdx = i
		case labelColumn:
			labelIdx = i
		}
	}
	if textIdx < 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrMissingColumn, textColumn, path)
	}

	var docs []Document
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record from %s: %w", path, err)
		}
		doc := Document{Text: record[textIdx]}
		if labelIdx >= 0 && labelIdx < len(record) {
			doc.Label = record[labelIdx]
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoDocuments)
	}

	slog.Debug("loaded csv corpus", "path", path, "documents", len(docs))
	return docs, nil
}

// LoadDir reads one document per .txt file under root, labelled with the name
// of the file's parent directory (the pos/neg layout used by review corpora).
// Files matched by a gitignore-style ignore file at the corpus root are
// skipped. Documents are ordered by path so repeated loads agree.
func LoadDir(root string) ([]Document, error) {
	ignored, err := loadIgnore(root)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".txt" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if ignored != nil && ignored.MatchesPath(rel) {
			slog.Debug("skipping ignored corpus file", "path", rel)
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus dir %s: %w", root, err)
	}
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus file %s: %w", path, err)
		}
		docs = append(docs, Document{
			Text:  string(content),
			Label: filepath.Base(filepath.Dir(path)),
		})
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s: %w", root, ErrNoDocuments)
	}

	slog.Debug("loaded directory corpus", "root", root, "documents", len(docs))
	return docs, nil
}

// loadIgnore compiles the corpus ignore file when present.
func loadIgnore(root string) (*ignore.GitIgnore, error) {
	ignorePath := filepath.Join(root, internal.DefaultIgnoreFile)
	if _, err := os.Stat(ignorePath); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error checking for %s: %w", internal.DefaultIgnoreFile, err)
	}
	ignored, err := ignore.CompileIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", internal.DefaultIgnoreFile, err)
	}
	return ignored, nil
}
