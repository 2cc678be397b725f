package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal "github.com/ZanzyTHEbar/textpipe/textpipe"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reviews.csv")
	writeFile(t, path, "review,sentiment\n"+
		"\"A fine, quiet film\",positive\n"+
		"Dreadful pacing,negative\n"+
		"Forgettable,negative\n")

	docs, err := LoadCSV(path, "review", "sentiment")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "A fine, quiet film", docs[0].Text)
	assert.Equal(t, "positive", docs[0].Label)
	assert.Equal(t, "Dreadful pacing", docs[1].Text)
	assert.Equal(t, "negative", docs[2].Label)
}

func TestLoadCSVMissingTextColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reviews.csv")
	writeFile(t, path, "body,sentiment\nhello,positive\n")

	_, err := LoadCSV(path, "review", "sentiment")
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadCSVWithoutLabelColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reviews.csv")
	writeFile(t, path, "review\nsome text\n")

	docs, err := LoadCSV(path, "review", "sentiment")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "some text", docs[0].Text)
	assert.Empty(t, docs[0].Label)
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pos", "a.txt"), "great film")
	writeFile(t, filepath.Join(root, "pos", "b.txt"), "loved it")
	writeFile(t, filepath.Join(root, "neg", "c.txt"), "awful")
	writeFile(t, filepath.Join(root, "neg", "notes.md"), "not a document")

	docs, err := LoadDir(root)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	// Paths are sorted, so neg/ comes before pos/.
	assert.Equal(t, "awful", docs[0].Text)
	assert.Equal(t, "neg", docs[0].Label)
	assert.Equal(t, "great film", docs[1].Text)
	assert.Equal(t, "pos", docs[1].Label)
}

func TestLoadDirIgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pos", "a.txt"), "kept")
	writeFile(t, filepath.Join(root, "scratch", "tmp.txt"), "dropped")
	writeFile(t, filepath.Join(root, internal.DefaultIgnoreFile), "scratch/\n")

	docs, err := LoadDir(root)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "kept", docs[0].Text)
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestTexts(t *testing.T) {
	docs := []Document{{Text: "one", Label: "a"}, {Text: "two", Label: "b"}}
	assert.Equal(t, []string{"one", "two"}, Texts(docs))
}
