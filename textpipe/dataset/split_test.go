package dataset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/textpipe/textpipe/corpus"
	"github.com/ZanzyTHEbar/textpipe/textpipe/tokenizer"
)

func reviewCorpus(n int) []corpus.Document {
	docs := make([]corpus.Document, n)
	for i := range docs {
		docs[i] = corpus.Document{
			Text:  fmt.Sprintf("review number %d was film number %d of the year", i, i),
			Label: "positive",
		}
	}
	return docs
}

func TestMakeSequenceDatasetsSizes(t *testing.T) {
	tests := []struct {
		name            string
		n               int
		ratios          Ratios
		wantVal, wantTest int
	}{
		{"EvenSplit", 100, Ratios{Train: 0.8, Val: 0.1, Test: 0.1}, 10, 10},
		{"RemainderToTrain", 7, Ratios{Train: 0.7, Val: 0.15, Test: 0.15}, 1, 1},
		{"NoValNoTest", 10, Ratios{Train: 1}, 0, 0},
		{"SingleDocument", 1, Ratios{Train: 0.5, Val: 0.25, Test: 0.25}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := MakeSequenceDatasets(reviewCorpus(tt.n), tt.ratios, SplitOptions{Seed: 1})
			require.NoError(t, err)

			assert.Equal(t, tt.wantVal, splits.Val.Len())
			assert.Equal(t, tt.wantTest, splits.Test.Len())
			total := splits.Train.Len() + splits.Val.Len() + splits.Test.Len()
			assert.Equal(t, tt.n, total, "partition sizes must sum to the document count")
		})
	}
}

func TestMakeSequenceDatasetsErrors(t *testing.T) {
	_, err := MakeSequenceDatasets(nil, Ratios{Train: 1}, SplitOptions{})
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	docs := reviewCorpus(4)
	for _, ratios := range []Ratios{
		{Train: -0.1, Val: 0.5, Test: 0.5},
		{Train: 0.5, Val: -0.2, Test: 0.1},
		{Train: 0.8, Val: 0.2, Test: 0.2},
	} {
		_, err := MakeSequenceDatasets(docs, ratios, SplitOptions{})
		assert.ErrorIs(t, err, ErrInvalidSplit, "ratios %+v should be rejected", ratios)
	}
}

func TestMakeSequenceDatasetsDeterminism(t *testing.T) {
	docs := reviewCorpus(20)
	opts := SplitOptions{Seed: 42, Tokenizer: tokenizer.Options{Lowercase: true}}

	a, err := MakeSequenceDatasets(docs, Ratios{Train: 0.6, Val: 0.2, Test: 0.2}, opts)
	require.NoError(t, err)
	b, err := MakeSequenceDatasets(docs, Ratios{Train: 0.6, Val: 0.2, Test: 0.2}, opts)
	require.NoError(t, err)

	require.Equal(t, a.Train.Len(), b.Train.Len())
	assert.Equal(t, a.Tokenizer.VocabSize(), b.Tokenizer.VocabSize())
	for i := 0; i < a.Train.Len(); i++ {
		pa, err := a.Train.Get(i)
		require.NoError(t, err)
		pb, err := b.Train.Get(i)
		require.NoError(t, err)
		assert.Equal(t, pa.Input, pb.Input, "document %d should land in the same slot with the same encoding", i)
	}

	// A different seed produces a different document order.
	c, err := MakeSequenceDatasets(docs, Ratios{Train: 0.6, Val: 0.2, Test: 0.2},
		SplitOptions{Seed: 7, Tokenizer: tokenizer.Options{Lowercase: true}})
	require.NoError(t, err)
	same := true
	for i := 0; i < a.Train.Len() && same; i++ {
		pa, _ := a.Train.Get(i)
		pc, _ := c.Train.Get(i)
		if !assert.ObjectsAreEqual(pa.Input, pc.Input) {
			same = false
		}
	}
	assert.False(t, same, "different seeds should shuffle documents differently")
}

func TestTokenizerFitOnTrainOnly(t *testing.T) {
	// Three documents; with these ratios exactly one lands in each
	// partition. The word unique to the test document must encode to the
	// unknown id because the vocabulary never saw it.
	docs := []corpus.Document{
		{Text: "shared words here"},
		{Text: "shared words again"},
		{Text: "shared words xylophone"},
	}

	splits, err := MakeSequenceDatasets(docs, Ratios{Train: 0.32, Val: 0.34, Test: 0.34},
		SplitOptions{Seed: 3, Tokenizer: tokenizer.Options{Lowercase: true}})
	require.NoError(t, err)
	require.Equal(t, 1, splits.Train.Len())
	require.Equal(t, 1, splits.Val.Len())
	require.Equal(t, 1, splits.Test.Len())

	trainCov := splits.Train.Coverage()
	unkSeen := false
	for _, part := range []*SequenceDataset{splits.Val, splits.Test} {
		cov := part.Coverage()
		cov.AndNot(trainCov)
		// Anything outside train coverage can only be the unknown id.
		it := cov.Iterator()
		for it.HasNext() {
			id := it.Next()
			assert.EqualValues(t, splits.Tokenizer.UnkID(), id)
			unkSeen = true
		}
	}
	assert.True(t, unkSeen, "a word outside the training partition should surface as the unknown id")
}

func TestMakeSequenceDatasetsFitOnFullCorpus(t *testing.T) {
	docs := []corpus.Document{
		{Text: "alpha beta"},
		{Text: "gamma delta"},
		{Text: "epsilon zeta"},
		{Text: "eta theta"},
	}

	splits, err := MakeSequenceDatasets(docs, Ratios{Train: 0.5, Val: 0.25, Test: 0.25},
		SplitOptions{Seed: 11, FitOnFullCorpus: true, Tokenizer: tokenizer.Options{Lowercase: true}})
	require.NoError(t, err)

	// Every word in every partition is known, so no partition contains the
	// unknown id.
	unk := uint32(splits.Tokenizer.UnkID())
	for _, part := range []*SequenceDataset{splits.Train, splits.Val, splits.Test} {
		assert.False(t, part.Coverage().Contains(unk))
	}
}

func TestMakeSequenceDatasetsParallelEncode(t *testing.T) {
	docs := reviewCorpus(50)
	serial, err := MakeSequenceDatasets(docs, Ratios{Train: 0.8, Val: 0.1, Test: 0.1},
		SplitOptions{Seed: 5, EncodeWorkers: 1})
	require.NoError(t, err)
	parallel, err := MakeSequenceDatasets(docs, Ratios{Train: 0.8, Val: 0.1, Test: 0.1},
		SplitOptions{Seed: 5, EncodeWorkers: 8})
	require.NoError(t, err)

	require.Equal(t, serial.Train.Len(), parallel.Train.Len())
	for i := 0; i < serial.Train.Len(); i++ {
		ps, _ := serial.Train.Get(i)
		pp, _ := parallel.Train.Get(i)
		assert.Equal(t, ps.Input, pp.Input)
	}
}
