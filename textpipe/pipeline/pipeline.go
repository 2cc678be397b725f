package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/ZanzyTHEbar/assert-lib"

	"github.com/ZanzyTHEbar/textpipe/textpipe/batch"
	"github.com/ZanzyTHEbar/textpipe/textpipe/config"
	"github.com/ZanzyTHEbar/textpipe/textpipe/corpus"
	"github.com/ZanzyTHEbar/textpipe/textpipe/dataset"
	"github.com/ZanzyTHEbar/textpipe/textpipe/tokenizer"
)

// Pipeline wires corpus loading, splitting, encoding and batch iteration
// together per configuration. It is the convenience surface; every component
// below it is usable on its own.
type Pipeline struct {
	cfg           *config.Config
	assertHandler *assert.AssertHandler

	Splits *dataset.Splits
	Train  *batch.Loader
	Val    *batch.Loader
	Test   *batch.Loader
}

// New loads the corpus, builds the splits and constructs one loader per
// partition. The training loader follows the configured shuffle setting;
// evaluation loaders always iterate in order.
func New(cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	// Create assert handler shared by pipeline internals
	assertHandler := assert.NewAssertHandler()

	docs, err := loadCorpus(cfg)
	if err != nil {
		return nil, err
	}

	splits, err := dataset.MakeSequenceDatasets(docs,
		dataset.Ratios{Train: cfg.Split.Train, Val: cfg.Split.Val, Test: cfg.Split.Test},
		dataset.SplitOptions{
			Seed:            cfg.Split.Seed,
			FitOnFullCorpus: cfg.Split.FitOnFullCorpus,
			EncodeWorkers:   cfg.Split.EncodeWorkers,
			Tokenizer: tokenizer.Options{
				MaxVocabSize:    cfg.Tokenizer.MaxVocabSize,
				MinFrequency:    cfg.Tokenizer.MinFrequency,
				Lowercase:       cfg.Tokenizer.Lowercase,
				EncodeCacheSize: cfg.Tokenizer.EncodeCacheSize,
			},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to build datasets: %w", err)
	}

	reportCoverage(splits)

	collator := batch.NewCollator(splits.Tokenizer.PadID())
	p := &Pipeline{
		cfg:           cfg,
		assertHandler: assertHandler,
		Splits:        splits,
	}

	p.Train, err = batch.NewLoader(splits.Train, collator, batch.LoaderOptions{
		BatchSize:       cfg.Loader.BatchSize,
		Shuffle:         cfg.Loader.Shuffle,
		Seed:            cfg.Split.Seed,
		DropLast:        cfg.Loader.DropLast,
		PrefetchWorkers: cfg.Loader.PrefetchWorkers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build train loader: %w", err)
	}
	for name, part := range map[string]*dataset.SequenceDataset{"val": splits.Val, "test": splits.Test} {
		loader, err := batch.NewLoader(part, collator, batch.LoaderOptions{
			BatchSize:       cfg.Loader.BatchSize,
			PrefetchWorkers: cfg.Loader.PrefetchWorkers,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build %s loader: %w", name, err)
		}
		if name == "val" {
			p.Val = loader
		} else {
			p.Test = loader
		}
	}

	slog.Info("pipeline ready",
		"train_batches", p.Train.Batches(),
		"val_batches", p.Val.Batches(),
		"test_batches", p.Test.Batches(),
		"vocab_size", splits.Tokenizer.VocabSize())
	return p, nil
}

// Tokenizer returns the single tokenizer shared by every partition.
func (p *Pipeline) Tokenizer() tokenizer.Tokenizer {
	return p.Splits.Tokenizer
}

func loadCorpus(cfg *config.Config) ([]corpus.Document, error) {
	switch cfg.Corpus.Format {
	case "csv":
		return corpus.LoadCSV(cfg.Corpus.Path, cfg.Corpus.TextColumn, cfg.Corpus.LabelColumn)
	case "dir":
		return corpus.LoadDir(cfg.Corpus.Path)
	default:
		// Validate already rejected anything else.
		return nil, fmt.Errorf("unknown corpus format %q", cfg.Corpus.Format)
	}
}

// reportCoverage logs how many token ids in the evaluation partitions fall
// outside the training partition's coverage. With a train-fitted vocabulary
// that set can only contain the unknown id; anything more means the
// vocabulary leaked evaluation-only words.
func reportCoverage(splits *dataset.Splits) {
	trainCov := splits.Train.Coverage()
	for name, part := range map[string]*dataset.SequenceDataset{"val": splits.Val, "test": splits.Test} {
		outside := part.Coverage()
		outside.AndNot(trainCov)
		slog.Debug("partition coverage",
			"partition", name,
			"dataset", part.ID(),
			"distinct_tokens", part.Coverage().GetCardinality(),
			"outside_train", outside.GetCardinality())
	}
}
