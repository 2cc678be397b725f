package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/textpipe/textpipe"

	"github.com/spf13/viper"
)

// Config stores all configuration of the data pipeline.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Split     SplitConfig     `mapstructure:"split"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Loader    LoaderConfig    `mapstructure:"loader"`
}

// CorpusConfig stores the raw-document source settings.
type CorpusConfig struct {
	Path        string `mapstructure:"path"`
	Format      string `mapstructure:"format"` // "csv" or "dir"
	TextColumn  string `mapstructure:"textColumn"`
	LabelColumn string `mapstructure:"labelColumn"`
}

// SplitConfig stores partitioning settings.
type SplitConfig struct {
	Train           float64 `mapstructure:"train"`
	Val             float64 `mapstructure:"val"`
	Test            float64 `mapstructure:"test"`
	Seed            int64   `mapstructure:"seed"`
	FitOnFullCorpus bool    `mapstructure:"fitOnFullCorpus"`
	EncodeWorkers   int     `mapstructure:"encodeWorkers"`
}

// TokenizerConfig stores vocabulary-fitting settings.
type TokenizerConfig struct {
	MaxVocabSize    int    `mapstructure:"maxVocabSize"`
	MinFrequency    int    `mapstructure:"minFrequency"`
	Lowercase       bool   `mapstructure:"lowercase"`
	EncodeCacheSize int    `mapstructure:"encodeCacheSize"`
	WordPieceVocab  string `mapstructure:"wordPieceVocab"` // optional pre-trained vocab file
}

// LoaderConfig stores batch-iteration settings.
type LoaderConfig struct {
	BatchSize       int  `mapstructure:"batchSize"`
	Shuffle         bool `mapstructure:"shuffle"`
	DropLast        bool `mapstructure:"dropLast"`
	PrefetchWorkers int  `mapstructure:"prefetchWorkers"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("corpus.format", "csv")
	viper.SetDefault("corpus.textColumn", "review")
	viper.SetDefault("corpus.labelColumn", "sentiment")
	viper.SetDefault("split.train", 0.8)
	viper.SetDefault("split.val", 0.1)
	viper.SetDefault("split.test", 0.1)
	viper.SetDefault("split.seed", 42)
	viper.SetDefault("tokenizer.lowercase", true)
	viper.SetDefault("tokenizer.encodeCacheSize", 4096)
	viper.SetDefault("loader.batchSize", 32)
	viper.SetDefault("loader.shuffle", true)

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // e.g. loader.batchSize becomes LOADER_BATCHSIZE

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults will be used. Not an error
			// for the pipeline to halt on.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &AppConfig, nil
}

// Validate rejects configurations the pipeline cannot run with. Ratio
// violations surface here with the same conditions the split helper raises,
// so misconfiguration fails before any data is read.
func (c *Config) Validate() error {
	switch c.Corpus.Format {
	case "csv", "dir":
	default:
		return fmt.Errorf("unknown corpus format %q (want csv or dir)", c.Corpus.Format)
	}
	if c.Split.Train < 0 || c.Split.Val < 0 || c.Split.Test < 0 {
		return fmt.Errorf("split ratios must be non-negative, got (%v, %v, %v)",
			c.Split.Train, c.Split.Val, c.Split.Test)
	}
	if sum := c.Split.Train + c.Split.Val + c.Split.Test; sum > 1 {
		return fmt.Errorf("split ratios sum to %v, must not exceed 1", sum)
	}
	if c.Loader.BatchSize <= 0 {
		return fmt.Errorf("loader batch size must be positive, got %d", c.Loader.BatchSize)
	}
	return nil
}
