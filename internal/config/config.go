package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LogConfig selects the zap preset and minimum level.
type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// DatasetConfig lists the post exports and the optional labelled comments file.
type DatasetConfig struct {
	Paths        []string `yaml:"paths"`
	CommentsPath string   `yaml:"comments_path,omitempty"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// IndexConfig controls embedding batches during a build.
type IndexConfig struct {
	BatchSize   int `yaml:"batch_size"`
	Concurrency int `yaml:"concurrency"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// QuotaConfig caps the results one chunk level may contribute.
type QuotaConfig struct {
	Level int `yaml:"level"`
	Max   int `yaml:"max"`
}

// RetrievalConfig sets the search fan-out and level quotas. Quota order is
// priority order.
type RetrievalConfig struct {
	TopK   int           `yaml:"top_k"`
	Quotas []QuotaConfig `yaml:"quotas"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Log         LogConfig         `yaml:"log"`
	Dataset     DatasetConfig     `yaml:"dataset"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Index       IndexConfig       `yaml:"index"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/socialrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/socialrag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects unknown implementation names and malformed quotas.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "tfidf", "openai":
	default:
		return fmt.Errorf("unknown embedder type %q", c.Embedder.Type)
	}
	switch c.VectorStore.Type {
	case "memory":
	case "qdrant":
		if c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "" {
			return errors.New("qdrant vector store needs vector_store.qdrant.url")
		}
	default:
		return fmt.Errorf("unknown vector store type %q", c.VectorStore.Type)
	}
	if c.Summarizer.Type != "frequency" {
		return fmt.Errorf("unknown summarizer type %q", c.Summarizer.Type)
	}
	for _, q := range c.Retrieval.Quotas {
		if q.Level < 1 || q.Level > 6 || q.Max < 0 {
			return fmt.Errorf("invalid retrieval quota level=%d max=%d", q.Level, q.Max)
		}
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "socialrag", "config.yaml"), nil
}

func defaultQuotas() []QuotaConfig {
	return []QuotaConfig{{Level: 5, Max: 1}, {Level: 4, Max: 2}, {Level: 3, Max: 2}, {Level: 2, Max: 2}, {Level: 1, Max: 3}}
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Log:         LogConfig{Mode: "dev", Level: "info"},
		Dataset:     DatasetConfig{Paths: []string{"data/*_organic_posts.csv"}},
		Embedder:    EmbedderConfig{Type: "tfidf"},
		Index:       IndexConfig{BatchSize: 32, Concurrency: 4},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Retrieval:   RetrievalConfig{TopK: 10, Quotas: defaultQuotas()},
		Summarizer:  SummarizerConfig{Type: "frequency", MaxSentences: 3},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Log.Mode == "" {
		cfg.Log.Mode = def.Log.Mode
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = def.Embedder.Type
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Index.BatchSize <= 0 {
		cfg.Index.BatchSize = def.Index.BatchSize
	}
	if cfg.Index.Concurrency <= 0 {
		cfg.Index.Concurrency = def.Index.Concurrency
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = def.VectorStore.Type
	}
	if q := cfg.VectorStore.Qdrant; q != nil {
		if q.Collection == "" {
			q.Collection = "socialrag_chunks"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = def.Retrieval.TopK
	}
	if len(cfg.Retrieval.Quotas) == 0 {
		cfg.Retrieval.Quotas = def.Retrieval.Quotas
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = def.Summarizer.Type
	}
	if cfg.Summarizer.MaxSentences <= 0 {
		cfg.Summarizer.MaxSentences = def.Summarizer.MaxSentences
	}
}
