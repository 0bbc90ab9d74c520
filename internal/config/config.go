package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultSourceDir    = "AI Module"
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
	defaultIndexPath    = "chroma_db"
	defaultCollection   = "course_material"
	defaultRetrievalK   = 3
	defaultBatchSize    = 32
	defaultDBDriver     = "sqlite"
	defaultDBDSN        = "chat.db"
)

type IngestConfig struct {
	SourceDir  string   `yaml:"source_dir"`
	Extensions []string `yaml:"extensions"`
}

type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// EmbeddingConfig selects the embedding model. The same provider/model pair
// must be used at ingest and at query time.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	BatchSize  int    `yaml:"batch_size"`
	Dimensions int    `yaml:"dimensions"`
}

// Identity returns the provider/model pair recorded in the index manifest.
func (c EmbeddingConfig) Identity() string {
	return c.Provider + "/" + c.Model
}

type IndexConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

type RetrievalConfig struct {
	K int `yaml:"k"`
}

type LLMConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// APIKey reads the key from the configured environment variable.
func (c LLMConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimPrefix(os.Getenv(c.APIKeyEnv), "Bearer ")
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug"`
}

type Config struct {
	Ingest    IngestConfig    `yaml:"ingest"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm"`
	Database  DatabaseConfig  `yaml:"database"`
}

// LoadConfig loads .env into the process environment, then reads the YAML
// config at path. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	// provider and driver defaults depend on what the file selects
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Ingest.SourceDir == "" {
		cfg.Ingest.SourceDir = defaultSourceDir
	}
	if len(cfg.Ingest.Extensions) == 0 {
		cfg.Ingest.Extensions = []string{".pdf"}
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = defaultChunkSize
	}
	// zero overlap cannot be told apart from unset
	if cfg.Chunking.ChunkOverlap == 0 && cfg.Chunking.ChunkSize > 0 {
		cfg.Chunking.ChunkOverlap = min(defaultChunkOverlap, cfg.Chunking.ChunkSize/5)
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "ollama"
	}
	switch cfg.Embedding.Provider {
	case "ollama":
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = "all-minilm"
		}
		if cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = "http://localhost:11434"
		}
	case "openai":
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = "text-embedding-3-small"
		}
		if cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedding.APIKeyEnv == "" {
			cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
		}
	case "hash":
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = "fnv"
		}
		if cfg.Embedding.Dimensions == 0 {
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = defaultBatchSize
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = defaultIndexPath
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = defaultCollection
	}
	if cfg.Retrieval.K == 0 {
		cfg.Retrieval.K = defaultRetrievalK
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama-3.1-8b-instant"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "GROQ_API_KEY"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.5
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = defaultDBDriver
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == defaultDBDriver {
		cfg.Database.DSN = defaultDBDSN
	}
}

// Validate checks the values that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.chunk_overlap must be in [0, %d), got %d", c.Chunking.ChunkSize, c.Chunking.ChunkOverlap)
	}
	if c.Retrieval.K <= 0 {
		return fmt.Errorf("retrieval.k must be positive, got %d", c.Retrieval.K)
	}
	switch c.Embedding.Provider {
	case "ollama", "openai", "hash":
	default:
		return fmt.Errorf("unknown embedding provider: %s", c.Embedding.Provider)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "pgdriver":
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm.timeout must not be negative")
	}
	return nil
}
