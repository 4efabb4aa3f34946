package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OllamaConfig holds connection details for a local Ollama server, used
// for both embeddings and generation.
type OllamaConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig configures the OpenAI embedding alternative.
type OpenAIEmbedderConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	Ollama *OllamaConfig         `yaml:"ollama,omitempty"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// GeneratorConfig configures the generative model used for answers.
type GeneratorConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// ChunkerConfig configures how the document is split into chunks.
type ChunkerConfig struct {
	ChunkSize int    `yaml:"chunk_size"`
	Overlap   int    `yaml:"chunk_overlap"`
	Separator string `yaml:"separator"`
}

// IndexConfig locates the persisted vector index.
type IndexConfig struct {
	Dir string `yaml:"dir"`
}

// RetrievalConfig fixes how many chunks are retrieved per question.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// AppConfig is the root application configuration structure. All knobs
// are fixed at initialization; there is no runtime reconfiguration.
type AppConfig struct {
	Document  string          `yaml:"document"`
	Index     IndexConfig     `yaml:"index"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
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

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Document: "speech.txt",
		Index:    IndexConfig{Dir: "./index"},
		Chunker:  ChunkerConfig{ChunkSize: 500, Overlap: 100, Separator: "\n"},
		Embedder: EmbedderConfig{
			Type:   "ollama",
			Ollama: &OllamaConfig{Model: "mistral"},
		},
		Generator: GeneratorConfig{Model: "mistral", Temperature: 0.1},
		Retrieval: RetrievalConfig{TopK: 1},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Document == "" {
		cfg.Document = "speech.txt"
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = "./index"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 500
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 100
	}
	if cfg.Chunker.Separator == "" {
		cfg.Chunker.Separator = "\n"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 1
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "ollama"
	}
	if cfg.Embedder.Type == "ollama" {
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaConfig{}
		}
		if cfg.Embedder.Ollama.BaseURL == "" {
			cfg.Embedder.Ollama.BaseURL = "http://localhost:11434"
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = "mistral"
		}
		if cfg.Embedder.Ollama.TimeoutSecs == 0 {
			cfg.Embedder.Ollama.TimeoutSecs = 60
		}
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
	}
	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = "http://localhost:11434"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "mistral"
	}
	if cfg.Generator.Temperature == 0 {
		cfg.Generator.Temperature = 0.1
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = 120
	}
}
