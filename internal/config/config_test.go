package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chunker.ChunkSize != 500 || cfg.Chunker.Overlap != 100 || cfg.Chunker.Separator != "\n" {
		t.Errorf("unexpected chunker defaults: %+v", cfg.Chunker)
	}
	if cfg.Retrieval.TopK != 1 {
		t.Errorf("top_k default = %d, want 1", cfg.Retrieval.TopK)
	}
	if cfg.Embedder.Type != "ollama" || cfg.Embedder.Ollama.Model != "mistral" {
		t.Errorf("unexpected embedder defaults: %+v", cfg.Embedder)
	}
	if cfg.Generator.Temperature != 0.1 {
		t.Errorf("temperature default = %v, want 0.1", cfg.Generator.Temperature)
	}
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := "document: my-speech.txt\nretrieval:\n  top_k: 3\n"
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Document != "my-speech.txt" {
		t.Errorf("document = %q", cfg.Document)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("top_k = %d, want 3", cfg.Retrieval.TopK)
	}
	if cfg.Chunker.ChunkSize != 500 {
		t.Errorf("chunk_size default not applied: %d", cfg.Chunker.ChunkSize)
	}
	if cfg.Generator.BaseURL == "" || cfg.Generator.Model == "" {
		t.Errorf("generator defaults not applied: %+v", cfg.Generator)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := defaultConfig()
	cfg.Index.Dir = "/var/lib/qa/index"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Index.Dir != cfg.Index.Dir {
		t.Errorf("index dir = %q, want %q", loaded.Index.Dir, cfg.Index.Dir)
	}
}
