package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/surabhi-chandrakant/AmbedkarGPT-Intern-Task/internal/chunker"
	"github.com/surabhi-chandrakant/AmbedkarGPT-Intern-Task/internal/config"
	"github.com/surabhi-chandrakant/AmbedkarGPT-Intern-Task/internal/domain"
	"github.com/surabhi-chandrakant/AmbedkarGPT-Intern-Task/internal/embedding"
	"github.com/surabhi-chandrakant/AmbedkarGPT-Intern-Task/internal/generation"
	"github.com/surabhi-chandrakant/AmbedkarGPT-Intern-Task/internal/service"
	"github.com/surabhi-chandrakant/AmbedkarGPT-Intern-Task/internal/tui"
	"github.com/surabhi-chandrakant/AmbedkarGPT-Intern-Task/internal/vectorindex"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// The document must exist before the core is ever invoked.
	if _, err := os.Stat(cfg.Document); err != nil {
		log.Fatalf("document %s not found: %v", cfg.Document, err)
	}

	ctx := context.Background()

	// Assemble components
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "ollama", "":
		client := embedding.NewOllamaClient(embedding.OllamaConfig{
			BaseURL: cfg.Embedder.Ollama.BaseURL,
			Model:   cfg.Embedder.Ollama.Model,
			Timeout: time.Duration(cfg.Embedder.Ollama.TimeoutSecs) * time.Second,
		})
		if err := client.Healthy(ctx); err != nil {
			log.Fatalf("ollama check failed: %v", err)
		}
		emb = client
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		emb = client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	gen := generation.NewOllamaGenerator(generation.OllamaConfig{
		BaseURL:     cfg.Generator.BaseURL,
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
		Timeout:     time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})

	ch := chunker.NewCharacterChunker(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap, cfg.Chunker.Separator)

	idx, err := vectorindex.NewSQLiteIndex(cfg.Index.Dir, emb.Name(), logger)
	if err != nil {
		log.Fatalf("open vector index: %v", err)
	}
	defer idx.Close()

	svc, err := service.Initialize(ctx, cfg.Document, service.Config{
		Chunker:   ch,
		Embedder:  emb,
		Generator: gen,
		Index:     idx,
		TopK:      cfg.Retrieval.TopK,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("initialization failed: %v", err)
	}

	m := tui.New(svc, service.ExampleQuestions())
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
