// Package service wires the RAG pipeline: chunking and embedding at
// build time, retrieval and answer synthesis at question time.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"github.com/surabhi-chandrakant/AmbedkarGPT-Intern-Task/internal/domain"
)

// promptTemplate constrains the model to answer only from the retrieved
// excerpt. The two slots are the joined context and the question.
const promptTemplate = `You are an expert assistant analyzing Dr. B.R. Ambedkar's speech "Annihilation of Caste".
Use the following excerpt from the speech to answer the question. Be precise and stay true to Ambedkar's ideas.

EXCERPT FROM SPEECH:
{{.Context}}

QUESTION: {{.Question}}

INSTRUCTIONS:
1. Answer based ONLY on the provided excerpt
2. If the excerpt doesn't contain relevant information, say so
3. Be concise and accurate
4. Focus on Ambedkar's key arguments

ANSWER:`

var prompt = template.Must(template.New("qa").Parse(promptTemplate))

// Config assembles the pipeline components. Everything is fixed at
// initialization; there is no runtime reconfiguration.
type Config struct {
	Chunker   domain.Chunker
	Embedder  domain.Embedder
	Generator domain.Generator
	Index     domain.VectorIndex
	TopK      int
	Logger    *slog.Logger
}

// QAService is the ready handle produced by Initialize. It is immutable
// after creation: Answer can never observe a half-initialized pipeline.
type QAService struct {
	embedder  domain.Embedder
	generator domain.Generator
	index     domain.VectorIndex
	topK      int
	logger    *slog.Logger
}

// Initialize builds or loads the vector index for the document at
// documentPath and returns a ready handle. Any failure here is fatal:
// the returned *domain.SetupError means the system never became ready.
func Initialize(ctx context.Context, documentPath string, cfg Config) (*QAService, error) {
	if cfg.TopK <= 0 {
		cfg.TopK = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	plan, err := cfg.Index.Plan(ctx)
	if err != nil {
		return nil, &domain.SetupError{Err: fmt.Errorf("probe index: %w", err)}
	}
	cfg.Logger.Info("startup plan decided", "plan", plan.String())

	switch plan {
	case domain.CanLoad:
		if err := cfg.Index.Load(ctx); err != nil {
			return nil, &domain.SetupError{Err: err}
		}
	default:
		if err := buildIndex(ctx, documentPath, cfg); err != nil {
			return nil, &domain.SetupError{Err: err}
		}
	}

	return &QAService{
		embedder:  cfg.Embedder,
		generator: cfg.Generator,
		index:     cfg.Index,
		topK:      cfg.TopK,
		logger:    cfg.Logger,
	}, nil
}

func buildIndex(ctx context.Context, documentPath string, cfg Config) error {
	data, err := os.ReadFile(documentPath)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	doc := domain.Document{Path: documentPath, Content: string(data)}

	chunks := cfg.Chunker.Split(doc.Content)
	if len(chunks) == 0 {
		return fmt.Errorf("%s: %w", documentPath, domain.ErrDocumentEmpty)
	}
	cfg.Logger.Info("document processed", "path", documentPath, "chunks", len(chunks))

	vectors := make([][]float64, len(chunks))
	for i := range chunks {
		vec, err := cfg.Embedder.Embed(ctx, chunks[i].Text)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", chunks[i].Index, err)
		}
		vectors[i] = vec
	}
	return cfg.Index.Build(ctx, chunks, vectors)
}

// Answer retrieves the most relevant chunks for question and synthesizes
// a grounded answer. Failures are typed per question (RetrievalError or
// SynthesisError) and never tear down the session.
func (s *QAService) Answer(ctx context.Context, question string) (string, error) {
	qvec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return "", &domain.RetrievalError{Err: fmt.Errorf("embed question: %w", err)}
	}
	results, err := s.index.Search(qvec, s.topK)
	if err != nil {
		return "", &domain.RetrievalError{Err: err}
	}
	s.logger.Debug("context retrieved", "chunks", len(results))

	rendered, err := renderPrompt(results, question)
	if err != nil {
		return "", &domain.SynthesisError{Err: fmt.Errorf("render prompt: %w", err)}
	}
	answer, err := s.generator.Generate(ctx, rendered)
	if err != nil {
		return "", &domain.SynthesisError{Err: err}
	}
	return answer, nil
}

func renderPrompt(results []domain.SearchResult, question string) (string, error) {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	var sb strings.Builder
	err := prompt.Execute(&sb, struct {
		Context  string
		Question string
	}{
		Context:  strings.Join(texts, "\n\n"),
		Question: question,
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// ExampleQuestions are shown to the user at session start.
func ExampleQuestions() []string {
	return []string{
		"What is the real remedy for caste according to Ambedkar?",
		"What does Ambedkar say about the shastras?",
		"How does Ambedkar compare social reform to gardening?",
		"What is the relationship between scriptures and caste practice?",
		"Why does Ambedkar say you cannot have both caste and disbelief in shastras?",
	}
}
