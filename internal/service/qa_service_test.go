package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/surabhi-chandrakant/AmbedkarGPT-Intern-Task/internal/chunker"
	"github.com/surabhi-chandrakant/AmbedkarGPT-Intern-Task/internal/domain"
	"github.com/surabhi-chandrakant/AmbedkarGPT-Intern-Task/internal/vectorindex"
)

const (
	remedySentence     = "The real remedy is to destroy the belief in the sanctity of the shastras."
	gardeningSentence  = "Social reform is like gardening in the hills."
	referenceQuestion  = "What is the real remedy for caste according to Ambedkar?"
	groundingLine      = "Answer based ONLY on the provided excerpt"
	fallbackLine       = "If the excerpt doesn't contain relevant information, say so"
	testDocumentLength = 80
)

// stubEmbedder maps text to deterministic bag-of-words vectors over a
// tiny fixed vocabulary, and counts how often it is invoked.
type stubEmbedder struct {
	calls int
}

var stubVocab = []string{"remedy", "shastras", "caste", "sanctity", "belief", "destroy", "gardening", "reform"}

func (e *stubEmbedder) Name() string   { return "stub" }
func (e *stubEmbedder) Dimension() int { return len(stubVocab) }

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	e.calls++
	vec := make([]float64, len(stubVocab))
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?\"'")
		for i, term := range stubVocab {
			if tok == term {
				vec[i]++
			}
		}
	}
	return vec, nil
}

// stubGenerator records prompts and can fail a configured number of times.
type stubGenerator struct {
	failures int
	prompts  []string
}

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.failures > 0 {
		g.failures--
		return "", errors.New("model call failed")
	}
	return "The remedy is to destroy the sanctity of the shastras.", nil
}

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speech.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return path
}

func testConfig(t *testing.T, indexDir string, emb domain.Embedder, gen domain.Generator) Config {
	t.Helper()
	idx, err := vectorindex.NewSQLiteIndex(indexDir, emb.Name(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return Config{
		Chunker:   chunker.NewCharacterChunker(testDocumentLength, 0, "\n"),
		Embedder:  emb,
		Generator: gen,
		Index:     idx,
		TopK:      1,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestInitializeEmptyDocumentIsFatal(t *testing.T) {
	doc := writeDocument(t, "")
	cfg := testConfig(t, t.TempDir(), &stubEmbedder{}, &stubGenerator{})

	_, err := Initialize(context.Background(), doc, cfg)
	var se *domain.SetupError
	if !errors.As(err, &se) {
		t.Fatalf("expected SetupError, got %v", err)
	}
	if !errors.Is(err, domain.ErrDocumentEmpty) {
		t.Errorf("expected ErrDocumentEmpty in chain, got %v", err)
	}
}

func TestInitializeMissingDocumentIsFatal(t *testing.T) {
	cfg := testConfig(t, t.TempDir(), &stubEmbedder{}, &stubGenerator{})
	_, err := Initialize(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), cfg)
	var se *domain.SetupError
	if !errors.As(err, &se) {
		t.Fatalf("expected SetupError, got %v", err)
	}
}

func TestInitializeIsIdempotentAcrossRuns(t *testing.T) {
	ctx := context.Background()
	doc := writeDocument(t, remedySentence+"\n"+gardeningSentence)
	indexDir := t.TempDir()

	first := &stubEmbedder{}
	if _, err := Initialize(ctx, doc, testConfig(t, indexDir, first, &stubGenerator{})); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	if first.calls == 0 {
		t.Fatal("first run must embed chunks")
	}

	// Second run against the same persisted location must load and never
	// invoke the embedder.
	second := &stubEmbedder{}
	svc, err := Initialize(ctx, doc, testConfig(t, indexDir, second, &stubGenerator{}))
	if err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	if second.calls != 0 {
		t.Errorf("second run embedded %d chunks; load path must not re-embed", second.calls)
	}

	// The loaded index still answers questions.
	if _, err := svc.Answer(ctx, referenceQuestion); err != nil {
		t.Errorf("answer after reload: %v", err)
	}
}

func TestAnswerRetrievesRemedyChunk(t *testing.T) {
	ctx := context.Background()
	doc := writeDocument(t, remedySentence+"\n"+gardeningSentence)
	gen := &stubGenerator{}

	svc, err := Initialize(ctx, doc, testConfig(t, t.TempDir(), &stubEmbedder{}, gen))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	answer, err := svc.Answer(ctx, referenceQuestion)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer == "" {
		t.Error("empty answer")
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.prompts))
	}
	prompt := gen.prompts[0]
	if !strings.Contains(prompt, remedySentence) {
		t.Errorf("prompt missing the retrieved remedy chunk:\n%s", prompt)
	}
	// k=1: the remedy chunk is the sole context.
	if strings.Contains(prompt, gardeningSentence) {
		t.Errorf("prompt contains a second chunk despite k=1:\n%s", prompt)
	}
	if !strings.Contains(prompt, referenceQuestion) {
		t.Errorf("prompt missing the literal question:\n%s", prompt)
	}
}

func TestAnswerSynthesisFailureDoesNotEndSession(t *testing.T) {
	ctx := context.Background()
	doc := writeDocument(t, remedySentence+"\n"+gardeningSentence)
	gen := &stubGenerator{failures: 1}

	svc, err := Initialize(ctx, doc, testConfig(t, t.TempDir(), &stubEmbedder{}, gen))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	_, err = svc.Answer(ctx, referenceQuestion)
	var se *domain.SynthesisError
	if !errors.As(err, &se) {
		t.Fatalf("expected SynthesisError, got %v", err)
	}

	// The next question on the same handle still succeeds.
	if _, err := svc.Answer(ctx, referenceQuestion); err != nil {
		t.Errorf("answer after synthesis failure: %v", err)
	}
}

func TestAnswerEmbedFailureIsRetrievalError(t *testing.T) {
	svc := &QAService{
		embedder:  failingEmbedder{},
		generator: &stubGenerator{},
		index:     nil,
		topK:      1,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	_, err := svc.Answer(context.Background(), referenceQuestion)
	var re *domain.RetrievalError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetrievalError, got %v", err)
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Name() string   { return "failing" }
func (failingEmbedder) Dimension() int { return 0 }
func (failingEmbedder) Embed(context.Context, string) ([]float64, error) {
	return nil, errors.New("embedding backend down")
}

func TestRenderPromptContainsSlotsAndInstructions(t *testing.T) {
	results := []domain.SearchResult{
		{Chunk: domain.Chunk{Text: remedySentence, Index: 0}, Score: 0.9},
	}
	prompt, err := renderPrompt(results, referenceQuestion)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{remedySentence, referenceQuestion, groundingLine, fallbackLine} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestRenderPromptJoinsMultipleChunks(t *testing.T) {
	results := []domain.SearchResult{
		{Chunk: domain.Chunk{Text: remedySentence, Index: 0}, Score: 0.9},
		{Chunk: domain.Chunk{Text: gardeningSentence, Index: 1}, Score: 0.5},
	}
	prompt, err := renderPrompt(results, referenceQuestion)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	ir := strings.Index(prompt, remedySentence)
	ig := strings.Index(prompt, gardeningSentence)
	if ir < 0 || ig < 0 || ir > ig {
		t.Errorf("chunks missing or out of similarity order in prompt:\n%s", prompt)
	}
}
