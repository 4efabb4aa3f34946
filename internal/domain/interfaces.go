package domain

import "context"

// Document represents the single source text loaded into the system.
type Document struct {
	Path    string
	Content string
}

// Chunk is a bounded contiguous slice of the document, the unit of
// embedding and retrieval.
type Chunk struct {
	Text  string
	Index int
}

// SearchResult represents a matching chunk with a similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Embedder converts free text into a numeric vector representation.
// The same embedder instance must serve both build and query time;
// mixing two embedders silently corrupts similarity geometry.
type Embedder interface {
	Name() string
	// Dimension returns the vector dimensionality, or 0 if not yet known.
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator produces text from a fully rendered prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Chunker splits document text into chunks suitable for retrieval indexing.
type Chunker interface {
	Split(text string) []Chunk
}

// StartupPlan is the build-vs-load decision for the persisted index,
// made exactly once per process.
type StartupPlan int

const (
	// NeedsBuild means the persisted location holds no entries; chunk and
	// embed the document, then persist.
	NeedsBuild StartupPlan = iota
	// CanLoad means a non-empty index exists; reload it and skip all
	// re-chunking and re-embedding.
	CanLoad
)

func (p StartupPlan) String() string {
	if p == CanLoad {
		return "load"
	}
	return "build"
}

// VectorIndex persists (chunk, vector) entries and supports similarity search.
type VectorIndex interface {
	Plan(ctx context.Context) (StartupPlan, error)
	Build(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Load(ctx context.Context) error
	Search(vector []float64, topK int) ([]SearchResult, error)
	Size() int
	Close() error
}
