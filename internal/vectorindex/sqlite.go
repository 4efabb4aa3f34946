// Package vectorindex provides the persistent vector index backing
// retrieval: SQLite on disk, brute-force cosine search in memory.
package vectorindex

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/surabhi-chandrakant/AmbedkarGPT-Intern-Task/internal/domain"
)

const dbFileName = "index.db"

// SQLiteIndex stores (chunk, vector) entries in a SQLite database and
// keeps a full in-memory copy for search. Entries are append-only during
// build and never mutated afterwards.
type SQLiteIndex struct {
	db       *sql.DB
	embedder string
	logger   *slog.Logger

	dimension int
	chunks    []domain.Chunk
	vectors   [][]float64
	ready     bool
}

// NewSQLiteIndex opens (creating if needed) the index database under dir.
// embedderName is recorded at build time and verified at load time so an
// index built with one model is never searched with another.
func NewSQLiteIndex(dir, embedderName string, logger *slog.Logger) (*SQLiteIndex, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create index directory %s: %w", dir, err)
	}
	dbPath := filepath.Join(dir, dbFileName)
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	idx := &SQLiteIndex{db: db, embedder: embedderName, logger: logger}
	if err := idx.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return idx, nil
}

func (x *SQLiteIndex) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		position  INTEGER PRIMARY KEY,
		content   TEXT NOT NULL,
		embedding BLOB NOT NULL
	);
	`
	_, err := x.db.Exec(schema)
	return err
}

// Plan probes the persisted state and decides build vs load.
func (x *SQLiteIndex) Plan(ctx context.Context) (domain.StartupPlan, error) {
	var count int
	err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count)
	if err != nil {
		return domain.NeedsBuild, err
	}
	if count > 0 {
		return domain.CanLoad, nil
	}
	return domain.NeedsBuild, nil
}

// Build persists a fresh set of entries and makes the index searchable.
func (x *SQLiteIndex) Build(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) == 0 {
		return &domain.IndexBuildError{Err: domain.ErrNoEntries}
	}
	if len(chunks) != len(vectors) {
		return &domain.IndexBuildError{Err: errors.New("chunks and vectors length mismatch")}
	}
	dim := len(vectors[0])
	if dim == 0 {
		return &domain.IndexBuildError{Err: errors.New("zero-dimensional vector")}
	}
	for _, v := range vectors {
		if len(v) != dim {
			return &domain.IndexBuildError{Err: errors.New("inconsistent vector dimensions")}
		}
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.IndexBuildError{Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return &domain.IndexBuildError{Err: err}
	}
	for i := range chunks {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entries (position, content, embedding) VALUES (?, ?, ?)`,
			chunks[i].Index, chunks[i].Text, encodeVector(vectors[i]),
		)
		if err != nil {
			return &domain.IndexBuildError{Err: err}
		}
	}
	for k, v := range map[string]string{
		"dimension": strconv.Itoa(dim),
		"embedder":  x.embedder,
	} {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v)
		if err != nil {
			return &domain.IndexBuildError{Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &domain.IndexBuildError{Err: err}
	}

	x.dimension = dim
	x.chunks = append([]domain.Chunk(nil), chunks...)
	x.vectors = vectors
	x.ready = true
	x.logger.Info("vector index built", "entries", len(chunks), "dimension", dim)
	return nil
}

// Load reconstructs the index from persisted state without re-embedding.
func (x *SQLiteIndex) Load(ctx context.Context) error {
	var dimStr string
	err := x.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'dimension'`).Scan(&dimStr)
	if err != nil {
		return &domain.IndexLoadError{Err: fmt.Errorf("missing dimension metadata: %w", err)}
	}
	dim, err := strconv.Atoi(dimStr)
	if err != nil || dim <= 0 {
		return &domain.IndexLoadError{Err: fmt.Errorf("invalid dimension metadata %q", dimStr)}
	}
	var embedder string
	if err := x.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'embedder'`).Scan(&embedder); err != nil {
		return &domain.IndexLoadError{Err: fmt.Errorf("missing embedder metadata: %w", err)}
	}
	if embedder != x.embedder {
		return &domain.IndexLoadError{Err: fmt.Errorf("index was built with embedder %q, configured embedder is %q", embedder, x.embedder)}
	}

	rows, err := x.db.QueryContext(ctx,
		`SELECT position, content, embedding FROM entries ORDER BY position`)
	if err != nil {
		return &domain.IndexLoadError{Err: err}
	}
	defer rows.Close()

	var chunks []domain.Chunk
	var vectors [][]float64
	for rows.Next() {
		var pos int
		var content string
		var blob []byte
		if err := rows.Scan(&pos, &content, &blob); err != nil {
			return &domain.IndexLoadError{Err: err}
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return &domain.IndexLoadError{Err: fmt.Errorf("entry %d: %w", pos, err)}
		}
		if len(vec) != dim {
			return &domain.IndexLoadError{Err: fmt.Errorf("entry %d: dimension %d, index dimension %d", pos, len(vec), dim)}
		}
		chunks = append(chunks, domain.Chunk{Text: content, Index: pos})
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return &domain.IndexLoadError{Err: err}
	}
	if len(chunks) == 0 {
		return &domain.IndexLoadError{Err: domain.ErrNoEntries}
	}

	x.dimension = dim
	x.chunks = chunks
	x.vectors = vectors
	x.ready = true
	x.logger.Info("vector index loaded", "entries", len(chunks), "dimension", dim)
	return nil
}

// Search returns up to topK entries ranked by cosine similarity, highest
// first. Ties keep original insertion order, so results are reproducible.
func (x *SQLiteIndex) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	if !x.ready {
		return nil, domain.ErrIndexNotReady
	}
	if topK < 1 {
		return nil, errors.New("topK must be >= 1")
	}
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("query vector dimension %d, index dimension %d", len(vector), x.dimension)
	}

	results := make([]domain.SearchResult, len(x.chunks))
	for i := range x.vectors {
		results[i] = domain.SearchResult{
			Chunk: x.chunks[i],
			Score: cosine(vector, x.vectors[i]),
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

// Size returns the number of indexed entries.
func (x *SQLiteIndex) Size() int { return len(x.chunks) }

func (x *SQLiteIndex) Close() error { return x.db.Close() }

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func encodeVector(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeVector(blob []byte) ([]float64, error) {
	if len(blob) == 0 || len(blob)%8 != 0 {
		return nil, fmt.Errorf("corrupt embedding blob of %d bytes", len(blob))
	}
	v := make([]float64, len(blob)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return v, nil
}
