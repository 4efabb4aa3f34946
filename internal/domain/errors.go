package domain

import "errors"

// Sentinel failures shared across components.
var (
	// ErrDocumentEmpty marks a source document with no usable content.
	ErrDocumentEmpty = errors.New("document is empty")
	// ErrNoEntries marks an attempt to build an index from zero entries.
	ErrNoEntries = errors.New("no entries to index")
	// ErrIndexNotReady marks a search against an index that was neither
	// built nor loaded. Unreachable if initialization succeeded.
	ErrIndexNotReady = errors.New("vector index not initialized")
)

// SetupError is fatal: initialization failed and the system never
// reaches a ready state.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string { return "setup failed: " + e.Err.Error() }
func (e *SetupError) Unwrap() error { return e.Err }

// IndexBuildError reports a failure while building a fresh index.
type IndexBuildError struct {
	Err error
}

func (e *IndexBuildError) Error() string { return "index build: " + e.Err.Error() }
func (e *IndexBuildError) Unwrap() error { return e.Err }

// IndexLoadError reports persisted index state that exists but cannot be
// reconstructed: corrupt rows, or a dimensionality/embedder mismatch
// against the configured embedding provider.
type IndexLoadError struct {
	Err error
}

func (e *IndexLoadError) Error() string { return "index load: " + e.Err.Error() }
func (e *IndexLoadError) Unwrap() error { return e.Err }

// RetrievalError reports a per-question failure before synthesis:
// embedding the question or searching the index.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string { return "retrieval: " + e.Err.Error() }
func (e *RetrievalError) Unwrap() error { return e.Err }

// SynthesisError reports a failed generation call for one question. It is
// recovered at the interaction boundary; the session continues.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return "synthesis: " + e.Err.Error() }
func (e *SynthesisError) Unwrap() error { return e.Err }
