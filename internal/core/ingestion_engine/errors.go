package ingestion_engine

import (
	"fmt"
)

// ExtractionError means the source file decoded to no usable text. It is a
// terminal, single-attempt outcome; callers wanting a retry must resubmit the
// document from scratch.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// UnsupportedFormatError is returned for any file type outside the accepted
// set (pdf, docx, txt).
type UnsupportedFormatError struct {
	FileType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %q", e.FileType)
}

// ChunkingError rejects malformed chunker configuration. The chunker itself
// is pure and does not fail on well-formed text.
type ChunkingError struct {
	Reason string
}

func (e *ChunkingError) Error() string { return "chunking: " + e.Reason }

// ProviderError wraps a transient embedding provider failure that survived
// all retry attempts.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return "embedding provider: " + e.Err.Error() }

func (e *ProviderError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed StatusStore write. It is surfaced
// immediately since it implies a potential gap between computed and recorded
// state.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Stage2Error carries enough context for a caller to decide whether retrying
// is safe: the document, how many chunks this invocation did embed and
// commit before failing, and the underlying cause. EmbeddedCount > 0 means
// the document was left retryable, not failed.
type Stage2Error struct {
	DocumentID    string
	EmbeddedCount int
	Err           error
}

func (e *Stage2Error) Error() string {
	return fmt.Sprintf("embedding stage for document %s (embedded %d before failing): %v",
		e.DocumentID, e.EmbeddedCount, e.Err)
}

func (e *Stage2Error) Unwrap() error { return e.Err }
