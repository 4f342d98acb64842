package core

// ExtractResult is the output of text extraction: the plain text plus basic
// statistics about the source file.
type ExtractResult struct {
	Text      string
	WordCount int
	PageCount *int // nil when the format has no page concept (e.g. txt)
}

// TextExtractor converts raw file bytes of a known format into plain text.
type TextExtractor interface {
	// Extract decodes data according to fileType ("pdf", "docx", "txt").
	// Extraction is a single-attempt operation; callers wanting a retry must
	// resubmit explicitly.
	Extract(data []byte, fileType string) (*ExtractResult, error)
}
