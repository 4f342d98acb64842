package ingestion_engine

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/Ingesta/internal/core"
	"github.com/markdave123-py/Ingesta/internal/models"
)

var _ core.TextExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor implements core.TextExtractor using sajari/docconv for the
// binary formats and a direct decode for plain text.
type DocconvExtractor struct{}

func NewDocconvExtractor() *DocconvExtractor {
	return &DocconvExtractor{}
}

// Extract dispatches on fileType; each format has an independent decoding
// path. Text shorter than MinTextLength after trimming counts as "this file
// produced no usable content" and fails with ExtractionError.
func (e *DocconvExtractor) Extract(data []byte, fileType string) (*core.ExtractResult, error) {
	var (
		text      string
		pageCount *int
		err       error
	)

	switch fileType {
	case models.FileTypePDF:
		text, pageCount, err = e.extractPDF(data)
	case models.FileTypeDOCX:
		text, err = e.extractDOCX(data)
	case models.FileTypeTXT:
		text = sanitizeUTF8(string(data))
	default:
		return nil, &UnsupportedFormatError{FileType: fileType}
	}
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if len(text) < MinTextLength {
		return nil, &ExtractionError{Reason: "decoded text is empty or too short to be usable"}
	}

	return &core.ExtractResult{
		Text:      text,
		WordCount: len(strings.Fields(text)),
		PageCount: pageCount,
	}, nil
}

func (e *DocconvExtractor) extractPDF(data []byte) (string, *int, error) {
	res, err := docconv.Convert(bytes.NewReader(data), "application/pdf", false)
	if err != nil {
		return "", nil, &ExtractionError{Reason: "pdf decode", Err: err}
	}
	// pdftotext separates pages with form feeds.
	pages := strings.Count(res.Body, "\f") + 1
	return res.Body, &pages, nil
}

func (e *DocconvExtractor) extractDOCX(data []byte) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data),
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document", false)
	if err != nil {
		return "", &ExtractionError{Reason: "docx decode", Err: err}
	}
	return res.Body, nil
}

// sanitizeUTF8 drops invalid byte sequences so downstream storage never sees
// broken encodings.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(s[i:])
			if size == 1 {
				continue
			}
		}
		v = append(v, r)
	}
	return string(v)
}
