package ingestion_engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Ingesta/internal/models"
)

func TestExtractPlainText(t *testing.T) {
	e := NewDocconvExtractor()

	res, err := e.Extract([]byte("  The pipeline turns documents into chunks.\n"), models.FileTypeTXT)
	require.NoError(t, err)

	assert.Equal(t, "The pipeline turns documents into chunks.", res.Text)
	assert.Equal(t, 6, res.WordCount)
	assert.Nil(t, res.PageCount)
}

func TestExtractPlainTextSanitizesEncoding(t *testing.T) {
	e := NewDocconvExtractor()

	data := append([]byte("valid text with a broken byte "), 0xff)
	data = append(data, []byte(" and a usable tail")...)

	res, err := e.Extract(data, models.FileTypeTXT)
	require.NoError(t, err)
	assert.NotContains(t, res.Text, "�")
}

func TestExtractTooShortFails(t *testing.T) {
	e := NewDocconvExtractor()

	_, err := e.Extract([]byte("hi"), models.FileTypeTXT)
	require.Error(t, err)

	var exErr *ExtractionError
	assert.ErrorAs(t, err, &exErr)

	// Whitespace padding does not rescue a too-short file.
	_, err = e.Extract([]byte("tiny"+strings.Repeat(" ", 50)), models.FileTypeTXT)
	assert.ErrorAs(t, err, &exErr)
}

func TestExtractUnsupportedFormat(t *testing.T) {
	e := NewDocconvExtractor()

	_, err := e.Extract([]byte("irrelevant"), "epub")
	require.Error(t, err)

	var ufErr *UnsupportedFormatError
	require.ErrorAs(t, err, &ufErr)
	assert.Equal(t, "epub", ufErr.FileType)
}
