package ingestion_engine

import (
	"strings"
)

// Chunk is the chunker's output unit. StartChar/EndChar are byte offsets into
// the source text; Content is the window's text with surrounding whitespace
// trimmed, so it may be shorter than the window itself.
type Chunk struct {
	Content    string
	ChunkIndex int
	StartChar  int
	EndChar    int
}

// ChunkText splits text into an ordered sequence of bounded, overlapping
// chunks. It is pure and deterministic: identical (text, cfg) always yields
// identical output.
//
// The walk advances in fixed steps of chunkSize-overlap. A window that does
// not reach the end of the text gets its end snapped to a sentence terminator
// (". ") or newline found in the last 30% of the window, so chunks avoid
// splitting mid-sentence. Snapping never moves the end below the next
// window's start, so consecutive [StartChar, EndChar) windows always cover
// the text with no gaps.
//
// When the naive chunk count estimate exceeds MaxChunks, the step is rescaled
// to ceil(len/MaxChunks) with a proportional overlap, which keeps the final
// count at or below MaxChunks for any input size.
func ChunkText(text string, cfg ChunkConfig) ([]Chunk, error) {
	chunkSize := cfg.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	overlap := cfg.Overlap
	if overlap == 0 && cfg.ChunkSize == 0 {
		overlap = DefaultOverlap
	}
	if chunkSize <= 0 {
		return nil, &ChunkingError{Reason: "chunk size must be positive"}
	}
	if overlap < 0 {
		return nil, &ChunkingError{Reason: "overlap must not be negative"}
	}
	if overlap >= chunkSize {
		return nil, &ChunkingError{Reason: "overlap must be smaller than chunk size"}
	}

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	n := len(text)

	// Input shorter than one window: a single chunk spanning the whole text.
	if n <= chunkSize {
		return []Chunk{{
			Content:    strings.TrimSpace(text),
			ChunkIndex: 0,
			StartChar:  0,
			EndChar:    n,
		}}, nil
	}

	advance := chunkSize - overlap

	// Auto-scale so the chunk count never materially exceeds MaxChunks.
	if estimate := ceilDiv(n, advance); estimate > MaxChunks {
		advance = ceilDiv(n, MaxChunks)
		overlap = min(500, advance*15/100)
		chunkSize = advance + overlap
	}

	var chunks []Chunk
	index := 0
	for start := 0; start < n; start += advance {
		end := start + chunkSize
		if end > n {
			end = n
		} else if end < n {
			end = snapToBoundary(text, start, end, advance)
		}

		content := strings.TrimSpace(text[start:end])
		if content == "" {
			// Whitespace-only windows are dropped and get no index.
			continue
		}
		chunks = append(chunks, Chunk{
			Content:    content,
			ChunkIndex: index,
			StartChar:  start,
			EndChar:    end,
		})
		index++
	}
	return chunks, nil
}

// snapToBoundary moves end back to just after the last sentence terminator or
// newline in the tail of the window, when one exists. The search floor is the
// later of the window's last 30% and start+advance; the second bound keeps
// the snapped end at or past the next window's start.
func snapToBoundary(text string, start, end, advance int) int {
	window := end - start
	floor := start + window*7/10
	if floor < start+advance {
		floor = start + advance
	}
	if floor >= end {
		return end
	}

	tail := text[floor:end]
	if i := strings.LastIndex(tail, ". "); i >= 0 {
		return floor + i + 2
	}
	if i := strings.LastIndex(tail, "\n"); i >= 0 {
		return floor + i + 1
	}
	return end
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
