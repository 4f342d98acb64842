package ingestion_engine

import "time"

const (
	// DefaultChunkSize and DefaultOverlap are in characters.
	DefaultChunkSize = 2000
	DefaultOverlap   = 300

	// MaxChunks is the hard ceiling on chunks per document. When the naive
	// estimate exceeds it, chunk size is scaled up so the count stays bounded
	// regardless of input size.
	MaxChunks = 5000

	// MinTextLength is the shortest extracted text considered usable.
	MinTextLength = 10

	// SubBatchSize is the number of chunks embedded per provider call.
	SubBatchSize = 50

	// DefaultMaxBatches caps sub-batches per invocation (5 * 50 = at most 250
	// chunks per call), keeping each call inside the execution budget.
	DefaultMaxBatches = 5

	// MaxEmbedRetries is the number of extra attempts after a failed provider
	// call, with linearly increasing backoff.
	MaxEmbedRetries = 2

	DefaultRetryBaseDelay = time.Second
)

// ChunkConfig tunes the chunker. Zero values fall back to the defaults above.
type ChunkConfig struct {
	ChunkSize int
	Overlap   int
}

// PipelineConfig tunes both pipeline stages.
//
// SubBatchSize:    chunks per embedding provider call.
// MaxBatches:      sub-batches per invocation; the knob that bounds how much
//                  wall-clock time one call spends. Tune it below the caller's
//                  own deadline with margin for provider latency.
// MaxEmbedRetries: extra attempts per sub-batch after the first failure.
// RetryBaseDelay:  backoff unit; the n-th retry waits n * RetryBaseDelay.
type PipelineConfig struct {
	Chunk           ChunkConfig
	SubBatchSize    int
	MaxBatches      int
	MaxEmbedRetries int
	RetryBaseDelay  time.Duration
}

// DefaultPipelineConfig returns the reference tuning.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Chunk:           ChunkConfig{ChunkSize: DefaultChunkSize, Overlap: DefaultOverlap},
		SubBatchSize:    SubBatchSize,
		MaxBatches:      DefaultMaxBatches,
		MaxEmbedRetries: MaxEmbedRetries,
		RetryBaseDelay:  DefaultRetryBaseDelay,
	}
}

func (c *PipelineConfig) withDefaults() *PipelineConfig {
	out := DefaultPipelineConfig()
	if c == nil {
		return out
	}
	if c.Chunk.ChunkSize > 0 {
		out.Chunk.ChunkSize = c.Chunk.ChunkSize
	}
	if c.Chunk.Overlap > 0 {
		out.Chunk.Overlap = c.Chunk.Overlap
	}
	if c.SubBatchSize > 0 {
		out.SubBatchSize = c.SubBatchSize
	}
	if c.MaxBatches > 0 {
		out.MaxBatches = c.MaxBatches
	}
	if c.MaxEmbedRetries > 0 {
		out.MaxEmbedRetries = c.MaxEmbedRetries
	}
	if c.RetryBaseDelay > 0 {
		out.RetryBaseDelay = c.RetryBaseDelay
	}
	return out
}
