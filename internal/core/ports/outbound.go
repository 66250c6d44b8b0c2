package ports

import (
	"context"
	"io"

	"github.com/medex-ai/medex/internal/core/domain"
)

// SourceRepository persists and reads corpus source state.
type SourceRepository interface {
	Create(ctx context.Context, src *domain.Source) error
	GetByID(ctx context.Context, id string) (*domain.Source, error)
	UpdateStatus(ctx context.Context, id string, status domain.SourceStatus, errMessage string) error
	SetChunkCount(ctx context.Context, id string, count int) error
}

// ChunkRepository round-trips indexed chunks losslessly so the in-memory
// index can be rebuilt on startup or after a reindex.
type ChunkRepository interface {
	ReplaceForSource(ctx context.Context, sourceID string, chunks []domain.Chunk) error
	ListAll(ctx context.Context) ([]domain.Chunk, error)
}

// ObjectStorage stores raw source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes corpus indexing events.
type MessageQueue interface {
	PublishSourceReceived(ctx context.Context, sourceID string) error
	SubscribeSourceReceived(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored source document.
type TextExtractor interface {
	Extract(ctx context.Context, src *domain.Source) (string, error)
}

// Chunker splits extracted text into indexable chunks and classifies each
// fragment for retrieval-time handling.
type Chunker interface {
	Split(text string) []string
	Tag(text string) domain.ChunkTags
}

// Embedder builds vectors for chunk and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Reranker scores (query, document) pairs jointly with a cross-encoder style
// model. Scores come back index-aligned with texts.
type Reranker interface {
	Rerank(ctx context.Context, query string, texts []string) ([]float64, error)
}

// QueryExpander rewrites a query into variant phrasings. The original query
// is always the first variant.
type QueryExpander interface {
	Expand(query string, maxExpansions int) []string
}

// ChunkIndex owns all indexed chunks. Replace publishes a complete new
// generation atomically; Acquire hands out an immutable read view that stays
// consistent for the lifetime of a request regardless of concurrent swaps.
type ChunkIndex interface {
	Replace(chunks []domain.Chunk)
	Acquire() ChunkIndexView
}

// ChunkIndexView is a point-in-time, read-only view over the corpus. The
// dense and sparse legs may be searched concurrently.
type ChunkIndexView interface {
	TotalChunks() int
	// SearchDense scores chunks by cosine similarity, taking per chunk the
	// maximum over all query vectors. Results are sorted descending.
	SearchDense(queryVectors [][]float32, limit int) []domain.ScoredChunk
	// SearchSparse scores chunks by term overlap against the deduplicated
	// token union of the query texts. Results are sorted descending.
	SearchSparse(queryTexts []string, limit int) []domain.ScoredChunk
}

// UserTypeClassifier and EmergencyClassifier are pure, synchronous and
// side-effect free; they always return a definite result.
type UserTypeClassifier interface {
	DetectUserType(query string) domain.DetectionResult
}

type EmergencyClassifier interface {
	DetectEmergency(query string) domain.EmergencyResult
}
