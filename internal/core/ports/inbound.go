package ports

import (
	"context"
	"io"

	"github.com/medex-ai/medex/internal/core/domain"
)

// QueryRequest carries one retrieval request through the pipeline. Hints let
// an upstream caller that already classified the query skip reclassification;
// an explicit emergency hint is never contradicted.
type QueryRequest struct {
	Text          string
	TopK          int
	UserTypeHint  *domain.UserType
	EmergencyHint *bool
}

// QueryService is the inbound contract for retrieval-augmented context
// building.
type QueryService interface {
	ProcessQuery(ctx context.Context, req QueryRequest) (*domain.RAGContext, error)
}

// SourceIngestor is the inbound contract for corpus source upload.
type SourceIngestor interface {
	Upload(ctx context.Context, title, filename, mimeType, category string, body io.Reader) (*domain.Source, error)
}

// SourceIndexer is the inbound contract for asynchronous source indexing.
type SourceIndexer interface {
	IndexByID(ctx context.Context, sourceID string) error
	// Reload rebuilds the in-memory index from persisted chunks.
	Reload(ctx context.Context) (int, error)
}

// SourceReader is the inbound read model for source metadata/state.
type SourceReader interface {
	GetByID(ctx context.Context, id string) (*domain.Source, error)
}
