package domain

import "time"

// Chunk is the atomic unit of retrieval: a bounded span of corpus text plus
// its dense and sparse representations. Chunks are immutable after indexing
// and owned exclusively by the chunk index; a reindex replaces them wholesale.
type Chunk struct {
	ID                string    `json:"id"`
	SourceID          string    `json:"source_id"`
	SourceTitle       string    `json:"source_title"`
	Category          string    `json:"category"`
	ChunkIndex        int       `json:"chunk_index"`
	Text              string    `json:"text"`
	Embedding         []float32 `json:"embedding"`
	TermIndices       []uint32  `json:"term_indices"`
	TermWeights       []float32 `json:"term_weights"`
	EmergencyRelevant bool      `json:"emergency_relevant"`
	ProfessionalOnly  bool      `json:"professional_only"`
	TokenCount        int       `json:"token_count"`
	IndexedAt         time.Time `json:"indexed_at"`
}

// ChunkTags are content flags assigned at indexing time.
type ChunkTags struct {
	EmergencyRelevant bool
	ProfessionalOnly  bool
}

// ScoredChunk is a per-query, non-owning view of a chunk with the scores each
// retrieval stage assigned to it. FusedScore derives from the two leg ranks via
// reciprocal rank fusion; RerankScore, when set, supersedes it for ordering.
type ScoredChunk struct {
	Chunk *Chunk `json:"chunk"`

	DenseScore  float64 `json:"dense_score"`
	SparseScore float64 `json:"sparse_score"`
	FusedScore  float64 `json:"fused_score"`
	RerankScore float64 `json:"rerank_score"`
	Reranked    bool    `json:"reranked"`

	Rank int `json:"rank"`
}

// Citation points back at the source a result came from.
type Citation struct {
	Number         int     `json:"number"`
	Title          string  `json:"title"`
	Category       string  `json:"category"`
	SourceID       string  `json:"source_id"`
	ChunkID        string  `json:"chunk_id"`
	Relevance      float64 `json:"relevance"`
	EmergencyFlag  bool    `json:"emergency"`
	ContentPreview string  `json:"content_preview"`
}

// RAGContext is the unit of work product handed to the response pipeline.
type RAGContext struct {
	Query               string        `json:"query"`
	Results             []ScoredChunk `json:"results"`
	UserType            UserType      `json:"user_type"`
	IsEmergency         bool          `json:"is_emergency"`
	FormattedContext    string        `json:"formatted_context"`
	Citations           []Citation    `json:"citations"`
	TotalChunksSearched int           `json:"total_chunks_searched"`
	Elapsed             time.Duration `json:"elapsed_ns"`

	// DegradedStages lists pipeline stages that fell back to a reduced mode
	// (e.g. sparse-only retrieval, rerank skipped). Empty on the happy path.
	DegradedStages []string `json:"degraded_stages,omitempty"`
}
