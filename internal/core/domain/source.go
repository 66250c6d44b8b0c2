package domain

import "time"

type SourceStatus string

const (
	SourceReceived SourceStatus = "received"
	SourceIndexing SourceStatus = "indexing"
	SourceIndexed  SourceStatus = "indexed"
	SourceFailed   SourceStatus = "failed"
)

// Source is a corpus document as delivered by the knowledge-base collaborator.
// Chunking, embedding and sparse indexing happen downstream; the source record
// tracks the lifecycle of that work.
type Source struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Filename    string       `json:"filename"`
	MimeType    string       `json:"mime_type"`
	StoragePath string       `json:"storage_path"`
	Category    string       `json:"category"`
	Status      SourceStatus `json:"status"`
	ChunkCount  int          `json:"chunk_count"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
