package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/medex-ai/medex/internal/core/domain"
)

// ChunkRepository round-trips indexed chunks including their dense and sparse
// vectors. The vectors are stored as JSONB so the in-memory index can be
// rebuilt from the table without re-embedding.
type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) ReplaceForSource(ctx context.Context, sourceID string, chunks []domain.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE source_id = $1`, sourceID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	for i := range chunks {
		chunk := &chunks[i]
		embedding, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("marshal embedding: %w", err)
		}
		termIndices, err := json.Marshal(chunk.TermIndices)
		if err != nil {
			return fmt.Errorf("marshal term indices: %w", err)
		}
		termWeights, err := json.Marshal(chunk.TermWeights)
		if err != nil {
			return fmt.Errorf("marshal term weights: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO chunks (
	id, source_id, source_title, category, chunk_index, content,
	embedding, term_indices, term_weights,
	emergency_relevant, professional_only, token_count, indexed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
			chunk.ID, chunk.SourceID, chunk.SourceTitle, chunk.Category, chunk.ChunkIndex, chunk.Text,
			embedding, termIndices, termWeights,
			chunk.EmergencyRelevant, chunk.ProfessionalOnly, chunk.TokenCount, chunk.IndexedAt,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk tx: %w", err)
	}
	return nil
}

func (r *ChunkRepository) ListAll(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, source_id, source_title, category, chunk_index, content,
	embedding, term_indices, term_weights,
	emergency_relevant, professional_only, token_count, indexed_at
FROM chunks
ORDER BY source_id, chunk_index
`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		var embedding, termIndices, termWeights []byte

		err := rows.Scan(
			&chunk.ID, &chunk.SourceID, &chunk.SourceTitle, &chunk.Category, &chunk.ChunkIndex, &chunk.Text,
			&embedding, &termIndices, &termWeights,
			&chunk.EmergencyRelevant, &chunk.ProfessionalOnly, &chunk.TokenCount, &chunk.IndexedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}

		if err := json.Unmarshal(embedding, &chunk.Embedding); err != nil {
			return nil, fmt.Errorf("unmarshal embedding for %s: %w", chunk.ID, err)
		}
		if err := json.Unmarshal(termIndices, &chunk.TermIndices); err != nil {
			return nil, fmt.Errorf("unmarshal term indices for %s: %w", chunk.ID, err)
		}
		if err := json.Unmarshal(termWeights, &chunk.TermWeights); err != nil {
			return nil, fmt.Errorf("unmarshal term weights for %s: %w", chunk.ID, err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return chunks, nil
}
