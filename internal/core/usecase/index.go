package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medex-ai/medex/internal/core/domain"
	"github.com/medex-ai/medex/internal/core/ports"
)

// SparseEncoder turns chunk text into the hashed term representation the
// sparse leg searches over.
type SparseEncoder func(text, title string) (indices []uint32, weights []float32)

// IndexSourceUseCase runs the corpus side of the pipeline: extract, split,
// tag, embed, encode, persist, and finally republish the whole in-memory
// index so queries see the new source atomically.
type IndexSourceUseCase struct {
	repo      ports.SourceRepository
	chunkRepo ports.ChunkRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	index     ports.ChunkIndex
	encode    SparseEncoder
}

func NewIndexSourceUseCase(
	repo ports.SourceRepository,
	chunkRepo ports.ChunkRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.ChunkIndex,
	encode SparseEncoder,
) *IndexSourceUseCase {
	return &IndexSourceUseCase{
		repo:      repo,
		chunkRepo: chunkRepo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		encode:    encode,
	}
}

func (uc *IndexSourceUseCase) IndexByID(ctx context.Context, sourceID string) error {
	if err := uc.repo.UpdateStatus(ctx, sourceID, domain.SourceIndexing, ""); err != nil {
		return fmt.Errorf("set status=indexing: %w", err)
	}

	count, err := uc.indexPipeline(ctx, sourceID)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, sourceID, domain.SourceFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SetChunkCount(ctx, sourceID, count); err != nil {
		return fmt.Errorf("save chunk count: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, sourceID, domain.SourceIndexed, ""); err != nil {
		return fmt.Errorf("set status=indexed: %w", err)
	}

	// Republish the full corpus so the swap is atomic for readers.
	if _, err := uc.Reload(ctx); err != nil {
		return fmt.Errorf("reload index: %w", err)
	}
	return nil
}

func (uc *IndexSourceUseCase) indexPipeline(ctx context.Context, sourceID string) (int, error) {
	src, err := uc.repo.GetByID(ctx, sourceID)
	if err != nil {
		return 0, fmt.Errorf("fetch source by id: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, src)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	fragments := uc.chunker.Split(text)
	if len(fragments) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "split source", errors.New("splitting produced zero chunks"))
	}

	vectors, err := uc.embedder.Embed(ctx, fragments)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(fragments) {
		return 0, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(fragments)),
		)
	}

	chunks := uc.buildChunks(src, fragments, vectors)
	if err := uc.chunkRepo.ReplaceForSource(ctx, src.ID, chunks); err != nil {
		return 0, fmt.Errorf("persist chunks: %w", err)
	}
	return len(chunks), nil
}

func (uc *IndexSourceUseCase) buildChunks(src *domain.Source, fragments []string, vectors [][]float32) []domain.Chunk {
	now := time.Now().UTC()
	chunks := make([]domain.Chunk, 0, len(fragments))
	for i, fragment := range fragments {
		tags := uc.chunker.Tag(fragment)
		indices, weights := uc.encode(fragment, src.Title)
		chunks = append(chunks, domain.Chunk{
			ID:                fmt.Sprintf("%s:%d", src.ID, i),
			SourceID:          src.ID,
			SourceTitle:       src.Title,
			Category:          src.Category,
			ChunkIndex:        i,
			Text:              fragment,
			Embedding:         vectors[i],
			TermIndices:       indices,
			TermWeights:       weights,
			EmergencyRelevant: tags.EmergencyRelevant,
			ProfessionalOnly:  tags.ProfessionalOnly,
			TokenCount:        countWords(fragment),
			IndexedAt:         now,
		})
	}
	return chunks
}

// Reload rebuilds the in-memory index from persisted chunks and returns the
// published chunk count. Used at startup and after each source indexing run.
func (uc *IndexSourceUseCase) Reload(ctx context.Context) (int, error) {
	chunks, err := uc.chunkRepo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list chunks: %w", err)
	}
	uc.index.Replace(chunks)
	return len(chunks), nil
}

func countWords(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\n' || r == '\t' || r == '\r':
			inWord = false
		case !inWord:
			inWord = true
			count++
		}
	}
	return count
}
