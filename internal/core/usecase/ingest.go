package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medex-ai/medex/internal/core/domain"
	"github.com/medex-ai/medex/internal/core/ports"
)

// IngestSourceUseCase accepts corpus documents from the knowledge-base
// collaborator: raw bytes go to object storage, metadata to the repository,
// and an indexing event to the queue.
type IngestSourceUseCase struct {
	repo    ports.SourceRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestSourceUseCase(
	repo ports.SourceRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestSourceUseCase {
	return &IngestSourceUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestSourceUseCase) Upload(
	ctx context.Context,
	title, filename, mimeType, category string,
	body io.Reader,
) (*domain.Source, error) {
	if strings.TrimSpace(title) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload source", errors.New("empty title"))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	src := &domain.Source{
		ID:          id,
		Title:       title,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Category:    category,
		Status:      domain.SourceReceived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, src); err != nil {
		return nil, fmt.Errorf("create source metadata: %w", err)
	}

	if err := uc.queue.PublishSourceReceived(ctx, src.ID); err != nil {
		return nil, fmt.Errorf("publish indexing event: %w", err)
	}

	return src, nil
}

// GetByID exposes the read model for status polling.
func (uc *IngestSourceUseCase) GetByID(ctx context.Context, id string) (*domain.Source, error) {
	src, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch source by id: %w", err)
	}
	return src, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "source.bin"
	}
	return base
}
