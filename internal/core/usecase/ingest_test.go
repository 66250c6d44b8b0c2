package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medex-ai/medex/internal/core/domain"
)

func TestUploadHappyPath(t *testing.T) {
	repo := newMemSourceRepo()
	storage := newMemStorage()
	queue := &memQueue{}
	uc := NewIngestSourceUseCase(repo, storage, queue)

	src, err := uc.Upload(context.Background(), "Guía de cardiología", "guia cardio.pdf", "application/pdf", "cardiology", strings.NewReader("contenido"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if src.ID == "" || src.Status != domain.SourceReceived {
		t.Errorf("source = %+v", src)
	}
	if src.Category != "cardiology" || src.Title != "Guía de cardiología" {
		t.Errorf("metadata lost: %+v", src)
	}
	if len(storage.saved) != 1 {
		t.Errorf("storage writes = %d", len(storage.saved))
	}
	if strings.Contains(src.StoragePath, " ") {
		t.Errorf("storage key not sanitized: %q", src.StoragePath)
	}
	if len(queue.published) != 1 || queue.published[0] != src.ID {
		t.Errorf("published = %v", queue.published)
	}
	if _, ok := repo.sources[src.ID]; !ok {
		t.Error("source record not created")
	}
}

func TestUploadRejectsEmptyTitle(t *testing.T) {
	uc := NewIngestSourceUseCase(newMemSourceRepo(), newMemStorage(), &memQueue{})

	_, err := uc.Upload(context.Background(), "  ", "f.txt", "text/plain", "general", strings.NewReader("x"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestUploadStorageFailureStopsPipeline(t *testing.T) {
	repo := newMemSourceRepo()
	storage := newMemStorage()
	storage.err = errors.New("disk full")
	queue := &memQueue{}
	uc := NewIngestSourceUseCase(repo, storage, queue)

	_, err := uc.Upload(context.Background(), "Título", "f.txt", "text/plain", "general", strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(repo.sources) != 0 || len(queue.published) != 0 {
		t.Error("pipeline continued after storage failure")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"mi guía (v2).pdf": "mi_gu_a__v2_.pdf",
		"../../etc/passwd": "passwd",
		"":                 "source.bin",
		"simple.txt":       "simple.txt",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
