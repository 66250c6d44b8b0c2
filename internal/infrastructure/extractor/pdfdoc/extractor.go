// Package pdfdoc extracts plain text from PDF sources. The pdf library reads
// from files, so the stored object is spooled to a temp file first.
package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/medex-ai/medex/internal/core/domain"
	"github.com/medex-ai/medex/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, src *domain.Source) (string, error) {
	reader, err := e.storage.Open(ctx, src.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer reader.Close()

	tmp, err := os.CreateTemp("", "extract-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp pdf: %w", err)
	}
	defer func() {
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, reader); err != nil {
		return "", fmt.Errorf("spool pdf: %w", err)
	}

	f, rdr, err := pdf.Open(tmp.Name())
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "pdf extract",
			fmt.Errorf("open %s: %w", src.Filename, err))
	}
	defer f.Close()

	body, err := rdr.GetPlainText()
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "pdf extract",
			fmt.Errorf("read %s: %w", src.Filename, err))
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", fmt.Errorf("buffer pdf text: %w", err)
	}
	return buf.String(), nil
}
