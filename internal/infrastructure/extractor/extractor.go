// Package extractor routes a source to the text extractor matching its
// mime type, falling back to the filename extension.
package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/medex-ai/medex/internal/core/domain"
	"github.com/medex-ai/medex/internal/core/ports"
)

// Selector dispatches between format-specific extractors.
type Selector struct {
	plain       ports.TextExtractor
	pdf         ports.TextExtractor
	spreadsheet ports.TextExtractor
}

func NewSelector(plain, pdf, spreadsheet ports.TextExtractor) *Selector {
	return &Selector{plain: plain, pdf: pdf, spreadsheet: spreadsheet}
}

func (s *Selector) Extract(ctx context.Context, src *domain.Source) (string, error) {
	extractor, err := s.pick(src)
	if err != nil {
		return "", err
	}
	return extractor.Extract(ctx, src)
}

func (s *Selector) pick(src *domain.Source) (ports.TextExtractor, error) {
	mime := strings.ToLower(strings.TrimSpace(src.MimeType))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	switch mime {
	case "application/pdf":
		return s.pdf, nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return s.spreadsheet, nil
	case "text/plain", "text/markdown":
		return s.plain, nil
	}

	switch strings.ToLower(filepath.Ext(src.Filename)) {
	case ".pdf":
		return s.pdf, nil
	case ".xlsx":
		return s.spreadsheet, nil
	case ".txt", ".md", ".text", "":
		return s.plain, nil
	}
	return nil, domain.WrapError(domain.ErrInvalidInput, "extractor select",
		fmt.Errorf("unsupported format: mime=%q filename=%q", src.MimeType, src.Filename))
}
