package plaintext

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/medex-ai/medex/internal/core/domain"
)

type stubStorage struct {
	data map[string]string
}

func (s *stubStorage) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.data[key] = string(raw)
	return nil
}

func (s *stubStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := s.data[key]
	if !ok {
		return nil, errors.New("missing key")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestExtractTrimsWhitespace(t *testing.T) {
	storage := &stubStorage{data: map[string]string{
		"src-1_guia.txt": "\n  Administrar 500 mg cada 8 horas.  \n",
	}}
	ex := NewExtractor(storage)

	text, err := ex.Extract(context.Background(), &domain.Source{StoragePath: "src-1_guia.txt"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "Administrar 500 mg cada 8 horas." {
		t.Fatalf("text = %q", text)
	}
}

func TestExtractRejectsBinaryData(t *testing.T) {
	storage := &stubStorage{data: map[string]string{
		"src-1_raw.bin": string([]byte{0xff, 0xfe, 0x00, 0x80}),
	}}
	ex := NewExtractor(storage)

	_, err := ex.Extract(context.Background(), &domain.Source{StoragePath: "src-1_raw.bin", Filename: "raw.bin"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestExtractMissingObjectFails(t *testing.T) {
	ex := NewExtractor(&stubStorage{data: map[string]string{}})
	if _, err := ex.Extract(context.Background(), &domain.Source{StoragePath: "nope"}); err == nil {
		t.Fatalf("expected error")
	}
}
