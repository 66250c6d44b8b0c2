package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/medex-ai/medex/internal/core/domain"
)

type namedExtractor struct {
	name string
}

func (n *namedExtractor) Extract(_ context.Context, _ *domain.Source) (string, error) {
	return n.name, nil
}

func newTestSelector() *Selector {
	return NewSelector(
		&namedExtractor{name: "plain"},
		&namedExtractor{name: "pdf"},
		&namedExtractor{name: "spreadsheet"},
	)
}

func TestSelectorRoutesByMimeAndExtension(t *testing.T) {
	cases := []struct {
		name     string
		mime     string
		filename string
		want     string
	}{
		{"pdf mime", "application/pdf", "x.bin", "pdf"},
		{"xlsx mime", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "dosis.bin", "spreadsheet"},
		{"plain mime", "text/plain", "guia.dat", "plain"},
		{"mime with charset", "text/plain; charset=utf-8", "guia.dat", "plain"},
		{"pdf extension fallback", "application/octet-stream", "protocolo.PDF", "pdf"},
		{"xlsx extension fallback", "", "triage.xlsx", "spreadsheet"},
		{"markdown extension", "", "notas.md", "plain"},
		{"no extension defaults to plain", "", "README", "plain"},
	}

	sel := newTestSelector()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sel.Extract(context.Background(), &domain.Source{MimeType: tc.mime, Filename: tc.filename})
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got != tc.want {
				t.Fatalf("routed to %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSelectorRejectsUnknownFormat(t *testing.T) {
	sel := newTestSelector()
	_, err := sel.Extract(context.Background(), &domain.Source{MimeType: "image/png", Filename: "scan.png"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}
