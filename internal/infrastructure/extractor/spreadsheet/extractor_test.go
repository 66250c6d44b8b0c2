package spreadsheet

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/medex-ai/medex/internal/core/domain"
)

type stubStorage struct {
	data map[string][]byte
}

func (s *stubStorage) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.data[key] = raw
	return nil
}

func (s *stubStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := s.data[key]
	if !ok {
		return nil, errors.New("missing key")
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func workbookBytes(t *testing.T, rows map[string][][]string) []byte {
	t.Helper()
	book := excelize.NewFile()
	first := true
	for sheet, sheetRows := range rows {
		if first {
			if err := book.SetSheetName("Sheet1", sheet); err != nil {
				t.Fatalf("SetSheetName: %v", err)
			}
			first = false
		} else if _, err := book.NewSheet(sheet); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
		for i, row := range sheetRows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			cells := make([]interface{}, len(row))
			for j, v := range row {
				cells[j] = v
			}
			if err := book.SetSheetRow(sheet, cell, &cells); err != nil {
				t.Fatalf("SetSheetRow: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.Bytes()
}

func TestExtractJoinsRowsWithSheetHeader(t *testing.T) {
	raw := workbookBytes(t, map[string][][]string{
		"Dosis": {
			{"Fármaco", "Dosis", "Intervalo"},
			{"Amoxicilina", "500 mg", "8 h"},
			{"", "", ""},
		},
	})
	storage := &stubStorage{data: map[string][]byte{"src-1_dosis.xlsx": raw}}
	ex := NewExtractor(storage)

	text, err := ex.Extract(context.Background(), &domain.Source{StoragePath: "src-1_dosis.xlsx"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.HasPrefix(text, "Dosis:\n") {
		t.Fatalf("text missing sheet header: %q", text)
	}
	if !strings.Contains(text, "Amoxicilina | 500 mg | 8 h") {
		t.Fatalf("text missing joined row: %q", text)
	}
	if strings.Contains(text, "| |") || strings.HasSuffix(text, "\n") {
		t.Fatalf("blank rows or trailing whitespace leaked: %q", text)
	}
}

func TestExtractRejectsNonWorkbook(t *testing.T) {
	storage := &stubStorage{data: map[string][]byte{
		"src-1_plano.xlsx": []byte("esto no es un libro de excel"),
	}}
	ex := NewExtractor(storage)

	_, err := ex.Extract(context.Background(), &domain.Source{StoragePath: "src-1_plano.xlsx", Filename: "plano.xlsx"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestExtractMissingObjectFails(t *testing.T) {
	ex := NewExtractor(&stubStorage{data: map[string][]byte{}})
	if _, err := ex.Extract(context.Background(), &domain.Source{StoragePath: "nope"}); err == nil {
		t.Fatalf("expected error")
	}
}
