package chunking

import (
	"strings"
	"testing"
)

func TestSplitEmpty(t *testing.T) {
	s := NewSplitter(512, 64, 100)
	if got := s.Split("   "); got != nil {
		t.Fatalf("Split(blank) = %v, want nil", got)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(512, 64, 100)
	text := "La diabetes mellitus es una enfermedad metabólica crónica."
	got := s.Split(text)
	if len(got) != 1 {
		t.Fatalf("Split = %d chunks, want 1", len(got))
	}
	if got[0] != text {
		t.Errorf("chunk = %q, want original text", got[0])
	}
}

func TestSplitStartsNewSectionAtMedicalHeading(t *testing.T) {
	s := NewSplitter(512, 64, 100)
	text := "La angina es dolor torácico por isquemia. El reposo suele aliviarla. " +
		"Signos de emergencia: dolor que no cede, diaforesis y disnea. Acudir a urgencias de inmediato."
	got := s.Split(text)
	if len(got) != 2 {
		t.Fatalf("Split = %d chunks, want 2: %q", len(got), got)
	}
	if !strings.HasPrefix(got[1], "Signos de emergencia:") {
		t.Errorf("second chunk does not start at the heading: %q", got[1])
	}
}

func TestSplitLargeSectionUsesWordWindow(t *testing.T) {
	s := NewSplitter(50, 10, 10)
	words := make([]string, 130)
	for i := range words {
		words[i] = "palabra"
	}
	got := s.Split(strings.Join(words, " "))
	if len(got) < 3 {
		t.Fatalf("Split = %d chunks, want windowed output: %v", len(got), got)
	}
	for i, c := range got {
		n := len(strings.Fields(c))
		if n > 50 {
			t.Errorf("chunk %d has %d words, over the limit", i, n)
		}
	}
}

func TestSplitOverlapRepeatsWords(t *testing.T) {
	s := NewSplitter(50, 10, 10)
	words := make([]string, 100)
	for i := range words {
		words[i] = "w" + strings.Repeat("x", i%7)
	}
	got := s.Split(strings.Join(words, " "))
	if len(got) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(got))
	}
	first := strings.Fields(got[0])
	second := strings.Fields(got[1])
	if first[40] != second[0] {
		t.Errorf("overlap broken: first[40]=%q second[0]=%q", first[40], second[0])
	}
}

func TestTagEmergencyContent(t *testing.T) {
	s := NewSplitter(512, 64, 100)

	tags := s.Tag("En caso de shock anafiláctico la atención es urgente y vital.")
	if !tags.EmergencyRelevant {
		t.Error("emergency content not tagged")
	}

	tags = s.Tag("La vitamina C se encuentra en los cítricos.")
	if tags.EmergencyRelevant {
		t.Error("neutral content tagged as emergency")
	}
}

func TestTagProfessionalContent(t *testing.T) {
	s := NewSplitter(512, 64, 100)

	tags := s.Tag("Dosis: 15 mg/kg cada 8 horas según protocolo institucional.")
	if !tags.ProfessionalOnly {
		t.Error("clinical dosing content not tagged professional")
	}

	tags = s.Tag("Beber suficiente agua ayuda a la hidratación.")
	if tags.ProfessionalOnly {
		t.Error("lay content tagged professional")
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1, 0)
	if s.ChunkSize != 512 || s.Overlap != 0 || s.MinSize != 100 {
		t.Fatalf("defaults = %+v", s)
	}
}
