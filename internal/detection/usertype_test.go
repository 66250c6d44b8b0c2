package detection

import (
	"testing"

	"github.com/medex-ai/medex/internal/core/domain"
)

func TestDetectUserTypeProfessional(t *testing.T) {
	d := NewUserTypeDetector()

	cases := []struct {
		name  string
		query string
	}{
		{"case presentation", "Paciente de 45 años con dolor torácico de 2 horas de evolución"},
		{"differential", "Diagnóstico diferencial de disnea aguda en paciente masculino"},
		{"dosing", "Dosis de enalapril en paciente con antecedentes de HTA, manejo de crisis hipertensiva"},
		{"charting", "Caso clínico: exploración física con signos vitales estables, anamnesis completa"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := d.DetectUserType(tc.query)
			if res.UserType != domain.UserProfessional {
				t.Fatalf("query %q: got %s (pro=%d edu=%d), want professional",
					tc.query, res.UserType, res.ProfessionalScore, res.EducationalScore)
			}
			if res.Confidence < 0.6 || res.Confidence > 0.95 {
				t.Errorf("confidence %v out of professional range", res.Confidence)
			}
		})
	}
}

func TestDetectUserTypeEducational(t *testing.T) {
	d := NewUserTypeDetector()

	cases := []struct {
		name  string
		query string
	}{
		{"first person pain", "Me duele mucho la cabeza, ¿es grave?"},
		{"family concern", "Mi hijo tiene fiebre, ¿debo preocuparme?"},
		{"what can I take", "¿Qué puedo tomar para el dolor de estómago?"},
		{"neutral question", "¿Por qué da la diabetes?"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := d.DetectUserType(tc.query)
			if res.UserType != domain.UserEducational {
				t.Fatalf("query %q: got %s (pro=%d edu=%d), want educational",
					tc.query, res.UserType, res.ProfessionalScore, res.EducationalScore)
			}
		})
	}
}

// Low-signal queries must fall back to educational with the default
// confidence floor rather than guessing professional.
func TestDetectUserTypeAmbiguousDefaultsEducational(t *testing.T) {
	d := NewUserTypeDetector()

	res := d.DetectUserType("metformina")
	if res.UserType != domain.UserEducational {
		t.Fatalf("got %s, want educational for low-signal query", res.UserType)
	}
	if res.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5 floor", res.Confidence)
	}
}

// A tie in scores is never enough to claim professional.
func TestDetectUserTypeTieGoesEducational(t *testing.T) {
	d := NewUserTypeDetector()

	// "tengo" (edu 2) + "seguimiento" + "hallazgos" (pro 1+1) keeps the
	// professional side below both the threshold and the educational score.
	res := d.DetectUserType("tengo seguimiento y hallazgos")
	if res.UserType != domain.UserEducational {
		t.Fatalf("got %s (pro=%d edu=%d), want educational",
			res.UserType, res.ProfessionalScore, res.EducationalScore)
	}
}

func TestDetectUserTypeDeterministic(t *testing.T) {
	d := NewUserTypeDetector()
	query := "Paciente femenino de 60 años, antecedentes de DM2, presenta diaforesis"

	first := d.DetectUserType(query)
	for i := 0; i < 10; i++ {
		got := d.DetectUserType(query)
		if got.UserType != first.UserType || got.Confidence != first.Confidence ||
			got.ProfessionalScore != first.ProfessionalScore ||
			got.EducationalScore != first.EducationalScore {
			t.Fatalf("run %d diverged: %+v vs %+v", i, got, first)
		}
	}
}

func TestDetectUserTypeRecordsMatches(t *testing.T) {
	d := NewUserTypeDetector()

	res := d.DetectUserType("paciente de 30 años con dolor")
	if len(res.MatchedPatterns) == 0 {
		t.Fatal("expected matched patterns to be recorded")
	}
}
