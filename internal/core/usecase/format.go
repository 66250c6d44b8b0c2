package usecase

import (
	"fmt"
	"strings"

	"github.com/medex-ai/medex/internal/core/domain"
)

const (
	professionalContentLimit = 1000
	patientContentLimit      = 300
	previewLimit             = 200
)

// patientReplacements translate clinical section headings into lay phrasing
// before content is shown to educational users.
var patientReplacements = [][2]string{
	{"criterios diagnósticos", "señales que el médico busca"},
	{"diagnóstico diferencial", "otras posibles causas"},
	{"protocolo de tratamiento", "pasos del tratamiento"},
	{"contraindicaciones", "situaciones donde no se debe usar"},
	{"efectos secundarios", "efectos que puede causar"},
}

// formatContext renders the ranked results as a numbered, citable context
// block. Professional users get near-verbatim content; educational users get
// simplified, shortened content.
func formatContext(results []domain.ScoredChunk, userType domain.UserType, isEmergency bool) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	if isEmergency {
		b.WriteString("=== INFORMACIÓN DE EMERGENCIA ===\n")
		b.WriteString("IMPORTANTE: Cita las fuentes usando [1], [2], etc. al responder.\n")
	} else {
		b.WriteString("=== INFORMACIÓN RELEVANTE DE BASE DE CONOCIMIENTO ===\n")
		b.WriteString("Instrucción: Cita las fuentes relevantes usando [1], [2], etc. en tu respuesta.\n")
	}
	b.WriteString("\n")

	for i, res := range results {
		c := res.Chunk
		fmt.Fprintf(&b, "--- FUENTE [%d]: %s ---\n", i+1, c.SourceTitle)
		fmt.Fprintf(&b, "Categoría: %s\n", c.Category)
		fmt.Fprintf(&b, "Relevancia: %.1f%%\n", displayScore(res)*100)
		if c.EmergencyRelevant {
			b.WriteString("INFORMACIÓN CRÍTICA DE EMERGENCIA\n")
		}
		b.WriteString("\n")

		if userType == domain.UserProfessional {
			b.WriteString(truncateRunes(strings.TrimSpace(c.Text), professionalContentLimit))
		} else {
			b.WriteString(simplifyForPatient(c.Text))
		}
		b.WriteString("\n\n")
	}

	b.WriteString("REFERENCIAS:\n")
	for i, res := range results {
		fmt.Fprintf(&b, "  [%d] %s (%s)\n", i+1, res.Chunk.SourceTitle, res.Chunk.Category)
	}
	return b.String()
}

func buildCitations(results []domain.ScoredChunk) []domain.Citation {
	citations := make([]domain.Citation, 0, len(results))
	for i, res := range results {
		c := res.Chunk
		citations = append(citations, domain.Citation{
			Number:         i + 1,
			Title:          c.SourceTitle,
			Category:       c.Category,
			SourceID:       c.SourceID,
			ChunkID:        c.ID,
			Relevance:      displayScore(res),
			EmergencyFlag:  c.EmergencyRelevant,
			ContentPreview: truncateRunes(c.Text, previewLimit),
		})
	}
	return citations
}

// displayScore prefers the cross-encoder score when the result went through
// reranking.
func displayScore(res domain.ScoredChunk) float64 {
	if res.Reranked {
		return res.RerankScore
	}
	return res.FusedScore
}

// simplifyForPatient swaps clinical section vocabulary for lay equivalents
// and shortens the fragment.
func simplifyForPatient(content string) string {
	result := strings.ToLower(content)
	for _, r := range patientReplacements {
		result = strings.ReplaceAll(result, r[0], r[1])
	}
	result = truncateRunes(result, patientContentLimit)
	return capitalizeFirst(result)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func capitalizeFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
