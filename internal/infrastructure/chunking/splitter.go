// Package chunking splits extracted medical text into indexable fragments.
// Splitting is section aware: clinically meaningful headings start a new
// fragment so that dosing tables or emergency signs never get cut in half.
package chunking

import (
	"strings"

	"github.com/medex-ai/medex/internal/core/domain"
)

// sectionDelimiters mark headings that must begin a new fragment.
var sectionDelimiters = []string{
	"signos de emergencia:",
	"criterios diagnósticos:",
	"protocolo de tratamiento:",
	"contraindicaciones:",
	"efectos secundarios:",
	"dosis:",
	"interacciones:",
}

// emergencyTagKeywords flag fragments that should survive ranking cuts when
// the incoming query looks like an emergency.
var emergencyTagKeywords = []string{
	"emergencia",
	"urgente",
	"crítico",
	"grave",
	"shock",
	"paro",
	"inmediato",
	"vital",
}

// professionalTagKeywords flag fragments carrying clinical detail that is
// only surfaced verbatim to professional users.
var professionalTagKeywords = []string{
	"dosis",
	"mg/kg",
	"protocolo",
	"criterios diagnósticos",
	"contraindicaciones",
	"interacciones medicamentosas",
}

// Splitter sizes are in words, not runes: embedding inputs are budgeted by
// token count and whitespace words are a close enough proxy.
type Splitter struct {
	ChunkSize int
	Overlap   int
	MinSize   int
}

func NewSplitter(chunkSize, overlap, minSize int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 8
	}
	if minSize <= 0 || minSize > chunkSize {
		minSize = 100
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
		MinSize:   minSize,
	}
}

// Split first divides by medical sections, then subdivides any section that
// exceeds the chunk size with a sliding word window.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []string
	for _, section := range splitBySections(text) {
		if len(strings.Fields(section)) > s.ChunkSize {
			out = append(out, s.splitLargeSection(section)...)
		} else {
			out = append(out, section)
		}
	}
	return out
}

// Tag classifies a fragment for retrieval-time handling.
func (s *Splitter) Tag(text string) domain.ChunkTags {
	lower := strings.ToLower(text)
	return domain.ChunkTags{
		EmergencyRelevant: containsAny(lower, emergencyTagKeywords),
		ProfessionalOnly:  containsAny(lower, professionalTagKeywords),
	}
}

func splitBySections(text string) []string {
	var sections []string
	var current []string

	for _, sentence := range strings.Split(text, ". ") {
		lower := strings.ToLower(sentence)
		if containsAny(lower, sectionDelimiters) && len(current) > 0 {
			sections = append(sections, strings.Join(current, ". ")+".")
			current = []string{sentence}
			continue
		}
		current = append(current, sentence)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, ". "))
	}
	if len(sections) == 0 {
		return []string{text}
	}
	return sections
}

func (s *Splitter) splitLargeSection(section string) []string {
	words := strings.Fields(section)
	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	var chunks []string
	for i := 0; i < len(words); i += step {
		end := min(i+s.ChunkSize, len(words))
		if end-i >= s.MinSize {
			chunks = append(chunks, strings.Join(words[i:end], " "))
		}
		if end == len(words) {
			break
		}
	}
	if len(chunks) == 0 {
		return []string{section}
	}
	return chunks
}

func containsAny(lower string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
