// Package detection implements rule-based classification of incoming queries:
// audience (professional vs. educational) and emergency severity. Both
// classifiers are pure functions over immutable pattern tables and always
// return a definite result.
package detection

import (
	"regexp"
	"sync"

	"github.com/medex-ai/medex/internal/core/domain"
)

// professionalThreshold is the minimum professional score required before a
// query can be labeled professional at all. Ambiguous or low-signal queries
// deliberately default to the educational response mode: over-simplifying for
// a clinician is cheaper than exposing unguarded clinical detail to a patient.
const professionalThreshold = 4

type weightedPattern struct {
	re     *regexp.Regexp
	weight int
}

func compileWeighted(raw []struct {
	expr   string
	weight int
}) []weightedPattern {
	out := make([]weightedPattern, 0, len(raw))
	for _, p := range raw {
		out = append(out, weightedPattern{
			re:     regexp.MustCompile("(?i)" + p.expr),
			weight: p.weight,
		})
	}
	return out
}

// Clinical-register indicators (Spanish): case presentations, dosing syntax,
// charting vocabulary, medical abbreviations.
var professionalPatternSpecs = []struct {
	expr   string
	weight int
}{
	{`paciente\s+de\s+\d+\s+a[ñn]os`, 3},
	{`paciente\s+(masculino|femenino)`, 3},
	{`diagn[oó]stico\s+diferencial`, 3},
	{`c[oó]digo\s+icd`, 3},
	{`protocolo\s+de\s+manejo`, 3},
	{`presenta\s+.{5,30}evoluci[oó]n`, 3},
	{`caso\s+cl[ií]nico`, 2},
	{`tratamiento\s+con`, 2},
	{`dosis\s+de`, 2},
	{`mg\s+cada`, 2},
	{`manejo\s+de`, 2},
	{`exploraci[oó]n\s+f[ií]sica`, 2},
	{`signos\s+vitales`, 2},
	{`anamnesis`, 2},
	{`antecedentes\s+patol[oó]gicos`, 2},
	{`antecedentes\s+de\s+\w+`, 2},
	{`\b(hta|dm2?|irc|epoc|iam)\b`, 2},
	{`irradiaci[oó]n\s+a`, 2},
	{`diaforesis`, 2},
	{`protocolo\s+de`, 1},
	{`seguimiento`, 1},
	{`antecedentes`, 1},
	{`valoraci[oó]n`, 1},
	{`interconsulta`, 1},
	{`derivaci[oó]n`, 1},
	{`historia\s+cl[ií]nica`, 1},
	{`hallazgos`, 1},
	{`evoluci[oó]n`, 1},
	{`presenta\b`, 1},
}

// Lay-register indicators: first-person complaints, informal concern phrasing.
var educationalPatternSpecs = []struct {
	expr   string
	weight int
}{
	{`me\s+duele`, 3},
	{`tengo\s+dolor`, 3},
	{`qu[eé]\s+puedo\s+tomar`, 3},
	{`es\s+grave`, 3},
	{`debo\s+preocuparme`, 3},
	{`me\s+siento`, 2},
	{`tengo`, 2},
	{`siento`, 2},
	{`me\s+pasa`, 2},
	{`mi\s+hijo`, 2},
	{`mi\s+esposa`, 2},
	{`mi\s+familia`, 2},
	{`qu[eé]\s+significa`, 2},
	{`me\s+preocupa`, 1},
	{`es\s+normal`, 1},
	{`por\s+qu[eé]`, 1},
	{`c[oó]mo\s+puedo`, 1},
	{`necesito\s+saber`, 1},
}

// UserTypeDetector classifies queries as professional or educational by
// accumulating pattern weights on both sides and applying an asymmetric
// decision rule biased toward the educational label.
type UserTypeDetector struct {
	professional []weightedPattern
	educational  []weightedPattern
}

var (
	userTypeOnce      sync.Once
	userTypeSingleton *UserTypeDetector
)

// NewUserTypeDetector returns the process-wide detector. Pattern compilation
// happens once; the detector is immutable and safe for concurrent use.
func NewUserTypeDetector() *UserTypeDetector {
	userTypeOnce.Do(func() {
		userTypeSingleton = &UserTypeDetector{
			professional: compileWeighted(professionalPatternSpecs),
			educational:  compileWeighted(educationalPatternSpecs),
		}
	})
	return userTypeSingleton
}

// DetectUserType scores the query against both pattern sets. A query is
// professional only when the professional score reaches the threshold AND
// strictly beats the educational score; ties and losses are educational.
func (d *UserTypeDetector) DetectUserType(query string) domain.DetectionResult {
	professionalScore := 0
	educationalScore := 0
	matched := []string{}

	for _, p := range d.professional {
		if p.re.MatchString(query) {
			professionalScore += p.weight
			matched = append(matched, "PRO: "+p.re.String())
		}
	}
	for _, p := range d.educational {
		if p.re.MatchString(query) {
			educationalScore += p.weight
			matched = append(matched, "EDU: "+p.re.String())
		}
	}

	if professionalScore >= professionalThreshold && professionalScore > educationalScore {
		margin := professionalScore - educationalScore
		return domain.DetectionResult{
			UserType:          domain.UserProfessional,
			Confidence:        min(0.95, 0.6+float64(margin)*0.05),
			ProfessionalScore: professionalScore,
			EducationalScore:  educationalScore,
			MatchedPatterns:   matched,
		}
	}

	confidence := 0.5
	if educationalScore > 0 {
		confidence = min(0.9, 0.5+float64(educationalScore)*0.05)
	}
	return domain.DetectionResult{
		UserType:          domain.UserEducational,
		Confidence:        confidence,
		ProfessionalScore: professionalScore,
		EducationalScore:  educationalScore,
		MatchedPatterns:   matched,
	}
}
