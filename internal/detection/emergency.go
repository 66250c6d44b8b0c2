package detection

import (
	"regexp"
	"strings"
	"sync"

	"github.com/medex-ai/medex/internal/core/domain"
)

// Keyword lists are Spanish because the corpus and the expected user base are
// Spanish-speaking. Matching is substring based (keywords may contain spaces),
// case-insensitive via lowercasing the query once.

// criticalKeywords name immediately life-threatening presentations.
var criticalKeywords = []string{
	// cardiac
	"dolor precordial",
	"dolor torácico",
	"opresión torácica",
	"dolor en el pecho",
	"me duele el pecho",
	"duele mucho el pecho",
	"infarto",
	"paro cardíaco",
	"paro cardiaco",
	// respiratory
	"dificultad respiratoria",
	"disnea severa",
	"no puede respirar",
	"ahogo",
	"cianosis",
	"labios morados",
	// neurological
	"pérdida de conciencia",
	"perdió la conciencia",
	"perdió el conocimiento",
	"inconsciente",
	"convulsiones",
	"crisis epiléptica",
	"síncope",
	"desmayo súbito",
	"parálisis súbita",
	"no puede hablar",
	"no puede mover",
	"ictus",
	"derrame cerebral",
	"avc",
	"acv",
	// trauma
	"sangrado abundante",
	"hemorragia masiva",
	"accidente grave",
	"trauma craneal",
	"traumatismo craneoencefálico",
	// other
	"anafilaxia",
	"alergia severa",
	"shock",
	"sepsis",
	"intoxicación",
	"envenenamiento",
	"sobredosis",
	"quemadura extensa",
}

// urgentKeywords name conditions that need prompt attention but are not an
// immediate life threat.
var urgentKeywords = []string{
	"dolor intenso",
	"dolor severo",
	"dolor insoportable",
	"fiebre alta",
	"fiebre de 40",
	"fiebre persistente",
	"vómitos persistentes",
	"vómitos con sangre",
	"sangre en heces",
	"diarrea severa",
	"deshidratación",
	"palpitaciones",
	"taquicardia",
	"arritmia",
	"presión muy alta",
	"tos con sangre",
	"dificultad para respirar",
	"dolor de cabeza intenso",
	"cefalea súbita",
	"mareos severos",
	"visión borrosa súbita",
	"fractura",
	"lesión grave",
	"herida profunda",
	"sangrado vaginal",
	"contracciones",
	"ruptura de fuente",
	"pensamiento suicida",
	"pensamientos suicidas",
	"quiero morir",
	"hacerme daño",
	"urgente",
	"emergencia",
	"911",
	"ambulancia",
}

type categoryPattern struct {
	name string
	re   *regexp.Regexp
}

// Category order matters: the first matching group wins, so the more specific
// clinical categories come before the generic one.
var categoryPatterns = []categoryPattern{
	{"cardiac", regexp.MustCompile(`coraz[oó]n|card[ií]ac|precordial|tor[aá]cic|pecho|infarto|angina`)},
	{"respiratory", regexp.MustCompile(`respir|disne|ahog|pulm[oó]n|oxígeno|cianosis`)},
	{"neurological", regexp.MustCompile(`cerebr|neurol|convuls|epilep|conscien|paral|ictus|derrame`)},
	{"trauma", regexp.MustCompile(`trauma|accidente|fractura|hemorrag|sangrado|herida|quemadura`)},
	{"psychiatric", regexp.MustCompile(`suicid|da[ñn]o|morir|matar`)},
	{"obstetric", regexp.MustCompile(`embaraz|parto|contracci|sangrado vaginal`)},
	{"general", regexp.MustCompile(`urgent|emergenc|911|ambulancia`)},
}

// EmergencyDetector classifies queries by emergency severity. It checks the
// critical keyword set first and short-circuits, so a query matching both sets
// is always critical.
type EmergencyDetector struct {
	critical []string
	urgent   []string
}

var (
	emergencyOnce      sync.Once
	emergencySingleton *EmergencyDetector
)

// NewEmergencyDetector returns the process-wide detector, safe for concurrent
// use.
func NewEmergencyDetector() *EmergencyDetector {
	emergencyOnce.Do(func() {
		emergencySingleton = &EmergencyDetector{
			critical: criticalKeywords,
			urgent:   urgentKeywords,
		}
	})
	return emergencySingleton
}

// DetectEmergency scans the query for critical and urgent keywords and
// assigns a medical category to any hit. It never returns an error: a query
// with no matches is a definite "none".
func (d *EmergencyDetector) DetectEmergency(query string) domain.EmergencyResult {
	lower := strings.ToLower(query)

	if matched := matchKeywords(lower, d.critical); len(matched) > 0 {
		return domain.EmergencyResult{
			IsEmergency:     true,
			Level:           domain.EmergencyCritical,
			MatchedKeywords: matched,
			Category:        determineCategory(lower),
		}
	}
	if matched := matchKeywords(lower, d.urgent); len(matched) > 0 {
		return domain.EmergencyResult{
			IsEmergency:     true,
			Level:           domain.EmergencyUrgent,
			MatchedKeywords: matched,
			Category:        determineCategory(lower),
		}
	}
	return domain.EmergencyResult{
		IsEmergency:     false,
		Level:           domain.EmergencyNone,
		MatchedKeywords: []string{},
		Category:        "none",
	}
}

// IsCritical reports whether the query matches the critical keyword set.
func (d *EmergencyDetector) IsCritical(query string) bool {
	return d.DetectEmergency(query).Level == domain.EmergencyCritical
}

func matchKeywords(lowerQuery string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(lowerQuery, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func determineCategory(lowerQuery string) string {
	for _, cp := range categoryPatterns {
		if cp.re.MatchString(lowerQuery) {
			return cp.name
		}
	}
	return "general"
}
