// Package ontology expands medical queries with synonyms drawn from embedded
// Spanish terminology tables (SNOMED-CT/ICD-10/MeSH derived). Expansion is
// deterministic: tables are scanned in file order and the original query is
// always the first variant returned.
package ontology

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

// synonymsPerTerm caps how many synonyms of a single term produce variants,
// so one richly-aliased term cannot consume the whole expansion budget.
const synonymsPerTerm = 2

type tableEntry struct {
	Term     string   `yaml:"term"`
	Synonyms []string `yaml:"synonyms"`
}

type abbrevEntry struct {
	Abbrev string `yaml:"abbrev"`
	Full   string `yaml:"full"`
}

type tables struct {
	Symptoms      []tableEntry  `yaml:"symptoms"`
	Conditions    []tableEntry  `yaml:"conditions"`
	Drugs         []tableEntry  `yaml:"drugs"`
	Anatomy       []tableEntry  `yaml:"anatomy"`
	Procedures    []tableEntry  `yaml:"procedures"`
	Abbreviations []abbrevEntry `yaml:"abbreviations"`
}

type compiledEntry struct {
	term     string
	termRE   *regexp.Regexp
	synonyms []string
	synREs   []*regexp.Regexp
}

type compiledAbbrev struct {
	abbrev string
	full   string
	re     *regexp.Regexp
}

// Expander rewrites queries using the embedded synonym tables. It is
// immutable after construction and safe for concurrent use.
type Expander struct {
	entries []compiledEntry
	abbrevs []compiledAbbrev
}

var (
	expanderOnce sync.Once
	expander     *Expander
	expanderErr  error
)

// NewExpander parses and compiles the embedded tables once per process.
func NewExpander() (*Expander, error) {
	expanderOnce.Do(func() {
		expander, expanderErr = buildExpander(tablesYAML)
	})
	return expander, expanderErr
}

func buildExpander(raw []byte) (*Expander, error) {
	var t tables
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("ontology: parse tables: %w", err)
	}

	e := &Expander{}
	for _, section := range [][]tableEntry{t.Symptoms, t.Conditions, t.Drugs, t.Anatomy, t.Procedures} {
		for _, entry := range section {
			ce := compiledEntry{
				term:     strings.ToLower(entry.Term),
				termRE:   wholeWordRE(entry.Term),
				synonyms: entry.Synonyms,
			}
			for _, syn := range entry.Synonyms {
				ce.synREs = append(ce.synREs, wholeWordRE(syn))
			}
			e.entries = append(e.entries, ce)
		}
	}
	for _, a := range t.Abbreviations {
		e.abbrevs = append(e.abbrevs, compiledAbbrev{
			abbrev: a.Abbrev,
			full:   a.Full,
			re:     wholeWordRE(a.Abbrev),
		})
	}
	return e, nil
}

// wholeWordRE matches the term case-insensitively with letter/digit
// boundaries on both sides. RE2's \b is ASCII-only, which breaks on terms
// ending in accented characters, so boundaries are spelled out as capture
// groups and re-inserted on substitution.
func wholeWordRE(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(term) + `($|[^\p{L}\p{N}_])`)
}

func substitute(re *regexp.Regexp, input, replacement string) string {
	return re.ReplaceAllString(input, "${1}"+replacement+"${2}")
}

// Expand returns up to maxExpansions+1 query variants, the unchanged
// original first. Each matched term contributes rewrites with its leading
// synonyms, and a matched synonym is also rewritten back to its canonical
// term. Remaining slots go to abbreviation spell-outs.
func (e *Expander) Expand(query string, maxExpansions int) []string {
	queries := []string{query}
	if maxExpansions <= 0 || strings.TrimSpace(query) == "" {
		return queries
	}
	lower := strings.ToLower(query)
	limit := maxExpansions + 1

	for _, entry := range e.entries {
		if entry.termRE.MatchString(lower) {
			for i, syn := range entry.synonyms {
				if i >= synonymsPerTerm {
					break
				}
				expanded := substitute(entry.termRE, lower, syn)
				if appendUnique(&queries, expanded, lower) && len(queries) >= limit {
					return queries
				}
			}
		}
		for _, synRE := range entry.synREs {
			if synRE.MatchString(lower) {
				expanded := substitute(synRE, lower, entry.term)
				if appendUnique(&queries, expanded, lower) && len(queries) >= limit {
					return queries
				}
			}
		}
	}

	for _, a := range e.abbrevs {
		if a.re.MatchString(query) {
			expanded := substitute(a.re, query, a.full)
			if appendUnique(&queries, expanded, "") && len(queries) >= limit {
				return queries
			}
		}
	}
	return queries
}

// appendUnique adds the variant unless it duplicates an existing one or the
// lowercased original. Reports whether it was added.
func appendUnique(queries *[]string, candidate, skip string) bool {
	if candidate == skip {
		return false
	}
	for _, q := range *queries {
		if q == candidate {
			return false
		}
	}
	*queries = append(*queries, candidate)
	return true
}

// ExpandAbbreviations annotates every known abbreviation in the text with
// its spelled-out form, e.g. "HTA" becomes "HTA (hipertensión arterial)".
func (e *Expander) ExpandAbbreviations(text string) string {
	result := text
	for _, a := range e.abbrevs {
		result = substitute(a.re, result, a.abbrev+" ("+a.full+")")
	}
	return result
}

// Synonyms returns the synonym list of a canonical term, or the canonical
// term plus its siblings when given one of the synonyms. Returns nil for
// unknown terms.
func (e *Expander) Synonyms(term string) []string {
	needle := strings.ToLower(strings.TrimSpace(term))
	for _, entry := range e.entries {
		if entry.term == needle {
			return append([]string(nil), entry.synonyms...)
		}
		for _, syn := range entry.synonyms {
			if strings.ToLower(syn) == needle {
				out := []string{entry.term}
				for _, other := range entry.synonyms {
					if strings.ToLower(other) != needle {
						out = append(out, other)
					}
				}
				return out
			}
		}
	}
	return nil
}
