// Package corpus holds the in-memory retrieval index. A full generation of
// chunks is published atomically; readers acquire an immutable snapshot and
// run both retrieval legs against it, so a concurrent reindex can never mix
// generations inside one request.
package corpus

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	docBM25K1      = 1.2
	titleBoost     = 1.5
	maxSparseTerms = 256
)

// EncodeSparseDocument builds the hashed term representation stored on each
// chunk. Title tokens are folded in with a boost so source names count toward
// lexical matches.
func EncodeSparseDocument(text, title string) (indices []uint32, weights []float32) {
	termFreq := make(map[uint32]float64, 64)
	appendTermFreq(termFreq, tokenize(text), 1.0)
	appendTermFreq(termFreq, tokenize(title), titleBoost)
	return termFreqToSparse(termFreq, docBM25K1)
}

// queryTermSet is the deduplicated token union of all query variants, hashed
// into the same space as document terms.
func queryTermSet(texts []string) map[uint32]struct{} {
	set := make(map[uint32]struct{}, 32)
	for _, text := range texts {
		for _, token := range tokenize(text) {
			set[hashToken(token)] = struct{}{}
		}
	}
	return set
}

func appendTermFreq(dst map[uint32]float64, tokens []string, tokenWeight float64) {
	for _, token := range tokens {
		if token == "" {
			continue
		}
		dst[hashToken(token)] += tokenWeight
	}
}

// termFreqToSparse applies BM25-style saturation so repeated terms gain
// weight sublinearly.
func termFreqToSparse(tf map[uint32]float64, k float64) ([]uint32, []float32) {
	if len(tf) == 0 {
		return nil, nil
	}
	indices := make([]uint32, 0, len(tf))
	for idx := range tf {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	if len(indices) > maxSparseTerms {
		indices = indices[:maxSparseTerms]
	}

	weights := make([]float32, 0, len(indices))
	for _, idx := range indices {
		tfValue := tf[idx]
		weight := (tfValue * (k + 1.0)) / (tfValue + k)
		if math.IsNaN(weight) || math.IsInf(weight, 0) {
			weight = 0
		}
		weights = append(weights, float32(weight))
	}
	return indices, weights
}

func hashToken(token string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	sum := h.Sum32()
	if sum == 0 {
		return 1
	}
	return sum
}

// tokenize lowercases and splits on non-alphanumeric runes. Unicode letters
// stay intact: the corpus is Spanish and accented characters are meaningful.
func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
