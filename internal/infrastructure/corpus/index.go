package corpus

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/medex-ai/medex/internal/core/domain"
	"github.com/medex-ai/medex/internal/core/ports"
)

// Index is the process-wide chunk index. Replace swaps in a complete new
// generation; Acquire pins the current one for the duration of a request.
type Index struct {
	snapshot atomic.Pointer[snapshot]
}

type snapshot struct {
	chunks []domain.Chunk
	// unit-length embeddings, row-aligned with chunks; nil row when the
	// chunk has no dense representation
	normalized [][]float32
}

func NewIndex() *Index {
	idx := &Index{}
	idx.snapshot.Store(&snapshot{})
	return idx
}

// Replace publishes a new corpus generation. In-flight readers keep their
// acquired snapshot; new readers see the swap immediately and completely.
func (x *Index) Replace(chunks []domain.Chunk) {
	snap := &snapshot{
		chunks:     chunks,
		normalized: make([][]float32, len(chunks)),
	}
	for i := range chunks {
		snap.normalized[i] = normalize(chunks[i].Embedding)
	}
	x.snapshot.Store(snap)
}

func (x *Index) Acquire() ports.ChunkIndexView {
	return x.snapshot.Load()
}

func (s *snapshot) TotalChunks() int { return len(s.chunks) }

// SearchDense scores every chunk by cosine similarity, taking per chunk the
// maximum over all query vectors.
func (s *snapshot) SearchDense(queryVectors [][]float32, limit int) []domain.ScoredChunk {
	if len(s.chunks) == 0 || len(queryVectors) == 0 {
		return nil
	}
	normQueries := make([][]float32, 0, len(queryVectors))
	for _, qv := range queryVectors {
		if n := normalize(qv); n != nil {
			normQueries = append(normQueries, n)
		}
	}
	if len(normQueries) == 0 {
		return nil
	}

	scored := make([]domain.ScoredChunk, 0, len(s.chunks))
	for i := range s.chunks {
		emb := s.normalized[i]
		if emb == nil {
			continue
		}
		best := math.Inf(-1)
		for _, qv := range normQueries {
			if sim := dot(emb, qv); sim > best {
				best = sim
			}
		}
		if math.IsInf(best, -1) {
			continue
		}
		scored = append(scored, domain.ScoredChunk{
			Chunk:      &s.chunks[i],
			DenseScore: best,
		})
	}
	sortDescending(scored, func(sc domain.ScoredChunk) float64 { return sc.DenseScore })
	return truncate(scored, limit)
}

// SearchSparse scores chunks by the weighted overlap between their hashed
// terms and the token union of the query texts.
func (s *snapshot) SearchSparse(queryTexts []string, limit int) []domain.ScoredChunk {
	if len(s.chunks) == 0 {
		return nil
	}
	terms := queryTermSet(queryTexts)
	if len(terms) == 0 {
		return nil
	}

	scored := make([]domain.ScoredChunk, 0, len(s.chunks))
	for i := range s.chunks {
		c := &s.chunks[i]
		var score float64
		for j, idx := range c.TermIndices {
			if _, ok := terms[idx]; ok {
				score += float64(c.TermWeights[j])
			}
		}
		if score > 0 {
			scored = append(scored, domain.ScoredChunk{
				Chunk:       c,
				SparseScore: score,
			})
		}
	}
	sortDescending(scored, func(sc domain.ScoredChunk) float64 { return sc.SparseScore })
	return truncate(scored, limit)
}

// sortDescending orders by score, breaking ties by chunk ID so search output
// is stable across runs.
func sortDescending(scored []domain.ScoredChunk, score func(domain.ScoredChunk) float64) {
	sort.SliceStable(scored, func(i, j int) bool {
		si, sj := score(scored[i]), score(scored[j])
		if si != sj {
			return si > sj
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})
}

func truncate(scored []domain.ScoredChunk, limit int) []domain.ScoredChunk {
	if limit > 0 && len(scored) > limit {
		return scored[:limit]
	}
	return scored
}

func normalize(v []float32) []float32 {
	if len(v) == 0 {
		return nil
	}
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return nil
	}
	inv := 1.0 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
