package usecase

import (
	"sort"

	"github.com/medex-ai/medex/internal/core/domain"
)

// fuseRRF merges the dense and sparse result lists with reciprocal rank
// fusion: each list contributes 1/(K + rank) per chunk, rank starting at 1.
// Chunks found by both legs accumulate both contributions, which is what
// lets a mid-ranked chunk in two legs beat a top chunk in one.
func fuseRRF(dense, sparse []domain.ScoredChunk, rrfK int) []domain.ScoredChunk {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]domain.ScoredChunk, len(dense)+len(sparse))
	addLeg := func(leg []domain.ScoredChunk, takeScore func(dst *domain.ScoredChunk, src domain.ScoredChunk)) {
		for rank, sc := range leg {
			key := sc.Chunk.ID
			merged, ok := acc[key]
			if !ok {
				merged = domain.ScoredChunk{Chunk: sc.Chunk}
			}
			takeScore(&merged, sc)
			merged.FusedScore += 1.0 / float64(rrfK+rank+1)
			acc[key] = merged
		}
	}

	addLeg(dense, func(dst *domain.ScoredChunk, src domain.ScoredChunk) {
		dst.DenseScore = src.DenseScore
	})
	addLeg(sparse, func(dst *domain.ScoredChunk, src domain.ScoredChunk) {
		dst.SparseScore = src.SparseScore
	})

	out := make([]domain.ScoredChunk, 0, len(acc))
	for _, sc := range acc {
		out = append(out, sc)
	}
	sortByFused(out)
	return out
}

// applyEmergencyBoost multiplies the fused score of emergency-tagged chunks
// and re-sorts. Called before pool truncation so boosted chunks can climb
// into the candidate window.
func applyEmergencyBoost(fused []domain.ScoredChunk, boost float64) {
	if boost <= 1 {
		return
	}
	for i := range fused {
		if fused[i].Chunk.EmergencyRelevant {
			fused[i].FusedScore *= boost
		}
	}
	sortByFused(fused)
}

func sortByFused(chunks []domain.ScoredChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].FusedScore != chunks[j].FusedScore {
			return chunks[i].FusedScore > chunks[j].FusedScore
		}
		if chunks[i].Chunk.SourceID != chunks[j].Chunk.SourceID {
			return chunks[i].Chunk.SourceID < chunks[j].Chunk.SourceID
		}
		return chunks[i].Chunk.ChunkIndex < chunks[j].Chunk.ChunkIndex
	})
}

func trimCandidates(chunks []domain.ScoredChunk, limit int) []domain.ScoredChunk {
	if limit <= 0 || len(chunks) <= limit {
		return chunks
	}
	return chunks[:limit]
}
