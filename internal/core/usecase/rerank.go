package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/medex-ai/medex/internal/core/domain"
	"github.com/medex-ai/medex/internal/core/ports"
)

// rerankCandidates rescores the fused pool with the cross-encoder and
// returns the new order. On any reranker failure the fused order is kept and
// the error reported so the caller can flag the degradation; candidates are
// never dropped by a rerank failure.
func rerankCandidates(ctx context.Context, reranker ports.Reranker, query string, pool []domain.ScoredChunk) ([]domain.ScoredChunk, error) {
	if len(pool) == 0 || reranker == nil {
		return pool, nil
	}

	texts := make([]string, len(pool))
	for i, sc := range pool {
		texts[i] = sc.Chunk.Text
	}

	scores, err := reranker.Rerank(ctx, query, texts)
	if err != nil {
		return pool, err
	}
	if len(scores) != len(pool) {
		return pool, domain.WrapError(domain.ErrModelUnavailable, "rerank",
			fmt.Errorf("got %d scores for %d candidates", len(scores), len(pool)))
	}

	out := make([]domain.ScoredChunk, len(pool))
	copy(out, pool)
	for i := range out {
		out[i].RerankScore = scores[i]
		out[i].Reranked = true
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RerankScore != out[j].RerankScore {
			return out[i].RerankScore > out[j].RerankScore
		}
		if out[i].FusedScore != out[j].FusedScore {
			return out[i].FusedScore > out[j].FusedScore
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	return out, nil
}
