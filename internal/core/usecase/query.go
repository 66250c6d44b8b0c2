package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/medex-ai/medex/internal/core/domain"
	"github.com/medex-ai/medex/internal/core/ports"
)

// QueryConfig carries the retrieval tunables. Zero values fall back to the
// defaults the corpus was calibrated with.
type QueryConfig struct {
	TopK                int
	CandidateMultiplier int
	RRFK                int
	EmergencyBoost      float64
	MaxExpansions       int
}

func (c QueryConfig) normalize() QueryConfig {
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.CandidateMultiplier <= 0 {
		c.CandidateMultiplier = 4
	}
	if c.RRFK <= 0 {
		c.RRFK = 60
	}
	if c.EmergencyBoost <= 0 {
		c.EmergencyBoost = 1.5
	}
	if c.MaxExpansions < 0 {
		c.MaxExpansions = 3
	}
	return c
}

// Pipeline stage names reported in RAGContext.DegradedStages.
const (
	StageDenseLeg = "dense_leg"
	StageRerank   = "rerank"
)

// QueryUseCase runs the retrieval pipeline: classify, expand, search both
// legs against one index snapshot, fuse, boost, rerank, format. Stages
// degrade individually; the pipeline only fails outright when no leg can
// produce candidates over a non-empty corpus.
type QueryUseCase struct {
	expander  ports.QueryExpander
	embedder  ports.Embedder
	index     ports.ChunkIndex
	reranker  ports.Reranker
	userTypes ports.UserTypeClassifier
	emergency ports.EmergencyClassifier
	cfg       QueryConfig
}

func NewQueryUseCase(
	expander ports.QueryExpander,
	embedder ports.Embedder,
	index ports.ChunkIndex,
	reranker ports.Reranker,
	userTypes ports.UserTypeClassifier,
	emergency ports.EmergencyClassifier,
	cfg QueryConfig,
) *QueryUseCase {
	return &QueryUseCase{
		expander:  expander,
		embedder:  embedder,
		index:     index,
		reranker:  reranker,
		userTypes: userTypes,
		emergency: emergency,
		cfg:       cfg.normalize(),
	}
}

func (uc *QueryUseCase) ProcessQuery(ctx context.Context, req ports.QueryRequest) (*domain.RAGContext, error) {
	started := time.Now()

	query := strings.TrimSpace(req.Text)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process query", errors.New("empty query text"))
	}
	topK := req.TopK
	if topK <= 0 {
		topK = uc.cfg.TopK
	}

	userType := uc.resolveUserType(query, req.UserTypeHint)
	isEmergency := uc.resolveEmergency(query, req.EmergencyHint)

	variants := uc.expander.Expand(query, uc.cfg.MaxExpansions)

	view := uc.index.Acquire()
	out := &domain.RAGContext{
		Query:               query,
		UserType:            userType,
		IsEmergency:         isEmergency,
		TotalChunksSearched: view.TotalChunks(),
	}
	if view.TotalChunks() == 0 {
		out.Results = []domain.ScoredChunk{}
		out.Citations = []domain.Citation{}
		out.Elapsed = time.Since(started)
		return out, nil
	}

	poolSize := topK * uc.cfg.CandidateMultiplier

	dense, denseErr := uc.searchDense(ctx, view, variants, poolSize)
	if denseErr != nil {
		out.DegradedStages = append(out.DegradedStages, StageDenseLeg)
	}
	sparse := view.SearchSparse(variants, poolSize)

	if denseErr != nil && len(sparse) == 0 {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "process query", denseErr)
	}

	fused := fuseRRF(dense, sparse, uc.cfg.RRFK)
	if isEmergency {
		applyEmergencyBoost(fused, uc.cfg.EmergencyBoost)
	}
	pool := trimCandidates(fused, poolSize)

	ranked, rerankErr := rerankCandidates(ctx, uc.reranker, query, pool)
	if rerankErr != nil {
		out.DegradedStages = append(out.DegradedStages, StageRerank)
	}

	results := trimCandidates(ranked, topK)
	for i := range results {
		results[i].Rank = i + 1
	}

	out.Results = results
	out.FormattedContext = formatContext(results, userType, isEmergency)
	out.Citations = buildCitations(results)
	out.Elapsed = time.Since(started)
	return out, nil
}

func (uc *QueryUseCase) resolveUserType(query string, hint *domain.UserType) domain.UserType {
	if hint != nil {
		return *hint
	}
	return uc.userTypes.DetectUserType(query).UserType
}

// resolveEmergency honors explicit caller hints in both directions; only an
// absent hint triggers classification.
func (uc *QueryUseCase) resolveEmergency(query string, hint *bool) bool {
	if hint != nil {
		return *hint
	}
	return uc.emergency.DetectEmergency(query).IsEmergency
}

// searchDense embeds all query variants in one call and searches the dense
// leg. A failed embedding degrades the pipeline to sparse-only.
func (uc *QueryUseCase) searchDense(ctx context.Context, view ports.ChunkIndexView, variants []string, limit int) ([]domain.ScoredChunk, error) {
	vectors, err := uc.embedder.Embed(ctx, variants)
	if err != nil {
		return nil, err
	}
	return view.SearchDense(vectors, limit), nil
}
