package usecase

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/medex-ai/medex/internal/core/domain"
	"github.com/medex-ai/medex/internal/core/ports"
)

type stubExpander struct {
	variants []string
}

func (s *stubExpander) Expand(query string, maxExpansions int) []string {
	if s.variants != nil {
		return append([]string{query}, s.variants...)
	}
	return []string{query}
}

type stubEmbedder struct {
	vector  []float32
	err     error
	calls   int
	batches [][]string
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	s.batches = append(s.batches, texts)
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = s.vector
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vs, err := s.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

type stubView struct {
	total  int
	dense  []domain.ScoredChunk
	sparse []domain.ScoredChunk
}

func (v *stubView) TotalChunks() int { return v.total }
func (v *stubView) SearchDense(_ [][]float32, limit int) []domain.ScoredChunk {
	return trimCandidates(v.dense, limit)
}
func (v *stubView) SearchSparse(_ []string, limit int) []domain.ScoredChunk {
	return trimCandidates(v.sparse, limit)
}

type stubIndex struct {
	view     *stubView
	replaced [][]domain.Chunk
}

func (s *stubIndex) Replace(chunks []domain.Chunk) { s.replaced = append(s.replaced, chunks) }
func (s *stubIndex) Acquire() ports.ChunkIndexView { return s.view }

// stubReranker reverses candidate order so tests can tell rerank ran.
type stubReranker struct {
	err   error
	calls int
}

func (s *stubReranker) Rerank(_ context.Context, _ string, texts []string) ([]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	scores := make([]float64, len(texts))
	for i := range scores {
		scores[i] = float64(i)
	}
	return scores, nil
}

type stubUserTypes struct {
	result domain.DetectionResult
	calls  int
}

func (s *stubUserTypes) DetectUserType(string) domain.DetectionResult {
	s.calls++
	return s.result
}

type stubEmergency struct {
	result domain.EmergencyResult
	calls  int
}

func (s *stubEmergency) DetectEmergency(string) domain.EmergencyResult {
	s.calls++
	return s.result
}

type memSourceRepo struct {
	sources  map[string]*domain.Source
	statuses []string
	counts   map[string]int
	failOn   string
}

func newMemSourceRepo() *memSourceRepo {
	return &memSourceRepo{sources: map[string]*domain.Source{}, counts: map[string]int{}}
}

func (r *memSourceRepo) Create(_ context.Context, src *domain.Source) error {
	if r.failOn == "create" {
		return errors.New("create failed")
	}
	r.sources[src.ID] = src
	return nil
}

func (r *memSourceRepo) GetByID(_ context.Context, id string) (*domain.Source, error) {
	src, ok := r.sources[id]
	if !ok {
		return nil, domain.ErrSourceNotFound
	}
	return src, nil
}

func (r *memSourceRepo) UpdateStatus(_ context.Context, id string, status domain.SourceStatus, errMessage string) error {
	r.statuses = append(r.statuses, string(status))
	if src, ok := r.sources[id]; ok {
		src.Status = status
		src.Error = errMessage
	}
	return nil
}

func (r *memSourceRepo) SetChunkCount(_ context.Context, id string, count int) error {
	r.counts[id] = count
	return nil
}

type memChunkRepo struct {
	chunks map[string][]domain.Chunk
	err    error
}

func newMemChunkRepo() *memChunkRepo {
	return &memChunkRepo{chunks: map[string][]domain.Chunk{}}
}

func (r *memChunkRepo) ReplaceForSource(_ context.Context, sourceID string, chunks []domain.Chunk) error {
	if r.err != nil {
		return r.err
	}
	r.chunks[sourceID] = chunks
	return nil
}

func (r *memChunkRepo) ListAll(_ context.Context) ([]domain.Chunk, error) {
	if r.err != nil {
		return nil, r.err
	}
	var all []domain.Chunk
	for _, cs := range r.chunks {
		all = append(all, cs...)
	}
	return all, nil
}

type memStorage struct {
	saved map[string]string
	err   error
}

func newMemStorage() *memStorage { return &memStorage{saved: map[string]string{}} }

func (s *memStorage) Save(_ context.Context, key string, data io.Reader) error {
	if s.err != nil {
		return s.err
	}
	var b strings.Builder
	if _, err := io.Copy(&b, data); err != nil {
		return err
	}
	s.saved[key] = b.String()
	return nil
}

func (s *memStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.saved[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

type memQueue struct {
	published []string
	err       error
}

func (q *memQueue) PublishSourceReceived(_ context.Context, sourceID string) error {
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, sourceID)
	return nil
}

func (q *memQueue) SubscribeSourceReceived(context.Context, func(context.Context, string) error) error {
	return nil
}

type stubExtractor struct {
	text string
	err  error
}

func (s *stubExtractor) Extract(context.Context, *domain.Source) (string, error) {
	return s.text, s.err
}

type stubChunker struct {
	fragments []string
}

func (s *stubChunker) Split(string) []string { return s.fragments }
func (s *stubChunker) Tag(text string) domain.ChunkTags {
	return domain.ChunkTags{
		EmergencyRelevant: strings.Contains(text, "emergencia"),
		ProfessionalOnly:  strings.Contains(text, "dosis"),
	}
}
