package httpadapter

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medex-ai/medex/internal/core/domain"
	"github.com/medex-ai/medex/internal/core/ports"
	"github.com/medex-ai/medex/internal/detection"
	"github.com/medex-ai/medex/internal/observability/metrics"
)

type stubQueryService struct {
	result  *domain.RAGContext
	err     error
	lastReq ports.QueryRequest
}

func (s *stubQueryService) ProcessQuery(_ context.Context, req ports.QueryRequest) (*domain.RAGContext, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubIngestor struct {
	src *domain.Source
	err error
}

func (s *stubIngestor) Upload(_ context.Context, title, filename, mimeType, category string, _ io.Reader) (*domain.Source, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := *s.src
	out.Title = title
	out.Filename = filename
	out.MimeType = mimeType
	out.Category = category
	return &out, nil
}

type stubSourceRepo struct {
	sources map[string]*domain.Source
}

func (s *stubSourceRepo) Create(_ context.Context, src *domain.Source) error {
	s.sources[src.ID] = src
	return nil
}

func (s *stubSourceRepo) GetByID(_ context.Context, id string) (*domain.Source, error) {
	src, ok := s.sources[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSourceNotFound, "source get", io.EOF)
	}
	return src, nil
}

func (s *stubSourceRepo) UpdateStatus(_ context.Context, _ string, _ domain.SourceStatus, _ string) error {
	return nil
}

func (s *stubSourceRepo) SetChunkCount(_ context.Context, _ string, _ int) error {
	return nil
}

type testHandlerOptions struct {
	query  *stubQueryService
	ingest *stubIngestor
	repo   *stubSourceRepo
	cfg    RouterConfig
}

func newTestHandler(t *testing.T, opts testHandlerOptions) http.Handler {
	t.Helper()
	if opts.query == nil {
		opts.query = &stubQueryService{result: &domain.RAGContext{}}
	}
	if opts.ingest == nil {
		opts.ingest = &stubIngestor{src: &domain.Source{ID: "src-1", Status: domain.SourceReceived}}
	}
	if opts.repo == nil {
		opts.repo = &stubSourceRepo{sources: map[string]*domain.Source{}}
	}
	router := NewRouter(
		opts.query,
		opts.ingest,
		opts.repo,
		detection.NewUserTypeDetector(),
		detection.NewEmergencyDetector(),
		metrics.NewHTTPServerMetrics(serviceName),
		opts.cfg,
	)
	return router.Handler()
}

func multipartBody(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write file content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func doRequest(handler http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}
