// Package httpadapter exposes the retrieval and detection pipeline over a
// JSON HTTP API.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/medex-ai/medex/internal/core/domain"
	"github.com/medex-ai/medex/internal/core/ports"
	"github.com/medex-ai/medex/internal/observability/metrics"
)

const serviceName = "api"

type RouterConfig struct {
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	InFlightWait     time.Duration
	MaxUploadBytes   int64
	DefaultQueryTopK int
}

type Router struct {
	queryUC   ports.QueryService
	ingestor  ports.SourceIngestor
	sources   ports.SourceRepository
	userTypes ports.UserTypeClassifier
	emergency ports.EmergencyClassifier
	metrics   *metrics.HTTPServerMetrics
	cfg       RouterConfig
}

func NewRouter(
	queryUC ports.QueryService,
	ingestor ports.SourceIngestor,
	sources ports.SourceRepository,
	userTypes ports.UserTypeClassifier,
	emergency ports.EmergencyClassifier,
	m *metrics.HTTPServerMetrics,
	cfg RouterConfig,
) *Router {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if cfg.DefaultQueryTopK <= 0 {
		cfg.DefaultQueryTopK = 5
	}
	return &Router{
		queryUC:   queryUC,
		ingestor:  ingestor,
		sources:   sources,
		userTypes: userTypes,
		emergency: emergency,
		metrics:   m,
		cfg:       cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/query", rt.processQuery)
	mux.HandleFunc("/v1/classify/user-type", rt.classifyUserType)
	mux.HandleFunc("/v1/classify/emergency", rt.classifyEmergency)
	mux.HandleFunc("/v1/sources", rt.uploadSource)
	mux.HandleFunc("/v1/sources/", rt.getSourceByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.cfg.MaxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, rt.cfg.InFlightWait)
	}
	if rt.cfg.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type queryRequest struct {
	Query          string `json:"query"`
	TopK           int    `json:"top_k"`
	UserType       string `json:"user_type"`
	ForceEmergency *bool  `json:"force_emergency"`
}

func (rt *Router) processQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	pipelineReq := ports.QueryRequest{
		Text:          req.Query,
		TopK:          req.TopK,
		EmergencyHint: req.ForceEmergency,
	}
	if req.TopK <= 0 {
		pipelineReq.TopK = rt.cfg.DefaultQueryTopK
	}
	switch req.UserType {
	case string(domain.UserProfessional):
		hint := domain.UserProfessional
		pipelineReq.UserTypeHint = &hint
	case string(domain.UserEducational):
		hint := domain.UserEducational
		pipelineReq.UserTypeHint = &hint
	case "":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_type must be professional or educational"})
		return
	}

	start := time.Now()
	result, err := rt.queryUC.ProcessQuery(r.Context(), pipelineReq)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(serviceName, string(result.UserType), result.IsEmergency,
			len(result.Results), result.DegradedStages, time.Since(start))
	}
	writeJSON(w, http.StatusOK, result)
}

type classifyRequest struct {
	Query string `json:"query"`
}

func (rt *Router) classifyUserType(w http.ResponseWriter, r *http.Request) {
	query, ok := rt.decodeClassifyRequest(w, r)
	if !ok {
		return
	}
	result := rt.userTypes.DetectUserType(query)
	if rt.metrics != nil {
		rt.metrics.RecordUserTypeClassification(serviceName, string(result.UserType))
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) classifyEmergency(w http.ResponseWriter, r *http.Request) {
	query, ok := rt.decodeClassifyRequest(w, r)
	if !ok {
		return
	}
	result := rt.emergency.DetectEmergency(query)
	if rt.metrics != nil {
		rt.metrics.RecordEmergencyDetection(serviceName, string(result.Level), result.Category)
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) decodeClassifyRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return "", false
	}
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return "", false
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return "", false
	}
	return req.Query, true
}

func (rt *Router) uploadSource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if strings.TrimSpace(title) == "" {
		title = fileHeader.Filename
	}

	src, err := rt.ingestor.Upload(
		r.Context(),
		title,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		r.FormValue("category"),
		file,
	)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, src)
}

func (rt *Router) getSourceByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/sources/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "source id is required"})
		return
	}

	src, err := rt.sources.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
