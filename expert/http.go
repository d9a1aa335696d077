package expert

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/fwexpert/framework"
	"github.com/c360studio/fwexpert/generator"
	"github.com/c360studio/fwexpert/knowledge"
)

// RegisterHTTPHandlers mounts the expert API on mux.
func (s *Service) RegisterHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/api/framework/knowledge-stats", s.handleKnowledgeStats)
	mux.HandleFunc("/api/framework/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/framework/generate-script", s.handleGenerateScript)
	mux.HandleFunc("/healthz", s.handleHealthz)
}

// RegisterMetricsHandler mounts /metrics for the given gatherer.
func RegisterMetricsHandler(mux *http.ServeMux, g prometheus.Gatherer) {
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

// StatsResponse is the JSON response for knowledge-stats and analyze.
type StatsResponse struct {
	Success bool             `json:"success"`
	Stats   *framework.Stats `json:"stats,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// AnalyzeRequest is the JSON request body for POST /api/framework/analyze.
type AnalyzeRequest struct {
	FrameworkType string `json:"framework_type"`
	Force         bool   `json:"force"`
}

// GenerateScriptResponse is the JSON response for generate-script.
type GenerateScriptResponse struct {
	Success bool            `json:"success"`
	Result  *GenerateResult `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// handleKnowledgeStats handles GET /api/framework/knowledge-stats
func (s *Service) handleKnowledgeStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ft, err := framework.ParseType(r.URL.Query().Get("framework_type"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, StatsResponse{Error: err.Error()})
		return
	}

	stats, err := s.KnowledgeStats(r.Context(), ft)
	if err != nil {
		s.logger.Error("Failed to read knowledge stats", "framework", ft, "error", err)
		writeJSON(w, http.StatusInternalServerError, StatsResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{Success: true, Stats: stats})
}

// handleAnalyze handles POST /api/framework/analyze
func (s *Service) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, StatsResponse{Error: "invalid JSON request body"})
		return
	}

	ft, err := framework.ParseType(req.FrameworkType)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, StatsResponse{Error: err.Error()})
		return
	}

	stats, err := s.Analyze(r.Context(), ft, req.Force)
	if err != nil {
		if errors.Is(err, knowledge.ErrAnalysisInProgress) {
			writeJSON(w, http.StatusConflict, StatsResponse{Error: err.Error()})
			return
		}
		s.logger.Error("Analysis failed", "framework", ft, "error", err)
		writeJSON(w, http.StatusInternalServerError, StatsResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{Success: true, Stats: stats})
}

// handleGenerateScript handles POST /api/framework/generate-script
func (s *Service) handleGenerateScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, GenerateScriptResponse{Error: "invalid JSON request body"})
		return
	}

	if req.Description == "" || req.TestName == "" {
		writeJSON(w, http.StatusBadRequest, GenerateScriptResponse{Error: "description and test_name are required"})
		return
	}
	if !req.FrameworkType.IsValid() {
		writeJSON(w, http.StatusBadRequest, GenerateScriptResponse{Error: "unknown framework_type"})
		return
	}

	result, err := s.GenerateScript(r.Context(), req)
	if err != nil {
		var genErr *generator.GenerationError
		if errors.As(err, &genErr) {
			s.logger.Error("Generation failed", "framework", req.FrameworkType, "reason", genErr.Reason)
			writeJSON(w, http.StatusBadGateway, GenerateScriptResponse{Error: genErr.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, GenerateScriptResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, GenerateScriptResponse{Success: true, Result: result})
}

// handleHealthz handles GET /healthz
func (s *Service) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
