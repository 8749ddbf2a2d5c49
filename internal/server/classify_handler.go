package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/socraticlabs/elenchus/internal/audit"
	"github.com/socraticlabs/elenchus/internal/engine"
	"github.com/socraticlabs/elenchus/internal/pattern"
	"github.com/socraticlabs/elenchus/internal/report"
	"github.com/socraticlabs/elenchus/internal/segment"
)

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Verdict            string             `json:"verdict"`
	Matches            []pattern.Match    `json:"matches"`
	CategoryCounts     map[string]int     `json:"category_counts"`
	SuggestedQuestions []string           `json:"suggested_questions"`
	Scores             map[string]float32 `json:"scores,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	projectID := ""
	if s.auth.Required() {
		key := bearerToken(r)
		proj, ok := s.auth.Lookup(key)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key", "auth_error")
			return
		}
		projectID = proj.ID
	}

	eng := s.engineForProject(projectID)

	// bound the body read by the engine's own input limit plus JSON overhead
	r.Body = http.MaxBytesReader(w, r.Body, int64(eng.MaxInputLength())+4096)

	var reqBody classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body exceeds input limit", "input_too_large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body", "bad_request")
		return
	}

	start := time.Now()
	rep, err := eng.Classify(reqBody.Text)
	if err != nil {
		s.writeClassifyError(w, err)
		return
	}
	duration := time.Since(start)

	var scores map[string]float32
	if s.assist != nil {
		assistStart := time.Now()
		if res, assistErr := s.assist.Score(reqBody.Text); assistErr == nil {
			scores = res.Scores
			s.telemetry.RecordMLAssist(float64(time.Since(assistStart)) / float64(time.Millisecond))
		} else {
			log.Printf("ml assist scoring failed: %v", assistErr)
		}
	}

	s.emitAudit(r, rep, reqBody.Text, projectID, scores, duration)
	s.recordTelemetry(rep, projectID, duration)

	resp := classifyResponse{
		Verdict:            string(rep.Verdict),
		Matches:            rep.Matches,
		CategoryCounts:     stringCounts(rep.CategoryCounts),
		SuggestedQuestions: rep.SuggestedQuestions,
		Scores:             scores,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("failed to write classify response: %v", err)
	}
}

func (s *Server) writeClassifyError(w http.ResponseWriter, err error) {
	var malformed *segment.MalformedInputError
	var tooLarge *engine.InputTooLargeError
	var unknownCat *report.UnknownCategoryError
	switch {
	case errors.As(err, &malformed):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), "malformed_input")
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error(), "input_too_large")
	case errors.As(err, &unknownCat):
		// configuration defect, should have been caught at startup
		log.Printf("classify failed on configuration defect: %v", err)
		writeError(w, http.StatusInternalServerError, "classifier misconfiguration", "config_error")
	default:
		log.Printf("classify failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "internal_error")
	}
}

func (s *Server) emitAudit(r *http.Request, rep *report.Report, text, projectID string, scores map[string]float32, duration time.Duration) {
	if s.emitter == nil {
		return
	}
	// re-tokenize for evidence excerpts; classification already proved the
	// input tokenizes
	segs, err := segment.Tokenize(text)
	if err != nil {
		return
	}
	s.emitter.Emit(r.Context(), audit.BuildEvent(audit.BuildParams{
		Report:     rep,
		Segments:   segs,
		ProjectID:  projectID,
		Source:     audit.SourceHTTP,
		Scores:     scores,
		InputBytes: len(text),
		Duration:   duration,
	}))
}

func (s *Server) recordTelemetry(rep *report.Report, projectID string, duration time.Duration) {
	counts := make(map[string]int, len(rep.CategoryCounts))
	for c, n := range rep.CategoryCounts {
		counts[string(c)] = n
	}
	s.telemetry.RecordClassification(
		string(rep.Verdict),
		projectID,
		audit.SourceHTTP,
		float64(duration)/float64(time.Millisecond),
		counts,
	)
}

func stringCounts(counts map[pattern.Category]int) map[string]int {
	out := make(map[string]int, len(counts))
	for c, n := range counts {
		out[string(c)] = n
	}
	return out
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg, Kind: kind})
}
