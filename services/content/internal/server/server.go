package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"brandcraft/internal/ratelimit"
	"brandcraft/internal/util"
	"brandcraft/pkg/domain"
	"brandcraft/pkg/governor"
	"brandcraft/pkg/workflow"
	"brandcraft/services/content/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	SubmitLimiter  *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
}

// Server exposes HTTP endpoints for the content pipeline.
type Server struct {
	app           *app.App
	submitLimiter *ratelimit.FixedWindowLimiter
	proxies       *util.TrustedProxies
	mux           *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:           cfg.App,
		submitLimiter: cfg.SubmitLimiter,
		proxies:       cfg.TrustedProxies,
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("content", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/profiles", s.handleProfiles)
	s.mux.HandleFunc("/profiles/", s.handleProfileByID)
	s.mux.HandleFunc("/workflows", s.handleWorkflows)

	s.mux.HandleFunc("/requests", s.handleRequests)
	s.mux.HandleFunc("/requests/", s.handleRequestByID)

	s.mux.HandleFunc("/usage/daily", s.handleDailyUsage)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var profile domain.BrandProfile
		if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		saved, err := s.app.SaveBrandProfile(r.Context(), profile)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	case http.MethodGet:
		orgID := strings.TrimSpace(r.URL.Query().Get("org"))
		if orgID == "" {
			writeError(w, http.StatusBadRequest, "org query parameter required")
			return
		}
		profiles, err := s.app.ListBrandProfiles(r.Context(), orgID)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profiles)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleProfileByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/profiles/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	profile, err := s.app.GetBrandProfile(r.Context(), id)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleWorkflows(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var wf domain.ApprovalWorkflow
		if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		saved, err := s.app.SaveApprovalWorkflow(r.Context(), wf)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	case http.MethodGet:
		orgID := strings.TrimSpace(r.URL.Query().Get("org"))
		if orgID == "" {
			writeError(w, http.StatusBadRequest, "org query parameter required")
			return
		}
		wf, err := s.app.GetApprovalWorkflow(r.Context(), orgID)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wf)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmit(w, r)
	case http.MethodGet:
		orgID := strings.TrimSpace(r.URL.Query().Get("org"))
		if orgID == "" {
			writeError(w, http.StatusBadRequest, "org query parameter required")
			return
		}
		reqs, err := s.app.ListRequests(r.Context(), orgID, 0)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reqs)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if s.submitLimiter != nil {
		ip := util.ClientIP(r, s.proxies)
		if !s.submitLimiter.Allow(ip) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
	}
	var in app.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req, jobs, err := s.app.SubmitRequest(r.Context(), in)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"request": req,
		"jobs":    jobs,
	})
}

// /requests/{id}, /requests/{id}/optimizations, /requests/{id}/decisions,
// /requests/{id}/cancel, /requests/{id}/publish
func (s *Server) handleRequestByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/requests/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		notFound(w, "not found")
		return
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		view, err := s.app.GetRequestStatus(r.Context(), id)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case "optimizations":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		details, err := s.app.ListOptimizations(r.Context(), id)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, details)
	case "decisions":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleDecision(w, r, id)
	case "cancel":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleCancel(w, r, id)
	case "publish":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		req, err := s.app.MarkPublished(r.Context(), id)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	default:
		notFound(w, "not found")
	}
}

type decisionRequest struct {
	StepOrder  int    `json:"stepOrder"`
	ApproverID string `json:"approverId"`
	Decision   string `json:"decision"`
	Comments   string `json:"comments"`
	DelegateTo string `json:"delegateTo"`
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request, id string) {
	var body decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	decision := domain.Decision(body.Decision)
	switch decision {
	case domain.DecisionApproved, domain.DecisionRejected, domain.DecisionDelegated:
	default:
		writeError(w, http.StatusBadRequest, "invalid decision")
		return
	}
	req, records, err := s.app.Decide(r.Context(), id, workflow.DecisionInput{
		StepOrder:  body.StepOrder,
		ApproverID: body.ApproverID,
		Decision:   decision,
		Comments:   body.Comments,
		DelegateTo: body.DelegateTo,
	})
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"request":     req,
		"stepRecords": records,
	})
}

type cancelRequest struct {
	RequesterID string `json:"requesterId"`
	Reason      string `json:"reason"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, id string) {
	var body cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req, err := s.app.Cancel(r.Context(), id, body.RequesterID, body.Reason)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleDailyUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	orgID := strings.TrimSpace(q.Get("org"))
	provider := strings.TrimSpace(q.Get("provider"))
	if orgID == "" || provider == "" {
		writeError(w, http.StatusBadRequest, "org and provider query parameters required")
		return
	}
	date := time.Now().UTC()
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}
	summary, err := s.app.DailyUsage(r.Context(), orgID, provider, date)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	var verr *app.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, app.ErrRequestNotFound),
		errors.Is(err, app.ErrProfileNotFound),
		errors.Is(err, app.ErrWorkflowNotFound),
		errors.Is(err, workflow.ErrUnknownStep):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, workflow.ErrWorkflowViolation):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, governor.ErrQuotaExceeded), errors.Is(err, governor.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCodeForContent(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCodeForContent(status int, message string) string {
	switch {
	case strings.Contains(message, "brand profile not found"):
		return "CONTENT_PROFILE_NOT_FOUND"
	case strings.Contains(message, "request not found"):
		return "CONTENT_REQUEST_NOT_FOUND"
	case strings.Contains(message, "workflow violation") || strings.Contains(message, "illegal"):
		return "CONTENT_WORKFLOW_VIOLATION"
	case strings.Contains(message, "quota"):
		return "CONTENT_QUOTA_EXCEEDED"
	case strings.Contains(message, "rate limit") || message == "too many requests":
		return "CONTENT_RATE_LIMITED"
	case message == "invalid json body":
		return "CONTENT_INVALID_REQUEST"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case message == "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "CONTENT_INVALID_REQUEST"
	case http.StatusNotFound:
		return "CONTENT_NOT_FOUND"
	case http.StatusConflict:
		return "CONTENT_WORKFLOW_VIOLATION"
	case http.StatusTooManyRequests:
		return "CONTENT_RATE_LIMITED"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
