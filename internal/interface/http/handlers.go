// Package http implements the REST API of the learning analytics engine.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/application/command"
	"github.com/eduhub/eduhub-analytics/internal/application/query"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "EduHub Analytics API",
		"version":     "v1",
		"description": "Learning progress and analytics engine",
		"endpoints": map[string]string{
			"health":      "/health",
			"completions": "/api/v1/completions",
			"dashboard":   "/api/v1/students/{id}/dashboard",
			"leaderboard": "/api/v1/leaderboard",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION WRITE PATH
// ══════════════════════════════════════════════════════════════════════════════

// recordCompletionRequest is the wire format of a completion report.
type recordCompletionRequest struct {
	StudentID             string    `json:"student_id"`
	LessonID              string    `json:"lesson_id"`
	ProgressPercentage    float64   `json:"progress_percentage"`
	TimeSpentDeltaMinutes int       `json:"time_spent_delta_minutes"`
	QuizScore             *int      `json:"quiz_score,omitempty"`
	Timestamp             time.Time `json:"timestamp,omitempty"`
}

// handleRecordCompletion handles POST /api/v1/completions
func (s *Server) handleRecordCompletion(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordCompletionHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Completion handler not configured")
		return
	}

	var req recordCompletionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.RecordCompletionCommand{
		StudentID:             req.StudentID,
		LessonID:              req.LessonID,
		ProgressPercentage:    req.ProgressPercentage,
		TimeSpentDeltaMinutes: req.TimeSpentDeltaMinutes,
		QuizScore:             req.QuizScore,
		Timestamp:             req.Timestamp,
		CorrelationID:         getRequestID(r.Context()),
	}

	result, err := s.deps.RecordCompletionHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to record completion")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// resetCompletionRequest is the wire format of an administrative reset.
type resetCompletionRequest struct {
	StudentID string `json:"student_id"`
	LessonID  string `json:"lesson_id"`
	ResetBy   string `json:"reset_by"`
	Reason    string `json:"reason"`
}

// handleResetCompletion handles POST /api/v1/completions/reset
func (s *Server) handleResetCompletion(w http.ResponseWriter, r *http.Request) {
	if s.deps.ResetCompletionHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Reset handler not configured")
		return
	}

	var req resetCompletionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.ResetCompletionCommand{
		StudentID:     req.StudentID,
		LessonID:      req.LessonID,
		ResetBy:       req.ResetBy,
		Reason:        req.Reason,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.ResetCompletionHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to reset completion")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleResetDisabled answers reset requests when no admin keys are configured.
func (s *Server) handleResetDisabled(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, http.StatusForbidden, "reset_disabled", "Administrative reset is not enabled")
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// upsertProfileRequest is the wire format of a profile upsert.
type upsertProfileRequest struct {
	DisplayName string `json:"display_name"`
	Timezone    string `json:"timezone"`
}

// handleUpsertProfile handles PUT /api/v1/students/{id}/profile
func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	if s.deps.UpsertProfileHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Profile handler not configured")
		return
	}

	var req upsertProfileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.UpsertProfileCommand{
		StudentID:   r.PathValue("id"),
		DisplayName: req.DisplayName,
		Timezone:    req.Timezone,
	}

	result, err := s.deps.UpsertProfileHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to save profile")
		return
	}

	writeJSON(w, http.StatusOK, result.Profile)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS & PACING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetCourseProgress handles GET /api/v1/students/{id}/courses/{courseId}/progress
func (s *Server) handleGetCourseProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetCourseProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Progress handler not configured")
		return
	}

	q := query.GetCourseProgressQuery{
		StudentID:      r.PathValue("id"),
		CourseID:       r.PathValue("courseId"),
		IncludeModules: getQueryParamBool(r, "include_modules"),
		SkipCache:      getQueryParamBool(r, "skip_cache"),
	}

	result, err := s.deps.GetCourseProgressHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get course progress")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetPacing handles GET /api/v1/students/{id}/courses/{courseId}/pacing
func (s *Server) handleGetPacing(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetPacingHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Pacing handler not configured")
		return
	}

	q := query.GetPacingQuery{
		StudentID: r.PathValue("id"),
		CourseID:  r.PathValue("courseId"),
	}

	result, err := s.deps.GetPacingHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get pacing")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK, GAMIFICATION & CATEGORY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetStreak handles GET /api/v1/students/{id}/streak
func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetStreakHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Streak handler not configured")
		return
	}

	q := query.GetStreakQuery{StudentID: r.PathValue("id")}

	result, err := s.deps.GetStreakHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get streak")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetGamification handles GET /api/v1/students/{id}/gamification
func (s *Server) handleGetGamification(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetGamificationHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Gamification handler not configured")
		return
	}

	q := query.GetGamificationQuery{
		StudentID:   r.PathValue("id"),
		IncludeRank: getQueryParamBool(r, "include_rank"),
	}

	result, err := s.deps.GetGamificationHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get gamification profile")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetCategoryPerformance handles GET /api/v1/students/{id}/categories
func (s *Server) handleGetCategoryPerformance(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetCategoryPerformanceHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Category handler not configured")
		return
	}

	q := query.GetCategoryPerformanceQuery{StudentID: r.PathValue("id")}

	result, err := s.deps.GetCategoryPerformanceHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get category performance")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD & LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetDashboard handles GET /api/v1/students/{id}/dashboard
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetDashboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Dashboard handler not configured")
		return
	}

	q := query.GetDashboardQuery{StudentID: r.PathValue("id")}

	result, err := s.deps.GetDashboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get dashboard")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetLeaderboard handles GET /api/v1/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	q := query.GetLeaderboardQuery{
		Limit:     getQueryParamInt(r, "limit", 10),
		StudentID: getQueryParam(r, "student_id", ""),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED HANDLER HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes a JSON request body, answering 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return false
	}

	return true
}

// writeDomainError maps domain errors onto HTTP status codes. Validation
// failures are the caller's fault, missing entities are 404, catalog
// unavailability is 503 so clients can back off and retry.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	switch {
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrInvalidID),
		errors.Is(err, shared.ErrValueOutOfRange),
		errors.Is(err, shared.ErrNegativeValue),
		errors.Is(err, shared.ErrEmptyValue),
		errors.Is(err, shared.ErrInvalidInput):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())

	case errors.Is(err, shared.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, shared.ErrServiceUnavailable), errors.Is(err, shared.ErrTimeout):
		s.logger.Warn(logMsg, logger.Err(err), logger.String("request_id", getRequestID(r.Context())))
		writeJSONError(w, http.StatusServiceUnavailable, "upstream_unavailable", "A dependency is temporarily unavailable")

	default:
		s.logger.Error(logMsg, logger.Err(err), logger.String("request_id", getRequestID(r.Context())))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
