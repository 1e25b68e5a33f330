package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"caseflow/internal/progress"
	"caseflow/internal/service"
	"caseflow/internal/timeline"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, code int, errCode, message string, log *zap.Logger) {
	log.Error("API error", zap.String("code", errCode), zap.String("message", message))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	resp := ErrorResponse{
		Error:   errCode,
		Message: message,
	}
	if errCode != "" {
		resp.Code = errCode
	}

	json.NewEncoder(w).Encode(resp)
}

// WriteServiceError maps a service error onto an HTTP response
func WriteServiceError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, service.ErrCaseNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error(), log)
	case errors.Is(err, service.ErrForbidden), errors.Is(err, progress.ErrPermissionDenied):
		WriteError(w, http.StatusForbidden, "forbidden", err.Error(), log)
	case errors.Is(err, service.ErrCaseClosed):
		WriteError(w, http.StatusConflict, "case_closed", err.Error(), log)
	case errors.Is(err, service.ErrIntakeIncomplete):
		WriteError(w, http.StatusConflict, "intake_incomplete", err.Error(), log)
	case errors.Is(err, progress.ErrPrerequisiteNotMet):
		WriteError(w, http.StatusConflict, "prerequisite_not_met", err.Error(), log)
	case errors.Is(err, timeline.ErrConfiguration):
		WriteError(w, http.StatusUnprocessableEntity, "invalid_configuration", err.Error(), log)
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", err.Error(), log)
	}
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// RequestLogger logs HTTP requests and responses
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip wrapping for WebSocket upgrades - they need direct access to ResponseWriter
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			// Wrap response writer to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)

			log.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", duration),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
