package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// RespondJSON sends a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// headers are already sent
		slog.Default().Error("encoding JSON response", "error", err)
	}
}

// RespondError sends a JSON error response and logs it to logger, or to the
// default logger when logger is nil.
func RespondError(w http.ResponseWriter, logger *slog.Logger, message string, status int) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("request failed", "status", status, "error", message)
	RespondJSON(w, status, map[string]string{"error": message})
}

// LatencyMiddleware logs the duration of each request
func LatencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Default().Info("request served", "method", r.Method, "path", r.URL.Path, "latency", time.Since(start))
	})
}
