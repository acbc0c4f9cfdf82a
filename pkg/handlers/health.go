package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/LoganMeitz/votefinder/pkg/version"
)

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status  string            `json:"status"`
	Module  string            `json:"module,omitempty"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Checker is a dependency probed by the root health endpoint.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler creates a generic health check handler for a given module
func HealthHandler(moduleName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: "healthy", Module: moduleName})
	}
}

// DependencyHealthHandler reports "degraded" with 503 when any named dependency fails its ping.
// Nil checkers are reported as "disabled".
func DependencyHealthHandler(checks map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp := HealthResponse{
			Status:  "healthy",
			Version: version.String(),
			Checks:  make(map[string]string, len(checks)),
		}
		code := http.StatusOK
		for name, checker := range checks {
			if checker == nil {
				resp.Checks[name] = "disabled"
				continue
			}
			if err := checker.HealthCheck(ctx); err != nil {
				slog.Warn("Health check failed", "dependency", name, "error", err)
				resp.Checks[name] = "unhealthy"
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "healthy"
		}
		writeHealth(w, code, resp)
	}
}

func writeHealth(w http.ResponseWriter, code int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode health response", "error", err)
	}
}
