package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HealthChecker is satisfied by any infrastructure dependency that exposes
// a Ping method (Database, RedisClient, EventBus and TemporalClient all qualify).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks holds the dependencies probed by the health endpoint.
// Database is required. Nil optional checkers are reported as "disabled".
type HealthChecks struct {
	Database  HealthChecker
	Redis     HealthChecker
	EventBus  HealthChecker
	Workflows HealthChecker
}

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
	EventBus  string `json:"event_bus"`
	Workflows string `json:"workflows"`
}

// HealthHandler returns an http.HandlerFunc that probes all registered
// HealthCheckers and reports degraded status if any of them fail.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		probe := func(c HealthChecker, out *string) {
			switch {
			case c == nil:
				*out = "disabled"
			case c.Ping(ctx) != nil:
				resp.Status = "degraded"
				*out = "unreachable"
			default:
				*out = "ok"
			}
		}

		probe(checks.Database, &resp.Database)
		if checks.Database == nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
		}
		probe(checks.Redis, &resp.Redis)
		probe(checks.EventBus, &resp.EventBus)
		probe(checks.Workflows, &resp.Workflows)

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}

// LiveHandler reports that the process is serving requests. It touches no
// dependency, so a database outage never restarts the pod.
func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// MountHealth registers /health and /health/ready (dependency checks) and
// /health/live (liveness only) on r.
func MountHealth(r chi.Router, checks HealthChecks) {
	ready := HealthHandler(checks)
	r.Get("/health", ready)
	r.Get("/health/ready", ready)
	r.Get("/health/live", LiveHandler())
}
