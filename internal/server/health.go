package server

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

const readinessCheckTimeout = 2 * time.Second

// ReadinessCheck reports a dependency that must be usable before the server
// accepts tool calls.
type ReadinessCheck func(ctx context.Context) error

// HealthChecker serves /healthz and /readyz.
type HealthChecker struct {
	ready     atomic.Bool
	sc        *ServerContext
	startTime time.Time

	mu     sync.RWMutex
	checks map[string]ReadinessCheck
}

// NewHealthChecker returns a checker that starts out ready. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		sc:        sc,
		startTime: time.Now(),
		checks:    make(map[string]ReadinessCheck),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// AddCheck registers a named readiness check, replacing any check with the same name.
func (h *HealthChecker) AddCheck(name string, check ReadinessCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// HealthResponse is the JSON body of both endpoints.
type HealthResponse struct {
	Status     string            `json:"status"`
	Uptime     string            `json:"uptime,omitempty"`
	Generation string            `json:"generation,omitempty"`
	Checks     map[string]string `json:"checks,omitempty"`
}

// LivenessHandler returns an HTTP handler for the /healthz endpoint.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{
			Status:     healthStatusOK,
			Uptime:     time.Since(h.startTime).Truncate(time.Second).String(),
			Generation: h.generation(),
		})
	})
}

// ReadinessHandler returns an HTTP handler for the /readyz endpoint. Registered
// checks run concurrently and share one timeout.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"ready":    healthStatusOK,
			"shutdown": healthStatusOK,
		}
		if !h.ready.Load() {
			checks["ready"] = healthStatusNotReady
		}
		if h.sc != nil && h.sc.IsShutdown() {
			checks["shutdown"] = healthStatusShuttingDown
		}

		ctx, cancel := context.WithTimeout(r.Context(), readinessCheckTimeout)
		defer cancel()
		maps.Copy(checks, h.runChecks(ctx))

		resp := HealthResponse{Status: healthStatusOK, Generation: h.generation(), Checks: checks}
		code := http.StatusOK
		for _, result := range checks {
			if result != healthStatusOK {
				resp.Status = healthStatusNotReady
				code = http.StatusServiceUnavailable
				break
			}
		}
		writeHealth(w, code, resp)
	})
}

func (h *HealthChecker) runChecks(ctx context.Context) map[string]string {
	h.mu.RLock()
	checks := maps.Clone(h.checks)
	h.mu.RUnlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]string, len(checks))
	)
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := healthStatusOK
			if err := check(ctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

// generation is "enabled" when the server can run the full pipeline.
func (h *HealthChecker) generation() string {
	switch {
	case h.sc == nil:
		return ""
	case h.sc.HasPipeline():
		return "enabled"
	default:
		return "disabled"
	}
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
}

func writeHealth(w http.ResponseWriter, status int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
