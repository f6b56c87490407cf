// Package health backs the service's /livez and /readyz endpoints.
//
// Each registered probe runs in its own background goroutine at a fixed
// interval. Probes use consecutive failure/success thresholds, in the manner
// of Kubernetes probe configuration, so a single slow database ping does not
// flap the service out of rotation: a probe flips to unhealthy only after
// failureThreshold consecutive failures and recovers after successThreshold
// consecutive passes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports the health of one component. It returns nil when the
// component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

const (
	defaultFailureThreshold = 3
	defaultSuccessThreshold = 1
)

// probe holds the configuration and runtime state for a single check.
//
// Concurrency model: run() is called from exactly one goroutine (the ticker),
// so the consecutive counters need no synchronization. The healthy flag and
// lastErr are read by HTTP handlers from arbitrary goroutines and use atomics.
type probe struct {
	name             string
	timeout          time.Duration
	fn               CheckFunc
	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	// counters are only touched from the single run() goroutine.
	consecutiveFails int
	consecutiveOK    int
}

func newProbe(name string, timeout time.Duration, fn CheckFunc) *probe {
	p := &probe{
		name:             name,
		timeout:          timeout,
		fn:               fn,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
	}
	// Healthy until proven otherwise, so registration never flaps readiness.
	p.healthy.Store(true)
	return p
}

func (p *probe) isHealthy() bool {
	return p.healthy.Load()
}

// getLastError returns the most recent error from this probe, or nil.
func (p *probe) getLastError() error {
	if e := p.lastErr.Load(); e != nil {
		return *e
	}
	return nil
}

// run executes the probe once and updates thresholds accordingly.
// Must be called from a single goroutine.
func (p *probe) run(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.fn(probeCtx)
	p.lastErr.Store(&err)

	if err != nil {
		p.consecutiveOK = 0
		p.consecutiveFails++
		if p.consecutiveFails >= p.failureThreshold {
			p.healthy.Store(false)
		}
	} else {
		p.consecutiveFails = 0
		p.consecutiveOK++
		if p.consecutiveOK >= p.successThreshold {
			p.healthy.Store(true)
		}
	}
}

// Health manages the service's liveness and readiness probes.
type Health struct {
	ready atomic.Bool

	// mu protects the probe slices and cancel. Held during registration
	// (before Start) and in Start/Stop; HTTP handlers snapshot the slices
	// under RLock and release before reading probe state.
	mu              sync.RWMutex
	livenessChecks  []*probe
	readinessChecks []*probe
	cancel          context.CancelFunc
}

// New creates a Health service. It starts not ready; call SetReady(true)
// once initialization (pool creation, migrations) has finished.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness probe: is the process itself still
// functioning (goroutine count, GC pauses).
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.livenessChecks = append(h.livenessChecks, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a readiness probe: can the service serve
// traffic right now (database connectivity).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readinessChecks = append(h.readinessChecks, newProbe(name, timeout, check))
}

// Start launches one background goroutine per registered probe, each running
// at the given interval. Call once, after all probes are registered.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, 0, len(h.livenessChecks)+len(h.readinessChecks))
	probes = append(probes, h.livenessChecks...)
	probes = append(probes, h.readinessChecks...)
	h.mu.Unlock()

	for _, p := range probes {
		go runProbe(ctx, p, interval)
	}
}

// runProbe periodically executes a single probe until the context is cancelled.
func runProbe(ctx context.Context, p *probe, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start.
	p.run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

// SetReady sets the manual readiness gate. The server calls it with true once
// initialization completes and with false at the start of graceful shutdown
// so load balancers stop routing new traffic.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service can serve traffic: the manual gate is
// open AND every readiness probe is currently passing.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}

	h.mu.RLock()
	probes := h.readinessChecks
	h.mu.RUnlock()

	for _, p := range probes {
		if !p.isHealthy() {
			return false
		}
	}
	return true
}

// Stop cancels all background probe goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// statusResponse is the JSON body served by both endpoints.
type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 with {"status":"ok"} while all liveness
// probes pass, 503 with per-probe failure messages otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	probes := make([]*probe, len(h.livenessChecks))
	copy(probes, h.livenessChecks)
	h.mu.RUnlock()

	writeResponse(w, collectFailures(probes))
}

// ReadyEndpoint serves /readyz: 200 only when the manual gate is open and
// every readiness probe passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	ready := h.ready.Load()

	h.mu.RLock()
	probes := make([]*probe, len(h.readinessChecks))
	copy(probes, h.readinessChecks)
	h.mu.RUnlock()

	failures := collectFailures(probes)
	if !ready {
		failures["_readiness"] = "service is not ready"
	}
	writeResponse(w, failures)
}

// collectFailures maps probe name to failure message for every unhealthy
// probe, using the stored last error rather than re-running the probe.
func collectFailures(probes []*probe) map[string]string {
	failures := make(map[string]string)
	for _, p := range probes {
		if !p.isHealthy() {
			if err := p.getLastError(); err != nil {
				failures[p.name] = err.Error()
			} else {
				failures[p.name] = "check is unhealthy"
			}
		}
	}
	return failures
}

func writeResponse(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	status := http.StatusOK

	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		status = http.StatusServiceUnavailable
	}

	w.WriteHeader(status)

	// Encode errors past this point cannot change the status code; they only
	// happen when the client has gone away.
	_ = json.NewEncoder(w).Encode(resp)
}
