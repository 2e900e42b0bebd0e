// Package health probes the upstream CMS origins the gateway depends on.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds health check configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Target is one upstream to probe.
type Target struct {
	Name string
	URL  string
}

// Status values.
const (
	StatusUnknown  = "unknown"
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// TargetStatus is the last known state of a target.
type TargetStatus struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	FailCount int       `json:"fail_count"`
	CheckedAt time.Time `json:"checked_at,omitempty"`
}

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(target string, success bool)

// HealthChecker runs periodic probes against a fixed set of targets.
type HealthChecker struct {
	targets    []Target
	httpClient *http.Client
	cfg        Config
	onMetrics  MetricsRecordFunc
	logger     *zap.Logger

	mu     sync.Mutex
	status map[string]*TargetStatus
}

// New creates a new HealthChecker. Targets with an empty URL are skipped and
// duplicate URLs are probed once.
func New(targets []Target, cfg Config, logger *zap.Logger) *HealthChecker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &HealthChecker{
		httpClient: &http.Client{Timeout: cfg.ProbeTimeout},
		cfg:        cfg,
		logger:     logger,
		status:     make(map[string]*TargetStatus),
	}
	seen := make(map[string]bool)
	for _, t := range targets {
		if t.URL == "" || seen[t.URL] {
			continue
		}
		seen[t.URL] = true
		h.targets = append(h.targets, t)
		h.status[t.Name] = &TargetStatus{Name: t.Name, URL: t.URL, Status: StatusUnknown}
	}
	return h
}

// SetMetricsRecord configures the metrics recording callback.
func (h *HealthChecker) SetMetricsRecord(fn MetricsRecordFunc) {
	h.onMetrics = fn
}

// Start runs the check loop until ctx is cancelled. The first check runs
// immediately.
func (h *HealthChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		h.runOnce(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (h *HealthChecker) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.ProbeTimeout*2)
	defer cancel()
	h.CheckAll(ctx)
}

// CheckAll probes every target concurrently and updates their status.
func (h *HealthChecker) CheckAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, t := range h.targets {
		wg.Add(1)
		go func(target Target) {
			defer wg.Done()
			success := h.probeEndpoint(ctx, target.URL)
			if h.onMetrics != nil {
				h.onMetrics(target.Name, success)
			}
			h.record(target, success)
		}(t)
	}
	wg.Wait()
}

func (h *HealthChecker) record(target Target, success bool) {
	h.mu.Lock()
	st := h.status[target.Name]
	prev := st.Status
	if success {
		st.FailCount = 0
		st.Status = StatusHealthy
	} else {
		st.FailCount++
		if st.FailCount >= h.cfg.FailThreshold {
			st.Status = StatusDegraded
		}
	}
	st.CheckedAt = time.Now().UTC()
	next, count := st.Status, st.FailCount
	h.mu.Unlock()

	switch {
	case prev == StatusDegraded && next == StatusHealthy:
		h.logger.Info("health: recovered", zap.String("target", target.Name))
	case prev != StatusDegraded && next == StatusDegraded:
		h.logger.Warn("health: degraded",
			zap.String("target", target.Name),
			zap.String("url", target.URL),
			zap.Int("fail_count", count),
		)
	}
}

// Snapshot returns the current status of every target in probe order.
func (h *HealthChecker) Snapshot() []TargetStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]TargetStatus, 0, len(h.targets))
	for _, t := range h.targets {
		out = append(out, *h.status[t.Name])
	}
	return out
}

// Ready reports whether no target is degraded. Targets that have not been
// probed yet count as ready.
func (h *HealthChecker) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, st := range h.status {
		if st.Status == StatusDegraded {
			return false
		}
	}
	return true
}

// probeEndpoint attempts HEAD then GET, returning true if any 2xx response.
func (h *HealthChecker) probeEndpoint(ctx context.Context, endpoint string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := h.httpClient.Do(req)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return true
		}
	}

	// Some WordPress hosts reject HEAD on the REST index.
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err = h.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
