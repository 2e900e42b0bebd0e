package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// ── Tests ────────────────────────────────────────────────────────────────

func TestProbeEndpoint_success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := New(nil, Config{ProbeTimeout: 5 * time.Second}, zap.NewNop())
	if !checker.probeEndpoint(context.Background(), srv.URL) {
		t.Error("expected probe to succeed")
	}
}

func TestProbeEndpoint_getFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := New(nil, Config{ProbeTimeout: 5 * time.Second}, zap.NewNop())
	if !checker.probeEndpoint(context.Background(), srv.URL) {
		t.Error("expected GET fallback to succeed")
	}
}

func TestProbeEndpoint_failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	checker := New(nil, Config{ProbeTimeout: 5 * time.Second}, zap.NewNop())
	if checker.probeEndpoint(context.Background(), srv.URL) {
		t.Error("expected probe to fail")
	}
}

func TestNew_skipsEmptyAndDuplicateTargets(t *testing.T) {
	checker := New([]Target{
		{Name: "cms", URL: "http://cms.example.org/wp-json/"},
		{Name: "hub", URL: "http://cms.example.org/wp-json/"},
		{Name: "none", URL: ""},
	}, Config{}, nil)
	snap := checker.Snapshot()
	if len(snap) != 1 || snap[0].Name != "cms" || snap[0].Status != StatusUnknown {
		t.Errorf("Snapshot = %+v", snap)
	}
	if !checker.Ready() {
		t.Error("unprobed targets should count as ready")
	}
}

func TestCheckAll_degradesAfterThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var failures atomic.Int32
	checker := New([]Target{{Name: "cms", URL: srv.URL}}, Config{
		ProbeTimeout:  5 * time.Second,
		FailThreshold: 3,
	}, zap.NewNop())
	checker.SetMetricsRecord(func(target string, success bool) {
		if target == "cms" && !success {
			failures.Add(1)
		}
	})

	for i := 0; i < 2; i++ {
		checker.CheckAll(context.Background())
	}
	if !checker.Ready() {
		t.Error("should stay ready below the threshold")
	}

	checker.CheckAll(context.Background())
	if checker.Ready() {
		t.Error("expected not ready after threshold")
	}
	if st := checker.Snapshot()[0]; st.Status != StatusDegraded || st.FailCount != 3 {
		t.Errorf("status = %+v", st)
	}
	if failures.Load() != 3 {
		t.Errorf("metrics recorded %d failures", failures.Load())
	}
}

func TestCheckAll_recoversOnSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Each failed probe makes a HEAD and a GET request.
		if calls.Add(1) <= 6 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := New([]Target{{Name: "hub", URL: srv.URL}}, Config{
		ProbeTimeout:  5 * time.Second,
		FailThreshold: 3,
	}, zap.NewNop())

	for i := 0; i < 4; i++ {
		checker.CheckAll(context.Background())
	}

	if st := checker.Snapshot()[0]; st.Status != StatusHealthy || st.FailCount != 0 {
		t.Errorf("expected healthy after recovery, got %+v", st)
	}
	if !checker.Ready() {
		t.Error("expected ready after recovery")
	}
}

func TestStart_stopsOnCancel(t *testing.T) {
	var probes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes.Add(1)
	}))
	defer srv.Close()

	checker := New([]Target{{Name: "cms", URL: srv.URL}}, Config{CheckInterval: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		checker.Start(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for probes.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first probe never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
