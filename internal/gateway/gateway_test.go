package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Dongwon38/wpyvr-sub000/internal/contact"
	"github.com/Dongwon38/wpyvr-sub000/internal/email"
	"github.com/Dongwon38/wpyvr-sub000/internal/gateway"
	"github.com/Dongwon38/wpyvr-sub000/internal/health"
	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── Stub CMS ─────────────────────────────────────────────────────────────

type stubCMS struct {
	*httptest.Server
	profileUpdates atomic.Int32
	lastAuth       atomic.Value
}

func newStubCMS(t *testing.T) *stubCMS {
	t.Helper()
	s := &stubCMS{}
	mux := http.NewServeMux()

	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		if slug := r.URL.Query().Get("slug"); slug != "" && slug != "hello" {
			json.NewEncoder(w).Encode([]any{})
			return
		}
		json.NewEncoder(w).Encode([]any{map[string]any{
			"id":      1,
			"slug":    "hello",
			"title":   map[string]any{"rendered": "Hello &amp; welcome"},
			"excerpt": map[string]any{"rendered": "<p>Intro</p>"},
			"content": map[string]any{"rendered": "<p>Body</p>"},
		}})
	})

	mux.HandleFunc("/wp-json/hub/v1/like", func(w http.ResponseWriter, r *http.Request) {
		s.lastAuth.Store(r.Header.Get("Authorization"))
		if r.Header.Get("Authorization") == "Bearer expired" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":"rest_forbidden","message":"token expired"}`))
			return
		}
		likes := 9
		if r.Method == http.MethodDelete {
			likes = 8
		}
		json.NewEncoder(w).Encode(map[string]any{"likes_count": likes, "comments_count": 1, "hot_score": 2.5})
	})

	mux.HandleFunc("/wp-json/wp/v2/comments", func(w http.ResponseWriter, r *http.Request) {
		s.lastAuth.Store(r.Header.Get("Authorization"))
		var in map[string]any
		json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":          31,
			"post":        in["post"],
			"author_name": in["author_name"],
			"content":     map[string]any{"rendered": in["content"]},
		})
	})

	mux.HandleFunc("/wp-json/custom-profile/v1/get", func(w http.ResponseWriter, r *http.Request) {
		vis := "public"
		if r.URL.Query().Get("user_id") == "2" {
			vis = "private"
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user_id":            r.URL.Query().Get("user_id"),
			"nickname":           "ann",
			"company":            "Acme",
			"position":           "Engineer",
			"profile_visibility": vis,
			"privacy_settings":   map[string]any{"show_company": true},
		})
	})

	mux.HandleFunc("/wp-json/custom-profile/v1/update", func(w http.ResponseWriter, r *http.Request) {
		s.profileUpdates.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"nickname_taken","message":"nickname taken"}`))
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

type recordingSender struct{ sent []email.Message }

func (r *recordingSender) Send(_ context.Context, msg email.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func newRouter(t *testing.T, base string, mutate ...func(*gateway.RouterConfig)) *gin.Engine {
	t.Helper()
	cms, err := client.New(base)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	cfg := gateway.RouterConfig{CMS: cms, Logger: zap.NewNop()}
	for _, m := range mutate {
		m(&cfg)
	}
	return gateway.NewRouter(cfg)
}

func do(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

// ── Infrastructure ───────────────────────────────────────────────────────

func TestHealthz(t *testing.T) {
	r := newRouter(t, "http://127.0.0.1:1")
	w := do(r, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK || decode(t, w)["status"] != "ok" {
		t.Errorf("healthz = %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing security headers")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id")
	}
}

func TestRequestID_propagatesValidID(t *testing.T) {
	r := newRouter(t, "http://127.0.0.1:1")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "5b0c2f9e-6a55-4a8e-9a51-3f7f5c1f2b11")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "5b0c2f9e-6a55-4a8e-9a51-3f7f5c1f2b11" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func TestReadyz_reportsDegradedUpstream(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	checker := health.New([]health.Target{{Name: "cms", URL: down.URL}}, health.Config{FailThreshold: 1}, nil)
	r := newRouter(t, down.URL, func(c *gateway.RouterConfig) { c.Health = checker })

	if w := do(r, http.MethodGet, "/readyz", "", nil); w.Code != http.StatusOK {
		t.Errorf("readyz before probing = %d", w.Code)
	}
	checker.CheckAll(context.Background())
	w := do(r, http.MethodGet, "/readyz", "", nil)
	if w.Code != http.StatusServiceUnavailable || decode(t, w)["status"] != "degraded" {
		t.Errorf("readyz = %d %s", w.Code, w.Body.String())
	}
}

func TestRateLimiter(t *testing.T) {
	r := newRouter(t, "http://127.0.0.1:1", func(c *gateway.RouterConfig) { c.RateLimitRPS = 1 })
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(r, http.MethodGet, "/healthz", "", nil).Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want burst of 2 then 429", codes)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newRouter(t, "http://127.0.0.1:1")
	do(r, http.MethodGet, "/healthz", "", nil)
	w := do(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "wpyvr_requests_total") {
		t.Errorf("metrics = %d", w.Code)
	}
}

// ── Reads ────────────────────────────────────────────────────────────────

func TestListPosts(t *testing.T) {
	cms := newStubCMS(t)
	w := do(newRouter(t, cms.URL), http.MethodGet, "/api/v1/posts?per_page=500", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	posts := body["posts"].([]any)
	if body["count"].(float64) != 1 || posts[0].(map[string]any)["title"] != "Hello & welcome" {
		t.Errorf("body = %v", body)
	}
}

func TestGetPost(t *testing.T) {
	cms := newStubCMS(t)
	r := newRouter(t, cms.URL)
	if w := do(r, http.MethodGet, "/api/v1/posts/hello", "", nil); w.Code != http.StatusOK {
		t.Errorf("existing post = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/posts/missing", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing post = %d", w.Code)
	}
}

func TestReads_degradeWhenCMSDown(t *testing.T) {
	r := newRouter(t, "http://127.0.0.1:1")
	for _, path := range []string{"/api/v1/posts", "/api/v1/events", "/api/v1/hub", "/api/v1/members", "/api/v1/categories"} {
		w := do(r, http.MethodGet, path, "", nil)
		if w.Code != http.StatusOK || decode(t, w)["count"].(float64) != 0 {
			t.Errorf("%s = %d %s", path, w.Code, w.Body.String())
		}
	}
}

func TestListCategoryPosts_badID(t *testing.T) {
	r := newRouter(t, "http://127.0.0.1:1")
	if w := do(r, http.MethodGet, "/api/v1/categories/abc/posts", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

// ── Mutations ────────────────────────────────────────────────────────────

func TestLike_anonymousReachesCMS(t *testing.T) {
	cms := newStubCMS(t)
	w := do(newRouter(t, cms.URL), http.MethodPost, "/api/v1/hub/11/like", "", nil)
	if w.Code != http.StatusOK || decode(t, w)["likes_count"].(float64) != 9 {
		t.Errorf("anonymous like = %d %s", w.Code, w.Body.String())
	}
	if got := cms.lastAuth.Load(); got != "" {
		t.Errorf("forwarded Authorization = %q, want none", got)
	}
}

func TestSubmitComment_anonymous(t *testing.T) {
	cms := newStubCMS(t)
	body := map[string]any{"content": "Great read", "author_name": "Guest"}
	w := do(newRouter(t, cms.URL), http.MethodPost, "/api/v1/hub/11/comments", "", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("anonymous comment = %d %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["id"].(float64) != 31 || got["post_id"].(float64) != 11 || got["author_name"] != "Guest" {
		t.Errorf("comment = %v", got)
	}
	if auth := cms.lastAuth.Load(); auth != "" {
		t.Errorf("forwarded Authorization = %q, want none", auth)
	}
}

func TestLike_returnsServerCounters(t *testing.T) {
	cms := newStubCMS(t)
	r := newRouter(t, cms.URL)

	w := do(r, http.MethodPost, "/api/v1/hub/11/like", "jwt-1", nil)
	if w.Code != http.StatusOK || decode(t, w)["likes_count"].(float64) != 9 {
		t.Errorf("like = %d %s", w.Code, w.Body.String())
	}
	if got := cms.lastAuth.Load(); got != "Bearer jwt-1" {
		t.Errorf("forwarded Authorization = %v", got)
	}

	w = do(r, http.MethodDelete, "/api/v1/hub/11/like", "jwt-1", nil)
	if w.Code != http.StatusOK || decode(t, w)["likes_count"].(float64) != 8 {
		t.Errorf("unlike = %d %s", w.Code, w.Body.String())
	}
}

func TestLike_unauthorizedPassesThrough(t *testing.T) {
	cms := newStubCMS(t)
	w := do(newRouter(t, cms.URL), http.MethodPost, "/api/v1/hub/11/like", "expired", nil)
	if w.Code != http.StatusUnauthorized || decode(t, w)["error"] != "token expired" {
		t.Errorf("status = %d %s", w.Code, w.Body.String())
	}
}

func TestLike_badPostID(t *testing.T) {
	cms := newStubCMS(t)
	if w := do(newRouter(t, cms.URL), http.MethodPost, "/api/v1/hub/zero/like", "jwt", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestUpdateProfile_backendMessage(t *testing.T) {
	cms := newStubCMS(t)
	w := do(newRouter(t, cms.URL), http.MethodPut, "/api/v1/profile", "jwt", map[string]any{"nickname": "ann"})
	body := decode(t, w)
	if w.Code != http.StatusBadRequest || body["error"] != "nickname taken" || body["code"] != "nickname_taken" {
		t.Errorf("status = %d body = %v", w.Code, body)
	}
}

func TestUpdateProfile_validatesLocally(t *testing.T) {
	cms := newStubCMS(t)
	w := do(newRouter(t, cms.URL), http.MethodPut, "/api/v1/profile", "jwt", map[string]any{"nickname": "  "})
	body := decode(t, w)
	if w.Code != http.StatusBadRequest || body["field"] != "nickname" {
		t.Errorf("status = %d body = %v", w.Code, body)
	}
	if cms.profileUpdates.Load() != 0 {
		t.Error("invalid profile reached the backend")
	}
}

func TestGetProfile_publicViewIsGated(t *testing.T) {
	cms := newStubCMS(t)
	r := newRouter(t, cms.URL)

	w := do(r, http.MethodGet, "/api/v1/profile/1", "jwt", nil)
	body := decode(t, w)
	if w.Code != http.StatusOK || body["company"] != "Acme" || body["position"] != "" {
		t.Errorf("public profile = %d %v", w.Code, body)
	}

	if w := do(r, http.MethodGet, "/api/v1/profile/2", "jwt", nil); w.Code != http.StatusNotFound {
		t.Errorf("private profile = %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/v1/profile", "jwt", nil)
	if w.Code != http.StatusOK || decode(t, w)["position"] != "Engineer" {
		t.Errorf("own profile = %d %s", w.Code, w.Body.String())
	}
}

// ── Contact ──────────────────────────────────────────────────────────────

func TestContact(t *testing.T) {
	rec := &recordingSender{}
	svc := contact.NewService(rec, "hello@wpyvr.org", nil)
	r := newRouter(t, "http://127.0.0.1:1", func(c *gateway.RouterConfig) { c.Contact = svc })

	w := do(r, http.MethodPost, "/api/v1/contact", "", map[string]any{
		"name": "Ann", "email": "ann@example.com", "message": "Hi there",
	})
	if w.Code != http.StatusAccepted || len(rec.sent) != 1 {
		t.Fatalf("status = %d sent = %d", w.Code, len(rec.sent))
	}

	w = do(r, http.MethodPost, "/api/v1/contact", "", map[string]any{
		"name": "Ann", "email": "nope", "message": "Hi",
	})
	if w.Code != http.StatusBadRequest || decode(t, w)["field"] != "email" {
		t.Errorf("invalid email = %d %s", w.Code, w.Body.String())
	}
	if len(rec.sent) != 1 {
		t.Error("invalid submission was sent")
	}
}

func TestContact_notMountedWithoutService(t *testing.T) {
	r := newRouter(t, "http://127.0.0.1:1")
	if w := do(r, http.MethodPost, "/api/v1/contact", "", map[string]any{}); w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}
