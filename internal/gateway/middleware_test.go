package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":      "abc",
		"bearer  abc ":    "abc",
		"Basic dXNlcjpw":  "",
		"Bearer":          "",
		"":                "",
		"  Bearer x.y.z ": "x.y.z",
	}
	for header, want := range cases {
		if got := bearerToken(header); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestOptionalBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", optionalBearer(), func(c *gin.Context) {
		tok, set := c.Get(ctxBearerToken)
		c.JSON(http.StatusOK, gin.H{"token": tok, "set": set})
	})

	for header, want := range map[string]string{
		"":           `{"set":false,"token":null}`,
		"Bearer abc": `{"set":true,"token":"abc"}`,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Errorf("Authorization %q: %d %s", header, w.Code, w.Body.String())
		}
	}
}

func TestContainsWildcard(t *testing.T) {
	if !containsWildcard([]string{"https://a.org", " * "}) {
		t.Error("expected wildcard")
	}
	if containsWildcard([]string{"https://a.org"}) {
		t.Error("unexpected wildcard")
	}
}
