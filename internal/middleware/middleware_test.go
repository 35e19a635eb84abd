package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"contracts-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type stubVerifier struct {
	claims *jwt.Claims
	err    error
	got    string
}

func (s *stubVerifier) Verify(token string) (*jwt.Claims, error) {
	s.got = token
	return s.claims, s.err
}

func newRouter(v TokenVerifier, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.NewNop()))
	m := NewAuthMiddleware(v)
	handlers := append([]gin.HandlerFunc{m.Auth()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, MustGetActor(c))
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuthSetsActor(t *testing.T) {
	v := &stubVerifier{claims: &jwt.Claims{
		Roles:            []string{"coach"},
		RegisteredClaims: jwtlib.RegisteredClaims{Subject: "staff-7"},
	}}
	r := newRouter(v)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "staff-7" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
	if v.got != "abc" {
		t.Fatalf("token = %q", v.got)
	}
}

func TestAuthRejects(t *testing.T) {
	r := newRouter(&stubVerifier{err: errors.New("expired")})

	for _, header := range []string{"", "Bearer expired", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d", header, w.Code)
		}
	}
}

func TestAuthTokenQueryFallback(t *testing.T) {
	v := &stubVerifier{claims: &jwt.Claims{RegisteredClaims: jwtlib.RegisteredClaims{Subject: "staff-1"}}}
	r := newRouter(v)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token=qs", nil))
	if w.Code != http.StatusOK || v.got != "qs" {
		t.Fatalf("got %d, token %q", w.Code, v.got)
	}
}

func TestRequireRole(t *testing.T) {
	v := &stubVerifier{claims: &jwt.Claims{
		Roles:            []string{"coach"},
		RegisteredClaims: jwtlib.RegisteredClaims{Subject: "staff-7"},
	}}
	m := NewAuthMiddleware(v)

	allowed := newRouter(v, m.RequireRole("admin", "coach"))
	denied := newRouter(v, m.RequireRole("admin"))

	for name, tc := range map[string]struct {
		r    *gin.Engine
		want int
	}{
		"allowed": {allowed, http.StatusOK},
		"denied":  {denied, http.StatusForbidden},
	} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer abc")
		w := httptest.NewRecorder()
		tc.r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", name, w.Code, tc.want)
		}
	}
}

func TestRecoveryReturns500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { MustGetActor(c) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://crm.example.com"}), LoggingMiddleware(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://crm.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://crm.example.com" {
		t.Fatalf("missing allow-origin header")
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected allow-origin for unknown origin")
	}
}
