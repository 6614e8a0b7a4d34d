package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MikeMC777/storefront/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	log.SetOutput(io.Discard)
}

func TestSession_MintsAndEchoes(t *testing.T) {
	r := gin.New()
	r.Use(Session(time.Hour))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, SessionID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	sid := w.Body.String()
	if _, err := uuid.Parse(sid); err != nil {
		t.Fatalf("minted sid is not a uuid: %q", sid)
	}
	if got := w.Header().Get(SessionHeader); got != sid {
		t.Fatalf("header sid=%q want %q", got, sid)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sid})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != sid {
		t.Fatalf("cookie sid not reused: %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() == "not-a-uuid" {
		t.Fatal("malformed session id was accepted")
	}
}

func TestAuthChain(t *testing.T) {
	v := auth.NewVerifier("k")
	admins := AdminCheckerFunc(func(_ context.Context, id string) (bool, error) {
		if id == "broken" {
			return false, errors.New("db down")
		}
		return id == "boss", nil
	})

	r := gin.New()
	r.Use(OptionalAuth(v))
	r.GET("/open", func(c *gin.Context) { c.String(http.StatusOK, Identity(c).UserID) })
	r.GET("/me", RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/admin", RequireAdmin(admins), func(c *gin.Context) { c.Status(http.StatusOK) })

	token := func(uid string) string {
		s, err := v.Sign(auth.Identity{UserID: uid}, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		return "Bearer " + s
	}

	tests := []struct {
		path, authz string
		want        int
	}{
		{"/open", "", http.StatusOK},
		{"/open", "Bearer junk", http.StatusOK},
		{"/me", "", http.StatusUnauthorized},
		{"/me", token("u1"), http.StatusOK},
		{"/admin", "", http.StatusUnauthorized},
		{"/admin", token("u1"), http.StatusForbidden},
		{"/admin", token("broken"), http.StatusServiceUnavailable},
		{"/admin", token("boss"), http.StatusOK},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.authz != "" {
			req.Header.Set("Authorization", tc.authz)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("%s authz=%q status=%d want %d body=%s", tc.path, tc.authz, w.Code, tc.want, w.Body.String())
		}
	}
}

func TestRequireAdmin_CheckerFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(io.Discard)

	v := auth.NewVerifier("k")
	admins := AdminCheckerFunc(func(context.Context, string) (bool, error) {
		return false, errors.New("connection refused")
	})
	r := gin.New()
	r.Use(RequestID(), OptionalAuth(v))
	r.GET("/admin", RequireAdmin(admins), func(c *gin.Context) { c.Status(http.StatusOK) })

	tok, err := v.Sign(auth.Identity{UserID: "u7"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503", w.Code)
	}
	got := buf.String()
	if !strings.Contains(got, "[http] rid=req-42 uid=u7") || !strings.Contains(got, "connection refused") {
		t.Fatalf("log line missing request id or cause: %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(0.001, 2).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes=%v", codes)
	}
}

func TestRequestID_Propagates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("X-Request-ID=%q", got)
	}
}
