package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/10mm-gms/blueprint/internal/auth"
	"github.com/10mm-gms/blueprint/internal/middleware"
	blueprinttest "github.com/10mm-gms/blueprint/internal/testutil"
)

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func okHandler(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := chi.NewRouter()
	r.Use(middleware.Logger(zap.New(core)))
	r.Get("/teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/teapot", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, len("short and stout"), fields["size"])
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(zap.New(core)))
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panic recovered", logs.All()[0].Message)
}

func TestRecovery_NoPanicNoLog(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(blueprinttest.Logger(t)))
	r.Get("/", okHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fixedLimiter struct{ allow bool }

func (f fixedLimiter) Allow() bool { return f.allow }

func TestRateLimit(t *testing.T) {
	blocked := middleware.RateLimit(fixedLimiter{allow: false})(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	blocked.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	allowed := middleware.RateLimit(fixedLimiter{allow: true})(http.HandlerFunc(okHandler))
	rec = httptest.NewRecorder()
	allowed.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_TokenBucket(t *testing.T) {
	assert.Nil(t, middleware.NewTokenBucket(0, 10))

	h := middleware.RateLimit(middleware.NewTokenBucket(0.001, 2))(http.HandlerFunc(okHandler))

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = rec.Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_Disabled(t *testing.T) {
	h := middleware.RateLimit(nil)(http.HandlerFunc(okHandler))
	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCORS(t *testing.T) {
	h := middleware.CORS(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/api/me", nil)
	req.Header.Set("Origin", "http://localhost:19006")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Values("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func newSessionStore(t *testing.T, domain string) *auth.SessionStore {
	t.Helper()
	store, err := auth.NewSessionStore(testSecret, auth.SessionOptions{MaxAge: time.Hour, AllowedDomain: domain})
	require.NoError(t, err)
	return store
}

func sessionCookie(t *testing.T, store *auth.SessionStore, email string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := store.Start(rec, &auth.SessionData{Email: email})
	require.NoError(t, err)
	return rec.Result().Cookies()[0]
}

func TestRequireAuth(t *testing.T) {
	store := newSessionStore(t, "10mm.net")

	r := chi.NewRouter()
	r.Use(middleware.Session(store))
	r.With(middleware.RequireAuth).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(middleware.GetSession(r.Context()).Email))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, middleware.LoginPath, rec.Header().Get("Location"))
	assert.Empty(t, rec.Result().Cookies(), "no cookie to clear")

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(sessionCookie(t, store, "alice@10mm.net"))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@10mm.net", rec.Body.String())
}

func TestSession_ClearsRejectedCookie(t *testing.T) {
	issued := sessionCookie(t, newSessionStore(t, "10mm.net"), "alice@10mm.net")

	tests := map[string]*http.Cookie{
		"outside narrowed domain": issued,
		"tampered":                {Name: auth.SessionCookieName, Value: issued.Value + "x"},
	}

	r := chi.NewRouter()
	r.Use(middleware.Session(newSessionStore(t, "staff.10mm.net")))
	r.With(middleware.RequireAuth).Get("/admin", okHandler)

	for name, cookie := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			cleared := rec.Result().Cookies()
			require.Len(t, cleared, 1)
			assert.Equal(t, auth.SessionCookieName, cleared[0].Name)
			assert.Equal(t, -1, cleared[0].MaxAge)
		})
	}
}

func TestRequireBearer(t *testing.T) {
	issuer, err := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", "HS256", time.Hour, time.Hour)
	require.NoError(t, err)

	h := middleware.RequireBearer(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(middleware.GetClaims(r.Context()).Email))
	}))

	access, err := issuer.CreateAccessToken(&auth.SessionData{Email: "alice@10mm.net"}, 0)
	require.NoError(t, err)
	refresh, err := issuer.CreateRefreshToken(&auth.SessionData{Email: "alice@10mm.net"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + access, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized},
		{"valid", "Bearer " + access, http.StatusOK},
		{"lowercase scheme", "bearer " + access, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "alice@10mm.net", rec.Body.String())
			} else {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(metrics.Handler("web"))
	r.Get("/pages/{slug}", okHandler)

	for _, path := range []string{"/pages/a", "/pages/b", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	expected := `
# HELP http_requests_total HTTP requests processed, by server, method, route and status.
# TYPE http_requests_total counter
http_requests_total{method="GET",route="/pages/{slug}",server="web",status="200"} 2
http_requests_total{method="GET",route="unmatched",server="web",status="404"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_requests_total"))
}

func TestTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var inHandler trace.SpanContext
	r := chi.NewRouter()
	r.Use(middleware.Tracing("api", tp))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		inHandler = trace.SpanContextFromContext(r.Context())
		okHandler(w, r)
	})
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, inHandler.IsValid(), "handler should see the request span")

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	health := spans[0]
	assert.Equal(t, "api GET /health", health.Name())
	assert.Equal(t, trace.SpanKindServer, health.SpanKind())
	assert.Equal(t, inHandler.SpanID(), health.SpanContext().SpanID())
	assert.Contains(t, health.Attributes(), attribute.String("http.route", "/health"))
	assert.Contains(t, health.Attributes(), attribute.Int("http.response.status_code", http.StatusOK))
	assert.Equal(t, codes.Unset, health.Status().Code)

	item := spans[1]
	assert.Equal(t, "api GET /items/{id}", item.Name())
	assert.Contains(t, item.Attributes(), attribute.String("http.route", "/items/{id}"))
	assert.Equal(t, codes.Error, item.Status().Code)
	assert.Equal(t, "502", item.Status().Description)
}

func TestTracing_ContinuesTraceparent(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	h := middleware.Tracing("web", tp)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
}

func TestTracing_NilProvider(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.Tracing("api", nil))
	r.Get("/health", okHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestLogger_TraceID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := chi.NewRouter()
	r.Use(middleware.Tracing("api", tp))
	r.Use(middleware.Logger(zap.New(core)))
	r.Get("/", okHandler)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, 1, logs.Len())
	traceID, ok := logs.All()[0].ContextMap()["trace_id"].(string)
	require.True(t, ok)
	assert.Len(t, traceID, 32)
}
