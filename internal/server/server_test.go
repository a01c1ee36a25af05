package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/10mm-gms/blueprint/internal/config"
	"github.com/10mm-gms/blueprint/internal/middleware"
	"github.com/10mm-gms/blueprint/internal/mobileconfig"
	"github.com/10mm-gms/blueprint/internal/testutil"
	"github.com/10mm-gms/blueprint/internal/ui/layout"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                "127.0.0.1:0",
		WebPort:             "127.0.0.1:0",
		BaseURL:             "http://localhost:5173",
		Environment:         "development",
		ShutdownGracePeriod: 2 * time.Second,
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        5 * time.Second,
		IdleTimeout:         5 * time.Second,
		ProductName:         "Acme Portal",
		Layout:              layout.Defaults(),
		SecretKey:           "0123456789abcdef0123456789abcdef",
		JWTAlgorithm:        "HS256",
		AccessTokenExpire:   time.Hour,
		RefreshTokenExpire:  24 * time.Hour,
		AllowedDomain:       "10mm.net",
		SessionSecret:       "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		SessionMaxAge:       time.Hour,
	}
}

func testApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := newApp(context.Background(), cfg, nil, mobileconfig.Defaults(), testutil.Logger(t))
	require.NoError(t, err)
	return app
}

func serveHTTP(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestAPIRouter(t *testing.T) {
	app := testApp(t, testConfig())
	api := app.Server.api.Handler

	rec := serveHTTP(api, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serveHTTP(api, http.MethodGet, "/api/config/mobile")
	require.Equal(t, http.StatusOK, rec.Code)
	var mobile map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mobile))
	assert.Equal(t, "10mm.net", mobile["ALLOWED_DOMAIN"])
	assert.Equal(t, "http://localhost:8000", mobile["API_URL"])

	rec = serveHTTP(api, http.MethodGet, "/api/me")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serveHTTP(api, http.MethodGet, "/api/nothing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, rec.Body.String())

	rec = serveHTTP(api, http.MethodOptions, "/api/me")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serveHTTP(api, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/health",server="api",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestWebRouter(t *testing.T) {
	app := testApp(t, testConfig())
	web := app.Server.web.Handler

	rec := serveHTTP(web, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Acme Portal</title>")
	assert.Contains(t, rec.Body.String(), layout.HeaderTestID)

	rec = serveHTTP(web, http.MethodGet, "/assets/logo_colour_reverse.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))

	rec = serveHTTP(web, http.MethodHead, "/assets/logo_colour_reverse.svg")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = serveHTTP(web, http.MethodGet, "/admin")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, middleware.LoginPath, rec.Header().Get("Location"))

	rec = serveHTTP(web, http.MethodGet, "/admin/login")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serveHTTP(web, http.MethodGet, "/auth/google")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login?error=not_configured", rec.Header().Get("Location"))

	rec = serveHTTP(web, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")

	// The web server carries no /health route; readiness is probed on the API.
	rec = serveHTTP(web, http.MethodGet, "/health")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type denyAll struct{}

func (denyAll) Allow() bool { return false }

func TestRouters_RateLimited(t *testing.T) {
	app := testApp(t, testConfig())
	deps := RouterDeps{
		Handlers:   app.handlers,
		Logger:     testutil.Logger(t),
		APILimiter: denyAll{},
		WebLimiter: denyAll{},
	}

	assert.Equal(t, http.StatusTooManyRequests, serveHTTP(NewAPIRouter(deps), http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveHTTP(NewWebRouter(deps), http.MethodGet, "/").Code)
}

func TestNewApp_Tracer(t *testing.T) {
	app := testApp(t, testConfig())
	require.NotNil(t, app.Tracer)

	_, span := app.Tracer.Tracer("test").Start(context.Background(), "startup")
	assert.True(t, span.SpanContext().IsValid(), "request spans carry real trace ids")
	span.End()

	app.shutdownTracer()
}

func TestNewApp_RateLimitDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0
	app := testApp(t, cfg)

	for i := 0; i < 200; i++ {
		require.Equal(t, http.StatusOK, serveHTTP(app.Server.api.Handler, http.MethodGet, "/health").Code)
	}
}

func TestServe(t *testing.T) {
	app := testApp(t, testConfig())

	apiLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	webLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Server.Serve(ctx, apiLn, webLn) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}

	resp, err := client.Get("http://" + apiLn.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, err = client.Get("http://" + webLn.Addr().String() + "/")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.Contains(string(body), "<title>Acme Portal</title>"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("servers did not shut down")
	}

	_, err = client.Get("http://" + apiLn.Addr().String() + "/health")
	assert.Error(t, err)
}

func TestRun_ListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := testConfig()
	cfg.WebPort = busy.Addr().String()
	app := testApp(t, cfg)

	err = app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen web")
}

func TestListenAddr(t *testing.T) {
	assert.Equal(t, ":8000", listenAddr("8000"))
	assert.Equal(t, "127.0.0.1:0", listenAddr("127.0.0.1:0"))
	assert.Equal(t, ":5173", listenAddr(":5173"))
}
