// Package e2e drives the running web application in a headless browser.
//
// The browser scenarios live behind the e2e build tag:
//
//	go test -tags e2e ./e2e/...
//
// Unless E2E_SERVER_COMMAND is set the servers must already be running.
package e2e

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Defaults for a local run against `blueprint serve`.
const (
	DefaultBaseURL      = "http://localhost:5173"
	DefaultHealthURL    = "http://localhost:8000/health"
	DefaultArtifactsDir = "test-results"
	DefaultProductName  = "PRODUCT_NAME"

	healthPollInterval = 250 * time.Millisecond
	serverStartTimeout = 2 * time.Minute
)

// Config controls one end-to-end run.
type Config struct {
	BaseURL       string
	HealthURL     string
	ProductName   string
	ArtifactsDir  string
	ServerCommand string
	Retries       int
	ReuseServer   bool
	CI            bool
}

// ConfigFromEnv reads the run configuration. CI runs retry twice and never
// reuse a server they did not start.
func ConfigFromEnv(lookup func(string) string) Config {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			return v
		}
		return fallback
	}

	ci := lookup("CI") != ""
	cfg := Config{
		BaseURL:       strings.TrimRight(get("E2E_BASE_URL", DefaultBaseURL), "/"),
		HealthURL:     get("E2E_HEALTH_URL", DefaultHealthURL),
		ProductName:   get("E2E_PRODUCT_NAME", get("PRODUCT_NAME", DefaultProductName)),
		ArtifactsDir:  get("E2E_ARTIFACTS_DIR", DefaultArtifactsDir),
		ServerCommand: get("E2E_SERVER_COMMAND", ""),
		CI:            ci,
		ReuseServer:   !ci,
	}
	if ci {
		cfg.Retries = 2
	}
	return cfg
}

// URL joins path onto the base URL.
func (c Config) URL(path string) string {
	return c.BaseURL + "/" + strings.TrimLeft(path, "/")
}

// Healthy reports whether url answers 2xx.
func Healthy(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// WaitForHealth polls url until it is healthy or ctx ends.
func WaitForHealth(ctx context.Context, client *http.Client, url string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if Healthy(ctx, client, url) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", url, ctx.Err())
		case <-ticker.C:
		}
	}
}

// ErrNoServer is returned when nothing is serving and no command was given to start it.
var ErrNoServer = errors.New("e2e: application is not running and E2E_SERVER_COMMAND is empty")

// StartServer makes sure the application is up. An already healthy server is
// reused when cfg allows it; otherwise ServerCommand is started through the
// shell. The returned stop func is always safe to call.
func StartServer(ctx context.Context, cfg Config, logger *zap.Logger) (stop func(), err error) {
	client := &http.Client{Timeout: 2 * time.Second}
	noop := func() {}

	if cfg.ReuseServer && Healthy(ctx, client, cfg.HealthURL) {
		logger.Info("reusing running server", zap.String("health_url", cfg.HealthURL))
		return noop, nil
	}
	if cfg.ServerCommand == "" {
		return noop, ErrNoServer
	}

	runCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(runCtx, "sh", "-c", cfg.ServerCommand)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.WaitDelay = 5 * time.Second
	if err := cmd.Start(); err != nil {
		cancel()
		return noop, fmt.Errorf("start server: %w", err)
	}
	logger.Info("started server", zap.String("command", cfg.ServerCommand), zap.Int("pid", cmd.Process.Pid))

	stop = func() {
		cancel()
		_ = cmd.Wait()
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, serverStartTimeout)
	defer waitCancel()
	if err := WaitForHealth(waitCtx, client, cfg.HealthURL, healthPollInterval); err != nil {
		stop()
		return noop, err
	}
	return stop, nil
}

// Attempt describes one try of a scenario.
type Attempt struct {
	Number int  // 0 for the first try
	Trace  bool // capture a trace on this try
}

// Retry runs fn up to retries+1 times and returns the last error. Tracing is
// switched on for the first retry only. onFailure sees every failed attempt.
func Retry(retries int, fn func(Attempt) error, onFailure func(Attempt, error)) error {
	var err error
	for i := 0; i <= retries; i++ {
		a := Attempt{Number: i, Trace: i == 1}
		if err = fn(a); err == nil {
			return nil
		}
		if onFailure != nil {
			onFailure(a, err)
		}
	}
	return err
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ArtifactPath returns a file path for an artifact of the named test attempt,
// creating the directory when needed.
func (c Config) ArtifactPath(test string, a Attempt, ext string) (string, error) {
	if err := os.MkdirAll(c.ArtifactsDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-attempt%d.%s", unsafeChars.ReplaceAllString(test, "_"), a.Number, ext)
	return filepath.Join(c.ArtifactsDir, name), nil
}
