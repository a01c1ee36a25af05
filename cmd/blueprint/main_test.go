package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/10mm-gms/blueprint/internal/mobileconfig"
)

func nopLogger(string, string) (*zap.Logger, error) { return zap.NewNop(), nil }

func execute(t *testing.T, mobile mobileconfig.Runtime, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd(mobile, &out, nopLogger)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func clearMessagingEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "SECRET_KEY", "SESSION_SECRET", "SITE_CONFIG", "AUTO_SEED_DATA", "DATABASE_URL",
		"SES_REGION", "SES_ACCESS_KEY", "SES_SECRET_KEY", "SES_FROM_EMAIL", "MOCK_SES", "GOOGLE_CHAT_WEBHOOK_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestMobileConfig(t *testing.T) {
	mobile := mobileconfig.Resolve(func(key string) string {
		if key == mobileconfig.EnvAPIURL {
			return "https://api.example.com"
		}
		return ""
	})

	out, err := execute(t, mobile, "mobile-config")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "https://api.example.com", got["API_URL"])
	assert.Equal(t, mobileconfig.DefaultAllowedDomain, got["ALLOWED_DOMAIN"])
	assert.Contains(t, out, "\n  \"API_URL\"")
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, mobileconfig.Defaults(), "frobnicate")
	assert.Error(t, err)
}

func TestSeed_DisabledIsNoop(t *testing.T) {
	clearMessagingEnv(t)

	_, err := execute(t, mobileconfig.Defaults(), "seed")
	assert.NoError(t, err)
}

func TestSeed_BadConfig(t *testing.T) {
	clearMessagingEnv(t)

	_, err := execute(t, mobileconfig.Defaults(), "seed", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestNotifyChat(t *testing.T) {
	clearMessagingEnv(t)

	var posted map[string]string
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()
	t.Setenv("GOOGLE_CHAT_WEBHOOK_URL", hook.URL)

	out, err := execute(t, mobileconfig.Defaults(), "notify", "chat", "--text", "deploy finished")
	require.NoError(t, err)
	assert.Equal(t, "sent\n", out)
	assert.Equal(t, "deploy finished", posted["text"])
}

func TestNotifyChat_NotConfigured(t *testing.T) {
	clearMessagingEnv(t)

	out, err := execute(t, mobileconfig.Defaults(), "notify", "chat", "--text", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped")
}

func TestNotifyChat_RequiresText(t *testing.T) {
	clearMessagingEnv(t)

	_, err := execute(t, mobileconfig.Defaults(), "notify", "chat")
	assert.Error(t, err)
}

func TestNotifyEmail(t *testing.T) {
	body := filepath.Join(t.TempDir(), "body.md")
	require.NoError(t, os.WriteFile(body, []byte("# Hello\n\nThe *build* passed."), 0o600))

	t.Run("not configured", func(t *testing.T) {
		clearMessagingEnv(t)

		out, err := execute(t, mobileconfig.Defaults(), "notify", "email", "--to", "a@10mm.net", "--subject", "hi", "--body-file", body)
		require.NoError(t, err)
		assert.Contains(t, out, "skipped")
	})

	t.Run("mock", func(t *testing.T) {
		clearMessagingEnv(t)
		t.Setenv("SES_REGION", "eu-west-2")
		t.Setenv("SES_ACCESS_KEY", "key")
		t.Setenv("SES_SECRET_KEY", "secret")
		t.Setenv("SES_FROM_EMAIL", "noreply@10mm.net")
		t.Setenv("MOCK_SES", "true")

		out, err := execute(t, mobileconfig.Defaults(), "notify", "email", "--to", "a@10mm.net", "--subject", "hi", "--body-file", body)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "mock-msg-"), out)
	})

	t.Run("missing body file", func(t *testing.T) {
		clearMessagingEnv(t)

		_, err := execute(t, mobileconfig.Defaults(), "notify", "email", "--to", "a@10mm.net", "--subject", "hi",
			"--body-file", filepath.Join(t.TempDir(), "nope.md"))
		assert.Error(t, err)
	})
}
