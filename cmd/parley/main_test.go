package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config file that keeps the log and the scene inside
// a temporary directory and returns its path.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf("%s\n[scene]\nroot = %q\n\n[log]\nfile = %q\n",
		extra, dir, filepath.Join(dir, "parley.log"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, getenv func(string) string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	cmd := newRootCommand(env{stdout: &stdout, stderr: &stderr, getenv: getenv})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

// chatServer serves lines on /api/chat and records the decoded request.
func chatServer(t *testing.T, got *map[string]any, lines ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAsk(t *testing.T) {
	t.Parallel()

	t.Run("prints the streamed reply", func(t *testing.T) {
		t.Parallel()
		srv := chatServer(t, nil,
			`{"message":{"role":"assistant","content":"Hello"},"done":false}`,
			`{"message":{"role":"assistant","content":" <think>hmm"},"done":false}`,
			`not json`,
			`{"message":{"role":"assistant","content":"</think>world"},"done":false}`,
			`{"message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","prompt_eval_count":3,"eval_count":2}`,
		)
		cfg := writeConfig(t, "")

		stdout, _, err := execute(t, nil, "ask", "--config", cfg, "--url", srv.URL, "say", "hello")

		require.NoError(t, err)
		assert.Equal(t, "Hello world\n", stdout)
	})

	t.Run("flags override the config file", func(t *testing.T) {
		t.Parallel()
		var got map[string]any
		srv := chatServer(t, &got, `{"message":{"content":"ok"},"done":true}`)
		cfg := writeConfig(t, `model = "mistral"`)

		_, _, err := execute(t, nil, "ask", "--config", cfg, "--url", srv.URL, "--model", "phi3", "hi")

		require.NoError(t, err)
		assert.Equal(t, "phi3", got["model"])
		assert.Equal(t, true, got["stream"])
	})

	t.Run("environment overrides the config file", func(t *testing.T) {
		t.Parallel()
		var got map[string]any
		srv := chatServer(t, &got, `{"message":{"content":"ok"},"done":true}`)
		cfg := writeConfig(t, `model = "mistral"`)
		getenv := func(k string) string {
			switch k {
			case "PARLEY_MODEL":
				return "qwen2"
			case "PARLEY_OLLAMA_URL":
				return srv.URL
			}
			return ""
		}

		_, _, err := execute(t, getenv, "ask", "--config", cfg, "hi")

		require.NoError(t, err)
		assert.Equal(t, "qwen2", got["model"])
	})

	t.Run("system turn carries the workspace listing", func(t *testing.T) {
		t.Parallel()
		var got map[string]any
		srv := chatServer(t, &got, `{"message":{"content":"ok"},"done":true}`)
		cfg := writeConfig(t, "")

		_, _, err := execute(t, nil, "ask", "--config", cfg, "--url", srv.URL, "hi")

		require.NoError(t, err)
		messages, ok := got["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 2)
		system := messages[0].(map[string]any)
		assert.Equal(t, "system", system["role"])
		assert.Contains(t, system["content"], "config.toml (file)")
		user := messages[1].(map[string]any)
		assert.Equal(t, "user", user["role"])
		assert.Equal(t, "hi", user["content"])
	})

	t.Run("server failure exits with error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model \"nope\" not found"}`))
		}))
		t.Cleanup(srv.Close)
		cfg := writeConfig(t, "")

		stdout, _, err := execute(t, nil, "ask", "--config", cfg, "--url", srv.URL, "hi")

		require.ErrorIs(t, err, errResponseFailed)
		assert.Contains(t, stdout, "Error: ")
		assert.Contains(t, stdout, "not found")
	})

	t.Run("requires a prompt", func(t *testing.T) {
		t.Parallel()
		cfg := writeConfig(t, "")

		_, _, err := execute(t, nil, "ask", "--config", cfg)

		require.Error(t, err)
	})

	t.Run("invalid config is reported", func(t *testing.T) {
		t.Parallel()
		cfg := writeConfig(t, `base_url = "ftp://example.com"`)

		_, _, err := execute(t, nil, "ask", "--config", cfg, "hi")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "base_url")
	})

	t.Run("writes the log file", func(t *testing.T) {
		t.Parallel()
		srv := chatServer(t, nil, `{"message":{"content":"ok"},"done":true}`)
		cfg := writeConfig(t, "")

		_, _, err := execute(t, nil, "ask", "--config", cfg, "--url", srv.URL, "hi")

		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(filepath.Dir(cfg), "parley.log"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "parley started")
	})
}

func TestModels(t *testing.T) {
	t.Parallel()

	t.Run("lists model names", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tags", r.URL.Path)
			_, _ = w.Write([]byte(`{"models":[{"name":"llama3:latest"},{"name":"phi3"}]}`))
		}))
		t.Cleanup(srv.Close)
		cfg := writeConfig(t, "")

		stdout, _, err := execute(t, nil, "models", "--config", cfg, "--url", srv.URL)

		require.NoError(t, err)
		assert.Equal(t, "llama3:latest\nphi3\n", stdout)
	})

	t.Run("empty catalog", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"models":[]}`))
		}))
		t.Cleanup(srv.Close)
		cfg := writeConfig(t, "")

		stdout, stderr, err := execute(t, nil, "models", "--config", cfg, "--url", srv.URL)

		require.NoError(t, err)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "no models available")
	})

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		cfg := writeConfig(t, "")

		_, _, err := execute(t, nil, "models", "--config", cfg, "--url", url)

		require.Error(t, err)
	})
}
