package commands

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repoexplorer/internal/config"
	"git.home.luguber.info/inful/repoexplorer/internal/explorer"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
)

const helloRepo = `{"id":1,"name":"hello","full_name":"octo/hello","owner":{"login":"octo"},"description":"Says hello","language":"Go","stargazers_count":7,"default_branch":"main"}`

func encoded(name, path, body string) string {
	return fmt.Sprintf(`{"type":"file","name":%q,"path":%q,"encoding":"base64","content":%q}`,
		name, path, base64.StdEncoding.EncodeToString([]byte(body)))
}

func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/octo/repos", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "["+helloRepo+"]")
	})
	mux.HandleFunc("GET /repos/octo/hello", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, helloRepo)
	})
	mux.HandleFunc("GET /repos/octo/hello/readme", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, encoded("README.md", "README.md", "# Hello\nPrints a greeting."))
	})
	mux.HandleFunc("GET /repos/octo/hello/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("path") {
		case "":
			fmt.Fprint(w, `[{"type":"file","name":"main.go","path":"main.go","size":42},{"type":"dir","name":"cmd","path":"cmd"},{"type":"file","name":"LICENSE","path":"LICENSE","size":10}]`)
		case "main.go":
			fmt.Fprint(w, encoded("main.go", "main.go", "package main\n\nfunc main() { println(\"hello\") }\n"))
		case "LICENSE":
			fmt.Fprint(w, encoded("LICENSE", "LICENSE", "MIT"))
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// fakeGemini answers generateContent by looking at the system instruction.
// When fail is set every call is rejected.
func fakeGemini(t *testing.T, fail *atomic.Bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail != nil && fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`)
			return
		}
		var req struct {
			SystemInstruction struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"systemInstruction"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		system := ""
		if len(req.SystemInstruction.Parts) > 0 {
			system = req.SystemInstruction.Parts[0].Text
		}

		reply := "This file prints hello."
		switch {
		case strings.Contains(system, "language translation"):
			reply = "```python\nprint('hello')\n```"
		case strings.Contains(system, "software architect"):
			reply = "Hello is a demo."
		}
		resp := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": reply}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	configPath string
	llmFail    atomic.Bool
}

func newTestEnv(t *testing.T, withHistory bool) *testEnv {
	t.Helper()
	env := &testEnv{}
	gh := fakeGitHub(t)
	gemini := fakeGemini(t, &env.llmFail)

	dir := t.TempDir()
	cfg := fmt.Sprintf("github:\n  api_url: %s/\n  token: test\nllm:\n  api_url: %s\n  api_key: test-key\nretry:\n  max_retries: 0\n",
		gh.URL, gemini.URL)
	if withHistory {
		cfg += fmt.Sprintf("history:\n  path: %s\n", filepath.Join(dir, "history.db"))
	}
	env.configPath = filepath.Join(dir, "repoexplorer.yaml")
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o600))
	return env
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("repoexplorer"),
		kong.Vars{"version": "test"},
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = kctx.Run(&Global{Out: &buf}, cli)
	return buf.String(), err
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", e.configPath}, args...)...)
}

func TestInitWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repoexplorer.yaml")

	outText, err := runCLI(t, "-c", path, "init")
	require.NoError(t, err)
	assert.Contains(t, outText, "initialized successfully")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "${GEMINI_API_KEY}")

	_, err = runCLI(t, "-c", path, "init")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = runCLI(t, "-c", path, "init", "--force")
	assert.NoError(t, err)
}

func TestReposListsRepositories(t *testing.T) {
	env := newTestEnv(t, false)

	outText, err := env.run(t, "repos", "octo")
	require.NoError(t, err)
	assert.Contains(t, outText, "octo/hello")
	assert.Contains(t, outText, "Says hello")
	assert.Contains(t, outText, "7")
}

func TestLsAndCat(t *testing.T) {
	env := newTestEnv(t, false)

	outText, err := env.run(t, "ls", "octo/hello")
	require.NoError(t, err)
	// Directories are listed first.
	assert.Less(t, strings.Index(outText, "cmd"), strings.Index(outText, "main.go"))
	assert.Contains(t, outText, "42")

	outText, err = env.run(t, "cat", "octo/hello", "main.go")
	require.NoError(t, err)
	assert.Equal(t, "package main\n\nfunc main() { println(\"hello\") }\n", outText)

	_, err = env.run(t, "cat", "octo/hello", "missing.go")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestSummarizeRecordsHistory(t *testing.T) {
	env := newTestEnv(t, true)

	outText, err := env.run(t, "summarize", "octo/hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello is a demo.\n", outText)

	outText, err = env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, outText, "summary")
	assert.Contains(t, outText, "octo/hello")
	assert.Contains(t, outText, "Hello is a demo.")

	outText, err = env.run(t, "history", "--repository", "Octo/Hello")
	require.NoError(t, err)
	assert.Contains(t, outText, "Hello is a demo.")
}

func TestExplainRecordsCanonicalName(t *testing.T) {
	env := newTestEnv(t, true)

	_, err := env.run(t, "explain", "/octo/hello/", "main.go")
	require.NoError(t, err)

	outText, err := env.run(t, "history", "--repository", "octo/hello")
	require.NoError(t, err)
	assert.Contains(t, outText, "explanation")
	assert.Contains(t, outText, "main.go")
}

func TestConvertRecordsHistory(t *testing.T) {
	env := newTestEnv(t, true)

	outText, err := env.run(t, "convert", "octo/hello", "main.go", "--to", "python")
	require.NoError(t, err)
	assert.Equal(t, "print('hello')\n", outText)

	outText, err = env.run(t, "history", "--repository", "octo/hello")
	require.NoError(t, err)
	assert.Contains(t, outText, "conversion")
	assert.Contains(t, outText, "Go -> Python")

	outText, err = env.run(t, "history", "--repository", "octo/other")
	require.NoError(t, err)
	assert.Contains(t, outText, "No insights recorded.")
}

func TestConvertRejectsUnknownInput(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.run(t, "convert", "octo/hello", "LICENSE")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = env.run(t, "convert", "octo/hello", "main.go", "--to", "cobol")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	outText, err := env.run(t, "convert", "octo/hello", "LICENSE", "--from", "go")
	require.NoError(t, err)
	assert.Equal(t, "print('hello')\n", outText)
}

func TestExplain(t *testing.T) {
	env := newTestEnv(t, false)

	outText, err := env.run(t, "explain", "octo/hello", "main.go")
	require.NoError(t, err)
	assert.Equal(t, "This file prints hello.\n", outText)
}

func TestExplainFailureIsReported(t *testing.T) {
	env := newTestEnv(t, false)
	env.llmFail.Store(true)

	outText, err := env.run(t, "explain", "octo/hello", "main.go")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryLLM))
	assert.Contains(t, outText, explorer.MsgExplainFailed)
}

func TestConvertFailureIsReported(t *testing.T) {
	env := newTestEnv(t, true)
	env.llmFail.Store(true)

	outText, err := env.run(t, "convert", "octo/hello", "main.go", "--to", "python")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryLLM))
	assert.Equal(t, explorer.MsgConvertFailed+"\n", outText)

	outText, err = env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, outText, "No insights recorded.")
}

func TestHistoryDisabled(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.run(t, "history")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestVersion(t *testing.T) {
	outText, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(outText, "repoexplorer "))
}

func TestParseRepo(t *testing.T) {
	repo, err := parseRepo("octo/hello")
	require.NoError(t, err)
	assert.Equal(t, "octo", repo.Owner)
	assert.Equal(t, "hello", repo.Name)
	assert.Equal(t, "octo/hello", repo.FullName)

	repo, err = parseRepo("/octo/hello/")
	require.NoError(t, err)
	assert.Equal(t, "octo/hello", repo.FullName)

	for _, bad := range []string{"", "octo", "octo/", "/hello", "a/b/c"} {
		_, err := parseRepo(bad)
		assert.Error(t, err, bad)
		assert.True(t, errors.HasCategory(err, errors.CategoryValidation), bad)
	}
}

func TestRunServeStopsOnCancel(t *testing.T) {
	env := newTestEnv(t, true)
	cfg, err := config.Load(env.configPath)
	require.NoError(t, err)
	cfg.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunServe(ctx, cfg, env.configPath, false, true) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunServeFailsOnBusyAddress(t *testing.T) {
	busy := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(busy.Close)

	env := newTestEnv(t, false)
	cfg, err := config.Load(env.configPath)
	require.NoError(t, err)
	cfg.Server.Addr = busy.Listener.Addr().String()

	err = RunServe(context.Background(), cfg, env.configPath, false, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryRuntime))
}
