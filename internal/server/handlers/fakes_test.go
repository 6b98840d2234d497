package handlers

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repoexplorer/internal/explorer"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/github"
	"git.home.luguber.info/inful/repoexplorer/internal/session"
)

var octoRepo = github.Repository{
	ID: 1, Name: "hello", FullName: "octo/hello", Owner: "octo",
	Description: "Says hello", Language: "Go", Stars: 7, DefaultBranch: "main",
}

type staticSource struct{}

func (staticSource) ListRepositories(_ context.Context, _ github.OwnerKind, name string) ([]github.Repository, error) {
	if name != "octo" {
		return nil, errors.NotFoundError("Not Found").Build()
	}
	return []github.Repository{octoRepo}, nil
}

func (staticSource) ListContents(_ context.Context, _, _, path string) ([]github.Entry, error) {
	switch path {
	case "":
		return []github.Entry{
			{Name: "cmd", Path: "cmd", Type: github.EntryDir},
			{Name: "main.go", Path: "main.go", Type: github.EntryFile},
		}, nil
	case "cmd":
		return []github.Entry{{Name: "tool.go", Path: "cmd/tool.go", Type: github.EntryFile}}, nil
	}
	return []github.Entry{}, nil
}

func (staticSource) GetReadme(context.Context, string, string) (string, error) {
	return "# hello", nil
}

func (staticSource) GetFile(_ context.Context, _, _, path string) (*github.File, error) {
	return &github.File{Name: path, Path: path, Content: "package main\n"}, nil
}

// echoGenerator answers with a fixed text per prompt kind.
type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, system, _ string) (string, error) {
	switch {
	case strings.Contains(system, "convert"), strings.Contains(system, "Convert"):
		return "```python\nprint('hi')\n```", nil
	case strings.Contains(system, "summar"):
		return "A greeting project.", nil
	default:
		return "It prints hello.", nil
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	m := session.NewManager(func(id string) (*explorer.Session, error) {
		return explorer.New(explorer.Options{
			ID:        id,
			Source:    staticSource{},
			Generator: echoGenerator{},
			Logger:    quietLogger(),
		})
	}, time.Hour, time.Minute, nil)
	t.Cleanup(func() { require.NoError(t, m.Stop()) })
	return m
}

type memHistory struct {
	insights []explorer.Insight
	err      error
	limits   []int
}

func (h *memHistory) List(_ context.Context, limit int) ([]explorer.Insight, error) {
	h.limits = append(h.limits, limit)
	return h.insights, h.err
}

func (h *memHistory) ListByRepository(_ context.Context, name string, limit int) ([]explorer.Insight, error) {
	h.limits = append(h.limits, limit)
	out := []explorer.Insight{}
	for _, in := range h.insights {
		if in.Repository == name {
			out = append(out, in)
		}
	}
	return out, h.err
}
