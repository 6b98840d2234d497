package explorer

import (
	"context"
	"strings"
	"sync"

	"git.home.luguber.info/inful/repoexplorer/internal/github"
)

type fakeSource struct {
	mu       sync.Mutex
	repos    map[string][]github.Repository
	reposErr error
	contents map[string][]github.Entry // keyed by "owner/repo:path"
	contErr  error
	readmes  map[string]string
	files    map[string]string // keyed by "owner/repo:path"
	fileErr  error

	// fileGate, when set, blocks GetFile until closed.
	fileGate chan struct{}
	calls    []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		repos:    map[string][]github.Repository{},
		contents: map[string][]github.Entry{},
		readmes:  map[string]string{},
		files:    map[string]string{},
	}
}

func (f *fakeSource) log(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSource) ListRepositories(_ context.Context, kind github.OwnerKind, name string) ([]github.Repository, error) {
	f.log("repos:" + string(kind) + ":" + name)
	if f.reposErr != nil {
		return nil, f.reposErr
	}
	return f.repos[name], nil
}

func (f *fakeSource) ListContents(_ context.Context, owner, repo, path string) ([]github.Entry, error) {
	f.log("contents:" + owner + "/" + repo + ":" + path)
	if f.contErr != nil {
		return nil, f.contErr
	}
	return f.contents[owner+"/"+repo+":"+path], nil
}

func (f *fakeSource) GetReadme(_ context.Context, owner, repo string) (string, error) {
	f.log("readme:" + owner + "/" + repo)
	if text, ok := f.readmes[owner+"/"+repo]; ok {
		return text, nil
	}
	return "", notFound()
}

func (f *fakeSource) GetFile(_ context.Context, owner, repo, path string) (*github.File, error) {
	f.log("file:" + owner + "/" + repo + ":" + path)
	if f.fileGate != nil {
		<-f.fileGate
	}
	if f.fileErr != nil {
		return nil, f.fileErr
	}
	name := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		name = path[i+1:]
	}
	return &github.File{Name: name, Path: path, Content: f.files[owner+"/"+repo+":"+path]}, nil
}

// fakeGenerator answers based on the system prompt and can be gated.
type fakeGenerator struct {
	mu      sync.Mutex
	replies map[string]string // keyed by a substring of the system prompt
	err     error
	gate    chan struct{}
	queries []string
}

func (g *fakeGenerator) Generate(_ context.Context, system, query string) (string, error) {
	if g.gate != nil {
		<-g.gate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queries = append(g.queries, query)
	if g.err != nil {
		return "", g.err
	}
	for key, reply := range g.replies {
		if strings.Contains(system, key) {
			return reply, nil
		}
	}
	return "generic reply", nil
}

func (g *fakeGenerator) Model() string { return "fake-model" }

type memRecorder struct {
	mu       sync.Mutex
	insights []Insight
}

func (r *memRecorder) Record(_ context.Context, in Insight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insights = append(r.insights, in)
	return nil
}

func (r *memRecorder) all() []Insight {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Insight(nil), r.insights...)
}

type countObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countObserver) IncInsight(kind, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[kind+"/"+outcome]++
}

func (o *countObserver) get(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[key]
}
