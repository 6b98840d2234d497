// Package explorer holds the view state of one repository-browsing session
// and the transitions driven by user actions.
package explorer

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/github"
	"git.home.luguber.info/inful/repoexplorer/internal/llm"
	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
)

// RepositorySource reads repositories and their contents.
type RepositorySource interface {
	ListRepositories(ctx context.Context, kind github.OwnerKind, name string) ([]github.Repository, error)
	ListContents(ctx context.Context, owner, repo, path string) ([]github.Entry, error)
	GetReadme(ctx context.Context, owner, repo string) (string, error)
	GetFile(ctx context.Context, owner, repo, path string) (*github.File, error)
}

// Options configures a Session.
type Options struct {
	ID            string
	Source        RepositorySource
	Generator     llm.Generator
	Recorder      InsightRecorder // optional
	Observer      InsightObserver // optional
	Logger        *slog.Logger
	DefaultTarget string // conversion target; Python when empty or unknown
}

// Session is the state machine behind one explorer view. Foreground actions
// block until their request chain finishes; the repository summary and the
// code explanation run in the background and are dropped when the view has
// moved on by the time they complete.
type Session struct {
	id       string
	source   RepositorySource
	gen      llm.Generator
	recorder InsightRecorder
	observer InsightObserver
	logger   *slog.Logger

	// Background work runs on baseCtx so it outlives the request that started it.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	st      state
	navGen  uint64 // bumped by every foreground navigation
	repoGen uint64 // bumped when the selected repository or its root view changes
	fileGen uint64 // bumped when the file view changes
}

// New creates a session in the repository-search view.
func New(opts Options) (*Session, error) {
	if opts.Source == nil {
		return nil, errors.InternalError("explorer session requires a repository source").Build()
	}
	if opts.Generator == nil {
		return nil, errors.InternalError("explorer session requires a text generator").Build()
	}

	target := DefaultTargetLanguage
	if t, ok := NormalizeTargetLanguage(opts.DefaultTarget); ok {
		target = t
	}
	observer := opts.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ID != "" {
		logger = logger.With(logfields.SessionID(opts.ID))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:       opts.ID,
		source:   opts.Source,
		gen:      opts.Generator,
		recorder: opts.Recorder,
		observer: observer,
		logger:   logger,
		baseCtx:  ctx,
		cancel:   cancel,
		st: state{
			searchType:     github.OwnerUser,
			targetLanguage: target,
			sourceLanguage: UnknownLanguage,
		},
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Wait blocks until background work has finished.
func (s *Session) Wait() { s.wg.Wait() }

// Close cancels background work and waits for it to stop.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
}

// Snapshot returns a copy of the current state with derived fields filled in.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.st
	v := View{
		SessionID:         s.id,
		SearchType:        st.searchType,
		Username:          st.username,
		Loading:           st.loading,
		Error:             st.err,
		Repositories:      slices.Clone(st.repos),
		CurrentPath:       st.currentPath,
		Entries:           slices.Clone(st.entries),
		Summary:           st.summary,
		Summarizing:       st.summarizing,
		FilePath:          st.filePath,
		FileName:          st.fileName,
		FileContent:       st.fileContent,
		Explanation:       st.explanation,
		Explaining:        st.explaining,
		ConvertedCode:     st.converted,
		Converting:        st.converting,
		SourceLanguage:    st.sourceLanguage,
		TargetLanguage:    st.targetLanguage,
		IsProgramFile:     IsProgramFile(st.filePath),
		NavigationTitle:   navigationTitle(st.selected, st.currentPath),
		InputPlaceholder:  inputPlaceholder(st.searchType),
		TitleType:         st.searchType.Label(),
		ConversionTargets: slices.Clone(ConversionTargets),
	}
	if v.Repositories == nil {
		v.Repositories = []github.Repository{}
	}
	if v.Entries == nil {
		v.Entries = []github.Entry{}
	}
	if st.selected != nil {
		repo := *st.selected
		v.SelectedRepo = &repo
	}
	return v
}

// IsProgramFile reports whether the open file can be converted.
func (s *Session) IsProgramFile() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return IsProgramFile(s.st.filePath)
}

// NavigationTitle returns "repo / branch[ / path]" for the open repository.
func (s *Session) NavigationTitle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return navigationTitle(s.st.selected, s.st.currentPath)
}

// InputPlaceholder returns the example names shown in the search box.
func (s *Session) InputPlaceholder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return inputPlaceholder(s.st.searchType)
}

// TitleType returns "User" or "Organization".
func (s *Session) TitleType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.searchType.Label()
}

// FindRepository returns the listed repository with the given name.
func (s *Session) FindRepository(name string) (github.Repository, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.st.repos {
		if r.Name == name || r.FullName == name {
			return r, true
		}
	}
	return github.Repository{}, false
}

// FindEntry returns the listed directory entry with the given name or path.
func (s *Session) FindEntry(name string) (github.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.st.entries {
		if e.Name == name || e.Path == name {
			return e, true
		}
	}
	return github.Entry{}, false
}

// record hands a generated text to the recorder and observer.
func (s *Session) record(kind InsightKind, in Insight) {
	s.observer.IncInsight(string(kind), OutcomeSuccess)
	if s.recorder == nil {
		return
	}
	in.SessionID = s.id
	in.Kind = kind
	in.Model = llm.ModelOf(s.gen)
	if err := s.recorder.Record(s.baseCtx, in); err != nil {
		s.logger.Warn("Failed to record insight", slog.String("kind", string(kind)), logfields.Error(err))
	}
}
