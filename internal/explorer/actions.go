package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/github"
	"git.home.luguber.info/inful/repoexplorer/internal/llm"
	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
	"git.home.luguber.info/inful/repoexplorer/internal/markdown"
)

// SetSearchType switches between user and organization search and resets the view.
func (s *Session) SetSearchType(kind github.OwnerKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.searchType = kind
	s.st.repos = nil
	s.st.err = ""
	s.clearSelectedRepoLocked()
}

// ClearSelectedRepo returns to the repository list.
func (s *Session) ClearSelectedRepo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSelectedRepoLocked()
}

func (s *Session) clearSelectedRepoLocked() {
	s.repoGen++
	s.navGen++
	s.st.selected = nil
	s.st.currentPath = ""
	s.st.entries = nil
	s.st.summary = ""
	s.st.summarizing = false
	s.st.loading = false
	s.clearFileContentLocked()
	s.st.err = ""
}

// ClearFileContent returns from the file view to the directory listing.
func (s *Session) ClearFileContent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearFileContentLocked()
}

func (s *Session) clearFileContentLocked() {
	s.clearFileViewLocked()
	s.st.err = ""
}

// clearFileViewLocked drops the file view but leaves the error message alone.
func (s *Session) clearFileViewLocked() {
	s.fileGen++
	s.st.filePath = ""
	s.st.fileName = ""
	s.st.fileContent = ""
	s.st.explanation = ""
	s.st.explaining = false
	s.st.converted = ""
	s.st.converting = false
}

// FetchRepos lists the public repositories of name for the current search
// type. Failures are reported in the view and returned.
func (s *Session) FetchRepos(ctx context.Context, name string) error {
	trimmed := strings.TrimSpace(name)

	s.mu.Lock()
	s.clearSelectedRepoLocked()
	kind := s.st.searchType
	if trimmed == "" {
		msg := MsgInvalidUsername
		if kind == github.OwnerOrg {
			msg = MsgInvalidOrganization
		}
		s.st.err = msg
		s.st.repos = nil
		s.st.username = ""
		s.mu.Unlock()
		return errors.ValidationError(msg).Build()
	}
	s.navGen++
	gen := s.navGen
	s.st.username = trimmed
	s.st.loading = true
	s.st.err = ""
	s.st.repos = nil
	s.mu.Unlock()

	repos, err := s.source.ListRepositories(ctx, kind, trimmed)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.navGen {
		return err
	}
	s.st.loading = false

	switch {
	case err == nil && len(repos) == 0:
		s.st.err = fmt.Sprintf("%s %q has no public repositories.", kind.Label(), trimmed)
	case err == nil:
		s.st.repos = repos
	case github.IsNotFound(err):
		s.st.err = fmt.Sprintf("GitHub %s %q not found.", kind.Label(), trimmed)
	default:
		s.st.err = failureMessage(err, MsgReposAPIError, MsgFetchFailed)
	}
	if err != nil {
		s.logger.Warn("Repository listing failed", logfields.Owner(trimmed), logfields.Error(err))
	}
	return err
}

// OpenRepository shows path of repo. Opening the root also starts the
// README summary in the background.
func (s *Session) OpenRepository(ctx context.Context, repo github.Repository, path string) error {
	s.mu.Lock()
	sameRepo := s.st.selected != nil && s.st.selected.FullName == repo.FullName
	s.st.selected = &repo
	s.st.currentPath = path
	s.st.entries = nil
	s.st.loading = true
	s.st.err = ""
	s.clearFileContentLocked()
	s.navGen++
	gen := s.navGen

	if path == "" || !sameRepo {
		s.repoGen++
		s.st.summary = ""
		s.st.summarizing = false
	}
	if path == "" {
		s.st.summarizing = true
		s.st.summary = MsgAnalyzingRepository
		repoGen := s.repoGen
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.summarize(s.baseCtx, repo, repoGen)
		}()
	}
	s.mu.Unlock()

	entries, err := s.source.ListContents(ctx, repo.Owner, repo.Name, path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.navGen {
		return err
	}
	s.st.loading = false
	if err != nil {
		s.st.err = failureMessage(err, MsgContentsAPIError, MsgContentsFailed)
		s.logger.Warn("Contents listing failed",
			logfields.Repository(repo.FullName), logfields.Path(path), logfields.Error(err))
		return err
	}
	s.st.entries = entries
	return nil
}

// OpenEntry drills into a directory or opens a file.
func (s *Session) OpenEntry(ctx context.Context, entry github.Entry) error {
	s.mu.Lock()
	s.clearFileContentLocked()
	var repo github.Repository
	hasRepo := s.st.selected != nil
	if hasRepo {
		repo = *s.st.selected
	}
	s.mu.Unlock()

	switch entry.Type {
	case github.EntryDir:
		if !hasRepo {
			return errors.ValidationError("no repository selected").Build()
		}
		return s.OpenRepository(ctx, repo, entry.Path)
	case github.EntryFile:
		return s.FetchFile(ctx, entry)
	default:
		return nil
	}
}

// GoUpDirectory opens the parent of the current path. It does nothing at the root.
func (s *Session) GoUpDirectory(ctx context.Context) error {
	s.mu.Lock()
	if s.st.currentPath == "" || s.st.selected == nil {
		s.mu.Unlock()
		return nil
	}
	repo := *s.st.selected
	parent := ""
	if i := strings.LastIndex(s.st.currentPath, "/"); i >= 0 {
		parent = s.st.currentPath[:i]
	}
	s.clearFileContentLocked()
	s.mu.Unlock()

	return s.OpenRepository(ctx, repo, parent)
}

// FetchFile loads a file of the selected repository and starts its
// explanation in the background. Entries that are not files are ignored.
func (s *Session) FetchFile(ctx context.Context, entry github.Entry) error {
	if entry.Type != github.EntryFile {
		return nil
	}

	s.mu.Lock()
	if s.st.selected == nil {
		s.mu.Unlock()
		return errors.ValidationError("no repository selected").Build()
	}
	repo := *s.st.selected
	s.clearFileViewLocked()
	s.navGen++
	gen := s.navGen
	fileGen := s.fileGen
	s.st.filePath = entry.Path
	s.st.fileName = entry.Name
	s.st.loading = true
	s.st.err = ""
	s.mu.Unlock()

	file, err := s.source.GetFile(ctx, repo.Owner, repo.Name, entry.Path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.navGen {
		return err
	}
	s.st.loading = false
	if fileGen != s.fileGen {
		return err
	}
	if err != nil {
		s.st.err = failureMessage(err, MsgFileAPIError, MsgFileFailed)
		s.clearFileViewLocked()
		s.logger.Warn("File fetch failed",
			logfields.Repository(repo.FullName), logfields.Path(entry.Path), logfields.Error(err))
		return err
	}

	content := file.Content
	if content == "" {
		content = MsgUnreadableFile
	}
	s.st.fileContent = content
	s.st.sourceLanguage = InferSourceLanguage(entry.Name)
	s.st.explanation = MsgAnalyzingCode
	s.st.explaining = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.explain(s.baseCtx, repo.FullName, entry.Path, content, entry.Name, fileGen)
	}()
	return nil
}

// ShowFile puts a file that was already loaded into the file view of repo.
// Nothing is fetched and no explanation is started.
func (s *Session) ShowFile(repo github.Repository, file *github.File) {
	name := file.Name
	if name == "" {
		name = path.Base(file.Path)
	}
	content := file.Content
	if content == "" {
		content = MsgUnreadableFile
	}
	dir := path.Dir(file.Path)
	if dir == "." || dir == "/" {
		dir = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.selected == nil || s.st.selected.FullName != repo.FullName {
		s.repoGen++
		s.st.summary = ""
		s.st.summarizing = false
	}
	s.navGen++
	s.st.selected = &repo
	s.st.currentPath = dir
	s.st.entries = nil
	s.st.loading = false
	s.clearFileContentLocked()
	s.st.filePath = file.Path
	s.st.fileName = name
	s.st.fileContent = content
	s.st.sourceLanguage = InferSourceLanguage(name)
}

// SummarizeReadme asks the model for a summary of repo based on its
// description and README and shows it when repo is still selected.
func (s *Session) SummarizeReadme(ctx context.Context, repo github.Repository) string {
	s.mu.Lock()
	gen := s.repoGen
	s.st.summarizing = true
	s.st.summary = MsgAnalyzingRepository
	s.mu.Unlock()

	return s.summarize(ctx, repo, gen)
}

func (s *Session) summarize(ctx context.Context, repo github.Repository, gen uint64) string {
	readme, err := s.source.GetReadme(ctx, repo.Owner, repo.Name)
	if err != nil {
		s.logger.Debug("README unavailable", logfields.Repository(repo.FullName), logfields.Error(err))
		readme = ""
	}

	prompt := llm.SummaryPrompt(repo.Description, readme)
	text, err := s.gen.Generate(ctx, prompt.System, prompt.Query)
	failed := err != nil
	if failed {
		s.logger.Warn("Summary generation failed", logfields.Repository(repo.FullName), logfields.Error(err))
		text = repo.Description
		if text == "" {
			text = MsgSummaryFailed
		}
	}

	s.mu.Lock()
	stale := gen != s.repoGen
	if !stale {
		s.st.summary = text
		s.st.summarizing = false
	}
	s.mu.Unlock()

	switch {
	case stale:
		s.observer.IncInsight(string(InsightSummary), OutcomeStale)
	case failed:
		s.observer.IncInsight(string(InsightSummary), OutcomeFailure)
	default:
		s.record(InsightSummary, Insight{Repository: repo.FullName, Text: text})
	}
	return text
}

// ExplainCode asks the model for a plain-text explanation of the open file.
func (s *Session) ExplainCode(ctx context.Context, content, fileName string) string {
	s.mu.Lock()
	gen := s.fileGen
	repo := ""
	if s.st.selected != nil {
		repo = s.st.selected.FullName
	}
	path := s.st.filePath
	s.st.explanation = MsgAnalyzingCode
	s.st.explaining = true
	s.mu.Unlock()

	return s.explain(ctx, repo, path, content, fileName, gen)
}

func (s *Session) explain(ctx context.Context, repo, path, content, fileName string, gen uint64) string {
	prompt := llm.ExplainPrompt(fileName, content)
	text, err := s.gen.Generate(ctx, prompt.System, prompt.Query)
	failed := err != nil
	if failed {
		s.logger.Warn("Code explanation failed", logfields.Path(path), logfields.Error(err))
		text = MsgExplainFailed
	} else {
		text = markdown.PlainText(text)
	}

	s.mu.Lock()
	stale := gen != s.fileGen
	if !stale {
		s.st.explanation = text
		s.st.explaining = false
	}
	s.mu.Unlock()

	switch {
	case stale:
		s.observer.IncInsight(string(InsightExplanation), OutcomeStale)
	case failed:
		s.observer.IncInsight(string(InsightExplanation), OutcomeFailure)
	default:
		s.record(InsightExplanation, Insight{
			Repository:     repo,
			Path:           path,
			SourceLanguage: InferSourceLanguage(fileName),
			Text:           text,
		})
	}
	return text
}

// ConvertCode converts the open file to the target language. It does
// nothing without file content or when the source language is unknown.
func (s *Session) ConvertCode(ctx context.Context) error {
	s.mu.Lock()
	content := s.st.fileContent
	source := s.st.sourceLanguage
	target := s.st.targetLanguage
	if content == "" || source == UnknownLanguage {
		s.mu.Unlock()
		return nil
	}
	gen := s.fileGen
	repo := ""
	if s.st.selected != nil {
		repo = s.st.selected.FullName
	}
	path := s.st.filePath
	s.st.converting = true
	s.st.converted = MsgConverting
	s.st.err = ""
	s.mu.Unlock()

	prompt := llm.ConvertPrompt(source, target, content)
	text, err := s.gen.Generate(ctx, prompt.System, prompt.Query)
	if err != nil {
		s.logger.Warn("Code conversion failed",
			logfields.Path(path), slog.String("target", target), logfields.Error(err))
		text = MsgConvertFailed
	} else {
		text = markdown.ExtractCode(text)
	}

	s.mu.Lock()
	stale := gen != s.fileGen
	if !stale {
		s.st.converted = text
		s.st.converting = false
	}
	s.mu.Unlock()

	switch {
	case stale:
		s.observer.IncInsight(string(InsightConversion), OutcomeStale)
	case err != nil:
		s.observer.IncInsight(string(InsightConversion), OutcomeFailure)
	default:
		s.record(InsightConversion, Insight{
			Repository:     repo,
			Path:           path,
			SourceLanguage: source,
			TargetLanguage: target,
			Text:           text,
		})
	}
	return err
}

// SetTargetLanguage selects the conversion target.
func (s *Session) SetTargetLanguage(lang string) error {
	target, ok := NormalizeTargetLanguage(lang)
	if !ok {
		return errors.ValidationError(fmt.Sprintf("unsupported target language %q", lang)).
			WithContext("valid", strings.Join(ConversionTargets, ", ")).
			Build()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.targetLanguage = target
	return nil
}

// SetSourceLanguage overrides the inferred language of the open file.
func (s *Session) SetSourceLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.sourceLanguage = CanonicalLanguageName(lang)
}

// EditConvertedCode replaces the converted code with user edits.
func (s *Session) EditConvertedCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.converted = code
}

// failureMessage picks the message shown for a failed GitHub call: the
// upstream message when there is one, netMsg for transport failures and
// apiMsg otherwise.
func failureMessage(err error, apiMsg, netMsg string) string {
	if msg := github.APIMessage(err); msg != "" {
		return msg
	}
	if github.IsNetwork(err) {
		return netMsg
	}
	return apiMsg
}
