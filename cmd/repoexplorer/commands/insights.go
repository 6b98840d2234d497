package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/repoexplorer/internal/explorer"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/github"
	"git.home.luguber.info/inful/repoexplorer/internal/llm"
	"git.home.luguber.info/inful/repoexplorer/internal/metrics"
)

// outcomeTracker remembers the last outcome per insight kind so a one-shot
// command can fail when the model call failed, even though the session
// shows fallback text.
type outcomeTracker struct {
	next metrics.Recorder

	mu   sync.Mutex
	last map[string]string
}

func (o *outcomeTracker) IncInsight(kind, outcome string) {
	o.next.IncInsight(kind, outcome)
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		o.last = make(map[string]string)
	}
	o.last[kind] = outcome
}

func (o *outcomeTracker) failed(kind explorer.InsightKind) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last[string(kind)] == explorer.OutcomeFailure
}

// insightRun is a runtime with a single session for one command.
type insightRun struct {
	rt       *runtime
	session  *explorer.Session
	outcomes *outcomeTracker
}

func newInsightRun(ctx context.Context, root *CLI) (*insightRun, error) {
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	rt, err := newRuntime(ctx, cfg, nil, nil)
	if err != nil {
		return nil, err
	}
	tracker := &outcomeTracker{next: rt.recorder}
	rt.observer = tracker

	sess, err := rt.newSession(uuid.NewString())
	if err != nil {
		rt.Close()
		return nil, err
	}
	return &insightRun{rt: rt, session: sess, outcomes: tracker}, nil
}

func (r *insightRun) Close() {
	r.session.Close()
	r.rt.Close()
}

func (r *insightRun) check(kind explorer.InsightKind, repo github.Repository) error {
	if !r.outcomes.failed(kind) {
		return nil
	}
	return errors.LLMError(fmt.Sprintf("%s generation failed", kind)).
		WithContext("repository", repo.FullName).
		WithContext("model", llm.ModelOf(r.rt.gen)).
		Build()
}

// resolve loads the repository record so insights carry GitHub's canonical
// full name and the description, whatever casing the user typed.
func (r *insightRun) resolve(ctx context.Context, ref github.Repository) (github.Repository, error) {
	return r.rt.github.GetRepository(ctx, ref.Owner, ref.Name)
}

// loadFile fetches path of repo and shows it in the session.
func (r *insightRun) loadFile(ctx context.Context, repo github.Repository, path string) error {
	file, err := r.rt.github.GetFile(ctx, repo.Owner, repo.Name, strings.Trim(path, "/"))
	if err != nil {
		return err
	}
	r.session.ShowFile(repo, file)
	return nil
}

// SummarizeCmd implements the 'summarize' command.
type SummarizeCmd struct {
	Repository string `arg:"" help:"Repository as owner/name"`
}

func (s *SummarizeCmd) Run(g *Global, root *CLI) error {
	ref, err := parseRepo(s.Repository)
	if err != nil {
		return err
	}
	ctx := context.Background()
	run, err := newInsightRun(ctx, root)
	if err != nil {
		return err
	}
	defer run.Close()

	// The summary prompt includes the description.
	repo, err := run.resolve(ctx, ref)
	if err != nil {
		return err
	}
	text := run.session.SummarizeReadme(ctx, repo)
	if _, err := fmt.Fprintln(out(g), text); err != nil {
		return err
	}
	return run.check(explorer.InsightSummary, repo)
}

// ExplainCmd implements the 'explain' command.
type ExplainCmd struct {
	Repository string `arg:"" help:"Repository as owner/name"`
	Path       string `arg:"" help:"File path inside the repository"`
}

func (e *ExplainCmd) Run(g *Global, root *CLI) error {
	ref, err := parseRepo(e.Repository)
	if err != nil {
		return err
	}
	ctx := context.Background()
	run, err := newInsightRun(ctx, root)
	if err != nil {
		return err
	}
	defer run.Close()

	repo, err := run.resolve(ctx, ref)
	if err != nil {
		return err
	}

	if err := run.loadFile(ctx, repo, e.Path); err != nil {
		return err
	}
	v := run.session.Snapshot()
	text := run.session.ExplainCode(ctx, v.FileContent, v.FileName)
	if _, err := fmt.Fprintln(out(g), text); err != nil {
		return err
	}
	return run.check(explorer.InsightExplanation, repo)
}

// ConvertCmd implements the 'convert' command.
type ConvertCmd struct {
	Repository string `arg:"" help:"Repository as owner/name"`
	Path       string `arg:"" help:"File path inside the repository"`
	To         string `short:"t" help:"Target language (defaults to conversion.default_target)"`
	From       string `short:"f" help:"Source language when it cannot be inferred from the file extension"`
}

func (c *ConvertCmd) Run(g *Global, root *CLI) error {
	ref, err := parseRepo(c.Repository)
	if err != nil {
		return err
	}
	ctx := context.Background()
	run, err := newInsightRun(ctx, root)
	if err != nil {
		return err
	}
	defer run.Close()

	if c.To != "" {
		if err := run.session.SetTargetLanguage(c.To); err != nil {
			return err
		}
	}
	repo, err := run.resolve(ctx, ref)
	if err != nil {
		return err
	}
	if err := run.loadFile(ctx, repo, c.Path); err != nil {
		return err
	}
	if c.From != "" {
		run.session.SetSourceLanguage(c.From)
	}

	v := run.session.Snapshot()
	if v.SourceLanguage == explorer.UnknownLanguage {
		return errors.ValidationError("cannot infer the source language, pass --from").
			WithContext("path", v.FilePath).
			Build()
	}
	convErr := run.session.ConvertCode(ctx)
	if _, err := fmt.Fprintln(out(g), run.session.Snapshot().ConvertedCode); err != nil {
		return err
	}
	if err := run.check(explorer.InsightConversion, repo); err != nil {
		return err
	}
	return convErr
}
