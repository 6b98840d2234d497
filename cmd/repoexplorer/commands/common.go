package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/repoexplorer/internal/config"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/github"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path" default:"repoexplorer.yaml"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	ShowVersion kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve     ServeCmd     `cmd:"" help:"Serve the explorer over HTTP"`
	Init      InitCmd      `cmd:"" help:"Initialize a new configuration file"`
	Repos     ReposCmd     `cmd:"" help:"List the public repositories of a user or organization"`
	Ls        LsCmd        `cmd:"" help:"List a directory of a repository"`
	Cat       CatCmd       `cmd:"" help:"Print a file of a repository"`
	Summarize SummarizeCmd `cmd:"" help:"Summarize a repository from its README"`
	Explain   ExplainCmd   `cmd:"" help:"Explain a source file in plain language"`
	Convert   ConvertCmd   `cmd:"" help:"Convert a source file to another language"`
	History   HistoryCmd   `cmd:"" help:"Show recorded summaries, explanations and conversions"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// logLevel is shared by every handler installed here so a config reload can
// change the level of a running server.
var logLevel = new(slog.LevelVar)

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logLevel.Set(slog.LevelInfo)
	if c.Verbose {
		logLevel.Set(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	return nil
}

// configureLogging applies the logging section. --verbose wins over the configured level.
func configureLogging(cfg config.LoggingConfig, verbose bool) *slog.Logger {
	if verbose {
		logLevel.Set(slog.LevelDebug)
	} else {
		logLevel.Set(cfg.SlogLevel())
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if config.NormalizeLogFormat(cfg.Format) == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// loadConfig reads the configuration, falling back to defaults when the file
// does not exist, and configures logging from it.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(root.Config)
	if err != nil {
		return nil, err
	}
	configureLogging(cfg.Logging, root.Verbose)
	return cfg, nil
}

// parseRepo splits an "owner/name" argument.
func parseRepo(raw string) (github.Repository, error) {
	owner, name, ok := strings.Cut(strings.Trim(raw, "/"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return github.Repository{}, errors.ValidationError(fmt.Sprintf("repository must be given as owner/name, got %q", raw)).
			WithContext("repository", raw).
			Build()
	}
	return github.Repository{Owner: owner, Name: name, FullName: owner + "/" + name}, nil
}

func out(g *Global) io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
