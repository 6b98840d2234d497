package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/repoexplorer/cmd/repoexplorer/commands"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("repoexplorer"),
		kong.Description("Browse public GitHub repositories with model-generated summaries, explanations and conversions."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default(), Out: os.Stdout}, cli)
	if err != nil {
		code := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(os.Stderr, err)
		os.Exit(code)
	}
}
