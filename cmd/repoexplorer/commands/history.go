package commands

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"git.home.luguber.info/inful/repoexplorer/internal/explorer"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/history"
	"git.home.luguber.info/inful/repoexplorer/internal/llm"
)

const historyTextWidth = 48

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Repository string `short:"r" help:"Only show insights for this owner/name"`
	Limit      int    `short:"n" help:"Maximum number of insights" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return errors.ConfigError("insight history is disabled (set history.path)").
			WithContext("config", root.Config).
			Build()
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	var insights []explorer.Insight
	if h.Repository != "" {
		repo, perr := parseRepo(h.Repository)
		if perr != nil {
			return perr
		}
		insights, err = store.ListByRepository(ctx, repo.FullName, h.Limit)
	} else {
		insights, err = store.List(ctx, h.Limit)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out(g), stringifyInsights(insights))
	return err
}

func stringifyInsights(insights []explorer.Insight) string {
	if len(insights) == 0 {
		return "No insights recorded.\n"
	}
	buff := &bytes.Buffer{}
	table := tablewriter.NewWriter(buff)
	table.SetBorder(false)
	table.SetHeader([]string{
		"Created",
		"Kind",
		"Repository",
		"Path",
		"Languages",
		"Text",
	})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, in := range insights {
		langs := in.SourceLanguage
		if in.TargetLanguage != "" {
			langs += " -> " + in.TargetLanguage
		}
		text := strings.Join(strings.Fields(in.Text), " ")
		table.Append([]string{
			in.CreatedAt.Local().Format(time.DateTime),
			string(in.Kind),
			in.Repository,
			in.Path,
			langs,
			llm.Truncate(text, historyTextWidth, "..."),
		})
	}
	table.Render()
	return buff.String()
}
