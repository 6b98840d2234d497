package commands

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"git.home.luguber.info/inful/repoexplorer/internal/github"
	"git.home.luguber.info/inful/repoexplorer/internal/llm"
)

const descriptionWidth = 60

// ReposCmd implements the 'repos' command.
type ReposCmd struct {
	Name string `arg:"" help:"GitHub user or organization name"`
	Org  bool   `help:"Treat the name as an organization"`
}

func (r *ReposCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	rt, err := newRuntime(context.Background(), cfg, nil, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	kind := github.OwnerUser
	if r.Org {
		kind = github.OwnerOrg
	}
	repos, err := rt.github.ListRepositories(context.Background(), kind, strings.TrimSpace(r.Name))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out(g), stringifyRepositories(repos))
	return err
}

func stringifyRepositories(repos []github.Repository) string {
	if len(repos) == 0 {
		return "No public repositories found.\n"
	}
	buff := &bytes.Buffer{}
	table := tablewriter.NewWriter(buff)
	table.SetBorder(false)
	table.SetHeader([]string{
		"Repository",
		"Language",
		"Stars",
		"Description",
	})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, repo := range repos {
		table.Append([]string{
			repo.FullName,
			repo.Language,
			strconv.Itoa(repo.Stars),
			llm.Truncate(repo.Description, descriptionWidth, "..."),
		})
	}
	table.Render()
	return buff.String()
}

// LsCmd implements the 'ls' command.
type LsCmd struct {
	Repository string `arg:"" help:"Repository as owner/name"`
	Path       string `arg:"" optional:"" help:"Directory inside the repository"`
}

func (l *LsCmd) Run(g *Global, root *CLI) error {
	repo, err := parseRepo(l.Repository)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	rt, err := newRuntime(context.Background(), cfg, nil, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	entries, err := rt.github.ListContents(context.Background(), repo.Owner, repo.Name, strings.Trim(l.Path, "/"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out(g), stringifyEntries(entries))
	return err
}

func stringifyEntries(entries []github.Entry) string {
	if len(entries) == 0 {
		return "Empty directory.\n"
	}
	buff := &bytes.Buffer{}
	table := tablewriter.NewWriter(buff)
	table.SetBorder(false)
	table.SetHeader([]string{
		"Type",
		"Name",
		"Size",
	})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, e := range entries {
		size := ""
		if !e.IsDir() {
			size = strconv.Itoa(e.Size)
		}
		table.Append([]string{string(e.Type), e.Name, size})
	}
	table.Render()
	return buff.String()
}

// CatCmd implements the 'cat' command.
type CatCmd struct {
	Repository string `arg:"" help:"Repository as owner/name"`
	Path       string `arg:"" help:"File path inside the repository"`
}

func (c *CatCmd) Run(g *Global, root *CLI) error {
	repo, err := parseRepo(c.Repository)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	rt, err := newRuntime(context.Background(), cfg, nil, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	file, err := rt.github.GetFile(context.Background(), repo.Owner, repo.Name, strings.Trim(c.Path, "/"))
	if err != nil {
		return err
	}
	w := out(g)
	if _, err := fmt.Fprint(w, file.Content); err != nil {
		return err
	}
	if !strings.HasSuffix(file.Content, "\n") {
		_, err = fmt.Fprintln(w)
	}
	return err
}
