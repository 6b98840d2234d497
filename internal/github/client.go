// Package github reads public repositories, directory listings and file
// bodies from the GitHub REST API.
package github

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	gh "github.com/google/go-github/v59/github"

	"git.home.luguber.info/inful/repoexplorer/internal/config"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
)

const (
	defaultPerPage  = 100
	defaultMaxPages = 3
)

// Client wraps go-github with the listing and content calls the explorer needs.
type Client struct {
	gh       *gh.Client
	perPage  int
	maxPages int
	logger   *slog.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL    string       // REST base URL; empty uses api.github.com
	Token      string       // Optional bearer token
	PerPage    int          // Page size, capped at 100
	MaxPages   int          // Maximum number of listing pages
	HTTPClient *http.Client // Carries the retry transport; nil uses http.DefaultClient
	Logger     *slog.Logger
}

// NewClient creates a client. The base URL always ends in a slash, as go-github requires.
func NewClient(opts Options) (*Client, error) {
	client := gh.NewClient(opts.HTTPClient)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}
	if opts.BaseURL != "" {
		raw := opts.BaseURL
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, errors.ConfigError("invalid GitHub API URL").
				WithCause(err).
				WithContext("api_url", opts.BaseURL).
				Build()
		}
		client.BaseURL = u
	}

	perPage := opts.PerPage
	if perPage <= 0 || perPage > defaultPerPage {
		perPage = defaultPerPage
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{gh: client, perPage: perPage, maxPages: maxPages, logger: logger}, nil
}

// NewClientFromConfig creates a client from the github section, sending
// requests through transport (normally a retry.Transport).
func NewClientFromConfig(c config.GitHubConfig, transport http.RoundTripper) (*Client, error) {
	return NewClient(Options{
		BaseURL:    c.APIURL,
		Token:      c.Token,
		PerPage:    c.PerPage,
		MaxPages:   c.MaxPages,
		HTTPClient: &http.Client{Transport: transport},
	})
}

// ListRepositories lists the public repositories of a user or organization,
// following pagination up to the configured page limit.
func (c *Client) ListRepositories(ctx context.Context, kind OwnerKind, name string) ([]Repository, error) {
	var repos []Repository
	page := 1

	for fetched := 0; fetched < c.maxPages && page != 0; fetched++ {
		list := gh.ListOptions{Page: page, PerPage: c.perPage}
		var (
			batch []*gh.Repository
			resp  *gh.Response
			err   error
		)
		if kind == OwnerOrg {
			batch, resp, err = c.gh.Repositories.ListByOrg(ctx, name, &gh.RepositoryListByOrgOptions{ListOptions: list})
		} else {
			batch, resp, err = c.gh.Repositories.ListByUser(ctx, name, &gh.RepositoryListByUserOptions{ListOptions: list})
		}
		if err != nil {
			return nil, classify("list_repositories", resp, err).
				WithContext("owner", name).
				WithContext("kind", string(kind)).
				Build()
		}

		for _, r := range batch {
			if r == nil {
				continue
			}
			repos = append(repos, convertRepository(r))
		}
		page = resp.NextPage
	}

	c.logger.Debug("Listed repositories",
		logfields.Owner(name),
		slog.String("kind", string(kind)),
		slog.Int("count", len(repos)))
	return repos, nil
}

// GetRepository returns one repository by owner and name.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (Repository, error) {
	r, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return Repository{}, classify("get_repository", resp, err).
			WithContext("repository", owner+"/"+repo).
			Build()
	}
	return convertRepository(r), nil
}

// ListContents lists a directory, directories first. A path naming a file
// yields an empty listing.
func (c *Client) ListContents(ctx context.Context, owner, repo, path string) ([]Entry, error) {
	file, dir, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return nil, classify("list_contents", resp, err).
			WithContext("repository", owner+"/"+repo).
			WithContext("path", path).
			Build()
	}
	if file != nil {
		return []Entry{}, nil
	}

	entries := make([]Entry, 0, len(dir))
	for _, item := range dir {
		if item == nil {
			continue
		}
		entries = append(entries, Entry{
			Name:   item.GetName(),
			Path:   item.GetPath(),
			SHA:    item.GetSHA(),
			Type:   EntryType(item.GetType()),
			Size:   item.GetSize(),
			APIURL: item.GetURL(),
		})
	}
	slices.SortStableFunc(entries, lessEntry)
	return entries, nil
}

// GetReadme returns the decoded README of a repository.
func (c *Client) GetReadme(ctx context.Context, owner, repo string) (string, error) {
	content, resp, err := c.gh.Repositories.GetReadme(ctx, owner, repo, nil)
	if err != nil {
		return "", classify("get_readme", resp, err).
			WithContext("repository", owner+"/"+repo).
			Build()
	}
	return decodeContent(content)
}

// GetFile returns a file with its body decoded.
func (c *Client) GetFile(ctx context.Context, owner, repo, path string) (*File, error) {
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return nil, classify("get_file", resp, err).
			WithContext("repository", owner+"/"+repo).
			WithContext("path", path).
			Build()
	}
	if file == nil {
		return nil, errors.ValidationError("path is a directory, not a file").
			WithContext("repository", owner+"/"+repo).
			WithContext("path", path).
			Build()
	}

	text, err := decodeContent(file)
	if err != nil {
		return nil, err
	}
	return &File{
		Name:     file.GetName(),
		Path:     file.GetPath(),
		SHA:      file.GetSHA(),
		Encoding: file.GetEncoding(),
		Content:  text,
	}, nil
}

// decodeContent decodes base64 bodies and passes other encodings through.
func decodeContent(rc *gh.RepositoryContent) (string, error) {
	if rc == nil || rc.Content == nil {
		return "", nil
	}
	if rc.GetEncoding() != "base64" {
		return *rc.Content, nil
	}
	text, err := rc.GetContent()
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryGitHub, "failed to decode file content").
			WithContext("path", rc.GetPath()).
			Build()
	}
	return text, nil
}

func convertRepository(r *gh.Repository) Repository {
	return Repository{
		ID:            r.GetID(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Owner:         r.GetOwner().GetLogin(),
		Description:   r.GetDescription(),
		Language:      r.GetLanguage(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		DefaultBranch: r.GetDefaultBranch(),
		HTMLURL:       r.GetHTMLURL(),
	}
}
