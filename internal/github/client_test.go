package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{BaseURL: srv.URL, Token: "test-token", PerPage: 2, MaxPages: 3})
	require.NoError(t, err)
	return c
}

func TestListRepositoriesUser(t *testing.T) {
	var auth string
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/users/octocat/repos?page=2&per_page=2>; rel="next"`, r.Host))
			fmt.Fprint(w, `[{"id":1,"name":"alpha","full_name":"octocat/alpha","owner":{"login":"octocat"},"description":"first","language":"Go","stargazers_count":5,"forks_count":1,"default_branch":"main","html_url":"https://github.com/octocat/alpha"},
				{"id":2,"name":"beta","full_name":"octocat/beta","owner":{"login":"octocat"}}]`)
		default:
			fmt.Fprint(w, `[{"id":3,"name":"gamma","full_name":"octocat/gamma","owner":{"login":"octocat"},"default_branch":"trunk"}]`)
		}
	})
	c := newTestClient(t, mux)

	repos, err := c.ListRepositories(context.Background(), OwnerUser, "octocat")
	require.NoError(t, err)
	require.Len(t, repos, 3)

	assert.Equal(t, "Bearer test-token", auth)
	assert.Equal(t, Repository{
		ID:            1,
		Name:          "alpha",
		FullName:      "octocat/alpha",
		Owner:         "octocat",
		Description:   "first",
		Language:      "Go",
		Stars:         5,
		Forks:         1,
		DefaultBranch: "main",
		HTMLURL:       "https://github.com/octocat/alpha",
	}, repos[0])
	assert.Equal(t, "trunk", repos[2].DefaultBranch)
}

func TestListRepositoriesStopsAtMaxPages(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Link", fmt.Sprintf(`<http://%s/orgs/acme/repos?page=%d>; rel="next"`, r.Host, calls+1))
		fmt.Fprintf(w, `[{"id":%d,"name":"r%d"}]`, calls, calls)
	})
	c := newTestClient(t, mux)

	repos, err := c.ListRepositories(context.Background(), OwnerOrg, "acme")
	require.NoError(t, err)
	assert.Len(t, repos, 3)
	assert.Equal(t, 3, calls)
}

func TestListRepositoriesNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/ghost/repos", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	c := newTestClient(t, mux)

	_, err := c.ListRepositories(context.Background(), OwnerUser, "ghost")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Not Found", APIMessage(err))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		header   map[string]string
		category errors.ErrorCategory
	}{
		{"unauthorized", http.StatusUnauthorized, nil, errors.CategoryAuth},
		{"forbidden", http.StatusForbidden, nil, errors.CategoryAuth},
		{"rate limited", http.StatusTooManyRequests, nil, errors.CategoryRateLimit},
		{"primary rate limit", http.StatusForbidden, map[string]string{"X-RateLimit-Remaining": "0", "X-RateLimit-Limit": "60"}, errors.CategoryRateLimit},
		{"server error", http.StatusBadGateway, nil, errors.CategoryGitHub},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/users/someone/repos", func(w http.ResponseWriter, _ *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"message":"upstream says no"}`)
			})
			c := newTestClient(t, mux)

			_, err := c.ListRepositories(context.Background(), OwnerUser, "someone")
			require.Error(t, err)
			assert.Equal(t, tt.category, errors.GetCategory(err))
			assert.Equal(t, "upstream says no", APIMessage(err))
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Options{BaseURL: url})
	require.NoError(t, err)

	_, err = c.ListRepositories(context.Background(), OwnerUser, "octocat")
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.Empty(t, APIMessage(err))
}

func TestListContentsSorted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/alpha/contents/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"name":"zeta.go","path":"zeta.go","type":"file","size":10},
			{"name":"docs","path":"docs","type":"dir"},
			{"name":"README.md","path":"README.md","type":"file","size":3},
			{"name":"api","path":"api","type":"dir"},
			{"name":"alpha.py","path":"alpha.py","type":"file"},
			{"name":"Alpha.py","path":"Alpha.py","type":"file"}
		]`)
	})
	c := newTestClient(t, mux)

	entries, err := c.ListContents(context.Background(), "octocat", "alpha", "")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"api", "docs", "Alpha.py", "alpha.py", "README.md", "zeta.go"}, names)
	assert.True(t, entries[0].IsDir())
	assert.Equal(t, 10, entries[5].Size)
}

func TestListContentsOfFileIsEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/alpha/contents/main.go", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"name":"main.go","path":"main.go","type":"file","encoding":"base64","content":""}`)
	})
	c := newTestClient(t, mux)

	entries, err := c.ListContents(context.Background(), "octocat", "alpha", "main.go")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestGetFileDecodesBase64(t *testing.T) {
	body := "package main\n\nfunc main() {}\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	// GitHub wraps base64 bodies at 60 columns.
	wrapped := encoded[:20] + `\n` + encoded[20:]

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/alpha/contents/cmd/main.go", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"name":"main.go","path":"cmd/main.go","sha":"abc","type":"file","encoding":"base64","content":"%s"}`, wrapped)
	})
	c := newTestClient(t, mux)

	f, err := c.GetFile(context.Background(), "octocat", "alpha", "cmd/main.go")
	require.NoError(t, err)
	assert.Equal(t, body, f.Content)
	assert.Equal(t, "main.go", f.Name)
	assert.Equal(t, "abc", f.SHA)
}

func TestGetFilePassThroughAndEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/alpha/contents/plain.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"name":"plain.txt","path":"plain.txt","type":"file","content":"as is"}`)
	})
	mux.HandleFunc("/repos/octocat/alpha/contents/empty.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"name":"empty.txt","path":"empty.txt","type":"file","encoding":"base64"}`)
	})
	c := newTestClient(t, mux)

	f, err := c.GetFile(context.Background(), "octocat", "alpha", "plain.txt")
	require.NoError(t, err)
	assert.Equal(t, "as is", f.Content)

	f, err = c.GetFile(context.Background(), "octocat", "alpha", "empty.txt")
	require.NoError(t, err)
	assert.Empty(t, f.Content)
}

func TestGetReadme(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/alpha/readme", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"name":"README.md","path":"README.md","encoding":"base64","content":"%s"}`,
			base64.StdEncoding.EncodeToString([]byte("# Alpha\nDoes things.")))
	})
	mux.HandleFunc("/repos/octocat/bare/readme", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	c := newTestClient(t, mux)

	text, err := c.GetReadme(context.Background(), "octocat", "alpha")
	require.NoError(t, err)
	assert.Equal(t, "# Alpha\nDoes things.", text)

	_, err = c.GetReadme(context.Background(), "octocat", "bare")
	assert.True(t, IsNotFound(err))
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "::not-a-url"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestParseOwnerKind(t *testing.T) {
	k, err := ParseOwnerKind(" Organization ")
	require.NoError(t, err)
	assert.Equal(t, OwnerOrg, k)
	assert.Equal(t, "Organization", k.Label())

	k, err = ParseOwnerKind("USER")
	require.NoError(t, err)
	assert.Equal(t, "User", k.Label())

	_, err = ParseOwnerKind("team")
	assert.Error(t, err)
}

func TestGetRepository(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/alpha", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id":9,"name":"alpha","full_name":"octocat/alpha","owner":{"login":"octocat"},"description":"first","default_branch":"main"}`)
	})
	mux.HandleFunc("/repos/octocat/ghost", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	c := newTestClient(t, mux)

	repo, err := c.GetRepository(context.Background(), "octocat", "alpha")
	require.NoError(t, err)
	assert.Equal(t, "octocat/alpha", repo.FullName)
	assert.Equal(t, "octocat", repo.Owner)
	assert.Equal(t, "first", repo.Description)

	_, err = c.GetRepository(context.Background(), "octocat", "ghost")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
