package explorer

import (
	stderrors "errors"
	"net/url"

	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
)

func notFound() error {
	return errors.NotFoundError("GitHub resource not found").
		WithContext("status", 404).
		WithContext("api_message", "Not Found").
		Build()
}

func apiError(message string) error {
	b := errors.GitHubError("GitHub API request failed").WithContext("status", 500)
	if message != "" {
		b = b.WithContext("api_message", message)
	}
	return b.Build()
}

func networkError() error {
	return errors.WrapError(&url.Error{Op: "Get", URL: "https://api.github.com", Err: stderrors.New("connection refused")},
		errors.CategoryNetwork, "GitHub API unreachable").Build()
}
