package github

import (
	stderrors "errors"
	"net"
	"net/http"
	"net/url"

	gh "github.com/google/go-github/v59/github"

	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
)

// Context keys attached to classified GitHub errors.
const (
	ctxStatus     = "status"
	ctxAPIMessage = "api_message"
	ctxOperation  = "operation"
)

// classify starts a classified error for a failed go-github call. Status codes
// map to categories; the upstream message is preserved in the context.
func classify(op string, resp *gh.Response, err error) *errors.ErrorBuilder {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	message := upstreamMessage(err)

	var b *errors.ErrorBuilder
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	var urlErr *url.Error
	var netErr net.Error
	switch {
	case stderrors.As(err, &rateErr), stderrors.As(err, &abuseErr), status == http.StatusTooManyRequests:
		b = errors.WrapError(err, errors.CategoryRateLimit, "GitHub API rate limit exceeded").RateLimit()
	case status == http.StatusNotFound:
		b = errors.WrapError(err, errors.CategoryNotFound, "GitHub resource not found").
			WithSeverity(errors.SeverityWarning)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		b = errors.WrapError(err, errors.CategoryAuth, "GitHub API denied access").UserAction()
	case status == 0 && (stderrors.As(err, &urlErr) || stderrors.As(err, &netErr)):
		b = errors.WrapError(err, errors.CategoryNetwork, "GitHub API unreachable").Retryable()
	default:
		b = errors.WrapError(err, errors.CategoryGitHub, "GitHub API request failed")
	}

	b = b.WithContext(ctxOperation, op)
	if status != 0 {
		b = b.WithContext(ctxStatus, status)
	}
	if message != "" {
		b = b.WithContext(ctxAPIMessage, message)
	}
	return b
}

func upstreamMessage(err error) string {
	var rateErr *gh.RateLimitError
	if stderrors.As(err, &rateErr) {
		return rateErr.Message
	}
	var abuseErr *gh.AbuseRateLimitError
	if stderrors.As(err, &abuseErr) {
		return abuseErr.Message
	}
	var respErr *gh.ErrorResponse
	if stderrors.As(err, &respErr) {
		return respErr.Message
	}
	return ""
}

// APIMessage returns the "message" field GitHub sent with a failed response,
// or "" when the failure carried none.
func APIMessage(err error) string {
	if ce, ok := errors.AsClassified(err); ok {
		if msg, ok := ce.Context().GetString(ctxAPIMessage); ok {
			return msg
		}
		return ""
	}
	return upstreamMessage(err)
}

// StatusCode returns the HTTP status of a failed GitHub call, or 0.
func StatusCode(err error) int {
	if ce, ok := errors.AsClassified(err); ok {
		if status, ok := ce.Context().GetInt(ctxStatus); ok {
			return status
		}
	}
	return 0
}

// IsNotFound reports whether err is a GitHub 404.
func IsNotFound(err error) bool { return errors.HasCategory(err, errors.CategoryNotFound) }

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool { return errors.HasCategory(err, errors.CategoryNetwork) }
