package llm

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"git.home.luguber.info/inful/repoexplorer/internal/config"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
)

// User-visible messages for failed generations.
const (
	MsgCallFailed = "LLM API call failed."
	MsgNoResponse = "No response from AI model."
)

const defaultAPIVersion = "v1beta"

var apiVersionSegment = regexp.MustCompile(`^v[0-9]+((alpha|beta)[0-9]*)?$`)

// GeminiClient calls the Gemini API through the genai SDK.
type GeminiClient struct {
	client  *genai.Client
	initErr error
	apiURL  string
	logger  *slog.Logger

	mu    sync.RWMutex
	model string
}

// GeminiOptions configures a GeminiClient.
type GeminiOptions struct {
	APIURL     string // e.g. https://generativelanguage.googleapis.com/v1beta
	APIKey     string
	Model      string
	HTTPClient *http.Client // Carries the retry transport; nil uses http.DefaultClient
	Logger     *slog.Logger
}

// NewGeminiClient creates a client. A client that cannot be set up (a missing
// API key, for one) is still returned; its calls fail with a config error so
// the GitHub side of the explorer keeps working.
func NewGeminiClient(opts GeminiOptions) *GeminiClient {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &GeminiClient{apiURL: opts.APIURL, model: opts.Model, logger: logger}
	if opts.APIKey == "" {
		c.initErr = errors.ConfigError("llm.api_key is not set").Build()
		return c
	}
	baseURL, version := splitAPIURL(opts.APIURL)
	c.client, c.initErr = genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL, APIVersion: version},
	})
	if c.initErr != nil {
		c.initErr = errors.WrapError(c.initErr, errors.CategoryConfig, "failed to create LLM client").
			WithContext("api_url", opts.APIURL).
			Build()
	}
	return c
}

// splitAPIURL separates a trailing API version segment (v1, v1beta, ...) from
// the base URL. Without one the SDK default version is used.
func splitAPIURL(raw string) (string, string) {
	raw = strings.TrimRight(raw, "/")
	u, err := url.Parse(raw)
	if err != nil {
		return raw, defaultAPIVersion
	}
	i := strings.LastIndex(u.Path, "/")
	if i < 0 || !apiVersionSegment.MatchString(u.Path[i+1:]) {
		return raw, defaultAPIVersion
	}
	version := u.Path[i+1:]
	u.Path = u.Path[:i]
	return u.String(), version
}

// NewGeminiClientFromConfig creates a client from the llm section, sending
// requests through transport (normally a retry.Transport).
func NewGeminiClientFromConfig(c config.LLMConfig, transport http.RoundTripper) *GeminiClient {
	return NewGeminiClient(GeminiOptions{
		APIURL:     c.APIURL,
		APIKey:     c.APIKey,
		Model:      c.Model,
		HTTPClient: &http.Client{Transport: transport},
	})
}

// Model returns the model currently used.
func (c *GeminiClient) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SetModel swaps the model for subsequent calls.
func (c *GeminiClient) SetModel(model string) {
	if model == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

// Generate sends one generateContent request and returns the first candidate's text.
func (c *GeminiClient) Generate(ctx context.Context, systemPrompt, userQuery string) (string, error) {
	if c.initErr != nil {
		return "", c.initErr
	}
	model := c.Model()

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(userQuery), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", c.classify(err, model)
	}

	c.logger.Debug("LLM request completed",
		logfields.Model(model),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))

	text := ""
	if resp != nil {
		text = resp.Text()
	}
	if text == "" {
		return MsgNoResponse, nil
	}
	return text, nil
}

func (c *GeminiClient) classify(err error, model string) error {
	if apiErr, ok := asAPIError(err); ok {
		c.logger.Warn("LLM request rejected",
			logfields.Model(model),
			logfields.Status(apiErr.Code),
			slog.String("body", apiErr.Message))
		b := errors.LLMError(MsgCallFailed).
			WithCause(err).
			WithContext("status", apiErr.Code).
			WithContext("model", model)
		if apiErr.Code == http.StatusTooManyRequests {
			b = b.RateLimit()
		}
		return b.Build()
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.WrapError(err, errors.CategoryNetwork, "LLM request canceled").
			WithContext("model", model).
			Build()
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return errors.WrapError(err, errors.CategoryNetwork, "LLM API unreachable").
			Retryable().
			WithContext("model", model).
			Build()
	}
	return errors.WrapError(err, errors.CategoryLLM, MsgCallFailed).
		WithContext("model", model).
		Build()
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	var ptr *genai.APIError
	if stderrors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}
