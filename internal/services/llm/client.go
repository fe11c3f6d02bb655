package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEndpoint       = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout    = 15 * time.Second
	defaultRetryAttempts  = 5
	defaultRetryBaseDelay = time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	maxResponseBytes      = 4 << 20
)

// ErrMalformedPayload marks a completion whose content is not the expected
// JSON object.
var ErrMalformedPayload = errors.New("malformed completion payload")

// Config captures the runtime settings required to talk to the provider.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	Temperature    float64
	// MaxTokens caps each completion; 0 leaves it to the provider.
	MaxTokens int
}

// Client wraps an OpenRouter-compatible chat completion API.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default attempt count (5).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper replaces the retry sleep, mostly for tests.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEndpoint
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	client := &Client{
		cfg:              cfg,
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Prompt is one content request.
type Prompt struct {
	ContentType string
	System      string
	User        string
}

// Section is the decoded result of one content request.
type Section struct {
	ContentType string
	Body        string
	// Model is the model the provider reports having used, falling back to
	// the configured one.
	Model            string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

// Generate requests one content section and decodes its {"body": ...}
// payload.
func (c *Client) Generate(ctx context.Context, prompt Prompt) (Section, error) {
	section := Section{ContentType: prompt.ContentType, Model: c.cfg.Model}
	system := strings.TrimSpace(prompt.System)
	user := strings.TrimSpace(prompt.User)
	if system == "" || user == "" {
		return section, errors.New("llm generate: system and user prompts required")
	}

	reply, err := c.complete(ctx, c.request(system, user, c.cfg.Temperature, c.cfg.MaxTokens), "llm generate "+prompt.ContentType)
	if err != nil {
		return section, err
	}
	var payload struct {
		Body string `json:"body"`
	}
	if err := decodeJSON(reply.content, &payload); err != nil {
		return section, fmt.Errorf("llm generate %s: %w: %w", prompt.ContentType, ErrMalformedPayload, err)
	}
	section.Body = strings.TrimSpace(payload.Body)
	section.FinishReason = reply.finishReason
	section.PromptTokens = reply.usage.PromptTokens
	section.CompletionTokens = reply.usage.CompletionTokens
	if reply.model != "" {
		section.Model = reply.model
	}
	return section, nil
}

// HealthCheck issues a tiny request to verify the key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	reply, err := c.complete(ctx, c.request(
		"You must respond with JSON only.",
		`Respond with {"ok":true}`,
		0, 16,
	), "llm health")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := decodeJSON(reply.content, &parsed); err != nil {
		return fmt.Errorf("llm health: %w: %w", ErrMalformedPayload, err)
	}
	if !parsed.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

// StatusCode reports the HTTP status carried by err when the provider
// rejected the request.
func StatusCode(err error) (int, bool) {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}

// RefusalError is returned when the model declines to answer. It is never
// retried.
type RefusalError struct {
	Refusal string
}

func (e *RefusalError) Error() string {
	return "llm refused: " + e.Refusal
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, e.Body)
}

type emptyContentError struct {
	FinishReason string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("empty content (finish_reason=%q, response_snippet=%s)", e.FinishReason, e.Snippet)
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage tokenUsage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type tokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type reply struct {
	content      string
	model        string
	finishReason string
	usage        tokenUsage
}

func (c *Client) request(system, user string, temperature float64, maxTokens int) chatRequest {
	return chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
}

// complete sends req, retrying rate limits, server errors, timeouts and empty
// completions with backoff.
func (c *Client) complete(ctx context.Context, req chatRequest, op string) (reply, error) {
	if c.cfg.APIKey == "" {
		return reply{}, fmt.Errorf("%s: api key required", op)
	}
	attempts := max(c.retryMaxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := c.send(ctx, req)
		if err == nil {
			return out, nil
		}
		delay, retry := c.retryDelay(ctx, err, attempt)
		if !retry {
			return reply{}, fmt.Errorf("%s: %w", op, err)
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if err := c.sleep(ctx, delay); err != nil {
			return reply{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	return reply{}, fmt.Errorf("%s: gave up after %d attempts: %w", op, attempts, lastErr)
}

func (c *Client) send(ctx context.Context, req chatRequest) (reply, error) {
	encoded, err := json.Marshal(req)
	if err != nil {
		return reply{}, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return reply{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		httpReq.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return reply{}, fmt.Errorf("http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return reply{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return reply{}, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       snippet(string(body)),
			RetryAfter: retryAfter,
		}
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return reply{}, fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return reply{}, fmt.Errorf("api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	if len(decoded.Choices) == 0 {
		return reply{}, &emptyContentError{Snippet: snippet(string(body))}
	}
	choice := decoded.Choices[0]
	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		return reply{}, &RefusalError{Refusal: refusal}
	}
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return reply{}, &emptyContentError{FinishReason: choice.FinishReason, Snippet: snippet(string(body))}
	}
	return reply{
		content:      content,
		model:        strings.TrimSpace(decoded.Model),
		finishReason: choice.FinishReason,
		usage:        decoded.Usage,
	}, nil
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var empty *emptyContentError
	if errors.As(err, &empty) {
		return c.backoffDelay(attempt), true
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch code := statusErr.StatusCode; {
		case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

// backoffDelay doubles from the base delay: attempt 1 waits base, attempt 2
// waits base*2 and so on, capped at the max delay.
func (c *Client) backoffDelay(attempt int) time.Duration {
	if c.retryBaseDelay <= 0 {
		return 0
	}
	delay := c.retryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if c.retryMaxDelay > 0 && delay >= c.retryMaxDelay {
			break
		}
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if c.retryMaxDelay > 0 && delay > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}

// decodeJSON unmarshals a completion, tolerating a surrounding code fence or
// prose around the object.
func decodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	err := json.Unmarshal([]byte(trimmed), target)
	if err == nil {
		return nil
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start || (start == 0 && end == len(trimmed)-1) {
		return fmt.Errorf("%w (payload: %s)", err, snippet(trimmed))
	}
	object := trimmed[start : end+1]
	if err := json.Unmarshal([]byte(object), target); err != nil {
		return fmt.Errorf("%w (payload: %s)", err, snippet(object))
	}
	return nil
}

func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}
