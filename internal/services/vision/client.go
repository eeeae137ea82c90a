package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"igreport/internal/extraction"
	"igreport/internal/logging"
	"igreport/internal/services"
)

const (
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 60 * time.Second
	defaultAttempts    = 5
	defaultBaseBackoff = 20 * time.Second
	defaultBaseURL     = "https://api.openai.com/v1/chat/completions"
	defaultModel       = "gpt-4o-mini"
)

// Config captures the runtime settings required to talk to the vision model.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
	MaxAttempts    int
}

// Scheduler is the slice of the rate scheduler the client needs.
type Scheduler interface {
	Await(ctx context.Context) error
	RecordBackoff(delay time.Duration)
}

// Client issues extraction requests. It is safe for concurrent use; the
// scheduler serializes the actual dispatches.
type Client struct {
	cfg        Config
	httpClient *http.Client
	scheduler  Scheduler
	logger     *slog.Logger

	maxAttempts int
	baseBackoff time.Duration
	sleeper     func(time.Duration)
	now         func() time.Time
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

// WithBaseBackoff overrides the fallback delay used when a rate-limit reply
// carries no hint. The delay doubles on every attempt.
func WithBaseBackoff(delay time.Duration) Option {
	return func(c *Client) {
		c.baseBackoff = delay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithClock overrides the time source used to resolve reset-epoch headers.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient constructs a vision client sharing the supplied scheduler.
func NewClient(cfg Config, scheduler Scheduler, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:  &http.Client{Timeout: timeout},
		scheduler:   scheduler,
		maxAttempts: cfg.MaxAttempts,
		baseBackoff: defaultBaseBackoff,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	if client.maxAttempts <= 0 {
		client.maxAttempts = defaultAttempts
	}
	client.logger = logging.NewComponentLogger(client.logger, "vision")
	return client
}

// Available reports whether a credential is configured.
func (c *Client) Available() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.cfg.Model
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Extract asks the model for the username and follower count in image. It
// never returns an error; a degraded result carries the failure in Err.
func (c *Client) Extract(ctx context.Context, image []byte) extraction.Result {
	logger := logging.WithContext(ctx, c.logger)
	if !c.Available() {
		return failedResult(services.Wrap(services.ErrRemoteUnavailable, "remote", "extract", "api key not configured", nil))
	}

	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: UserPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: DataURL(image)}},
			}},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if c.scheduler != nil {
			if err := c.scheduler.Await(ctx); err != nil {
				return failedResult(services.Wrap(services.ErrRemoteFatal, "remote", "await", "scheduler wait interrupted", err))
			}
		}

		out := c.attempt(ctx, payload, attempt)
		switch out.kind {
		case outcomeSuccess:
			logger.Info("remote extraction complete",
				logging.Int("attempt", attempt),
				logging.String("identity", out.result.Identity),
				logging.String("followers_raw", out.result.FollowersRaw),
				logging.Float64("confidence", out.result.ConfidenceValue()),
			)
			return out.result
		case outcomeTerminal:
			logging.WarnWithContext(logger, "remote extraction failed", "remote_failed",
				logging.Int("attempt", attempt),
				logging.Error(out.err),
				logging.String(logging.FieldErrorHint, "reply with a correction or check the api key and model"),
			)
			return failedResult(out.err)
		}

		lastErr = out.err
		if c.scheduler != nil {
			c.scheduler.RecordBackoff(out.delay)
		}
		logging.WarnWithContext(logger, "remote extraction rate limited", "remote_rate_limited",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", c.maxAttempts),
			logging.Duration("retry_after", out.delay),
			logging.String(logging.FieldErrorHint, "lower remote.max_requests_per_minute or wait"),
			logging.String(logging.FieldImpact, "extraction delayed"),
		)
		if attempt == c.maxAttempts {
			break
		}
		if err := c.sleep(ctx, out.delay); err != nil {
			return failedResult(services.Wrap(services.ErrRemoteFatal, "remote", "backoff", "retry wait interrupted", err))
		}
	}

	return failedResult(services.Wrap(services.ErrRateLimited, "remote", "extract",
		fmt.Sprintf("gave up after %d attempts", c.maxAttempts), lastErr))
}

// HealthCheck issues a text-only ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.Available() {
		return services.Wrap(services.ErrRemoteUnavailable, "remote", "health", "api key not configured", nil)
	}
	if c.scheduler != nil {
		if err := c.scheduler.Await(ctx); err != nil {
			return err
		}
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You must respond with JSON only."},
			{Role: "user", Content: `Respond with {"ok":true}`},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	content, err := c.send(ctx, payload)
	if err != nil {
		return fmt.Errorf("vision health: %w", err)
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(content)), &parsed); err != nil {
		return fmt.Errorf("vision health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("vision health: unexpected response")
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, payload chatCompletionRequest, attempt int) attemptOutcome {
	content, err := c.send(ctx, payload)
	if err != nil {
		if ctx.Err() != nil {
			return terminal(services.Wrap(services.ErrRemoteFatal, "remote", "request", "cancelled", err))
		}
		if isRateLimited(err) {
			return retryAfter(c.retryDelay(err, attempt), err)
		}
		return terminal(services.Wrap(services.ErrRemoteFatal, "remote", "request", "", err))
	}
	result, err := ParseResult(content)
	if err != nil {
		return terminal(services.Wrap(services.ErrRemoteParse, "remote", "decode", summarizePayloadSnippet(content), err))
	}
	return success(result)
}

func (c *Client) send(ctx context.Context, payload chatCompletionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", rid)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			Header:     resp.Header.Clone(),
		}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	// An empty reply is surfaced to the parser, which rejects it.
	return "", nil
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
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

// DataURL encodes image as a base64 data URL, sniffing PNG and defaulting to JPEG.
func DataURL(image []byte) string {
	mime := "image/jpeg"
	if bytes.HasPrefix(image, []byte("\x89PNG\r\n\x1a\n")) {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func failedResult(err error) extraction.Result {
	return extraction.Result{Source: extraction.SourceRemote, Err: err}
}
