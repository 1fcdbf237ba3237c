// Package transcribe sends recorded audio to Gemini and returns a Markdown
// transcript with summary, and can re-summarize text into structured fields.
package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	// DefaultModel is the Gemini model used when none is configured.
	DefaultModel = "gemini-3-flash-preview"
	// DefaultTimeout bounds each remote call.
	DefaultTimeout = 90 * time.Second
)

const transcriptionPrompt = "Act as an expert meeting scribe. Provide a verbatim transcription " +
	"of the recording, followed by a structured summary with these sections: " +
	"# Executive Summary, ## Key Discussion Points, ## Decisions Made, and ### Action Items. " +
	"Format everything as Markdown."

const summaryPrompt = "Summarize the following meeting notes in a short paragraph and list every " +
	"concrete action item as a separate string. Notes:\n\n"

// Summary is the structured result of Summarize.
type Summary struct {
	Summary     string   `json:"summary"`
	ActionItems []string `json:"actionItems"`
}

// Backend is the part of the genai SDK the client uses. *genai.Models
// satisfies it.
type Backend interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// BackendFactory builds a Backend for an API key.
type BackendFactory func(ctx context.Context, apiKey string) (Backend, error)

// GeminiOptions tunes the SDK client. Zero values use the SDK defaults.
type GeminiOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiBackend returns a factory for the Gemini Developer API.
func GeminiBackend(opts GeminiOptions) BackendFactory {
	return func(ctx context.Context, apiKey string) (Backend, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:      apiKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPClient:  opts.HTTPClient,
			HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
		})
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		return client.Models, nil
	}
}

// Options configures a Client.
type Options struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Backend BackendFactory
}

// Client performs transcription and summarization calls. It is safe for
// concurrent use; the SDK client is created lazily per API key.
type Client struct {
	model   string
	timeout time.Duration
	factory BackendFactory
	logger  *zap.Logger

	mu      sync.Mutex
	apiKey  string
	backend Backend
}

// New creates a client. A missing key is not an error here; calls fail with
// ErrAPIKeyMissing until SetAPIKey is called.
func New(opts Options, logger *zap.Logger) *Client {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Backend == nil {
		opts.Backend = GeminiBackend(GeminiOptions{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		model:   opts.Model,
		timeout: opts.Timeout,
		factory: opts.Backend,
		logger:  logger,
		apiKey:  strings.TrimSpace(opts.APIKey),
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// HasAPIKey reports whether a key is configured.
func (c *Client) HasAPIKey() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apiKey != ""
}

// SetAPIKey replaces the key and drops the cached SDK client.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = strings.TrimSpace(key)
	c.backend = nil
}

func (c *Client) backendFor(ctx context.Context) (Backend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	if c.backend != nil {
		return c.backend, nil
	}
	b, err := c.factory(ctx, c.apiKey)
	if err != nil {
		return nil, &AIServiceError{Op: "connect", Err: err}
	}
	c.backend = b
	return b, nil
}

// Transcribe sends audio inline with the scribe prompt and returns the
// model's Markdown verbatim.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	backend, err := c.backendFor(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Blob.Data is base64-encoded by the SDK when the request is serialized.
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: audio}},
			{Text: transcriptionPrompt},
		},
	}}

	c.logger.Info("transcription request",
		zap.String("model", c.model),
		zap.String("mimeType", mimeType),
		zap.Int("audioBytes", len(audio)))

	start := time.Now()
	resp, err := backend.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		err = classify("transcribe", err)
		c.logger.Warn("transcription failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return "", err
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	c.logger.Info("transcription complete", zap.Int("chars", len(text)), zap.Duration("took", time.Since(start)))
	return text, nil
}

// Summarize asks for a JSON object with a summary and action items.
func (c *Client) Summarize(ctx context.Context, text string) (Summary, error) {
	backend, err := c.backendFor(ctx)
	if err != nil {
		return Summary{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: summaryPrompt + text}},
	}}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   summarySchema(),
	}

	resp, err := backend.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		err = classify("summarize", err)
		c.logger.Warn("summarize failed", zap.Error(err))
		return Summary{}, err
	}

	body := responseText(resp)
	if strings.TrimSpace(body) == "" {
		return Summary{}, ErrEmptyResponse
	}
	return parseSummary(body)
}

func summarySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {Type: genai.TypeString},
			"actionItems": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"summary", "actionItems"},
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	return resp.Text()
}

// parseSummary decodes a summary object; both fields must be present.
func parseSummary(body string) (Summary, error) {
	body = stripCodeFence(body)

	var raw struct {
		Summary     *string   `json:"summary"`
		ActionItems *[]string `json:"actionItems"`
	}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw.Summary == nil {
		return Summary{}, fmt.Errorf("%w: missing summary", ErrMalformedResponse)
	}
	if raw.ActionItems == nil {
		return Summary{}, fmt.Errorf("%w: missing actionItems", ErrMalformedResponse)
	}
	return Summary{Summary: *raw.Summary, ActionItems: *raw.ActionItems}, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// classify maps SDK and transport errors onto the package's error kinds.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s timed out", ErrUnavailable, op)
	}

	code, status, message := 0, "", err.Error()
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, status, message = apiErr.Code, apiErr.Status, apiErr.Message
	case errors.As(err, &apiErrPtr):
		code, status, message = apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message
	}

	lower := strings.ToLower(message)
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden,
		status == "UNAUTHENTICATED", status == "PERMISSION_DENIED",
		strings.Contains(lower, "api key"), strings.Contains(lower, "api_key"),
		strings.Contains(lower, "entity was not found"):
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	case code == http.StatusTooManyRequests, code >= 500,
		status == "UNAVAILABLE", status == "RESOURCE_EXHAUSTED":
		return fmt.Errorf("%w: %s", ErrUnavailable, message)
	}
	return &AIServiceError{Op: op, Err: err}
}
