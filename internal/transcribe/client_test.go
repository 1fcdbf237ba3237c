package transcribe

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"
)

type fakeBackend struct {
	text     string
	err      error
	calls    int
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	deadline bool
}

func (f *fakeBackend) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.contents = contents
	f.config = config
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func newTestClient(t *testing.T, key string, b *fakeBackend) (*Client, *int) {
	built := 0
	c := New(Options{
		APIKey: key,
		Backend: func(ctx context.Context, apiKey string) (Backend, error) {
			built++
			return b, nil
		},
	}, zaptest.NewLogger(t))
	return c, &built
}

func TestTranscribeSendsInlineAudioAndPrompt(t *testing.T) {
	b := &fakeBackend{text: "# Executive Summary\nT"}
	c, _ := newTestClient(t, "key", b)

	text, err := c.Transcribe(context.Background(), []byte("RIFFdata"), "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "# Executive Summary\nT", text)

	assert.Equal(t, DefaultModel, b.model)
	assert.True(t, b.deadline, "calls must be bounded")
	require.Len(t, b.contents, 1)
	parts := b.contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "audio/wav", parts[0].InlineData.MIMEType)
	assert.Equal(t, []byte("RIFFdata"), parts[0].InlineData.Data)
	assert.Contains(t, parts[1].Text, "verbatim transcription")
	assert.Contains(t, parts[1].Text, "### Action Items")
}

func TestTranscribeMissingKeyFailsBeforeCall(t *testing.T) {
	b := &fakeBackend{text: "T"}
	c, built := newTestClient(t, "  ", b)

	_, err := c.Transcribe(context.Background(), []byte("x"), "audio/wav")
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, 0, b.calls)
	assert.Equal(t, 0, *built)
	assert.False(t, c.HasAPIKey())

	c.SetAPIKey("fresh")
	assert.True(t, c.HasAPIKey())
	_, err = c.Transcribe(context.Background(), []byte("x"), "audio/wav")
	assert.NoError(t, err)
	assert.Equal(t, 1, *built)
}

func TestSetAPIKeyRebuildsBackend(t *testing.T) {
	b := &fakeBackend{text: "T"}
	c, built := newTestClient(t, "one", b)

	_, _ = c.Transcribe(context.Background(), []byte("x"), "audio/wav")
	_, _ = c.Transcribe(context.Background(), []byte("x"), "audio/wav")
	assert.Equal(t, 1, *built)

	c.SetAPIKey("two")
	_, _ = c.Transcribe(context.Background(), []byte("x"), "audio/wav")
	assert.Equal(t, 2, *built)
}

func TestTranscribeEmptyResponse(t *testing.T) {
	c, _ := newTestClient(t, "key", &fakeBackend{text: "  \n"})
	_, err := c.Transcribe(context.Background(), []byte("x"), "audio/wav")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestTranscribeErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"401", genai.APIError{Code: 401, Message: "unauthorized", Status: "UNAUTHENTICATED"}, ErrUnauthorized},
		{"invalid key", genai.APIError{Code: 400, Message: "API key not valid. Please pass a valid API key.", Status: "INVALID_ARGUMENT"}, ErrUnauthorized},
		{"entity not found", errors.New("Requested entity was not found."), ErrUnauthorized},
		{"rate limited", genai.APIError{Code: 429, Message: "quota", Status: "RESOURCE_EXHAUSTED"}, ErrUnavailable},
		{"server", genai.APIError{Code: 503, Message: "overloaded", Status: "UNAVAILABLE"}, ErrUnavailable},
		{"timeout", context.DeadlineExceeded, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, "key", &fakeBackend{err: tt.err})
			_, err := c.Transcribe(context.Background(), []byte("x"), "audio/wav")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTranscribeGenericFailure(t *testing.T) {
	c, _ := newTestClient(t, "key", &fakeBackend{err: errors.New("connection reset")})
	_, err := c.Transcribe(context.Background(), []byte("x"), "audio/wav")

	var svcErr *AIServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "transcribe", svcErr.Op)
	assert.False(t, IsAuthError(err))
}

func TestSummarizeParsesStructuredResponse(t *testing.T) {
	b := &fakeBackend{text: `{"summary":"Planned Q3.","actionItems":["Ship beta","Email legal"]}`}
	c, _ := newTestClient(t, "key", b)

	s, err := c.Summarize(context.Background(), "transcript")
	require.NoError(t, err)
	assert.Equal(t, "Planned Q3.", s.Summary)
	assert.Equal(t, []string{"Ship beta", "Email legal"}, s.ActionItems)

	require.NotNil(t, b.config)
	assert.Equal(t, "application/json", b.config.ResponseMIMEType)
	require.NotNil(t, b.config.ResponseSchema)
	assert.ElementsMatch(t, []string{"summary", "actionItems"}, b.config.ResponseSchema.Required)
	assert.Contains(t, b.contents[0].Parts[0].Text, "transcript")
}

func TestSummarizeMalformed(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`{"summary":"only"}`,
		`{"actionItems":[]}`,
	} {
		c, _ := newTestClient(t, "key", &fakeBackend{text: body})
		_, err := c.Summarize(context.Background(), "t")
		assert.ErrorIs(t, err, ErrMalformedResponse, body)
	}
}

func TestSummarizeAcceptsFencedJSON(t *testing.T) {
	c, _ := newTestClient(t, "key", &fakeBackend{text: "```json\n{\"summary\":\"s\",\"actionItems\":[]}\n```"})
	s, err := c.Summarize(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "s", s.Summary)
	assert.Empty(t, s.ActionItems)
}

func TestGeminiBackendOverHTTP(t *testing.T) {
	audio := []byte("fake wav payload")
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"T"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	c := New(Options{
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
		Backend: GeminiBackend(GeminiOptions{BaseURL: srv.URL + "/", HTTPClient: srv.Client()}),
	}, zaptest.NewLogger(t))

	text, err := c.Transcribe(context.Background(), audio, "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "T", text)
	assert.True(t, strings.Contains(body, base64.StdEncoding.EncodeToString(audio)), "audio travels base64-encoded")
}

func TestGeminiBackendUnauthorizedOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"code":401,"message":"API key not valid.","status":"UNAUTHENTICATED"}}`)
	}))
	defer srv.Close()

	c := New(Options{
		APIKey:  "bad-key",
		Backend: GeminiBackend(GeminiOptions{BaseURL: srv.URL + "/", HTTPClient: srv.Client()}),
	}, zaptest.NewLogger(t))

	_, err := c.Transcribe(context.Background(), []byte("x"), "audio/wav")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, IsAuthError(err))
}
