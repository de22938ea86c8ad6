package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ishwarya142/plantiq/internal/ai"
	"github.com/Ishwarya142/plantiq/internal/ai/openai"
	"github.com/Ishwarya142/plantiq/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Path   string
	Auth   string
	Body   map[string]any
	RawLen int
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "google/gemini-2.5-flash",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
	return string(b)
}

func newGateway(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			raw, _ := io.ReadAll(r.Body)
			captured.Path = r.URL.Path
			captured.Auth = r.Header.Get("Authorization")
			captured.RawLen = len(raw)
			_ = json.Unmarshal(raw, &captured.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newProvider(srv *httptest.Server) *openai.Provider {
	return openai.NewProvider(openai.Config{
		Name:    "gateway",
		BaseURL: srv.URL + "/v1/",
		APIKey:  "lov-test-key",
		Model:   "google/gemini-2.5-flash",
	})
}

func TestProvider_NameAndModel(t *testing.T) {
	p := openai.NewProvider(openai.Config{Model: "gpt-4o-mini"})
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "gpt-4o-mini", p.Model())
}

func TestComplete_Success(t *testing.T) {
	var captured capturedRequest
	srv := newGateway(t, http.StatusOK, completionBody(`{"insight":"x"}`), &captured)
	p := newProvider(srv)

	temp := float32(0.7)
	reply, err := p.Complete(context.Background(), models.CompletionRequest{
		System:      "You are PlantIQ",
		User:        "Generate a helpful daily insight",
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"insight":"x"}`, reply)

	assert.Equal(t, "/v1/chat/completions", captured.Path)
	assert.Equal(t, "Bearer lov-test-key", captured.Auth)
	assert.Equal(t, "google/gemini-2.5-flash", captured.Body["model"])
	assert.InDelta(t, 0.7, captured.Body["temperature"], 0.0001)

	msgs, ok := captured.Body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "You are PlantIQ", msgs[0].(map[string]any)["content"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestComplete_ImageIsSentAsContentPart(t *testing.T) {
	var captured capturedRequest
	srv := newGateway(t, http.StatusOK, completionBody(`{"identified":true}`), &captured)
	p := newProvider(srv)

	_, err := p.Complete(context.Background(), models.CompletionRequest{
		System:   "identify",
		User:     "Please identify this plant",
		ImageURL: "data:image/jpeg;base64,AAAA",
	})
	require.NoError(t, err)

	msgs := captured.Body["messages"].([]any)
	parts, ok := msgs[1].(map[string]any)["content"].([]any)
	require.True(t, ok, "user content should be a list of parts")
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].(map[string]any)["type"])
	assert.Equal(t, "image_url", parts[1].(map[string]any)["type"])
	img := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", img["url"])
	_, hasTemp := captured.Body["temperature"]
	assert.False(t, hasTemp, "temperature is omitted when not set")
}

func TestComplete_RateLimited(t *testing.T) {
	srv := newGateway(t, http.StatusTooManyRequests, `{"error":{"message":"Too many requests","type":"rate_limit"}}`, nil)
	_, err := newProvider(srv).Complete(context.Background(), models.CompletionRequest{User: "x"})
	assert.ErrorIs(t, err, ai.ErrRateLimited)
}

func TestComplete_PaymentRequired(t *testing.T) {
	srv := newGateway(t, http.StatusPaymentRequired, `{"error":{"message":"Payment required","type":"billing"}}`, nil)
	_, err := newProvider(srv).Complete(context.Background(), models.CompletionRequest{User: "x"})
	assert.ErrorIs(t, err, ai.ErrPaymentRequired)
}

func TestComplete_RateLimitedNonJSONBody(t *testing.T) {
	srv := newGateway(t, http.StatusTooManyRequests, `slow down`, nil)
	_, err := newProvider(srv).Complete(context.Background(), models.CompletionRequest{User: "x"})
	assert.ErrorIs(t, err, ai.ErrRateLimited)
}

func TestComplete_ServerError(t *testing.T) {
	srv := newGateway(t, http.StatusInternalServerError, `{"error":{"message":"boom"}}`, nil)
	_, err := newProvider(srv).Complete(context.Background(), models.CompletionRequest{User: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "500")
	assert.False(t, ai.IsSoft(err))
}

func TestComplete_NoChoices(t *testing.T) {
	srv := newGateway(t, http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`, nil)
	_, err := newProvider(srv).Complete(context.Background(), models.CompletionRequest{User: "x"})
	assert.ErrorIs(t, err, ai.ErrInvalidResponse)
}

func TestComplete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newProvider(srv).Complete(ctx, models.CompletionRequest{User: "x"})
	assert.ErrorIs(t, err, ai.ErrInferenceTimeout)
}

func TestComplete_Unreachable(t *testing.T) {
	p := openai.NewProvider(openai.Config{BaseURL: "http://127.0.0.1:1/v1", Model: "m"})
	_, err := p.Complete(context.Background(), models.CompletionRequest{User: "x"})
	assert.ErrorIs(t, err, ai.ErrProviderUnavailable)
}
