package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/Ishwarya142/plantiq/internal/ai"
	"github.com/Ishwarya142/plantiq/pkg/models"
)

// Config selects the chat completions endpoint a Provider talks to.
type Config struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
	// HTTPClient is optional; http.DefaultClient is used when nil.
	HTTPClient *http.Client
}

// Provider implements models.AIProvider against any OpenAI-compatible chat
// completions endpoint: the hosted AI gateway, OpenAI itself, Ollama or vLLM.
type Provider struct {
	name   string
	model  string
	client *goopenai.Client
}

// NewProvider creates a Provider for cfg.
func NewProvider(cfg Config) *Provider {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	return &Provider{
		name:   name,
		model:  cfg.Model,
		client: goopenai.NewClientWithConfig(clientCfg),
	}
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Model() string { return p.model }

// Complete sends a system and a user message and returns the first choice's content.
// An image URL, if present, is attached to the user message as an image part.
func (p *Provider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	user := goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser}
	if req.ImageURL != "" {
		user.MultiContent = []goopenai.ChatMessagePart{
			{Type: goopenai.ChatMessagePartTypeText, Text: req.User},
			{Type: goopenai.ChatMessagePartTypeImageURL, ImageURL: &goopenai.ChatMessageImageURL{URL: req.ImageURL}},
		}
	} else {
		user.Content = req.User
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model: p.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.System},
			user,
		},
	}
	if req.Temperature != nil {
		chatReq.Temperature = *req.Temperature
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", p.mapError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ai.ErrInvalidResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// mapError translates client errors into the ai package sentinels.
func (p *Provider) mapError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ai.ErrInferenceTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	slog.Error("AI gateway error", "provider", p.name, "status", status, "error", err)

	switch status {
	case http.StatusTooManyRequests:
		return ai.ErrRateLimited
	case http.StatusPaymentRequired:
		return ai.ErrPaymentRequired
	case 0:
		return fmt.Errorf("%w: %v", ai.ErrProviderUnavailable, err)
	default:
		return fmt.Errorf("AI gateway error: %d: %w", status, ai.ErrProviderUnavailable)
	}
}

var _ models.AIProvider = (*Provider)(nil)
