package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"nexabuild-assistant/internal/domain"
	"nexabuild-assistant/internal/integrations/upstream"
)

const DefaultModel = "llama3"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// Client talks to a self-hosted Ollama server. It tries the chat endpoint
// first and retries once against the plain completion endpoint.
type Client struct {
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate produces one reply. Each of the two calls is bounded by
// cfg.Timeout on its own; when both fail the generate endpoint's error is
// returned.
func (c *Client) Generate(ctx context.Context, instruction string, turns []domain.ChatTurn, cfg domain.ProviderConfig) (domain.Reply, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return domain.Reply{}, fmt.Errorf("ollama: base url not set: %w", upstream.ErrMissingCredential)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	text, err := c.chat(ctx, instruction, turns, cfg, model)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Reply{}, err
		}
		text, err = c.generate(ctx, instruction, turns, cfg, model)
		if err != nil {
			return domain.Reply{}, err
		}
	}
	if text == "" {
		text = domain.ApologyText
	}
	return domain.Reply{Text: text, Provider: domain.ProviderOllama, Model: model}, nil
}

func (c *Client) chat(ctx context.Context, instruction string, turns []domain.ChatTurn, cfg domain.ProviderConfig, model string) (string, error) {
	messages := make([]chatMessage, 0, len(turns)+1)
	messages = append(messages, chatMessage{Role: string(domain.RoleSystem), Content: instruction})
	for _, t := range turns {
		messages = append(messages, chatMessage{Role: string(t.Role), Content: t.Content})
	}

	var out chatResponse
	err := upstream.PostJSON(ctx, c.httpClient, upstream.Request{
		Provider: domain.ProviderOllama,
		URL:      upstream.JoinURL(cfg.BaseURL, "/api/chat"),
		Timeout:  cfg.Timeout,
		Body:     chatRequest{Model: model, Messages: messages, Stream: false},
	}, &out)
	if err != nil {
		return "", err
	}
	text, _ := decodeChat(out)
	return text, nil
}

func (c *Client) generate(ctx context.Context, instruction string, turns []domain.ChatTurn, cfg domain.ProviderConfig, model string) (string, error) {
	var out generateResponse
	err := upstream.PostJSON(ctx, c.httpClient, upstream.Request{
		Provider: domain.ProviderOllama,
		URL:      upstream.JoinURL(cfg.BaseURL, "/api/generate"),
		Timeout:  cfg.Timeout,
		Body:     generateRequest{Model: model, Prompt: domain.Transcript(instruction, turns), Stream: false},
	}, &out)
	if err != nil {
		return "", err
	}
	text, _ := decodeGenerate(out)
	return text, nil
}
