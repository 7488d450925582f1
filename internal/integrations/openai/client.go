package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"nexabuild-assistant/internal/domain"
	"nexabuild-assistant/internal/integrations/upstream"
)

const (
	DefaultBaseURL  = "https://api.openai.com/v1"
	DefaultModel    = "gpt-4o-mini"
	maxOutputTokens = 500
)

// responsesRequest is the minimal request shape for the Responses endpoint.
type responsesRequest struct {
	Model           string         `json:"model"`
	Instructions    string         `json:"instructions"`
	Input           []inputMessage `json:"input"`
	MaxOutputTokens int            `json:"max_output_tokens"`
	Store           bool           `json:"store"`
}

type inputMessage struct {
	Type    string         `json:"type"`
	Role    string         `json:"role"`
	Content []inputContent `json:"content"`
}

type inputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Client is a focused client for the OpenAI Responses API.
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

func responsesURL(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/responses"
	}
	return base + "/v1/responses"
}

// Generate sends the turns as a structured message list with the instruction
// in its own field.
func (c *Client) Generate(ctx context.Context, instruction string, turns []domain.ChatTurn, cfg domain.ProviderConfig) (domain.Reply, error) {
	if cfg.APIKey == "" {
		return domain.Reply{}, fmt.Errorf("openai: api key not set: %w", upstream.ErrMissingCredential)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	input := make([]inputMessage, 0, len(turns))
	for _, t := range turns {
		input = append(input, inputMessage{
			Type:    "message",
			Role:    string(t.Role),
			Content: []inputContent{{Type: "input_text", Text: t.Content}},
		})
	}

	var out responsesResponse
	err := upstream.PostJSON(ctx, c.httpClient, upstream.Request{
		Provider: domain.ProviderOpenAI,
		URL:      responsesURL(cfg.BaseURL),
		Headers:  map[string]string{"Authorization": "Bearer " + cfg.APIKey},
		Timeout:  cfg.Timeout,
		Body: responsesRequest{
			Model:           model,
			Instructions:    instruction,
			Input:           input,
			MaxOutputTokens: maxOutputTokens,
			Store:           false,
		},
	}, &out)
	if err != nil {
		return domain.Reply{}, err
	}

	text, ok := decodeOutputText(out)
	if !ok {
		text = domain.ApologyText
	}
	return domain.Reply{Text: text, Provider: domain.ProviderOpenAI, Model: model}, nil
}
