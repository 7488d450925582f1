package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"nexabuild-assistant/internal/domain"
	"nexabuild-assistant/internal/integrations/upstream"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"
)

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// Client calls the Gemini generateContent endpoint with the whole
// conversation flattened into a single text part.
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

func generateURL(baseURL, model string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/v1beta/models/" + url.PathEscape(model) + ":generateContent"
}

func (c *Client) Generate(ctx context.Context, instruction string, turns []domain.ChatTurn, cfg domain.ProviderConfig) (domain.Reply, error) {
	if cfg.APIKey == "" {
		return domain.Reply{}, fmt.Errorf("gemini: api key not set: %w", upstream.ErrMissingCredential)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	var out generateContentResponse
	err := upstream.PostJSON(ctx, c.httpClient, upstream.Request{
		Provider: domain.ProviderGemini,
		URL:      generateURL(cfg.BaseURL, model),
		Headers:  map[string]string{"X-goog-api-key": cfg.APIKey},
		Timeout:  cfg.Timeout,
		Body: generateContentRequest{
			Contents: []content{{Parts: []part{{Text: domain.Transcript(instruction, turns)}}}},
		},
	}, &out)
	if err != nil {
		return domain.Reply{}, err
	}

	text, ok := decodeCandidateText(out)
	if !ok {
		text = domain.ApologyText
	}
	return domain.Reply{Text: text, Provider: domain.ProviderGemini, Model: model}, nil
}
