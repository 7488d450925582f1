package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// OptionalGetter reads a parameter that may legitimately be absent.
// *paramstore.Client satisfies this interface.
type OptionalGetter interface {
	GetOptionalParameter(ctx context.Context, name string) (string, bool, error)
}

// tokenPayload is the JSON shape accepted for API keys stored in SSM.
type tokenPayload struct {
	Token string `json:"token"`
}

// ResolveSecrets fills missing hosted API keys from Parameter Store under
// ParamPrefix. A parameter that does not exist leaves its tier disabled.
func ResolveSecrets(ctx context.Context, cfg Config, getter OptionalGetter) (Config, error) {
	if cfg.ParamPrefix == "" || getter == nil {
		return cfg, nil
	}
	if cfg.Gemini.APIKey == "" {
		key, err := fetchAPIKey(ctx, getter, cfg.ParamPrefix+geminiKeyParamSuffix)
		if err != nil {
			return Config{}, err
		}
		cfg.Gemini.APIKey = key
	}
	if cfg.OpenAI.APIKey == "" {
		key, err := fetchAPIKey(ctx, getter, cfg.ParamPrefix+openaiKeyParamSuffix)
		if err != nil {
			return Config{}, err
		}
		cfg.OpenAI.APIKey = key
	}
	return cfg, nil
}

func fetchAPIKey(ctx context.Context, getter OptionalGetter, name string) (string, error) {
	raw, ok, err := getter.GetOptionalParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("config: fetch %s from paramstore: %w", name, err)
	}
	if !ok {
		return "", nil
	}
	return parseToken(raw)
}

// parseToken accepts either a bare key or {"token":"..."}.
func parseToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		return raw, nil
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("config: unmarshal paramstore token value as JSON: %w", err)
	}
	return strings.TrimSpace(tp.Token), nil
}
