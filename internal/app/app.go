// Package app wires configuration into the chat service, shared by the
// Lambda and HTTP server binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"nexabuild-assistant/internal/config"
	"nexabuild-assistant/internal/integrations/gemini"
	"nexabuild-assistant/internal/integrations/ollama"
	"nexabuild-assistant/internal/integrations/openai"
	"nexabuild-assistant/internal/integrations/paramstore"
	"nexabuild-assistant/internal/ratelimit"
	"nexabuild-assistant/internal/repository"
	"nexabuild-assistant/internal/usecase"
)

// NewLogger returns a JSON logger at the configured level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// NeedsAWS reports whether cfg refers to any AWS-backed setting.
func NeedsAWS(cfg config.Config) bool {
	return cfg.ParamPrefix != "" || cfg.RateLimit.Table != ""
}

// ResolveSecrets looks up missing API keys in Parameter Store.
func ResolveSecrets(ctx context.Context, cfg config.Config, awsCfg aws.Config) (config.Config, error) {
	if cfg.ParamPrefix == "" {
		return cfg, nil
	}
	store, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return config.Config{}, fmt.Errorf("app: create SSM client: %w", err)
	}
	return config.ResolveSecrets(ctx, cfg, store)
}

// NewLimiter returns the shared DynamoDB limiter when a table is configured
// and a per-process one otherwise.
func NewLimiter(cfg config.Config, awsCfg aws.Config) (ratelimit.Limiter, error) {
	rl := cfg.RateLimit
	if rl.Table == "" {
		return ratelimit.NewMemoryLimiter(rl.Window, rl.Max)
	}
	counters, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), rl.Table)
	if err != nil {
		return nil, fmt.Errorf("app: create rate counter: %w", err)
	}
	return ratelimit.NewStoreLimiter(counters, rl.Window, rl.Max)
}

// Tiers returns the provider tiers in priority order.
func Tiers(cfg config.Config) []usecase.Tier {
	return []usecase.Tier{
		{Config: cfg.Ollama, Generator: ollama.NewClient()},
		{Config: cfg.Gemini, Generator: gemini.NewClient()},
		{Config: cfg.OpenAI, Generator: openai.NewClient()},
	}
}

// LogProviders logs which tier will serve requests.
func LogProviders(logger *slog.Logger, cfg config.Config) {
	for _, p := range cfg.Providers() {
		if p.Configured() {
			logger.Info("provider selected", "provider", p.Kind, "model", p.Model, "timeout", p.Timeout.String())
			return
		}
	}
	logger.Warn("no provider configured, answering from rules")
}
