package app

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/require"

	"nexabuild-assistant/internal/config"
	"nexabuild-assistant/internal/domain"
	"nexabuild-assistant/internal/ratelimit"
)

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown", "provider", "gemini")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "shown", line["msg"])
	require.Equal(t, "gemini", line["provider"])
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "loud")
	logger.Debug("hidden")
	require.Zero(t, buf.Len())
	logger.Info("shown")
	require.NotZero(t, buf.Len())
}

func TestNeedsAWS(t *testing.T) {
	cfg := config.Defaults()
	require.False(t, NeedsAWS(cfg))

	cfg.ParamPrefix = "/nexabuild/prod"
	require.True(t, NeedsAWS(cfg))

	cfg = config.Defaults()
	cfg.RateLimit.Table = "rate-limits"
	require.True(t, NeedsAWS(cfg))
}

func TestNewLimiter(t *testing.T) {
	cfg := config.Defaults()
	lim, err := NewLimiter(cfg, aws.Config{})
	require.NoError(t, err)
	require.IsType(t, &ratelimit.MemoryLimiter{}, lim)

	cfg.RateLimit.Table = "rate-limits"
	lim, err = NewLimiter(cfg, aws.Config{Region: "eu-west-1"})
	require.NoError(t, err)
	require.IsType(t, &ratelimit.StoreLimiter{}, lim)
}

func TestResolveSecrets_NoPrefix(t *testing.T) {
	cfg := config.Defaults()
	cfg.Gemini.APIKey = "from-env"
	got, err := ResolveSecrets(context.Background(), cfg, aws.Config{})
	require.NoError(t, err)
	require.Equal(t, cfg, got)
}

func TestTiers_Order(t *testing.T) {
	tiers := Tiers(config.Defaults())
	require.Len(t, tiers, 3)
	require.Equal(t, domain.ProviderOllama, tiers[0].Config.Kind)
	require.Equal(t, domain.ProviderGemini, tiers[1].Config.Kind)
	require.Equal(t, domain.ProviderOpenAI, tiers[2].Config.Kind)
	for _, tier := range tiers {
		require.NotNil(t, tier.Generator)
	}
}
