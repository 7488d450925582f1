package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nexabuild-assistant/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OLLAMA_BASE_URL", "OLLAMA_MODEL", "OLLAMA_TIMEOUT",
		"GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
		"PROVIDER_TIMEOUT", "RATE_LIMIT_WINDOW", "RATE_LIMIT_MAX", "RATE_LIMIT_TABLE",
		"CLIENT_ORIGIN", "LISTEN_ADDR", "LOG_LEVEL", "PARAM_PREFIX",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
	for _, p := range cfg.Providers() {
		require.False(t, p.Configured(), "provider %s", p.Kind)
	}
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_BASE_URL", "http://127.0.0.1:11434")
	t.Setenv("OLLAMA_MODEL", "mistral")
	t.Setenv("OLLAMA_TIMEOUT", "1500")
	t.Setenv("GEMINI_API_KEY", " g-key ")
	t.Setenv("OPENAI_API_KEY", "sk")
	t.Setenv("PROVIDER_TIMEOUT", "10s")
	t.Setenv("RATE_LIMIT_WINDOW", "2m")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("RATE_LIMIT_TABLE", "rate")
	t.Setenv("PARAM_PREFIX", "/nexabuild/")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:11434", cfg.Ollama.BaseURL)
	require.Equal(t, "mistral", cfg.Ollama.Model)
	require.Equal(t, 1500*time.Millisecond, cfg.Ollama.Timeout)
	require.Equal(t, "g-key", cfg.Gemini.APIKey)
	require.Equal(t, 10*time.Second, cfg.Gemini.Timeout)
	require.Equal(t, 10*time.Second, cfg.OpenAI.Timeout)
	require.Equal(t, RateLimit{Window: 2 * time.Minute, Max: 5, Table: "rate"}, cfg.RateLimit)
	require.Equal(t, "/nexabuild", cfg.ParamPrefix)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
providers:
  gemini:
    api_key: file-key
    model: gemini-1.5-pro
    timeout: 5s
  openai:
    api_key: file-openai
rate_limit:
  window: 30s
  max: 7
client_origin: https://app.example.com
`), 0o600))
	t.Setenv("OPENAI_API_KEY", "env-openai")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "file-key", cfg.Gemini.APIKey)
	require.Equal(t, "gemini-1.5-pro", cfg.Gemini.Model)
	require.Equal(t, 5*time.Second, cfg.Gemini.Timeout)
	require.Equal(t, "env-openai", cfg.OpenAI.APIKey)
	require.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	require.Equal(t, 7, cfg.RateLimit.Max)
	require.Equal(t, "https://app.example.com", cfg.ClientOrigin)
	require.Equal(t, domain.ProviderGemini, cfg.Gemini.Kind)
	require.Equal(t, DefaultOpenAIModel, cfg.OpenAI.Model)
	require.Equal(t, DefaultHostedTimeout, cfg.OpenAI.Timeout)
	require.Equal(t, DefaultListenAddr, cfg.ListenAddr)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers: ["), 0o600))
	_, err = Load(path)
	require.ErrorContains(t, err, "parse")

	t.Setenv("RATE_LIMIT_MAX", "lots")
	_, err = Load("")
	require.ErrorContains(t, err, "RATE_LIMIT_MAX")

	t.Setenv("RATE_LIMIT_MAX", "0")
	_, err = Load("")
	require.ErrorContains(t, err, "rate limit max")

	t.Setenv("RATE_LIMIT_MAX", "")
	t.Setenv("LOG_LEVEL", "loud")
	_, err = Load("")
	require.ErrorContains(t, err, "log level")
}

type fakeGetter struct {
	vals  map[string]string
	err   error
	names []string
}

func (f *fakeGetter) GetOptionalParameter(_ context.Context, name string) (string, bool, error) {
	f.names = append(f.names, name)
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.vals[name]
	return v, ok, nil
}

func TestResolveSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.ParamPrefix = "/nexabuild"
	g := &fakeGetter{vals: map[string]string{
		"/nexabuild/gemini-api-key": `{"token":"g-from-ssm"}`,
	}}

	out, err := ResolveSecrets(context.Background(), cfg, g)
	require.NoError(t, err)
	require.Equal(t, "g-from-ssm", out.Gemini.APIKey)
	require.Empty(t, out.OpenAI.APIKey)
	require.False(t, out.OpenAI.Configured())
	require.Equal(t, []string{"/nexabuild/gemini-api-key", "/nexabuild/openai-api-key"}, g.names)
	require.Empty(t, cfg.Gemini.APIKey, "input config must not change")
}

func TestResolveSecrets_EnvKeyWins(t *testing.T) {
	cfg := Defaults()
	cfg.ParamPrefix = "/nexabuild"
	cfg.Gemini.APIKey = "env"
	cfg.OpenAI.APIKey = "env"
	g := &fakeGetter{}

	out, err := ResolveSecrets(context.Background(), cfg, g)
	require.NoError(t, err)
	require.Equal(t, "env", out.Gemini.APIKey)
	require.Empty(t, g.names)
}

func TestResolveSecrets_NoPrefixOrGetter(t *testing.T) {
	cfg := Defaults()
	out, err := ResolveSecrets(context.Background(), cfg, &fakeGetter{err: errors.New("unused")})
	require.NoError(t, err)
	require.Equal(t, cfg, out)

	cfg.ParamPrefix = "/p"
	out, err = ResolveSecrets(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, cfg, out)
}

func TestResolveSecrets_GetterError(t *testing.T) {
	cfg := Defaults()
	cfg.ParamPrefix = "/p"
	_, err := ResolveSecrets(context.Background(), cfg, &fakeGetter{err: errors.New("ssm unavailable")})
	require.ErrorContains(t, err, "ssm unavailable")
}

func TestParseToken(t *testing.T) {
	v, err := parseToken(" sk-raw ")
	require.NoError(t, err)
	require.Equal(t, "sk-raw", v)

	v, err = parseToken(`{"token":"sk-json"}`)
	require.NoError(t, err)
	require.Equal(t, "sk-json", v)

	v, err = parseToken(`{"other":"x"}`)
	require.NoError(t, err)
	require.Empty(t, v)

	_, err = parseToken(`{"broken`)
	require.ErrorContains(t, err, "unmarshal")
}
