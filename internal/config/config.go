// Package config collects process configuration once at startup. The
// resulting Config is passed by value and never mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"nexabuild-assistant/internal/domain"
)

const (
	DefaultOllamaModel   = "llama3"
	DefaultGeminiModel   = "gemini-2.0-flash"
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOllamaTimeout = 20 * time.Second
	DefaultHostedTimeout = 30 * time.Second
	DefaultRateLimitMax  = 20
	DefaultRateLimitWin  = time.Minute
	DefaultListenAddr    = ":5001"
	DefaultLogLevel      = "info"
	geminiKeyParamSuffix = "/gemini-api-key"
	openaiKeyParamSuffix = "/openai-api-key"
)

type Config struct {
	Ollama       domain.ProviderConfig
	Gemini       domain.ProviderConfig
	OpenAI       domain.ProviderConfig
	RateLimit    RateLimit
	ClientOrigin string
	ListenAddr   string
	LogLevel     string
	// ParamPrefix enables API key lookup in SSM Parameter Store.
	ParamPrefix string
}

type RateLimit struct {
	Window time.Duration
	Max    int
	// Table selects the shared DynamoDB counter; empty means in-process.
	Table string
}

// Providers returns the provider configurations in priority order.
func (c Config) Providers() []domain.ProviderConfig {
	return []domain.ProviderConfig{c.Ollama, c.Gemini, c.OpenAI}
}

type fileConfig struct {
	Providers struct {
		Ollama fileProvider `yaml:"ollama"`
		Gemini fileProvider `yaml:"gemini"`
		OpenAI fileProvider `yaml:"openai"`
	} `yaml:"providers"`
	RateLimit struct {
		Window time.Duration `yaml:"window"`
		Max    int           `yaml:"max"`
		Table  string        `yaml:"table"`
	} `yaml:"rate_limit"`
	ClientOrigin string `yaml:"client_origin"`
	ListenAddr   string `yaml:"listen_addr"`
	LogLevel     string `yaml:"log_level"`
	ParamPrefix  string `yaml:"param_prefix"`
}

type fileProvider struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Defaults returns a Config with no provider enabled.
func Defaults() Config {
	return Config{
		Ollama:     domain.ProviderConfig{Kind: domain.ProviderOllama, Model: DefaultOllamaModel, Timeout: DefaultOllamaTimeout},
		Gemini:     domain.ProviderConfig{Kind: domain.ProviderGemini, Model: DefaultGeminiModel, Timeout: DefaultHostedTimeout},
		OpenAI:     domain.ProviderConfig{Kind: domain.ProviderOpenAI, Model: DefaultOpenAIModel, Timeout: DefaultHostedTimeout},
		RateLimit:  RateLimit{Window: DefaultRateLimitWin, Max: DefaultRateLimitMax},
		ListenAddr: DefaultListenAddr,
		LogLevel:   DefaultLogLevel,
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and environment variables, in that order of precedence.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	if err := mergo.Merge(cfg, fc.overlay(), mergo.WithOverride); err != nil {
		return fmt.Errorf("config: merge %q: %w", path, err)
	}
	return nil
}

// overlay converts the file into a partial Config; zero fields leave the
// defaults in place when merged.
func (fc fileConfig) overlay() Config {
	return Config{
		Ollama: fc.Providers.Ollama.overlay(),
		Gemini: fc.Providers.Gemini.overlay(),
		OpenAI: fc.Providers.OpenAI.overlay(),
		RateLimit: RateLimit{
			Window: fc.RateLimit.Window,
			Max:    fc.RateLimit.Max,
			Table:  strings.TrimSpace(fc.RateLimit.Table),
		},
		ClientOrigin: strings.TrimSpace(fc.ClientOrigin),
		ListenAddr:   strings.TrimSpace(fc.ListenAddr),
		LogLevel:     strings.TrimSpace(fc.LogLevel),
		ParamPrefix:  strings.TrimSpace(fc.ParamPrefix),
	}
}

func (p fileProvider) overlay() domain.ProviderConfig {
	return domain.ProviderConfig{
		BaseURL: strings.TrimSpace(p.BaseURL),
		APIKey:  strings.TrimSpace(p.APIKey),
		Model:   strings.TrimSpace(p.Model),
		Timeout: p.Timeout,
	}
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Ollama.BaseURL, os.Getenv("OLLAMA_BASE_URL"))
	setString(&cfg.Ollama.Model, os.Getenv("OLLAMA_MODEL"))
	setString(&cfg.Gemini.APIKey, os.Getenv("GEMINI_API_KEY"))
	setString(&cfg.Gemini.Model, os.Getenv("GEMINI_MODEL"))
	setString(&cfg.Gemini.BaseURL, os.Getenv("GEMINI_BASE_URL"))
	setString(&cfg.OpenAI.APIKey, os.Getenv("OPENAI_API_KEY"))
	setString(&cfg.OpenAI.Model, os.Getenv("OPENAI_MODEL"))
	setString(&cfg.OpenAI.BaseURL, os.Getenv("OPENAI_BASE_URL"))
	setString(&cfg.RateLimit.Table, os.Getenv("RATE_LIMIT_TABLE"))
	setString(&cfg.ClientOrigin, os.Getenv("CLIENT_ORIGIN"))
	setString(&cfg.ListenAddr, os.Getenv("LISTEN_ADDR"))
	setString(&cfg.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&cfg.ParamPrefix, strings.TrimRight(os.Getenv("PARAM_PREFIX"), "/"))

	if v := os.Getenv("OLLAMA_TIMEOUT"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("config: OLLAMA_TIMEOUT: %w", err)
		}
		cfg.Ollama.Timeout = d
	}
	if v := os.Getenv("PROVIDER_TIMEOUT"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("config: PROVIDER_TIMEOUT: %w", err)
		}
		cfg.Gemini.Timeout = d
		cfg.OpenAI.Timeout = d
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("config: RATE_LIMIT_WINDOW: %w", err)
		}
		cfg.RateLimit.Window = d
	}
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: RATE_LIMIT_MAX: %w", err)
		}
		cfg.RateLimit.Max = n
	}
	return nil
}

// parseDuration accepts Go duration strings and bare millisecond counts.
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// Validate rejects values that would make the process misbehave.
func Validate(cfg Config) error {
	var errs []error
	for _, p := range cfg.Providers() {
		if p.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("%s timeout must be positive", p.Kind))
		}
	}
	if cfg.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	if cfg.RateLimit.Max <= 0 {
		errs = append(errs, errors.New("rate limit max must be positive"))
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", cfg.LogLevel))
	}
	return errors.Join(errs...)
}
