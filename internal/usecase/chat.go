package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nexabuild-assistant/internal/domain"
	"nexabuild-assistant/internal/integrations/upstream"
)

// Generator produces a single reply from one backend.
type Generator interface {
	Generate(ctx context.Context, instruction string, turns []domain.ChatTurn, cfg domain.ProviderConfig) (domain.Reply, error)
}

// Tier pairs a provider's startup configuration with its adapter.
type Tier struct {
	Config    domain.ProviderConfig
	Generator Generator
}

// Recorder observes provider calls.
type Recorder interface {
	ObserveProvider(provider domain.ProviderKind, model string, elapsed time.Duration, err error)
}

type upstreamMessager interface {
	UpstreamMessage() string
}

// ChatService picks exactly one tier per request from static configuration.
// A failure in the selected tier is returned as is; lower tiers are never
// tried.
type ChatService struct {
	tiers    []Tier
	recorder Recorder
	logger   *slog.Logger
}

type Option func(*ChatService)

func WithRecorder(r Recorder) Option {
	return func(s *ChatService) {
		s.recorder = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *ChatService) {
		if l != nil {
			s.logger = l
		}
	}
}

type ChatInput struct {
	Message string
	History []domain.HistoryEntry
}

type ChatOutput struct {
	Message  string
	Provider domain.ProviderKind
	Model    string
	Fallback bool
}

// NewChatService builds the orchestrator. tiers are in priority order.
func NewChatService(tiers []Tier, opts ...Option) (*ChatService, error) {
	for i, t := range tiers {
		if t.Generator == nil {
			return nil, fmt.Errorf("usecase: tier %d (%s) has no generator", i, t.Config.Kind)
		}
	}
	s := &ChatService{
		tiers:  append([]Tier(nil), tiers...),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	turns := NormalizeHistory(in.History, in.Message)
	if len(turns) == 0 {
		return ruleOutput(""), nil
	}

	tier, ok := s.selectTier()
	if !ok {
		return ruleOutput(in.Message), nil
	}

	start := time.Now()
	reply, err := tier.Generator.Generate(ctx, Instruction, turns, tier.Config)
	elapsed := time.Since(start)
	if s.recorder != nil {
		s.recorder.ObserveProvider(tier.Config.Kind, tier.Config.Model, elapsed, err)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "provider call failed",
			"provider", tier.Config.Kind,
			"model", tier.Config.Model,
			"turns", len(turns),
			"duration_ms", elapsed.Milliseconds(),
			"err", err,
		)
		return ChatOutput{}, classifyProviderError(tier.Config.Kind, err)
	}

	s.logger.InfoContext(ctx, "provider reply",
		"provider", reply.Provider,
		"model", reply.Model,
		"turns", len(turns),
		"duration_ms", elapsed.Milliseconds(),
	)

	text := strings.TrimSpace(reply.Text)
	if text == "" {
		text = domain.ApologyText
	}
	provider := reply.Provider
	if provider == "" {
		provider = tier.Config.Kind
	}
	return ChatOutput{Message: text, Provider: provider, Model: reply.Model}, nil
}

func (s *ChatService) selectTier() (Tier, bool) {
	for _, t := range s.tiers {
		if t.Config.Configured() {
			return t, true
		}
	}
	return Tier{}, false
}

func ruleOutput(message string) ChatOutput {
	return ChatOutput{
		Message:  Answer(message),
		Provider: domain.ProviderRules,
		Fallback: true,
	}
}

func classifyProviderError(kind domain.ProviderKind, err error) *Error {
	if errors.Is(err, upstream.ErrMissingCredential) {
		return newError(ErrorConfiguration, missingCredentialMessage(kind), err)
	}
	var m upstreamMessager
	if errors.As(err, &m) && strings.TrimSpace(m.UpstreamMessage()) != "" {
		return newError(ErrorUpstream, m.UpstreamMessage(), err)
	}
	return newError(ErrorUpstream, kind.DisplayName()+" request failed", err)
}
