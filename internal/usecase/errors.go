package usecase

import (
	"fmt"

	"nexabuild-assistant/internal/domain"
)

type ErrorCode string

const (
	ErrorInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrorRateLimited   ErrorCode = "RATE_LIMITED"
	ErrorConfiguration ErrorCode = "CONFIGURATION_ERROR"
	ErrorUpstream      ErrorCode = "UPSTREAM_ERROR"
	ErrorInternal      ErrorCode = "INTERNAL_ERROR"
)

// missingCredentialMessage is shown when a tier was selected without the
// credential it needs.
func missingCredentialMessage(kind domain.ProviderKind) string {
	if kind == domain.ProviderOllama {
		return "Missing OLLAMA_BASE_URL on backend"
	}
	return "Missing GEMINI_API_KEY or OPENAI_API_KEY on backend"
}

// Error is a failed chat request. Reason is a short, caller-safe diagnostic.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
