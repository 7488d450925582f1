// Package upstream holds the HTTP plumbing and failure type shared by the
// provider adapters.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nexabuild-assistant/internal/domain"
)

const (
	maxErrorBody    = 4096
	maxResponseBody = 1 << 20
)

// ErrMissingCredential is returned when a tier is invoked without the
// credential or URL it needs.
var ErrMissingCredential = errors.New("upstream: missing credential")

// Error is a failed provider call: a non-2xx status, a transport failure or
// an exceeded deadline. Message is safe to show to callers.
type Error struct {
	Provider   domain.ProviderKind
	StatusCode int
	URL        string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream: %s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("upstream: %s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the upstream status, or 0 when no response arrived.
func (e *Error) HTTPStatusCode() int {
	return e.StatusCode
}

// UpstreamMessage returns the human-readable failure reason.
func (e *Error) UpstreamMessage() string {
	return e.Message
}

// Request describes one bounded JSON POST.
type Request struct {
	Provider domain.ProviderKind
	URL      string
	Headers  map[string]string
	Timeout  time.Duration
	Body     any
}

// PostJSON sends req and decodes a successful response into out. A 2xx body
// that cannot be decoded leaves out untouched and is not an error; callers
// substitute domain.ApologyText when their decoder finds nothing.
func PostJSON(ctx context.Context, hc *http.Client, req Request, out any) error {
	if hc == nil {
		hc = http.DefaultClient
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(req.Body)
	if err != nil {
		return fmt.Errorf("upstream: marshal %s request: %w", req.Provider, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("upstream: create %s request: %w", req.Provider, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	res, err := hc.Do(httpReq)
	if err != nil {
		return &Error{
			Provider: req.Provider,
			URL:      req.URL,
			Message:  transportMessage(ctx, req.Provider),
			Err:      err,
		}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		msg := ErrorMessage(buf)
		if msg == "" {
			msg = fmt.Sprintf("%s request failed (%d)", req.Provider.DisplayName(), res.StatusCode)
		}
		return &Error{
			Provider:   req.Provider,
			StatusCode: res.StatusCode,
			URL:        req.URL,
			Message:    msg,
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return &Error{
			Provider:   req.Provider,
			StatusCode: res.StatusCode,
			URL:        req.URL,
			Message:    transportMessage(ctx, req.Provider),
			Err:        err,
		}
	}
	if len(bytes.TrimSpace(buf)) == 0 {
		return nil
	}
	_ = json.Unmarshal(buf, out)
	return nil
}

func transportMessage(ctx context.Context, provider domain.ProviderKind) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Sprintf("%s request timed out", provider.DisplayName())
	}
	return fmt.Sprintf("%s request failed", provider.DisplayName())
}

// ErrorMessage extracts a readable message from an error body. Both the
// {"error":{"message":"..."}} and the {"error":"..."} shapes are understood.
func ErrorMessage(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Error, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &obj); err == nil {
		return strings.TrimSpace(obj.Message)
	}
	return ""
}

// JoinURL appends path to base, tolerating a trailing slash on base.
func JoinURL(base, path string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + path
}
