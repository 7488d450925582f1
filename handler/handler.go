package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"nexabuild-assistant/internal/ratelimit"
	"nexabuild-assistant/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// ChatUseCase produces one assistant reply per request.
type ChatUseCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

type Handler struct {
	chat    ChatUseCase
	limiter ratelimit.Limiter
	origin  string
	logger  *slog.Logger
}

type Option func(*Handler)

// WithLimiter gates the chat routes. Without it every request is allowed.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(h *Handler) {
		h.limiter = l
	}
}

// WithAllowedOrigin sets the CORS origin returned to browsers.
func WithAllowedOrigin(origin string) Option {
	return func(h *Handler) {
		h.origin = strings.TrimSpace(origin)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(chat ChatUseCase, opts ...Option) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	h := &Handler{chat: chat, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type chatResponse struct {
	Message  string `json:"message"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	OK bool `json:"ok"`
}

// Handle serves an API Gateway proxy event.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := h.logger.With("correlation_id", correlationID)
	headers := h.baseHeaders(correlationID)

	path := strings.TrimSuffix(event.Path, "/")
	switch path {
	case "/health":
		if event.HTTPMethod != http.MethodGet && event.HTTPMethod != http.MethodHead {
			return methodNotAllowed(headers, "GET"), nil
		}
		return jsonResponse(http.StatusOK, headers, healthResponse{OK: true}), nil
	case "/ai/chat", "/api/ai/chat":
		switch event.HTTPMethod {
		case http.MethodOptions:
			return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent, Headers: headers}, nil
		case http.MethodPost:
			return h.handleChat(ctx, logger, event, headers), nil
		default:
			return methodNotAllowed(headers, "POST, OPTIONS"), nil
		}
	default:
		return jsonResponse(http.StatusNotFound, headers, errorResponse{Error: "NotFound", Message: "Route not found"}), nil
	}
}

func (h *Handler) handleChat(ctx context.Context, logger *slog.Logger, event events.APIGatewayProxyRequest, headers map[string]string) events.APIGatewayProxyResponse {
	if h.limiter != nil {
		key := sourceIP(event)
		d, err := h.limiter.Allow(ctx, key)
		switch {
		case err != nil:
			logger.WarnContext(ctx, "rate limiter unavailable, allowing request", "err", err)
		default:
			setRateLimitHeaders(headers, d)
			if !d.Allowed {
				logger.InfoContext(ctx, "rate limited", "source_ip", key)
				return jsonResponse(http.StatusTooManyRequests, headers, errorResponse{
					Error:   "RateLimited",
					Message: "Too many requests, please try again later.",
				})
			}
		}
	}

	in, err := decodeChatRequest(event)
	if err != nil {
		logger.InfoContext(ctx, "invalid request body", "err", err)
		return jsonResponse(http.StatusBadRequest, headers, errorResponse{
			Error:   errorName(usecase.ErrorInvalidInput),
			Message: "Request body must be a JSON object",
		})
	}

	start := time.Now()
	out, err := h.chat.Chat(ctx, in)
	if err != nil {
		status, body := mapError(err)
		logger.ErrorContext(ctx, "chat failed",
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"err", err,
		)
		return jsonResponse(status, headers, body)
	}

	logger.InfoContext(ctx, "chat reply",
		"provider", out.Provider,
		"model", out.Model,
		"fallback", out.Fallback,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return jsonResponse(http.StatusOK, headers, chatResponse{
		Message:  out.Message,
		Provider: string(out.Provider),
		Model:    out.Model,
		Fallback: out.Fallback,
	})
}

func (h *Handler) baseHeaders(correlationID string) map[string]string {
	headers := map[string]string{
		"Content-Type":    "application/json",
		correlationHeader: correlationID,
	}
	if h.origin != "" {
		headers["Access-Control-Allow-Origin"] = h.origin
		headers["Access-Control-Allow-Headers"] = "Content-Type, " + correlationHeader
		headers["Access-Control-Allow-Methods"] = "GET, POST, OPTIONS"
		headers["Access-Control-Expose-Headers"] = correlationHeader + ", RateLimit, RateLimit-Policy"
		headers["Vary"] = "Origin"
	}
	return headers
}

// setRateLimitHeaders writes the IETF draft-8 RateLimit headers.
func setRateLimitHeaders(headers map[string]string, d ratelimit.Decision) {
	windowSec := int(d.Window.Seconds())
	resetSec := int((d.ResetAfter + time.Second - 1) / time.Second)
	if resetSec < 0 {
		resetSec = 0
	}
	name := fmt.Sprintf("%d-in-%dsec", d.Limit, windowSec)
	headers["RateLimit-Policy"] = fmt.Sprintf("%q; q=%d; w=%d", name, d.Limit, windowSec)
	headers["RateLimit"] = fmt.Sprintf("%q; r=%d; t=%d", name, d.Remaining, resetSec)
	if !d.Allowed {
		headers["Retry-After"] = strconv.Itoa(resetSec)
	}
}

func mapError(err error) (int, errorResponse) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, errorResponse{Error: errorName(usecase.ErrorInternal), Message: "Internal server error"}
	}
	body := errorResponse{Error: errorName(ucErr.Code), Message: ucErr.Reason}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, body
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests, body
	case usecase.ErrorUpstream:
		return http.StatusBadGateway, body
	case usecase.ErrorConfiguration:
		return http.StatusInternalServerError, body
	default:
		return http.StatusInternalServerError, errorResponse{Error: errorName(usecase.ErrorInternal), Message: "Internal server error"}
	}
}

func errorName(code usecase.ErrorCode) string {
	switch code {
	case usecase.ErrorInvalidInput:
		return "InvalidInput"
	case usecase.ErrorRateLimited:
		return "RateLimited"
	case usecase.ErrorConfiguration:
		return "ConfigurationError"
	case usecase.ErrorUpstream:
		return "UpstreamError"
	default:
		return "InternalError"
	}
}

func methodNotAllowed(headers map[string]string, allow string) events.APIGatewayProxyResponse {
	headers["Allow"] = allow
	return jsonResponse(http.StatusMethodNotAllowed, headers, errorResponse{Error: "MethodNotAllowed", Message: "Method not allowed"})
}

func jsonResponse(status int, headers map[string]string, body any) events.APIGatewayProxyResponse {
	b, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"error":"InternalError"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(b),
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// sourceIP identifies the caller for rate limiting.
func sourceIP(event events.APIGatewayProxyRequest) string {
	if ip := strings.TrimSpace(event.RequestContext.Identity.SourceIP); ip != "" {
		return ip
	}
	if fwd := headerValue(event.Headers, "X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return "unknown"
}
