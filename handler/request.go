package handler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"nexabuild-assistant/internal/domain"
	"nexabuild-assistant/internal/usecase"
)

// chatRequest keeps raw fields so that values of the wrong type are
// ignored instead of failing the whole request.
type chatRequest struct {
	Message  json.RawMessage `json:"message"`
	Messages json.RawMessage `json:"messages"`
}

type historyEntry struct {
	Role    json.RawMessage `json:"role"`
	Text    json.RawMessage `json:"text"`
	Content json.RawMessage `json:"content"`
}

func decodeChatRequest(event events.APIGatewayProxyRequest) (usecase.ChatInput, error) {
	body := event.Body
	if event.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return usecase.ChatInput{}, fmt.Errorf("decode base64 body: %w", err)
		}
		body = string(raw)
	}
	if strings.TrimSpace(body) == "" {
		return usecase.ChatInput{}, nil
	}

	var req chatRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return usecase.ChatInput{}, fmt.Errorf("decode body: %w", err)
	}

	in := usecase.ChatInput{Message: rawString(req.Message)}
	var items []json.RawMessage
	if err := json.Unmarshal(req.Messages, &items); err != nil {
		return in, nil
	}
	for _, item := range items {
		var e historyEntry
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}
		in.History = append(in.History, domain.HistoryEntry{
			Role:    rawString(e.Role),
			Text:    rawString(e.Text),
			Content: rawString(e.Content),
		})
	}
	return in, nil
}

// rawString returns the value if raw is a JSON string and "" otherwise.
func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
