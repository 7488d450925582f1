package ollama

import "strings"

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func decodeChat(r chatResponse) (string, bool) {
	text := strings.TrimSpace(r.Message.Content)
	return text, text != ""
}

func decodeGenerate(r generateResponse) (string, bool) {
	text := strings.TrimSpace(r.Response)
	return text, text != ""
}
