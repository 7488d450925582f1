package openai

import "strings"

type responsesResponse struct {
	Output []outputItem `json:"output"`
}

type outputItem struct {
	Type    string `json:"type"`
	Content []struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	} `json:"content"`
}

// decodeOutputText joins every output_text segment of message items in
// document order. Reasoning and tool items are skipped.
func decodeOutputText(r responsesResponse) (string, bool) {
	var parts []string
	for _, item := range r.Output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Text == nil {
				continue
			}
			if c.Type == "output_text" || c.Type == "text" {
				parts = append(parts, *c.Text)
			}
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	return text, text != ""
}
