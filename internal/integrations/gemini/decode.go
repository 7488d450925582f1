package gemini

import "strings"

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// decodeCandidateText joins the non-empty text parts of the first candidate.
func decodeCandidateText(r generateContentResponse) (string, bool) {
	if len(r.Candidates) == 0 {
		return "", false
	}
	var texts []string
	for _, p := range r.Candidates[0].Content.Parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	text := strings.TrimSpace(strings.Join(texts, "\n"))
	return text, text != ""
}
