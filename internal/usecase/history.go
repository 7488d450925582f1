package usecase

import (
	"strings"

	"nexabuild-assistant/internal/domain"
)

// HistoryWindow is the number of trailing caller history entries considered.
const HistoryWindow = 12

// NormalizeHistory turns raw caller history plus the new message into the
// ordered turn list sent to a provider. The window is applied before
// filtering. Caller system turns are dropped; the operator instruction is
// injected by each adapter.
func NormalizeHistory(history []domain.HistoryEntry, message string) []domain.ChatTurn {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	turns := make([]domain.ChatTurn, 0, len(history)+1)
	for _, h := range history {
		role, ok := domain.ParseRole(h.Role)
		if !ok || role == domain.RoleSystem {
			continue
		}
		text := strings.TrimSpace(h.Text)
		if text == "" {
			text = strings.TrimSpace(h.Content)
		}
		if text == "" {
			continue
		}
		turns = append(turns, domain.ChatTurn{Role: role, Content: text})
	}

	if m := strings.TrimSpace(message); m != "" {
		turns = append(turns, domain.ChatTurn{Role: domain.RoleUser, Content: m})
	}
	return turns
}
