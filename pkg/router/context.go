package router

import (
	"strings"

	"github.com/Fyuan0206/SelfAgent/pkg/affect"
)

// contextWindow is how many trailing turns the pattern heuristics inspect.
const contextWindow = 3

// escalationMinTurns is the minimum history length before the escalation
// heuristic is meaningful.
const escalationMinTurns = 5

// AnalyzeConversationContext derives the conversation-pattern flags from
// recent history: token-overlap repetition, slope-based escalation, and
// keyword-based self-criticism and help-seeking. Fewer than three turns
// yield all-false flags.
func (e *Engine) AnalyzeConversationContext(history []affect.ConversationTurn) affect.ContextFlags {
	var flags affect.ContextFlags
	if len(history) < contextWindow {
		return flags
	}

	recent := history[len(history)-contextWindow:]
	texts := make([]string, len(recent))
	for i, turn := range recent {
		texts[i] = strings.ToLower(turn.Text)
	}

	flags.Repetition = hasRepetition(texts)

	if len(history) >= escalationMinTurns {
		if e.EmotionSlope(history) > 0.1 {
			flags.Escalation = true
		}
	}

	flags.SelfCritical = anyContains(texts, e.selfCritical)
	flags.HelpSeeking = anyContains(texts, e.helpSeeking)
	return flags
}

// hasRepetition reports whether any turn shares a token with an earlier one.
func hasRepetition(texts []string) bool {
	seen := make(map[string]struct{})
	for _, text := range texts {
		words := strings.Fields(text)
		for _, word := range words {
			if _, ok := seen[word]; ok {
				return true
			}
		}
		for _, word := range words {
			seen[word] = struct{}{}
		}
	}
	return false
}

func anyContains(texts, keywords []string) bool {
	for _, text := range texts {
		for _, keyword := range keywords {
			if strings.Contains(text, keyword) {
				return true
			}
		}
	}
	return false
}
