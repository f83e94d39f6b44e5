package clarify

import (
	"strings"

	"product-discovery/internal/discovery/rules"
	"product-discovery/internal/models"
)

type Stage string

const (
	StageAwaitingPurpose Stage = "AWAITING_PURPOSE"
	StageAwaitingDetail  Stage = "AWAITING_DETAIL"
	StageAwaitingBudget  Stage = "AWAITING_BUDGET"
	StageLocked          Stage = "LOCKED"
)

// StageOf derives the state-machine position from the intent. The awaiting
// stages follow the question order: purpose, then budget, then detail.
func StageOf(s models.IntentState) Stage {
	switch {
	case s.Purpose == "":
		return StageAwaitingPurpose
	case !s.Budget.IsSet():
		return StageAwaitingBudget
	case !s.HasDetail():
		return StageAwaitingDetail
	default:
		return StageLocked
	}
}

// Confidence scores how completely the intent is specified, in [0, 1].
func Confidence(s models.IntentState) float64 {
	score := 0.0
	if s.Purpose != "" {
		score += 0.3
	}
	if s.HasDetail() {
		score += 0.3
	}
	if s.Budget.IsSet() {
		score += 0.4
	}
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

// CountClarifyingTurns counts prior assistant turns that asked a question.
// Turns without a recorded mode count when they end in a question mark and
// carried no products.
func CountClarifyingTurns(history []models.TurnRecord) int {
	n := 0
	for _, t := range history {
		if t.Role != models.RoleAssistant {
			continue
		}
		switch {
		case t.Mode == models.ModeClarify:
			n++
		case t.Mode == "" && t.ProductCount == 0 && strings.HasSuffix(strings.TrimSpace(t.Text), "?"):
			n++
		}
	}
	return n
}

// questionTopic reports what an assistant turn asked about. Callers that do
// not echo question_topic back are matched on the configured question text.
func questionTopic(r rules.Rules, t models.TurnRecord) string {
	if t.QuestionTopic != "" {
		return t.QuestionTopic
	}
	if q, ok := r.QuestionByText(t.Text); ok {
		return q.Topic
	}
	return ""
}

func askedTopics(r rules.Rules, history []models.TurnRecord) map[string]bool {
	out := make(map[string]bool)
	for _, t := range history {
		if t.Role != models.RoleAssistant {
			continue
		}
		if topic := questionTopic(r, t); topic != "" {
			out[topic] = true
		}
	}
	return out
}

// lastQuestionTopic returns the topic of the most recent assistant turn, if
// that turn was a question.
func lastQuestionTopic(r rules.Rules, history []models.TurnRecord) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleAssistant {
			return questionTopic(r, history[i])
		}
	}
	return ""
}
