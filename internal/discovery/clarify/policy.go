// Package clarify decides, turn by turn, whether to ask the shopper another
// question, search the catalog or compare two products.
package clarify

import (
	"strings"

	"product-discovery/internal/discovery/intent"
	"product-discovery/internal/discovery/rules"
	"product-discovery/internal/models"
)

type Action string

const (
	ActionAsk     Action = "ask"
	ActionSearch  Action = "search"
	ActionCompare Action = "compare"
	// ActionInsufficient is returned when the clarifying cap is exhausted and
	// the intent is still below the configured minimum confidence.
	ActionInsufficient Action = "insufficient"
)

// TopicFollowup marks an open-ended question suggested by the extractor.
const TopicFollowup = "followup"

type Input struct {
	Utterance string
	History   []models.TurnRecord
	State     models.IntentState
	// Proposal is nil when the intent extractor failed or returned garbage.
	Proposal *models.IntentProposal
}

type Decision struct {
	Action         Action
	State          models.IntentState
	Stage          Stage
	Confidence     float64
	Question       *models.ClarifyingQuestion
	Acknowledgment string
	Query          string
	// Forced is set when a search replaces a question the policy would
	// otherwise have asked.
	Forced bool
	// Fallback is set when the extractor output was unusable.
	Fallback bool
}

type Policy struct {
	rules  rules.Rules
	merger *intent.Merger
}

func NewPolicy(r rules.Rules) *Policy {
	return &Policy{rules: r, merger: intent.NewMerger(r)}
}

func (p *Policy) Decide(in Input) Decision {
	if in.Proposal == nil {
		return p.fallback(in)
	}

	fields := in.Proposal.Fields
	if in.Proposal.Confidence < p.rules.MinExtractorConfidence {
		fields = models.ProposedFields{}
	}

	focus := focusField(StageOf(in.State))
	if answer, field, ok := p.captureAnswer(in.History, in.Utterance); ok {
		fields = overlay(fields, answer)
		focus = field
	}

	res := p.merger.Merge(in.State, &fields, in.Utterance, focus)
	asked := clarifyingTurns(in)

	d := Decision{
		State:      res.State,
		Stage:      StageOf(res.State),
		Confidence: Confidence(res.State),
		Query:      p.query(res.State, in.Utterance),
	}
	d.State.ClarifyingTurnsAsked = asked

	if res.Changed(intent.FieldComparison) && d.State.ComparisonRequest != nil {
		d.Action = ActionCompare
		return d
	}

	if d.Confidence >= p.rules.HighConfidence || d.Stage == StageLocked || in.State.ConstraintsLocked {
		return p.search(d, in.Proposal.SuggestedAcknowledgment, false)
	}

	if asked >= p.rules.ClarifyCap {
		if d.Confidence < p.rules.CapMinConfidence {
			d.Action = ActionInsufficient
			d.Forced = true
			return d
		}
		return p.search(d, in.Proposal.SuggestedAcknowledgment, true)
	}

	q := p.nextQuestion(d.State, in.History, in.Proposal.SuggestedQuestion)
	if q == nil {
		return p.search(d, in.Proposal.SuggestedAcknowledgment, true)
	}

	d.Action = ActionAsk
	d.Question = q
	d.State.ClarifyingTurnsAsked = asked + 1
	return d
}

// fallback treats the raw utterance as the whole query and searches.
func (p *Policy) fallback(in Input) Decision {
	res := p.merger.Merge(in.State, nil, in.Utterance, "")
	d := Decision{
		State:      res.State,
		Stage:      StageLocked,
		Confidence: Confidence(res.State),
		Query:      strings.TrimSpace(in.Utterance),
		Fallback:   true,
	}
	d.State.ClarifyingTurnsAsked = clarifyingTurns(in)

	if res.Changed(intent.FieldComparison) && d.State.ComparisonRequest != nil {
		d.Action = ActionCompare
		return d
	}

	d.Action = ActionSearch
	d.State.ConstraintsLocked = true
	d.Acknowledgment = p.rules.NeutralAcknowledgment
	return d
}

func (p *Policy) search(d Decision, suggested string, forced bool) Decision {
	d.Action = ActionSearch
	d.Stage = StageLocked
	d.State.ConstraintsLocked = true
	d.Forced = forced
	d.Acknowledgment = suggested
	if d.Acknowledgment == "" && forced {
		d.Acknowledgment = p.rules.DefaultAcknowledgment
	}
	return d
}

// nextQuestion picks purpose, then budget, then the purpose's own questions,
// skipping anything already known or already asked.
func (p *Policy) nextQuestion(s models.IntentState, history []models.TurnRecord, suggested string) *models.ClarifyingQuestion {
	asked := askedTopics(p.rules, history)

	if s.Purpose == "" && !asked[p.rules.PurposeQuestion.Topic] {
		q := p.purposeQuestion()
		return &q
	}
	if !s.Budget.IsSet() && !asked[p.rules.BudgetQuestion.Topic] {
		return toClarifying(p.rules.BudgetQuestion)
	}
	if s.HasDetail() {
		return nil
	}
	if purpose, ok := p.rules.Purpose(s.Purpose); ok {
		for _, q := range purpose.Questions {
			if !asked[q.Topic] && s.KeyAttributes[q.Field] == "" {
				return toClarifying(q)
			}
		}
	}
	if suggested = strings.TrimSpace(suggested); suggested != "" && !asked[TopicFollowup] {
		return &models.ClarifyingQuestion{Topic: TopicFollowup, Text: suggested, Options: []string{}}
	}
	return nil
}

func (p *Policy) purposeQuestion() models.ClarifyingQuestion {
	q := *toClarifying(p.rules.PurposeQuestion)
	if len(q.Options) == 0 {
		for _, purpose := range p.rules.Purposes {
			q.Options = append(q.Options, purpose.Label)
		}
	}
	return q
}

// captureAnswer maps a reply to the previous question onto intent fields.
// Fixed-choice questions only accept one of their options; open-ended
// detail questions take the reply verbatim.
func (p *Policy) captureAnswer(history []models.TurnRecord, utterance string) (models.ProposedFields, string, bool) {
	topic := lastQuestionTopic(p.rules, history)
	reply := strings.TrimSpace(utterance)
	if topic == "" || reply == "" {
		return models.ProposedFields{}, "", false
	}

	if topic == TopicFollowup {
		return models.ProposedFields{
			KeyAttributes: map[string]string{models.AttrPrimaryUse: reply},
		}, intent.FieldKeyAttributes, true
	}

	q, ok := p.rules.QuestionByTopic(topic)
	if !ok {
		return models.ProposedFields{}, "", false
	}

	switch topic {
	case p.rules.PurposeQuestion.Topic:
		for _, purpose := range p.rules.Purposes {
			if matchesOption(reply, purpose.Label) || matchesOption(reply, purpose.Name) {
				name := purpose.Name
				return models.ProposedFields{Purpose: &name}, intent.FieldPurpose, true
			}
		}
		return models.ProposedFields{}, "", false
	case p.rules.BudgetQuestion.Topic:
		// Budget replies go through the regex fallback during the merge.
		return models.ProposedFields{}, intent.FieldBudget, true
	}

	if len(q.Options) == 0 {
		return models.ProposedFields{KeyAttributes: map[string]string{q.Field: reply}}, intent.FieldKeyAttributes, true
	}
	for _, opt := range q.Options {
		if matchesOption(reply, opt) {
			return models.ProposedFields{KeyAttributes: map[string]string{q.Field: opt}}, intent.FieldKeyAttributes, true
		}
	}
	return models.ProposedFields{}, "", false
}

func (p *Policy) query(s models.IntentState, utterance string) string {
	text := strings.TrimSpace(utterance)
	lower := strings.ToLower(text)
	parts := []string{text}

	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || strings.Contains(lower, strings.ToLower(v)) {
			return
		}
		parts = append(parts, v)
		lower += " " + strings.ToLower(v)
	}

	if purpose, ok := p.rules.Purpose(s.Purpose); ok {
		add(purpose.Label)
	}
	add(s.Category)
	add(s.KeyAttributes[models.AttrPrimaryUse])
	add(s.KeyAttributes[models.AttrBrand])

	return strings.TrimSpace(strings.Join(parts, " "))
}

func clarifyingTurns(in Input) int {
	n := CountClarifyingTurns(in.History)
	if in.State.ClarifyingTurnsAsked > n {
		n = in.State.ClarifyingTurnsAsked
	}
	return n
}

func focusField(stage Stage) string {
	switch stage {
	case StageAwaitingPurpose:
		return intent.FieldPurpose
	case StageAwaitingBudget:
		return intent.FieldBudget
	case StageAwaitingDetail:
		return intent.FieldKeyAttributes
	}
	return ""
}

// overlay lays a captured answer over the extractor's proposal.
func overlay(base, answer models.ProposedFields) models.ProposedFields {
	out := base
	if answer.Purpose != nil {
		out.Purpose = answer.Purpose
	}
	if len(answer.KeyAttributes) > 0 {
		attrs := make(map[string]string, len(base.KeyAttributes)+len(answer.KeyAttributes))
		for k, v := range base.KeyAttributes {
			attrs[k] = v
		}
		for k, v := range answer.KeyAttributes {
			attrs[k] = v
		}
		out.KeyAttributes = attrs
	}
	return out
}

func matchesOption(reply, option string) bool {
	r := strings.ToLower(strings.Trim(reply, " .!"))
	o := strings.ToLower(strings.TrimSpace(option))
	if o == "" {
		return false
	}
	return r == o || strings.Contains(" "+r+" ", " "+o+" ")
}

func toClarifying(q rules.Question) *models.ClarifyingQuestion {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	return &models.ClarifyingQuestion{Topic: q.Topic, Text: q.Text, Options: opts}
}
