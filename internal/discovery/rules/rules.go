// Package rules holds the injectable tables that drive the discovery core:
// purposes, attribute weights, clarifying questions, thresholds and bonuses.
package rules

import (
	"fmt"
	"strings"
)

const (
	MergeModeMulti  = "multi"
	MergeModeSingle = "single"

	TopicPurpose = "purpose"
	TopicBudget  = "budget"
)

type AttributeWeight struct {
	Attribute string  `mapstructure:"attribute" json:"attribute"`
	Weight    float64 `mapstructure:"weight" json:"weight"`
}

// Question is a clarifying question template. Field names the key attribute
// an answer fills for purpose-specific questions.
type Question struct {
	Topic   string   `mapstructure:"topic" json:"topic"`
	Field   string   `mapstructure:"field" json:"field"`
	Text    string   `mapstructure:"text" json:"text"`
	Options []string `mapstructure:"options" json:"options"`
}

type Purpose struct {
	Name      string            `mapstructure:"name" json:"name"`
	Label     string            `mapstructure:"label" json:"label"`
	Keywords  []string          `mapstructure:"keywords" json:"keywords"`
	Weights   []AttributeWeight `mapstructure:"weights" json:"weights"`
	Questions []Question        `mapstructure:"questions" json:"questions"`
}

type FitPoints struct {
	High   float64 `mapstructure:"high" json:"high"`
	Medium float64 `mapstructure:"medium" json:"medium"`
	Low    float64 `mapstructure:"low" json:"low"`
}

type ConfidenceTiers struct {
	High   float64 `mapstructure:"high" json:"high"`
	Medium float64 `mapstructure:"medium" json:"medium"`
}

type Rules struct {
	MergeMode              string  `mapstructure:"merge_mode" json:"merge_mode"`
	ClarifyCap             int     `mapstructure:"clarify_cap" json:"clarify_cap"`
	HighConfidence         float64 `mapstructure:"high_confidence" json:"high_confidence"`
	CapMinConfidence       float64 `mapstructure:"cap_min_confidence" json:"cap_min_confidence"`
	MinExtractorConfidence float64 `mapstructure:"min_extractor_confidence" json:"min_extractor_confidence"`

	DefaultAcknowledgment string `mapstructure:"default_acknowledgment" json:"default_acknowledgment"`
	NeutralAcknowledgment string `mapstructure:"neutral_acknowledgment" json:"neutral_acknowledgment"`
	DefaultCurrency       string `mapstructure:"default_currency" json:"default_currency"`

	CandidateLimit     int `mapstructure:"candidate_limit" json:"candidate_limit"`
	MinRecommendations int `mapstructure:"min_recommendations" json:"min_recommendations"`
	MaxRecommendations int `mapstructure:"max_recommendations" json:"max_recommendations"`

	FitPoints           FitPoints       `mapstructure:"fit_points" json:"fit_points"`
	AttributeMultiplier float64         `mapstructure:"attribute_multiplier" json:"attribute_multiplier"`
	BudgetMaxBonus      float64         `mapstructure:"budget_max_bonus" json:"budget_max_bonus"`
	BudgetMinBonus      float64         `mapstructure:"budget_min_bonus" json:"budget_min_bonus"`
	CategoryBonus       float64         `mapstructure:"category_bonus" json:"category_bonus"`
	Tiers               ConfidenceTiers `mapstructure:"tiers" json:"tiers"`
	HighEndPrice        float64         `mapstructure:"high_end_price" json:"high_end_price"`

	PurposeQuestion Question  `mapstructure:"purpose_question" json:"purpose_question"`
	BudgetQuestion  Question  `mapstructure:"budget_question" json:"budget_question"`
	Purposes        []Purpose `mapstructure:"purposes" json:"purposes"`
}

// Purpose looks up a purpose by name, case-insensitively.
func (r Rules) Purpose(name string) (Purpose, bool) {
	for _, p := range r.Purposes {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Purpose{}, false
}

// PurposeByLabel resolves a purpose from either its name or its display label.
func (r Rules) PurposeByLabel(s string) (Purpose, bool) {
	s = strings.TrimSpace(s)
	for _, p := range r.Purposes {
		if strings.EqualFold(p.Name, s) || strings.EqualFold(p.Label, s) {
			return p, true
		}
	}
	return Purpose{}, false
}

// QuestionByTopic finds any configured question by its topic.
func (r Rules) QuestionByTopic(topic string) (Question, bool) {
	switch topic {
	case r.PurposeQuestion.Topic:
		return r.PurposeQuestion, true
	case r.BudgetQuestion.Topic:
		return r.BudgetQuestion, true
	}
	for _, p := range r.Purposes {
		for _, q := range p.Questions {
			if q.Topic == topic {
				return q, true
			}
		}
	}
	return Question{}, false
}

// QuestionByText finds the configured question whose text appears in an
// assistant message. Case and surrounding whitespace are ignored.
func (r Rules) QuestionByText(text string) (Question, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return Question{}, false
	}
	candidates := []Question{r.PurposeQuestion, r.BudgetQuestion}
	for _, p := range r.Purposes {
		candidates = append(candidates, p.Questions...)
	}
	for _, q := range candidates {
		qt := strings.ToLower(strings.TrimSpace(q.Text))
		if qt != "" && strings.Contains(text, qt) {
			return q, true
		}
	}
	return Question{}, false
}

// WithDefaults fills every zero-valued setting from Default.
func (r Rules) WithDefaults() Rules {
	d := Default()
	if r.MergeMode == "" {
		r.MergeMode = d.MergeMode
	}
	if r.ClarifyCap == 0 {
		r.ClarifyCap = d.ClarifyCap
	}
	if r.HighConfidence == 0 {
		r.HighConfidence = d.HighConfidence
	}
	if r.DefaultAcknowledgment == "" {
		r.DefaultAcknowledgment = d.DefaultAcknowledgment
	}
	if r.NeutralAcknowledgment == "" {
		r.NeutralAcknowledgment = d.NeutralAcknowledgment
	}
	if r.DefaultCurrency == "" {
		r.DefaultCurrency = d.DefaultCurrency
	}
	if r.CandidateLimit == 0 {
		r.CandidateLimit = d.CandidateLimit
	}
	if r.MinRecommendations == 0 {
		r.MinRecommendations = d.MinRecommendations
	}
	if r.MaxRecommendations == 0 {
		r.MaxRecommendations = d.MaxRecommendations
	}
	if r.FitPoints == (FitPoints{}) {
		r.FitPoints = d.FitPoints
	}
	if r.AttributeMultiplier == 0 {
		r.AttributeMultiplier = d.AttributeMultiplier
	}
	if r.BudgetMaxBonus == 0 {
		r.BudgetMaxBonus = d.BudgetMaxBonus
	}
	if r.BudgetMinBonus == 0 {
		r.BudgetMinBonus = d.BudgetMinBonus
	}
	if r.CategoryBonus == 0 {
		r.CategoryBonus = d.CategoryBonus
	}
	if r.Tiers == (ConfidenceTiers{}) {
		r.Tiers = d.Tiers
	}
	if r.HighEndPrice == 0 {
		r.HighEndPrice = d.HighEndPrice
	}
	if r.PurposeQuestion.Topic == "" {
		r.PurposeQuestion = d.PurposeQuestion
	}
	if r.BudgetQuestion.Topic == "" {
		r.BudgetQuestion = d.BudgetQuestion
	}
	if len(r.Purposes) == 0 {
		r.Purposes = d.Purposes
	}
	return r
}

// Validate rejects tables the core cannot operate on.
func (r Rules) Validate() error {
	if r.MergeMode != MergeModeMulti && r.MergeMode != MergeModeSingle {
		return fmt.Errorf("merge_mode must be %q or %q, got %q", MergeModeMulti, MergeModeSingle, r.MergeMode)
	}
	if r.ClarifyCap < 0 {
		return fmt.Errorf("clarify_cap must not be negative")
	}
	if r.HighConfidence <= 0 || r.HighConfidence > 1 {
		return fmt.Errorf("high_confidence must be in (0, 1]")
	}
	if r.MinRecommendations > r.MaxRecommendations {
		return fmt.Errorf("min_recommendations (%d) exceeds max_recommendations (%d)", r.MinRecommendations, r.MaxRecommendations)
	}
	if r.Tiers.Medium > r.Tiers.High {
		return fmt.Errorf("tiers.medium must not exceed tiers.high")
	}
	if r.PurposeQuestion.Topic == r.BudgetQuestion.Topic {
		return fmt.Errorf("purpose and budget questions need distinct topics")
	}

	seen := make(map[string]bool)
	for _, p := range r.Purposes {
		if p.Name == "" {
			return fmt.Errorf("purpose without a name")
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return fmt.Errorf("duplicate purpose %q", p.Name)
		}
		seen[key] = true
		for _, w := range p.Weights {
			if w.Weight < 0 || w.Weight > 1 {
				return fmt.Errorf("purpose %q: weight for %q must be in [0, 1]", p.Name, w.Attribute)
			}
		}
		for _, q := range p.Questions {
			if q.Topic == "" || q.Field == "" {
				return fmt.Errorf("purpose %q: question needs a topic and a field", p.Name)
			}
		}
	}
	return nil
}
