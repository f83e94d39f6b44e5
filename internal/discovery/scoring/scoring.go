// Package scoring rates a semantic profile against the shopper's intent.
// Every reason it emits names the profile fact it was derived from.
package scoring

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"product-discovery/internal/discovery/rules"
	"product-discovery/internal/models"
)

type Engine struct {
	rules rules.Rules
}

func NewEngine(r rules.Rules) *Engine {
	return &Engine{rules: r}
}

func (e *Engine) Score(intent models.IntentState, p models.SemanticProfile) models.ScoredCandidate {
	out := models.ScoredCandidate{Profile: p, Reasons: []models.Reason{}}

	if purpose, ok := e.rules.Purpose(intent.Purpose); ok {
		if points, ok := e.fitPoints(p.UseCaseFit[purpose.Name]); ok {
			out.Score += points
			out.Reasons = append(out.Reasons, models.Reason{
				Kind: models.ReasonFit,
				Text: fmt.Sprintf("%s fit for %s", titleCase(string(p.UseCaseFit[purpose.Name])), purpose.Label),
				Fact: purpose.Name,
			})
		}

		for _, w := range purpose.Weights {
			if !p.Known(w.Attribute) {
				continue
			}
			out.Score += w.Weight * e.rules.AttributeMultiplier
			out.Reasons = append(out.Reasons, models.Reason{
				Kind: models.ReasonAttribute,
				Text: fmt.Sprintf("Has %s: %s", models.AttributeLabel(w.Attribute), p.KeyAttributes[w.Attribute]),
				Fact: w.Attribute,
			})
		}
	}

	if b := intent.Budget; b != nil && p.Price != nil && sameCurrency(b.Currency, p.Price.Currency) {
		if b.Max != nil && p.Price.Value <= *b.Max {
			out.Score += e.rules.BudgetMaxBonus
			out.Reasons = append(out.Reasons, models.Reason{
				Kind: models.ReasonBudget,
				Text: fmt.Sprintf("Within budget (%s)", FormatPrice(*b.Max, b.Currency)),
				Fact: "price",
			})
		}
		if b.Min != nil && p.Price.Value >= *b.Min {
			out.Score += e.rules.BudgetMinBonus
		}
	}

	if c := strings.TrimSpace(intent.Category); c != "" && p.Category != "" &&
		strings.Contains(strings.ToLower(p.Category), strings.ToLower(c)) {
		out.Score += e.rules.CategoryBonus
		out.Reasons = append(out.Reasons, models.Reason{
			Kind: models.ReasonCategory,
			Text: fmt.Sprintf("Matches category: %s", p.Category),
			Fact: "category",
		})
	}

	return out
}

// ScoreAll keeps the profile order.
func (e *Engine) ScoreAll(intent models.IntentState, profiles []models.SemanticProfile) []models.ScoredCandidate {
	out := make([]models.ScoredCandidate, len(profiles))
	for i, p := range profiles {
		out[i] = e.Score(intent, p)
	}
	return out
}

func (e *Engine) fitPoints(fit models.Fit) (float64, bool) {
	switch fit {
	case models.FitHigh:
		return e.rules.FitPoints.High, true
	case models.FitMedium:
		return e.rules.FitPoints.Medium, true
	case models.FitLow:
		return e.rules.FitPoints.Low, true
	}
	return 0, false
}

// FormatPrice renders an amount with digit grouping, e.g. "INR 50,000".
func FormatPrice(v float64, currency string) string {
	amount := humanize.Commaf(v)
	if currency == "" {
		return amount
	}
	return currency + " " + amount
}

// sameCurrency treats a missing currency as matching any other.
func sameCurrency(a, b string) bool {
	return a == "" || b == "" || strings.EqualFold(a, b)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
