// Package compare contrasts two semantic profiles using only facts both of
// them carry.
package compare

import (
	"fmt"
	"math"
	"strings"

	"product-discovery/internal/discovery/rules"
	"product-discovery/internal/discovery/scoring"
	"product-discovery/internal/models"
)

const (
	NoDifferences  = "No significant differences found"
	GeneralUse     = "General use"
	BudgetBuyers   = "budget-conscious buyers"
	labelPrice     = "Price"
	priceTolerance = 0.005
)

// Compare never interpolates: an attribute unknown on either side is left out.
func Compare(a, b models.SemanticProfile, intent models.IntentState, r rules.Rules) models.Comparison {
	out := models.Comparison{
		ProductA:    a.ID,
		ProductB:    b.ID,
		Differences: []string{},
		BestFor:     models.BestFor{A: []string{}, B: []string{}},
	}

	cheaper := 0
	if a.Price != nil && b.Price != nil && strings.EqualFold(a.Price.Currency, b.Price.Currency) {
		delta := a.Price.Value - b.Price.Value
		if math.Abs(delta) > priceTolerance {
			out.Differences = append(out.Differences, fmt.Sprintf("%s: %s (%s) vs %s (%s), a difference of %s",
				labelPrice,
				scoring.FormatPrice(a.Price.Value, a.Price.Currency), a.Title,
				scoring.FormatPrice(b.Price.Value, b.Price.Currency), b.Title,
				scoring.FormatPrice(math.Abs(delta), a.Price.Currency)))
			if delta < 0 {
				cheaper = -1
			} else {
				cheaper = 1
			}
		}
	}

	for _, attr := range models.TrackedAttributes {
		if !a.Known(attr) || !b.Known(attr) {
			continue
		}
		va, vb := a.KeyAttributes[attr], b.KeyAttributes[attr]
		if strings.EqualFold(va, vb) {
			continue
		}
		out.Differences = append(out.Differences, fmt.Sprintf("%s: %s (%s) vs %s (%s)",
			titleCase(models.AttributeLabel(attr)), va, a.Title, vb, b.Title))
	}

	switch cheaper {
	case -1:
		out.BestFor.A = append(out.BestFor.A, BudgetBuyers)
	case 1:
		out.BestFor.B = append(out.BestFor.B, BudgetBuyers)
	}

	if purpose, ok := r.Purpose(intent.Purpose); ok {
		fa, fb := a.UseCaseFit[purpose.Name], b.UseCaseFit[purpose.Name]
		switch {
		case fa == models.FitHigh && fb != models.FitHigh:
			out.BestFor.A = append(out.BestFor.A, purpose.Label)
		case fb == models.FitHigh && fa != models.FitHigh:
			out.BestFor.B = append(out.BestFor.B, purpose.Label)
		}
	}

	if len(out.Differences) == 0 {
		out.Differences = append(out.Differences, NoDifferences)
	}
	if len(out.BestFor.A) == 0 {
		out.BestFor.A = append(out.BestFor.A, GeneralUse)
	}
	if len(out.BestFor.B) == 0 {
		out.BestFor.B = append(out.BestFor.B, GeneralUse)
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
