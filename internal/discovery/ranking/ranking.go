// Package ranking orders scored candidates and turns the best of them into
// recommendations.
package ranking

import (
	"errors"
	"fmt"
	"sort"

	"product-discovery/internal/discovery/rules"
	"product-discovery/internal/models"
)

var ErrNoCandidates = errors.New("NO_CANDIDATES")

const (
	genericFit   = "Matches your search criteria"
	noTradeoffs  = "No major tradeoffs identified"
	highPrice    = "Higher price point"
	priceUnknown = "Price not listed"
	outOfStock   = "Currently out of stock"
	aboveBudget  = "Above your stated budget"
)

type Result struct {
	Recommendations []models.Recommendation
	Confidence      models.Confidence
	// Selected holds the scored candidates behind Recommendations, in order.
	Selected []models.ScoredCandidate
}

type Ranker struct {
	rules rules.Rules
}

func NewRanker(r rules.Rules) *Ranker {
	return &Ranker{rules: r}
}

// Rank sorts by score, highest first. Ties keep their input order.
func (r *Ranker) Rank(intent models.IntentState, scored []models.ScoredCandidate) (Result, error) {
	if len(scored) == 0 {
		return Result{}, ErrNoCandidates
	}

	ordered := make([]models.ScoredCandidate, len(scored))
	copy(ordered, scored)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	n := r.count(len(ordered))
	selected := ordered[:n]

	recs := make([]models.Recommendation, 0, n)
	total := 0.0
	for _, sc := range selected {
		total += sc.Score
		recs = append(recs, r.recommend(intent, sc))
	}

	return Result{
		Recommendations: recs,
		Confidence:      r.Tier(total / float64(n)),
		Selected:        selected,
	}, nil
}

// count is how many recommendations to return: at most MaxRecommendations
// and never fewer than MinRecommendations while candidates remain.
func (r *Ranker) count(available int) int {
	n := r.rules.MaxRecommendations
	if n <= 0 {
		n = available
	}
	if n < r.rules.MinRecommendations {
		n = r.rules.MinRecommendations
	}
	if n > available {
		n = available
	}
	return n
}

// Tier maps a score onto the configured confidence thresholds.
func (r *Ranker) Tier(score float64) models.Confidence {
	switch {
	case score >= r.rules.Tiers.High:
		return models.ConfidenceHigh
	case score >= r.rules.Tiers.Medium:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func (r *Ranker) recommend(intent models.IntentState, sc models.ScoredCandidate) models.Recommendation {
	p := sc.Profile
	proof := make([]string, len(p.Proof))
	copy(proof, p.Proof)

	return models.Recommendation{
		ProductID:    p.ID,
		Title:        p.Title,
		Price:        p.Price,
		Availability: p.Availability,
		WhyItFits:    whyItFits(sc),
		Tradeoffs:    r.tradeoffs(intent, p),
		Confidence:   r.Tier(sc.Score),
		Proof:        proof,
	}
}

// whyItFits keeps the narrative reasons. Budget and category matches are
// filters, not fit.
func whyItFits(sc models.ScoredCandidate) []string {
	out := []string{}
	for _, reason := range sc.Reasons {
		if reason.Kind == models.ReasonBudget || reason.Kind == models.ReasonCategory {
			continue
		}
		out = append(out, reason.Text)
	}
	if len(out) == 0 && len(sc.Profile.Proof) > 0 {
		out = append(out, genericFit)
	}
	return out
}

func (r *Ranker) tradeoffs(intent models.IntentState, p models.SemanticProfile) []string {
	out := []string{}

	switch {
	case p.Price == nil:
		out = append(out, priceUnknown)
	case intent.Budget != nil && intent.Budget.Max != nil && p.Price.Value > *intent.Budget.Max:
		out = append(out, aboveBudget)
	case r.rules.HighEndPrice > 0 && p.Price.Value > r.rules.HighEndPrice:
		out = append(out, highPrice)
	}

	if p.Availability == models.AvailabilityOutOfStock {
		out = append(out, outOfStock)
	}

	if purpose, ok := r.rules.Purpose(intent.Purpose); ok {
		for _, w := range purpose.Weights {
			if !p.Known(w.Attribute) {
				out = append(out, fmt.Sprintf("No information on %s", models.AttributeLabel(w.Attribute)))
			}
		}
	}

	if len(out) == 0 {
		out = append(out, noTradeoffs)
	}
	return out
}
