package turn

import (
	"strings"

	"product-discovery/internal/models"
)

// filterCandidates drops duplicate ids (first occurrence wins) and any
// candidate whose known price falls outside the budget. Prices in another
// currency, or with no price at all, are kept.
func filterCandidates(candidates []models.Candidate, budget *models.Budget) []models.Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		id := strings.TrimSpace(c.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if !withinBudget(c, budget) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func withinBudget(c models.Candidate, b *models.Budget) bool {
	if c.Price == nil || !b.IsSet() {
		return true
	}
	if c.Currency != "" && b.Currency != "" && !strings.EqualFold(c.Currency, b.Currency) {
		return true
	}
	if b.Max != nil && *c.Price > *b.Max {
		return false
	}
	if b.Min != nil && *c.Price < *b.Min {
		return false
	}
	return true
}

// findByID returns the candidate with id, matching case-insensitively.
func findByID(candidates []models.Candidate, id string) (models.Candidate, bool) {
	id = strings.TrimSpace(id)
	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(c.ID), id) {
			return c, true
		}
	}
	return models.Candidate{}, false
}

func queryFor(s models.IntentState, text string) models.QueryDescriptor {
	q := models.QueryDescriptor{Text: text, Category: s.Category}
	if s.Budget != nil {
		q.MinPrice = s.Budget.Min
		q.MaxPrice = s.Budget.Max
	}
	return q
}
