package compare

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-discovery/internal/discovery/rules"
	"product-discovery/internal/models"
)

func profile(id, title string, price *float64, attrs map[string]string, fit map[string]models.Fit) models.SemanticProfile {
	all := map[string]string{}
	for _, a := range models.TrackedAttributes {
		all[a] = models.Unknown
	}
	for k, v := range attrs {
		all[k] = v
	}
	p := models.SemanticProfile{ID: id, Title: title, KeyAttributes: all, UseCaseFit: fit, Proof: []string{"description"}}
	if price != nil {
		p.Price = &models.Price{Value: *price, Currency: "INR"}
	}
	return p
}

func num(v float64) *float64 { return &v }

func sonyAndCanon() (models.SemanticProfile, models.SemanticProfile) {
	a := profile("123", "Sony ZV-1", num(62990), map[string]string{
		models.AttrWeight:     "294 g",
		models.AttrSensorSize: "1-inch",
		models.AttrVideo:      "4K",
		models.AttrBrand:      "Sony",
	}, map[string]models.Fit{"travel": models.FitHigh, "vlogging": models.FitHigh})
	b := profile("456", "Canon R50", num(79999), map[string]string{
		models.AttrWeight:      "375 g",
		models.AttrSensorSize:  "APS-C",
		models.AttrVideo:       "4K",
		models.AttrOpticalZoom: "3x",
		models.AttrBrand:       "Canon",
	}, map[string]models.Fit{"travel": models.FitHigh, "vlogging": models.FitMedium})
	return a, b
}

func TestCompare_OnlyKnownDifferingAttributes(t *testing.T) {
	a, b := sonyAndCanon()

	got := Compare(a, b, models.IntentState{Purpose: "vlogging"}, rules.Default())

	assert.Equal(t, "123", got.ProductA)
	assert.Equal(t, "456", got.ProductB)
	assert.Equal(t, []string{
		"Price: INR 62,990 (Sony ZV-1) vs INR 79,999 (Canon R50), a difference of INR 17,009",
		"Sensor size: 1-inch (Sony ZV-1) vs APS-C (Canon R50)",
		"Weight: 294 g (Sony ZV-1) vs 375 g (Canon R50)",
		"Brand: Sony (Sony ZV-1) vs Canon (Canon R50)",
	}, got.Differences)
	for _, d := range got.Differences {
		assert.NotContains(t, strings.ToLower(d), models.Unknown)
		assert.False(t, strings.HasPrefix(d, "Video"), "equal values are not differences")
		assert.False(t, strings.HasPrefix(d, "Optical zoom"), "one-sided values are skipped")
	}
	assert.Equal(t, []string{BudgetBuyers, "Vlogging"}, got.BestFor.A)
	assert.Equal(t, []string{GeneralUse}, got.BestFor.B)
}

func TestCompare_FitAsymmetryOnlyWhenOneSideHigh(t *testing.T) {
	a, b := sonyAndCanon()

	got := Compare(a, b, models.IntentState{Purpose: "travel"}, rules.Default())

	assert.Equal(t, []string{BudgetBuyers}, got.BestFor.A)
	assert.Equal(t, []string{GeneralUse}, got.BestFor.B)
}

func TestCompare_NothingToSay(t *testing.T) {
	a := profile("1", "Mystery A", nil, nil, nil)
	b := profile("2", "Mystery B", num(1000), map[string]string{models.AttrWeight: "300 g"}, nil)

	got := Compare(a, b, models.IntentState{}, rules.Default())

	assert.Equal(t, []string{NoDifferences}, got.Differences)
	assert.Equal(t, models.BestFor{A: []string{GeneralUse}, B: []string{GeneralUse}}, got.BestFor)
}

func TestCompare_PriceNeedsSameCurrency(t *testing.T) {
	a, b := sonyAndCanon()
	b.Price.Currency = "USD"

	got := Compare(a, b, models.IntentState{}, rules.Default())

	for _, d := range got.Differences {
		assert.False(t, strings.HasPrefix(d, "Price"), d)
	}
	assert.Equal(t, []string{GeneralUse}, got.BestFor.A)
}

func TestCompare_Symmetric(t *testing.T) {
	a, b := sonyAndCanon()
	intents := []models.IntentState{{}, {Purpose: "vlogging"}, {Purpose: "travel"}, {Purpose: "wildlife"}}

	facts := func(c models.Comparison) []string {
		out := make([]string, 0, len(c.Differences))
		for _, d := range c.Differences {
			label, _, _ := strings.Cut(d, ":")
			out = append(out, label)
		}
		sort.Strings(out)
		return out
	}

	for _, intent := range intents {
		ab := Compare(a, b, intent, rules.Default())
		ba := Compare(b, a, intent, rules.Default())

		require.Equal(t, facts(ab), facts(ba))
		assert.Equal(t, ab.BestFor.A, ba.BestFor.B)
		assert.Equal(t, ab.BestFor.B, ba.BestFor.A)

		for i, d := range ab.Differences {
			// Both orderings state the same two values.
			for _, p := range []models.SemanticProfile{a, b} {
				if strings.Contains(d, "("+p.Title+")") {
					assert.Contains(t, ba.Differences[i], "("+p.Title+")")
				}
			}
		}
	}
}
