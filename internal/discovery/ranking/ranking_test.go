package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-discovery/internal/discovery/rules"
	"product-discovery/internal/models"
)

func num(v float64) *float64 { return &v }

func scored(id string, score float64, price *float64, proof []string, reasons ...models.Reason) models.ScoredCandidate {
	attrs := map[string]string{}
	for _, a := range models.TrackedAttributes {
		attrs[a] = models.Unknown
	}
	p := models.SemanticProfile{
		ID:            id,
		Title:         "Product " + id,
		Availability:  models.AvailabilityUnknown,
		KeyAttributes: attrs,
		UseCaseFit:    map[string]models.Fit{},
		Proof:         proof,
	}
	if price != nil {
		p.Price = &models.Price{Value: *price, Currency: "INR"}
	}
	if reasons == nil {
		reasons = []models.Reason{}
	}
	return models.ScoredCandidate{Profile: p, Score: score, Reasons: reasons}
}

func TestRank_EmptyIsError(t *testing.T) {
	_, err := NewRanker(rules.Default()).Rank(models.IntentState{}, nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestRank_OrdersAndCaps(t *testing.T) {
	r := NewRanker(rules.Default())
	in := []models.ScoredCandidate{
		scored("a", 4, num(1000), nil),
		scored("b", 20, num(1000), nil),
		scored("c", 9, num(1000), nil),
		scored("d", 20, num(1000), nil),
		scored("e", 1, num(1000), nil),
	}

	res, err := r.Rank(models.IntentState{}, in)
	require.NoError(t, err)

	ids := []string{}
	for _, rec := range res.Recommendations {
		ids = append(ids, rec.ProductID)
	}
	assert.Equal(t, []string{"b", "d", "c"}, ids)
	assert.Equal(t, models.ConfidenceHigh, res.Recommendations[0].Confidence)
	assert.Equal(t, models.ConfidenceMedium, res.Recommendations[2].Confidence)
	// mean of 20, 20, 9
	assert.Equal(t, models.ConfidenceHigh, res.Confidence)
	assert.Equal(t, "a", in[0].Profile.ID, "input must not be reordered")
	require.Len(t, res.Selected, 3)
}

func TestRank_StableOnTies(t *testing.T) {
	r := NewRanker(rules.Default())
	in := []models.ScoredCandidate{
		scored("x", 5, nil, nil),
		scored("y", 5, nil, nil),
		scored("z", 5, nil, nil),
		scored("w", 5, nil, nil),
	}

	for i := 0; i < 10; i++ {
		res, err := r.Rank(models.IntentState{}, in)
		require.NoError(t, err)
		assert.Equal(t, "x", res.Recommendations[0].ProductID)
		assert.Equal(t, "y", res.Recommendations[1].ProductID)
		assert.Equal(t, "z", res.Recommendations[2].ProductID)
		assert.Equal(t, models.ConfidenceLow, res.Confidence)
	}
}

func TestRank_SingleCandidate(t *testing.T) {
	res, err := NewRanker(rules.Default()).Rank(models.IntentState{}, []models.ScoredCandidate{scored("only", 3, nil, nil)})
	require.NoError(t, err)
	assert.Len(t, res.Recommendations, 1)
}

func TestRank_WhyItFits(t *testing.T) {
	r := NewRanker(rules.Default())
	fit := models.Reason{Kind: models.ReasonFit, Text: "High fit for Travel", Fact: "travel"}
	attr := models.Reason{Kind: models.ReasonAttribute, Text: "Has weight: 294 g", Fact: models.AttrWeight}
	budget := models.Reason{Kind: models.ReasonBudget, Text: "Within budget (INR 50,000)", Fact: "price"}
	category := models.Reason{Kind: models.ReasonCategory, Text: "Matches category: Camera", Fact: "category"}

	res, err := r.Rank(models.IntentState{}, []models.ScoredCandidate{
		scored("narrative", 30, num(1), []string{"description"}, fit, budget, attr, category),
		scored("filters-only", 20, num(1), []string{"title"}, budget, category),
		scored("no-proof", 10, num(1), nil, budget),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"High fit for Travel", "Has weight: 294 g"}, res.Recommendations[0].WhyItFits)
	assert.Equal(t, []string{genericFit}, res.Recommendations[1].WhyItFits)
	assert.Empty(t, res.Recommendations[2].WhyItFits)
	assert.NotNil(t, res.Recommendations[2].WhyItFits)

	for _, rec := range res.Recommendations {
		if len(rec.WhyItFits) > 0 {
			assert.NotEmpty(t, rec.Proof, rec.ProductID)
		}
	}
}

func TestRank_Tradeoffs(t *testing.T) {
	r := NewRanker(rules.Default())
	outOfStock := scored("oos", 1, num(250000), []string{"title"})
	outOfStock.Profile.Availability = models.AvailabilityOutOfStock

	withWeight := scored("light", 1, num(40000), []string{"title"})
	withWeight.Profile.KeyAttributes[models.AttrWeight] = "300 g"
	withWeight.Profile.KeyAttributes[models.AttrOpticalZoom] = "4x"
	withWeight.Profile.KeyAttributes[models.AttrStabilization] = "optical"

	tests := []struct {
		name   string
		intent models.IntentState
		in     models.ScoredCandidate
		want   []string
	}{
		{name: "no issues", in: scored("ok", 1, num(1000), nil), want: []string{noTradeoffs}},
		{name: "missing price", in: scored("np", 1, nil, nil), want: []string{priceUnknown}},
		{name: "high end and out of stock", in: outOfStock, want: []string{highPrice, "Currently out of stock"}},
		{
			name:   "above budget",
			intent: models.IntentState{Budget: &models.Budget{Max: num(10000)}},
			in:     scored("ab", 1, num(15000), nil),
			want:   []string{aboveBudget},
		},
		{
			name:   "unknown weighted attributes",
			intent: models.IntentState{Purpose: "travel"},
			in:     scored("gap", 1, num(1000), nil),
			want:   []string{"No information on weight", "No information on optical zoom", "No information on stabilization"},
		},
		{
			name:   "all weighted attributes known",
			intent: models.IntentState{Purpose: "travel"},
			in:     withWeight,
			want:   []string{noTradeoffs},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Rank(tt.intent, []models.ScoredCandidate{tt.in})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Recommendations[0].Tradeoffs)
		})
	}
}

func TestTier(t *testing.T) {
	r := NewRanker(rules.Default())
	assert.Equal(t, models.ConfidenceHigh, r.Tier(15))
	assert.Equal(t, models.ConfidenceMedium, r.Tier(14.99))
	assert.Equal(t, models.ConfidenceMedium, r.Tier(8))
	assert.Equal(t, models.ConfidenceLow, r.Tier(7.9))
}

func TestRank_RecommendationCount(t *testing.T) {
	tests := []struct {
		name      string
		min, max  int
		available int
		want      int
	}{
		{"defaults cap at max", 2, 3, 5, 3},
		{"fewer than max available", 2, 3, 2, 2},
		{"single candidate", 2, 3, 1, 1},
		{"floor wins over a lower max", 2, 1, 4, 2},
		{"no max returns all", 0, 0, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rules.Default()
			r.MinRecommendations, r.MaxRecommendations = tt.min, tt.max

			in := make([]models.ScoredCandidate, 0, tt.available)
			for i := 0; i < tt.available; i++ {
				in = append(in, scored(string(rune('a'+i)), float64(10-i), nil, []string{"fact"}))
			}

			res, err := NewRanker(r).Rank(models.IntentState{}, in)
			require.NoError(t, err)
			assert.Len(t, res.Recommendations, tt.want)
			assert.Len(t, res.Selected, tt.want)
		})
	}
}
