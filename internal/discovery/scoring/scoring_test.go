package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-discovery/internal/discovery/normalize"
	"product-discovery/internal/discovery/rules"
	"product-discovery/internal/models"
)

func num(v float64) *float64 { return &v }

func travelProfile(price float64) models.SemanticProfile {
	attrs := map[string]string{}
	for _, a := range models.TrackedAttributes {
		attrs[a] = models.Unknown
	}
	attrs[models.AttrWeight] = "294 g"
	attrs[models.AttrStabilization] = "yes"
	return models.SemanticProfile{
		ID:            "zv1",
		Title:         "Sony ZV-1",
		Category:      "Compact Camera",
		Price:         &models.Price{Value: price, Currency: "INR"},
		Availability:  models.AvailabilityInStock,
		KeyAttributes: attrs,
		UseCaseFit:    map[string]models.Fit{"travel": models.FitHigh, "wildlife": models.FitUnknown},
		Proof:         []string{"description"},
	}
}

func TestScore_AllSignals(t *testing.T) {
	e := NewEngine(rules.Default())
	intent := models.IntentState{
		Purpose:  "travel",
		Category: "camera",
		Budget:   &models.Budget{Max: num(50000), Currency: "INR"},
	}

	got := e.Score(intent, travelProfile(45000))

	assert.InDelta(t, 25.0, got.Score, 1e-9)
	assert.Equal(t, []string{
		"High fit for Travel",
		"Has weight: 294 g",
		"Has stabilization: yes",
		"Within budget (INR 50,000)",
		"Matches category: Compact Camera",
	}, got.ReasonTexts())
	assert.Equal(t, "zv1", got.Profile.ID)
}

func TestScore_BudgetBounds(t *testing.T) {
	e := NewEngine(rules.Default())

	tests := []struct {
		name      string
		budget    *models.Budget
		price     float64
		wantScore float64
		reason    bool
	}{
		{name: "over max", budget: &models.Budget{Max: num(40000), Currency: "INR"}, price: 45000, wantScore: 17},
		{name: "at max", budget: &models.Budget{Max: num(45000), Currency: "INR"}, price: 45000, wantScore: 22, reason: true},
		{name: "min only", budget: &models.Budget{Min: num(40000), Currency: "INR"}, price: 45000, wantScore: 19},
		{name: "below min", budget: &models.Budget{Min: num(50000), Currency: "INR"}, price: 45000, wantScore: 17},
		{name: "both bounds", budget: &models.Budget{Min: num(40000), Max: num(50000), Currency: "INR"}, price: 45000, wantScore: 24, reason: true},
		{name: "other currency", budget: &models.Budget{Max: num(900), Currency: "USD"}, price: 450, wantScore: 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Score(models.IntentState{Purpose: "travel", Budget: tt.budget}, travelProfile(tt.price))
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)

			hasReason := false
			for _, r := range got.Reasons {
				if r.Kind == models.ReasonBudget {
					hasReason = true
				}
			}
			assert.Equal(t, tt.reason, hasReason)
		})
	}
}

func TestScore_NoPurposeNoFitOrAttributes(t *testing.T) {
	e := NewEngine(rules.Default())

	got := e.Score(models.IntentState{Category: "CAMERA"}, travelProfile(45000))

	assert.InDelta(t, 3.0, got.Score, 1e-9)
	require.Len(t, got.Reasons, 1)
	assert.Equal(t, models.ReasonCategory, got.Reasons[0].Kind)
}

func TestScore_UnknownFitAddsNothing(t *testing.T) {
	e := NewEngine(rules.Default())

	got := e.Score(models.IntentState{Purpose: "wildlife"}, travelProfile(45000))

	assert.Zero(t, got.Score)
	assert.Empty(t, got.Reasons)
	assert.NotNil(t, got.Reasons)
}

func TestScore_CustomRules(t *testing.T) {
	r := rules.Default()
	r.FitPoints = rules.FitPoints{High: 100, Medium: 50, Low: 10}
	r.AttributeMultiplier = 1
	e := NewEngine(r)

	got := e.Score(models.IntentState{Purpose: "travel"}, travelProfile(45000))

	assert.InDelta(t, 100.7, got.Score, 1e-9)
}

func TestScore_ReasonsAreGrounded(t *testing.T) {
	n := normalize.NewNormalizer(rules.Default())
	e := NewEngine(rules.Default())

	candidates := []models.Candidate{
		{ID: "a", Title: "Sony ZV-1 20.1MP 4K vlog camera", Description: "1-inch sensor, 294 g, optical image stabilization", ProductType: "Camera", Price: num(62990)},
		{ID: "b", Title: "Nikon P1000", Description: "125x optical zoom, weather sealed body, 1.4 kg", Price: num(79999)},
		{ID: "c", Title: "Lens cap"},
	}
	intents := []models.IntentState{
		{},
		{Purpose: "travel", Budget: &models.Budget{Max: num(70000), Currency: "INR"}},
		{Purpose: "wildlife", Category: "camera", Budget: &models.Budget{Min: num(10000), Currency: "INR"}},
		{Purpose: "vlogging", Category: "cam"},
	}

	for _, c := range candidates {
		p := n.Normalize(c)
		for _, intent := range intents {
			sc := e.Score(intent, p)
			for _, r := range sc.Reasons {
				switch r.Kind {
				case models.ReasonFit:
					assert.NotEqual(t, models.FitUnknown, p.UseCaseFit[r.Fact], r.Text)
					assert.Contains(t, strings.ToLower(r.Text), string(p.UseCaseFit[r.Fact]))
				case models.ReasonAttribute:
					assert.True(t, p.Known(r.Fact), r.Text)
					assert.Contains(t, r.Text, p.KeyAttributes[r.Fact])
				case models.ReasonBudget:
					require.NotNil(t, p.Price, r.Text)
					require.NotNil(t, intent.Budget.Max)
					assert.LessOrEqual(t, p.Price.Value, *intent.Budget.Max)
				case models.ReasonCategory:
					assert.Contains(t, r.Text, p.Category)
					assert.NotEmpty(t, p.Category)
				default:
					t.Errorf("unexpected reason kind %q", r.Kind)
				}
			}
		}
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "INR 100,000", FormatPrice(100000, "INR"))
	assert.Equal(t, "USD 1,299.5", FormatPrice(1299.5, "USD"))
	assert.Equal(t, "750", FormatPrice(750, ""))
}
