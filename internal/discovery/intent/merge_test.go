package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-discovery/internal/discovery/rules"
	"product-discovery/internal/models"
)

func strPtr(s string) *string      { return &s }
func numPtr(v float64) *float64    { return &v }
func multiMerger() *Merger         { return NewMerger(rules.Default()) }
func singleMerger() *Merger {
	r := rules.Default()
	r.MergeMode = rules.MergeModeSingle
	return NewMerger(r)
}

func TestMerge_MultiFieldAppliesEverything(t *testing.T) {
	current := models.IntentState{}
	proposal := &models.ProposedFields{
		Purpose:       strPtr("Travel"),
		Category:      strPtr("camera"),
		KeyAttributes: map[string]string{"brand": "Sony"},
	}

	res := multiMerger().Merge(current, proposal, "travel camera under 50000 INR, I like Sony", "")

	assert.Equal(t, "travel", res.State.Purpose)
	assert.Equal(t, "camera", res.State.Category)
	assert.Equal(t, "Sony", res.State.KeyAttributes[models.AttrBrand])
	assert.Equal(t, "travel", res.State.KeyAttributes[models.AttrPrimaryUse])
	require.NotNil(t, res.State.Budget)
	assert.Equal(t, 50000.0, *res.State.Budget.Max)
	assert.Equal(t, "INR", res.State.Budget.Currency)
	assert.ElementsMatch(t, []string{FieldPurpose, FieldCategory, FieldKeyAttributes, FieldBudget}, res.Updated)
}

func TestMerge_SingleFieldAppliesOnlyFocus(t *testing.T) {
	proposal := &models.ProposedFields{
		Purpose:  strPtr("wildlife"),
		Category: strPtr("camera"),
		Budget:   &models.Budget{Max: numPtr(80000)},
	}

	res := singleMerger().Merge(models.IntentState{}, proposal, "something for birds", FieldBudget)

	assert.Empty(t, res.State.Purpose)
	assert.Empty(t, res.State.Category)
	require.NotNil(t, res.State.Budget)
	assert.Equal(t, 80000.0, *res.State.Budget.Max)
	assert.Equal(t, []string{FieldBudget}, res.Updated)
}

func TestMerge_SingleFieldFallsBackToFixedOrder(t *testing.T) {
	proposal := &models.ProposedFields{
		Category:      strPtr("camera"),
		KeyAttributes: map[string]string{"experience_level": "Beginner", "brand": "Canon"},
	}

	res := singleMerger().Merge(models.IntentState{}, proposal, "beginner, canon", FieldPurpose)
	assert.Equal(t, "camera", res.State.Category)
	assert.Empty(t, res.State.KeyAttributes)

	res = singleMerger().Merge(models.IntentState{}, &models.ProposedFields{KeyAttributes: proposal.KeyAttributes}, "", "")
	assert.Equal(t, map[string]string{"experience_level": "Beginner"}, res.State.KeyAttributes)
}

func TestMerge_RegexBudgetRunsInSingleMode(t *testing.T) {
	proposal := &models.ProposedFields{Purpose: strPtr("travel")}

	res := singleMerger().Merge(models.IntentState{}, proposal, "for travel, under 40k", FieldPurpose)

	assert.Equal(t, "travel", res.State.Purpose)
	require.NotNil(t, res.State.Budget)
	assert.Equal(t, 40000.0, *res.State.Budget.Max)
}

func TestMerge_NeverRegressesKnownFields(t *testing.T) {
	current := models.IntentState{
		Purpose:       "portrait",
		Budget:        &models.Budget{Max: numPtr(70000), Currency: "INR"},
		Category:      "camera",
		KeyAttributes: map[string]string{"primary_use": "Studio"},
	}
	proposal := &models.ProposedFields{
		Purpose:       strPtr(""),
		Category:      strPtr("   "),
		Budget:        &models.Budget{Max: numPtr(-5)},
		KeyAttributes: map[string]string{"primary_use": "unknown", "brand": ""},
	}

	res := multiMerger().Merge(current, proposal, "hmm not sure", "")

	assert.Equal(t, current.Purpose, res.State.Purpose)
	assert.Equal(t, current.Category, res.State.Category)
	assert.Equal(t, 70000.0, *res.State.Budget.Max)
	assert.Equal(t, "Studio", res.State.KeyAttributes[models.AttrPrimaryUse])
	assert.Empty(t, res.Updated)
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	current := models.IntentState{
		Budget:        &models.Budget{Max: numPtr(50000), Currency: "INR"},
		KeyAttributes: map[string]string{"brand": "Sony"},
	}

	res := multiMerger().Merge(current, &models.ProposedFields{
		KeyAttributes: map[string]string{"brand": "Nikon"},
	}, "under 30k", "")

	assert.Equal(t, "Sony", current.KeyAttributes["brand"])
	assert.Equal(t, 50000.0, *current.Budget.Max)
	assert.Equal(t, "Nikon", res.State.KeyAttributes["brand"])
	assert.Equal(t, 30000.0, *res.State.Budget.Max)
}

func TestMerge_UnknownPurposeIgnored(t *testing.T) {
	res := multiMerger().Merge(models.IntentState{}, &models.ProposedFields{Purpose: strPtr("underwater")}, "", "")
	assert.Empty(t, res.State.Purpose)
}

func TestMerge_ConflictingBoundDropsOlder(t *testing.T) {
	current := models.IntentState{Budget: &models.Budget{Min: numPtr(60000), Currency: "INR"}}

	res := multiMerger().Merge(current, nil, "actually under 40k", "")

	require.NotNil(t, res.State.Budget)
	assert.Nil(t, res.State.Budget.Min)
	assert.Equal(t, 40000.0, *res.State.Budget.Max)
}

func TestMerge_ComparisonFallback(t *testing.T) {
	res := multiMerger().Merge(models.IntentState{}, &models.ProposedFields{}, "compare product 123 and 456", "")

	require.NotNil(t, res.State.ComparisonRequest)
	assert.Equal(t, "123", res.State.ComparisonRequest.A)
	assert.Equal(t, "456", res.State.ComparisonRequest.B)
	assert.True(t, res.Changed(FieldComparison))
	assert.Nil(t, res.State.Budget)
}

func TestMerge_RegexBudgetFillsGapsInProposedBudget(t *testing.T) {
	tests := []struct {
		name      string
		proposed  *models.Budget
		utterance string
		min       *float64
		max       *float64
	}{
		{
			name:      "number pair does not override proposed max",
			proposed:  &models.Budget{Max: numPtr(50000), Currency: "INR"},
			utterance: "travel camera for 2-3 day trips under 50k",
			max:       numPtr(50000),
		},
		{
			name:      "regex range does not replace proposed bounds",
			proposed:  &models.Budget{Max: numPtr(50000), Currency: "INR"},
			utterance: "somewhere 30,000 to 60,000",
			min:       numPtr(30000),
			max:       numPtr(50000),
		},
		{
			name:      "contradicting regex bound is dropped",
			proposed:  &models.Budget{Max: numPtr(50000), Currency: "INR"},
			utterance: "above 80k",
			max:       numPtr(50000),
		},
		{
			name:      "open bound is filled",
			proposed:  &models.Budget{Min: numPtr(20000), Currency: "INR"},
			utterance: "from 20k, under 45k",
			min:       numPtr(20000),
			max:       numPtr(45000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := multiMerger().Merge(models.IntentState{}, &models.ProposedFields{Budget: tt.proposed}, tt.utterance, "")

			require.NotNil(t, res.State.Budget)
			assert.Equal(t, tt.min, res.State.Budget.Min)
			assert.Equal(t, tt.max, res.State.Budget.Max)
			assert.Equal(t, "INR", res.State.Budget.Currency)
		})
	}
}

func TestMerge_RegexBudgetStillUpdatesKnownBudget(t *testing.T) {
	current := models.IntentState{Budget: &models.Budget{Max: numPtr(50000), Currency: "INR"}}

	res := multiMerger().Merge(current, &models.ProposedFields{}, "make that under 70k", "")

	require.NotNil(t, res.State.Budget)
	assert.Equal(t, 70000.0, *res.State.Budget.Max)
	assert.True(t, res.Changed(FieldBudget))
}

func TestMerge_PlainCompareWordingIsNotAComparison(t *testing.T) {
	res := multiMerger().Merge(models.IntentState{Purpose: "travel"}, &models.ProposedFields{}, "compare prices with other stores", "")

	assert.Nil(t, res.State.ComparisonRequest)
	assert.False(t, res.Changed(FieldComparison))
}
