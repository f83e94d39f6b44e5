package rankproducts

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/common/metrics"
	"product-discovery/internal/discovery/rules"
	"product-discovery/internal/discovery/turn"
	"product-discovery/internal/models"
)

func numPtr(v float64) *float64 { return &v }

func createTestConfig() *Config {
	return &Config{
		Timeout:       time.Second,
		MaxCandidates: 5,
	}
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	engine := turn.NewEngine(rules.Default(), nil, nil, turn.Options{ScoringWorkers: 2}, logger.NewTestLogger(t), nil)
	return NewHandler(createTestConfig(), engine, nil, logger.NewTestLogger(t))
}

func createTestCandidates() []models.Candidate {
	return []models.Candidate{
		{ID: "zv1", Title: "Sony ZV-1", Description: "1-inch sensor vlogging camera, 4K video, 294 g", Price: numPtr(62990), Currency: "INR"},
		{ID: "g7x", Title: "Canon PowerShot G7 X Mark III", Description: "Compact travel camera, 1-inch sensor, 4K video, 304 g", Price: numPtr(45990), Currency: "INR"},
		{ID: "tz95", Title: "Panasonic Lumix TZ95", Description: "Travel zoom with 30x optical zoom, 327 g", Price: numPtr(32990), Currency: "INR"},
	}
}

func TestExecute_RanksWithinBudget(t *testing.T) {
	h := newTestHandler(t)
	intent := models.IntentState{
		Purpose: "travel",
		Budget:  &models.Budget{Max: numPtr(50000), Currency: "INR"},
	}

	out, err := h.Execute(context.Background(), &Input{Intent: intent, Candidates: createTestCandidates()})
	require.NoError(t, err)

	require.NotEmpty(t, out.Recommendations)
	for _, rec := range out.Recommendations {
		assert.NotEqual(t, "zv1", rec.ProductID, "over-budget candidate must be filtered")
		assert.NotEmpty(t, rec.Proof)
	}
	assert.NotEmpty(t, out.Confidence)
}

func TestExecute_Deterministic(t *testing.T) {
	h := newTestHandler(t)
	input := &Input{Intent: models.IntentState{Purpose: "travel"}, Candidates: createTestCandidates()}

	first, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	second, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExecute_Errors(t *testing.T) {
	tooMany := make([]models.Candidate, 6)
	for i := range tooMany {
		tooMany[i] = models.Candidate{ID: string(rune('a' + i)), Title: "x"}
	}

	tests := []struct {
		name  string
		input *Input
		want  apperrors.ErrorCode
	}{
		{"no candidates", &Input{Intent: models.IntentState{Purpose: "travel"}}, apperrors.ErrCodeNoResults},
		{"all over budget", &Input{
			Intent:     models.IntentState{Budget: &models.Budget{Max: numPtr(1000), Currency: "INR"}},
			Candidates: createTestCandidates(),
		}, apperrors.ErrCodeNoResults},
		{"too many candidates", &Input{Candidates: tooMany}, apperrors.ErrCodeInvalidTurnInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestHandler(t).Execute(context.Background(), tt.input)
			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, tt.want, stdErr.Code)
		})
	}
}

func TestExecute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestHandler(t).Execute(ctx, &Input{Candidates: createTestCandidates()})
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeInternal, stdErr.Code)
}

func TestDecodeInput(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"minimal", `{"candidates": [{"id": "g7x"}]}`, false},
		{"full", `{"intent": {"purpose": "travel", "budget": {"min": null, "max": 50000, "currency": "INR"}}, "candidates": [{"id": "g7x", "title": "Canon G7 X", "price": 45990, "currency": "INR", "tags": ["compact"]}]}`, false},
		{"null price", `{"candidates": [{"id": "g7x", "price": null}]}`, false},
		{"missing candidates", `{"intent": {"purpose": "travel"}}`, true},
		{"candidate without id", `{"candidates": [{"title": "x"}]}`, true},
		{"empty id", `{"candidates": [{"id": ""}]}`, true},
		{"negative price", `{"candidates": [{"id": "a", "price": -1}]}`, true},
		{"price as string", `{"candidates": [{"id": "a", "price": "45990"}]}`, true},
		{"not json", `candidates=a`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := decodeInput([]byte(tt.raw))
			if !tt.wantErr {
				require.NoError(t, err)
				require.NotEmpty(t, input.Candidates)
				return
			}
			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, apperrors.ErrCodeInvalidTurnInput, stdErr.Code)
		})
	}
}

func TestDecodeInput_CarriesIntent(t *testing.T) {
	input, err := decodeInput([]byte(`{"intent": {"purpose": "wildlife", "budget": {"max": 90000, "currency": "INR"}}, "candidates": [{"id": "a", "price": 1200}]}`))
	require.NoError(t, err)
	assert.Equal(t, "wildlife", input.Intent.Purpose)
	assert.Equal(t, 90000.0, *input.Intent.Budget.Max)
	assert.Equal(t, 1200.0, *input.Candidates[0].Price)
}

func TestRecordFailure(t *testing.T) {
	h := newTestHandler(t)
	counter := metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.ErrCodeNoResults))
	before := testutil.ToFloat64(counter)

	h.recordFailure(context.Background(), apperrors.NewNoResultsError("travel"), time.Now())

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
