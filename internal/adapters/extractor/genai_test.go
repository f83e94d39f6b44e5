package extractor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "product-discovery/internal/common/errors"
	httpclient "product-discovery/internal/common/http"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/models"
)

func newTestExtractor(t *testing.T, url string, retries int) *GenAI {
	t.Helper()
	return NewGenAI(&Config{
		BaseURL:    url,
		APIKey:     "test-key",
		Timeout:    time.Second,
		MaxRetries: retries,
	}, logger.NewTestLogger(t), httpclient.WithBaseDelay(time.Millisecond))
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func codeOf(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	return stdErr.Code
}

func TestExtract_SendsRequestAndParsesProposal(t *testing.T) {
	var got extractRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, extractPath, r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{
			"proposed_fields": {
				"purpose": "travel",
				"budget": {"min": null, "max": 50000, "currency": "INR"},
				"category": "camera",
				"key_attributes": {"experience_level": "Beginner"},
				"comparison_request": null
			},
			"confidence": 0.82,
			"suggested_question": " Any brand preference? ",
			"suggested_acknowledgment": null
		}`))
	}))
	defer srv.Close()

	history := []models.TurnRecord{{Role: models.RoleUser, Text: "hi"}}
	state := models.IntentState{Category: "camera"}

	p, err := newTestExtractor(t, srv.URL, 0).Extract(context.Background(), "travel camera under 50k", history, state)
	require.NoError(t, err)

	assert.Equal(t, "travel camera under 50k", got.Utterance)
	assert.Equal(t, history, got.History)
	assert.Equal(t, "camera", got.State.Category)

	require.NotNil(t, p.Fields.Purpose)
	assert.Equal(t, "travel", *p.Fields.Purpose)
	require.NotNil(t, p.Fields.Budget)
	assert.Nil(t, p.Fields.Budget.Min)
	assert.Equal(t, 50000.0, *p.Fields.Budget.Max)
	assert.Equal(t, "INR", p.Fields.Budget.Currency)
	assert.Equal(t, "Beginner", p.Fields.KeyAttributes[models.AttrExperienceLevel])
	assert.Nil(t, p.Fields.ComparisonRequest)
	assert.Equal(t, 0.82, p.Confidence)
	assert.Equal(t, "Any brand preference?", p.SuggestedQuestion)
	assert.Empty(t, p.SuggestedAcknowledgment)
}

func TestExtract_DropsInvalidFieldsIndividually(t *testing.T) {
	srv := serve(t, http.StatusOK, `{
		"proposed_fields": {
			"purpose": "",
			"budget": {"min": 90000, "max": 10000},
			"category": 42,
			"key_attributes": {"experience_level": 3},
			"comparison_request": {"a": "zv1", "b": "r50"},
			"mood": "curious"
		},
		"confidence": 1.7
	}`)

	p, err := newTestExtractor(t, srv.URL, 0).Extract(context.Background(), "x", nil, models.IntentState{})
	require.NoError(t, err)

	assert.Nil(t, p.Fields.Purpose)
	assert.Nil(t, p.Fields.Budget)
	assert.Nil(t, p.Fields.Category)
	assert.Nil(t, p.Fields.KeyAttributes)
	require.NotNil(t, p.Fields.ComparisonRequest)
	assert.Equal(t, models.ComparisonRequest{A: "zv1", B: "r50"}, *p.Fields.ComparisonRequest)
	assert.Equal(t, 1.0, p.Confidence)
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperrors.ErrorCode
	}{
		{"server error", http.StatusInternalServerError, `{}`, apperrors.ErrCodeExtractorFailed},
		{"bad request", http.StatusBadRequest, `{}`, apperrors.ErrCodeExtractorFailed},
		{"not json", http.StatusOK, `I think they want a camera`, apperrors.ErrCodeExtractorMalformedOutput},
		{"missing confidence", http.StatusOK, `{"proposed_fields": {}}`, apperrors.ErrCodeExtractorMalformedOutput},
		{"fields not an object", http.StatusOK, `{"proposed_fields": [], "confidence": 0.5}`, apperrors.ErrCodeExtractorMalformedOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			p, err := newTestExtractor(t, srv.URL, 0).Extract(context.Background(), "x", nil, models.IntentState{})
			assert.Nil(t, p)
			assert.Equal(t, tt.want, codeOf(t, err))
		})
	}
}

func TestExtract_RetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"proposed_fields": {"purpose": "wildlife"}, "confidence": 0.6}`))
	}))
	defer srv.Close()

	p, err := newTestExtractor(t, srv.URL, 2).Extract(context.Background(), "x", nil, models.IntentState{})
	require.NoError(t, err)
	assert.Equal(t, "wildlife", *p.Fields.Purpose)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestExtract_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestExtractor(t, srv.URL, 0).Extract(ctx, "x", nil, models.IntentState{})
	assert.Equal(t, apperrors.ErrCodeExtractorTimeout, codeOf(t, err))
}
