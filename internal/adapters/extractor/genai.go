// Package extractor implements the intent extractor against the GenAI
// service.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "product-discovery/internal/common/errors"
	httpclient "product-discovery/internal/common/http"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/common/validation"
	"product-discovery/internal/models"
)

const extractPath = "/api/ai/extract-intent"

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 1 << 20

var envelopeSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["proposed_fields", "confidence"],
  "properties": {
    "proposed_fields": {"type": "object"},
    "confidence": {"type": "number"},
    "suggested_question": {"type": ["string", "null"]},
    "suggested_acknowledgment": {"type": ["string", "null"]}
  }
}`)

var fieldSchemas = map[string]*validation.Schema{
	"purpose":  validation.MustCompile(`{"type": "string", "minLength": 1}`),
	"category": validation.MustCompile(`{"type": "string", "minLength": 1}`),
	"budget": validation.MustCompile(`{
  "type": "object",
  "properties": {
    "min": {"type": ["number", "null"], "minimum": 0},
    "max": {"type": ["number", "null"], "minimum": 0},
    "currency": {"type": ["string", "null"]}
  }
}`),
	"key_attributes": validation.MustCompile(`{
  "type": "object",
  "additionalProperties": {"type": "string"}
}`),
	"comparison_request": validation.MustCompile(`{
  "type": "object",
  "required": ["a", "b"],
  "properties": {
    "a": {"type": "string", "minLength": 1},
    "b": {"type": "string", "minLength": 1}
  }
}`),
}

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// GenAI calls the extraction endpoint and turns its answer into an
// untrusted IntentProposal. Fields that fail validation are dropped one by
// one; only a broken envelope fails the whole call.
type GenAI struct {
	config *Config
	client *httpclient.Client
	logger logger.Logger
}

func NewGenAI(config *Config, log logger.Logger, opts ...httpclient.Option) *GenAI {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	opts = append([]httpclient.Option{httpclient.WithRetries(config.MaxRetries)}, opts...)
	return &GenAI{
		config: config,
		client: httpclient.NewClient(config.Timeout, opts...),
		logger: log.With(map[string]interface{}{"component": "genai-extractor"}),
	}
}

type extractRequest struct {
	Utterance string              `json:"utterance"`
	History   []models.TurnRecord `json:"history"`
	State     models.IntentState  `json:"state"`
}

type extractResponse struct {
	ProposedFields          map[string]json.RawMessage `json:"proposed_fields"`
	Confidence              float64                    `json:"confidence"`
	SuggestedQuestion       *string                    `json:"suggested_question"`
	SuggestedAcknowledgment *string                    `json:"suggested_acknowledgment"`
}

func (g *GenAI) Extract(ctx context.Context, utterance string, history []models.TurnRecord, state models.IntentState) (*models.IntentProposal, error) {
	if history == nil {
		history = []models.TurnRecord{}
	}
	body, err := json.Marshal(extractRequest{Utterance: utterance, History: history, State: state})
	if err != nil {
		return nil, apperrors.NewExtractorFailedError(err)
	}

	resp, err := g.client.DoWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(g.config.BaseURL, "/")+extractPath, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if g.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
		}
		return req, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewExtractorTimeoutError()
		}
		return nil, apperrors.NewExtractorFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExtractorFailedError(fmt.Errorf("status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewExtractorTimeoutError()
		}
		return nil, apperrors.NewExtractorFailedError(err)
	}

	return g.parse(raw)
}

func (g *GenAI) parse(raw []byte) (*models.IntentProposal, error) {
	result, err := envelopeSchema.ValidateJSON(raw)
	if err != nil {
		return nil, apperrors.NewExtractorMalformedOutputError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewExtractorMalformedOutputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var envelope extractResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, apperrors.NewExtractorMalformedOutputError(err.Error())
	}

	proposal := &models.IntentProposal{
		Fields:     g.fields(envelope.ProposedFields),
		Confidence: clamp(envelope.Confidence),
	}
	if envelope.SuggestedQuestion != nil {
		proposal.SuggestedQuestion = strings.TrimSpace(*envelope.SuggestedQuestion)
	}
	if envelope.SuggestedAcknowledgment != nil {
		proposal.SuggestedAcknowledgment = strings.TrimSpace(*envelope.SuggestedAcknowledgment)
	}
	return proposal, nil
}

// fields keeps every proposed field that passes its own schema.
func (g *GenAI) fields(raw map[string]json.RawMessage) models.ProposedFields {
	var out models.ProposedFields

	for name, value := range raw {
		schema, known := fieldSchemas[name]
		if !known || isNull(value) {
			continue
		}
		result, err := schema.ValidateJSON(value)
		if err != nil || !result.Valid {
			g.dropped(name, result, err)
			continue
		}

		switch name {
		case "purpose":
			var s string
			if json.Unmarshal(value, &s) == nil {
				out.Purpose = &s
			}
		case "category":
			var s string
			if json.Unmarshal(value, &s) == nil {
				out.Category = &s
			}
		case "budget":
			var b models.Budget
			if json.Unmarshal(value, &b) != nil {
				continue
			}
			if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
				g.logger.Warn("dropping proposed field", map[string]interface{}{
					"field":  name,
					"reason": "min exceeds max",
				})
				continue
			}
			if b.IsSet() {
				out.Budget = &b
			}
		case "key_attributes":
			var attrs map[string]string
			if json.Unmarshal(value, &attrs) == nil && len(attrs) > 0 {
				out.KeyAttributes = attrs
			}
		case "comparison_request":
			var cr models.ComparisonRequest
			if json.Unmarshal(value, &cr) == nil {
				out.ComparisonRequest = &cr
			}
		}
	}

	return out
}

func (g *GenAI) dropped(name string, result *validation.ValidationResult, err error) {
	fields := map[string]interface{}{"field": name}
	if err != nil {
		fields["error"] = err.Error()
	} else if result != nil {
		fields["errors"] = result.GetErrorMessages()
	}
	g.logger.Warn("dropping proposed field", fields)
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
