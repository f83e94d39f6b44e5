// Package respond assembles the single Response returned for a turn.
package respond

import (
	"fmt"

	"product-discovery/internal/models"
)

// Error entries. Callers tell failure kinds apart by these strings.
const (
	ErrCatalogUnavailable = "catalog unavailable"
	ErrNoResults          = "no products found matching criteria"
	ErrInsufficientIntent = "not enough information to recommend products"
	ErrInternal           = "internal error"
	errComparisonMissing  = "comparison target not found: %s"
)

// User-facing messages for fail responses.
const (
	MsgCatalogUnavailable = "Sorry, I couldn't reach the product catalog right now. Please try again in a moment."
	MsgNoResults          = "I couldn't find products matching those criteria. Try widening your budget or relaxing a requirement."
	MsgComparisonMissing  = "I couldn't find one of the products you asked me to compare."
	MsgInsufficientIntent = "I need a bit more detail before I can recommend something. What will you mainly use it for?"
	MsgInternal           = "Something went wrong on our side. Please try again."
)

// Default messages for successful turns without an acknowledgment.
const (
	MsgRecommend = "Here are the options that best match what you're looking for."
	msgCompare   = "Here's how %s and %s compare."
)

func ComparisonMissing(id string) string {
	return fmt.Sprintf(errComparisonMissing, id)
}

// CompareMessage names both products being compared.
func CompareMessage(a, b string) string {
	return fmt.Sprintf(msgCompare, a, b)
}

func Clarify(turnID string, intent models.IntentState, q models.ClarifyingQuestion) models.Response {
	if q.Options == nil {
		q.Options = []string{}
	}
	r := base(turnID, models.ModeClarify, intent)
	r.ClarifyingQuestion = &q
	r.Message = q.Text
	return r
}

// Recommend falls back to a no-results failure when recs is empty.
func Recommend(turnID string, intent models.IntentState, message string, recs []models.Recommendation, confidence models.Confidence) models.Response {
	if len(recs) == 0 {
		return Fail(turnID, intent, MsgNoResults, ErrNoResults)
	}
	r := base(turnID, models.ModeRecommend, intent)
	r.Recommendations = append(r.Recommendations, recs...)
	r.Message = message
	r.Confidence = &confidence
	return r
}

func Compare(turnID string, intent models.IntentState, message string, c models.Comparison) models.Response {
	r := base(turnID, models.ModeCompare, intent)
	r.Comparison = &c
	r.Message = message
	return r
}

func Fail(turnID string, intent models.IntentState, message string, errs ...string) models.Response {
	r := base(turnID, models.ModeFail, intent)
	r.Errors = append(r.Errors, errs...)
	if len(r.Errors) == 0 {
		r.Errors = append(r.Errors, ErrInternal)
	}
	r.Message = message
	return r
}

func base(turnID string, mode models.Mode, intent models.IntentState) models.Response {
	return models.Response{
		Mode:            mode,
		Intent:          intent.Clone(),
		Recommendations: []models.Recommendation{},
		Errors:          []string{},
		TurnID:          turnID,
	}
}
