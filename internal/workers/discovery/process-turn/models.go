package processturn

import (
	"time"

	"product-discovery/internal/models"
)

type Input struct {
	Utterance string              `json:"utterance"`
	History   []models.TurnRecord `json:"history"`
	State     models.IntentState  `json:"state"`
}

type Output struct {
	Response models.Response `json:"response"`
}

// NoResultsEvent is published when a turn found nothing to recommend.
type NoResultsEvent struct {
	TurnID     string         `json:"turnId"`
	JobKey     int64          `json:"jobKey,omitempty"`
	Utterance  string         `json:"utterance"`
	Purpose    string         `json:"purpose,omitempty"`
	Category   string         `json:"category,omitempty"`
	Budget     *models.Budget `json:"budget,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}
