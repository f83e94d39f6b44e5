package rankproducts

import "product-discovery/internal/models"

type Input struct {
	Intent     models.IntentState `json:"intent"`
	Candidates []models.Candidate `json:"candidates"`
}

type Output struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	Confidence      models.Confidence       `json:"confidence"`
}
