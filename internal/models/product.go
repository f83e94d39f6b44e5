package models

import (
	"strings"
	"time"
)

// Unknown is the sentinel for an attribute or fit that could not be derived
// from the candidate's own fields.
const Unknown = "unknown"

// Tracked product attributes, in the order they are extracted and compared.
const (
	AttrResolution     = "resolution"
	AttrSensorSize     = "sensor_size"
	AttrLowLight       = "low_light"
	AttrWeight         = "weight"
	AttrVideo          = "video"
	AttrStabilization  = "stabilization"
	AttrOpticalZoom    = "optical_zoom"
	AttrAutofocus      = "autofocus"
	AttrWeatherSealing = "weather_sealing"
)

var TrackedAttributes = []string{
	AttrResolution,
	AttrSensorSize,
	AttrLowLight,
	AttrWeight,
	AttrVideo,
	AttrStabilization,
	AttrOpticalZoom,
	AttrAutofocus,
	AttrWeatherSealing,
	AttrBrand,
}

var attributeLabels = map[string]string{
	AttrResolution:     "resolution",
	AttrSensorSize:     "sensor size",
	AttrLowLight:       "low-light capability",
	AttrWeight:         "weight",
	AttrVideo:          "video",
	AttrStabilization:  "stabilization",
	AttrOpticalZoom:    "optical zoom",
	AttrAutofocus:      "autofocus",
	AttrWeatherSealing: "weather sealing",
	AttrBrand:          "brand",
}

// AttributeLabel returns the human-readable name of an attribute.
func AttributeLabel(attr string) string {
	if l, ok := attributeLabels[attr]; ok {
		return l
	}
	return strings.ReplaceAll(attr, "_", " ")
}

type Availability string

const (
	AvailabilityInStock    Availability = "in_stock"
	AvailabilityOutOfStock Availability = "out_of_stock"
	AvailabilityUnknown    Availability = "unknown"
)

type Fit string

const (
	FitHigh    Fit = "high"
	FitMedium  Fit = "medium"
	FitLow     Fit = "low"
	FitUnknown Fit = "unknown"
)

// Candidate is the raw product shape returned by a catalog adapter.
type Candidate struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	Vendor      string     `json:"vendor"`
	ProductType string     `json:"product_type"`
	Price       *float64   `json:"price"`
	Currency    string     `json:"currency"`
	PriceAsOf   *time.Time `json:"price_as_of,omitempty"`
	Images      []string   `json:"images"`
	InStock     *bool      `json:"in_stock"`
	Enrichment  string     `json:"enrichment,omitempty"`
}

type Price struct {
	Value    float64    `json:"value"`
	Currency string     `json:"currency"`
	AsOf     *time.Time `json:"as_of"`
}

// SemanticProfile is the normalized, provenance-tracked view of one candidate.
type SemanticProfile struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Category      string            `json:"category"`
	Price         *Price            `json:"price"`
	Availability  Availability      `json:"availability"`
	KeyAttributes map[string]string `json:"key_attributes"`
	UseCaseFit    map[string]Fit    `json:"use_case_fit"`
	Proof         []string          `json:"proof"`
}

// Known reports whether attr was extracted with a concrete value.
func (p SemanticProfile) Known(attr string) bool {
	v, ok := p.KeyAttributes[attr]
	return ok && v != "" && v != Unknown
}

type ReasonKind string

const (
	ReasonFit       ReasonKind = "fit"
	ReasonAttribute ReasonKind = "attribute"
	ReasonBudget    ReasonKind = "budget"
	ReasonCategory  ReasonKind = "category"
)

type Reason struct {
	Kind ReasonKind `json:"kind"`
	Text string     `json:"text"`
	// Fact names the profile field the reason is derived from: a purpose,
	// an attribute name, "price" or "category".
	Fact string `json:"fact"`
}

type ScoredCandidate struct {
	Profile SemanticProfile `json:"profile"`
	Score   float64         `json:"score"`
	Reasons []Reason        `json:"reasons"`
}

// ReasonTexts returns the human-readable justification strings.
func (s ScoredCandidate) ReasonTexts() []string {
	out := make([]string, 0, len(s.Reasons))
	for _, r := range s.Reasons {
		out = append(out, r.Text)
	}
	return out
}
