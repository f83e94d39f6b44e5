package models

// Well-known key attribute names carried in IntentState.KeyAttributes.
const (
	AttrPrimaryUse      = "primary_use"
	AttrExperienceLevel = "experience_level"
	AttrBrand           = "brand"
)

type Budget struct {
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Currency string   `json:"currency"`
}

// IsSet reports whether at least one bound is known.
func (b *Budget) IsSet() bool {
	return b != nil && (b.Min != nil || b.Max != nil)
}

func (b *Budget) Clone() *Budget {
	if b == nil {
		return nil
	}
	out := &Budget{Currency: b.Currency}
	if b.Min != nil {
		v := *b.Min
		out.Min = &v
	}
	if b.Max != nil {
		v := *b.Max
		out.Max = &v
	}
	return out
}

type ComparisonRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// IntentState is the accumulated knowledge about the shopper's need. It is
// owned by the caller and only ever replaced, never mutated in place.
type IntentState struct {
	Purpose              string             `json:"purpose"`
	Budget               *Budget            `json:"budget"`
	Category             string             `json:"category"`
	KeyAttributes        map[string]string  `json:"key_attributes"`
	ComparisonRequest    *ComparisonRequest `json:"comparison_request"`
	ConstraintsLocked    bool               `json:"constraints_locked"`
	ClarifyingTurnsAsked int                `json:"clarifying_turns_asked"`
}

// HasDetail reports whether the primary use or the experience level is known.
func (s IntentState) HasDetail() bool {
	return s.KeyAttributes[AttrPrimaryUse] != "" || s.KeyAttributes[AttrExperienceLevel] != ""
}

// Clone returns a deep copy so callers can derive a new state without
// touching the original.
func (s IntentState) Clone() IntentState {
	out := s
	out.Budget = s.Budget.Clone()
	out.KeyAttributes = make(map[string]string, len(s.KeyAttributes))
	for k, v := range s.KeyAttributes {
		out.KeyAttributes[k] = v
	}
	if s.ComparisonRequest != nil {
		cr := *s.ComparisonRequest
		out.ComparisonRequest = &cr
	}
	return out
}

// ProposedFields is the untrusted partial update suggested by an intent
// extractor. Nil or empty members mean "no proposal".
type ProposedFields struct {
	Purpose           *string            `json:"purpose,omitempty"`
	Budget            *Budget            `json:"budget,omitempty"`
	Category          *string            `json:"category,omitempty"`
	KeyAttributes     map[string]string  `json:"key_attributes,omitempty"`
	ComparisonRequest *ComparisonRequest `json:"comparison_request,omitempty"`
}

// IntentProposal is what an IntentExtractor returns for one utterance.
type IntentProposal struct {
	Fields                  ProposedFields `json:"proposed_fields"`
	Confidence              float64        `json:"confidence"`
	SuggestedQuestion       string         `json:"suggested_question,omitempty"`
	SuggestedAcknowledgment string         `json:"suggested_acknowledgment,omitempty"`
}
