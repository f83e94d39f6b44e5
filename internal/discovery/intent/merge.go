// Package intent accumulates what is known about the shopper's need across
// turns. Merging never mutates its input and never forgets a known field.
package intent

import (
	"sort"
	"strings"

	"product-discovery/internal/discovery/rules"
	"product-discovery/internal/models"
)

// Field names reported in MergeResult.Updated.
const (
	FieldPurpose       = "purpose"
	FieldBudget        = "budget"
	FieldCategory      = "category"
	FieldKeyAttributes = "key_attributes"
	FieldComparison    = "comparison_request"
)

var fieldOrder = []string{FieldPurpose, FieldBudget, FieldCategory, FieldKeyAttributes, FieldComparison}

type MergeResult struct {
	State   models.IntentState
	Updated []string
}

// Changed reports whether field was updated by the merge.
func (r MergeResult) Changed(field string) bool {
	for _, f := range r.Updated {
		if f == field {
			return true
		}
	}
	return false
}

type Merger struct {
	rules rules.Rules
}

func NewMerger(r rules.Rules) *Merger {
	return &Merger{rules: r}
}

// Merge folds a proposed update and the deterministic utterance patterns
// into a copy of current. In single mode at most one proposed field is
// applied, preferring focus (the field currently being asked about).
func (m *Merger) Merge(current models.IntentState, proposal *models.ProposedFields, utterance, focus string) MergeResult {
	next := current.Clone()
	var updated []string
	mark := func(field string) {
		for _, f := range updated {
			if f == field {
				return
			}
		}
		updated = append(updated, field)
	}

	valid := m.sanitize(proposal)
	fields := make([]string, 0, len(valid))
	for _, f := range fieldOrder {
		if _, ok := valid[f]; ok {
			fields = append(fields, f)
		}
	}

	var proposedBudget *models.Budget
	if m.rules.MergeMode == rules.MergeModeSingle && len(fields) > 1 {
		pick := fields[0]
		if _, ok := valid[focus]; ok {
			pick = focus
		}
		fields = []string{pick}
	}

	for _, f := range fields {
		switch f {
		case FieldPurpose:
			p := valid[f].(string)
			if next.Purpose != p {
				next.Purpose = p
				mark(f)
			}
		case FieldBudget:
			proposedBudget = valid[f].(*models.Budget)
			if b, changed := mergeBudget(next.Budget, proposedBudget); changed {
				next.Budget = b
				mark(f)
			}
		case FieldCategory:
			c := valid[f].(string)
			if next.Category != c {
				next.Category = c
				mark(f)
			}
		case FieldKeyAttributes:
			attrs := valid[f].(map[string]string)
			if m.rules.MergeMode == rules.MergeModeSingle {
				attrs = singleAttribute(attrs, focus)
			}
			for k, v := range attrs {
				if next.KeyAttributes[k] != v {
					next.KeyAttributes[k] = v
					mark(f)
				}
			}
		case FieldComparison:
			cr := valid[f].(*models.ComparisonRequest)
			next.ComparisonRequest = cr
			mark(f)
		}
	}

	if m.rules.MergeMode == rules.MergeModeMulti && next.Purpose != "" && !next.HasDetail() {
		if use := m.statedUse(next.Purpose, utterance); use != "" {
			next.KeyAttributes[models.AttrPrimaryUse] = use
			mark(FieldKeyAttributes)
		}
	}

	if b, ok := ExtractBudget(utterance); ok {
		if proposedBudget != nil {
			b = budgetGaps(proposedBudget, b)
		}
		if b != nil {
			if merged, changed := mergeBudget(next.Budget, b); changed {
				next.Budget = merged
				mark(FieldBudget)
			}
		}
	}

	if _, proposed := valid[FieldComparison]; !proposed {
		if cr, ok := ExtractComparison(utterance); ok {
			next.ComparisonRequest = cr
			mark(FieldComparison)
		}
	}

	if next.Budget != nil && next.Budget.Currency == "" {
		next.Budget.Currency = m.rules.DefaultCurrency
	}

	return MergeResult{State: next, Updated: updated}
}

// sanitize drops every proposed field that is empty, malformed or outside
// the configured vocabulary.
func (m *Merger) sanitize(p *models.ProposedFields) map[string]interface{} {
	out := make(map[string]interface{})
	if p == nil {
		return out
	}

	if p.Purpose != nil {
		if purpose, ok := m.rules.PurposeByLabel(*p.Purpose); ok {
			out[FieldPurpose] = purpose.Name
		}
	}

	if p.Budget != nil {
		b := &models.Budget{Currency: strings.ToUpper(strings.TrimSpace(p.Budget.Currency))}
		if p.Budget.Min != nil && *p.Budget.Min >= 0 {
			v := *p.Budget.Min
			b.Min = &v
		}
		if p.Budget.Max != nil && *p.Budget.Max > 0 {
			v := *p.Budget.Max
			b.Max = &v
		}
		if b.IsSet() {
			out[FieldBudget] = b
		}
	}

	if p.Category != nil {
		if c := strings.TrimSpace(*p.Category); c != "" {
			out[FieldCategory] = c
		}
	}

	attrs := make(map[string]string)
	for k, v := range p.KeyAttributes {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" && !strings.EqualFold(v, models.Unknown) {
			attrs[k] = v
		}
	}
	if len(attrs) > 0 {
		out[FieldKeyAttributes] = attrs
	}

	if cr := p.ComparisonRequest; cr != nil {
		a, b := strings.TrimSpace(cr.A), strings.TrimSpace(cr.B)
		if a != "" && b != "" && a != b {
			out[FieldComparison] = &models.ComparisonRequest{A: a, B: b}
		}
	}

	return out
}

// statedUse returns the purpose keyword the utterance names explicitly,
// e.g. "travel" in "travel camera under 50k".
func (m *Merger) statedUse(purpose, utterance string) string {
	p, ok := m.rules.Purpose(purpose)
	if !ok {
		return ""
	}
	text := strings.ToLower(utterance)
	for _, kw := range p.Keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}

func singleAttribute(attrs map[string]string, focus string) map[string]string {
	if v, ok := attrs[focus]; ok {
		return map[string]string{focus: v}
	}
	for _, k := range []string{models.AttrPrimaryUse, models.AttrExperienceLevel} {
		if v, ok := attrs[k]; ok {
			return map[string]string{k: v}
		}
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return map[string]string{keys[0]: attrs[keys[0]]}
}

// mergeBudget overlays upd onto cur. When the result has min above max the
// older bound gives way.
// budgetGaps keeps the bounds of found that proposed left open and does not
// contradict. It returns nil when nothing is left to fill.
func budgetGaps(proposed, found *models.Budget) *models.Budget {
	out := &models.Budget{}
	if proposed.Min == nil && found.Min != nil && (proposed.Max == nil || *found.Min <= *proposed.Max) {
		v := *found.Min
		out.Min = &v
	}
	if proposed.Max == nil && found.Max != nil && (proposed.Min == nil || *found.Max >= *proposed.Min) {
		v := *found.Max
		out.Max = &v
	}
	if !out.IsSet() {
		return nil
	}
	if proposed.Currency == "" {
		out.Currency = found.Currency
	}
	return out
}

func mergeBudget(cur, upd *models.Budget) (*models.Budget, bool) {
	out := cur.Clone()
	if out == nil {
		out = &models.Budget{}
	}
	changed := false
	newMin, newMax := false, false

	if upd.Min != nil && (out.Min == nil || *out.Min != *upd.Min) {
		v := *upd.Min
		out.Min = &v
		changed, newMin = true, true
	}
	if upd.Max != nil && (out.Max == nil || *out.Max != *upd.Max) {
		v := *upd.Max
		out.Max = &v
		changed, newMax = true, true
	}
	if upd.Currency != "" && upd.Currency != out.Currency {
		out.Currency = upd.Currency
		changed = true
	}

	if out.Min != nil && out.Max != nil && *out.Min > *out.Max {
		switch {
		case newMax && !newMin:
			out.Min = nil
		case newMin && !newMax:
			out.Max = nil
		default:
			out.Min, out.Max = out.Max, out.Min
		}
	}

	return out, changed
}
