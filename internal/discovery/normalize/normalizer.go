// Package normalize turns raw catalog candidates into semantic profiles.
// Every extracted value is traceable to a named field of the candidate.
package normalize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"product-discovery/internal/discovery/rules"
	"product-discovery/internal/models"
)

// Source field names recorded in SemanticProfile.Proof.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldTags        = "tags"
	FieldEnrichment  = "enrichment"
	FieldVendor      = "vendor"
)

type source struct {
	field string
	text  string
}

type Normalizer struct {
	purposes        []string
	defaultCurrency string
	policy          *bluemonday.Policy
}

func NewNormalizer(r rules.Rules) *Normalizer {
	purposes := make([]string, 0, len(r.Purposes))
	for _, p := range r.Purposes {
		purposes = append(purposes, p.Name)
	}
	return &Normalizer{
		purposes:        purposes,
		defaultCurrency: r.DefaultCurrency,
		policy:          bluemonday.StrictPolicy(),
	}
}

// Normalize is pure: the same candidate always yields the same profile.
func (n *Normalizer) Normalize(c models.Candidate) models.SemanticProfile {
	profile := models.SemanticProfile{
		ID:            c.ID,
		Title:         strings.TrimSpace(c.Title),
		Category:      strings.TrimSpace(c.ProductType),
		Availability:  availability(c.InStock),
		KeyAttributes: make(map[string]string, len(models.TrackedAttributes)),
		UseCaseFit:    make(map[string]models.Fit, len(n.purposes)),
		Proof:         []string{},
	}

	if c.Price != nil && *c.Price >= 0 {
		currency := strings.ToUpper(strings.TrimSpace(c.Currency))
		if currency == "" {
			currency = n.defaultCurrency
		}
		profile.Price = &models.Price{Value: *c.Price, Currency: currency, AsOf: c.PriceAsOf}
	}

	sources := n.sources(c)
	for _, attr := range models.TrackedAttributes {
		var value, field string
		if attr == models.AttrBrand && strings.TrimSpace(c.Vendor) != "" {
			value, field = strings.TrimSpace(c.Vendor), FieldVendor
		} else {
			value, field = extract(extractors[attr], sources)
		}
		profile.KeyAttributes[attr] = value
		if field != "" {
			profile.Proof = appendUnique(profile.Proof, field)
		}
	}

	for _, purpose := range n.purposes {
		fit := models.FitUnknown
		if rule, ok := fitRules[purpose]; ok {
			fit = rule(profile.KeyAttributes)
		}
		profile.UseCaseFit[purpose] = fit
	}

	return profile
}

// NormalizeAll keeps the candidate order.
func (n *Normalizer) NormalizeAll(candidates []models.Candidate) []models.SemanticProfile {
	out := make([]models.SemanticProfile, len(candidates))
	for i, c := range candidates {
		out[i] = n.Normalize(c)
	}
	return out
}

func (n *Normalizer) sources(c models.Candidate) []source {
	tags := make([]string, 0, len(c.Tags))
	for _, t := range c.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return []source{
		{field: FieldTitle, text: c.Title},
		{field: FieldDescription, text: n.plainText(c.Description)},
		{field: FieldTags, text: strings.Join(tags, ", ")},
		{field: FieldEnrichment, text: c.Enrichment},
	}
}

// plainText strips markup from HTML product descriptions.
func (n *Normalizer) plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	// Keep words from adjacent block elements apart.
	s = strings.NewReplacer("<", " <", ">", "> ").Replace(s)
	return strings.Join(strings.Fields(html.UnescapeString(n.policy.Sanitize(s))), " ")
}

func extract(fn extractor, sources []source) (string, string) {
	if fn == nil {
		return models.Unknown, ""
	}
	for _, s := range sources {
		if s.text == "" {
			continue
		}
		if v, ok := fn(s.text); ok {
			return v, s.field
		}
	}
	return models.Unknown, ""
}

func availability(inStock *bool) models.Availability {
	switch {
	case inStock == nil:
		return models.AvailabilityUnknown
	case *inStock:
		return models.AvailabilityInStock
	default:
		return models.AvailabilityOutOfStock
	}
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
