package normalize

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-discovery/internal/discovery/rules"
	"product-discovery/internal/models"
)

func price(v float64) *float64 { return &v }
func stock(v bool) *bool        { return &v }

func zv1() models.Candidate {
	asOf := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	return models.Candidate{
		ID:    "gid-101",
		Title: "Sony ZV-1 Digital Camera for Vlogging",
		Description: "<p>1-inch stacked CMOS sensor with 20.1 MP resolution.</p>" +
			"<ul><li>4K HDR video</li><li>Optical SteadyShot image stabilization</li></ul>" +
			"<p>Weight: 294 g</p>",
		Tags:        []string{"vlog", "compact"},
		Vendor:      "Sony",
		ProductType: "Compact Camera",
		Price:       price(62990),
		PriceAsOf:   &asOf,
		InStock:     stock(true),
	}
}

func fixtures() []models.Candidate {
	return []models.Candidate{
		zv1(),
		{ID: "gift", Title: "Gift card"},
		{
			ID:         "r6",
			Title:      "Canon EOS R6 Mark II 24.2MP Body",
			Tags:       []string{"mirrorless", "weather sealed"},
			Enrichment: "Full-frame sensor, ISO 100-102400, 6K oversampled 4K video, in-body image stabilisation, 1.2 kg with battery",
			Price:      price(215995),
			Currency:   "inr",
			InStock:    stock(false),
		},
		{
			ID:          "p1000",
			Title:       "Nikon Coolpix P1000",
			Description: "125x optical zoom superzoom bridge camera with 1/2.3\" sensor and 16 MP",
			Vendor:      "",
		},
		{
			ID:          "html-only",
			Title:       "Accessory",
			Description: "<script>alert('x')</script><b>Compatible</b> with most bodies &amp; lenses",
		},
	}
}

func TestNormalize_ExtractsFromSourceFields(t *testing.T) {
	n := NewNormalizer(rules.Default())

	p := n.Normalize(zv1())

	assert.Equal(t, "gid-101", p.ID)
	assert.Equal(t, "Compact Camera", p.Category)
	assert.Equal(t, models.AvailabilityInStock, p.Availability)
	require.NotNil(t, p.Price)
	assert.Equal(t, 62990.0, p.Price.Value)
	assert.Equal(t, "INR", p.Price.Currency)
	assert.NotNil(t, p.Price.AsOf)

	assert.Equal(t, map[string]string{
		models.AttrResolution:     "20.1 MP",
		models.AttrSensorSize:     "1-inch",
		models.AttrLowLight:       models.Unknown,
		models.AttrWeight:         "294 g",
		models.AttrVideo:          "4K",
		models.AttrStabilization:  "yes",
		models.AttrOpticalZoom:    models.Unknown,
		models.AttrAutofocus:      models.Unknown,
		models.AttrWeatherSealing: models.Unknown,
		models.AttrBrand:          "Sony",
	}, p.KeyAttributes)
	assert.Equal(t, []string{FieldDescription, FieldVendor}, p.Proof)

	assert.Equal(t, map[string]models.Fit{
		"travel":    models.FitHigh,
		"vlogging":  models.FitHigh,
		"wildlife":  models.FitUnknown,
		"portrait":  models.FitMedium,
		"low_light": models.FitLow,
		"sports":    models.FitLow,
	}, p.UseCaseFit)
}

func TestNormalize_SourcePrecedenceAndProofOrder(t *testing.T) {
	n := NewNormalizer(rules.Default())

	p := n.Normalize(fixtures()[2])

	assert.Equal(t, "24.2 MP", p.KeyAttributes[models.AttrResolution])
	assert.Equal(t, "full frame", p.KeyAttributes[models.AttrSensorSize])
	assert.Equal(t, "ISO 102400", p.KeyAttributes[models.AttrLowLight])
	assert.Equal(t, "1200 g", p.KeyAttributes[models.AttrWeight])
	assert.Equal(t, "6K", p.KeyAttributes[models.AttrVideo])
	assert.Equal(t, "in-body", p.KeyAttributes[models.AttrStabilization])
	assert.Equal(t, "weather sealed", p.KeyAttributes[models.AttrWeatherSealing])
	assert.Equal(t, "Canon", p.KeyAttributes[models.AttrBrand])
	assert.Equal(t, []string{FieldTitle, FieldEnrichment, FieldTags}, p.Proof)

	assert.Equal(t, models.AvailabilityOutOfStock, p.Availability)
	assert.Equal(t, "INR", p.Price.Currency)
	assert.Equal(t, models.FitLow, p.UseCaseFit["travel"])
	assert.Equal(t, models.FitHigh, p.UseCaseFit["portrait"])
	assert.Equal(t, models.FitHigh, p.UseCaseFit["low_light"])
	assert.Equal(t, models.FitLow, p.UseCaseFit["sports"])
}

func TestNormalize_NothingKnown(t *testing.T) {
	n := NewNormalizer(rules.Default())

	p := n.Normalize(models.Candidate{ID: "gift", Title: "Gift card"})

	for attr, v := range p.KeyAttributes {
		assert.Equal(t, models.Unknown, v, attr)
	}
	for purpose, fit := range p.UseCaseFit {
		assert.Equal(t, models.FitUnknown, fit, purpose)
	}
	assert.Empty(t, p.Proof)
	assert.NotNil(t, p.Proof)
	assert.Nil(t, p.Price)
	assert.Equal(t, models.AvailabilityUnknown, p.Availability)
}

func TestNormalize_StripsMarkup(t *testing.T) {
	n := NewNormalizer(rules.Default())

	assert.Equal(t, "Compatible with most bodies & lenses", n.plainText(fixtures()[4].Description))
	assert.Equal(t, "plain text stays", n.plainText("plain text stays"))
}

func TestNormalize_ProofNeverEmptyWhenAttributeKnown(t *testing.T) {
	n := NewNormalizer(rules.Default())
	valid := map[string]bool{FieldTitle: true, FieldDescription: true, FieldTags: true, FieldEnrichment: true, FieldVendor: true}

	for _, c := range fixtures() {
		p := n.Normalize(c)
		anyKnown := false
		for _, attr := range models.TrackedAttributes {
			if p.Known(attr) {
				anyKnown = true
			}
		}
		if anyKnown {
			assert.NotEmpty(t, p.Proof, c.ID)
		}
		for _, field := range p.Proof {
			assert.True(t, valid[field], "%s: unexpected proof field %q", c.ID, field)
		}
		assert.Len(t, p.KeyAttributes, len(models.TrackedAttributes))
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := NewNormalizer(rules.Default())

	for _, c := range fixtures() {
		before := c
		first := n.Normalize(c)
		second := n.Normalize(c)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("%s: profiles differ (-first +second):\n%s", c.ID, diff)
		}
		if diff := cmp.Diff(before, c); diff != "" {
			t.Errorf("%s: candidate mutated:\n%s", c.ID, diff)
		}
	}
}

func TestNormalizeAll_KeepsOrder(t *testing.T) {
	n := NewNormalizer(rules.Default())

	profiles := n.NormalizeAll(fixtures())

	require.Len(t, profiles, len(fixtures()))
	for i, c := range fixtures() {
		assert.Equal(t, c.ID, profiles[i].ID)
	}
}

func TestExtractors(t *testing.T) {
	tests := []struct {
		attr  string
		text  string
		want  string
		found bool
	}{
		{attr: models.AttrResolution, text: "45.7 megapixels BSI sensor", want: "45.7 MP", found: true},
		{attr: models.AttrResolution, text: "64GB card included", found: false},
		{attr: models.AttrWeight, text: "approx. 0.65 kg", want: "650 g", found: true},
		{attr: models.AttrWeight, text: "64GB storage, 5G ready", found: false},
		{attr: models.AttrOpticalZoom, text: "Optical zoom: 40x", want: "40x", found: true},
		{attr: models.AttrOpticalZoom, text: "30x zoom lens", want: "30x", found: true},
		{attr: models.AttrLowLight, text: "ISO 100-51200 expandable", want: "ISO 51200", found: true},
		{attr: models.AttrLowLight, text: "great for low-light scenes", want: "low-light mode", found: true},
		{attr: models.AttrAutofocus, text: "693-point AF system", want: "693-point AF", found: true},
		{attr: models.AttrAutofocus, text: "Real-time Eye AF for animals", want: "eye AF", found: true},
		{attr: models.AttrWeatherSealing, text: "rated IP68", want: "waterproof", found: true},
		{attr: models.AttrSensorSize, text: "APS-C X-Trans sensor", want: "APS-C", found: true},
		{attr: models.AttrSensorSize, text: "Micro Four Thirds mount", want: "Micro Four Thirds", found: true},
		{attr: models.AttrSensorSize, text: "ZV-1 camera", found: false},
		{attr: models.AttrVideo, text: "Full HD recording", want: "1080p", found: true},
		{attr: models.AttrStabilization, text: "5-axis image stabilization", want: "in-body", found: true},
		{attr: models.AttrBrand, text: "compatible with FUJIFILM bodies", want: "Fujifilm", found: true},
	}

	for _, tt := range tests {
		t.Run(tt.attr+"/"+tt.text, func(t *testing.T) {
			got, ok := extractors[tt.attr](tt.text)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
