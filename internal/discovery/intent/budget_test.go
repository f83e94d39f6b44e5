package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBudget(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name      string
		utterance string
		wantOK    bool
		min       *float64
		max       *float64
		currency  string
	}{
		{name: "under with currency", utterance: "travel camera under 50000 INR, I like Sony", wantOK: true, max: f(50000), currency: "INR"},
		{name: "k suffix", utterance: "something below 45k please", wantOK: true, max: f(45000)},
		{name: "thousand suffix", utterance: "max 60 thousand", wantOK: true, max: f(60000)},
		{name: "upto", utterance: "upto ₹30,000", wantOK: true, max: f(30000), currency: "INR"},
		{name: "up to with space", utterance: "up to $800", wantOK: true, max: f(800), currency: "USD"},
		{name: "above", utterance: "above 1,00,000", wantOK: true, min: f(100000)},
		{name: "over k", utterance: "over 20k", wantOK: true, min: f(20000)},
		{name: "min and max", utterance: "min 20k and under 50k", wantOK: true, min: f(20000), max: f(50000)},
		{name: "range with to", utterance: "30,000 to 60,000", wantOK: true, min: f(30000), max: f(60000)},
		{name: "range with dash", utterance: "budget 30000-60000 rs", wantOK: true, min: f(30000), max: f(60000), currency: "INR"},
		{name: "range shared suffix", utterance: "30-60k", wantOK: true, min: f(30000), max: f(60000)},
		{name: "between and", utterance: "between 40k and 70k", wantOK: true, min: f(40000), max: f(70000)},
		{name: "lakh", utterance: "under 1.5 lakh", wantOK: true, max: f(150000)},
		{name: "no number", utterance: "I need a camera", wantOK: false},
		{name: "weight is not a budget", utterance: "under 500g would be nice", wantOK: false},
		{name: "focal range is not a budget", utterance: "a 24-70mm lens", wantOK: false},
		{name: "comparison ids are not a range", utterance: "compare product 123 to 456", wantOK: false},
		{name: "bound keyword beats number pair", utterance: "travel camera for 2-3 day trips under 50k", wantOK: true, max: f(50000)},
		{name: "lower bound beats number pair", utterance: "shooting 10-12 hours a day, above 40k", wantOK: true, min: f(40000)},
		{name: "small pair is not a budget", utterance: "camera for 2-3 day trips", wantOK: false},
		{name: "small pair with currency", utterance: "$50-80 is fine", wantOK: true, min: f(50), max: f(80), currency: "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := ExtractBudget(tt.utterance)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, b)
				return
			}
			assert.Equal(t, tt.min, b.Min)
			assert.Equal(t, tt.max, b.Max)
			assert.Equal(t, tt.currency, b.Currency)
		})
	}
}

func TestExtractComparison(t *testing.T) {
	tests := []struct {
		utterance string
		a, b      string
		ok        bool
	}{
		{utterance: "compare product 123 and 456", a: "123", b: "456", ok: true},
		{utterance: "Can you compare ZV-1 vs G7X?", a: "ZV-1", b: "G7X", ok: true},
		{utterance: "compare items a1 with b2", a: "a1", b: "b2", ok: true},
		{utterance: "product 9 versus product 12", a: "9", b: "12", ok: true},
		{utterance: "compare 5 and 5", ok: false},
		{utterance: "travel camera under 50k", ok: false},
		{utterance: "compare prices with other stores", ok: false},
		{utterance: "I want to compare features and prices", ok: false},
		{utterance: "compare #abc with #def", a: "abc", b: "def", ok: true},
		{utterance: "compare product alpha with beta", a: "alpha", b: "beta", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			cr, ok := ExtractComparison(tt.utterance)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.a, cr.A)
				assert.Equal(t, tt.b, cr.B)
			}
		})
	}
}
