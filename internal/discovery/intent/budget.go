package intent

import (
	"regexp"
	"strconv"
	"strings"

	"product-discovery/internal/models"
)

const (
	currencyPrefix = `(?:rs\.?|inr|₹|\$|usd|eur|€)?\s*`
	amount         = `(\d+(?:\.\d+)?)\s*(k|thousand|lakhs?|lacs?)?\b`
)

var (
	digitGrouping = regexp.MustCompile(`(\d),(\d)`)

	betweenPattern = regexp.MustCompile(`\bbetween\s+` + currencyPrefix + amount + `\s*(?:-|–|to|and)\s*` + currencyPrefix + amount)
	rangePattern   = regexp.MustCompile(`(?:^|[^\w.])` + currencyPrefix + amount + `\s*(?:-|–|to)\s*` + currencyPrefix + amount)
	maxPattern     = regexp.MustCompile(`\b(?:under|below|max|maximum|upto|up to|within|less than|no more than|cheaper than)\s+` + currencyPrefix + amount)
	minPattern     = regexp.MustCompile(`\b(?:above|over|min|minimum|at least|more than|starting at|starting from)\s+` + currencyPrefix + amount)

	currencyPatterns = []struct {
		re   *regexp.Regexp
		code string
	}{
		{regexp.MustCompile(`\b(?:inr|rs|rupees?)\b|₹`), "INR"},
		{regexp.MustCompile(`\b(?:usd|dollars?)\b|\$`), "USD"},
		{regexp.MustCompile(`\b(?:eur|euros?)\b|€`), "EUR"},
	}
)

// minBareRange is the smallest upper bound a bare "X-Y" pair needs, without
// a currency marker, to be read as a price range ("2-3 day trips" is not).
const minBareRange = 100

// ExtractBudget runs the deterministic budget patterns over a raw utterance.
// It recognises upper bounds ("under 50k"), lower bounds ("above 20000") and
// explicit ranges ("between 30k and 60k", "30,000 to 60,000", "30-60k").
// Amounts suffixed with k or thousand are multiplied by 1000, lakh by 100000.
// Bound keywords win over a bare number pair elsewhere in the sentence.
func ExtractBudget(utterance string) (*models.Budget, bool) {
	text := normalizeAmounts(utterance)
	if text == "" {
		return nil, false
	}

	budget := &models.Budget{Currency: detectCurrency(text)}

	// "compare 123 to 456" names two items, not a price range.
	_, comparing := ExtractComparison(utterance)
	if !comparing {
		if low, high, ok := matchRange(betweenPattern, text); ok {
			budget.Min = &low
			budget.Max = &high
			return budget, true
		}
	}

	if m := maxPattern.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1], m[2]); ok && v > 0 {
			budget.Max = &v
		}
	}
	if m := minPattern.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1], m[2]); ok {
			budget.Min = &v
		}
	}

	if !budget.IsSet() && !comparing {
		if low, high, ok := matchRange(rangePattern, text); ok && (high >= minBareRange || budget.Currency != "") {
			budget.Min = &low
			budget.Max = &high
		}
	}

	if budget.Min != nil && budget.Max != nil && *budget.Min > *budget.Max {
		budget.Min, budget.Max = budget.Max, budget.Min
	}
	if !budget.IsSet() {
		return nil, false
	}
	return budget, true
}

func matchRange(re *regexp.Regexp, text string) (float64, float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	low, lowOK := parseAmount(m[1], m[2])
	high, highOK := parseAmount(m[3], m[4])
	// "30-60k" means 30k to 60k.
	if lowOK && highOK && m[2] == "" && m[4] != "" && low < high/1000 {
		low, _ = parseAmount(m[1], m[4])
	}
	if lowOK && highOK && low <= high && high > 0 {
		return low, high, true
	}
	return 0, 0, false
}

func normalizeAmounts(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for digitGrouping.MatchString(s) {
		s = digitGrouping.ReplaceAllString(s, "$1$2")
	}
	return s
}

func parseAmount(num, suffix string) (float64, bool) {
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	switch {
	case suffix == "k" || suffix == "thousand":
		v *= 1000
	case strings.HasPrefix(suffix, "lakh") || strings.HasPrefix(suffix, "lac"):
		v *= 100000
	}
	return v, true
}

func detectCurrency(text string) string {
	for _, c := range currencyPatterns {
		if c.re.MatchString(text) {
			return c.code
		}
	}
	return ""
}

var (
	idPrefix = `((?:products?|items?)\s+#?|#)`

	comparisonPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bcompare\s+` + idPrefix + `?([\w-]+)\s+(?:and|vs\.?|versus|with|to)\s+` + idPrefix + `?([\w-]+)`),
		regexp.MustCompile(`(?i)\b((?:products?|items?)\s+#?)([\w-]+)\s+(?:vs\.?|versus)\s+` + idPrefix + `?([\w-]+)`),
	}

	hasDigit = regexp.MustCompile(`\d`)
)

// ExtractComparison detects an explicit request to compare two named items.
// At least one side must look like an id: it carries a digit or is
// introduced by "product", "item" or "#". "compare prices with other
// stores" is not a comparison request.
func ExtractComparison(utterance string) (*models.ComparisonRequest, bool) {
	for _, re := range comparisonPatterns {
		m := re.FindStringSubmatch(utterance)
		if m == nil {
			continue
		}
		a, b := strings.TrimSpace(m[2]), strings.TrimSpace(m[4])
		if a == "" || b == "" || strings.EqualFold(a, b) {
			continue
		}
		if m[1] == "" && m[3] == "" && !hasDigit.MatchString(a) && !hasDigit.MatchString(b) {
			continue
		}
		return &models.ComparisonRequest{A: a, B: b}, true
	}
	return nil, false
}
