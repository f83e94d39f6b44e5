package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"product-discovery/internal/models"
)

// extractor returns the attribute value found in text, if any.
type extractor func(text string) (string, bool)

type phrase struct {
	pattern *regexp.Regexp
	value   string
}

// firstPhrase returns the value of the first phrase that matches.
func firstPhrase(phrases []phrase) extractor {
	return func(text string) (string, bool) {
		for _, p := range phrases {
			if p.pattern.MatchString(text) {
				return p.value, true
			}
		}
		return "", false
	}
}

var (
	resolutionPattern = regexp.MustCompile(`(?i)\b(\d{1,3}(?:\.\d{1,2})?)\s*-?\s*(?:mp|megapixels?)\b`)
	weightPattern     = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(kg|kilograms?|g|grams?|gms?)\b`)
	zoomPattern       = regexp.MustCompile(`(?i)\b(\d{1,3}(?:\.\d)?)\s*x\s*(?:optical\s+)?zoom\b`)
	zoomAltPattern    = regexp.MustCompile(`(?i)\boptical\s+zoom\s*(?:of\s*)?:?\s*(\d{1,3}(?:\.\d)?)\s*x\b`)
	isoPattern        = regexp.MustCompile(`(?i)\biso\s*:?\s*(?:range\s*)?(?:up\s*to\s*)?(?:\d[\d,]*\s*(?:-|–|to)\s*)?(\d[\d,]{2,})`)
	afPointsPattern   = regexp.MustCompile(`(?i)\b(\d{2,4})\s*-?\s*(?:point|pt)s?\s+(?:af|auto\s*-?focus)\b`)
)

var sensorPhrases = []phrase{
	{regexp.MustCompile(`(?i)\bmedium[\s-]format\b`), "medium format"},
	{regexp.MustCompile(`(?i)\bfull[\s-]frame\b`), "full frame"},
	{regexp.MustCompile(`(?i)\baps[\s-]?c\b`), "APS-C"},
	{regexp.MustCompile(`(?i)\b(?:micro\s+four\s+thirds|m4/3|mft)\b`), "Micro Four Thirds"},
	{regexp.MustCompile(`(?i)\b1(?:\.0)?(?:[\s-]?inch|[\s-]?type|")[\s-]+(?:[a-z]+\s+){0,2}sensor\b`), "1-inch"},
	{regexp.MustCompile(`(?i)\b1/2\.3(?:"|\s*-?\s*inch\b)`), "1/2.3-inch"},
}

var videoPhrases = []phrase{
	{regexp.MustCompile(`(?i)\b8k\b`), "8K"},
	{regexp.MustCompile(`(?i)\b6k\b`), "6K"},
	{regexp.MustCompile(`(?i)\b(?:4k|uhd|2160p)\b`), "4K"},
	{regexp.MustCompile(`(?i)\b(?:1080p|full\s*hd|fhd)\b`), "1080p"},
	{regexp.MustCompile(`(?i)\b720p\b`), "720p"},
}

var stabilizationPhrases = []phrase{
	{regexp.MustCompile(`(?i)\b(?:ibis|in[\s-]body\s+(?:image\s+)?stabili[sz](?:ation|er)|\d-axis\s+(?:image\s+)?stabili[sz]ation)\b`), "in-body"},
	{regexp.MustCompile(`(?i)\b(?:ois|optical\s+(?:image\s+)?stabili[sz](?:ation|er)|vibration\s+reduction)\b`), "optical"},
	{regexp.MustCompile(`(?i)\b(?:eis|electronic\s+(?:image\s+)?stabili[sz]ation|hypersmooth|rocksteady)\b`), "electronic"},
	{regexp.MustCompile(`(?i)\b(?:gimbal|image\s+stabili[sz]ation|stabili[sz]ed)\b`), "yes"},
}

var autofocusPhrases = []phrase{
	{regexp.MustCompile(`(?i)\b(?:animal|bird|eye)[\s-]*(?:detection\s+)?(?:af|auto\s*-?focus)\b`), "eye AF"},
	{regexp.MustCompile(`(?i)\bsubject[\s-]detection\b`), "subject detection AF"},
	{regexp.MustCompile(`(?i)\bdual\s+pixel\b`), "dual pixel AF"},
	{regexp.MustCompile(`(?i)\b(?:hybrid\s+(?:af|auto\s*-?focus)|phase[\s-]detect(?:ion)?)\b`), "phase detection AF"},
	{regexp.MustCompile(`(?i)\b(?:fast|continuous|tracking)\s+(?:af|auto\s*-?focus)\b`), "tracking AF"},
}

var sealingPhrases = []phrase{
	{regexp.MustCompile(`(?i)\b(?:waterproof|ip[x6][78])\b`), "waterproof"},
	{regexp.MustCompile(`(?i)\b(?:weather[\s-]?(?:sealed|sealing|resistant|proof)|dust\s+and\s+(?:splash|moisture|water)[\s-]?(?:proof|resistant|resistance)|splash[\s-]?proof)\b`), "weather sealed"},
}

var lowLightPhrases = []phrase{
	{regexp.MustCompile(`(?i)\b(?:low[\s-]light|night\s+(?:mode|shots?|photography)|starlight|dual\s+native\s+iso)\b`), "low-light mode"},
}

var brands = []string{
	"Canon", "Nikon", "Sony", "Fujifilm", "Panasonic", "Olympus", "OM System",
	"GoPro", "DJI", "Leica", "Ricoh", "Pentax", "Insta360", "Sigma", "Hasselblad", "Kodak",
}

var brandPattern = func() *regexp.Regexp {
	quoted := make([]string, len(brands))
	for i, b := range brands {
		quoted[i] = regexp.QuoteMeta(b)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}()

// extractors holds one rule per tracked attribute. The normalizer prefers the
// vendor field over the brand rule.
var extractors = map[string]extractor{
	models.AttrResolution:     extractResolution,
	models.AttrSensorSize:     firstPhrase(sensorPhrases),
	models.AttrLowLight:       extractLowLight,
	models.AttrWeight:         extractWeight,
	models.AttrVideo:          firstPhrase(videoPhrases),
	models.AttrStabilization:  firstPhrase(stabilizationPhrases),
	models.AttrOpticalZoom:    extractZoom,
	models.AttrAutofocus:      extractAutofocus,
	models.AttrWeatherSealing: firstPhrase(sealingPhrases),
	models.AttrBrand:          extractBrand,
}

func extractResolution(text string) (string, bool) {
	m := resolutionPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 || v > 400 {
		return "", false
	}
	return formatNumber(v) + " MP", true
}

func extractWeight(text string) (string, bool) {
	for _, m := range weightPattern.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || v <= 0 {
			continue
		}
		if strings.HasPrefix(strings.ToLower(m[2]), "k") {
			v = math.Round(v * 1000)
		}
		// Anything outside this window is a storage size or a typo.
		if v < 20 || v > 10000 {
			continue
		}
		return formatNumber(v) + " g", true
	}
	return "", false
}

func extractZoom(text string) (string, bool) {
	m := zoomPattern.FindStringSubmatch(text)
	if m == nil {
		m = zoomAltPattern.FindStringSubmatch(text)
	}
	if m == nil {
		return "", false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 1 {
		return "", false
	}
	return formatNumber(v) + "x", true
}

func extractLowLight(text string) (string, bool) {
	if m := isoPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil && v >= 100 {
			return fmt.Sprintf("ISO %d", v), true
		}
	}
	return firstPhrase(lowLightPhrases)(text)
}

func extractAutofocus(text string) (string, bool) {
	if m := afPointsPattern.FindStringSubmatch(text); m != nil {
		return m[1] + "-point AF", true
	}
	return firstPhrase(autofocusPhrases)(text)
}

func extractBrand(text string) (string, bool) {
	m := brandPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	for _, b := range brands {
		if strings.EqualFold(b, m[1]) {
			return b, true
		}
	}
	return m[1], true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Parsers for values produced above, used by the fit heuristics.

func parseLeadingNumber(v string) (float64, bool) {
	end := 0
	for end < len(v) && (v[end] == '.' || (v[end] >= '0' && v[end] <= '9')) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(v[:end], 64)
	return n, err == nil
}

func isoValue(v string) (int, bool) {
	if !strings.HasPrefix(v, "ISO ") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(v, "ISO "))
	return n, err == nil
}

var videoRank = map[string]int{"720p": 1, "1080p": 2, "4K": 3, "6K": 4, "8K": 5}
