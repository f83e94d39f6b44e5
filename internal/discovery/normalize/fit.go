package normalize

import "product-discovery/internal/models"

// fitRule derives a purpose's fit from extracted attributes only. Unknown
// attributes are never treated as evidence.
type fitRule func(attrs map[string]string) models.Fit

var fitRules = map[string]fitRule{
	"travel":    travelFit,
	"vlogging":  vloggingFit,
	"wildlife":  wildlifeFit,
	"portrait":  portraitFit,
	"low_light": lowLightFit,
	"sports":    sportsFit,
}

func known(attrs map[string]string, attr string) (string, bool) {
	v, ok := attrs[attr]
	return v, ok && v != "" && v != models.Unknown
}

func travelFit(attrs map[string]string) models.Fit {
	v, ok := known(attrs, models.AttrWeight)
	if !ok {
		return models.FitUnknown
	}
	grams, ok := parseLeadingNumber(v)
	switch {
	case !ok:
		return models.FitUnknown
	case grams <= 500:
		return models.FitHigh
	case grams <= 800:
		return models.FitMedium
	default:
		return models.FitLow
	}
}

func vloggingFit(attrs map[string]string) models.Fit {
	video, ok := known(attrs, models.AttrVideo)
	if !ok {
		return models.FitUnknown
	}
	_, stabilized := known(attrs, models.AttrStabilization)
	uhd := videoRank[video] >= videoRank["4K"]
	switch {
	case uhd && stabilized:
		return models.FitHigh
	case uhd || stabilized:
		return models.FitMedium
	default:
		return models.FitLow
	}
}

func wildlifeFit(attrs map[string]string) models.Fit {
	if v, ok := known(attrs, models.AttrOpticalZoom); ok {
		zoom, ok := parseLeadingNumber(v)
		switch {
		case !ok:
			return models.FitUnknown
		case zoom >= 20:
			return models.FitHigh
		case zoom >= 5:
			return models.FitMedium
		default:
			return models.FitLow
		}
	}
	if _, ok := known(attrs, models.AttrAutofocus); ok {
		return models.FitMedium
	}
	return models.FitUnknown
}

func largeSensor(sensor string) bool {
	return sensor == "full frame" || sensor == "medium format"
}

func portraitFit(attrs map[string]string) models.Fit {
	sensor, sensorKnown := known(attrs, models.AttrSensorSize)
	v, ok := known(attrs, models.AttrResolution)
	if !ok {
		if sensorKnown && largeSensor(sensor) {
			return models.FitMedium
		}
		return models.FitUnknown
	}
	mp, ok := parseLeadingNumber(v)
	switch {
	case !ok:
		return models.FitUnknown
	case mp >= 24 && (largeSensor(sensor) || sensor == "APS-C"):
		return models.FitHigh
	case mp >= 20:
		return models.FitMedium
	default:
		return models.FitLow
	}
}

func lowLightFit(attrs map[string]string) models.Fit {
	if sensor, ok := known(attrs, models.AttrSensorSize); ok {
		switch {
		case largeSensor(sensor):
			return models.FitHigh
		case sensor == "APS-C":
			return models.FitMedium
		default:
			return models.FitLow
		}
	}
	if v, ok := known(attrs, models.AttrLowLight); ok {
		if iso, ok := isoValue(v); ok && iso >= 51200 {
			return models.FitHigh
		}
		return models.FitMedium
	}
	return models.FitUnknown
}

func sportsFit(attrs map[string]string) models.Fit {
	_, af := known(attrs, models.AttrAutofocus)
	video, hasVideo := known(attrs, models.AttrVideo)
	uhd := hasVideo && videoRank[video] >= videoRank["4K"]
	switch {
	case af && uhd:
		return models.FitHigh
	case af:
		return models.FitMedium
	case hasVideo:
		return models.FitLow
	default:
		return models.FitUnknown
	}
}
