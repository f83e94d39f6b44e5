package rules

import "product-discovery/internal/models"

// Default returns the reference tables for a camera catalog.
func Default() Rules {
	experience := []string{"Beginner", "Enthusiast", "Professional"}

	return Rules{
		MergeMode:             MergeModeMulti,
		ClarifyCap:            2,
		HighConfidence:        0.8,
		CapMinConfidence:      0,
		DefaultAcknowledgment: "Based on what you've told me so far, here are some options that might work for you.",
		NeutralAcknowledgment: "Here are some products that match what you asked for.",
		DefaultCurrency:       "INR",

		CandidateLimit:     10,
		MinRecommendations: 2,
		MaxRecommendations: 3,

		FitPoints:           FitPoints{High: 10, Medium: 5, Low: 1},
		AttributeMultiplier: 10,
		BudgetMaxBonus:      5,
		BudgetMinBonus:      2,
		CategoryBonus:       3,
		Tiers:               ConfidenceTiers{High: 15, Medium: 8},
		HighEndPrice:        100000,

		PurposeQuestion: Question{
			Topic:   TopicPurpose,
			Text:    "What will you mainly use the camera for?",
			Options: []string{"Travel", "Vlogging", "Wildlife", "Portraits", "Low light", "Sports"},
		},
		BudgetQuestion: Question{
			Topic:   TopicBudget,
			Text:    "What budget do you have in mind?",
			Options: []string{"Under 30,000", "30,000 to 60,000", "60,000 to 1,00,000", "Above 1,00,000"},
		},

		Purposes: []Purpose{
			{
				Name:     "travel",
				Label:    "Travel",
				Keywords: []string{"travel", "trip", "vacation", "backpacking", "holiday"},
				Weights: []AttributeWeight{
					{Attribute: models.AttrWeight, Weight: 0.5},
					{Attribute: models.AttrOpticalZoom, Weight: 0.3},
					{Attribute: models.AttrStabilization, Weight: 0.2},
				},
				Questions: []Question{{
					Topic:   "travel_experience",
					Field:   models.AttrExperienceLevel,
					Text:    "How experienced are you with cameras?",
					Options: experience,
				}},
			},
			{
				Name:     "vlogging",
				Label:    "Vlogging",
				Keywords: []string{"vlog", "vlogging", "youtube", "content creation", "streaming"},
				Weights: []AttributeWeight{
					{Attribute: models.AttrVideo, Weight: 0.5},
					{Attribute: models.AttrStabilization, Weight: 0.3},
					{Attribute: models.AttrWeight, Weight: 0.2},
				},
				Questions: []Question{{
					Topic:   "vlogging_subject",
					Field:   models.AttrPrimaryUse,
					Text:    "Will you mostly film yourself or other subjects?",
					Options: []string{"Filming myself", "Filming others", "Both"},
				}},
			},
			{
				Name:     "wildlife",
				Label:    "Wildlife",
				Keywords: []string{"wildlife", "birding", "birds", "safari"},
				Weights: []AttributeWeight{
					{Attribute: models.AttrOpticalZoom, Weight: 0.5},
					{Attribute: models.AttrAutofocus, Weight: 0.3},
					{Attribute: models.AttrWeatherSealing, Weight: 0.2},
				},
				Questions: []Question{{
					Topic:   "wildlife_experience",
					Field:   models.AttrExperienceLevel,
					Text:    "How experienced are you with wildlife photography?",
					Options: experience,
				}},
			},
			{
				Name:     "portrait",
				Label:    "Portraits",
				Keywords: []string{"portrait", "portraits", "wedding", "headshots"},
				Weights: []AttributeWeight{
					{Attribute: models.AttrResolution, Weight: 0.4},
					{Attribute: models.AttrSensorSize, Weight: 0.4},
					{Attribute: models.AttrAutofocus, Weight: 0.2},
				},
				Questions: []Question{{
					Topic:   "portrait_setting",
					Field:   models.AttrPrimaryUse,
					Text:    "Where will you mostly shoot portraits?",
					Options: []string{"Studio", "Outdoors", "Events and weddings"},
				}},
			},
			{
				Name:     "low_light",
				Label:    "Low light",
				Keywords: []string{"night", "low light", "low-light", "astro", "concert"},
				Weights: []AttributeWeight{
					{Attribute: models.AttrSensorSize, Weight: 0.5},
					{Attribute: models.AttrLowLight, Weight: 0.3},
					{Attribute: models.AttrStabilization, Weight: 0.2},
				},
				Questions: []Question{{
					Topic:   "low_light_subject",
					Field:   models.AttrPrimaryUse,
					Text:    "What will you mostly shoot in low light?",
					Options: []string{"Night cityscapes", "Concerts and events", "Astrophotography"},
				}},
			},
			{
				Name:     "sports",
				Label:    "Sports",
				Keywords: []string{"sports", "action", "football", "cricket", "racing"},
				Weights: []AttributeWeight{
					{Attribute: models.AttrAutofocus, Weight: 0.5},
					{Attribute: models.AttrWeatherSealing, Weight: 0.3},
					{Attribute: models.AttrVideo, Weight: 0.2},
				},
				Questions: []Question{{
					Topic:   "sports_experience",
					Field:   models.AttrExperienceLevel,
					Text:    "How experienced are you with action photography?",
					Options: experience,
				}},
			},
		},
	}
}
