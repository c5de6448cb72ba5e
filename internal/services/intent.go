package services

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent names
const (
	IntentSymptomAssessment  = "symptom_assessment"
	IntentHealthEducation    = "health_education"
	IntentMedicationReminder = "medication_reminder"
	IntentDoctorConsultation = "doctor_consultation"
	IntentEmergencyHelp      = "emergency_help"
	IntentHealthTips         = "health_tips"
	IntentLanguageChange     = "language_change"
	IntentGreeting           = "greeting"
	IntentProfileUpdate      = "profile_update"
	IntentFacilitySearch     = "facility_search"
	IntentGeneralQuery       = "general_query"
)

// IntentRouter maps free text to one of a fixed set of intents and pulls
// out simple entities. Rule based, no model calls.
type IntentRouter struct {
	patterns map[string][]string // ordered via intentOrder
	order    []string
	ageRe    *regexp.Regexp
	tempRe   *regexp.Regexp
}

// NewIntentRouter builds the router with its fixed keyword tables.
func NewIntentRouter() *IntentRouter {
	return &IntentRouter{
		order: []string{
			IntentEmergencyHelp,
			IntentSymptomAssessment,
			IntentMedicationReminder,
			IntentHealthEducation,
			IntentDoctorConsultation,
			IntentHealthTips,
			IntentLanguageChange,
			IntentFacilitySearch,
			IntentProfileUpdate,
			IntentGreeting,
		},
		patterns: map[string][]string{
			IntentEmergencyHelp: {
				"emergency", "help me", "urgent", "ambulance", "save me",
			},
			IntentSymptomAssessment: {
				"not feeling well", "feeling sick", "i have symptoms", "symptom",
				"i am sick", "i'm sick", "feeling unwell", "check my health",
				"health assessment", "feel sick",
			},
			IntentMedicationReminder: {
				"medicine reminder", "medication reminder", "remind me", "my medicines",
				"my medications", "pill reminder", "add medication", "add medicine",
				"medication", "medicine",
			},
			IntentHealthEducation: {
				"tell me about", "what is", "information about", "learn about",
				"explain", "disease info",
			},
			IntentDoctorConsultation: {
				"talk to doctor", "consult doctor", "see a doctor", "doctor appointment",
				"need a doctor", "speak to doctor",
			},
			IntentHealthTips: {
				"health tips", "tips", "prevention", "stay healthy", "healthy habits",
			},
			IntentLanguageChange: {
				"change language", "hindi", "tamil", "telugu", "bengali",
				"switch language", "language",
			},
			IntentFacilitySearch: {
				"hospital near", "nearest hospital", "clinic near", "pharmacy near",
				"find hospital", "find clinic",
			},
			IntentProfileUpdate: {
				"update profile", "my profile", "change my", "i am ", "my age",
				"my name is",
			},
			IntentGreeting: {
				"hi", "hello", "hey", "namaste", "good morning", "good evening",
				"good afternoon", "start",
			},
		},
		ageRe:  regexp.MustCompile(`\b(\d{1,3})\s*(?:years?\s*old|yrs?|yo)\b`),
		tempRe: regexp.MustCompile(`\b(\d{2,3}(?:\.\d)?)\s*(?:°\s*)?(?:f|fahrenheit|degrees?)\b`),
	}
}

var symptomEntities = []string{
	"fever", "headache", "cough", "cold", "pain", "vomiting", "nausea",
	"diarrhea", "dizziness", "fatigue", "weakness", "rash", "swelling",
	"chest pain", "breathing", "stomach ache", "sore throat", "body ache",
}

var knownCities = []string{
	"mumbai", "delhi", "bangalore", "chennai", "kolkata", "hyderabad",
	"pune", "ahmedabad", "jaipur", "lucknow",
}

// Process analyzes a message and returns its intent, entities and sentiment.
func (r *IntentRouter) Process(message string) *NLPResult {
	normalized := strings.ToLower(strings.TrimSpace(message))

	result := &NLPResult{
		Intent:     IntentGeneralQuery,
		Confidence: 0.5,
		Sentiment:  r.sentiment(normalized),
	}

	for _, intent := range r.order {
		if matched, conf := r.matchIntent(normalized, intent); matched {
			result.Intent = intent
			result.Confidence = conf
			break
		}
	}

	result.Entities = r.extractEntities(normalized)
	return result
}

func (r *IntentRouter) matchIntent(message, intent string) (bool, float64) {
	for _, pattern := range r.patterns[intent] {
		if intent == IntentGreeting {
			// Greetings only match as the whole message or its prefix,
			// otherwise "hi" inside another word would fire.
			if message == pattern || strings.HasPrefix(message, pattern+" ") {
				return true, 0.9
			}
			continue
		}
		if strings.Contains(message, pattern) {
			return true, 0.85
		}
	}
	return false, 0
}

func (r *IntentRouter) extractEntities(message string) []Entity {
	var entities []Entity

	for _, symptom := range symptomEntities {
		if strings.Contains(message, symptom) {
			entities = append(entities, Entity{Type: "symptom", Value: symptom})
		}
	}

	if m := r.ageRe.FindStringSubmatch(message); m != nil {
		if age, err := strconv.Atoi(m[1]); err == nil && age > 0 && age < 120 {
			entities = append(entities, Entity{Type: "age", Value: m[1]})
		}
	}

	switch {
	case strings.Contains(message, "female") || strings.Contains(message, "woman"):
		entities = append(entities, Entity{Type: "gender", Value: "female"})
	case strings.Contains(message, "male") || strings.Contains(message, " man"):
		entities = append(entities, Entity{Type: "gender", Value: "male"})
	}

	for _, city := range knownCities {
		if strings.Contains(message, city) {
			entities = append(entities, Entity{Type: "city", Value: city})
			break
		}
	}

	if m := r.tempRe.FindStringSubmatch(message); m != nil {
		entities = append(entities, Entity{Type: "temperature", Value: m[1]})
	}

	return entities
}

var negativeWords = []string{
	"pain", "hurt", "sick", "bad", "worse", "terrible", "awful", "scared",
	"worried", "severe", "cannot", "can't", "dying", "suffering",
}

var positiveWords = []string{
	"good", "better", "fine", "great", "thanks", "thank you", "improved",
	"healthy", "well",
}

// sentiment is a coarse word-count score, enough to bias emergency scoring.
func (r *IntentRouter) sentiment(message string) string {
	neg, pos := 0, 0
	for _, w := range negativeWords {
		if strings.Contains(message, w) {
			neg++
		}
	}
	for _, w := range positiveWords {
		if strings.Contains(message, w) {
			pos++
		}
	}
	switch {
	case neg > pos:
		return "negative"
	case pos > neg:
		return "positive"
	default:
		return "neutral"
	}
}
