package services

import (
	"fmt"
	"strings"

	"github.com/Codexsur/AROGYAX/internal/models"
)

// Emergency levels
const (
	LevelNone      = "none"
	LevelUrgent    = "urgent"
	LevelImmediate = "immediate"
)

// EmergencyResult is the outcome of classifying a message for emergency signal
type EmergencyResult struct {
	IsEmergency      bool     `json:"is_emergency"`
	Level            string   `json:"level"` // none, urgent, immediate
	Score            int      `json:"score"`
	DetectedSymptoms []string `json:"detected_symptoms"`
	Category         string   `json:"category"`
	Protocol         string   `json:"protocol"`
	Recommendations  []string `json:"recommendations"`
	Confidence       float64  `json:"confidence"`
}

// Entity is a recognized fragment of an inbound message (symptom, age, city...)
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// NLPResult carries rule-based analysis of an inbound message: the
// detected intent, recognized entities and a coarse sentiment.
type NLPResult struct {
	Intent     string   `json:"intent"`
	Entities   []Entity `json:"entities"`
	Sentiment  string   `json:"sentiment"`
	Confidence float64  `json:"confidence"`
}

// criticalCategory groups phrases that indicate an immediate emergency of
// one clinical kind, with the protocol to run when one matches.
type criticalCategory struct {
	name     string
	symptoms []string
	score    int
	protocol string
}

type emergencyProtocol struct {
	immediateActions []string
	numbers          []string
	timeCritical     bool
}

// EmergencyDetector scans free text for emergency or urgent signal.
// Classification is pure and deterministic; callers own alerting.
type EmergencyDetector struct {
	critical           []criticalCategory // ordered, first match wins
	immediateKeywords  []string
	urgentKeywords     []string
	protocols          map[string]emergencyProtocol
	combinations       []symptomCombination
	conditionRisk      map[string]int
}

type symptomCombination struct {
	symptoms []string
	score    int
}

// NewEmergencyDetector builds the detector with its fixed keyword tables.
func NewEmergencyDetector() *EmergencyDetector {
	return &EmergencyDetector{
		critical: []criticalCategory{
			{
				name: "cardiovascular",
				symptoms: []string{
					"chest pain with radiation to arm/jaw",
					"crushing chest pain",
					"chest pain with sweating",
					"chest pain with nausea",
					"severe shortness of breath",
					"rapid irregular heartbeat",
				},
				score:    10,
				protocol: "cardiac_emergency",
			},
			{
				name: "respiratory",
				symptoms: []string{
					"cannot speak in full sentences",
					"blue lips or face",
					"severe wheezing",
					"choking",
					"stopped breathing",
				},
				score:    10,
				protocol: "respiratory_emergency",
			},
			{
				name: "neurological",
				symptoms: []string{
					"sudden severe headache",
					"face drooping",
					"arm weakness",
					"speech difficulty",
					"confusion",
					"seizure",
					"unconscious",
				},
				score:    10,
				protocol: "neurological_emergency",
			},
			{
				name: "trauma",
				symptoms: []string{
					"severe bleeding",
					"head injury",
					"broken bones",
					"severe burns",
					"deep cuts",
				},
				score:    9,
				protocol: "trauma_emergency",
			},
			{
				name: "poisoning",
				symptoms: []string{
					"overdose",
					"poisoning",
					"chemical exposure",
					"severe nausea after eating",
				},
				score:    9,
				protocol: "poisoning_emergency",
			},
			{
				name: "mental_health",
				symptoms: []string{
					"thoughts of suicide",
					"want to hurt myself",
					"want to die",
					"severe depression",
					"psychotic episode",
				},
				score:    10,
				protocol: "mental_health_emergency",
			},
		},
		immediateKeywords: []string{
			"chest pain", "can't breathe", "difficulty breathing", "shortness of breath",
			"unconscious", "unresponsive", "severe bleeding", "heavy bleeding",
			"heart attack", "stroke", "seizure", "overdose", "poisoning",
			"severe allergic reaction", "anaphylaxis", "choking",
			"suicide", "self harm", "want to die", "kill myself",
		},
		urgentKeywords: []string{
			"severe pain", "high fever", "persistent vomiting", "severe headache",
			"confusion", "disorientation", "severe dizziness", "fainting",
			"rapid heartbeat", "chest tightness", "severe abdominal pain",
			"difficulty swallowing", "severe dehydration",
		},
		protocols: map[string]emergencyProtocol{
			"cardiac_emergency": {
				immediateActions: []string{
					"Call 112 immediately",
					"If conscious, give aspirin (if not allergic)",
					"Keep patient calm and seated",
					"Loosen tight clothing",
					"Be prepared for CPR if needed",
				},
				numbers:      []string{"112", "102"},
				timeCritical: true,
			},
			"respiratory_emergency": {
				immediateActions: []string{
					"Call 112 immediately",
					"Help patient sit upright",
					"Remove any obstructions if choking",
					"Use inhaler if available",
					"Be prepared for rescue breathing",
				},
				numbers:      []string{"112", "102"},
				timeCritical: true,
			},
			"neurological_emergency": {
				immediateActions: []string{
					"Call 112 immediately",
					"Note time of symptom onset",
					"Keep patient calm and still",
					"Do not give food or water",
					"Protect from injury if seizure",
				},
				numbers:      []string{"112", "102"},
				timeCritical: true,
			},
			"trauma_emergency": {
				immediateActions: []string{
					"Call 112 immediately",
					"Control bleeding with direct pressure",
					"Do not move patient unless necessary",
					"Keep patient warm",
					"Monitor breathing and consciousness",
				},
				numbers:      []string{"112", "102", "100"},
				timeCritical: true,
			},
			"mental_health_emergency": {
				immediateActions: []string{
					"Stay with the person",
					"Call mental health helpline: 1800-599-0019",
					"Remove harmful objects",
					"Listen without judgment",
					"Get professional help immediately",
				},
				numbers:      []string{"112", "1800-599-0019"},
				timeCritical: true,
			},
		},
		combinations: []symptomCombination{
			{symptoms: []string{"chest pain", "shortness of breath"}, score: 10},
			{symptoms: []string{"fever", "severe headache", "neck stiffness"}, score: 9},
			{symptoms: []string{"abdominal pain", "vomiting", "fever"}, score: 7},
			{symptoms: []string{"headache", "vision changes", "confusion"}, score: 9},
		},
		conditionRisk: map[string]int{
			"heart disease":     3,
			"diabetes":          2,
			"hypertension":      2,
			"asthma":            2,
			"kidney disease":    3,
			"cancer":            3,
			"immunocompromised": 3,
		},
	}
}

// Classify scans a message (optionally with NLP analysis) for emergency
// signal. A nil result field set means "no emergency"; the classification
// itself has no side effects.
func (d *EmergencyDetector) Classify(message string, nlp *NLPResult) *EmergencyResult {
	result := &EmergencyResult{Level: LevelNone}
	normalized := strings.ToLower(message)

	// 1. Immediate category match / generic immediate keywords. Any hit
	// short-circuits the rest of the pipeline.
	if symptoms, category, protocol := d.checkImmediate(normalized); len(symptoms) > 0 {
		result.IsEmergency = true
		result.Level = LevelImmediate
		result.Score = 10
		result.DetectedSymptoms = symptoms
		result.Category = category
		result.Protocol = protocol
		result.Confidence = 0.95
		result.Recommendations = d.Recommendations(protocol)
		return result
	}

	// 2. Urgent keywords. Does not short-circuit: the combination rule
	// below may still raise the score.
	for _, keyword := range d.urgentKeywords {
		if strings.Contains(normalized, keyword) {
			result.IsEmergency = true
			result.Level = LevelUrgent
			if result.Score < 7 {
				result.Score = 7
			}
			result.DetectedSymptoms = append(result.DetectedSymptoms, keyword)
			result.Confidence = 0.8
			result.Recommendations = []string{"Seek medical attention within 24 hours"}
		}
	}

	// 3. Symptom combinations: all components must be present. A higher
	// combination score replaces the running result, symptoms accumulate.
	for _, combo := range d.combinations {
		allPresent := true
		for _, s := range combo.symptoms {
			if !strings.Contains(normalized, s) {
				allPresent = false
				break
			}
		}
		if allPresent && combo.score > result.Score {
			result.IsEmergency = true
			result.Score = combo.score
			if combo.score >= 9 {
				result.Level = LevelImmediate
			} else {
				result.Level = LevelUrgent
			}
			result.DetectedSymptoms = append(result.DetectedSymptoms, combo.symptoms...)
			result.Confidence = 0.85
		}
	}

	// 4. NLP-derived boost.
	if nlp != nil {
		if boost := d.analyzeNLP(nlp); boost.Score > result.Score {
			result.IsEmergency = boost.IsEmergency
			result.Level = boost.Level
			result.Score = boost.Score
			result.Confidence = boost.Confidence
		}
	}

	return result
}

// checkImmediate looks for category phrase hits first, then the flat
// immediate keyword list. First category with a hit wins.
func (d *EmergencyDetector) checkImmediate(message string) (symptoms []string, category, protocol string) {
	for _, cat := range d.critical {
		for _, symptom := range cat.symptoms {
			if strings.Contains(message, symptom) {
				return []string{symptom}, cat.name, cat.protocol
			}
		}
	}

	for _, keyword := range d.immediateKeywords {
		if strings.Contains(message, keyword) {
			return []string{keyword}, "general_emergency", "general_emergency"
		}
	}

	return nil, "", ""
}

// analyzeNLP scores emergency signal from intent, entity density and sentiment.
func (d *EmergencyDetector) analyzeNLP(nlp *NLPResult) *EmergencyResult {
	result := &EmergencyResult{Level: LevelNone, Confidence: 0.7}

	if nlp.Intent == IntentEmergencyHelp {
		result.IsEmergency = true
		result.Level = LevelUrgent
		result.Score = 8
	}

	medicalEntities := 0
	for _, e := range nlp.Entities {
		switch e.Type {
		case "symptom", "condition", "body_part":
			medicalEntities++
		}
	}
	if medicalEntities >= 3 {
		result.Score += 2
	}

	if nlp.Sentiment == "negative" && nlp.Confidence > 0.8 {
		result.Score++
	}

	if result.Score >= 7 {
		result.IsEmergency = true
		if result.Score >= 9 {
			result.Level = LevelImmediate
		} else {
			result.Level = LevelUrgent
		}
	}

	return result
}

// Recommendations returns the immediate actions for a protocol, with a
// generic fallback for unknown protocols.
func (d *EmergencyDetector) Recommendations(protocol string) []string {
	p, ok := d.protocols[protocol]
	if !ok {
		return []string{
			"Call 112 immediately",
			"Seek immediate medical attention",
			"Do not delay emergency care",
		}
	}
	return p.immediateActions
}

// RiskScore computes advisory risk context from the user's profile. It
// never gates the emergency decision.
func (d *EmergencyDetector) RiskScore(user *models.User) int {
	score := 0

	// Age bands: very young and elderly are highest risk
	switch {
	case user.Age > 0 && user.Age <= 5, user.Age >= 65:
		score += 2
	case user.Age >= 6 && user.Age <= 17, user.Age >= 50 && user.Age <= 64:
		score++
	}

	for _, condition := range user.Conditions {
		if weight, ok := d.conditionRisk[strings.ToLower(condition)]; ok {
			score += weight
		}
	}

	if strings.EqualFold(user.Gender, "female") && user.HasCondition("pregnancy") {
		score += 2
	}

	return score
}

// GenerateEmergencyResponse formats the user-facing emergency message.
func (d *EmergencyDetector) GenerateEmergencyResponse(result *EmergencyResult) string {
	var b strings.Builder

	if result.Level == LevelImmediate {
		b.WriteString("🚨 *MEDICAL EMERGENCY DETECTED* 🚨\n\n")
		b.WriteString("*CALL 112 IMMEDIATELY*\n\n")
	} else {
		b.WriteString("⚠️ *URGENT MEDICAL ATTENTION NEEDED* ⚠️\n\n")
	}

	if len(result.DetectedSymptoms) > 0 {
		b.WriteString(fmt.Sprintf("*Detected symptoms:* %s\n\n", strings.Join(result.DetectedSymptoms, ", ")))
	}

	if len(result.Recommendations) > 0 {
		b.WriteString("*Immediate actions:*\n")
		for _, rec := range result.Recommendations {
			b.WriteString("• " + rec + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("*Emergency contacts:*\n")
	b.WriteString("• National Emergency: 112\n")
	b.WriteString("• Ambulance: 102\n")
	b.WriteString("• Police: 100\n")
	b.WriteString("• Fire: 101\n")
	b.WriteString("• Mental Health Helpline: 1800-599-0019\n\n")

	b.WriteString("*Important:* Do not delay seeking emergency medical care. This is a potentially life-threatening situation.")

	return b.String()
}
