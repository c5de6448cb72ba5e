package services

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Codexsur/AROGYAX/internal/models"
)

// Question types
const (
	questionMultipleChoice = "multiple_choice"
	questionMultipleSelect = "multiple_select"
	questionScale          = "scale"
	questionText           = "text"
)

// Urgency levels for completed assessments
const (
	UrgencyLow      = "low"
	UrgencyModerate = "moderate"
	UrgencyHigh     = "high"
)

type question struct {
	id       string
	qtype    string
	text     string
	options  []string
	branches map[string]string // option text -> flow name, multiple_choice only
}

type assessmentFlow struct {
	questions []question
}

// Assessment is the outcome of a completed interview.
type Assessment struct {
	Type             string   `json:"type"`
	Urgency          string   `json:"urgency"`
	Severity         int      `json:"severity"`
	Recommendations  []string `json:"recommendations"`
	SelfCareAdvice   []string `json:"self_care_advice"`
	WhenToSeekHelp   []string `json:"when_to_seek_help"`
}

// StepResult is what one turn of an assessment interview produces. When
// Completed is false, Text holds the next question and the caller saves
// the mutated flow data; when true, Assessment and Urgency are set.
type StepResult struct {
	Completed  bool
	Emergency  bool
	Text       string
	Urgency    string
	Assessment *Assessment
}

// AssessmentEngine runs decision-tree symptom interviews. All methods are
// pure over the passed flow data, so the engine is safe for concurrent use.
type AssessmentEngine struct {
	flows              map[string]assessmentFlow
	immediateEmergency []string
	urgentCare         []string
}

// NewAssessmentEngine builds the engine with its fixed question trees.
func NewAssessmentEngine() *AssessmentEngine {
	return &AssessmentEngine{
		flows: map[string]assessmentFlow{
			"general": {questions: []question{
				{
					id:    "primary_concern",
					qtype: questionMultipleChoice,
					text:  "What is your main health concern today?",
					options: []string{
						"Fever or feeling hot",
						"Pain (headache, body ache, etc.)",
						"Breathing problems",
						"Stomach/digestive issues",
						"Skin problems",
						"Mental health concerns",
						"Other symptoms",
					},
					branches: map[string]string{
						"Fever or feeling hot":             "fever_assessment",
						"Pain (headache, body ache, etc.)": "pain_assessment",
						"Breathing problems":               "respiratory_assessment",
					},
				},
				{
					id:    "symptom_duration",
					qtype: questionMultipleChoice,
					text:  "How long have you been experiencing these symptoms?",
					options: []string{
						"Less than 24 hours",
						"1-3 days",
						"4-7 days",
						"1-2 weeks",
						"More than 2 weeks",
						"Comes and goes",
					},
				},
				{
					id:    "severity_level",
					qtype: questionScale,
					text:  "On a scale of 1-10, how severe are your symptoms? (1 = very mild, 10 = unbearable)",
				},
				{
					id:    "impact_activities",
					qtype: questionMultipleChoice,
					text:  "How are these symptoms affecting your daily activities?",
					options: []string{
						"No impact - I can do everything normally",
						"Slight difficulty with some activities",
						"Moderate difficulty - some activities are hard",
						"Significant impact - hard to work/study",
						"Unable to do normal activities",
						"Need to stay in bed/rest",
					},
				},
			}},
			"fever_assessment": {questions: []question{
				{
					id:    "fever_temperature",
					qtype: questionMultipleChoice,
					text:  "What is your temperature or how do you feel?",
					options: []string{
						"Normal temperature but feeling hot",
						"99-100°F (37.2-37.8°C)",
						"101-102°F (38.3-38.9°C)",
						"103°F (39.4°C) or higher",
						"Haven't measured but feeling very hot",
						"Chills and shivering",
					},
				},
				{
					id:    "fever_symptoms",
					qtype: questionMultipleSelect,
					text:  "What other symptoms do you have with the fever?",
					options: []string{
						"Headache",
						"Body aches",
						"Cough",
						"Sore throat",
						"Runny nose",
						"Nausea or vomiting",
						"Diarrhea",
						"Rash",
						"Difficulty breathing",
						"Confusion",
						"None of these",
					},
				},
				{
					id:    "fever_exposure",
					qtype: questionMultipleChoice,
					text:  "Have you been exposed to any of these recently?",
					options: []string{
						"Someone with cold/flu",
						"Mosquito bites (possible dengue/malaria area)",
						"Contaminated food/water",
						"Travel to different city/country",
						"Crowded places",
						"None of these",
					},
				},
			}},
			"pain_assessment": {questions: []question{
				{
					id:    "pain_location",
					qtype: questionMultipleChoice,
					text:  "Where is the pain located?",
					options: []string{
						"Head (headache)",
						"Chest",
						"Stomach/abdomen",
						"Back",
						"Arms or legs",
						"Joints",
						"All over body",
						"Other location",
					},
				},
				{
					id:    "pain_type",
					qtype: questionMultipleChoice,
					text:  "How would you describe the pain?",
					options: []string{
						"Sharp/stabbing",
						"Dull/aching",
						"Burning",
						"Throbbing/pulsing",
						"Cramping",
						"Pressure/squeezing",
					},
				},
				{
					id:    "pain_triggers",
					qtype: questionMultipleSelect,
					text:  "What makes the pain worse?",
					options: []string{
						"Movement",
						"Deep breathing",
						"Eating",
						"Stress",
						"Light or noise",
						"Touch/pressure",
						"Nothing specific",
						"Gets worse on its own",
					},
				},
			}},
			"respiratory_assessment": {questions: []question{
				{
					id:    "breathing_difficulty",
					qtype: questionMultipleChoice,
					text:  "How would you describe your breathing problem?",
					options: []string{
						"Shortness of breath with activity",
						"Shortness of breath at rest",
						"Wheezing or whistling sound",
						"Cough with phlegm",
						"Dry cough",
						"Chest tightness",
						"Cannot speak full sentences",
					},
				},
				{
					id:    "respiratory_triggers",
					qtype: questionMultipleSelect,
					text:  "What triggers or worsens your breathing problems?",
					options: []string{
						"Physical activity",
						"Lying down",
						"Cold air",
						"Dust or allergens",
						"Stress",
						"Nothing specific",
						"Gets worse on its own",
					},
				},
			}},
		},
		immediateEmergency: []string{
			"chest pain with shortness of breath",
			"difficulty breathing at rest",
			"unconscious or unresponsive",
			"severe bleeding",
			"signs of stroke",
			"severe allergic reaction",
			"severe dehydration",
			"thoughts of self-harm",
		},
		urgentCare: []string{
			"high fever with severe headache",
			"persistent vomiting",
			"severe abdominal pain",
			"difficulty swallowing",
			"severe dizziness",
			"rapid heartbeat with chest discomfort",
		},
	}
}

// FirstQuestion returns the opening question of a fresh interview.
func (e *AssessmentEngine) FirstQuestion() string {
	return e.formatQuestion(&e.flows["general"].questions[0])
}

// ProcessResponse records one answer against the flow data and returns
// either the next question or the completed assessment. The flow data is
// mutated in place; the caller persists it.
func (e *AssessmentEngine) ProcessResponse(answer string, data *models.FlowData) (result *StepResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Assessment step panicked: %v", r)
			result = &StepResult{
				Completed: true,
				Text:      "I apologize, but there was an error processing your response. Please consult with a healthcare professional for proper evaluation.",
				Urgency:   UrgencyModerate,
				Assessment: &Assessment{
					Type:    "error",
					Urgency: UrgencyModerate,
				},
			}
		}
	}()

	if data.Flow == "" {
		data.Flow = "general"
	}
	if data.Responses == nil {
		data.Responses = make(map[string]string)
	}

	current := e.questionAt(data.Flow, data.Step)
	if current != nil {
		answer = e.normalizeAnswer(answer, current)
		data.Responses[current.id] = answer
	}

	if check := e.checkEmergency(answer, data.Responses); check.triggered {
		return &StepResult{
			Completed: true,
			Emergency: true,
			Text:      e.formatEmergency(check),
			Urgency:   UrgencyHigh,
			Assessment: &Assessment{
				Type:            "emergency",
				Urgency:         "immediate",
				Recommendations: check.recommendations,
			},
		}
	}

	nextFlow, nextStep, done := e.nextStep(data.Flow, data.Step, answer)
	if done {
		assessment := e.generateAssessment(data.Responses)
		return &StepResult{
			Completed:  true,
			Text:       e.formatAssessmentResult(assessment),
			Urgency:    assessment.Urgency,
			Assessment: assessment,
		}
	}

	data.Flow = nextFlow
	data.Step = nextStep
	return &StepResult{
		Completed: false,
		Text:      e.formatQuestion(e.questionAt(nextFlow, nextStep)),
	}
}

func (e *AssessmentEngine) questionAt(flowName string, step int) *question {
	flow, ok := e.flows[flowName]
	if !ok || step < 0 || step >= len(flow.questions) {
		return nil
	}
	return &flow.questions[step]
}

// nextStep advances the interview. Branch answers jump to step 0 of the
// named flow when that flow exists; answers that name no known flow just
// continue in the current one.
func (e *AssessmentEngine) nextStep(flowName string, step int, answer string) (string, int, bool) {
	current := e.questionAt(flowName, step)
	if current != nil && current.branches != nil {
		if target, ok := current.branches[answer]; ok && target != flowName {
			if _, exists := e.flows[target]; exists {
				return target, 0, false
			}
		}
	}

	next := step + 1
	flow, ok := e.flows[flowName]
	if !ok || next >= len(flow.questions) {
		return "", 0, true
	}
	return flowName, next, false
}

// normalizeAnswer maps numeric replies to option text for choice questions
// and to joined option text for multiple selects. Scale answers and free
// text pass through untouched.
func (e *AssessmentEngine) normalizeAnswer(answer string, q *question) string {
	trimmed := strings.TrimSpace(answer)

	switch q.qtype {
	case questionMultipleChoice:
		if n, err := strconv.Atoi(trimmed); err == nil && n >= 1 && n <= len(q.options) {
			return q.options[n-1]
		}
	case questionMultipleSelect:
		parts := strings.Split(trimmed, ",")
		var picked []string
		for _, part := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 1 || n > len(q.options) {
				return trimmed
			}
			picked = append(picked, q.options[n-1])
		}
		if len(picked) > 0 {
			return strings.Join(picked, ", ")
		}
	}

	return trimmed
}

type emergencyCheck struct {
	triggered       bool
	level           string
	symptoms        []string
	recommendations []string
}

var feverTempRe = regexp.MustCompile(`(\d{2,3}(?:\.\d)?)\s*°?\s*f`)

// checkEmergency scans the latest answer and the accumulated responses for
// signals that should abort the interview.
func (e *AssessmentEngine) checkEmergency(answer string, responses map[string]string) emergencyCheck {
	check := emergencyCheck{level: LevelNone}
	normalized := strings.ToLower(answer)

	for _, symptom := range e.immediateEmergency {
		if strings.Contains(normalized, symptom) {
			check.triggered = true
			check.level = LevelImmediate
			check.symptoms = append(check.symptoms, symptom)
			check.recommendations = append(check.recommendations,
				"Call 112 immediately",
				"Go to nearest emergency room")
		}
	}

	if !check.triggered {
		for _, symptom := range e.urgentCare {
			if strings.Contains(normalized, symptom) {
				check.triggered = true
				check.level = LevelUrgent
				check.symptoms = append(check.symptoms, symptom)
				check.recommendations = append(check.recommendations,
					"Seek medical attention within 24 hours")
			}
		}
	}

	if raw, ok := responses["severity_level"]; ok {
		if level, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && level >= 8 {
			check.triggered = true
			if check.level == LevelNone {
				check.level = LevelUrgent
			}
			check.recommendations = append(check.recommendations,
				"High severity symptoms require medical evaluation")
		}
	}

	if temp, ok := responses["fever_temperature"]; ok && e.dangerousFever(temp) {
		check.triggered = true
		if check.level == LevelNone || check.level == LevelUrgent {
			check.level = LevelUrgent
		}
		check.symptoms = append(check.symptoms, "high fever")
		check.recommendations = append(check.recommendations,
			"High fever requires immediate medical attention")
	}

	return check
}

// dangerousFever fires on the top temperature bracket, on "feeling very
// hot", or on any stated reading of 103°F or above ("104F" included).
func (e *AssessmentEngine) dangerousFever(answer string) bool {
	normalized := strings.ToLower(answer)
	if strings.Contains(normalized, "very hot") {
		return true
	}
	if m := feverTempRe.FindStringSubmatch(normalized); m != nil {
		if deg, err := strconv.ParseFloat(m[1], 64); err == nil && deg >= 103 {
			return true
		}
	}
	return strings.Contains(normalized, "103°f (39.4°c) or higher")
}

func (e *AssessmentEngine) formatEmergency(check emergencyCheck) string {
	var b strings.Builder
	b.WriteString("🚨 EMERGENCY DETECTED 🚨\n\n")

	if check.level == LevelImmediate {
		b.WriteString("Your symptoms suggest you need IMMEDIATE medical attention.\n\n")
		b.WriteString("⚡ CALL 112 NOW ⚡\n\n")
	} else {
		b.WriteString("Your symptoms require urgent medical attention.\n\n")
	}

	if len(check.symptoms) > 0 {
		b.WriteString("Detected symptoms:\n")
		for _, s := range check.symptoms {
			b.WriteString("• " + s + "\n")
		}
	}

	b.WriteString("\nImmediate actions:\n")
	for _, rec := range check.recommendations {
		b.WriteString("• " + rec + "\n")
	}

	b.WriteString("\nEmergency numbers:\n")
	b.WriteString("• National Emergency: 112\n")
	b.WriteString("• Ambulance: 102\n")
	b.WriteString("• Police: 100\n")

	return b.String()
}

// generateAssessment turns the collected answers into severity, urgency
// and advice. Pure over its input.
func (e *AssessmentEngine) generateAssessment(responses map[string]string) *Assessment {
	assessment := &Assessment{
		Type:     "general",
		Urgency:  UrgencyLow,
		Severity: e.CalculateSeverity(responses),
	}

	primaryConcern := responses["primary_concern"]
	duration := responses["symptom_duration"]
	impact := responses["impact_activities"]

	severityLevel := 1
	if n, err := strconv.Atoi(strings.TrimSpace(responses["severity_level"])); err == nil {
		severityLevel = n
	}

	switch {
	case severityLevel >= 7 || strings.Contains(impact, "Unable to do normal activities"):
		assessment.Urgency = UrgencyHigh
	case severityLevel >= 5 || strings.Contains(impact, "Significant impact"):
		assessment.Urgency = UrgencyModerate
	}

	if strings.Contains(primaryConcern, "Fever") {
		assessment.Recommendations = append(assessment.Recommendations,
			"Monitor temperature regularly",
			"Stay hydrated",
			"Rest and avoid strenuous activities")
		assessment.SelfCareAdvice = append(assessment.SelfCareAdvice,
			"Take paracetamol as needed for fever")
		assessment.WhenToSeekHelp = append(assessment.WhenToSeekHelp,
			"If fever persists >3 days or exceeds 103°F")
	}

	if strings.Contains(primaryConcern, "Pain") {
		assessment.Recommendations = append(assessment.Recommendations,
			"Apply appropriate hot/cold therapy",
			"Avoid activities that worsen pain")
		assessment.SelfCareAdvice = append(assessment.SelfCareAdvice,
			"Over-the-counter pain relievers may help")
		assessment.WhenToSeekHelp = append(assessment.WhenToSeekHelp,
			"If pain is severe or worsening")
	}

	if strings.Contains(duration, "More than 2 weeks") {
		if assessment.Urgency == UrgencyLow {
			assessment.Urgency = UrgencyModerate
		}
		assessment.Recommendations = append(assessment.Recommendations,
			"Chronic symptoms require medical evaluation")
	}

	assessment.Recommendations = append(assessment.Recommendations,
		"Monitor symptoms and track changes",
		"Maintain good hygiene and rest")
	assessment.WhenToSeekHelp = append(assessment.WhenToSeekHelp,
		"If symptoms worsen or new symptoms develop",
		"If you have concerns about your health")

	return assessment
}

// CalculateSeverity scores the collected answers onto a 1-10 scale:
// the stated severity plus duration and impact bumps, halved and clamped.
func (e *AssessmentEngine) CalculateSeverity(responses map[string]string) int {
	score := 1
	if n, err := strconv.Atoi(strings.TrimSpace(responses["severity_level"])); err == nil {
		score = n
	}

	duration := responses["symptom_duration"]
	switch {
	case strings.Contains(duration, "More than 2 weeks"):
		score += 3
	case strings.Contains(duration, "1-2 weeks"):
		score += 2
	case strings.Contains(duration, "4-7 days"):
		score++
	}

	impact := responses["impact_activities"]
	switch {
	case strings.Contains(impact, "Unable to do normal activities"):
		score += 4
	case strings.Contains(impact, "Significant impact"):
		score += 3
	case strings.Contains(impact, "Moderate difficulty"):
		score += 2
	case strings.Contains(impact, "Slight difficulty"):
		score++
	}

	normalized := int(math.Round(float64(score) / 2))
	if normalized < 1 {
		normalized = 1
	}
	if normalized > 10 {
		normalized = 10
	}
	return normalized
}

func (e *AssessmentEngine) formatQuestion(q *question) string {
	if q == nil {
		return "Assessment completed."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("**%s**\n\n", q.text))

	switch q.qtype {
	case questionMultipleChoice:
		for i, option := range q.options {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, option))
		}
		b.WriteString("\nPlease reply with the number of your choice.")
	case questionMultipleSelect:
		for i, option := range q.options {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, option))
		}
		b.WriteString("\nYou can select multiple options. Reply with numbers separated by commas (e.g., 1,3,5).")
	case questionScale:
		b.WriteString("Please reply with a number from 1 to 10.")
	default:
		b.WriteString("Please describe your symptoms.")
	}

	return b.String()
}

func (e *AssessmentEngine) formatAssessmentResult(a *Assessment) string {
	var b strings.Builder
	b.WriteString("📋 **Symptom Assessment Complete**\n\n")
	b.WriteString(fmt.Sprintf("**Severity Level:** %d/10\n", a.Severity))
	b.WriteString(fmt.Sprintf("**Urgency:** %s\n\n", strings.ToUpper(a.Urgency)))

	if len(a.Recommendations) > 0 {
		b.WriteString("**Recommendations:**\n")
		for _, rec := range a.Recommendations {
			b.WriteString("• " + rec + "\n")
		}
		b.WriteString("\n")
	}

	if len(a.SelfCareAdvice) > 0 {
		b.WriteString("**Self-Care Advice:**\n")
		for _, advice := range a.SelfCareAdvice {
			b.WriteString("• " + advice + "\n")
		}
		b.WriteString("\n")
	}

	if len(a.WhenToSeekHelp) > 0 {
		b.WriteString("**When to Seek Medical Help:**\n")
		for _, help := range a.WhenToSeekHelp {
			b.WriteString("• " + help + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("**Important:** This assessment is for informational purposes only and does not replace professional medical advice. Please consult a healthcare provider for proper diagnosis and treatment.\n\n")

	switch a.Urgency {
	case UrgencyHigh:
		b.WriteString("⚠️ **Your symptoms suggest you should seek medical attention soon.**")
	case UrgencyModerate:
		b.WriteString("💡 **Consider consulting a healthcare provider if symptoms persist or worsen.**")
	default:
		b.WriteString("✅ **Continue monitoring your symptoms and practice self-care.**")
	}

	return b.String()
}
