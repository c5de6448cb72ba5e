package services

import (
	"regexp"
	"strings"
	"unicode"
)

// Supported preferred-language names. Keys double as the values stored on
// the user profile.
var languageCodes = map[string]string{
	"english":   "en",
	"hindi":     "hi",
	"tamil":     "ta",
	"telugu":    "te",
	"bengali":   "bn",
	"marathi":   "mr",
	"gujarati":  "gu",
	"kannada":   "kn",
	"malayalam": "ml",
	"punjabi":   "pa",
}

type scriptRange struct {
	language string
	lo, hi   rune
}

// Ordered so Devanagari resolves to hindi before marathi.
var scriptRanges = []scriptRange{
	{"hindi", 0x0900, 0x097F},
	{"tamil", 0x0B80, 0x0BFF},
	{"telugu", 0x0C00, 0x0C7F},
	{"bengali", 0x0980, 0x09FF},
	{"gujarati", 0x0A80, 0x0AFF},
	{"kannada", 0x0C80, 0x0CFF},
	{"malayalam", 0x0D00, 0x0D7F},
	{"punjabi", 0x0A00, 0x0A7F},
}

// TranslationService renders fixed phrases and medical terms into the
// user's preferred language. Anything without a table entry passes
// through in English rather than failing.
type TranslationService struct {
	phrases      map[string]map[string]string
	medicalTerms map[string]map[string]string
}

// NewTranslationService builds the service with its phrase tables.
func NewTranslationService() *TranslationService {
	return &TranslationService{
		phrases: map[string]map[string]string{
			"Hello! I'm your health assistant.": {
				"hindi":   "नमस्ते! मैं आपका स्वास्थ्य सहायक हूं।",
				"tamil":   "வணக்கம்! நான் உங்கள் சுகாதார உதவியாளர்.",
				"telugu":  "నమస్కారం! నేను మీ ఆరోగ్య సహాయకుడిని.",
				"bengali": "নমস্কার! আমি আপনার স্বাস্থ্য সহায়ক।",
				"marathi": "नमस्कार! मी तुमचा आरोग्य सहाय्यक आहे।",
			},
			"🚨 EMERGENCY - Call 112 immediately": {
				"hindi":   "🚨 आपातकाल - तुरंत 112 पर कॉल करें",
				"tamil":   "🚨 அவசரநிலை - உடனே 112 க்கு அழைக்கவும்",
				"telugu":  "🚨 అత్యవసరం - వెంటనే 112 కు కాల్ చేయండి",
				"bengali": "🚨 জরুরি অবস্থা - অবিলম্বে 112 এ কল করুন",
				"marathi": "🚨 आणीबाणी - ताबडतोब 112 वर कॉल करा",
			},
			"What symptoms are you experiencing?": {
				"hindi":   "आप कौन से लक्षण महसूस कर रहे हैं?",
				"tamil":   "நீங்கள் என்ன அறிகுறிகளை அனுபவிக்கிறீர்கள்?",
				"telugu":  "మీరు ఏ లక్షణాలను అనుభవిస్తున్నారు?",
				"bengali": "আপনি কি কি লক্ষণ অনুভব করছেন?",
				"marathi": "तुम्ही कोणती लक्षणे अनुभवत आहात?",
			},
		},
		medicalTerms: map[string]map[string]string{
			"fever": {
				"hindi":   "बुखार",
				"tamil":   "காய்ச்சல்",
				"telugu":  "జ్వరం",
				"bengali": "জ্বর",
				"marathi": "ताप",
			},
			"headache": {
				"hindi":   "सिरदर्द",
				"tamil":   "தலைவலி",
				"telugu":  "తలనొప్పి",
				"bengali": "মাথাব্যথা",
				"marathi": "डोकेदुखी",
			},
			"cough": {
				"hindi":   "खांसी",
				"tamil":   "இருமல்",
				"telugu":  "దగ్గు",
				"bengali": "কাশি",
				"marathi": "खोकला",
			},
			"pain": {
				"hindi":   "दर्द",
				"tamil":   "வலி",
				"telugu":  "నొప్పి",
				"bengali": "ব্যথা",
				"marathi": "वेदना",
			},
		},
	}
}

// IsSupported reports whether a language name can be stored as a
// preference.
func (s *TranslationService) IsSupported(language string) bool {
	_, ok := languageCodes[strings.ToLower(language)]
	return ok
}

// SupportedLanguages lists all selectable language names.
func (s *TranslationService) SupportedLanguages() []string {
	names := make([]string, 0, len(languageCodes))
	for name := range languageCodes {
		names = append(names, name)
	}
	return names
}

// DetectLanguage guesses the language of a message from its script.
// Latin text always resolves to english.
func (s *TranslationService) DetectLanguage(text string) string {
	for _, r := range text {
		if r <= unicode.MaxASCII {
			continue
		}
		for _, sr := range scriptRanges {
			if r >= sr.lo && r <= sr.hi {
				return sr.language
			}
		}
	}
	return "english"
}

// Translate renders text into the target language. Exact phrase hits
// translate wholesale; otherwise known medical terms are substituted word
// by word and the rest stays in English.
func (s *TranslationService) Translate(text, targetLanguage string) string {
	target := strings.ToLower(targetLanguage)
	if target == "" || target == "english" {
		return text
	}

	if byLang, ok := s.phrases[text]; ok {
		if translated, ok := byLang[target]; ok {
			return translated
		}
	}

	translated := text
	for term, byLang := range s.medicalTerms {
		replacement, ok := byLang[target]
		if !ok {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + term + `\b`)
		translated = re.ReplaceAllString(translated, replacement)
	}
	return translated
}
