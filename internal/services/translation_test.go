package services

import (
	"strings"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	s := NewTranslationService()

	cases := []struct {
		name string
		text string
		want string
	}{
		{"latin", "Hello, I have a fever", "english"},
		{"devanagari", "मुझे बुखार है", "hindi"},
		{"tamil", "எனக்கு காய்ச்சல்", "tamil"},
		{"telugu", "నాకు జ్వరం", "telugu"},
		{"bengali", "আমার জ্বর আছে", "bengali"},
		{"empty", "", "english"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.DetectLanguage(tc.text); got != tc.want {
				t.Errorf("DetectLanguage(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestTranslatePhrase(t *testing.T) {
	s := NewTranslationService()

	got := s.Translate("Hello! I'm your health assistant.", "hindi")
	if got != "नमस्ते! मैं आपका स्वास्थ्य सहायक हूं।" {
		t.Errorf("phrase translation = %q", got)
	}
}

func TestTranslateMedicalTerms(t *testing.T) {
	s := NewTranslationService()

	got := s.Translate("You may have fever and headache", "hindi")
	if !strings.Contains(got, "बुखार") || !strings.Contains(got, "सिरदर्द") {
		t.Errorf("terms not substituted: %q", got)
	}
	if strings.Contains(got, "fever") || strings.Contains(got, "headache") {
		t.Errorf("english terms left behind: %q", got)
	}
}

func TestTranslateEnglishPassthrough(t *testing.T) {
	s := NewTranslationService()

	text := "Please take your medicine at 8 PM"
	if got := s.Translate(text, "english"); got != text {
		t.Errorf("english passthrough changed text: %q", got)
	}
	if got := s.Translate(text, ""); got != text {
		t.Errorf("empty language changed text: %q", got)
	}
}

func TestTranslateUnknownLanguageKeepsText(t *testing.T) {
	s := NewTranslationService()

	text := "You may have fever"
	if got := s.Translate(text, "french"); got != text {
		t.Errorf("unknown language changed text: %q", got)
	}
}

func TestIsSupported(t *testing.T) {
	s := NewTranslationService()

	if !s.IsSupported("Hindi") {
		t.Error("hindi should be supported regardless of case")
	}
	if s.IsSupported("french") {
		t.Error("french should not be supported")
	}
	if len(s.SupportedLanguages()) != 10 {
		t.Errorf("supported languages = %d, want 10", len(s.SupportedLanguages()))
	}
}
