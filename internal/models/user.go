package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Delivery channels
const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
)

// MaxHistoryTurns caps the stored conversation history per user.
const MaxHistoryTurns = 50

// EmergencyContact is someone to notify when an emergency is detected.
type EmergencyContact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
}

// ConversationTurn is one inbound message and the reply it produced.
type ConversationTurn struct {
	Inbound   string    `json:"inbound"`
	Outbound  string    `json:"outbound"`
	Timestamp time.Time `json:"timestamp"`
}

// AssessmentRecord summarizes one completed symptom assessment.
type AssessmentRecord struct {
	Type      string    `json:"type"`
	Severity  int       `json:"severity"`
	Urgency   string    `json:"urgency"`
	Timestamp time.Time `json:"timestamp"`
}

// User represents a person talking to the health assistant
type User struct {
	gorm.Model

	PhoneNumber       string `json:"phone_number" gorm:"uniqueIndex"`
	Name              string `json:"name"`
	Channel           string `json:"channel"`
	PreferredLanguage string `json:"preferred_language" gorm:"default:english"`

	Age    int    `json:"age"`
	Gender string `json:"gender"`
	City   string `json:"city"`

	Conditions          []string           `json:"conditions" gorm:"serializer:json"`
	Allergies           []string           `json:"allergies" gorm:"serializer:json"`
	EmergencyContacts   []EmergencyContact `json:"emergency_contacts" gorm:"serializer:json"`
	ConversationHistory []ConversationTurn `json:"conversation_history" gorm:"serializer:json"`
	Assessments         []AssessmentRecord `json:"assessments" gorm:"serializer:json"`

	NotificationsEnabled bool   `json:"notifications_enabled" gorm:"default:true"`
	ReminderFrequency    string `json:"reminder_frequency" gorm:"default:daily"`
	EmergencyAlerts      bool   `json:"emergency_alerts" gorm:"default:true"`

	LastActive time.Time `json:"last_active"`
	IsActive   bool      `json:"is_active" gorm:"default:true"`
}

// BeforeCreate hook to normalize the phone number
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.PhoneNumber = NormalizePhone(u.PhoneNumber)
	return nil
}

// NormalizePhone adds the +91 country code to bare 10-digit numbers.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	if len(phone) == 10 {
		return "+91" + phone
	}
	return "+" + phone
}

// AppendTurn adds a turn to the history, evicting the oldest past the cap.
func (u *User) AppendTurn(turn ConversationTurn) {
	u.ConversationHistory = append(u.ConversationHistory, turn)
	if len(u.ConversationHistory) > MaxHistoryTurns {
		u.ConversationHistory = u.ConversationHistory[len(u.ConversationHistory)-MaxHistoryTurns:]
	}
}

// HasCondition reports whether the user's profile lists a condition.
func (u *User) HasCondition(condition string) bool {
	for _, c := range u.Conditions {
		if strings.EqualFold(c, condition) {
			return true
		}
	}
	return false
}
