package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation flow names. A session is in at most one flow at a time.
const (
	FlowNone               = ""
	FlowSymptomAssessment  = "symptom_assessment"
	FlowMedicationReminder = "medication_reminder"
	FlowHealthEducation    = "health_education"
)

// FlowData is the per-flow state blob carried by a session: which
// sub-flow is active, the current step index and the answers so far.
type FlowData struct {
	Flow      string            `json:"flow"`
	Step      int               `json:"step"`
	Responses map[string]string `json:"responses"`
}

// ConversationSession tracks the active flow for a user across messages
type ConversationSession struct {
	gorm.Model

	SessionID   string `json:"session_id" gorm:"uniqueIndex"`
	PhoneNumber string `json:"phone_number" gorm:"index"`
	Channel     string `json:"channel"`

	CurrentFlow string   `json:"current_flow"`
	FlowData    FlowData `json:"flow_data" gorm:"serializer:json"`

	LastInteraction time.Time `json:"last_interaction"`
	IsActive        bool      `json:"is_active" gorm:"default:true"`
}

// BeforeCreate hook to auto-generate the session ID
func (s *ConversationSession) BeforeCreate(tx *gorm.DB) error {
	if s.SessionID == "" {
		s.SessionID = uuid.NewString()
	}
	if s.LastInteraction.IsZero() {
		s.LastInteraction = time.Now()
	}
	return nil
}

// ResetFlow clears the active flow so the next message re-enters intent routing.
func (s *ConversationSession) ResetFlow() {
	s.CurrentFlow = FlowNone
	s.FlowData = FlowData{}
}

// StartFlow overwrites any stale flow state and positions the session at
// the first step of the named flow.
func (s *ConversationSession) StartFlow(flow string) {
	s.CurrentFlow = flow
	s.FlowData = FlowData{
		Flow:      "general",
		Step:      0,
		Responses: make(map[string]string),
	}
}
