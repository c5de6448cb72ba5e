package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Adherence record statuses
const (
	AdherenceTaken   = "taken"
	AdherenceSkipped = "skipped"
	AdherenceLate    = "late"
)

// Food instruction codes
const (
	FoodBeforeFood   = "before_food"
	FoodAfterFood    = "after_food"
	FoodWithFood     = "with_food"
	FoodEmptyStomach = "empty_stomach"
	FoodNoSpecific   = "no_specific"
)

// Medication is a scheduled medicine we remind a user about
type Medication struct {
	gorm.Model

	MedicationID string `json:"medication_id" gorm:"uniqueIndex"`
	PhoneNumber  string `json:"phone_number" gorm:"index"`

	Name      string   `json:"name"`
	Dosage    string   `json:"dosage"`
	Frequency string   `json:"frequency"`                     // daily, twice_daily, thrice_daily, weekly, as_needed
	Times     []string `json:"times" gorm:"serializer:json"`  // reminder times as "HH:MM" local time

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	Instructions     string   `json:"instructions"`
	FoodInstructions string   `json:"food_instructions" gorm:"default:no_specific"`
	SideEffects      []string `json:"side_effects" gorm:"serializer:json"`
	Interactions     []string `json:"interactions" gorm:"serializer:json"`

	IsActive       bool `json:"is_active" gorm:"default:true"`
	AdherenceScore int  `json:"adherence_score" gorm:"default:100"` // 0-100, recomputed from records
}

// BeforeCreate hook to auto-generate the medication ID and defaults
func (m *Medication) BeforeCreate(tx *gorm.DB) error {
	if m.MedicationID == "" {
		m.MedicationID = uuid.NewString()
	}
	if m.StartDate.IsZero() {
		m.StartDate = time.Now()
	}
	if m.FoodInstructions == "" {
		m.FoodInstructions = FoodNoSpecific
	}
	if m.AdherenceScore == 0 {
		m.AdherenceScore = 100
	}
	return nil
}

// Expired reports whether the medication course has ended as of now.
func (m *Medication) Expired(now time.Time) bool {
	return m.EndDate != nil && now.After(*m.EndDate)
}

// FrequencyText renders the frequency code for users.
func (m *Medication) FrequencyText() string {
	switch m.Frequency {
	case "daily":
		return "Once daily"
	case "twice_daily":
		return "Twice daily"
	case "thrice_daily":
		return "Three times daily"
	case "weekly":
		return "Once weekly"
	case "as_needed":
		return "As needed"
	}
	return m.Frequency
}

// FoodInstructionText renders the food instruction code for users.
func (m *Medication) FoodInstructionText() string {
	switch m.FoodInstructions {
	case FoodBeforeFood:
		return "Take 30 minutes before meals"
	case FoodAfterFood:
		return "Take after meals"
	case FoodWithFood:
		return "Take with food"
	case FoodEmptyStomach:
		return "Take on empty stomach"
	}
	return ""
}

// AdherenceRecord is an append-only log entry for one scheduled dose.
// Records are never mutated after creation, only aggregated.
type AdherenceRecord struct {
	gorm.Model

	MedicationID string    `json:"medication_id" gorm:"index"`
	PhoneNumber  string    `json:"phone_number" gorm:"index"`
	Status       string    `json:"status"` // taken, skipped, late
	RecordedAt   time.Time `json:"recorded_at"`
}
