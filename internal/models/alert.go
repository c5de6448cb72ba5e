package models

import (
	"time"

	"gorm.io/gorm"
)

// Alert types
const (
	AlertTypeEmergency   = "emergency"
	AlertTypeMedication  = "medication"
	AlertTypeAppointment = "appointment"
	AlertTypeHealthTip   = "health_tip"
)

// Alert delivery statuses
const (
	AlertStatusPending   = "pending"
	AlertStatusSent      = "sent"
	AlertStatusDelivered = "delivered"
	AlertStatusFailed    = "failed"
)

// HealthAlert records an outbound alert (emergency, reminder, tip) so the
// audit trail survives the transient classification result
type HealthAlert struct {
	gorm.Model

	PhoneNumber string `json:"phone_number" gorm:"index"`
	AlertType   string `json:"alert_type"`
	Severity    string `json:"severity" gorm:"default:medium"` // low, medium, high, critical
	Message     string `json:"message"`
	Status      string `json:"status" gorm:"default:pending"`

	ScheduledTime *time.Time `json:"scheduled_time"`
	SentTime      *time.Time `json:"sent_time"`
}
