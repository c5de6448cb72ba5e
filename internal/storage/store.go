package storage

import (
	"sync"
	"time"

	"github.com/Codexsur/AROGYAX/internal/models"
)

var (
	storeInstance Store
	storeOnce     sync.Once
)

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store defines the interface for storage operations
type Store interface {
	// User operations
	CreateUser(user *models.User) (*models.User, error)
	GetUserByPhone(phone string) (*models.User, error)
	GetAllUsers() ([]*models.User, error)
	GetUsersWithNotifications() ([]*models.User, error)
	UpdateUser(user *models.User) error
	DeactivateUser(phone string) error

	// Session operations
	CreateSession(session *models.ConversationSession) (*models.ConversationSession, error)
	GetActiveSession(phone string) (*models.ConversationSession, error)
	UpdateSession(session *models.ConversationSession) error
	DeactivateSession(sessionID string) error
	GetStaleSessions(olderThan time.Time) ([]*models.ConversationSession, error)

	// Medication operations
	CreateMedication(med *models.Medication) (*models.Medication, error)
	GetMedication(medicationID string) (*models.Medication, error)
	GetMedicationsByPhone(phone string) ([]*models.Medication, error)
	GetActiveMedications(phone string) ([]*models.Medication, error)
	UpdateMedication(med *models.Medication) error

	// Adherence operations (append-only log)
	CreateAdherenceRecord(rec *models.AdherenceRecord) (*models.AdherenceRecord, error)
	GetAdherenceRecords(medicationID string) ([]*models.AdherenceRecord, error)

	// Alert operations
	CreateAlert(alert *models.HealthAlert) (*models.HealthAlert, error)
	UpdateAlert(alert *models.HealthAlert) error
}
