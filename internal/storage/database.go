package storage

import (
	"time"

	"gorm.io/gorm"

	"github.com/Codexsur/AROGYAX/internal/models"
)

// DatabaseStore implements Store backed by PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// User operations

func (d *DatabaseStore) CreateUser(user *models.User) (*models.User, error) {
	if err := d.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (d *DatabaseStore) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	if err := d.db.Where("phone_number = ?", phone).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DatabaseStore) GetAllUsers() ([]*models.User, error) {
	var users []*models.User
	if err := d.db.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (d *DatabaseStore) GetUsersWithNotifications() ([]*models.User, error) {
	var users []*models.User
	err := d.db.Where("is_active = ? AND notifications_enabled = ?", true, true).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (d *DatabaseStore) UpdateUser(user *models.User) error {
	return d.db.Save(user).Error
}

func (d *DatabaseStore) DeactivateUser(phone string) error {
	return d.db.Model(&models.User{}).
		Where("phone_number = ?", phone).
		Update("is_active", false).Error
}

// Session operations

func (d *DatabaseStore) CreateSession(session *models.ConversationSession) (*models.ConversationSession, error) {
	// Enforce at most one active session per user
	err := d.db.Model(&models.ConversationSession{}).
		Where("phone_number = ? AND is_active = ?", session.PhoneNumber, true).
		Update("is_active", false).Error
	if err != nil {
		return nil, err
	}

	session.IsActive = true
	if err := d.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (d *DatabaseStore) GetActiveSession(phone string) (*models.ConversationSession, error) {
	var session models.ConversationSession
	err := d.db.Where("phone_number = ? AND is_active = ?", phone, true).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (d *DatabaseStore) UpdateSession(session *models.ConversationSession) error {
	return d.db.Save(session).Error
}

func (d *DatabaseStore) DeactivateSession(sessionID string) error {
	return d.db.Model(&models.ConversationSession{}).
		Where("session_id = ?", sessionID).
		Update("is_active", false).Error
}

func (d *DatabaseStore) GetStaleSessions(olderThan time.Time) ([]*models.ConversationSession, error) {
	var sessions []*models.ConversationSession
	err := d.db.Where("is_active = ? AND last_interaction < ?", true, olderThan).Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Medication operations

func (d *DatabaseStore) CreateMedication(med *models.Medication) (*models.Medication, error) {
	if err := d.db.Create(med).Error; err != nil {
		return nil, err
	}
	return med, nil
}

func (d *DatabaseStore) GetMedication(medicationID string) (*models.Medication, error) {
	var med models.Medication
	if err := d.db.Where("medication_id = ?", medicationID).First(&med).Error; err != nil {
		return nil, err
	}
	return &med, nil
}

func (d *DatabaseStore) GetMedicationsByPhone(phone string) ([]*models.Medication, error) {
	var meds []*models.Medication
	err := d.db.Where("phone_number = ?", phone).Order("created_at").Find(&meds).Error
	if err != nil {
		return nil, err
	}
	return meds, nil
}

func (d *DatabaseStore) GetActiveMedications(phone string) ([]*models.Medication, error) {
	var meds []*models.Medication
	err := d.db.Where("phone_number = ? AND is_active = ?", phone, true).Order("created_at").Find(&meds).Error
	if err != nil {
		return nil, err
	}
	return meds, nil
}

func (d *DatabaseStore) UpdateMedication(med *models.Medication) error {
	return d.db.Save(med).Error
}

// Adherence operations

func (d *DatabaseStore) CreateAdherenceRecord(rec *models.AdherenceRecord) (*models.AdherenceRecord, error) {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	if err := d.db.Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (d *DatabaseStore) GetAdherenceRecords(medicationID string) ([]*models.AdherenceRecord, error) {
	var records []*models.AdherenceRecord
	err := d.db.Where("medication_id = ?", medicationID).Order("recorded_at").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Alert operations

func (d *DatabaseStore) CreateAlert(alert *models.HealthAlert) (*models.HealthAlert, error) {
	if err := d.db.Create(alert).Error; err != nil {
		return nil, err
	}
	return alert, nil
}

func (d *DatabaseStore) UpdateAlert(alert *models.HealthAlert) error {
	return d.db.Save(alert).Error
}
