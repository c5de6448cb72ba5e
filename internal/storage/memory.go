package storage

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Codexsur/AROGYAX/internal/models"
)

// MemoryStore holds all data in memory for testing and local development
type MemoryStore struct {
	users       map[string]*models.User                // keyed by phone number
	sessions    map[string]*models.ConversationSession // keyed by session ID
	medications map[string]*models.Medication          // keyed by medication ID
	adherence   map[string][]*models.AdherenceRecord   // keyed by medication ID
	alerts      []*models.HealthAlert

	// Mutexes for thread safety
	userMu      sync.RWMutex
	sessionMu   sync.RWMutex
	medMu       sync.RWMutex
	adherenceMu sync.RWMutex
	alertMu     sync.RWMutex

	// Counters for ID generation
	alertCounter uint
	medOrder     []string // creation order, keeps lookups deterministic
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]*models.User),
		sessions:    make(map[string]*models.ConversationSession),
		medications: make(map[string]*models.Medication),
		adherence:   make(map[string][]*models.AdherenceRecord),
	}
}

// User operations

func (m *MemoryStore) CreateUser(user *models.User) (*models.User, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if !strings.HasPrefix(user.PhoneNumber, "+") {
		user.PhoneNumber = "+91" + strings.TrimPrefix(user.PhoneNumber, "91")
	}
	if _, exists := m.users[user.PhoneNumber]; exists {
		return nil, fmt.Errorf("user already exists")
	}

	if user.PreferredLanguage == "" {
		user.PreferredLanguage = "english"
	}
	if user.Channel == "" {
		user.Channel = models.ChannelWhatsApp
	}
	user.NotificationsEnabled = true
	user.EmergencyAlerts = true
	if user.ReminderFrequency == "" {
		user.ReminderFrequency = "daily"
	}
	user.IsActive = true
	user.LastActive = time.Now()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	m.users[user.PhoneNumber] = user
	return user, nil
}

func (m *MemoryStore) GetUserByPhone(phone string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, exists := m.users[phone]
	if !exists {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

func (m *MemoryStore) GetAllUsers() ([]*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	users := []*models.User{}
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func (m *MemoryStore) GetUsersWithNotifications() ([]*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	users := []*models.User{}
	for _, u := range m.users {
		if u.IsActive && u.NotificationsEnabled {
			users = append(users, u)
		}
	}
	return users, nil
}

func (m *MemoryStore) UpdateUser(user *models.User) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if _, exists := m.users[user.PhoneNumber]; !exists {
		return fmt.Errorf("user not found")
	}
	user.UpdatedAt = time.Now()
	m.users[user.PhoneNumber] = user
	return nil
}

func (m *MemoryStore) DeactivateUser(phone string) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user, exists := m.users[phone]
	if !exists {
		return fmt.Errorf("user not found")
	}
	user.IsActive = false
	return nil
}

// Session operations

func (m *MemoryStore) CreateSession(session *models.ConversationSession) (*models.ConversationSession, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if session.SessionID == "" {
		session.SessionID = uuid.NewString()
	}
	session.IsActive = true
	if session.LastInteraction.IsZero() {
		session.LastInteraction = time.Now()
	}
	session.CreatedAt = time.Now()

	// At most one active session per user
	for _, s := range m.sessions {
		if s.PhoneNumber == session.PhoneNumber && s.IsActive {
			s.IsActive = false
		}
	}

	m.sessions[session.SessionID] = session
	return session, nil
}

func (m *MemoryStore) GetActiveSession(phone string) (*models.ConversationSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	for _, s := range m.sessions {
		if s.PhoneNumber == phone && s.IsActive {
			return s, nil
		}
	}
	return nil, fmt.Errorf("session not found")
}

func (m *MemoryStore) UpdateSession(session *models.ConversationSession) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if _, exists := m.sessions[session.SessionID]; !exists {
		return fmt.Errorf("session not found")
	}
	m.sessions[session.SessionID] = session
	return nil
}

func (m *MemoryStore) DeactivateSession(sessionID string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return fmt.Errorf("session not found")
	}
	session.IsActive = false
	return nil
}

func (m *MemoryStore) GetStaleSessions(olderThan time.Time) ([]*models.ConversationSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	stale := []*models.ConversationSession{}
	for _, s := range m.sessions {
		if s.IsActive && s.LastInteraction.Before(olderThan) {
			stale = append(stale, s)
		}
	}
	return stale, nil
}

// Medication operations

func (m *MemoryStore) CreateMedication(med *models.Medication) (*models.Medication, error) {
	m.medMu.Lock()
	defer m.medMu.Unlock()

	if med.MedicationID == "" {
		med.MedicationID = uuid.NewString()
	}
	if med.StartDate.IsZero() {
		med.StartDate = time.Now()
	}
	if med.FoodInstructions == "" {
		med.FoodInstructions = models.FoodNoSpecific
	}
	med.IsActive = true
	med.AdherenceScore = 100
	med.CreatedAt = time.Now()

	m.medications[med.MedicationID] = med
	m.medOrder = append(m.medOrder, med.MedicationID)
	return med, nil
}

func (m *MemoryStore) GetMedication(medicationID string) (*models.Medication, error) {
	m.medMu.RLock()
	defer m.medMu.RUnlock()

	med, exists := m.medications[medicationID]
	if !exists {
		return nil, fmt.Errorf("medication not found")
	}
	return med, nil
}

func (m *MemoryStore) GetMedicationsByPhone(phone string) ([]*models.Medication, error) {
	m.medMu.RLock()
	defer m.medMu.RUnlock()

	meds := []*models.Medication{}
	for _, id := range m.medOrder {
		if med := m.medications[id]; med != nil && med.PhoneNumber == phone {
			meds = append(meds, med)
		}
	}
	return meds, nil
}

func (m *MemoryStore) GetActiveMedications(phone string) ([]*models.Medication, error) {
	m.medMu.RLock()
	defer m.medMu.RUnlock()

	meds := []*models.Medication{}
	for _, id := range m.medOrder {
		if med := m.medications[id]; med != nil && med.IsActive && med.PhoneNumber == phone {
			meds = append(meds, med)
		}
	}
	return meds, nil
}

func (m *MemoryStore) UpdateMedication(med *models.Medication) error {
	m.medMu.Lock()
	defer m.medMu.Unlock()

	if _, exists := m.medications[med.MedicationID]; !exists {
		return fmt.Errorf("medication not found")
	}
	med.UpdatedAt = time.Now()
	m.medications[med.MedicationID] = med
	return nil
}

// Adherence operations

func (m *MemoryStore) CreateAdherenceRecord(rec *models.AdherenceRecord) (*models.AdherenceRecord, error) {
	m.adherenceMu.Lock()
	defer m.adherenceMu.Unlock()

	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	rec.CreatedAt = time.Now()

	m.adherence[rec.MedicationID] = append(m.adherence[rec.MedicationID], rec)
	return rec, nil
}

func (m *MemoryStore) GetAdherenceRecords(medicationID string) ([]*models.AdherenceRecord, error) {
	m.adherenceMu.RLock()
	defer m.adherenceMu.RUnlock()

	records := m.adherence[medicationID]
	out := make([]*models.AdherenceRecord, len(records))
	copy(out, records)
	return out, nil
}

// Alert operations

func (m *MemoryStore) CreateAlert(alert *models.HealthAlert) (*models.HealthAlert, error) {
	m.alertMu.Lock()
	defer m.alertMu.Unlock()

	m.alertCounter++
	alert.ID = m.alertCounter
	alert.CreatedAt = time.Now()
	if alert.Status == "" {
		alert.Status = models.AlertStatusPending
	}
	if alert.Severity == "" {
		alert.Severity = "medium"
	}

	m.alerts = append(m.alerts, alert)
	return alert, nil
}

func (m *MemoryStore) UpdateAlert(alert *models.HealthAlert) error {
	m.alertMu.Lock()
	defer m.alertMu.Unlock()

	for i, a := range m.alerts {
		if a.ID == alert.ID {
			m.alerts[i] = alert
			return nil
		}
	}
	return fmt.Errorf("alert not found")
}

// Alerts returns a snapshot of all recorded alerts (for tests and monitoring).
func (m *MemoryStore) Alerts() []*models.HealthAlert {
	m.alertMu.RLock()
	defer m.alertMu.RUnlock()

	out := make([]*models.HealthAlert, len(m.alerts))
	copy(out, m.alerts)
	return out
}
