package jobs

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Codexsur/AROGYAX/internal/models"
	"github.com/Codexsur/AROGYAX/internal/services"
	"github.com/Codexsur/AROGYAX/internal/storage"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

type sentMessage struct {
	phone string
	body  string
}

type recordingMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (r *recordingMessenger) Send(phone, channel, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{phone: phone, body: message})
	return nil
}

func (r *recordingMessenger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func (r *recordingMessenger) last() sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return sentMessage{}
	}
	return r.sent[len(r.sent)-1]
}

const testPhone = "+919876543210"

type jobFixture struct {
	job       *ReminderJob
	store     *storage.MemoryStore
	messenger *recordingMessenger
	clock     *fakeClock
	meds      *services.MedicationService
}

func newJobFixture(t *testing.T, now time.Time) *jobFixture {
	t.Helper()

	store := storage.NewMemoryStore()
	messenger := &recordingMessenger{}
	clock := &fakeClock{now: now}
	meds := services.NewMedicationService(store, clock)

	if _, err := store.CreateUser(&models.User{
		PhoneNumber: testPhone,
		Channel:     models.ChannelWhatsApp,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	return &jobFixture{
		job:       NewReminderJob(store, messenger, meds, clock),
		store:     store,
		messenger: messenger,
		clock:     clock,
		meds:      meds,
	}
}

func (f *jobFixture) addMedication(t *testing.T, med *models.Medication) *models.Medication {
	t.Helper()
	med.PhoneNumber = testPhone
	if med.StartDate.IsZero() {
		med.StartDate = f.clock.now.Add(-24 * time.Hour)
	}
	created, err := f.store.CreateMedication(med)
	if err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}
	return created
}

func TestTickFiresDueReminder(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	f := newJobFixture(t, now)

	f.addMedication(t, &models.Medication{
		Name: "Metformin", Dosage: "500mg", Frequency: "daily", Times: []string{"08:00"},
	})

	f.job.Tick(now)
	if f.messenger.count() != 1 {
		t.Fatalf("sent %d messages, want 1", f.messenger.count())
	}
	reminder := f.messenger.last()
	if reminder.phone != testPhone {
		t.Errorf("reminder phone = %s, want %s", reminder.phone, testPhone)
	}
	if !strings.Contains(reminder.body, "Medication Reminder") || !strings.Contains(reminder.body, "Metformin") {
		t.Errorf("reminder body = %q", reminder.body)
	}
	if !strings.Contains(reminder.body, "TAKEN") || !strings.Contains(reminder.body, "SNOOZE") {
		t.Errorf("reminder missing reply commands: %q", reminder.body)
	}
}

func TestTickFiresUnpaddedRegistrationTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	f := newJobFixture(t, now)

	if _, _, err := f.meds.AddMedication(testPhone, services.MedicationInput{
		Name: "Amlodipine", Dosage: "5mg", Times: []string{"8:00"},
	}); err != nil {
		t.Fatalf("AddMedication: %v", err)
	}

	f.job.Tick(now)
	if f.messenger.count() != 1 {
		t.Fatalf("sent %d messages, want 1 for a dose registered as 8:00", f.messenger.count())
	}
	if !strings.Contains(f.messenger.last().body, "Amlodipine") {
		t.Errorf("reminder body = %q", f.messenger.last().body)
	}
}

func TestSnoozedReminderSkipsEndedCourse(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	f := newJobFixture(t, now)
	f.job.isRunning = true

	ended := now.Add(-time.Hour)
	med := f.addMedication(t, &models.Medication{
		Name: "Metformin", Dosage: "500mg", Frequency: "daily",
		Times: []string{"08:00"}, EndDate: &ended,
	})

	f.job.fireSnoozed(med.MedicationID)
	if f.messenger.count() != 0 {
		t.Fatalf("sent %d messages, want none after the course ended", f.messenger.count())
	}
}

func TestSnoozedReminderHonorsNotificationPreference(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	f := newJobFixture(t, now)
	f.job.isRunning = true

	med := f.addMedication(t, &models.Medication{
		Name: "Metformin", Dosage: "500mg", Frequency: "daily", Times: []string{"08:00"},
	})

	user, err := f.store.GetUserByPhone(testPhone)
	if err != nil {
		t.Fatalf("GetUserByPhone: %v", err)
	}
	user.NotificationsEnabled = false
	if err := f.store.UpdateUser(user); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	f.job.fireSnoozed(med.MedicationID)
	if f.messenger.count() != 0 {
		t.Fatalf("sent %d messages, want none with notifications disabled", f.messenger.count())
	}

	user.NotificationsEnabled = true
	if err := f.store.UpdateUser(user); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	f.job.fireSnoozed(med.MedicationID)
	if f.messenger.count() != 1 {
		t.Fatalf("sent %d messages, want the snoozed reminder once re-enabled", f.messenger.count())
	}
}

func TestTickDoesNotFireTwiceInOneMinute(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	f := newJobFixture(t, now)

	f.addMedication(t, &models.Medication{
		Name: "Metformin", Dosage: "500mg", Frequency: "daily", Times: []string{"08:00"},
	})

	f.job.Tick(now)
	f.job.Tick(now.Add(30 * time.Second))
	if f.messenger.count() != 1 {
		t.Fatalf("sent %d messages, want 1 despite repeated ticks", f.messenger.count())
	}

	f.job.Tick(now.Add(time.Minute))
	if f.messenger.count() != 1 {
		t.Fatalf("sent %d messages, want 1 at 08:01", f.messenger.count())
	}

	f.job.Tick(now.Add(24 * time.Hour))
	if f.messenger.count() != 2 {
		t.Fatalf("sent %d messages, want 2 after the next day's dose", f.messenger.count())
	}
}

func TestTickSkipsNotYetStartedCourse(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	f := newJobFixture(t, now)

	f.addMedication(t, &models.Medication{
		Name: "Metformin", Dosage: "500mg", Frequency: "daily",
		Times: []string{"08:00"}, StartDate: now.Add(48 * time.Hour),
	})

	f.job.Tick(now)
	if f.messenger.count() != 0 {
		t.Fatalf("sent %d messages for a course that has not started", f.messenger.count())
	}
}

func TestTickCompletesExpiredCourse(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	f := newJobFixture(t, now)

	end := now.Add(-time.Hour)
	med := f.addMedication(t, &models.Medication{
		Name: "Azithromycin", Dosage: "250mg", Frequency: "daily",
		Times: []string{"08:00"}, EndDate: &end,
	})

	f.job.Tick(now)
	if f.messenger.count() != 1 {
		t.Fatalf("sent %d messages, want 1 completion notice", f.messenger.count())
	}
	if !strings.Contains(f.messenger.last().body, "Medication Course Completed") {
		t.Errorf("completion body = %q", f.messenger.last().body)
	}

	stored, err := f.store.GetMedication(med.MedicationID)
	if err != nil {
		t.Fatalf("GetMedication: %v", err)
	}
	if stored.IsActive {
		t.Error("expired medication should be deactivated")
	}
}

func TestRunDailyReports(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	f := newJobFixture(t, now)

	// A user with no medications gets no report.
	f.job.RunDailyReports()
	if f.messenger.count() != 0 {
		t.Fatalf("sent %d reports for a user with no medications", f.messenger.count())
	}

	med := f.addMedication(t, &models.Medication{
		Name: "Metformin", Dosage: "500mg", Frequency: "daily", Times: []string{"08:00"},
	})
	if err := f.meds.RecordAdherence(med, models.AdherenceTaken); err != nil {
		t.Fatalf("RecordAdherence: %v", err)
	}

	f.job.RunDailyReports()
	if f.messenger.count() != 1 {
		t.Fatalf("sent %d reports, want 1", f.messenger.count())
	}
	report := f.messenger.last().body
	if !strings.Contains(report, "Daily Medication Report") {
		t.Errorf("report = %q", report)
	}
	if !strings.Contains(report, "Metformin: 1/1 doses") {
		t.Errorf("report missing dose count: %q", report)
	}
}

func TestRunWeeklyReviews(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	f := newJobFixture(t, now)

	f.addMedication(t, &models.Medication{
		Name: "Metformin", Dosage: "500mg", Frequency: "daily", Times: []string{"08:00"},
	})

	f.job.RunWeeklyReviews()
	if f.messenger.count() != 1 {
		t.Fatalf("sent %d reviews, want 1", f.messenger.count())
	}
	review := f.messenger.last().body
	if !strings.Contains(review, "Weekly Medication Review") {
		t.Errorf("review = %q", review)
	}
	if !strings.Contains(review, "Overall Adherence:** 100%") {
		t.Errorf("review missing score: %q", review)
	}
}
