package jobs

import (
	"log"
	"sync"
	"time"

	"github.com/Codexsur/AROGYAX/internal/models"
	"github.com/Codexsur/AROGYAX/internal/services"
	"github.com/Codexsur/AROGYAX/internal/storage"
)

// ReminderJob runs the medication reminder schedule: dose reminders every
// minute, the daily adherence report at 8 PM and the weekly review on
// Sunday mornings.
type ReminderJob struct {
	store       storage.Store
	messenger   services.Messenger
	medications *services.MedicationService
	clock       services.Clock
	isRunning   bool

	mu        sync.Mutex
	lastFired map[string]string // medication ID -> "date time" of last reminder
}

// NewReminderJob creates the scheduler and installs its snooze hook on
// the medication service.
func NewReminderJob(store storage.Store, messenger services.Messenger, medications *services.MedicationService, clock services.Clock) *ReminderJob {
	job := &ReminderJob{
		store:       store,
		messenger:   messenger,
		medications: medications,
		clock:       clock,
		lastFired:   make(map[string]string),
	}
	medications.SetSnoozeFunc(job.Snooze)
	return job
}

// Start begins all scheduled reminder jobs
func (j *ReminderJob) Start() {
	if j.isRunning {
		log.Println("Reminder jobs already running")
		return
	}

	j.isRunning = true
	log.Println("Starting medication reminder jobs...")

	go j.scheduleMinuteTicks()
	go j.scheduleDailyReports()
	go j.scheduleWeeklyReviews()

	log.Println("All reminder jobs started successfully")
}

// Stop halts all scheduled jobs
func (j *ReminderJob) Stop() {
	j.isRunning = false
	log.Println("Stopping medication reminder jobs...")
}

// DOSE REMINDERS - checked every minute
func (j *ReminderJob) scheduleMinuteTicks() {
	for j.isRunning {
		time.Sleep(time.Minute)

		if !j.isRunning {
			break
		}

		j.Tick(j.clock.Now())
	}
}

// Tick sends every reminder due at the given minute. Expired courses are
// deactivated with a completion notice instead. A per-medication guard
// keeps one wall-clock minute from firing the same dose twice.
func (j *ReminderJob) Tick(now time.Time) {
	users, err := j.store.GetUsersWithNotifications()
	if err != nil {
		log.Printf("Error getting users for reminders: %v", err)
		return
	}

	minute := now.Format("15:04")
	fireKey := now.Format("2006-01-02 15:04")

	sentCount := 0
	for _, user := range users {
		meds, err := j.store.GetActiveMedications(user.PhoneNumber)
		if err != nil {
			log.Printf("Error getting medications for %s: %v", user.PhoneNumber, err)
			continue
		}

		for _, med := range meds {
			if med.Expired(now) {
				j.completeCourse(user, med)
				continue
			}
			if now.Before(med.StartDate) {
				continue
			}

			for _, t := range med.Times {
				if t != minute {
					continue
				}
				if !j.markFired(med.MedicationID, fireKey) {
					continue
				}
				if err := j.messenger.Send(user.PhoneNumber, user.Channel, j.medications.ReminderMessage(med)); err != nil {
					services.DispatchFailures.Inc()
					log.Printf("Failed to send reminder to %s: %v", user.PhoneNumber, err)
					continue
				}
				services.RemindersSent.Inc()
				sentCount++
			}
		}
	}

	if sentCount > 0 {
		log.Printf("Medication reminders sent: %d", sentCount)
	}
}

// markFired records that a medication fired at this minute and reports
// whether this call was the first to do so.
func (j *ReminderJob) markFired(medicationID, fireKey string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.lastFired[medicationID] == fireKey {
		return false
	}
	j.lastFired[medicationID] = fireKey
	return true
}

func (j *ReminderJob) completeCourse(user *models.User, med *models.Medication) {
	med.IsActive = false
	if err := j.store.UpdateMedication(med); err != nil {
		log.Printf("Error deactivating medication %s: %v", med.MedicationID, err)
		return
	}

	if err := j.messenger.Send(user.PhoneNumber, user.Channel, j.medications.CompletionMessage(med)); err != nil {
		services.DispatchFailures.Inc()
		log.Printf("Failed to send completion message to %s: %v", user.PhoneNumber, err)
	}
	log.Printf("Medication course completed: %s for %s", med.Name, user.PhoneNumber)
}

// Snooze re-sends one medication's reminder after the snooze delay. In
// memory only: a restart drops pending snoozes, the next scheduled dose
// still fires.
func (j *ReminderJob) Snooze(medicationID string) {
	time.AfterFunc(services.SnoozeDelay, func() { j.fireSnoozed(medicationID) })
	log.Printf("Reminder snoozed for medication %s", medicationID)
}

// fireSnoozed re-checks that the dose is still wanted before re-sending:
// the course may have ended or notifications been switched off during
// the snooze delay.
func (j *ReminderJob) fireSnoozed(medicationID string) {
	if !j.isRunning {
		return
	}

	med, err := j.store.GetMedication(medicationID)
	if err != nil || !med.IsActive || med.Expired(j.clock.Now()) {
		return
	}
	user, err := j.store.GetUserByPhone(med.PhoneNumber)
	if err != nil {
		log.Printf("Error getting user for snoozed reminder: %v", err)
		return
	}
	if !user.NotificationsEnabled {
		return
	}

	if err := j.messenger.Send(user.PhoneNumber, user.Channel, j.medications.ReminderMessage(med)); err != nil {
		services.DispatchFailures.Inc()
		log.Printf("Failed to send snoozed reminder to %s: %v", user.PhoneNumber, err)
		return
	}
	services.RemindersSent.Inc()
}

// DAILY ADHERENCE REPORT - runs every day at 8 PM
func (j *ReminderJob) scheduleDailyReports() {
	for j.isRunning {
		now := j.clock.Now()
		nextRun := time.Date(now.Year(), now.Month(), now.Day(), 20, 0, 0, 0, now.Location())
		if now.After(nextRun) {
			nextRun = nextRun.Add(24 * time.Hour)
		}

		duration := nextRun.Sub(now)
		log.Printf("Next daily adherence report scheduled in %v", duration)
		time.Sleep(duration)

		if !j.isRunning {
			break
		}

		j.RunDailyReports()
	}
}

// RunDailyReports sends the day's adherence summary to every user with
// active medications.
func (j *ReminderJob) RunDailyReports() {
	log.Println("Sending daily adherence reports...")

	users, err := j.store.GetUsersWithNotifications()
	if err != nil {
		log.Printf("Error getting users for daily reports: %v", err)
		return
	}

	sentCount := 0
	for _, user := range users {
		report, err := j.medications.DailyReport(user.PhoneNumber)
		if err != nil {
			log.Printf("Error building daily report for %s: %v", user.PhoneNumber, err)
			continue
		}
		if report == "" {
			continue
		}

		if err := j.messenger.Send(user.PhoneNumber, user.Channel, report); err != nil {
			services.DispatchFailures.Inc()
			log.Printf("Failed to send daily report to %s: %v", user.PhoneNumber, err)
			continue
		}
		sentCount++
	}

	log.Printf("Daily adherence reports sent: %d", sentCount)
}

// WEEKLY MEDICATION REVIEW - runs every Sunday at 10 AM
func (j *ReminderJob) scheduleWeeklyReviews() {
	for j.isRunning {
		now := j.clock.Now()
		daysUntilSunday := (7 - int(now.Weekday())) % 7
		if daysUntilSunday == 0 && now.Hour() >= 10 {
			daysUntilSunday = 7
		}

		nextRun := time.Date(now.Year(), now.Month(), now.Day()+daysUntilSunday, 10, 0, 0, 0, now.Location())
		duration := nextRun.Sub(now)

		log.Printf("Next weekly medication review scheduled in %v", duration)
		time.Sleep(duration)

		if !j.isRunning {
			break
		}

		j.RunWeeklyReviews()
	}
}

// RunWeeklyReviews sends the weekly adherence review to every user with
// active medications.
func (j *ReminderJob) RunWeeklyReviews() {
	log.Println("Sending weekly medication reviews...")

	users, err := j.store.GetUsersWithNotifications()
	if err != nil {
		log.Printf("Error getting users for weekly reviews: %v", err)
		return
	}

	sentCount := 0
	for _, user := range users {
		review, err := j.medications.WeeklyReview(user.PhoneNumber)
		if err != nil {
			log.Printf("Error building weekly review for %s: %v", user.PhoneNumber, err)
			continue
		}
		if review == "" {
			continue
		}

		if err := j.messenger.Send(user.PhoneNumber, user.Channel, review); err != nil {
			services.DispatchFailures.Inc()
			log.Printf("Failed to send weekly review to %s: %v", user.PhoneNumber, err)
			continue
		}
		sentCount++
	}

	log.Printf("Weekly medication reviews sent: %d", sentCount)
}
