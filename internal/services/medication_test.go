package services

import (
	"strings"
	"testing"
	"time"

	"github.com/Codexsur/AROGYAX/internal/models"
	"github.com/Codexsur/AROGYAX/internal/storage"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

const testPhone = "+919876543210"

func newMedicationFixture() (*MedicationService, *storage.MemoryStore, *fakeClock) {
	store := storage.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2026, 3, 10, 10, 15, 0, 0, time.UTC)}
	return NewMedicationService(store, clock), store, clock
}

func TestAddMedicationValidation(t *testing.T) {
	s, _, _ := newMedicationFixture()

	if _, _, err := s.AddMedication(testPhone, MedicationInput{Dosage: "500mg", Times: []string{"08:00"}}); err == nil {
		t.Error("expected error for missing name")
	}
	if _, _, err := s.AddMedication(testPhone, MedicationInput{Name: "Metformin", Dosage: "500mg"}); err == nil {
		t.Error("expected error for missing times")
	}
	if _, _, err := s.AddMedication(testPhone, MedicationInput{Name: "Metformin", Dosage: "500mg", Times: []string{"25:00"}}); err == nil {
		t.Error("expected error for invalid time")
	}
}

func TestAddMedication(t *testing.T) {
	s, _, clock := newMedicationFixture()

	med, confirmation, err := s.AddMedication(testPhone, MedicationInput{
		Name:      "Metformin",
		Dosage:    "500mg",
		Frequency: "twice_daily",
		Times:     []string{"08:00", "20:00"},
	})
	if err != nil {
		t.Fatalf("AddMedication: %v", err)
	}
	if med.MedicationID == "" {
		t.Error("expected a generated medication ID")
	}
	if med.AdherenceScore != 100 {
		t.Errorf("adherence score = %d, want 100", med.AdherenceScore)
	}
	if !med.StartDate.Equal(clock.now) {
		t.Errorf("start date = %v, want %v", med.StartDate, clock.now)
	}
	if !strings.Contains(confirmation, "Medication Added") || !strings.Contains(confirmation, "Metformin") {
		t.Errorf("confirmation = %q", confirmation)
	}
}

func TestFindDueMedication(t *testing.T) {
	s, _, clock := newMedicationFixture()

	// Clock is 10:15, so the due window is 09:45-10:15.
	add := func(name, at string) *models.Medication {
		med, _, err := s.AddMedication(testPhone, MedicationInput{Name: name, Dosage: "1 tablet", Times: []string{at}})
		if err != nil {
			t.Fatalf("AddMedication(%s): %v", name, err)
		}
		return med
	}

	add("Early", "09:30")
	add("InWindow", "10:00")

	med, err := s.FindDueMedication(testPhone)
	if err != nil {
		t.Fatalf("FindDueMedication: %v", err)
	}
	if med == nil || med.Name != "InWindow" {
		t.Fatalf("due medication = %+v, want InWindow", med)
	}

	add("Latest", "10:10")
	med, err = s.FindDueMedication(testPhone)
	if err != nil {
		t.Fatalf("FindDueMedication: %v", err)
	}
	if med == nil || med.Name != "Latest" {
		t.Fatalf("due medication = %+v, want Latest", med)
	}

	add("Future", "10:30")
	med, err = s.FindDueMedication(testPhone)
	if err != nil {
		t.Fatalf("FindDueMedication: %v", err)
	}
	if med == nil || med.Name != "Latest" {
		t.Fatalf("future dose should not win, got %+v", med)
	}

	clock.now = clock.now.Add(20 * time.Minute)
	med, err = s.FindDueMedication(testPhone)
	if err != nil {
		t.Fatalf("FindDueMedication: %v", err)
	}
	if med == nil || med.Name != "Future" {
		t.Fatalf("after the window moves, due medication = %+v, want Future", med)
	}
}

func TestHandleReminderResponse(t *testing.T) {
	s, store, _ := newMedicationFixture()

	med, _, err := s.AddMedication(testPhone, MedicationInput{
		Name: "Metformin", Dosage: "500mg", Times: []string{"10:00"},
	})
	if err != nil {
		t.Fatalf("AddMedication: %v", err)
	}

	t.Run("taken", func(t *testing.T) {
		reply, err := s.HandleReminderResponse(testPhone, "TAKEN")
		if err != nil {
			t.Fatalf("HandleReminderResponse: %v", err)
		}
		if !strings.Contains(reply, "taken Metformin") {
			t.Errorf("reply = %q", reply)
		}
		records, _ := store.GetAdherenceRecords(med.MedicationID)
		if len(records) != 1 || records[0].Status != models.AdherenceTaken {
			t.Errorf("records = %+v", records)
		}
	})

	t.Run("skip updates score", func(t *testing.T) {
		reply, err := s.HandleReminderResponse(testPhone, "skip")
		if err != nil {
			t.Fatalf("HandleReminderResponse: %v", err)
		}
		if !strings.Contains(reply, "skipped Metformin") {
			t.Errorf("reply = %q", reply)
		}
		if med.AdherenceScore != 50 {
			t.Errorf("adherence score = %d, want 50", med.AdherenceScore)
		}
	})

	t.Run("snooze calls hook", func(t *testing.T) {
		var snoozed string
		s.SetSnoozeFunc(func(id string) { snoozed = id })

		reply, err := s.HandleReminderResponse(testPhone, "SNOOZE")
		if err != nil {
			t.Fatalf("HandleReminderResponse: %v", err)
		}
		if !strings.Contains(reply, "snoozed for 15 minutes") {
			t.Errorf("reply = %q", reply)
		}
		if snoozed != med.MedicationID {
			t.Errorf("snoozed = %q, want %q", snoozed, med.MedicationID)
		}
	})

	t.Run("info", func(t *testing.T) {
		reply, err := s.HandleReminderResponse(testPhone, "INFO")
		if err != nil {
			t.Fatalf("HandleReminderResponse: %v", err)
		}
		if !strings.Contains(reply, "Metformin Information") {
			t.Errorf("reply = %q", reply)
		}
	})

	t.Run("unknown reply gets help", func(t *testing.T) {
		reply, err := s.HandleReminderResponse(testPhone, "maybe later")
		if err != nil {
			t.Fatalf("HandleReminderResponse: %v", err)
		}
		if !strings.Contains(reply, "Medication Reminder Help") {
			t.Errorf("reply = %q", reply)
		}
	})

	t.Run("nothing due", func(t *testing.T) {
		reply, err := s.HandleReminderResponse("+919999999999", "TAKEN")
		if err != nil {
			t.Fatalf("HandleReminderResponse: %v", err)
		}
		if reply != "No recent medication reminders found." {
			t.Errorf("reply = %q", reply)
		}
	})
}

func TestAdherenceScore(t *testing.T) {
	s, store, clock := newMedicationFixture()

	med, _, err := s.AddMedication(testPhone, MedicationInput{Name: "Amlodipine", Dosage: "5mg", Times: []string{"08:00"}})
	if err != nil {
		t.Fatalf("AddMedication: %v", err)
	}

	score, err := s.AdherenceScore(med.MedicationID)
	if err != nil {
		t.Fatalf("AdherenceScore: %v", err)
	}
	if score != 100 {
		t.Errorf("score with no records = %d, want 100", score)
	}

	for _, status := range []string{models.AdherenceTaken, models.AdherenceTaken, models.AdherenceSkipped} {
		if _, err := store.CreateAdherenceRecord(&models.AdherenceRecord{
			MedicationID: med.MedicationID,
			PhoneNumber:  testPhone,
			Status:       status,
			RecordedAt:   clock.now,
		}); err != nil {
			t.Fatalf("CreateAdherenceRecord: %v", err)
		}
	}

	score, err = s.AdherenceScore(med.MedicationID)
	if err != nil {
		t.Fatalf("AdherenceScore: %v", err)
	}
	if score != 67 {
		t.Errorf("score = %d, want 67", score)
	}
}

func TestAdherenceTrend(t *testing.T) {
	s, store, clock := newMedicationFixture()

	med, _, err := s.AddMedication(testPhone, MedicationInput{Name: "Amlodipine", Dosage: "5mg", Times: []string{"08:00"}})
	if err != nil {
		t.Fatalf("AddMedication: %v", err)
	}

	record := func(status string) {
		if _, err := store.CreateAdherenceRecord(&models.AdherenceRecord{
			MedicationID: med.MedicationID,
			PhoneNumber:  testPhone,
			Status:       status,
			RecordedAt:   clock.now,
		}); err != nil {
			t.Fatalf("CreateAdherenceRecord: %v", err)
		}
	}

	trend, err := s.AdherenceTrend(med.MedicationID)
	if err != nil {
		t.Fatalf("AdherenceTrend: %v", err)
	}
	if trend != 0 {
		t.Errorf("trend with no history = %d, want 0", trend)
	}

	for i := 0; i < 7; i++ {
		record(models.AdherenceSkipped)
	}
	for i := 0; i < 7; i++ {
		record(models.AdherenceTaken)
	}

	trend, err = s.AdherenceTrend(med.MedicationID)
	if err != nil {
		t.Fatalf("AdherenceTrend: %v", err)
	}
	if trend != 1 {
		t.Errorf("trend = %d, want 1 (improving)", trend)
	}

	for i := 0; i < 7; i++ {
		record(models.AdherenceSkipped)
	}
	trend, err = s.AdherenceTrend(med.MedicationID)
	if err != nil {
		t.Fatalf("AdherenceTrend: %v", err)
	}
	if trend != -1 {
		t.Errorf("trend = %d, want -1 (declining)", trend)
	}
}

func TestDailyReport(t *testing.T) {
	s, _, _ := newMedicationFixture()

	report, err := s.DailyReport(testPhone)
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}
	if report != "" {
		t.Errorf("report without medications = %q, want empty", report)
	}

	med, _, err := s.AddMedication(testPhone, MedicationInput{
		Name: "Metformin", Dosage: "500mg", Frequency: "twice_daily", Times: []string{"08:00", "20:00"},
	})
	if err != nil {
		t.Fatalf("AddMedication: %v", err)
	}

	if err := s.RecordAdherence(med, models.AdherenceTaken); err != nil {
		t.Fatalf("RecordAdherence: %v", err)
	}

	report, err = s.DailyReport(testPhone)
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}
	if !strings.Contains(report, "Metformin: 1/2 doses") {
		t.Errorf("report missing partial count: %q", report)
	}
	if !strings.Contains(report, "Today's Adherence:** 50%") {
		t.Errorf("report missing percentage: %q", report)
	}
	if !strings.Contains(report, "below 80%") {
		t.Errorf("report missing low adherence warning: %q", report)
	}

	if err := s.RecordAdherence(med, models.AdherenceTaken); err != nil {
		t.Fatalf("RecordAdherence: %v", err)
	}
	report, err = s.DailyReport(testPhone)
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}
	if !strings.Contains(report, "Today's Adherence:** 100%") {
		t.Errorf("report missing full adherence: %q", report)
	}
	if !strings.Contains(report, "Excellent") {
		t.Errorf("report missing praise: %q", report)
	}
}

func TestWeeklyReview(t *testing.T) {
	s, _, _ := newMedicationFixture()

	review, err := s.WeeklyReview(testPhone)
	if err != nil {
		t.Fatalf("WeeklyReview: %v", err)
	}
	if review != "" {
		t.Errorf("review without medications = %q, want empty", review)
	}

	if _, _, err := s.AddMedication(testPhone, MedicationInput{Name: "Metformin", Dosage: "500mg", Times: []string{"08:00"}}); err != nil {
		t.Fatalf("AddMedication: %v", err)
	}

	review, err = s.WeeklyReview(testPhone)
	if err != nil {
		t.Fatalf("WeeklyReview: %v", err)
	}
	if !strings.Contains(review, "Overall Adherence:** 100%") {
		t.Errorf("review missing overall score: %q", review)
	}
	if !strings.Contains(review, "Excellent adherence") {
		t.Errorf("review missing praise tier: %q", review)
	}
	if !strings.Contains(review, "➡️") {
		t.Errorf("review missing stable trend marker: %q", review)
	}
}

func TestRemoveMedication(t *testing.T) {
	s, _, _ := newMedicationFixture()

	if _, _, err := s.AddMedication(testPhone, MedicationInput{Name: "Metformin", Dosage: "500mg", Times: []string{"08:00"}}); err != nil {
		t.Fatalf("AddMedication: %v", err)
	}

	reply, err := s.RemoveMedication(testPhone, "metformin")
	if err != nil {
		t.Fatalf("RemoveMedication: %v", err)
	}
	if !strings.Contains(reply, "Stopped reminders for Metformin") {
		t.Errorf("reply = %q", reply)
	}

	listing, err := s.ListMedications(testPhone)
	if err != nil {
		t.Fatalf("ListMedications: %v", err)
	}
	if !strings.Contains(listing, "no active medications") {
		t.Errorf("listing = %q", listing)
	}

	reply, err = s.RemoveMedication(testPhone, "aspirin")
	if err != nil {
		t.Fatalf("RemoveMedication: %v", err)
	}
	if !strings.Contains(reply, "couldn't find") {
		t.Errorf("reply = %q", reply)
	}
}
