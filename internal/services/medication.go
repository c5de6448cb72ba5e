package services

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Codexsur/AROGYAX/internal/models"
	"github.com/Codexsur/AROGYAX/internal/storage"
)

// reminderLookback is how far back a reply still matches a scheduled dose.
const reminderLookback = 30 * time.Minute

// SnoozeDelay is how long a snoozed reminder waits before firing again.
const SnoozeDelay = 15 * time.Minute

// MedicationInput carries the fields needed to register a medication.
type MedicationInput struct {
	Name             string
	Dosage           string
	Frequency        string
	Times            []string
	StartDate        time.Time
	EndDate          *time.Time
	Instructions     string
	FoodInstructions string
	SideEffects      []string
	Interactions     []string
}

// MedicationService manages medication schedules, reminder replies and
// adherence scoring. Reminder delivery itself lives in the jobs package;
// it injects its snooze hook here so reminder replies can re-arm a dose.
type MedicationService struct {
	store  storage.Store
	clock  Clock
	snooze func(medicationID string)
}

// NewMedicationService wires the service to a store and clock.
func NewMedicationService(store storage.Store, clock Clock) *MedicationService {
	return &MedicationService{store: store, clock: clock}
}

// SetSnoozeFunc installs the scheduler's snooze hook.
func (s *MedicationService) SetSnoozeFunc(fn func(medicationID string)) {
	s.snooze = fn
}

// AddMedication validates and registers a medication, returning the
// confirmation message for the user.
func (s *MedicationService) AddMedication(phone string, input MedicationInput) (*models.Medication, string, error) {
	if input.Name == "" || input.Dosage == "" || len(input.Times) == 0 {
		return nil, "", fmt.Errorf("medication needs a name, dosage and at least one time")
	}

	// Store times zero-padded so the scheduler's minute match finds them.
	times := make([]string, 0, len(input.Times))
	for _, t := range input.Times {
		parsed, err := parseClockTime(t)
		if err != nil {
			return nil, "", fmt.Errorf("invalid time %q: use HH:MM format", t)
		}
		times = append(times, parsed.String())
	}
	input.Times = times

	if input.FoodInstructions == "" {
		input.FoodInstructions = models.FoodNoSpecific
	}
	if input.Frequency == "" {
		input.Frequency = "daily"
	}
	if input.StartDate.IsZero() {
		input.StartDate = s.clock.Now()
	}

	med := &models.Medication{
		PhoneNumber:      phone,
		Name:             input.Name,
		Dosage:           input.Dosage,
		Frequency:        input.Frequency,
		Times:            input.Times,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		Instructions:     input.Instructions,
		FoodInstructions: input.FoodInstructions,
		SideEffects:      input.SideEffects,
		Interactions:     input.Interactions,
		IsActive:         true,
		AdherenceScore:   100,
	}

	med, err := s.store.CreateMedication(med)
	if err != nil {
		return nil, "", err
	}

	confirmation := fmt.Sprintf("✅ *Medication Added*\n\n"+
		"💊 %s (%s)\n"+
		"⏰ %s at %s\n\n"+
		"I'll remind you at each scheduled time. Reply \"LIST MEDS\" to see all your medications.",
		med.Name, med.Dosage, med.FrequencyText(), strings.Join(med.Times, ", "))

	return med, confirmation, nil
}

// ListMedications formats the user's active medications.
func (s *MedicationService) ListMedications(phone string) (string, error) {
	meds, err := s.store.GetMedicationsByPhone(phone)
	if err != nil {
		return "", err
	}

	var active []*models.Medication
	for _, med := range meds {
		if med.IsActive {
			active = append(active, med)
		}
	}

	if len(active) == 0 {
		return "You have no active medications. Reply \"ADD MED\" to set up a reminder.", nil
	}

	var b strings.Builder
	b.WriteString("💊 *Your Medications*\n\n")
	for i, med := range active {
		b.WriteString(fmt.Sprintf("%d. *%s* (%s)\n   %s at %s\n   Adherence: %d%%\n\n",
			i+1, med.Name, med.Dosage, med.FrequencyText(), strings.Join(med.Times, ", "), med.AdherenceScore))
	}
	b.WriteString("Reply \"INFO\" after a reminder for details, or \"REMOVE <name>\" to stop a medication.")
	return b.String(), nil
}

// RemoveMedication deactivates the named medication.
func (s *MedicationService) RemoveMedication(phone, name string) (string, error) {
	meds, err := s.store.GetMedicationsByPhone(phone)
	if err != nil {
		return "", err
	}

	for _, med := range meds {
		if med.IsActive && strings.EqualFold(med.Name, name) {
			med.IsActive = false
			if err := s.store.UpdateMedication(med); err != nil {
				return "", err
			}
			return fmt.Sprintf("✅ Stopped reminders for %s. Consult your doctor before stopping a prescribed medication.", med.Name), nil
		}
	}
	return fmt.Sprintf("I couldn't find an active medication named %q. Reply \"LIST MEDS\" to see your medications.", name), nil
}

// FindDueMedication returns the active medication whose scheduled time
// fell inside the lookback window ending now. When several are due, the
// latest scheduled time wins; ties resolve by creation order.
func (s *MedicationService) FindDueMedication(phone string) (*models.Medication, error) {
	meds, err := s.store.GetActiveMedications(phone)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	windowStart := now.Add(-reminderLookback)

	var best *models.Medication
	var bestTime time.Time

	for _, med := range meds {
		if med.Expired(now) {
			continue
		}
		for _, t := range med.Times {
			clock, err := parseClockTime(t)
			if err != nil {
				continue
			}
			scheduled := time.Date(now.Year(), now.Month(), now.Day(), clock.hour, clock.minute, 0, 0, now.Location())
			if scheduled.Before(windowStart) || scheduled.After(now) {
				continue
			}
			if best == nil || scheduled.After(bestTime) {
				best = med
				bestTime = scheduled
			}
		}
	}

	return best, nil
}

// HandleReminderResponse processes TAKEN, SKIP, SNOOZE and INFO replies
// against the most recently due medication.
func (s *MedicationService) HandleReminderResponse(phone, response string) (string, error) {
	med, err := s.FindDueMedication(phone)
	if err != nil {
		return "", err
	}
	if med == nil {
		return "No recent medication reminders found.", nil
	}

	switch strings.ToUpper(strings.TrimSpace(response)) {
	case "TAKEN":
		return s.markTaken(med)
	case "SKIP":
		return s.markSkipped(med)
	case "SNOOZE":
		if s.snooze != nil {
			s.snooze(med.MedicationID)
		}
		return fmt.Sprintf("⏰ Reminder snoozed for 15 minutes. I'll remind you again about %s.", med.Name), nil
	case "INFO":
		return s.MedicationInfo(med), nil
	default:
		return s.HelpMessage(), nil
	}
}

func (s *MedicationService) markTaken(med *models.Medication) (string, error) {
	if err := s.RecordAdherence(med, models.AdherenceTaken); err != nil {
		return "", err
	}

	response := fmt.Sprintf("✅ Great! Recorded that you've taken %s.\n\n", med.Name)
	if len(med.SideEffects) > 0 {
		response += "Please monitor for any side effects and contact your doctor if you experience:\n"
		for _, effect := range med.SideEffects {
			response += "• " + effect + "\n"
		}
		response += "\nReply \"SIDE EFFECT\" if you experience any unusual symptoms."
	}
	return response, nil
}

func (s *MedicationService) markSkipped(med *models.Medication) (string, error) {
	if err := s.RecordAdherence(med, models.AdherenceSkipped); err != nil {
		return "", err
	}

	return fmt.Sprintf("⚠️ Recorded that you've skipped %s.\n\n"+
		"*Important:* Skipping medications can affect your treatment. "+
		"If you're experiencing side effects or have concerns, please consult your doctor.\n\n"+
		"Would you like me to:\n"+
		"1. Schedule a doctor consultation reminder\n"+
		"2. Provide information about this medication\n"+
		"3. Set up a different reminder time", med.Name), nil
}

// RecordAdherence appends an adherence record and refreshes the cached score.
func (s *MedicationService) RecordAdherence(med *models.Medication, status string) error {
	record := &models.AdherenceRecord{
		MedicationID: med.MedicationID,
		PhoneNumber:  med.PhoneNumber,
		Status:       status,
		RecordedAt:   s.clock.Now(),
	}
	if _, err := s.store.CreateAdherenceRecord(record); err != nil {
		return err
	}

	score, err := s.AdherenceScore(med.MedicationID)
	if err != nil {
		return err
	}
	med.AdherenceScore = score
	return s.store.UpdateMedication(med)
}

// AdherenceScore is the taken ratio over all records, rounded to a whole
// percentage. No records means a perfect 100.
func (s *MedicationService) AdherenceScore(medicationID string) (int, error) {
	records, err := s.store.GetAdherenceRecords(medicationID)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 100, nil
	}

	taken := 0
	for _, r := range records {
		if r.Status == models.AdherenceTaken {
			taken++
		}
	}
	return int(math.Round(float64(taken) / float64(len(records)) * 100)), nil
}

// AdherenceTrend compares the last seven records against the seven before
// them: 1 improving, -1 declining, 0 stable or not enough history.
func (s *MedicationService) AdherenceTrend(medicationID string) (int, error) {
	records, err := s.store.GetAdherenceRecords(medicationID)
	if err != nil {
		return 0, err
	}
	if len(records) < 7 {
		return 0, nil
	}

	recent := records[len(records)-7:]
	var previous []*models.AdherenceRecord
	if len(records) >= 14 {
		previous = records[len(records)-14 : len(records)-7]
	} else {
		previous = records[:len(records)-7]
	}
	if len(previous) == 0 {
		return 0, nil
	}

	diff := takenRatio(recent) - takenRatio(previous)
	switch {
	case diff > 0.1:
		return 1, nil
	case diff < -0.1:
		return -1, nil
	default:
		return 0, nil
	}
}

func takenRatio(records []*models.AdherenceRecord) float64 {
	taken := 0
	for _, r := range records {
		if r.Status == models.AdherenceTaken {
			taken++
		}
	}
	return float64(taken) / float64(len(records))
}

// ReminderMessage renders the reminder for one due dose.
func (s *MedicationService) ReminderMessage(med *models.Medication) string {
	var b strings.Builder
	b.WriteString("💊 *Medication Reminder* 💊\n\n")
	b.WriteString(fmt.Sprintf("⏰ Time: %s\n", s.clock.Now().Format("03:04 PM")))
	b.WriteString(fmt.Sprintf("💉 Medicine: %s\n", med.Name))
	b.WriteString(fmt.Sprintf("📏 Dosage: %s\n", med.Dosage))

	if med.FoodInstructions != models.FoodNoSpecific {
		if text := med.FoodInstructionText(); text != "" {
			b.WriteString("🍽️ " + text + "\n")
		}
	}
	if med.Instructions != "" {
		b.WriteString("📝 Instructions: " + med.Instructions + "\n")
	}

	b.WriteString("\n*Reply with:*\n")
	b.WriteString("✅ \"TAKEN\" - If you've taken the medicine\n")
	b.WriteString("⏰ \"SNOOZE\" - To remind again in 15 minutes\n")
	b.WriteString("❌ \"SKIP\" - If you're skipping this dose\n")
	b.WriteString("❓ \"INFO\" - For medicine information\n")

	if len(med.SideEffects) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ *Watch for side effects:* %s", strings.Join(med.SideEffects, ", ")))
	}

	return b.String()
}

// MedicationInfo renders the detail card for a medication.
func (s *MedicationService) MedicationInfo(med *models.Medication) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💊 *%s Information*\n\n", med.Name))
	b.WriteString(fmt.Sprintf("📏 **Dosage:** %s\n", med.Dosage))
	b.WriteString(fmt.Sprintf("⏰ **Frequency:** %s\n", med.FrequencyText()))
	b.WriteString(fmt.Sprintf("🕐 **Times:** %s\n", strings.Join(med.Times, ", ")))

	if med.Instructions != "" {
		b.WriteString("📝 **Instructions:** " + med.Instructions + "\n")
	}
	if med.FoodInstructions != models.FoodNoSpecific {
		if text := med.FoodInstructionText(); text != "" {
			b.WriteString("🍽️ **Food:** " + text + "\n")
		}
	}

	if len(med.SideEffects) > 0 {
		b.WriteString("⚠️ **Possible Side Effects:**\n")
		for _, effect := range med.SideEffects {
			b.WriteString("• " + effect + "\n")
		}
	}
	if len(med.Interactions) > 0 {
		b.WriteString("🚫 **Drug Interactions:**\n")
		for _, interaction := range med.Interactions {
			b.WriteString("• " + interaction + "\n")
		}
	}

	score, err := s.AdherenceScore(med.MedicationID)
	if err != nil {
		log.Printf("❌ Failed to compute adherence score for %s: %v", med.MedicationID, err)
		score = med.AdherenceScore
	}
	b.WriteString(fmt.Sprintf("📊 **Adherence Score:** %d%%\n", score))
	b.WriteString("\n*Always consult your doctor before making changes to your medication.*")

	return b.String()
}

// DailyReport renders the end-of-day adherence summary for a user.
// Returns "" when the user has no active medications.
func (s *MedicationService) DailyReport(phone string) (string, error) {
	meds, err := s.store.GetActiveMedications(phone)
	if err != nil {
		return "", err
	}
	if len(meds) == 0 {
		return "", nil
	}

	now := s.clock.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var b strings.Builder
	b.WriteString("📊 *Daily Medication Report*\n\n")

	totalDoses, takenDoses := 0, 0
	for _, med := range meds {
		records, err := s.store.GetAdherenceRecords(med.MedicationID)
		if err != nil {
			return "", err
		}

		taken := 0
		for _, r := range records {
			if r.Status == models.AdherenceTaken && !r.RecordedAt.Before(dayStart) {
				taken++
			}
		}

		expected := len(med.Times)
		totalDoses += expected
		takenDoses += taken

		status := "❌"
		if taken >= expected {
			status = "✅"
		} else if taken > 0 {
			status = "⚠️"
		}
		b.WriteString(fmt.Sprintf("%s %s: %d/%d doses\n", status, med.Name, taken, expected))
	}

	percentage := 100
	if totalDoses > 0 {
		percentage = int(math.Round(float64(takenDoses) / float64(totalDoses) * 100))
	}
	b.WriteString(fmt.Sprintf("\n📈 **Today's Adherence:** %d%%\n", percentage))

	if percentage < 80 {
		b.WriteString("\n⚠️ *Your adherence is below 80%. Please try to take your medications as prescribed for better health outcomes.*")
	} else if percentage == 100 {
		b.WriteString("\n🎉 *Excellent! You've taken all your medications today.*")
	}

	return b.String(), nil
}

// WeeklyReview renders the Sunday adherence review for a user. Returns ""
// when the user has no active medications.
func (s *MedicationService) WeeklyReview(phone string) (string, error) {
	meds, err := s.store.GetActiveMedications(phone)
	if err != nil {
		return "", err
	}
	if len(meds) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("📅 *Weekly Medication Review*\n\n")

	overall := 0
	for _, med := range meds {
		score, err := s.AdherenceScore(med.MedicationID)
		if err != nil {
			return "", err
		}
		overall += score

		trend, err := s.AdherenceTrend(med.MedicationID)
		if err != nil {
			return "", err
		}
		trendIcon := "➡️"
		if trend > 0 {
			trendIcon = "📈"
		} else if trend < 0 {
			trendIcon = "📉"
		}

		b.WriteString(fmt.Sprintf("💊 **%s**\n   Adherence: %d%% %s\n\n", med.Name, score, trendIcon))
	}

	avg := int(math.Round(float64(overall) / float64(len(meds))))
	b.WriteString(fmt.Sprintf("📊 **Overall Adherence:** %d%%\n\n", avg))

	switch {
	case avg >= 90:
		b.WriteString("🌟 *Excellent adherence! Keep up the great work.*\n\n")
	case avg >= 80:
		b.WriteString("👍 *Good adherence, but there's room for improvement.*\n\n")
	default:
		b.WriteString("⚠️ *Your adherence needs attention. Consider setting more reminders or consulting your doctor.*\n\n")
	}

	b.WriteString("*Tips for better adherence:*\n")
	b.WriteString("• Set multiple reminder times\n")
	b.WriteString("• Use a pill organizer\n")
	b.WriteString("• Link medication to daily routines\n")
	b.WriteString("• Discuss concerns with your doctor")

	return b.String(), nil
}

// CompletionMessage renders the end-of-course notice.
func (s *MedicationService) CompletionMessage(med *models.Medication) string {
	return fmt.Sprintf("✅ *Medication Course Completed*\n\n"+
		"You have completed your course of %s. "+
		"If you need to continue this medication, please consult your doctor.", med.Name)
}

// HelpMessage lists the reminder reply commands.
func (s *MedicationService) HelpMessage() string {
	return "💊 *Medication Reminder Help*\n\n" +
		"*Available Commands:*\n" +
		"✅ \"TAKEN\" - Mark medication as taken\n" +
		"⏰ \"SNOOZE\" - Remind again in 15 minutes\n" +
		"❌ \"SKIP\" - Skip this dose\n" +
		"❓ \"INFO\" - Get medication information\n" +
		"📊 \"REPORT\" - Get adherence report\n" +
		"➕ \"ADD MED\" - Add new medication\n" +
		"📝 \"LIST MEDS\" - View all medications\n\n" +
		"*Need help?* Reply \"HELP\" for more options."
}

type clockTime struct {
	hour, minute int
}

func (c clockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.hour, c.minute)
}

func parseClockTime(value string) (clockTime, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return clockTime{}, fmt.Errorf("expected HH:MM")
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return clockTime{}, fmt.Errorf("invalid hour")
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return clockTime{}, fmt.Errorf("invalid minute")
	}
	return clockTime{hour: hour, minute: minute}, nil
}
