package services

import (
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Codexsur/AROGYAX/internal/models"
	"github.com/Codexsur/AROGYAX/internal/storage"
)

// sessionTTL is how long a session stays live without a new message.
const sessionTTL = 30 * time.Minute

const fallbackReply = "I apologize, something went wrong on my side. " +
	"Please try again, and if you have urgent health concerns, contact a healthcare professional or call 112."

// ConversationService orchestrates one inbound message end to end:
// session lookup, emergency screening, flow delegation, intent routing
// and outbound dispatch.
type ConversationService struct {
	store       storage.Store
	messenger   Messenger
	clock       Clock
	emergency   *EmergencyDetector
	assessment  *AssessmentEngine
	intents     *IntentRouter
	medications *MedicationService
	knowledge   *KnowledgeService
	translator  *TranslationService

	// userLocks serializes turns per phone number so overlapping webhook
	// deliveries cannot interleave a user's flow state.
	userLocks sync.Map

	mu             sync.Mutex
	generalCounter int

	stopSweep chan struct{}
}

// NewConversationService wires the orchestrator to its collaborators.
func NewConversationService(
	store storage.Store,
	messenger Messenger,
	clock Clock,
	emergency *EmergencyDetector,
	assessment *AssessmentEngine,
	intents *IntentRouter,
	medications *MedicationService,
	knowledge *KnowledgeService,
	translator *TranslationService,
) *ConversationService {
	return &ConversationService{
		store:       store,
		messenger:   messenger,
		clock:       clock,
		emergency:   emergency,
		assessment:  assessment,
		intents:     intents,
		medications: medications,
		knowledge:   knowledge,
		translator:  translator,
		stopSweep:   make(chan struct{}),
	}
}

// StartSessionSweeper launches the periodic cleanup of abandoned sessions.
func (c *ConversationService) StartSessionSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweepStaleSessions()
			case <-c.stopSweep:
				return
			}
		}
	}()
	log.Println("🧹 Session sweeper started")
}

// StopSessionSweeper halts the cleanup goroutine.
func (c *ConversationService) StopSessionSweeper() {
	close(c.stopSweep)
}

func (c *ConversationService) sweepStaleSessions() {
	cutoff := c.clock.Now().Add(-sessionTTL)
	stale, err := c.store.GetStaleSessions(cutoff)
	if err != nil {
		log.Printf("❌ Failed to list stale sessions: %v", err)
		return
	}
	for i := range stale {
		if err := c.store.DeactivateSession(stale[i].SessionID); err != nil {
			log.Printf("❌ Failed to deactivate session %s: %v", stale[i].SessionID, err)
		}
	}
	if len(stale) > 0 {
		log.Printf("🧹 Cleaned up %d stale sessions", len(stale))
	}
}

// ProcessInboundMessage handles one webhook-delivered message and sends
// the reply. Errors are logged, not returned to the webhook: carriers
// retry on failure status and the user would see duplicate replies.
func (c *ConversationService) ProcessInboundMessage(phone, text, channel string) {
	lock := c.lockFor(phone)
	lock.Lock()
	defer lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Turn panicked for %s: %v", phone, r)
			c.dispatch(phone, channel, nil, fallbackReply)
		}
	}()

	user, isNew, err := c.loadOrCreateUser(phone, channel, text)
	if err != nil {
		log.Printf("❌ Failed to load user %s: %v", phone, err)
		c.dispatch(phone, channel, nil, fallbackReply)
		return
	}

	session, err := c.loadOrCreateSession(user, channel)
	if err != nil {
		log.Printf("❌ Failed to load session for %s: %v", phone, err)
		c.dispatch(phone, channel, user, fallbackReply)
		return
	}

	reply := c.advance(user, session, text)

	user.AppendTurn(models.ConversationTurn{
		Inbound:   text,
		Outbound:  reply,
		Timestamp: c.clock.Now(),
	})
	user.LastActive = c.clock.Now()
	if err := c.store.UpdateUser(user); err != nil {
		log.Printf("❌ Failed to persist history for %s: %v", phone, err)
		c.dispatch(phone, channel, user, fallbackReply)
		return
	}

	session.LastInteraction = c.clock.Now()
	if err := c.store.UpdateSession(session); err != nil {
		log.Printf("❌ Failed to persist session for %s: %v", phone, err)
		c.dispatch(phone, channel, user, fallbackReply)
		return
	}

	if isNew {
		if welcome := c.welcomeMessage(user); welcome != reply {
			c.dispatch(phone, channel, user, welcome)
		}
	}
	c.dispatch(phone, channel, user, reply)

	TurnsProcessed.WithLabelValues(channel).Inc()
}

func (c *ConversationService) lockFor(phone string) *sync.Mutex {
	lock, _ := c.userLocks.LoadOrStore(phone, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (c *ConversationService) loadOrCreateUser(phone, channel, text string) (*models.User, bool, error) {
	user, err := c.store.GetUserByPhone(phone)
	if err == nil {
		return user, false, nil
	}

	user = &models.User{
		PhoneNumber:          phone,
		Channel:              channel,
		PreferredLanguage:    c.translator.DetectLanguage(text),
		NotificationsEnabled: true,
		EmergencyAlerts:      true,
		LastActive:           c.clock.Now(),
		IsActive:             true,
	}
	user, err = c.store.CreateUser(user)
	if err != nil {
		return nil, false, err
	}
	log.Printf("👤 New user registered: %s", user.PhoneNumber)
	return user, true, nil
}

// loadOrCreateSession returns the user's live session. Sessions idle past
// the TTL are deactivated and replaced so a half-finished flow from last
// week does not swallow today's first message.
func (c *ConversationService) loadOrCreateSession(user *models.User, channel string) (*models.ConversationSession, error) {
	session, err := c.store.GetActiveSession(user.PhoneNumber)
	if err == nil {
		if c.clock.Now().Sub(session.LastInteraction) <= sessionTTL {
			return session, nil
		}
		if err := c.store.DeactivateSession(session.SessionID); err != nil {
			return nil, err
		}
	}

	session = &models.ConversationSession{
		PhoneNumber:     user.PhoneNumber,
		Channel:         channel,
		LastInteraction: c.clock.Now(),
		IsActive:        true,
	}
	return c.store.CreateSession(session)
}

// advance runs one turn of the conversation state machine and returns the
// reply text. Flow state on the session is mutated; the caller persists.
func (c *ConversationService) advance(user *models.User, session *models.ConversationSession, text string) string {
	nlp := c.intents.Process(text)

	// Emergency screening runs before everything else and clears any
	// active flow when it fires.
	if result := c.emergency.Classify(text, nlp); result.IsEmergency {
		return c.handleEmergency(user, session, result)
	}

	// Reminder replies are matched against the due window before intent
	// routing so a bare "TAKEN" never lands in the general handler.
	if reply, handled := c.tryReminderReply(user, text); handled {
		return reply
	}

	if session.CurrentFlow != models.FlowNone {
		// An explicit switch to a different multi-turn concern restarts
		// routing; any other text is treated as a flow answer.
		if c.wantsDifferentFlow(session.CurrentFlow, nlp.Intent) {
			session.ResetFlow()
		} else {
			return c.continueFlow(user, session, text)
		}
	}

	return c.routeIntent(user, session, text, nlp)
}

func (c *ConversationService) handleEmergency(user *models.User, session *models.ConversationSession, result *EmergencyResult) string {
	session.ResetFlow()
	EmergenciesDetected.WithLabelValues(result.Level).Inc()
	log.Printf("🚨 Emergency detected for %s: level=%s score=%d", user.PhoneNumber, result.Level, result.Score)

	now := c.clock.Now()
	alert := &models.HealthAlert{
		PhoneNumber: user.PhoneNumber,
		AlertType:   models.AlertTypeEmergency,
		Severity:    result.Level,
		Message:     strings.Join(result.DetectedSymptoms, ", "),
		Status:      models.AlertStatusSent,
		SentTime:    &now,
	}
	if _, err := c.store.CreateAlert(alert); err != nil {
		log.Printf("❌ Failed to record emergency alert: %v", err)
	}

	if user.EmergencyAlerts {
		c.notifyEmergencyContacts(user, result)
	}

	return c.emergency.GenerateEmergencyResponse(result)
}

func (c *ConversationService) notifyEmergencyContacts(user *models.User, result *EmergencyResult) {
	for _, contact := range user.EmergencyContacts {
		message := "🚨 AROGYAX emergency alert: " + user.PhoneNumber +
			" reported symptoms that may need immediate medical attention (" +
			strings.Join(result.DetectedSymptoms, ", ") + "). Please check on them."
		if err := c.messenger.Send(contact.Phone, user.Channel, message); err != nil {
			DispatchFailures.Inc()
			log.Printf("❌ Failed to alert emergency contact %s: %v", contact.Phone, err)
		}
	}
}

// tryReminderReply routes TAKEN, SKIP, SNOOZE and INFO when a dose was
// due recently. Outside the window these words fall through to intents.
func (c *ConversationService) tryReminderReply(user *models.User, text string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(text))
	switch upper {
	case "TAKEN", "SKIP", "SNOOZE", "INFO":
	default:
		return "", false
	}

	med, err := c.medications.FindDueMedication(user.PhoneNumber)
	if err != nil {
		log.Printf("❌ Failed to find due medication for %s: %v", user.PhoneNumber, err)
		return "", false
	}
	if med == nil {
		return "", false
	}

	reply, err := c.medications.HandleReminderResponse(user.PhoneNumber, upper)
	if err != nil {
		log.Printf("❌ Failed to handle reminder reply for %s: %v", user.PhoneNumber, err)
		return fallbackReply, true
	}
	return reply, true
}

func (c *ConversationService) wantsDifferentFlow(currentFlow, intent string) bool {
	switch intent {
	case IntentSymptomAssessment:
		return currentFlow != models.FlowSymptomAssessment
	case IntentMedicationReminder:
		return currentFlow != models.FlowMedicationReminder
	default:
		return false
	}
}

func (c *ConversationService) continueFlow(user *models.User, session *models.ConversationSession, text string) string {
	switch session.CurrentFlow {
	case models.FlowSymptomAssessment:
		return c.continueAssessment(user, session, text)
	case models.FlowMedicationReminder:
		return c.continueMedicationSetup(user, session, text)
	default:
		session.ResetFlow()
		return c.routeIntent(user, session, text, c.intents.Process(text))
	}
}

func (c *ConversationService) continueAssessment(user *models.User, session *models.ConversationSession, text string) string {
	result := c.assessment.ProcessResponse(text, &session.FlowData)
	if !result.Completed {
		return result.Text
	}

	session.ResetFlow()
	AssessmentsCompleted.Inc()

	if result.Assessment != nil {
		user.Assessments = append(user.Assessments, models.AssessmentRecord{
			Type:      result.Assessment.Type,
			Severity:  result.Assessment.Severity,
			Urgency:   result.Assessment.Urgency,
			Timestamp: c.clock.Now(),
		})
	}

	if result.Emergency {
		now := c.clock.Now()
		alert := &models.HealthAlert{
			PhoneNumber: user.PhoneNumber,
			AlertType:   models.AlertTypeEmergency,
			Severity:    LevelUrgent,
			Message:     "emergency detected during symptom assessment",
			Status:      models.AlertStatusSent,
			SentTime:    &now,
		}
		if _, err := c.store.CreateAlert(alert); err != nil {
			log.Printf("❌ Failed to record assessment alert: %v", err)
		}
	}

	return result.Text
}

// Medication setup interview steps.
const (
	medStepName = iota
	medStepDosage
	medStepTimes
)

func (c *ConversationService) continueMedicationSetup(user *models.User, session *models.ConversationSession, text string) string {
	data := &session.FlowData
	answer := strings.TrimSpace(text)

	switch data.Step {
	case medStepName:
		if answer == "" {
			return "What is the name of the medicine?"
		}
		data.Responses["name"] = answer
		data.Step = medStepDosage
		return "What is the dosage? (e.g., 500mg, 1 tablet)"

	case medStepDosage:
		if answer == "" {
			return "Please tell me the dosage, e.g. 500mg or 1 tablet."
		}
		data.Responses["dosage"] = answer
		data.Step = medStepTimes
		return "At what times should I remind you? Reply with times in HH:MM format, separated by commas (e.g., 08:00, 20:00)."

	case medStepTimes:
		times := splitTimes(answer)
		if len(times) == 0 {
			return "I couldn't read those times. Please use HH:MM format, separated by commas (e.g., 08:00, 20:00)."
		}

		frequency := "daily"
		switch len(times) {
		case 2:
			frequency = "twice_daily"
		case 3:
			frequency = "thrice_daily"
		}

		_, confirmation, err := c.medications.AddMedication(user.PhoneNumber, MedicationInput{
			Name:      data.Responses["name"],
			Dosage:    data.Responses["dosage"],
			Frequency: frequency,
			Times:     times,
		})
		if err != nil {
			return "I couldn't save that medication: " + err.Error() + "\nPlease reply with the times again in HH:MM format."
		}

		session.ResetFlow()
		return confirmation
	}

	session.ResetFlow()
	return c.medications.HelpMessage()
}

func splitTimes(answer string) []string {
	var times []string
	for _, part := range strings.Split(answer, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := parseClockTime(part); err != nil {
			return nil
		}
		times = append(times, part)
	}
	return times
}

func (c *ConversationService) routeIntent(user *models.User, session *models.ConversationSession, text string, nlp *NLPResult) string {
	c.applyProfileEntities(user, nlp)

	// Short medication commands work outside the reminder window too.
	upper := strings.ToUpper(strings.TrimSpace(text))
	switch upper {
	case "ADD MED", "ADD MEDICATION", "ADD MEDICINE":
		session.StartFlow(models.FlowMedicationReminder)
		session.FlowData.Flow = "medication_setup"
		return "Let's set up a medication reminder. What is the name of the medicine?"
	case "LIST MEDS", "LIST MEDICATIONS", "MY MEDS":
		reply, err := c.medications.ListMedications(user.PhoneNumber)
		if err != nil {
			log.Printf("❌ Failed to list medications for %s: %v", user.PhoneNumber, err)
			return fallbackReply
		}
		return reply
	case "REPORT":
		reply, err := c.medications.DailyReport(user.PhoneNumber)
		if err != nil {
			log.Printf("❌ Failed to build report for %s: %v", user.PhoneNumber, err)
			return fallbackReply
		}
		if reply == "" {
			return "You have no active medications to report on. Reply \"ADD MED\" to set up a reminder."
		}
		return reply
	}
	if name, ok := strings.CutPrefix(upper, "REMOVE "); ok {
		reply, err := c.medications.RemoveMedication(user.PhoneNumber, strings.TrimSpace(name))
		if err != nil {
			log.Printf("❌ Failed to remove medication for %s: %v", user.PhoneNumber, err)
			return fallbackReply
		}
		return reply
	}

	switch nlp.Intent {
	case IntentSymptomAssessment:
		session.StartFlow(models.FlowSymptomAssessment)
		return c.assessment.FirstQuestion()

	case IntentMedicationReminder:
		session.StartFlow(models.FlowMedicationReminder)
		session.FlowData.Flow = "medication_setup"
		return "Let's set up a medication reminder. What is the name of the medicine?"

	case IntentHealthEducation:
		return c.knowledge.DiseaseInfo(text)

	case IntentHealthTips:
		return c.knowledge.PreventionTips(text)

	case IntentFacilitySearch:
		city := user.City
		for _, e := range nlp.Entities {
			if e.Type == "city" {
				city = e.Value
			}
		}
		return c.knowledge.FindFacilities(city)

	case IntentLanguageChange:
		return c.changeLanguage(user, text)

	case IntentDoctorConsultation:
		return "I can't book appointments yet, but you can:\n" +
			"• Visit your nearest Primary Health Center (PHC)\n" +
			"• Call 104 for free health advice (available in many states)\n" +
			"• Reply with your city name to find hospitals near you"

	case IntentGreeting:
		return c.welcomeMessage(user)

	case IntentProfileUpdate:
		return c.profileSummary(user)

	default:
		return c.generalResponse()
	}
}

// applyProfileEntities opportunistically fills profile fields from what
// the user said, so "I am 45 years old from Mumbai" sticks.
func (c *ConversationService) applyProfileEntities(user *models.User, nlp *NLPResult) {
	for _, e := range nlp.Entities {
		switch e.Type {
		case "age":
			if age, err := strconv.Atoi(e.Value); err == nil && user.Age == 0 {
				user.Age = age
			}
		case "gender":
			if user.Gender == "" {
				user.Gender = e.Value
			}
		case "city":
			if user.City == "" {
				user.City = e.Value
			}
		}
	}
}

func (c *ConversationService) changeLanguage(user *models.User, text string) string {
	normalized := strings.ToLower(text)
	for name := range languageCodes {
		if strings.Contains(normalized, name) {
			user.PreferredLanguage = name
			return "✅ Language preference updated to " + name + "."
		}
	}
	return "I support these languages: " + strings.Join(c.translator.SupportedLanguages(), ", ") +
		". Reply with the language name to switch."
}

func (c *ConversationService) welcomeMessage(user *models.User) string {
	greeting := c.translator.Translate("Hello! I'm your health assistant.", user.PreferredLanguage)
	return greeting + "\n\n" +
		"I can help you with:\n" +
		"🩺 Symptom assessment - reply \"I'm not feeling well\"\n" +
		"💊 Medication reminders - reply \"ADD MED\"\n" +
		"📚 Disease information - e.g. \"tell me about diabetes\"\n" +
		"🌟 Health tips - reply \"health tips\"\n" +
		"🏥 Find hospitals - e.g. \"hospital near Mumbai\"\n\n" +
		"For emergencies, call 112 immediately."
}

func (c *ConversationService) profileSummary(user *models.User) string {
	var b strings.Builder
	b.WriteString("👤 *Your Profile*\n\n")
	b.WriteString("📱 Phone: " + user.PhoneNumber + "\n")
	if user.Age > 0 {
		b.WriteString("🎂 Age: " + strconv.Itoa(user.Age) + "\n")
	}
	if user.Gender != "" {
		b.WriteString("⚧ Gender: " + user.Gender + "\n")
	}
	if user.City != "" {
		b.WriteString("🏙️ City: " + user.City + "\n")
	}
	b.WriteString("🗣️ Language: " + user.PreferredLanguage + "\n")
	if len(user.Conditions) > 0 {
		b.WriteString("🏥 Conditions: " + strings.Join(user.Conditions, ", ") + "\n")
	}
	b.WriteString("\nYou can update your profile by telling me, e.g. \"I am 45 years old from Mumbai\".")
	return b.String()
}

var generalResponses = []string{
	"Thank you for reaching out! I'm here to help with your health concerns.\n\n" +
		"I can assist you with:\n" +
		"• Symptom assessment and guidance\n" +
		"• Disease information and prevention\n" +
		"• Health tips for daily life\n" +
		"• Medication reminders\n" +
		"• Finding nearby healthcare facilities\n\n" +
		"What specific health topic would you like to discuss today?",

	"Namaste! I'm your health companion.\n\n" +
		"🏥 I provide evidence-based health information\n" +
		"🩺 I can help assess symptoms (not a replacement for doctor consultation)\n" +
		"💊 I can remind you to take your medicines\n" +
		"🌍 I support multiple Indian languages\n\n" +
		"Please share your specific health concern, and I'll do my best to help.",

	"Hello! I'm here to support your health journey.\n\n" +
		"For the best assistance, please tell me:\n" +
		"• Your specific symptoms or health concern\n" +
		"• Your age and location (for localized advice)\n" +
		"• How long you've been experiencing the issue\n\n" +
		"Remember: I provide general health information. For serious concerns, always consult a qualified healthcare professional.",
}

// generalResponse cycles through the canned fallbacks so repeated
// unclassified messages do not read identically.
func (c *ConversationService) generalResponse() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply := generalResponses[c.generalCounter%len(generalResponses)]
	c.generalCounter++
	return reply
}

// dispatch translates and sends one outbound message, counting failures.
func (c *ConversationService) dispatch(phone, channel string, user *models.User, message string) {
	if user != nil && user.PreferredLanguage != "" && user.PreferredLanguage != "english" {
		message = c.translator.Translate(message, user.PreferredLanguage)
	}
	if err := c.messenger.Send(phone, channel, message); err != nil {
		DispatchFailures.Inc()
		log.Printf("❌ Failed to send message to %s: %v", phone, err)
	}
}
