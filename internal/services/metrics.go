package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsProcessed counts inbound messages fully handled, by channel.
	TurnsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arogyax_turns_processed_total",
		Help: "Inbound conversation turns processed",
	}, []string{"channel"})

	// EmergenciesDetected counts emergency classifications, by level.
	EmergenciesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arogyax_emergencies_detected_total",
		Help: "Messages classified as emergencies",
	}, []string{"level"})

	// RemindersSent counts medication reminders dispatched.
	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arogyax_reminders_sent_total",
		Help: "Medication reminders dispatched",
	})

	// DispatchFailures counts outbound messages that could not be sent.
	DispatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arogyax_dispatch_failures_total",
		Help: "Outbound message dispatch failures",
	})

	// AssessmentsCompleted counts finished symptom interviews.
	AssessmentsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arogyax_assessments_completed_total",
		Help: "Symptom assessments run to completion",
	})
)
