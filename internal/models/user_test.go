package models

import (
	"fmt"
	"testing"
	"time"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"9876543210", "+919876543210"},
		{"+919876543210", "+919876543210"},
		{"  9876543210  ", "+919876543210"},
		{"919876543210", "+919876543210"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAppendTurnEvictsOldest(t *testing.T) {
	u := &User{}

	for i := 0; i < MaxHistoryTurns+5; i++ {
		u.AppendTurn(ConversationTurn{
			Inbound:   fmt.Sprintf("message %d", i),
			Timestamp: time.Now(),
		})
	}

	if len(u.ConversationHistory) != MaxHistoryTurns {
		t.Fatalf("history = %d turns, want %d", len(u.ConversationHistory), MaxHistoryTurns)
	}
	if u.ConversationHistory[0].Inbound != "message 5" {
		t.Errorf("oldest turn = %q, want message 5", u.ConversationHistory[0].Inbound)
	}
	last := u.ConversationHistory[len(u.ConversationHistory)-1]
	if last.Inbound != fmt.Sprintf("message %d", MaxHistoryTurns+4) {
		t.Errorf("newest turn = %q", last.Inbound)
	}
}

func TestHasCondition(t *testing.T) {
	u := &User{Conditions: []string{"Diabetes", "Hypertension"}}

	if !u.HasCondition("diabetes") {
		t.Error("HasCondition should match case-insensitively")
	}
	if u.HasCondition("asthma") {
		t.Error("HasCondition matched an absent condition")
	}
}

func TestMedicationExpired(t *testing.T) {
	now := time.Now()

	open := &Medication{}
	if open.Expired(now) {
		t.Error("medication without an end date should not expire")
	}

	past := now.Add(-time.Hour)
	ended := &Medication{EndDate: &past}
	if !ended.Expired(now) {
		t.Error("medication past its end date should expire")
	}

	future := now.Add(time.Hour)
	running := &Medication{EndDate: &future}
	if running.Expired(now) {
		t.Error("medication before its end date should not expire")
	}
}

func TestSessionFlowTransitions(t *testing.T) {
	s := &ConversationSession{}

	s.StartFlow(FlowSymptomAssessment)
	if s.CurrentFlow != FlowSymptomAssessment {
		t.Errorf("current flow = %q", s.CurrentFlow)
	}
	if s.FlowData.Flow != "general" || s.FlowData.Step != 0 {
		t.Errorf("flow data = %+v", s.FlowData)
	}
	if s.FlowData.Responses == nil {
		t.Error("responses map not initialized")
	}

	s.FlowData.Responses["primary_concern"] = "Other symptoms"
	s.ResetFlow()
	if s.CurrentFlow != FlowNone {
		t.Errorf("flow after reset = %q", s.CurrentFlow)
	}
	if s.FlowData.Responses != nil {
		t.Error("flow data should be cleared on reset")
	}
}
