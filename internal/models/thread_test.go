package models

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNewThreadID(t *testing.T) {
	now := time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC)
	id := NewThreadID(now)

	if !strings.HasPrefix(id, "20260901153000-") {
		t.Errorf("id = %q, want timestamp prefix", id)
	}
	if len(id) != len("20260901153000-")+8 {
		t.Errorf("id = %q, want 8-char random suffix", id)
	}
	if id == NewThreadID(now) {
		t.Error("two ids from the same instant must differ")
	}
}

func TestRecentAssistantTexts(t *testing.T) {
	thread := NewThread("u1")
	thread.Append(RoleAssistant, "a1")
	thread.Append(RoleUser, "u sees this not")
	thread.Append(RoleAssistant, "a2")
	thread.Append(RoleAssistant, "a3")

	got := thread.RecentAssistantTexts(2)
	want := []string{"a3", "a2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RecentAssistantTexts = %v, want %v", got, want)
	}
}

func TestRecentTranscript(t *testing.T) {
	thread := NewThread("u1")
	for _, text := range []string{"one", "two", "three"} {
		thread.Append(RoleUser, text)
	}

	got := thread.RecentTranscript(2)
	if len(got) != 2 || got[0].Text != "two" {
		t.Errorf("RecentTranscript(2) = %v", got)
	}
	if len(thread.RecentTranscript(10)) != 3 {
		t.Error("window larger than transcript should return everything")
	}
}

func TestThreadClone(t *testing.T) {
	thread := NewThread("u1")
	thread.Append(RoleUser, "hello")
	thread.Ledger.Add("headache", NewMatcher(nil))
	thread.Medications["Aspirin"] = MedicationLabel{DrugName: "Aspirin"}
	thread.PendingFields = []string{FieldSeverity}

	c := thread.Clone()
	c.Append(RoleAssistant, "hi")
	c.Ledger.Add("nausea", NewMatcher(nil))
	c.Medications["Ibuprofen"] = MedicationLabel{DrugName: "Ibuprofen"}
	c.PendingFields[0] = FieldTriggers

	if len(thread.Transcript) != 1 {
		t.Error("clone transcript mutation leaked")
	}
	if len(thread.Ledger.Order) != 1 {
		t.Error("clone ledger mutation leaked")
	}
	if len(thread.Medications) != 1 {
		t.Error("clone medications mutation leaked")
	}
	if thread.PendingFields[0] != FieldSeverity {
		t.Error("clone pending fields mutation leaked")
	}
}
