package event_test

import (
	"testing"

	"github.com/fairlx/fanout/event"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		in   event.Type
		want string
	}{
		{event.TaskCreated, "Task Created"},
		{event.StatusChanged, "Status Changed"},
		{event.DueDateChanged, "Due Date Changed"},
		{event.Mention, "Mention"},
		{event.ProjectUpdated, "Project Updated"},
	}
	for _, tt := range tests {
		if got := tt.in.Label(); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestColorMapped(t *testing.T) {
	if event.TaskCreated.Color() != 0x2ECC71 {
		t.Errorf("TaskCreated color = %#x, want %#x", event.TaskCreated.Color(), 0x2ECC71)
	}
	if event.TaskDeleted.Color() != 0xE74C3C {
		t.Errorf("TaskDeleted color = %#x, want %#x", event.TaskDeleted.Color(), 0xE74C3C)
	}
}

func TestColorFallback(t *testing.T) {
	if got := event.Type("NO_SUCH_EVENT").Color(); got != 0x708090 {
		t.Errorf("unknown type color = %#x, want slate %#x", got, 0x708090)
	}
}

func TestValid(t *testing.T) {
	for _, known := range event.All() {
		if !event.Valid(known) {
			t.Errorf("Valid(%q) = false, want true", known)
		}
	}
	if event.Valid("TASK_EXPLODED") {
		t.Error("Valid accepted an unknown type")
	}
	if event.Valid("task_created") {
		t.Error("Valid accepted a lowercase variant; the vocabulary is case-sensitive")
	}
}

func TestAllCount(t *testing.T) {
	if got := len(event.All()); got != 17 {
		t.Errorf("All() returned %d types, want 17", got)
	}
}
