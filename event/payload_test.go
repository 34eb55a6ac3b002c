package event_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/project"
)

func testProject() *project.Project {
	return &project.Project{
		ID:       "proj-1",
		Name:     "Apollo",
		ImageURL: "https://cdn.example.com/apollo.png",
	}
}

func TestBuildPayloadContent(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	frag := event.Fragment{
		WorkItemID: "wi-42",
		Key:        "APO-42",
		Title:      "Fix the heat shield",
	}

	p := event.BuildPayload(testProject(), event.TaskCompleted, frag, now)

	want := "[Apollo] Task Completed: Fix the heat shield"
	if p.Content != want {
		t.Errorf("content = %q, want %q", p.Content, want)
	}
	if p.Event != event.TaskCompleted {
		t.Errorf("event = %q", p.Event)
	}
	if p.ProjectID != "proj-1" {
		t.Errorf("project_id = %q", p.ProjectID)
	}
	if !p.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", p.Timestamp, now)
	}
}

func TestBuildPayloadEmbed(t *testing.T) {
	now := time.Now().UTC()
	frag := event.Fragment{
		WorkItemID: "wi-1",
		Key:        "APO-1",
		Title:      "Launch checklist",
		Summary:    "Step through the full launch checklist",
		Actor:      &event.Actor{ID: "u-1", Name: "margaret"},
	}

	p := event.BuildPayload(testProject(), event.TaskCreated, frag, now)

	if len(p.Embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(p.Embeds))
	}
	e := p.Embeds[0]

	if e.Color != event.TaskCreated.Color() {
		t.Errorf("embed color = %#x", e.Color)
	}
	if e.Footer == nil || e.Footer.Text != "Fairlx" {
		t.Error("embed footer should be Fairlx")
	}
	if e.Author == nil || e.Author.Name != "margaret" {
		t.Error("embed author should carry the actor name")
	}
	if e.Thumbnail == nil || e.Thumbnail.URL != "https://cdn.example.com/apollo.png" {
		t.Error("embed thumbnail should carry the project image")
	}

	if len(e.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(e.Fields))
	}
	if e.Fields[1].Name != "Work Item" || e.Fields[1].Value != "APO-1" {
		t.Errorf("work item field = %+v", e.Fields[1])
	}
}

func TestBuildPayloadNoThumbnailForRelativeURL(t *testing.T) {
	proj := testProject()
	proj.ImageURL = "/static/apollo.png"

	p := event.BuildPayload(proj, event.TaskCreated, event.Fragment{WorkItemID: "wi-1"}, time.Now())

	if p.Embeds[0].Thumbnail != nil {
		t.Error("relative image URLs must not become thumbnails")
	}
}

func TestBuildPayloadSubjectFallbacks(t *testing.T) {
	tests := []struct {
		name string
		frag event.Fragment
		want string
	}{
		{"title wins", event.Fragment{WorkItemID: "w", Key: "K-1", Title: "T", Summary: "S"}, "T"},
		{"summary next", event.Fragment{WorkItemID: "w", Key: "K-1", Summary: "S"}, "S"},
		{"key next", event.Fragment{WorkItemID: "w", Key: "K-1"}, "K-1"},
		{"id last", event.Fragment{WorkItemID: "w"}, "w"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := event.BuildPayload(testProject(), event.TaskUpdated, tt.frag, time.Now())
			want := "[Apollo] Task Updated: " + tt.want
			if p.Content != want {
				t.Errorf("content = %q, want %q", p.Content, want)
			}
		})
	}
}

func TestBuildPayloadDataFlattensExtra(t *testing.T) {
	frag := event.Fragment{
		WorkItemID: "wi-9",
		Key:        "APO-9",
		Extra: map[string]any{
			"old_status": "IN_PROGRESS",
			"new_status": "DONE",
		},
	}

	p := event.BuildPayload(testProject(), event.StatusChanged, frag, time.Now())

	if p.Data["id"] != "wi-9" {
		t.Errorf("data.id = %v", p.Data["id"])
	}
	if p.Data["old_status"] != "IN_PROGRESS" || p.Data["new_status"] != "DONE" {
		t.Errorf("extra fields not flattened: %v", p.Data)
	}
	if _, ok := p.Data["title"]; ok {
		t.Error("empty title should be omitted from data")
	}
}

func TestPayloadSerializesStable(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	frag := event.Fragment{WorkItemID: "wi-1", Key: "K-1", Title: "Stable"}

	p := event.BuildPayload(testProject(), event.TaskCreated, frag, now)

	a, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("payload serialization should be stable for the same envelope")
	}
}
