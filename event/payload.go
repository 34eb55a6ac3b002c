package event

import (
	"net/url"
	"time"

	"github.com/fairlx/fanout/project"
)

// Actor identifies the user whose action produced an event.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Fragment is the event-specific portion of a payload supplied by the
// domain-event producer. WorkItemID is the only required field; Extra
// carries arbitrary additional fields and is merged flat into the
// envelope's data object.
type Fragment struct {
	WorkItemID string
	Key        string
	Title      string
	Summary    string
	Link       string
	Actor      *Actor
	Extra      map[string]any
}

// data flattens the fragment into the envelope's data object.
func (f Fragment) data() map[string]any {
	d := make(map[string]any, 5+len(f.Extra))
	d["id"] = f.WorkItemID
	if f.Key != "" {
		d["key"] = f.Key
	}
	if f.Title != "" {
		d["title"] = f.Title
	}
	if f.Summary != "" {
		d["summary"] = f.Summary
	}
	if f.Link != "" {
		d["link"] = f.Link
	}
	for k, v := range f.Extra {
		d[k] = v
	}
	return d
}

// subject is the human-readable one-liner for the work item.
func (f Fragment) subject() string {
	switch {
	case f.Title != "":
		return f.Title
	case f.Summary != "":
		return f.Summary
	case f.Key != "":
		return f.Key
	default:
		return f.WorkItemID
	}
}

// reference is the short work-item identifier shown in embed fields.
func (f Fragment) reference() string {
	if f.Key != "" {
		return f.Key
	}
	return f.WorkItemID
}

// ProjectRef is the project metadata block inside the envelope.
type ProjectRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

// EmbedField is a single name/value pair inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedAuthor attributes an embed to the acting user.
type EmbedAuthor struct {
	Name string `json:"name"`
}

// EmbedFooter is the footer line of an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// EmbedThumbnail is the small image shown alongside an embed.
type EmbedThumbnail struct {
	URL string `json:"url"`
}

// Embed is a rich message block for Discord/Slack-style webhook consumers.
type Embed struct {
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Color       int             `json:"color"`
	Timestamp   time.Time       `json:"timestamp"`
	Footer      *EmbedFooter    `json:"footer,omitempty"`
	Author      *EmbedAuthor    `json:"author,omitempty"`
	Thumbnail   *EmbedThumbnail `json:"thumbnail,omitempty"`
	Fields      []EmbedField    `json:"fields,omitempty"`
}

// Payload is the wire envelope POSTed to every subscribed webhook. It is
// constructed once per dispatch and shared across recipients; only the
// per-delivery headers differ between them.
type Payload struct {
	Event     Type           `json:"event"`
	ProjectID string         `json:"project_id"`
	Timestamp time.Time      `json:"timestamp"`
	Content   string         `json:"content"`
	Project   ProjectRef     `json:"project"`
	Actor     *Actor         `json:"actor,omitempty"`
	Data      map[string]any `json:"data"`
	Embeds    []Embed        `json:"embeds,omitempty"`
}

// BuildPayload assembles the shared envelope for one dispatch call.
func BuildPayload(proj *project.Project, t Type, frag Fragment, now time.Time) *Payload {
	label := t.Label()
	content := "[" + proj.Name + "] " + label + ": " + frag.subject()

	embed := Embed{
		Title:       frag.subject(),
		Description: frag.Summary,
		Color:       t.Color(),
		Timestamp:   now,
		Footer:      &EmbedFooter{Text: "Fairlx"},
		Fields: []EmbedField{
			{Name: "Project", Value: proj.Name, Inline: true},
			{Name: "Work Item", Value: frag.reference(), Inline: true},
			{Name: "Event", Value: label, Inline: true},
		},
	}
	if frag.Actor != nil && frag.Actor.Name != "" {
		embed.Author = &EmbedAuthor{Name: frag.Actor.Name}
	}
	if isAbsoluteURL(proj.ImageURL) {
		embed.Thumbnail = &EmbedThumbnail{URL: proj.ImageURL}
	}

	return &Payload{
		Event:     t,
		ProjectID: proj.ID,
		Timestamp: now,
		Content:   content,
		Project:   ProjectRef{ID: proj.ID, Name: proj.Name, ImageURL: proj.ImageURL},
		Actor:     frag.Actor,
		Data:      frag.data(),
		Embeds:    []Embed{embed},
	}
}

func isAbsoluteURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}
