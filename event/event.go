// Package event defines the fixed vocabulary of Fairlx domain events and the
// wire envelope delivered to webhook subscribers.
package event

import "strings"

// Type is an event type name from the fixed Fairlx vocabulary.
type Type string

// All event types producers may dispatch. The set is closed: webhooks
// subscribe to members of this enumeration, not to arbitrary patterns.
const (
	TaskCreated       Type = "TASK_CREATED"
	TaskUpdated       Type = "TASK_UPDATED"
	TaskCompleted     Type = "TASK_COMPLETED"
	TaskDeleted       Type = "TASK_DELETED"
	TaskAssigned      Type = "TASK_ASSIGNED"
	TaskUnassigned    Type = "TASK_UNASSIGNED"
	StatusChanged     Type = "STATUS_CHANGED"
	PriorityChanged   Type = "PRIORITY_CHANGED"
	DueDateChanged    Type = "DUE_DATE_CHANGED"
	CommentAdded      Type = "COMMENT_ADDED"
	ReplyAdded        Type = "REPLY_ADDED"
	Mention           Type = "MENTION"
	AttachmentAdded   Type = "ATTACHMENT_ADDED"
	AttachmentDeleted Type = "ATTACHMENT_DELETED"
	MemberAdded       Type = "MEMBER_ADDED"
	MemberRemoved     Type = "MEMBER_REMOVED"
	ProjectUpdated    Type = "PROJECT_UPDATED"
)

// All returns every event type in the vocabulary.
func All() []Type {
	return []Type{
		TaskCreated, TaskUpdated, TaskCompleted, TaskDeleted,
		TaskAssigned, TaskUnassigned,
		StatusChanged, PriorityChanged, DueDateChanged,
		CommentAdded, ReplyAdded, Mention,
		AttachmentAdded, AttachmentDeleted,
		MemberAdded, MemberRemoved,
		ProjectUpdated,
	}
}

// Valid reports whether t is a member of the vocabulary.
func Valid(t Type) bool {
	for _, known := range All() {
		if t == known {
			return true
		}
	}
	return false
}

// Label returns the human-readable form of an event type:
// "STATUS_CHANGED" becomes "Status Changed".
func (t Type) Label() string {
	words := strings.Split(strings.ToLower(string(t)), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Embed accent colors, 24-bit RGB as used by Discord/Slack-style receivers.
const (
	colorGreen  = 0x2ECC71
	colorBlue   = 0x3498DB
	colorTeal   = 0x1ABC9C
	colorRed    = 0xE74C3C
	colorOrange = 0xE67E22
	colorYellow = 0xF1C40F
	colorPurple = 0x9B59B6
	colorSlate  = 0x708090
)

var colors = map[Type]int{
	TaskCreated:       colorGreen,
	TaskUpdated:       colorBlue,
	TaskCompleted:     colorTeal,
	TaskDeleted:       colorRed,
	TaskAssigned:      colorPurple,
	TaskUnassigned:    colorPurple,
	StatusChanged:     colorYellow,
	PriorityChanged:   colorOrange,
	DueDateChanged:    colorOrange,
	CommentAdded:      colorBlue,
	ReplyAdded:        colorBlue,
	Mention:           colorPurple,
	AttachmentAdded:   colorTeal,
	AttachmentDeleted: colorRed,
	MemberAdded:       colorGreen,
	MemberRemoved:     colorRed,
	ProjectUpdated:    colorBlue,
}

// Color returns the deterministic embed color for an event type.
// Unmapped types fall back to slate.
func (t Type) Color() int {
	if c, ok := colors[t]; ok {
		return c
	}
	return colorSlate
}
