package bunstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/fairlx/fanout/deadletter"
	"github.com/fairlx/fanout/delivery"
	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/internal/entity"
	"github.com/fairlx/fanout/project"
	"github.com/fairlx/fanout/webhook"
)

// --- Webhook models ---

// Events are stored as a JSON-encoded string column so the same model works
// on Postgres and SQLite.
type webhookModel struct {
	bun.BaseModel `bun:"table:fanout_webhooks"`

	ID              string     `bun:"id,pk"`
	ProjectID       string     `bun:"project_id,notnull"`
	CreatedBy       string     `bun:"created_by"`
	Name            string     `bun:"name"`
	URL             string     `bun:"url,notnull"`
	Secret          string     `bun:"secret"`
	Events          string     `bun:"events,notnull"`
	Enabled         bool       `bun:"enabled"`
	RateLimit       int        `bun:"rate_limit"`
	LastTriggeredAt *time.Time `bun:"last_triggered_at"`
	CreatedAt       time.Time  `bun:"created_at,notnull"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull"`
}

func toWebhookModel(w *webhook.Webhook) (*webhookModel, error) {
	events, err := json.Marshal(w.Events)
	if err != nil {
		return nil, fmt.Errorf("marshal events: %w", err)
	}
	return &webhookModel{
		ID:              w.ID.String(),
		ProjectID:       w.ProjectID,
		CreatedBy:       w.CreatedBy,
		Name:            w.Name,
		URL:             w.URL,
		Secret:          w.Secret,
		Events:          string(events),
		Enabled:         w.Enabled,
		RateLimit:       w.RateLimit,
		LastTriggeredAt: w.LastTriggeredAt,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}, nil
}

func fromWebhookModel(m *webhookModel) (*webhook.Webhook, error) {
	whID, err := id.ParseWebhookID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.ID, err)
	}
	var events []event.Type
	if err := json.Unmarshal([]byte(m.Events), &events); err != nil {
		return nil, fmt.Errorf("unmarshal events for webhook %q: %w", m.ID, err)
	}
	return &webhook.Webhook{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:              whID,
		ProjectID:       m.ProjectID,
		CreatedBy:       m.CreatedBy,
		Name:            m.Name,
		URL:             m.URL,
		Secret:          m.Secret,
		Events:          events,
		Enabled:         m.Enabled,
		RateLimit:       m.RateLimit,
		LastTriggeredAt: m.LastTriggeredAt,
	}, nil
}

// --- Project models ---

type projectModel struct {
	bun.BaseModel `bun:"table:fanout_projects"`

	ID       string `bun:"id,pk"`
	Name     string `bun:"name,notnull"`
	ImageURL string `bun:"image_url"`
}

func toProjectModel(p *project.Project) *projectModel {
	return &projectModel{
		ID:       p.ID,
		Name:     p.Name,
		ImageURL: p.ImageURL,
	}
}

func fromProjectModel(m *projectModel) *project.Project {
	return &project.Project{
		ID:       m.ID,
		Name:     m.Name,
		ImageURL: m.ImageURL,
	}
}

// --- Delivery models ---

type deliveryModel struct {
	bun.BaseModel `bun:"table:fanout_deliveries"`

	ID           string    `bun:"id,pk"`
	WebhookID    string    `bun:"webhook_id,notnull"`
	Event        string    `bun:"event,notnull"`
	Payload      []byte    `bun:"payload"`
	Status       string    `bun:"status,notnull"`
	ResponseCode int       `bun:"response_code"`
	ResponseBody string    `bun:"response_body"`
	Attempt      int       `bun:"attempt,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func toDeliveryModel(d *delivery.Delivery) *deliveryModel {
	return &deliveryModel{
		ID:           d.ID.String(),
		WebhookID:    d.WebhookID.String(),
		Event:        string(d.Event),
		Payload:      d.Payload,
		Status:       string(d.Status),
		ResponseCode: d.ResponseCode,
		ResponseBody: d.ResponseBody,
		Attempt:      d.Attempt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func fromDeliveryModel(m *deliveryModel) (*delivery.Delivery, error) {
	delID, err := id.ParseDeliveryID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse delivery ID %q: %w", m.ID, err)
	}
	whID, err := id.ParseWebhookID(m.WebhookID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.WebhookID, err)
	}
	return &delivery.Delivery{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           delID,
		WebhookID:    whID,
		Event:        event.Type(m.Event),
		Payload:      m.Payload,
		Status:       delivery.Status(m.Status),
		ResponseCode: m.ResponseCode,
		ResponseBody: m.ResponseBody,
		Attempt:      m.Attempt,
	}, nil
}

// --- Dead letter models ---

type deadLetterModel struct {
	bun.BaseModel `bun:"table:fanout_dead_letters"`

	ID             string    `bun:"id,pk"`
	WebhookID      string    `bun:"webhook_id,notnull"`
	ProjectID      string    `bun:"project_id,notnull"`
	Event          string    `bun:"event,notnull"`
	Payload        []byte    `bun:"payload"`
	Error          string    `bun:"error"`
	LastStatusCode int       `bun:"last_status_code"`
	AttemptCount   int       `bun:"attempt_count,notnull"`
	FailedAt       time.Time `bun:"failed_at,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

func toDeadLetterModel(e *deadletter.Entry) *deadLetterModel {
	return &deadLetterModel{
		ID:             e.ID.String(),
		WebhookID:      e.WebhookID.String(),
		ProjectID:      e.ProjectID,
		Event:          string(e.Event),
		Payload:        e.Payload,
		Error:          e.Error,
		LastStatusCode: e.LastStatusCode,
		AttemptCount:   e.AttemptCount,
		FailedAt:       e.FailedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func fromDeadLetterModel(m *deadLetterModel) (*deadletter.Entry, error) {
	dlID, err := id.ParseDeadLetterID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse dead letter ID %q: %w", m.ID, err)
	}
	whID, err := id.ParseWebhookID(m.WebhookID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.WebhookID, err)
	}
	return &deadletter.Entry{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             dlID,
		WebhookID:      whID,
		ProjectID:      m.ProjectID,
		Event:          event.Type(m.Event),
		Payload:        m.Payload,
		Error:          m.Error,
		LastStatusCode: m.LastStatusCode,
		AttemptCount:   m.AttemptCount,
		FailedAt:       m.FailedAt,
	}, nil
}
