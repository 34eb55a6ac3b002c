package webhook

import (
	"context"
	"log/slog"

	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/internal/entity"
	"github.com/fairlx/fanout/signature"
)

// Service provides webhook registration management. It performs input
// validation only; authorization is the caller's responsibility.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new webhook service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Create registers a new webhook. Enabled defaults to true.
func (svc *Service) Create(ctx context.Context, in Input) (*Webhook, error) {
	if in.ProjectID == "" {
		return nil, &ValidationError{Field: "project_id", Message: "required"}
	}
	if err := ValidateURL(in.URL); err != nil {
		return nil, err
	}
	if err := validateEvents(in.Events); err != nil {
		return nil, err
	}

	w := &Webhook{
		Entity:    entity.New(),
		ID:        id.NewWebhookID(),
		ProjectID: in.ProjectID,
		CreatedBy: in.CreatedBy,
		Name:      in.Name,
		URL:       in.URL,
		Secret:    in.Secret,
		Events:    in.Events,
		Enabled:   true,
		RateLimit: in.RateLimit,
	}

	if err := svc.store.CreateWebhook(ctx, w); err != nil {
		return nil, err
	}

	return w, nil
}

// Get returns a registration by ID.
func (svc *Service) Get(ctx context.Context, whID id.ID) (*Webhook, error) {
	return svc.store.GetWebhook(ctx, whID)
}

// Update applies a partial update. Zero-valued input fields are ignored.
func (svc *Service) Update(ctx context.Context, whID id.ID, in Input) (*Webhook, error) {
	w, err := svc.store.GetWebhook(ctx, whID)
	if err != nil {
		return nil, err
	}

	if in.URL != "" {
		if err := ValidateURL(in.URL); err != nil {
			return nil, err
		}
		w.URL = in.URL
	}
	if in.Name != "" {
		w.Name = in.Name
	}
	if in.Secret != "" {
		w.Secret = in.Secret
	}
	if in.Events != nil {
		if err := validateEvents(in.Events); err != nil {
			return nil, err
		}
		w.Events = in.Events
	}
	if in.RateLimit > 0 {
		w.RateLimit = in.RateLimit
	}

	if err := svc.store.UpdateWebhook(ctx, w); err != nil {
		return nil, err
	}

	return w, nil
}

// Delete removes a registration. Delivery history is kept.
func (svc *Service) Delete(ctx context.Context, whID id.ID) error {
	return svc.store.DeleteWebhook(ctx, whID)
}

// List returns a project's registrations, newest first.
func (svc *Service) List(ctx context.Context, projectID string, opts ListOpts) ([]*Webhook, error) {
	return svc.store.ListWebhooks(ctx, projectID, opts)
}

// SetEnabled enables or disables a webhook.
func (svc *Service) SetEnabled(ctx context.Context, whID id.ID, enabled bool) error {
	return svc.store.SetEnabled(ctx, whID, enabled)
}

// RotateSecret generates a new signing secret and returns it. This is the
// only time the plaintext secret is handed back to the caller.
func (svc *Service) RotateSecret(ctx context.Context, whID id.ID) (string, error) {
	w, err := svc.store.GetWebhook(ctx, whID)
	if err != nil {
		return "", err
	}

	newSecret := signature.GenerateSecret()

	w.Secret = newSecret
	if err := svc.store.UpdateWebhook(ctx, w); err != nil {
		return "", err
	}

	return newSecret, nil
}

func validateEvents(events []event.Type) error {
	if len(events) == 0 {
		return &ValidationError{Field: "events", Message: "at least one event type required"}
	}
	for _, t := range events {
		if !event.Valid(t) {
			return &ValidationError{Field: "events", Message: "unknown event type " + string(t)}
		}
	}
	return nil
}
