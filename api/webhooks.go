package api

import (
	"errors"
	"net/http"

	"github.com/fairlx/fanout"
	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/webhook"
)

type createWebhookRequest struct {
	Name      string       `json:"name"`
	URL       string       `json:"url"`
	Secret    string       `json:"secret,omitempty"`
	Events    []event.Type `json:"events"`
	RateLimit int          `json:"rate_limit,omitempty"`
	CreatedBy string       `json:"created_by,omitempty"`
}

type updateWebhookRequest struct {
	Name      string       `json:"name"`
	URL       string       `json:"url"`
	Secret    string       `json:"secret,omitempty"`
	Events    []event.Type `json:"events"`
	RateLimit int          `json:"rate_limit,omitempty"`
}

func (h *Handler) createWebhook(w http.ResponseWriter, r *http.Request) {
	var req createWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := webhook.Input{
		ProjectID: r.PathValue("projectID"),
		CreatedBy: req.CreatedBy,
		Name:      req.Name,
		URL:       req.URL,
		Secret:    req.Secret,
		Events:    req.Events,
		RateLimit: req.RateLimit,
	}

	wh, err := h.dispatcher.Webhooks().Create(r.Context(), input)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, wh)
}

func (h *Handler) listWebhooks(w http.ResponseWriter, r *http.Request) {
	opts := webhook.ListOpts{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 50),
	}

	hooks, err := h.dispatcher.Webhooks().List(r.Context(), r.PathValue("projectID"), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, hooks)
}

func (h *Handler) getWebhook(w http.ResponseWriter, r *http.Request) {
	whID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	wh, getErr := h.dispatcher.Webhooks().Get(r.Context(), whID)
	if getErr != nil {
		if errors.Is(getErr, fanout.ErrWebhookNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, getErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, wh)
}

func (h *Handler) updateWebhook(w http.ResponseWriter, r *http.Request) {
	whID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	var req updateWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := webhook.Input{
		Name:      req.Name,
		URL:       req.URL,
		Secret:    req.Secret,
		Events:    req.Events,
		RateLimit: req.RateLimit,
	}

	wh, updateErr := h.dispatcher.Webhooks().Update(r.Context(), whID, input)
	if updateErr != nil {
		if errors.Is(updateErr, fanout.ErrWebhookNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		var verr *webhook.ValidationError
		if errors.As(updateErr, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, updateErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, wh)
}

func (h *Handler) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	whID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	if deleteErr := h.dispatcher.Webhooks().Delete(r.Context(), whID); deleteErr != nil {
		if errors.Is(deleteErr, fanout.ErrWebhookNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, deleteErr.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) enableWebhook(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, true)
}

func (h *Handler) disableWebhook(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, false)
}

func (h *Handler) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	whID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	if setErr := h.dispatcher.Webhooks().SetEnabled(r.Context(), whID, enabled); setErr != nil {
		if errors.Is(setErr, fanout.ErrWebhookNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, setErr.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rotateSecret(w http.ResponseWriter, r *http.Request) {
	whID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	newSecret, rotateErr := h.dispatcher.Webhooks().RotateSecret(r.Context(), whID)
	if rotateErr != nil {
		if errors.Is(rotateErr, fanout.ErrWebhookNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, rotateErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"secret": newSecret})
}

func (h *Handler) testWebhook(w http.ResponseWriter, r *http.Request) {
	whID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	ok, testErr := h.dispatcher.Test(r.Context(), whID)
	if testErr != nil {
		if errors.Is(testErr, fanout.ErrWebhookNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, testErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"delivered": ok})
}
