package api

import (
	"errors"
	"net/http"

	"github.com/fairlx/fanout"
	"github.com/fairlx/fanout/deadletter"
	"github.com/fairlx/fanout/id"
)

func (h *Handler) listDeadLetters(w http.ResponseWriter, r *http.Request) {
	opts := deadletter.ListOpts{
		Offset:    queryInt(r, "offset", 0),
		Limit:     queryInt(r, "limit", 50),
		ProjectID: queryParam(r, "project_id"),
	}

	if raw := queryParam(r, "webhook_id"); raw != "" {
		whID, err := id.ParseWebhookID(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid webhook ID")
			return
		}
		opts.WebhookID = &whID
	}

	entries, err := h.dispatcher.DeadLetters().List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) replayDeadLetter(w http.ResponseWriter, r *http.Request) {
	dlID, err := id.ParseDeadLetterID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dead letter ID")
		return
	}

	if replayErr := h.dispatcher.DeadLetters().Replay(r.Context(), dlID); replayErr != nil {
		switch {
		case errors.Is(replayErr, fanout.ErrDeadLetterNotFound):
			writeError(w, http.StatusNotFound, "dead letter not found")
		case errors.Is(replayErr, fanout.ErrWebhookNotFound):
			writeError(w, http.StatusConflict, "webhook no longer exists")
		case errors.Is(replayErr, fanout.ErrWebhookDisabled):
			writeError(w, http.StatusConflict, "webhook is disabled")
		default:
			writeError(w, http.StatusInternalServerError, replayErr.Error())
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
