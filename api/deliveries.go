package api

import (
	"net/http"

	"github.com/fairlx/fanout/id"
)

func (h *Handler) listDeliveries(w http.ResponseWriter, r *http.Request) {
	whID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	limit := queryInt(r, "limit", 50)

	deliveries, listErr := h.dispatcher.Deliveries().Recent(r.Context(), whID, limit)
	if listErr != nil {
		writeError(w, http.StatusInternalServerError, listErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, deliveries)
}
