package api

import (
	"net/http"
)

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dispatcher.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
