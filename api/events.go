package api

import (
	"fmt"
	"net/http"

	"github.com/fairlx/fanout/event"
)

type eventTypeResponse struct {
	Type  event.Type `json:"type"`
	Label string     `json:"label"`
	Color string     `json:"color"`
}

// listEventTypes returns the fixed event vocabulary, for building
// subscription pickers.
func (h *Handler) listEventTypes(w http.ResponseWriter, _ *http.Request) {
	all := event.All()
	result := make([]eventTypeResponse, len(all))
	for i, t := range all {
		result[i] = eventTypeResponse{
			Type:  t,
			Label: t.Label(),
			Color: fmt.Sprintf("#%06X", t.Color()),
		}
	}
	writeJSON(w, http.StatusOK, result)
}
