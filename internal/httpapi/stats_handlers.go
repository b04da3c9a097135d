package httpapi

import (
	"database/sql"
	"net/http"
	"sync/atomic"

	"gradcafe-engine/internal/events"
	"gradcafe-engine/internal/store"
)

// StatsHandler serves the aggregate analysis block. Update recomputes it on
// demand; it refuses while a pull is running so the analysis never reflects
// a half-finished append window.
type StatsHandler struct {
	DB         *sql.DB
	PullStatus *atomic.Value // httpapi.PullStatus
	Hub        *events.Hub
}

func (h StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := store.ComputeStats(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, CodeStatsFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h StatsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if ps := h.PullStatus.Load().(PullStatus); ps.Running {
		WriteError(w, r, http.StatusConflict, CodePullRunning, "cannot update analysis while a pull is running")
		return
	}

	st, err := store.ComputeStats(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, CodeStatsFailed, err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.Make(reqID, events.TypeAnalysisUpdated, st))
	writeJSON(w, http.StatusOK, st)
}
