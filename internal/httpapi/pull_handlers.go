package httpapi

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"gradcafe-engine/internal/config"
	"gradcafe-engine/internal/events"
)

// PullHandler drives the "pull data" action, manual or scheduled. One pull
// at a time across both paths; the actual pipeline run is injected via
// Deps.RunPull.
type PullHandler struct {
	CfgVal     *atomic.Value // config.Config
	PullStatus *atomic.Value // httpapi.PullStatus
	Hub        *events.Hub
	RunPull    func(ctx context.Context, cfg config.Config, onAppended func()) (int, error)
}

func (h PullHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.PullStatus.Load().(PullStatus)
	writeJSON(w, http.StatusOK, st)
}

// tryBegin flips the running flag, or reports false when a pull already
// holds it. CompareAndSwap closes the window between looking and flipping.
func (h PullHandler) tryBegin() bool {
	for {
		st := h.PullStatus.Load().(PullStatus)
		if st.Running {
			return false
		}
		next := st
		next.Running = true
		next.LastRunAt = time.Now().Format(time.RFC3339)
		if h.PullStatus.CompareAndSwap(st, next) {
			return true
		}
	}
}

func (h PullHandler) finish(reqID string, added int, err error) {
	now := time.Now().Format(time.RFC3339)
	for {
		st := h.PullStatus.Load().(PullStatus)
		next := st
		next.Running = false
		next.LastRunAt = now
		next.LastAdded = added
		if err != nil {
			next.LastError = err.Error()
		} else {
			next.LastError = ""
			next.LastOkAt = now
		}
		if h.PullStatus.CompareAndSwap(st, next) {
			break
		}
	}

	h.Hub.Publish(events.Make(reqID, events.TypePullFinished, map[string]any{
		"added": added,
		"ok":    err == nil,
	}))
}

func (h PullHandler) pull(ctx context.Context, reqID string) (int, error) {
	cfg := h.CfgVal.Load().(config.Config)
	added, err := h.RunPull(ctx, cfg, func() {
		h.Hub.Publish(events.Make(reqID, events.TypeRecordAppended, nil))
	})
	h.finish(reqID, added, err)
	return added, err
}

func (h PullHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.tryBegin() {
		WriteError(w, r, http.StatusConflict, CodePullRunning, "a pull is already running")
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.Make(reqID, events.TypePullStarted, nil))

	go func() {
		_, _ = h.pull(context.Background(), reqID)
	}()

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// RunScheduled is the periodic-timer entry point. It shares the running
// flag with POST /pull, so while a scheduled pull runs, manual pulls and
// analysis updates are refused just as they would be mid-manual-pull. When
// a manual pull is already in flight the tick is skipped.
func (h PullHandler) RunScheduled(ctx context.Context) error {
	if !h.tryBegin() {
		return nil
	}
	h.Hub.Publish(events.Make("", events.TypePullStarted, nil))
	_, err := h.pull(ctx, "")
	return err
}
