package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradcafe-engine/internal/config"
	"gradcafe-engine/internal/events"
	"gradcafe-engine/internal/store"
)

func testDeps(t *testing.T, runPull func(context.Context, config.Config, func()) (int, error)) Deps {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, store.Migrate(db))

	var cfgVal, pullStatus atomic.Value
	cfgVal.Store(config.Config{})
	pullStatus.Store(PullStatus{})

	return Deps{
		DB:         db,
		Hub:        events.NewHub(),
		CfgVal:     &cfgVal,
		PullStatus: &pullStatus,
		RunPull:    runPull,
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func errCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestPullRun_HappyPath(t *testing.T) {
	done := make(chan struct{})
	deps := testDeps(t, func(_ context.Context, _ config.Config, onAppended func()) (int, error) {
		defer close(done)
		onAppended()
		onAppended()
		return 2, nil
	})
	mux := NewMux(deps)

	rec, body := doJSON(t, mux, http.MethodPost, "/pull")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pull never ran")
	}

	require.Eventually(t, func() bool {
		st := deps.PullStatus.Load().(PullStatus)
		return !st.Running
	}, 2*time.Second, 10*time.Millisecond)

	st := deps.PullStatus.Load().(PullStatus)
	assert.Equal(t, 2, st.LastAdded)
	assert.Empty(t, st.LastError)
	assert.NotEmpty(t, st.LastOkAt)
}

func TestPullRun_ConflictWhileRunning(t *testing.T) {
	release := make(chan struct{})
	deps := testDeps(t, func(_ context.Context, _ config.Config, _ func()) (int, error) {
		<-release
		return 0, nil
	})
	mux := NewMux(deps)

	rec, _ := doJSON(t, mux, http.MethodPost, "/pull")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := doJSON(t, mux, http.MethodPost, "/pull")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "pull_running", errCode(body))

	// analysis refresh is also refused mid-pull
	rec, body = doJSON(t, mux, http.MethodPost, "/analysis")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "pull_running", errCode(body))

	close(release)
	require.Eventually(t, func() bool {
		return !deps.PullStatus.Load().(PullStatus).Running
	}, 2*time.Second, 10*time.Millisecond)
}

func pullHandlerFrom(d Deps) PullHandler {
	return PullHandler{
		CfgVal:     d.CfgVal,
		PullStatus: d.PullStatus,
		Hub:        d.Hub,
		RunPull:    d.RunPull,
	}
}

func TestRunScheduled_SharesGateWithManualPull(t *testing.T) {
	release := make(chan struct{})
	deps := testDeps(t, func(_ context.Context, _ config.Config, _ func()) (int, error) {
		<-release
		return 3, nil
	})
	mux := NewMux(deps)
	ph := pullHandlerFrom(deps)

	done := make(chan error, 1)
	go func() { done <- ph.RunScheduled(context.Background()) }()

	require.Eventually(t, func() bool {
		return deps.PullStatus.Load().(PullStatus).Running
	}, 2*time.Second, 10*time.Millisecond)

	// while the scheduled pull runs, the manual paths are refused
	rec, body := doJSON(t, mux, http.MethodPost, "/pull")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "pull_running", errCode(body))

	rec, body = doJSON(t, mux, http.MethodPost, "/analysis")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "pull_running", errCode(body))

	close(release)
	require.NoError(t, <-done)

	st := deps.PullStatus.Load().(PullStatus)
	assert.False(t, st.Running)
	assert.Equal(t, 3, st.LastAdded)
	assert.NotEmpty(t, st.LastOkAt)
}

func TestRunScheduled_SkipsWhileManualPullRuns(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	deps := testDeps(t, func(_ context.Context, _ config.Config, _ func()) (int, error) {
		calls.Add(1)
		<-release
		return 0, nil
	})
	mux := NewMux(deps)
	ph := pullHandlerFrom(deps)

	rec, _ := doJSON(t, mux, http.MethodPost, "/pull")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Eventually(t, func() bool {
		return deps.PullStatus.Load().(PullStatus).Running
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ph.RunScheduled(context.Background()))
	assert.Equal(t, int32(1), calls.Load(), "the tick must not start a second pipeline run")

	close(release)
	require.Eventually(t, func() bool {
		return !deps.PullStatus.Load().(PullStatus).Running
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPullRun_ErrorRecorded(t *testing.T) {
	deps := testDeps(t, func(_ context.Context, _ config.Config, _ func()) (int, error) {
		return 0, assert.AnError
	})
	mux := NewMux(deps)

	rec, _ := doJSON(t, mux, http.MethodPost, "/pull")
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		st := deps.PullStatus.Load().(PullStatus)
		return !st.Running && st.LastError != ""
	}, 2*time.Second, 10*time.Millisecond)

	st := deps.PullStatus.Load().(PullStatus)
	assert.Contains(t, st.LastError, assert.AnError.Error())
	assert.Empty(t, st.LastOkAt, "a failed pull must not advance last_ok_at")
}

func TestPullStatusEndpoint(t *testing.T) {
	deps := testDeps(t, nil)
	deps.PullStatus.Store(PullStatus{LastAdded: 7, LastOkAt: "2025-02-01T00:00:00Z"})
	mux := NewMux(deps)

	rec, body := doJSON(t, mux, http.MethodGet, "/pull/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(7), body["last_added"])
	assert.Equal(t, false, body["running"])
}

func TestStatsEndpoint(t *testing.T) {
	deps := testDeps(t, nil)
	mux := NewMux(deps)

	rec, body := doJSON(t, mux, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["total_rows"])
}

func TestMethodNotAllowed(t *testing.T) {
	deps := testDeps(t, nil)
	mux := NewMux(deps)

	rec, _ := doJSON(t, mux, http.MethodGet, "/pull")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec, _ = doJSON(t, mux, http.MethodDelete, "/stats")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	deps := testDeps(t, nil)
	mux := NewMux(deps)

	rec, body := doJSON(t, mux, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
}
