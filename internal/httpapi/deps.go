package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"gradcafe-engine/internal/config"
	"gradcafe-engine/internal/events"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic stores
	CfgVal     *atomic.Value // stores config.Config
	PullStatus *atomic.Value // stores httpapi.PullStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Pull entrypoint (injected for testability). onAppended fires once
	// per newly appended record.
	RunPull func(ctx context.Context, cfg config.Config, onAppended func()) (added int, err error)
}
