package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	statsmodels "io.winapps.pushrelay/internal/models/stats"
	"io.winapps.pushrelay/internal/scheduler"
)

// Pinger reports whether the token store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsSource is satisfied by *stats.Aggregator.
type StatsSource interface {
	Compute(ctx context.Context) (*statsmodels.Stats, error)
}

// JobLister is satisfied by *scheduler.Scheduler.
type JobLister interface {
	Jobs() []scheduler.JobStatus
}

// SystemHandler serves health, stats, scheduler status and the dashboard.
type SystemHandler struct {
	store         Pinger
	stats         StatsSource
	jobs          JobLister
	dbMode        string
	dashboardPath string
	pingTimeout   time.Duration
	logger        *zap.SugaredLogger
}

// SystemHandlerConfig groups the dependencies of NewSystemHandler. Jobs may
// be nil when scheduling is disabled.
type SystemHandlerConfig struct {
	Store         Pinger
	Stats         StatsSource
	Jobs          JobLister
	DBMode        string
	DashboardPath string
	Logger        *zap.SugaredLogger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(cfg SystemHandlerConfig) *SystemHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SystemHandler{
		store:         cfg.Store,
		stats:         cfg.Stats,
		jobs:          cfg.Jobs,
		dbMode:        cfg.DBMode,
		dashboardPath: cfg.DashboardPath,
		pingTimeout:   2 * time.Second,
		logger:        logger,
	}
}
