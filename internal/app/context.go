package app

import (
	"context"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/infra/config"
	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
	"github.com/prometheus/client_golang/prometheus"
)

// JobQueue lets the API read and delete jobs without importing the engine.
type JobQueue interface {
	All() []*domain.Job
	Get(ctx context.Context, id string) (*domain.Job, bool)
	Delete(id string) bool
}

// PauseGate is the global downloader pause switch.
type PauseGate interface {
	Pause(save bool)
	Resume()
	Paused() bool
}

// Context holds the core environment and shared resources for the
// assembler service.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	Queue    JobQueue
	Gate     PauseGate
	Gatherer prometheus.Gatherer
}

// NewContext initializes the base environment.
func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	return &Context{
		Config:   cfg,
		Logger:   log,
		Gatherer: prometheus.DefaultGatherer,
	}
}
