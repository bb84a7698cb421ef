package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/datallboy/gonzb-assembler/internal/archive"
	"github.com/datallboy/gonzb-assembler/internal/assembler"
	"github.com/datallboy/gonzb-assembler/internal/cache"
	"github.com/datallboy/gonzb-assembler/internal/engine"
	"github.com/datallboy/gonzb-assembler/internal/infra/config"
	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
	"github.com/datallboy/gonzb-assembler/internal/inspector"
	"github.com/datallboy/gonzb-assembler/internal/metrics"
	"github.com/datallboy/gonzb-assembler/internal/platform"
	"github.com/datallboy/gonzb-assembler/internal/processor"
	"github.com/datallboy/gonzb-assembler/internal/rating"
	"github.com/datallboy/gonzb-assembler/internal/store"
	"github.com/datallboy/gonzb-assembler/internal/store/postgres"
	"github.com/prometheus/client_golang/prometheus"
)

// service wires every component of the assembly stage.
type service struct {
	log       *logger.Logger
	store     *store.PersistentStore
	ratings   *postgres.RatingStore
	registry  *prometheus.Registry
	queue     *engine.QueueManager
	gate      *engine.Downloader
	assembler *assembler.Assembler
	feeder    *engine.Feeder
	unpacker  *processor.Unpacker
	processor *processor.Processor
}

// newService builds the service. articleDir overrides cache.dir when set.
func newService(ctx context.Context, cfg *config.Config, log *logger.Logger, articleDir string) (*service, error) {
	perm, err := cfg.FilePerm()
	if err != nil {
		return nil, err
	}
	minFree, err := cfg.MinFreeBytes()
	if err != nil {
		return nil, err
	}

	st, err := store.NewPersistentStore(cfg.Store.SQLitePath)
	if err != nil {
		return nil, err
	}
	s := &service{log: log, store: st, registry: prometheus.NewRegistry()}

	var ratingSrc rating.Source = st
	if cfg.Rating.Enable && cfg.Rating.DSN != "" {
		rs, err := postgres.New(ctx, cfg.Rating.DSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("rating database: %w", err)
		}
		s.ratings = rs
		ratingSrc = rs
	}

	for _, tool := range platform.MissingTools() {
		log.Warn("%s not found in PATH, related checks are disabled", tool)
	}

	opener, err := archive.Detect()
	if err != nil {
		log.Debug("Archive inspection disabled: %v", err)
	}

	var repairer processor.Repairer
	if par, err := processor.NewCLIPar2(); err == nil {
		repairer = par
	}

	if articleDir == "" {
		articleDir = cfg.Cache.Dir
	}

	m := metrics.NewCollector(s.registry)
	s.queue = engine.NewQueueManager(st, log)
	s.gate = engine.NewDownloader(st, log)
	if err := s.gate.Restore(ctx); err != nil {
		log.Warn("Could not restore pause state: %v", err)
	}
	s.unpacker = processor.NewUnpacker(log)
	s.processor = processor.New(s.queue, repairer, s.unpacker, log)

	deps := assembler.Deps{
		Cache:         cache.New(articleDir, log),
		Disk:          platform.NewDiskChecker(cfg.Download.Dir, minFree, s.gate, log),
		Paths:         platform.PathBuilder{Base: cfg.Download.Dir},
		Queue:         s.queue,
		Downloader:    s.gate,
		PostProcessor: s.processor,
		Admin:         &store.Admin{Store: st, Log: log.Named("store")},
		Unpacker:      s.unpacker,
		Inspector:     inspector.New(inspector.FromConfig(cfg.Assembly), opener, log),
		Rating:        rating.NewFilter(cfg.Rating, ratingSrc, log),
	}
	s.assembler = assembler.New(deps, assembler.Config{
		FilePerm:        perm,
		EncryptedAction: cfg.Assembly.EncryptedAction,
		UnwantedAction:  cfg.Assembly.UnwantedAction,
	}, log, m)
	s.feeder = engine.NewFeeder(s.gate, s.assembler)

	return s, nil
}

func (s *service) Close() error {
	if s.ratings != nil {
		s.ratings.Close()
	}
	return s.store.Close()
}

// run runs the assembler and post-processing until the assembler stops,
// then lets post-processing drain the jobs handed to it. A fatal assembler
// error is returned wrapped so callers can tell it apart from a normal stop.
func (s *service) run(ctx context.Context) error {
	procDone := make(chan error, 1)
	go func() { procDone <- s.processor.Run(ctx) }()

	err := s.assembler.Run(ctx)
	s.processor.Shutdown()
	if perr := <-procDone; perr != nil && err == nil {
		err = perr
	}

	if errors.Is(err, assembler.ErrFatal) {
		return fmt.Errorf("assembler stopped: %w", err)
	}
	return err
}
