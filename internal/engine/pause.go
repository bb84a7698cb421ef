package engine

import (
	"context"
	"sync"
	"time"

	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
)

const pausedSetting = "downloader_paused"

// SettingsStore keeps small key/value flags across restarts.
type SettingsStore interface {
	SetSetting(ctx context.Context, key, value string) error
	GetSetting(ctx context.Context, key string) (string, bool, error)
}

// Downloader is the global pause gate in front of the feeder.
type Downloader struct {
	mu       sync.Mutex
	paused   bool
	resumed  chan struct{}
	settings SettingsStore
	log      *logger.Logger
}

// NewDownloader returns an unpaused gate. settings may be nil.
func NewDownloader(settings SettingsStore, log *logger.Logger) *Downloader {
	return &Downloader{
		resumed:  make(chan struct{}),
		settings: settings,
		log:      log.Named("downloader"),
	}
}

// Restore applies the pause state saved by an earlier Pause(true).
func (d *Downloader) Restore(ctx context.Context) error {
	if d.settings == nil {
		return nil
	}
	v, ok, err := d.settings.GetSetting(ctx, pausedSetting)
	if err != nil {
		return err
	}
	if ok && v == "1" {
		d.Pause(false)
	}
	return nil
}

// Pause stops feeding. save also persists the state.
func (d *Downloader) Pause(save bool) {
	d.mu.Lock()
	if !d.paused {
		d.paused = true
		d.resumed = make(chan struct{})
		d.log.Warn("Downloading paused")
	}
	d.mu.Unlock()

	if save {
		d.persist("1")
	}
}

// Resume releases everything blocked in Wait and clears a saved pause.
func (d *Downloader) Resume() {
	d.mu.Lock()
	wasPaused := d.paused
	if d.paused {
		d.paused = false
		close(d.resumed)
		d.log.Info("Downloading resumed")
	}
	d.mu.Unlock()

	if wasPaused {
		d.persist("0")
	}
}

func (d *Downloader) Paused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

// Wait blocks while the gate is paused.
func (d *Downloader) Wait(ctx context.Context) error {
	d.mu.Lock()
	paused, resumed := d.paused, d.resumed
	d.mu.Unlock()

	if !paused {
		return nil
	}
	select {
	case <-resumed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Downloader) persist(value string) {
	if d.settings == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.settings.SetSetting(ctx, pausedSetting, value); err != nil {
		d.log.Error("Could not save pause state: %v", err)
	}
}
