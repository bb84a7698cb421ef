package engine

import (
	"context"
	"errors"

	"github.com/datallboy/gonzb-assembler/internal/domain"
)

// ErrDownloaderPaused is returned by Feed when the downloader is paused and
// the feeder was told not to wait for a resume.
var ErrDownloaderPaused = errors.New("downloader is paused")

// Submitter accepts finished files. A nil file marks the job complete.
type Submitter interface {
	Submit(job *domain.Job, file *domain.FileItem)
}

// Feeder hands the files of a job to the assembler, honouring the pause
// gate between files.
type Feeder struct {
	gate *Downloader
	out  Submitter

	// NoWait makes Feed return ErrDownloaderPaused instead of blocking on a
	// paused gate. Set it when nothing is around to resume the gate.
	NoWait bool
}

func NewFeeder(gate *Downloader, out Submitter) *Feeder {
	return &Feeder{gate: gate, out: out}
}

// Feed submits the files of job followed by the completion marker. Once the
// job is deleted, failed or paused no further files are submitted, but the
// marker still is so that the job is handed over. Feed returns early without
// a marker when ctx is cancelled or the gate is paused under NoWait.
func (f *Feeder) Feed(ctx context.Context, job *domain.Job) error {
	for _, file := range job.Files() {
		if f.NoWait && f.gate.Paused() {
			return ErrDownloaderPaused
		}
		if err := f.gate.Wait(ctx); err != nil {
			return err
		}
		if stopped(job) {
			break
		}
		f.out.Submit(job, file)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	f.out.Submit(job, nil)
	return nil
}

// stopped reports whether job must not receive more files.
func stopped(job *domain.Job) bool {
	if job.IsDeleted() {
		return true
	}
	switch job.Status() {
	case domain.StatusFailed, domain.StatusPaused:
		return true
	}
	return false
}
