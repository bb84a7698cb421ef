// Package assembler writes downloaded files to disk and applies the
// encryption, unwanted extension and rating policies to their jobs.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/datallboy/gonzb-assembler/internal/archive"
	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/infra/config"
	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
	"github.com/datallboy/gonzb-assembler/internal/metrics"
	"github.com/datallboy/gonzb-assembler/internal/par2"
	"github.com/datallboy/gonzb-assembler/internal/platform"
)

type Config struct {
	FilePerm        os.FileMode // zero keeps the mode files are created with
	EncryptedAction config.Action
	UnwantedAction  config.Action
}

// Assembler is a single consumer worker. Producers call Submit from any
// goroutine; Run drains the queue.
type Assembler struct {
	deps    Deps
	cfg     Config
	log     *logger.Logger
	metrics *metrics.Collector
	queue   *queue
}

func New(deps Deps, cfg Config, log *logger.Logger, m *metrics.Collector) *Assembler {
	return &Assembler{
		deps:    deps,
		cfg:     cfg,
		log:     log.Named("assembler"),
		metrics: m,
		queue:   newQueue(),
	}
}

// Submit queues a finished file. A nil file tells the assembler that every
// file of job has been submitted.
func (a *Assembler) Submit(job *domain.Job, file *domain.FileItem) {
	a.queue.push(item{job: job, file: file})
	a.metrics.SetQueueDepth(a.queue.len())
}

// Shutdown stops Run once the items queued before it are processed.
func (a *Assembler) Shutdown() {
	a.queue.push(item{})
}

// Run processes queued items until Shutdown, ctx is cancelled, or an
// unexpected error occurs. Only the latter is returned; the assembler cannot
// be restarted after it.
func (a *Assembler) Run(ctx context.Context) error {
	for {
		it, ok := a.queue.pop(ctx)
		if !ok {
			return nil
		}
		a.metrics.SetQueueDepth(a.queue.len())

		if it.job == nil {
			a.log.Info("Shutting down")
			return nil
		}

		if it.file == nil {
			a.finishJob(it.job)
			continue
		}

		err := a.process(ctx, it.job, it.file)
		it.job.Publish()
		if err != nil {
			a.log.Error("Fatal error in Assembler: %v", err)
			a.metrics.RecordFatal()
			return err
		}
	}
}

// finishJob hands a fully assembled job, and its ownership, to
// post-processing.
func (a *Assembler) finishJob(job *domain.Job) {
	job.Publish()
	a.deps.Queue.Remove(job.ID, false, false)
	a.deps.PostProcessor.Process(job)
}

func (a *Assembler) process(ctx context.Context, job *domain.Job, file *domain.FileItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFatal, r)
		}
	}()

	a.deps.Disk.CheckFreeSpace()

	file.Filename = platform.SanitizeFilename(file.Filename)
	dupe := job.CheckForDupe(file)
	path := a.deps.Paths.Path(job, file.Filename)
	if path == "" {
		return nil
	}

	a.log.Info("Decoding %s %s", path, file.Type)
	path, err = a.assemble(job, file, path, dupe)
	if err != nil {
		var diskErr *DiskError
		if errors.As(err, &diskErr) {
			a.handleDiskError(job, diskErr)
			return nil
		}
		return fmt.Errorf("%w: %v", ErrFatal, err)
	}
	file.Path = path

	a.deps.Admin.RemoveAdmin(file)
	a.collectPar2(job, file, path)

	encrypted, unwanted := a.deps.Inspector.Inspect(ctx, job, path)
	a.applyEncrypted(job, encrypted)
	a.applyUnwanted(job, path, unwanted)

	verdict, reason := a.deps.Rating.Evaluate(ctx, job)
	a.applyRating(job, verdict, reason)

	if archive.IsRarFile(path) {
		a.deps.Unpacker.Add(job, file)
	}
	return nil
}

func (a *Assembler) handleDiskError(job *domain.Job, err *DiskError) {
	// Deleting a job removes its files under our feet
	if job.IsDeleted() {
		a.log.Debug("Ignoring disk error for deleted job %s: %v", job.Name, err)
		return
	}

	if err.DiskFull() {
		a.log.Error("Disk full! Forcing Pause")
	} else {
		a.log.Error("Disk error on creating file %s: %v", err.Path, err.Err)
	}
	a.metrics.RecordDiskError(err.DiskFull())

	a.deps.Downloader.Pause(false)
}

// collectPar2 stores the hash table of the first usable PAR2 file of a set
// and makes that file the set's primary.
func (a *Assembler) collectPar2(job *domain.Job, file *domain.FileItem, path string) {
	if !file.IsPar2() {
		return
	}
	setname := file.SetName
	if _, ok := job.MD5Packs[setname]; ok {
		return
	}

	pack := par2.ParseFile(path, job.MD5of16k)
	if len(pack) == 0 {
		a.log.Info("Cannot use par2 file %s for QuickCheck", file.Filename)
		return
	}

	job.MD5Packs[setname] = pack
	a.metrics.RecordPar2Pack()
	a.log.Debug("Got md5pack for set %s", setname)

	if primary, ok := job.PartTable[setname]; ok {
		if primary != file {
			extra := make([]*domain.FileItem, 0, len(primary.ExtraPars))
			for _, p := range primary.ExtraPars {
				if p != file {
					extra = append(extra, p)
				}
			}
			file.ExtraPars = extra
		}
		job.PartTable[setname] = file
	}
}
