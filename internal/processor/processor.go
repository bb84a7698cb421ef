// Package processor takes over jobs once every file is assembled.
package processor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
)

// Recorder keeps finished jobs visible and persisted.
type Recorder interface {
	Finish(job *domain.Job)
}

// Volumes is the direct-unpack registry of assembled RAR volumes.
type Volumes interface {
	FirstVolumes(jobID string) map[string]string
	Forget(jobID string)
}

// Processor verifies finished jobs on its own goroutine so that a long par2
// run never holds up assembly.
type Processor struct {
	recorder Recorder
	repairer Repairer
	volumes  Volumes
	log      *logger.Logger
	queue    *jobQueue

	// Timeout bounds the par2 run for one set
	Timeout time.Duration
}

// New returns a post-processor. repairer may be nil when par2 is missing;
// sets that fail the quick check then fail the job. volumes may be nil.
func New(recorder Recorder, repairer Repairer, volumes Volumes, log *logger.Logger) *Processor {
	return &Processor{
		recorder: recorder,
		repairer: repairer,
		volumes:  volumes,
		log:      log.Named("postproc"),
		queue:    newJobQueue(),
		Timeout:  time.Hour,
	}
}

// Process queues a fully assembled job. The caller gives up ownership of it.
func (p *Processor) Process(job *domain.Job) {
	if job == nil {
		return
	}
	p.queue.push(job)
}

// Shutdown stops Run once the jobs queued before it are handled.
func (p *Processor) Shutdown() {
	p.queue.push(nil)
}

// Pending returns the number of jobs waiting for verification.
func (p *Processor) Pending() int {
	return p.queue.len()
}

// Run handles queued jobs until Shutdown or ctx is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		job, ok := p.queue.pop(ctx)
		if !ok {
			return nil
		}
		if job == nil {
			p.log.Debug("Shutting down")
			return nil
		}
		p.handle(ctx, job)
	}
}

// handle verifies every PAR2 set of job and records the outcome. Jobs that
// already failed or were paused by a policy are only recorded; deleted jobs
// are dropped.
func (p *Processor) handle(ctx context.Context, job *domain.Job) {
	if p.volumes != nil {
		defer p.volumes.Forget(job.ID)
	}
	if job.IsDeleted() {
		return
	}
	defer p.recorder.Finish(job)
	defer job.Publish()

	switch job.Status() {
	case domain.StatusFailed:
		return
	case domain.StatusPaused:
		p.log.Info("%s is paused, skipping verification", job.Name)
		return
	}
	job.SetStatus(domain.StatusProcessing)

	for _, set := range sets(job) {
		if QuickCheck(job, set) {
			p.log.Info("Quick check OK for %s (%s)", job.Name, set)
			continue
		}
		if err := p.repair(ctx, job, set); err != nil {
			p.log.Error("Verification of %s failed: %v", job.Name, err)
			job.Fail(fmt.Sprintf("Repair failed for set %s", set))
			return
		}
	}

	job.SetStatus(domain.StatusCompleted)
	p.log.Info("Completed: %s", job.Name)
	p.announceVolumes(job)
}

// announceVolumes logs where an extractor has to start for each RAR set.
func (p *Processor) announceVolumes(job *domain.Job) {
	if p.volumes == nil {
		return
	}
	first := p.volumes.FirstVolumes(job.ID)
	names := make([]string, 0, len(first))
	for set := range first {
		names = append(names, set)
	}
	sort.Strings(names)
	for _, set := range names {
		p.log.Info("Set %s of %s can be unpacked from %s", set, job.Name, first[set])
	}
}

func (p *Processor) repair(ctx context.Context, job *domain.Job, set string) error {
	primary := job.PartTable[set]
	if primary == nil || primary.Path == "" {
		return fmt.Errorf("no par2 file for set %s", set)
	}
	if p.repairer == nil {
		return fmt.Errorf("par2 not available")
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	p.log.Debug("Verifying %s with par2", primary.Filename)
	healthy, err := p.repairer.Verify(ctx, primary.Path)
	if err == nil && healthy {
		return nil
	}

	p.log.Warn("Files of %s are damaged. Attempting repair...", set)
	if err := p.repairer.Repair(ctx, primary.Path); err != nil {
		return fmt.Errorf("PAR2 repair failed: %w", err)
	}
	p.log.Info("Repair of %s complete", set)
	return nil
}

// sets returns every set that has a primary par2 file or an md5pack.
func sets(job *domain.Job) []string {
	seen := make(map[string]struct{})
	var out []string
	for set := range job.PartTable {
		seen[set] = struct{}{}
		out = append(out, set)
	}
	for set := range job.MD5Packs {
		if _, ok := seen[set]; !ok {
			out = append(out, set)
		}
	}
	return out
}

// QuickCheck reports whether every file listed in the set's md5pack was
// assembled with the listed digest.
func QuickCheck(job *domain.Job, set string) bool {
	pack := job.MD5Packs[set]
	if len(pack) == 0 {
		return false
	}

	byName := make(map[string]*domain.FileItem)
	for _, f := range job.Files() {
		byName[strings.ToLower(f.Filename)] = f
	}

	for name, want := range pack {
		f, ok := byName[strings.ToLower(name)]
		if !ok {
			return false
		}
		got, ok := f.MD5Sum()
		if !ok || got != want {
			return false
		}
	}
	return true
}
