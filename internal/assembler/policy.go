package assembler

import (
	"fmt"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/infra/config"
	"github.com/datallboy/gonzb-assembler/internal/rating"
)

func (a *Assembler) applyEncrypted(job *domain.Job, encrypted bool) {
	if !encrypted {
		return
	}
	if a.cfg.EncryptedAction == config.ActionAbort {
		a.log.Warn("Aborted job %q because of encrypted RAR file (if supplied, all passwords were tried)", job.Name)
		a.abort(job, "Aborted, encryption detected")
		a.metrics.RecordPolicy("encrypted", "abort")
		return
	}
	a.log.Warn("Paused job %q because of encrypted RAR file (if supplied, all passwords were tried)", job.Name)
	job.Pause()
	a.metrics.RecordPolicy("encrypted", "pause")
}

func (a *Assembler) applyUnwanted(job *domain.Job, path, unwanted string) {
	if unwanted == "" {
		return
	}
	a.log.Warn("In %q unwanted extension in RAR file. Unwanted file is %s", job.Name, unwanted)
	a.log.Debug("Unwanted extension is in rar file %s", path)

	switch a.cfg.UnwantedAction {
	case config.ActionPause:
		if !job.UnwantedExt {
			a.log.Debug("Unwanted extension ... pausing")
			job.UnwantedExt = true
			job.Pause()
			a.metrics.RecordPolicy("unwanted", "pause")
		}
	case config.ActionAbort:
		a.log.Debug("Unwanted extension ... aborting")
		a.abort(job, "Aborted, unwanted extension detected")
		a.metrics.RecordPolicy("unwanted", "abort")
	}
}

func (a *Assembler) applyRating(job *domain.Job, verdict rating.Verdict, reason string) {
	switch verdict {
	case rating.VerdictPause:
		a.log.Warn("Paused job %q because of rating (%s)", job.Name, reason)
		job.Pause()
		a.metrics.RecordPolicy("rating", "pause")
	case rating.VerdictAbort:
		a.log.Warn("Aborted job %q because of rating (%s)", job.Name, reason)
		a.abort(job, fmt.Sprintf("Aborted, rating filter matched (%s)", reason))
		a.metrics.RecordPolicy("rating", "abort")
	}
}

func (a *Assembler) abort(job *domain.Job, msg string) {
	job.Fail(msg)
	a.deps.Queue.EndJob(job)
}
