// Package rating applies user thresholds to indexer ratings of a job.
package rating

import (
	"context"
	"errors"
	"strings"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/infra/config"
	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
)

type Verdict int

const (
	VerdictNone Verdict = iota
	VerdictPause
	VerdictAbort
)

func (v Verdict) String() string {
	switch v {
	case VerdictPause:
		return "pause"
	case VerdictAbort:
		return "abort"
	default:
		return "none"
	}
}

// Source looks up the rating stored for a job. It returns
// domain.ErrRatingNotFound when there is none.
type Source interface {
	RatingByJob(ctx context.Context, jobID string) (*domain.Rating, error)
}

type Filter struct {
	cfg config.RatingConfig
	src Source
	log *logger.Logger
}

func NewFilter(cfg config.RatingConfig, src Source, log *logger.Logger) *Filter {
	return &Filter{cfg: cfg, src: src, log: log}
}

// Evaluate checks the job's rating against the abort thresholds, then the
// pause thresholds. The reason names the first criterion that matched.
func (f *Filter) Evaluate(ctx context.Context, job *domain.Job) (Verdict, string) {
	if !f.cfg.Enable || !f.cfg.FilterEnable || f.src == nil || job.RatingFiltered >= domain.RatingAbortChecked {
		return VerdictNone, ""
	}

	r, err := f.src.RatingByJob(ctx, job.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrRatingNotFound) {
			f.log.Warn("Rating lookup for job %s failed: %v", job.ID, err)
		}
		return VerdictNone, ""
	}

	job.RatingFiltered = domain.RatingPauseChecked

	if reason := check(r, f.cfg.Abort, job.Filename); reason != "" {
		job.RatingFiltered = domain.RatingAbortChecked
		return VerdictAbort, reason
	}
	if reason := check(r, f.cfg.Pause, job.Filename); reason != "" {
		return VerdictPause, reason
	}
	return VerdictNone, ""
}

func check(r *domain.Rating, t config.RatingThresholdConfig, filename string) string {
	switch {
	case t.Video > 0 && r.AvgVideo > 0 && r.AvgVideo <= t.Video:
		return "video"
	case t.Audio > 0 && r.AvgAudio > 0 && r.AvgAudio <= t.Audio:
		return "audio"
	case (t.Spam && (r.AvgSpamCnt > 0 || r.AvgSpamConfirm)) || (t.SpamConfirm && r.AvgSpamConfirm):
		return "spam"
	case (t.Encrypted && (r.AvgEncryptedCnt > 0 || r.AvgEncryptedConfirm)) || (t.EncryptedConfirm && r.AvgEncryptedConfirm):
		return "passworded"
	case t.Downvoted && r.AvgVoteUp < r.AvgVoteDown:
		return "downvoted"
	case matchKeyword(t.Keywords, filename):
		return "keywords"
	}
	return ""
}

func matchKeyword(keywords, filename string) bool {
	filename = strings.ToLower(filename)
	for _, k := range strings.Split(keywords, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(filename, k) {
			return true
		}
	}
	return false
}
