package store

import (
	"context"
	"time"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
)

// Admin releases the per-article bookkeeping of files that finished assembly.
type Admin struct {
	Store   *PersistentStore
	Log     *logger.Logger
	Timeout time.Duration
}

// RemoveAdmin drops the article rows of f and persists its final path and
// digest. Errors are logged; losing bookkeeping never fails assembly.
func (a *Admin) RemoveAdmin(f *domain.FileItem) {
	job := f.Job()
	if job == nil {
		return
	}

	timeout := a.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	refs := make([]domain.ArticleRef, 0, len(f.Decodetable))
	for _, num := range f.Decodetable.Numbers() {
		refs = append(refs, f.Decodetable[num])
	}

	if err := a.Store.DeleteArticles(ctx, job.ID, refs); err != nil {
		a.Log.Warn("Could not release articles of %s: %v", f.Filename, err)
		return
	}
	if err := a.Store.SaveJob(ctx, job); err != nil {
		a.Log.Warn("Could not save job %s: %v", job.ID, err)
	}
}
