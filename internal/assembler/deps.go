package assembler

import (
	"context"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/rating"
)

// ArticleCache hands out decoded article payloads. ok is false when the
// article is absent.
type ArticleCache interface {
	LoadArticle(ref domain.ArticleRef) (data []byte, ok bool)
}

// DiskChecker pauses downloading when space runs low.
type DiskChecker interface {
	CheckFreeSpace()
}

// PathBuilder returns where a job's file goes, or "" when it has no place.
type PathBuilder interface {
	Path(job *domain.Job, filename string) string
}

// JobQueue owns the active jobs.
type JobQueue interface {
	// EndJob terminates a failed job.
	EndJob(job *domain.Job)

	Remove(id string, addToHistory, cleanup bool)
}

type Downloader interface {
	// Pause stops all downloading; save persists the paused state.
	Pause(save bool)
}

type PostProcessor interface {
	Process(job *domain.Job)
}

// AdminReleaser drops the per-article bookkeeping of an assembled file.
type AdminReleaser interface {
	RemoveAdmin(file *domain.FileItem)
}

// DirectUnpacker is told about RAR volumes as soon as they are on disk.
type DirectUnpacker interface {
	Add(job *domain.Job, file *domain.FileItem)
}

type Inspector interface {
	Inspect(ctx context.Context, job *domain.Job, path string) (encrypted bool, unwanted string)
}

type RatingFilter interface {
	Evaluate(ctx context.Context, job *domain.Job) (rating.Verdict, string)
}

// Deps are the collaborators the assembler drives. All are required.
type Deps struct {
	Cache         ArticleCache
	Disk          DiskChecker
	Paths         PathBuilder
	Queue         JobQueue
	Downloader    Downloader
	PostProcessor PostProcessor
	Admin         AdminReleaser
	Unpacker      DirectUnpacker
	Inspector     Inspector
	Rating        RatingFilter
}
