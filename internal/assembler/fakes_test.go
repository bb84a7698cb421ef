package assembler

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
	"github.com/datallboy/gonzb-assembler/internal/metrics"
	"github.com/datallboy/gonzb-assembler/internal/platform"
	"github.com/datallboy/gonzb-assembler/internal/rating"
)

type fakeCache struct {
	mu       sync.Mutex
	articles map[domain.ArticleRef][]byte
	onLoad   func(ref domain.ArticleRef)
}

func (c *fakeCache) LoadArticle(ref domain.ArticleRef) ([]byte, bool) {
	if c.onLoad != nil {
		c.onLoad(ref)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.articles[ref]
	delete(c.articles, ref)
	return data, ok
}

type fakeDisk struct{ checks int }

func (d *fakeDisk) CheckFreeSpace() { d.checks++ }

type pathFunc func(job *domain.Job, name string) string

func (f pathFunc) Path(job *domain.Job, name string) string { return f(job, name) }

type removal struct {
	id                    string
	addToHistory, cleanup bool
}

type fakeQueue struct {
	ended   []*domain.Job
	removed []removal
}

func (q *fakeQueue) EndJob(job *domain.Job) { q.ended = append(q.ended, job) }
func (q *fakeQueue) Remove(id string, addToHistory, cleanup bool) {
	q.removed = append(q.removed, removal{id, addToHistory, cleanup})
}

type fakeDownloader struct{ pauses []bool }

func (d *fakeDownloader) Pause(save bool) { d.pauses = append(d.pauses, save) }

type fakePost struct{ jobs []*domain.Job }

func (p *fakePost) Process(job *domain.Job) { p.jobs = append(p.jobs, job) }

type fakeAdmin struct{ files []*domain.FileItem }

func (a *fakeAdmin) RemoveAdmin(f *domain.FileItem) { a.files = append(a.files, f) }

type fakeUnpacker struct{ files []*domain.FileItem }

func (u *fakeUnpacker) Add(_ *domain.Job, f *domain.FileItem) { u.files = append(u.files, f) }

type fakeInspector struct {
	encrypted bool
	unwanted  string
	calls     int
}

func (i *fakeInspector) Inspect(context.Context, *domain.Job, string) (bool, string) {
	i.calls++
	return i.encrypted, i.unwanted
}

type fakeRating struct {
	verdict rating.Verdict
	reason  string
}

func (r *fakeRating) Evaluate(context.Context, *domain.Job) (rating.Verdict, string) {
	return r.verdict, r.reason
}

type harness struct {
	cache      *fakeCache
	disk       *fakeDisk
	queue      *fakeQueue
	downloader *fakeDownloader
	post       *fakePost
	admin      *fakeAdmin
	unpacker   *fakeUnpacker
	inspector  *fakeInspector
	rating     *fakeRating
	base       string
	paths      PathBuilder
	cfg        Config
}

func newHarness(base string) *harness {
	return &harness{
		cache:      &fakeCache{articles: make(map[domain.ArticleRef][]byte)},
		disk:       &fakeDisk{},
		queue:      &fakeQueue{},
		downloader: &fakeDownloader{},
		post:       &fakePost{},
		admin:      &fakeAdmin{},
		unpacker:   &fakeUnpacker{},
		inspector:  &fakeInspector{},
		rating:     &fakeRating{},
		base:       base,
		paths:      platform.PathBuilder{Base: base},
	}
}

func (h *harness) assembler() *Assembler {
	deps := Deps{
		Cache:         h.cache,
		Disk:          h.disk,
		Paths:         h.paths,
		Queue:         h.queue,
		Downloader:    h.downloader,
		PostProcessor: h.post,
		Admin:         h.admin,
		Unpacker:      h.unpacker,
		Inspector:     h.inspector,
		Rating:        h.rating,
	}
	return New(deps, h.cfg, logger.Discard(), metrics.NewCollector(prometheus.NewRegistry()))
}

// file registers articles in the cache and returns a file made of them.
// A nil payload leaves that article absent.
func (h *harness) file(name string, payloads ...[]byte) *domain.FileItem {
	table := make(domain.Decodetable)
	for i, p := range payloads {
		ref := domain.ArticleRef(name + "#" + string(rune('a'+i)))
		table[i+1] = ref
		if p != nil {
			h.cache.articles[ref] = p
		}
	}
	return domain.NewFileItem(name, 0, table)
}
