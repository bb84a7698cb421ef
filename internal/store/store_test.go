package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
	"github.com/datallboy/gonzb-assembler/internal/par2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *PersistentStore {
	t.Helper()
	s, err := NewPersistentStore(filepath.Join(t.TempDir(), "db", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleJob() *domain.Job {
	job := domain.NewJob("job1", "Some.Show")
	job.Passwords = []string{"secret"}
	job.AddFile(domain.NewFileItem("show.rar", 300, domain.Decodetable{
		1: "<a1@x>", 2: "<a2@x>", 3: "<a3@x>",
	}))
	job.AddFile(domain.NewFileItem("show.par2", 100, domain.Decodetable{1: "<p1@x>"}))
	return job
}

func TestCreateAndGetJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := sampleJob()
	job.MD5Packs["show"] = par2.Table{"show.rar": par2.Hash{1, 2, 3}}
	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, "job1")
	require.NoError(t, err)

	assert.Equal(t, "Some.Show", got.Name)
	assert.Equal(t, []string{"secret"}, got.Passwords)
	assert.Equal(t, uint64(400), got.TotalBytes)

	files := got.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "show.rar", files[0].Filename)
	assert.Equal(t, []int{1, 2, 3}, files[0].Decodetable.Numbers())
	assert.Equal(t, domain.ArticleRef("<a2@x>"), files[0].Decodetable[2])
	assert.True(t, files[1].IsPar2())
	assert.Same(t, got, files[0].Job())

	assert.Equal(t, par2.Hash{1, 2, 3}, got.MD5Packs["show"]["show.rar"])
}

func TestGetJobNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetJob(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestSaveJobUpdatesState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := sampleJob()
	require.NoError(t, s.CreateJob(ctx, job))

	job.Encrypted = domain.EncryptionConfirmed
	job.UnwantedExt = true
	job.Fail("Aborted, encryption detected")
	job.BytesWritten.Store(123)
	rar := job.Files()[0]
	rar.Path = "/downloads/Some.Show/show.rar"
	rar.SetMD5Sum(par2.Hash{9})
	require.NoError(t, s.SaveJob(ctx, job))

	got, err := s.GetJob(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status())
	assert.Equal(t, "Aborted, encryption detected", got.FailMsg())
	assert.Equal(t, domain.EncryptionConfirmed, got.Encrypted)
	assert.True(t, got.UnwantedExt)
	assert.Equal(t, uint64(123), got.BytesWritten.Load())

	f := got.Files()[0]
	assert.Equal(t, "/downloads/Some.Show/show.rar", f.Path)
	sum, ok := f.MD5Sum()
	assert.True(t, ok)
	assert.Equal(t, par2.Hash{9}, sum)
}

func TestListAndDeleteJobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateJob(ctx, sampleJob()))
	other := domain.NewJob("job2", "Other")
	require.NoError(t, s.CreateJob(ctx, other))

	jobs, err := s.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "job1", jobs[0].ID)
	assert.Equal(t, "job2", jobs[1].ID)

	require.NoError(t, s.DeleteJob(ctx, "job1"))
	n, err := s.CountArticles(ctx, "job1")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.GetJob(ctx, "job1")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestAdminReleasesArticles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := sampleJob()
	require.NoError(t, s.CreateJob(ctx, job))

	admin := &Admin{Store: s, Log: logger.Discard()}
	rar := job.Files()[0]
	rar.Path = "/tmp/show.rar"
	admin.RemoveAdmin(rar)

	n, err := s.CountArticles(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the par2 article remains")

	got, err := s.GetJob(ctx, "job1")
	require.NoError(t, err)
	assert.Empty(t, got.Files()[0].Decodetable)
	assert.Equal(t, "/tmp/show.rar", got.Files()[0].Path)
}

func TestAdminIgnoresDetachedFile(t *testing.T) {
	s := newTestStore(t)
	admin := &Admin{Store: s, Log: logger.Discard()}
	assert.NotPanics(t, func() {
		admin.RemoveAdmin(domain.NewFileItem("loose.bin", 1, nil))
	})
}

func TestRatings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.RatingByJob(ctx, "job1")
	assert.ErrorIs(t, err, domain.ErrRatingNotFound)

	r := &domain.Rating{JobID: "job1", AvgVideo: 3, AvgSpamConfirm: true, AvgVoteDown: 7}
	require.NoError(t, s.SaveRating(ctx, r))

	got, err := s.RatingByJob(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, r, got)

	r.AvgVideo = 8
	require.NoError(t, s.SaveRating(ctx, r))
	got, err = s.RatingByJob(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, 8, got.AvgVideo)
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetSetting(ctx, "downloader_paused")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetSetting(ctx, "downloader_paused", "1"))
	require.NoError(t, s.SetSetting(ctx, "downloader_paused", "0"))

	v, ok, err := s.GetSetting(ctx, "downloader_paused")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0", v)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	s, err := NewPersistentStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewPersistentStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
