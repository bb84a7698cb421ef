package domain

import (
	"testing"

	"github.com/datallboy/gonzb-assembler/internal/par2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodetableNumbersAscending(t *testing.T) {
	d := Decodetable{3: "c", 1: "a", 10: "j", 2: "b"}
	assert.Equal(t, []int{1, 2, 3, 10}, d.Numbers())
}

func TestSetName(t *testing.T) {
	tests := map[string]string{
		"Show.part01.rar":     "show",
		"show.r07":            "show",
		"show.rar":            "show",
		"show.par2":           "show",
		"Show.vol03+04.PAR2":  "show",
		"archive.7z.001":      "archive",
		"movie.mkv":           "movie.mkv",
		"release.2024.sample": "release.2024.sample",
	}
	for in, want := range tests {
		assert.Equal(t, want, SetName(in), in)
	}
}

func TestNewFileItemType(t *testing.T) {
	assert.True(t, NewFileItem("a.vol01+02.par2", 0, nil).IsPar2())
	assert.False(t, NewFileItem("a.rar", 0, nil).IsPar2())
}

func TestAddFileTracksPrimaryPar(t *testing.T) {
	job := NewJob("id", "job")
	main := NewFileItem("show.par2", 10, nil)
	vol := NewFileItem("show.vol00+01.par2", 20, nil)
	data := NewFileItem("show.rar", 30, nil)

	job.AddFile(main)
	job.AddFile(vol)
	job.AddFile(data)

	assert.Same(t, main, job.PartTable["show"])
	assert.Equal(t, []*FileItem{vol}, main.ExtraPars)
	assert.Same(t, job, data.Job())
	assert.Equal(t, uint64(60), job.TotalBytes)
	assert.Len(t, job.Files(), 3)
}

func TestCheckForDupe(t *testing.T) {
	job := NewJob("id", "job")
	f := NewFileItem("a.bin", 0, nil)
	assert.False(t, job.CheckForDupe(f))
	assert.True(t, job.CheckForDupe(NewFileItem("a.bin", 0, nil)))
}

func TestStatusTransitions(t *testing.T) {
	job := NewJob("id", "job")
	assert.Equal(t, StatusQueued, job.Status())

	job.Pause()
	assert.Equal(t, StatusPaused, job.Status())
	job.Resume()
	assert.Equal(t, StatusQueued, job.Status())

	job.Fail("boom")
	job.Pause()
	assert.Equal(t, StatusFailed, job.Status(), "failed jobs cannot be paused")
	assert.Equal(t, "boom", job.FailMsg())
	assert.Equal(t, "failed", job.Status().String())
}

func TestMD5SumWrittenOnce(t *testing.T) {
	f := NewFileItem("a.bin", 0, nil)
	_, ok := f.MD5Sum()
	assert.False(t, ok)

	f.SetMD5Sum(par2.Hash{1})
	f.SetMD5Sum(par2.Hash{2})
	sum, ok := f.MD5Sum()
	assert.True(t, ok)
	assert.Equal(t, par2.Hash{1}, sum)
}

func TestSnapshotShowsPublishedState(t *testing.T) {
	job := NewJob("j", "Show")
	f := NewFileItem("show.rar", 10, nil)
	job.AddFile(f)

	snap := job.Snapshot()
	require.Len(t, snap.Files, 1)
	assert.Equal(t, "show.rar", snap.Files[0].Filename)
	assert.Equal(t, int64(10), snap.Files[0].Size)

	job.Encrypted = EncryptionConfirmed
	job.UnwantedExt = true
	f.Path = "/dl/show.rar"
	f.SetMD5Sum(par2.Hash{7})
	assert.Equal(t, EncryptionUnknown, job.Snapshot().Encrypted, "not published yet")

	job.Publish()
	snap = job.Snapshot()
	assert.Equal(t, EncryptionConfirmed, snap.Encrypted)
	assert.True(t, snap.UnwantedExt)
	assert.Equal(t, "/dl/show.rar", snap.Files[0].Path)
	assert.True(t, snap.Files[0].HasMD5)
	assert.Equal(t, par2.Hash{7}, snap.Files[0].MD5)
}

func TestFailIsVisibleWithoutPublish(t *testing.T) {
	job := NewJob("j", "Show")
	job.Fail("Aborted, encryption detected")

	assert.Equal(t, "Aborted, encryption detected", job.Snapshot().FailMsg)
	assert.Equal(t, StatusFailed, job.Status())
}

func TestSnapshotIsACopy(t *testing.T) {
	job := NewJob("j", "Show")
	job.AddFile(NewFileItem("a.bin", 1, nil))

	snap := job.Snapshot()
	snap.Files[0].Path = "changed"
	assert.Empty(t, job.Snapshot().Files[0].Path)
}
