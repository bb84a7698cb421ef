package processor

import (
	"testing"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
	"github.com/stretchr/testify/assert"
)

func volume(job *domain.Job, name string) *domain.FileItem {
	f := domain.NewFileItem(name, 1, nil)
	f.Path = "/dl/" + name
	job.AddFile(f)
	return f
}

func TestUnpackerOrdersVolumes(t *testing.T) {
	u := NewUnpacker(logger.Discard())
	job := domain.NewJob("j", "Show")

	for _, name := range []string{"show.part10.rar", "show.part02.rar", "show.part01.rar"} {
		u.Add(job, volume(job, name))
	}

	assert.Equal(t, []string{"/dl/show.part01.rar", "/dl/show.part02.rar", "/dl/show.part10.rar"},
		u.Volumes("j", "show"))

	first, ok := u.FirstVolume("j", "show")
	assert.True(t, ok)
	assert.Equal(t, "/dl/show.part01.rar", first)
}

func TestUnpackerFirstVolumeMissing(t *testing.T) {
	u := NewUnpacker(logger.Discard())
	job := domain.NewJob("j", "Show")
	u.Add(job, volume(job, "show.part02.rar"))

	_, ok := u.FirstVolume("j", "show")
	assert.False(t, ok)
}

func TestUnpackerOldStyleNames(t *testing.T) {
	u := NewUnpacker(logger.Discard())
	job := domain.NewJob("j", "Show")
	u.Add(job, volume(job, "show.r00"))
	u.Add(job, volume(job, "show.rar"))

	first, ok := u.FirstVolume("j", "show")
	assert.True(t, ok)
	assert.Equal(t, "/dl/show.rar", first)
}

func TestUnpackerIgnoresUnplacedFiles(t *testing.T) {
	u := NewUnpacker(logger.Discard())
	job := domain.NewJob("j", "Show")
	u.Add(job, domain.NewFileItem("show.rar", 1, nil))
	assert.Empty(t, u.Volumes("j", "show"))
}

func TestUnpackerForget(t *testing.T) {
	u := NewUnpacker(logger.Discard())
	job := domain.NewJob("j", "Show")
	u.Add(job, volume(job, "show.rar"))
	u.Forget("j")
	assert.Empty(t, u.Volumes("j", "show"))
}
