package platform

import (
	"github.com/dustin/go-humanize"

	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
)

// Pauser stops the downloader. save persists the paused state.
type Pauser interface {
	Pause(save bool)
}

// DiskChecker pauses downloading when the download directory runs low on
// space.
type DiskChecker struct {
	Dir     string
	MinFree uint64
	Pauser  Pauser
	Logger  *logger.Logger

	freeSpace func(string) (uint64, error)
}

func NewDiskChecker(dir string, minFree uint64, p Pauser, log *logger.Logger) *DiskChecker {
	return &DiskChecker{Dir: dir, MinFree: minFree, Pauser: p, Logger: log, freeSpace: FreeSpace}
}

// CheckFreeSpace pauses the downloader (without persisting) when free space
// is below MinFree. A zero MinFree disables the check.
func (d *DiskChecker) CheckFreeSpace() {
	if d.MinFree == 0 {
		return
	}
	free, err := d.freeSpace(d.Dir)
	if err != nil {
		d.Logger.Debug("Free space check on %s failed: %v", d.Dir, err)
		return
	}
	if free < d.MinFree {
		d.Logger.Warn("Too little diskspace (%s free, %s required), forcing PAUSE",
			humanize.Bytes(free), humanize.Bytes(d.MinFree))
		d.Pauser.Pause(false)
	}
}
