package assembler

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrFatal wraps any failure that is not a disk error. It stops the
// assembler for good.
var ErrFatal = errors.New("fatal error in assembler")

// DiskError is a recoverable I/O failure while writing a file. The item is
// skipped and downloading paused.
type DiskError struct {
	Op   string
	Path string
	Err  error
}

func (e *DiskError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DiskError) Unwrap() error { return e.Err }

// DiskFull reports whether the filesystem ran out of space.
func (e *DiskError) DiskFull() bool {
	return errors.Is(e.Err, syscall.ENOSPC)
}
