//go:build !unix

package platform

import "errors"

var errFreeSpaceUnsupported = errors.New("free space check not supported on this platform")

func FreeSpace(dir string) (uint64, error) {
	return 0, errFreeSpaceUnsupported
}
