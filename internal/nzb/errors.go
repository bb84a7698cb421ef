package nzb

import "errors"

// ErrEmptyNZB indicates an NZB without any downloadable file
var ErrEmptyNZB = errors.New("nzb contains no files")
