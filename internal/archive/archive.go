// Package archive lists and tests RAR archives through external command line
// tools. Nothing is ever extracted.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/datallboy/gonzb-assembler/internal/platform"
)

// Archive is an archive opened for listing.
type Archive interface {
	// Names lists the member names, including directories.
	Names() []string

	// NeedsPassword reports whether the container declares encrypted
	// members or encrypted headers.
	NeedsPassword() bool

	// SetPassword selects the password used by Test.
	SetPassword(password string) error

	// Test reads every member and verifies it. Typed failures are
	// ErrChecksum, ErrWrongVolume and ErrBadPassword.
	Test(ctx context.Context) error

	Close() error
}

// Opener opens archives for listing.
type Opener interface {
	Open(ctx context.Context, path string) (Archive, error)

	// CanDecrypt reports whether Test can be run against encrypted members.
	CanDecrypt() bool

	// Name returns the backend name, e.g. "unrar".
	Name() string
}

// RAR file signatures (magic bytes)
var rarSignatures = [][]byte{
	{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00},       // RAR 1.5+
	{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01, 0x00}, // RAR 5.0+
}

// IsRarFile reports whether the file starts with a RAR signature.
func IsRarFile(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	// Read first 8 bytes (enough for RAR 5.0 signature)
	header := make([]byte, 8)
	n, _ := file.Read(header)
	header = header[:n]

	for _, sig := range rarSignatures {
		if bytes.HasPrefix(header, sig) {
			return true
		}
	}
	return false
}

// Detect returns the best available backend: unrar when installed (it can
// test encrypted members), otherwise 7z which can only list.
func Detect() (Opener, error) {
	name, path, ok := platform.LookPath(platform.ArchiveTools...)
	if !ok {
		return nil, fmt.Errorf("no archive tool found in PATH (tried %v)", platform.ArchiveTools)
	}
	if name == "unrar" {
		return &Unrar{BinaryPath: path, run: runTool}, nil
	}
	return &SevenZip{BinaryPath: path, run: runTool}, nil
}

// runFunc executes a tool and returns its combined output and exit code. err
// is only set when the tool could not be started at all.
type runFunc func(ctx context.Context, bin string, args ...string) (out []byte, code int, err error)

func runTool(ctx context.Context, bin string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return out, 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, exitErr.ExitCode(), nil
	}
	return out, -1, err
}
