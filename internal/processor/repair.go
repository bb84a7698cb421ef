package processor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Repairer verifies and fixes a PAR2 set.
type Repairer interface {
	// Verify reports whether the files of the set are healthy.
	Verify(ctx context.Context, par2Path string) (bool, error)

	// Repair attempts to fix the files using the parity volumes.
	Repair(ctx context.Context, par2Path string) error
}

type runFunc func(ctx context.Context, bin string, args ...string) error

type CLIPar2 struct {
	BinaryPath string
	run        runFunc
}

func NewCLIPar2() (*CLIPar2, error) {
	path, err := exec.LookPath("par2")
	if err != nil {
		return nil, fmt.Errorf("par2 binary not found in PATH: %w", err)
	}
	return &CLIPar2{BinaryPath: path, run: runCmd}, nil
}

func runCmd(ctx context.Context, bin string, args ...string) error {
	return exec.CommandContext(ctx, bin, args...).Run()
}

func (c *CLIPar2) Verify(ctx context.Context, path string) (bool, error) {
	// 'v' is verify, '-q' is quiet
	err := c.run(ctx, c.BinaryPath, "v", "-q", path)
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		// Damaged but repairable
		return false, nil
	}
	return false, err
}

func (c *CLIPar2) Repair(ctx context.Context, path string) error {
	return c.run(ctx, c.BinaryPath, "r", "-q", path)
}
