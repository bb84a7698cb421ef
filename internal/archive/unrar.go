package archive

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
)

// unrar exit codes
const (
	unrarCRCError    = 3
	unrarBadPassword = 11
)

// Unrar lists and tests RAR archives with the unrar binary. Detect builds it.
type Unrar struct {
	BinaryPath string
	run        runFunc
}

func (u *Unrar) Name() string { return "unrar" }

func (u *Unrar) CanDecrypt() bool { return true }

// Open lists the archive once with "unrar lt". -p- keeps unrar from
// prompting when headers are encrypted.
func (u *Unrar) Open(ctx context.Context, path string) (Archive, error) {
	out, code, err := u.run(ctx, u.BinaryPath, "lt", "-p-", "-idc", path)
	if err != nil {
		return nil, fmt.Errorf("failed to run unrar: %w", err)
	}

	names, encrypted := parseUnrarListing(out)
	if code != 0 && !encrypted {
		return nil, fmt.Errorf("unrar listing failed (exit %d): %s", code, strings.TrimSpace(string(out)))
	}

	return &unrarArchive{tool: u, path: path, names: names, encrypted: encrypted}, nil
}

// parseUnrarListing reads the technical listing of "unrar lt".
func parseUnrarListing(out []byte) (names []string, encrypted bool) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "Name: "):
			names = append(names, strings.TrimPrefix(line, "Name: "))
		case strings.HasPrefix(line, "Flags:") && strings.Contains(line, "encrypted"):
			encrypted = true
		case strings.HasPrefix(line, "Details:") && strings.Contains(line, "encrypted headers"):
			encrypted = true
		case strings.Contains(line, "password is incorrect"), strings.Contains(line, "Enter password"):
			encrypted = true
		}
	}
	return names, encrypted
}

type unrarArchive struct {
	tool      *Unrar
	path      string
	names     []string
	encrypted bool
	password  string
}

func (a *unrarArchive) Names() []string { return a.names }

func (a *unrarArchive) NeedsPassword() bool { return a.encrypted }

func (a *unrarArchive) SetPassword(password string) error {
	a.password = password
	return nil
}

func (a *unrarArchive) Test(ctx context.Context) error {
	pw := "-p-"
	if a.password != "" {
		pw = "-p" + a.password
	}
	out, code, err := a.tool.run(ctx, a.tool.BinaryPath, "t", "-idq", pw, a.path)
	if err != nil {
		return fmt.Errorf("failed to run unrar: %w", err)
	}
	return classifyUnrarTest(out, code)
}

func classifyUnrarTest(out []byte, code int) error {
	msg := string(out)
	switch {
	case code == 0:
		return nil
	case strings.Contains(msg, "previous volume"):
		return ErrWrongVolume
	case code == unrarBadPassword, strings.Contains(msg, "password is incorrect"):
		return ErrBadPassword
	case code == unrarCRCError:
		return ErrChecksum
	default:
		return fmt.Errorf("unrar test failed (exit %d): %s", code, strings.TrimSpace(msg))
	}
}

func (a *unrarArchive) Close() error { return nil }
