package archive

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
)

// SevenZip lists RAR archives with 7z. p7zip builds commonly ship without
// the RAR codec, so it never tests members.
type SevenZip struct {
	BinaryPath string
	run        runFunc
}

func (z *SevenZip) Name() string { return "7z" }

func (z *SevenZip) CanDecrypt() bool { return false }

func (z *SevenZip) Open(ctx context.Context, path string) (Archive, error) {
	// l = list, -slt = technical listing, -p- = never prompt
	out, code, err := z.run(ctx, z.BinaryPath, "l", "-slt", "-p-", path)
	if err != nil {
		return nil, fmt.Errorf("failed to run 7z: %w", err)
	}

	names, encrypted := parse7zListing(out)
	if code != 0 && !encrypted {
		return nil, fmt.Errorf("7z listing failed (exit %d): %s", code, strings.TrimSpace(string(out)))
	}
	return &sevenZipArchive{names: names, encrypted: encrypted}, nil
}

// parse7zListing reads "7z l -slt" output. Member blocks follow the
// "----------" separator; the block before it describes the archive itself.
func parse7zListing(out []byte) (names []string, encrypted bool) {
	inMembers := false
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "----------":
			inMembers = true
		case strings.Contains(line, "Wrong password"), strings.Contains(line, "Can not open encrypted archive"):
			encrypted = true
		case !inMembers:
		case strings.HasPrefix(line, "Path = "):
			names = append(names, strings.TrimPrefix(line, "Path = "))
		case line == "Encrypted = +":
			encrypted = true
		}
	}
	return names, encrypted
}

type sevenZipArchive struct {
	names     []string
	encrypted bool
}

func (a *sevenZipArchive) Names() []string { return a.names }

func (a *sevenZipArchive) NeedsPassword() bool { return a.encrypted }

func (a *sevenZipArchive) SetPassword(string) error { return ErrNoDecrypt }

func (a *sevenZipArchive) Test(context.Context) error { return ErrNoDecrypt }

func (a *sevenZipArchive) Close() error { return nil }
