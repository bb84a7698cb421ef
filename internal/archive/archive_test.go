package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRarFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, data, 0o644))
		return p
	}

	assert.True(t, IsRarFile(write("v4.rar", []byte("Rar!\x1a\x07\x00rest"))))
	assert.True(t, IsRarFile(write("v5.rar", []byte("Rar!\x1a\x07\x01\x00rest"))))
	assert.False(t, IsRarFile(write("short.rar", []byte("Rar!"))))
	assert.False(t, IsRarFile(write("zip.rar", []byte("PK\x03\x04rest"))))
	assert.False(t, IsRarFile(filepath.Join(dir, "missing.rar")))
}

type call struct {
	bin  string
	args []string
}

type scriptedRun struct {
	calls []call
	out   []string
	codes []int
}

func (s *scriptedRun) run(_ context.Context, bin string, args ...string) ([]byte, int, error) {
	i := len(s.calls)
	s.calls = append(s.calls, call{bin, args})
	return []byte(s.out[i]), s.codes[i], nil
}

const unrarListing = `
UNRAR 6.24 freeware      Copyright (c) 1993-2023 Alexander Roshal

Archive: /data/Show.rar
Details: RAR 5

        Name: Show.mkv
        Type: File
        Size: 1048576
       Flags: encrypted

        Name: sample/Show.sample.mkv
        Type: File
        Size: 1024
`

func TestUnrarOpenParsesListing(t *testing.T) {
	s := &scriptedRun{out: []string{unrarListing}, codes: []int{0}}
	u := &Unrar{BinaryPath: "/usr/bin/unrar", run: s.run}

	a, err := u.Open(context.Background(), "/data/Show.rar")
	require.NoError(t, err)

	assert.Equal(t, []string{"Show.mkv", "sample/Show.sample.mkv"}, a.Names())
	assert.True(t, a.NeedsPassword())
	assert.Equal(t, []string{"lt", "-p-", "-idc", "/data/Show.rar"}, s.calls[0].args)
}

func TestUnrarOpenEncryptedHeaders(t *testing.T) {
	out := "Archive: x.rar\nDetails: RAR 5, encrypted headers\nThe specified password is incorrect.\n"
	s := &scriptedRun{out: []string{out}, codes: []int{11}}
	u := &Unrar{BinaryPath: "unrar", run: s.run}

	a, err := u.Open(context.Background(), "x.rar")
	require.NoError(t, err)
	assert.Empty(t, a.Names())
	assert.True(t, a.NeedsPassword())
}

func TestUnrarOpenFailure(t *testing.T) {
	s := &scriptedRun{out: []string{"x.rar is not RAR archive"}, codes: []int{10}}
	u := &Unrar{BinaryPath: "unrar", run: s.run}

	_, err := u.Open(context.Background(), "x.rar")
	assert.ErrorContains(t, err, "exit 10")
}

func TestUnrarTestOutcomes(t *testing.T) {
	tests := []struct {
		name string
		out  string
		code int
		want error
	}{
		{"ok", "All OK", 0, nil},
		{"crc", "Checksum error in Show.mkv", 3, ErrChecksum},
		{"bad password", "The specified password is incorrect.", 11, ErrBadPassword},
		{"wrong volume", "You need to start extraction from a previous volume to unpack Show.mkv", 1, ErrWrongVolume},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &scriptedRun{out: []string{unrarListing, tt.out}, codes: []int{0, tt.code}}
			u := &Unrar{BinaryPath: "unrar", run: s.run}
			a, err := u.Open(context.Background(), "Show.rar")
			require.NoError(t, err)

			require.NoError(t, a.SetPassword("secret"))
			err = a.Test(context.Background())

			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, []string{"t", "-idq", "-psecret", "Show.rar"}, s.calls[1].args)
		})
	}
}

func TestUnrarTestOtherFailure(t *testing.T) {
	err := classifyUnrarTest([]byte("Unexpected end of archive"), 2)
	assert.ErrorContains(t, err, "exit 2")
	assert.NotErrorIs(t, err, ErrChecksum)
}

const sevenZipListing = `
7-Zip [64] 16.02 : Copyright (c) 1999-2016 Igor Pavlov

Listing archive: Show.rar

--
Path = Show.rar
Type = Rar5
Physical Size = 2048

----------
Path = Show.exe
Size = 100
Encrypted = +

Path = readme.txt
Size = 10
Encrypted = -
`

func TestSevenZipListOnly(t *testing.T) {
	s := &scriptedRun{out: []string{sevenZipListing}, codes: []int{0}}
	z := &SevenZip{BinaryPath: "7z", run: s.run}

	a, err := z.Open(context.Background(), "Show.rar")
	require.NoError(t, err)

	assert.False(t, z.CanDecrypt())
	assert.Equal(t, []string{"Show.exe", "readme.txt"}, a.Names())
	assert.True(t, a.NeedsPassword())
	assert.ErrorIs(t, a.Test(context.Background()), ErrNoDecrypt)
}

func TestSevenZipEncryptedHeaders(t *testing.T) {
	out := "ERROR: Show.rar\nCan not open encrypted archive. Wrong password?\n"
	s := &scriptedRun{out: []string{out}, codes: []int{2}}
	z := &SevenZip{BinaryPath: "7z", run: s.run}

	a, err := z.Open(context.Background(), "Show.rar")
	require.NoError(t, err)
	assert.True(t, a.NeedsPassword())
	assert.Empty(t, a.Names())
}
