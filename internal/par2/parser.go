// Package par2 reads the FileDesc packets of a PAR2 file to build the
// filename -> MD5 table used for quick verification and renaming.
//
// Packet layout (all integers little endian):
//
//	 8 : magic "PAR2\0PKT"
//	 8 : packet length, including this 64 byte header
//	16 : MD5 of everything after this field
//	16 : recovery set id
//	16 : packet type, "PAR 2.0\0FileDesc" for file descriptions
//	 n : body
//
// A FileDesc body holds the file id, the full-file MD5, the MD5 of the
// first 16 KiB, the file length and the NUL padded name.
package par2

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Hash is a 128-bit MD5 digest as stored in PAR2 packets.
type Hash [md5.Size]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// Table maps a filename to its full-file MD5.
type Table map[string]Hash

// Table16k maps the MD5 of the first 16 KiB of a file to its name. One table
// is shared by all PAR2 files of a job.
type Table16k map[Hash]string

var (
	packetMagic  = []byte("PAR2\x00PKT")
	fileDescType = []byte("PAR 2.0\x00FileDesc")

	ErrBadLength   = errors.New("par2: invalid packet length")
	ErrBadChecksum = errors.New("par2: packet checksum mismatch")
	ErrTruncated   = errors.New("par2: truncated packet")
)

const (
	headerSize = 32 // magic + length + md5, the part not covered by the checksum

	offHash     = 32
	offHash16k  = 48
	offName     = 72
	minDescSize = offName
)

type fileDesc struct {
	name    string
	hash    Hash
	hash16k Hash
}

// ParseFile reads the PAR2 file at path. Any structural problem yields an
// empty table rather than a partially trusted one. table16k is updated in
// place; hashes that turn out to be ambiguous are removed from it.
func ParseFile(path string, table16k Table16k) Table {
	f, err := os.Open(path)
	if err != nil {
		return Table{}
	}
	defer f.Close()

	table, err := Parse(f, table16k)
	if err != nil {
		return Table{}
	}
	return table
}

// Parse reads packets from r until EOF or the first non-packet tag. The
// returned table is empty whenever err is non-nil.
func Parse(r io.Reader, table16k Table16k) (Table, error) {
	table := Table{}
	var duplicates []Hash

	// Ambiguous 16k signatures are dropped even when the file itself turns
	// out to be corrupt, so that no trace of them survives.
	defer func() {
		for _, h := range duplicates {
			delete(table16k, h)
		}
	}()

	tag := make([]byte, len(packetMagic))
	for {
		// EOF, or a short tail that cannot be a packet.
		if _, err := io.ReadFull(r, tag); err != nil {
			break
		}
		if !bytes.Equal(tag, packetMagic) {
			break
		}

		desc, err := readPacket(r)
		if err != nil {
			return Table{}, err
		}
		if desc == nil {
			continue
		}

		table[desc.name] = desc.hash
		if prev, ok := table16k[desc.hash16k]; !ok {
			table16k[desc.hash16k] = desc.name
		} else if prev != desc.name {
			duplicates = append(duplicates, desc.hash16k)
		}
	}

	return table, nil
}

// readPacket reads the remainder of a packet whose magic has been consumed.
// It returns nil, nil for verified packets that carry no file description.
func readPacket(r io.Reader) (*fileDesc, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, ErrTruncated
	}
	length := binary.LittleEndian.Uint64(lenBuf[:])
	if length%4 != 0 || length < 20 || length < headerSize || length > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %d", ErrBadLength, length)
	}

	var sum Hash
	if _, err := io.ReadFull(r, sum[:]); err != nil {
		return nil, ErrTruncated
	}

	// CopyN grows the buffer as data arrives, so a bogus length cannot force
	// a huge allocation before we hit EOF.
	var body bytes.Buffer
	if _, err := io.CopyN(&body, r, int64(length-headerSize)); err != nil {
		return nil, ErrTruncated
	}
	data := body.Bytes()

	if md5.Sum(data) != sum {
		return nil, ErrBadChecksum
	}

	return findFileDesc(data)
}

func findFileDesc(data []byte) (*fileDesc, error) {
	for off := 0; off+len(fileDescType) <= len(data); off += 8 {
		if !bytes.Equal(data[off:off+len(fileDescType)], fileDescType) {
			continue
		}
		if off+minDescSize > len(data) {
			return nil, ErrTruncated
		}

		desc := &fileDesc{
			name: string(bytes.TrimRight(data[off+offName:], "\x00")),
		}
		copy(desc.hash[:], data[off+offHash:off+offHash+md5.Size])
		copy(desc.hash16k[:], data[off+offHash16k:off+offHash16k+md5.Size])
		return desc, nil
	}
	return nil, nil
}
