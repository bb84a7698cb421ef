// Package decoding turns yEnc encoded article bodies back into bytes.
package decoding

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"strconv"
	"strings"
)

var (
	ErrHeaderNotFound = errors.New("yenc header not found")
	ErrCRCMismatch    = errors.New("yenc checksum mismatch")
)

// YencDecoder is an io.Reader over the decoded payload of one yEnc part.
type YencDecoder struct {
	scanner     *bufio.Reader
	reachedEnd  bool
	escaped     bool // State: was the previous byte '='?
	hash        hash.Hash32
	expectedCRC uint32
	hasCRC      bool
}

func NewYencDecoder(r io.Reader) *YencDecoder {
	return &YencDecoder{
		scanner: bufio.NewReader(r),
		hash:    crc32.NewIEEE(), // yEnc uses the standard IEEE polynomial
	}
}

// IsYenc reports whether data looks like a yEnc body rather than an
// already decoded payload.
func IsYenc(data []byte) bool {
	return bytes.HasPrefix(data, []byte("=ybegin ")) || bytes.Contains(data, []byte("\n=ybegin "))
}

// Decode decodes a complete yEnc body and verifies its CRC when the footer
// carries one.
func Decode(data []byte) ([]byte, error) {
	d := NewYencDecoder(bytes.NewReader(data))
	if err := d.DiscardHeader(); err != nil {
		return nil, err
	}
	out, err := io.ReadAll(d)
	if err != nil {
		return nil, err
	}
	if err := d.Verify(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *YencDecoder) DiscardHeader() error {
	for {
		line, err := d.scanner.ReadString('\n')
		if strings.HasPrefix(line, "=ybegin") {
			return d.handlePotentialPartHeader()
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrHeaderNotFound
			}
			return fmt.Errorf("searching for yenc header: %w", err)
		}
	}
}

func (d *YencDecoder) Read(p []byte) (n int, err error) {
	if d.reachedEnd {
		return 0, io.EOF
	}

	for n < len(p) {
		b, err := d.scanner.ReadByte()
		if err != nil {
			return n, err
		}

		if b == '=' && !d.escaped {
			// "=yend" closes the part
			peek, _ := d.scanner.Peek(4)
			if string(peek) == "yend" {
				d.reachedEnd = true
				d.parseFooter()
				return n, io.EOF
			}

			d.escaped = true
			continue
		}

		if b == '\r' || b == '\n' {
			// Line breaks are never part of the payload
			d.escaped = false
			continue
		}

		var decoded byte
		if d.escaped {
			decoded = b - 64 - 42
			d.escaped = false
		} else {
			decoded = b - 42
		}

		p[n] = decoded
		d.hash.Write(p[n : n+1])
		n++
	}

	return n, nil
}

func (d *YencDecoder) parseFooter() {
	line, _ := d.scanner.ReadString('\n')
	// Typical footer: =yend size=12345 part=1 pcrc32=ABC12345
	for _, part := range strings.Fields(line) {
		key, val, ok := strings.Cut(part, "=")
		if !ok || (key != "pcrc32" && key != "crc32") {
			continue
		}
		crc, err := strconv.ParseUint(val, 16, 32)
		if err != nil {
			continue
		}
		// The part CRC wins over the whole-file CRC
		if key == "pcrc32" || !d.hasCRC {
			d.expectedCRC = uint32(crc)
			d.hasCRC = true
		}
		if key == "pcrc32" {
			return
		}
	}
}

// Verify compares the decoded bytes against the footer CRC. Parts without a
// CRC always verify.
func (d *YencDecoder) Verify() error {
	if !d.hasCRC {
		return nil
	}
	actual := d.hash.Sum32()
	if actual != d.expectedCRC {
		return fmt.Errorf("%w: expected %08X, got %08X", ErrCRCMismatch, d.expectedCRC, actual)
	}
	return nil
}

func (d *YencDecoder) handlePotentialPartHeader() error {
	// Peek so binary data is not consumed when there is no =ypart line
	peek, _ := d.scanner.Peek(6)
	if string(peek) == "=ypart" {
		_, err := d.scanner.ReadString('\n')
		return err
	}
	return nil
}
