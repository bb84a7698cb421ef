package decoding

import (
	"fmt"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encode is a minimal yEnc encoder for round-tripping test payloads.
func encode(data []byte, part bool, footer string) []byte {
	var out []byte
	out = append(out, fmt.Sprintf("=ybegin line=128 size=%d name=test.bin\r\n", len(data))...)
	if part {
		out = append(out, fmt.Sprintf("=ypart begin=1 end=%d\r\n", len(data))...)
	}
	col := 0
	for _, b := range data {
		e := b + 42
		switch e {
		case 0, '\n', '\r', '=':
			out = append(out, '=', e+64)
			col += 2
		default:
			out = append(out, e)
			col++
		}
		if col >= 128 {
			out = append(out, '\r', '\n')
			col = 0
		}
	}
	out = append(out, "\r\n"...)
	out = append(out, footer...)
	return out
}

func payload() []byte {
	data := make([]byte, 600)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return data
}

func TestDecodeWithPartCRC(t *testing.T) {
	data := payload()
	body := encode(data, true, fmt.Sprintf("=yend size=%d part=1 pcrc32=%08x\r\n", len(data), crc32.ChecksumIEEE(data)))

	got, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDecodeCRCMismatch(t *testing.T) {
	data := payload()
	body := encode(data, false, "=yend size=600 crc32=deadbeef\r\n")

	_, err := Decode(body)
	assert.ErrorIs(t, err, ErrCRCMismatch)
}

func TestDecodeWithoutCRC(t *testing.T) {
	data := []byte("plain bytes")
	got, err := Decode(encode(data, false, "=yend size=11\r\n"))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDecodeMissingHeader(t *testing.T) {
	_, err := Decode([]byte("no header here\r\n"))
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestIsYenc(t *testing.T) {
	assert.True(t, IsYenc([]byte("=ybegin line=128 size=1 name=a\r\n")))
	assert.True(t, IsYenc([]byte("220 0 <id>\r\n=ybegin line=128 size=1 name=a\r\n")))
	assert.False(t, IsYenc([]byte{0x00, 0x01, 0x02}))
}
