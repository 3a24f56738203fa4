package udp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

func TestFromSlice(t *testing.T) {
	data := []byte{
		0x00, 0x50, 0x1F, 0x90, // src 80, dst 8080
		0x00, 0x0C, 0x00, 0x00, // length 12, checksum 0
		0xAA, 0xBB, 0xCC, 0xDD, // 4 bytes payload
		0xEE, // trailer
	}
	h, payload, trailer, err := FromSlice(data, 0)
	require.NoError(t, err)
	require.Equal(t, uint16(80), h.SourcePort)
	require.Equal(t, uint16(8080), h.DestinationPort)
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, payload)
	require.Equal(t, []byte{0xEE}, trailer)
}

func TestFromSliceTooShort(t *testing.T) {
	_, _, _, err := FromSlice([]byte{0x00, 0x50}, 0)
	var lenErr *neterr.LenError
	require.True(t, errors.As(err, &lenErr))
	require.Equal(t, neterr.LayerUdpHeader, lenErr.Layer)
}

func TestFromSliceLengthSmallerThanHeader(t *testing.T) {
	data := []byte{0x00, 0x50, 0x1F, 0x90, 0x00, 0x04, 0x00, 0x00}
	_, _, _, err := FromSlice(data, 0)
	var lenErr *neterr.LenError
	require.True(t, errors.As(err, &lenErr))
	require.Equal(t, neterr.LenSourceUdpLength, lenErr.LenSource)
}

func TestRoundTrip(t *testing.T) {
	h := Header{SourcePort: 1, DestinationPort: 2, Length: 8, Checksum: 0x1234}
	b := h.ToBytes()
	parsed, payload, trailer, err := FromSlice(b[:], 0)
	require.NoError(t, err)
	require.Equal(t, h, parsed)
	require.Empty(t, payload)
	require.Empty(t, trailer)
}

func FuzzRoundTrip(f *testing.F) {
	h := Header{SourcePort: 1, DestinationPort: 2, Length: 12, Checksum: 0x1234}
	seed := h.ToBytes()
	seed2 := append(seed[:], 0xAA, 0xBB, 0xCC, 0xDD)
	f.Add(seed2)
	f.Fuzz(func(t *testing.T, data []byte) {
		h, payload, trailer, err := FromSlice(data, 0)
		if err != nil {
			return
		}
		buf := h.ToBytes()
		out := append(buf[:], payload...)
		out = append(out, trailer...)
		h2, payload2, trailer2, err2 := FromSlice(out, 0)
		require.NoError(t, err2)
		require.Equal(t, h, h2)
		require.Equal(t, payload, payload2)
		require.Equal(t, trailer, trailer2)
	})
}
