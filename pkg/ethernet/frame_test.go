package ethernet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

func TestFromSlice(t *testing.T) {
	data := []byte{
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // dst
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, // src
		0x08, 0x00, // ether type IPv4
		0x45, 0x00, 0x00, 0x54, // payload start
	}

	h, rest, err := FromSlice(data, 0)
	require.NoError(t, err)
	require.Equal(t, common.BroadcastMAC, h.Destination)
	require.Equal(t, common.MACAddress{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}, h.Source)
	require.Equal(t, common.EtherTypeIPv4, h.EtherType)
	require.True(t, bytes.Equal(rest, []byte{0x45, 0x00, 0x00, 0x54}))
}

func TestFromSliceTooShort(t *testing.T) {
	_, _, err := FromSlice([]byte{0x00, 0x11, 0x22}, 0)
	require.Error(t, err)

	var lenErr *neterr.LenError
	require.True(t, errors.As(err, &lenErr))
	require.Equal(t, HeaderLen, lenErr.RequiredLen)
	require.Equal(t, 3, lenErr.Len)
	require.Equal(t, neterr.LayerEthernet2, lenErr.Layer)
}

func TestFromSliceTruncationReportsOffset(t *testing.T) {
	data := []byte{
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0x08, 0x00,
	}
	for k := 1; k < HeaderLen; k++ {
		_, _, err := FromSlice(data[:k], 100)
		var lenErr *neterr.LenError
		require.True(t, errors.As(err, &lenErr))
		require.Equal(t, 100, lenErr.LayerStartOffset)
	}
}

func TestRoundTrip(t *testing.T) {
	h := Header{
		Destination: common.MACAddress{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		Source:      common.MACAddress{0x66, 0x77, 0x88, 0x99, 0xAA, 0xBB},
		EtherType:   common.EtherTypeIPv6,
	}
	bytes14 := h.ToBytes()
	parsed, rest, err := FromSlice(bytes14[:], 0)
	require.NoError(t, err)
	require.Equal(t, h, parsed)
	require.Empty(t, rest)
}

func TestWriteTooSmall(t *testing.T) {
	var h Header
	err := h.Write(make([]byte, 10))
	require.Error(t, err)
}

func FuzzRoundTrip(f *testing.F) {
	h := Header{
		Destination: common.MACAddress{1, 2, 3, 4, 5, 6},
		Source:      common.MACAddress{7, 8, 9, 10, 11, 12},
		EtherType:   common.EtherTypeIPv4,
	}
	seed := h.ToBytes()
	f.Add(seed[:])
	f.Fuzz(func(t *testing.T, data []byte) {
		h, rest, err := FromSlice(data, 0)
		if err != nil {
			return
		}
		out := h.ToBytes()
		h2, rest2, err2 := FromSlice(out[:], 0)
		require.NoError(t, err2)
		require.Equal(t, h, h2)
		require.Equal(t, len(data)-HeaderLen, len(rest))
		require.Empty(t, rest2)
	})
}
