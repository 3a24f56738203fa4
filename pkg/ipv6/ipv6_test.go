package ipv6

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

func TestRoundTrip(t *testing.T) {
	h := Header{
		TrafficClass:  0x12,
		FlowLabel:     0x54321,
		PayloadLength: 64,
		NextHeader:    common.IpNumberTcp,
		HopLimit:      64,
		Source:        common.IPv6Address{0x20, 0x01, 0x0d, 0xb8},
		Destination:   common.IPv6Address{0x20, 0x01, 0x0d, 0xb9},
	}
	b := h.ToBytes()
	parsed, rest, err := FromSlice(b[:], 0)
	require.NoError(t, err)
	require.Equal(t, h, parsed)
	require.Empty(t, rest)
}

func TestFromSliceTooShort(t *testing.T) {
	_, _, err := FromSlice(make([]byte, 39), 0)
	var lenErr *neterr.LenError
	require.True(t, errors.As(err, &lenErr))
	require.Equal(t, neterr.LayerIpv6Header, lenErr.Layer)
}

func TestFromSliceWrongVersion(t *testing.T) {
	data := make([]byte, HeaderLen)
	data[0] = 0x40 // version 4
	_, _, err := FromSlice(data, 0)
	var verErr *neterr.UnexpectedVersionError
	require.True(t, errors.As(err, &verErr))
	require.Equal(t, uint8(4), verErr.Version)
}

func FuzzRoundTrip(f *testing.F) {
	h := Header{
		TrafficClass: 0x12, FlowLabel: 0x54321, PayloadLength: 64,
		NextHeader: common.IpNumberTcp, HopLimit: 64,
		Source:      common.IPv6Address{0x20, 0x01, 0x0d, 0xb8},
		Destination: common.IPv6Address{0x20, 0x01, 0x0d, 0xb9},
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
