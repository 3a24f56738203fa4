package ipv6ext

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

func TestAuthRoundTrip(t *testing.T) {
	h := AuthHeader{
		NextHeader:     common.IpNumberTcp,
		SPI:            0x1234,
		SequenceNumber: 1,
		ICVLen:         12,
	}
	copy(h.ICV[:12], []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})

	buf := make([]byte, h.Len())
	require.NoError(t, h.Write(buf))

	parsed, rest, err := FromSliceAuthHeader(buf, 0)
	require.NoError(t, err)
	require.Equal(t, h.SPI, parsed.SPI)
	require.Equal(t, h.SequenceNumber, parsed.SequenceNumber)
	require.Equal(t, h.ICVLen, parsed.ICVLen)
	require.Empty(t, rest)
}

func TestAuthZeroPayloadLen(t *testing.T) {
	data := make([]byte, AuthMinLen)
	data[1] = 0
	_, _, err := FromSliceAuthHeader(data, 0)
	var zeroErr *neterr.Ipv6ExtZeroPayloadLenError
	require.True(t, errors.As(err, &zeroErr))
}

func TestAuthTooShort(t *testing.T) {
	_, _, err := FromSliceAuthHeader(make([]byte, 4), 0)
	var lenErr *neterr.LenError
	require.True(t, errors.As(err, &lenErr))
	require.Equal(t, neterr.LayerIpv6ExtAuth, lenErr.Layer)
}

func TestNewAuthHeaderRejectsMisalignedICV(t *testing.T) {
	_, err := NewAuthHeader(common.IpNumberTcp, 1, 1, []byte{1, 2, 3})
	var rangeErr *neterr.FieldRangeError
	require.True(t, errors.As(err, &rangeErr))

	h, err := NewAuthHeader(common.IpNumberTcp, 1, 1, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, 4, h.ICVLen)
}

func FuzzAuthRoundTrip(f *testing.F) {
	h := AuthHeader{NextHeader: common.IpNumberTcp, SPI: 0x1234, SequenceNumber: 1, ICVLen: 12}
	copy(h.ICV[:12], []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	seed := make([]byte, h.Len())
	require.NoError(f, h.Write(seed))
	f.Add(seed)
	f.Fuzz(func(t *testing.T, data []byte) {
		h, rest, err := FromSliceAuthHeader(data, 0)
		if err != nil {
			return
		}
		buf := make([]byte, h.Len())
		require.NoError(t, h.Write(buf))
		h2, rest2, err2 := FromSliceAuthHeader(buf, 0)
		require.NoError(t, err2)
		require.Equal(t, h, h2)
		require.Equal(t, len(data)-h.Len(), len(rest))
		require.Empty(t, rest2)
	})
}
