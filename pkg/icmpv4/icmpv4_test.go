package icmpv4

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

func TestRoundTripEcho(t *testing.T) {
	h := NewEcho(true, 42, 7)
	b := h.ToBytes()
	parsed, rest, err := FromSlice(b[:], 0)
	require.NoError(t, err)
	require.Equal(t, h, parsed)
	require.Empty(t, rest)
	require.Equal(t, uint16(42), parsed.EchoID())
	require.Equal(t, uint16(7), parsed.EchoSequence())
}

func TestFromSliceTooShort(t *testing.T) {
	_, _, err := FromSlice(make([]byte, 4), 0)
	var lenErr *neterr.LenError
	require.True(t, errors.As(err, &lenErr))
	require.Equal(t, neterr.LayerIcmpv4, lenErr.Layer)
}

func FuzzRoundTrip(f *testing.F) {
	h := NewEcho(true, 42, 7)
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
