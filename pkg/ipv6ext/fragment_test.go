package ipv6ext

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
)

func TestFragmentRoundTrip(t *testing.T) {
	h := FragmentHeader{
		NextHeader:     common.IpNumberTcp,
		FragmentOffset: 100,
		MoreFragments:  true,
		Identification: 0xdeadbeef,
	}
	b := h.ToBytes()
	parsed, rest, err := FromSliceFragment(b[:], 0)
	require.NoError(t, err)
	require.Equal(t, h, parsed)
	require.Empty(t, rest)
}

func TestFragmentIsFragment(t *testing.T) {
	require.True(t, FragmentHeader{MoreFragments: true}.IsFragment())
	require.True(t, FragmentHeader{FragmentOffset: 1}.IsFragment())
	require.False(t, FragmentHeader{}.IsFragment())
}

func FuzzFragmentRoundTrip(f *testing.F) {
	h := FragmentHeader{
		NextHeader:     common.IpNumberTcp,
		FragmentOffset: 100,
		MoreFragments:  true,
		Identification: 0xdeadbeef,
	}
	seed := h.ToBytes()
	f.Add(seed[:])
	f.Fuzz(func(t *testing.T, data []byte) {
		h, rest, err := FromSliceFragment(data, 0)
		if err != nil {
			return
		}
		out := h.ToBytes()
		h2, rest2, err2 := FromSliceFragment(out[:], 0)
		require.NoError(t, err2)
		require.Equal(t, h, h2)
		require.Equal(t, len(data)-FragmentHeaderLen, len(rest))
		require.Empty(t, rest2)
	})
}
