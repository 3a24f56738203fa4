package macsec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

func TestFromSliceUnmodified(t *testing.T) {
	h, rest, err := FromSlice([]byte{0x01, 0x02}, common.EtherTypeIPv4, 0)
	require.NoError(t, err)
	require.True(t, h.Unmodified)
	require.Equal(t, common.EtherTypeIPv4, h.PType)
	require.Equal(t, []byte{0x01, 0x02}, rest)
}

func TestFromSliceNoSci(t *testing.T) {
	data := []byte{
		0x0C,             // TCI/AN: E=1, C=1, AN=0
		0x00,             // SL
		0x00, 0x00, 0x00, 0x2A, // PN = 42
		0xAA, // start of payload
	}
	h, rest, err := FromSlice(data, common.EtherTypeMacsec, 0)
	require.NoError(t, err)
	require.False(t, h.Unmodified)
	require.True(t, h.TciE)
	require.True(t, h.TciC)
	require.False(t, h.SciPresent)
	require.Equal(t, uint32(42), h.PacketNumber)
	require.Equal(t, []byte{0xAA}, rest)
}

func TestFromSliceWithSci(t *testing.T) {
	data := []byte{
		0x40, // ES bit set -> SciPresent
		0x00,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, // SCI = 1
		0xBB,
	}
	h, rest, err := FromSlice(data, common.EtherTypeMacsec, 0)
	require.NoError(t, err)
	require.True(t, h.SciPresent)
	require.Equal(t, uint64(1), h.Sci)
	require.Equal(t, []byte{0xBB}, rest)
}

func TestShortLenDisallowed(t *testing.T) {
	data := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00}
	_, _, err := FromSlice(data, common.EtherTypeMacsec, 0)
	var shortErr *neterr.MacsecShortLenDisallowedError
	require.True(t, errors.As(err, &shortErr))
}

func TestUnexpectedVersion(t *testing.T) {
	data := []byte{0x80, 0x00, 0x00, 0x00, 0x00, 0x00}
	_, _, err := FromSlice(data, common.EtherTypeMacsec, 0)
	var verErr *neterr.MacsecUnexpectedVersionError
	require.True(t, errors.As(err, &verErr))
}

func TestNewHeaderRejectsOutOfRangeFields(t *testing.T) {
	_, err := NewHeader(false, false, true, true, 4, 0, 1, 0)
	var rangeErr *neterr.FieldRangeError
	require.True(t, errors.As(err, &rangeErr))
	require.Equal(t, "AssociationNum", rangeErr.Field)

	_, err = NewHeader(false, false, false, false, 0, 1, 1, 0)
	var shortErr *neterr.MacsecShortLenDisallowedError
	require.True(t, errors.As(err, &shortErr))

	h, err := NewHeader(true, false, false, false, 1, 0, 1, 0xABCD)
	require.NoError(t, err)
	require.True(t, h.SciPresent)
	require.Equal(t, uint64(0xABCD), h.Sci)
}

// FuzzParse has no Write/ToBytes to round-trip through, so instead it
// checks that FromSlice is deterministic and that its reported rest
// slice is consistent with HeaderLen plus any SCI suffix actually consumed.
func FuzzParse(f *testing.F) {
	f.Add([]byte{0x0C, 0x00, 0x00, 0x00, 0x00, 0x2A, 0xAA})
	f.Add([]byte{0x40, 0x00, 0x00, 0x00, 0x00, 0x01, 0, 0, 0, 0, 0, 0, 0, 1, 0xBB})
	f.Add([]byte{0x01, 0x02})
	f.Fuzz(func(t *testing.T, data []byte) {
		h, rest, err := FromSlice(data, common.EtherTypeMacsec, 0)
		h2, rest2, err2 := FromSlice(data, common.EtherTypeMacsec, 0)
		require.Equal(t, err, err2)
		require.Equal(t, h, h2)
		require.Equal(t, rest, rest2)
		if err != nil {
			return
		}
		consumed := len(data) - len(rest)
		if h.SciPresent {
			require.Equal(t, HeaderLen+8, consumed)
		} else {
			require.Equal(t, HeaderLen, consumed)
		}
	})
}
