package ipv4

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

func TestFromSlice(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{
			name: "valid header with payload",
			data: []byte{
				0x45, 0x00, 0x00, 0x1C,
				0x12, 0x34, 0x40, 0x00,
				0x40, 0x06, 0x00, 0x00,
				0xc0, 0xa8, 0x01, 0x64,
				0xc0, 0xa8, 0x01, 0x01,
				0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
			},
			wantErr: false,
		},
		{
			name:    "too short",
			data:    []byte{0x45, 0x00, 0x00},
			wantErr: true,
		},
		{
			name: "invalid version",
			data: []byte{
				0x65, 0x00, 0x00, 0x1C,
				0x12, 0x34, 0x40, 0x00,
				0x40, 0x06, 0x00, 0x00,
				0xc0, 0xa8, 0x01, 0x64,
				0xc0, 0xa8, 0x01, 0x01,
				0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
			},
			wantErr: true,
		},
		{
			name: "invalid IHL",
			data: []byte{
				0x43, 0x00, 0x00, 0x1C,
				0x12, 0x34, 0x40, 0x00,
				0x40, 0x06, 0x00, 0x00,
				0xc0, 0xa8, 0x01, 0x64,
				0xc0, 0xa8, 0x01, 0x01,
				0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
			},
			wantErr: true,
		},
		{
			name: "total length smaller than header",
			data: []byte{
				0x45, 0x00, 0x00, 0x05,
				0x12, 0x34, 0x40, 0x00,
				0x40, 0x06, 0x00, 0x00,
				0xc0, 0xa8, 0x01, 0x64,
				0xc0, 0xa8, 0x01, 0x01,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := FromSlice(tt.data, 0)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestFromSlicePayloadAndTrailer(t *testing.T) {
	data := []byte{
		0x45, 0x00, 0x00, 0x18, // total length 24
		0x00, 0x00, 0x00, 0x00,
		0x40, 0x11, 0x00, 0x00,
		0x0a, 0x00, 0x00, 0x01,
		0x0a, 0x00, 0x00, 0x02,
		0xAA, 0xAA, 0xAA, 0xAA, // 4 bytes payload
		0xFF, 0xFF, // 2 bytes trailer (not part of total_length)
	}
	h, payload, trailer, err := FromSlice(data, 0)
	require.NoError(t, err)
	require.Equal(t, uint8(5), h.IHL)
	require.Equal(t, []byte{0xAA, 0xAA, 0xAA, 0xAA}, payload)
	require.Equal(t, []byte{0xFF, 0xFF}, trailer)
}

func TestFromSliceWithOptions(t *testing.T) {
	data := []byte{
		0x46, 0x00, 0x00, 0x18, // IHL=6 -> 24 byte header, total length 24
		0x00, 0x00, 0x00, 0x00,
		0x40, 0x06, 0x00, 0x00,
		0x0a, 0x00, 0x00, 0x01,
		0x0a, 0x00, 0x00, 0x02,
		0x01, 0x01, 0x01, 0x01, // 4 bytes of options
	}
	h, payload, _, err := FromSlice(data, 0)
	require.NoError(t, err)
	require.Equal(t, uint8(4), h.OptionsLen)
	require.Equal(t, []byte{0x01, 0x01, 0x01, 0x01}, h.Options[:h.OptionsLen])
	require.Empty(t, payload)
}

func TestFromSliceTooShortReportsLenError(t *testing.T) {
	_, _, _, err := FromSlice([]byte{0x45, 0x00}, 7)
	var lenErr *neterr.LenError
	require.True(t, errors.As(err, &lenErr))
	require.Equal(t, neterr.LayerIpv4Header, lenErr.Layer)
	require.Equal(t, 7, lenErr.LayerStartOffset)
}

func TestFromSliceLaxTruncatedPayload(t *testing.T) {
	data := []byte{
		0x45, 0x00, 0x00, 0x1C, // total length 28, but buffer is shorter
		0x00, 0x00, 0x00, 0x00,
		0x40, 0x06, 0x00, 0x00,
		0x0a, 0x00, 0x00, 0x01,
		0x0a, 0x00, 0x00, 0x02,
		0x01, 0x02, // only 2 bytes of payload present
	}
	h, payload, trailer, err := FromSliceLax(data, 0)
	require.NoError(t, err)
	require.Equal(t, uint16(28), h.TotalLength)
	require.Equal(t, []byte{0x01, 0x02}, payload)
	require.Empty(t, trailer)
}

func TestRoundTrip(t *testing.T) {
	src, _ := common.ParseIPv4("192.168.1.100")
	dst, _ := common.ParseIPv4("192.168.1.1")
	h := Header{
		IHL:            5,
		TotalLength:    28,
		TimeToLive:     64,
		Protocol:       common.IpNumberTcp,
		Source:         src,
		Destination:    dst,
		FragmentOffset: 0,
	}
	sum, err := h.CalcHeaderChecksum()
	require.NoError(t, err)
	h.HeaderChecksum = sum

	buf := make([]byte, h.HeaderLen())
	require.NoError(t, h.Write(buf))

	parsed, _, _, err := FromSlice(append(buf, make([]byte, 8)...), 0)
	require.NoError(t, err)
	require.Equal(t, h.Source, parsed.Source)
	require.Equal(t, h.Destination, parsed.Destination)
	require.Equal(t, h.HeaderChecksum, parsed.HeaderChecksum)
}

func TestIsFragment(t *testing.T) {
	require.True(t, Header{Flags: Flags{MoreFragments: true}}.IsFragment())
	require.True(t, Header{FragmentOffset: 10}.IsFragment())
	require.False(t, Header{}.IsFragment())
}

func TestNewHeaderRejectsOutOfRangeFields(t *testing.T) {
	src, dst := common.IPv4Address{10, 0, 0, 1}, common.IPv4Address{10, 0, 0, 2}
	_, err := NewHeader(0x40, 0, 20, 0, Flags{}, 0, 64, common.IpNumberTcp, src, dst, nil)
	var rangeErr *neterr.FieldRangeError
	require.True(t, errors.As(err, &rangeErr))
	require.Equal(t, "DSCP", rangeErr.Field)

	_, err = NewHeader(0, 0, 20, 0, Flags{}, 0x2000, 64, common.IpNumberTcp, src, dst, nil)
	require.True(t, errors.As(err, &rangeErr))
	require.Equal(t, "FragmentOffset", rangeErr.Field)

	h, err := NewHeader(0, 0, 24, 0, Flags{}, 0, 64, common.IpNumberTcp, src, dst, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, uint8(6), h.IHL)
	require.Equal(t, uint8(4), h.OptionsLen)
}

func FuzzRoundTrip(f *testing.F) {
	h := Header{
		IHL: 5, TotalLength: 24, TimeToLive: 64,
		Protocol: common.IpNumberUdp,
		Source:   common.IPv4Address{10, 0, 0, 1}, Destination: common.IPv4Address{10, 0, 0, 2},
	}
	seed := make([]byte, h.HeaderLen())
	require.NoError(f, h.Write(seed))
	seed = append(seed, 0xAA, 0xBB, 0xCC, 0xDD)
	f.Add(seed)
	f.Fuzz(func(t *testing.T, data []byte) {
		h, payload, trailer, err := FromSlice(data, 0)
		if err != nil {
			return
		}
		buf := make([]byte, h.HeaderLen())
		require.NoError(t, h.Write(buf))
		out := append(buf, payload...)
		out = append(out, trailer...)
		h2, payload2, trailer2, err2 := FromSlice(out, 0)
		require.NoError(t, err2)
		require.Equal(t, h, h2)
		require.Equal(t, payload, payload2)
		require.Equal(t, trailer, trailer2)
	})
}
