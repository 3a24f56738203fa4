package ipv6ext

import (
	"encoding/binary"
	"fmt"

	"github.com/therealutkarshpriyadarshi/etherslice/internal/bits"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// FragmentHeaderLen is the fixed length of an IPv6 fragment header in
// bytes (RFC 8200 §4.5).
const FragmentHeaderLen = 8

// FragmentHeader is an IPv6 fragment extension header.
type FragmentHeader struct {
	NextHeader     common.IpNumber
	FragmentOffset uint16 // 13 bits, in 8-byte units
	MoreFragments  bool
	Identification uint32
}

// IsFragment reports whether this header describes a packet that is
// part of a larger fragmented datagram (offset nonzero or M bit set).
func (h FragmentHeader) IsFragment() bool {
	return h.FragmentOffset != 0 || h.MoreFragments
}

// FromSliceFragment parses a fragment header from the start of buf.
func FromSliceFragment(buf []byte, layerStart int) (FragmentHeader, []byte, error) {
	var h FragmentHeader
	if err := bits.Need(buf, FragmentHeaderLen, neterr.LayerIpv6ExtFragment, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, err
	}
	h.NextHeader = common.IpNumber(buf[0])
	offsetFlags := binary.BigEndian.Uint16(buf[2:4])
	h.FragmentOffset = uint16(bits.Mask(uint32(offsetFlags), 3, 13))
	h.MoreFragments = bits.Mask(uint32(offsetFlags), 0, 1) != 0
	h.Identification = binary.BigEndian.Uint32(buf[4:8])
	return h, buf[FragmentHeaderLen:], nil
}

// Write serializes h into the first FragmentHeaderLen bytes of buf.
func (h FragmentHeader) Write(buf []byte) error {
	if len(buf) < FragmentHeaderLen {
		return fmt.Errorf("ipv6ext: buffer too small: have %d, need %d", len(buf), FragmentHeaderLen)
	}
	buf[0] = uint8(h.NextHeader)
	buf[1] = 0
	var offsetFlags uint16
	offsetFlags |= (h.FragmentOffset & 0x1FFF) << 3
	if h.MoreFragments {
		offsetFlags |= 1
	}
	binary.BigEndian.PutUint16(buf[2:4], offsetFlags)
	binary.BigEndian.PutUint32(buf[4:8], h.Identification)
	return nil
}

// ToBytes returns the on-wire representation of h.
func (h FragmentHeader) ToBytes() [FragmentHeaderLen]byte {
	var out [FragmentHeaderLen]byte
	_ = h.Write(out[:])
	return out
}

func (h FragmentHeader) String() string {
	return fmt.Sprintf("Ipv6FragmentHeader{NextHeader=%s, Offset=%d, M=%t, Id=%d}",
		h.NextHeader, h.FragmentOffset, h.MoreFragments, h.Identification)
}
