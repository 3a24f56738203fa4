// Package udp implements the UDP header as defined in RFC 768 (C2 in
// the design): source/destination ports, a length covering header plus
// data, and a checksum whose all-zero encoding is special-cased.
package udp

import (
	"encoding/binary"
	"fmt"

	"github.com/therealutkarshpriyadarshi/etherslice/internal/bits"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// HeaderLen is the fixed size of a UDP header in bytes.
const HeaderLen = 8

// Header is a UDP header.
type Header struct {
	SourcePort      uint16
	DestinationPort uint16
	Length          uint16
	Checksum        uint16
}

// FromSlice parses a UDP header from the start of buf, bounding the
// returned payload by the header's own Length field rather than merely
// by len(buf). layerStart is the offset of buf within the original
// input.
func FromSlice(buf []byte, layerStart int) (Header, []byte, []byte, error) {
	var h Header
	if err := bits.Need(buf, HeaderLen, neterr.LayerUdpHeader, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, nil, err
	}
	h.SourcePort = binary.BigEndian.Uint16(buf[0:2])
	h.DestinationPort = binary.BigEndian.Uint16(buf[2:4])
	h.Length = binary.BigEndian.Uint16(buf[4:6])
	h.Checksum = binary.BigEndian.Uint16(buf[6:8])

	if h.Length < HeaderLen {
		return h, nil, nil, &neterr.LenError{
			RequiredLen: HeaderLen, Len: int(h.Length),
			LenSource: neterr.LenSourceUdpLength, Layer: neterr.LayerUdpHeader, LayerStartOffset: layerStart,
		}
	}
	if err := bits.Need(buf, int(h.Length), neterr.LayerUdpHeader, neterr.LenSourceUdpLength, layerStart); err != nil {
		return h, nil, nil, err
	}
	return h, buf[HeaderLen:h.Length], buf[h.Length:], nil
}

// Write serializes h into the first HeaderLen bytes of buf.
func (h Header) Write(buf []byte) error {
	if len(buf) < HeaderLen {
		return fmt.Errorf("udp: buffer too small: have %d, need %d", len(buf), HeaderLen)
	}
	binary.BigEndian.PutUint16(buf[0:2], h.SourcePort)
	binary.BigEndian.PutUint16(buf[2:4], h.DestinationPort)
	binary.BigEndian.PutUint16(buf[4:6], h.Length)
	binary.BigEndian.PutUint16(buf[6:8], h.Checksum)
	return nil
}

// ToBytes returns the on-wire representation of h.
func (h Header) ToBytes() [HeaderLen]byte {
	var out [HeaderLen]byte
	_ = h.Write(out[:])
	return out
}

func (h Header) String() string {
	return fmt.Sprintf("Udp{SrcPort=%d, DstPort=%d, Length=%d, Checksum=%#04x}",
		h.SourcePort, h.DestinationPort, h.Length, h.Checksum)
}
