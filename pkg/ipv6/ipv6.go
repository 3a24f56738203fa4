// Package ipv6 implements the fixed 40-byte IPv6 header as defined in
// RFC 8200 (C2 in the design). Extension headers are not handled here;
// see pkg/ipv6ext for the chain walker (C4) that follows NextHeader
// through hop-by-hop, routing, fragment, destination options, and
// authentication headers.
package ipv6

import (
	"encoding/binary"
	"fmt"

	"github.com/therealutkarshpriyadarshi/etherslice/internal/bits"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

const (
	// Version is the fixed version nibble value for IPv6.
	Version = 6

	// HeaderLen is the fixed IPv6 header length in bytes.
	HeaderLen = 40
)

// Header is a fixed IPv6 header.
type Header struct {
	TrafficClass uint8
	FlowLabel    uint32 // 20 bits
	PayloadLength uint16
	NextHeader   common.IpNumber
	HopLimit     uint8
	Source       common.IPv6Address
	Destination  common.IPv6Address
}

// FromSlice parses a fixed IPv6 header from the start of buf. It does
// not attempt to bound the returned payload by PayloadLength — the IPv6
// dispatch in pkg/sliced and pkg/packet does that, since a zero PayloadLength
// with a hop-by-hop jumbogram option changes the meaning entirely (see
// the module's documented jumbogram-fallback decision).
func FromSlice(buf []byte, layerStart int) (Header, []byte, error) {
	var h Header
	if err := bits.Need(buf, HeaderLen, neterr.LayerIpv6Header, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, err
	}
	versionTCFlow := binary.BigEndian.Uint32(buf[0:4])
	version := uint8(versionTCFlow >> 28)
	if version != Version {
		return h, nil, &neterr.UnexpectedVersionError{Layer: neterr.LayerIpv6Header, Version: version}
	}
	h.TrafficClass = uint8((versionTCFlow >> 20) & 0xFF)
	h.FlowLabel = versionTCFlow & 0xFFFFF
	h.PayloadLength = binary.BigEndian.Uint16(buf[4:6])
	h.NextHeader = common.IpNumber(buf[6])
	h.HopLimit = buf[7]
	copy(h.Source[:], buf[8:24])
	copy(h.Destination[:], buf[24:40])
	return h, buf[HeaderLen:], nil
}

// Write serializes h into the first HeaderLen bytes of buf.
func (h Header) Write(buf []byte) error {
	if len(buf) < HeaderLen {
		return fmt.Errorf("ipv6: buffer too small: have %d, need %d", len(buf), HeaderLen)
	}
	versionTCFlow := (uint32(Version) << 28) | (uint32(h.TrafficClass) << 20) | (h.FlowLabel & 0xFFFFF)
	binary.BigEndian.PutUint32(buf[0:4], versionTCFlow)
	binary.BigEndian.PutUint16(buf[4:6], h.PayloadLength)
	buf[6] = uint8(h.NextHeader)
	buf[7] = h.HopLimit
	copy(buf[8:24], h.Source[:])
	copy(buf[24:40], h.Destination[:])
	return nil
}

// ToBytes returns the on-wire representation of h.
func (h Header) ToBytes() [HeaderLen]byte {
	var out [HeaderLen]byte
	_ = h.Write(out[:])
	return out
}

func (h Header) String() string {
	return fmt.Sprintf("Ipv6{Src=%s, Dst=%s, NextHeader=%s, HopLimit=%d, PayloadLength=%d}",
		h.Source, h.Destination, h.NextHeader, h.HopLimit, h.PayloadLength)
}
