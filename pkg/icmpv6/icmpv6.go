// Package icmpv6 implements ICMP for IPv6 (RFC 4443), including the
// neighbor discovery message types of RFC 4861 and the multicast
// listener discovery types of RFC 2710 (C2 in the design). Type
// constants mirror golang.org/x/net/ipv6's ICMP type enumeration.
package icmpv6

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/net/ipv6"

	"github.com/therealutkarshpriyadarshi/etherslice/internal/bits"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// HeaderLen is the fixed size of the ICMPv6 header in bytes.
const HeaderLen = 8

// Type re-exports golang.org/x/net/ipv6's ICMP type enumeration.
type Type = ipv6.ICMPType

// Recognized type values, aliased from golang.org/x/net/ipv6.
const (
	TypeDestinationUnreachable  = ipv6.ICMPTypeDestinationUnreachable
	TypePacketTooBig            = ipv6.ICMPTypePacketTooBig
	TypeTimeExceeded            = ipv6.ICMPTypeTimeExceeded
	TypeParameterProblem        = ipv6.ICMPTypeParameterProblem
	TypeEchoRequest              = ipv6.ICMPTypeEchoRequest
	TypeEchoReply                = ipv6.ICMPTypeEchoReply
	TypeRouterSolicitation       = ipv6.ICMPTypeRouterSolicitation
	TypeRouterAdvertisement      = ipv6.ICMPTypeRouterAdvertisement
	TypeNeighborSolicitation     = ipv6.ICMPTypeNeighborSolicitation
	TypeNeighborAdvertisement    = ipv6.ICMPTypeNeighborAdvertisement
	TypeRedirect                 = ipv6.ICMPTypeRedirect
	TypeMulticastListenerQuery   = ipv6.ICMPTypeMulticastListenerQuery
	TypeMulticastListenerReport  = ipv6.ICMPTypeMulticastListenerReport
	TypeMulticastListenerDone    = ipv6.ICMPTypeMulticastListenerDone
)

// Header is an ICMPv6 message header, with the type-specific
// rest-of-header word captured verbatim (RestOfHeader), same pattern
// as pkg/icmpv4.
type Header struct {
	Type         uint8
	Code         uint8
	Checksum     uint16
	RestOfHeader [4]byte
}

// FromSlice parses an ICMPv6 header from the start of buf.
func FromSlice(buf []byte, layerStart int) (Header, []byte, error) {
	var h Header
	if err := bits.Need(buf, HeaderLen, neterr.LayerIcmpv6, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, err
	}
	h.Type = buf[0]
	h.Code = buf[1]
	h.Checksum = binary.BigEndian.Uint16(buf[2:4])
	copy(h.RestOfHeader[:], buf[4:8])
	return h, buf[HeaderLen:], nil
}

// Write serializes h into the first HeaderLen bytes of buf.
func (h Header) Write(buf []byte) error {
	if len(buf) < HeaderLen {
		return fmt.Errorf("icmpv6: buffer too small: have %d, need %d", len(buf), HeaderLen)
	}
	buf[0] = h.Type
	buf[1] = h.Code
	binary.BigEndian.PutUint16(buf[2:4], h.Checksum)
	copy(buf[4:8], h.RestOfHeader[:])
	return nil
}

// ToBytes returns the on-wire representation of h.
func (h Header) ToBytes() [HeaderLen]byte {
	var out [HeaderLen]byte
	_ = h.Write(out[:])
	return out
}

// EchoID returns the identifier field of an echo request/reply header.
func (h Header) EchoID() uint16 { return binary.BigEndian.Uint16(h.RestOfHeader[0:2]) }

// EchoSequence returns the sequence number field of an echo
// request/reply header.
func (h Header) EchoSequence() uint16 { return binary.BigEndian.Uint16(h.RestOfHeader[2:4]) }

// NewEcho builds a Header for an echo request or reply.
func NewEcho(request bool, id, sequence uint16) Header {
	h := Header{Code: 0}
	if request {
		h.Type = uint8(TypeEchoRequest)
	} else {
		h.Type = uint8(TypeEchoReply)
	}
	var rest [4]byte
	binary.BigEndian.PutUint16(rest[0:2], id)
	binary.BigEndian.PutUint16(rest[2:4], sequence)
	h.RestOfHeader = rest
	return h
}

func (h Header) String() string {
	return fmt.Sprintf("Icmpv6{Type=%d, Code=%d, Checksum=%#04x}", h.Type, h.Code, h.Checksum)
}
