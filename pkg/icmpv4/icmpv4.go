// Package icmpv4 implements ICMP for IPv4 (RFC 792, with the
// deprecations/clarifications of RFC 1122 and RFC 1812): the 8-byte
// fixed header plus a type/code-dependent rest-of-header area (C2 in
// the design). Type constants mirror the names
// golang.org/x/net/ipv4 exposes, so callers already using that package
// for socket-level ICMP filtering see familiar values here.
package icmpv4

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/net/ipv4"

	"github.com/therealutkarshpriyadarshi/etherslice/internal/bits"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// HeaderLen is the fixed size of the ICMPv4 header in bytes, not
// including any type-specific rest-of-header payload.
const HeaderLen = 8

// Type re-exports golang.org/x/net/ipv4's ICMP type enumeration so
// callers can match on well-known values without importing both
// packages.
type Type = ipv4.ICMPType

// Recognized type values, aliased from golang.org/x/net/ipv4.
const (
	TypeEchoReply             = ipv4.ICMPTypeEchoReply
	TypeDestinationUnreachable = ipv4.ICMPTypeDestinationUnreachable
	TypeRedirect              = ipv4.ICMPTypeRedirect
	TypeEcho                  = ipv4.ICMPTypeEcho
	TypeTimeExceeded          = ipv4.ICMPTypeTimeExceeded
	TypeParameterProblem      = ipv4.ICMPTypeParameterProblem
	TypeTimestamp             = ipv4.ICMPTypeTimestamp
	TypeTimestampReply        = ipv4.ICMPTypeTimestampReply
)

// Header is an ICMPv4 message header. The four bytes following code
// and checksum carry type-specific data (echo id/sequence, the unused
// word of destination-unreachable, the gateway address of a redirect,
// and so on); RestOfHeader captures them verbatim without
// interpretation, consistent with the reference decoder's low-level
// header type.
type Header struct {
	Type           uint8
	Code           uint8
	Checksum       uint16
	RestOfHeader   [4]byte
}

// FromSlice parses an ICMPv4 header from the start of buf.
func FromSlice(buf []byte, layerStart int) (Header, []byte, error) {
	var h Header
	if err := bits.Need(buf, HeaderLen, neterr.LayerIcmpv4, neterr.LenSourceSlice, layerStart); err != nil {
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
		return fmt.Errorf("icmpv4: buffer too small: have %d, need %d", len(buf), HeaderLen)
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
		h.Type = uint8(TypeEcho)
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
	return fmt.Sprintf("Icmpv4{Type=%d, Code=%d, Checksum=%#04x}", h.Type, h.Code, h.Checksum)
}
