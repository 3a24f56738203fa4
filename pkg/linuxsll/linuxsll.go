// Package linuxsll implements the Linux "cooked capture" (SLL v1)
// header (C2 in the design): the 16-byte pseudo link-layer header
// Linux's AF_PACKET SOCK_DGRAM capture and "any" pseudo-device prepend
// in place of a real link-layer header.
package linuxsll

import (
	"encoding/binary"
	"fmt"

	"github.com/therealutkarshpriyadarshi/etherslice/internal/bits"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// HeaderLen is the fixed size of an SLL v1 header in bytes.
const HeaderLen = 16

// PacketType identifies how the packet was addressed (SLL's packet_type field).
type PacketType uint16

const (
	PacketTypeHost      PacketType = 0
	PacketTypeBroadcast PacketType = 1
	PacketTypeMulticast PacketType = 2
	PacketTypeOtherHost PacketType = 3
	PacketTypeOutgoing  PacketType = 4
)

// Header is a Linux SLL v1 pseudo header.
type Header struct {
	PacketType   PacketType
	ArpHrdType   uint16
	SenderAddressLen uint16 // valid range 0..=8
	SenderAddress    [8]byte
	EtherType        common.EtherType
}

// NewHeader builds a Header, rejecting a sender address longer than
// the 8-byte field it must fit in.
func NewHeader(packetType PacketType, arpHrdType uint16, senderAddress []byte, etherType common.EtherType) (Header, error) {
	if len(senderAddress) > 8 {
		return Header{}, &neterr.FieldRangeError{
			Layer: neterr.LayerLinuxSLL, Field: "SenderAddressLen",
			Value: uint64(len(senderAddress)), MaxAllowed: 8,
		}
	}
	h := Header{
		PacketType: packetType, ArpHrdType: arpHrdType,
		SenderAddressLen: uint16(len(senderAddress)), EtherType: etherType,
	}
	copy(h.SenderAddress[:], senderAddress)
	return h, nil
}

// FromSlice parses an SLL v1 header from the start of buf.
func FromSlice(buf []byte, layerStart int) (Header, []byte, error) {
	var h Header
	if err := bits.Need(buf, HeaderLen, neterr.LayerLinuxSLL, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, err
	}
	h.PacketType = PacketType(binary.BigEndian.Uint16(buf[0:2]))
	h.ArpHrdType = binary.BigEndian.Uint16(buf[2:4])
	h.SenderAddressLen = binary.BigEndian.Uint16(buf[4:6])
	copy(h.SenderAddress[:], buf[6:14])
	h.EtherType = common.EtherType(binary.BigEndian.Uint16(buf[14:16]))
	return h, buf[HeaderLen:], nil
}

// Write serializes h into the first HeaderLen bytes of buf.
func (h Header) Write(buf []byte) error {
	if len(buf) < HeaderLen {
		return fmt.Errorf("linuxsll: buffer too small: have %d, need %d", len(buf), HeaderLen)
	}
	binary.BigEndian.PutUint16(buf[0:2], uint16(h.PacketType))
	binary.BigEndian.PutUint16(buf[2:4], h.ArpHrdType)
	binary.BigEndian.PutUint16(buf[4:6], h.SenderAddressLen)
	copy(buf[6:14], h.SenderAddress[:])
	binary.BigEndian.PutUint16(buf[14:16], uint16(h.EtherType))
	return nil
}

// ToBytes returns the on-wire representation of h.
func (h Header) ToBytes() [HeaderLen]byte {
	var out [HeaderLen]byte
	_ = h.Write(out[:])
	return out
}

func (h Header) String() string {
	return fmt.Sprintf("LinuxSll{PacketType=%d, ArpHrdType=%d, EtherType=%s}",
		h.PacketType, h.ArpHrdType, h.EtherType)
}
