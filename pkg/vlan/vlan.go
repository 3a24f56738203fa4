// Package vlan implements IEEE 802.1Q single and double ("Q-in-Q")
// VLAN tags (C2 in the design): priority code point, drop-eligible
// indicator, VLAN identifier, and the inner ether-type.
package vlan

import (
	"encoding/binary"
	"fmt"

	"github.com/therealutkarshpriyadarshi/etherslice/internal/bits"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// HeaderLen is the fixed size of a single 802.1Q tag in bytes.
const HeaderLen = 4

// Header is a single 802.1Q VLAN tag.
type Header struct {
	PriorityCodePoint   uint8
	DropEligible        bool
	VlanIdentifier      uint16 // 12 bits
	EtherType           common.EtherType
}

// NewHeader builds a Header, rejecting a priority code point or VLAN
// identifier that does not fit their respective bit widths rather than
// silently truncating them as Write would.
func NewHeader(priorityCodePoint uint8, dropEligible bool, vlanIdentifier uint16, etherType common.EtherType) (Header, error) {
	if priorityCodePoint > 0x07 {
		return Header{}, &neterr.FieldRangeError{
			Layer: neterr.LayerVlanSingle, Field: "PriorityCodePoint",
			Value: uint64(priorityCodePoint), MaxAllowed: 0x07,
		}
	}
	if vlanIdentifier > 0x0FFF {
		return Header{}, &neterr.FieldRangeError{
			Layer: neterr.LayerVlanSingle, Field: "VlanIdentifier",
			Value: uint64(vlanIdentifier), MaxAllowed: 0x0FFF,
		}
	}
	return Header{
		PriorityCodePoint: priorityCodePoint,
		DropEligible:      dropEligible,
		VlanIdentifier:    vlanIdentifier,
		EtherType:         etherType,
	}, nil
}

// FromSlice parses a single VLAN tag from the start of buf.
func FromSlice(buf []byte, layerStart int) (Header, []byte, error) {
	var h Header
	if err := bits.Need(buf, HeaderLen, neterr.LayerVlanSingle, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, err
	}
	tci := binary.BigEndian.Uint16(buf[0:2])
	h.PriorityCodePoint = uint8(bits.Mask(uint32(tci), 13, 3))
	h.DropEligible = bits.Mask(uint32(tci), 12, 1) != 0
	h.VlanIdentifier = uint16(bits.Mask(uint32(tci), 0, 12))
	h.EtherType = common.EtherType(binary.BigEndian.Uint16(buf[2:4]))
	return h, buf[HeaderLen:], nil
}

// Write serializes h into the first HeaderLen bytes of buf.
func (h Header) Write(buf []byte) error {
	if len(buf) < HeaderLen {
		return fmt.Errorf("vlan: buffer too small: have %d, need %d", len(buf), HeaderLen)
	}
	var tci uint16
	tci |= uint16(h.PriorityCodePoint&0x07) << 13
	if h.DropEligible {
		tci |= 1 << 12
	}
	tci |= h.VlanIdentifier & 0x0FFF
	binary.BigEndian.PutUint16(buf[0:2], tci)
	binary.BigEndian.PutUint16(buf[2:4], uint16(h.EtherType))
	return nil
}

// ToBytes returns the on-wire representation of h.
func (h Header) ToBytes() [HeaderLen]byte {
	var out [HeaderLen]byte
	_ = h.Write(out[:])
	return out
}

func (h Header) String() string {
	return fmt.Sprintf("Vlan{PCP=%d, DEI=%t, VID=%d, EtherType=%s}",
		h.PriorityCodePoint, h.DropEligible, h.VlanIdentifier, h.EtherType)
}

// DoubleHeader is a Q-in-Q stack: an outer tag (ether-type 0x88A8 or
// 0x9100) immediately followed by an inner 802.1Q tag.
type DoubleHeader struct {
	Outer Header
	Inner Header
}

// FromSliceDouble parses a double VLAN tag from the start of buf. The
// outer tag's EtherType must itself be a VLAN ether-type; otherwise a
// VlanOuterNonVlanEtherTypeError is returned.
func FromSliceDouble(buf []byte, layerStart int) (DoubleHeader, []byte, error) {
	var dh DoubleHeader
	outer, rest, err := FromSlice(buf, layerStart)
	if err != nil {
		return dh, nil, err
	}
	if !outer.EtherType.IsVlanTag() {
		return dh, nil, &neterr.VlanOuterNonVlanEtherTypeError{EtherType: uint16(outer.EtherType)}
	}
	inner, rest2, err := FromSlice(rest, layerStart+HeaderLen)
	if err != nil {
		return dh, nil, err
	}
	dh.Outer = outer
	dh.Inner = inner
	return dh, rest2, nil
}

func (dh DoubleHeader) String() string {
	return fmt.Sprintf("VlanDouble{Outer=%s, Inner=%s}", dh.Outer, dh.Inner)
}
