// Package ethernet implements the Ethernet II header (C2 in the
// design): a fixed 14-byte destination address, source address, and
// ether-type, per IEEE 802.3.
package ethernet

import (
	"encoding/binary"
	"fmt"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// HeaderLen is the fixed size of an Ethernet II header in bytes.
const HeaderLen = 14

// Header is an Ethernet II header: destination and source MAC
// addresses plus the ether-type of the payload that follows.
type Header struct {
	Destination common.MACAddress
	Source      common.MACAddress
	EtherType   common.EtherType
}

// Len returns the fixed header length (14 bytes).
func (h Header) Len() int { return HeaderLen }

// FromSlice parses an Ethernet II header from the start of buf and
// returns the header plus the unconsumed tail. layerStart is the byte
// offset of buf within the original input, used to report length
// errors at the correct absolute offset.
func FromSlice(buf []byte, layerStart int) (Header, []byte, error) {
	var h Header
	if len(buf) < HeaderLen {
		return h, nil, &neterr.LenError{
			RequiredLen:      HeaderLen,
			Len:              len(buf),
			LenSource:        neterr.LenSourceSlice,
			Layer:            neterr.LayerEthernet2,
			LayerStartOffset: layerStart,
		}
	}
	copy(h.Destination[:], buf[0:6])
	copy(h.Source[:], buf[6:12])
	h.EtherType = common.EtherType(binary.BigEndian.Uint16(buf[12:14]))
	return h, buf[HeaderLen:], nil
}

// Write serializes h into the first HeaderLen bytes of buf, which must
// be at least that long.
func (h Header) Write(buf []byte) error {
	if len(buf) < HeaderLen {
		return fmt.Errorf("ethernet: buffer too small: have %d, need %d", len(buf), HeaderLen)
	}
	copy(buf[0:6], h.Destination[:])
	copy(buf[6:12], h.Source[:])
	binary.BigEndian.PutUint16(buf[12:14], uint16(h.EtherType))
	return nil
}

// ToBytes returns the on-wire representation of h with no heap
// allocation beyond the fixed-size return array.
func (h Header) ToBytes() [HeaderLen]byte {
	var out [HeaderLen]byte
	_ = h.Write(out[:])
	return out
}

// String returns a human-readable representation of the header.
func (h Header) String() string {
	return fmt.Sprintf("Ethernet2{Dst=%s, Src=%s, EtherType=%s}", h.Destination, h.Source, h.EtherType)
}
