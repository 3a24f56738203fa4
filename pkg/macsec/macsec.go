// Package macsec implements the IEEE 802.1AE MACsec SecTAG (C2 in the
// design): the 6-byte security tag that precedes an (optionally
// encrypted) payload, plus the ptype ether-type carried for unmodified
// frames.
package macsec

import (
	"encoding/binary"
	"fmt"

	"github.com/therealutkarshpriyadarshi/etherslice/internal/bits"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// HeaderLen is the fixed size of a MACsec SecTAG in bytes (the 8-byte
// Secure Channel Identifier suffix is not included; see SciPresent).
const HeaderLen = 6

// PType is the carried ether-type/length field of a MACsec frame when
// no SecTAG is actually modifying the frame (the "unmodified" case).
type PType = common.EtherType

// Header is an 802.1AE SecTAG.
type Header struct {
	// Unmodified is true when PType does not carry 0x88E5: the frame is
	// an unmodified (non-MACsec) Ethernet frame whose ether-type is the
	// carried ptype, and no SecTAG follows.
	Unmodified bool
	PType      PType

	// The following fields are only meaningful when !Unmodified.
	TciEs            bool // End Station
	TciScb           bool // Single Copy Broadcast
	TciE             bool // Encryption
	TciC             bool // Changed Text
	AssociationNum   uint8 // AN, 2 bits
	ShortLength      uint8 // SL, 6 bits (0 means "use EtherType/length field of encapsulated frame")
	PacketNumber     uint32
	SciPresent       bool
	Sci              uint64 // valid only if SciPresent
}

// NewHeader builds a modified (non-Unmodified) Header, rejecting an
// association number that does not fit its 2-bit field and a short
// length of 1 combined with neither TciE nor TciC set (the same
// combination FromSlice rejects as MacsecShortLenDisallowedError).
func NewHeader(tciEs, tciScb, tciE, tciC bool, associationNum, shortLength uint8, packetNumber uint32, sci uint64) (Header, error) {
	if associationNum > 0x03 {
		return Header{}, &neterr.FieldRangeError{
			Layer: neterr.LayerMacsec, Field: "AssociationNum",
			Value: uint64(associationNum), MaxAllowed: 0x03,
		}
	}
	if shortLength == 1 && !tciE && !tciC {
		return Header{}, &neterr.MacsecShortLenDisallowedError{}
	}
	h := Header{
		TciEs: tciEs, TciScb: tciScb, TciE: tciE, TciC: tciC,
		AssociationNum: associationNum, ShortLength: shortLength,
		PacketNumber: packetNumber, PType: common.EtherTypeMacsec,
	}
	h.SciPresent = tciEs || tciScb
	if h.SciPresent {
		h.Sci = sci
	}
	return h, nil
}

// FromSlice parses a MACsec SecTAG from the start of buf. ptype is the
// ether-type that introduced this header (0x88E5 signals MACsec is
// actually present; any other value means the frame was left
// unmodified and buf is the encapsulated frame's payload, not a
// SecTAG).
func FromSlice(buf []byte, ptype common.EtherType, layerStart int) (Header, []byte, error) {
	var h Header
	if ptype != common.EtherTypeMacsec {
		h.Unmodified = true
		h.PType = ptype
		return h, buf, nil
	}
	if err := bits.Need(buf, HeaderLen, neterr.LayerMacsec, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, err
	}
	tciAn := buf[0]
	version := bits.Mask(uint32(tciAn), 7, 1)
	if version != 0 {
		return h, nil, &neterr.MacsecUnexpectedVersionError{Version: uint8(version)}
	}
	h.TciEs = bits.Mask(uint32(tciAn), 6, 1) != 0
	h.TciScb = bits.Mask(uint32(tciAn), 4, 1) != 0
	h.TciE = bits.Mask(uint32(tciAn), 3, 1) != 0
	h.TciC = bits.Mask(uint32(tciAn), 2, 1) != 0
	h.AssociationNum = uint8(bits.Mask(uint32(tciAn), 0, 2))
	h.ShortLength = buf[1]
	if h.ShortLength == 1 && !h.TciE && !h.TciC {
		return h, nil, &neterr.MacsecShortLenDisallowedError{}
	}
	h.PacketNumber = binary.BigEndian.Uint32(buf[2:6])
	rest := buf[HeaderLen:]

	h.SciPresent = h.TciEs || h.TciScb
	if h.SciPresent {
		sci, err := bits.U64(rest, neterr.LayerMacsec, neterr.LenSourceSlice, layerStart+HeaderLen)
		if err != nil {
			return h, nil, err
		}
		h.Sci = sci
		rest = rest[8:]
	}
	h.PType = ptype
	return h, rest, nil
}

func (h Header) String() string {
	if h.Unmodified {
		return fmt.Sprintf("Macsec{Unmodified, PType=%s}", h.PType)
	}
	return fmt.Sprintf("Macsec{AN=%d, SL=%d, PN=%d, SCI=%#x}",
		h.AssociationNum, h.ShortLength, h.PacketNumber, h.Sci)
}
