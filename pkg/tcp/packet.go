// Package tcp implements the TCP header (RFC 793, with the ECE/CWR
// bits of RFC 3168 and the NS bit of RFC 3540) and its option area (C2
// in the design), including an allocation-free option iterator (C3).
package tcp

import (
	"encoding/binary"
	"fmt"

	"github.com/therealutkarshpriyadarshi/etherslice/internal/bits"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

const (
	// MinHeaderLen is the minimum TCP header length in bytes (data offset == 5).
	MinHeaderLen = 20

	// MaxHeaderLen is the maximum TCP header length in bytes (data offset == 15).
	MaxHeaderLen = 60

	// MaxOptionsLen is the maximum size of the options area in bytes.
	MaxOptionsLen = MaxHeaderLen - MinHeaderLen
)

// Flags holds the control bits of the TCP header.
type Flags struct {
	NS  bool // RFC 3540, encoded in the low reserved bit
	CWR bool
	ECE bool
	URG bool
	ACK bool
	PSH bool
	RST bool
	SYN bool
	FIN bool
}

// Header is a TCP header with its variable-length options captured
// inline.
type Header struct {
	SourcePort      uint16
	DestinationPort uint16
	SequenceNumber  uint32
	AcknowledgmentNumber uint32
	DataOffset      uint8 // in 4-byte words
	Flags           Flags
	WindowSize      uint16
	Checksum        uint16
	UrgentPointer   uint16

	OptionsLen uint8 // number of valid bytes in Options
	Options    [MaxOptionsLen]byte
}

// HeaderLen returns the encoded header length in bytes.
func (h Header) HeaderLen() int { return int(h.DataOffset) * 4 }

// NewHeader builds a Header from its fixed fields plus an options
// slice, rejecting an options area that does not fit a whole number of
// 4-byte words within MaxOptionsLen.
func NewHeader(sourcePort, destinationPort uint16, sequenceNumber, acknowledgmentNumber uint32, flags Flags, windowSize, checksum, urgentPointer uint16, options []byte) (Header, error) {
	if len(options) > MaxOptionsLen {
		return Header{}, &neterr.FieldRangeError{Layer: neterr.LayerTcpOptions, Field: "OptionsLen", Value: uint64(len(options)), MaxAllowed: MaxOptionsLen}
	}
	if len(options)%4 != 0 {
		return Header{}, &neterr.FieldRangeError{Layer: neterr.LayerTcpOptions, Field: "OptionsLen", Value: uint64(len(options)), MaxAllowed: uint64(len(options) - len(options)%4)}
	}
	h := Header{
		SourcePort: sourcePort, DestinationPort: destinationPort,
		SequenceNumber: sequenceNumber, AcknowledgmentNumber: acknowledgmentNumber,
		DataOffset: uint8(5 + len(options)/4), Flags: flags,
		WindowSize: windowSize, Checksum: checksum, UrgentPointer: urgentPointer,
	}
	h.OptionsLen = uint8(len(options))
	copy(h.Options[:], options)
	return h, nil
}

// FromSlice parses a TCP header from the start of buf and returns the
// header plus the unconsumed tail (which is transport payload, not
// bounded here — the caller bounds it using the enclosing IP header's
// declared length).
func FromSlice(buf []byte, layerStart int) (Header, []byte, error) {
	var h Header
	if err := bits.Need(buf, 13, neterr.LayerTcpHeader, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, err
	}
	h.SourcePort = binary.BigEndian.Uint16(buf[0:2])
	h.DestinationPort = binary.BigEndian.Uint16(buf[2:4])
	h.SequenceNumber = binary.BigEndian.Uint32(buf[4:8])
	h.AcknowledgmentNumber = binary.BigEndian.Uint32(buf[8:12])
	dataOffset := bits.Nibble(buf[12], 0)
	if dataOffset < 5 {
		return h, nil, &neterr.TcpDataOffsetTooSmallError{DataOffset: dataOffset}
	}
	headerLen := int(dataOffset) * 4
	if err := bits.Need(buf, headerLen, neterr.LayerTcpHeader, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, err
	}
	h.DataOffset = dataOffset
	h.Flags = Flags{
		NS:  buf[12]&0x01 != 0,
		CWR: buf[13]&0x80 != 0,
		ECE: buf[13]&0x40 != 0,
		URG: buf[13]&0x20 != 0,
		ACK: buf[13]&0x10 != 0,
		PSH: buf[13]&0x08 != 0,
		RST: buf[13]&0x04 != 0,
		SYN: buf[13]&0x02 != 0,
		FIN: buf[13]&0x01 != 0,
	}
	h.WindowSize = binary.BigEndian.Uint16(buf[14:16])
	h.Checksum = binary.BigEndian.Uint16(buf[16:18])
	h.UrgentPointer = binary.BigEndian.Uint16(buf[18:20])

	optLen := headerLen - MinHeaderLen
	h.OptionsLen = uint8(optLen)
	copy(h.Options[:optLen], buf[20:headerLen])

	return h, buf[headerLen:], nil
}

// Write serializes h (without recomputing the checksum) into the first
// h.HeaderLen() bytes of buf.
func (h Header) Write(buf []byte) error {
	headerLen := h.HeaderLen()
	if len(buf) < headerLen {
		return fmt.Errorf("tcp: buffer too small: have %d, need %d", len(buf), headerLen)
	}
	binary.BigEndian.PutUint16(buf[0:2], h.SourcePort)
	binary.BigEndian.PutUint16(buf[2:4], h.DestinationPort)
	binary.BigEndian.PutUint32(buf[4:8], h.SequenceNumber)
	binary.BigEndian.PutUint32(buf[8:12], h.AcknowledgmentNumber)
	buf[12] = h.DataOffset<<4 | boolBit(h.Flags.NS)
	var flagsByte byte
	if h.Flags.CWR {
		flagsByte |= 0x80
	}
	if h.Flags.ECE {
		flagsByte |= 0x40
	}
	if h.Flags.URG {
		flagsByte |= 0x20
	}
	if h.Flags.ACK {
		flagsByte |= 0x10
	}
	if h.Flags.PSH {
		flagsByte |= 0x08
	}
	if h.Flags.RST {
		flagsByte |= 0x04
	}
	if h.Flags.SYN {
		flagsByte |= 0x02
	}
	if h.Flags.FIN {
		flagsByte |= 0x01
	}
	buf[13] = flagsByte
	binary.BigEndian.PutUint16(buf[14:16], h.WindowSize)
	binary.BigEndian.PutUint16(buf[16:18], h.Checksum)
	binary.BigEndian.PutUint16(buf[18:20], h.UrgentPointer)
	copy(buf[20:headerLen], h.Options[:h.OptionsLen])
	return nil
}

func boolBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (h Header) String() string {
	return fmt.Sprintf("Tcp{SrcPort=%d, DstPort=%d, Seq=%d, Ack=%d, Flags=%+v, Window=%d}",
		h.SourcePort, h.DestinationPort, h.SequenceNumber, h.AcknowledgmentNumber, h.Flags, h.WindowSize)
}
