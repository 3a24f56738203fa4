// Package ipv4 implements the IPv4 header as defined in RFC 791 (C2 in
// the design): the fixed 20-byte header plus up to 40 bytes of options,
// parsed without allocation and validated against both the declared
// internet header length and total length.
package ipv4

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/therealutkarshpriyadarshi/etherslice/internal/bits"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/checksum"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

const (
	// Version is the fixed version nibble value for IPv4.
	Version = 4

	// MinHeaderLen is the minimum IPv4 header length in bytes (IHL == 5).
	MinHeaderLen = 20

	// MaxHeaderLen is the maximum IPv4 header length in bytes (IHL == 15).
	MaxHeaderLen = 60

	// MaxOptionsLen is the maximum size of the options area in bytes.
	MaxOptionsLen = MaxHeaderLen - MinHeaderLen
)

// Flags holds the DF and MF flag bits of the IPv4 header's flags/fragment-offset word.
type Flags struct {
	DontFragment  bool
	MoreFragments bool
}

// Header is an IPv4 header with its variable-length options captured
// inline, the same fixed-capacity-plus-length pattern used for every
// inline option/payload buffer in this module.
type Header struct {
	IHL            uint8 // internet header length, in 4-byte words
	DSCP           uint8
	ECN            uint8
	TotalLength    uint16
	Identification uint16
	Flags          Flags
	FragmentOffset uint16 // in 8-byte blocks, 13 bits
	TimeToLive     uint8
	Protocol       common.IpNumber
	HeaderChecksum uint16
	Source         common.IPv4Address
	Destination    common.IPv4Address

	OptionsLen uint8 // number of valid bytes in Options
	Options    [MaxOptionsLen]byte
}

// HeaderLen returns the encoded header length in bytes (ihl * 4).
func (h Header) HeaderLen() int { return int(h.IHL) * 4 }

// PayloadLen returns the number of payload bytes implied by
// TotalLength once the header itself is subtracted.
func (h Header) PayloadLen() uint16 { return h.TotalLength - uint16(h.HeaderLen()) }

// IsFragment reports whether this header describes a packet that is
// part of a larger fragmented datagram.
func (h Header) IsFragment() bool {
	return h.FragmentOffset != 0 || h.Flags.MoreFragments
}

// NewHeader builds a Header from its fixed fields plus an options
// slice, rejecting any field that does not fit its wire bit width
// rather than silently truncating it as Write would. options must fit
// within MaxOptionsLen and its length must be a multiple of 4 bytes,
// since IHL only counts whole 4-byte words.
func NewHeader(dscp, ecn uint8, totalLength, identification uint16, flags Flags, fragmentOffset uint16, ttl uint8, protocol common.IpNumber, source, destination common.IPv4Address, options []byte) (Header, error) {
	if dscp > 0x3F {
		return Header{}, &neterr.FieldRangeError{Layer: neterr.LayerIpv4Header, Field: "DSCP", Value: uint64(dscp), MaxAllowed: 0x3F}
	}
	if ecn > 0x03 {
		return Header{}, &neterr.FieldRangeError{Layer: neterr.LayerIpv4Header, Field: "ECN", Value: uint64(ecn), MaxAllowed: 0x03}
	}
	if fragmentOffset > 0x1FFF {
		return Header{}, &neterr.FieldRangeError{Layer: neterr.LayerIpv4Header, Field: "FragmentOffset", Value: uint64(fragmentOffset), MaxAllowed: 0x1FFF}
	}
	if len(options) > MaxOptionsLen {
		return Header{}, &neterr.FieldRangeError{Layer: neterr.LayerIpv4Options, Field: "OptionsLen", Value: uint64(len(options)), MaxAllowed: MaxOptionsLen}
	}
	if len(options)%4 != 0 {
		return Header{}, &neterr.FieldRangeError{Layer: neterr.LayerIpv4Options, Field: "OptionsLen", Value: uint64(len(options)), MaxAllowed: uint64(len(options) - len(options)%4)}
	}
	h := Header{
		IHL: uint8(5 + len(options)/4), DSCP: dscp, ECN: ecn,
		TotalLength: totalLength, Identification: identification,
		Flags: flags, FragmentOffset: fragmentOffset, TimeToLive: ttl,
		Protocol: protocol, Source: source, Destination: destination,
	}
	h.OptionsLen = uint8(len(options))
	copy(h.Options[:], options)
	return h, nil
}

// FromSlice parses an IPv4 header from the start of buf, then returns
// the header, the payload as bounded by TotalLength (not merely by
// len(buf)), and any unconsumed trailer past TotalLength. layerStart is
// the offset of buf within the original input.
//
// FromSlice performs the strict checks from_header_slice* style
// decoders do in the reference implementation: version must be 4, IHL
// must be at least 5, and total_length must not be smaller than the
// header itself. Slice length is still only required to cover
// total_length, not a fixed MTU.
func FromSlice(buf []byte, layerStart int) (Header, []byte, []byte, error) {
	var h Header
	if err := bits.Need(buf, 1, neterr.LayerIpv4Header, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, nil, err
	}
	version := bits.Nibble(buf[0], 0)
	if version != Version {
		return h, nil, nil, &neterr.UnexpectedVersionError{Layer: neterr.LayerIpv4Header, Version: version}
	}
	ihl := bits.Nibble(buf[0], 1)
	if ihl < 5 {
		return h, nil, nil, &neterr.Ipv4HeaderLengthTooSmallError{IHL: ihl}
	}
	headerLen := int(ihl) * 4
	if err := bits.Need(buf, headerLen, neterr.LayerIpv4Header, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, nil, err
	}

	h.IHL = ihl
	h.DSCP = buf[1] >> 2
	h.ECN = buf[1] & 0x03
	h.TotalLength = binary.BigEndian.Uint16(buf[2:4])
	h.Identification = binary.BigEndian.Uint16(buf[4:6])
	flagsFrag := binary.BigEndian.Uint16(buf[6:8])
	h.Flags = Flags{
		DontFragment:  bits.Mask(uint32(flagsFrag), 14, 1) != 0,
		MoreFragments: bits.Mask(uint32(flagsFrag), 13, 1) != 0,
	}
	h.FragmentOffset = uint16(bits.Mask(uint32(flagsFrag), 0, 13))
	h.TimeToLive = buf[8]
	h.Protocol = common.IpNumber(buf[9])
	h.HeaderChecksum = binary.BigEndian.Uint16(buf[10:12])
	copy(h.Source[:], buf[12:16])
	copy(h.Destination[:], buf[16:20])

	optLen := headerLen - MinHeaderLen
	h.OptionsLen = uint8(optLen)
	copy(h.Options[:optLen], buf[20:headerLen])

	// The header itself is fully parsed at this point, so a caller
	// recovering from a bad total_length (FromSliceLax) still gets
	// every other field populated.
	if h.TotalLength < uint16(headerLen) {
		return h, nil, nil, &neterr.Ipv4TotalLengthTooSmallError{
			TotalLength: h.TotalLength, MinExpectedLength: uint16(headerLen),
		}
	}

	if err := bits.Need(buf, int(h.TotalLength), neterr.LayerIpv4Header, neterr.LenSourceIpv4HeaderTotalLen, layerStart); err != nil {
		return h, nil, nil, err
	}
	payload := buf[headerLen:h.TotalLength]
	trailer := buf[h.TotalLength:]
	return h, payload, trailer, nil
}

// FromSliceLax is the lax counterpart of FromSlice. It tolerates two
// kinds of inconsistency FromSlice treats as fatal, in both cases
// falling back to the rest of the slice as payload (LenSource::Slice in
// the reference implementation) instead of trusting the declared
// total_length:
//
//   - total_length is smaller than the header itself (Ipv4TotalLengthTooSmallError)
//   - the buffer is shorter than total_length claims (a LenError sourced
//     from the total_length field)
//
// Any other error (bad version, IHL too small, buffer shorter than the
// header) is still fatal even in lax mode: there is no header to fall
// back on.
func FromSliceLax(buf []byte, layerStart int) (Header, []byte, []byte, error) {
	h, payload, trailer, err := FromSlice(buf, layerStart)
	if err == nil {
		return h, payload, trailer, nil
	}

	var tooSmall *neterr.Ipv4TotalLengthTooSmallError
	var lenErr *neterr.LenError
	recoverable := errors.As(err, &tooSmall) ||
		(errors.As(err, &lenErr) && lenErr.LenSource == neterr.LenSourceIpv4HeaderTotalLen)
	if !recoverable {
		return h, nil, nil, err
	}

	headerLen := h.HeaderLen()
	if len(buf) < headerLen {
		return h, nil, nil, err
	}
	return h, buf[headerLen:], nil, nil
}

// Write serializes h (without recomputing the checksum) into the first
// HeaderLen() bytes of buf.
func (h Header) Write(buf []byte) error {
	headerLen := h.HeaderLen()
	if len(buf) < headerLen {
		return fmt.Errorf("ipv4: buffer too small: have %d, need %d", len(buf), headerLen)
	}
	buf[0] = (Version << 4) | (h.IHL & 0x0F)
	buf[1] = (h.DSCP << 2) | (h.ECN & 0x03)
	binary.BigEndian.PutUint16(buf[2:4], h.TotalLength)
	binary.BigEndian.PutUint16(buf[4:6], h.Identification)
	var flagsFrag uint16
	if h.Flags.DontFragment {
		flagsFrag |= 1 << 14
	}
	if h.Flags.MoreFragments {
		flagsFrag |= 1 << 13
	}
	flagsFrag |= h.FragmentOffset & 0x1FFF
	binary.BigEndian.PutUint16(buf[6:8], flagsFrag)
	buf[8] = h.TimeToLive
	buf[9] = uint8(h.Protocol)
	binary.BigEndian.PutUint16(buf[10:12], h.HeaderChecksum)
	copy(buf[12:16], h.Source[:])
	copy(buf[16:20], h.Destination[:])
	copy(buf[20:headerLen], h.Options[:h.OptionsLen])
	return nil
}

// CalcHeaderChecksum computes the header checksum for h per RFC 791
// §3.1, with the checksum field itself treated as zero.
func (h Header) CalcHeaderChecksum() (uint16, error) {
	headerLen := h.HeaderLen()
	buf := make([]byte, headerLen)
	withZero := h
	withZero.HeaderChecksum = 0
	if err := withZero.Write(buf); err != nil {
		return 0, err
	}
	return checksum.Ipv4Header(buf), nil
}

func (h Header) String() string {
	return fmt.Sprintf(
		"Ipv4{Src=%s, Dst=%s, Protocol=%s, TTL=%d, TotalLength=%d, Id=%d, Frag=%d, DF=%t, MF=%t}",
		h.Source, h.Destination, h.Protocol, h.TimeToLive, h.TotalLength,
		h.Identification, h.FragmentOffset, h.Flags.DontFragment, h.Flags.MoreFragments,
	)
}
