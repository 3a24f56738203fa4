// Package neterr is the shared error taxonomy for every layer codec in
// the module. Every fallible operation in the other packages returns a
// plain error; callers that need to distinguish fault classes use
// errors.As against the concrete types defined here rather than string
// matching.
package neterr

import (
	"errors"
	"fmt"
)

// Layer identifies which header a LenError or HeaderError occurred in.
type Layer int

const (
	LayerUnknown Layer = iota
	LayerEthernet2
	LayerVlanSingle
	LayerVlanDouble
	LayerMacsec
	LayerLinuxSLL
	LayerArp
	LayerIpv4Header
	LayerIpv4Options
	LayerIpv6Header
	LayerIpv6ExtHopByHop
	LayerIpv6ExtRouting
	LayerIpv6ExtDestOptions
	LayerIpv6ExtFragment
	LayerIpv6ExtAuth
	LayerTcpHeader
	LayerTcpOptions
	LayerUdpHeader
	LayerIcmpv4
	LayerIcmpv6
)

func (l Layer) String() string {
	switch l {
	case LayerEthernet2:
		return "Ethernet2"
	case LayerVlanSingle:
		return "VlanSingle"
	case LayerVlanDouble:
		return "VlanDouble"
	case LayerMacsec:
		return "Macsec"
	case LayerLinuxSLL:
		return "LinuxSLL"
	case LayerArp:
		return "Arp"
	case LayerIpv4Header:
		return "Ipv4Header"
	case LayerIpv4Options:
		return "Ipv4Options"
	case LayerIpv6Header:
		return "Ipv6Header"
	case LayerIpv6ExtHopByHop:
		return "Ipv6ExtHopByHop"
	case LayerIpv6ExtRouting:
		return "Ipv6ExtRouting"
	case LayerIpv6ExtDestOptions:
		return "Ipv6ExtDestOptions"
	case LayerIpv6ExtFragment:
		return "Ipv6ExtFragment"
	case LayerIpv6ExtAuth:
		return "Ipv6ExtAuth"
	case LayerTcpHeader:
		return "TcpHeader"
	case LayerTcpOptions:
		return "TcpOptions"
	case LayerUdpHeader:
		return "UdpHeader"
	case LayerIcmpv4:
		return "Icmpv4"
	case LayerIcmpv6:
		return "Icmpv6"
	default:
		return "Unknown"
	}
}

// LenSource names which upstream field bounded the slice a length error
// was raised against.
type LenSource int

const (
	// LenSourceSlice means the input buffer itself was the bound.
	LenSourceSlice LenSource = iota
	// LenSourceIpv4HeaderTotalLen means the IPv4 total_length field bounded the view.
	LenSourceIpv4HeaderTotalLen
	// LenSourceIpv6HeaderPayloadLen means the IPv6 payload_length field bounded the view.
	LenSourceIpv6HeaderPayloadLen
	// LenSourceUdpLength means the UDP length field bounded the view.
	LenSourceUdpLength
	// LenSourceTcpLength means the TCP data-offset-derived length bounded the view.
	LenSourceTcpLength
)

func (s LenSource) String() string {
	switch s {
	case LenSourceIpv4HeaderTotalLen:
		return "Ipv4HeaderTotalLen"
	case LenSourceIpv6HeaderPayloadLen:
		return "Ipv6HeaderPayloadLen"
	case LenSourceUdpLength:
		return "UdpLength"
	case LenSourceTcpLength:
		return "TcpLength"
	default:
		return "Slice"
	}
}

// LenError is returned whenever a decoder needs more bytes than are
// available in its input slice. It carries everything a caller needs
// to tell a short input buffer apart from an inconsistent declared
// length: the number of bytes required, the number observed, which
// upstream field bounded the view, which layer was being decoded, and
// the byte offset of that layer's start within the original buffer
// the caller handed to the entry point (not within whatever sub-slice
// happened to be passed to the failing decoder).
type LenError struct {
	RequiredLen      int
	Len              int
	LenSource        LenSource
	Layer            Layer
	LayerStartOffset int
}

func (e *LenError) Error() string {
	return fmt.Sprintf(
		"%s: %d bytes required but only %d available (len source: %s, layer start offset: %d)",
		e.Layer, e.RequiredLen, e.Len, e.LenSource, e.LayerStartOffset,
	)
}

// AddOffset returns a copy of e with delta added to LayerStartOffset.
// It lets a composing decoder reframe an inner decoder's offset
// relative to the outer buffer; no decoder in this module calls it.
func (e *LenError) AddOffset(delta int) *LenError {
	cp := *e
	cp.LayerStartOffset += delta
	return &cp
}

// HeaderError is the marker interface satisfied by every structural
// (content) error in the taxonomy: impossible versions, disallowed
// option lengths, reserved-value violations, a misplaced IPv6 hop-by-hop
// header, and so on. It exists so callers can use errors.As(err, new(neterr.HeaderError))
// to test "is this a content error at all" before drilling into the
// concrete type for specifics.
type HeaderError interface {
	error
	HeaderLayer() Layer
}

// UnexpectedVersionError is returned when an IP header's version
// nibble does not match the decoder being used (4 for IPv4, 6 for
// IPv6). A version that is neither 4 nor 6 in from_ip_slice-style
// dispatch is reported as UnsupportedIpVersionError instead.
type UnexpectedVersionError struct {
	Layer   Layer
	Version uint8
}

func (e *UnexpectedVersionError) Error() string {
	return fmt.Sprintf("%s: unexpected IP version number %d", e.Layer, e.Version)
}
func (e *UnexpectedVersionError) HeaderLayer() Layer { return e.Layer }

// UnsupportedIpVersionError is returned by from_ip_slice-style dispatch
// when the version nibble is neither 4 nor 6.
type UnsupportedIpVersionError struct {
	Version uint8
}

func (e *UnsupportedIpVersionError) Error() string {
	return fmt.Sprintf("unsupported IP version number %d", e.Version)
}
func (e *UnsupportedIpVersionError) HeaderLayer() Layer { return LayerUnknown }

// Ipv4HeaderLengthTooSmallError is returned when the IHL field is
// smaller than 5 (the minimum IPv4 header length in 4-byte words).
type Ipv4HeaderLengthTooSmallError struct {
	IHL uint8
}

func (e *Ipv4HeaderLengthTooSmallError) Error() string {
	return fmt.Sprintf("Ipv4Header: IHL value %d is smaller than the minimum of 5", e.IHL)
}
func (e *Ipv4HeaderLengthTooSmallError) HeaderLayer() Layer { return LayerIpv4Header }

// Ipv4TotalLengthTooSmallError is returned when the IPv4 total_length
// field is smaller than the header itself (ihl*4).
type Ipv4TotalLengthTooSmallError struct {
	TotalLength       uint16
	MinExpectedLength uint16
}

func (e *Ipv4TotalLengthTooSmallError) Error() string {
	return fmt.Sprintf(
		"Ipv4Header: total_length %d is smaller than the minimum expected length %d",
		e.TotalLength, e.MinExpectedLength,
	)
}
func (e *Ipv4TotalLengthTooSmallError) HeaderLayer() Layer { return LayerIpv4Header }

// Ipv6HopByHopNotAtStartError is returned when a hop-by-hop extension
// header occurs anywhere but immediately after the fixed IPv6 header.
type Ipv6HopByHopNotAtStartError struct{}

func (e *Ipv6HopByHopNotAtStartError) Error() string {
	return "Ipv6Extensions: hop-by-hop header encountered somewhere other than directly after the IPv6 header"
}
func (e *Ipv6HopByHopNotAtStartError) HeaderLayer() Layer { return LayerIpv6ExtHopByHop }

// Ipv6ExtPayloadLenError is returned when a raw IPv6 extension header's
// encoded payload length does not satisfy (payload_len+2) mod 8 == 0.
type Ipv6ExtPayloadLenError struct {
	Layer      Layer
	PayloadLen int
}

func (e *Ipv6ExtPayloadLenError) Error() string {
	return fmt.Sprintf("%s: payload length %d does not satisfy (len+2) mod 8 == 0", e.Layer, e.PayloadLen)
}
func (e *Ipv6ExtPayloadLenError) HeaderLayer() Layer { return e.Layer }

// Ipv6ExtZeroPayloadLenError is returned when an authentication
// header's payload-length byte is zero.
type Ipv6ExtZeroPayloadLenError struct{}

func (e *Ipv6ExtZeroPayloadLenError) Error() string {
	return "IpAuthHeader: payload length field is zero"
}
func (e *Ipv6ExtZeroPayloadLenError) HeaderLayer() Layer { return LayerIpv6ExtAuth }

// MacsecUnexpectedVersionError is returned when the MACsec TCI/AN
// version bit is set (only version 0 is defined).
type MacsecUnexpectedVersionError struct {
	Version uint8
}

func (e *MacsecUnexpectedVersionError) Error() string {
	return fmt.Sprintf("MacsecHeader: unexpected version bit value %d", e.Version)
}
func (e *MacsecUnexpectedVersionError) HeaderLayer() Layer { return LayerMacsec }

// MacsecShortLenDisallowedError is returned when the MACsec short-length
// field is 1 while neither the E (encryption) nor C (changed-text) bit
// is set, a combination the 802.1AE framing disallows.
type MacsecShortLenDisallowedError struct{}

func (e *MacsecShortLenDisallowedError) Error() string {
	return "MacsecHeader: short_length of 1 is not allowed when neither E nor C is set"
}
func (e *MacsecShortLenDisallowedError) HeaderLayer() Layer { return LayerMacsec }

// TcpDataOffsetTooSmallError is returned when the TCP data-offset field
// is smaller than 5 (the minimum TCP header length in 4-byte words).
type TcpDataOffsetTooSmallError struct {
	DataOffset uint8
}

func (e *TcpDataOffsetTooSmallError) Error() string {
	return fmt.Sprintf("TcpHeader: data_offset value %d is smaller than the minimum of 5", e.DataOffset)
}
func (e *TcpDataOffsetTooSmallError) HeaderLayer() Layer { return LayerTcpHeader }

// VlanOuterNonVlanEtherTypeError is returned when a double-vlan parse
// is requested but the outer tag's inner ether-type is not itself a
// VLAN ether-type.
type VlanOuterNonVlanEtherTypeError struct {
	EtherType uint16
}

func (e *VlanOuterNonVlanEtherTypeError) Error() string {
	return fmt.Sprintf("VlanHeader: expected a double vlan header but the outer tag's ether_type 0x%04x is not a vlan ether_type", e.EtherType)
}
func (e *VlanOuterNonVlanEtherTypeError) HeaderLayer() Layer { return LayerVlanDouble }

// TcpOptionErrorKind distinguishes the ways TCP option iteration can fail.
type TcpOptionErrorKind int

const (
	TcpOptionUnknownID TcpOptionErrorKind = iota
	TcpOptionUnexpectedEndOfSlice
	TcpOptionUnexpectedSize
)

// TcpOptionError is yielded by the TCP option iterator (C3) when it
// encounters a malformed or unrecognized option. After yielding one,
// the iterator is exhausted.
type TcpOptionError struct {
	Kind        TcpOptionErrorKind
	OptionID    uint8
	ExpectedLen int
	ActualLen   int
	Size        int
}

func (e *TcpOptionError) Error() string {
	switch e.Kind {
	case TcpOptionUnknownID:
		return fmt.Sprintf("TcpOptions: unknown option kind %d", e.OptionID)
	case TcpOptionUnexpectedEndOfSlice:
		return fmt.Sprintf("TcpOptions: option %d expected %d bytes but only %d remained", e.OptionID, e.ExpectedLen, e.ActualLen)
	case TcpOptionUnexpectedSize:
		return fmt.Sprintf("TcpOptions: option %d has disallowed length byte %d", e.OptionID, e.Size)
	default:
		return "TcpOptions: malformed option"
	}
}
func (e *TcpOptionError) HeaderLayer() Layer { return LayerTcpOptions }

// ValueTooBigErrorKind names which protocol's length field the engine
// refused to overflow while computing a checksum.
type ValueTooBigErrorKind int

const (
	Icmpv6PayloadLength ValueTooBigErrorKind = iota
	TcpPayloadLengthIpv4
	TcpPayloadLengthIpv6
	Ipv4PayloadLength
	Ipv6PayloadLength
)

func (k ValueTooBigErrorKind) String() string {
	switch k {
	case Icmpv6PayloadLength:
		return "Icmpv6PayloadLength"
	case TcpPayloadLengthIpv4:
		return "TcpPayloadLengthIpv4"
	case TcpPayloadLengthIpv6:
		return "TcpPayloadLengthIpv6"
	case Ipv4PayloadLength:
		return "Ipv4PayloadLength"
	case Ipv6PayloadLength:
		return "Ipv6PayloadLength"
	default:
		return "Unknown"
	}
}

// ValueTooBigError is returned when a caller-supplied length would not
// fit the wire format's length field for the protocol being checksummed
// or serialized.
type ValueTooBigError struct {
	Actual     uint64
	MaxAllowed uint64
	ValueType  ValueTooBigErrorKind
}

func (e *ValueTooBigError) Error() string {
	return fmt.Sprintf("%s: value %d exceeds the maximum allowed %d", e.ValueType, e.Actual, e.MaxAllowed)
}

// IpDefragErrorKind names the ways fragment reassembly can fail.
type IpDefragErrorKind int

const (
	DefragOverlap IpDefragErrorKind = iota
	DefragTotalLenTooBig
	DefragInternalCapExceeded
	DefragInconsistentEnd
)

// IpDefragError is returned by the fragment reassembly pool (C8) when a
// fragment cannot be merged into its datagram's in-progress buffer.
type IpDefragError struct {
	Kind IpDefragErrorKind
	Msg  string
}

func (e *IpDefragError) Error() string {
	return fmt.Sprintf("IpDefrag: %s", e.Msg)
}

// FieldRangeError is returned by a header's validated constructor when a
// caller-supplied field value does not fit the wire format's bit width
// (e.g. a 13-bit fragment offset given a value above 0x1FFF). Unlike
// LenError this has nothing to do with buffer bounds: the field is
// structurally too large for the on-wire representation regardless of
// how much buffer space is available.
type FieldRangeError struct {
	Layer      Layer
	Field      string
	Value      uint64
	MaxAllowed uint64
}

func (e *FieldRangeError) Error() string {
	return fmt.Sprintf("%s: %s value %d exceeds maximum %d", e.Layer, e.Field, e.Value, e.MaxAllowed)
}
func (e *FieldRangeError) HeaderLayer() Layer { return e.Layer }

// StopError is what every Lax entry point returns alongside its partial
// result once it gives up: the error that stopped the walk and the
// layer it was raised against. Callers that only care whether parsing
// was clean can ignore it; callers that want to know where a lax parse
// stopped can inspect Layer or unwrap Err.
type StopError struct {
	Err   error
	Layer Layer
}

func (e *StopError) Error() string {
	return fmt.Sprintf("stopped at %s: %s", e.Layer, e.Err)
}

func (e *StopError) Unwrap() error { return e.Err }

// NewStopError wraps err as a StopError, deriving Layer from err itself
// via ErrorLayer. Returns nil if err is nil, so callers can assign the
// result directly without a separate nil check.
func NewStopError(err error) error {
	if err == nil {
		return nil
	}
	return &StopError{Err: err, Layer: ErrorLayer(err)}
}

// ErrorLayer extracts the Layer a decode error was raised against, by
// unwrapping to a *LenError or a HeaderError. Returns LayerUnknown if
// err implements neither.
func ErrorLayer(err error) Layer {
	var lenErr *LenError
	if errors.As(err, &lenErr) {
		return lenErr.Layer
	}
	var headerErr HeaderError
	if errors.As(err, &headerErr) {
		return headerErr.HeaderLayer()
	}
	return LayerUnknown
}
