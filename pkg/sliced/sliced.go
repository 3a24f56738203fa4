// Package sliced implements the layered slicer (C5 in the design): a
// single pass over a buffer that locates every header's byte range
// without copying any of them out, selecting the next decoder from the
// ether-type or IP-number it reads along the way. Call the Header
// accessor on whichever layer you actually need; the others are never
// parsed. Use pkg/packet instead when the result must outlive the
// input buffer.
package sliced

import (
	"encoding/binary"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/ethernet"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/icmpv4"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/icmpv6"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/ipv4"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/ipv6"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/ipv6ext"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/linuxsll"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/macsec"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/tcp"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/udp"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/vlan"
)

// LinkSlice borrows the bytes of whichever link-layer header was found,
// without deciding yet whether the caller wants it parsed.
type LinkSlice struct {
	Slice      []byte
	IsLinuxSLL bool
}

// Ethernet parses the borrowed slice as an Ethernet II header.
func (s LinkSlice) Ethernet() (ethernet.Header, error) {
	h, _, err := ethernet.FromSlice(s.Slice, 0)
	return h, err
}

// LinuxSLL parses the borrowed slice as a Linux cooked-capture header.
func (s LinkSlice) LinuxSLL() (linuxsll.Header, error) {
	h, _, err := linuxsll.FromSlice(s.Slice, 0)
	return h, err
}

// SingleVlanSlice borrows a single 802.1Q tag.
type SingleVlanSlice struct {
	Slice []byte
}

// Header parses the borrowed slice.
func (s SingleVlanSlice) Header() (vlan.Header, error) {
	h, _, err := vlan.FromSlice(s.Slice, 0)
	return h, err
}

// DoubleVlanSlice borrows a Q-in-Q tag pair.
type DoubleVlanSlice struct {
	Slice []byte
}

// Header parses the borrowed slice.
func (s DoubleVlanSlice) Header() (vlan.DoubleHeader, error) {
	h, _, err := vlan.FromSliceDouble(s.Slice, 0)
	return h, err
}

// VlanSlice is the tagged union of a single or double VLAN tag. At most
// one field is set.
type VlanSlice struct {
	Single *SingleVlanSlice
	Double *DoubleVlanSlice
}

// MacsecSlice borrows a MACsec SecTAG plus the ether-type that
// introduced it, needed to interpret the SecTAG's ptype correctly.
type MacsecSlice struct {
	Slice []byte
	PType common.EtherType
}

// Header parses the borrowed slice.
func (s MacsecSlice) Header() (macsec.Header, error) {
	h, _, err := macsec.FromSlice(s.Slice, s.PType, 0)
	return h, err
}

// Ipv4Slice borrows an IPv4 header plus its options.
type Ipv4Slice struct {
	Slice   []byte
	Payload []byte
}

// Header parses the borrowed slice.
func (s Ipv4Slice) Header() (ipv4.Header, error) {
	h, _, _, err := ipv4.FromSlice(s.Slice, 0)
	return h, err
}

// Ipv6Slice borrows a fixed IPv6 header. Extensions has already been
// walked (the chain walker needs to run regardless, to find the
// transport-layer boundary), so it is plain data rather than a lazily
// parsed slice.
type Ipv6Slice struct {
	Slice      []byte
	Extensions ipv6ext.Extensions
	Payload    []byte
}

// Header parses the borrowed slice.
func (s Ipv6Slice) Header() (ipv6.Header, error) {
	h, _, err := ipv6.FromSlice(s.Slice, 0)
	return h, err
}

// NetSlice is the tagged union of IPv4 and IPv6 slices. At most one of
// Ipv4 or Ipv6 is set.
type NetSlice struct {
	Ipv4 *Ipv4Slice
	Ipv6 *Ipv6Slice

	// Incomplete is true when a lax parse had to fall back to fewer
	// payload bytes than the header's length field declared (IPv4
	// total_length, IPv6 payload_length), because the input slice was
	// shorter than that declared length.
	Incomplete bool
}

// TcpSlice borrows a TCP header plus its options.
type TcpSlice struct {
	Slice []byte
}

// Header parses the borrowed slice.
func (s TcpSlice) Header() (tcp.Header, error) {
	h, _, err := tcp.FromSlice(s.Slice, 0)
	return h, err
}

// Options returns an iterator over the TCP option area.
func (s TcpSlice) Options() tcp.OptionsIterator {
	h, _ := s.Header()
	return tcp.NewOptionsIterator(s.Slice[tcp.MinHeaderLen:h.HeaderLen()])
}

// UdpSlice borrows a UDP header.
type UdpSlice struct {
	Slice []byte
}

// Header parses the borrowed slice.
func (s UdpSlice) Header() (udp.Header, error) {
	h, _, _, err := udp.FromSlice(s.Slice, 0)
	return h, err
}

// Icmpv4Slice borrows an ICMPv4 header.
type Icmpv4Slice struct {
	Slice []byte
}

// Header parses the borrowed slice.
func (s Icmpv4Slice) Header() (icmpv4.Header, error) {
	h, _, err := icmpv4.FromSlice(s.Slice, 0)
	return h, err
}

// Icmpv6Slice borrows an ICMPv6 header.
type Icmpv6Slice struct {
	Slice []byte
}

// Header parses the borrowed slice.
func (s Icmpv6Slice) Header() (icmpv6.Header, error) {
	h, _, err := icmpv6.FromSlice(s.Slice, 0)
	return h, err
}

// TransportSlice is the tagged union of the transport-layer slices. At
// most one field is set.
type TransportSlice struct {
	Tcp    *TcpSlice
	Udp    *UdpSlice
	Icmpv4 *Icmpv4Slice
	Icmpv6 *Icmpv6Slice
}

// SlicedPacket is the result of one pass over a buffer: the byte range
// of every header found, plus whatever bytes remain unparsed. None of
// the fields below copy out of the input buffer; SlicedPacket must not
// outlive it.
type SlicedPacket struct {
	Link   *LinkSlice
	Vlan   *VlanSlice
	Macsec *MacsecSlice
	Net    *NetSlice

	Transport *TransportSlice

	Payload []byte
}

// FromEthernet slices a packet starting with an Ethernet II header.
func FromEthernet(buf []byte) (SlicedPacket, error) {
	return fromEthernet(buf, true)
}

// FromEthernetLax is the lax counterpart of FromEthernet: it stops at
// the first error and returns everything sliced so far, plus the
// optional error that stopped it, instead of failing the whole call.
func FromEthernetLax(buf []byte) (SlicedPacket, error) {
	sp, err := fromEthernet(buf, false)
	if err == nil {
		return sp, nil
	}
	return sp, neterr.NewStopError(err)
}

func fromEthernet(buf []byte, strict bool) (SlicedPacket, error) {
	var out SlicedPacket
	if len(buf) < ethernet.HeaderLen {
		err := error(&neterr.LenError{
			RequiredLen:      ethernet.HeaderLen,
			Len:              len(buf),
			LenSource:        neterr.LenSourceSlice,
			Layer:            neterr.LayerEthernet2,
			LayerStartOffset: 0,
		})
		if !strict {
			out.Payload = buf
		}
		return out, err
	}
	etherType := common.EtherType(binary.BigEndian.Uint16(buf[12:14]))
	out.Link = &LinkSlice{Slice: buf[:ethernet.HeaderLen]}
	return dispatchEtherType(out, etherType, buf[ethernet.HeaderLen:], ethernet.HeaderLen, strict)
}

// FromLinuxSLL slices a packet starting with a Linux cooked-capture
// header.
func FromLinuxSLL(buf []byte) (SlicedPacket, error) {
	return fromLinuxSLL(buf, true)
}

// FromLinuxSLLLax is the lax counterpart of FromLinuxSLL.
func FromLinuxSLLLax(buf []byte) (SlicedPacket, error) {
	sp, err := fromLinuxSLL(buf, false)
	if err == nil {
		return sp, nil
	}
	return sp, neterr.NewStopError(err)
}

func fromLinuxSLL(buf []byte, strict bool) (SlicedPacket, error) {
	var out SlicedPacket
	h, rest, err := linuxsll.FromSlice(buf, 0)
	if err != nil {
		if !strict {
			out.Payload = buf
		}
		return out, err
	}
	out.Link = &LinkSlice{Slice: buf[:linuxsll.HeaderLen], IsLinuxSLL: true}
	return dispatchEtherType(out, h.EtherType, rest, linuxsll.HeaderLen, strict)
}

// FromEtherType slices a packet whose link layer has already been
// stripped by the caller.
func FromEtherType(etherType common.EtherType, buf []byte) (SlicedPacket, error) {
	return dispatchEtherType(SlicedPacket{}, etherType, buf, 0, true)
}

// FromEtherTypeLax is the lax counterpart of FromEtherType.
func FromEtherTypeLax(etherType common.EtherType, buf []byte) (SlicedPacket, error) {
	sp, err := dispatchEtherType(SlicedPacket{}, etherType, buf, 0, false)
	if err == nil {
		return sp, nil
	}
	return sp, neterr.NewStopError(err)
}

// FromIP slices a packet starting directly at an IP header.
func FromIP(buf []byte) (SlicedPacket, error) {
	return dispatchIP(SlicedPacket{}, buf, 0, true)
}

// FromIPLax is the lax counterpart of FromIP.
func FromIPLax(buf []byte) (SlicedPacket, error) {
	sp, err := dispatchIP(SlicedPacket{}, buf, 0, false)
	if err == nil {
		return sp, nil
	}
	return sp, neterr.NewStopError(err)
}

func dispatchEtherType(out SlicedPacket, etherType common.EtherType, buf []byte, offset int, strict bool) (SlicedPacket, error) {
	rest := buf

	if etherType.IsVlanTag() {
		if len(rest) < vlan.HeaderLen {
			err := error(&neterr.LenError{
				RequiredLen:      vlan.HeaderLen,
				Len:              len(rest),
				LenSource:        neterr.LenSourceSlice,
				Layer:            neterr.LayerVlanSingle,
				LayerStartOffset: offset,
			})
			if !strict {
				out.Payload = rest
			}
			return out, err
		}
		innerEtherType := common.EtherType(binary.BigEndian.Uint16(rest[2:4]))
		tag1 := rest[:vlan.HeaderLen]
		rest = rest[vlan.HeaderLen:]
		offset += vlan.HeaderLen
		etherType = innerEtherType

		if etherType.IsVlanTag() {
			if len(rest) < vlan.HeaderLen {
				err := error(&neterr.LenError{
					RequiredLen:      vlan.HeaderLen,
					Len:              len(rest),
					LenSource:        neterr.LenSourceSlice,
					Layer:            neterr.LayerVlanSingle,
					LayerStartOffset: offset,
				})
				if !strict {
					out.Payload = rest
				}
				return out, err
			}
			innerInnerEtherType := common.EtherType(binary.BigEndian.Uint16(rest[2:4]))
			out.Vlan = &VlanSlice{Double: &DoubleVlanSlice{Slice: buf[:2*vlan.HeaderLen]}}
			rest = rest[vlan.HeaderLen:]
			offset += vlan.HeaderLen
			etherType = innerInnerEtherType
		} else {
			out.Vlan = &VlanSlice{Single: &SingleVlanSlice{Slice: tag1}}
		}
	}

	if etherType == common.EtherTypeMacsec {
		h, tail, err := macsec.FromSlice(rest, common.EtherTypeMacsec, offset)
		if err != nil {
			if !strict {
				out.Payload = rest
			}
			return out, err
		}
		headerLen := macsec.HeaderLen
		if h.SciPresent {
			headerLen += 8
		}
		out.Macsec = &MacsecSlice{Slice: rest[:headerLen], PType: common.EtherTypeMacsec}
		rest = tail
		offset += headerLen
		if h.TciE || h.TciC {
			out.Payload = rest
			return out, nil
		}
		if len(rest) < 2 {
			err := error(&neterr.LenError{
				RequiredLen:      2,
				Len:              len(rest),
				LenSource:        neterr.LenSourceSlice,
				Layer:            neterr.LayerMacsec,
				LayerStartOffset: offset,
			})
			if !strict {
				out.Payload = rest
			}
			return out, err
		}
		etherType = common.EtherType(binary.BigEndian.Uint16(rest[0:2]))
		rest = rest[2:]
		offset += 2
	}

	switch etherType {
	case common.EtherTypeIPv4, common.EtherTypeIPv6:
		return dispatchIP(out, rest, offset, strict)
	default:
		out.Payload = rest
		return out, nil
	}
}

func dispatchIP(out SlicedPacket, buf []byte, offset int, strict bool) (SlicedPacket, error) {
	if len(buf) < 1 {
		if strict {
			return out, &neterr.LenError{
				RequiredLen:      1,
				Len:              0,
				LenSource:        neterr.LenSourceSlice,
				Layer:            neterr.LayerIpv4Header,
				LayerStartOffset: offset,
			}
		}
		return out, nil
	}
	version := buf[0] >> 4

	switch version {
	case ipv4.Version:
		var h ipv4.Header
		var payload, trailer []byte
		var err error
		if strict {
			h, payload, trailer, err = ipv4.FromSlice(buf, offset)
		} else {
			h, payload, trailer, err = ipv4.FromSliceLax(buf, offset)
		}
		if err != nil {
			if !strict {
				out.Payload = buf
			}
			return out, err
		}
		headerLen := h.HeaderLen()
		incomplete := !strict && headerLen+len(payload) < int(h.TotalLength)
		out.Net = &NetSlice{Ipv4: &Ipv4Slice{Slice: buf[:headerLen+len(payload)], Payload: payload}, Incomplete: incomplete}
		_ = trailer
		if h.IsFragment() {
			// A fragment's payload is not parsed as a transport header,
			// not even the initial fragment's; it is left for reassembly.
			out.Payload = payload
			return out, nil
		}
		return dispatchIpNumber(out, h.Protocol, payload, offset+headerLen, strict)

	case ipv6.Version:
		h, rest, err := ipv6.FromSlice(buf, offset)
		if err != nil {
			if !strict {
				out.Payload = buf
			}
			return out, err
		}
		payload := rest
		incomplete := false
		if h.PayloadLength != 0 {
			if len(rest) < int(h.PayloadLength) {
				lenErr := &neterr.LenError{
					RequiredLen:      int(h.PayloadLength),
					Len:              len(rest),
					LenSource:        neterr.LenSourceIpv6HeaderPayloadLen,
					Layer:            neterr.LayerIpv6Header,
					LayerStartOffset: offset,
				}
				if strict {
					return out, lenErr
				}
				incomplete = true
			} else {
				payload = rest[:h.PayloadLength]
			}
		}
		var ext ipv6ext.Extensions
		var extRest []byte
		var walkErr error
		if strict {
			ext, extRest, walkErr = ipv6ext.Walk(payload, h.NextHeader, offset+ipv6.HeaderLen)
			if walkErr != nil {
				return out, walkErr
			}
		} else {
			ext, extRest, walkErr = ipv6ext.WalkLax(payload, h.NextHeader, offset+ipv6.HeaderLen)
		}
		out.Net = &NetSlice{Ipv6: &Ipv6Slice{Slice: buf[:ipv6.HeaderLen], Extensions: ext, Payload: payload}, Incomplete: incomplete}
		consumed := len(payload) - len(extRest)
		res, err := dispatchIpNumber(out, ext.FinalNextHeader, extRest, offset+ipv6.HeaderLen+consumed, strict)
		if err != nil {
			return res, err
		}
		return res, walkErr

	default:
		if strict {
			return out, &neterr.UnsupportedIpVersionError{Version: version}
		}
		out.Payload = buf
		return out, nil
	}
}

func dispatchIpNumber(out SlicedPacket, ipNumber common.IpNumber, buf []byte, offset int, strict bool) (SlicedPacket, error) {
	switch ipNumber {
	case common.IpNumberTcp:
		h, _, err := tcp.FromSlice(buf, offset)
		if err != nil {
			if !strict {
				out.Payload = buf
			}
			return out, err
		}
		headerLen := h.HeaderLen()
		out.Transport = &TransportSlice{Tcp: &TcpSlice{Slice: buf[:headerLen]}}
		out.Payload = buf[headerLen:]
		return out, nil

	case common.IpNumberUdp:
		h, payload, _, err := udp.FromSlice(buf, offset)
		if err != nil {
			if !strict {
				out.Payload = buf
			}
			return out, err
		}
		out.Transport = &TransportSlice{Udp: &UdpSlice{Slice: buf[:h.Length]}}
		out.Payload = payload
		return out, nil

	case common.IpNumberIcmp:
		_, rest, err := icmpv4.FromSlice(buf, offset)
		if err != nil {
			if !strict {
				out.Payload = buf
			}
			return out, err
		}
		out.Transport = &TransportSlice{Icmpv4: &Icmpv4Slice{Slice: buf[:icmpv4.HeaderLen]}}
		out.Payload = rest
		return out, nil

	case common.IpNumberIPv6Icmp:
		_, rest, err := icmpv6.FromSlice(buf, offset)
		if err != nil {
			if !strict {
				out.Payload = buf
			}
			return out, err
		}
		out.Transport = &TransportSlice{Icmpv6: &Icmpv6Slice{Slice: buf[:icmpv6.HeaderLen]}}
		out.Payload = rest
		return out, nil

	default:
		out.Payload = buf
		return out, nil
	}
}
