// Package packet implements the layered decoder (C6 in the design): it
// walks the same link/vlan/macsec/net/transport chain as pkg/sliced but
// materializes every header it walks as an owned value, so the result
// can outlive the input buffer. Use pkg/sliced instead when the input
// buffer is guaranteed to outlive the parsed result and avoiding the
// copy of each header struct matters.
package packet

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

// VlanHeaders is the owned counterpart of the spec's VlanHeader tagged
// union: exactly one of Single or Double is set.
type VlanHeaders struct {
	Single *vlan.Header
	Double *vlan.DoubleHeader
}

// NetHeaders holds the owned IP-layer headers. At most one of Ipv4 or
// Ipv6 is set.
type NetHeaders struct {
	Ipv4 *ipv4.Header
	Ipv6 *ipv6.Header

	// Ipv6Extensions is populated alongside Ipv6 with every extension
	// header the chain walker (C4) found.
	Ipv6Extensions *ipv6ext.Extensions

	// Incomplete is true when a lax parse had to fall back to fewer
	// payload bytes than the header's length field declared (IPv4
	// total_length, IPv6 payload_length), because the input slice was
	// shorter than that declared length.
	Incomplete bool
}

// TransportHeaders holds the owned transport-layer header. At most one
// field is set.
type TransportHeaders struct {
	Tcp    *tcp.Header
	Udp    *udp.Header
	Icmpv4 *icmpv4.Header
	Icmpv6 *icmpv6.Header
}

// PacketHeaders is the fully owned result of decoding a layered packet:
// every header that was walked is copied out of the input buffer, so
// the result is safe to retain after the buffer is reused or freed.
// Payload is the remaining, unparsed tail (borrowed from the input
// buffer, same as the slicer -- only headers are owned).
type PacketHeaders struct {
	LinkEthernet *ethernet.Header
	LinkLinuxSLL *linuxsll.Header

	Vlan   *VlanHeaders
	Macsec *macsec.Header

	Net *NetHeaders

	Transport *TransportHeaders

	Payload []byte
}

// FromEthernet decodes a packet starting with an Ethernet II header.
func FromEthernet(buf []byte) (PacketHeaders, error) {
	return fromEthernet(buf, true)
}

// FromEthernetLax is the lax counterpart of FromEthernet: it stops at
// the first error and returns everything decoded so far, plus the
// optional error that stopped it, instead of failing the whole call.
func FromEthernetLax(buf []byte) (PacketHeaders, error) {
	ph, err := fromEthernet(buf, false)
	if err == nil {
		return ph, nil
	}
	return ph, neterr.NewStopError(err)
}

func fromEthernet(buf []byte, strict bool) (PacketHeaders, error) {
	var out PacketHeaders
	h, rest, err := ethernet.FromSlice(buf, 0)
	if err != nil {
		if !strict {
			out.Payload = buf
		}
		return out, err
	}
	out.LinkEthernet = &h
	offset := ethernet.HeaderLen
	return dispatchEtherType(out, h.EtherType, rest, offset, strict)
}

// FromLinuxSLL decodes a packet starting with a Linux "cooked capture"
// header, as produced by an AF_PACKET SOCK_DGRAM capture.
func FromLinuxSLL(buf []byte) (PacketHeaders, error) {
	return fromLinuxSLL(buf, true)
}

// FromLinuxSLLLax is the lax counterpart of FromLinuxSLL.
func FromLinuxSLLLax(buf []byte) (PacketHeaders, error) {
	ph, err := fromLinuxSLL(buf, false)
	if err == nil {
		return ph, nil
	}
	return ph, neterr.NewStopError(err)
}

func fromLinuxSLL(buf []byte, strict bool) (PacketHeaders, error) {
	var out PacketHeaders
	h, rest, err := linuxsll.FromSlice(buf, 0)
	if err != nil {
		if !strict {
			out.Payload = buf
		}
		return out, err
	}
	out.LinkLinuxSLL = &h
	offset := linuxsll.HeaderLen
	return dispatchEtherType(out, h.EtherType, rest, offset, strict)
}

// FromEtherType decodes a packet whose link layer has already been
// stripped by the caller, starting dispatch directly from a known
// ether-type (for example a value read out of a tunnel header).
func FromEtherType(etherType common.EtherType, buf []byte) (PacketHeaders, error) {
	return dispatchEtherType(PacketHeaders{}, etherType, buf, 0, true)
}

// FromEtherTypeLax is the lax counterpart of FromEtherType.
func FromEtherTypeLax(etherType common.EtherType, buf []byte) (PacketHeaders, error) {
	ph, err := dispatchEtherType(PacketHeaders{}, etherType, buf, 0, false)
	if err == nil {
		return ph, nil
	}
	return ph, neterr.NewStopError(err)
}

// FromIP decodes a packet starting directly at an IP header, dispatching
// on the version nibble in the first byte.
func FromIP(buf []byte) (PacketHeaders, error) {
	return dispatchIP(PacketHeaders{}, buf, 0, true)
}

// FromIPLax is the lax counterpart of FromIP.
func FromIPLax(buf []byte) (PacketHeaders, error) {
	ph, err := dispatchIP(PacketHeaders{}, buf, 0, false)
	if err == nil {
		return ph, nil
	}
	return ph, neterr.NewStopError(err)
}

func dispatchEtherType(out PacketHeaders, etherType common.EtherType, buf []byte, offset int, strict bool) (PacketHeaders, error) {
	rest := buf

	if etherType.IsVlanTag() {
		outer, tail, err := vlan.FromSlice(rest, offset)
		if err != nil {
			if !strict {
				out.Payload = rest
			}
			return out, err
		}
		offset += vlan.HeaderLen
		rest = tail
		etherType = outer.EtherType

		if etherType.IsVlanTag() {
			inner, tail2, err := vlan.FromSlice(rest, offset)
			if err != nil {
				if !strict {
					out.Payload = rest
				}
				return out, err
			}
			out.Vlan = &VlanHeaders{Double: &vlan.DoubleHeader{Outer: outer, Inner: inner}}
			offset += vlan.HeaderLen
			rest = tail2
			etherType = inner.EtherType
		} else {
			out.Vlan = &VlanHeaders{Single: &outer}
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
		out.Macsec = &h
		offset += macsec.HeaderLen
		if h.SciPresent {
			offset += 8
		}
		rest = tail
		if h.TciE || h.TciC {
			// Payload is ciphertext (or otherwise altered) past this
			// point; nothing further can be interpreted.
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

func dispatchIP(out PacketHeaders, buf []byte, offset int, strict bool) (PacketHeaders, error) {
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
		incomplete := !strict && h.HeaderLen()+len(payload) < int(h.TotalLength)
		out.Net = &NetHeaders{Ipv4: &h, Incomplete: incomplete}
		_ = trailer
		if h.IsFragment() {
			// A fragment's payload is not parsed as a transport header,
			// not even the initial fragment's; it is left for reassembly.
			out.Payload = payload
			return out, nil
		}
		return dispatchIpNumber(out, h.Protocol, payload, offset+h.HeaderLen(), strict)

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
		out.Net = &NetHeaders{Ipv6: &h, Ipv6Extensions: &ext, Incomplete: incomplete}
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

func dispatchIpNumber(out PacketHeaders, ipNumber common.IpNumber, buf []byte, offset int, strict bool) (PacketHeaders, error) {
	switch ipNumber {
	case common.IpNumberTcp:
		h, rest, err := tcp.FromSlice(buf, offset)
		if err != nil {
			if !strict {
				out.Payload = buf
			}
			return out, err
		}
		out.Transport = &TransportHeaders{Tcp: &h}
		out.Payload = rest
		return out, nil

	case common.IpNumberUdp:
		h, payload, _, err := udp.FromSlice(buf, offset)
		if err != nil {
			if !strict {
				out.Payload = buf
			}
			return out, err
		}
		out.Transport = &TransportHeaders{Udp: &h}
		out.Payload = payload
		return out, nil

	case common.IpNumberIcmp:
		h, rest, err := icmpv4.FromSlice(buf, offset)
		if err != nil {
			if !strict {
				out.Payload = buf
			}
			return out, err
		}
		out.Transport = &TransportHeaders{Icmpv4: &h}
		out.Payload = rest
		return out, nil

	case common.IpNumberIPv6Icmp:
		h, rest, err := icmpv6.FromSlice(buf, offset)
		if err != nil {
			if !strict {
				out.Payload = buf
			}
			return out, err
		}
		out.Transport = &TransportHeaders{Icmpv6: &h}
		out.Payload = rest
		return out, nil

	default:
		out.Payload = buf
		return out, nil
	}
}
