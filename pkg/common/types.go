// Package common provides the address and identifier types shared by
// every header codec in the module: MAC and IP addresses, ether-types,
// and IP protocol numbers.
package common

import (
	"encoding/binary"
	"fmt"
	"net"
)

// MACAddress represents a 48-bit hardware address.
type MACAddress [6]byte

// String returns the MAC address in standard format (e.g., "00:11:22:33:44:55").
func (m MACAddress) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		m[0], m[1], m[2], m[3], m[4], m[5])
}

// IsBroadcast returns true if this is a broadcast MAC address (FF:FF:FF:FF:FF:FF).
func (m MACAddress) IsBroadcast() bool {
	return m[0] == 0xFF && m[1] == 0xFF && m[2] == 0xFF &&
		m[3] == 0xFF && m[4] == 0xFF && m[5] == 0xFF
}

// IsMulticast returns true if the least significant bit of the first byte is 1.
func (m MACAddress) IsMulticast() bool {
	return m[0]&0x01 != 0
}

// ParseMAC parses a string MAC address (e.g., "00:11:22:33:44:55").
func ParseMAC(s string) (MACAddress, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return MACAddress{}, err
	}
	if len(hw) != 6 {
		return MACAddress{}, fmt.Errorf("invalid MAC address length: %d", len(hw))
	}
	var mac MACAddress
	copy(mac[:], hw)
	return mac, nil
}

// BroadcastMAC is the broadcast MAC address (FF:FF:FF:FF:FF:FF).
var BroadcastMAC = MACAddress{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// IPv4Address represents a 32-bit IPv4 address.
type IPv4Address [4]byte

// String returns the IP address in dotted decimal format (e.g., "192.168.1.1").
func (ip IPv4Address) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", ip[0], ip[1], ip[2], ip[3])
}

// ToUint32 converts the IPv4 address to a uint32 in network byte order.
func (ip IPv4Address) ToUint32() uint32 {
	return binary.BigEndian.Uint32(ip[:])
}

// ParseIPv4 parses a string IPv4 address (e.g., "192.168.1.1").
func ParseIPv4(s string) (IPv4Address, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return IPv4Address{}, fmt.Errorf("invalid IP address: %s", s)
	}
	ip = ip.To4()
	if ip == nil {
		return IPv4Address{}, fmt.Errorf("not an IPv4 address: %s", s)
	}
	var addr IPv4Address
	copy(addr[:], ip)
	return addr, nil
}

// IPv4FromUint32 converts a uint32 to an IPv4 address.
func IPv4FromUint32(v uint32) IPv4Address {
	var addr IPv4Address
	binary.BigEndian.PutUint32(addr[:], v)
	return addr
}

// IPv6Address represents a 128-bit IPv6 address.
type IPv6Address [16]byte

// String returns the address using net.IP's standard IPv6 formatting.
func (ip IPv6Address) String() string {
	return net.IP(ip[:]).String()
}

// ParseIPv6 parses a string IPv6 address (e.g., "2001:db8::1").
func ParseIPv6(s string) (IPv6Address, error) {
	parsed := net.ParseIP(s)
	if parsed == nil {
		return IPv6Address{}, fmt.Errorf("invalid IP address: %s", s)
	}
	parsed = parsed.To16()
	if parsed == nil {
		return IPv6Address{}, fmt.Errorf("not an IPv6 address: %s", s)
	}
	var addr IPv6Address
	copy(addr[:], parsed)
	return addr, nil
}

// EtherType represents the protocol type carried in an Ethernet II
// frame's type field (also reused as the "inner ether-type" of a VLAN
// tag and the ptype ether-type of an unmodified MACsec frame).
type EtherType uint16

// Recognized EtherType values, per IEEE 802.3 and 802.1Q/802.1AE.
const (
	EtherTypeIPv4              EtherType = 0x0800 // Internet Protocol version 4
	EtherTypeARP               EtherType = 0x0806 // Address Resolution Protocol
	EtherTypeVlanTaggedFrame   EtherType = 0x8100 // IEEE 802.1Q single VLAN tag
	EtherTypeProviderBridging  EtherType = 0x88A8 // IEEE 802.1ad (Q-in-Q) outer tag
	EtherTypeVlanDoubleTagged  EtherType = 0x9100 // Legacy double-tagged VLAN outer tag
	EtherTypeMacsec            EtherType = 0x88E5 // IEEE 802.1AE MACsec
	EtherTypeIPv6              EtherType = 0x86DD // Internet Protocol version 6
)

// IsVlanTag reports whether et is one of the ether-types that introduce
// a VLAN tag the layered slicer/decoder must consume before continuing.
func (et EtherType) IsVlanTag() bool {
	switch et {
	case EtherTypeVlanTaggedFrame, EtherTypeProviderBridging, EtherTypeVlanDoubleTagged:
		return true
	default:
		return false
	}
}

// String returns a human-readable name for the EtherType.
func (et EtherType) String() string {
	switch et {
	case EtherTypeIPv4:
		return "IPv4"
	case EtherTypeARP:
		return "ARP"
	case EtherTypeVlanTaggedFrame:
		return "VlanTaggedFrame"
	case EtherTypeProviderBridging:
		return "ProviderBridging"
	case EtherTypeVlanDoubleTagged:
		return "VlanDoubleTaggedFrame"
	case EtherTypeMacsec:
		return "Macsec"
	case EtherTypeIPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("Unknown(0x%04x)", uint16(et))
	}
}

// IpNumber represents an IP protocol / next-header number, as used in
// the IPv4 "protocol" field and the IPv6 "next header" field (they
// share one registry: IANA's Assigned Internet Protocol Numbers).
type IpNumber uint8

// Recognized IpNumber values.
const (
	IpNumberIcmp            IpNumber = 1
	IpNumberIPv4            IpNumber = 4 // IPv4 encapsulated in IPv4/IPv6
	IpNumberTcp             IpNumber = 6
	IpNumberUdp             IpNumber = 17
	IpNumberIPv6            IpNumber = 41 // IPv6 encapsulated in IPv4/IPv6
	IpNumberIPv6HopByHop    IpNumber = 0
	IpNumberIPv6Route       IpNumber = 43
	IpNumberIPv6Frag        IpNumber = 44
	IpNumberEncapSecurity   IpNumber = 50 // ESP, out of scope (encrypted payload)
	IpNumberAuth            IpNumber = 51
	IpNumberIPv6Icmp        IpNumber = 58
	IpNumberIPv6NoNextHeader IpNumber = 59
	IpNumberIPv6DestOptions IpNumber = 60
	IpNumberMobility        IpNumber = 135
	IpNumberHip             IpNumber = 139
	IpNumberShim6           IpNumber = 140
)

// String returns a human-readable name for the protocol/next-header number.
func (p IpNumber) String() string {
	switch p {
	case IpNumberIcmp:
		return "ICMP"
	case IpNumberIPv4:
		return "IPv4"
	case IpNumberTcp:
		return "TCP"
	case IpNumberUdp:
		return "UDP"
	case IpNumberIPv6:
		return "IPv6"
	case IpNumberIPv6HopByHop:
		return "IPv6HopByHop"
	case IpNumberIPv6Route:
		return "IPv6Route"
	case IpNumberIPv6Frag:
		return "IPv6Frag"
	case IpNumberEncapSecurity:
		return "ESP"
	case IpNumberAuth:
		return "AH"
	case IpNumberIPv6Icmp:
		return "IPv6ICMP"
	case IpNumberIPv6NoNextHeader:
		return "IPv6NoNextHeader"
	case IpNumberIPv6DestOptions:
		return "IPv6DestOptions"
	case IpNumberMobility:
		return "Mobility"
	case IpNumberHip:
		return "HIP"
	case IpNumberShim6:
		return "Shim6"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(p))
	}
}

// IsIpv6Extension reports whether p names one of the raw (hdr_ext_len
// encoded) IPv6 extension header types. The chain walker (C4) traverses
// hop-by-hop, routing and destination options; it stops at mobility,
// HIP and Shim6. AH and the fragment header have their own fixed
// framing and are handled separately by the walker.
func (p IpNumber) IsIpv6Extension() bool {
	switch p {
	case IpNumberIPv6HopByHop, IpNumberIPv6Route, IpNumberIPv6DestOptions,
		IpNumberMobility, IpNumberHip, IpNumberShim6:
		return true
	default:
		return false
	}
}

// Protocol is retained as an alias of IpNumber for source compatibility
// with the teacher's original ICMP/TCP/UDP protocol constants.
type Protocol = IpNumber

// Common protocol numbers, aliased onto the IpNumber constants above.
const (
	ProtocolICMP = IpNumberIcmp
	ProtocolTCP  = IpNumberTcp
	ProtocolUDP  = IpNumberUdp
)
