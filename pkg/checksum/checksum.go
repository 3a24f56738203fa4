// Package checksum implements the 16-bit one's-complement Internet
// checksum (RFC 1071) used by IPv4, UDP, TCP, and ICMPv6, including the
// pseudo-header prefixes the transport checksums require (C7 in the
// design).
package checksum

import (
	"encoding/binary"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// Checksum accumulates a running one's-complement sum. The zero value
// is ready to use. Summing into a 64-bit accumulator before folding
// means an arbitrary number of Add* calls can be chained without
// intermediate overflow — the same approach golang.org/x/net's
// checksum helpers use internally for ICMP/IP checksums.
type Checksum struct {
	sum uint64
}

// Add2Bytes folds a 2-byte big-endian word into the running sum.
func (c *Checksum) Add2Bytes(b [2]byte) {
	c.sum += uint64(binary.BigEndian.Uint16(b[:]))
}

// Add4Bytes folds a 4-byte value (as two big-endian words) into the sum.
func (c *Checksum) Add4Bytes(b [4]byte) {
	c.sum += uint64(binary.BigEndian.Uint16(b[0:2]))
	c.sum += uint64(binary.BigEndian.Uint16(b[2:4]))
}

// Add16Bytes folds a 16-byte value (as eight big-endian words) into the sum.
func (c *Checksum) Add16Bytes(b [16]byte) {
	for i := 0; i < 16; i += 2 {
		c.sum += uint64(binary.BigEndian.Uint16(b[i : i+2]))
	}
}

// AddU16 folds a single already-decoded 16-bit value into the sum.
func (c *Checksum) AddU16(v uint16) {
	c.sum += uint64(v)
}

// AddSlice folds an arbitrary byte slice into the sum, padding a
// trailing odd byte with a zero low byte per RFC 1071.
func (c *Checksum) AddSlice(data []byte) {
	n := len(data)
	for i := 0; i+1 < n; i += 2 {
		c.sum += uint64(binary.BigEndian.Uint16(data[i : i+2]))
	}
	if n%2 == 1 {
		c.sum += uint64(data[n-1]) << 8
	}
}

// fold repeatedly adds the carry bits back in until the sum fits in 16 bits.
func (c *Checksum) fold() uint16 {
	sum := c.sum
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return uint16(sum)
}

// OnesComplement folds the running sum to 16 bits and returns its
// one's complement, ready to place big-endian into a checksum field.
func (c *Checksum) OnesComplement() uint16 {
	return ^c.fold()
}

// Ipv4Header computes the IPv4 header checksum (RFC 791 §3.1): the
// one's-complement sum over every 16-bit word of the header (options
// included), with the checksum field itself treated as zero.
//
// headerWithZeroChecksum must be exactly header_len() bytes, with
// bytes [10:12] (the checksum field) already zeroed by the caller.
func Ipv4Header(headerWithZeroChecksum []byte) uint16 {
	var c Checksum
	c.AddSlice(headerWithZeroChecksum)
	return c.OnesComplement()
}

// Ipv4Pseudo starts a running sum with the IPv4 pseudo-header prefix
// (source, destination, zero, protocol, length) used by UDP and TCP
// checksums over IPv4.
func Ipv4Pseudo(src, dst [4]byte, protocol uint8, length uint16) (Checksum, error) {
	var c Checksum
	c.Add4Bytes(src)
	c.Add4Bytes(dst)
	c.sum += uint64(protocol)
	c.sum += uint64(length)
	return c, nil
}

// Ipv6Pseudo starts a running sum with the IPv6 pseudo-header prefix
// (source, destination, length, zeros, next header) used by UDP, TCP,
// and ICMPv6 checksums over IPv6.
func Ipv6Pseudo(src, dst [16]byte, nextHeader uint8, length uint32) Checksum {
	var c Checksum
	c.Add16Bytes(src)
	c.Add16Bytes(dst)
	c.sum += uint64(length >> 16)
	c.sum += uint64(length & 0xFFFF)
	c.sum += uint64(nextHeader)
	return c
}

const (
	maxU16 = 1<<16 - 1
	maxU32 = 1<<32 - 1
)

// TcpChecksumIpv4 computes a TCP checksum over an IPv4 pseudo-header.
// tcpHeaderAndData is the TCP header (including options) plus data.
func TcpChecksumIpv4(src, dst [4]byte, tcpHeaderAndData []byte) (uint16, error) {
	length := len(tcpHeaderAndData)
	if length > maxU16 {
		return 0, &neterr.ValueTooBigError{
			Actual: uint64(length), MaxAllowed: maxU16, ValueType: neterr.TcpPayloadLengthIpv4,
		}
	}
	c, _ := Ipv4Pseudo(src, dst, 6, uint16(length))
	c.AddSlice(tcpHeaderAndData)
	return c.OnesComplement(), nil
}

// TcpChecksumIpv6 computes a TCP checksum over an IPv6 pseudo-header.
func TcpChecksumIpv6(src, dst [16]byte, tcpHeaderAndData []byte) (uint16, error) {
	length := len(tcpHeaderAndData)
	if uint64(length) > maxU32 {
		return 0, &neterr.ValueTooBigError{
			Actual: uint64(length), MaxAllowed: maxU32, ValueType: neterr.TcpPayloadLengthIpv6,
		}
	}
	c := Ipv6Pseudo(src, dst, 6, uint32(length))
	c.AddSlice(tcpHeaderAndData)
	return c.OnesComplement(), nil
}

// UdpChecksumIpv4 computes a UDP checksum over an IPv4 pseudo-header.
func UdpChecksumIpv4(src, dst [4]byte, udpHeaderAndData []byte) (uint16, error) {
	length := len(udpHeaderAndData)
	if length > maxU16 {
		return 0, &neterr.ValueTooBigError{
			Actual: uint64(length), MaxAllowed: maxU16, ValueType: neterr.Ipv4PayloadLength,
		}
	}
	c, _ := Ipv4Pseudo(src, dst, 17, uint16(length))
	c.AddSlice(udpHeaderAndData)
	sum := c.OnesComplement()
	if sum == 0 {
		// RFC 768: an all-zero computed checksum is transmitted as all-ones.
		return 0xFFFF, nil
	}
	return sum, nil
}

// UdpChecksumIpv6 computes a UDP checksum over an IPv6 pseudo-header.
func UdpChecksumIpv6(src, dst [16]byte, udpHeaderAndData []byte) (uint16, error) {
	length := len(udpHeaderAndData)
	if uint64(length) > maxU32 {
		return 0, &neterr.ValueTooBigError{
			Actual: uint64(length), MaxAllowed: maxU32, ValueType: neterr.Ipv6PayloadLength,
		}
	}
	c := Ipv6Pseudo(src, dst, 17, uint32(length))
	c.AddSlice(udpHeaderAndData)
	sum := c.OnesComplement()
	if sum == 0 {
		return 0xFFFF, nil
	}
	return sum, nil
}

// Icmpv6Checksum computes an ICMPv6 checksum, which additionally
// includes the IPv6 pseudo-header (RFC 4443 §2.3) with next-header 58.
func Icmpv6Checksum(src, dst [16]byte, icmpv6HeaderAndData []byte) (uint16, error) {
	length := len(icmpv6HeaderAndData)
	if uint64(length) > maxU32-8 {
		return 0, &neterr.ValueTooBigError{
			Actual: uint64(length), MaxAllowed: maxU32 - 8, ValueType: neterr.Icmpv6PayloadLength,
		}
	}
	c := Ipv6Pseudo(src, dst, 58, uint32(length))
	c.AddSlice(icmpv6HeaderAndData)
	return c.OnesComplement(), nil
}

// Icmpv4Checksum computes a plain ICMPv4 checksum: no pseudo-header,
// just the one's-complement sum over the ICMP message itself.
func Icmpv4Checksum(icmpv4HeaderAndData []byte) uint16 {
	var c Checksum
	c.AddSlice(icmpv4HeaderAndData)
	return c.OnesComplement()
}
