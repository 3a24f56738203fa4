package ipv6ext

import (
	"encoding/binary"
	"fmt"

	"github.com/therealutkarshpriyadarshi/etherslice/internal/bits"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// AuthMinLen is the minimum length of an authentication header in
// bytes (RFC 4302): next_header + payload_len + reserved + spi + seq.
const AuthMinLen = 12

// AuthMaxICVLen is the maximum size of the integrity check value: the
// payload_len byte maxes out at 0xfe units of 4 bytes.
const AuthMaxICVLen = 0xfe * 4

// AuthMaxLen is the maximum total length of an authentication header.
const AuthMaxLen = 4 * (0xff + 2)

// AuthHeader is an IP Authentication Header (RFC 4302).
type AuthHeader struct {
	NextHeader     common.IpNumber
	SPI            uint32
	SequenceNumber uint32

	ICVLen int // number of valid bytes in ICV
	ICV    [AuthMaxICVLen]byte
}

// Len returns the total on-wire length of the header in bytes.
func (h AuthHeader) Len() int { return AuthMinLen + h.ICVLen }

// NewAuthHeader builds an AuthHeader, rejecting an ICV that does not
// fit AuthMaxICVLen or is not a multiple of 4 bytes (payload_len counts
// whole 4-byte units).
func NewAuthHeader(nextHeader common.IpNumber, spi, sequenceNumber uint32, icv []byte) (AuthHeader, error) {
	if len(icv) > AuthMaxICVLen {
		return AuthHeader{}, &neterr.FieldRangeError{Layer: neterr.LayerIpv6ExtAuth, Field: "ICVLen", Value: uint64(len(icv)), MaxAllowed: AuthMaxICVLen}
	}
	if len(icv)%4 != 0 {
		return AuthHeader{}, &neterr.FieldRangeError{Layer: neterr.LayerIpv6ExtAuth, Field: "ICVLen", Value: uint64(len(icv)), MaxAllowed: uint64(len(icv) - len(icv)%4)}
	}
	h := AuthHeader{NextHeader: nextHeader, SPI: spi, SequenceNumber: sequenceNumber, ICVLen: len(icv)}
	copy(h.ICV[:], icv)
	return h, nil
}

// FromSliceAuthHeader parses an authentication header from the start of buf.
func FromSliceAuthHeader(buf []byte, layerStart int) (AuthHeader, []byte, error) {
	var h AuthHeader
	if err := bits.Need(buf, AuthMinLen, neterr.LayerIpv6ExtAuth, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, err
	}
	h.NextHeader = common.IpNumber(buf[0])
	payloadLen := buf[1]
	if payloadLen < 1 {
		return h, nil, &neterr.Ipv6ExtZeroPayloadLenError{}
	}
	h.SPI = binary.BigEndian.Uint32(buf[4:8])
	h.SequenceNumber = binary.BigEndian.Uint32(buf[8:12])
	icvLen := (int(payloadLen) - 1) * 4
	total := AuthMinLen + icvLen
	if err := bits.Need(buf, total, neterr.LayerIpv6ExtAuth, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, err
	}
	h.ICVLen = icvLen
	copy(h.ICV[:icvLen], buf[AuthMinLen:total])
	return h, buf[total:], nil
}

// Write serializes h into the first h.Len() bytes of buf.
func (h AuthHeader) Write(buf []byte) error {
	total := h.Len()
	if len(buf) < total {
		return fmt.Errorf("ipv6ext: buffer too small: have %d, need %d", len(buf), total)
	}
	buf[0] = uint8(h.NextHeader)
	buf[1] = uint8(h.ICVLen/4 + 1)
	buf[2] = 0
	buf[3] = 0
	binary.BigEndian.PutUint32(buf[4:8], h.SPI)
	binary.BigEndian.PutUint32(buf[8:12], h.SequenceNumber)
	copy(buf[AuthMinLen:total], h.ICV[:h.ICVLen])
	return nil
}

func (h AuthHeader) String() string {
	return fmt.Sprintf("IpAuthHeader{NextHeader=%s, SPI=%#x, Seq=%d, ICVLen=%d}",
		h.NextHeader, h.SPI, h.SequenceNumber, h.ICVLen)
}
