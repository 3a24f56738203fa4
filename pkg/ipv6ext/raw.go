// Package ipv6ext implements the IPv6 extension headers RFC 8200
// defines (raw hop-by-hop/routing/destination-options/mobility/HIP/
// Shim6 headers, RFC 4302 authentication headers, and the fragment
// header) plus the chain walker (C4) that follows NextHeader through
// them until it reaches a transport protocol or an unsupported header.
package ipv6ext

import (
	"fmt"

	"github.com/therealutkarshpriyadarshi/etherslice/internal/bits"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// RawMinLen is the minimum length of a raw (hdr-ext-len encoded)
// extension header in bytes.
const RawMinLen = 8

// RawMaxLen is the maximum length of a raw extension header in bytes:
// 8 + 8*255, per RFC 8200's 8-bit hdr-ext-len field.
const RawMaxLen = 8 + 8*255

// RawMaxPayloadLen is the maximum payload capacity after the first two
// bytes (next_header, hdr_ext_len) are excluded.
const RawMaxPayloadLen = 0xff*8 + 6

// RawHeader is a generic IPv6 extension header whose length is
// self-described by an 8-octet-unit hdr-ext-len field: hop-by-hop,
// routing, destination options, mobility, HIP, and Shim6.
type RawHeader struct {
	NextHeader common.IpNumber
	Layer      neterr.Layer // which of the above this instance actually is

	PayloadLen int // number of valid bytes in Payload
	Payload    [RawMaxPayloadLen]byte
}

// Len returns the total on-wire length of the header in bytes.
func (h RawHeader) Len() int { return 2 + h.PayloadLen }

// NewHeader builds a RawHeader, rejecting a payload that does not fit
// RawMaxPayloadLen or is not a multiple of 8 bytes once the leading 6
// fixed bytes are accounted for (hdr-ext-len only counts whole 8-byte
// units past the first 8 bytes of the header).
func NewHeader(nextHeader common.IpNumber, layer neterr.Layer, payload []byte) (RawHeader, error) {
	if len(payload) < 6 {
		return RawHeader{}, &neterr.FieldRangeError{Layer: layer, Field: "PayloadLen", Value: uint64(len(payload)), MaxAllowed: 6}
	}
	if len(payload) > RawMaxPayloadLen {
		return RawHeader{}, &neterr.FieldRangeError{Layer: layer, Field: "PayloadLen", Value: uint64(len(payload)), MaxAllowed: RawMaxPayloadLen}
	}
	if (len(payload)-6)%8 != 0 {
		return RawHeader{}, &neterr.FieldRangeError{Layer: layer, Field: "PayloadLen", Value: uint64(len(payload)), MaxAllowed: uint64(len(payload) - (len(payload)-6)%8)}
	}
	h := RawHeader{NextHeader: nextHeader, Layer: layer, PayloadLen: len(payload)}
	copy(h.Payload[:], payload)
	return h, nil
}

// FromSlice parses a raw extension header of the given layer kind from
// the start of buf.
func FromSlice(buf []byte, layer neterr.Layer, layerStart int) (RawHeader, []byte, error) {
	var h RawHeader
	if err := bits.Need(buf, 2, layer, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, err
	}
	h.NextHeader = common.IpNumber(buf[0])
	h.Layer = layer
	hdrExtLen := buf[1]
	totalLen := 8 + int(hdrExtLen)*8
	if err := bits.Need(buf, totalLen, layer, neterr.LenSourceSlice, layerStart); err != nil {
		return h, nil, err
	}
	h.PayloadLen = totalLen - 2
	copy(h.Payload[:h.PayloadLen], buf[2:totalLen])
	return h, buf[totalLen:], nil
}

// Write serializes h into the first h.Len() bytes of buf.
func (h RawHeader) Write(buf []byte) error {
	total := h.Len()
	if len(buf) < total {
		return fmt.Errorf("ipv6ext: buffer too small: have %d, need %d", len(buf), total)
	}
	buf[0] = uint8(h.NextHeader)
	buf[1] = uint8((h.PayloadLen - 6) / 8)
	copy(buf[2:total], h.Payload[:h.PayloadLen])
	return nil
}

func (h RawHeader) String() string {
	return fmt.Sprintf("%s{NextHeader=%s, Len=%d}", h.Layer, h.NextHeader, h.Len())
}
