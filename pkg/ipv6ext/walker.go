package ipv6ext

import (
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// MaxRawExtensions bounds how many raw (hop-by-hop/routing/dest-opts)
// headers a single chain may contain. RFC 8200
// does not impose a hard cap; this is a defensive bound so a crafted
// packet with a next_header cycle cannot make the walker loop forever.
const MaxRawExtensions = 16

func rawLayerFor(p common.IpNumber) neterr.Layer {
	switch p {
	case common.IpNumberIPv6HopByHop:
		return neterr.LayerIpv6ExtHopByHop
	case common.IpNumberIPv6Route:
		return neterr.LayerIpv6ExtRouting
	case common.IpNumberIPv6DestOptions:
		return neterr.LayerIpv6ExtDestOptions
	default:
		return neterr.LayerIpv6ExtDestOptions
	}
}

// Extensions is the bundle of every extension header encountered while
// walking an IPv6 extension chain (C4), in on-wire order.
type Extensions struct {
	HopByHop        *RawHeader
	Destination     *RawHeader
	Routing         *RawHeader
	Fragment        *FragmentHeader
	Auth            *AuthHeader
	FinalDestination *RawHeader // destination options after a routing header

	// FinalNextHeader is the protocol number of whatever follows the
	// last extension header walked (a transport protocol, ESP, or an
	// unrecognized/no-next-header value the walker stopped at).
	FinalNextHeader common.IpNumber
}

// Walk follows buf's extension header chain starting at firstHeader
// (the NextHeader value of the fixed IPv6 header that precedes buf),
// strictly: a hop-by-hop header appearing anywhere but first is
// rejected. A raw header past the MaxRawExtensions cap ends the walk
// without an error, like a repeated slot does.
func Walk(buf []byte, firstHeader common.IpNumber, layerStart int) (Extensions, []byte, error) {
	return walk(buf, firstHeader, layerStart, true)
}

// WalkLax is the lax counterpart of Walk. It never reports a misplaced
// hop-by-hop header, a repeated extension header, or a malformed
// extension header as fatal; instead it stops the walk and returns
// everything found so far, plus the error that caused the stop (nil if
// the walk simply reached a transport protocol, an unrecognized
// next-header, or a repeated slot -- none of which are parse errors).
func WalkLax(buf []byte, firstHeader common.IpNumber, layerStart int) (Extensions, []byte, error) {
	return walk(buf, firstHeader, layerStart, false)
}

func walk(buf []byte, next common.IpNumber, layerStart int, strict bool) (Extensions, []byte, error) {
	var ext Extensions
	rest := buf
	offset := layerStart
	seenHopByHop := false
	rawCount := 0

	for {
		switch {
		case next == common.IpNumberIPv6HopByHop:
			if seenHopByHop || offset != layerStart {
				if strict {
					return ext, nil, &neterr.Ipv6HopByHopNotAtStartError{}
				}
				ext.FinalNextHeader = next
				return ext, rest, &neterr.Ipv6HopByHopNotAtStartError{}
			}
			rawCount++
			if rawCount > MaxRawExtensions {
				ext.FinalNextHeader = next
				return ext, rest, nil
			}
			h, tail, err := FromSlice(rest, rawLayerFor(next), offset)
			if err != nil {
				if strict {
					return ext, nil, err
				}
				ext.FinalNextHeader = next
				return ext, rest, err
			}
			ext.HopByHop = &h
			offset += h.Len()
			rest = tail
			next = h.NextHeader
			seenHopByHop = true

		case next == common.IpNumberIPv6Route:
			// A second routing header has nowhere to go: the slot is
			// already occupied, so the chain stops here and the
			// duplicate's bytes are left unconsumed in rest.
			if ext.Routing != nil {
				ext.FinalNextHeader = next
				return ext, rest, nil
			}
			rawCount++
			if rawCount > MaxRawExtensions {
				ext.FinalNextHeader = next
				return ext, rest, nil
			}
			h, tail, err := FromSlice(rest, rawLayerFor(next), offset)
			if err != nil {
				if strict {
					return ext, nil, err
				}
				ext.FinalNextHeader = next
				return ext, rest, err
			}
			ext.Routing = &h
			offset += h.Len()
			rest = tail
			next = h.NextHeader

		case next == common.IpNumberIPv6DestOptions:
			// Destination options may legally appear twice (once before
			// a routing header, once after); a third occurrence has no
			// slot left and stops the walk.
			if ext.Destination != nil && ext.FinalDestination != nil {
				ext.FinalNextHeader = next
				return ext, rest, nil
			}
			rawCount++
			if rawCount > MaxRawExtensions {
				ext.FinalNextHeader = next
				return ext, rest, nil
			}
			h, tail, err := FromSlice(rest, rawLayerFor(next), offset)
			if err != nil {
				if strict {
					return ext, nil, err
				}
				ext.FinalNextHeader = next
				return ext, rest, err
			}
			if ext.Destination == nil && ext.Routing == nil {
				ext.Destination = &h
			} else {
				ext.FinalDestination = &h
			}
			offset += h.Len()
			rest = tail
			next = h.NextHeader

		case next == common.IpNumberIPv6Frag:
			if ext.Fragment != nil {
				ext.FinalNextHeader = next
				return ext, rest, nil
			}
			h, tail, err := FromSliceFragment(rest, offset)
			if err != nil {
				if strict {
					return ext, nil, err
				}
				ext.FinalNextHeader = next
				return ext, rest, err
			}
			ext.Fragment = &h
			offset += FragmentHeaderLen
			rest = tail
			next = h.NextHeader
			if h.IsFragment() {
				// Payload past a fragmenting header (initial or not)
				// cannot be interpreted further until reassembly occurs.
				ext.FinalNextHeader = next
				return ext, rest, nil
			}

		case next == common.IpNumberAuth:
			if ext.Auth != nil {
				ext.FinalNextHeader = next
				return ext, rest, nil
			}
			h, tail, err := FromSliceAuthHeader(rest, offset)
			if err != nil {
				if strict {
					return ext, nil, err
				}
				ext.FinalNextHeader = next
				return ext, rest, err
			}
			ext.Auth = &h
			offset += h.Len()
			rest = tail
			next = h.NextHeader

		default:
			ext.FinalNextHeader = next
			return ext, rest, nil
		}
	}
}
