package defrag

import (
	"bytes"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// MaxIpv4DatagramLen is the largest a reassembled IPv4 datagram payload
// can be: the 16-bit total-length field minus the smallest possible
// header.
const MaxIpv4DatagramLen = 65535 - 20

// MaxIpv6DatagramLen bounds a reassembled IPv6 fragmented payload. RFC
// 8200 jumbograms are out of scope (the fragment header's use is itself
// incompatible with jumbo payloads), so this is the same order of
// magnitude as the IPv4 bound, chosen defensively rather than pulled
// from a normative limit.
const MaxIpv6DatagramLen = 65535

// ipFragRange is a half-open byte range [Start, End) that has been
// filled in by a received fragment.
type ipFragRange struct {
	Start int
	End   int
}

// IpDefragBuf accumulates the fragments of a single datagram into a
// contiguous byte buffer, tracking which byte ranges have been filled
// in so far without assuming fragments arrive in order.
type IpDefragBuf struct {
	data       []byte
	sections   []ipFragRange
	knownEnd   int
	hasEnd     bool
	maxLen     int
}

func newIpDefragBuf(data []byte, sections []ipFragRange, maxLen int) *IpDefragBuf {
	return &IpDefragBuf{
		data:     data[:0],
		sections: sections[:0],
		maxLen:   maxLen,
	}
}

// Add merges a fragment's payload at byte offset offsetBytes into the
// buffer. moreFragments must reflect the fragment's more-fragments
// flag; the fragment with moreFragments == false fixes the datagram's
// total length.
func (b *IpDefragBuf) Add(offsetBytes int, moreFragments bool, payload []byte) error {
	end := offsetBytes + len(payload)
	if end > b.maxLen {
		return &neterr.IpDefragError{
			Kind: neterr.DefragTotalLenTooBig,
			Msg:  "reassembled datagram would exceed the protocol maximum length",
		}
	}
	if !moreFragments {
		if b.hasEnd && b.knownEnd != end {
			return &neterr.IpDefragError{
				Kind: neterr.DefragInconsistentEnd,
				Msg:  "a final fragment arrived whose end does not match a previously observed end",
			}
		}
		b.hasEnd = true
		b.knownEnd = end
	}

	if end > len(b.data) {
		if end <= cap(b.data) {
			b.data = b.data[:end]
		} else {
			grown := make([]byte, end)
			copy(grown, b.data)
			b.data = grown
		}
	}

	for _, r := range b.sections {
		if offsetBytes < r.End && r.Start < end {
			overlapStart := max(offsetBytes, r.Start)
			overlapEnd := min(end, r.End)
			existing := b.data[overlapStart:overlapEnd]
			incoming := payload[overlapStart-offsetBytes : overlapEnd-offsetBytes]
			if !bytes.Equal(existing, incoming) {
				return &neterr.IpDefragError{
					Kind: neterr.DefragOverlap,
					Msg:  "fragment overlaps a previously received range with different content",
				}
			}
		}
	}

	copy(b.data[offsetBytes:end], payload)
	b.mergeSection(ipFragRange{Start: offsetBytes, End: end})
	return nil
}

// mergeSection inserts r into the ordered, non-overlapping section
// list, coalescing it with any sections it touches or overlaps. It
// splices in place, reusing the section slice's backing array (handed
// back by the pool on acquire) instead of allocating a new one each
// call; growth only allocates when the array's capacity is exhausted.
func (b *IpDefragBuf) mergeSection(r ipFragRange) {
	sections := b.sections
	i := 0
	for i < len(sections) && sections[i].End < r.Start {
		i++
	}
	j := i
	for j < len(sections) && sections[j].Start <= r.End {
		if sections[j].Start < r.Start {
			r.Start = sections[j].Start
		}
		if sections[j].End > r.End {
			r.End = sections[j].End
		}
		j++
	}

	oldLen := len(sections)
	tailLen := oldLen - j
	newLen := i + 1 + tailLen

	if newLen > cap(sections) {
		grown := make([]ipFragRange, newLen)
		copy(grown, sections[:i])
		copy(grown[i+1:], sections[j:])
		grown[i] = r
		b.sections = grown
		return
	}

	sections = sections[:newLen]
	copy(sections[i+1:], sections[j:oldLen])
	sections[i] = r
	b.sections = sections
}

// IsComplete reports whether every byte of the datagram, from offset
// zero up to the confirmed end, has been received.
func (b *IpDefragBuf) IsComplete() bool {
	if !b.hasEnd {
		return false
	}
	return len(b.sections) == 1 && b.sections[0].Start == 0 && b.sections[0].End == b.knownEnd
}

// TakeData returns the reassembled datagram bytes. Only valid once
// IsComplete reports true.
func (b *IpDefragBuf) TakeData() []byte {
	return b.data[:b.knownEnd]
}
