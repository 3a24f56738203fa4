package tcp

import (
	"encoding/binary"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// Option kind octets recognized by the iterator.
const (
	OptionKindEnd           = 0
	OptionKindNoop          = 1
	OptionKindMaxSegmentSize = 2
	OptionKindWindowScale   = 3
	OptionKindSackPermitted = 4
	OptionKindSack          = 5
	OptionKindTimestamp     = 8
)

// SackBlock is one selective-acknowledgment range: the sequence numbers
// of the first byte acknowledged and the first byte past the block.
type SackBlock struct {
	Begin uint32
	End   uint32
}

// MaxSackBlocks is the most (begin,end) blocks a single SACK option can
// carry: 40 bytes of option space less the 2-byte kind/length leaves
// room for 4 blocks of 8 bytes each.
const MaxSackBlocks = 4

// OptionElement is one decoded TCP option. Only one of the typed
// fields is meaningful, selected by Kind; Raw always holds the
// option's value bytes verbatim (empty for End/Noop).
type OptionElement struct {
	Kind uint8
	Raw  []byte

	MaxSegmentSize uint16 // valid if Kind == OptionKindMaxSegmentSize
	WindowScale    uint8  // valid if Kind == OptionKindWindowScale
	TimestampValue uint32 // valid if Kind == OptionKindTimestamp
	TimestampEcho  uint32 // valid if Kind == OptionKindTimestamp

	// SackBlocks holds the decoded blocks if Kind == OptionKindSack,
	// left-aligned; SackBlockCount says how many of the MaxSackBlocks
	// slots are populated, the rest are the zero value.
	SackBlocks     [MaxSackBlocks]SackBlock
	SackBlockCount uint8
}

// OptionsIterator walks a TCP option area one element at a time without
// allocating, mirroring the reference implementation's iterator over
// options() (C3 in the design).
type OptionsIterator struct {
	rest    []byte
	errored bool
}

// NewOptionsIterator returns an iterator over the given option bytes
// (h.Options[:h.OptionsLen]).
func NewOptionsIterator(options []byte) OptionsIterator {
	return OptionsIterator{rest: options}
}

// Next returns the next option, or ok == false once the option area is
// exhausted. Once Next returns a non-nil error the iterator is
// considered exhausted; a caller must not call Next again.
func (it *OptionsIterator) Next() (OptionElement, bool, error) {
	if it.errored || len(it.rest) == 0 {
		return OptionElement{}, false, nil
	}
	kind := it.rest[0]

	switch kind {
	case OptionKindEnd:
		it.rest = nil
		return OptionElement{Kind: kind}, true, nil
	case OptionKindNoop:
		it.rest = it.rest[1:]
		return OptionElement{Kind: kind}, true, nil
	}

	if len(it.rest) < 2 {
		it.errored = true
		return OptionElement{}, false, &neterr.TcpOptionError{
			Kind: neterr.TcpOptionUnexpectedEndOfSlice, OptionID: kind, ExpectedLen: 2, ActualLen: len(it.rest),
		}
	}
	size := int(it.rest[1])

	switch kind {
	case OptionKindMaxSegmentSize:
		if size != 4 {
			it.errored = true
			return OptionElement{}, false, &neterr.TcpOptionError{Kind: neterr.TcpOptionUnexpectedSize, OptionID: kind, Size: size}
		}
	case OptionKindWindowScale:
		if size != 3 {
			it.errored = true
			return OptionElement{}, false, &neterr.TcpOptionError{Kind: neterr.TcpOptionUnexpectedSize, OptionID: kind, Size: size}
		}
	case OptionKindSackPermitted:
		if size != 2 {
			it.errored = true
			return OptionElement{}, false, &neterr.TcpOptionError{Kind: neterr.TcpOptionUnexpectedSize, OptionID: kind, Size: size}
		}
	case OptionKindSack:
		if size != 10 && size != 18 && size != 26 && size != 34 {
			it.errored = true
			return OptionElement{}, false, &neterr.TcpOptionError{Kind: neterr.TcpOptionUnexpectedSize, OptionID: kind, Size: size}
		}
	case OptionKindTimestamp:
		if size != 10 {
			it.errored = true
			return OptionElement{}, false, &neterr.TcpOptionError{Kind: neterr.TcpOptionUnexpectedSize, OptionID: kind, Size: size}
		}
	default:
		it.errored = true
		return OptionElement{}, false, &neterr.TcpOptionError{Kind: neterr.TcpOptionUnknownID, OptionID: kind}
	}

	if len(it.rest) < size {
		it.errored = true
		return OptionElement{}, false, &neterr.TcpOptionError{
			Kind: neterr.TcpOptionUnexpectedEndOfSlice, OptionID: kind, ExpectedLen: size, ActualLen: len(it.rest),
		}
	}

	el := OptionElement{Kind: kind, Raw: it.rest[2:size]}
	switch kind {
	case OptionKindMaxSegmentSize:
		el.MaxSegmentSize = binary.BigEndian.Uint16(el.Raw[0:2])
	case OptionKindWindowScale:
		el.WindowScale = el.Raw[0]
	case OptionKindTimestamp:
		el.TimestampValue = binary.BigEndian.Uint32(el.Raw[0:4])
		el.TimestampEcho = binary.BigEndian.Uint32(el.Raw[4:8])
	case OptionKindSack:
		n := len(el.Raw) / 8
		for i := 0; i < n; i++ {
			el.SackBlocks[i] = SackBlock{
				Begin: binary.BigEndian.Uint32(el.Raw[i*8 : i*8+4]),
				End:   binary.BigEndian.Uint32(el.Raw[i*8+4 : i*8+8]),
			}
		}
		el.SackBlockCount = uint8(n)
	}
	it.rest = it.rest[size:]
	return el, true, nil
}
