// Package bits provides the bounds-checked primitive reads shared by
// every header codec (C1 in the design): fixed-width big-endian
// integers, fixed-size address arrays, and masked bit-fields. Every
// read reports a *neterr.LenError carrying the length source, layer,
// and layer-start offset of the caller, rather than a bare "index out
// of range" panic.
package bits

import (
	"encoding/binary"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// Need reports a LenError if buf is shorter than n bytes.
func Need(buf []byte, n int, layer neterr.Layer, source neterr.LenSource, layerStart int) error {
	if len(buf) < n {
		return &neterr.LenError{
			RequiredLen:      n,
			Len:              len(buf),
			LenSource:        source,
			Layer:            layer,
			LayerStartOffset: layerStart,
		}
	}
	return nil
}

// U16 reads a big-endian uint16 at the start of buf.
func U16(buf []byte, layer neterr.Layer, source neterr.LenSource, layerStart int) (uint16, error) {
	if err := Need(buf, 2, layer, source, layerStart); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:2]), nil
}

// U32 reads a big-endian uint32 at the start of buf.
func U32(buf []byte, layer neterr.Layer, source neterr.LenSource, layerStart int) (uint32, error) {
	if err := Need(buf, 4, layer, source, layerStart); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:4]), nil
}

// U64 reads a big-endian uint64 at the start of buf.
func U64(buf []byte, layer neterr.Layer, source neterr.LenSource, layerStart int) (uint64, error) {
	if err := Need(buf, 8, layer, source, layerStart); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:8]), nil
}

// Addr4 reads a 4-byte address at the start of buf.
func Addr4(buf []byte, layer neterr.Layer, source neterr.LenSource, layerStart int) ([4]byte, error) {
	var out [4]byte
	if err := Need(buf, 4, layer, source, layerStart); err != nil {
		return out, err
	}
	copy(out[:], buf[:4])
	return out, nil
}

// Addr6 reads a 6-byte address at the start of buf.
func Addr6(buf []byte, layer neterr.Layer, source neterr.LenSource, layerStart int) ([6]byte, error) {
	var out [6]byte
	if err := Need(buf, 6, layer, source, layerStart); err != nil {
		return out, err
	}
	copy(out[:], buf[:6])
	return out, nil
}

// Addr16 reads a 16-byte address at the start of buf.
func Addr16(buf []byte, layer neterr.Layer, source neterr.LenSource, layerStart int) ([16]byte, error) {
	var out [16]byte
	if err := Need(buf, 16, layer, source, layerStart); err != nil {
		return out, err
	}
	copy(out[:], buf[:16])
	return out, nil
}

// Nibble extracts the given nibble (0 = high, 1 = low) of b.
func Nibble(b byte, which int) uint8 {
	if which == 0 {
		return b >> 4
	}
	return b & 0x0F
}

// Mask extracts a bit-field of width bits starting at bit position
// shift (counted from the LSB) of v.
func Mask(v uint32, shift, width uint) uint32 {
	return (v >> shift) & ((1 << width) - 1)
}
