package tcp

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

func TestOptionsIteratorEndAndNoop(t *testing.T) {
	it := NewOptionsIterator([]byte{OptionKindNoop, OptionKindNoop, OptionKindEnd})
	el, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint8(OptionKindNoop), el.Kind)

	el, ok, err = it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint8(OptionKindNoop), el.Kind)

	el, ok, err = it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint8(OptionKindEnd), el.Kind)

	_, ok, err = it.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOptionsIteratorUnknownKind(t *testing.T) {
	it := NewOptionsIterator([]byte{200, 4, 0, 0})
	_, _, err := it.Next()
	var optErr *neterr.TcpOptionError
	require.True(t, errors.As(err, &optErr))
	require.Equal(t, neterr.TcpOptionUnknownID, optErr.Kind)

	_, ok, err := it.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOptionsIteratorWrongSize(t *testing.T) {
	it := NewOptionsIterator([]byte{OptionKindWindowScale, 4, 0, 0})
	_, _, err := it.Next()
	var optErr *neterr.TcpOptionError
	require.True(t, errors.As(err, &optErr))
	require.Equal(t, neterr.TcpOptionUnexpectedSize, optErr.Kind)
}

func TestOptionsIteratorTruncated(t *testing.T) {
	it := NewOptionsIterator([]byte{OptionKindTimestamp, 10, 0, 0})
	_, _, err := it.Next()
	var optErr *neterr.TcpOptionError
	require.True(t, errors.As(err, &optErr))
	require.Equal(t, neterr.TcpOptionUnexpectedEndOfSlice, optErr.Kind)
}

func TestOptionsIteratorSackVariableLengths(t *testing.T) {
	for _, size := range []int{10, 18, 26, 34} {
		raw := append([]byte{OptionKindSack, byte(size)}, make([]byte, size-2)...)
		it := NewOptionsIterator(raw)
		el, ok, err := it.Next()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, uint8(OptionKindSack), el.Kind)
	}
}

func TestOptionsIteratorSackDecodesOneBlock(t *testing.T) {
	raw := []byte{OptionKindSack, 10, 0, 0, 0, 100, 0, 0, 0, 200}
	it := NewOptionsIterator(raw)
	el, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint8(1), el.SackBlockCount)
	require.Equal(t, SackBlock{Begin: 100, End: 200}, el.SackBlocks[0])
	require.Equal(t, SackBlock{}, el.SackBlocks[1])
}

func TestOptionsIteratorSackDecodesFourBlocks(t *testing.T) {
	raw := []byte{OptionKindSack, 34}
	want := [MaxSackBlocks]SackBlock{
		{Begin: 10, End: 20},
		{Begin: 30, End: 40},
		{Begin: 50, End: 60},
		{Begin: 70, End: 80},
	}
	for _, b := range want {
		block := make([]byte, 8)
		binary.BigEndian.PutUint32(block[0:4], b.Begin)
		binary.BigEndian.PutUint32(block[4:8], b.End)
		raw = append(raw, block...)
	}

	it := NewOptionsIterator(raw)
	el, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint8(MaxSackBlocks), el.SackBlockCount)
	require.Equal(t, want, el.SackBlocks)
}
