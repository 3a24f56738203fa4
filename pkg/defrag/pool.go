package defrag

import (
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// Payload is a reassembled datagram handed back to the caller once a
// fragment stream completes. Its Data slice was popped from the pool's
// free list (or allocated fresh); pass it to ReturnBuf once the caller
// is done with it so the pool can recycle the backing array.
type Payload struct {
	IpNumber  common.IpNumber
	LenSource neterr.LenSource
	Data      []byte

	sections []ipFragRange
}

type activeEntry[TS any] struct {
	buf *IpDefragBuf
	ts  TS
}

// Pool reconstructs fragmented IPv4 and IPv6 datagrams across
// concurrently in-flight streams, keyed by IpFragId. TS is the
// caller's timestamp type, threaded through unopinionated so Retain
// can evict stale streams on whatever notion of time the caller uses
// (wall clock, a monotonic counter, a logical epoch). ChanID lets one
// pool multiplex disjoint packet sources (capture interfaces, tunnel
// indices) without their fragment ids colliding.
//
// Pool embeds no mutex: concurrent callers must serialize access
// themselves, by a single lock, by sharding pools per worker, or by
// any other external scheme.
type Pool[TS any, ChanID comparable] struct {
	active map[IpFragId[ChanID]]*activeEntry[TS]

	freeData     [][]byte
	freeSections [][]ipFragRange
}

// NewPool creates an empty reassembly pool.
func NewPool[TS any, ChanID comparable]() *Pool[TS, ChanID] {
	return &Pool[TS, ChanID]{
		active: make(map[IpFragId[ChanID]]*activeEntry[TS]),
	}
}

func (p *Pool[TS, ChanID]) acquireBuf(observedFragLen int, maxLen int) *IpDefragBuf {
	var data []byte
	if n := len(p.freeData); n > 0 {
		data = p.freeData[n-1]
		p.freeData = p.freeData[:n-1]
	} else {
		data = make([]byte, 0, observedFragLen*2)
	}

	var sections []ipFragRange
	if n := len(p.freeSections); n > 0 {
		sections = p.freeSections[n-1]
		p.freeSections = p.freeSections[:n-1]
	} else {
		sections = make([]ipFragRange, 0, 4)
	}

	return newIpDefragBuf(data, sections, maxLen)
}

func (p *Pool[TS, ChanID]) releaseBuf(buf *IpDefragBuf) {
	p.freeData = append(p.freeData, buf.data[:0])
	p.freeSections = append(p.freeSections, buf.sections[:0])
}

func maxLenFor[ChanID comparable](id IpFragId[ChanID]) int {
	if id.IsIpv6 {
		return MaxIpv6DatagramLen
	}
	return MaxIpv4DatagramLen
}

// ProcessFragment merges one fragment into the stream identified by
// id. offsetBytes and moreFragments come directly from the fragment
// header (IPv4 fragment_offset*8, or the IPv6 fragment extension
// header's offset and more-fragments bit); payload is the fragment's
// data past its IP header. lenSource records which enclosing length
// field bounded payload, for the Payload this call may return.
//
// It returns (nil, nil) while the stream is still incomplete, the
// reconstructed Payload once the last missing byte arrives, or a
// *neterr.IpDefragError if the fragment cannot be reconciled with
// what has already been received.
func (p *Pool[TS, ChanID]) ProcessFragment(
	id IpFragId[ChanID],
	ts TS,
	offsetBytes int,
	moreFragments bool,
	payload []byte,
	lenSource neterr.LenSource,
) (*Payload, error) {
	entry, exists := p.active[id]
	isNew := !exists
	if isNew {
		buf := p.acquireBuf(len(payload), maxLenFor(id))
		entry = &activeEntry[TS]{buf: buf}
	}
	entry.ts = ts

	if err := entry.buf.Add(offsetBytes, moreFragments, payload); err != nil {
		if isNew {
			p.releaseBuf(entry.buf)
		}
		return nil, err
	}

	if isNew {
		p.active[id] = entry
	}

	if !entry.buf.IsComplete() {
		return nil, nil
	}

	delete(p.active, id)
	out := &Payload{
		IpNumber:  id.PayloadIpNumber,
		LenSource: lenSource,
		Data:      entry.buf.TakeData(),
		sections:  entry.buf.sections,
	}
	return out, nil
}

// ReturnBuf returns a completed Payload's backing buffer to the pool's
// free lists so a future reassembly can reuse it instead of
// allocating. Safe to call with nil.
func (p *Pool[TS, ChanID]) ReturnBuf(payload *Payload) {
	if payload == nil {
		return
	}
	p.freeData = append(p.freeData, payload.Data[:0])
	if payload.sections != nil {
		p.freeSections = append(p.freeSections, payload.sections[:0])
	}
}

// Retain evicts every in-progress stream whose timestamp fails keep,
// recycling its buffers. The pool never consults a clock on its own;
// callers decide what "stale" means by whatever keep implements.
func (p *Pool[TS, ChanID]) Retain(keep func(ts TS) bool) {
	for id, entry := range p.active {
		if keep(entry.ts) {
			continue
		}
		p.releaseBuf(entry.buf)
		delete(p.active, id)
	}
}

// Active returns the number of reassembly streams currently in
// progress. Intended for tests and metrics, not for hot-path use.
func (p *Pool[TS, ChanID]) Active() int {
	return len(p.active)
}

// FreeBufs returns how many data buffers and section buffers are
// currently sitting in the free lists, available for reuse without
// allocation.
func (p *Pool[TS, ChanID]) FreeBufs() (dataBufs int, sectionBufs int) {
	return len(p.freeData), len(p.freeSections)
}
