package sliced

import (
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/defrag"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/neterr"
)

// ProcessSlicedPacket feeds sp's IP layer into pool as one fragment of
// a reassembly stream. It returns (nil, nil) when sp is not a fragment
// at all (nothing to reassemble), (nil, nil) while the stream sp
// belongs to is still incomplete, the reconstructed Payload once sp
// supplies the last missing byte, or an error if sp cannot be
// reconciled with fragments already received.
//
// channelID lets one pool multiplex disjoint packet sources; pass the
// same zero value everywhere if the caller only ever sees one.
func ProcessSlicedPacket[TS any, ChanID comparable](
	pool *defrag.Pool[TS, ChanID],
	sp SlicedPacket,
	ts TS,
	channelID ChanID,
) (*defrag.Payload, error) {
	if sp.Net == nil {
		return nil, nil
	}

	id, offsetBytes, moreFragments, payload, lenSource, isFragment, err := fragInfo[ChanID](sp)
	if err != nil {
		return nil, err
	}
	if !isFragment {
		return nil, nil
	}
	id.ChannelID = channelID

	if sp.Vlan != nil {
		switch {
		case sp.Vlan.Double != nil:
			dh, err := sp.Vlan.Double.Header()
			if err != nil {
				return nil, err
			}
			id = id.WithDoubleVlan(dh.Outer.VlanIdentifier, dh.Inner.VlanIdentifier)
		case sp.Vlan.Single != nil:
			h, err := sp.Vlan.Single.Header()
			if err != nil {
				return nil, err
			}
			id = id.WithVlan(h.VlanIdentifier)
		}
	}

	return pool.ProcessFragment(id, ts, offsetBytes, moreFragments, payload, lenSource)
}

func fragInfo[ChanID comparable](sp SlicedPacket) (id defrag.IpFragId[ChanID], offsetBytes int, moreFragments bool, payload []byte, lenSource neterr.LenSource, isFragment bool, err error) {
	var zero ChanID
	switch {
	case sp.Net.Ipv4 != nil:
		h, herr := sp.Net.Ipv4.Header()
		if herr != nil {
			err = herr
			return
		}
		if !h.IsFragment() {
			return
		}
		isFragment = true
		id = defrag.NewIpv4FragId[ChanID](h.Source, h.Destination, h.Identification, h.Protocol, zero)
		offsetBytes = int(h.FragmentOffset) * 8
		moreFragments = h.Flags.MoreFragments
		payload = sp.Net.Ipv4.Payload
		lenSource = neterr.LenSourceIpv4HeaderTotalLen

	case sp.Net.Ipv6 != nil:
		frag := sp.Net.Ipv6.Extensions.Fragment
		if frag == nil || !frag.IsFragment() {
			return
		}
		h, herr := sp.Net.Ipv6.Header()
		if herr != nil {
			err = herr
			return
		}
		isFragment = true
		id = defrag.NewIpv6FragId[ChanID](h.Source, h.Destination, frag.Identification, sp.Net.Ipv6.Extensions.FinalNextHeader, zero)
		offsetBytes = int(frag.FragmentOffset) * 8
		moreFragments = frag.MoreFragments
		payload = sp.Net.Ipv6.Payload
		lenSource = neterr.LenSourceIpv6HeaderPayloadLen
	}
	return
}
