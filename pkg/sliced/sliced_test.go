package sliced

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/etherslice/pkg/common"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/ethernet"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/ipv4"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/udp"
	"github.com/therealutkarshpriyadarshi/etherslice/pkg/vlan"
)

func buildEthernetIpv4Udp(t *testing.T, payload []byte) []byte {
	t.Helper()

	udpHeader := udp.Header{
		SourcePort:      1234,
		DestinationPort: 53,
		Length:          uint16(udp.HeaderLen + len(payload)),
	}
	udpBytes := udpHeader.ToBytes()

	ipHeader := ipv4.Header{
		IHL:            5,
		TotalLength:    uint16(ipv4.MinHeaderLen + len(udpBytes) + len(payload)),
		TimeToLive:     64,
		Protocol:       common.IpNumberUdp,
		Source:         common.IPv4Address{192, 168, 1, 1},
		Destination:    common.IPv4Address{192, 168, 1, 2},
	}
	ipBuf := make([]byte, ipv4.MinHeaderLen)
	require.NoError(t, ipHeader.Write(ipBuf))

	ethHeader := ethernet.Header{
		Destination: common.MACAddress{1, 2, 3, 4, 5, 6},
		Source:      common.MACAddress{6, 5, 4, 3, 2, 1},
		EtherType:   common.EtherTypeIPv4,
	}
	ethBytes := ethHeader.ToBytes()

	buf := append([]byte{}, ethBytes[:]...)
	buf = append(buf, ipBuf...)
	buf = append(buf, udpBytes[:]...)
	buf = append(buf, payload...)
	return buf
}

func TestFromEthernetIpv4Udp(t *testing.T) {
	payload := []byte("hello")
	buf := buildEthernetIpv4Udp(t, payload)

	sp, err := FromEthernet(buf)
	require.NoError(t, err)
	require.NotNil(t, sp.Link)
	require.NotNil(t, sp.Net)
	require.NotNil(t, sp.Net.Ipv4)
	require.NotNil(t, sp.Transport)
	require.NotNil(t, sp.Transport.Udp)
	require.Equal(t, payload, sp.Payload)

	linkHeader, err := sp.Link.Ethernet()
	require.NoError(t, err)
	require.Equal(t, common.EtherTypeIPv4, linkHeader.EtherType)

	ipHeader, err := sp.Net.Ipv4.Header()
	require.NoError(t, err)
	require.Equal(t, common.IpNumberUdp, ipHeader.Protocol)

	udpHeader, err := sp.Transport.Udp.Header()
	require.NoError(t, err)
	require.Equal(t, uint16(53), udpHeader.DestinationPort)
}

func TestFromEthernetTooShort(t *testing.T) {
	_, err := FromEthernet(make([]byte, 4))
	require.Error(t, err)
}

func TestFromEthernetVlanTaggedIpv4(t *testing.T) {
	payload := []byte("x")
	inner := buildEthernetIpv4Udp(t, payload)

	vlanHeader := vlan.Header{VlanIdentifier: 100, EtherType: common.EtherTypeIPv4}
	vlanBytes := vlanHeader.ToBytes()

	buf := append([]byte{}, inner[:12]...)
	buf = append(buf, byte(common.EtherTypeVlanTaggedFrame>>8), byte(common.EtherTypeVlanTaggedFrame))
	buf = append(buf, vlanBytes[:]...)
	buf = append(buf, inner[14:]...)

	sp, err := FromEthernet(buf)
	require.NoError(t, err)
	require.NotNil(t, sp.Vlan)
	require.NotNil(t, sp.Vlan.Single)
	require.NotNil(t, sp.Net)
	require.NotNil(t, sp.Net.Ipv4)

	vh, err := sp.Vlan.Single.Header()
	require.NoError(t, err)
	require.Equal(t, uint16(100), vh.VlanIdentifier)
}

func TestFromEtherTypeDispatchesIpv4Directly(t *testing.T) {
	full := buildEthernetIpv4Udp(t, []byte("z"))
	ipOnly := full[ethernet.HeaderLen:]

	sp, err := FromEtherType(common.EtherTypeIPv4, ipOnly)
	require.NoError(t, err)
	require.Nil(t, sp.Link)
	require.NotNil(t, sp.Net)
	require.NotNil(t, sp.Net.Ipv4)
}

func TestFromIPDispatchesOnVersionNibble(t *testing.T) {
	full := buildEthernetIpv4Udp(t, []byte("q"))
	ipOnly := full[ethernet.HeaderLen:]

	sp, err := FromIP(ipOnly)
	require.NoError(t, err)
	require.NotNil(t, sp.Net)
	require.NotNil(t, sp.Net.Ipv4)
}

func TestFromEthernetLaxStopsOnTruncatedIP(t *testing.T) {
	full := buildEthernetIpv4Udp(t, []byte("truncated-body"))
	truncated := full[:ethernet.HeaderLen+10]

	sp, err := FromEthernetLax(truncated)
	require.Error(t, err)
	require.NotNil(t, sp.Link)
	require.Nil(t, sp.Net)
}
