// Package template builds the fixed Ethernet/IPv4/UDP packet the
// generator stamps into every buffer it transmits, computing the IPv4
// header checksum once at startup rather than per packet.
package template

import "encoding/binary"

const (
	// PacketSize is the full on-wire frame size, including the padding
	// needed to reach the Ethernet minimum frame length.
	PacketSize = 60

	ethernetHeaderSize = 14
	ipv4HeaderSize     = 20
	udpHeaderSize      = 8

	ipv4ChecksumOffset = ethernetHeaderSize + 10

	// SequenceOffset is where the generator stamps its monotonically
	// increasing sequence number, in the last 4 bytes of the frame.
	SequenceOffset = PacketSize - 4
)

var (
	dstMAC = [6]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	srcMAC = [6]byte{0x11, 0x12, 0x13, 0x14, 0x15, 0x16}
	srcIP  = [4]byte{10, 0, 0, 1}
	dstIP  = [4]byte{10, 0, 0, 2}

	srcPort = uint16(42)
	dstPort = uint16(1337)

	payload = []byte("ixy")
)

// Build returns a fresh PacketSize-byte frame: Ethernet header, IPv4
// header (checksum computed and filled in), UDP header, and payload
// zero-padded to the minimum frame length.
func Build() []byte {
	pkt := make([]byte, PacketSize)

	copy(pkt[0:6], dstMAC[:])
	copy(pkt[6:12], srcMAC[:])
	binary.BigEndian.PutUint16(pkt[12:14], 0x0800) // EtherType: IPv4

	ip := pkt[ethernetHeaderSize : ethernetHeaderSize+ipv4HeaderSize]
	ip[0] = 0x45 // version 4, IHL 5
	ip[1] = 0x00 // DSCP/ECN
	binary.BigEndian.PutUint16(ip[2:4], uint16(ipv4HeaderSize+udpHeaderSize+len(payload)))
	binary.BigEndian.PutUint16(ip[4:6], 0) // identification
	binary.BigEndian.PutUint16(ip[6:8], 0) // flags/fragment offset
	ip[8] = 64                             // TTL
	ip[9] = 17                             // protocol: UDP
	binary.BigEndian.PutUint16(ip[10:12], 0)
	copy(ip[12:16], srcIP[:])
	copy(ip[16:20], dstIP[:])

	udp := pkt[ethernetHeaderSize+ipv4HeaderSize : ethernetHeaderSize+ipv4HeaderSize+udpHeaderSize]
	binary.BigEndian.PutUint16(udp[0:2], srcPort)
	binary.BigEndian.PutUint16(udp[2:4], dstPort)
	binary.BigEndian.PutUint16(udp[4:6], uint16(udpHeaderSize+len(payload)))
	binary.BigEndian.PutUint16(udp[6:8], 0) // UDP checksum left unset

	copy(pkt[ethernetHeaderSize+ipv4HeaderSize+udpHeaderSize:], payload)

	checksum := IPv4Checksum(ip)
	binary.BigEndian.PutUint16(pkt[ipv4ChecksumOffset:ipv4ChecksumOffset+2], checksum)

	return pkt
}

// IPv4Checksum computes the standard ones-complement checksum of an
// IPv4 header. The header's own checksum field is assumed to be zero (or
// is ignored here) so the result is the value that field should hold.
func IPv4Checksum(header []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(header); i += 2 {
		if i == 10 {
			continue // skip the checksum field itself
		}
		sum += uint32(binary.BigEndian.Uint16(header[i : i+2]))
	}
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return ^uint16(sum)
}

// StampSequence writes seq into the last 4 bytes of a packet built by
// Build, overwriting the tail end of the zero-padding.
func StampSequence(pkt []byte, seq uint32) {
	binary.BigEndian.PutUint32(pkt[SequenceOffset:], seq)
}
