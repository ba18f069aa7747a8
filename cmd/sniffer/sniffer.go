package main

import (
	"bufio"
	"encoding/binary"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/gopacket"

	"github.com/kaltos/aochat/internal/protocol"
)

// Best effort guess as to which ports carry chat traffic, based on the
// well-known dimension servers.
var chatPorts = map[uint16]bool{
	7101: true,
	7102: true,
	7105: true,
	7106: true,
}

const frameHeaderSize = 4

// stream accumulates one direction of a TCP conversation. Frames can be
// split or coalesced across segments, so bytes are buffered until a complete
// type+length+body frame is available.
type stream struct {
	direction protocol.Direction
	buffer    []byte
}

type sniffer struct {
	Writer *bufio.Writer

	streams map[string]*stream
}

func (s *sniffer) startReading(packetChan chan gopacket.Packet) {
	s.streams = make(map[string]*stream)

	for packet := range packetChan {
		transport := packet.TransportLayer()
		app := packet.ApplicationLayer()
		if transport == nil || app == nil {
			continue
		}
		flow := transport.TransportFlow()
		dstPort := binary.BigEndian.Uint16(flow.Dst().Raw())

		// Segments headed to a chat port are client traffic; everything
		// else on the filter is the server talking back.
		direction := protocol.In
		if chatPorts[dstPort] {
			direction = protocol.Out
		}

		st, ok := s.streams[flow.String()]
		if !ok {
			st = &stream{direction: direction}
			s.streams[flow.String()] = st
		}
		st.buffer = append(st.buffer, app.Payload()...)
		s.drainStream(st)
	}
}

// drainStream emits every complete frame buffered for one stream direction.
func (s *sniffer) drainStream(st *stream) {
	for len(st.buffer) >= frameHeaderSize {
		packetType := protocol.PacketType(binary.BigEndian.Uint16(st.buffer[0:2]))
		bodyLen := int(binary.BigEndian.Uint16(st.buffer[2:4]))
		if len(st.buffer) < frameHeaderSize+bodyLen {
			return
		}

		s.printFrame(st.direction, packetType, st.buffer[frameHeaderSize:frameHeaderSize+bodyLen])
		st.buffer = st.buffer[frameHeaderSize+bodyLen:]
	}
}

func (s *sniffer) printFrame(direction protocol.Direction, packetType protocol.PacketType, body []byte) {
	arrow := "S->C"
	if direction == protocol.Out {
		arrow = "C->S"
	}
	name := getPacketName(direction, packetType)

	pkt, err := protocol.Decode(direction, packetType, body)
	if err != nil {
		fmt.Fprintf(s.Writer, "%s %s (%d) undecodable (%v):\n%s",
			arrow, name, packetType, err, spew.Sdump(body))
	} else {
		fmt.Fprintf(s.Writer, "%s %s (%d) %v\n", arrow, name, packetType, pkt.Args)
	}
	_ = s.Writer.Flush()
}
