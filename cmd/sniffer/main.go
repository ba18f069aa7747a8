// The sniffer command captures chat server traffic off the wire and prints
// each frame decoded against the packet format tables. The protocol is not
// encrypted, so a passive observer can reconstruct full conversations given
// the stream in both directions.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

var (
	device = flag.String("d", "en0", "Device on which to listen for packets")
	filter = flag.String("f", "tcp and (port 7101 or port 7102 or port 7105 or port 7106)",
		"BPF filter selecting the chat server traffic")
)

func main() {
	flag.Parse()

	deviceIP := getDeviceIP()
	if deviceIP == "" {
		exit("invalid device: %s", *device)
	}

	handle, err := pcap.OpenLive(*device, math.MaxInt32, false, pcap.BlockForever)
	if err != nil {
		exit("error opening handle: %v", err)
	}
	if err := handle.SetBPFFilter(*filter); err != nil {
		exit("error setting filter: %v", err)
	}

	s := &sniffer{Writer: bufio.NewWriter(os.Stdout)}
	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	s.startReading(packetSource.Packets())
}

func exit(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}

func getDeviceIP() string {
	devs, _ := pcap.FindAllDevs()
	for _, dev := range devs {
		if dev.Name == *device {
			for _, address := range dev.Addresses {
				return address.IP.String()
			}
		}
	}
	return ""
}
