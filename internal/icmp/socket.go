// Package icmp opens unprivileged ICMP datagram sockets for latency probing.
package icmp

import (
	"log"

	"github.com/Ch00k/mullvad-speed/internal/logging"
	"golang.org/x/net/icmp"
)

// Network is the datagram-oriented ICMP network; it needs no raw socket
// privileges on Linux (subject to net.ipv4.ping_group_range) and macOS.
const Network = "udp4"

// listenAddr listens on all interfaces
const listenAddr = "0.0.0.0"

// Listen creates an unprivileged IPv4 ICMP datagram socket
func Listen() (*icmp.PacketConn, error) {
	return ListenWithLogLevel(logging.LogLevelError)
}

// ListenWithLogLevel creates an unprivileged IPv4 ICMP datagram socket with logging support
func ListenWithLogLevel(logLevel logging.LogLevel) (*icmp.PacketConn, error) {
	if logLevel <= logging.LogLevelDebug {
		log.Printf("Attempting to create ICMP datagram socket (%s on %s)", Network, listenAddr)
	}

	c, err := icmp.ListenPacket(Network, listenAddr)
	if err != nil {
		if logLevel <= logging.LogLevelError {
			log.Printf("Failed to create ICMP socket: %v (check net.ipv4.ping_group_range, or use --method tcp)", err)
		}
		return nil, err
	}

	if logLevel <= logging.LogLevelDebug {
		log.Printf("Successfully created ICMP datagram socket")
	}
	return c, nil
}
