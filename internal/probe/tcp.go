package probe

import (
	"context"
	"net"
	"strconv"
	"time"
)

// tcpProber times a full TCP handshake with the relay
type tcpProber struct {
	port int
}

func newTCPProber(port int) *tcpProber {
	return &tcpProber{port: port}
}

// Probe dials ipAddr:port and returns the time until the connection is established
func (p *tcpProber) Probe(ctx context.Context, ipAddr string, timeout time.Duration) *time.Duration {
	// Only literal addresses are probed, never hostnames
	if net.ParseIP(ipAddr) == nil {
		return nil
	}

	dialer := net.Dialer{Timeout: timeout}
	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(ipAddr, strconv.Itoa(p.port)))
	if err != nil {
		return nil
	}
	elapsed := time.Since(start)
	_ = conn.Close()

	return &elapsed
}

// Close is a no-op; every probe owns its connection
func (p *tcpProber) Close() error {
	return nil
}

var _ Prober = (*tcpProber)(nil)
