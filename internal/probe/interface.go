package probe

import (
	"context"
	"fmt"
	"time"
)

// Method selects how reachability is measured
type Method int

// Probe method constants
const (
	MethodTCP  Method = iota // TCP connect to the relay
	MethodICMP               // ICMP echo over an unprivileged datagram socket
)

func (m Method) String() string {
	switch m {
	case MethodTCP:
		return "tcp"
	case MethodICMP:
		return "icmp"
	default:
		return "tcp"
	}
}

// ParseMethod parses a probe method string
func ParseMethod(s string) (Method, error) {
	switch s {
	case "tcp":
		return MethodTCP, nil
	case "icmp":
		return MethodICMP, nil
	default:
		return MethodTCP, fmt.Errorf("invalid probe method: %s (must be 'tcp' or 'icmp')", s)
	}
}

// Prober measures the round trip to a single address
type Prober interface {
	// Probe returns the measured latency, or nil if the attempt times out,
	// fails, or the context is cancelled
	Probe(ctx context.Context, ipAddr string, timeout time.Duration) *time.Duration

	// Close cleans up resources
	Close() error
}

// ProberFactory creates Prober instances
type ProberFactory interface {
	// CreateProber creates a new Prober for the given method. port is only
	// meaningful for MethodTCP.
	CreateProber(method Method, port int) (Prober, error)
}

// defaultProberFactory is the production implementation
type defaultProberFactory struct{}

// NewDefaultProberFactory creates a new default prober factory
func NewDefaultProberFactory() ProberFactory {
	return &defaultProberFactory{}
}

// CreateProber creates a TCP prober or a platform ICMP socket manager
func (f *defaultProberFactory) CreateProber(method Method, port int) (Prober, error) {
	switch method {
	case MethodTCP:
		return newTCPProber(port), nil
	case MethodICMP:
		return newICMPProber()
	default:
		return nil, fmt.Errorf("unsupported probe method: %d", int(method))
	}
}
