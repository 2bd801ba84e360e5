//go:build windows

package probe

import "errors"

// errICMPUnsupported is returned on platforms without unprivileged ICMP sockets
var errICMPUnsupported = errors.New("icmp probing is not supported on windows, use --method tcp")

func newICMPProber() (Prober, error) {
	return nil, errICMPUnsupported
}
