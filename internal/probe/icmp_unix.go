//go:build !windows

package probe

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ch00k/mullvad-speed/internal/icmp"
	xicmp "golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const protocolICMP = 1

var echoPayload = []byte("mullvad-speed")

// icmpProber shares one unprivileged ICMP socket between all workers.
// Replies are routed back to the waiting probe by sequence number.
type icmpProber struct {
	conn       *xicmp.PacketConn
	seqCounter atomic.Uint32
	inFlight   sync.Map // map[int]chan net.IP
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func newICMPProber() (Prober, error) {
	conn, err := icmp.Listen()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &icmpProber{
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
	}

	p.wg.Add(1)
	go p.reader()

	return p, nil
}

// allocateSeq allocates a sequence number; ICMP sequence numbers are 16 bits wide
func (p *icmpProber) allocateSeq() int {
	return int(p.seqCounter.Add(1) & 0xffff)
}

// reader reads echo replies and hands the peer address to the waiting probe
func (p *icmpProber) reader() {
	defer p.wg.Done()

	buffer := make([]byte, 1500)
	for {
		if p.ctx.Err() != nil {
			return
		}

		// Periodic deadline so cancellation is noticed
		_ = p.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))

		n, peer, err := p.conn.ReadFrom(buffer)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			continue
		}

		msg, err := xicmp.ParseMessage(protocolICMP, buffer[:n])
		if err != nil || msg.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		echo, ok := msg.Body.(*xicmp.Echo)
		if !ok {
			continue
		}

		var peerIP net.IP
		switch addr := peer.(type) {
		case *net.UDPAddr:
			peerIP = addr.IP
		case *net.IPAddr:
			peerIP = addr.IP
		default:
			continue
		}

		if ch, ok := p.inFlight.LoadAndDelete(echo.Seq); ok {
			select {
			case ch.(chan net.IP) <- peerIP:
			default:
			}
		}
	}
}

// Probe sends one echo request and waits for the matching reply
func (p *icmpProber) Probe(ctx context.Context, ipAddr string, timeout time.Duration) *time.Duration {
	ip := net.ParseIP(ipAddr)
	if ip == nil || ip.To4() == nil {
		return nil
	}

	seq := p.allocateSeq()
	replies := make(chan net.IP, 1)
	p.inFlight.Store(seq, replies)
	defer p.inFlight.Delete(seq)

	msg := xicmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &xicmp.Echo{
			ID:   1,
			Seq:  seq,
			Data: echoPayload,
		},
	}
	msgBytes, err := msg.Marshal(nil)
	if err != nil {
		return nil
	}

	// Datagram ICMP sockets take UDP addresses
	dst := &net.UDPAddr{IP: ip}

	start := time.Now()
	if _, err := p.conn.WriteTo(msgBytes, dst); err != nil {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case peerIP := <-replies:
		if !peerIP.Equal(ip) {
			return nil
		}
		elapsed := time.Since(start)
		return &elapsed
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return nil
	}
}

// Close stops the reader and releases the socket
func (p *icmpProber) Close() error {
	p.cancel()
	// Closing the connection unblocks a pending ReadFrom
	err := p.conn.Close()
	p.wg.Wait()
	return err
}

var _ Prober = (*icmpProber)(nil)
