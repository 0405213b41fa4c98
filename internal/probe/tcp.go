// Package probe checks whether a launched module is accepting connections.
package probe

import (
	"context"
	"fmt"
	"net"
	"time"
)

const defaultInterval = 100 * time.Millisecond

// Prober performs a single readiness check.
type Prober interface {
	Probe(ctx context.Context) error
}

type tcpProber struct {
	address string
	dialer  func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewTCP returns a prober that succeeds once address accepts a connection.
func NewTCP(address string) Prober {
	return &tcpProber{
		address: address,
		dialer:  (&net.Dialer{}).DialContext,
	}
}

func (p *tcpProber) Probe(ctx context.Context) error {
	conn, err := p.dialer(ctx, "tcp", p.address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.address, err)
	}
	return conn.Close()
}

// WaitReady probes every interval until a probe succeeds, done is closed or
// ctx ends. The last probe error is returned on failure.
func WaitReady(ctx context.Context, p Prober, interval time.Duration, done <-chan struct{}) error {
	if interval <= 0 {
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last error
	for {
		probeCtx, cancel := context.WithTimeout(ctx, interval)
		last = p.Probe(probeCtx)
		cancel()
		if last == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ctx.Err(), last)
		case <-done:
			return fmt.Errorf("process exited before ready: %v", last)
		case <-ticker.C:
		}
	}
}
