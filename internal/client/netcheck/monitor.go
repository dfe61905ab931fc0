// Package netcheck provides a cached network reachability signal.
//
// The cached value is a plain snapshot, refreshed on a fixed interval, and
// is never treated as authoritative between refreshes: a push may still be
// attempted and fail even while the cache says online.
package netcheck

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/nexuzy/artsync/internal/logging"
)

// ProbeFunc performs one reachability check. A nil error means reachable.
type ProbeFunc func(ctx context.Context) error

// DialProbe returns a ProbeFunc that opens (and immediately closes) a TCP
// connection to addr. The classic target is a public DNS endpoint.
func DialProbe(addr string, timeout time.Duration) ProbeFunc {
	return func(ctx context.Context) error {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}
}

// Monitor refreshes a cached online flag on a fixed interval.
type Monitor struct {
	probe    ProbeFunc
	interval time.Duration
	timeout  time.Duration
	online   atomic.Bool
	logger   logging.Logger
}

func New(probe ProbeFunc, interval time.Duration, timeout time.Duration, logger logging.Logger) *Monitor {
	return &Monitor{
		probe:    probe,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("component", "netcheck"),
	}
}

// Online returns the cached reachability flag. Non-blocking, safe from any
// goroutine.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Check runs the probe once and updates the cache. A failed probe resolves
// to false; it never returns an error.
func (m *Monitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.probe(ctx)
	online := err == nil

	if prev := m.online.Swap(online); prev != online {
		if online {
			m.logger.Info(ctx, "connectivity restored")
		} else {
			m.logger.Warn(ctx, "connectivity lost", "cause", err)
		}
	}
	return online
}

// Run refreshes the cache until ctx is cancelled. An immediate check is
// performed before the first tick.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
