package netcheck

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuzy/artsync/internal/logging"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCheckUpdatesCache(t *testing.T) {
	var fail bool
	probe := func(context.Context) error {
		if fail {
			return errors.New("unreachable")
		}
		return nil
	}

	m := New(probe, time.Minute, time.Second, discardLogger())
	assert.False(t, m.Online())

	assert.True(t, m.Check(context.Background()))
	assert.True(t, m.Online())

	fail = true
	assert.False(t, m.Check(context.Background()))
	assert.False(t, m.Online())

	fail = false
	assert.True(t, m.Check(context.Background()))
	assert.True(t, m.Online())
}

func TestDialProbe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	probe := DialProbe(ln.Addr().String(), time.Second)
	assert.NoError(t, probe(context.Background()))

	addr := ln.Addr().String()
	ln.Close()
	probe = DialProbe(addr, 200*time.Millisecond)
	assert.Error(t, probe(context.Background()))
}

func TestRunRefreshesPeriodically(t *testing.T) {
	probe := func(context.Context) error { return nil }
	m := New(probe, 10*time.Millisecond, time.Second, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, m.Online, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
