package probe_test

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bavix/macscope/internal/probe"
)

func TestObserve_OpenPortDetected(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			_ = conn.Close()
		}
	}()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	p := probe.New([]int{port}, time.Second, "")

	obs := p.Observe(context.Background(), "1866DA2A811E", "127.0.0.1", "Hikvision")
	assert.True(t, obs.Responsive)
	assert.Equal(t, []int{port}, obs.OpenPorts)
	assert.Equal(t, "Hikvision", obs.Vendor)
	assert.Equal(t, "1866DA2A811E", obs.MAC)
	assert.Empty(t, obs.Hostname)
}

func TestObserve_ClosedPortsMeanNotResponsive(t *testing.T) {
	t.Parallel()

	// Grab a free port and release it so nothing listens there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	p := probe.New([]int{port}, 200*time.Millisecond, "")

	obs := p.Observe(context.Background(), "1866DA2A811E", "127.0.0.1", "Hikvision")
	assert.False(t, obs.Responsive)
	assert.Empty(t, obs.OpenPorts)
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	p := probe.New(nil, 0, "")
	require.NotNil(t, p)
}
