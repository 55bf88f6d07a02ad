// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"code.hybscloud.com/qsock"
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestKey(t *testing.T) {
	tests := []struct {
		addr string
		port int
		want string
	}{
		{"localhost", 80, "LOCALHOST:80"},
		{"0.0.0.0", 80, "LOCALHOST:80"},
		{"127.0.0.1", 80, "LOCALHOST:80"},
		{"LocalHost", 80, "LOCALHOST:80"},
		{"Example.com", 1, "EXAMPLE.COM:1"},
		{"::1", 80, "::1:80"},
		{"127.0.0.2", 80, "127.0.0.2:80"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, qsock.Key(tt.addr, tt.port), "Key(%q, %d)", tt.addr, tt.port)
	}
}

func TestRegistryLoopback(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	client, server, ok := reg.Loopback(ctx, "localhost", 8080, time.Second)
	require.True(t, ok)
	require.Equal(t, "localhost", client.Addr())
	require.Equal(t, 8080, server.Port())
	require.NotEqual(t, client.ID(), server.ID())
	require.Same(t, client.Outbound(), server.Inbound())
	require.Same(t, server.Outbound(), client.Inbound())

	require.NoError(t, client.SendString("ping"))
	msg, ok := server.NextReceivedString(ctx, time.Second)
	require.True(t, ok)
	require.Equal(t, "ping", msg)

	require.NoError(t, server.SendString("pong"))
	msg, ok = client.NextReceivedString(ctx, time.Second)
	require.True(t, ok)
	require.Equal(t, "pong", msg)
}

func TestRegistryAliasedAddresses(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	var g errgroup.Group
	var client, server *qsock.Endpoint
	g.Go(func() error {
		client, _ = reg.Connect(ctx, "127.0.0.1", 5000, time.Second)
		return nil
	})
	g.Go(func() error {
		server, _ = reg.Accept(ctx, "0.0.0.0", 5000, time.Second)
		return nil
	})
	require.NoError(t, g.Wait())
	require.NotNil(t, client)
	require.NotNil(t, server)
}

func TestRegistryPointOutlivesPair(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)
	for range 3 {
		_, _, ok := reg.Loopback(ctx, "localhost", 6000, time.Second)
		require.True(t, ok)
	}
}

func TestRegistryDistinctKeys(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	var g errgroup.Group
	var okClient, okServer bool
	g.Go(func() error {
		_, okClient = reg.Connect(ctx, "localhost", 1, 50*time.Millisecond)
		return nil
	})
	g.Go(func() error {
		_, okServer = reg.Accept(ctx, "localhost", 2, 50*time.Millisecond)
		return nil
	})
	require.NoError(t, g.Wait())
	require.False(t, okClient)
	require.False(t, okServer)
}

func TestRegistriesIsolated(t *testing.T) {
	ctx := context.Background()
	regA, regB := newTestRegistry(t), newTestRegistry(t)

	var g errgroup.Group
	var okClient, okServer bool
	g.Go(func() error {
		_, okClient = regA.Connect(ctx, "localhost", 8080, 50*time.Millisecond)
		return nil
	})
	g.Go(func() error {
		_, okServer = regB.Accept(ctx, "localhost", 8080, 50*time.Millisecond)
		return nil
	})
	require.NoError(t, g.Wait())
	require.False(t, okClient)
	require.False(t, okServer)
}

func TestRegistryTimeoutNotEarly(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)
	const timeout = 50 * time.Millisecond

	start := time.Now()
	_, ok := reg.Connect(ctx, "localhost", 7001, timeout)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), timeout)

	start = time.Now()
	_, ok = reg.Accept(ctx, "localhost", 7002, timeout)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), timeout)
}

func TestRegistryClientWaitsOnClock(t *testing.T) {
	mock := clock.NewMock()
	reg := newTestRegistry(t, qsock.WithClock(mock))
	start := mock.Now()

	type result struct {
		ok      bool
		elapsed time.Duration
	}
	res := make(chan result, 1)
	go func() {
		_, ok := reg.Connect(context.Background(), "localhost", 7005, time.Second)
		res <- result{ok: ok, elapsed: mock.Since(start)}
	}()

	// Real time alone does not end the wait.
	select {
	case <-res:
		t.Fatal("Connect returned before the clock advanced")
	case <-time.After(30 * time.Millisecond):
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		select {
		case r := <-res:
			require.False(t, r.ok)
			require.GreaterOrEqual(t, r.elapsed, time.Second)
			return
		default:
		}
		require.True(t, time.Now().Before(deadline), "Connect never timed out")
		mock.Add(100 * time.Millisecond)
		time.Sleep(time.Millisecond)
	}
}

func TestRegistryCancel(t *testing.T) {
	reg := newTestRegistry(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := reg.Accept(ctx, "localhost", 7003, time.Hour)
	require.False(t, ok)

	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, ok = reg.Accept(ctx, "localhost", 7003, time.Hour)
	require.False(t, ok)
	require.Less(t, time.Since(start), 10*time.Second)

	_, ok = reg.Connect(ctx, "localhost", 7004, time.Hour)
	require.False(t, ok)
}

func TestRegistrySameRoleMismatch(t *testing.T) {
	ctx := context.Background()
	promReg := prometheus.NewRegistry()
	reg := newTestRegistry(t, qsock.WithRegisterer(promReg))

	var g errgroup.Group
	results := make([]bool, 2)
	for i := range results {
		g.Go(func() error {
			_, results[i] = reg.Accept(ctx, "localhost", 9100, time.Second)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, []bool{false, false}, results)

	const want = `
# HELP qsock_pairings_total Pairing attempts by role and outcome.
# TYPE qsock_pairings_total counter
qsock_pairings_total{outcome="mismatch",role="server"} 2
# HELP qsock_waiting_offers Callers currently parked on an exchange point.
# TYPE qsock_waiting_offers gauge
qsock_waiting_offers 0
`
	require.NoError(t, testutil.GatherAndCompare(promReg, strings.NewReader(want),
		"qsock_pairings_total", "qsock_waiting_offers"))

	// The point is usable again afterwards.
	_, _, ok := reg.Loopback(ctx, "localhost", 9100, time.Second)
	require.True(t, ok)
}

func TestRegistryMetrics(t *testing.T) {
	ctx := context.Background()
	promReg := prometheus.NewRegistry()
	reg := newTestRegistry(t, qsock.WithRegisterer(promReg))

	_, _, ok := reg.Loopback(ctx, "localhost", 9200, time.Second)
	require.True(t, ok)
	_, ok = reg.Connect(ctx, "localhost", 9201, 10*time.Millisecond)
	require.False(t, ok)

	const want = `
# HELP qsock_pairings_total Pairing attempts by role and outcome.
# TYPE qsock_pairings_total counter
qsock_pairings_total{outcome="paired",role="client"} 1
qsock_pairings_total{outcome="paired",role="server"} 1
qsock_pairings_total{outcome="timeout",role="client"} 1
`
	require.NoError(t, testutil.GatherAndCompare(promReg, strings.NewReader(want), "qsock_pairings_total"))
}

func TestRegistryEphemeralPorts(t *testing.T) {
	reg := newTestRegistry(t)
	require.Equal(t, qsock.EphemeralPortBase+1, reg.NextEphemeralPort())
	require.Equal(t, 49154, reg.NextEphemeralPort())

	reg.Reset()
	require.Equal(t, 49153, reg.NextEphemeralPort())
}

func TestRegistryResetDropsPoints(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)
	_, _, ok := reg.Loopback(ctx, "localhost", 9300, time.Second)
	require.True(t, ok)

	reg.Reset()
	// With the point gone a lone client has nothing to wait on.
	_, ok = reg.Connect(ctx, "localhost", 9300, 20*time.Millisecond)
	require.False(t, ok)
}

func TestRegistryMaxConnectTime(t *testing.T) {
	reg := newTestRegistry(t)
	require.Equal(t, qsock.DefaultMaxConnectTime, reg.MaxConnectTime())

	reg.SetMaxConnectTime(2 * time.Second)
	require.Equal(t, 2*time.Second, reg.MaxConnectTime())
	reg.SetMaxConnectTime(0)
	require.Equal(t, 2*time.Second, reg.MaxConnectTime())

	reg = newTestRegistry(t, qsock.WithMaxConnectTime(5*time.Second))
	require.Equal(t, 5*time.Second, reg.MaxConnectTime())
}

func TestRegistryNilQueuePanics(t *testing.T) {
	reg := newTestRegistry(t)
	require.Panics(t, func() {
		reg.PairAsClient(context.Background(), "localhost", 1, nil, time.Millisecond)
	})
}

func TestRegistryPairQueues(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)
	cOut, sOut := qsock.NewQueue(), qsock.NewQueue()

	var g errgroup.Group
	var cIn, sIn *qsock.Queue
	g.Go(func() error {
		cIn, _ = reg.PairAsClient(ctx, "localhost", 9400, cOut, time.Second)
		return nil
	})
	g.Go(func() error {
		sIn, _ = reg.PairAsServer(ctx, "localhost", 9400, sOut, time.Second)
		return nil
	})
	require.NoError(t, g.Wait())
	require.Same(t, sOut, cIn)
	require.Same(t, cOut, sIn)
}
