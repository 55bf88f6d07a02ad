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
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestEndpointEchoConcatenation(t *testing.T) {
	skipRace(t)
	ctx := context.Background()
	reg := newTestRegistry(t)
	client, server, ok := reg.Loopback(ctx, "localhost", 4000, time.Second)
	require.True(t, ok)

	var g errgroup.Group
	g.Go(func() error {
		for range 2 {
			msg, ok := server.NextReceivedString(ctx, time.Second)
			if !ok {
				return qsock.ErrDisconnected
			}
			if err := server.SendString("reply: " + msg); err != nil {
				return err
			}
		}
		return nil
	})

	require.NoError(t, client.SendString("1234"))
	require.NoError(t, client.SendString("5678"))
	want := "reply: 1234reply: 5678"
	require.Len(t, want, 22)

	got, ok := client.AvailableBytes(ctx, 22, time.Second)
	require.NoError(t, g.Wait())
	require.True(t, ok)
	require.Equal(t, want, string(got))
}

func TestEndpointNextReceived(t *testing.T) {
	ctx := context.Background()
	a, b := qsock.NewPair()

	_, ok := b.NextReceivedBuffer(ctx, 10*time.Millisecond)
	require.False(t, ok)

	require.NoError(t, a.SendMessage([]byte("hello")))
	require.NoError(t, a.SendString("world"))
	buf, ok := b.NextReceivedBuffer(ctx, time.Second)
	require.True(t, ok)
	require.Equal(t, "hello", string(buf))
	s, ok := b.NextReceivedString(ctx, time.Second)
	require.True(t, ok)
	require.Equal(t, "world", s)
}

func TestEndpointReceivedBytesExact(t *testing.T) {
	ctx := context.Background()
	a, b := qsock.NewPair()

	require.NoError(t, a.SendString("12"))
	got, ok := b.ReceivedBytes(ctx, 3, 10*time.Millisecond)
	require.False(t, ok)
	require.Nil(t, got)

	require.NoError(t, a.SendString("3"))
	got, ok = b.ReceivedBytes(ctx, 3, time.Second)
	require.True(t, ok)
	require.Equal(t, "123", string(got))
}

func TestEndpointAvailableBytes(t *testing.T) {
	ctx := context.Background()
	a, b := qsock.NewPair()

	require.NoError(t, a.SendString("1234"))
	got, ok := b.AvailableBytes(ctx, 2, time.Second)
	require.True(t, ok)
	require.Equal(t, "12", string(got))

	got, ok = b.AvailableBytes(ctx, 10, 10*time.Millisecond)
	require.True(t, ok)
	require.Equal(t, "34", string(got))

	_, ok = b.AvailableBytes(ctx, 10, 10*time.Millisecond)
	require.False(t, ok)
}

func TestEndpointCancelledReceive(t *testing.T) {
	a, b := qsock.NewPair()
	require.NoError(t, a.SendString("x"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := b.ReceivedBytes(ctx, 2, time.Hour)
	require.False(t, ok)
	// The exact read gave its byte back.
	got, ok := b.NextReceivedBuffer(context.Background(), 0)
	require.True(t, ok)
	require.Equal(t, "x", string(got))

	_, ok = b.NextReceivedBuffer(ctx, time.Hour)
	require.False(t, ok)
}

func TestEndpointClose(t *testing.T) {
	ctx := context.Background()
	a, b := qsock.NewPair()
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	require.ErrorIs(t, b.SendString("x"), qsock.ErrClosedChannel)
	require.ErrorIs(t, a.SendString("x"), qsock.ErrClosedChannel)
	_, ok := b.NextReceivedBuffer(ctx, time.Second)
	require.False(t, ok)
}

func TestEndpointString(t *testing.T) {
	a, b := qsock.NewPair()
	require.NotEqual(t, a.ID(), b.ID())
	require.True(t, strings.HasPrefix(a.String(), "endpoint(LOCALHOST:0 "), a.String())
	require.Contains(t, a.String(), a.ID().String())
}
