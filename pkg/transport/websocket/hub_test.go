package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/wirebus/pkg/node"
	"github.com/robotalks/wirebus/pkg/transport/packet"
	"github.com/robotalks/wirebus/pkg/wire"
)

func dialNode(t *testing.T, ctx context.Context, hubURL string, id wire.Identity) (*node.Session, chan *wire.Frame) {
	rw, err := Dial(hubURL)
	require.NoError(t, err)
	tr := packet.New(rw)
	s := node.NewSession(tr, id)
	frameCh := make(chan *wire.Frame, 4)
	s.Handler = node.HandleFrameFunc(func(f *wire.Frame) {
		frameCh <- f
	})
	go tr.Run(ctx)
	return s, frameCh
}

func TestHubRelay(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()
	hubURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/wire"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, _ := dialNode(t, ctx, hubURL, wire.Identity{Self: 0x3234, Peer: 0x4234, Broadcast: 0x5555})
	_, bFrames := dialNode(t, ctx, hubURL, wire.Identity{Self: 0x4234, Peer: 0x3234, Broadcast: 0x5555})
	_, cFrames := dialNode(t, ctx, hubURL, wire.Identity{Self: 0x6234, Peer: 0x3234, Broadcast: 0x5555})

	for hub.Conns() < 3 {
		time.Sleep(time.Millisecond)
	}

	require.NoError(t, a.Broadcast([]byte{0x01, 0x02}))
	for _, ch := range []chan *wire.Frame{bFrames, cFrames} {
		select {
		case f := <-ch:
			require.Equal(t, wire.Address(0x5555), f.Address)
			require.Equal(t, []byte{0x01, 0x02}, f.Payload)
		case <-time.After(time.Second):
			t.Fatal("broadcast not received")
		}
	}
	require.NoError(t, a.WaitIdle(ctx))
	require.Equal(t, uint64(1), a.Stats().Sent)
	require.Equal(t, uint64(0), a.Stats().Received)
}
