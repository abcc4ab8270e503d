package stream

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/wirebus/pkg/node"
	"github.com/robotalks/wirebus/pkg/wire"
)

type recorder struct {
	events  []string
	frames  [][]byte
	noRearm bool
	t       *Transport
}

func (r *recorder) TransmitComplete() {
	r.events = append(r.events, "complete")
}

func (r *recorder) FrameBoundary(stuffed []byte) {
	r.events = append(r.events, "frame")
	r.frames = append(r.frames, append([]byte{}, stuffed...))
	if !r.noRearm {
		r.t.RearmReceive()
	}
}

func (r *recorder) ReceiveOverrun() {
	r.events = append(r.events, "overrun")
	if !r.noRearm {
		r.t.RearmReceive()
	}
}

func newRecorded() (*Transport, *recorder) {
	t := New(nil)
	r := &recorder{t: t}
	t.Attach(r)
	t.RearmReceive()
	return t, r
}

func feed(t *Transport, bs ...byte) {
	for _, b := range bs {
		t.receive(b)
	}
}

func TestReceiveFrames(t *testing.T) {
	tr, r := newRecorded()
	feed(tr, 0xff, 0xff, 0x32, 0x34, 0xff, 0xff, 0xff, 0x10, 0x20, 0xff, 0xff)
	require.Equal(t, []string{"frame", "frame"}, r.events)
	require.Equal(t, [][]byte{{0x32, 0x34, 0xff}, {0x10, 0x20, 0xff}}, r.frames)
}

func TestReceiveNotArmed(t *testing.T) {
	tr, r := newRecorded()
	r.noRearm = true
	feed(tr, 0x01, 0xff, 0xff, 0x02, 0x03, 0xff, 0xff, 0x04, 0xff)
	require.Equal(t, []string{"frame", "overrun", "overrun"}, r.events)
	require.Equal(t, [][]byte{{0x01, 0xff}}, r.frames)
}

func TestReceiveOverflow(t *testing.T) {
	tr, r := newRecorded()
	for i := 0; i < wire.MaxStuffedPacketLen+4; i++ {
		feed(tr, 0x55)
	}
	feed(tr, 0xff, 0xff, 0x12, 0xff)
	require.Equal(t, []string{"overrun", "frame"}, r.events)
	require.Equal(t, [][]byte{{0x12, 0xff}}, r.frames)
}

func TestPeerToPeer(t *testing.T) {
	c1, c2 := net.Pipe()
	t1, t2 := New(c1), New(c2)
	a := node.NewSession(t1, wire.Identity{Self: 0x3234, Peer: 0x4234, Broadcast: 0x5555})
	b := node.NewSession(t2, wire.Identity{Self: 0x4234, Peer: 0x3234, Broadcast: 0x5555})
	frameCh := make(chan *wire.Frame, 4)
	b.Handler = node.HandleFrameFunc(func(f *wire.Frame) {
		frameCh <- f
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 2)
	go func() { errCh <- t1.Run(ctx) }()
	go func() { errCh <- t2.Run(ctx) }()

	payloads := [][]byte{{0x13, 0x35}, nil, {0x7f, 0xff, 0x00, 0x00, 0x12, 0x34}}
	for _, payload := range payloads {
		require.NoError(t, a.SendWait(ctx, a.Identity().Peer, payload))
		select {
		case f := <-frameCh:
			require.Equal(t, wire.Address(0x4234), f.Address)
			require.Equal(t, len(payload), len(f.Payload))
			if len(payload) > 0 {
				require.Equal(t, payload, f.Payload)
			}
		case <-time.After(time.Second):
			t.Fatal("frame not received")
		}
	}
	require.NoError(t, a.WaitIdle(ctx))
	require.Equal(t, uint64(len(payloads)), a.Stats().Sent)
	require.Equal(t, node.Stats{Received: uint64(len(payloads))}, b.Stats())

	cancel()
	require.Error(t, <-errCh)
	require.Error(t, <-errCh)
}

type failWriter struct{}

func (failWriter) Read(p []byte) (int, error) {
	select {}
}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken")
}

func TestWriteErrorCompletes(t *testing.T) {
	tr := New(failWriter{})
	s := node.NewSession(tr, wire.Identity{Self: 0x3234, Peer: 0x4234, Broadcast: 0x5555})
	require.NoError(t, s.SendPeer(nil))
	err := tr.Run(context.Background())
	require.EqualError(t, err, "broken")
	require.False(t, s.Busy())
	require.Equal(t, uint64(1), s.Stats().Sent)
}
