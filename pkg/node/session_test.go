package node

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/wirebus/pkg/wire"
)

var testIdentity = wire.Identity{Self: 0x3234, Peer: 0x4234, Broadcast: 0x5555}

type chanTransport struct {
	handler   EventHandler
	txCh      chan []byte
	autoDone  bool
	resets    int32
	rearms    int32
	lastFrame []byte
}

func newChanTransport() *chanTransport {
	return &chanTransport{txCh: make(chan []byte, 16)}
}

func (t *chanTransport) Attach(h EventHandler) {
	t.handler = h
}

func (t *chanTransport) BeginTransmit(stuffed []byte) {
	t.lastFrame = stuffed
	t.txCh <- append([]byte{}, stuffed...)
	if t.autoDone {
		t.handler.TransmitComplete()
	}
}

func (t *chanTransport) ResetTransmit() {
	atomic.AddInt32(&t.resets, 1)
}

func (t *chanTransport) RearmReceive() {
	atomic.AddInt32(&t.rearms, 1)
}

func stuffedFrame(t *testing.T, dest wire.Address, payload []byte) []byte {
	words, err := wire.EncodePacket(nil, dest, wire.DefaultReserve, payload)
	require.NoError(t, err)
	stuffed, _ := wire.Stuff(nil, words)
	return stuffed
}

func TestNewSessionArmsReceive(t *testing.T) {
	tr := newChanTransport()
	s := NewSession(tr, testIdentity)
	require.True(t, tr.handler == EventHandler(s))
	require.Equal(t, int32(1), tr.rearms)
	require.Equal(t, wire.DefaultReserve, s.Reserve())
	require.Equal(t, testIdentity, s.Identity())
}

func TestSendGate(t *testing.T) {
	tr := newChanTransport()
	s := NewSession(tr, testIdentity)
	payload := []byte{0x13, 0x35, 0x56, 0x78}

	require.NoError(t, s.SendPeer(payload))
	require.Equal(t, stuffedFrame(t, testIdentity.Peer, payload), <-tr.txCh)
	require.True(t, s.Busy())
	inflight := append([]byte{}, tr.lastFrame...)

	require.Equal(t, ErrBusy, s.Send(testIdentity.Broadcast, []byte{1, 2}))
	require.Equal(t, inflight, tr.lastFrame)
	require.Len(t, tr.txCh, 0)

	s.TransmitComplete()
	require.False(t, s.Busy())
	require.Equal(t, int32(1), tr.resets)
	require.Equal(t, uint64(1), s.Stats().Sent)

	require.NoError(t, s.Broadcast([]byte{1, 2}))
	require.Equal(t, stuffedFrame(t, testIdentity.Broadcast, []byte{1, 2}), <-tr.txCh)
	s.TransmitComplete()
	require.Equal(t, uint64(2), s.Stats().Sent)
}

func TestSendInvalidReleasesGate(t *testing.T) {
	tr := newChanTransport()
	s := NewSession(tr, testIdentity)
	testCases := []struct {
		dest    wire.Address
		payload []byte
		err     error
	}{
		{0x4234, []byte{1}, wire.ErrInvalidPayload},
		{0x4234, make([]byte, wire.MaxPayloadSize+2), wire.ErrInvalidPayload},
		{0xffff, nil, wire.ErrReservedWord},
		{0x4234, []byte{0xff, 0xff}, wire.ErrReservedWord},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.err, s.Send(tc.dest, tc.payload))
		require.False(t, s.Busy())
	}
	require.Len(t, tr.txCh, 0)
}

func TestSpuriousCompletion(t *testing.T) {
	tr := newChanTransport()
	s := NewSession(tr, testIdentity)
	s.TransmitComplete()
	require.Equal(t, Stats{}, s.Stats())
	require.Equal(t, int32(0), tr.resets)
}

func TestSetReserve(t *testing.T) {
	tr := newChanTransport()
	s := NewSession(tr, testIdentity)
	s.SetReserve(0x12)
	require.NoError(t, s.Send(0x4234, nil))
	words, err := wire.EncodePacket(nil, 0x4234, 0x12, nil)
	require.NoError(t, err)
	stuffed, _ := wire.Stuff(nil, words)
	require.Equal(t, stuffed, <-tr.txCh)
}

func TestReceive(t *testing.T) {
	tr := newChanTransport()
	s := NewSession(tr, testIdentity)
	var frames []*wire.Frame
	s.Handler = HandleFrameFunc(func(f *wire.Frame) {
		frames = append(frames, f)
	})

	testCases := []struct {
		stuffed []byte
		accept  bool
	}{
		{stuffedFrame(t, 0x3234, []byte{1, 2}), true},
		{stuffedFrame(t, 0x5555, nil), true},
		{stuffedFrame(t, 0x4234, []byte{1, 2}), false},
		{[]byte{0x00, 0x00, 0xff, 0xff}, false},
		{[]byte{0xff, 0xff}, false},
	}
	var expect Stats
	for n, tc := range testCases {
		s.FrameBoundary(tc.stuffed)
		if tc.accept {
			expect.Received++
		} else {
			expect.Missed++
		}
		require.Equalf(t, expect, s.Stats(), "frame %d", n)
		require.Equalf(t, int32(n+2), tr.rearms, "frame %d", n)
	}
	require.Len(t, frames, 2)
	require.Equal(t, wire.Address(0x3234), frames[0].Address)
	require.Equal(t, []byte{1, 2}, frames[0].Payload)
	require.Equal(t, wire.Address(0x5555), frames[1].Address)
	require.Empty(t, frames[1].Payload)
}

func TestReceiveAfterSetIdentity(t *testing.T) {
	tr := newChanTransport()
	s := NewSession(tr, testIdentity)
	stuffed := stuffedFrame(t, 0x4234, nil)
	s.FrameBoundary(stuffed)
	s.SetIdentity(wire.Identity{Self: 0x4234, Peer: 0x3234, Broadcast: 0x5555})
	s.FrameBoundary(stuffed)
	require.Equal(t, Stats{Received: 1, Missed: 1}, s.Stats())
}

func TestReceiveOverrun(t *testing.T) {
	tr := newChanTransport()
	s := NewSession(tr, testIdentity)
	s.ReceiveOverrun()
	require.Equal(t, Stats{Overruns: 1}, s.Stats())
	require.Equal(t, int32(2), tr.rearms)
}

func TestWaitIdle(t *testing.T) {
	tr := newChanTransport()
	s := NewSession(tr, testIdentity)
	require.NoError(t, s.WaitIdle(context.Background()))

	require.NoError(t, s.SendPeer(nil))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Equal(t, context.DeadlineExceeded, s.WaitIdle(ctx))

	errCh := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			errCh <- s.WaitIdle(context.Background())
		}()
	}
	s.TransmitComplete()
	require.NoError(t, <-errCh)
	require.NoError(t, <-errCh)
}

func TestSendWait(t *testing.T) {
	tr := newChanTransport()
	s := NewSession(tr, testIdentity)
	require.NoError(t, s.SendPeer(nil))
	<-tr.txCh

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.SendWait(context.Background(), testIdentity.Peer, []byte{1, 2})
	}()
	select {
	case err := <-errCh:
		t.Fatalf("SendWait returned early: %v", err)
	case <-time.After(10 * time.Millisecond):
	}
	s.TransmitComplete()
	require.NoError(t, <-errCh)
	require.Equal(t, stuffedFrame(t, testIdentity.Peer, []byte{1, 2}), <-tr.txCh)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.SendWait(ctx, testIdentity.Peer, nil)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestStatsString(t *testing.T) {
	stats := Stats{Sent: 3, Received: 2, Missed: 1}
	require.Equal(t, "sent=3 received=2 missed=1 overruns=0", stats.String())
	require.Equal(t, Stats{Sent: 1, Received: 1}, stats.Sub(Stats{Sent: 2, Received: 1, Missed: 1}))
}
