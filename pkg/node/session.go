package node

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/wirebus/pkg/wire"
)

// Session is a node on the wire.
type Session struct {
	Transport Transport
	// Handler receives accepted frames, optional.
	Handler FrameHandler

	id      wire.Identity
	reserve byte
	lock    sync.RWMutex

	gate      gate
	txWords   [wire.MaxPacketLen >> 1]uint16
	txStuffed [wire.MaxStuffedPacketLen]byte
	rxBuf     [wire.MaxStuffedPacketLen]byte

	sent     uint64
	received uint64
	missed   uint64
	overruns uint64
}

// NewSession creates a Session attached to the transport and arms receiving.
func NewSession(t Transport, id wire.Identity) *Session {
	s := &Session{Transport: t, id: id, reserve: wire.DefaultReserve}
	t.Attach(s)
	t.RearmReceive()
	return s
}

// Identity returns the current node identity.
func (s *Session) Identity() wire.Identity {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.id
}

// SetIdentity replaces the node identity.
func (s *Session) SetIdentity(id wire.Identity) {
	s.lock.Lock()
	s.id = id
	s.lock.Unlock()
}

// Reserve returns the reserve byte placed in the header of sent frames.
func (s *Session) Reserve() byte {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.reserve
}

// SetReserve sets the reserve byte.
func (s *Session) SetReserve(b byte) {
	s.lock.Lock()
	s.reserve = b
	s.lock.Unlock()
}

// Busy reports whether a send is pending.
func (s *Session) Busy() bool {
	return s.gate.isBusy()
}

// Stats returns a snapshot of the counters.
func (s *Session) Stats() Stats {
	return Stats{
		Sent:     atomic.LoadUint64(&s.sent),
		Received: atomic.LoadUint64(&s.received),
		Missed:   atomic.LoadUint64(&s.missed),
		Overruns: atomic.LoadUint64(&s.overruns),
	}
}

// Send encodes a frame and starts transmitting it without waiting for
// completion. It fails with ErrBusy if the previous send hasn't completed,
// leaving that frame untouched.
func (s *Session) Send(dest wire.Address, payload []byte) error {
	if !s.gate.acquire() {
		return ErrBusy
	}
	words, err := wire.EncodePacket(s.txWords[:0], dest, s.Reserve(), payload)
	if err != nil {
		s.gate.release()
		return err
	}
	stuffed, bits := wire.Stuff(s.txStuffed[:0], words)
	if glog.V(3) {
		glog.Infof("send %s len=%d stuffed=%d bits", dest, len(payload), bits)
	}
	s.Transport.BeginTransmit(stuffed)
	return nil
}

// SendPeer sends payload to the peer address.
func (s *Session) SendPeer(payload []byte) error {
	return s.Send(s.Identity().Peer, payload)
}

// Broadcast sends payload to the broadcast address.
func (s *Session) Broadcast(payload []byte) error {
	return s.Send(s.Identity().Broadcast, payload)
}

// WaitIdle blocks until no send is pending or ctx is done.
// The gate is only cleared by the transport's completion event, a transport
// which never completes blocks WaitIdle until ctx expires.
func (s *Session) WaitIdle(ctx context.Context) error {
	return s.gate.wait(ctx)
}

// SendWait waits for the gate and sends.
func (s *Session) SendWait(ctx context.Context, dest wire.Address, payload []byte) error {
	for {
		if err := s.WaitIdle(ctx); err != nil {
			return err
		}
		if err := s.Send(dest, payload); err != ErrBusy {
			return err
		}
	}
}

// TransmitComplete implements EventHandler.
func (s *Session) TransmitComplete() {
	if !s.gate.isBusy() {
		glog.Warning("transmit completion without pending send")
		return
	}
	s.Transport.ResetTransmit()
	atomic.AddUint64(&s.sent, 1)
	s.gate.release()
}

// FrameBoundary implements EventHandler.
func (s *Session) FrameBoundary(stuffed []byte) {
	unstuffed := wire.Unstuff(s.rxBuf[:0], stuffed)
	var frame *wire.Frame
	err := wire.Validate(s.Identity(), unstuffed)
	if err != nil {
		atomic.AddUint64(&s.missed, 1)
		glog.V(2).Infof("frame dropped: %v", err)
	} else {
		atomic.AddUint64(&s.received, 1)
		if s.Handler != nil {
			frame, err = wire.DecodeFrame(unstuffed)
		}
	}
	s.Transport.RearmReceive()
	if frame != nil && err == nil {
		glog.V(2).Infof("frame received: %s", frame)
		s.Handler.HandleFrame(frame)
	}
}

// ReceiveOverrun implements EventHandler.
func (s *Session) ReceiveOverrun() {
	atomic.AddUint64(&s.overruns, 1)
	glog.V(2).Info("receive overrun")
	s.Transport.RearmReceive()
}
