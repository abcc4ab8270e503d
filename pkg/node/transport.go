package node

import "github.com/robotalks/wirebus/pkg/wire"

// EventHandler receives notifications from a Transport.
type EventHandler interface {
	// TransmitComplete is fired exactly once per BeginTransmit, including
	// when the transfer terminated early.
	TransmitComplete()
	// FrameBoundary is fired when a terminator is observed on the wire.
	// stuffed is only valid during the call.
	FrameBoundary(stuffed []byte)
	// ReceiveOverrun is fired when data arrives before the previous frame
	// was consumed.
	ReceiveOverrun()
}

// Transport serializes stuffed frames onto a wire and reports events.
type Transport interface {
	// Attach registers the handler of transport events.
	Attach(EventHandler)
	// BeginTransmit starts transferring stuffed and returns immediately.
	// stuffed is owned by the transport until TransmitComplete.
	BeginTransmit(stuffed []byte)
	// ResetTransmit resets the transmit cursor after completion.
	ResetTransmit()
	// RearmReceive resets the receive buffer for the next frame.
	RearmReceive()
}

// FrameHandler is called with every accepted frame.
type FrameHandler interface {
	HandleFrame(*wire.Frame)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(*wire.Frame)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(frame *wire.Frame) {
	f(frame)
}

// EventFuncs adapts funcs to EventHandler. nil funcs are skipped.
type EventFuncs struct {
	OnTransmitComplete func()
	OnFrameBoundary    func([]byte)
	OnReceiveOverrun   func()
}

// TransmitComplete implements EventHandler.
func (f *EventFuncs) TransmitComplete() {
	if f.OnTransmitComplete != nil {
		f.OnTransmitComplete()
	}
}

// FrameBoundary implements EventHandler.
func (f *EventFuncs) FrameBoundary(stuffed []byte) {
	if f.OnFrameBoundary != nil {
		f.OnFrameBoundary(stuffed)
	}
}

// ReceiveOverrun implements EventHandler.
func (f *EventFuncs) ReceiveOverrun() {
	if f.OnReceiveOverrun != nil {
		f.OnReceiveOverrun()
	}
}
