// Package loopback provides an in-memory wire shared by several nodes.
package loopback

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/wirebus/pkg/node"
)

// ErrClosed indicates the wire or endpoint is closed.
var ErrClosed = errors.New("loopback: closed")

// rxQueueLen is the number of frames an endpoint buffers before overrun.
const rxQueueLen = 16

// Wire is an in-memory shared wire. Every frame transmitted by an endpoint
// is delivered to all other endpoints opened from the same wire.
type Wire struct {
	Name string
	// Echo also delivers frames back to the sender, as a physical wire does.
	Echo bool

	lock      sync.RWMutex
	closed    bool
	endpoints map[*Endpoint]struct{}
}

var (
	wires     = make(map[string]*Wire)
	wiresLock sync.Mutex
)

// NewWire creates a standalone wire.
func NewWire(name string) *Wire {
	return &Wire{Name: name, endpoints: make(map[*Endpoint]struct{})}
}

// Named returns the process-wide wire with the name, creating it if needed.
func Named(name string) *Wire {
	wiresLock.Lock()
	defer wiresLock.Unlock()
	w := wires[name]
	if w == nil {
		w = NewWire(name)
		wires[name] = w
	}
	return w
}

// Open attaches a new endpoint to the wire.
func (w *Wire) Open() *Endpoint {
	ep := &Endpoint{
		wire:      w,
		rxCh:      make(chan []byte, rxQueueLen),
		overrunCh: make(chan struct{}, 1),
		closed:    make(chan struct{}),
	}
	w.lock.Lock()
	if w.closed {
		w.lock.Unlock()
		ep.dead = true
		close(ep.closed)
		return ep
	}
	w.endpoints[ep] = struct{}{}
	w.lock.Unlock()
	go ep.dispatch()
	return ep
}

// Close detaches all endpoints.
func (w *Wire) Close() error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	for ep := range w.endpoints {
		ep.closeNoLock()
	}
	return nil
}

func (w *Wire) targets(from *Endpoint) []*Endpoint {
	w.lock.RLock()
	defer w.lock.RUnlock()
	targets := make([]*Endpoint, 0, len(w.endpoints))
	for ep := range w.endpoints {
		if ep != from || w.Echo {
			targets = append(targets, ep)
		}
	}
	return targets
}

// Endpoint is a node's attachment to a Wire. It implements node.Transport.
type Endpoint struct {
	wire      *Wire
	handler   node.EventHandler
	lock      sync.RWMutex
	armed     int32
	dead      bool
	rxCh      chan []byte
	overrunCh chan struct{}
	closed    chan struct{}
}

// Attach implements node.Transport.
func (e *Endpoint) Attach(h node.EventHandler) {
	e.lock.Lock()
	e.handler = h
	e.lock.Unlock()
}

func (e *Endpoint) eventHandler() node.EventHandler {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.handler
}

// BeginTransmit implements node.Transport.
func (e *Endpoint) BeginTransmit(stuffed []byte) {
	frame := append([]byte{}, stuffed...)
	go func() {
		select {
		case <-e.closed:
			glog.Warningf("loopback %s: transmit on closed endpoint", e.wire.Name)
		default:
			for _, ep := range e.wire.targets(e) {
				ep.deliver(frame)
			}
		}
		if h := e.eventHandler(); h != nil {
			h.TransmitComplete()
		}
	}()
}

// ResetTransmit implements node.Transport.
func (e *Endpoint) ResetTransmit() {
}

// RearmReceive implements node.Transport.
func (e *Endpoint) RearmReceive() {
	atomic.StoreInt32(&e.armed, 1)
}

// Close detaches the endpoint from the wire.
func (e *Endpoint) Close() error {
	e.wire.lock.Lock()
	e.closeNoLock()
	e.wire.lock.Unlock()
	return nil
}

func (e *Endpoint) closeNoLock() {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.dead {
		return
	}
	e.dead = true
	close(e.closed)
	delete(e.wire.endpoints, e)
}

func (e *Endpoint) deliver(frame []byte) {
	select {
	case e.rxCh <- frame:
	case <-e.closed:
	default:
		select {
		case e.overrunCh <- struct{}{}:
		default:
		}
	}
}

func (e *Endpoint) dispatch() {
	for {
		select {
		case <-e.closed:
			return
		case <-e.overrunCh:
			e.overrun()
		case frame := <-e.rxCh:
			if !atomic.CompareAndSwapInt32(&e.armed, 1, 0) {
				e.overrun()
				continue
			}
			if h := e.eventHandler(); h != nil {
				h.FrameBoundary(frame)
			}
		}
	}
}

func (e *Endpoint) overrun() {
	if h := e.eventHandler(); h != nil {
		h.ReceiveOverrun()
	}
}
