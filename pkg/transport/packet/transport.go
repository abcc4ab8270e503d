package packet

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/wirebus/pkg/node"
	"github.com/robotalks/wirebus/pkg/wire"
)

// Transport implements node.Transport where each stuffed frame travels as
// one packet. A packet arriving while receive isn't armed, or larger than
// the receive buffer, is reported as an overrun.
type Transport struct {
	ReadWriter ReadWriter

	handler node.EventHandler
	lock    sync.RWMutex
	txCh    chan []byte
	armed   int32
}

// New creates a Transport.
func New(rw ReadWriter) *Transport {
	return &Transport{ReadWriter: rw, txCh: make(chan []byte, 1)}
}

// Attach implements node.Transport.
func (t *Transport) Attach(h node.EventHandler) {
	t.lock.Lock()
	t.handler = h
	t.lock.Unlock()
}

func (t *Transport) eventHandler() node.EventHandler {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.handler
}

// BeginTransmit implements node.Transport. The packet is written by Run.
func (t *Transport) BeginTransmit(stuffed []byte) {
	t.txCh <- stuffed
}

// ResetTransmit implements node.Transport.
func (t *Transport) ResetTransmit() {
}

// RearmReceive implements node.Transport.
func (t *Transport) RearmReceive() {
	atomic.StoreInt32(&t.armed, 1)
}

// Name implements framework.Named.
func (t *Transport) Name() string {
	return "packet"
}

// Run implements framework.Runnable.
func (t *Transport) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if runnable, ok := t.ReadWriter.(interface {
		Run(context.Context) error
	}); ok {
		go runnable.Run(ctx)
	}
	if closer, ok := t.ReadWriter.(io.Closer); ok {
		defer closer.Close()
	}
	errCh := make(chan error, 2)
	go t.writeLoop(ctx, errCh)
	go t.readLoop(errCh)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (t *Transport) readLoop(errCh chan error) {
	for {
		pkt, err := t.ReadWriter.ReadPacket()
		if err != nil {
			errCh <- err
			return
		}
		t.receive(pkt)
	}
}

func (t *Transport) writeLoop(ctx context.Context, errCh chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case stuffed := <-t.txCh:
			err := t.ReadWriter.WritePacket(stuffed)
			if err != nil {
				glog.Errorf("write packet error: %v", err)
			}
			if h := t.eventHandler(); h != nil {
				h.TransmitComplete()
			}
			if err != nil {
				errCh <- err
				return
			}
		}
	}
}

func (t *Transport) receive(pkt []byte) {
	h := t.eventHandler()
	if h == nil {
		return
	}
	if len(pkt) > wire.MaxStuffedPacketLen || !atomic.CompareAndSwapInt32(&t.armed, 1, 0) {
		h.ReceiveOverrun()
		return
	}
	h.FrameBoundary(pkt)
}
