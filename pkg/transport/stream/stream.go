// Package stream carries stuffed frames over a byte stream, e.g. a UART.
package stream

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/wirebus/pkg/node"
	"github.com/robotalks/wirebus/pkg/wire"
)

// Transport implements node.Transport over an io.ReadWriter.
//
// The receive side mirrors a DMA receive buffer: bytes are collected into a
// buffer of MaxStuffedPacketLen until a terminator byte marks the frame
// boundary. Terminator bytes while the buffer is empty are line idle. Data
// arriving while the buffer isn't armed, or overflowing the buffer, is an
// overrun and the rest of that frame is discarded.
type Transport struct {
	ReadWriter io.ReadWriter

	handler node.EventHandler
	lock    sync.RWMutex
	txCh    chan []byte
	armed   int32

	rxBuf   [wire.MaxStuffedPacketLen]byte
	rxLen   int
	discard bool
}

// New creates a Transport.
func New(rw io.ReadWriter) *Transport {
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

// BeginTransmit implements node.Transport. The frame is written by Run.
func (t *Transport) BeginTransmit(stuffed []byte) {
	t.txCh <- stuffed
}

// ResetTransmit implements node.Transport. Frames are written as a whole,
// there's no cursor to reset.
func (t *Transport) ResetTransmit() {
}

// RearmReceive implements node.Transport.
func (t *Transport) RearmReceive() {
	atomic.StoreInt32(&t.armed, 1)
}

// Name implements framework.Named.
func (t *Transport) Name() string {
	return "stream"
}

// Run reads and writes the stream until ctx is done or an IO error happens.
// ReadWriter is closed on exit if it's an io.Closer.
func (t *Transport) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if closer, ok := t.ReadWriter.(io.Closer); ok {
		defer closer.Close()
	}
	dataCh, errCh := make(chan []byte), make(chan error, 2)
	go t.readLoop(ctx, dataCh, errCh)
	go t.writeLoop(ctx, errCh)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case data := <-dataCh:
			for _, b := range data {
				t.receive(b)
			}
		}
	}
}

func (t *Transport) readLoop(ctx context.Context, dataCh chan []byte, errCh chan error) {
	buf := make([]byte, wire.MaxStuffedPacketLen)
	for {
		n, err := t.ReadWriter.Read(buf)
		if err != nil && !os.IsTimeout(err) {
			errCh <- err
			return
		}
		if n > 0 {
			select {
			case dataCh <- append([]byte{}, buf[:n]...):
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (t *Transport) writeLoop(ctx context.Context, errCh chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case stuffed := <-t.txCh:
			_, err := t.ReadWriter.Write(stuffed)
			if err != nil {
				glog.Errorf("stream write error: %v", err)
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

func (t *Transport) receive(b byte) {
	if t.discard {
		t.discard = b != wire.TerminatorByte
		return
	}
	if b == wire.TerminatorByte {
		if t.rxLen > 0 {
			t.boundary()
		}
		return
	}
	if t.rxLen == 0 && !atomic.CompareAndSwapInt32(&t.armed, 1, 0) {
		t.overrun()
		return
	}
	if t.rxLen >= len(t.rxBuf)-1 {
		t.overrun()
		return
	}
	t.rxBuf[t.rxLen] = b
	t.rxLen++
}

func (t *Transport) boundary() {
	t.rxBuf[t.rxLen] = wire.TerminatorByte
	frame := t.rxBuf[:t.rxLen+1]
	t.rxLen = 0
	if h := t.eventHandler(); h != nil {
		h.FrameBoundary(frame)
	}
}

func (t *Transport) overrun() {
	t.rxLen, t.discard = 0, true
	if h := t.eventHandler(); h != nil {
		h.ReceiveOverrun()
	}
}
