package node

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/wirebus/pkg/wire"
)

// DefaultPayloadSize is the payload length sent by RandomPayload by default.
const DefaultPayloadSize = 10

// PayloadSource provides payloads for a Producer.
type PayloadSource interface {
	NextPayload() []byte
}

// PayloadFunc is func type of PayloadSource.
type PayloadFunc func() []byte

// NextPayload implements PayloadSource.
func (f PayloadFunc) NextPayload() []byte {
	return f()
}

// RandomPayload generates payloads of random 15-bit words which can never
// collide with the terminator.
type RandomPayload struct {
	Size int

	rnd  *rand.Rand
	lock sync.Mutex
}

// NewRandomPayload creates a RandomPayload with a seeded source.
func NewRandomPayload(size int, seed int64) *RandomPayload {
	return &RandomPayload{Size: size, rnd: rand.New(rand.NewSource(seed))}
}

// NextPayload implements PayloadSource.
func (p *RandomPayload) NextPayload() []byte {
	size := p.Size &^ 1
	if size <= 0 || size > wire.MaxPayloadSize {
		size = DefaultPayloadSize
	}
	payload := make([]byte, size)
	p.lock.Lock()
	if p.rnd == nil {
		p.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	for i := 0; i < size; i += 2 {
		w := uint16(p.rnd.Intn(0x10000)) & 0x7fff
		payload[i], payload[i+1] = byte(w>>8), byte(w)
	}
	p.lock.Unlock()
	return payload
}

// Producer keeps sending frames to a destination.
type Producer struct {
	Session *Session
	Dest    wire.Address
	Payload PayloadSource
	// Count is the number of frames to send, 0 sends forever.
	Count int
	// Interval is the delay after each send.
	Interval time.Duration
	// ReportEvery logs counters every so many sends, 0 disables.
	ReportEvery int
}

// NewProducer creates a Producer sending random payloads to dest.
func NewProducer(s *Session, dest wire.Address) *Producer {
	return &Producer{
		Session:     s,
		Dest:        dest,
		Payload:     &RandomPayload{Size: DefaultPayloadSize},
		ReportEvery: 1000,
	}
}

// Name implements framework.Named.
func (p *Producer) Name() string {
	return "producer"
}

// Run implements framework.Runnable.
func (p *Producer) Run(ctx context.Context) error {
	source := p.Payload
	if source == nil {
		source = &RandomPayload{Size: DefaultPayloadSize}
	}
	for n := 1; p.Count == 0 || n <= p.Count; n++ {
		if err := p.Session.SendWait(ctx, p.Dest, source.NextPayload()); err != nil {
			return err
		}
		if p.ReportEvery > 0 && n%p.ReportEvery == 0 {
			glog.Infof("%d sends: %s", n, p.Session.Stats())
		}
		if p.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Interval):
			}
		}
	}
	return p.Session.WaitIdle(ctx)
}
