package mqtt

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/wirebus/pkg/node"
	"github.com/robotalks/wirebus/pkg/wire"
)

// Topics relative to the queue prefix.
const (
	BusTopic          = "bus"
	StatsTopicPattern = "nodes/+/stats"
)

// StatsTopic returns the topic a node publishes counters to.
func StatsTopic(self wire.Address) string {
	return "nodes/" + self.String() + "/stats"
}

// ReadWriter implements packet.ReadWriter over the bus topic. Frames are
// wrapped in an Envelope naming the sender, so a node doesn't read back its
// own frames unless Echo is set.
type ReadWriter struct {
	Queue  *Queue
	Topic  string
	Sender string
	Echo   bool

	packetCh chan []byte
	done     chan struct{}
	once     sync.Once
}

// NewReadWriter creates the ReadWriter. A random sender id is used if
// sender is empty.
func NewReadWriter(q *Queue, sender string) *ReadWriter {
	if sender == "" {
		sender = fmt.Sprintf("%016x", rand.New(rand.NewSource(time.Now().UnixNano())).Int63())
	}
	return &ReadWriter{
		Queue:    q,
		Topic:    BusTopic,
		Sender:   sender,
		packetCh: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
}

// ReadPacket implements packet.Reader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements packet.Writer.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	data, err := proto.Marshal(&Envelope{Sender: p.Sender, Frame: pkt})
	if err != nil {
		return err
	}
	token := p.Queue.Pub(p.Topic, data)
	token.Wait()
	return token.Error()
}

// Run subscribes the bus topic until ctx is done.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.Topic, p.handleMsg)
	defer sub.Close()
	defer p.once.Do(func() { close(p.done) })
	<-ctx.Done()
	return ctx.Err()
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	p.once.Do(func() { close(p.done) })
	return p.Queue.Close()
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		glog.Warningf("invalid envelope: %v", err)
		return
	}
	if env.Sender == p.Sender && !p.Echo {
		return
	}
	select {
	case p.packetCh <- env.Frame:
	case <-p.done:
	}
}

// DecodeEnvelope decodes an Envelope from the bus topic.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := proto.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// StatsPublisher implements node.StatsPublisher, publishing retained
// NodeStats to StatsTopic.
type StatsPublisher struct {
	Queue *Queue
}

// PublishStats implements node.StatsPublisher.
func (p *StatsPublisher) PublishStats(id wire.Identity, stats node.Stats) error {
	data, err := proto.Marshal(NewNodeStats(id, stats))
	if err != nil {
		return err
	}
	token := p.Queue.PubWith(StatsTopic(id.Self), data, 0, true)
	token.Wait()
	return token.Error()
}

// DecodeNodeStats decodes NodeStats published by StatsPublisher.
func DecodeNodeStats(data []byte) (*NodeStats, error) {
	var stats NodeStats
	if err := proto.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
