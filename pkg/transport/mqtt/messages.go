package mqtt

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/wirebus/pkg/node"
	"github.com/robotalks/wirebus/pkg/wire"
)

// Envelope carries a stuffed frame on the bus topic.
type Envelope struct {
	Sender string `protobuf:"bytes,1,opt,name=sender,proto3" json:"sender,omitempty"`
	Frame  []byte `protobuf:"bytes,2,opt,name=frame,proto3" json:"frame,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Envelope) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Envelope) Reset() { *m = Envelope{} }

// String implements proto.Message.
func (m *Envelope) String() string { return proto.CompactTextString(m) }

// NodeStats is the counters report of a node.
type NodeStats struct {
	Self      uint32 `protobuf:"varint,1,opt,name=self,proto3" json:"self,omitempty"`
	Peer      uint32 `protobuf:"varint,2,opt,name=peer,proto3" json:"peer,omitempty"`
	Broadcast uint32 `protobuf:"varint,3,opt,name=broadcast,proto3" json:"broadcast,omitempty"`
	Sent      uint64 `protobuf:"varint,4,opt,name=sent,proto3" json:"sent,omitempty"`
	Received  uint64 `protobuf:"varint,5,opt,name=received,proto3" json:"received,omitempty"`
	Missed    uint64 `protobuf:"varint,6,opt,name=missed,proto3" json:"missed,omitempty"`
	Overruns  uint64 `protobuf:"varint,7,opt,name=overruns,proto3" json:"overruns,omitempty"`
}

// NewNodeStats creates NodeStats from a session snapshot.
func NewNodeStats(id wire.Identity, stats node.Stats) *NodeStats {
	return &NodeStats{
		Self:      uint32(id.Self),
		Peer:      uint32(id.Peer),
		Broadcast: uint32(id.Broadcast),
		Sent:      stats.Sent,
		Received:  stats.Received,
		Missed:    stats.Missed,
		Overruns:  stats.Overruns,
	}
}

// Identity returns the node identity in the report.
func (m *NodeStats) Identity() wire.Identity {
	return wire.Identity{
		Self:      wire.Address(m.Self),
		Peer:      wire.Address(m.Peer),
		Broadcast: wire.Address(m.Broadcast),
	}
}

// Stats returns the counters in the report.
func (m *NodeStats) Stats() node.Stats {
	return node.Stats{
		Sent:     m.Sent,
		Received: m.Received,
		Missed:   m.Missed,
		Overruns: m.Overruns,
	}
}

// ProtoMessage implements proto.Message.
func (m *NodeStats) ProtoMessage() {}

// Reset implements proto.Message.
func (m *NodeStats) Reset() { *m = NodeStats{} }

// String implements proto.Message.
func (m *NodeStats) String() string { return proto.CompactTextString(m) }
