package node

import "fmt"

// Stats is a snapshot of session counters.
type Stats struct {
	Sent     uint64
	Received uint64
	Missed   uint64
	Overruns uint64
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("sent=%d received=%d missed=%d overruns=%d",
		s.Sent, s.Received, s.Missed, s.Overruns)
}

// Sub returns the counter deltas since prev.
func (s Stats) Sub(prev Stats) Stats {
	return Stats{
		Sent:     s.Sent - prev.Sent,
		Received: s.Received - prev.Received,
		Missed:   s.Missed - prev.Missed,
		Overruns: s.Overruns - prev.Overruns,
	}
}
