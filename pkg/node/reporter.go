package node

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/wirebus/pkg/wire"
)

// StatsPublisher publishes session counters somewhere.
type StatsPublisher interface {
	PublishStats(id wire.Identity, stats Stats) error
}

// PublishStatsFunc is func type of StatsPublisher.
type PublishStatsFunc func(wire.Identity, Stats) error

// PublishStats implements StatsPublisher.
func (f PublishStatsFunc) PublishStats(id wire.Identity, stats Stats) error {
	return f(id, stats)
}

// Reporter logs and publishes session counters periodically.
type Reporter struct {
	Session   *Session
	Interval  time.Duration
	Publisher StatsPublisher
}

// Name implements framework.Named.
func (r *Reporter) Name() string {
	return "reporter"
}

// Run implements framework.Runnable.
func (r *Reporter) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var prev Stats
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			prev = r.report(prev)
		}
	}
}

func (r *Reporter) report(prev Stats) Stats {
	stats := r.Session.Stats()
	id := r.Session.Identity()
	glog.Infof("node %s: %s (delta %s)", id.Self, stats, stats.Sub(prev))
	if r.Publisher != nil {
		if err := r.Publisher.PublishStats(id, stats); err != nil {
			glog.Warningf("publish stats error: %v", err)
		}
	}
	return stats
}
