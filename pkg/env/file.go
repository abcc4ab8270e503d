package env

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig is the TOML representation of Config.
type fileConfig struct {
	Self           string `toml:"self"`
	Peer           string `toml:"peer"`
	Broadcast      string `toml:"broadcast"`
	Reserve        uint   `toml:"reserve"`
	Transport      string `toml:"transport"`
	Echo           bool   `toml:"echo"`
	Stats          string `toml:"stats"`
	PayloadSize    int    `toml:"payload_size"`
	Count          int    `toml:"count"`
	SendInterval   string `toml:"send_interval"`
	ReportEvery    int    `toml:"report_every"`
	ReportInterval string `toml:"report_interval"`
}

// LoadFile overlays the keys defined in a TOML file.
func (c *Config) LoadFile(path string) error {
	return c.overlayFile(path, nil)
}

// overlayFile applies keys defined in the file, except those whose flag
// (the key with dashes) is in skip.
func (c *Config) overlayFile(path string, skip map[string]bool) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config %s: unknown keys %v", path, undecoded)
	}
	overlay := func(key string, apply func() error) error {
		if !meta.IsDefined(key) || skip[strings.Replace(key, "_", "-", -1)] {
			return nil
		}
		if err := apply(); err != nil {
			return fmt.Errorf("load config %s: %s: %w", path, key, err)
		}
		return nil
	}
	duration := func(s string, d *time.Duration) func() error {
		return func() (err error) {
			*d, err = time.ParseDuration(strings.TrimSpace(s))
			return
		}
	}
	applies := []struct {
		key   string
		apply func() error
	}{
		{"self", func() error { return selfValue{c}.Set(strings.TrimSpace(raw.Self)) }},
		{"peer", func() error { return c.Peer.Set(strings.TrimSpace(raw.Peer)) }},
		{"broadcast", func() error { return c.Broadcast.Set(strings.TrimSpace(raw.Broadcast)) }},
		{"reserve", func() error { c.Reserve = raw.Reserve; return nil }},
		{"transport", func() error { c.TransportURL = strings.TrimSpace(raw.Transport); return nil }},
		{"echo", func() error { c.Echo = raw.Echo; return nil }},
		{"stats", func() error { c.StatsURL = strings.TrimSpace(raw.Stats); return nil }},
		{"payload_size", func() error { c.PayloadSize = raw.PayloadSize; return nil }},
		{"count", func() error { c.Count = raw.Count; return nil }},
		{"send_interval", duration(raw.SendInterval, &c.SendInterval)},
		{"report_every", func() error { c.ReportEvery = raw.ReportEvery; return nil }},
		{"report_interval", duration(raw.ReportInterval, &c.ReportInterval)},
	}
	for _, a := range applies {
		if err := overlay(a.key, a.apply); err != nil {
			return err
		}
	}
	return nil
}
