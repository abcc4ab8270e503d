// Package env configures a node from defaults, environment, config file and
// command line flags.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/wirebus/pkg/node"
	"github.com/robotalks/wirebus/pkg/wire"
)

// AutoAddress is the self address value deriving the address from the machine id.
const AutoAddress = "auto"

// Config provides common options to setup a node.
type Config struct {
	Self      wire.Address
	AutoSelf  bool
	Peer      wire.Address
	Broadcast wire.Address
	Reserve   uint

	// TransportURL specifies the wire, e.g.
	// loopback://name, serial:///dev/ttyUSB0?baud=115200, tcp://host:port,
	// mqtt://host:port/topic-prefix/, ws://host:port/wire.
	TransportURL string
	// Echo delivers a node's own frames back to it, where supported.
	Echo bool
	// StatsURL is an MQTT broker URL to publish counters to, optional.
	StatsURL string

	PayloadSize    int
	Count          int
	SendInterval   time.Duration
	ReportEvery    int
	ReportInterval time.Duration

	ConfigFile string
}

var defaultConfig = Config{
	Self:           0x3234,
	Peer:           0x4234,
	Broadcast:      0x5555,
	Reserve:        uint(wire.DefaultReserve),
	TransportURL:   "loopback://default",
	PayloadSize:    node.DefaultPayloadSize,
	ReportEvery:    1000,
	ReportInterval: 10 * time.Second,
}

func init() {
	if val := os.Getenv("WIREBUS_SELF"); val != "" {
		setFromEnv("WIREBUS_SELF", selfValue{&defaultConfig}, val)
	}
	if val := os.Getenv("WIREBUS_PEER"); val != "" {
		setFromEnv("WIREBUS_PEER", &defaultConfig.Peer, val)
	}
	if val := os.Getenv("WIREBUS_BROADCAST"); val != "" {
		setFromEnv("WIREBUS_BROADCAST", &defaultConfig.Broadcast, val)
	}
	if val := os.Getenv("WIREBUS_TRANSPORT"); val != "" {
		defaultConfig.TransportURL = val
	}
	if val := os.Getenv("WIREBUS_STATS"); val != "" {
		defaultConfig.StatsURL = val
	}
	if val := os.Getenv("WIREBUS_CONFIG"); val != "" {
		defaultConfig.ConfigFile = val
	}
}

func setFromEnv(name string, v flag.Value, val string) {
	if err := v.Set(val); err != nil {
		fmt.Fprintf(os.Stderr, "ignore %s: %v\n", name, err)
	}
}

// selfValue accepts an address or AutoAddress.
type selfValue struct {
	c *Config
}

func (v selfValue) String() string {
	if v.c == nil {
		return ""
	}
	if v.c.AutoSelf {
		return AutoAddress
	}
	return v.c.Self.String()
}

func (v selfValue) Set(s string) error {
	if strings.EqualFold(s, AutoAddress) {
		v.c.AutoSelf = true
		return nil
	}
	if err := v.c.Self.Set(s); err != nil {
		return err
	}
	v.c.AutoSelf = false
	return nil
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	SetupFlagSet(flag.CommandLine, &defaultConfig)
}

// SetupFlagSet registers flags of c on fs.
func SetupFlagSet(fs *flag.FlagSet, c *Config) {
	fs.Var(selfValue{c}, "self", "Self address, hex or decimal, or \"auto\" to derive from machine id.")
	fs.Var(&c.Peer, "peer", "Peer address.")
	fs.Var(&c.Broadcast, "broadcast", "Broadcast address.")
	fs.UintVar(&c.Reserve, "reserve", c.Reserve, "Reserve byte in frame header.")
	fs.StringVar(&c.TransportURL, "transport", c.TransportURL, "Transport URL.")
	fs.BoolVar(&c.Echo, "echo", c.Echo, "Receive own frames back from the wire.")
	fs.StringVar(&c.StatsURL, "stats", c.StatsURL, "MQTT URL to publish counters to.")
	fs.IntVar(&c.PayloadSize, "payload-size", c.PayloadSize, "Size of generated payloads in bytes.")
	fs.IntVar(&c.Count, "count", c.Count, "Number of frames to send, 0 for forever.")
	fs.DurationVar(&c.SendInterval, "send-interval", c.SendInterval, "Delay between sends.")
	fs.IntVar(&c.ReportEvery, "report-every", c.ReportEvery, "Log counters every N sends.")
	fs.DurationVar(&c.ReportInterval, "report-interval", c.ReportInterval, "Interval of counters reporting.")
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "TOML config file.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load creates a Config with default configurations and overlays the config
// file if specified. Flags explicitly set on command line take precedence
// over the file.
func Load() (*Config, error) {
	conf := NewConfig()
	if conf.ConfigFile == "" {
		return conf, nil
	}
	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})
	if err := conf.overlayFile(conf.ConfigFile, explicit); err != nil {
		return nil, err
	}
	return conf, nil
}

// MustLoad loads Config and fails on error.
func MustLoad() *Config {
	conf, err := Load()
	if err != nil {
		log.Fatalln(err)
	}
	return conf
}

// Validate checks the values which can't be represented on the wire.
func (c *Config) Validate() error {
	if c.Reserve > 0xff {
		return fmt.Errorf("invalid reserve byte: %d", c.Reserve)
	}
	if c.PayloadSize < 0 || c.PayloadSize > wire.MaxPayloadSize || c.PayloadSize&1 != 0 {
		return fmt.Errorf("invalid payload size %d: must be even and at most %d", c.PayloadSize, wire.MaxPayloadSize)
	}
	return nil
}

// Identity returns the node identity, deriving the self address from the
// machine id if configured so.
func (c *Config) Identity() (wire.Identity, error) {
	id := wire.Identity{Self: c.Self, Peer: c.Peer, Broadcast: c.Broadcast}
	if c.AutoSelf {
		addr, err := MachineAddress()
		if err != nil {
			return id, err
		}
		glog.Infof("self address %s derived from machine id", addr)
		id.Self = addr
	}
	return id, nil
}

// NewSession creates a session on the configured transport.
func (c *Config) NewSession() (*node.Session, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	id, err := c.Identity()
	if err != nil {
		return nil, err
	}
	t, err := c.NewTransport()
	if err != nil {
		return nil, err
	}
	s := node.NewSession(t, id)
	s.SetReserve(byte(c.Reserve))
	return s, nil
}

// MustNewSession creates a session and fails on error.
func (c *Config) MustNewSession() *node.Session {
	s, err := c.NewSession()
	if err != nil {
		log.Fatalln(err)
	}
	return s
}

func parseBaud(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	baud, err := strconv.Atoi(s)
	if err != nil || baud <= 0 {
		return 0, fmt.Errorf("invalid baud rate %q", s)
	}
	return baud, nil
}
