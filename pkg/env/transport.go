package env

import (
	"fmt"
	"log"
	"net"
	"net/url"

	"github.com/robotalks/wirebus/pkg/node"
	"github.com/robotalks/wirebus/pkg/transport/loopback"
	"github.com/robotalks/wirebus/pkg/transport/mqtt"
	"github.com/robotalks/wirebus/pkg/transport/packet"
	"github.com/robotalks/wirebus/pkg/transport/serial"
	"github.com/robotalks/wirebus/pkg/transport/stream"
	"github.com/robotalks/wirebus/pkg/transport/websocket"
)

// NewTransport creates the Transport by TransportURL. Transports which
// need background processing implement framework.Runnable.
func (c *Config) NewTransport() (node.Transport, error) {
	u, err := url.Parse(c.TransportURL)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URL: %w", err)
	}
	switch u.Scheme {
	case "loopback":
		w := loopback.Named(u.Host)
		if c.Echo {
			w.Echo = true
		}
		return w.Open(), nil
	case "serial":
		baud, err := parseBaud(u.Query().Get("baud"))
		if err != nil {
			return nil, err
		}
		port, err := serial.Open(serial.Config{Device: u.Path, BaudRate: baud})
		if err != nil {
			return nil, err
		}
		return stream.New(port), nil
	case "tcp":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", u.Host, err)
		}
		return stream.New(conn), nil
	case "mqtt", "ssl", "tls", "mqtts":
		q, err := c.connectQueue(c.TransportURL)
		if err != nil {
			return nil, err
		}
		rw := mqtt.NewReadWriter(q, "")
		rw.Echo = c.Echo
		return packet.New(rw), nil
	case "ws", "wss":
		rw, err := websocket.Dial(c.TransportURL)
		if err != nil {
			return nil, fmt.Errorf("connect hub %s: %w", c.TransportURL, err)
		}
		return packet.New(rw), nil
	default:
		return nil, fmt.Errorf("unknown transport URL scheme: %q", u.Scheme)
	}
}

// MustNewTransport creates a Transport and fails on error.
func (c *Config) MustNewTransport() node.Transport {
	t, err := c.NewTransport()
	if err != nil {
		log.Fatalln(err)
	}
	return t
}

// NewStatsPublisher creates a publisher if StatsURL is set, otherwise nil.
func (c *Config) NewStatsPublisher() (node.StatsPublisher, error) {
	if c.StatsURL == "" {
		return nil, nil
	}
	q, err := c.connectQueue(c.StatsURL)
	if err != nil {
		return nil, err
	}
	return &mqtt.StatsPublisher{Queue: q}, nil
}

// connectQueue connects to the MQTT broker of the url.
func (c *Config) connectQueue(brokerURL string) (*mqtt.Queue, error) {
	q, err := mqtt.NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if err := q.Connect(); err != nil {
		return nil, fmt.Errorf("connect mqtt %s: %w", brokerURL, err)
	}
	return q, nil
}
