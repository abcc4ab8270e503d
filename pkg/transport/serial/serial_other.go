//go:build !linux && !darwin

// Package serial opens a UART in raw 8N1 mode for the stream transport.
package serial

import (
	"errors"
	"time"
)

// DefaultBaudRate is used when Config.BaudRate is 0.
const DefaultBaudRate = 115200

// ErrUnsupported is returned by Open on platforms without termios.
var ErrUnsupported = errors.New("serial: unsupported platform")

// Config holds serial port configuration.
type Config struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration
}

// Port is an open serial port.
type Port struct{}

// Open always fails on this platform.
func Open(cfg Config) (*Port, error) {
	return nil, ErrUnsupported
}

// Read implements io.Reader.
func (p *Port) Read(buf []byte) (int, error) { return 0, ErrUnsupported }

// Write implements io.Writer.
func (p *Port) Write(buf []byte) (int, error) { return 0, ErrUnsupported }

// Close implements io.Closer.
func (p *Port) Close() error { return nil }
