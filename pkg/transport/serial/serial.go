//go:build linux || darwin

// Package serial opens a UART in raw 8N1 mode for the stream transport.
package serial

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultBaudRate is used when Config.BaudRate is 0.
const DefaultBaudRate = 115200

// ErrClosed indicates the port is closed.
var ErrClosed = errors.New("serial: port closed")

type timeoutError struct{}

func (timeoutError) Error() string { return "serial: read timeout" }
func (timeoutError) Timeout() bool { return true }

// ErrTimeout is returned by Read when no data arrives within ReadTimeout.
// It satisfies os.IsTimeout.
var ErrTimeout error = timeoutError{}

// Config holds serial port configuration.
type Config struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration
}

// Port is an open serial port.
type Port struct {
	lock       sync.Mutex
	fd         int
	config     Config
	closed     bool
	oldTermios *unix.Termios
}

// Open opens and configures a serial port.
func Open(cfg Config) (*Port, error) {
	if cfg.Device == "" {
		return nil, errors.New("serial: device path required")
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 100 * time.Millisecond
	}
	speed, err := baudRateToSpeed(cfg.BaudRate)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Device, err)
	}
	oldTermios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: get termios: %w", err)
	}

	termios := *oldTermios
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	termios.Oflag &^= unix.OPOST
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB
	termios.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	setSpeed(&termios, speed)
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &termios); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: set termios: %w", err)
	}
	if err := unix.SetNonblock(fd, false); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: set blocking: %w", err)
	}
	return &Port{fd: fd, config: cfg, oldTermios: oldTermios}, nil
}

// Device returns the device path.
func (p *Port) Device() string {
	return p.config.Device
}

// Read implements io.Reader. It returns ErrTimeout when nothing is received
// within the read timeout.
func (p *Port) Read(buf []byte) (int, error) {
	p.lock.Lock()
	if p.closed {
		p.lock.Unlock()
		return 0, ErrClosed
	}
	fd, timeout := p.fd, p.config.ReadTimeout
	p.lock.Unlock()

	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(pfd, int(timeout.Milliseconds()))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, ErrTimeout
		}
		return 0, fmt.Errorf("serial: poll: %w", err)
	}
	if n == 0 {
		return 0, ErrTimeout
	}
	if pfd[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
		return 0, io.EOF
	}
	n, err = unix.Read(fd, buf)
	if err != nil {
		return 0, fmt.Errorf("serial: read: %w", err)
	}
	return n, nil
}

// Write implements io.Writer. It returns once all bytes are queued.
func (p *Port) Write(buf []byte) (int, error) {
	p.lock.Lock()
	if p.closed {
		p.lock.Unlock()
		return 0, ErrClosed
	}
	fd := p.fd
	p.lock.Unlock()

	written := 0
	for written < len(buf) {
		n, err := unix.Write(fd, buf[written:])
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return written, fmt.Errorf("serial: write: %w", err)
		}
		written += n
	}
	return written, nil
}

// Close restores the original settings and closes the port.
func (p *Port) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.oldTermios != nil {
		unix.IoctlSetTermios(p.fd, ioctlSetTermios, p.oldTermios)
	}
	return unix.Close(p.fd)
}

func baudRateToSpeed(baud int) (uint32, error) {
	if speed, ok := speeds[baud]; ok {
		return speed, nil
	}
	return 0, fmt.Errorf("serial: unsupported baud rate %d", baud)
}
