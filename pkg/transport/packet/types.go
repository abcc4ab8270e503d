// Package packet adapts message oriented links to node.Transport.
package packet

// Reader reads packets in bytes.
type Reader interface {
	ReadPacket() ([]byte, error)
}

// Writer writes packets in bytes.
type Writer interface {
	WritePacket([]byte) error
}

// ReadWriter reads/writes packets in bytes.
type ReadWriter interface {
	Reader
	Writer
}
