// Package websocket carries stuffed frames as websocket messages and
// provides a hub relaying frames between all connected nodes.
package websocket

import (
	"net/url"

	"golang.org/x/net/websocket"
)

// ReadWriter implements packet.ReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// Dial connects to a hub.
func Dial(hubURL string) (*ReadWriter, error) {
	u, err := url.Parse(hubURL)
	if err != nil {
		return nil, err
	}
	origin := *u
	origin.Scheme, origin.Path = "http", "/"
	if u.Scheme == "wss" {
		origin.Scheme = "https"
	}
	conn, err := websocket.Dial(u.String(), "", origin.String())
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadPacket implements packet.Reader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements packet.Writer.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}
