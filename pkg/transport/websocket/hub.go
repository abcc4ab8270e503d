package websocket

import (
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// Hub relays every packet received from a connection to all connections,
// acting as the shared wire.
type Hub struct {
	// Echo also relays packets back to the sender.
	Echo bool

	lock  sync.RWMutex
	conns map[*ReadWriter]*sync.Mutex
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*ReadWriter]*sync.Mutex)}
}

// ServeHTTP implements http.Handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(h.serveConn).ServeHTTP(w, r)
}

// Conns returns the number of connected nodes.
func (h *Hub) Conns() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.conns)
}

func (h *Hub) serveConn(conn *websocket.Conn) {
	rw := New(conn)
	h.lock.Lock()
	h.conns[rw] = &sync.Mutex{}
	h.lock.Unlock()
	glog.Infof("node connected: %s", conn.Request().RemoteAddr)

	defer func() {
		h.lock.Lock()
		delete(h.conns, rw)
		h.lock.Unlock()
		glog.Infof("node disconnected: %s", conn.Request().RemoteAddr)
	}()

	for {
		pkt, err := rw.ReadPacket()
		if err != nil {
			glog.V(2).Infof("read error %s: %v", conn.Request().RemoteAddr, err)
			return
		}
		h.relay(rw, pkt)
	}
}

func (h *Hub) relay(from *ReadWriter, pkt []byte) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	for rw, lock := range h.conns {
		if rw == from && !h.Echo {
			continue
		}
		lock.Lock()
		err := rw.WritePacket(pkt)
		lock.Unlock()
		if err != nil {
			glog.Warningf("relay error: %v", err)
		}
	}
}
