package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"
	"net/http"

	"github.com/golang/glog"

	"github.com/robotalks/wirebus/pkg/transport/websocket"
)

var (
	listenAddr = ":8080"
	wirePath   = "/wire"
	echo       bool
)

func init() {
	flag.StringVar(&listenAddr, "listen", listenAddr, "Listening address.")
	flag.StringVar(&wirePath, "path", wirePath, "HTTP path of the wire.")
	flag.BoolVar(&echo, "echo", echo, "Relay frames back to the sender.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	hub := websocket.NewHub()
	hub.Echo = echo
	mux := http.NewServeMux()
	mux.Handle(wirePath, hub)
	glog.Infof("wire hub on %s%s", listenAddr, wirePath)
	if err := http.ListenAndServe(listenAddr, mux); err != nil {
		log.Fatalln(err)
	}
}
