package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/wirebus/pkg/env"
	fx "github.com/robotalks/wirebus/pkg/framework"
	"github.com/robotalks/wirebus/pkg/node"
	"github.com/robotalks/wirebus/pkg/wire"
)

var (
	listenOnly  bool
	toBroadcast bool
	printFrames bool
)

func init() {
	env.SetupFlags()
	flag.BoolVar(&listenOnly, "listen", listenOnly, "Receive only, don't send frames.")
	flag.BoolVar(&toBroadcast, "to-broadcast", toBroadcast, "Send frames to broadcast address instead of peer.")
	flag.BoolVar(&printFrames, "print", printFrames, "Print received frames.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.MustLoad()
	sess := conf.MustNewSession()
	if printFrames {
		sess.Handler = node.HandleFrameFunc(func(f *wire.Frame) {
			log.Printf("< %s", f)
		})
	}
	publisher, err := conf.NewStatsPublisher()
	if err != nil {
		log.Fatalln(err)
	}

	runner := fx.NewRunner().HandleSignals()
	if runnable, ok := sess.Transport.(fx.Runnable); ok {
		runner.Go(fx.NamedRun("transport", runnable))
	}
	runner.Go(&node.Reporter{
		Session:   sess,
		Interval:  conf.ReportInterval,
		Publisher: publisher,
	})
	if !listenOnly {
		id := sess.Identity()
		dest := id.Peer
		if toBroadcast {
			dest = id.Broadcast
		}
		producer := node.NewProducer(sess, dest)
		producer.Payload = node.NewRandomPayload(conf.PayloadSize, time.Now().UnixNano())
		producer.Count = conf.Count
		producer.Interval = conf.SendInterval
		producer.ReportEvery = conf.ReportEvery
		glog.Infof("node %s sending to %s", id.Self, dest)
		runner.Go(producer)
	}
	err = runner.Wait()
	glog.Infof("node stopped: %s", sess.Stats())
	if err != nil {
		glog.Flush()
		log.Fatalln(err)
	}
}
