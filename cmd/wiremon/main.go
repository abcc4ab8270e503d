package main

import (
	"flag"
	"log"
	"os"

	"github.com/robotalks/wirebus/pkg/transport/mqtt"
	"github.com/robotalks/wirebus/pkg/wire"
)

var (
	mqttURL = "mqtt://localhost:1883/wirebus/"
)

func init() {
	if val := os.Getenv("WIREBUS_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}

	q.Sub(mqtt.BusTopic, func(topic string, payload []byte) {
		envelope, err := mqtt.DecodeEnvelope(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		frame, err := wire.DecodeFrame(wire.Unstuff(nil, envelope.Frame))
		if err != nil {
			log.Printf("%s: [%s] % x: %v", topic, envelope.Sender, envelope.Frame, err)
			return
		}
		log.Printf("%s: [%s] %s", topic, envelope.Sender, frame)
	})
	q.Sub(mqtt.StatsTopicPattern, func(topic string, payload []byte) {
		stats, err := mqtt.DecodeNodeStats(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: %s %s", topic, stats.Identity().Self, stats.Stats())
	})
	<-(chan struct{})(nil)
}
