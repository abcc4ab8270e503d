package bus

import (
	"context"
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/wirebus/pkg/cli/sh"
	"github.com/robotalks/wirebus/pkg/node"
	"github.com/robotalks/wirebus/pkg/wire"
)

var (
	// SendCmd sends a frame to an address.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "DEST [PAYLOAD(hex)...]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("DEST required"))
				return
			}
			dest, err := wire.ParseAddress(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			payload, err := sh.ParsePayload(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoSend(c, func(s *node.Session) error {
				return s.Send(dest, payload)
			})
		}),
	}

	// PeerCmd sends a frame to the configured peer.
	PeerCmd = ishell.Cmd{
		Name:    "peer",
		Aliases: []string{"p"},
		Help:    "[PAYLOAD(hex)...]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			payload, err := sh.ParsePayload(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoSend(c, func(s *node.Session) error {
				return s.SendPeer(payload)
			})
		}),
	}

	// BroadcastCmd sends a frame to the broadcast group.
	BroadcastCmd = ishell.Cmd{
		Name:    "broadcast",
		Aliases: []string{"b"},
		Help:    "[PAYLOAD(hex)...]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			payload, err := sh.ParsePayload(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoSend(c, func(s *node.Session) error {
				return s.Broadcast(payload)
			})
		}),
	}

	// EncodeCmd prints the packet and stuffed bytes of a frame without sending.
	EncodeCmd = ishell.Cmd{
		Name:    "encode",
		Aliases: []string{"enc"},
		Help:    "DEST [PAYLOAD(hex)...]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("DEST required"))
				return
			}
			dest, err := wire.ParseAddress(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			payload, err := sh.ParsePayload(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			reserve := wire.DefaultReserve
			if s := sh.ShellFrom(c); s.Node != nil {
				reserve = s.Node.Session.Reserve()
			}
			words, err := wire.EncodePacket(nil, dest, reserve, payload)
			if err != nil {
				c.Err(err)
				return
			}
			stuffed, bits := wire.Stuff(nil, words)
			c.Printf("packet:  % x\n", wire.PacketBytes(words))
			c.Printf("stuffed: % x (%d bits)\n", stuffed, bits)
		},
	}

	// WaitCmd waits until the transmitter is idle.
	WaitCmd = ishell.Cmd{
		Name:    "wait",
		Aliases: []string{"w"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			ctx, cancel := context.WithTimeout(sh.ShellFrom(c).Node.Ctx, sh.DefaultWaitTimeout)
			defer cancel()
			if err := sh.SessionFrom(c).WaitIdle(ctx); err != nil {
				c.Err(err)
				return
			}
			c.Println("idle")
		}),
	}
)

func init() {
	sh.AddCmds(
		&SendCmd,
		&PeerCmd,
		&BroadcastCmd,
		&EncodeCmd,
		&WaitCmd,
	)
}
