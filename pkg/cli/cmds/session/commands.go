package session

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/wirebus/pkg/cli/sh"
	"github.com/robotalks/wirebus/pkg/wire"
)

type identityView wire.Identity

func (v identityView) String() string {
	return fmt.Sprintf("self=%s peer=%s broadcast=%s", v.Self, v.Peer, v.Broadcast)
}

var (
	// StatsCmd prints session counters.
	StatsCmd = ishell.Cmd{
		Name:    "stats",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.Output(c, sh.SessionFrom(c).Stats())
		}),
	}

	// IdentityCmd prints the node addresses.
	IdentityCmd = ishell.Cmd{
		Name:    "identity",
		Aliases: []string{"id"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.Output(c, identityView(sh.SessionFrom(c).Identity()))
		}),
	}

	// SetCmd changes one of the node addresses.
	SetCmd = ishell.Cmd{
		Name: "set",
		Help: "self|peer|broadcast ADDRESS",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("NAME and ADDRESS required"))
				return
			}
			addr, err := wire.ParseAddress(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			sess := sh.SessionFrom(c)
			id := sess.Identity()
			switch c.Args[0] {
			case "self":
				id.Self = addr
			case "peer":
				id.Peer = addr
			case "broadcast":
				id.Broadcast = addr
			default:
				c.Err(fmt.Errorf("unknown address name: %s", c.Args[0]))
				return
			}
			sess.SetIdentity(id)
			c.SetPrompt(fmt.Sprintf("%s > ", id.Self))
			sh.Output(c, identityView(id))
		}),
	}

	// ReserveCmd prints or changes the reserve byte.
	ReserveCmd = ishell.Cmd{
		Name: "reserve",
		Help: "[BYTE]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sess := sh.SessionFrom(c)
			if len(c.Args) > 0 {
				val, err := strconv.ParseUint(c.Args[0], 0, 8)
				if err != nil {
					c.Err(fmt.Errorf("Invalid BYTE: %v", err))
					return
				}
				sess.SetReserve(byte(val))
			}
			c.Printf("0x%02x\n", sess.Reserve())
		}),
	}
)

func init() {
	sh.AddCmds(
		&StatsCmd,
		&IdentityCmd,
		&SetCmd,
		&ReserveCmd,
	)
}
