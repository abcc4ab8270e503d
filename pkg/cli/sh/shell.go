package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/wirebus/pkg/env"
	fx "github.com/robotalks/wirebus/pkg/framework"
	"github.com/robotalks/wirebus/pkg/node"
	"github.com/robotalks/wirebus/pkg/wire"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *env.Config
	Node   *NodeLoop
}

// NodeLoop is a session with its transport running in background.
type NodeLoop struct {
	Ctx     context.Context
	Cancel  func()
	Session *node.Session
	Runner  *fx.Runner
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "

	// DefaultWaitTimeout bounds waiting for a transmit to complete.
	DefaultWaitTimeout = time.Second
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// SessionFrom gets the connected session from ishell context.
func SessionFrom(c *ishell.Context) *node.Session {
	return ShellFrom(c).Node.Session
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Node == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// ParsePayload parses payload bytes from hex arguments. Arguments are
// concatenated, so "1335 5678" and "13355678" are the same payload.
func ParsePayload(args []string) ([]byte, error) {
	str := strings.Join(args, "")
	str = strings.TrimPrefix(str, "0x")
	payload, err := hex.DecodeString(str)
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %v", err)
	}
	if len(payload) > wire.MaxPayloadSize || len(payload)&1 != 0 {
		return nil, fmt.Errorf("invalid payload: %d bytes, must be even and at most %d",
			len(payload), wire.MaxPayloadSize)
	}
	return payload, nil
}

// Output prints v either in JSON or with its String method.
func Output(c *ishell.Context, v fmt.Stringer) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(v.String())
}

// DoSend sends a frame and waits until it's transmitted.
func DoSend(c *ishell.Context, send func(*node.Session) error) error {
	sess := SessionFrom(c)
	ctx, cancel := context.WithTimeout(ShellFrom(c).Node.Ctx, DefaultWaitTimeout)
	defer cancel()
	if err := sess.WaitIdle(ctx); err != nil {
		c.Err(fmt.Errorf("transmit busy: %v", err))
		return err
	}
	if err := send(sess); err != nil {
		c.Err(err)
		return err
	}
	if err := sess.WaitIdle(ctx); err != nil {
		c.Err(fmt.Errorf("transmit timeout: %v", err))
		return err
	}
	c.Println("OK")
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect creates a session on the configured transport.
func (s *Shell) Connect() error {
	sess, err := s.Config.NewSession()
	if err != nil {
		return err
	}
	sess.Handler = node.HandleFrameFunc(func(f *wire.Frame) {
		s.Shell.Printf("< %s\n", f)
	})
	loop := &NodeLoop{Session: sess}
	loop.Ctx, loop.Cancel = context.WithCancel(context.Background())
	loop.Runner = fx.NewRunnerWith(loop.Ctx)
	if runnable, ok := sess.Transport.(fx.Runnable); ok {
		loop.Runner.Go(runnable)
	}
	s.Disconnect()
	s.Node = loop
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", sess.Identity().Self))
	return nil
}

// Disconnect stops the current session.
func (s *Shell) Disconnect() {
	if s.Node == nil {
		return
	}
	s.Node.Cancel()
	if len(s.Node.Runner.Runners) > 0 {
		if err := s.Node.Runner.Wait(); err != nil {
			glog.Warningf("transport stopped: %v", err)
		}
	}
	if closer, ok := s.Node.Session.Transport.(io.Closer); ok {
		closer.Close()
	}
	s.Node = nil
	s.Shell.SetPrompt(unconnectedPrompt)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.TransportURL)
		}
		if err := s.Connect(); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.TransportURL, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd connects the node to the configured transport.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TRANSPORT-URL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				s.Config.TransportURL = c.Args[0]
			}
			if err := s.Connect(); err != nil {
				c.Err(err)
				return
			}
		},
	}

	// DisconnectCmd disconnects the node.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.MustLoad()).WithAutoConnect(true).Run(flag.Args()...)
}
