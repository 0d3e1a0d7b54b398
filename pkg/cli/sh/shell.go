// Package sh provides the ishell backed interactive console for
// poking at clocks over MQTT.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/satclock/satclock.go/pkg/telemetry"
	"github.com/satclock/satclock.go/pkg/telemetry/mqtt"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell *ishell.Shell
	Queue *mqtt.Queue

	lock     sync.Mutex
	clockID  string
	state    *telemetry.State
	stateCh  chan telemetry.State
	watchers int
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
	discoverWindow    = 500 * time.Millisecond
)

var (
	// flags

	mqttURL    = "mqtt://localhost:1883/"
	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	if val := os.Getenv("SATCLOCK_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(q *mqtt.Queue) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:   ishell.New(),
		Queue:   q,
		stateCh: make(chan telemetry.State, 16),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	q.Sub("clock/+/state", s.onState)
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).ClockID() == "" {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// clockIDFromTopic extracts <id> from clock/<id>/<suffix>.
func clockIDFromTopic(topic string) string {
	tokens := strings.Split(topic, "/")
	if len(tokens) != 3 || tokens[0] != "clock" {
		return ""
	}
	return tokens[1]
}

func (s *Shell) onState(topic string, payload []byte) {
	id := clockIDFromTopic(topic)
	s.lock.Lock()
	defer s.lock.Unlock()
	if id == "" || id != s.clockID {
		return
	}
	state, err := telemetry.DecodeState(payload)
	if err != nil {
		return
	}
	s.state = &state
	if s.watchers > 0 {
		select {
		case s.stateCh <- state:
		default:
		}
	}
}

// ClockID returns the currently connected clock's ID, empty if none.
func (s *Shell) ClockID() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.clockID
}

// State returns the last state seen from the connected clock.
func (s *Shell) State() *telemetry.State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// Watch diverts incoming states to a channel until stop is called.
func (s *Shell) Watch() (<-chan telemetry.State, func()) {
	s.lock.Lock()
	s.watchers++
	s.lock.Unlock()
	return s.stateCh, func() {
		s.lock.Lock()
		s.watchers--
		s.lock.Unlock()
	}
}

// Pub publishes on a topic under the connected clock.
func (s *Shell) Pub(suffix string, payload []byte) error {
	return s.Queue.Pub("clock/"+s.ClockID()+"/"+suffix, payload)
}

// DiscoverClocks collects announced clock IDs. Announcements are
// retained, so a short window after subscribing is enough.
func (s *Shell) DiscoverClocks() []string {
	seen := make(map[string]struct{})
	var lock sync.Mutex
	s.Queue.Sub("clock/+/meta", func(topic string, payload []byte) {
		if id := clockIDFromTopic(topic); id != "" {
			lock.Lock()
			seen[id] = struct{}{}
			lock.Unlock()
		}
	})
	time.Sleep(discoverWindow)
	lock.Lock()
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	lock.Unlock()
	sort.Strings(ids)
	return ids
}

// Connect selects a clock by ID.
func (s *Shell) Connect(id string) {
	s.lock.Lock()
	s.clockID = id
	s.state = nil
	s.lock.Unlock()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", id))
}

// Disconnect deselects the current clock.
func (s *Shell) Disconnect() {
	s.lock.Lock()
	s.clockID = ""
	s.state = nil
	s.lock.Unlock()
	s.Shell.SetPrompt(unconnectedPrompt)
}

// PrintState formats a state for display.
func (s *Shell) PrintState(c *ishell.Context, state telemetry.State) {
	if s.OutputJSON {
		out, err := json.Marshal(map[string]interface{}{
			"status":    state.Status.String(),
			"time":      fmt.Sprintf("%02d:%02d:%02d", state.Time.Hour, state.Time.Minute, state.Time.Second),
			"date":      fmt.Sprintf("%02d-%02d-%02d", state.Time.Year, state.Time.Month, state.Time.Day),
			"planes":    state.Planes[:],
			"intensity": state.Intensity,
			"drops":     state.Drops,
		})
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Printf("%-16s %02d:%02d:%02d intensity=%d drops=%d planes=% 02x\n",
		state.Status, state.Time.Hour, state.Time.Minute, state.Time.Second,
		state.Intensity, state.Drops, state.Planes[:])
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
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
	// DiscoverCmd discovers clocks.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ids := s.DiscoverClocks()
			if s.OutputJSON {
				out, err := json.Marshal(ids)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(ids) == 0 {
				c.Println("No clocks found")
				return
			}
			for _, id := range ids {
				c.Println(id)
			}
		},
	}

	// ConnectCmd selects a clock.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "ID",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var id string
			if len(c.Args) >= 1 {
				id = c.Args[0]
			} else {
				ids := s.DiscoverClocks()
				switch len(ids) {
				case 0:
					c.Err(fmt.Errorf("no clock discovered"))
					return
				case 1:
					id = ids[0]
				default:
					if !s.Interactive {
						c.Err(fmt.Errorf("more than 1 clocks discovered in non-interactive mode"))
						return
					}
					id = ids[s.Shell.MultiChoice(ids, "Which one to connect?")]
				}
			}
			s.Connect(id)
		},
	}

	// DisconnectCmd deselects the current clock.
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
	q, err := mqtt.NewQueue(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err = q.Connect(); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()
	New(q).Run(flag.Args()...)
}
