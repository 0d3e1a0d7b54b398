// Package clock provides the console commands for driving a clock:
// feeding it GPS sentences and light readings and watching its state.
package clock

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/satclock/satclock.go/pkg/cli/sh"
	"github.com/satclock/satclock.go/pkg/telemetry/mqtt"
)

// sentence wraps an NMEA body with $, checksum and line ending.
func sentence(body string) []byte {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return []byte(fmt.Sprintf("$%s*%02X\r\n", body, sum))
}

// rmc builds a minimal RMC sentence carrying time and date.
func rmc(t time.Time, valid bool) []byte {
	status := "A"
	if !valid {
		status = "V"
	}
	body := fmt.Sprintf("GPRMC,%02d%02d%02d,%s,,,,,,,%02d%02d%02d,,,",
		t.Hour(), t.Minute(), t.Second(), status,
		t.Day(), int(t.Month()), t.Year()%100)
	return sentence(body)
}

var (
	// StateCmd prints the last seen state.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"s"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			state := s.State()
			if state == nil {
				c.Err(fmt.Errorf("no state seen yet"))
				return
			}
			s.PrintState(c, *state)
		}),
	}

	// WatchCmd prints states as they arrive.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[SECONDS]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			seconds := 10
			if len(c.Args) > 0 {
				val, err := strconv.Atoi(c.Args[0])
				if err != nil || val <= 0 {
					c.Err(fmt.Errorf("Invalid SECONDS: %q", c.Args[0]))
					return
				}
				seconds = val
			}
			s := sh.ShellFrom(c)
			states, stop := s.Watch()
			defer stop()
			deadline := time.After(time.Duration(seconds) * time.Second)
			for {
				select {
				case state := <-states:
					s.PrintState(c, state)
				case <-deadline:
					return
				}
			}
		}),
	}

	// TimeCmd feeds the clock one timestamped fix.
	TimeCmd = ishell.Cmd{
		Name:    "gps.time",
		Aliases: []string{"t"},
		Help:    "[HH:MM:SS]  (UTC now when omitted)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			t := time.Now().UTC()
			if len(c.Args) > 0 {
				var h, m, s int
				if _, err := fmt.Sscanf(c.Args[0], "%d:%d:%d", &h, &m, &s); err != nil {
					c.Err(fmt.Errorf("Invalid time: %v", err))
					return
				}
				t = time.Date(t.Year(), t.Month(), t.Day(), h, m, s, 0, time.UTC)
			}
			if err := sh.ShellFrom(c).Pub(mqtt.TopicGPS, rmc(t, true)); err != nil {
				c.Err(err)
			}
		}),
	}

	// NoFixCmd feeds the clock a fixless sentence.
	NoFixCmd = ishell.Cmd{
		Name: "gps.nofix",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if err := sh.ShellFrom(c).Pub(mqtt.TopicGPS, rmc(time.Now().UTC(), false)); err != nil {
				c.Err(err)
			}
		}),
	}

	// RawCmd feeds the clock an arbitrary sentence body. The $,
	// checksum and CRLF are added.
	RawCmd = ishell.Cmd{
		Name: "gps.raw",
		Help: "BODY  (e.g. GPRMC,093045,A,,,,,,,010926,,,)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("BODY required"))
				return
			}
			if err := sh.ShellFrom(c).Pub(mqtt.TopicGPS, sentence(c.Args[0])); err != nil {
				c.Err(err)
			}
		}),
	}

	// LightCmd sets the simulated light sensor reading.
	LightCmd = ishell.Cmd{
		Name:    "light",
		Aliases: []string{"b"},
		Help:    "VALUE(0-1023)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("VALUE required"))
				return
			}
			val, err := strconv.ParseUint(c.Args[0], 10, 16)
			if err != nil || val > 1023 {
				c.Err(fmt.Errorf("Invalid VALUE: %q", c.Args[0]))
				return
			}
			if err := sh.ShellFrom(c).Pub(mqtt.TopicLight, []byte(c.Args[0])); err != nil {
				c.Err(err)
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&StateCmd,
		&WatchCmd,
		&TimeCmd,
		&NoFixCmd,
		&RawCmd,
		&LightCmd,
	)
}
