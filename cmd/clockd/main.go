package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/golang/glog"
	xws "golang.org/x/net/websocket"

	"github.com/satclock/satclock.go/pkg/brightness"
	"github.com/satclock/satclock.go/pkg/clock"
	"github.com/satclock/satclock.go/pkg/display"
	"github.com/satclock/satclock.go/pkg/framework"
	"github.com/satclock/satclock.go/pkg/hw/sim"
	"github.com/satclock/satclock.go/pkg/l0/nmea"
	"github.com/satclock/satclock.go/pkg/l0/ring"
	"github.com/satclock/satclock.go/pkg/l0/ubx"
	"github.com/satclock/satclock.go/pkg/telemetry"
	"github.com/satclock/satclock.go/pkg/telemetry/mqtt"
	"github.com/satclock/satclock.go/pkg/telemetry/stream"
	"github.com/satclock/satclock.go/pkg/telemetry/websocket"
)

var (
	mqttURL  = ""
	clockID  = ""
	tzOffset = 0
	gpsAddr  = ""
	wsAddr   = ""
	tcpAddr  = ""
	light    = 512
	noConfig = false
)

func init() {
	if val := os.Getenv("SATCLOCK_MQTT_URL"); val != "" {
		mqttURL = val
	}
	if val := os.Getenv("SATCLOCK_TZ"); val != "" {
		tzOffset, _ = strconv.Atoi(val)
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL, empty to disable.")
	flag.StringVar(&clockID, "id", clockID, "Clock ID, derived from the machine when empty.")
	flag.IntVar(&tzOffset, "tz", tzOffset, "Timezone offset in hours added to UTC.")
	flag.StringVar(&gpsAddr, "gps", gpsAddr, "Address of a TCP serial bridge to the GPS receiver.")
	flag.StringVar(&wsAddr, "ws", wsAddr, "Listen address for the websocket state feed.")
	flag.StringVar(&tcpAddr, "state-tcp", tcpAddr, "Listen address for the raw TCP state feed.")
	flag.IntVar(&light, "light", light, "Initial light sensor reading (0-1023).")
	flag.BoolVar(&noConfig, "no-config", noConfig, "Skip receiver configuration at startup.")
}

// stateFeed fans each state packet out to every connected websocket
// client, dropping clients whose connection failed.
type stateFeed struct {
	lock  sync.Mutex
	sinks []telemetry.PacketWriter
}

func (f *stateFeed) add(w telemetry.PacketWriter) {
	f.lock.Lock()
	f.sinks = append(f.sinks, w)
	f.lock.Unlock()
}

func (f *stateFeed) remove(w telemetry.PacketWriter) {
	f.lock.Lock()
	for i, s := range f.sinks {
		if s == w {
			f.sinks = append(f.sinks[:i], f.sinks[i+1:]...)
			break
		}
	}
	f.lock.Unlock()
}

// WritePacket implements telemetry.PacketWriter.
func (f *stateFeed) WritePacket(pkt []byte) error {
	f.lock.Lock()
	sinks := make([]telemetry.PacketWriter, len(f.sinks))
	copy(sinks, f.sinks)
	f.lock.Unlock()
	for _, s := range sinks {
		if err := s.WritePacket(pkt); err != nil {
			glog.V(2).Infof("state client gone: %v", err)
			f.remove(s)
		}
	}
	return nil
}

func main() {
	flag.Parse()

	serial := sim.NewSerial()
	bus := sim.NewBus()
	adc := sim.NewADC(uint16(light))
	queue := ring.New(ring.DefaultCapacity)
	disp := display.New(bus, &sync.Mutex{})

	runner := framework.NewRunner().HandleSignals()
	ctx := runner.Context

	if gpsAddr != "" {
		conn, err := net.Dial("tcp", gpsAddr)
		if err != nil {
			glog.Exitf("gps bridge: %v", err)
		}
		serial.OnSend = func(b byte) {
			if _, err := conn.Write([]byte{b}); err != nil {
				glog.Warningf("gps bridge write: %v", err)
			}
		}
		runner.Go(framework.NamedRun("gps-bridge", framework.RunFunc(
			func(ctx context.Context) error {
				return framework.RunWithContextCancel(ctx,
					func() { conn.Close() },
					func() error {
						buf := make([]byte, 256)
						for {
							n, err := conn.Read(buf)
							if err != nil {
								return err
							}
							serial.Inject(buf[:n])
						}
					})
			})))
	}

	if err := disp.Init(); err != nil {
		glog.Exitf("display init: %v", err)
	}
	if err := disp.Sweep(); err != nil {
		glog.Exitf("display sweep: %v", err)
	}

	// The receiver must be pumping before configuration: the encoder
	// reads its ACKs from the same queue.
	runner.Go(framework.NamedRun("receiver", &clock.Receiver{Conn: serial, Queue: queue}))

	if gpsAddr != "" && !noConfig {
		cfgCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		err := ubx.Configure(cfgCtx, ubx.NewEncoder(serial, queue))
		cancel()
		if err != nil {
			glog.Warningf("receiver configuration failed, continuing: %v", err)
		}
	}

	feed := &stateFeed{}
	reporter := telemetry.NewReporter(feed)
	reporter.Display = disp
	reporter.Queue = queue

	ctl := brightness.NewController(disp)
	reporter.Brightness = ctl

	clk := clock.New(nmea.NewDecoder(queue), disp, tzOffset)
	clk.Listener = reporter.Observe

	if mqttURL != "" {
		q, err := mqtt.NewQueue(mqttURL)
		if err != nil {
			glog.Exitf("broker: %v", err)
		}
		if err = q.Connect(); err != nil {
			glog.Exitf("broker: %v", err)
		}
		defer q.Close()
		station := mqtt.NewStation(q, clockID)
		glog.Infof("clock id %s", station.ID)
		station.HandleGPS(serial.Inject)
		station.HandleLight(adc.Set)
		if err = station.Announce(); err != nil {
			glog.Warningf("announce: %v", err)
		}
		feed.add(station)
	}

	if tcpAddr != "" {
		ln, err := net.Listen("tcp", tcpAddr)
		if err != nil {
			glog.Exitf("state feed: %v", err)
		}
		go func() {
			glog.Infof("state feed on tcp://%s", tcpAddr)
			for {
				conn, err := ln.Accept()
				if err != nil {
					glog.Exitf("state feed: %v", err)
				}
				feed.add(stream.New(conn))
			}
		}()
	}

	if wsAddr != "" {
		http.Handle("/state", xws.Handler(func(conn *xws.Conn) {
			w := websocket.New(conn)
			feed.add(w)
			defer feed.remove(w)
			// discard inbound frames until the client leaves
			for {
				if _, err := w.ReadPacket(); err != nil {
					return
				}
			}
		}))
		go func() {
			glog.Infof("state feed on ws://%s/state", wsAddr)
			glog.Exit(http.ListenAndServe(wsAddr, nil))
		}()
	}

	err := runner.Go(
		framework.NamedRun("sampler", &clock.Sampler{ADC: adc, Ctl: ctl}),
		framework.NamedRun("clock", clk),
		framework.NamedRun("telemetry", framework.NewLoop(time.Second).Add(reporter)),
	).Wait()
	if err != nil {
		glog.Exit(err)
	}
}
