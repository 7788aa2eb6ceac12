// Command ir-receiver decodes IR remote-control frames from a GPIO demodulator
// and publishes key presses to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/sweeney/ir-receiver/internal/gpio"
	"github.com/sweeney/ir-receiver/internal/logic"
	"github.com/sweeney/ir-receiver/internal/mqtt"
	"github.com/sweeney/ir-receiver/internal/rc"
	"github.com/sweeney/ir-receiver/internal/receiver"
	"github.com/sweeney/ir-receiver/internal/status"
	"github.com/sweeney/ir-receiver/internal/web"
)

// defaultSampleClock is the CIR sample clock: 24MHz divided by 512.
const defaultSampleClock = 46875 * physic.Hertz

type options struct {
	chip        string
	line        int
	activeLow   bool
	sampleClock physic.Frequency
	idle        time.Duration
	fifo        int
	poll        time.Duration
	protocols   int
	addr        string
	powerKey    string
	broker      string
	heartbeat   time.Duration
	httpAddr    string
	wsBroker    string
	printLevel  bool
}

func main() {
	o := options{sampleClock: defaultSampleClock}

	flag.StringVar(&o.chip, "chip", gpio.DefaultChip, "GPIO chip the IR demodulator is wired to")
	flag.IntVar(&o.line, "line", gpio.DefaultLine, "GPIO line offset of the IR demodulator output")
	flag.BoolVar(&o.activeLow, "active-low", true, "Demodulator pulls the line low during a mark")
	flag.Var(&o.sampleClock, "sample-clock", "Sample clock; one FIFO tick is one period")
	flag.DurationVar(&o.idle, "idle", gpio.DefaultIdle, "Quiet time that ends a frame")
	flag.IntVar(&o.fifo, "fifo", gpio.DefaultFIFOSize, "FIFO size in bytes")
	flag.DurationVar(&o.poll, "poll", 10*time.Millisecond, "FIFO service interval")
	flag.IntVar(&o.protocols, "protocols", logic.SelectRC5AndNEC, "Protocol selector: 0=NEC, 1=RC5, 2=RC5+NEC")
	flag.StringVar(&o.addr, "addr", "", "Comma-separated remote addresses to accept (empty accepts all)")
	flag.StringVar(&o.powerKey, "power-key", "", "Comma-separated command codes reported as KEY_POWER")
	flag.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&o.wsBroker, "ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)
	flag.BoolVar(&o.printLevel, "print-level", false, "Print the current IR line level and exit")

	flag.Parse()

	o.wsBroker = resolveWSBroker(o.wsBroker, o.broker)
	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	allowed, err := logic.ProtocolSetFromSelector(o.protocols)
	if err != nil {
		return fmt.Errorf("parse -protocols: %w", err)
	}
	keymap, err := buildKeymap(o.addr, o.powerKey)
	if err != nil {
		return err
	}
	unit := o.sampleClock.Period()
	if unit <= 0 {
		return fmt.Errorf("sample clock %s too fast", o.sampleClock)
	}

	// Initialize GPIO
	reader, err := gpio.NewRealReader(gpio.Config{
		Chip:      o.chip,
		Line:      o.line,
		ActiveLow: o.activeLow,
		Sampler: gpio.SamplerConfig{
			Unit:     unit,
			Idle:     o.idle,
			Capacity: o.fifo,
		},
	})
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	// Print level mode
	if o.printLevel {
		mark, err := reader.Level()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("IR line: %s\n", levelString(mark))
		return nil
	}

	rx := receiver.New(receiver.Config{
		Decoder: logic.Config{Unit: unit, Allowed: allowed},
		Keymap:  keymap,
	})

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(o.broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Chip:        o.chip,
		Line:        o.line,
		ActiveLow:   o.activeLow,
		SampleClock: o.sampleClock.String(),
		UnitNs:      unit.Nanoseconds(),
		IdleMs:      o.idle.Milliseconds(),
		FIFOSize:    o.fifo,
		PollMs:      o.poll.Milliseconds(),
		Protocols:   allowed.String(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Broker:      o.broker,
		HTTPPort:    o.httpAddr,
		WSBroker:    o.wsBroker,
	})
	tracker.SetMQTTConnected(publisher.IsConnected())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	log.Printf("started: %s line %d clock=%s unit=%v idle=%v fifo=%d protocols=%s broker=%s heartbeat=%v",
		o.chip, o.line, o.sampleClock, unit, o.idle, o.fifo, allowed, o.broker, o.heartbeat)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reader, rx, publisher, publisher, tracker, o.heartbeat, time.Now, ticker.C, sigCh)
}

// runLoop services the FIFO on every tick, publishes decoded keys and
// heartbeats, and publishes SHUTDOWN on the first signal.
func runLoop(reader gpio.Reader, rx *receiver.Receiver, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	refresh := func() {
		if tracker == nil {
			return
		}
		tracker.Update(rx.Counts(), rx.LastKey(), rx.State())
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				refresh()
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			it, err := reader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			if !it.Empty() {
				res := rx.Handle(it, t)
				if res.Overflow {
					log.Printf("fifo overflow: frame abandoned, %d events discarded", res.Discarded)
				}
				if res.Err != nil {
					log.Printf("decode: %v", res.Err)
				}
				for _, key := range res.Keys {
					log.Printf("key: %s %s (%s)", key.Type(), key.Key.Name, key.Scancode)
					if err := publisher.Publish(key); err != nil {
						log.Printf("publish error: %v", err)
						// Don't crash on publish failure
					}
				}
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				c := rx.Counts()
				log.Printf("heartbeat: frames=%d keys=%d repeats=%d errors=%d overflows=%d",
					c.Frames, c.Keys, c.Repeats, c.DecodeErrors, c.Overflows)

				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					refresh()
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			refresh()
		}
	}
}

func buildKeymap(addr, powerKey string) (rc.Keymap, error) {
	addresses, err := rc.ParseAddresses(addr)
	if err != nil {
		return rc.Keymap{}, fmt.Errorf("parse -addr: %w", err)
	}
	power, err := rc.ParseCommands(powerKey)
	if err != nil {
		return rc.Keymap{}, fmt.Errorf("parse -power-key: %w", err)
	}
	return rc.Keymap{Addresses: addresses, PowerKeys: power}, nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func levelString(mark bool) string {
	if mark {
		return "MARK"
	}
	return "SPACE"
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
