// Command grid-status tracks mains grid power, serves the outage dashboard
// and publishes grid transitions to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/grid-status/internal/config"
	"github.com/sweeney/grid-status/internal/gpio"
	"github.com/sweeney/grid-status/internal/logic"
	"github.com/sweeney/grid-status/internal/mqtt"
	"github.com/sweeney/grid-status/internal/source"
	"github.com/sweeney/grid-status/internal/status"
	"github.com/sweeney/grid-status/internal/timeline"
	"github.com/sweeney/grid-status/internal/web"
)

// refreshTimeout bounds a single upstream query.
const refreshTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:], nil)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	l := loop{
		heartbeat: cfg.Heartbeat,
		now:       time.Now,
		debounce:  cfg.Debounce,
	}

	switch cfg.Source {
	case config.SourceGPIO:
		reader, err := gpio.NewRealReader(cfg.GPIOChip, cfg.GPIOPin, cfg.GPIOActiveOn)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer reader.Close()

		if cfg.PrintState {
			on, err := reader.Read()
			if err != nil {
				return fmt.Errorf("read gpio: %w", err)
			}
			fmt.Printf("grid: %s\n", stateString(on))
			return nil
		}

		local := source.NewLocal(cfg.EntityID, 0, 0, nil)
		l.src, l.reader, l.local = local, reader, local
	default:
		l.src = source.NewHASS(cfg.HABaseURL, cfg.HAToken, cfg.EntityID, nil)

		if cfg.PrintState {
			return printState(l.src)
		}
	}

	// Initialize MQTT
	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = noopPublisher{}
	if cfg.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.Broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher = p
	}
	defer publisher.Close()
	l.publisher, l.mqttStatus = publisher, publisher

	// Initialize status tracker (before STARTUP so snapshot is available)
	l.tracker = status.NewTracker(time.Now(), status.Config{
		Source:      cfg.Source,
		EntityID:    cfg.EntityID,
		RefreshMs:   cfg.Refresh.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		DebounceMs:  debounceMs(cfg),
		Broker:      cfg.Broker,
		HTTPPort:    cfg.Addr(),
		Timezone:    loc.String(),
	})
	l.tracker.SetMQTTConnected(publisher.IsConnected())
	if p, ok := publisher.(*mqtt.RealPublisher); ok {
		p.SetStatusPayload(func(event string) []byte {
			l.tracker.SetMQTTConnected(true)
			return status.FormatStatusEvent(l.tracker.Snapshot(), event, "")
		})
	}

	snap := l.tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else if cfg.Broker != "" {
		log.Printf("published startup event")
	}

	srv := web.New(cfg.Addr(), l.tracker, l.src, web.Options{
		Location:  loc,
		Refresh:   cfg.Refresh,
		AccessLog: os.Stdout,
	})
	l.hub = srv.Hub()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()
	log.Printf("http server listening on %s", cfg.Addr())

	log.Printf("started: %s", cfg)

	refresh := time.NewTicker(cfg.Refresh)
	defer refresh.Stop()

	var poll <-chan time.Time
	if l.reader != nil {
		pt := time.NewTicker(cfg.Poll)
		defer pt.Stop()
		poll = pt.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(l, refresh.C, poll, sigCh)
}

// broadcaster pushes transitions to live dashboard clients.
type broadcaster interface {
	Broadcast(web.LiveUpdate)
}

// loop holds the collaborators of runLoop. reader and local are set only
// for the gpio source.
type loop struct {
	src        source.Source
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	hub        broadcaster
	heartbeat  time.Duration
	now        func() time.Time

	reader   gpio.Reader
	local    *source.Local
	debounce time.Duration
}

// runLoop refreshes the grid state on every refresh tick and, for the gpio
// source, samples the input on every poll tick. It returns after publishing
// SHUTDOWN when a signal arrives.
func runLoop(l loop, refresh, poll <-chan time.Time, sig <-chan os.Signal) error {
	startTime := l.now()
	watcher := logic.NewWatcher(startTime)

	var detector *logic.Detector
	if l.reader != nil {
		detector = logic.NewDetector(l.debounce, startTime)
	}

	l.observe(watcher)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			reason := signalName(s)
			l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
			snap := l.tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  l.now(),
				Event:      "SHUTDOWN",
				Reason:     reason,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
			}
			if err := l.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-poll:
			t := l.now()
			on, err := l.reader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			wasBaselined := detector.IsBaselined()
			event := detector.Process(logic.Input{On: on, Time: t})

			if !wasBaselined && detector.IsBaselined() {
				state, since := detector.CurrentState()
				log.Printf("gpio: baseline %s", state)
				l.local.Record(state.Label(), since)
				l.observe(watcher)
			}
			if event != nil {
				l.local.Record(event.State.Label(), event.Since)
				l.observe(watcher)
			}

		case <-refresh:
			l.observe(watcher)
		}
	}
}

// observe queries the source once, feeds the watcher and fans out any
// transition to MQTT and live clients.
func (l loop) observe(watcher *logic.Watcher) {
	t := l.now()

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	st, err := l.src.Current(ctx)
	cancel()

	var current *timeline.CurrentSnapshot
	var friendlyName string
	if err != nil {
		log.Printf("refresh: %s: %v", l.src.Name(), err)
	} else if st != nil {
		current = &st.Snapshot
		friendlyName = st.FriendlyName
	}
	l.tracker.RecordRefresh(t, current, friendlyName, err)

	wasBaselined := watcher.IsBaselined()
	if event := watcher.Observe(current, t); event != nil {
		log.Printf("event: %s (since %s)", event.Type, event.Since.Format(time.RFC3339))
		if err := l.publisher.Publish(*event); err != nil {
			log.Printf("publish error: %v", err)
		}
		l.hub.Broadcast(web.NewLiveUpdate(event.State.Label(), event.Since))
	} else if !wasBaselined && watcher.IsBaselined() {
		state, since := watcher.CurrentState()
		log.Printf("baseline: grid %s since %s", state, since.Format(time.RFC3339))
	}

	l.tracker.Update(watcher.IsBaselined(), watcher.EventCountsSnapshot())
	l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())

	if hbData := watcher.CheckHeartbeat(t, l.heartbeat); hbData != nil {
		log.Printf("heartbeat: uptime=%v grid_on=%d grid_off=%d",
			hbData.Uptime, hbData.Counts.On, hbData.Counts.Off)

		snap := l.tracker.Snapshot()
		hbEvent := mqtt.SystemEvent{
			Timestamp:  hbData.Timestamp,
			Event:      "HEARTBEAT",
			RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
		}
		if err := l.publisher.PublishSystem(hbEvent); err != nil {
			log.Printf("heartbeat publish error: %v", err)
		}
	}
}

func printState(src source.Source) error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	st, err := src.Current(ctx)
	if err != nil {
		return fmt.Errorf("read %s: %w", src.Name(), err)
	}
	if st == nil {
		fmt.Println("grid: UNKNOWN")
		return nil
	}
	fmt.Printf("grid: %s since %s\n",
		logic.StateFromLabel(st.Snapshot.State), st.Snapshot.Since.Format(time.RFC3339))
	return nil
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func debounceMs(cfg config.Config) int64 {
	if cfg.Source != config.SourceGPIO {
		return 0
	}
	return cfg.Debounce.Milliseconds()
}

// noopPublisher stands in when no broker is configured.
type noopPublisher struct{}

func (noopPublisher) Publish(logic.Event) error            { return nil }
func (noopPublisher) PublishSystem(mqtt.SystemEvent) error { return nil }
func (noopPublisher) Close() error                         { return nil }
func (noopPublisher) IsConnected() bool                    { return false }
