// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/pidevices/dht11"
	"github.com/GermanBionicSystems/pidevices/rpilcd"
	"github.com/GermanBionicSystems/pidevices/servo"
)

const (
	warmUpReads = 3
	maxTries    = 100
	retryDelay  = 3 * time.Second
)

var (
	interval  time.Duration
	useServo  bool
	mqttAddr  string
	mqttTopic string
	mqttID    string

	weatherCmd = &cobra.Command{
		Use:   "weather",
		Short: "Show the DHT11 time, humidity and temperature on the display",
		Long: `Read the DHT11 sensor and show the time of the reading on line 1
and the humidity and temperature on line 2.

The first readings after power up are discarded. The command gives up after
100 failed readings in a row.`,
		Args: cobra.NoArgs,
		RunE: runWeather,
	}
)

func init() {
	weatherCmd.Flags().DurationVarP(&interval, "interval", "i", 2*time.Second, "delay between good readings")
	weatherCmd.Flags().BoolVar(&useServo, "servo", false, "point the servo at the temperature")
	weatherCmd.Flags().StringVar(&mqttAddr, "mqtt", "", "MQTT broker host:port to publish readings to")
	weatherCmd.Flags().StringVar(&mqttTopic, "topic", "rpilcd/weather", "MQTT topic")
	weatherCmd.Flags().StringVar(&mqttID, "id", "rpilcd", "MQTT client identifier")
	weatherCmd.Flags().BoolVar(&simulate, "sim", false, "draw on the terminal instead of the GPIO display")
	weatherCmd.Flags().StringVar(&httpAddr, "http", "", "stream the display as images on this address, e.g. :8080")
}

// sensor is a source of readings, a *dht11.Dev on hardware.
type sensor interface {
	Read() (dht11.Reading, error)
}

// publisher sends readings elsewhere.
type publisher interface {
	Publish(r dht11.Reading, at time.Time) error
}

// gauge shows the temperature, a *servo.Dev on hardware.
type gauge interface {
	WriteTemperature(t physic.Temperature) error
}

var errNoReading = errors.New("no valid reading")

// station is the weather loop: read, show, repeat.
type station struct {
	sensor  sensor
	display io.Writer
	// refresh is called after the display was updated. Optional.
	refresh func() error
	gauge   gauge
	pub     publisher
	logger  *slog.Logger

	interval time.Duration
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// timeLine is the first display line for a reading taken at t.
func timeLine(t time.Time) string {
	return t.Format("Czas: 15:04:05")
}

// valueLine is the second display line for r, cut to the display width.
func valueLine(r dht11.Reading) string {
	s := fmt.Sprintf("Wil: %d,Temp: %d", r.Humidity, r.Temperature)
	if len(s) > rpilcd.Width {
		s = s[:rpilcd.Width]
	}
	return s
}

// show replaces the display content with the reading.
func (s *station) show(r dht11.Reading, at time.Time) error {
	for _, req := range [][]byte{
		rpilcd.Clear.Request(),
		[]byte(timeLine(at)),
		rpilcd.Newline.Request(),
		[]byte(valueLine(r)),
	} {
		if _, err := s.display.Write(req); err != nil {
			return err
		}
	}
	if s.refresh != nil {
		return s.refresh()
	}
	return nil
}

// warmUp discards the first readings; the sensor returns stale data after
// power up.
func (s *station) warmUp(ctx context.Context) error {
	for range warmUpReads {
		_, err := s.sensor.Read()
		s.logger.Debug("warm up", "err", err)
		if err := s.sleep(ctx, retryDelay); err != nil {
			return err
		}
	}
	return nil
}

// run shows a reading every interval until ctx is done or the sensor fails
// maxTries times in a row.
func (s *station) run(ctx context.Context) error {
	if err := s.warmUp(ctx); err != nil {
		return err
	}
	failures := 0
	for {
		r, err := s.sensor.Read()
		if err != nil {
			failures++
			s.logger.Debug("read", "err", err, "failures", failures)
			if failures >= maxTries {
				return fmt.Errorf("%w after %d tries: %w", errNoReading, failures, err)
			}
			if err := s.sleep(ctx, retryDelay); err != nil {
				return err
			}
			continue
		}
		failures = 0
		at := s.now()
		s.logger.Info("reading", "humidity", r.Humidity, "temperature", r.Temperature)
		if err := s.show(r, at); err != nil {
			s.logger.Error("display", "err", err)
		}
		if s.gauge != nil {
			if err := s.gauge.WriteTemperature(r.Env().Temperature); err != nil {
				s.logger.Error("servo", "err", err)
			}
		}
		if s.pub != nil {
			if err := s.pub.Publish(r, at); err != nil {
				s.logger.Error("mqtt", "err", err)
			}
		}
		if err := s.sleep(ctx, s.interval); err != nil {
			return err
		}
	}
}

func runWeather(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if mqttAddr == "" {
		mqttAddr = cfg.MQTT
	}
	logger := newLogger()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if httpAddr == "" {
		httpAddr = cfg.HTTP
	}
	l, err := openLCD(cfg, lcdOpts{sim: simulate, http: httpAddr}, logger)
	if err != nil {
		return err
	}
	defer l.Close()

	// The emulated display still needs the host for the sensor.
	if err := initHost(); err != nil {
		return err
	}
	p, err := pinByName(cfg.Pins.DHT11)
	if err != nil {
		return err
	}
	dht, err := dht11.New(p)
	if err != nil {
		return err
	}
	defer dht.Halt()

	st := &station{
		sensor:   dht,
		display:  l,
		refresh:  l.Refresh,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
	if useServo {
		sp, err := pinByName(cfg.Pins.Servo)
		if err != nil {
			return err
		}
		g := servo.New(sp)
		defer g.Halt()
		st.gauge = g
	}
	if mqttAddr != "" {
		pub, err := dialMQTT(ctx, mqttAddr, mqttID, mqttTopic, logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		st.pub = pub
	}
	return ignoreCanceled(st.run(ctx))
}
