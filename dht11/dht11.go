// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dht11 provides a driver for the Aosong DHT11 humidity and
// temperature sensor on a single GPIO line.
//
// The sensor answers a start pulse with a train of level changes; the
// duration of each high level encodes one bit. Decode turns the captured
// durations into a Reading and can be used on its own with any capture
// method.
//
// # Datasheet
//
// https://www.mouser.com/datasheet/2/758/DHT11-Technical-Data-Sheet-Translated-Version-1143054.pdf
package dht11

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

const (
	// maxRuns is the most level changes captured for one reading.
	maxRuns = 85
	// handshakeRuns are the idle, response low and response high levels plus
	// the low before the first bit.
	handshakeRuns = 4
	// bitThreshold separates a 0 (26-28µs high) from a 1 (70µs high).
	bitThreshold = 50 * time.Microsecond
	// runTimeout ends a capture; the sensor is done or gone.
	runTimeout = 255 * time.Microsecond

	dataBits = 40

	startLow  = 18 * time.Millisecond
	startHigh = 40 * time.Microsecond

	// MinInterval is the shortest period the sensor can be polled at.
	MinInterval = time.Second
)

var (
	// ErrShortRead is returned when fewer than 40 bits were captured.
	ErrShortRead = errors.New("dht11: short read")
	// ErrChecksum is returned when the checksum byte doesn't match the data.
	ErrChecksum = errors.New("dht11: checksum mismatch")
)

// Reading is one measurement. The DHT11 reports whole units only.
type Reading struct {
	// Humidity in %RH.
	Humidity int
	// Temperature in °C.
	Temperature int
}

// Env returns the reading as a physic.Env.
func (r Reading) Env() physic.Env {
	return physic.Env{
		Temperature: physic.ZeroCelsius + physic.Temperature(r.Temperature)*physic.Celsius,
		Humidity:    physic.RelativeHumidity(r.Humidity) * physic.PercentRH,
	}
}

func (r Reading) String() string {
	return fmt.Sprintf("%d%%rH %d°C", r.Humidity, r.Temperature)
}

// Decode decodes the durations of successive line levels, starting with the
// idle high level after the start signal.
//
// Runs 0 to 3 are the handshake. From then on every even run is the high
// part of a bit. A run of 255µs or more ends the capture.
func Decode(runs []time.Duration) (Reading, error) {
	var data [5]byte
	bits := 0
	for i, d := range runs {
		if i >= maxRuns || d >= runTimeout {
			break
		}
		if i < handshakeRuns || i%2 != 0 || bits >= dataBits {
			continue
		}
		data[bits/8] <<= 1
		if d > bitThreshold {
			data[bits/8] |= 1
		}
		bits++
	}
	if bits < dataBits {
		return Reading{}, fmt.Errorf("%w: %d bits", ErrShortRead, bits)
	}
	if data[4] != data[0]+data[1]+data[2]+data[3] {
		return Reading{}, fmt.Errorf("%w: % x", ErrChecksum, data)
	}
	return Reading{Humidity: int(data[0]), Temperature: int(data[2])}, nil
}

// Dev is a DHT11 on a GPIO pin.
type Dev struct {
	pin gpio.PinIO

	mu       sync.Mutex
	shutdown chan struct{}

	now   func() time.Time
	sleep func(time.Duration)
}

// New returns a DHT11 on p. The line is left high, which is its idle level.
func New(p gpio.PinIO) (*Dev, error) {
	if p == nil {
		return nil, errors.New("dht11: nil pin")
	}
	if err := p.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("dht11: %w", err)
	}
	return &Dev{pin: p, now: time.Now, sleep: time.Sleep}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("dht11{%s}", d.pin)
}

// Read takes one measurement.
//
// The capture polls the pin in a tight loop; readings fail now and then when
// the process is descheduled, callers are expected to retry.
func (d *Dev) Read() (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	runs, err := d.capture()
	if err != nil {
		return Reading{}, err
	}
	return Decode(runs)
}

// Sense implements physic.SenseEnv. Pressure is not measured.
func (d *Dev) Sense(env *physic.Env) error {
	env.Temperature = 0
	env.Pressure = 0
	env.Humidity = 0
	r, err := d.Read()
	if err != nil {
		return err
	}
	*env = r.Env()
	return nil
}

// SenseContinuous returns a channel that receives a value every interval.
// Failed readings are skipped. To end the reads, call Halt().
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < MinInterval {
		return nil, fmt.Errorf("dht11: invalid duration, minimum %s", MinInterval)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown != nil {
		return nil, errors.New("dht11: sense continuous already running")
	}
	shutdown := make(chan struct{})
	d.shutdown = shutdown
	ch := make(chan physic.Env, 16)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				var e physic.Env
				if err := d.Sense(&e); err == nil {
					select {
					case ch <- e:
					case <-shutdown:
						return
					}
				}
			}
		}
	}()
	return ch, nil
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(env *physic.Env) {
	env.Temperature = physic.Celsius
	env.Pressure = 0
	env.Humidity = physic.PercentRH
}

// Halt interrupts a running SenseContinuous() operation.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown != nil {
		close(d.shutdown)
		d.shutdown = nil
	}
	return nil
}

// capture sends the start signal and measures how long the line stays at
// each level until it goes quiet.
func (d *Dev) capture() ([]time.Duration, error) {
	if err := d.pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("dht11: %w", err)
	}
	d.sleep(startLow)
	if err := d.pin.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("dht11: %w", err)
	}
	d.sleep(startHigh)
	if err := d.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("dht11: %w", err)
	}
	runs := make([]time.Duration, 0, maxRuns)
	last := gpio.High
	start := d.now()
	for len(runs) < maxRuns {
		l := d.pin.Read()
		t := d.now()
		if l == last {
			if t.Sub(start) >= runTimeout {
				runs = append(runs, t.Sub(start))
				break
			}
			continue
		}
		runs = append(runs, t.Sub(start))
		last, start = l, t
	}
	// Back to idle for the next reading.
	if err := d.pin.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("dht11: %w", err)
	}
	return runs, nil
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
