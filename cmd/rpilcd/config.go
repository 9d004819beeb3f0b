// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Pins maps each signal to a periph pin name, as accepted by gpioreg.ByName.
type Pins struct {
	RS string `json:"rs"`
	E  string `json:"e"`
	D4 string `json:"d4"`
	D5 string `json:"d5"`
	D6 string `json:"d6"`
	D7 string `json:"d7"`
	// Backlight is optional; empty means the backlight is hard-wired.
	Backlight string `json:"backlight,omitempty"`
	DHT11     string `json:"dht11"`
	Servo     string `json:"servo"`
}

// Backpack selects a display behind a PCF8574 I²C backpack instead of the
// GPIO pins.
type Backpack struct {
	// Bus is the I²C bus name as accepted by i2creg.Open. Empty picks the
	// first bus.
	Bus string `json:"bus,omitempty"`
	// Addr defaults to hd44780.DefaultBackpackAddr.
	Addr uint16 `json:"addr,omitempty"`
}

// Config is the content of the --config file. Missing fields keep their
// default value.
type Config struct {
	Pins Pins `json:"pins"`
	// Backpack, when set, replaces the rs, e and d4-d7 pins.
	Backpack *Backpack `json:"backpack,omitempty"`
	// FIFO is the path serve reads requests from when --fifo is not given.
	FIFO string `json:"fifo,omitempty"`
	// MQTT is the broker address weather publishes to when --mqtt is not
	// given.
	MQTT string `json:"mqtt,omitempty"`
	// HTTP is the address serve and weather stream the display on when
	// --http is not given. Empty disables the stream.
	HTTP string `json:"http,omitempty"`
}

// DefaultConfig returns the wiring of the reference board.
func DefaultConfig() Config {
	return Config{
		Pins: Pins{
			RS:    "GPIO26",
			E:     "GPIO19",
			D4:    "GPIO13",
			D5:    "GPIO6",
			D6:    "GPIO5",
			D7:    "GPIO11",
			DHT11: "GPIO4",
			Servo: "GPIO18",
		},
	}
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that every pin in use is set and that no pin is used
// twice.
func (c Config) Validate() error {
	seen := map[string]string{}
	pins := []struct{ signal, name string }{
		{"dht11", c.Pins.DHT11},
		{"servo", c.Pins.Servo},
	}
	if c.Backpack == nil {
		pins = append(pins, []struct{ signal, name string }{
			{"rs", c.Pins.RS},
			{"e", c.Pins.E},
			{"d4", c.Pins.D4},
			{"d5", c.Pins.D5},
			{"d6", c.Pins.D6},
			{"d7", c.Pins.D7},
			{"backlight", c.Pins.Backlight},
		}...)
	}
	for _, p := range pins {
		if p.name == "" {
			if p.signal == "backlight" {
				continue
			}
			return fmt.Errorf("pin %s is not set", p.signal)
		}
		if other, ok := seen[p.name]; ok {
			return fmt.Errorf("pin %s used for both %s and %s", p.name, other, p.signal)
		}
		seen[p.name] = p.signal
	}
	return nil
}

var errNoPin = errors.New("no such pin")
