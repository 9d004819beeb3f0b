// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/pidevices/hd44780"
	"github.com/GermanBionicSystems/pidevices/lcdsim"
	"github.com/GermanBionicSystems/pidevices/rpilcd"
)

func initHost() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}
	return nil
}

func pinByName(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", errNoPin, name)
	}
	return p, nil
}

// lcdOpts selects where the display goes.
type lcdOpts struct {
	// sim draws an emulator on the terminal instead of using the GPIO pins.
	sim bool
	// http, when set, streams the display as images on this address.
	http string
}

// lcd is an rpilcd.Dev and whatever has to be released with it.
type lcd struct {
	*rpilcd.Dev
	// hw is the Bus or Backpack of a real display.
	hw      conn.Resource
	i2cBus  i2c.BusCloser
	console *lcdsim.Console
	stream  *lcdsim.Stream
	srv     *http.Server
	addr    net.Addr
}

// Close turns the display off and releases the pins.
func (l *lcd) Close() error {
	var err error
	if l.Dev != nil {
		err = l.Dev.Halt()
	}
	if l.srv != nil {
		_ = l.stream.Halt()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if srvErr := l.srv.Shutdown(ctx); err == nil {
			err = srvErr
		}
		cancel()
	}
	if l.hw != nil {
		if hwErr := l.hw.Halt(); err == nil {
			err = hwErr
		}
	}
	if l.i2cBus != nil {
		if i2cErr := l.i2cBus.Close(); err == nil {
			err = i2cErr
		}
	}
	if l.console != nil {
		if conErr := l.console.Halt(); err == nil {
			err = conErr
		}
	}
	return err
}

// Refresh redraws the terminal view in simulation; it does nothing on
// hardware.
func (l *lcd) Refresh() error {
	if l.console == nil {
		return nil
	}
	return l.console.Refresh()
}

// listen starts streaming e on addr.
func (l *lcd) listen(addr string, e *lcdsim.Emulator, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	l.stream = lcdsim.NewStream(e, &lcdsim.StreamOpts{Logger: logger})
	e.OnWrite(l.stream.Changed)
	mux := http.NewServeMux()
	mux.Handle("GET /display", l.stream)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, indexPage)
	})
	l.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	l.addr = ln.Addr()
	logger.Info("streaming", "url", "http://"+l.addr.String()+"/")
	go func() {
		if err := l.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http", "err", err)
		}
	}()
	return nil
}

const indexPage = `<!DOCTYPE html>
<title>rpilcd</title>
<body style="background:#222;margin:2em">
<img src="/display" alt="display">
</body>
`

// openBus bit-bangs the display on GPIO pins.
func (l *lcd) openBus(pins Pins) (hd44780.Transceiver, display.DisplayBacklight, error) {
	var out [6]gpio.PinOut
	for i, name := range []string{pins.RS, pins.E, pins.D4, pins.D5, pins.D6, pins.D7} {
		p, err := pinByName(name)
		if err != nil {
			return nil, nil, err
		}
		out[i] = p
	}
	bus, err := hd44780.NewBus(out[0], out[1], out[2], out[3], out[4], out[5])
	if err != nil {
		return nil, nil, err
	}
	l.hw = bus
	if pins.Backlight == "" {
		return bus, nil, nil
	}
	p, err := pinByName(pins.Backlight)
	if err != nil {
		return nil, nil, err
	}
	return bus, hd44780.NewBacklight(p), nil
}

// openBackpack opens a display behind an I²C backpack.
func (l *lcd) openBackpack(cfg *Backpack) (hd44780.Transceiver, display.DisplayBacklight, error) {
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open I²C bus %q: %w", cfg.Bus, err)
	}
	l.i2cBus = bus
	addr := cfg.Addr
	if addr == 0 {
		addr = hd44780.DefaultBackpackAddr
	}
	bp, err := hd44780.NewBackpack(bus, addr)
	if err != nil {
		return nil, nil, err
	}
	l.hw = bp
	return bp, bp, nil
}

// openLCD opens the display on the pins or the backpack of cfg, or an
// emulator drawn on the terminal when opts.sim is set.
func openLCD(cfg Config, opts lcdOpts, logger *slog.Logger) (*lcd, error) {
	ropts := rpilcd.Opts{Logger: logger}
	l := &lcd{}
	var t hd44780.Transceiver
	var e *lcdsim.Emulator
	var bl display.DisplayBacklight
	if opts.sim || opts.http != "" {
		e = lcdsim.NewEmulator()
		t = e
	}
	if opts.sim {
		l.console = lcdsim.NewConsole(e, nil)
	} else {
		if err := initHost(); err != nil {
			return nil, err
		}
		var hw hd44780.Transceiver
		var err error
		if cfg.Backpack != nil {
			hw, bl, err = l.openBackpack(cfg.Backpack)
		} else {
			hw, bl, err = l.openBus(cfg.Pins)
		}
		if err != nil {
			_ = l.Close()
			return nil, err
		}
		logger.Info("display", "hw", hw)
		t = hw
		if e != nil {
			t = &lcdsim.Tee{T: hw, E: e}
		}
	}
	if opts.http != "" {
		if err := l.listen(opts.http, e, logger); err != nil {
			_ = l.Close()
			return nil, err
		}
	}
	dev, err := rpilcd.New(hd44780.New(t, bl), &ropts)
	if err != nil {
		_ = l.Close()
		return nil, err
	}
	l.Dev = dev
	return l, nil
}
