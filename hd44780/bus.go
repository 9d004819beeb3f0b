// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// Mode is the level of the register select line. It tells the controller
// whether a byte is an instruction or a character for display RAM.
type Mode bool

const (
	// Command selects the instruction register.
	Command Mode = false
	// Character selects the data register.
	Character Mode = true
)

func (m Mode) String() string {
	if m == Character {
		return "Character"
	}
	return "Command"
}

const (
	// Time the controller needs to process a character write.
	delayCharacter = 200 * time.Microsecond
	// Most instructions complete in 37µs, but clear and home take up to
	// 1.52ms and slow clones need more. 5ms is safe for all of them.
	delayCommand = 5 * time.Millisecond
	// Minimum enable pulse width is 450ns.
	pulseWidth = time.Microsecond
)

// SettleDelay returns how long the bus must stay idle after a byte written in
// the given mode.
func SettleDelay(m Mode) time.Duration {
	if m == Character {
		return delayCharacter
	}
	return delayCommand
}

// Transceiver drives bytes onto the controller bus.
//
// There is no feedback path from the display: implementations report errors
// from the pins driving the bus, never from the controller itself.
type Transceiver interface {
	// Transmit writes b as two nibbles, high nibble first, and blocks for
	// SettleDelay(mode).
	Transmit(b byte, mode Mode) error
	// WriteNibble writes the low nibble of n in Command mode with a single
	// enable pulse and blocks for settle. It is only meaningful during the
	// power-on sequence, while the controller is still in 8 bit mode.
	WriteNibble(n byte, settle time.Duration) error
	// Wait blocks for d.
	Wait(d time.Duration)
}

// Bus is a Transceiver that bit-bangs the 4 bit parallel interface over GPIO
// pins. R/W must be tied low.
type Bus struct {
	rs   gpio.PinOut
	en   gpio.PinOut
	data [4]gpio.PinOut
	mode Mode

	// Sleep is called for every delay on the bus. It defaults to time.Sleep.
	Sleep func(time.Duration)
}

// NewBus returns a Bus using rs for register select, en for enable and d4-d7
// for the upper data lines. All pins are driven low.
func NewBus(rs, en, d4, d5, d6, d7 gpio.PinOut) (*Bus, error) {
	b := &Bus{
		rs:    rs,
		en:    en,
		data:  [4]gpio.PinOut{d4, d5, d6, d7},
		mode:  Command,
		Sleep: time.Sleep,
	}
	for _, p := range append([]gpio.PinOut{rs, en}, b.data[:]...) {
		if p == nil {
			return nil, wrap(errNilPin)
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, wrap(err)
		}
	}
	return b, nil
}

// Transmit implements Transceiver.
func (b *Bus) Transmit(v byte, mode Mode) error {
	if err := b.selectMode(mode); err != nil {
		return wrap(err)
	}
	if err := b.write4Bits(v >> 4); err != nil {
		return wrap(err)
	}
	if err := b.write4Bits(v & 0x0f); err != nil {
		return wrap(err)
	}
	b.Sleep(SettleDelay(mode))
	return nil
}

// WriteNibble implements Transceiver.
func (b *Bus) WriteNibble(n byte, settle time.Duration) error {
	if err := b.selectMode(Command); err != nil {
		return wrap(err)
	}
	if err := b.write4Bits(n & 0x0f); err != nil {
		return wrap(err)
	}
	b.Sleep(settle)
	return nil
}

// Wait implements Transceiver.
func (b *Bus) Wait(d time.Duration) {
	b.Sleep(d)
}

func (b *Bus) String() string {
	return fmt.Sprintf("hd44780.Bus{RS: %s, E: %s, D4-D7: %s %s %s %s}",
		b.rs, b.en, b.data[0], b.data[1], b.data[2], b.data[3])
}

// Halt implements conn.Resource. It leaves every line low.
func (b *Bus) Halt() error {
	for _, p := range append([]gpio.PinOut{b.rs, b.en}, b.data[:]...) {
		if err := p.Out(gpio.Low); err != nil {
			return wrap(err)
		}
	}
	b.mode = Command
	return nil
}

func (b *Bus) selectMode(mode Mode) error {
	if mode == b.mode {
		return nil
	}
	if err := b.rs.Out(gpio.Level(mode)); err != nil {
		return err
	}
	b.mode = mode
	return nil
}

// write4Bits puts the low nibble of value on D4-D7 and latches it with an
// enable pulse.
func (b *Bus) write4Bits(value byte) error {
	for i, p := range b.data {
		if err := p.Out(gpio.Level(value&(1<<i) != 0)); err != nil {
			return err
		}
	}
	err := b.en.Out(gpio.High)
	if err == nil {
		b.Sleep(pulseWidth)
		err = b.en.Out(gpio.Low)
	}
	return err
}

var _ Transceiver = &Bus{}
var _ conn.Resource = &Bus{}
