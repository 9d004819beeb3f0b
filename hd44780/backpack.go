// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
)

// DefaultBackpackAddr is the address of a PCF8574 backpack with A0-A2 open.
// PCF8574A based boards answer on 0x3f.
const DefaultBackpackAddr = 0x27

// Bits of the PCF8574 port as wired on the common backpacks. D4-D7 are on
// P4-P7.
const (
	bpRS        = 1 << 0
	bpRW        = 1 << 1
	bpEnable    = 1 << 2
	bpBacklight = 1 << 3
)

// Backpack is a Transceiver for displays behind a PCF8574 I²C backpack.
//
// # Product Information
//
// https://www.handsontec.com/dataspecs/I2C_2004_LCD.pdf
//
// Every nibble is a single I²C write of two port values, one with enable high
// and one with enable low. R/W is kept low.
type Backpack struct {
	d         i2c.Dev
	mu        sync.Mutex
	backlight byte

	// Sleep is called for every delay on the bus. It defaults to time.Sleep.
	Sleep func(time.Duration)
}

// NewBackpack returns a Backpack at addr on bus, with the backlight on.
func NewBackpack(bus i2c.Bus, addr uint16) (*Backpack, error) {
	b := &Backpack{
		d:         i2c.Dev{Bus: bus, Addr: addr},
		backlight: bpBacklight,
		Sleep:     time.Sleep,
	}
	if err := b.d.Tx([]byte{b.backlight}, nil); err != nil {
		return nil, wrap(err)
	}
	return b, nil
}

// Transmit implements Transceiver.
func (b *Backpack) Transmit(v byte, mode Mode) error {
	var rs byte
	if mode == Character {
		rs = bpRS
	}
	b.mu.Lock()
	err := b.d.Tx([]byte{
		v&0xf0 | b.backlight | rs | bpEnable, v&0xf0 | b.backlight | rs,
		v<<4 | b.backlight | rs | bpEnable, v<<4 | b.backlight | rs,
	}, nil)
	b.mu.Unlock()
	if err != nil {
		return wrap(err)
	}
	b.Sleep(SettleDelay(mode))
	return nil
}

// WriteNibble implements Transceiver.
func (b *Backpack) WriteNibble(n byte, settle time.Duration) error {
	b.mu.Lock()
	err := b.d.Tx([]byte{n<<4 | b.backlight | bpEnable, n<<4 | b.backlight}, nil)
	b.mu.Unlock()
	if err != nil {
		return wrap(err)
	}
	b.Sleep(settle)
	return nil
}

// Wait implements Transceiver.
func (b *Backpack) Wait(d time.Duration) {
	b.Sleep(d)
}

// Backlight implements display.DisplayBacklight. The backpack switches the
// backlight with a transistor, any non-zero intensity turns it fully on.
func (b *Backpack) Backlight(intensity display.Intensity) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.backlight = 0
	if intensity != 0 {
		b.backlight = bpBacklight
	}
	return wrap(b.d.Tx([]byte{b.backlight}, nil))
}

func (b *Backpack) String() string {
	return fmt.Sprintf("hd44780.Backpack{%s}", &b.d)
}

// Halt implements conn.Resource. It turns the backlight off and leaves every
// line low.
func (b *Backpack) Halt() error {
	return b.Backlight(0)
}

var (
	_ Transceiver              = &Backpack{}
	_ display.DisplayBacklight = &Backpack{}
)
