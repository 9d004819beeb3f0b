// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 drives the Hitachi HD44780 character LCD controller over
// its 4 bit parallel interface.
//
// The package is split in two layers. A Transceiver puts single bytes on the
// bus with the settle time the controller needs. A Controller builds the
// controller level operations (initialize, clear, position the cursor,
// write characters) out of Transceiver calls.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

const packageName = "hd44780"

// Instructions from table 6 of the datasheet.
const (
	cmdClear         byte = 0x01
	cmdHome          byte = 0x02
	cmdEntryMode     byte = 0x04
	cmdDisplay       byte = 0x08
	cmdFunctionSet   byte = 0x20
	cmdSetDDRAMAddr  byte = 0x80
	entryIncrement   byte = 0x02
	displayOn        byte = 0x04
	displayCursor    byte = 0x02
	displayBlink     byte = 0x01
	functionTwoLines byte = 0x08

	// Start of the second line in display RAM.
	row2Offset byte = 0x40
	// Display RAM holds 40 characters per line in 2 line mode.
	lineCapacity = 40
)

var (
	// ErrEmptyString is returned by PutString when there is nothing to send.
	ErrEmptyString = errors.New(packageName + ": empty string")

	errNilPin = errors.New("nil pin")
)

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// Outcome reports whether a request changed anything.
type Outcome uint8

const (
	// Ignored means the request was valid to make but had no effect.
	Ignored Outcome = iota
	// Applied means the request took effect.
	Applied
)

func (o Outcome) String() string {
	if o == Applied {
		return "Applied"
	}
	return "Ignored"
}

// Controller sequences Transceiver writes into HD44780 operations for a 2
// line display.
//
// Controller keeps no copy of what is on screen; it only knows the display
// flags it last set.
type Controller struct {
	t         Transceiver
	backlight display.DisplayBacklight
	on        bool
	cursor    bool
	blink     bool
}

// New returns a Controller writing through t. backlight may be nil when the
// backlight is hard-wired.
//
// The display is not initialized; call Init.
func New(t Transceiver, backlight display.DisplayBacklight) *Controller {
	return &Controller{t: t, backlight: backlight}
}

// Init runs the power-on sequence for 4 bit operation.
//
// The controller is order dependent while it comes up: the first three
// nibbles are read as 8 bit function sets, and only the fourth switches the
// interface to 4 bits.
func (c *Controller) Init() error {
	// Wait for more than 15 ms after VCC rises to 4.5 V.
	c.t.Wait(15 * time.Millisecond)
	for _, step := range []struct {
		nibble byte
		settle time.Duration
	}{
		{0x03, 4200 * time.Microsecond},
		{0x03, 200 * time.Microsecond},
		{0x03, 200 * time.Microsecond},
		{0x02, 4200 * time.Microsecond},
	} {
		if err := c.t.WriteNibble(step.nibble, step.settle); err != nil {
			return wrap(err)
		}
	}
	for _, cmd := range []byte{
		cmdFunctionSet | functionTwoLines,
		cmdDisplay,
		cmdClear,
		cmdEntryMode | entryIncrement,
		cmdDisplay | displayOn | displayCursor,
	} {
		if err := c.t.Transmit(cmd, Command); err != nil {
			return wrap(err)
		}
	}
	c.on, c.cursor, c.blink = true, true, false
	if c.backlight != nil {
		return wrap(c.backlight.Backlight(0xff))
	}
	return nil
}

// Clear blanks the display and moves the address counter home.
func (c *Controller) Clear() error {
	return wrap(c.t.Transmit(cmdClear, Command))
}

// Home moves the cursor to the first cell without touching the contents.
func (c *Controller) Home() error {
	return wrap(c.t.Transmit(cmdHome, Command))
}

// SetCursor moves the cursor to the 1-based row and col.
//
// Rows other than 1 and 2, and columns outside display RAM, are Ignored and
// nothing is sent.
func (c *Controller) SetCursor(row, col int) (Outcome, error) {
	if col < 1 || col > lineCapacity {
		return Ignored, nil
	}
	addr := cmdSetDDRAMAddr + byte(col-1)
	switch row {
	case 1:
	case 2:
		addr += row2Offset
	default:
		return Ignored, nil
	}
	if err := c.t.Transmit(addr, Command); err != nil {
		return Ignored, wrap(err)
	}
	return Applied, nil
}

// PutString writes s at the cursor.
//
// Returns ErrEmptyString if s is empty.
func (c *Controller) PutString(s string) error {
	if len(s) == 0 {
		return ErrEmptyString
	}
	for i := 0; i < len(s); i++ {
		if err := c.t.Transmit(s[i], Character); err != nil {
			return wrap(err)
		}
	}
	return nil
}

// PutChar writes a single character at the cursor.
func (c *Controller) PutChar(ch byte) error {
	return wrap(c.t.Transmit(ch, Character))
}

// SetDisplay turns the display, the underline cursor and the blinking block
// on or off.
func (c *Controller) SetDisplay(on, cursor, blink bool) error {
	val := cmdDisplay
	if on {
		val |= displayOn
	}
	if cursor {
		val |= displayCursor
	}
	if blink {
		val |= displayBlink
	}
	if err := c.t.Transmit(val, Command); err != nil {
		return wrap(err)
	}
	c.on, c.cursor, c.blink = on, cursor, blink
	return nil
}

func (c *Controller) String() string {
	return fmt.Sprintf("HD44780{%v, on: %t, cursor: %t, blink: %t}", c.t, c.on, c.cursor, c.blink)
}

// Halt clears the display, turns it off and switches the backlight off.
func (c *Controller) Halt() error {
	_ = c.Clear()
	err := c.SetDisplay(false, false, false)
	if c.backlight != nil {
		if blErr := c.backlight.Backlight(0); err == nil {
			err = wrap(blErr)
		}
	}
	return err
}

var _ conn.Resource = &Controller{}
