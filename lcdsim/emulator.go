// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GermanBionicSystems/pidevices/hd44780"
)

const (
	// Cols is the number of visible cells per line.
	Cols = 16
	// Rows is the number of lines.
	Rows = 2

	lineLen   = 40
	line2Addr = 0x40
)

// Emulator implements hd44780.Transceiver by decoding the instruction and
// character stream the way an HD44780 in 2 line mode does.
//
// Only the first Cols cells of each line are visible; display shifting is not
// emulated.
type Emulator struct {
	mu      sync.Mutex
	ddram   [2][lineLen]byte
	ac      byte
	inc     bool
	on      bool
	cursor  bool
	blink   bool
	twoLine bool
	nibbles int
	elapsed time.Duration
	onWrite func()
}

// NewEmulator returns an emulator in the state the controller is in after
// reset: blank RAM, display off, address counter at 0.
func NewEmulator() *Emulator {
	e := &Emulator{inc: true}
	e.clear()
	return e
}

// Transmit implements hd44780.Transceiver.
func (e *Emulator) Transmit(b byte, mode hd44780.Mode) error {
	e.mu.Lock()
	if mode == hd44780.Character {
		e.putChar(b)
	} else {
		e.command(b)
	}
	e.elapsed += hd44780.SettleDelay(mode)
	cb := e.onWrite
	e.mu.Unlock()
	if cb != nil {
		cb()
	}
	return nil
}

// WriteNibble implements hd44780.Transceiver. Nibbles only occur during the
// power-on sequence, they are counted and otherwise ignored.
func (e *Emulator) WriteNibble(n byte, settle time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nibbles++
	e.elapsed += settle
	return nil
}

// Wait implements hd44780.Transceiver. It does not block.
func (e *Emulator) Wait(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.elapsed += d
}

// OnWrite registers f to be called after every byte. Used to refresh a view.
func (e *Emulator) OnWrite(f func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onWrite = f
}

// Line returns the visible cells of row (1-based), trailing blanks included.
func (e *Emulator) Line(row int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if row < 1 || row > Rows {
		return ""
	}
	return string(e.ddram[row-1][:Cols])
}

// Text returns both visible lines with trailing blanks trimmed, joined by a
// newline.
func (e *Emulator) Text() string {
	return strings.TrimRight(e.Line(1), " ") + "\n" + strings.TrimRight(e.Line(2), " ")
}

// Cursor returns the 1-based position of the address counter.
func (e *Emulator) Cursor() (row, col int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ac >= line2Addr {
		return 2, int(e.ac-line2Addr) + 1
	}
	return 1, int(e.ac) + 1
}

// DisplayOn reports the display, cursor and blink flags.
func (e *Emulator) DisplayOn() (on, cursor, blink bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.on, e.cursor, e.blink
}

// Initialized reports whether the power-on sequence was seen and the
// controller was set to 2 lines.
func (e *Emulator) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nibbles >= 4 && e.twoLine
}

// Elapsed returns the time a real display would have kept the bus busy.
func (e *Emulator) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsed
}

func (e *Emulator) String() string {
	return "lcdsim.Emulator"
}

func (e *Emulator) clear() {
	for r := range e.ddram {
		for c := range e.ddram[r] {
			e.ddram[r][c] = ' '
		}
	}
	e.ac = 0
	e.inc = true
}

func (e *Emulator) command(b byte) {
	switch {
	case b&0x80 != 0:
		e.ac = normalize(b & 0x7f)
	case b&0x40 != 0:
		// CGRAM address, custom glyphs are not emulated.
	case b&0x20 != 0:
		e.twoLine = b&0x08 != 0
	case b&0x10 != 0:
		// Cursor or display shift; only cursor moves are emulated.
		if b&0x08 == 0 {
			e.step(b&0x04 != 0)
		}
	case b&0x08 != 0:
		e.on = b&0x04 != 0
		e.cursor = b&0x02 != 0
		e.blink = b&0x01 != 0
	case b&0x04 != 0:
		e.inc = b&0x02 != 0
	case b&0x02 != 0:
		e.ac = 0
	case b == 0x01:
		e.clear()
	}
}

func (e *Emulator) putChar(b byte) {
	if e.ac >= line2Addr {
		e.ddram[1][e.ac-line2Addr] = b
	} else {
		e.ddram[0][e.ac] = b
	}
	e.step(e.inc)
}

// step moves the address counter the way the controller does in 2 line mode:
// the end of line 1 continues on line 2 and the end of line 2 wraps to line 1.
func (e *Emulator) step(forward bool) {
	switch {
	case forward && e.ac == lineLen-1:
		e.ac = line2Addr
	case forward && e.ac == line2Addr+lineLen-1:
		e.ac = 0
	case forward:
		e.ac++
	case e.ac == 0:
		e.ac = line2Addr + lineLen - 1
	case e.ac == line2Addr:
		e.ac = lineLen - 1
	default:
		e.ac--
	}
}

// normalize maps an address in the gap between the lines to the start of
// line 2, like the address counter does.
func normalize(addr byte) byte {
	switch {
	case addr < lineLen:
		return addr
	case addr < line2Addr:
		return line2Addr
	case addr < line2Addr+lineLen:
		return addr
	default:
		return 0
	}
}

// Dump returns a framed picture of the visible cells, with the cursor cell
// marked, for test failure messages.
func (e *Emulator) Dump() string {
	row, col := e.Cursor()
	var sb strings.Builder
	sb.WriteString("+" + strings.Repeat("-", Cols) + "+\n")
	for r := 1; r <= Rows; r++ {
		fmt.Fprintf(&sb, "|%s|", e.Line(r))
		if r == row {
			fmt.Fprintf(&sb, " cursor col %d", col)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("+" + strings.Repeat("-", Cols) + "+")
	return sb.String()
}

var _ hd44780.Transceiver = &Emulator{}
