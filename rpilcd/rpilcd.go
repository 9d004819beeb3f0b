// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rpilcd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/GermanBionicSystems/pidevices/hd44780"
)

// maxText is the longest text request that can still land on the display:
// the remainder of line 1 plus all of line 2.
const maxText = Rows * Width

// ErrTransport is returned when the bytes of a request could not be read
// from the caller. The display state is left untouched.
var ErrTransport = errors.New("rpilcd: transport error")

// Controller is the subset of hd44780.Controller the render step needs.
type Controller interface {
	Init() error
	Clear() error
	SetCursor(row, col int) (hd44780.Outcome, error)
	PutString(s string) error
	SetDisplay(on, cursor, blink bool) error
	Halt() error
}

// Opts holds the configuration of a Dev.
type Opts struct {
	// Logger receives a debug record of the state before and after every
	// request. Nil disables logging.
	Logger *slog.Logger
	// SkipInit skips the controller power-on sequence, for a display that
	// is already initialized.
	SkipInit bool
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{}

// Dev is a 2x16 text display fed by write requests.
//
// Dev is not safe for concurrent use. Requests must be serialized by the
// caller; Write renders inline and blocks for the bus timing of every byte.
type Dev struct {
	c      Controller
	state  State
	logger *slog.Logger

	// Display control flags, as left by the power-on sequence.
	on, cursor, blink bool
}

// New initializes the display behind c and returns a Dev with both lines
// empty and the cursor home.
func New(c Controller, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{c: c, state: Home(), logger: opts.Logger, on: true, cursor: true}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	if !opts.SkipInit {
		if err := c.Init(); err != nil {
			return nil, wrap(err)
		}
	}
	if err := c.Clear(); err != nil {
		return nil, wrap(err)
	}
	if _, err := c.SetCursor(1, 1); err != nil {
		return nil, wrap(err)
	}
	return d, nil
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("rpilcd: %w", err)
}

// State returns a copy of the current text and cursor.
func (d *Dev) State() State {
	return d.state
}

// Write handles one request and redraws the display.
//
// p is a control escape if it is exactly 3 bytes long and starts with one of
// the known codes, and text otherwise. The request is always accepted and
// Write returns len(p); the error, if any, comes from redrawing and does not
// undo the change to the state.
func (d *Dev) Write(p []byte) (int, error) {
	d.logger.Debug("before write", "len", len(p), "state", d.state)
	if e, ok := ParseEscape(p); ok {
		o := d.apply(e)
		d.logger.Debug("control", "escape", e, "outcome", o)
	} else {
		d.writeText(p)
	}
	d.logger.Debug("after write", "state", d.state)
	return len(p), d.render()
}

// WriteString is a shortcut for Write([]byte(s)).
func (d *Dev) WriteString(s string) (int, error) {
	return d.Write([]byte(s))
}

// Apply runs a control escape and redraws the display. The Outcome tells
// whether the escape changed the state.
func (d *Dev) Apply(e Escape) (hd44780.Outcome, error) {
	o := d.apply(e)
	return o, d.render()
}

// WriteRequest reads a request of n bytes from r and handles it.
//
// If r can't supply n bytes the error wraps ErrTransport and nothing is
// changed or drawn.
func (d *Dev) WriteRequest(r io.Reader, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative length %d", ErrTransport, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return d.Write(buf)
}

// Halt clears and turns off the display.
func (d *Dev) Halt() error {
	return wrap(d.c.Halt())
}

func (d *Dev) String() string {
	return fmt.Sprintf("rpilcd{%s}", d.state)
}

// apply mutates the state for e.
func (d *Dev) apply(e Escape) hd44780.Outcome {
	s := &d.state
	switch e {
	case Newline:
		if s.Row != 1 {
			return hd44780.Ignored
		}
		s.Row, s.Col = 2, s.Len(2)+1
	case PrevLine:
		if s.Row != 2 {
			return hd44780.Ignored
		}
		s.Row, s.Col = 1, s.Len(1)+1
	case Right:
		if s.Col >= s.Len(s.Row)+1 {
			return hd44780.Ignored
		}
		s.Col++
	case Left:
		if s.Col <= 1 {
			return hd44780.Ignored
		}
		s.Col--
	case Delete:
		return d.deleteAtCursor()
	case Clear:
		if *s == Home() {
			return hd44780.Ignored
		}
		*s = Home()
	default:
		return hd44780.Ignored
	}
	return hd44780.Applied
}

// deleteAtCursor removes the character before the cursor.
//
// At the end of a line the cursor follows the deleted character; inside the
// line it stays where it is. In the first column the whole line is blanked
// and the other line is not touched.
func (d *Dev) deleteAtCursor() hd44780.Outcome {
	s := &d.state
	line := s.Line(s.Row)
	if s.Col == 1 {
		if line.Len() == 0 {
			return hd44780.Ignored
		}
		s.setLine(s.Row, line.Truncate(0))
		return hd44780.Applied
	}
	if s.Col-1 >= line.Len() {
		s.setLine(s.Row, line.Truncate(s.Col-2))
		s.Col--
	} else {
		s.setLine(s.Row, line.Remove(s.Col-2))
	}
	return hd44780.Applied
}

// writeText writes p at the cursor.
func (d *Dev) writeText(p []byte) {
	if i := bytes.IndexByte(p, 0); i >= 0 {
		p = p[:i]
	}
	if len(p) > maxText {
		p = p[:maxText]
	}
	if len(p) == 0 {
		return
	}
	s := &d.state
	msg := string(p)
	if s.Row == 2 {
		if room := Width - s.Col + 1; len(msg) > room {
			msg = msg[:room]
		}
		s.Line2 = s.Line2.Overwrite(s.Col-1, msg)
		s.Col += len(msg)
		return
	}
	if room := maxText - s.Col + 1; len(msg) > room {
		msg = msg[:room]
	}
	room := Width - s.Col + 1
	if len(msg) <= room {
		s.Line1 = s.Line1.Overwrite(s.Col-1, msg)
		s.Col += len(msg)
		return
	}
	// Wrap: what fits stays on line 1, the rest replaces line 2.
	s.Line1 = s.Line1.Overwrite(s.Col-1, msg[:room])
	s.Line2 = NewLine(msg[room:])
	s.Row = 2
	s.Col = len(msg) - room
}
