// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rpilcd

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

// AutoScroll is not supported. Returns display.ErrNotImplemented.
func (d *Dev) AutoScroll(enabled bool) error {
	return wrap(display.ErrNotImplemented)
}

// Clear empties both lines and moves the cursor home.
func (d *Dev) Clear() error {
	_, err := d.Apply(Clear)
	return err
}

// Cols returns Width.
func (d *Dev) Cols() int {
	return Width
}

// Rows returns Rows.
func (d *Dev) Rows() int {
	return Rows
}

// MinCol returns 1; columns are 1-based.
func (d *Dev) MinCol() int {
	return 1
}

// MinRow returns 1; rows are 1-based.
func (d *Dev) MinRow() int {
	return 1
}

// Cursor sets the cursor mode. Several modes can be combined, like
// Cursor(display.CursorUnderline, display.CursorBlink). CursorBlock is the
// blinking block, the same as CursorBlink.
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	cursor, blink := d.cursor, d.blink
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			cursor, blink = false, false
		case display.CursorUnderline:
			cursor = true
		case display.CursorBlink, display.CursorBlock:
			blink = true
		default:
			return fmt.Errorf("rpilcd: cursor mode %d: %w", mode, display.ErrInvalidCommand)
		}
	}
	return d.setDisplay(d.on, cursor, blink)
}

// Display turns the display on or off. The text is kept while it is off.
func (d *Dev) Display(on bool) error {
	return d.setDisplay(on, d.cursor, d.blink)
}

func (d *Dev) setDisplay(on, cursor, blink bool) error {
	if err := d.c.SetDisplay(on, cursor, blink); err != nil {
		return wrap(err)
	}
	d.on, d.cursor, d.blink = on, cursor, blink
	return nil
}

// Home moves the cursor to the first cell without touching the text.
func (d *Dev) Home() error {
	d.state.Row, d.state.Col = 1, 1
	return d.render()
}

// Move moves the cursor like the matching control request: Forward and
// Backward within the line, Down and Up to the end of the other line. A move
// past the text is ignored.
func (d *Dev) Move(dir display.CursorDirection) error {
	var e Escape
	switch dir {
	case display.Forward:
		e = Right
	case display.Backward:
		e = Left
	case display.Down:
		e = Newline
	case display.Up:
		e = PrevLine
	default:
		return wrap(display.ErrNotImplemented)
	}
	_, err := d.Apply(e)
	return err
}

// MoveTo moves the cursor to row and col. The column can't be past the end
// of the text on that row.
func (d *Dev) MoveTo(row, col int) error {
	next := d.state
	next.Row, next.Col = row, col
	if err := next.Check(); err != nil {
		return fmt.Errorf("%w: %w", display.ErrInvalidCommand, err)
	}
	d.state = next
	return d.render()
}

var _ display.TextDisplay = &Dev{}
var _ conn.Resource = &Dev{}
