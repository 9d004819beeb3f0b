// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rpilcd

import "fmt"

// Rows is the number of display lines.
const Rows = 2

// State is the text and cursor of a display.
//
// Row is 1 or 2. Col is 1-based and may be Width+1, one past the last cell,
// when the cursor sits after a full line.
type State struct {
	Row   int
	Col   int
	Line1 Line
	Line2 Line
}

// Home returns an empty State with the cursor on the first cell.
func Home() State {
	return State{Row: 1, Col: 1}
}

// Line returns line row. Any row other than 2 returns line 1.
func (s State) Line(row int) Line {
	if row == 2 {
		return s.Line2
	}
	return s.Line1
}

// Len returns the number of characters on line row.
func (s State) Len(row int) int {
	return s.Line(row).Len()
}

func (s *State) setLine(row int, l Line) {
	if row == 2 {
		s.Line2 = l
	} else {
		s.Line1 = l
	}
}

// Check returns an error if the cursor is outside the current line.
func (s State) Check() error {
	if s.Row != 1 && s.Row != 2 {
		return fmt.Errorf("rpilcd: invalid row %d", s.Row)
	}
	if s.Col < 1 || s.Col > s.Len(s.Row)+1 {
		return fmt.Errorf("rpilcd: column %d outside [1, %d] on row %d", s.Col, s.Len(s.Row)+1, s.Row)
	}
	return nil
}

func (s State) String() string {
	return fmt.Sprintf("(%d,%d) %q %q", s.Row, s.Col, s.Line1.String(), s.Line2.String())
}
