// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rpilcd

// Escape is a control request.
type Escape uint8

const (
	// Newline moves the cursor to the end of line 2.
	Newline Escape = iota + 1
	// PrevLine moves the cursor to the end of line 1.
	PrevLine
	// Right moves the cursor one cell right.
	Right
	// Left moves the cursor one cell left.
	Left
	// Delete removes the character before the cursor.
	Delete
	// Clear empties both lines.
	Clear
)

// escapeLen is the size of a control request: backslash, letter, terminator.
const escapeLen = 3

var escapeCodes = [...]byte{
	Newline:  'n',
	PrevLine: 'p',
	Right:    'r',
	Left:     'l',
	Delete:   'd',
	Clear:    'c',
}

var escapeNames = [...]string{
	Newline:  "Newline",
	PrevLine: "PrevLine",
	Right:    "Right",
	Left:     "Left",
	Delete:   "Delete",
	Clear:    "Clear",
}

func (e Escape) String() string {
	if e == 0 || int(e) >= len(escapeNames) {
		return "Escape(?)"
	}
	return escapeNames[e]
}

// Request returns the 3 byte request for e, NUL terminated.
func (e Escape) Request() []byte {
	return []byte{'\\', escapeCodes[e], 0}
}

// ParseEscape reports whether p is a control request and which one.
//
// Only requests of exactly 3 bytes are considered; the third byte is ignored.
func ParseEscape(p []byte) (Escape, bool) {
	if len(p) != escapeLen {
		return 0, false
	}
	return escapeFor(p[0], p[1])
}

func escapeFor(b0, b1 byte) (Escape, bool) {
	if b0 != '\\' {
		return 0, false
	}
	for e := Newline; e <= Clear; e++ {
		if escapeCodes[e] == b1 {
			return e, true
		}
	}
	return 0, false
}
