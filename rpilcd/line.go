// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rpilcd

// Width is the number of visible characters per line.
const Width = 16

// Line is the text of one display line. It never holds more than Width
// bytes; every operation that could grow it truncates at Width.
//
// The zero value is an empty line.
type Line struct {
	s string
}

// NewLine returns a Line holding s, truncated to Width bytes.
func NewLine(s string) Line {
	if len(s) > Width {
		s = s[:Width]
	}
	return Line{s: s}
}

func (l Line) String() string {
	return l.s
}

// Len returns the number of characters in the line.
func (l Line) Len() int {
	return len(l.s)
}

// Overwrite returns the line with everything from index at replaced by
// text. at is clamped to the line length.
func (l Line) Overwrite(at int, text string) Line {
	if at < 0 {
		at = 0
	}
	if at > len(l.s) {
		at = len(l.s)
	}
	return NewLine(l.s[:at] + text)
}

// Truncate returns the first n characters of the line.
func (l Line) Truncate(n int) Line {
	if n < 0 {
		n = 0
	}
	if n >= len(l.s) {
		return l
	}
	return Line{s: l.s[:n]}
}

// Remove returns the line without the character at index i. Out of range
// indexes return the line unchanged.
func (l Line) Remove(i int) Line {
	if i < 0 || i >= len(l.s) {
		return l
	}
	return Line{s: l.s[:i] + l.s[i+1:]}
}
