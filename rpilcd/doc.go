// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rpilcd turns a stream of write requests into the contents of a 2x16
// HD44780 character display.
//
// Each request passed to Dev.Write is either a control escape or literal text.
// A control escape is exactly 3 bytes long: a backslash, one of the letters
// below, and a terminator byte that is not inspected (usually NUL or a
// newline, as produced by `echo '\n'`):
//
//	\n  move the cursor to the end of line 2
//	\p  move the cursor to the end of line 1
//	\r  move the cursor one cell right, up to one past the end of the line
//	\l  move the cursor one cell left
//	\d  delete the character before the cursor
//	\c  clear both lines and move the cursor home
//
// Anything else is text. Text is written at the cursor, replacing the rest of
// the line; text that doesn't fit on line 1 continues on line 2, and text
// that doesn't fit on line 2 is dropped.
//
// After every request the display is cleared and both lines are redrawn in
// full, then the cursor is put back.
//
// Dev also implements display.TextDisplay; its cursor moves follow the same
// rules as the escapes.
package rpilcd
