// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/GermanBionicSystems/pidevices/hd44780"
)

func initialized(t *testing.T) (*Emulator, *hd44780.Controller) {
	e := NewEmulator()
	c := hd44780.New(e, nil)
	if err := c.Init(); err != nil {
		t.Fatal(err)
	}
	return e, c
}

func TestInit(t *testing.T) {
	e, _ := initialized(t)
	if !e.Initialized() {
		t.Error("Initialized() = false after Init()")
	}
	on, cursor, blink := e.DisplayOn()
	if !on || !cursor || blink {
		t.Errorf("DisplayOn() = %t, %t, %t; expected true, true, false", on, cursor, blink)
	}
	if row, col := e.Cursor(); row != 1 || col != 1 {
		t.Errorf("Cursor() = (%d, %d)", row, col)
	}
	if e.Elapsed() < 40*time.Millisecond {
		t.Errorf("Elapsed() = %s, too short for the power-on sequence", e.Elapsed())
	}
}

func TestWrite(t *testing.T) {
	e, c := initialized(t)
	_ = c.PutString("Hello")
	_, _ = c.SetCursor(2, 3)
	_ = c.PutString("World")
	if diff := cmp.Diff(e.Text(), "Hello\n  World"); diff != "" {
		t.Errorf("Text() difference (-got +want):\n%s\n%s", diff, e.Dump())
	}
	if row, col := e.Cursor(); row != 2 || col != 8 {
		t.Errorf("Cursor() = (%d, %d), expected (2, 8)", row, col)
	}
	_ = c.Clear()
	if diff := cmp.Diff(e.Text(), "\n"); diff != "" {
		t.Errorf("Text() after Clear difference (-got +want):\n%s", diff)
	}
}

func TestAddressWrap(t *testing.T) {
	e, c := initialized(t)
	// Address 0x27 is the last cell of line 1 in RAM, the next character goes
	// to the start of line 2.
	if err := e.Transmit(0x80|0x27, hd44780.Command); err != nil {
		t.Fatal(err)
	}
	_ = c.PutString("ab")
	if got := e.Line(2); got[0] != 'b' {
		t.Errorf("Line(2) = %q, expected to start with b", got)
	}
	// Addresses in the gap between the lines land on line 2.
	_ = e.Transmit(0x80|0x30, hd44780.Command)
	if row, col := e.Cursor(); row != 2 || col != 1 {
		t.Errorf("Cursor() = (%d, %d), expected (2, 1)", row, col)
	}
	// Cursor shift left from line 2 start goes to the end of line 1.
	_ = e.Transmit(0x10, hd44780.Command)
	if row, col := e.Cursor(); row != 1 || col != 40 {
		t.Errorf("Cursor() = (%d, %d), expected (1, 40)", row, col)
	}
	_ = e.Transmit(0x14, hd44780.Command)
	if row, col := e.Cursor(); row != 2 || col != 1 {
		t.Errorf("Cursor() = (%d, %d), expected (2, 1)", row, col)
	}
}

func TestOnWrite(t *testing.T) {
	e := NewEmulator()
	n := 0
	e.OnWrite(func() { n++ })
	_ = e.Transmit('x', hd44780.Character)
	_ = e.Transmit(0x01, hd44780.Command)
	if n != 2 {
		t.Errorf("callback called %d times", n)
	}
}

func TestConsole(t *testing.T) {
	e, c := initialized(t)
	_ = c.PutString("Temp: 21")
	var buf bytes.Buffer
	con := NewConsole(e, &ConsoleOpts{W: &buf, Bezel: DefaultConsoleOpts.Bezel})
	if err := con.Refresh(); err != nil {
		t.Fatal(err)
	}
	first := buf.String()
	if !strings.Contains(first, "Temp: 21") {
		t.Errorf("console output missing text: %q", first)
	}
	if strings.Contains(first, "\033[4A") {
		t.Error("first refresh should not move up")
	}
	buf.Reset()
	if err := con.Refresh(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "\033[4A") {
		t.Error("second refresh should redraw in place")
	}
	if err := con.Halt(); err != nil {
		t.Fatal(err)
	}
}

func TestGlyph(t *testing.T) {
	for in, want := range map[byte]byte{0x01: ' ', 'A': 'A', '\\': 'Y', 0xff: '#', '~': '~'} {
		if got := glyph(in); got != want {
			t.Errorf("glyph(%#x) = %q, expected %q", in, got, want)
		}
	}
}

func TestSnapshot(t *testing.T) {
	e, c := initialized(t)
	_ = c.PutString("Hi")
	for _, tc := range []struct {
		name string
		opts *ImageOpts
	}{
		{name: "default"},
		{name: "bitmap font", opts: &ImageOpts{
			CellWidth:  8,
			CellHeight: 14,
			Gap:        1,
			Background: DefaultImageOpts.Background,
			Cell:       DefaultImageOpts.Cell,
			Ink:        DefaultImageOpts.Ink,
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WritePNG(&buf, e, tc.opts); err != nil {
				t.Fatal(err)
			}
			img, err := png.Decode(&buf)
			if err != nil {
				t.Fatal(err)
			}
			opts := tc.opts
			if opts == nil {
				opts = &DefaultImageOpts
			}
			if diff := cmp.Diff(img.Bounds(), opts.Bounds()); diff != "" {
				t.Errorf("Bounds() difference (-got +want):\n%s", diff)
			}
		})
	}
}
