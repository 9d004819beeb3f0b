// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"image/color"
	"io"
	"strings"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// ConsoleOpts represents the options available for a Console.
type ConsoleOpts struct {
	// W is where the display is drawn. Defaults to a colorable stdout.
	W io.Writer
	// Palette maps the bezel color to the terminal. Defaults to
	// ansi256.Default.
	Palette *ansi256.Palette
	// Bezel is the color of the frame around the cells.
	Bezel color.NRGBA

	_ struct{}
}

// DefaultConsoleOpts is the recommended default options.
var DefaultConsoleOpts = ConsoleOpts{
	Bezel: color.NRGBA{R: 0x20, G: 0x60, B: 0x20, A: 0xff},
}

// Console draws an Emulator to a terminal using ANSI codes.
type Console struct {
	e     *Emulator
	w     io.Writer
	bezel string
	frame string
	drawn bool

	buf bytes.Buffer
}

// NewConsole returns a Console showing e.
func NewConsole(e *Emulator, opts *ConsoleOpts) *Console {
	if opts == nil {
		opts = &DefaultConsoleOpts
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	bezel := p.Block(opts.Bezel)
	return &Console{
		e:     e,
		w:     w,
		bezel: bezel,
		frame: strings.Repeat(bezel, Cols+2),
	}
}

func (c *Console) String() string {
	return "lcdsim.Console"
}

// Refresh redraws the display in place.
func (c *Console) Refresh() error {
	c.buf.Reset()
	if c.drawn {
		// Back to the top of the previous drawing.
		_, _ = c.buf.WriteString("\033[4A")
	}
	row, col := c.e.Cursor()
	on, cursor, _ := c.e.DisplayOn()
	_, _ = c.buf.WriteString("\r" + c.frame + "\033[0m\n")
	for r := 1; r <= Rows; r++ {
		line := c.e.Line(r)
		_, _ = c.buf.WriteString("\r" + c.bezel + "\033[0;7m")
		for i := 0; i < len(line); i++ {
			ch := byte(' ')
			if on {
				ch = glyph(line[i])
			}
			if cursor && on && r == row && i+1 == col {
				_, _ = c.buf.WriteString("\033[4m")
				_ = c.buf.WriteByte(ch)
				_, _ = c.buf.WriteString("\033[24m")
			} else {
				_ = c.buf.WriteByte(ch)
			}
		}
		_, _ = c.buf.WriteString("\033[0m" + c.bezel + "\033[0m\n")
	}
	_, _ = c.buf.WriteString("\r" + c.frame + "\033[0m\n")
	c.drawn = true
	_, err := c.buf.WriteTo(c.w)
	return err
}

// Halt implements conn.Resource. It resets the terminal attributes.
func (c *Console) Halt() error {
	_, err := c.w.Write([]byte("\033[0m"))
	return err
}

// glyph maps a character code to what the A00 character ROM shows for it,
// folded to ASCII.
func glyph(b byte) byte {
	switch {
	case b < 0x20:
		// CGRAM, not emulated.
		return ' '
	case b == 0x5c:
		// The A00 ROM has a yen sign in place of the backslash.
		return 'Y'
	case b >= 0x7f:
		return '#'
	default:
		return b
	}
}
