// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
)

// ImageOpts represents the options available for Snapshot.
type ImageOpts struct {
	// CellWidth and CellHeight are the size of one character cell in pixels.
	CellWidth  int
	CellHeight int
	// Gap is the space between cells and around the display, in pixels.
	Gap int
	// FontSize is the glyph size in points for the Go Mono font. Zero uses
	// the 7x13 bitmap font.
	FontSize float64
	// Background is the panel color, Cell the unlit cell color and Ink the
	// glyph color.
	Background color.Color
	Cell       color.Color
	Ink        color.Color

	_ struct{}
}

// DefaultImageOpts is the recommended default options: a green backlit panel
// with dark glyphs.
var DefaultImageOpts = ImageOpts{
	CellWidth:  20,
	CellHeight: 32,
	Gap:        4,
	FontSize:   24,
	Background: color.NRGBA{R: 0x50, G: 0x90, B: 0x10, A: 0xff},
	Cell:       color.NRGBA{R: 0x60, G: 0xa8, B: 0x18, A: 0xff},
	Ink:        color.NRGBA{R: 0x10, G: 0x20, B: 0x08, A: 0xff},
}

// Bounds returns the size of a Snapshot made with opts.
func (o *ImageOpts) Bounds() image.Rectangle {
	return image.Rect(0, 0,
		o.Gap+Cols*(o.CellWidth+o.Gap),
		o.Gap+Rows*(o.CellHeight+o.Gap))
}

func (o *ImageOpts) face() (font.Face, error) {
	if o.FontSize <= 0 {
		return basicfont.Face7x13, nil
	}
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: o.FontSize}), nil
}

// Snapshot renders what e shows into an image. A display that is off renders
// as blank cells.
func Snapshot(e *Emulator, opts *ImageOpts) (image.Image, error) {
	if opts == nil {
		opts = &DefaultImageOpts
	}
	face, err := opts.face()
	if err != nil {
		return nil, err
	}
	b := opts.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetFontFace(face)
	dc.SetColor(opts.Background)
	dc.Clear()

	on, cursor, _ := e.DisplayOn()
	crow, ccol := e.Cursor()
	w, h := float64(opts.CellWidth), float64(opts.CellHeight)
	for r := 1; r <= Rows; r++ {
		line := e.Line(r)
		y := float64(opts.Gap + (r-1)*(opts.CellHeight+opts.Gap))
		for c := 0; c < Cols; c++ {
			x := float64(opts.Gap + c*(opts.CellWidth+opts.Gap))
			dc.SetColor(opts.Cell)
			dc.DrawRectangle(x, y, w, h)
			dc.Fill()
			if !on {
				continue
			}
			dc.SetColor(opts.Ink)
			if ch := glyph(line[c]); ch != ' ' {
				dc.DrawStringAnchored(string(rune(ch)), x+w/2, y+h/2, 0.5, 0.5)
			}
			if cursor && r == crow && c+1 == ccol {
				dc.DrawRectangle(x, y+h-h/10, w, h/10)
				dc.Fill()
			}
		}
	}
	return dc.Image(), nil
}

// WritePNG encodes a Snapshot of e as PNG to w.
func WritePNG(w io.Writer, e *Emulator, opts *ImageOpts) error {
	img, err := Snapshot(e, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
