// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/GermanBionicSystems/pidevices/hd44780"
	"github.com/GermanBionicSystems/pidevices/lcdsim"
	"github.com/GermanBionicSystems/pidevices/rpilcd"
)

var (
	pngPath string

	simCmd = &cobra.Command{
		Use:   "sim",
		Short: "Type on an emulated display",
		Long: `Type on an emulated display in the terminal.

Printable keys write text at the cursor. Enter and Down go to line 2, Up to
line 1, Left and Right move the cursor, Backspace deletes and Ctrl-L clears.
Esc or Ctrl-C quits.`,
		Args: cobra.NoArgs,
		RunE: runSim,
	}
)

func init() {
	simCmd.Flags().StringVar(&pngPath, "png", "", "write a PNG snapshot of the display on exit")
}

var (
	styleBezel = tcell.StyleDefault.Background(tcell.NewRGBColor(0x20, 0x60, 0x20))
	styleCell  = tcell.StyleDefault.Background(tcell.NewRGBColor(0x60, 0xa8, 0x18)).Foreground(tcell.NewRGBColor(0x10, 0x20, 0x08))
	styleHelp  = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// keyRequest maps a key press to a request. ok is false for keys that don't
// map to anything.
func keyRequest(ev *tcell.EventKey) (req []byte, ok bool) {
	switch ev.Key() {
	case tcell.KeyEnter, tcell.KeyDown:
		return rpilcd.Newline.Request(), true
	case tcell.KeyUp:
		return rpilcd.PrevLine.Request(), true
	case tcell.KeyRight:
		return rpilcd.Right.Request(), true
	case tcell.KeyLeft:
		return rpilcd.Left.Request(), true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return rpilcd.Delete.Request(), true
	case tcell.KeyCtrlL:
		return rpilcd.Clear.Request(), true
	case tcell.KeyRune:
		r := ev.Rune()
		if r < 0x20 || r > 0x7e {
			return nil, false
		}
		return []byte{byte(r)}, true
	}
	return nil, false
}

func quitKey(ev *tcell.EventKey) bool {
	return ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC
}

// drawSim draws the emulated display with a bezel at the top left corner of
// s, followed by the text buffer state.
func drawSim(s tcell.Screen, e *lcdsim.Emulator, st rpilcd.State) {
	s.Clear()
	width := lcdsim.Cols + 2
	for x := range width {
		s.SetContent(x, 0, ' ', nil, styleBezel)
		s.SetContent(x, lcdsim.Rows+1, ' ', nil, styleBezel)
	}
	on, cursor, _ := e.DisplayOn()
	for r := 1; r <= lcdsim.Rows; r++ {
		s.SetContent(0, r, ' ', nil, styleBezel)
		s.SetContent(width-1, r, ' ', nil, styleBezel)
		line := e.Line(r)
		for c := 0; c < lcdsim.Cols; c++ {
			ch := rune(' ')
			if on {
				ch = rune(line[c])
			}
			s.SetContent(c+1, r, ch, nil, styleCell)
		}
	}
	if row, col := e.Cursor(); on && cursor && col <= lcdsim.Cols {
		s.ShowCursor(col, row)
	} else {
		s.HideCursor()
	}
	for i, ch := range st.String() {
		s.SetContent(i, lcdsim.Rows+3, ch, nil, styleHelp)
	}
	s.Show()
}

func runSim(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	e := lcdsim.NewEmulator()
	dev, err := rpilcd.New(hd44780.New(e, nil), &rpilcd.Opts{Logger: logger})
	if err != nil {
		return err
	}
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	err = simLoop(screen, dev, e)
	screen.Fini()
	if err != nil {
		return err
	}
	if pngPath != "" {
		return writeSnapshot(pngPath, e)
	}
	return nil
}

// simLoop handles key presses until a quit key.
func simLoop(s tcell.Screen, dev *rpilcd.Dev, e *lcdsim.Emulator) error {
	drawSim(s, e, dev.State())
	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			s.Sync()
			drawSim(s, e, dev.State())
		case *tcell.EventKey:
			if quitKey(ev) {
				return nil
			}
			req, ok := keyRequest(ev)
			if !ok {
				continue
			}
			if _, err := dev.Write(req); err != nil {
				return err
			}
			drawSim(s, e, dev.State())
		}
	}
}

func writeSnapshot(path string, e *lcdsim.Emulator) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := lcdsim.WritePNG(f, e, nil); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
