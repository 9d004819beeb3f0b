// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rpilcd

import (
	"errors"

	"github.com/GermanBionicSystems/pidevices/hd44780"
)

// render clears the display, draws both lines from their first column and
// puts the cursor back. It always runs to the end; bus errors are joined and
// returned.
func (d *Dev) render() error {
	var errs []error
	add := func(err error) {
		if err != nil && !errors.Is(err, hd44780.ErrEmptyString) {
			errs = append(errs, err)
		}
	}
	add(d.c.Clear())
	for row := 1; row <= Rows; row++ {
		_, err := d.c.SetCursor(row, 1)
		add(err)
		// An empty line is reported by PutString and skipped.
		add(d.c.PutString(d.state.Line(row).String()))
	}
	_, err := d.c.SetCursor(d.state.Row, min(max(d.state.Col, 1), Width))
	add(err)
	if len(errs) != 0 {
		return wrap(errors.Join(errs...))
	}
	return nil
}
