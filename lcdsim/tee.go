// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"fmt"
	"time"

	"github.com/GermanBionicSystems/pidevices/hd44780"
)

// Tee is an hd44780.Transceiver that mirrors everything written to T into E,
// so that E always shows what the real display shows.
type Tee struct {
	T hd44780.Transceiver
	E *Emulator
}

// Transmit implements hd44780.Transceiver. E only sees bytes T accepted.
func (t *Tee) Transmit(b byte, mode hd44780.Mode) error {
	if err := t.T.Transmit(b, mode); err != nil {
		return err
	}
	return t.E.Transmit(b, mode)
}

// WriteNibble implements hd44780.Transceiver.
func (t *Tee) WriteNibble(n byte, settle time.Duration) error {
	if err := t.T.WriteNibble(n, settle); err != nil {
		return err
	}
	return t.E.WriteNibble(n, settle)
}

// Wait implements hd44780.Transceiver.
func (t *Tee) Wait(d time.Duration) {
	t.T.Wait(d)
	t.E.Wait(d)
}

func (t *Tee) String() string {
	return fmt.Sprintf("Tee{%v, %v}", t.T, t.E)
}

var _ hd44780.Transceiver = &Tee{}
