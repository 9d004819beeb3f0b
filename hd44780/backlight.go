// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// GPIOMonoBacklight is an on/off backlight switched by a single GPIO pin,
// typically through a transistor on the LED supply.
type GPIOMonoBacklight struct {
	blPin gpio.PinOut
}

// NewBacklight returns a backlight driven by blPin.
func NewBacklight(blPin gpio.PinOut) *GPIOMonoBacklight {
	return &GPIOMonoBacklight{blPin: blPin}
}

// Backlight implements display.DisplayBacklight. Any non-zero intensity turns
// the backlight fully on.
func (bl *GPIOMonoBacklight) Backlight(intensity display.Intensity) error {
	return wrap(bl.blPin.Out(gpio.Level(intensity != 0)))
}

var _ display.DisplayBacklight = &GPIOMonoBacklight{}
