// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pidevices is a container for the drivers of a Raspberry Pi weather
// display.
//
// hd44780 drives a character display over GPIO or an I²C backpack, rpilcd
// turns a stream of text and control requests into what the display shows,
// and lcdsim emulates the display for development without hardware. dht11
// reads a humidity and temperature sensor and servo positions a hobby servo.
//
// cmd/rpilcd wires all of them together.
package pidevices
