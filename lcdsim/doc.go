// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsim emulates a 2x16 HD44780 character display.
//
// Emulator is an hd44780.Transceiver, so anything that drives a real display
// through package hd44780 can drive it instead. Console shows the emulated
// display in a terminal and Snapshot renders it to an image. Stream serves
// the snapshots over HTTP as a multipart image stream, and Tee keeps an
// emulator in sync with a real display so that it can be watched remotely.
//
// Useful to develop display code on a machine without GPIO, and to check in
// tests what actually ends up on screen.
package lcdsim
