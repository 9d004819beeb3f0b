// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// rpilcd drives a 2x16 HD44780 character display wired to the GPIO header of
// a Raspberry Pi, and the DHT11 weather station built around it.
//
// Text and control requests are read one per line:
//
//	echo 'Hello' > /run/rpilcd
//	echo '\n' > /run/rpilcd
//	echo 'World' > /run/rpilcd
package main

func main() {
	Execute()
}
