// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !unix

package main

import "errors"

func makeFIFO(path string) error {
	return errors.New("named pipes are not supported on this platform")
}
