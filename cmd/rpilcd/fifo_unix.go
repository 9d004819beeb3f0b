// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build unix

package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// makeFIFO creates a named pipe at path that anyone can write to. An existing
// pipe is reused.
func makeFIFO(path string) error {
	err := unix.Mkfifo(path, 0o622)
	if err == nil {
		// The umask may have dropped the write bits.
		return os.Chmod(path, 0o622)
	}
	if !errors.Is(err, unix.EEXIST) {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.Mode()&os.ModeNamedPipe == 0 {
		return fmt.Errorf("%s exists and is not a named pipe", path)
	}
	return nil
}
