// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/GermanBionicSystems/pidevices/rpilcd"
)

var (
	fifoPath   string
	serialPort string
	baudRate   int
	simulate   bool
	httpAddr   string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Show requests read from stdin, a FIFO or a serial port",
		Long: `Show requests on the display, one request per line.

A line holding only \n, \p, \r, \l, \d or \c is a control request; any other
line is text written at the cursor.

Examples:
  # Read from a named pipe, created if missing
  rpilcd serve --fifo /run/rpilcd

  # Read from a microcontroller on a serial line
  rpilcd serve --serial /dev/ttyUSB0 -b 9600

  # Try it without hardware
  rpilcd serve --sim

  # Watch the display from a browser at http://raspberrypi:8080/
  rpilcd serve --fifo /run/rpilcd --http :8080`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&fifoPath, "fifo", "", "named pipe to read requests from")
	serveCmd.Flags().StringVar(&serialPort, "serial", "", "serial port to read requests from")
	serveCmd.Flags().IntVarP(&baudRate, "baud", "b", 115200, "serial baud rate")
	serveCmd.Flags().BoolVar(&simulate, "sim", false, "draw on the terminal instead of the GPIO display")
	serveCmd.Flags().StringVar(&httpAddr, "http", "", "stream the display as images on this address, e.g. :8080")
	serveCmd.MarkFlagsMutuallyExclusive("fifo", "serial")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if fifoPath == "" {
		fifoPath = cfg.FIFO
	}
	logger := newLogger()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if httpAddr == "" {
		httpAddr = cfg.HTTP
	}
	l, err := openLCD(cfg, lcdOpts{sim: simulate, http: httpAddr}, logger)
	if err != nil {
		return err
	}
	defer l.Close()
	if err := l.Refresh(); err != nil {
		return err
	}

	switch {
	case serialPort != "":
		port, err := serial.Open(serialPort, &serial.Mode{BaudRate: baudRate})
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", serialPort, err)
		}
		logger.Info("serving", "serial", serialPort, "baud", baudRate)
		return serve(ctx, l, port, logger)
	case fifoPath != "":
		if err := makeFIFO(fifoPath); err != nil {
			return err
		}
		// Opened read-write so that writers coming and going never cause an
		// EOF.
		f, err := os.OpenFile(fifoPath, os.O_RDWR, 0)
		if err != nil {
			return err
		}
		logger.Info("serving", "fifo", fifoPath)
		return serve(ctx, l, f, logger)
	default:
		logger.Info("serving", "input", "stdin")
		return serve(ctx, l, os.Stdin, logger)
	}
}

// serve shows every request read from r until EOF or until ctx is done. r is
// closed on return. Display errors are logged and don't stop the loop.
func serve(ctx context.Context, l *lcd, r io.ReadCloser, logger *slog.Logger) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			// Unblocks the pending read.
			_ = r.Close()
		case <-done:
		}
	}()
	defer r.Close()

	s := bufio.NewScanner(r)
	s.Split(rpilcd.ScanRequests)
	for s.Scan() {
		if _, err := l.Write(s.Bytes()); err != nil {
			logger.Error("display", "err", err)
		}
		if err := l.Refresh(); err != nil {
			return err
		}
	}
	if err := s.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("%w: %w", rpilcd.ErrTransport, err)
	}
	return nil
}
