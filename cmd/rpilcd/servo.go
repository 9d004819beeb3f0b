// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/pidevices/servo"
)

var (
	angle   float64
	celsius float64
	sweep   bool
	hold    time.Duration

	servoCmd = &cobra.Command{
		Use:   "servo",
		Short: "Move the servo to an angle or a temperature",
		Long: `Move the servo once and exit.

Examples:
  # Point at 21°C on the 0 to 50°C scale
  rpilcd servo --temp 21

  # Middle position
  rpilcd servo --angle 90

  # Step through the range to check the mounting
  rpilcd servo --sweep`,
		Args: cobra.NoArgs,
		RunE: runServo,
	}
)

func init() {
	servoCmd.Flags().Float64Var(&angle, "angle", 0, "angle in degrees, 0 to 180")
	servoCmd.Flags().Float64Var(&celsius, "temp", 0, "temperature in °C, 0 to 50")
	servoCmd.Flags().BoolVar(&sweep, "sweep", false, "step from 0° to 150° by 30°")
	servoCmd.Flags().DurationVar(&hold, "hold", time.Second, "time to let the servo reach its position")
	servoCmd.MarkFlagsMutuallyExclusive("angle", "temp", "sweep")
	servoCmd.MarkFlagsOneRequired("angle", "temp", "sweep")
}

func runServo(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger := newLogger()
	if err := initHost(); err != nil {
		return err
	}
	p, err := pinByName(cfg.Pins.Servo)
	if err != nil {
		return err
	}
	d := servo.New(p)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case sweep:
		logger.Info("sweep", "servo", d)
		return ignoreCanceled(d.Sweep(ctx))
	case cmd.Flags().Changed("temp"):
		t := physic.ZeroCelsius + physic.Temperature(celsius*float64(physic.Celsius))
		err = d.WriteTemperature(t)
	default:
		err = d.WriteAngle(physic.Angle(angle * float64(physic.Degree)))
	}
	if err != nil {
		return err
	}
	logger.Info("moved", "servo", d, "pulse", d.Pulse())
	return ignoreCanceled(sleepCtx(ctx, hold))
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
