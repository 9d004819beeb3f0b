// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package servo drives an SG90 class hobby servo from a PWM capable GPIO.
//
// The servo position is set by the width of a pulse repeated every 20ms:
// 0.5ms is one end of travel, 2.5ms the other.
package servo

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

const (
	// Period is the pulse repetition period.
	Period = 20 * time.Millisecond
	// Frequency is 1/Period.
	Frequency = 50 * physic.Hertz
	// MinPulse is the pulse width at 0°.
	MinPulse = 500 * time.Microsecond
	// MaxPulse is the pulse width at 180°.
	MaxPulse = 2500 * time.Microsecond

	// MaxTemperature is the temperature shown at full travel; 0°C is shown
	// at MinPulse.
	MaxTemperature = 50

	sweepStep  = 30 * physic.Degree
	sweepSteps = 6
	sweepDelay = 500 * time.Millisecond
)

// ClampPulse limits p to [MinPulse, MaxPulse].
func ClampPulse(p time.Duration) time.Duration {
	return min(max(p, MinPulse), MaxPulse)
}

// PulseForAngle returns the pulse width for a, with 0° at MinPulse and 180° at
// MaxPulse. Angles outside the travel are clamped.
func PulseForAngle(a physic.Angle) time.Duration {
	return pulseFor(float64(a) / float64(180*physic.Degree))
}

// PulseForTemperature returns the pulse width that points the servo at t on a
// 0 to 50°C scale. Temperatures outside the scale are clamped.
func PulseForTemperature(t physic.Temperature) time.Duration {
	c := float64(t-physic.ZeroCelsius) / float64(physic.Celsius)
	return pulseFor(c / MaxTemperature)
}

func pulseFor(ratio float64) time.Duration {
	ratio = min(max(ratio, 0), 1)
	return ClampPulse(MinPulse + time.Duration(ratio*float64(MaxPulse-MinPulse)))
}

// Duty returns the duty cycle of a pulse of width p every Period.
func Duty(p time.Duration) gpio.Duty {
	return gpio.Duty(int64(p) * int64(gpio.DutyMax) / int64(Period))
}

// Dev is a servo on a PWM pin.
type Dev struct {
	pin   gpio.PinOut
	pulse time.Duration
	after func(time.Duration) <-chan time.Time
}

// New returns a servo on p. Nothing is sent until the first write.
func New(p gpio.PinOut) *Dev {
	return &Dev{pin: p, after: time.After}
}

func (d *Dev) String() string {
	return fmt.Sprintf("servo{%s}", d.pin)
}

// Pulse returns the last pulse width written, 0 if none.
func (d *Dev) Pulse() time.Duration {
	return d.pulse
}

// WritePulse sets the pulse width, clamped to the servo travel.
func (d *Dev) WritePulse(p time.Duration) error {
	p = ClampPulse(p)
	if err := d.pin.PWM(Duty(p), Frequency); err != nil {
		return fmt.Errorf("servo: %w", err)
	}
	d.pulse = p
	return nil
}

// WriteAngle moves the servo to a.
func (d *Dev) WriteAngle(a physic.Angle) error {
	return d.WritePulse(PulseForAngle(a))
}

// WriteTemperature points the servo at t on the 0 to 50°C scale.
func (d *Dev) WriteTemperature(t physic.Temperature) error {
	return d.WritePulse(PulseForTemperature(t))
}

// Sweep steps the servo from 0° to 150° by 30°, holding each position for
// half a second. It is meant to check the mechanical range after mounting.
func (d *Dev) Sweep(ctx context.Context) error {
	for i := range sweepSteps {
		if err := d.WriteAngle(physic.Angle(i) * sweepStep); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.after(sweepDelay):
		}
	}
	return nil
}

// Halt stops the pulses; the servo stops holding its position.
func (d *Dev) Halt() error {
	if err := d.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("servo: %w", err)
	}
	d.pulse = 0
	return nil
}

var _ conn.Resource = &Dev{}
