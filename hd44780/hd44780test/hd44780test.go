// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780test is meant to be used to test drivers built on top of an
// hd44780.Transceiver.
//
// Record keeps every operation and the time a real bus would have spent;
// Playback checks operations against an expected sequence.
package hd44780test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GermanBionicSystems/pidevices/hd44780"
)

// Kind is the type of a recorded operation.
type Kind uint8

const (
	// Byte is a full byte sent with Transmit.
	Byte Kind = iota
	// Nibble is a single nibble sent with WriteNibble.
	Nibble
	// Wait is an explicit delay.
	Wait
)

func (k Kind) String() string {
	switch k {
	case Byte:
		return "Byte"
	case Nibble:
		return "Nibble"
	default:
		return "Wait"
	}
}

// IO registers one operation on the bus.
type IO struct {
	Kind  Kind
	Value byte
	Mode  hd44780.Mode
	// Delay is the settle time for Nibble and the duration for Wait. It is
	// zero for Byte; the settle time is implied by Mode.
	Delay time.Duration
}

func (io IO) String() string {
	switch io.Kind {
	case Byte:
		return fmt.Sprintf("Byte(%#02x, %s)", io.Value, io.Mode)
	case Nibble:
		return fmt.Sprintf("Nibble(%#x, %s)", io.Value, io.Delay)
	default:
		return fmt.Sprintf("Wait(%s)", io.Delay)
	}
}

// Cmd is a shorthand for a command byte.
func Cmd(b byte) IO {
	return IO{Kind: Byte, Value: b, Mode: hd44780.Command}
}

// Chars returns one Character IO per byte of s.
func Chars(s string) []IO {
	out := make([]IO, 0, len(s))
	for i := 0; i < len(s); i++ {
		out = append(out, IO{Kind: Byte, Value: s[i], Mode: hd44780.Character})
	}
	return out
}

// Record implements hd44780.Transceiver and records every operation. It never
// sleeps; Elapsed accounts the time a real bus would have blocked.
type Record struct {
	sync.Mutex
	Ops     []IO
	Elapsed time.Duration
	// Err, when set, is returned by every Transmit and WriteNibble call.
	Err error
}

// Transmit implements hd44780.Transceiver.
func (r *Record) Transmit(b byte, mode hd44780.Mode) error {
	r.Lock()
	defer r.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Ops = append(r.Ops, IO{Kind: Byte, Value: b, Mode: mode})
	r.Elapsed += hd44780.SettleDelay(mode)
	return nil
}

// WriteNibble implements hd44780.Transceiver.
func (r *Record) WriteNibble(n byte, settle time.Duration) error {
	r.Lock()
	defer r.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Ops = append(r.Ops, IO{Kind: Nibble, Value: n & 0x0f, Delay: settle})
	r.Elapsed += settle
	return nil
}

// Wait implements hd44780.Transceiver.
func (r *Record) Wait(d time.Duration) {
	r.Lock()
	defer r.Unlock()
	r.Ops = append(r.Ops, IO{Kind: Wait, Delay: d})
	r.Elapsed += d
}

// Reset forgets all recorded operations.
func (r *Record) Reset() {
	r.Lock()
	defer r.Unlock()
	r.Ops = nil
	r.Elapsed = 0
}

// Bytes returns only the Byte operations.
func (r *Record) Bytes() []IO {
	r.Lock()
	defer r.Unlock()
	var out []IO
	for _, op := range r.Ops {
		if op.Kind == Byte {
			out = append(out, op)
		}
	}
	return out
}

func (r *Record) String() string {
	return "record"
}

// Playback implements hd44780.Transceiver and plays back a recorded sequence,
// failing on the first operation that differs.
type Playback struct {
	sync.Mutex
	Ops   []IO
	Count int
	// DontPanic makes Close return an error instead of panicking when not all
	// operations were consumed.
	DontPanic bool
}

// Transmit implements hd44780.Transceiver.
func (p *Playback) Transmit(b byte, mode hd44780.Mode) error {
	return p.next(IO{Kind: Byte, Value: b, Mode: mode})
}

// WriteNibble implements hd44780.Transceiver.
func (p *Playback) WriteNibble(n byte, settle time.Duration) error {
	return p.next(IO{Kind: Nibble, Value: n & 0x0f, Delay: settle})
}

// Wait implements hd44780.Transceiver. Waits are not compared.
func (p *Playback) Wait(d time.Duration) {
}

// Close returns an error if operations were left unplayed.
func (p *Playback) Close() error {
	p.Lock()
	defer p.Unlock()
	if len(p.Ops) != p.Count {
		err := fmt.Errorf("hd44780test: expected playback to be empty: I/O count %d; expected %d", p.Count, len(p.Ops))
		if !p.DontPanic {
			panic(err)
		}
		return err
	}
	return nil
}

func (p *Playback) String() string {
	return "playback"
}

func (p *Playback) next(got IO) error {
	p.Lock()
	defer p.Unlock()
	if p.Count >= len(p.Ops) {
		return errors.New("hd44780test: unexpected " + got.String())
	}
	want := p.Ops[p.Count]
	if got != want {
		return fmt.Errorf("hd44780test: unexpected %s, expected %s (op %d)", got, want, p.Count)
	}
	p.Count++
	return nil
}

// Dump formats ops one per line, handy in test failure messages.
func Dump(ops []IO) string {
	var sb strings.Builder
	for i, op := range ops {
		fmt.Fprintf(&sb, "%3d %s\n", i, op)
	}
	return sb.String()
}

var _ hd44780.Transceiver = &Record{}
var _ hd44780.Transceiver = &Playback{}
