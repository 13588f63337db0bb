// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package power drives the reset and power-down lines of an amplifier
// through its power-up, reset and shutdown choreographies.
package power // import "github.com/go-lpc/amp/power"

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnassigned is returned by every sequence when the reset or the
// power-down line is not bound to a GPIO. No pin is touched in that case.
var ErrUnassigned = errors.New("power: reset/power-down lines unassigned")

// Timings of the power sequences.
const (
	PowerDownSetup   = 1 * time.Millisecond  // pdn active to reset active
	ResetSetup       = 1 * time.Millisecond  // reset active to pdn release
	PowerDownRelease = 10 * time.Millisecond // pdn release to reset release
	ResetRelease     = 15 * time.Millisecond // reset release to first I2C access

	// StopSettle is the delay after the stop command: 1ms + 1.3*tStop.
	StopSettle       = 170 * time.Millisecond
	ResetToPowerDown = 5 * time.Microsecond
	ResetPulseWidth  = 1 * time.Millisecond
)

// Pin is a binary GPIO output.
type Pin interface {
	// SetOutput configures the pin as an output driving the given level.
	SetOutput(high bool) error
}

// Line is a GPIO pin with its active polarity.
// A Line with a nil Pin is unassigned.
type Line struct {
	Pin       Pin
	ActiveLow bool
}

// Assigned returns whether the line is bound to a GPIO.
func (l Line) Assigned() bool { return l.Pin != nil }

func (l Line) set(active bool) error {
	return l.Pin.SetOutput(active != l.ActiveLow)
}

// Sequencer drives the reset and power-down lines of a device.
type Sequencer struct {
	reset Line
	pdn   Line
	sleep func(time.Duration)
}

// New returns a sequencer for the given reset and power-down lines.
// A nil sleep function defaults to time.Sleep.
func New(reset, pdn Line, sleep func(time.Duration)) *Sequencer {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Sequencer{reset: reset, pdn: pdn, sleep: sleep}
}

// Enabled returns whether both lines are assigned.
// When it returns false, every sequence is a no-op returning ErrUnassigned.
func (seq *Sequencer) Enabled() bool {
	return seq != nil && seq.reset.Assigned() && seq.pdn.Assigned()
}

type step struct {
	name   string
	line   Line
	active bool
	wait   time.Duration
}

func (seq *Sequencer) run(steps []step) error {
	for _, s := range steps {
		err := s.line.set(s.active)
		if err != nil {
			return fmt.Errorf("power: could not %s: %w", s.name, err)
		}
		if s.wait > 0 {
			seq.sleep(s.wait)
		}
	}
	return nil
}

// PowerUp runs the power-up choreography.
func (seq *Sequencer) PowerUp() error {
	if !seq.Enabled() {
		return ErrUnassigned
	}
	return seq.run([]step{
		{"assert power-down", seq.pdn, true, PowerDownSetup},
		{"assert reset", seq.reset, true, ResetSetup},
		{"release power-down", seq.pdn, false, PowerDownRelease},
		{"release reset", seq.reset, false, ResetRelease},
	})
}

// ResetPulse asserts then releases the reset line.
func (seq *Sequencer) ResetPulse() error {
	if !seq.Enabled() {
		return ErrUnassigned
	}
	return seq.run([]step{
		{"assert reset", seq.reset, true, ResetPulseWidth},
		{"release reset", seq.reset, false, ResetRelease},
	})
}

// PowerDown runs the shutdown choreography.
// stop is invoked first and must send the stop command to the device.
// A stop failure is reported but does not prevent the physical power-down.
func (seq *Sequencer) PowerDown(stop func() error) error {
	if !seq.Enabled() {
		return ErrUnassigned
	}

	var errs []error
	if stop != nil {
		err := stop()
		if err != nil {
			errs = append(errs, fmt.Errorf("power: could not send stop command: %w", err))
		}
	}
	seq.sleep(StopSettle)

	err := seq.run([]step{
		{"assert reset", seq.reset, true, ResetToPowerDown},
		{"assert power-down", seq.pdn, true, 0},
	})
	if err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
