// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package device drives a TAS5731 amplifier: bring-up, EQ/DRC coefficient
// commits, soft mute, volumes, diagnostics and power lifecycle.
//
// All register traffic of a Device is serialized by a per-device mutex,
// held for the whole duration of multi-register transactions.
package device // import "github.com/go-lpc/amp/device"

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/go-lpc/amp/platform"
	"github.com/go-lpc/amp/power"
)

// Transport gives burst access to the registers of a device.
type Transport interface {
	ReadRegister(addr uint8, p []byte) error
	WriteRegister(addr uint8, p []byte) error
}

// InputPin is a GPIO that can be configured as an input.
type InputPin interface {
	SetInput() error
}

var (
	ErrInvalidPreset = errors.New("device: invalid preset index")
	ErrPoweredOff    = errors.New("device: device is not powered")
)

// TransportError reports an I/O failure talking to the device.
type TransportError struct {
	Op   string // "read" or "write"
	Addr uint8
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("device: could not %s register 0x%02x: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ConfigError reports absent, malformed or inconsistent platform data.
// The affected feature is disabled.
type ConfigError struct {
	Feature string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("device: invalid %s configuration: %v", e.Feature, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// State is the lifecycle state of a device.
type State uint8

const (
	Uninitialized State = iota
	Resetting
	PoweringUp
	Configuring
	Running
	Muted
	ShuttingDown
	Off
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Resetting:
		return "resetting"
	case PoweringUp:
		return "powering-up"
	case Configuring:
		return "configuring"
	case Running:
		return "running"
	case Muted:
		return "muted"
	case ShuttingDown:
		return "shutting-down"
	case Off:
		return "off"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Status is the EQ/DRC runtime status of a device.
type Status struct {
	Enabled bool // EQ and DRC processing enabled
	Preset  int  // index of the active EQ preset
}

type volumes struct {
	master uint8
	ch1    uint8
	ch2    uint8
}

// Device is a TAS5731 amplifier.
type Device struct {
	mu  sync.Mutex
	msg *log.Logger

	tr    Transport
	cfg   platform.Config
	seq   *power.Sequencer
	sleep func(time.Duration)

	phone power.Pin
	scan  InputPin

	state  State
	status Status
	vols   volumes // snapshot restored on resume
}

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger of the device.
func WithLogger(msg *log.Logger) Option {
	return func(dev *Device) {
		dev.msg = msg
	}
}

// WithSequencer sets the power sequencer driving the reset and power-down
// lines of the device.
func WithSequencer(seq *power.Sequencer) Option {
	return func(dev *Device) {
		dev.seq = seq
	}
}

// WithSleep sets the function used for the bring-up delays.
func WithSleep(sleep func(time.Duration)) Option {
	return func(dev *Device) {
		dev.sleep = sleep
	}
}

// WithPhonePin sets the phone-detect line, driven low at attach.
func WithPhonePin(p power.Pin) Option {
	return func(dev *Device) {
		dev.phone = p
	}
}

// WithScanPin sets the scan line, configured as an input at attach.
func WithScanPin(p InputPin) Option {
	return func(dev *Device) {
		dev.scan = p
	}
}

// New attaches to the device reachable through tr, configured with cfg.
// The device is left Uninitialized: Init brings it up.
func New(tr Transport, cfg platform.Config, opts ...Option) (*Device, error) {
	if tr == nil {
		return nil, fmt.Errorf("device: nil transport")
	}

	dev := &Device{
		msg:   log.New(os.Stdout, "amp: ", 0),
		tr:    tr,
		cfg:   cfg,
		sleep: time.Sleep,
		state: Uninitialized,
		status: Status{
			Enabled: true,
			Preset:  cfg.EQ.Default,
		},
		vols: volumes{
			master: cfg.MasterVolume(),
			ch1:    defaultChVolume,
			ch2:    defaultChVolume,
		},
	}
	for _, opt := range opts {
		opt(dev)
	}
	if cfg.Name != "" {
		dev.msg.SetPrefix(dev.msg.Prefix() + cfg.Name + ": ")
	}

	if n := len(cfg.EQ.Presets); n > 0 && (cfg.EQ.Default < 0 || cfg.EQ.Default >= n) {
		dev.msg.Printf("invalid default EQ preset %d (presets=%d), using 0", cfg.EQ.Default, n)
		dev.status.Preset = 0
	}

	if dev.phone != nil {
		err := dev.phone.SetOutput(false)
		if err != nil {
			return nil, fmt.Errorf("device: could not drive phone line low: %w", err)
		}
	}
	if dev.scan != nil {
		err := dev.scan.SetInput()
		if err != nil {
			return nil, fmt.Errorf("device: could not configure scan line: %w", err)
		}
	}

	return dev, nil
}

// Name returns the speaker name of the device.
func (dev *Device) Name() string { return dev.cfg.Name }

// State returns the lifecycle state of the device.
func (dev *Device) State() State {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.state
}

// Status returns the EQ/DRC runtime status of the device.
func (dev *Device) Status() Status {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.status
}

// Presets returns the names of the EQ presets of the device.
func (dev *Device) Presets() []string {
	names := make([]string, len(dev.cfg.EQ.Presets))
	for i, p := range dev.cfg.EQ.Presets {
		names[i] = p.Name
	}
	return names
}

func (dev *Device) powered() error {
	switch dev.state {
	case Uninitialized, Off:
		return fmt.Errorf("%w (state=%v)", ErrPoweredOff, dev.state)
	}
	return nil
}
