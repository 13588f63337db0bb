// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package board assembles an amplifier from its platform configuration:
// transport, GPIO lines, power sequencer and device.
package board // import "github.com/go-lpc/amp/internal/board"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/amp/bus"
	"github.com/go-lpc/amp/device"
	"github.com/go-lpc/amp/gpio"
	"github.com/go-lpc/amp/platform"
	"github.com/go-lpc/amp/power"
)

// DefaultAddr is the 7-bit I2C address of the amplifier.
const DefaultAddr = 0x1a

// Options describes where to find an amplifier and its configuration.
type Options struct {
	Cfg  string // YAML platform file
	DB   string // MySQL DSN of the platform DB, used instead of Cfg when set
	Name string // amplifier name in the platform DB

	Sim  bool  // use a simulated chip
	Bus  int   // I2C bus number
	Addr uint8 // I2C address

	GPIO   string      // GPIO backend: "sysfs" or "mmap"
	Opener gpio.Opener // overrides GPIO when set

	Msg *log.Logger
}

// Board is an attached amplifier with the resources it holds.
type Board struct {
	Dev *device.Device
	Sim *bus.Sim // simulated chip, if any

	closers []io.Closer
}

// Open loads the platform configuration and attaches to the amplifier.
func Open(opts Options) (*Board, error) {
	if opts.Msg == nil {
		opts.Msg = log.New(os.Stdout, "amp: ", 0)
	}
	if opts.Addr == 0 {
		opts.Addr = DefaultAddr
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		opts.Msg.Printf("invalid platform configuration: %+v", err)
	}

	var (
		brd = new(Board)
		tr  device.Transport
	)
	switch {
	case opts.Sim:
		brd.Sim = bus.NewSim()
		tr = brd.Sim
	default:
		dev, err := bus.Open(opts.Bus, opts.Addr)
		if err != nil {
			return nil, fmt.Errorf("board: could not open amplifier: %w", err)
		}
		brd.closers = append(brd.closers, dev)
		tr = dev
	}

	devopts, err := brd.pins(opts, cfg.Pins)
	if err != nil {
		_ = brd.Close()
		return nil, err
	}
	devopts = append(devopts, device.WithLogger(opts.Msg))

	brd.Dev, err = device.New(tr, cfg, devopts...)
	if err != nil {
		_ = brd.Close()
		return nil, fmt.Errorf("board: could not attach amplifier: %w", err)
	}

	return brd, nil
}

func loadConfig(opts Options) (platform.Config, error) {
	if opts.DB == "" {
		cfg, err := platform.Load(opts.Cfg)
		if err != nil {
			return cfg, fmt.Errorf("board: could not load platform configuration: %w", err)
		}
		return cfg, nil
	}

	db, err := platform.Open(opts.DB)
	if err != nil {
		return platform.Config{}, fmt.Errorf("board: could not open platform db: %w", err)
	}
	defer db.Close()

	cfg, err := db.Config(context.Background(), opts.Name)
	if err != nil {
		return cfg, fmt.Errorf("board: could not fetch platform configuration: %w", err)
	}
	return cfg, nil
}

func (brd *Board) pins(opts Options, pins platform.Pins) ([]device.Option, error) {
	if opts.Sim {
		return nil, nil
	}

	open := opts.Opener
	if open == nil {
		var err error
		open, err = gpio.Backend(opts.GPIO)
		if err != nil {
			return nil, fmt.Errorf("board: could not select GPIO backend: %w", err)
		}
	}

	line := func(name string, p *platform.Pin) (power.Line, error) {
		if p == nil {
			return power.Line{}, nil
		}
		pin, err := open(p.GPIO)
		if err != nil {
			return power.Line{}, fmt.Errorf("board: could not open %s line (gpio=%d): %w", name, p.GPIO, err)
		}
		brd.closers = append(brd.closers, pin)
		return power.Line{Pin: pin, ActiveLow: p.ActiveLow}, nil
	}

	var (
		opt  []device.Option
		errs []error
	)

	reset, err := line("reset", pins.Reset)
	errs = append(errs, err)
	pdn, err := line("power-down", pins.PowerDown)
	errs = append(errs, err)
	phone, err := line("phone", pins.Phone)
	errs = append(errs, err)
	scan, err := line("scan", pins.Scan)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	opt = append(opt, device.WithSequencer(power.New(reset, pdn, nil)))
	if phone.Assigned() {
		opt = append(opt, device.WithPhonePin(phone.Pin))
	}
	if scan.Assigned() {
		opt = append(opt, device.WithScanPin(scan.Pin.(gpio.Pin)))
	}
	return opt, nil
}

// Close releases the transport and GPIO lines of the board.
func (brd *Board) Close() error {
	var errs []error
	for i := len(brd.closers) - 1; i >= 0; i-- {
		err := brd.closers[i].Close()
		if err != nil {
			errs = append(errs, err)
		}
	}
	brd.closers = nil
	return errors.Join(errs...)
}
