// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpio drives the GPIO lines wired to an amplifier: reset,
// power-down, phone-detect and scan.
//
// Lines are driven by level: the active polarity of a line is handled by
// its user.
package gpio // import "github.com/go-lpc/amp/gpio"

import (
	"fmt"
	"sync"

	"github.com/go-lpc/amp/internal/mmap"
	"periph.io/x/conn/v3/driver/driverreg"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3/sysfs"
)

// Pin is a GPIO line.
type Pin interface {
	SetOutput(high bool) error
	SetInput() error
	Close() error
}

// Opener opens GPIO lines by number.
type Opener func(n int) (Pin, error)

// Backend returns the opener for the named GPIO backend:
// "sysfs" or "mmap".
func Backend(name string) (Opener, error) {
	switch name {
	case "sysfs":
		return func(n int) (Pin, error) {
			p, err := OpenSysfs(n)
			if err != nil {
				return nil, err
			}
			return p, nil
		}, nil
	case "mmap":
		return func(n int) (Pin, error) {
			p, err := OpenMMapped(n)
			if err != nil {
				return nil, err
			}
			return p, nil
		}, nil
	}
	return nil, fmt.Errorf("gpio: unknown backend %q", name)
}

// sysfsLine is the view of a sysfs GPIO line used by SysfsPin.
type sysfsLine interface {
	Out(l pgpio.Level) error
	In(pull pgpio.Pull, edge pgpio.Edge) error
	Read() pgpio.Level
	Halt() error
}

var (
	sysfsOnce sync.Once
	sysfsErr  error

	openSysfs = openSysfsImpl
)

func openSysfsImpl(n int) (sysfsLine, error) {
	sysfsOnce.Do(func() {
		_, sysfsErr = driverreg.Init()
	})
	if sysfsErr != nil {
		return nil, sysfsErr
	}
	p, ok := sysfs.Pins[n]
	if !ok {
		return nil, fmt.Errorf("no sysfs line %d", n)
	}
	return p, nil
}

// SysfsPin is a GPIO line driven through the Linux sysfs interface.
type SysfsPin struct {
	n    int
	line sysfsLine
}

// OpenSysfs returns the sysfs GPIO line n.
func OpenSysfs(n int) (*SysfsPin, error) {
	line, err := openSysfs(n)
	if err != nil {
		return nil, fmt.Errorf("gpio: could not open gpio%d: %w", n, err)
	}
	return &SysfsPin{n: n, line: line}, nil
}

// SetOutput drives the line high or low.
// The first call switches the line to output without glitching it.
func (p *SysfsPin) SetOutput(high bool) error {
	err := p.line.Out(pgpio.Level(high))
	if err != nil {
		return fmt.Errorf("gpio: could not drive gpio%d: %w", p.n, err)
	}
	return nil
}

// SetInput configures the line as an input.
func (p *SysfsPin) SetInput() error {
	err := p.line.In(pgpio.PullNoChange, pgpio.NoEdge)
	if err != nil {
		return fmt.Errorf("gpio: could not set gpio%d as input: %w", p.n, err)
	}
	return nil
}

// State returns the level of the line.
func (p *SysfsPin) State() (bool, error) {
	return p.line.Read() == pgpio.High, nil
}

func (p *SysfsPin) Close() error {
	err := p.line.Halt()
	if err != nil {
		return fmt.Errorf("gpio: could not release gpio%d: %w", p.n, err)
	}
	return nil
}

// AM335x GPIO bank registers.
const (
	bankSize = 0x1000

	regOE       = 0x134 // output enable, active low
	regDataIn   = 0x138
	regClearOut = 0x190
	regSetOut   = 0x194
)

var am335xBanks = [...]int64{0x44e07000, 0x4804c000, 0x481ac000, 0x481ae000}

var mapBank = func(bank int) (*mmap.Handle, error) {
	return mmap.Open("/dev/mem", am335xBanks[bank], bankSize)
}

// MMapped is a GPIO line of an AM335x bank, driven through the
// memory-mapped GPIO registers.
type MMapped struct {
	n    int
	mask uint32

	mu   sync.Mutex
	regs *mmap.Handle
}

// OpenMMapped maps the bank of the GPIO line n.
func OpenMMapped(n int) (*MMapped, error) {
	if n < 0 || n >= 32*len(am335xBanks) {
		return nil, fmt.Errorf("gpio: invalid gpio%d", n)
	}
	regs, err := mapBank(n / 32)
	if err != nil {
		return nil, fmt.Errorf("gpio: could not map gpio%d: %w", n, err)
	}
	return &MMapped{n: n, mask: 1 << uint(n%32), regs: regs}, nil
}

// SetOutput drives the line high or low.
// The level is latched before the output driver is enabled.
func (p *MMapped) SetOutput(high bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	reg := regClearOut
	if high {
		reg = regSetOut
	}
	err := p.regs.SetU32(reg, p.mask)
	if err != nil {
		return fmt.Errorf("gpio: could not drive gpio%d: %w", p.n, err)
	}
	return p.setOE(false)
}

// SetInput reconfigures the line as an input.
func (p *MMapped) SetInput() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setOE(true)
}

func (p *MMapped) setOE(input bool) error {
	oe, err := p.regs.U32(regOE)
	if err != nil {
		return fmt.Errorf("gpio: could not read gpio%d direction: %w", p.n, err)
	}
	switch {
	case input:
		oe |= p.mask
	default:
		oe &^= p.mask
	}
	err = p.regs.SetU32(regOE, oe)
	if err != nil {
		return fmt.Errorf("gpio: could not set gpio%d direction: %w", p.n, err)
	}
	return nil
}

// State returns the level of the line.
func (p *MMapped) State() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, err := p.regs.U32(regDataIn)
	if err != nil {
		return false, fmt.Errorf("gpio: could not read gpio%d: %w", p.n, err)
	}
	return v&p.mask != 0, nil
}

func (p *MMapped) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regs.Close()
}
