// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-lpc/amp/diag"
	"github.com/go-lpc/amp/regmap"
)

// DumpRegister reads the register at addr and renders it as a dump line.
func (dev *Device) DumpRegister(addr uint8) (string, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	return dev.dumpRegister(addr)
}

func (dev *Device) dumpRegister(addr uint8) (string, error) {
	d, err := regmap.Lookup(addr)
	if err != nil {
		return "", err
	}
	p, err := dev.read(addr)
	if err != nil {
		return "", err
	}
	return diag.FormatLine(d, p), nil
}

// Dump writes the grouped dump of the device registers to w.
// Unreadable registers are reported in place and the dump proceeds.
func (dev *Device) Dump(w io.Writer) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	var errs []error
	fmt.Fprintf(w, "Dump registers of %s:\n", dev.cfg.Name)
	for _, grp := range diag.Groups {
		fmt.Fprintf(w, "\n%s:\n", grp.Name)
		for _, addr := range grp.Addrs {
			line, err := dev.dumpRegister(addr)
			if err != nil {
				errs = append(errs, err)
				fmt.Fprintf(w, "[0x%02x] %v\n", addr, err)
				continue
			}
			fmt.Fprintf(w, "%s\n", line)
		}
	}
	return errors.Join(errs...)
}

// ErrorStatus dumps the error status register, clears it and dumps it
// again.
func (dev *Device) ErrorStatus() (before, after string, err error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	before, err = dev.dumpRegister(regmap.ErrorStatus)
	if err != nil {
		return before, after, fmt.Errorf("device: could not dump error status: %w", err)
	}
	err = dev.write(regmap.ErrorStatus, 0x00)
	if err != nil {
		return before, after, fmt.Errorf("device: could not clear error status: %w", err)
	}
	after, err = dev.dumpRegister(regmap.ErrorStatus)
	if err != nil {
		return before, after, fmt.Errorf("device: could not dump error status: %w", err)
	}
	return before, after, nil
}

// Faults returns the content of the error status register, without
// clearing it.
func (dev *Device) Faults() (byte, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if err := dev.powered(); err != nil {
		return 0, err
	}
	p, err := dev.read(regmap.ErrorStatus)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// ApplyPatch parses a text patch and commits its DRC and EQ banks with
// the outputs soft-muted.
// A patch that does not parse leaves the device untouched.
func (dev *Device) ApplyPatch(txt string) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	patch, err := diag.ParsePatch(txt)
	if err != nil {
		return err
	}

	if err := dev.powered(); err != nil {
		return err
	}

	err = dev.write(regmap.SoftMute, softMuteAll)
	if err != nil {
		return fmt.Errorf("device: could not mute before patch: %w", err)
	}

	errs := []error{
		dev.commitDRC(patch.DRC[:]...),
		dev.commitEQ(patch.EQ),
	}

	mute := byte(softMuteNone)
	if dev.state == Muted {
		mute = softMuteAll
	}
	err = dev.write(regmap.SoftMute, mute)
	if err != nil {
		errs = append(errs, fmt.Errorf("device: could not unmute after patch: %w", err))
	}
	return errors.Join(errs...)
}

// SetSoftMute mutes or unmutes all the channels of the device.
func (dev *Device) SetSoftMute(mute bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if err := dev.powered(); err != nil {
		return err
	}

	v, state := byte(softMuteNone), Running
	if mute {
		v, state = softMuteAll, Muted
	}
	err := dev.write(regmap.SoftMute, v)
	if err != nil {
		return err
	}
	if dev.state == Running || dev.state == Muted {
		dev.state = state
	}
	return nil
}

// SoftMute returns the content of the soft mute register.
func (dev *Device) SoftMute() (byte, error) {
	return dev.reg1(regmap.SoftMute)
}

func isVolume(addr uint8) bool {
	switch addr {
	case regmap.MasterVolume, regmap.Ch1Volume, regmap.Ch2Volume:
		return true
	}
	return false
}

// SetVolume sets the master (regmap.MasterVolume) or channel
// (regmap.Ch1Volume, regmap.Ch2Volume) volume register.
func (dev *Device) SetVolume(addr uint8, v byte) error {
	if !isVolume(addr) {
		return fmt.Errorf("device: register 0x%02x is not a volume register", addr)
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()

	if err := dev.powered(); err != nil {
		return err
	}
	return dev.write(addr, v)
}

// Volume returns the content of a master or channel volume register.
func (dev *Device) Volume(addr uint8) (byte, error) {
	if !isVolume(addr) {
		return 0, fmt.Errorf("device: register 0x%02x is not a volume register", addr)
	}
	return dev.reg1(addr)
}

func (dev *Device) reg1(addr uint8) (byte, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if err := dev.powered(); err != nil {
		return 0, err
	}
	p, err := dev.read(addr)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}
