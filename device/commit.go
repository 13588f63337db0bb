// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"errors"
	"fmt"

	"github.com/go-lpc/amp/coef"
	"github.com/go-lpc/amp/regmap"
)

// eqBypass is the bit of the 4th byte of the bank-switch/EQ control
// register bypassing the EQ.
const eqBypass = 0x80

// enable/disable patterns of the EQ and DRC control registers.
// They are shared by the bring-up, the commit bracket and SetEnabled.
var (
	eqEnable   = [4]byte{0x00, 0x00, 0x00, 0x00}
	eqDisable  = [4]byte{0x00, 0x00, 0x00, eqBypass}
	drcEnable  = [4]byte{0x00, 0x00, 0x00, 0x03}
	drcDisable = [4]byte{0x00, 0x00, 0x00, 0x00}
)

// bracket writes ws between disable and enable.
// A failing write aborts the remaining ones. The enable step is only
// attempted when EQ/DRC processing is enabled, even after a failure.
// Caller must hold dev.mu.
func (dev *Device) bracket(what string, disable, enable func() error, ws []coef.Write) error {
	err := disable()
	if err == nil {
		for _, w := range ws {
			err = dev.write(w.Addr, w.Data...)
			if err != nil {
				break
			}
		}
	}
	if err != nil {
		err = fmt.Errorf("device: could not commit %s bank: %w", what, err)
		dev.msg.Printf("%+v", err)
	}

	if !dev.status.Enabled {
		return err
	}

	eerr := enable()
	if eerr != nil {
		eerr = fmt.Errorf("device: could not re-enable %s: %w", what, eerr)
		dev.msg.Printf("%+v", eerr)
	}
	return errors.Join(err, eerr)
}

// commitDRC writes the given DRC banks with DRC processing disabled.
// Caller must hold dev.mu.
func (dev *Device) commitDRC(banks ...*coef.Bank) error {
	var ws []coef.Write
	for _, bank := range banks {
		err := bank.Validate()
		if err != nil {
			return &ConfigError{Feature: "DRC", Err: err}
		}
		ws = append(ws, bank.Writes()...)
	}

	return dev.bracket(
		"DRC",
		func() error { return dev.write(regmap.DRCCtl, drcDisable[:]...) },
		func() error { return dev.write(regmap.DRCCtl, drcEnable[:]...) },
		ws,
	)
}

// commitEQ writes the given EQ bank with the EQ bypassed.
// The bypass bit is toggled with a read-modify-write of the control
// register, preserving the bank-switch bits.
// Caller must hold dev.mu.
func (dev *Device) commitEQ(bank *coef.Bank) error {
	err := bank.Validate()
	if err != nil {
		return &ConfigError{Feature: "EQ", Err: err}
	}

	ctl, err := dev.read(regmap.BankSwitchEQCtl)
	if err != nil {
		return fmt.Errorf("device: could not read EQ control: %w", err)
	}

	return dev.bracket(
		"EQ",
		func() error {
			ctl[3] |= eqBypass
			return dev.write(regmap.BankSwitchEQCtl, ctl...)
		},
		func() error {
			ctl[3] &^= eqBypass
			return dev.write(regmap.BankSwitchEQCtl, ctl...)
		},
		bank.Writes(),
	)
}

// SelectPreset commits the EQ preset with index i.
func (dev *Device) SelectPreset(i int) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if n := len(dev.cfg.EQ.Presets); i < 0 || i >= n {
		return fmt.Errorf("%w %d (presets=%d)", ErrInvalidPreset, i, n)
	}
	if err := dev.powered(); err != nil {
		return err
	}

	return dev.selectPreset(i)
}

func (dev *Device) selectPreset(i int) error {
	preset := dev.cfg.EQ.Presets[i]
	bank, err := coef.LoadEQ(preset.Regs)
	if err != nil {
		return &ConfigError{Feature: fmt.Sprintf("EQ preset %q", preset.Name), Err: err}
	}

	err = dev.commitEQ(bank)
	if err != nil {
		return err
	}
	dev.status.Preset = i
	dev.msg.Printf("EQ preset %q (%d) selected", preset.Name, i)
	return nil
}

// SetEnabled enables or disables the EQ and DRC processing together.
// When the DRC write fails, the EQ control is restored to its previous
// pattern and the status is left unchanged.
func (dev *Device) SetEnabled(on bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if err := dev.powered(); err != nil {
		return err
	}

	eq, drc := eqDisable, drcDisable
	if on {
		eq, drc = eqEnable, drcEnable
	}

	err := dev.write(regmap.BankSwitchEQCtl, eq[:]...)
	if err != nil {
		return fmt.Errorf("device: could not toggle EQ: %w", err)
	}
	err = dev.write(regmap.DRCCtl, drc[:]...)
	if err != nil {
		err = fmt.Errorf("device: could not toggle DRC: %w", err)
		prev := eqDisable
		if dev.status.Enabled {
			prev = eqEnable
		}
		if rerr := dev.write(regmap.BankSwitchEQCtl, prev[:]...); rerr != nil {
			err = errors.Join(err, fmt.Errorf("device: could not restore EQ: %w", rerr))
		}
		return err
	}

	dev.status.Enabled = on
	return nil
}
