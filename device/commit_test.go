// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/go-lpc/amp/coef"
	"github.com/go-lpc/amp/platform"
	"github.com/go-lpc/amp/regmap"
)

func runningDevice(t *testing.T, cfg platform.Config) (*Device, *fakeBus) {
	t.Helper()
	dev, bus, _ := newTestDevice(t, cfg)
	err := dev.Init()
	if err != nil {
		t.Fatalf("could not init device: %+v", err)
	}
	_ = bus.reset()
	return dev, bus
}

func TestSelectPreset(t *testing.T) {
	cfg := fullConfig()
	dev, bus := runningDevice(t, cfg)

	err := dev.SelectPreset(1)
	if err != nil {
		t.Fatalf("could not select preset: %+v", err)
	}

	eq, err := coef.LoadEQ(cfg.EQ.Presets[1].Regs)
	if err != nil {
		t.Fatalf("could not load EQ: %+v", err)
	}
	diffOps(t, bus.reset(), eqOps(true, 0, eq))

	if got, want := dev.Status(), (Status{Enabled: true, Preset: 1}); got != want {
		t.Fatalf("invalid status: got=%+v, want=%+v", got, want)
	}
}

func TestSelectPresetBounds(t *testing.T) {
	dev, bus := runningDevice(t, fullConfig())

	for _, i := range []int{-1, 2, 3} {
		err := dev.SelectPreset(i)
		if !errors.Is(err, ErrInvalidPreset) {
			t.Fatalf("invalid error for preset %d: %+v", i, err)
		}
		if ops := bus.reset(); len(ops) != 0 {
			t.Fatalf("unexpected traffic for preset %d: %q", i, ops)
		}
	}

	if got, want := dev.Status().Preset, 0; got != want {
		t.Fatalf("invalid preset: got=%d, want=%d", got, want)
	}
}

func TestSelectPresetInvalidData(t *testing.T) {
	cfg := fullConfig()
	cfg.EQ.Presets[1].Regs = cfg.EQ.Presets[1].Regs[:200]
	dev, bus := runningDevice(t, cfg)

	err := dev.SelectPreset(1)
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected a config error, got %+v", err)
	}
	if ops := bus.reset(); len(ops) != 0 {
		t.Fatalf("unexpected traffic: %q", ops)
	}
	if got, want := dev.Status().Preset, 0; got != want {
		t.Fatalf("invalid preset: got=%d, want=%d", got, want)
	}
}

func TestSetEnabled(t *testing.T) {
	dev, bus := runningDevice(t, fullConfig())

	err := dev.SetEnabled(false)
	if err != nil {
		t.Fatalf("could not disable EQ/DRC: %+v", err)
	}
	diffOps(t, bus.reset(), []string{
		wr(regmap.BankSwitchEQCtl, 0, 0, 0, 0x80),
		wr(regmap.DRCCtl, 0, 0, 0, 0),
	})
	if dev.Status().Enabled {
		t.Fatalf("EQ/DRC still enabled")
	}

	err = dev.SetEnabled(true)
	if err != nil {
		t.Fatalf("could not enable EQ/DRC: %+v", err)
	}
	diffOps(t, bus.reset(), []string{
		wr(regmap.BankSwitchEQCtl, 0, 0, 0, 0),
		wr(regmap.DRCCtl, 0, 0, 0, 3),
	})
	if !dev.Status().Enabled {
		t.Fatalf("EQ/DRC still disabled")
	}
}

func TestSetEnabledFailure(t *testing.T) {
	dev, bus := runningDevice(t, fullConfig())
	bus.fail = func(op string, addr uint8) error {
		if op == "W" && addr == regmap.DRCCtl {
			return io.ErrClosedPipe
		}
		return nil
	}

	err := dev.SetEnabled(false)
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("invalid error: %+v", err)
	}
	diffOps(t, bus.reset(), []string{
		wr(regmap.BankSwitchEQCtl, 0, 0, 0, 0x80),
		wr(regmap.DRCCtl, 0, 0, 0, 0),
		wr(regmap.BankSwitchEQCtl, 0, 0, 0, 0),
	})
	if !dev.Status().Enabled {
		t.Fatalf("EQ/DRC status changed by a failed toggle")
	}
}

func TestCommitWhileDisabled(t *testing.T) {
	cfg := fullConfig()
	dev, bus := runningDevice(t, cfg)

	err := dev.SetEnabled(false)
	if err != nil {
		t.Fatalf("could not disable EQ/DRC: %+v", err)
	}
	_ = bus.reset()

	err = dev.SelectPreset(1)
	if err != nil {
		t.Fatalf("could not select preset: %+v", err)
	}

	eq, err := coef.LoadEQ(cfg.EQ.Presets[1].Regs)
	if err != nil {
		t.Fatalf("could not load EQ: %+v", err)
	}
	// the bypass bit is already set: the bracket keeps it set.
	diffOps(t, bus.reset(), eqOps(false, eqBypass, eq))

	if got, want := dev.Status(), (Status{Enabled: false, Preset: 1}); got != want {
		t.Fatalf("invalid status: got=%+v, want=%+v", got, want)
	}
}

func TestCommitPreservesBankSwitch(t *testing.T) {
	cfg := fullConfig()
	dev, bus := runningDevice(t, cfg)
	bus.set(regmap.BankSwitchEQCtl, 0xf0, 0x0f, 0x00, 0x12)

	err := dev.SelectPreset(1)
	if err != nil {
		t.Fatalf("could not select preset: %+v", err)
	}

	ops := bus.reset()
	if got, want := ops[1], wr(regmap.BankSwitchEQCtl, 0xf0, 0x0f, 0x00, 0x92); got != want {
		t.Fatalf("invalid bypass write:\ngot= %q\nwant=%q", got, want)
	}
	if got, want := ops[len(ops)-1], wr(regmap.BankSwitchEQCtl, 0xf0, 0x0f, 0x00, 0x12); got != want {
		t.Fatalf("invalid re-enable write:\ngot= %q\nwant=%q", got, want)
	}
}

func TestCommitFailure(t *testing.T) {
	cfg := fullConfig()
	dev, bus := runningDevice(t, cfg)

	const bad = regmap.Ch1BQ0 + 2
	bus.fail = func(op string, addr uint8) error {
		if op == "W" && addr == bad {
			return io.ErrUnexpectedEOF
		}
		return nil
	}

	err := dev.SelectPreset(1)
	if err == nil {
		t.Fatalf("expected an error")
	}
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected a transport error, got %+v", err)
	}
	if got, want := terr.Addr, uint8(bad); got != want {
		t.Fatalf("invalid failing register: got=0x%02x, want=0x%02x", got, want)
	}

	eq, err := coef.LoadEQ(cfg.EQ.Presets[1].Regs)
	if err != nil {
		t.Fatalf("could not load EQ: %+v", err)
	}
	ws := eq.Writes()
	want := []string{
		rd(regmap.BankSwitchEQCtl),
		wr(regmap.BankSwitchEQCtl, 0, 0, 0, eqBypass),
		wr(ws[0].Addr, ws[0].Data...),
		wr(ws[1].Addr, ws[1].Data...),
		wr(ws[2].Addr, ws[2].Data...),
		wr(regmap.BankSwitchEQCtl, 0, 0, 0, 0),
	}
	diffOps(t, bus.reset(), want)

	if got, want := dev.Status(), (Status{Enabled: true, Preset: 0}); got != want {
		t.Fatalf("invalid status: got=%+v, want=%+v", got, want)
	}
}

func TestCommitReenableFailure(t *testing.T) {
	dev, bus := runningDevice(t, fullConfig())

	n := 0
	bus.fail = func(op string, addr uint8) error {
		if op == "W" && addr == regmap.BankSwitchEQCtl {
			n++
			if n == 2 {
				return io.ErrClosedPipe
			}
		}
		return nil
	}

	err := dev.SelectPreset(1)
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("invalid error: %+v", err)
	}
	if !strings.Contains(err.Error(), "device: could not re-enable EQ") {
		t.Fatalf("invalid error message: %v", err)
	}
}

func TestCommitDRC(t *testing.T) {
	cfg := fullConfig()
	dev, bus := runningDevice(t, cfg)

	bank, err := coef.LoadDRC(1, seq(coef.DRCMainSize, 0xa0), seq(coef.DRCTKOSize, 0xc0))
	if err != nil {
		t.Fatalf("could not load DRC: %+v", err)
	}

	dev.mu.Lock()
	err = dev.commitDRC(bank)
	dev.mu.Unlock()
	if err != nil {
		t.Fatalf("could not commit DRC: %+v", err)
	}

	want := drcOps(true, bank)
	diffOps(t, bus.reset(), want)

	for i, addr := range []uint8{
		regmap.DRC2AE, regmap.DRC2AA, regmap.DRC2AD,
		regmap.DRC2T, regmap.DRC2K, regmap.DRC2O,
	} {
		if !strings.HasPrefix(want[1+i], wr(addr)) {
			t.Fatalf("invalid DRC write order: op #%d=%q, want register 0x%02x", i, want[1+i], addr)
		}
	}
}
