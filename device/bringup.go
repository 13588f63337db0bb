// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-lpc/amp/coef"
	"github.com/go-lpc/amp/power"
	"github.com/go-lpc/amp/regmap"
)

const (
	// oscTrimSettle is the delay after the oscillator trim write.
	oscTrimSettle = 50 * time.Millisecond

	// startSettle is the delay after leaving shutdown: 1ms + 1.3*tStart.
	startSettle = 170 * time.Millisecond

	defaultChVolume   = 0x30
	fineMasterVolume  = 0x80 // channel 3 volume
	softMuteAll       = 0x07
	softMuteNone      = 0x00
	sysCtl2Shutdown   = 0x40
	sysCtl2Run        = 0x00
	clockCtl256fs     = 0x6c
	clockCtl512fs     = 0x74
	mclk512fsAt48kHz  = 512 * 48000
	customInitRegSize = 4
)

// default contents of the mux registers.
var (
	defaultInputMux  = []byte{0x00, 0x01, 0x77, 0x72}
	defaultCh4Source = []byte{0x00, 0x00, 0x43, 0x03}
	defaultPWMOutMux = []byte{0x01, 0x13, 0x02, 0x45}
)

// Init brings the device up, from power-on to full operation.
//
// Register write failures do not abort the bring-up: they are logged and
// the device is left Running with the affected feature possibly
// misconfigured. All the encountered errors are returned joined, with
// *TransportError values for I/O failures and *ConfigError values for
// unusable platform data.
func (dev *Device) Init() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	return dev.init()
}

func (dev *Device) init() error {
	w := &bwriter{dev: dev}

	dev.state = Resetting
	err := dev.seq.PowerUp()
	switch {
	case errors.Is(err, power.ErrUnassigned):
		dev.msg.Printf("power sequencing disabled: %v", err)
	case err != nil:
		dev.msg.Printf("could not power-up: %+v", err)
		w.report(err)
	}

	dev.state = Configuring
	w.write(regmap.OscTrim, 0x00)
	dev.sleep(oscTrimSettle)

	w.write(regmap.ClockCtl, clockCtl256fs)
	w.write(regmap.SysCtl1, 0xa0)
	w.write(regmap.SerialDataInterface, 0x05) // 24b, I2S
	w.write(regmap.BkndErr, 0x02)

	w.write(regmap.InputMux, defaultInputMux...)
	w.write(regmap.Ch4SourceSelect, defaultCh4Source...)
	w.write(regmap.PWMMux, defaultPWMOutMux...)

	dev.status.Enabled = true
	if err := dev.initDRC(); err != nil {
		dev.msg.Printf("could not set DRC: %+v", err)
		w.report(err)
	}
	if err := dev.initEQ(); err != nil {
		dev.msg.Printf("could not set EQ: %+v", err)
		w.report(err)
	}

	if regs := dev.cfg.InitRegs; regs != nil {
		if len(regs) == customInitRegSize {
			w.write(regmap.InputMux, regs...)
		} else {
			err := &ConfigError{
				Feature: "custom init",
				Err: fmt.Errorf(
					"invalid input mux override length: got=%d, want=%d",
					len(regs), customInitRegSize,
				),
			}
			dev.msg.Printf("could not apply custom init: %+v", err)
			w.report(err)
		}
	}

	w.write(regmap.VolumeConfig, 0xd1)
	w.write(regmap.StartStopPeriod, 0x0f)
	w.write(regmap.PWMShutdownGroup, 0x30)
	w.write(regmap.ModulationLimit, 0x07) // 93.8%, required above 18V

	dev.state = PoweringUp
	w.write(regmap.SysCtl2, sysCtl2Run)
	dev.sleep(startSettle)

	dev.state = Running
	w.write(regmap.MasterVolume, dev.cfg.MasterVolume())
	w.write(regmap.Ch1Volume, dev.vols.ch1)
	w.write(regmap.Ch2Volume, dev.vols.ch2)
	w.write(regmap.SoftMute, softMuteNone)
	w.write(regmap.Ch3Volume, fineMasterVolume)

	return w.err()
}

func (dev *Device) initDRC() error {
	drc := dev.cfg.DRC
	if !drc.Enable {
		return nil
	}

	var banks []*coef.Bank
	for ch, tbl := range []struct{ main, tko []byte }{
		{drc.Ch1.Main, drc.Ch1.TKO},
		{drc.Ch2.Main, drc.Ch2.TKO},
	} {
		if tbl.main == nil || tbl.tko == nil {
			return &ConfigError{
				Feature: "DRC",
				Err:     fmt.Errorf("missing DRC%d tables", ch+1),
			}
		}
		bank, err := coef.LoadDRC(ch, tbl.main, tbl.tko)
		if err != nil {
			return &ConfigError{Feature: "DRC", Err: err}
		}
		banks = append(banks, bank)
	}

	return dev.commitDRC(banks...)
}

func (dev *Device) initEQ() error {
	eq := dev.cfg.EQ
	if !eq.Enable {
		return nil
	}
	if len(eq.Presets) == 0 {
		return &ConfigError{Feature: "EQ", Err: fmt.Errorf("no EQ preset")}
	}
	return dev.selectPreset(dev.status.Preset)
}

// Suspend saves the master and channel volumes and powers the device
// down. Resume restores them.
func (dev *Device) Suspend() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if err := dev.powered(); err != nil {
		return err
	}

	var errs []error
	for _, v := range []struct {
		addr uint8
		dst  *uint8
	}{
		{regmap.Ch1Volume, &dev.vols.ch1},
		{regmap.Ch2Volume, &dev.vols.ch2},
		{regmap.MasterVolume, &dev.vols.master},
	} {
		p, err := dev.read(v.addr)
		if err != nil {
			dev.msg.Printf("could not save volume 0x%02x: %+v", v.addr, err)
			errs = append(errs, err)
			continue
		}
		*v.dst = p[0]
	}

	errs = append(errs, dev.shutdown())
	return errors.Join(errs...)
}

// Resume brings the device up again and restores the volumes saved
// by Suspend.
func (dev *Device) Resume() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	w := &bwriter{dev: dev}
	w.report(dev.init())
	w.write(regmap.Ch1Volume, dev.vols.ch1)
	w.write(regmap.Ch2Volume, dev.vols.ch2)
	w.write(regmap.MasterVolume, dev.vols.master)
	return w.err()
}

// Shutdown stops the device and powers it down.
// Without reset and power-down lines the chip is left untouched: the
// device is only marked Off and needs a new bring-up.
func (dev *Device) Shutdown() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	return dev.shutdown()
}

func (dev *Device) shutdown() error {
	dev.state = ShuttingDown
	defer func() { dev.state = Off }()

	stop := func() error {
		return dev.write(regmap.SysCtl2, sysCtl2Shutdown)
	}
	if !dev.seq.Enabled() {
		dev.msg.Printf("skipping shutdown sequence: %v", power.ErrUnassigned)
		return nil
	}

	err := dev.seq.PowerDown(stop)
	if err != nil {
		return fmt.Errorf("device: could not shutdown: %w", err)
	}
	return nil
}

// SetSysClock adapts the clock control register to the given MCLK
// frequency (in Hz).
func (dev *Device) SetSysClock(freq uint) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if err := dev.powered(); err != nil {
		return err
	}

	v := byte(clockCtl256fs)
	if freq == mclk512fsAt48kHz {
		v = clockCtl512fs
	}
	return dev.write(regmap.ClockCtl, v)
}
