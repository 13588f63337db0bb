// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diag

import (
	"fmt"
	"strings"

	"github.com/go-lpc/amp/regmap"
)

// Group is a named set of registers dumped together.
type Group struct {
	Name  string
	Addrs []uint8
}

// Groups lists the registers of a full device dump.
var Groups = []Group{
	{
		Name: "SYSTEM",
		Addrs: []uint8{
			regmap.ClockCtl, regmap.DeviceID, regmap.SysCtl1, regmap.SysCtl2,
			regmap.SerialDataInterface, regmap.ModulationLimit,
		},
	},
	{
		Name:  "EQ/DRC En",
		Addrs: []uint8{regmap.DRCCtl, regmap.BankSwitchEQCtl},
	},
	{
		Name: "VOLUME",
		Addrs: []uint8{
			regmap.MasterVolume, regmap.Ch1Volume, regmap.Ch2Volume,
			regmap.Ch3Volume, regmap.VolumeConfig, regmap.SoftMute,
		},
	},
	{
		Name: "MUX/MIXER",
		Addrs: []uint8{
			regmap.InputMux, regmap.PWMMux, regmap.Ch4SourceSelect,
			regmap.Ch1InputMixer, regmap.Ch2InputMixer, regmap.Ch3InputMixer,
			regmap.Ch4InputMixer,
			regmap.Ch1OutputMixer, regmap.Ch2OutputMixer, regmap.Ch4OutputMixer,
		},
	},
	{
		Name: "EQ/DRC",
		Addrs: []uint8{
			0x29, 0x2a, 0x2b, 0x2c, 0x2d, 0x2e, 0x2f, regmap.Ch1BQ7, regmap.Ch1BQ8,
			0x30, 0x31, 0x32, 0x33, 0x34, 0x35, 0x36, regmap.Ch2BQ7, regmap.Ch2BQ8,
			regmap.DRC1AE, regmap.DRC1AA, regmap.DRC1AD,
			regmap.DRC1T, regmap.DRC1K, regmap.DRC1O,
			regmap.DRC2AE, regmap.DRC2AA, regmap.DRC2AD,
			regmap.DRC2T, regmap.DRC2K, regmap.DRC2O,
		},
	},
}

func hasDecoder(addr uint8) bool {
	switch addr {
	case regmap.ClockCtl, regmap.SerialDataInterface,
		regmap.InputMux, regmap.PWMMux,
		regmap.MasterVolume, regmap.Ch1Volume, regmap.Ch2Volume, regmap.Ch3Volume:
		return true
	}
	return false
}

// FormatLine renders the content p of register d as a single dump line:
//
//	[0x00] 6C (fs=44.1/48k|mclk=256fs)(Clock control)
//
// The decoded part is only present for registers with a known decoding.
func FormatLine(d regmap.Descriptor, p []byte) string {
	var o strings.Builder
	fmt.Fprintf(&o, "[0x%02x] ", d.Addr)
	for _, v := range p {
		fmt.Fprintf(&o, "%02X ", v)
	}
	if hasDecoder(d.Addr) {
		fmt.Fprintf(&o, "(%s)", Decode(d.Addr, p))
	}
	fmt.Fprintf(&o, "(%s)", d.Name)
	return o.String()
}
