// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diag

import (
	"testing"

	"github.com/go-lpc/amp/regmap"
)

func TestClock(t *testing.T) {
	for _, tc := range []struct {
		v     byte
		rate  string
		ratio string
	}{
		{0x6c, "44.1/48k", "256fs"},
		{0x74, "44.1/48k", "512fs"},
		{0x00, "32k", "64fs"},
		{0x20, "reserved", "64fs"},
		{0xfc, "11.025/12k", "reserved"},
		{0xc4, "8k", "128fs"},
	} {
		rate, ratio := Clock(tc.v)
		if rate != tc.rate || ratio != tc.ratio {
			t.Fatalf(
				"invalid clock decoding of 0x%02x: got=(%q, %q), want=(%q, %q)",
				tc.v, rate, ratio, tc.rate, tc.ratio,
			)
		}
	}
}

func TestDecode(t *testing.T) {
	for _, tc := range []struct {
		name string
		addr uint8
		data []byte
		want string
	}{
		{"clock", regmap.ClockCtl, []byte{0x6c}, "fs=44.1/48k|mclk=256fs"},
		{"clock-512", regmap.ClockCtl, []byte{0x74}, "fs=44.1/48k|mclk=512fs"},
		{"serial-i2s-24", regmap.SerialDataInterface, []byte{0x05}, "24b,I2S"},
		{"serial-rj-16", regmap.SerialDataInterface, []byte{0x00}, "16b,Right-Justified"},
		{"serial-lj-24", regmap.SerialDataInterface, []byte{0x08}, "24b,Left-Justified"},
		{"serial-unknown", regmap.SerialDataInterface, []byte{0x09}, ""},
		{"input-mux", regmap.InputMux, []byte{0x00, 0x01, 0x77, 0x72}, "SDIN L to Ch1, AD Mode|SDIN R to Ch2, AD Mode"},
		{"input-mux-bd", regmap.InputMux, []byte{0x00, 0x89, 0x77, 0x72}, "SDIN L to Ch1, BD Mode|SDIN R to Ch2, BD Mode"},
		{"input-mux-gnd", regmap.InputMux, []byte{0x00, 0x6e, 0x77, 0x72}, "Ground(0) to Ch1, AD Mode|Ground(0) to Ch2, BD Mode"},
		{"input-mux-ch1-only", regmap.InputMux, []byte{0x00, 0x13, 0x77, 0x72}, "SDIN R to Ch1, AD Mode"},
		{"input-mux-ch2-only", regmap.InputMux, []byte{0x00, 0x30, 0x77, 0x72}, "|SDIN L to Ch2, AD Mode"},
		{"pwm-mux", regmap.PWMMux, []byte{0x01, 0x13, 0x02, 0x45}, "PWM2->OUT_A|PWM4->OUT_B|PWM1->OUT_C|PWM3->OUT_D|"},
		{"master-vol", regmap.MasterVolume, []byte{0x30}, "0 dB"},
		{"ch1-vol", regmap.Ch1Volume, []byte{0x00}, "24 dB"},
		{"ch2-vol", regmap.Ch2Volume, []byte{0xff}, "-103 dB"},
		{"ch3-vol", regmap.Ch3Volume, []byte{0x80}, "-40 dB"},
		{"no-decoder", regmap.SoftMute, []byte{0x07}, ""},
		{"empty", regmap.ClockCtl, nil, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := Decode(tc.addr, tc.data)
			if got != tc.want {
				t.Fatalf("invalid decoding:\ngot= %q\nwant=%q", got, tc.want)
			}
		})
	}
}

func TestFormatLine(t *testing.T) {
	for _, tc := range []struct {
		addr uint8
		data []byte
		want string
	}{
		{
			regmap.ClockCtl, []byte{0x6c},
			"[0x00] 6C (fs=44.1/48k|mclk=256fs)(Clock control)",
		},
		{
			regmap.SerialDataInterface, []byte{0x0f},
			"[0x04] 0F ()(Serial data interface)",
		},
		{
			regmap.DRCCtl, []byte{0x00, 0x00, 0x00, 0x03},
			"[0x46] 00 00 00 03 (DRC control)",
		},
		{
			regmap.Ch1Volume, []byte{0x30},
			"[0x08] 30 (0 dB)(Channel 1 vol)",
		},
	} {
		d, err := regmap.Lookup(tc.addr)
		if err != nil {
			t.Fatalf("could not lookup 0x%02x: %+v", tc.addr, err)
		}
		if got, want := FormatLine(d, tc.data), tc.want; got != want {
			t.Fatalf("invalid dump line:\ngot= %q\nwant=%q", got, want)
		}
	}
}

func TestGroups(t *testing.T) {
	n := 0
	for _, grp := range Groups {
		for _, addr := range grp.Addrs {
			if err := regmap.Check(addr, regmap.Width(addr)); err != nil {
				t.Fatalf("group %q: invalid register: %+v", grp.Name, err)
			}
			n++
		}
	}
	if got, want := n, 6+2+6+10+30; got != want {
		t.Fatalf("invalid number of dumped registers: got=%d, want=%d", got, want)
	}
}
