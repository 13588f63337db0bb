// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag holds the diagnostics tools of a TAS5731 amplifier:
// semantic decoding of register contents, register dump formatting and
// the text patch format used for live EQ/DRC tuning.
package diag // import "github.com/go-lpc/amp/diag"

import (
	"fmt"
	"strings"

	"github.com/go-lpc/amp/regmap"
)

var (
	clockRates = [8]string{
		"32k", "reserved", "reserved", "44.1/48k",
		"16k", "22.05/24k", "8k", "11.025/12k",
	}
	clockRatios = [8]string{
		"64fs", "128fs", "192fs", "256fs",
		"384fs", "512fs", "reserved", "reserved",
	}
	serialFormats = [9]string{
		"16b,Right-Justified", "20b,Right-Justified", "24b,Right-Justified",
		"16b,I2S", "20b,I2S", "24b,I2S",
		"16b,Left-Justified", "20b,Left-Justified", "24b,Left-Justified",
	}
)

// Clock decodes the clock control register into its sample rate and
// MCLK ratio.
func Clock(v byte) (rate, ratio string) {
	return clockRates[(v>>5)&0x7], clockRatios[(v>>2)&0x7]
}

// SerialFormat decodes the serial data interface register.
// It returns an empty string for unknown formats.
func SerialFormat(v byte) string {
	if int(v) >= len(serialFormats) {
		return ""
	}
	return serialFormats[v]
}

func inputSource(nibble byte, ch int) string {
	mode := "AD"
	if nibble&0x08 != 0 {
		mode = "BD"
	}
	var src string
	switch nibble & 0x07 {
	case 0:
		src = "SDIN L"
	case 1:
		src = "SDIN R"
	case 6:
		src = "Ground(0)"
	default:
		return ""
	}
	return fmt.Sprintf("%s to Ch%d, %s Mode", src, ch, mode)
}

// InputMux decodes the routing byte of the input mux register
// (second byte of the register).
func InputMux(v byte) string {
	var (
		ch1 = inputSource(v>>4, 1)
		ch2 = inputSource(v&0x0f, 2)
	)
	if ch2 == "" {
		return ch1
	}
	return ch1 + "|" + ch2
}

// PWMMux decodes the PWM output mux register.
func PWMMux(p []byte) string {
	if len(p) < 3 {
		return ""
	}
	var (
		o    strings.Builder
		outs = [4]byte{p[1] >> 4, p[1] & 0x0f, p[2] >> 4, p[2] & 0x0f}
	)
	for i, v := range outs {
		fmt.Fprintf(&o, "PWM%d->OUT_%c|", v+1, 'A'+i)
	}
	return o.String()
}

// Volume converts a volume register value to dB.
func Volume(v byte) int {
	return 24 - int(v/2)
}

// Decode returns the semantic description of the content of the register
// at addr, or an empty string when the register has no known decoding.
func Decode(addr uint8, p []byte) string {
	if len(p) == 0 {
		return ""
	}
	switch addr {
	case regmap.ClockCtl:
		rate, ratio := Clock(p[0])
		return "fs=" + rate + "|mclk=" + ratio
	case regmap.SerialDataInterface:
		return SerialFormat(p[0])
	case regmap.InputMux:
		if len(p) < 2 {
			return ""
		}
		return InputMux(p[1])
	case regmap.PWMMux:
		return PWMMux(p)
	case regmap.MasterVolume, regmap.Ch1Volume, regmap.Ch2Volume, regmap.Ch3Volume:
		return fmt.Sprintf("%d dB", Volume(p[0]))
	}
	return ""
}
