// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rc exposes an amplifier as a TDAQ run-control process.
package rc // import "github.com/go-lpc/amp/rc"

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-daq/tdaq"
)

// Status is the content of a /status output frame.
type Status struct {
	State   string
	Enabled bool
	Preset  int
	Faults  byte
}

func (st Status) encode() []byte {
	var (
		buf = new(bytes.Buffer)
		enc = tdaq.NewEncoder(buf)
	)
	enc.WriteStr(st.State)
	enabled := uint8(0)
	if st.Enabled {
		enabled = 1
	}
	enc.WriteU8(enabled)
	enc.WriteU32(uint32(st.Preset))
	enc.WriteU8(st.Faults)
	return buf.Bytes()
}

// DecodeStatus decodes the body of a /status output frame.
func DecodeStatus(body []byte) Status {
	dec := tdaq.NewDecoder(bytes.NewReader(body))
	var st Status
	st.State = dec.ReadStr()
	st.Enabled = dec.ReadU8() != 0
	st.Preset = int(dec.ReadU32())
	st.Faults = dec.ReadU8()
	return st
}

// faultStatus describes the latched bits of the error status register.
// It reports whether no fault is latched.
func faultStatus(faults byte) (string, bool) {
	var (
		o  = new(strings.Builder)
		ok = true
	)
	for _, bit := range []struct {
		mask byte
		name string
	}{
		{0x80, "MCLK"},
		{0x40, "PLL autolock"},
		{0x20, "SCLK"},
		{0x10, "LRCLK"},
		{0x08, "frame slip"},
		{0x04, "clip"},
		{0x02, "OC/OT/UV"},
	} {
		if faults&bit.mask == 0 {
			continue
		}
		if !ok {
			fmt.Fprintf(o, " - ")
		}
		fmt.Fprintf(o, "%s error", bit.name)
		ok = false
	}
	if ok {
		return "All OK", true
	}
	return o.String(), false
}
