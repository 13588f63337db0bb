// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regmap

import (
	"errors"
	"testing"
)

func TestLookup(t *testing.T) {
	for _, tc := range []struct {
		addr  uint8
		width int
		name  string
		valid bool
		err   error
	}{
		{addr: ClockCtl, width: 1, name: "Clock control", valid: true},
		{addr: 0x0b, width: 1, name: "reserved", valid: false},
		{addr: InputMux, width: 4, name: "Input MUX", valid: true},
		{addr: Ch1BQ0, width: 20, name: "ch1_bq[0]", valid: true},
		{addr: Ch2BQ8, width: 20, name: "ch2_bq[8]", valid: true},
		{addr: DRC2AD, width: 8, name: "DRC2 ad", valid: true},
		{addr: DRC1O, width: 4, name: "DRC1-O", valid: true},
		{addr: Ch1InputMixer, width: 16, name: "Ch1 input mixer", valid: true},
		{addr: Ch4OutputMixer, width: 8, name: "ch4 output mixer", valid: true},
		{addr: DevAddrUpdate, width: 4, name: "Device address update", valid: true},
		{addr: 0x63, err: ErrNotFound},
		{addr: 0xff, err: ErrNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Lookup(tc.addr)
			switch {
			case err != nil && tc.err != nil:
				if !errors.Is(err, tc.err) {
					t.Fatalf("invalid error: got=%+v, want=%+v", err, tc.err)
				}
				if got, want := Width(tc.addr), 0; got != want {
					t.Fatalf("invalid width: got=%d, want=%d", got, want)
				}
				return
			case err != nil:
				t.Fatalf("could not lookup 0x%02x: %+v", tc.addr, err)
			case tc.err != nil:
				t.Fatalf("expected an error for 0x%02x", tc.addr)
			}

			if got, want := d.Addr, tc.addr; got != want {
				t.Fatalf("invalid address: got=0x%02x, want=0x%02x", got, want)
			}
			if got, want := d.Width, tc.width; got != want {
				t.Fatalf("invalid width: got=%d, want=%d", got, want)
			}
			if got, want := Width(tc.addr), tc.width; got != want {
				t.Fatalf("invalid width: got=%d, want=%d", got, want)
			}
			if got, want := d.Name, tc.name; got != want {
				t.Fatalf("invalid name: got=%q, want=%q", got, want)
			}
			if got, want := d.Valid, tc.valid; got != want {
				t.Fatalf("invalid validity: got=%v, want=%v", got, want)
			}
		})
	}
}

func TestDescriptors(t *testing.T) {
	descs := Descriptors()
	if got, want := len(descs), 101; got != want {
		t.Fatalf("invalid number of descriptors: got=%d, want=%d", got, want)
	}

	for i := 1; i < len(descs); i++ {
		if descs[i-1].Addr >= descs[i].Addr {
			t.Fatalf(
				"descriptors not sorted: [%d]=0x%02x, [%d]=0x%02x",
				i-1, descs[i-1].Addr, i, descs[i].Addr,
			)
		}
	}

	for _, d := range descs {
		switch d.Width {
		case 1, 4, 8, 12, 16, 20:
		default:
			t.Fatalf("invalid width for %v", d)
		}
	}

	// modifying the returned slice must not alter the map.
	descs[0].Name = "boo"
	d, _ := Lookup(ClockCtl)
	if d.Name != "Clock control" {
		t.Fatalf("register map was modified: %v", d)
	}
}

func TestCheck(t *testing.T) {
	for _, tc := range []struct {
		name string
		addr uint8
		n    int
		want string
	}{
		{name: "ok-1", addr: MasterVolume, n: 1},
		{name: "ok-20", addr: Ch2BQ7, n: 20},
		{name: "short", addr: Ch2BQ7, n: 19, want: "regmap: invalid burst length for reg[0x5c](ch2_bq[7], 20 bytes): got=19, want=20"},
		{name: "reserved", addr: 0x37, n: 4, want: "regmap: register 0x37 is reserved"},
		{name: "missing", addr: 0x70, n: 4, want: "regmap: could not find register 0x70: regmap: no such register"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.addr, tc.n)
			switch {
			case err == nil && tc.want == "":
			case err == nil:
				t.Fatalf("expected an error (%s)", tc.want)
			case tc.want == "":
				t.Fatalf("could not check register: %+v", err)
			default:
				if got, want := err.Error(), tc.want; got != want {
					t.Fatalf("invalid error:\ngot= %s\nwant=%s", got, want)
				}
			}
		})
	}
}
