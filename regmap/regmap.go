// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regmap describes the register map of a TAS5731 amplifier:
// address, byte width, validity and human readable name of every
// addressable register.
package regmap // import "github.com/go-lpc/amp/regmap"

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an address is not part of the register map.
var ErrNotFound = errors.New("regmap: no such register")

// Descriptor describes one register.
type Descriptor struct {
	Addr  uint8
	Width int // width in bytes: 1, 4, 8, 12, 16 or 20.
	Name  string
	Valid bool // false for reserved addresses.
}

func (d Descriptor) String() string {
	return fmt.Sprintf("reg[0x%02x](%s, %d bytes)", d.Addr, d.Name, d.Width)
}

// Lookup returns the descriptor of the register at addr.
func Lookup(addr uint8) (Descriptor, error) {
	i := index[addr]
	if i == 0 {
		return Descriptor{}, fmt.Errorf("regmap: could not find register 0x%02x: %w", addr, ErrNotFound)
	}
	return table[i-1], nil
}

// Width returns the byte width of the register at addr, or 0 when
// addr is not part of the register map.
func Width(addr uint8) int {
	i := index[addr]
	if i == 0 {
		return 0
	}
	return table[i-1].Width
}

// Descriptors returns all the descriptors of the register map,
// in increasing address order.
func Descriptors() []Descriptor {
	o := make([]Descriptor, len(table))
	copy(o, table)
	return o
}

// Check returns an error if a burst of n bytes at addr does not match a
// valid register of the map.
func Check(addr uint8, n int) error {
	d, err := Lookup(addr)
	if err != nil {
		return err
	}
	if !d.Valid {
		return fmt.Errorf("regmap: register 0x%02x is reserved", addr)
	}
	if n != d.Width {
		return fmt.Errorf(
			"regmap: invalid burst length for %v: got=%d, want=%d",
			d, n, d.Width,
		)
	}
	return nil
}

// index maps an address to its 1-based position in table.
var index [256]uint8

func init() {
	for i, d := range table {
		if index[d.Addr] != 0 {
			panic(fmt.Errorf("regmap: duplicate descriptor for 0x%02x", d.Addr))
		}
		index[d.Addr] = uint8(i + 1)
	}
}
