// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bus

import (
	"fmt"
	"sync"

	"github.com/go-lpc/amp/regmap"
)

// power-on contents of the single-byte registers.
var simDefaults = map[uint8]byte{
	0x00: 0x6c, 0x01: 0x70, 0x02: 0x00, 0x03: 0xa0,
	0x04: 0x05, 0x05: 0x40, 0x06: 0x00, 0x07: 0xff,
	0x08: 0x30, 0x09: 0x30, 0x0a: 0xff, 0x0b: 0x00,
	0x0c: 0x00, 0x0d: 0x00, 0x0e: 0x91, 0x10: 0x00,
	0x11: 0x02, 0x12: 0xac, 0x13: 0x54, 0x14: 0xac,
	0x15: 0x54, 0x16: 0x00, 0x17: 0x00, 0x18: 0x00,
	0x19: 0x00, 0x1a: 0x30, 0x1b: 0x0f, 0x1c: 0x82,
	0x1d: 0x02,
}

// Sim is an in-memory TAS5731 register file.
// It is safe for concurrent use.
type Sim struct {
	mu     sync.Mutex
	regs   map[uint8][]byte
	writes int
}

// NewSim returns a simulated chip holding its power-on register contents.
func NewSim() *Sim {
	sim := &Sim{regs: make(map[uint8][]byte)}
	for _, d := range regmap.Descriptors() {
		p := make([]byte, d.Width)
		if v, ok := simDefaults[d.Addr]; ok && d.Width == 1 {
			p[0] = v
		}
		sim.regs[d.Addr] = p
	}
	return sim
}

// ReadRegister reads len(p) bytes from the register at addr.
func (sim *Sim) ReadRegister(addr uint8, p []byte) error {
	sim.mu.Lock()
	defer sim.mu.Unlock()

	reg, ok := sim.regs[addr]
	if !ok {
		return fmt.Errorf("bus: no register 0x%02x on simulated chip", addr)
	}
	if len(p) != len(reg) {
		return fmt.Errorf("bus: invalid read length for register 0x%02x: got=%d, want=%d", addr, len(p), len(reg))
	}
	copy(p, reg)
	return nil
}

// WriteRegister writes p to the register at addr.
func (sim *Sim) WriteRegister(addr uint8, p []byte) error {
	sim.mu.Lock()
	defer sim.mu.Unlock()

	reg, ok := sim.regs[addr]
	if !ok {
		return fmt.Errorf("bus: no register 0x%02x on simulated chip", addr)
	}
	if len(p) != len(reg) {
		return fmt.Errorf("bus: invalid write length for register 0x%02x: got=%d, want=%d", addr, len(p), len(reg))
	}
	copy(reg, p)
	sim.writes++
	return nil
}

// Latch sets fault bits in the error status register, as the chip does
// when it detects a fault.
func (sim *Sim) Latch(faults byte) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	sim.regs[regmap.ErrorStatus][0] |= faults
}

// Register returns a copy of the content of the register at addr.
func (sim *Sim) Register(addr uint8) []byte {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return append([]byte(nil), sim.regs[addr]...)
}

// Writes returns the number of register writes the chip received.
func (sim *Sim) Writes() int {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return sim.writes
}

func (sim *Sim) Close() error { return nil }
