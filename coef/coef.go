// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coef holds the in-memory representation of the EQ biquad and
// DRC coefficient banks of a TAS5731 amplifier, and their mapping onto
// register burst writes.
package coef // import "github.com/go-lpc/amp/coef"

import (
	"fmt"

	"github.com/go-lpc/amp/regmap"
)

const (
	NumChannels = 2  // number of processed channels
	NumBands    = 9  // number of biquads per channel
	BandSize    = 20 // size in bytes of one biquad (5 coefficients, 4 bytes each)

	// EQSize is the size in bytes of a full EQ bank.
	EQSize = NumChannels * NumBands * BandSize

	DRCMainSize = 3 * 8 // energy, attack and decay filters
	DRCTKOSize  = 3 * 4 // threshold, knee and offset
)

// Kind describes the functional block a bank belongs to.
type Kind uint8

const (
	EQ Kind = iota
	DRC
)

func (k Kind) String() string {
	switch k {
	case EQ:
		return "EQ"
	case DRC:
		return "DRC"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Write is a single register burst write.
type Write struct {
	Addr uint8
	Data []byte
}

// Bank is an ordered sequence of fixed-width register blocks.
type Bank struct {
	kind   Kind
	ch     int // DRC channel, 0 or 1. always 0 for EQ.
	blocks []Write
}

// Kind returns the functional block of this bank.
func (b *Bank) Kind() Kind { return b.kind }

// Channel returns the DRC channel (0 or 1) this bank drives.
func (b *Bank) Channel() int { return b.ch }

// Len returns the total number of coefficient bytes held by the bank.
func (b *Bank) Len() int {
	n := 0
	for _, blk := range b.blocks {
		n += len(blk.Data)
	}
	return n
}

// Writes returns the register writes needed to commit the bank,
// in table order.
func (b *Bank) Writes() []Write {
	o := make([]Write, len(b.blocks))
	for i, blk := range b.blocks {
		o[i] = Write{
			Addr: blk.Addr,
			Data: append([]byte(nil), blk.Data...),
		}
	}
	return o
}

// Validate checks every block of the bank against the register map.
func (b *Bank) Validate() error {
	for _, blk := range b.blocks {
		err := regmap.Check(blk.Addr, len(blk.Data))
		if err != nil {
			return fmt.Errorf("coef: invalid %v bank: %w", b.kind, err)
		}
	}
	return nil
}

// LengthError is returned when a coefficient source does not hold the
// expected number of bytes.
type LengthError struct {
	What string
	Got  int
	Want int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("coef: invalid %s length: got=%d, want=%d", e.What, e.Got, e.Want)
}

// eqAddrs maps (channel, band) to the biquad register.
// Bands 7 and 8 live in a separate register block.
var eqAddrs = [NumChannels][NumBands]uint8{
	{0x29, 0x2a, 0x2b, 0x2c, 0x2d, 0x2e, 0x2f, regmap.Ch1BQ7, regmap.Ch1BQ8},
	{0x30, 0x31, 0x32, 0x33, 0x34, 0x35, 0x36, regmap.Ch2BQ7, regmap.Ch2BQ8},
}

var drcAddrs = [NumChannels]struct {
	main [3]uint8
	tko  [3]uint8
}{
	{
		main: [3]uint8{regmap.DRC1AE, regmap.DRC1AA, regmap.DRC1AD},
		tko:  [3]uint8{regmap.DRC1T, regmap.DRC1K, regmap.DRC1O},
	},
	{
		main: [3]uint8{regmap.DRC2AE, regmap.DRC2AA, regmap.DRC2AD},
		tko:  [3]uint8{regmap.DRC2T, regmap.DRC2K, regmap.DRC2O},
	},
}

// EQAddr returns the register address of the given biquad band.
func EQAddr(ch, band int) uint8 {
	return eqAddrs[ch][band]
}

// DRCAddrs returns the main (energy, attack, decay) and TKO
// (threshold, knee, offset) register addresses of a DRC channel.
func DRCAddrs(ch int) (main, tko [3]uint8) {
	return drcAddrs[ch].main, drcAddrs[ch].tko
}

// LoadEQ creates a bank from a full EQ coefficient set, laid out as
// channel-major then band-major 20-byte biquads.
func LoadEQ(p []byte) (*Bank, error) {
	if len(p) != EQSize {
		return nil, &LengthError{What: "EQ bank", Got: len(p), Want: EQSize}
	}

	bank := &Bank{
		kind:   EQ,
		blocks: make([]Write, 0, NumChannels*NumBands),
	}
	buf := append([]byte(nil), p...)
	for ch := 0; ch < NumChannels; ch++ {
		for band := 0; band < NumBands; band++ {
			beg := ch*NumBands*BandSize + band*BandSize
			bank.blocks = append(bank.blocks, Write{
				Addr: eqAddrs[ch][band],
				Data: buf[beg : beg+BandSize : beg+BandSize],
			})
		}
	}
	return bank, nil
}

// LoadDRC creates the bank of one DRC channel (0 or 1) from its main
// 24-byte table and its 12-byte TKO table.
func LoadDRC(ch int, main, tko []byte) (*Bank, error) {
	if ch < 0 || ch >= NumChannels {
		return nil, fmt.Errorf("coef: invalid DRC channel %d", ch)
	}
	if len(main) != DRCMainSize {
		return nil, &LengthError{
			What: fmt.Sprintf("DRC%d table", ch+1),
			Got:  len(main), Want: DRCMainSize,
		}
	}
	if len(tko) != DRCTKOSize {
		return nil, &LengthError{
			What: fmt.Sprintf("DRC%d TKO table", ch+1),
			Got:  len(tko), Want: DRCTKOSize,
		}
	}

	var (
		bank = &Bank{
			kind:   DRC,
			ch:     ch,
			blocks: make([]Write, 0, 6),
		}
		m = append([]byte(nil), main...)
		k = append([]byte(nil), tko...)
	)
	for i, addr := range drcAddrs[ch].main {
		bank.blocks = append(bank.blocks, Write{Addr: addr, Data: m[i*8 : (i+1)*8 : (i+1)*8]})
	}
	for i, addr := range drcAddrs[ch].tko {
		bank.blocks = append(bank.blocks, Write{Addr: addr, Data: k[i*4 : (i+1)*4 : (i+1)*4]})
	}
	return bank, nil
}
