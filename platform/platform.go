// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package platform describes the board-level configuration of an amplifier:
// coefficient tables, EQ presets, volumes and GPIO assignments.
//
// Configurations are loaded from YAML files or from a MySQL database.
package platform // import "github.com/go-lpc/amp/platform"

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-lpc/amp/coef"
	"gopkg.in/yaml.v3"
)

// DefaultMasterVolume is the master volume register value used when
// no custom master volume is configured.
const DefaultMasterVolume = 0x30

// Config is the platform configuration of one amplifier.
type Config struct {
	Name string `yaml:"name"` // speaker name, e.g. "woofer1"

	// MasterVol is the custom master volume. The master volume register
	// is set to 0xff-MasterVol. Zero selects DefaultMasterVolume.
	MasterVol uint8 `yaml:"master_vol"`

	// InitRegs overrides the input mux register at bring-up.
	InitRegs Hex `yaml:"input_mux_reg_buf"`

	DRC  DRC  `yaml:"drc"`
	EQ   EQ   `yaml:"eq"`
	Pins Pins `yaml:"pins"`
}

// MasterVolume returns the master volume register value of the
// configuration.
func (cfg Config) MasterVolume() byte {
	if cfg.MasterVol == 0 {
		return DefaultMasterVolume
	}
	return 0xff - cfg.MasterVol
}

// DRC configures the dynamic range compressor.
type DRC struct {
	Enable bool     `yaml:"enable"`
	Ch1    DRCTable `yaml:"drc1"`
	Ch2    DRCTable `yaml:"drc2"`
}

// DRCTable holds the coefficients of one DRC channel.
type DRCTable struct {
	Main Hex `yaml:"table"`     // energy, attack and decay: 24 bytes
	TKO  Hex `yaml:"tko_table"` // threshold, knee and offset: 12 bytes
}

// EQ configures the equalizer.
type EQ struct {
	Enable  bool     `yaml:"enable"`
	Default int      `yaml:"default"` // index of the preset selected at bring-up
	Presets []Preset `yaml:"presets"`
}

// Preset is a named EQ coefficient set.
type Preset struct {
	Name string `yaml:"name"`
	Regs Hex    `yaml:"regs"` // 360 bytes
}

// Pins holds the GPIO assignments of the amplifier.
// A nil pin is unassigned.
type Pins struct {
	Reset     *Pin `yaml:"reset"`
	PowerDown *Pin `yaml:"pdn"`
	Phone     *Pin `yaml:"phone"`
	Scan      *Pin `yaml:"scan"`
}

// Pin is a GPIO line and its active polarity.
type Pin struct {
	GPIO      int  `yaml:"gpio"`
	ActiveLow bool `yaml:"active_low"`
}

// Load reads a platform configuration from a YAML file.
func Load(fname string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(fname)
	if err != nil {
		return cfg, fmt.Errorf("platform: could not read %q: %w", fname, err)
	}

	err = yaml.Unmarshal(raw, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("platform: could not decode %q: %w", fname, err)
	}

	return cfg, nil
}

// Validate checks the lengths of the coefficient tables and the
// consistency of the preset selection.
// Every problem found is reported.
func (cfg Config) Validate() error {
	var errs []error
	check := func(what string, p Hex, n int) {
		if p != nil && len(p) != n {
			errs = append(errs, &coef.LengthError{What: what, Got: len(p), Want: n})
		}
	}

	check("input mux override", cfg.InitRegs, 4)
	check("DRC1 table", cfg.DRC.Ch1.Main, coef.DRCMainSize)
	check("DRC1 TKO table", cfg.DRC.Ch1.TKO, coef.DRCTKOSize)
	check("DRC2 table", cfg.DRC.Ch2.Main, coef.DRCMainSize)
	check("DRC2 TKO table", cfg.DRC.Ch2.TKO, coef.DRCTKOSize)
	for _, p := range cfg.EQ.Presets {
		check(fmt.Sprintf("EQ preset %q", p.Name), p.Regs, coef.EQSize)
	}

	if n := len(cfg.EQ.Presets); n > 0 && (cfg.EQ.Default < 0 || cfg.EQ.Default >= n) {
		errs = append(errs, fmt.Errorf("platform: invalid default EQ preset %d (presets=%d)", cfg.EQ.Default, n))
	}
	if cfg.EQ.Enable && len(cfg.EQ.Presets) == 0 {
		errs = append(errs, fmt.Errorf("platform: EQ enabled without presets"))
	}

	return errors.Join(errs...)
}

// Hex is a byte string.
// In YAML, it is either a sequence of integers or a string of hex bytes,
// optionally separated by white space, commas or "0x" prefixes.
type Hex []byte

// UnmarshalYAML implements yaml.Unmarshaler.
func (h *Hex) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		o := make([]byte, len(node.Content))
		for i, n := range node.Content {
			v, err := strconv.ParseUint(n.Value, 0, 8)
			if err != nil {
				return fmt.Errorf("platform: invalid byte %q at line %d: %w", n.Value, n.Line, err)
			}
			o[i] = byte(v)
		}
		*h = o
		return nil

	case yaml.ScalarNode:
		o, err := ParseHex(node.Value)
		if err != nil {
			return fmt.Errorf("platform: invalid hex string at line %d: %w", node.Line, err)
		}
		*h = o
		return nil
	}
	return fmt.Errorf("platform: invalid hex node at line %d", node.Line)
}

// MarshalYAML implements yaml.Marshaler.
func (h Hex) MarshalYAML() (interface{}, error) {
	return h.String(), nil
}

func (h Hex) String() string {
	var o strings.Builder
	for i, v := range h {
		if i > 0 {
			o.WriteString(" ")
		}
		fmt.Fprintf(&o, "%02x", v)
	}
	return o.String()
}

// ParseHex decodes a string of hex bytes.
func ParseHex(s string) ([]byte, error) {
	r := strings.NewReplacer(
		"0x", "", "0X", "",
		",", " ", "\n", " ", "\t", " ", "\r", " ",
	)
	s = r.Replace(s)

	var o []byte
	for _, tok := range strings.Fields(s) {
		if len(tok)%2 != 0 {
			tok = "0" + tok
		}
		v, err := hex.DecodeString(tok)
		if err != nil {
			return nil, err
		}
		o = append(o, v...)
	}
	return o, nil
}
