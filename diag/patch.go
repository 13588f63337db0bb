// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-lpc/amp/coef"
	"github.com/go-lpc/amp/regmap"
)

var (
	ErrMissingMarker = errors.New("diag: missing register marker")
	ErrShortRun      = errors.New("diag: not enough bytes after marker")
	ErrBadToken      = errors.New("diag: invalid hex byte")
)

// PatchError describes why a text patch was rejected.
type PatchError struct {
	Addr uint8
	Err  error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("diag: invalid patch for register 0x%02x: %v", e.Addr, e.Err)
}

func (e *PatchError) Unwrap() error { return e.Err }

// Patch is a complete EQ and DRC coefficient set extracted from a
// text patch.
type Patch struct {
	EQ  *coef.Bank
	DRC [coef.NumChannels]*coef.Bank
}

// Writes returns the register writes of the patch: DRC channels first,
// then the EQ bank.
func (p *Patch) Writes() []coef.Write {
	var o []coef.Write
	for _, drc := range p.DRC {
		o = append(o, drc.Writes()...)
	}
	return append(o, p.EQ.Writes()...)
}

// PatchAddrs returns the register addresses a text patch must provide,
// in the order they are assembled into banks.
func PatchAddrs() []uint8 {
	var o []uint8
	for ch := 0; ch < coef.NumChannels; ch++ {
		for band := 0; band < coef.NumBands; band++ {
			o = append(o, coef.EQAddr(ch, band))
		}
	}
	for ch := 0; ch < coef.NumChannels; ch++ {
		main, tko := coef.DRCAddrs(ch)
		o = append(o, main[:]...)
		o = append(o, tko[:]...)
	}
	return o
}

// ParsePatch extracts a full EQ and DRC coefficient set from a text patch.
//
// A text patch holds, for every EQ and DRC register, a marker "X<addr>"
// (2 upper-case hex digits) followed by as many hex byte tokens as the
// register is wide. Markers may appear in any order, interleaved with
// arbitrary text. ParsePatch is all-or-nothing: any missing or malformed
// entry rejects the whole patch.
func ParsePatch(txt string) (*Patch, error) {
	var (
		eq   = make([]byte, 0, coef.EQSize)
		main [coef.NumChannels][]byte
		tko  [coef.NumChannels][]byte
	)

	for ch := 0; ch < coef.NumChannels; ch++ {
		for band := 0; band < coef.NumBands; band++ {
			v, err := parseEntry(txt, coef.EQAddr(ch, band))
			if err != nil {
				return nil, err
			}
			eq = append(eq, v...)
		}
	}

	for ch := 0; ch < coef.NumChannels; ch++ {
		maddrs, kaddrs := coef.DRCAddrs(ch)
		for _, addr := range maddrs {
			v, err := parseEntry(txt, addr)
			if err != nil {
				return nil, err
			}
			main[ch] = append(main[ch], v...)
		}
		for _, addr := range kaddrs {
			v, err := parseEntry(txt, addr)
			if err != nil {
				return nil, err
			}
			tko[ch] = append(tko[ch], v...)
		}
	}

	var (
		patch Patch
		err   error
	)
	patch.EQ, err = coef.LoadEQ(eq)
	if err != nil {
		return nil, fmt.Errorf("diag: could not load EQ bank from patch: %w", err)
	}
	for ch := range patch.DRC {
		patch.DRC[ch], err = coef.LoadDRC(ch, main[ch], tko[ch])
		if err != nil {
			return nil, fmt.Errorf("diag: could not load DRC bank from patch: %w", err)
		}
	}

	return &patch, nil
}

// FormatPatch renders register writes in the text patch format.
func FormatPatch(ws []coef.Write) string {
	var o strings.Builder
	for _, w := range ws {
		fmt.Fprintf(&o, "X%02X", w.Addr)
		for _, v := range w.Data {
			fmt.Fprintf(&o, " %02X", v)
		}
		o.WriteString("\n")
	}
	return o.String()
}

func parseEntry(txt string, addr uint8) ([]byte, error) {
	n := regmap.Width(addr)
	pos := findMarker(txt, addr)
	if pos < 0 {
		return nil, &PatchError{Addr: addr, Err: ErrMissingMarker}
	}

	var (
		out = make([]byte, 0, n)
		rem = txt[pos:]
	)
	for len(out) < n {
		rem = strings.TrimLeft(rem, " \t\r\n,:=;")
		if rem == "" {
			return nil, &PatchError{
				Addr: addr,
				Err:  fmt.Errorf("%w (got=%d, want=%d)", ErrShortRun, len(out), n),
			}
		}
		if strings.HasPrefix(rem, "0x") || strings.HasPrefix(rem, "0X") {
			rem = rem[2:]
		}
		i := 0
		for i < len(rem) && i < 2 && isHex(rem[i]) {
			i++
		}
		if i == 0 || (i < len(rem) && !isSep(rem[i])) {
			tok := rem
			if j := strings.IndexAny(tok, " \t\r\n"); j >= 0 {
				tok = tok[:j]
			}
			return nil, &PatchError{
				Addr: addr,
				Err:  fmt.Errorf("%w %q (byte %d/%d)", ErrBadToken, tok, len(out), n),
			}
		}
		out = append(out, unhex(rem[:i]))
		rem = rem[i:]
	}
	return out, nil
}

// findMarker returns the position right after the first "X<addr>" marker
// of txt, or -1.
func findMarker(txt string, addr uint8) int {
	var (
		tag = fmt.Sprintf("X%02X", addr)
		off = 0
	)
	for {
		i := strings.Index(txt[off:], tag)
		if i < 0 {
			return -1
		}
		beg := off + i
		end := beg + len(tag)
		if end == len(txt) || !isHex(txt[end]) {
			return end
		}
		off = beg + 1
	}
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isSep(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', ',', ':', '=', ';':
		return true
	}
	return false
}

func unhex(s string) byte {
	var v byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case '0' <= c && c <= '9':
			c -= '0'
		case 'a' <= c && c <= 'f':
			c -= 'a' - 10
		default:
			c -= 'A' - 10
		}
		v = v<<4 | c
	}
	return v
}
