// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// amp-patch validates and displays EQ/DRC text patches, as exported by
// tuning tools, and converts them into platform configuration fragments.
//
// Usage: amp-patch [OPTIONS] PATCH1 [PATCH2 [PATCH3 ...]]
//
// Example:
//
//	$> amp-patch ./testdata/woofer1.txt
//	=== patch "./testdata/woofer1.txt" ===
//	DRC1:
//	[0x3a] 00 00 ... (DRC1 ae)
//	[...]
//	EQ:
//	[0x29] 00 80 00 00 ... (Ch1 BQ0)
//	[...]
//
//	$> amp-patch -yaml -preset night ./testdata/woofer1.txt
package main // import "github.com/go-lpc/amp/cmd/amp-patch"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/amp/coef"
	"github.com/go-lpc/amp/diag"
	"github.com/go-lpc/amp/platform"
	"github.com/go-lpc/amp/regmap"
	"gopkg.in/yaml.v3"
)

func main() {
	log.SetPrefix("amp-patch: ")
	log.SetFlags(0)

	var (
		doYAML = flag.Bool("yaml", false, "convert patches into platform configuration fragments")
		preset = flag.String("preset", "tuned", "name of the EQ preset in the YAML fragment")
	)

	flag.Usage = func() {
		fmt.Printf(`amp-patch validates and displays EQ/DRC text patches.

Usage: amp-patch [OPTIONS] PATCH1 [PATCH2 [PATCH3 ...]]

Example:

 $> amp-patch ./testdata/woofer1.txt
 $> amp-patch -yaml -preset night ./testdata/woofer1.txt

Options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing path to input patch file")
	}

	for _, fname := range flag.Args() {
		var err error
		switch {
		case *doYAML:
			err = convert(os.Stdout, fname, *preset)
		default:
			err = process(os.Stdout, fname)
		}
		if err != nil {
			log.Fatalf("could not handle patch %q: %+v", fname, err)
		}
	}
}

func load(fname string) (*diag.Patch, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", fname, err)
	}

	patch, err := diag.ParsePatch(string(raw))
	if err != nil {
		return nil, fmt.Errorf("could not parse patch: %w", err)
	}
	return patch, nil
}

func process(w io.Writer, fname string) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	patch, err := load(fname)
	if err != nil {
		return err
	}

	fmt.Fprintf(wbuf, "=== patch %q ===\n", fname)
	for ch, bank := range patch.DRC {
		fmt.Fprintf(wbuf, "DRC%d:\n", ch+1)
		err = display(wbuf, bank)
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(wbuf, "EQ:\n")
	return display(wbuf, patch.EQ)
}

func display(w io.Writer, bank *coef.Bank) error {
	for _, wr := range bank.Writes() {
		d, err := regmap.Lookup(wr.Addr)
		if err != nil {
			return fmt.Errorf("could not describe register: %w", err)
		}
		fmt.Fprintf(w, "%s\n", diag.FormatLine(d, wr.Data))
	}
	return nil
}

func blob(ws []coef.Write) platform.Hex {
	var o platform.Hex
	for _, w := range ws {
		o = append(o, w.Data...)
	}
	return o
}

func drcTable(bank *coef.Bank) platform.DRCTable {
	const nmain = 3 // energy, attack and decay filters
	ws := bank.Writes()
	return platform.DRCTable{
		Main: blob(ws[:nmain]),
		TKO:  blob(ws[nmain:]),
	}
}

func convert(w io.Writer, fname, preset string) error {
	patch, err := load(fname)
	if err != nil {
		return err
	}

	frag := struct {
		DRC platform.DRC `yaml:"drc"`
		EQ  platform.EQ  `yaml:"eq"`
	}{
		DRC: platform.DRC{
			Enable: true,
			Ch1:    drcTable(patch.DRC[0]),
			Ch2:    drcTable(patch.DRC[1]),
		},
		EQ: platform.EQ{
			Enable: true,
			Presets: []platform.Preset{
				{Name: preset, Regs: blob(patch.EQ.Writes())},
			},
		},
	}

	fmt.Fprintf(w, "# generated by amp-patch from %q\n", fname)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	err = enc.Encode(frag)
	if err != nil {
		return fmt.Errorf("could not encode YAML fragment: %w", err)
	}
	err = enc.Close()
	if err != nil {
		return fmt.Errorf("could not flush YAML fragment: %w", err)
	}
	return nil
}
