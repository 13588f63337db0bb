// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"errors"

	"github.com/go-lpc/amp/regmap"
)

func (dev *Device) read(addr uint8) ([]byte, error) {
	n := regmap.Width(addr)
	err := regmap.Check(addr, n)
	if err != nil {
		return nil, err
	}
	p := make([]byte, n)
	err = dev.tr.ReadRegister(addr, p)
	if err != nil {
		return nil, &TransportError{Op: "read", Addr: addr, Err: err}
	}
	return p, nil
}

func (dev *Device) write(addr uint8, p ...byte) error {
	err := regmap.Check(addr, len(p))
	if err != nil {
		return err
	}
	err = dev.tr.WriteRegister(addr, p)
	if err != nil {
		return &TransportError{Op: "write", Addr: addr, Err: err}
	}
	return nil
}

// bwriter issues writes on a best-effort basis: failures are logged and
// collected, and the sequence proceeds.
type bwriter struct {
	dev  *Device
	errs []error
}

func (w *bwriter) write(addr uint8, p ...byte) {
	err := w.dev.write(addr, p...)
	if err != nil {
		w.dev.msg.Printf("could not write register 0x%02x: %+v", addr, err)
		w.errs = append(w.errs, err)
	}
}

func (w *bwriter) report(err error) {
	if err == nil {
		return
	}
	w.errs = append(w.errs, err)
}

func (w *bwriter) err() error {
	return errors.Join(w.errs...)
}
