// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mmap gives 32-bit register access to memory-mapped peripherals.
package mmap // import "github.com/go-lpc/amp/internal/mmap"

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

var (
	errClosed = errors.New("mmap: closed")
)

// Handle is a mapped register window.
type Handle struct {
	data  []byte
	unmap func([]byte) error
}

// Open maps size bytes of fname, starting at offset off.
func Open(fname string, off int64, size int) (*Handle, error) {
	f, err := os.OpenFile(fname, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap: could not open %q: %w", fname, err)
	}
	defer f.Close()

	data, err := unix.Mmap(
		int(f.Fd()), off, size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED,
	)
	if err != nil {
		return nil, fmt.Errorf("mmap: could not map %q (off=0x%x, size=%d): %w", fname, off, size, err)
	}

	h := &Handle{data: data, unmap: unix.Munmap}
	runtime.SetFinalizer(h, (*Handle).Close)
	return h, nil
}

// HandleFrom wraps an in-memory register window.
func HandleFrom(data []byte) *Handle {
	return &Handle{data: data}
}

// Close closes the mmap handle.
func (h *Handle) Close() error {
	if h == nil {
		return os.ErrInvalid
	}

	if h.data == nil {
		return nil
	}
	data := h.data
	h.data = nil
	runtime.SetFinalizer(h, nil)

	if h.unmap == nil {
		return nil
	}
	return h.unmap(data)
}

// Len returns the length of the mapped window.
func (h *Handle) Len() int {
	return len(h.data)
}

func (h *Handle) check(off int) error {
	if h == nil {
		return os.ErrInvalid
	}
	if h.data == nil {
		return errClosed
	}
	if off < 0 || off%4 != 0 || len(h.data) < off+4 {
		return fmt.Errorf("mmap: invalid register offset 0x%x", off)
	}
	return nil
}

// U32 reads the register at offset off.
func (h *Handle) U32(off int) (uint32, error) {
	if err := h.check(off); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(h.data[off:]), nil
}

// SetU32 writes v to the register at offset off.
func (h *Handle) SetU32(off int, v uint32) error {
	if err := h.check(off); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(h.data[off:], v)
	return nil
}
