// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bus provides register transports to TAS5731 amplifiers:
// the Linux I2C character devices and an in-memory simulated chip.
package bus // import "github.com/go-lpc/amp/bus"

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/d2r2/go-i2c"
	logger "github.com/d2r2/go-logger"
	"golang.org/x/sys/unix"
)

// ErrBusy is returned when another process already drives a chip.
var ErrBusy = errors.New("bus: device busy")

var (
	lockDir = "/var/lock"
	i2cOpen = i2cOpenImpl
)

func init() {
	// go-i2c logs every transfer at debug level.
	_ = logger.ChangePackageLogLevel("i2c", logger.InfoLevel)
}

type i2cConn interface {
	WriteBytes(p []byte) (int, error)
	ReadBytes(p []byte) (int, error)
	Close() error
}

func i2cOpenImpl(addr uint8, bus int) (i2cConn, error) {
	conn, err := i2c.NewI2C(addr, bus)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// I2C is a register transport to a chip on a Linux I2C bus.
//
// Register writes are sent as one transfer holding the register address
// followed by the data. Register reads send the register address, then
// read the data back.
type I2C struct {
	bus  int
	addr uint8

	conn i2cConn
	lock *os.File
}

// Open opens the chip at address addr of the I2C bus /dev/i2c-<bus>.
// Open takes an exclusive lock on the chip, released by Close.
func Open(bus int, addr uint8) (*I2C, error) {
	lock, err := lockFile(bus, addr)
	if err != nil {
		return nil, err
	}

	conn, err := i2cOpen(addr, bus)
	if err != nil {
		_ = unlock(lock)
		return nil, fmt.Errorf("bus: could not open i2c-%d@0x%02x: %w", bus, addr, err)
	}

	return &I2C{bus: bus, addr: addr, conn: conn, lock: lock}, nil
}

func (dev *I2C) String() string {
	return fmt.Sprintf("i2c-%d@0x%02x", dev.bus, dev.addr)
}

// Close closes the connection to the chip and releases its lock.
func (dev *I2C) Close() error {
	err := dev.conn.Close()
	if err != nil {
		_ = unlock(dev.lock)
		return fmt.Errorf("bus: could not close %v: %w", dev, err)
	}
	return unlock(dev.lock)
}

// ReadRegister reads len(p) bytes from the register at addr.
func (dev *I2C) ReadRegister(addr uint8, p []byte) error {
	n, err := dev.conn.WriteBytes([]byte{addr})
	switch {
	case err != nil:
		return fmt.Errorf("bus: could not select register 0x%02x of %v: %w", addr, dev, err)
	case n != 1:
		return fmt.Errorf("bus: could not select register 0x%02x of %v: %w", addr, dev, io.ErrShortWrite)
	}

	n, err = dev.conn.ReadBytes(p)
	switch {
	case err != nil:
		return fmt.Errorf("bus: could not read register 0x%02x of %v: %w", addr, dev, err)
	case n != len(p):
		return fmt.Errorf("bus: could not read register 0x%02x of %v: %w", addr, dev, io.ErrUnexpectedEOF)
	}
	return nil
}

// WriteRegister writes p to the register at addr.
func (dev *I2C) WriteRegister(addr uint8, p []byte) error {
	buf := make([]byte, 1+len(p))
	buf[0] = addr
	copy(buf[1:], p)

	n, err := dev.conn.WriteBytes(buf)
	switch {
	case err != nil:
		return fmt.Errorf("bus: could not write register 0x%02x of %v: %w", addr, dev, err)
	case n != len(buf):
		return fmt.Errorf("bus: could not write register 0x%02x of %v: %w", addr, dev, io.ErrShortWrite)
	}
	return nil
}

func lockFile(bus int, addr uint8) (*os.File, error) {
	fname := filepath.Join(lockDir, fmt.Sprintf("amp-i2c-%d-0x%02x.lock", bus, addr))
	f, err := os.OpenFile(fname, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("bus: could not create lock file: %w", err)
	}

	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("bus: could not lock i2c-%d@0x%02x: %w", bus, addr, ErrBusy)
		}
		return nil, fmt.Errorf("bus: could not lock i2c-%d@0x%02x: %w", bus, addr, err)
	}

	return f, nil
}

func unlock(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_UN)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("bus: could not unlock %q: %w", f.Name(), err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("bus: could not close lock file %q: %w", f.Name(), err)
	}
	return nil
}
