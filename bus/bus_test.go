// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bus

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"

	"github.com/go-lpc/amp/regmap"
)

type fakeConn struct {
	txs   []string
	rbuf  []byte
	short bool
	err   error
}

func (c *fakeConn) WriteBytes(p []byte) (int, error) {
	c.txs = append(c.txs, fmt.Sprintf("w % x", p))
	if c.err != nil {
		return 0, c.err
	}
	if c.short {
		return len(p) - 1, nil
	}
	return len(p), nil
}

func (c *fakeConn) ReadBytes(p []byte) (int, error) {
	c.txs = append(c.txs, fmt.Sprintf("r %d", len(p)))
	n := copy(p, c.rbuf)
	return n, nil
}

func (c *fakeConn) Close() error { return nil }

func withFakeConn(t *testing.T, conn *fakeConn) {
	t.Helper()
	oldDir, oldOpen := lockDir, i2cOpen
	lockDir = t.TempDir()
	i2cOpen = func(addr uint8, bus int) (i2cConn, error) {
		return conn, nil
	}
	t.Cleanup(func() {
		lockDir, i2cOpen = oldDir, oldOpen
	})
}

func TestI2C(t *testing.T) {
	conn := &fakeConn{rbuf: []byte{0x00, 0x01, 0x77, 0x72}}
	withFakeConn(t, conn)

	dev, err := Open(1, 0x1b)
	if err != nil {
		t.Fatalf("could not open i2c device: %+v", err)
	}
	defer dev.Close()

	if got, want := dev.String(), "i2c-1@0x1b"; got != want {
		t.Fatalf("invalid name: got=%q, want=%q", got, want)
	}

	err = dev.WriteRegister(regmap.SoftMute, []byte{0x07})
	if err != nil {
		t.Fatalf("could not write register: %+v", err)
	}

	p := make([]byte, 4)
	err = dev.ReadRegister(regmap.InputMux, p)
	if err != nil {
		t.Fatalf("could not read register: %+v", err)
	}
	if got, want := p, []byte{0x00, 0x01, 0x77, 0x72}; !bytes.Equal(got, want) {
		t.Fatalf("invalid register content: got=% x, want=% x", got, want)
	}

	want := []string{"w 06 07", "w 20", "r 4"}
	if !reflect.DeepEqual(conn.txs, want) {
		t.Fatalf("invalid transfers:\ngot= %q\nwant=%q", conn.txs, want)
	}
}

func TestI2CErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		conn *fakeConn
		op   func(dev *I2C) error
		want error
	}{
		{
			name: "short-write",
			conn: &fakeConn{short: true},
			op: func(dev *I2C) error {
				return dev.WriteRegister(regmap.InputMux, []byte{1, 2, 3, 4})
			},
			want: io.ErrShortWrite,
		},
		{
			name: "short-read",
			conn: &fakeConn{rbuf: []byte{1}},
			op: func(dev *I2C) error {
				return dev.ReadRegister(regmap.InputMux, make([]byte, 4))
			},
			want: io.ErrUnexpectedEOF,
		},
		{
			name: "nack",
			conn: &fakeConn{err: io.ErrClosedPipe},
			op: func(dev *I2C) error {
				return dev.ReadRegister(regmap.SoftMute, make([]byte, 1))
			},
			want: io.ErrClosedPipe,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			withFakeConn(t, tc.conn)
			dev, err := Open(1, 0x1a)
			if err != nil {
				t.Fatalf("could not open i2c device: %+v", err)
			}
			defer dev.Close()

			err = tc.op(dev)
			if !errors.Is(err, tc.want) {
				t.Fatalf("invalid error: got=%+v, want=%+v", err, tc.want)
			}
		})
	}
}

func TestLock(t *testing.T) {
	withFakeConn(t, &fakeConn{})

	dev, err := Open(2, 0x1b)
	if err != nil {
		t.Fatalf("could not open i2c device: %+v", err)
	}

	_, err = Open(2, 0x1b)
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected a busy error, got %+v", err)
	}

	other, err := Open(2, 0x1a)
	if err != nil {
		t.Fatalf("could not open other i2c device: %+v", err)
	}
	defer other.Close()

	err = dev.Close()
	if err != nil {
		t.Fatalf("could not close i2c device: %+v", err)
	}

	dev, err = Open(2, 0x1b)
	if err != nil {
		t.Fatalf("could not re-open i2c device: %+v", err)
	}
	_ = dev.Close()
}

func TestOpenError(t *testing.T) {
	withFakeConn(t, nil)
	i2cOpen = func(addr uint8, bus int) (i2cConn, error) {
		return nil, io.EOF
	}

	_, err := Open(3, 0x1b)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("invalid error: %+v", err)
	}

	// the lock must have been released.
	i2cOpen = func(addr uint8, bus int) (i2cConn, error) {
		return &fakeConn{}, nil
	}
	dev, err := Open(3, 0x1b)
	if err != nil {
		t.Fatalf("could not open i2c device: %+v", err)
	}
	_ = dev.Close()
}
