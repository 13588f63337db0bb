// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command amp-rc starts a TDAQ server driving an amplifier.
//
// The first positional argument names the platform configuration of the
// amplifier. Configurations are read from $AMP_CFG_DIR/<name>.yaml
// (default: /etc/amp) or, when $AMP_DB holds a DSN, from the platform DB.
// Setting $AMP_SIM drives a simulated amplifier.
//
// Example:
//
//	$> AMP_CFG_DIR=./testdata amp-rc -lvl dbg -id amp-rc-01 woofer1
package main // import "github.com/go-lpc/amp/cmd/amp-rc"

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/amp/internal/board"
	"github.com/go-lpc/amp/rc"
)

func main() {
	cmd := flags.New()

	name := "amp"
	if len(cmd.Args) > 0 {
		name = cmd.Args[0]
	}
	att := newAttacher()
	defer att.Close()

	dev := rc.NewServer(name, att.attach)

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/status", dev.Status)

	srv.RunHandle(dev.Run)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

type attacher struct {
	dir string // directory of YAML platform files
	dsn string // platform DB
	sim bool
	bus int

	mu  sync.Mutex
	brd *board.Board
}

func newAttacher() *attacher {
	att := &attacher{
		dir: os.Getenv("AMP_CFG_DIR"),
		dsn: os.Getenv("AMP_DB"),
		bus: 1,
	}
	if att.dir == "" {
		att.dir = "/etc/amp"
	}
	att.sim, _ = strconv.ParseBool(os.Getenv("AMP_SIM"))
	if v, err := strconv.Atoi(os.Getenv("AMP_I2C_BUS")); err == nil {
		att.bus = v
	}
	return att
}

// attach opens the named amplifier, releasing the previous one.
func (att *attacher) attach(name string) (rc.Device, error) {
	att.mu.Lock()
	defer att.mu.Unlock()

	opts := board.Options{
		Name: name,
		DB:   att.dsn,
		Sim:  att.sim,
		Bus:  att.bus,
		GPIO: "sysfs",
	}
	if att.dsn == "" {
		opts.Cfg = filepath.Join(att.dir, name+".yaml")
	}

	if att.brd != nil {
		err := att.brd.Close()
		att.brd = nil
		if err != nil {
			return nil, fmt.Errorf("could not release previous amplifier: %w", err)
		}
	}

	brd, err := board.Open(opts)
	if err != nil {
		return nil, err
	}
	att.brd = brd
	return brd.Dev, nil
}

func (att *attacher) Close() error {
	att.mu.Lock()
	defer att.mu.Unlock()

	if att.brd == nil {
		return nil
	}
	err := att.brd.Close()
	att.brd = nil
	return err
}
