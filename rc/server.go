// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rc

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/amp/device"
)

// Device is an amplifier driven by run-control transitions.
type Device interface {
	Name() string
	State() device.State
	Status() device.Status
	Faults() (byte, error)

	Init() error
	Suspend() error
	Resume() error
	Shutdown() error
	SetSoftMute(mute bool) error
}

// AttachFunc attaches to the amplifier described by the named platform
// configuration.
type AttachFunc func(cfg string) (Device, error)

// Server maps run-control commands onto the lifecycle of an amplifier.
type Server struct {
	name   string
	attach AttachFunc
	freq   time.Duration

	mu  sync.Mutex
	dev Device

	status chan []byte
}

// Option configures a Server.
type Option func(*Server)

// WithFreq sets the period of the status frames.
func WithFreq(freq time.Duration) Option {
	return func(srv *Server) {
		srv.freq = freq
	}
}

// NewServer creates a run-control server. The amplifier is attached on
// /config with the default configuration name.
func NewServer(name string, attach AttachFunc, opts ...Option) *Server {
	srv := &Server{
		name:   name,
		attach: attach,
		freq:   time.Second,
		status: make(chan []byte, 64),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

func (srv *Server) device() (Device, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.dev == nil {
		return nil, fmt.Errorf("rc: no amplifier attached")
	}
	return srv.dev, nil
}

// OnConfig attaches the amplifier. The request body may hold the name
// of the platform configuration, as a tdaq string.
func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")

	cfg := srv.name
	if len(req.Body) > 0 {
		dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
		cfg = dec.ReadStr()
	}

	dev, err := srv.attach(cfg)
	if err != nil {
		ctx.Msg.Errorf("could not attach amplifier %q: %+v", cfg, err)
		return fmt.Errorf("rc: could not attach amplifier %q: %w", cfg, err)
	}

	srv.mu.Lock()
	srv.dev = dev
	srv.mu.Unlock()

	ctx.Msg.Infof("amplifier %q attached", dev.Name())
	return nil
}

// OnInit brings the amplifier up.
func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	dev, err := srv.device()
	if err != nil {
		return err
	}

	err = dev.Init()
	if err != nil {
		// bring-up is best effort: the device is running, possibly
		// with some features misconfigured.
		ctx.Msg.Errorf("could not fully initialize amplifier: %+v", err)
		var terr *device.TransportError
		if errors.As(err, &terr) {
			return fmt.Errorf("rc: could not initialize amplifier: %w", err)
		}
	}
	return nil
}

// OnReset suspends and resumes the amplifier.
func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	dev, err := srv.device()
	if err != nil {
		return err
	}

	err = dev.Suspend()
	if err != nil {
		ctx.Msg.Errorf("could not suspend amplifier: %+v", err)
		return fmt.Errorf("rc: could not suspend amplifier: %w", err)
	}
	err = dev.Resume()
	if err != nil {
		ctx.Msg.Errorf("could not resume amplifier: %+v", err)
		return fmt.Errorf("rc: could not resume amplifier: %w", err)
	}
	return nil
}

// OnStart unmutes the outputs.
func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	dev, err := srv.device()
	if err != nil {
		return err
	}

	err = dev.SetSoftMute(false)
	if err != nil {
		return fmt.Errorf("rc: could not unmute amplifier: %w", err)
	}
	return nil
}

// OnStop mutes the outputs.
func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command...")
	dev, err := srv.device()
	if err != nil {
		return err
	}

	err = dev.SetSoftMute(true)
	if err != nil {
		return fmt.Errorf("rc: could not mute amplifier: %w", err)
	}
	return nil
}

// OnQuit shuts the amplifier down.
func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	dev, err := srv.device()
	if err != nil {
		// nothing attached: nothing to shut down.
		return nil
	}

	err = dev.Shutdown()
	if err != nil {
		ctx.Msg.Errorf("could not shutdown amplifier: %+v", err)
		return fmt.Errorf("rc: could not shutdown amplifier: %w", err)
	}
	return nil
}

// Status sends the next status frame.
func (srv *Server) Status(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-srv.status:
		dst.Body = data
	}
	return nil
}

// Run produces a status frame every period until ctx is done.
func (srv *Server) Run(ctx tdaq.Context) error {
	tck := time.NewTicker(srv.freq)
	defer tck.Stop()

	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		case <-tck.C:
			dev, err := srv.device()
			if err != nil {
				continue
			}
			st, err := snapshot(dev)
			if err != nil {
				ctx.Msg.Errorf("could not read amplifier status: %+v", err)
				continue
			}
			if st.Faults != 0 {
				str, _ := faultStatus(st.Faults)
				ctx.Msg.Warnf("amplifier %q faults 0x%02x: %s", dev.Name(), st.Faults, str)
			}
			select {
			case srv.status <- st.encode():
			default:
			}
		}
	}
}

func snapshot(dev Device) (Status, error) {
	var (
		state = dev.State()
		eqdrc = dev.Status()
		st    = Status{
			State:   state.String(),
			Enabled: eqdrc.Enabled,
			Preset:  eqdrc.Preset,
		}
	)

	faults, err := dev.Faults()
	switch {
	case errors.Is(err, device.ErrPoweredOff):
		return st, nil
	case err != nil:
		return st, err
	}
	st.Faults = faults
	return st, nil
}
