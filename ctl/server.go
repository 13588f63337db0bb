// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ctl exposes an amplifier for live tuning over a JSON-over-TCP
// protocol.
//
// Each request is a JSON object {"name": cmd, "args": {...}}.
// Each reply is a JSON object {"msg": "ok"|error, "data": {...}}.
package ctl // import "github.com/go-lpc/amp/ctl"

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/go-lpc/amp/device"
)

// Device is an amplifier driven by the control server.
type Device interface {
	Name() string
	State() device.State
	Status() device.Status
	Presets() []string

	Init() error
	Suspend() error
	Resume() error
	Shutdown() error

	SelectPreset(i int) error
	SetEnabled(on bool) error
	ApplyPatch(txt string) error
	SetSoftMute(mute bool) error
	SoftMute() (byte, error)
	SetVolume(addr uint8, v byte) error
	Volume(addr uint8) (byte, error)
	SetSysClock(freq uint) error

	Dump(w io.Writer) error
	DumpRegister(addr uint8) (string, error)
	ErrorStatus() (before, after string, err error)
}

// Server serves control requests for one amplifier.
type Server struct {
	ln  net.Listener
	msg *log.Logger
	dev Device

	wg sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger of the server.
func WithLogger(msg *log.Logger) Option {
	return func(srv *Server) {
		srv.msg = msg
	}
}

// NewServer creates a control server for dev, listening on addr.
func NewServer(addr string, dev Device, opts ...Option) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ctl: could not listen on %q: %w", addr, err)
	}

	srv := &Server{
		ln:  ln,
		msg: log.New(os.Stdout, "ctl: ", 0),
		dev: dev,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv, nil
}

// Addr returns the address the server listens on.
func (srv *Server) Addr() net.Addr {
	return srv.ln.Addr()
}

// Run accepts connections until ctx is done or the server is closed.
// Connections are served concurrently.
func (srv *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = srv.ln.Close()
	}()
	defer srv.wg.Wait()

	for {
		conn, err := srv.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("ctl: could not accept connection: %w", err)
		}

		srv.wg.Add(1)
		go func() {
			defer srv.wg.Done()
			srv.handle(ctx, conn)
		}()
	}
}

// Close stops accepting connections.
func (srv *Server) Close() error {
	return srv.ln.Close()
}

// Request is a control request.
type Request struct {
	Name string           `json:"name"`
	Args *json.RawMessage `json:"args,omitempty"`
}

// Reply is the reply to a control request.
type Reply struct {
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (srv *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	srv.msg.Printf("serving %v...", conn.RemoteAddr())
	defer srv.msg.Printf("serving %v... [done]", conn.RemoteAddr())

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	var (
		dec = json.NewDecoder(conn)
		enc = json.NewEncoder(conn)
	)
	for {
		var req Request
		err := dec.Decode(&req)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			srv.msg.Printf("could not decode command request: %+v", err)
			srv.reply(enc, nil, err)
			return
		}
		srv.msg.Printf("received request: name=%q", req.Name)

		data, err := srv.dispatch(req)
		if err != nil {
			srv.msg.Printf("could not run %q: %+v", req.Name, err)
		}
		srv.reply(enc, data, err)
	}
}

func (srv *Server) reply(enc *json.Encoder, data interface{}, err error) {
	rep := Reply{Msg: "ok"}
	if err != nil {
		rep.Msg = fmt.Sprintf("%+v", err)
	}
	if data != nil {
		raw, merr := json.Marshal(data)
		if merr != nil {
			rep.Msg = fmt.Sprintf("could not encode reply: %+v", merr)
		}
		rep.Data = raw
	}

	_ = enc.Encode(rep)
}

func decodeArgs(req Request, v interface{}) error {
	if req.Args == nil {
		return fmt.Errorf("missing %q arguments", req.Name)
	}
	err := json.Unmarshal(*req.Args, v)
	if err != nil {
		return fmt.Errorf("could not decode %q arguments: %w", req.Name, err)
	}
	return nil
}

// Payloads of the control commands.
type (
	StateReply struct {
		State   string `json:"state"`
		Enabled bool   `json:"enabled"`
		Preset  int    `json:"preset"`
	}

	RegArgs struct {
		Addr uint8 `json:"addr"`
	}

	ErrorsReply struct {
		Before string `json:"before"`
		After  string `json:"after"`
	}

	PatchArgs struct {
		Patch string `json:"patch"`
	}

	EnableArgs struct {
		Enable bool `json:"enable"`
	}

	PresetArgs struct {
		Index int    `json:"index"`
		Name  string `json:"name,omitempty"`
	}

	MuteArgs struct {
		Mute bool `json:"mute"`
	}

	VolumeArgs struct {
		Reg   uint8  `json:"reg"`
		Value *uint8 `json:"value,omitempty"`
	}

	SysClockArgs struct {
		Freq uint `json:"freq"`
	}
)

func (srv *Server) dispatch(req Request) (interface{}, error) {
	dev := srv.dev
	switch strings.ToLower(req.Name) {
	case "speaker-name":
		return dev.Name(), nil

	case "state":
		st := dev.Status()
		return StateReply{
			State:   dev.State().String(),
			Enabled: st.Enabled,
			Preset:  st.Preset,
		}, nil

	case "presets":
		return dev.Presets(), nil

	case "init":
		return nil, dev.Init()

	case "suspend":
		return nil, dev.Suspend()

	case "resume":
		return nil, dev.Resume()

	case "shutdown":
		return nil, dev.Shutdown()

	case "dump":
		o := new(strings.Builder)
		err := dev.Dump(o)
		return o.String(), err

	case "dump-reg":
		var args RegArgs
		if err := decodeArgs(req, &args); err != nil {
			return nil, err
		}
		line, err := dev.DumpRegister(args.Addr)
		if err != nil {
			return nil, err
		}
		return line, nil

	case "errors":
		before, after, err := dev.ErrorStatus()
		return ErrorsReply{Before: before, After: after}, err

	case "eq-param":
		var args PatchArgs
		if err := decodeArgs(req, &args); err != nil {
			return nil, err
		}
		return nil, dev.ApplyPatch(args.Patch)

	case "eq-drc":
		if req.Args == nil {
			return EnableArgs{Enable: dev.Status().Enabled}, nil
		}
		var args EnableArgs
		if err := decodeArgs(req, &args); err != nil {
			return nil, err
		}
		return nil, dev.SetEnabled(args.Enable)

	case "eq-preset":
		if req.Args == nil {
			var (
				i     = dev.Status().Preset
				names = dev.Presets()
				name  string
			)
			if 0 <= i && i < len(names) {
				name = names[i]
			}
			return PresetArgs{Index: i, Name: name}, nil
		}
		var args PresetArgs
		if err := decodeArgs(req, &args); err != nil {
			return nil, err
		}
		return nil, dev.SelectPreset(args.Index)

	case "soft-mute":
		if req.Args == nil {
			v, err := dev.SoftMute()
			if err != nil {
				return nil, err
			}
			return MuteArgs{Mute: v != 0}, nil
		}
		var args MuteArgs
		if err := decodeArgs(req, &args); err != nil {
			return nil, err
		}
		return nil, dev.SetSoftMute(args.Mute)

	case "volume":
		var args VolumeArgs
		if err := decodeArgs(req, &args); err != nil {
			return nil, err
		}
		if args.Value != nil {
			return nil, dev.SetVolume(args.Reg, *args.Value)
		}
		v, err := dev.Volume(args.Reg)
		if err != nil {
			return nil, err
		}
		return VolumeArgs{Reg: args.Reg, Value: &v}, nil

	case "sysclk":
		var args SysClockArgs
		if err := decodeArgs(req, &args); err != nil {
			return nil, err
		}
		return nil, dev.SetSysClock(args.Freq)
	}

	return nil, fmt.Errorf("unknown command %q", req.Name)
}
