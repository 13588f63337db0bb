// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctl

import (
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// RemoteError is an error reported by a control server.
type RemoteError struct {
	Cmd string
	Msg string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("ctl: %s: %s", e.Cmd, e.Msg)
}

// Client sends control requests to a Server.
type Client struct {
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
}

// Dial connects to the control server at addr.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ctl: could not dial %q: %w", addr, err)
	}
	return &Client{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
	}, nil
}

// Close closes the connection to the server.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Do sends the named command with args and decodes the reply payload
// into data. args and data may be nil.
//
// A command failing on the server side is reported as a *RemoteError,
// after data has been decoded.
func (c *Client) Do(name string, args, data interface{}) error {
	req := Request{Name: name}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("ctl: could not encode %q arguments: %w", name, err)
		}
		msg := json.RawMessage(raw)
		req.Args = &msg
	}

	err := c.enc.Encode(req)
	if err != nil {
		return fmt.Errorf("ctl: could not send %q request: %w", name, err)
	}

	var rep Reply
	err = c.dec.Decode(&rep)
	if err != nil {
		return fmt.Errorf("ctl: could not decode %q reply: %w", name, err)
	}

	if data != nil && len(rep.Data) > 0 {
		err = json.Unmarshal(rep.Data, data)
		if err != nil {
			return fmt.Errorf("ctl: could not decode %q reply payload: %w", name, err)
		}
	}

	if rep.Msg != "ok" {
		return &RemoteError{Cmd: name, Msg: rep.Msg}
	}
	return nil
}
