// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// SMS sends fault events to an SMS gateway end-point.
type SMS struct {
	EndPoint string
	Client   *http.Client
}

// NewSMSFromEnv creates an SMS notifier posting to SMS_ENDPOINT.
func NewSMSFromEnv() (*SMS, error) {
	ep := os.Getenv("SMS_ENDPOINT")
	if ep == "" {
		return nil, fmt.Errorf("watch: no sms end-point")
	}
	return &SMS{EndPoint: ep}, nil
}

// Notify posts evt to the gateway.
func (sms *SMS) Notify(evt Event) error {
	var msg struct {
		Action string `json:"action"`
		Data   struct {
			All bool   `json:"all"`
			Msg string `json:"message"`
		} `json:"data"`
	}
	msg.Action = "send"
	msg.Data.All = true
	msg.Data.Msg = fmt.Sprintf("[amp]: fault alert %v", evt)

	data := new(bytes.Buffer)
	err := json.NewEncoder(data).Encode(msg)
	if err != nil {
		return fmt.Errorf("watch: could not encode sms to json: %w", err)
	}

	cli := sms.Client
	if cli == nil {
		cli = http.DefaultClient
	}
	resp, err := cli.Post(sms.EndPoint, "application/json", data)
	if err != nil {
		return fmt.Errorf("watch: could not POST sms alert: %w", err)
	}
	defer resp.Body.Close()

	var status struct {
		Msg string `json:"status"`
	}
	err = json.NewDecoder(resp.Body).Decode(&status)
	if err != nil {
		return fmt.Errorf("watch: could not decode sms reply: %w", err)
	}
	if status.Msg != "success" {
		return fmt.Errorf("watch: could not send sms: status=%q", status.Msg)
	}
	return nil
}
